package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventrsvp/internal/domain"
)

type fakeMailer struct {
	to, subject, html, text string
	err                     error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.subject, f.html, f.text = to, subject, html, text
	return nil
}

func TestEmailService_SendWelcomeMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("renders and sends", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc := NewEmailService(mailer, &fakeRenderer{}, testLogger)
		require.NoError(t, svc.SendWelcomeMessage(ctx, &domain.WelcomeMessageEmailData{Email: "a@example.com", Name: "A"}))
		assert.Equal(t, "a@example.com", mailer.to)
		assert.Equal(t, "subject:welcome", mailer.subject)
	})

	t.Run("nil data", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{}, &fakeRenderer{}, testLogger)
		require.Error(t, svc.SendWelcomeMessage(ctx, nil))
	})

	t.Run("render error", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{}, &fakeRenderer{err: errors.New("bad template")}, testLogger)
		require.Error(t, svc.SendWelcomeMessage(ctx, &domain.WelcomeMessageEmailData{Email: "a@example.com"}))
	})

	t.Run("send error", func(t *testing.T) {
		sendErr := errors.New("ses down")
		svc := NewEmailService(&fakeMailer{err: sendErr}, &fakeRenderer{}, testLogger)
		require.ErrorIs(t, svc.SendWelcomeMessage(ctx, &domain.WelcomeMessageEmailData{Email: "a@example.com"}), sendErr)
	})
}
