package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSessionCodec_RoundTrip(t *testing.T) {
	codec := NewJWTSessionCodec("test-secret")

	token, err := codec.Encode("0b8e3c4a-5f0e-4b7a-9d52-1d2c3b4a5f60")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "0b8e3c4a-5f0e-4b7a-9d52-1d2c3b4a5f60", id)
}

func TestJWTSessionCodec_Decode_rejects(t *testing.T) {
	codec := NewJWTSessionCodec("test-secret")
	otherSecret, err := NewJWTSessionCodec("other-secret").Encode("sess-1")
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: sessionTokenIssuer}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "sess-1", Issuer: "someone-else"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"signed with other secret", otherSecret},
		{"missing session id", noID},
		{"wrong issuer", wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			assert.ErrorIs(t, err, ErrInvalidSessionToken)
		})
	}
}
