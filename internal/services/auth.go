package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventrsvp/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	sessionRepo    domain.SessionRepository
	hasher         domain.PasswordHasher
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates an AuthService. emailService may be nil, in which case no welcome email is sent.
func NewAuthService(userRepo domain.UserRepository, sessionRepo domain.SessionRepository, hasher domain.PasswordHasher, emailService domain.EmailService, logger *slog.Logger, timeout time.Duration) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		hasher:         hasher,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, domain.NewValidationError("name, email and password are required")
	}
	if !emailRegexp.MatchString(email) {
		return nil, domain.NewValidationError("invalid email format")
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := domain.NewUser(name, email, hash, salt, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailService != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, Name: user.Name}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend the same bcrypt time as a real comparison.
			_ = s.hasher.Compare(s.dummyPasswordHash(), "", password)
			return nil, nil, domain.ErrNoSuchUser
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		if errors.Is(err, domain.ErrBadCredentials) {
			return nil, nil, domain.ErrBadCredentials
		}
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(domain.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, user, nil
}

// Authenticate resolves a session id to its user and slides the expiry forward.
func (s *authService) Authenticate(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, nil, domain.ErrNoSession
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if session.Expired(now) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "err", err)
		}
		return nil, nil, domain.ErrSessionExpired
	}

	expiresAt := now.Add(domain.SessionTTL)
	if err := s.sessionRepo.Touch(ctx, session.ID, expiresAt); err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			return nil, nil, domain.ErrNoSession
		}
		return nil, nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	session.ExpiresAt = expiresAt

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrNoSession
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *authService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("", uuid.NewString())
		if err != nil {
			s.logger.Warn("failed to build dummy password hash", "err", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
