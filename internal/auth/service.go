package auth

import (
	"crypto/subtle"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"teltrip/internal/config"
	"teltrip/internal/types"
)

// Service verifies dashboard credentials and manages sessions.
type Service struct {
	username     string
	passwordHash types.SecretString
	sessions     *SessionStore
	logger       *slog.Logger
}

// NewService creates the auth service from configuration. When no
// credentials are configured (local development), Enabled() reports false
// and the HTTP layer skips the session requirement.
func NewService(cfg config.AuthConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		sessions:     NewSessionStore(cfg.SessionTTL),
		logger:       logger,
	}
}

// Enabled reports whether login is configured.
func (s *Service) Enabled() bool {
	return s.username != "" && s.passwordHash.Unmask() != ""
}

// Login verifies the credentials and creates a session. The username check
// is constant-time and the password is verified against the configured
// bcrypt hash; both failures return the same error to avoid user
// enumeration.
func (s *Service) Login(username, password string) (Session, error) {
	invalid := types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid credentials", nil)

	if !s.Enabled() {
		return Session{}, invalid
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passwordOK := bcrypt.CompareHashAndPassword([]byte(s.passwordHash.Unmask()), []byte(password)) == nil
	if !usernameOK || !passwordOK {
		s.logger.Warn("dashboard login rejected", "username", username)
		return Session{}, invalid
	}

	return s.sessions.Create(username)
}

// Validate resolves a session cookie value to a live session.
func (s *Service) Validate(sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, types.NewAppError(types.ErrCodeAuthSessionMissing, "no valid session", nil)
	}
	return s.sessions.Validate(sessionID)
}

// Logout invalidates the session, if any.
func (s *Service) Logout(sessionID string) {
	if sessionID != "" {
		s.sessions.Invalidate(sessionID)
	}
}
