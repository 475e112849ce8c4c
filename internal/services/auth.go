package services

import (
	"errors"

	"SPX-VAL/internal/models"
	"SPX-VAL/internal/ratelimit"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/store"

	"go.uber.org/zap"
)

var ErrTooManyAttempts = errors.New("too many login attempts")

type AuthService struct {
	users    *store.UserStore
	sessions *session.Manager
	limiter  *ratelimit.KeyedRateLimiter
	logger   *zap.Logger
}

// NewAuthService wires login to the user store. limiter may be nil to
// disable throttling.
func NewAuthService(users *store.UserStore, sessions *session.Manager, limiter *ratelimit.KeyedRateLimiter, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "auth")),
	}
}

// Login checks credentials and opens a session. clientKey identifies the
// caller for throttling, usually the client IP.
func (s *AuthService) Login(username, password, clientKey string) (*session.Session, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		s.logger.Warn("login throttled", zap.String("client", clientKey), zap.String("username", username))
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			s.logger.Info("login rejected", zap.String("username", username))
		}
		return nil, err
	}

	sess := s.sessions.Create(*user)
	s.logger.Info("login", zap.String("username", user.Username), zap.String("session_id", sess.ID))
	return sess, nil
}

func (s *AuthService) Register(username, password, fullName, role string) (*models.User, error) {
	return s.users.Register(username, password, fullName, role)
}

func (s *AuthService) Logout(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *AuthService) Session(id string) (*session.Session, error) {
	return s.sessions.Get(id)
}
