package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookmood/internal/apperr"
	"bookmood/internal/domain"
	"bookmood/internal/metrics"
	"bookmood/internal/repos"
	"bookmood/internal/validate"
)

var ErrBadCreds = apperr.Auth("invalid credentials")

const defaultSessionTTL = 30 * 24 * time.Hour

// UserStore is the persistence the identity provider needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id int64) (*domain.User, error)
	BindSession(ctx context.Context, sid string, userID int64, expiresAt string) error
	SessionUser(ctx context.Context, sid string) (*repos.SessionRow, error)
	UnbindSession(ctx context.Context, sid string) error
}

type AuthService struct {
	Users UserStore
	// Tokens is optional; without it Login issues no bearer token.
	Tokens     *TokenService
	SessionTTL time.Duration
	HashCost   int
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Session is the result of a successful login.
type Session struct {
	ID        string
	User      *domain.User
	ExpiresAt time.Time
	Token     string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if details := validate.Struct(in); details != nil {
		return nil, apperr.Validation("INVALID_INPUT", "invalid data", details)
	}

	existing, err := s.Users.ByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.Conflict("EMAIL_TAKEN", "a user with this email already exists")
	case err != nil && !errors.Is(err, repos.ErrNotFound):
		return nil, apperr.Internal("server error", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, apperr.Internal("server error", err)
	}
	u := &domain.User{Name: in.Name, Email: in.Email, Hash: string(hash)}
	if err := s.Users.Create(ctx, u); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, apperr.Conflict("EMAIL_TAKEN", "a user with this email already exists")
		}
		return nil, apperr.Internal("server error", err)
	}
	metrics.SignupsTotal.Inc()
	return u, nil
}

// Login checks credentials and binds a fresh session id to the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("fail").Inc()
			return nil, ErrBadCreds
		}
		return nil, apperr.Internal("server error", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("fail").Inc()
		return nil, ErrBadCreds
	}

	sess := &Session{ID: uuid.NewString(), User: u, ExpiresAt: time.Now().UTC().Add(s.ttl()).Truncate(time.Second)}
	if err := s.Users.BindSession(ctx, sess.ID, u.ID, sess.ExpiresAt.Format(time.RFC3339)); err != nil {
		return nil, apperr.Internal("server error", err)
	}
	if s.Tokens != nil {
		tok, err := s.Tokens.Sign(u, sess.ID, sess.ExpiresAt)
		if err != nil {
			return nil, apperr.Internal("server error", err)
		}
		sess.Token = tok
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser resolves a session id to its user.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	u, _, err := s.currentSession(ctx, sid)
	return u, err
}

// SessionExpiry reports when sid stops being valid.
func (s *AuthService) SessionExpiry(ctx context.Context, sid string) (time.Time, error) {
	_, exp, err := s.currentSession(ctx, sid)
	return exp, err
}

// BearerSession validates a bearer token and returns the session it wraps.
func (s *AuthService) BearerSession(ctx context.Context, raw string) (string, *domain.User, error) {
	if s.Tokens == nil {
		return "", nil, apperr.Auth("bearer tokens are not enabled")
	}
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return "", nil, &apperr.Error{Kind: apperr.KindAuth, Code: "UNAUTHORIZED", Message: "invalid token", Cause: err}
	}
	u, err := s.CurrentUser(ctx, claims.SessionID)
	if err != nil {
		return "", nil, err
	}
	if uid, err := claims.UserID(); err != nil || uid != u.ID {
		return "", nil, apperr.Auth("invalid token")
	}
	return claims.SessionID, u, nil
}

func (s *AuthService) currentSession(ctx context.Context, sid string) (*domain.User, time.Time, error) {
	if sid == "" {
		return nil, time.Time{}, apperr.Auth("unauthorized")
	}
	row, err := s.Users.SessionUser(ctx, sid)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, time.Time{}, apperr.Auth("unauthorized")
		}
		return nil, time.Time{}, apperr.Internal("server error", err)
	}
	exp, _ := time.Parse(time.RFC3339, row.ExpiresAt)
	u := row.User
	return &u, exp, nil
}

func (s *AuthService) cost() int {
	if s.HashCost == 0 {
		return 12
	}
	return s.HashCost
}

func (s *AuthService) ttl() time.Duration {
	if s.SessionTTL <= 0 {
		return defaultSessionTTL
	}
	return s.SessionTTL
}
