// Package auth implements identity and session management: registration with
// duplicate-username rejection, login with a deliberately generic failure, and
// opaque server-side session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
)

// Repo defines read operations needed by the service. Username lookups are
// case-insensitive.
type Repo interface {
	UserByUsername(ctx context.Context, username string) (ledger.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateUser(ctx context.Context, u ledger.User) (ledger.User, error)
}

// SessionStore persists login sessions keyed by token.
type SessionStore interface {
	SaveSession(ctx context.Context, s ledger.Session) error
	SessionByToken(ctx context.Context, token string) (ledger.Session, error)
	// DeleteSession removes the session if present and returns nil either way.
	DeleteSession(ctx context.Context, token string) error
}

// Service exposes register/login/logout and session resolution.
type Service interface {
	Register(ctx context.Context, username, password string) (ledger.User, ledger.Session, error)
	Login(ctx context.Context, username, password string) (ledger.User, ledger.Session, error)
	Logout(ctx context.Context, token string) error
	SessionUser(ctx context.Context, token string) (ledger.User, error)
}

type service struct {
	repo     Repo
	writer   Writer
	sessions SessionStore
	now      func() time.Time
}

// New constructs the auth service over the given store.
func New(repo Repo, writer Writer, sessions SessionStore) Service {
	return &service{repo: repo, writer: writer, sessions: sessions, now: time.Now}
}

// Register creates a new user and an initial session. A username that already
// exists (case-insensitively) is rejected with errs.ErrConflict before any
// state is written.
func (s *service) Register(ctx context.Context, username, password string) (ledger.User, ledger.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return ledger.User{}, ledger.Session{}, ErrEmptyUsername
	}
	if password == "" {
		return ledger.User{}, ledger.Session{}, ErrEmptyPassword
	}
	if _, err := s.repo.UserByUsername(ctx, username); err == nil {
		return ledger.User{}, ledger.Session{}, errs.ErrConflict
	} else if !errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, ledger.Session{}, err
	}
	user, err := s.writer.CreateUser(ctx, ledger.User{ID: uuid.New(), Username: username, Password: password})
	if err != nil {
		return ledger.User{}, ledger.Session{}, err
	}
	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return ledger.User{}, ledger.Session{}, err
	}
	return user, sess, nil
}

// Login verifies credentials and establishes a session. Unknown usernames and
// wrong passwords fail identically with errs.ErrUnauthorized.
func (s *service) Login(ctx context.Context, username, password string) (ledger.User, ledger.Session, error) {
	username = strings.TrimSpace(username)
	user, err := s.repo.UserByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, ledger.Session{}, errs.ErrUnauthorized
	}
	if err != nil {
		return ledger.User{}, ledger.Session{}, err
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return ledger.User{}, ledger.Session{}, errs.ErrUnauthorized
	}
	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return ledger.User{}, ledger.Session{}, err
	}
	return user, sess, nil
}

// Logout drops the session; an unknown token is a no-op.
func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errs.ErrInvalid
	}
	return s.sessions.DeleteSession(ctx, token)
}

// SessionUser resolves the user behind a session token.
func (s *service) SessionUser(ctx context.Context, token string) (ledger.User, error) {
	if token == "" {
		return ledger.User{}, errs.ErrUnauthorized
	}
	sess, err := s.sessions.SessionByToken(ctx, token)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, errs.ErrUnauthorized
	}
	if err != nil {
		return ledger.User{}, err
	}
	user, err := s.repo.UserByID(ctx, sess.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.User{}, errs.ErrUnauthorized
	}
	return user, err
}

func (s *service) startSession(ctx context.Context, userID uuid.UUID) (ledger.Session, error) {
	tok, err := newToken()
	if err != nil {
		return ledger.Session{}, err
	}
	sess := ledger.Session{Token: tok, UserID: userID, CreatedAt: s.now().UTC()}
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return ledger.Session{}, err
	}
	return sess, nil
}

// newToken returns 32 bytes of randomness in hex.
func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
