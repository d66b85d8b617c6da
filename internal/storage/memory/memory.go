package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing us
// to plug in a real DB later.
import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// Store is an in-memory implementation of the repository, writer and session
// interfaces used by the services. It is guarded by an RWMutex for concurrent
// reads/writes.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]ledger.User
	entries  map[uuid.UUID]ledger.Entry
	sessions map[string]ledger.Session
	// usernameIdx maps lowercased usernames to user IDs for the
	// case-insensitive uniqueness rule.
	usernameIdx map[string]uuid.UUID
	// entryIDsByUser tracks each owner's entries in insertion order.
	entryIDsByUser map[uuid.UUID][]uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:          make(map[uuid.UUID]ledger.User),
		entries:        make(map[uuid.UUID]ledger.Entry),
		sessions:       make(map[string]ledger.Session),
		usernameIdx:    make(map[string]uuid.UUID),
		entryIDsByUser: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u ledger.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.usernameIdx[strings.ToLower(u.Username)] = u.ID
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]ledger.User{}
	s.entries = map[uuid.UUID]ledger.Entry{}
	s.sessions = map[string]ledger.Session{}
	s.usernameIdx = map[string]uuid.UUID{}
	s.entryIDsByUser = map[uuid.UUID][]uuid.UUID{}
	s.mu.Unlock()
}

// --- users ---

// CreateUser implements auth.Writer.
func (s *Store) CreateUser(_ context.Context, u ledger.User) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, ok := s.usernameIdx[key]; ok {
		return ledger.User{}, errs.ErrConflict
	}
	s.users[u.ID] = u
	s.usernameIdx[key] = u.ID
	return u, nil
}

// UserByUsername implements auth.Repo. The lookup is case-insensitive.
func (s *Store) UserByUsername(_ context.Context, username string) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIdx[strings.ToLower(username)]
	if !ok {
		return ledger.User{}, errs.ErrNotFound
	}
	return s.users[id], nil
}

// UserByID implements auth.Repo.
func (s *Store) UserByID(_ context.Context, id uuid.UUID) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return ledger.User{}, errs.ErrNotFound
	}
	return u, nil
}

// --- entries ---

// CreateEntry implements ledgersvc.Writer.
func (s *Store) CreateEntry(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	s.entryIDsByUser[e.UserID] = append(s.entryIDsByUser[e.UserID], e.ID)
	return e, nil
}

// DeleteEntry implements ledgersvc.Writer. A missing id is a no-op.
func (s *Store) DeleteEntry(_ context.Context, userID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.UserID != userID {
		return nil
	}
	delete(s.entries, entryID)
	ids := s.entryIDsByUser[userID]
	for i, id := range ids {
		if id == entryID {
			s.entryIDsByUser[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// EntriesByUserID implements ledgersvc.Repo. Results are in insertion order;
// the service applies presentation ordering.
func (s *Store) EntriesByUserID(_ context.Context, userID uuid.UUID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.entryIDsByUser[userID]
	out := make([]ledger.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- sessions ---

// SaveSession implements auth.SessionStore.
func (s *Store) SaveSession(_ context.Context, sess ledger.Session) error {
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return nil
}

// SessionByToken implements auth.SessionStore.
func (s *Store) SessionByToken(_ context.Context, token string) (ledger.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return ledger.Session{}, errs.ErrNotFound
	}
	return sess, nil
}

// DeleteSession implements auth.SessionStore. A missing token is a no-op.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
