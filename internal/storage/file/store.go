// Package file persists the whole dataset as one JSON envelope on disk.
// Every mutation is a read-modify-write of the full collection, mirroring the
// single-blob key-value layout this service was modeled on. Reads always
// re-decode from disk; there is no in-memory cache.
//
// A mutex serializes writers within one process. Two independent Store
// handles on the same path still race: the last save wins and can silently
// drop the other handle's mutation. That lost-update behavior is inherent to
// whole-collection replacement and is covered by an explicit test rather than
// fixed here; use the sqlite or postgres backends when that matters.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

const dataVersion = 1

type userRecord struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`
}

type entryRecord struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	OccurredOn  string          `json:"date"`
	Kind        ledger.Kind     `json:"kind"`
	Category    ledger.Category `json:"category,omitempty"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

type sessionRecord struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type envelope struct {
	Version  int             `json:"version"`
	Users    []userRecord    `json:"users"`
	Entries  []entryRecord   `json:"entries"`
	Sessions []sessionRecord `json:"sessions"`
}

// Store reads and writes the envelope at a fixed path.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open prepares a store at path, creating the parent directory if needed.
// A missing file is treated as an empty dataset, never an error.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) load() (envelope, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return envelope{Version: dataVersion}, nil
	}
	if err != nil {
		return envelope{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return env, nil
}

// save replaces the entire file. The write goes through a temp file and a
// rename so a crash mid-write cannot leave a truncated envelope behind.
func (s *Store) save(env envelope) error {
	env.Version = dataVersion
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// --- users ---

// CreateUser implements auth.Writer.
func (s *Store) CreateUser(_ context.Context, u ledger.User) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return ledger.User{}, err
	}
	for _, r := range env.Users {
		if strings.EqualFold(r.Username, u.Username) {
			return ledger.User{}, errs.ErrConflict
		}
	}
	env.Users = append(env.Users, userRecord{ID: u.ID, Username: u.Username, Password: u.Password})
	if err := s.save(env); err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// UserByUsername implements auth.Repo. The lookup is case-insensitive.
func (s *Store) UserByUsername(_ context.Context, username string) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return ledger.User{}, err
	}
	for _, r := range env.Users {
		if strings.EqualFold(r.Username, username) {
			return ledger.User{ID: r.ID, Username: r.Username, Password: r.Password}, nil
		}
	}
	return ledger.User{}, errs.ErrNotFound
}

// UserByID implements auth.Repo.
func (s *Store) UserByID(_ context.Context, id uuid.UUID) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return ledger.User{}, err
	}
	for _, r := range env.Users {
		if r.ID == id {
			return ledger.User{ID: r.ID, Username: r.Username, Password: r.Password}, nil
		}
	}
	return ledger.User{}, errs.ErrNotFound
}

// --- entries ---

// CreateEntry implements ledgersvc.Writer.
func (s *Store) CreateEntry(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return ledger.Entry{}, err
	}
	env.Entries = append(env.Entries, toRecord(e))
	if err := s.save(env); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// DeleteEntry implements ledgersvc.Writer. A missing id leaves the stored
// collection untouched and returns nil.
func (s *Store) DeleteEntry(_ context.Context, userID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return err
	}
	kept := env.Entries[:0]
	removed := false
	for _, r := range env.Entries {
		if r.ID == entryID && r.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return nil
	}
	env.Entries = kept
	return s.save(env)
}

// EntriesByUserID implements ledgersvc.Repo.
func (s *Store) EntriesByUserID(_ context.Context, userID uuid.UUID) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Entry, 0)
	for _, r := range env.Entries {
		if r.UserID == userID {
			out = append(out, fromRecord(r))
		}
	}
	return out, nil
}

// --- sessions ---

// SaveSession implements auth.SessionStore.
func (s *Store) SaveSession(_ context.Context, sess ledger.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return err
	}
	env.Sessions = append(env.Sessions, sessionRecord{Token: sess.Token, UserID: sess.UserID, CreatedAt: sess.CreatedAt})
	return s.save(env)
}

// SessionByToken implements auth.SessionStore.
func (s *Store) SessionByToken(_ context.Context, token string) (ledger.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return ledger.Session{}, err
	}
	for _, r := range env.Sessions {
		if r.Token == token {
			return ledger.Session{Token: r.Token, UserID: r.UserID, CreatedAt: r.CreatedAt}, nil
		}
	}
	return ledger.Session{}, errs.ErrNotFound
}

// DeleteSession implements auth.SessionStore.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.load()
	if err != nil {
		return err
	}
	kept := env.Sessions[:0]
	removed := false
	for _, r := range env.Sessions {
		if r.Token == token {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	if !removed {
		return nil
	}
	env.Sessions = kept
	return s.save(env)
}

func toRecord(e ledger.Entry) entryRecord {
	return entryRecord{
		ID:          e.ID,
		UserID:      e.UserID,
		OccurredOn:  string(e.OccurredOn),
		Kind:        e.Kind,
		Category:    e.Category,
		AmountMinor: e.AmountMinor(),
		Currency:    e.Currency(),
		CreatedAt:   e.CreatedAt,
	}
}

func fromRecord(r entryRecord) ledger.Entry {
	amt, err := money.NewAmountFromMinorUnits(r.Currency, r.AmountMinor)
	if err != nil {
		amt, _ = money.NewAmountFromMinorUnits("USD", r.AmountMinor)
	}
	return ledger.Entry{
		ID:         r.ID,
		UserID:     r.UserID,
		OccurredOn: ledger.Date(r.OccurredOn),
		Kind:       r.Kind,
		Category:   r.Category,
		Amount:     amt,
		CreatedAt:  r.CreatedAt,
	}
}
