// Package sqlite provides a SQLite-backed store using the pure-Go
// modernc.org/sqlite driver. The expected schema is created by the embedded
// migrations in this package.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"

	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB handle and implements the repository, writer and
// session interfaces used across the service layer.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ready pings the database to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- users ---

// CreateUser implements auth.Writer.
func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, username, password) values (?, ?, ?)
	`, u.ID.String(), u.Username, u.Password)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ledger.User{}, errs.ErrConflict
		}
		return ledger.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UserByUsername implements auth.Repo. The username column is COLLATE NOCASE,
// so the match is case-insensitive.
func (s *Store) UserByUsername(ctx context.Context, username string) (ledger.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, username, password from users where username = ?
	`, username)
	return scanUser(row)
}

// UserByID implements auth.Repo.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, username, password from users where id = ?
	`, id.String())
	return scanUser(row)
}

func scanUser(row *sql.Row) (ledger.User, error) {
	var rawID, username, password string
	err := row.Scan(&rawID, &username, &password)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, fmt.Errorf("scan user: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return ledger.User{}, fmt.Errorf("parse user id: %w", err)
	}
	return ledger.User{ID: id, Username: username, Password: password}, nil
}

// --- entries ---

// CreateEntry implements ledgersvc.Writer.
func (s *Store) CreateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into entries (id, user_id, occurred_on, kind, category, amount_minor, currency, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.UserID.String(), string(e.OccurredOn), string(e.Kind), string(e.Category),
		e.AmountMinor(), e.Currency(), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	slog.InfoContext(ctx, "entry saved",
		"id", e.ID,
		"user_id", e.UserID,
		"kind", e.Kind,
		"amount_minor", e.AmountMinor())
	return e, nil
}

// DeleteEntry implements ledgersvc.Writer. Deleting an unknown id affects
// zero rows and is not an error.
func (s *Store) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		delete from entries where id = ? and user_id = ?
	`, entryID.String(), userID.String())
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// EntriesByUserID implements ledgersvc.Repo.
func (s *Store) EntriesByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, occurred_on, kind, category, amount_minor, currency, created_at
		from entries
		where user_id = ?
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	out := make([]ledger.Entry, 0)
	for rows.Next() {
		var rawID, rawUser, occurredOn, kind, category, currency, createdAt string
		var minor int64
		if err := rows.Scan(&rawID, &rawUser, &occurredOn, &kind, &category, &minor, &currency, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		uid, err := uuid.Parse(rawUser)
		if err != nil {
			return nil, fmt.Errorf("parse entry user id: %w", err)
		}
		amt, err := money.NewAmountFromMinorUnits(currency, minor)
		if err != nil {
			return nil, fmt.Errorf("amount for entry %s: %w", rawID, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, ledger.Entry{
			ID:         id,
			UserID:     uid,
			OccurredOn: ledger.Date(occurredOn),
			Kind:       ledger.Kind(kind),
			Category:   ledger.Category(category),
			Amount:     amt,
			CreatedAt:  ts,
		})
	}
	return out, rows.Err()
}

// --- sessions ---

// SaveSession implements auth.SessionStore.
func (s *Store) SaveSession(ctx context.Context, sess ledger.Session) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sessions (token, user_id, created_at) values (?, ?, ?)
	`, sess.Token, sess.UserID.String(), sess.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SessionByToken implements auth.SessionStore.
func (s *Store) SessionByToken(ctx context.Context, token string) (ledger.Session, error) {
	var rawUser, createdAt string
	err := s.db.QueryRowContext(ctx, `
		select user_id, created_at from sessions where token = ?
	`, token).Scan(&rawUser, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Session{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Session{}, fmt.Errorf("scan session: %w", err)
	}
	uid, err := uuid.Parse(rawUser)
	if err != nil {
		return ledger.Session{}, fmt.Errorf("parse session user id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return ledger.Session{}, fmt.Errorf("parse session created_at: %w", err)
	}
	return ledger.Session{Token: token, UserID: uid, CreatedAt: ts}, nil
}

// DeleteSession implements auth.SessionStore.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
