package postgres

// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository, writer and session interfaces used by the HTTP/API and
// services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements.

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// uniqueViolation is the SQLSTATE code raised by duplicate key inserts.
const uniqueViolation = "23505"

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- User reads ---

// UserByUsername returns the user with the given name. The comparison is
// case-insensitive via lower(username).
func (s *Store) UserByUsername(ctx context.Context, username string) (ledger.User, error) {
	var u ledger.User
	err := s.pool.QueryRow(ctx, `
		select id, username, password
		from users
		where lower(username) = lower($1)
	`, username).Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// UserByID fetches a single user by id.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	var u ledger.User
	err := s.pool.QueryRow(ctx, `
		select id, username, password from users where id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// --- User writes ---

// CreateUser inserts a user row. A duplicate username maps to errs.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u ledger.User) (ledger.User, error) {
	_, err := s.pool.Exec(ctx, `
		insert into users (id, username, password) values ($1, $2, $3)
	`, u.ID, u.Username, u.Password)
	if isUniqueViolation(err) {
		return ledger.User{}, errs.ErrConflict
	}
	if err != nil {
		return ledger.User{}, err
	}
	return u, nil
}

// --- Entry reads ---

// EntriesByUserID returns all entries for a user.
func (s *Store) EntriesByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		select id, user_id, occurred_on, kind, category, amount_minor, currency, created_at
		from entries
		where user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Entry, 0)
	for rows.Next() {
		var e ledger.Entry
		var occurredOn, kind, category, currency string
		var minor int64
		if err := rows.Scan(&e.ID, &e.UserID, &occurredOn, &kind, &category, &minor, &currency, &e.CreatedAt); err != nil {
			return nil, err
		}
		amt, err := money.NewAmountFromMinorUnits(currency, minor)
		if err != nil {
			return nil, err
		}
		e.OccurredOn = ledger.Date(occurredOn)
		e.Kind = ledger.Kind(kind)
		e.Category = ledger.Category(category)
		e.Amount = amt
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Entry writes ---

// CreateEntry inserts an entry row.
func (s *Store) CreateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	_, err := s.pool.Exec(ctx, `
		insert into entries (id, user_id, occurred_on, kind, category, amount_minor, currency, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, e.ID, e.UserID, string(e.OccurredOn), string(e.Kind), string(e.Category),
		e.AmountMinor(), e.Currency(), e.CreatedAt.UTC())
	if err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// DeleteEntry removes an entry. Zero affected rows is not an error.
func (s *Store) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		delete from entries where id = $1 and user_id = $2
	`, entryID, userID)
	return err
}

// --- Sessions ---

// SaveSession stores a session token for a user.
func (s *Store) SaveSession(ctx context.Context, sess ledger.Session) error {
	_, err := s.pool.Exec(ctx, `
		insert into sessions (token, user_id, created_at) values ($1, $2, $3)
	`, sess.Token, sess.UserID, sess.CreatedAt.UTC())
	return err
}

// SessionByToken resolves a session by its token.
func (s *Store) SessionByToken(ctx context.Context, token string) (ledger.Session, error) {
	sess := ledger.Session{Token: token}
	err := s.pool.QueryRow(ctx, `
		select user_id, created_at from sessions where token = $1
	`, token).Scan(&sess.UserID, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Session{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Session{}, err
	}
	return sess, nil
}

// DeleteSession discards a session token. Unknown tokens are a no-op.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `delete from sessions where token = $1`, token)
	return err
}
