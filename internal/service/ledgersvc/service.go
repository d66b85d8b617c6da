// Package ledgersvc implements the owner-scoped ledger facade: it assigns
// identifiers and creation timestamps, orders listings, and owns all access to
// the entry store.
package ledgersvc

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/dictionary"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/stats"
)

// validationError carries a human-readable message while unwrapping to
// errs.ErrUnprocessable, so the API layer can map the whole family to one
// status without enumerating every sentinel.
type validationError string

func (e validationError) Error() string { return string(e) }
func (e validationError) Unwrap() error { return errs.ErrUnprocessable }

// Validation errors surfaced to the API layer.
var (
	ErrInvalidAmount    = validationError("amount must be > 0")
	ErrInvalidKind      = validationError("kind must be income or expense")
	ErrInvalidDate      = validationError("date must be YYYY-MM-DD")
	ErrUnknownCategory  = validationError("unknown category")
	ErrCurrencyMismatch = validationError("currency must match the base currency")
)

// Repo defines read operations needed by the service.
type Repo interface {
	EntriesByUserID(ctx context.Context, userID uuid.UUID) ([]ledger.Entry, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	CreateEntry(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
	// DeleteEntry removes the entry if present and returns nil either way.
	DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error
}

// Service exposes validation, creation, listing, deletion and summarization
// of ledger entries.
type Service interface {
	ValidateEntry(e ledger.Entry) error
	Add(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]ledger.Entry, error)
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	Summary(ctx context.Context, userID uuid.UUID, today ledger.Date) (stats.Summary, error)
}

type service struct {
	repo         Repo
	writer       Writer
	baseCurrency string
	now          func() time.Time
}

// New constructs the ledger service over the given store. All entries are
// kept in baseCurrency; summaries would silently mix units otherwise.
func New(repo Repo, writer Writer, baseCurrency string) Service {
	return &service{repo: repo, writer: writer, baseCurrency: strings.ToUpper(baseCurrency), now: time.Now}
}

// ValidateEntry checks the caller-supplied fields of a prospective entry.
// ID and CreatedAt are ignored; Add assigns them.
func (s *service) ValidateEntry(e ledger.Entry) error {
	if e.UserID == uuid.Nil {
		return errs.ErrInvalid
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if e.AmountMinor() <= 0 {
		return ErrInvalidAmount
	}
	if e.Currency() != s.baseCurrency {
		return ErrCurrencyMismatch
	}
	if !e.OccurredOn.Valid() {
		return ErrInvalidDate
	}
	if e.Category != "" && !dictionary.Known(e.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// Add persists a validated entry, assigning a fresh unique ID and stamping
// CreatedAt. The returned entry is the fully-populated record.
func (s *service) Add(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	if err := s.ValidateEntry(e); err != nil {
		return ledger.Entry{}, err
	}
	e.ID = uuid.New()
	e.CreatedAt = s.now().UTC()
	if e.Category == "" {
		e.Category = ledger.CategoryUncategorized
	}
	return s.writer.CreateEntry(ctx, e)
}

// ListByOwner returns the owner's entries ordered by CreatedAt descending
// (most recent first), ties broken by ID for a stable order.
func (s *service) ListByOwner(ctx context.Context, userID uuid.UUID) ([]ledger.Entry, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	entries, err := s.repo.EntriesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID.String() > entries[j].ID.String()
	})
	return entries, nil
}

// Delete removes the entry with the given id from the owner's ledger.
// Deleting an id that does not exist is a no-op, not an error.
func (s *service) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if userID == uuid.Nil || entryID == uuid.Nil {
		return errs.ErrInvalid
	}
	return s.writer.DeleteEntry(ctx, userID, entryID)
}

// Summary loads the owner's current snapshot and aggregates it against today.
func (s *service) Summary(ctx context.Context, userID uuid.UUID, today ledger.Date) (stats.Summary, error) {
	if userID == uuid.Nil {
		return stats.Summary{}, errs.ErrInvalid
	}
	entries, err := s.repo.EntriesByUserID(ctx, userID)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(entries, today), nil
}
