package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
)

// Kind classifies an entry as money coming in or going out.
type Kind string

const (
	// KindIncome records money received by the owner.
	KindIncome Kind = "income"
	// KindExpense records money spent by the owner.
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the two closed variants.
func (k Kind) Valid() bool { return k == KindIncome || k == KindExpense }

// Category labels an entry with a spending bucket from the curated set.
type Category string

const (
	CategoryUncategorized Category = "uncategorized"
	CategoryGeneral       Category = "general"
	CategoryGroceries     Category = "groceries"
	CategoryEatingOut     Category = "eating_out"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryBills         Category = "bills"
	CategoryTravel        Category = "travel"
	CategoryHealth        Category = "health"
	CategorySalary        Category = "salary"
	CategorySavings       Category = "savings"
	CategoryCharity       Category = "charity"
	CategoryFamily        Category = "family"
	CategoryGifts         Category = "gifts"
	CategoryPersonalCare  Category = "personal_care"
	CategoryBusiness      Category = "business"
)

// DateLayout is the wire format for calendar dates (no time component).
const DateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. It is kept as a string on
// purpose: entries with malformed dates still participate in lifetime totals,
// so parsing is deferred to the point where a real date is needed.
type Date string

// NewDate formats t's calendar date in UTC.
func NewDate(t time.Time) Date { return Date(t.UTC().Format(DateLayout)) }

// Time parses the date at midnight UTC.
func (d Date) Time() (time.Time, error) { return time.Parse(DateLayout, string(d)) }

// Valid reports whether d parses as a calendar date.
func (d Date) Valid() bool { _, err := d.Time(); return err == nil }

// YearMonth returns the YYYY-MM prefix, or "" when the date is malformed.
func (d Date) YearMonth() string {
	if !d.Valid() {
		return ""
	}
	return string(d)[:7]
}

// User captures the owner of ledger data. Password is stored as supplied;
// credential hardening is out of scope for this service.
type User struct {
	ID       uuid.UUID
	Username string
	Password string
}

// Entry is one income or expense record in the ledger.
// ID, UserID and CreatedAt are assigned once and never mutated; the only
// operations on a stored entry are read and hard delete.
type Entry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	OccurredOn Date
	Kind       Kind
	Category   Category
	Amount     money.Amount
	CreatedAt  time.Time
}

// AmountMinor returns the amount in minor units (e.g. cents).
func (e Entry) AmountMinor() int64 {
	units, _ := e.Amount.MinorUnits()
	return units
}

// Currency returns the ISO code of the entry's amount.
func (e Entry) Currency() string { return e.Amount.Curr().Code() }

// Session links an opaque token to a user for the duration of a login.
type Session struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
}
