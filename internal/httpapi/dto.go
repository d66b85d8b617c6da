package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/stats"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type postEntryRequest struct {
	UserID      uuid.UUID       `json:"user_id"`
	Date        ledger.Date     `json:"date"`
	Kind        ledger.Kind     `json:"kind"`
	Category    ledger.Category `json:"category,omitempty"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency,omitempty"`
}

type entryResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Date        ledger.Date     `json:"date"`
	Kind        ledger.Kind     `json:"kind"`
	Category    ledger.Category `json:"category"`
	AmountMinor int64           `json:"amount_minor"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}

// listEntriesQuery holds validated query params for GET /entries.
type listEntriesQuery struct {
	UserID uuid.UUID
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
}

// summaryQuery holds validated query params for GET /summary.
type summaryQuery struct {
	UserID uuid.UUID
	Today  ledger.Date
}

type summaryResponse struct {
	Currency          string `json:"currency"`
	TotalIncomeMinor  int64  `json:"total_income_minor"`
	TotalIncome       string `json:"total_income"`
	TotalExpenseMinor int64  `json:"total_expense_minor"`
	TotalExpense      string `json:"total_expense"`
	NetBalanceMinor   int64  `json:"net_balance_minor"`
	NetBalance        string `json:"net_balance"`
	TodayExpenseMinor int64  `json:"today_expense_minor"`
	TodayExpense      string `json:"today_expense"`
	MonthExpenseMinor int64  `json:"month_expense_minor"`
	MonthExpense      string `json:"month_expense"`
}

type adviceRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

type animateRequest struct {
	Prompt      string `json:"prompt"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

type animateResponse struct {
	VideoURI string `json:"video_uri"`
}

func toEntryDomain(req postEntryRequest, baseCurrency string) (ledger.Entry, error) {
	curr := req.Currency
	if curr == "" {
		curr = baseCurrency
	}
	amt, err := money.NewAmountFromMinorUnits(curr, req.AmountMinor)
	if err != nil {
		return ledger.Entry{}, err
	}
	return ledger.Entry{
		UserID:     req.UserID,
		OccurredOn: req.Date,
		Kind:       req.Kind,
		Category:   req.Category,
		Amount:     amt,
	}, nil
}

func toEntryResponse(e ledger.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Date:        e.OccurredOn,
		Kind:        e.Kind,
		Category:    e.Category,
		AmountMinor: e.AmountMinor(),
		Amount:      e.Amount.String(),
		Currency:    e.Currency(),
		CreatedAt:   e.CreatedAt,
	}
}

func toSummaryResponse(sum stats.Summary) summaryResponse {
	minor := func(a money.Amount) int64 {
		units, _ := a.MinorUnits()
		return units
	}
	return summaryResponse{
		Currency:          sum.TotalIncome.Curr().Code(),
		TotalIncomeMinor:  minor(sum.TotalIncome),
		TotalIncome:       sum.TotalIncome.String(),
		TotalExpenseMinor: minor(sum.TotalExpense),
		TotalExpense:      sum.TotalExpense.String(),
		NetBalanceMinor:   minor(sum.NetBalance),
		NetBalance:        sum.NetBalance.String(),
		TodayExpenseMinor: minor(sum.TodayExpense),
		TodayExpense:      sum.TodayExpense.String(),
		MonthExpenseMinor: minor(sum.MonthExpense),
		MonthExpense:      sum.MonthExpense.String(),
	}
}
