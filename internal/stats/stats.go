// Package stats derives presentation summaries from a ledger snapshot.
// Everything here is a pure function of its inputs: no storage access, no
// clock reads, no side effects.
package stats

import (
	"github.com/govalues/money"

	"github.com/tallyhq/tally/internal/ledger"
)

// Summary aggregates a ledger snapshot for one owner.
// NetBalance = TotalIncome - TotalExpense and may be negative.
type Summary struct {
	TotalIncome  money.Amount
	TotalExpense money.Amount
	NetBalance   money.Amount
	TodayExpense money.Amount
	MonthExpense money.Amount
}

// Summarize walks entries once and buckets expense amounts against the
// supplied reference date. Entries whose OccurredOn does not parse still count
// toward the lifetime totals but never toward the day/month buckets; a
// malformed `today` simply leaves both buckets at zero.
//
// Entries must share one currency — the ledger service rejects any other
// currency before it is stored — and that currency labels the result (USD on
// an empty snapshot). The result is independent of entry order: all
// arithmetic is plain addition of minor units.
func Summarize(entries []ledger.Entry, today ledger.Date) Summary {
	var income, expense, todayExp, monthExp int64
	month := today.YearMonth()
	curr := ""
	for _, e := range entries {
		if curr == "" {
			curr = e.Currency()
		}
		units := e.AmountMinor()
		if e.Kind == ledger.KindIncome {
			income += units
			continue
		}
		expense += units
		if !e.OccurredOn.Valid() {
			continue
		}
		if e.OccurredOn == today {
			todayExp += units
		}
		if month != "" && e.OccurredOn.YearMonth() == month {
			monthExp += units
		}
	}
	if curr == "" {
		curr = "USD"
	}
	return Summary{
		TotalIncome:  amount(curr, income),
		TotalExpense: amount(curr, expense),
		NetBalance:   amount(curr, income-expense),
		TodayExpense: amount(curr, todayExp),
		MonthExpense: amount(curr, monthExp),
	}
}

func amount(curr string, minor int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(curr, minor)
	if err != nil {
		a, _ = money.NewAmountFromMinorUnits("USD", minor)
	}
	return a
}
