// Package dictionary holds the curated category set exposed to clients.
package dictionary

import "github.com/tallyhq/tally/internal/ledger"

type CategoryDef struct {
	Code  ledger.Category `json:"code"`
	Label string          `json:"label"`
	// Kinds lists the entry kinds the category is suggested for.
	Kinds []ledger.Kind `json:"kinds"`
}

var curated = []CategoryDef{
	{Code: ledger.CategoryUncategorized, Label: "Uncategorized", Kinds: []ledger.Kind{ledger.KindIncome, ledger.KindExpense}},
	{Code: ledger.CategoryGeneral, Label: "General", Kinds: []ledger.Kind{ledger.KindIncome, ledger.KindExpense}},
	{Code: ledger.CategoryGroceries, Label: "Groceries", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryEatingOut, Label: "Eating Out", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryTransport, Label: "Transport", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryShopping, Label: "Shopping", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryEntertainment, Label: "Entertainment", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryBills, Label: "Bills", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryTravel, Label: "Travel", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryHealth, Label: "Health", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategorySalary, Label: "Salary", Kinds: []ledger.Kind{ledger.KindIncome}},
	{Code: ledger.CategorySavings, Label: "Savings", Kinds: []ledger.Kind{ledger.KindIncome, ledger.KindExpense}},
	{Code: ledger.CategoryCharity, Label: "Charity", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryFamily, Label: "Family", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryGifts, Label: "Gifts", Kinds: []ledger.Kind{ledger.KindIncome, ledger.KindExpense}},
	{Code: ledger.CategoryPersonalCare, Label: "Personal Care", Kinds: []ledger.Kind{ledger.KindExpense}},
	{Code: ledger.CategoryBusiness, Label: "Business", Kinds: []ledger.Kind{ledger.KindIncome, ledger.KindExpense}},
}

// All returns the full curated list in display order.
func All() []CategoryDef {
	out := make([]CategoryDef, len(curated))
	copy(out, curated)
	return out
}

// Known reports whether c is part of the curated set.
func Known(c ledger.Category) bool {
	for _, def := range curated {
		if def.Code == c {
			return true
		}
	}
	return false
}
