package model

import (
	"strings"
	"time"
)

type ExpenseCategory string

const (
	ExpenseFood          ExpenseCategory = "Food"
	ExpenseTransport     ExpenseCategory = "Transport"
	ExpenseBills         ExpenseCategory = "Bills"
	ExpenseShopping      ExpenseCategory = "Shopping"
	ExpenseEntertainment ExpenseCategory = "Entertainment"
	ExpenseHealth        ExpenseCategory = "Health"
	ExpenseOther         ExpenseCategory = "Other"
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	ExpenseFood, ExpenseTransport, ExpenseBills, ExpenseShopping,
	ExpenseEntertainment, ExpenseHealth, ExpenseOther,
}

// ParseExpenseCategory matches a category case-insensitively, falling back to Other.
func ParseExpenseCategory(raw string) ExpenseCategory {
	for _, c := range ExpenseCategories {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c
		}
	}
	return ExpenseOther
}

// ImportedExpensePrefix tags expenses that came from the group-expense sync.
const ImportedExpensePrefix = "[Splitwise]"

type Expense struct {
	ID       string          `json:"id"`
	Amount   float64         `json:"amount"`
	Category ExpenseCategory `json:"category"`
	Note     string          `json:"note"`
	Date     time.Time       `json:"date"`
}

// Imported reports whether the row was created by an expense sync.
func (e Expense) Imported() bool {
	return strings.HasPrefix(e.Note, ImportedExpensePrefix)
}

type ExpensePatch struct {
	Amount   *float64
	Category *ExpenseCategory
	Note     *string
	Date     *time.Time
}

type CategoryTotal struct {
	Category ExpenseCategory
	Total    float64
}
