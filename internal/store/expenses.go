package store

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"life-organizer/internal/model"
)

const DefaultExpenseSlot = "omni-expenses"

// ExpenseInput represents data required to log an expense.
type ExpenseInput struct {
	Amount   float64
	Category model.ExpenseCategory
	Note     string
	Date     time.Time
}

// ExpenseStore owns the expense ledger.
type ExpenseStore struct {
	mu       sync.Mutex
	expenses collection[model.Expense]
	opts     options
}

func NewExpenseStore(kv KV, opts ...Option) *ExpenseStore {
	o := buildOptions(DefaultExpenseSlot, opts)
	return &ExpenseStore{
		expenses: loadCollection[model.Expense](kv, o.slot, o.log),
		opts:     o,
	}
}

func validateAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return invalid(field, fmt.Sprintf("%v is not a positive amount", amount))
	}
	return nil
}

func (s *ExpenseStore) indexOf(id string) int {
	for i, e := range s.expenses.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Add logs an expense. Unknown categories become Other; a zero date means now.
func (s *ExpenseStore) Add(in ExpenseInput) (model.Expense, error) {
	if err := validateAmount("amount", in.Amount); err != nil {
		return model.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.Expense{
		ID:       s.opts.newID(),
		Amount:   in.Amount,
		Category: model.ParseExpenseCategory(string(in.Category)),
		Note:     strings.TrimSpace(in.Note),
		Date:     in.Date,
	}
	if e.Date.IsZero() {
		e.Date = s.opts.now()
	}
	s.expenses.items = append(s.expenses.items, e)
	return e, s.expenses.persist()
}

func (s *ExpenseStore) Update(id string, patch model.ExpensePatch) error {
	if patch.Amount != nil {
		if err := validateAmount("amount", *patch.Amount); err != nil {
			return err
		}
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return invalid("date", "must be set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	e := &s.expenses.items[i]
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = model.ParseExpenseCategory(string(*patch.Category))
	}
	if patch.Note != nil {
		e.Note = strings.TrimSpace(*patch.Note)
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	return s.expenses.persist()
}

func (s *ExpenseStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expenses.removeWhere(func(e model.Expense) bool { return e.ID == id }) == 0 {
		return nil
	}
	return s.expenses.persist()
}

func (s *ExpenseStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses.items = nil
	return s.expenses.persist()
}

func (s *ExpenseStore) All() []model.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses.snapshot()
}

// ReplaceImported swaps every previously imported expense for batch. Only
// candidates dated in now's month are kept, each tagged with
// model.ImportedExpensePrefix. Manually logged expenses are untouched. The
// batch is rejected whole if any amount is invalid. It returns how many
// imported rows are now present.
func (s *ExpenseStore) ReplaceImported(batch []ExpenseInput, now time.Time) (int, error) {
	for i, in := range batch {
		if err := validateAmount(fmt.Sprintf("batch[%d].amount", i), in.Amount); err != nil {
			return 0, err
		}
		if in.Date.IsZero() {
			return 0, invalid(fmt.Sprintf("batch[%d].date", i), "must be set")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]model.Expense, 0, len(batch))
	for _, in := range batch {
		if !sameMonth(in.Date, now) {
			continue
		}
		note := strings.TrimSpace(in.Note)
		if !strings.HasPrefix(note, model.ImportedExpensePrefix) {
			note = strings.TrimSpace(model.ImportedExpensePrefix + " " + note)
		}
		fresh = append(fresh, model.Expense{
			ID:       s.opts.newID(),
			Amount:   in.Amount,
			Category: model.ParseExpenseCategory(string(in.Category)),
			Note:     note,
			Date:     in.Date,
		})
	}
	s.expenses.removeWhere(model.Expense.Imported)
	s.expenses.items = append(s.expenses.items, fresh...)
	return len(fresh), s.expenses.persist()
}

func sameMonth(t, now time.Time) bool {
	ty, tm, _ := t.In(now.Location()).Date()
	ny, nm, _ := now.Date()
	return ty == ny && tm == nm
}

// DailyTotal sums the expenses dated on now's local calendar day.
func (s *ExpenseStore) DailyTotal(now time.Time) float64 {
	return s.sum(func(e model.Expense) bool { return sameDay(e.Date, now, now.Location()) })
}

// MonthlyTotal sums the expenses dated in now's calendar month.
func (s *ExpenseStore) MonthlyTotal(now time.Time) float64 {
	return s.sum(func(e model.Expense) bool { return sameMonth(e.Date, now) })
}

func (s *ExpenseStore) sum(match func(model.Expense) bool) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.expenses.items {
		if match(e) {
			total += e.Amount
		}
	}
	return total
}

// CategoryTotals breaks the month's spending down by category, in
// model.ExpenseCategories order, skipping empty categories.
func (s *ExpenseStore) CategoryTotals(now time.Time) []model.CategoryTotal {
	s.mu.Lock()
	byCat := make(map[model.ExpenseCategory]float64)
	for _, e := range s.expenses.items {
		if sameMonth(e.Date, now) {
			byCat[e.Category] += e.Amount
		}
	}
	s.mu.Unlock()

	var out []model.CategoryTotal
	for _, c := range model.ExpenseCategories {
		if total, ok := byCat[c]; ok {
			out = append(out, model.CategoryTotal{Category: c, Total: total})
		}
	}
	return out
}
