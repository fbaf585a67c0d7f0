package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-organizer/internal/model"
	"life-organizer/internal/repository"
)

func TestExpenseStore_AddValidation(t *testing.T) {
	c := newClock(day(10, 12))
	s := NewExpenseStore(repository.NewMemoryKV(), WithClock(c.Now))

	for _, amount := range []float64{0, -4, math.NaN(), math.Inf(1)} {
		_, err := s.Add(ExpenseInput{Amount: amount})
		assert.True(t, IsValidationError(err), "amount %v", amount)
	}
	assert.Empty(t, s.All())

	e, err := s.Add(ExpenseInput{Amount: 12.5, Category: "groceries", Note: " lunch "})
	require.NoError(t, err)
	assert.Equal(t, model.ExpenseOther, e.Category)
	assert.Equal(t, "lunch", e.Note)
	assert.Equal(t, day(10, 12), e.Date)
}

func TestExpenseStore_Totals(t *testing.T) {
	c := newClock(day(10, 12))
	s := NewExpenseStore(repository.NewMemoryKV(), WithClock(c.Now))

	entries := []ExpenseInput{
		{Amount: 10, Category: model.ExpenseFood, Date: day(10, 8)},
		{Amount: 5.5, Category: model.ExpenseTransport, Date: day(10, 18)},
		{Amount: 20, Category: model.ExpenseFood, Date: day(9, 12)},
		{Amount: 100, Category: model.ExpenseBills, Date: day(2, 12)},
		{Amount: 999, Category: model.ExpenseShopping, Date: day(10, 12).AddDate(0, -1, 0)},
	}
	for _, in := range entries {
		_, err := s.Add(in)
		require.NoError(t, err)
	}

	now := c.Now()
	assert.InDelta(t, 15.5, s.DailyTotal(now), 1e-9)
	assert.InDelta(t, 135.5, s.MonthlyTotal(now), 1e-9)
	assert.Equal(t, []model.CategoryTotal{
		{Category: model.ExpenseFood, Total: 30},
		{Category: model.ExpenseTransport, Total: 5.5},
		{Category: model.ExpenseBills, Total: 100},
	}, s.CategoryTotals(now))
}

func TestExpenseStore_ReplaceImported(t *testing.T) {
	c := newClock(day(10, 12))
	s := NewExpenseStore(repository.NewMemoryKV(), WithClock(c.Now), WithIDGenerator(sequentialIDs("e")))
	manual, err := s.Add(ExpenseInput{Amount: 7, Category: model.ExpenseFood, Note: "bagel"})
	require.NoError(t, err)

	batch := []ExpenseInput{
		{Amount: 30, Category: "Food", Note: "Dinner", Date: day(5, 20)},
		{Amount: 12, Category: "Transport", Note: "Taxi", Date: day(5, 20).AddDate(0, -1, 0)},
	}
	n, err := s.ReplaceImported(batch, c.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, manual, all[0])
	assert.Equal(t, model.ImportedExpensePrefix+" Dinner", all[1].Note)
	assert.True(t, all[1].Imported())

	n, err = s.ReplaceImported(batch, c.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, s.All(), 2, "re-import replaces instead of duplicating")

	_, err = s.ReplaceImported([]ExpenseInput{{Amount: 3, Date: day(6, 1)}, {Amount: -1, Date: day(6, 1)}}, c.Now())
	assert.True(t, IsValidationError(err))
	assert.Len(t, s.All(), 2)
}

func TestExpenseStore_UpdateDelete(t *testing.T) {
	c := newClock(day(10, 12))
	s := NewExpenseStore(repository.NewMemoryKV(), WithClock(c.Now), WithIDGenerator(sequentialIDs("e")))
	_, err := s.Add(ExpenseInput{Amount: 4, Category: model.ExpenseHealth})
	require.NoError(t, err)

	amount := 6.25
	cat := model.ExpenseCategory("health")
	require.NoError(t, s.Update("e-1", model.ExpensePatch{Amount: &amount, Category: &cat}))
	got := s.All()[0]
	assert.Equal(t, 6.25, got.Amount)
	assert.Equal(t, model.ExpenseHealth, got.Category)

	zero := 0.0
	assert.True(t, IsValidationError(s.Update("e-1", model.ExpensePatch{Amount: &zero})))

	require.NoError(t, s.Delete("e-2"))
	assert.Len(t, s.All(), 1)
	require.NoError(t, s.Delete("e-1"))
	assert.Empty(t, s.All())
}
