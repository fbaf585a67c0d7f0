package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-organizer/internal/model"
	"life-organizer/internal/proxy"
)

type fakeReminders struct {
	tasks []model.Task
	err   error
}

func (f fakeReminders) FetchReminders(context.Context) ([]model.Task, error) { return f.tasks, f.err }

type fakeExpenses struct {
	out     []proxy.ExpenseCandidate
	err     error
	groupID string
}

func (f *fakeExpenses) FetchExpenses(_ context.Context, groupID string) ([]proxy.ExpenseCandidate, error) {
	f.groupID = groupID
	return f.out, f.err
}

type fakePlanner struct {
	recipes []model.Recipe
	err     error
	current []string
}

func (f *fakePlanner) Plan(_ context.Context, _ string, current []string) ([]model.Recipe, error) {
	f.current = current
	return f.recipes, f.err
}

func TestSyncReminders_Idempotent(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	due := wednesday.Add(48 * time.Hour)
	src := fakeReminders{tasks: []model.Task{
		{Title: "Renew passport", SyncID: "a", ScheduledDate: "2024-01-12", DueTime: &due, Priority: model.PriorityHigh},
		{Title: "Water plants", SyncID: "b"},
	}}
	svc := NewSyncService(stores, src, nil, nil)

	res := svc.SyncReminders(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "Reminders synced: 2 new, 0 updated", res.Message)
	once := stores.Tasks.All()

	res = svc.SyncReminders(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "Reminders synced: 0 new, 2 updated", res.Message)
	assert.Equal(t, once, stores.Tasks.All())
}

func TestSyncReminders_Failures(t *testing.T) {
	stores := newStores(fixedClock(wednesday))

	res := NewSyncService(stores, fakeReminders{err: &proxy.StatusError{Code: 404, Message: "No reminder lists found"}}, nil, nil).
		SyncReminders(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, "Reminder sync failed: No reminder lists found", res.Message)

	res = NewSyncService(stores, fakeReminders{tasks: []model.Task{{Title: "ok"}, {Title: ""}}}, nil, nil).
		SyncReminders(context.Background())
	assert.False(t, res.OK)
	assert.Empty(t, stores.Tasks.All(), "an invalid batch is rejected whole")

	res = NewSyncService(stores, nil, nil, nil).SyncReminders(context.Background())
	assert.False(t, res.OK)
}

func TestSyncExpenses(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	src := &fakeExpenses{out: []proxy.ExpenseCandidate{
		{Amount: 300, Category: "Food", Note: "[Splitwise] Dinner", Date: wednesday.AddDate(0, 0, -3)},
		{Amount: 80, Category: "Transport", Note: "Cab", Date: wednesday.AddDate(0, -1, 0)},
	}}
	svc := NewSyncService(stores, nil, src, nil, WithExpenseGroup("42"), WithSyncClock(fixedClock(wednesday)))

	res := svc.SyncExpenses(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, "42", src.groupID)
	assert.Equal(t, "Imported 1 shared expenses for this month", res.Message)

	res = svc.SyncExpenses(context.Background())
	assert.True(t, res.OK)
	all := stores.Expenses.All()
	require.Len(t, all, 1)
	assert.Equal(t, "[Splitwise] Dinner", all[0].Note)

	src.err = context.DeadlineExceeded
	res = svc.SyncExpenses(context.Background())
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "timed out")
	assert.Len(t, stores.Expenses.All(), 1)
}

func TestPlanAndImportRecipe(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	_, err := stores.Groceries.Add("Rice", "Grains")
	require.NoError(t, err)

	planner := &fakePlanner{recipes: []model.Recipe{{
		Name: "Veg pulao",
		Ingredients: []model.Ingredient{
			{Name: "rice", Category: "Grains", IsEssential: true},
			{Name: "Peas", Category: "Vegetables"},
		},
	}}}
	svc := NewSyncService(stores, nil, nil, planner)

	_, res := svc.PlanGroceries(context.Background(), " ")
	assert.False(t, res.OK)

	recipes, res := svc.PlanGroceries(context.Background(), "one-pot dinners")
	require.True(t, res.OK)
	assert.Equal(t, []string{"Rice"}, planner.current)
	require.Len(t, recipes, 1)

	res = svc.ImportRecipe(recipes[0])
	assert.True(t, res.OK)
	assert.Equal(t, "Added 1 items for Veg pulao to the shopping list", res.Message)
	shopping := stores.Groceries.ShoppingList()
	require.Len(t, shopping, 1)
	assert.Equal(t, "Peas", shopping[0].Name)

	res = svc.ImportRecipe(recipes[0])
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "already in the pantry")

	planner.err = errors.New("boom")
	_, res = svc.PlanGroceries(context.Background(), "again")
	assert.False(t, res.OK)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "endpoint is not configured", describe(proxy.ErrNotConfigured))
	assert.Equal(t, "the service answered 500", describe(&proxy.StatusError{Code: 500}))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
