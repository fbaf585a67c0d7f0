package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/proxy"
	"life-organizer/internal/store"
)

// ReminderSource lists externally managed reminders.
type ReminderSource interface {
	FetchReminders(ctx context.Context) ([]model.Task, error)
}

// ExpenseSource lists group expenses owed by the user.
type ExpenseSource interface {
	FetchExpenses(ctx context.Context, groupID string) ([]proxy.ExpenseCandidate, error)
}

// GroceryPlanner suggests recipes for a prompt.
type GroceryPlanner interface {
	Plan(ctx context.Context, prompt string, current []string) ([]model.Recipe, error)
}

// SyncService pulls data from the external collaborators into the stores.
// Every import is all-or-nothing: a failed fetch or an invalid batch leaves
// the stores untouched.
type SyncService struct {
	stores    Stores
	reminders ReminderSource
	expenses  ExpenseSource
	planner   GroceryPlanner
	groupID   string
	now       func() time.Time
	log       *zap.Logger
}

type SyncOption func(*SyncService)

func WithExpenseGroup(groupID string) SyncOption {
	return func(s *SyncService) { s.groupID = groupID }
}

func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

func WithSyncLogger(log *zap.Logger) SyncOption {
	return func(s *SyncService) { s.log = log }
}

func NewSyncService(stores Stores, reminders ReminderSource, expenses ExpenseSource, planner GroceryPlanner, opts ...SyncOption) *SyncService {
	s := &SyncService{
		stores:    stores,
		reminders: reminders,
		expenses:  expenses,
		planner:   planner,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncReminders merges the remote reminders into the task list.
func (s *SyncService) SyncReminders(ctx context.Context) Result {
	if s.reminders == nil {
		return failResult("Reminder sync is not configured")
	}
	remote, err := s.reminders.FetchReminders(ctx)
	if err != nil {
		s.log.Warn("fetch reminders", zap.Error(err))
		return failResult("Reminder sync failed: %s", describe(err))
	}
	res, err := s.stores.Tasks.MergeImported(remote)
	if err != nil && !store.IsPersistError(err) {
		return failResult("Reminder sync rejected: %v", err)
	}
	return Settle(err, fmt.Sprintf("Reminders synced: %d new, %d updated", res.Added, res.Updated))
}

// SyncExpenses replaces previously imported group expenses with this
// month's current ones.
func (s *SyncService) SyncExpenses(ctx context.Context) Result {
	if s.expenses == nil {
		return failResult("Expense sync is not configured")
	}
	remote, err := s.expenses.FetchExpenses(ctx, s.groupID)
	if err != nil {
		s.log.Warn("fetch expenses", zap.Error(err))
		return failResult("Expense sync failed: %s", describe(err))
	}

	batch := make([]store.ExpenseInput, 0, len(remote))
	for _, c := range remote {
		batch = append(batch, store.ExpenseInput{
			Amount:   c.Amount,
			Category: model.ExpenseCategory(c.Category),
			Note:     c.Note,
			Date:     c.Date,
		})
	}
	n, err := s.stores.Expenses.ReplaceImported(batch, s.now())
	if err != nil && !store.IsPersistError(err) {
		return failResult("Expense sync rejected: %v", err)
	}
	return Settle(err, fmt.Sprintf("Imported %d shared expenses for this month", n))
}

// PlanGroceries asks the planner for recipes, excluding what the pantry
// already holds.
func (s *SyncService) PlanGroceries(ctx context.Context, prompt string) ([]model.Recipe, Result) {
	if s.planner == nil {
		return nil, failResult("Grocery planning is not configured")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, failResult("Tell me what you'd like to cook")
	}
	var current []string
	for _, it := range s.stores.Groceries.All() {
		current = append(current, it.Name)
	}
	recipes, err := s.planner.Plan(ctx, prompt, current)
	if err != nil {
		s.log.Warn("plan groceries", zap.Error(err))
		return nil, failResult("Grocery planning failed: %s", describe(err))
	}
	if len(recipes) == 0 {
		return nil, failResult("No recipes came back, try another prompt")
	}
	return recipes, okResult("%d recipes found", len(recipes))
}

// ImportRecipe adds a recipe's missing ingredients to the pantry as out of stock.
func (s *SyncService) ImportRecipe(recipe model.Recipe) Result {
	added, err := s.stores.Groceries.ImportIngredients(recipe.Ingredients)
	if err != nil && !store.IsPersistError(err) {
		return failResult("Import failed: %v", err)
	}
	if len(added) == 0 && err == nil {
		return okResult("Everything for %s is already in the pantry", recipe.Name)
	}
	return Settle(err, fmt.Sprintf("Added %d items for %s to the shopping list", len(added), recipe.Name))
}

// describe renders an external collaborator error for the user.
func describe(err error) string {
	var se *proxy.StatusError
	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(err, proxy.ErrNotConfigured):
		return "endpoint is not configured"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeout) && timeout.Timeout():
		return "the service timed out"
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("the service answered %d", se.Code)
	default:
		return err.Error()
	}
}
