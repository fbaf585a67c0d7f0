package service

import (
	"fmt"

	"life-organizer/internal/predict"
	"life-organizer/internal/store"
)

// Stores is the set of collections owned by the composition root and
// threaded through every service.
type Stores struct {
	Tasks     *store.TaskStore
	Habits    *store.HabitStore
	Groceries *store.GroceryStore
	Expenses  *store.ExpenseStore
	Predictor *predict.Predictor
}

// Result is the success/failure outcome reported to the user.
type Result struct {
	OK      bool
	Message string
}

func okResult(format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func failResult(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// Settle turns a store error into a Result. A persistence failure still
// counts as success because the in-memory change was applied.
func Settle(err error, success string) Result {
	switch {
	case err == nil:
		return Result{OK: true, Message: success}
	case store.IsPersistError(err):
		return Result{OK: true, Message: success + " (not saved yet, will retry on the next change)"}
	default:
		return Result{Message: err.Error()}
	}
}
