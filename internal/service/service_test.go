package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"life-organizer/internal/model"
	"life-organizer/internal/predict"
	"life-organizer/internal/repository"
	"life-organizer/internal/store"
)

var wednesday = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newStores(now func() time.Time) Stores {
	kv := repository.NewMemoryKV()
	pred := predict.New(kv, predict.WithClock(now))
	return Stores{
		Tasks:     store.NewTaskStore(kv, pred, store.WithClock(now)),
		Habits:    store.NewHabitStore(kv, nil, store.WithClock(now)),
		Groceries: store.NewGroceryStore(kv, store.WithClock(now)),
		Expenses:  store.NewExpenseStore(kv, store.WithClock(now)),
		Predictor: pred,
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

type staticTargets []string

func (s staticTargets) Targets(context.Context) ([]string, error) { return s, nil }

func TestSettle(t *testing.T) {
	assert.Equal(t, Result{OK: true, Message: "done"}, Settle(nil, "done"))

	res := Settle(&store.PersistError{Slot: "x", Err: errors.New("disk full")}, "done")
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "not saved")

	res = Settle(&store.ValidationError{Field: "title", Reason: "must not be blank"}, "done")
	assert.False(t, res.OK)
	assert.Equal(t, "invalid title: must not be blank", res.Message)
}
