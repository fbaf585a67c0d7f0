package store

import (
	"strings"
	"sync"
	"time"

	"life-organizer/internal/model"
)

const DefaultHabitSlot = "omni-habits"

// HabitStore owns the habit collection.
type HabitStore struct {
	mu     sync.Mutex
	habits collection[model.Habit]
	policy StreakPolicy
	opts   options
}

// NewHabitStore loads habits from kv. A nil policy means IncrementalStreak.
func NewHabitStore(kv KV, policy StreakPolicy, opts ...Option) *HabitStore {
	o := buildOptions(DefaultHabitSlot, opts)
	if policy == nil {
		policy = IncrementalStreak{}
	}
	return &HabitStore{
		habits: loadCollection[model.Habit](kv, o.slot, o.log),
		policy: policy,
		opts:   o,
	}
}

func (s *HabitStore) indexOf(id string) int {
	for i, h := range s.habits.items {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *HabitStore) Add(name string) (model.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Habit{}, invalid("name", "must not be blank")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit := model.Habit{
		ID:             s.opts.newID(),
		Name:           name,
		CompletedDates: []time.Time{},
	}
	s.habits.items = append(s.habits.items, habit)
	return habit, s.habits.persist()
}

// CompletedToday reports whether any completion falls on today's local date.
func (s *HabitStore) CompletedToday(h model.Habit) bool {
	now := s.opts.now()
	return completedOn(h, now)
}

func completedOn(h model.Habit, day time.Time) bool {
	for _, d := range h.CompletedDates {
		if sameDay(d, day, day.Location()) {
			return true
		}
	}
	return false
}

// Toggle marks the habit done today, or undoes today's completion when it is
// already done. The streak follows the store's StreakPolicy.
func (s *HabitStore) Toggle(id string) (habit model.Habit, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Habit{}, false, nil
	}
	now := s.opts.now()
	h := &s.habits.items[i]

	completed := !completedOn(*h, now)
	dates := make([]time.Time, 0, len(h.CompletedDates)+1)
	for _, d := range h.CompletedDates {
		if !sameDay(d, now, now.Location()) {
			dates = append(dates, d)
		}
	}
	if completed {
		dates = append(dates, now)
	}
	h.Streak = s.policy.Streak(h.Streak, dates, completed, now)
	h.CompletedDates = dates
	return *h, true, s.habits.persist()
}

func (s *HabitStore) Update(id string, patch model.HabitPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("name", "must not be blank")
	}
	if patch.Streak != nil && *patch.Streak < 0 {
		return invalid("streak", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	h := &s.habits.items[i]
	if patch.Name != nil {
		h.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Streak != nil {
		h.Streak = *patch.Streak
	}
	if patch.Archived != nil {
		h.Archived = *patch.Archived
	}
	return s.habits.persist()
}

func (s *HabitStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.habits.removeWhere(func(h model.Habit) bool { return h.ID == id }) == 0 {
		return nil
	}
	return s.habits.persist()
}

func (s *HabitStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits.items = nil
	return s.habits.persist()
}

func (s *HabitStore) All() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habits.snapshot()
}

// Active lists habits that are not archived.
func (s *HabitStore) Active() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habits.filter(func(h model.Habit) bool { return !h.Archived })
}

func (s *HabitStore) Get(id string) (model.Habit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.habits.items[i], true
	}
	return model.Habit{}, false
}
