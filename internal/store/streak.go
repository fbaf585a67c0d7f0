package store

import (
	"time"

	"life-organizer/internal/model"
)

// StreakPolicy decides a habit's streak after a toggle has updated its
// completion dates.
type StreakPolicy interface {
	Streak(previous int, dates []time.Time, completed bool, now time.Time) int
}

// IncrementalStreak adds one on completion and subtracts one (floored at
// zero) on undo. It never looks at history, so the value can drift from the
// number of consecutive days after gaps.
type IncrementalStreak struct{}

func (IncrementalStreak) Streak(previous int, _ []time.Time, completed bool, _ time.Time) int {
	if completed {
		return previous + 1
	}
	if previous <= 1 {
		return 0
	}
	return previous - 1
}

// ConsecutiveDaysStreak recomputes the streak from the completion dates: the
// run of consecutive days ending today, or yesterday when today is not done yet.
type ConsecutiveDaysStreak struct{}

func (ConsecutiveDaysStreak) Streak(_ int, dates []time.Time, _ bool, now time.Time) int {
	loc := now.Location()
	days := make(map[string]bool, len(dates))
	for _, d := range dates {
		days[d.In(loc).Format(model.DateLayout)] = true
	}
	if len(days) == 0 {
		return 0
	}

	y, m, d := now.Date()
	cursor := time.Date(y, m, d, 12, 0, 0, 0, loc)
	if !days[cursor.Format(model.DateLayout)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for days[cursor.Format(model.DateLayout)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
