package model

import "time"

// Habit is a recurring daily practice with a running streak.
type Habit struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Streak         int         `json:"streak"`
	CompletedDates []time.Time `json:"completedDates"`
	Archived       bool        `json:"archived"`
}

type HabitPatch struct {
	Name     *string
	Streak   *int
	Archived *bool
}
