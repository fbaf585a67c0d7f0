package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used by ScheduledDate.
const DateLayout = "2006-01-02"

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
	StatusSnoozed   TaskStatus = "snoozed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusSnoozed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts the level names case-insensitively; anything else is PriorityNone.
func ParsePriority(raw string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p.Valid() {
		return p
	}
	return PriorityNone
}

// Task represents a single item in the planner.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        TaskStatus `json:"status"`
	ScheduledDate string     `json:"scheduledDate"`
	DueTime       *time.Time `json:"dueTime,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	Priority      Priority   `json:"priority,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	List          string     `json:"list,omitempty"`
	Flagged       bool       `json:"flagged,omitempty"`
	SyncID        string     `json:"icloudUid,omitempty"`
	NotifiedAt    *time.Time `json:"notifiedAt,omitempty"`
}

// EffectiveDate is the day view the task belongs to: ScheduledDate, or the
// local calendar date of CreatedAt when no date was scheduled.
func (t Task) EffectiveDate(loc *time.Location) string {
	if t.ScheduledDate != "" {
		return t.ScheduledDate
	}
	return t.CreatedAt.In(loc).Format(DateLayout)
}

// TaskPatch lists the fields an update may set. Nil fields stay untouched.
type TaskPatch struct {
	Title         *string
	Status        *TaskStatus
	ScheduledDate *string
	DueTime       *time.Time
	ClearDueTime  bool
	Priority      *Priority
	Notes         *string
	List          *string
	Flagged       *bool
}
