package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/model"
)

// DefaultTaskSlot is the storage slot for tasks.
const DefaultTaskSlot = "omni-tasks"

// CompletionRecorder learns from completed task titles.
type CompletionRecorder interface {
	RecordCompletion(title string) error
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title         string
	ScheduledDate string
	DueTime       *time.Time
	Priority      model.Priority
	Notes         string
	List          string
	Flagged       bool
}

// RolloverAction resolves the tasks missed before this session started.
type RolloverAction int

const (
	// RollForward moves missed tasks into today.
	RollForward RolloverAction = iota
	// ClearMissed deletes missed tasks.
	ClearMissed
)

// MergeResult counts what an import did.
type MergeResult struct {
	Added   int
	Updated int
}

// TaskStore owns the task collection.
type TaskStore struct {
	mu       sync.Mutex
	tasks    collection[model.Task]
	recorder CompletionRecorder
	opts     options
	missed   []string
}

// NewTaskStore loads tasks from kv and runs the rollover check once:
// pending tasks dated before today become PendingRollover until resolved.
// recorder may be nil.
func NewTaskStore(kv KV, recorder CompletionRecorder, opts ...Option) *TaskStore {
	o := buildOptions(DefaultTaskSlot, opts)
	s := &TaskStore{
		tasks:    loadCollection[model.Task](kv, o.slot, o.log),
		recorder: recorder,
		opts:     o,
	}
	for _, t := range s.missedAt(o.now()) {
		s.missed = append(s.missed, t.ID)
	}
	if len(s.missed) > 0 {
		o.log.Info("missed tasks detected", zap.Int("count", len(s.missed)))
	}
	return s
}

func (s *TaskStore) loc() *time.Location {
	return s.opts.now().Location()
}

func (s *TaskStore) today() string {
	return s.opts.now().Format(model.DateLayout)
}

func validateDate(field, value string) error {
	if _, err := time.Parse(model.DateLayout, value); err != nil {
		return invalid(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", value))
	}
	return nil
}

func (s *TaskStore) indexOf(id string) int {
	for i, t := range s.tasks.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Add creates a pending task. ScheduledDate defaults to today.
func (s *TaskStore) Add(in TaskInput) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, invalid("title", "must not be blank")
	}
	date := strings.TrimSpace(in.ScheduledDate)
	if date != "" {
		if err := validateDate("scheduledDate", date); err != nil {
			return model.Task{}, err
		}
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityNone
	}
	if !priority.Valid() {
		return model.Task{}, invalid("priority", fmt.Sprintf("unknown level %q", priority))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	if date == "" {
		date = now.Format(model.DateLayout)
	}
	task := model.Task{
		ID:            s.opts.newID(),
		Title:         title,
		Status:        model.StatusPending,
		ScheduledDate: date,
		DueTime:       in.DueTime,
		CreatedAt:     now,
		Priority:      priority,
		Notes:         in.Notes,
		List:          in.List,
		Flagged:       in.Flagged,
	}
	s.tasks.items = append(s.tasks.items, task)
	return task, s.tasks.persist()
}

// Toggle flips a task between completed and pending. Completing a task
// forwards its title to the completion recorder. ok is false when id is unknown.
func (s *TaskStore) Toggle(id string) (task model.Task, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false, nil
	}
	t := &s.tasks.items[i]
	if t.Status == model.StatusCompleted {
		t.Status = model.StatusPending
	} else {
		t.Status = model.StatusCompleted
		if s.recorder != nil {
			if rerr := s.recorder.RecordCompletion(t.Title); rerr != nil {
				s.opts.log.Warn("record completion", zap.String("task_id", t.ID), zap.Error(rerr))
			}
		}
	}
	return *t, true, s.tasks.persist()
}

func validateTaskPatch(p model.TaskPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", "must not be blank")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", *p.Status))
	}
	if p.ScheduledDate != nil {
		if err := validateDate("scheduledDate", *p.ScheduledDate); err != nil {
			return err
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalid("priority", fmt.Sprintf("unknown level %q", *p.Priority))
	}
	return nil
}

// Update applies the set fields of patch. Unknown ids are ignored.
func (s *TaskStore) Update(id string, patch model.TaskPatch) error {
	if err := validateTaskPatch(patch); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	t := &s.tasks.items[i]
	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.ScheduledDate != nil {
		t.ScheduledDate = *patch.ScheduledDate
	}
	if patch.ClearDueTime {
		t.DueTime = nil
	} else if patch.DueTime != nil {
		due := *patch.DueTime
		t.DueTime = &due
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.List != nil {
		t.List = *patch.List
	}
	if patch.Flagged != nil {
		t.Flagged = *patch.Flagged
	}
	return s.tasks.persist()
}

// Delete removes a task. Unknown ids are ignored.
func (s *TaskStore) Delete(id string) error {
	_, err := s.DeleteWhere(func(t model.Task) bool { return t.ID == id })
	return err
}

// DeleteWhere removes every task matching pred.
func (s *TaskStore) DeleteWhere(pred func(model.Task) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tasks.removeWhere(pred)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.tasks.persist()
}

// ClearForDate removes every task whose effective date is date.
func (s *TaskStore) ClearForDate(date string) (int, error) {
	if err := validateDate("date", date); err != nil {
		return 0, err
	}
	loc := s.loc()
	return s.DeleteWhere(func(t model.Task) bool { return t.EffectiveDate(loc) == date })
}

// ClearAll empties the collection.
func (s *TaskStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.items = nil
	return s.tasks.persist()
}

func (s *TaskStore) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.snapshot()
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks.items[i], true
	}
	return model.Task{}, false
}

// ForDate lists the tasks of one day view.
func (s *TaskStore) ForDate(date string) []model.Task {
	loc := s.loc()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.filter(func(t model.Task) bool { return t.EffectiveDate(loc) == date })
}

// Today lists the tasks of the current day view.
func (s *TaskStore) Today() []model.Task {
	return s.ForDate(s.today())
}

// Missed lists pending tasks whose effective date is before now's date.
func (s *TaskStore) Missed(now time.Time) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missedAt(now)
}

func (s *TaskStore) missedAt(now time.Time) []model.Task {
	loc := now.Location()
	today := now.Format(model.DateLayout)
	return s.tasks.filter(func(t model.Task) bool {
		return t.Status == model.StatusPending && t.EffectiveDate(loc) < today
	})
}

// PendingRollover lists the missed tasks found when the store was loaded
// that have not been resolved yet.
func (s *TaskStore) PendingRollover() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := toSet(s.missed)
	return s.tasks.filter(func(t model.Task) bool { return ids[t.ID] })
}

// ResolveRollover applies action to the missed tasks and clears the missed
// set. It returns how many tasks were affected.
func (s *TaskStore) ResolveRollover(action RolloverAction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := toSet(s.missed)
	s.missed = nil
	if len(ids) == 0 {
		return 0, nil
	}

	var affected int
	switch action {
	case RollForward:
		now := s.opts.now()
		today := now.Format(model.DateLayout)
		for i := range s.tasks.items {
			t := &s.tasks.items[i]
			if !ids[t.ID] {
				continue
			}
			t.CreatedAt = now
			t.ScheduledDate = today
			affected++
		}
	case ClearMissed:
		affected = s.tasks.removeWhere(func(t model.Task) bool { return ids[t.ID] })
	default:
		return 0, fmt.Errorf("unknown rollover action %d", action)
	}
	if affected == 0 {
		return 0, nil
	}
	return affected, s.tasks.persist()
}

func validateImported(batch []model.Task) error {
	for i, in := range batch {
		field := fmt.Sprintf("batch[%d]", i)
		if strings.TrimSpace(in.Title) == "" {
			return invalid(field+".title", "must not be blank")
		}
		if in.ScheduledDate != "" {
			if err := validateDate(field+".scheduledDate", in.ScheduledDate); err != nil {
				return err
			}
		}
		if in.Priority != "" && !in.Priority.Valid() {
			return invalid(field+".priority", fmt.Sprintf("unknown level %q", in.Priority))
		}
	}
	return nil
}

func (s *TaskStore) matchImported(in model.Task) int {
	if in.SyncID != "" {
		for i, t := range s.tasks.items {
			if t.SyncID == in.SyncID {
				return i
			}
		}
	}
	title := strings.TrimSpace(in.Title)
	for i, t := range s.tasks.items {
		if strings.EqualFold(t.Title, title) {
			return i
		}
	}
	return -1
}

// MergeImported folds an externally sourced batch into the collection.
// Each entry matches an existing task by sync identifier, then by
// case-insensitive title. A match only receives the non-empty synced fields
// (priority, notes, list, flagged, sync id, due time, scheduled date); local
// fields are kept. Unmatched entries are appended as pending tasks. The batch
// is validated up front and rejected whole if any entry is invalid. Merging
// the same batch again changes nothing.
func (s *TaskStore) MergeImported(batch []model.Task) (MergeResult, error) {
	if err := validateImported(batch); err != nil {
		return MergeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res MergeResult
	now := s.opts.now()
	for _, in := range batch {
		if i := s.matchImported(in); i >= 0 {
			mergeSyncedFields(&s.tasks.items[i], in)
			res.Updated++
			continue
		}
		task := model.Task{
			ID:            s.opts.newID(),
			Title:         strings.TrimSpace(in.Title),
			Status:        model.StatusPending,
			ScheduledDate: in.ScheduledDate,
			CreatedAt:     in.CreatedAt,
			Priority:      model.PriorityNone,
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		if task.ScheduledDate == "" {
			task.ScheduledDate = now.Format(model.DateLayout)
		}
		mergeSyncedFields(&task, in)
		s.tasks.items = append(s.tasks.items, task)
		res.Added++
	}
	if len(batch) == 0 {
		return res, nil
	}
	return res, s.tasks.persist()
}

func mergeSyncedFields(dst *model.Task, in model.Task) {
	if in.Priority != "" && in.Priority != model.PriorityNone {
		dst.Priority = in.Priority
	}
	if in.Notes != "" {
		dst.Notes = in.Notes
	}
	if in.List != "" {
		dst.List = in.List
	}
	if in.Flagged {
		dst.Flagged = true
	}
	if in.SyncID != "" {
		dst.SyncID = in.SyncID
	}
	if in.DueTime != nil {
		due := *in.DueTime
		dst.DueTime = &due
	}
	if in.ScheduledDate != "" {
		dst.ScheduledDate = in.ScheduledDate
	}
}

// DueForNotification lists pending tasks whose due time has passed within
// window and that have not been notified since they became due.
func (s *TaskStore) DueForNotification(now time.Time, window time.Duration) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.filter(func(t model.Task) bool {
		if t.Status != model.StatusPending || t.DueTime == nil {
			return false
		}
		due := *t.DueTime
		if due.After(now) || now.Sub(due) > window {
			return false
		}
		return t.NotifiedAt == nil || t.NotifiedAt.Before(due)
	})
}

// MarkNotified stamps the given tasks as notified at.
func (s *TaskStore) MarkNotified(ids []string, at time.Time) error {
	set := toSet(ids)
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.tasks.items {
		t := &s.tasks.items[i]
		if set[t.ID] {
			stamp := at
			t.NotifiedAt = &stamp
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.tasks.persist()
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
