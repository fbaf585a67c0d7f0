package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/store"
)

// Notifier delivers one notification to its target.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// TargetSource lists the recipients of due-task notifications.
type TargetSource interface {
	Targets(ctx context.Context) ([]string, error)
}

// FanOut delivers every notification through each notifier in turn.
type FanOut []Notifier

func (f FanOut) Notify(ctx context.Context, n model.Notification) error {
	var errs []error
	delivered := false
	for _, notifier := range f {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	return errors.Join(errs...)
}

// ReminderService decides which tasks are due for a push and builds the
// daily digest.
type ReminderService struct {
	stores   Stores
	notifier Notifier
	targets  TargetSource
	window   time.Duration
	log      *zap.Logger
}

func NewReminderService(stores Stores, notifier Notifier, targets TargetSource, window time.Duration, log *zap.Logger) *ReminderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderService{stores: stores, notifier: notifier, targets: targets, window: window, log: log}
}

// SetDelivery binds the notifier and the target source. It exists for
// callers whose notifier depends on the service itself, and must run before
// the first EvaluateNow.
func (s *ReminderService) SetDelivery(notifier Notifier, targets TargetSource) {
	s.notifier = notifier
	s.targets = targets
}

// DueNotification is the message pushed for a task whose due time arrived.
func DueNotification(task model.Task) model.Notification {
	return model.Notification{
		Title:  "Task Due!",
		Body:   "It's time for: " + task.Title,
		Tag:    "task-" + task.ID,
		TaskID: task.ID,
	}
}

// EvaluateNow runs one due-task pass: every task that became due within the
// notification window and was not notified since is pushed to every target,
// then marked notified. A task whose deliveries all failed stays unmarked and
// is retried on the next pass. It returns how many tasks were notified.
func (s *ReminderService) EvaluateNow(ctx context.Context, now time.Time) (int, error) {
	due := s.stores.Tasks.DueForNotification(now, s.window)
	if len(due) == 0 {
		return 0, nil
	}

	if s.notifier == nil || s.targets == nil {
		return 0, errors.New("reminder delivery is not configured")
	}
	targets, err := s.targets.Targets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list targets: %w", err)
	}
	if len(targets) == 0 {
		s.log.Debug("due tasks without targets", zap.Int("tasks", len(due)))
		return 0, nil
	}

	var notified []string
	for _, task := range due {
		if ctx.Err() != nil {
			break
		}
		n := DueNotification(task)
		sent := false
		for _, target := range targets {
			n.Target = target
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.log.Warn("notify", zap.String("task_id", task.ID), zap.String("target", target), zap.Error(err))
				continue
			}
			sent = true
		}
		if sent {
			notified = append(notified, task.ID)
		}
	}

	if len(notified) == 0 {
		return 0, ctx.Err()
	}
	if err := s.stores.Tasks.MarkNotified(notified, now); err != nil && !store.IsPersistError(err) {
		return 0, err
	}
	s.log.Info("due tasks notified", zap.Int("tasks", len(notified)), zap.Int("targets", len(targets)))
	return len(notified), nil
}

// DailySummary builds the HTML digest for now's date: open tasks, habits
// still to do, the shopping list, spending and suggestions.
func (s *ReminderService) DailySummary(now time.Time) string {
	today := now.Format(model.DateLayout)
	tasks := s.stores.Tasks.ForDate(today)

	var pending []model.Task
	completed := 0
	for _, task := range tasks {
		if task.Status == model.StatusCompleted {
			completed++
			continue
		}
		pending = append(pending, task)
	}
	SortByDue(pending)

	var b strings.Builder
	b.WriteString("📋 <b>Daily digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	b.WriteString(fmt.Sprintf("🔥 <b>Tasks</b> (%d/%d done)\n", completed, len(tasks)))
	if len(pending) == 0 {
		b.WriteString("Nothing open\n")
	} else {
		for _, task := range pending {
			b.WriteString(FormatTask(task, now))
			b.WriteByte('\n')
		}
	}
	if missed := s.stores.Tasks.Missed(now); len(missed) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d missed from earlier days\n", len(missed)))
	}

	b.WriteString("\n♻️ <b>Habits</b>\n")
	left := 0
	for _, h := range s.stores.Habits.Active() {
		if s.stores.Habits.CompletedToday(h) {
			continue
		}
		left++
		b.WriteString(fmt.Sprintf("▫️ %s · 🔥%d\n", html.EscapeString(h.Name), h.Streak))
	}
	if left == 0 {
		b.WriteString("All done\n")
	}

	b.WriteString("\n🛒 <b>Shopping list</b>\n")
	shopping := s.stores.Groceries.ShoppingList()
	if len(shopping) == 0 {
		b.WriteString("Pantry is stocked\n")
	} else {
		names := make([]string, 0, len(shopping))
		for _, it := range shopping {
			names = append(names, html.EscapeString(it.Name))
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteByte('\n')
	}

	b.WriteString("\n💸 <b>Spending</b>\n")
	b.WriteString(fmt.Sprintf("today %.2f · this month %.2f\n",
		s.stores.Expenses.DailyTotal(now), s.stores.Expenses.MonthlyTotal(now)))

	if s.stores.Predictor != nil {
		if suggestions := s.stores.Predictor.SuggestionsAt(now); len(suggestions) > 0 {
			b.WriteString("\n💡 <b>Usually around now</b>\n")
			for _, title := range suggestions {
				b.WriteString("• " + html.EscapeString(title) + "\n")
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// SortByDue puts tasks with a due time first, earliest first, then the rest
// by creation time.
func SortByDue(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueTime == nil && tasks[j].DueTime == nil:
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		case tasks[i].DueTime == nil:
			return false
		case tasks[j].DueTime == nil:
			return true
		default:
			return tasks[i].DueTime.Before(*tasks[j].DueTime)
		}
	})
}

// FormatTask renders one task line in HTML.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Status == model.StatusCompleted:
		icon = "✅"
	case task.DueTime != nil && now.After(*task.DueTime):
		icon = "⚠️"
	case task.DueTime != nil && task.DueTime.Sub(now) <= 2*time.Hour:
		icon = "⏳"
	case task.Flagged:
		icon = "🚩"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.Priority != "" && task.Priority != model.PriorityNone {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", task.Priority))
	}
	if task.DueTime != nil {
		sb.WriteString(fmt.Sprintf(" ⏰ %s", task.DueTime.In(now.Location()).Format("15:04")))
	}
	if task.List != "" {
		sb.WriteString(fmt.Sprintf(" · %s", html.EscapeString(task.List)))
	}
	if notes := strings.TrimSpace(task.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(notes)))
	}
	return sb.String()
}
