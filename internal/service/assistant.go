package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/proxy"
	"life-organizer/internal/store"
)

// ChatBackend answers a message given the recent conversation.
type ChatBackend interface {
	Chat(ctx context.Context, message string, history []proxy.ChatMessage) (proxy.ChatReply, error)
}

const (
	historySent = 5
	historyKept = 20
)

// Tool names understood by the assistant. The kebab-case spellings are
// accepted as aliases.
const (
	ToolAddTask     = "addTask"
	ToolAddHabit    = "addHabit"
	ToolAddGrocery  = "addGrocery"
	ToolLogExpense  = "logExpense"
	ToolClearPantry = "clearPantry"
	ToolClearTasks  = "clearTasks"
)

var toolAliases = map[string]string{
	"add-task":             ToolAddTask,
	"add-habit":            ToolAddHabit,
	"add-grocery":          ToolAddGrocery,
	"add-grocery-item":     ToolAddGrocery,
	"log-expense":          ToolLogExpense,
	"clear-pantry":         ToolClearPantry,
	"clear-tasks":          ToolClearTasks,
	"clear-tasks-for-date": ToolClearTasks,
}

// ToolResult reports the outcome of one executed tool call.
type ToolResult struct {
	Tool string
	Result
}

// AssistantReply is what the chat surface shows after a message.
type AssistantReply struct {
	Message string
	Results []ToolResult
}

// Assistant forwards free text to the chat backend and executes the tool
// calls it returns against the stores. It never interprets language itself.
type Assistant struct {
	stores Stores
	chat   ChatBackend
	now    func() time.Time
	log    *zap.Logger

	mu      sync.Mutex
	history []proxy.ChatMessage
}

func NewAssistant(stores Stores, chat ChatBackend, now func() time.Time, log *zap.Logger) *Assistant {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{stores: stores, chat: chat, now: now, log: log}
}

// Ask sends message with the last few turns of history and runs every
// returned tool call in order.
func (a *Assistant) Ask(ctx context.Context, message string) (AssistantReply, error) {
	message = strings.TrimSpace(message)

	a.mu.Lock()
	recent := a.recentHistory()
	a.mu.Unlock()

	reply, err := a.chat.Chat(ctx, message, recent)
	if err != nil {
		return AssistantReply{}, fmt.Errorf("assistant: %w", err)
	}

	out := AssistantReply{Message: strings.TrimSpace(reply.Message)}
	for _, call := range reply.Calls() {
		res := a.Execute(call)
		if !res.OK {
			a.log.Warn("tool failed", zap.String("tool", res.Tool), zap.String("reason", res.Message))
		}
		out.Results = append(out.Results, res)
	}
	if out.Message == "" {
		out.Message = summarize(out.Results)
	}

	a.mu.Lock()
	a.remember(proxy.ChatMessage{Role: "user", Content: message}, proxy.ChatMessage{Role: "assistant", Content: out.Message})
	a.mu.Unlock()
	return out, nil
}

// History returns a copy of the remembered conversation.
func (a *Assistant) History() []proxy.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]proxy.ChatMessage, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Assistant) recentHistory() []proxy.ChatMessage {
	start := len(a.history) - historySent
	if start < 0 {
		start = 0
	}
	out := make([]proxy.ChatMessage, len(a.history)-start)
	copy(out, a.history[start:])
	return out
}

func (a *Assistant) remember(msgs ...proxy.ChatMessage) {
	a.history = append(a.history, msgs...)
	if extra := len(a.history) - historyKept; extra > 0 {
		a.history = append([]proxy.ChatMessage(nil), a.history[extra:]...)
	}
}

func summarize(results []ToolResult) string {
	if len(results) == 0 {
		return "I didn't quite get that. Could you try again?"
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Message)
	}
	return strings.Join(lines, "\n")
}

type addTaskArgs struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

type addHabitArgs struct {
	Name string `json:"name"`
}

type addGroceryArgs struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type logExpenseArgs struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
}

type clearTasksArgs struct {
	Date string `json:"date"`
}

// Execute runs one tool call against the matching store.
func (a *Assistant) Execute(call proxy.ToolCall) ToolResult {
	name := call.Tool
	if canonical, ok := toolAliases[name]; ok {
		name = canonical
	}
	res := ToolResult{Tool: name}

	decode := func(v any) bool {
		if len(call.Args) == 0 {
			return true
		}
		if err := json.Unmarshal(call.Args, v); err != nil {
			res.Result = failResult("%s: malformed arguments: %v", name, err)
			return false
		}
		return true
	}

	switch name {
	case ToolAddTask:
		var args addTaskArgs
		if !decode(&args) {
			return res
		}
		res.Result = a.addTask(args)
	case ToolAddHabit:
		var args addHabitArgs
		if !decode(&args) {
			return res
		}
		h, err := a.stores.Habits.Add(args.Name)
		res.Result = Settle(err, fmt.Sprintf("Habit %q added", h.Name))
	case ToolAddGrocery:
		var args addGroceryArgs
		if !decode(&args) {
			return res
		}
		it, err := a.stores.Groceries.Add(args.Name, args.Category)
		res.Result = Settle(err, fmt.Sprintf("%s added to the pantry", it.Name))
	case ToolLogExpense:
		var args logExpenseArgs
		if !decode(&args) {
			return res
		}
		amount, err := args.Amount.Float64()
		if err != nil {
			res.Result = failResult("logExpense: amount %q is not a number", args.Amount)
			return res
		}
		e, err := a.stores.Expenses.Add(store.ExpenseInput{
			Amount:   amount,
			Category: model.ParseExpenseCategory(args.Category),
			Note:     args.Description,
			Date:     a.now(),
		})
		res.Result = Settle(err, fmt.Sprintf("Logged %.2f for %s", e.Amount, e.Category))
	case ToolClearPantry:
		res.Result = Settle(a.stores.Groceries.ClearPantry(), "Pantry cleared")
	case ToolClearTasks:
		var args clearTasksArgs
		if !decode(&args) {
			return res
		}
		if strings.TrimSpace(args.Date) == "" {
			res.Result = failResult("clearTasks: date is required")
			return res
		}
		n, err := a.stores.Tasks.ClearForDate(strings.TrimSpace(args.Date))
		res.Result = Settle(err, fmt.Sprintf("Cleared %d tasks for %s", n, args.Date))
	default:
		res.Result = failResult("unknown tool %q", call.Tool)
	}
	return res
}

func (a *Assistant) addTask(args addTaskArgs) Result {
	in := store.TaskInput{Title: args.Title, ScheduledDate: strings.TrimSpace(args.Date)}
	if clock := strings.TrimSpace(args.Time); clock != "" {
		due, err := dueAt(a.now(), in.ScheduledDate, clock)
		if err != nil {
			return failResult("addTask: %v", err)
		}
		in.DueTime = &due
	}
	task, err := a.stores.Tasks.Add(in)
	return Settle(err, fmt.Sprintf("Task %q added for %s", task.Title, task.ScheduledDate))
}

// dueAt combines a YYYY-MM-DD date (today when empty) and an HH:MM clock
// time in now's location.
func dueAt(now time.Time, date, clock string) (time.Time, error) {
	if date == "" {
		date = now.Format(model.DateLayout)
	}
	due, err := time.ParseInLocation(model.DateLayout+" 15:04", date+" "+clock, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%q %q is not a valid date and time", date, clock)
	}
	return due, nil
}
