package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-organizer/internal/model"
	"life-organizer/internal/proxy"
)

type scriptedChat struct {
	replies  []proxy.ChatReply
	err      error
	messages []string
	history  [][]proxy.ChatMessage
}

func (s *scriptedChat) Chat(_ context.Context, message string, history []proxy.ChatMessage) (proxy.ChatReply, error) {
	s.messages = append(s.messages, message)
	s.history = append(s.history, history)
	if s.err != nil {
		return proxy.ChatReply{}, s.err
	}
	if len(s.replies) == 0 {
		return proxy.ChatReply{Message: "ok"}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func call(tool string, args string) proxy.ToolCall {
	return proxy.ToolCall{Tool: tool, Args: json.RawMessage(args)}
}

func TestAssistant_ExecutesToolCalls(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	chat := &scriptedChat{replies: []proxy.ChatReply{{
		Message: "Done!",
		Requests: []proxy.ToolCall{
			call("addTask", `{"title":"Call mom","date":"2024-01-11","time":"18:30"}`),
			call("add-habit", `{"name":"Stretch"}`),
			call("addGrocery", `{"name":"Paneer"}`),
			call("logExpense", `{"amount":"249.5","description":"Lunch","category":"food"}`),
		},
	}}}
	a := NewAssistant(stores, chat, fixedClock(wednesday), nil)

	reply, err := a.Ask(context.Background(), "plan tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "Done!", reply.Message)
	require.Len(t, reply.Results, 4)
	for _, r := range reply.Results {
		assert.True(t, r.OK, r.Message)
	}
	assert.Equal(t, ToolAddHabit, reply.Results[1].Tool)

	tasks := stores.Tasks.ForDate("2024-01-11")
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].DueTime)
	assert.Equal(t, time.Date(2024, 1, 11, 18, 30, 0, 0, time.UTC), *tasks[0].DueTime)

	assert.Len(t, stores.Habits.All(), 1)
	assert.Equal(t, model.DefaultGroceryCategory, stores.Groceries.All()[0].Category)
	expenses := stores.Expenses.All()
	require.Len(t, expenses, 1)
	assert.Equal(t, 249.5, expenses[0].Amount)
	assert.Equal(t, model.ExpenseFood, expenses[0].Category)
	assert.Equal(t, "Lunch", expenses[0].Note)
}

func TestAssistant_ClearTools(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	a := NewAssistant(stores, &scriptedChat{}, fixedClock(wednesday), nil)
	_, err := stores.Groceries.Add("Rice", "")
	require.NoError(t, err)
	require.True(t, a.Execute(call("addTask", `{"title":"A"}`)).OK)
	require.True(t, a.Execute(call("addTask", `{"title":"B","date":"2024-01-12"}`)).OK)

	res := a.Execute(call("clear-tasks-for-date", `{"date":"2024-01-10"}`))
	assert.True(t, res.OK)
	assert.Equal(t, "Cleared 1 tasks for 2024-01-10", res.Message)
	assert.Len(t, stores.Tasks.All(), 1)

	assert.False(t, a.Execute(call("clearTasks", `{}`)).OK)
	assert.True(t, a.Execute(proxy.ToolCall{Tool: "clearPantry"}).OK)
	assert.Empty(t, stores.Groceries.All())
}

func TestAssistant_Failures(t *testing.T) {
	stores := newStores(fixedClock(wednesday))
	a := NewAssistant(stores, &scriptedChat{}, fixedClock(wednesday), nil)

	cases := map[string]proxy.ToolCall{
		"unknown tool":   call("orderPizza", `{}`),
		"malformed args": call("addTask", `{"title":`),
		"blank title":    call("addTask", `{"title":"  "}`),
		"bad time":       call("addTask", `{"title":"x","time":"25:99"}`),
		"bad amount":     call("logExpense", `{"amount":"lots"}`),
		"zero amount":    call("logExpense", `{"amount":0}`),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			res := a.Execute(c)
			assert.False(t, res.OK)
			assert.NotEmpty(t, res.Message)
		})
	}
	assert.Empty(t, stores.Tasks.All())
	assert.Empty(t, stores.Expenses.All())
}

func TestAssistant_HistoryWindow(t *testing.T) {
	chat := &scriptedChat{}
	a := NewAssistant(newStores(fixedClock(wednesday)), chat, fixedClock(wednesday), nil)

	for i := 0; i < 4; i++ {
		_, err := a.Ask(context.Background(), fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}
	assert.Empty(t, chat.history[0])
	assert.Len(t, chat.history[1], 2)
	last := chat.history[3]
	require.Len(t, last, historySent)
	assert.Equal(t, "assistant", last[0].Role)
	assert.Equal(t, "msg 2", last[3].Content)
	assert.Len(t, a.History(), 8)
}

func TestAssistant_ChatError(t *testing.T) {
	chat := &scriptedChat{err: errors.New("502")}
	a := NewAssistant(newStores(fixedClock(wednesday)), chat, fixedClock(wednesday), nil)

	_, err := a.Ask(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, a.History())
}

func TestAssistant_EmptyMessageFallsBackToResults(t *testing.T) {
	chat := &scriptedChat{replies: []proxy.ChatReply{{Tool: "addHabit", Args: json.RawMessage(`{"name":"Read"}`)}}}
	a := NewAssistant(newStores(fixedClock(wednesday)), chat, fixedClock(wednesday), nil)

	reply, err := a.Ask(context.Background(), "new habit: read")
	require.NoError(t, err)
	assert.Equal(t, `Habit "Read" added`, reply.Message)
}
