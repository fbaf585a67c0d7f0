package proxy

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"life-organizer/internal/model"
)

// ReminderClient fetches open reminders from the calendar sync endpoint.
type ReminderClient struct {
	client
}

func NewReminderClient(endpoint string, timeout time.Duration) *ReminderClient {
	return &ReminderClient{client: newClient(endpoint, timeout)}
}

// FetchReminders returns the remote reminders shaped as tasks.
func (c *ReminderClient) FetchReminders(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, c.endpoint, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ExpenseCandidate is an expense as reported by the group-expense service.
type ExpenseCandidate struct {
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Note     string    `json:"note"`
	Date     time.Time `json:"date"`
}

// ExpenseClient fetches the user's share of group expenses.
type ExpenseClient struct {
	client
}

func NewExpenseClient(endpoint string, timeout time.Duration) *ExpenseClient {
	return &ExpenseClient{client: newClient(endpoint, timeout)}
}

// FetchExpenses lists the expenses of groupID, or of every group when it is empty.
func (c *ExpenseClient) FetchExpenses(ctx context.Context, groupID string) ([]ExpenseCandidate, error) {
	target := c.endpoint
	if groupID != "" {
		u, err := url.Parse(c.endpoint)
		if err == nil {
			q := u.Query()
			q.Set("groupId", groupID)
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}
	var out []ExpenseCandidate
	if err := c.do(ctx, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type planItem struct {
	Name string `json:"name"`
}

type planRequest struct {
	Prompt       string     `json:"prompt"`
	CurrentItems []planItem `json:"currentItems"`
}

type planResponse struct {
	Recipes []model.Recipe `json:"recipes"`
}

// GroceryPlanClient asks the meal planner for recipes.
type GroceryPlanClient struct {
	client
}

func NewGroceryPlanClient(endpoint string, timeout time.Duration) *GroceryPlanClient {
	return &GroceryPlanClient{client: newClient(endpoint, timeout)}
}

// Plan returns recipes for prompt, avoiding items the pantry already holds.
func (c *GroceryPlanClient) Plan(ctx context.Context, prompt string, current []string) ([]model.Recipe, error) {
	req := planRequest{Prompt: prompt, CurrentItems: make([]planItem, 0, len(current))}
	for _, name := range current {
		req.CurrentItems = append(req.CurrentItems, planItem{Name: name})
	}
	var resp planResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint, req, &resp); err != nil {
		return nil, err
	}
	return resp.Recipes, nil
}
