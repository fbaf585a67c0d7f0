package model

// Notification is one push message about a due task. Target is an opaque
// recipient address understood by the delivering notifier (a chat id for
// Telegram, a subscription id for the push relay).
type Notification struct {
	Target string `json:"target"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Tag    string `json:"tag"`
	TaskID string `json:"taskId,omitempty"`
}
