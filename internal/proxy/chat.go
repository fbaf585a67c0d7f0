package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ChatMessage is one turn of the conversation sent as history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a structured action requested by the assistant.
type ToolCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ChatReply is either a plain conversational message or a list of tool
// calls plus a confirmation message.
type ChatReply struct {
	Message  string     `json:"message"`
	Requests []ToolCall `json:"requests,omitempty"`

	// Older endpoints answer with a single call instead of Requests.
	Tool string          `json:"tool,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Calls lists the requested tool calls in either reply shape.
func (r ChatReply) Calls() []ToolCall {
	if len(r.Requests) > 0 {
		return r.Requests
	}
	if r.Tool != "" {
		return []ToolCall{{Tool: r.Tool, Args: r.Args}}
	}
	return nil
}

type chatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// ChatClient talks to the assistant endpoint.
type ChatClient struct {
	client
}

func NewChatClient(endpoint string, timeout time.Duration) *ChatClient {
	return &ChatClient{client: newClient(endpoint, timeout)}
}

func (c *ChatClient) Chat(ctx context.Context, message string, history []ChatMessage) (ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return ChatReply{}, errors.New("message required")
	}
	if history == nil {
		history = []ChatMessage{}
	}
	var reply ChatReply
	err := c.do(ctx, http.MethodPost, c.endpoint, chatRequest{Message: message, History: history}, &reply)
	return reply, err
}
