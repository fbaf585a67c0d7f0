package proxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"life-organizer/internal/model"
)

// ErrSubscriptionGone means the relay no longer knows the target.
var ErrSubscriptionGone = errors.New("push subscription gone")

// PushClient hands notifications to the push relay.
type PushClient struct {
	client
}

func NewPushClient(endpoint string, timeout time.Duration) *PushClient {
	return &PushClient{client: newClient(endpoint, timeout)}
}

func (c *PushClient) Notify(ctx context.Context, n model.Notification) error {
	if n.Target == "" {
		return errors.New("push target required")
	}
	err := c.do(ctx, http.MethodPost, c.endpoint, n, nil)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusGone || se.Code == http.StatusNotFound) {
		return ErrSubscriptionGone
	}
	return err
}
