package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message is what the transport worker consumes and delivers.
type Message struct {
	UserID string    `json:"userId"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// Dispatcher is the sole outward capability of the notification core.
type Dispatcher interface {
	Send(ctx context.Context, userID, title, body string) error
}

type publisher interface {
	Publish(body []byte) error
}

// QueueDispatcher publishes messages to the notification queue; the
// sender daemon takes it from there.
type QueueDispatcher struct {
	queue publisher
	now   func() time.Time
}

func NewQueueDispatcher(queue publisher) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, now: time.Now}
}

func (d *QueueDispatcher) Send(_ context.Context, userID, title, body string) error {
	data, err := json.Marshal(Message{
		UserID: userID,
		Title:  title,
		Body:   body,
		SentAt: d.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := d.queue.Publish(data); err != nil {
		return fmt.Errorf("failed to publish message for user %q: %w", userID, err)
	}
	return nil
}
