package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeDispatch is the asynq task type used for event fan-out.
const TaskTypeDispatch = "events:dispatch"

// TaskPayload is the asynq task body for one dispatched event.
type TaskPayload struct {
	EventID     string          `json:"eventId"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
}

// TaskNotifier forwards emitted events to an asynq queue for asynchronous
// processing by downstream consumers.
type TaskNotifier struct {
	Client *asynq.Client
	Queue  string
}

// Notify implements Notifier by enqueuing the event.
func (n TaskNotifier) Notify(ctx context.Context, event Event) error {
	if n.Client == nil {
		return nil
	}
	body, err := json.Marshal(TaskPayload{
		EventID:     event.ID.String(),
		Topic:       event.Topic,
		AggregateID: event.AggregateID.String(),
		Payload:     event.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode task payload: %w", err)
	}
	opts := []asynq.Option{}
	if n.Queue != "" {
		opts = append(opts, asynq.Queue(n.Queue))
	}
	if _, err := n.Client.EnqueueContext(ctx, asynq.NewTask(TaskTypeDispatch, body), opts...); err != nil {
		return fmt.Errorf("enqueue event task: %w", err)
	}
	return nil
}
