package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/promo-engine/internal/events"
)

// Events persists domain events. Implements events.Store.
type Events struct {
	DB DB
}

// InsertEvent stores one event and returns it with generated fields.
func (e Events) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	ev := events.Event{Topic: topic, AggregateID: aggregateID, Payload: payload}
	err := e.DB.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, occurred_at`,
		topic, aggregateID, payload).Scan(&ev.ID, &ev.OccurredAt)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}
