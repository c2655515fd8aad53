// Package events publishes ledger domain events after a transaction
// commits. Publishing is best-effort: the ledger is the record, events
// are notifications.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event. It doubles as the AMQP routing key.
type Type string

const (
	CollectionCreated Type = "collection.created"
	PassPurchased     Type = "pass.purchased"
	PassRevoked       Type = "pass.revoked"
)

// Event is the envelope every driver carries.
type Event struct {
	ID         string          `json:"event_id"`
	Type       Type            `json:"event_type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// New wraps payload in an envelope with a fresh event ID. Key is the
// address the event is about; Kafka partitions on it.
func New(t Type, key string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
