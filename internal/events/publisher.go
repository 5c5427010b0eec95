// Package events announces entity changes to interested consumers.
package events

import (
	"context"
	"time"
)

type Event struct {
	Type       string    `json:"type"`
	Service    string    `json:"service"`
	Entity     any       `json:"entity"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(kind, action, service string, entity any) Event {
	return Event{
		Type:       kind + "." + action,
		Service:    service,
		Entity:     entity,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
