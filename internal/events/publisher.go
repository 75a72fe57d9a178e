// Package events publishes checklist lifecycle events for downstream
// consumers (housekeeping dashboards, notification fan-out). Publishing is
// fire-and-forget: a failed publish is logged and never fails the request
// that produced it.
package events

import (
	"context"
	"time"
)

// ChecklistEvent is the payload for checklist lifecycle notifications.
type ChecklistEvent struct {
	ChecklistID string    `json:"checklist_id"`
	UnitID      string    `json:"unit_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits checklist lifecycle events.
type Publisher interface {
	ChecklistCreated(ctx context.Context, ev ChecklistEvent)
	ChecklistCompleted(ctx context.Context, ev ChecklistEvent)
	Close()
}

// NoopPublisher is the default Publisher when eventing is not configured.
type NoopPublisher struct{}

func (NoopPublisher) ChecklistCreated(context.Context, ChecklistEvent)   {}
func (NoopPublisher) ChecklistCompleted(context.Context, ChecklistEvent) {}
func (NoopPublisher) Close()                                             {}
