// Package audit records what the resolution engine did to the contact graph:
// rows created and clusters merged. Events flow through a buffered channel to
// a background worker so resolution latency never waits on the audit sink.
package audit

import (
	"context"
	"time"
)

// Action identifies what happened.
type Action string

const (
	ActionContactCreated Action = "contact.created"
	ActionClustersMerged Action = "clusters.merged"
)

// Event is one append-only audit record.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	ContactID int64     `json:"contactId,omitempty"` // row created, or demoted primary on merge
	PrimaryID int64     `json:"primaryId"`           // cluster root after the action
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the audit persistence contract.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}

// Sink forwards events to an external system (Kafka). Optional; nil disables
// forwarding.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
