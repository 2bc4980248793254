// Package events publishes access-lifecycle events (shares granted or
// revoked, requests created, approved or rejected) to a message queue so
// notification workers can fan them out. Publication is best-effort: the
// services that emit events log failures and carry on.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the access core.
const (
	TypeShareGranted    = "share.granted"
	TypeShareUpdated    = "share.updated"
	TypeShareRevoked    = "share.revoked"
	TypeRequestCreated  = "request.created"
	TypeRequestApproved = "request.approved"
	TypeRequestRejected = "request.rejected"
)

// QueueAccessEvents is the queue access events are published to.
const QueueAccessEvents = "refvault.access-events"

// AccessEvent is the wire format for an access-lifecycle event.
type AccessEvent struct {
	ID        string    `json:"id"` // idempotency key for consumers
	Type      string    `json:"type"`
	VaultID   string    `json:"vaultId"`
	ActorID   string    `json:"actorId,omitempty"`   // who performed the action
	SubjectID string    `json:"subjectId,omitempty"` // whose access changed
	Timestamp time.Time `json:"timestamp"`
}

// NewAccessEvent builds an event with a fresh ID and timestamp.
func NewAccessEvent(eventType, vaultID, actorID, subjectID string) AccessEvent {
	return AccessEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		VaultID:   vaultID,
		ActorID:   actorID,
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal encodes the event for the wire.
func (e AccessEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher sends access events to a queue.
type Publisher interface {
	Publish(event AccessEvent) error
	Close() error
}

// noopPublisher discards events. Used when no queue is configured.
type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that discards every event.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(AccessEvent) error { return nil }
func (noopPublisher) Close() error              { return nil }
