package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAssignmentCreated         = "assignment.created"
	EventTypeAssignmentUpdated         = "assignment.updated"
	EventTypeAssignmentAccepted        = "assignment.accepted"
	EventTypeAssignmentReturnRequested = "assignment.return_requested"
	EventTypeAssignmentReturned        = "assignment.returned"
	EventTypeAssignmentClosed          = "assignment.closed"
	EventTypeAssignmentReplaced        = "assignment.replaced"

	EventTypeAssetCreated       = "asset.created"
	EventTypeAssetUpdated       = "asset.updated"
	EventTypeAssetStatusChanged = "asset.status_changed"
	EventTypeAssetMoved         = "asset.moved"

	EventTypeEmployeeCreated = "employee.created"
	EventTypeEmployeeUpdated = "employee.updated"
	EventTypeEmployeeLeft    = "employee.left"

	EventTypeMaintenanceLogged = "maintenance.logged"

	EventTypeLocationCreated = "location.created"
	EventTypeLocationUpdated = "location.updated"
)

// ChangeEvent announces a committed mutation and the read models it made stale.
type ChangeEvent struct {
	BaseEvent
	Entity     string   `json:"entity"`
	EntityID   string   `json:"entity_id"`
	Invalidate []string `json:"invalidate"`
}

func NewChangeEvent(eventType, entity, entityID string, invalidate []string) *ChangeEvent {
	return &ChangeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity":     entity,
				"entity_id":  entityID,
				"invalidate": invalidate,
			},
		},
		Entity:     entity,
		EntityID:   entityID,
		Invalidate: invalidate,
	}
}

func (e *ChangeEvent) InvalidationKeys() []string {
	return e.Invalidate
}

// Publisher is what services need from the bus.
type Publisher interface {
	PublishSync(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishSync(context.Context, Event) error { return nil }
