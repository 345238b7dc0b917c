package audit

import (
	"context"
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal"
	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionAssign   Action = "assign"
	ActionUnassign Action = "unassign"
)

type EntityType string

const (
	EntityEmployee    EntityType = "employee"
	EntityAsset       EntityType = "asset"
	EntityAssignment  EntityType = "assignment"
	EntityMaintenance EntityType = "maintenance"
	EntityLocation    EntityType = "location"
	EntityProfile     EntityType = "profile"
)

var (
	Actions     = []string{string(ActionCreate), string(ActionUpdate), string(ActionDelete), string(ActionAssign), string(ActionUnassign)}
	EntityTypes = []string{string(EntityEmployee), string(EntityAsset), string(EntityAssignment), string(EntityMaintenance), string(EntityLocation), string(EntityProfile)}
)

// Entry is an immutable audit record. Entries are only ever appended.
type Entry struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	UserID     string                 `json:"user_id,omitempty"`
	UserEmail  string                 `json:"user_email,omitempty"`
	Action     Action                 `json:"action"`
	EntityType EntityType             `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	OldValues  map[string]interface{} `json:"old_values,omitempty"`
	NewValues  map[string]interface{} `json:"new_values,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
}

// NewEntry stamps an entry with the caller found on ctx.
func NewEntry(ctx context.Context, at time.Time, action Action, entity EntityType, entityID string, oldValues, newValues map[string]interface{}) Entry {
	actor, _ := internal.ActorFromContext(ctx)
	return Entry{
		ID:         uuid.NewString(),
		Timestamp:  at.UTC(),
		UserID:     actor.UserID,
		UserEmail:  actor.Email,
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	}
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}
