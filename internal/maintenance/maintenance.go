package maintenance

import (
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	"github.com/frahmantamala/asset-lifecycle/internal/core/common/validation"
	maintenanceDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/maintenance"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

// Event is a service record. Events are appended and never edited, including
// on disposed assets.
type Event struct {
	ID              string
	AssetID         string
	Type            enums.MaintenanceType
	Date            time.Time
	PerformedBy     *string
	Description     *string
	ResultingHealth *enums.Health
	CreatedBy       *string
	CreatedAt       time.Time
}

type Response struct {
	ID              string                `json:"id"`
	AssetID         string                `json:"asset_id"`
	Type            enums.MaintenanceType `json:"type"`
	Date            string                `json:"date"`
	PerformedBy     *string               `json:"performed_by,omitempty"`
	Description     *string               `json:"description,omitempty"`
	ResultingHealth *enums.Health         `json:"resulting_health,omitempty"`
	CreatedBy       *string               `json:"created_by,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func (e *Event) ToResponse() Response {
	return Response{
		ID:              e.ID,
		AssetID:         e.AssetID,
		Type:            e.Type,
		Date:            e.Date.Format(validation.DateLayout),
		PerformedBy:     e.PerformedBy,
		Description:     e.Description,
		ResultingHealth: e.ResultingHealth,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

func ToResponses(list []*Event) []Response {
	out := make([]Response, 0, len(list))
	for _, e := range list {
		out = append(out, e.ToResponse())
	}
	return out
}

func (e *Event) InvalidationKeys() []string {
	return cache.NewKeys(cache.AssetKey(e.AssetID), cache.KeyMaintenance, cache.KeyDashboard).List()
}

func (e *Event) Snapshot() map[string]interface{} {
	out := map[string]interface{}{
		"asset_id": e.AssetID,
		"type":     e.Type,
		"date":     e.Date.Format(validation.DateLayout),
	}
	if e.PerformedBy != nil {
		out["performed_by"] = *e.PerformedBy
	}
	if e.Description != nil {
		out["description"] = *e.Description
	}
	if e.ResultingHealth != nil {
		out["resulting_health"] = *e.ResultingHealth
	}
	return out
}

func ToDataModel(e *Event) *maintenanceDatamodel.Event {
	var health *string
	if e.ResultingHealth != nil {
		h := string(*e.ResultingHealth)
		health = &h
	}
	return &maintenanceDatamodel.Event{
		ID:              e.ID,
		AssetID:         e.AssetID,
		Type:            string(e.Type),
		Date:            e.Date,
		PerformedBy:     e.PerformedBy,
		Description:     e.Description,
		ResultingHealth: health,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}

func FromDataModel(m *maintenanceDatamodel.Event) *Event {
	var health *enums.Health
	if m.ResultingHealth != nil {
		h := enums.Health(*m.ResultingHealth)
		health = &h
	}
	return &Event{
		ID:              m.ID,
		AssetID:         m.AssetID,
		Type:            enums.MaintenanceType(m.Type),
		Date:            m.Date.UTC(),
		PerformedBy:     m.PerformedBy,
		Description:     m.Description,
		ResultingHealth: health,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}
