package location

import (
	"time"

	"github.com/frahmantamala/asset-lifecycle/internal/cache"
	locationDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/location"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

type Location struct {
	ID        string
	Name      string
	Type      enums.LocationType
	Address   *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry is one stay of an asset at a location. The open entry has no
// EndDate.
type HistoryEntry struct {
	ID         string
	AssetID    string
	LocationID string
	StartDate  time.Time
	EndDate    *time.Time
	MovedBy    *string
	Notes      *string
	CreatedAt  time.Time
}

func (h *HistoryEntry) IsOpen() bool {
	return h.EndDate == nil
}

// AssetRef is the slice of an asset a move needs to see.
type AssetRef struct {
	ID                string
	AssetTag          string
	Type              string
	Status            enums.AssetStatus
	IsReadonly        bool
	CurrentLocationID *string
}

type Detail struct {
	Location *Location
	Assets   []AssetRef
}

type Response struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      enums.LocationType `json:"type"`
	Address   *string            `json:"address,omitempty"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type AssetResponse struct {
	ID       string            `json:"id"`
	AssetTag string            `json:"asset_tag"`
	Type     string            `json:"type"`
	Status   enums.AssetStatus `json:"status"`
}

type DetailResponse struct {
	Response
	Assets []AssetResponse `json:"assets"`
}

type HistoryResponse struct {
	ID         string     `json:"id"`
	AssetID    string     `json:"asset_id"`
	LocationID string     `json:"location_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	MovedBy    *string    `json:"moved_by,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

func (l *Location) ToResponse() Response {
	return Response{
		ID:        l.ID,
		Name:      l.Name,
		Type:      l.Type,
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func ToResponses(list []*Location) []Response {
	out := make([]Response, 0, len(list))
	for _, l := range list {
		out = append(out, l.ToResponse())
	}
	return out
}

func (d *Detail) ToResponse() DetailResponse {
	assets := make([]AssetResponse, 0, len(d.Assets))
	for _, a := range d.Assets {
		assets = append(assets, AssetResponse{ID: a.ID, AssetTag: a.AssetTag, Type: a.Type, Status: a.Status})
	}
	return DetailResponse{Response: d.Location.ToResponse(), Assets: assets}
}

func (h *HistoryEntry) ToResponse() HistoryResponse {
	return HistoryResponse{
		ID:         h.ID,
		AssetID:    h.AssetID,
		LocationID: h.LocationID,
		StartDate:  h.StartDate,
		EndDate:    h.EndDate,
		MovedBy:    h.MovedBy,
		Notes:      h.Notes,
	}
}

func HistoryResponses(list []*HistoryEntry) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, h.ToResponse())
	}
	return out
}

func (l *Location) InvalidationKeys() []string {
	return cache.NewKeys(cache.LocationKey(l.ID), cache.KeyLocations).List()
}

func (l *Location) Snapshot() map[string]interface{} {
	out := map[string]interface{}{
		"name":      l.Name,
		"type":      l.Type,
		"is_active": l.IsActive,
	}
	if l.Address != nil {
		out["address"] = *l.Address
	}
	return out
}

func ToDataModel(l *Location) *locationDatamodel.Location {
	return &locationDatamodel.Location{
		ID:        l.ID,
		Name:      l.Name,
		Type:      string(l.Type),
		Address:   l.Address,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func FromDataModel(m *locationDatamodel.Location) *Location {
	return &Location{
		ID:        m.ID,
		Name:      m.Name,
		Type:      enums.LocationType(m.Type),
		Address:   m.Address,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func HistoryToDataModel(h *HistoryEntry) *locationDatamodel.History {
	return &locationDatamodel.History{
		ID:         h.ID,
		AssetID:    h.AssetID,
		LocationID: h.LocationID,
		StartDate:  h.StartDate,
		EndDate:    h.EndDate,
		MovedBy:    h.MovedBy,
		Notes:      h.Notes,
		CreatedAt:  h.CreatedAt,
	}
}

func HistoryFromDataModel(m *locationDatamodel.History) *HistoryEntry {
	h := &HistoryEntry{
		ID:         m.ID,
		AssetID:    m.AssetID,
		LocationID: m.LocationID,
		StartDate:  m.StartDate.UTC(),
		MovedBy:    m.MovedBy,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt.UTC(),
	}
	if m.EndDate != nil {
		end := m.EndDate.UTC()
		h.EndDate = &end
	}
	return h
}
