package postgres

import (
	"context"
	"encoding/json"

	"github.com/frahmantamala/asset-lifecycle/internal/audit"
	auditDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/audit"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditRepository only inserts and reads; audit_logs rows are never updated
// or deleted.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e audit.Entry) error {
	row, err := toDataModel(e)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *AuditRepository) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	q := r.db.WithContext(ctx).Model(&auditDatamodel.Log{})
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}

	var rows []auditDatamodel.Log
	if err := q.Order("timestamp DESC").Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]audit.Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, fromDataModel(&rows[i]))
	}
	return entries, nil
}

func toDataModel(e audit.Entry) (*auditDatamodel.Log, error) {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return nil, err
	}
	return &auditDatamodel.Log{
		ID:         e.ID,
		Timestamp:  e.Timestamp,
		UserID:     optional(e.UserID),
		UserEmail:  optional(e.UserEmail),
		Action:     string(e.Action),
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  optional(e.IPAddress),
		UserAgent:  optional(e.UserAgent),
	}, nil
}

func fromDataModel(l *auditDatamodel.Log) audit.Entry {
	return audit.Entry{
		ID:         l.ID,
		Timestamp:  l.Timestamp,
		UserID:     deref(l.UserID),
		UserEmail:  deref(l.UserEmail),
		Action:     audit.Action(l.Action),
		EntityType: audit.EntityType(l.EntityType),
		EntityID:   l.EntityID,
		OldValues:  unmarshalValues(l.OldValues),
		NewValues:  unmarshalValues(l.NewValues),
		IPAddress:  deref(l.IPAddress),
		UserAgent:  deref(l.UserAgent),
	}
}

func marshalValues(v map[string]interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalValues(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
