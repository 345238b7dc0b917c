package postgres

import (
	"context"
	"time"

	roleDatamodel "github.com/frahmantamala/asset-lifecycle/internal/core/datamodel/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository reads and writes user_roles, the local fallback for callers
// whose token carries no roles.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := r.db.WithContext(ctx).Model(&roleDatamodel.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error
	return roles, err
}

func (r *RoleRepository) AssignRoles(ctx context.Context, userID string, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]roleDatamodel.UserRole, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, roleDatamodel.UserRole{UserID: userID, Role: role, CreatedAt: now})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
