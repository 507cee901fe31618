package repositories

import (
	"context"
	"time"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// membershipRepository implements MembershipRepository interface
type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Create inserts a membership row. The unique (user_id, organization_id)
// index rejects a second row per pair with gorm.ErrDuplicatedKey.
func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

// GetByUserAndOrg gets the membership row for a user/organization pair,
// active or not
func (r *membershipRepository) GetByUserAndOrg(ctx context.Context, userID, orgID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Reactivate flips an inactive membership back to active in place
func (r *membershipRepository) Reactivate(ctx context.Context, id uint, roleID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": true,
			"role_id":   roleID,
			"joined_at": now,
			"left_at":   nil,
		}).Error
}

// Deactivate marks a membership inactive, keeping the row for reactivation
func (r *membershipRepository) Deactivate(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": false,
			"left_at":   &now,
		}).Error
}

// ListByOrganization lists memberships with user and role, paginated
func (r *membershipRepository) ListByOrganization(ctx context.Context, orgID uint, offset, limit int) ([]*models.Membership, int64, error) {
	var memberships []*models.Membership
	var total int64

	r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Count(&total)

	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Role").
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("joined_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&memberships).Error

	return memberships, total, err
}

// ListByUser lists a user's active memberships with organizations
func (r *membershipRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("Role").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("joined_at ASC").
		Find(&memberships).Error
	return memberships, err
}

// roleRepository implements RoleRepository interface
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Create creates a new role
func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// GetDefault gets the organization's default member role
func (r *roleRepository) GetDefault(ctx context.Context, orgID uint) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", orgID, models.DefaultRoleName).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListByOrganization lists roles ordered by hierarchy
func (r *roleRepository) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Role, error) {
	var roles []*models.Role
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("hierarchy ASC").
		Find(&roles).Error
	return roles, err
}
