package repositories

import (
	"context"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// phaseRepository implements PhaseRepository interface
type phaseRepository struct {
	db *gorm.DB
}

// NewPhaseRepository creates a new phase repository
func NewPhaseRepository(db *gorm.DB) PhaseRepository {
	return &phaseRepository{db: db}
}

// Create creates a new phase
func (r *phaseRepository) Create(ctx context.Context, phase *models.Phase) error {
	return r.db.WithContext(ctx).Create(phase).Error
}

// GetByID gets a phase by ID
func (r *phaseRepository) GetByID(ctx context.Context, id uint) (*models.Phase, error) {
	var phase models.Phase
	err := r.db.WithContext(ctx).First(&phase, id).Error
	if err != nil {
		return nil, err
	}
	return &phase, nil
}

// Update updates a phase
func (r *phaseRepository) Update(ctx context.Context, phase *models.Phase) error {
	return r.db.WithContext(ctx).Save(phase).Error
}

// Delete soft deletes a phase
func (r *phaseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Phase{}, id).Error
}

// ListActiveByOrganization lists active phases ordered by phase_order
func (r *phaseRepository) ListActiveByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error) {
	var phases []*models.Phase
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("phase_order ASC").
		Find(&phases).Error
	return phases, err
}

// ListByOrganization lists all phases (including inactive) ordered by phase_order
func (r *phaseRepository) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error) {
	var phases []*models.Phase
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("phase_order ASC").
		Find(&phases).Error
	return phases, err
}

// NextPhase gets the active phase with the smallest order strictly greater
// than afterOrder. Order values may have gaps.
func (r *phaseRepository) NextPhase(ctx context.Context, orgID uint, afterOrder int) (*models.Phase, error) {
	var phase models.Phase
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ? AND phase_order > ?", orgID, true, afterOrder).
		Order("phase_order ASC").
		First(&phase).Error
	if err != nil {
		return nil, err
	}
	return &phase, nil
}

// FirstPhase gets the lowest-order active phase for an organization
func (r *phaseRepository) FirstPhase(ctx context.Context, orgID uint) (*models.Phase, error) {
	var phase models.Phase
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("phase_order ASC").
		First(&phase).Error
	if err != nil {
		return nil, err
	}
	return &phase, nil
}
