package services

import (
	"context"
	"errors"
	"log"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Phase errors
var (
	ErrPhaseNotFound   = errors.New("phase not found")
	ErrPhaseOrderTaken = errors.New("phase order already in use for this organization")
)

// PhaseService manages an organization's selection phase registry
type PhaseService struct {
	store   repositories.SelectionStore
	orgRepo repositories.OrganizationRepository
}

// NewPhaseService creates a new phase service
func NewPhaseService(store repositories.SelectionStore, orgRepo repositories.OrganizationRepository) *PhaseService {
	return &PhaseService{
		store:   store,
		orgRepo: orgRepo,
	}
}

// CreatePhaseInput represents phase creation input
type CreatePhaseInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	PhaseOrder  int    `json:"phase_order" validate:"required,gt=0"`
}

// Create adds a phase to an organization's pipeline. Order values need not
// be consecutive; gaps are fine and never renumbered.
func (s *PhaseService) Create(ctx context.Context, orgID uint, input *CreatePhaseInput) (*models.Phase, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	phase := &models.Phase{
		OrganizationID: orgID,
		Name:           input.Name,
		Description:    input.Description,
		PhaseOrder:     input.PhaseOrder,
		IsActive:       true,
	}

	if err := s.store.Phases().Create(ctx, phase); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhaseOrderTaken
		}
		return nil, err
	}

	log.Printf("✅ Phase created: %s (order %d) for organization %d", phase.Name, phase.PhaseOrder, orgID)
	return phase, nil
}

// GetByID gets a phase by ID
func (s *PhaseService) GetByID(ctx context.Context, id uint) (*models.Phase, error) {
	phase, err := s.store.Phases().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, err
	}
	return phase, nil
}

// ListByOrganization lists all phases of an organization, active or not,
// ordered by phase order
func (s *PhaseService) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return s.store.Phases().ListByOrganization(ctx, orgID)
}

// UpdatePhaseInput represents phase update input
type UpdatePhaseInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	PhaseOrder  *int    `json:"phase_order,omitempty" validate:"omitempty,gt=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Update updates a phase. Changing the order or deactivating a phase only
// affects where future approvals advance to; attempts already created keep
// pointing at the phase they were created for.
func (s *PhaseService) Update(ctx context.Context, id uint, input *UpdatePhaseInput) (*models.Phase, error) {
	phase, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		phase.Name = *input.Name
	}
	if input.Description != nil {
		phase.Description = *input.Description
	}
	if input.PhaseOrder != nil {
		phase.PhaseOrder = *input.PhaseOrder
	}
	if input.IsActive != nil {
		phase.IsActive = *input.IsActive
	}

	if err := s.store.Phases().Update(ctx, phase); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPhaseOrderTaken
		}
		return nil, err
	}

	log.Printf("✅ Phase updated: %s (ID: %d)", phase.Name, phase.ID)
	return phase, nil
}

// Delete soft deletes a phase
func (s *PhaseService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.store.Phases().Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ Phase deleted: ID %d", id)
	return nil
}
