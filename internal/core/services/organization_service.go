package services

import (
	"context"
	"errors"
	"log"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Organization errors
var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrOrganizationExists   = errors.New("organization name already in use")
)

// OrganizationService handles organization business logic
type OrganizationService struct {
	orgRepo repositories.OrganizationRepository
	store   repositories.SelectionStore
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(orgRepo repositories.OrganizationRepository, store repositories.SelectionStore) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
		store:   store,
	}
}

// CreateOrganizationInput represents organization creation input
type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=500"`
	LogoURL     string `json:"logo_url" validate:"max=255"`
}

// Create creates an organization together with its standard role set.
// Every organization gets the default member role up front so conversions
// never hit a misconfigured organization.
func (s *OrganizationService) Create(ctx context.Context, input *CreateOrganizationInput) (*models.Organization, error) {
	_, err := s.orgRepo.GetByName(ctx, input.Name)
	if err == nil {
		return nil, ErrOrganizationExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org := &models.Organization{
		Name:        input.Name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
		IsActive:    true,
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	roles := []models.Role{
		{OrganizationID: org.ID, Name: models.DefaultRoleName, Hierarchy: 1},
		{OrganizationID: org.ID, Name: "Board", Hierarchy: 5},
		{OrganizationID: org.ID, Name: "President", Hierarchy: 10},
	}
	for i := range roles {
		if err := s.store.Roles().Create(ctx, &roles[i]); err != nil {
			return nil, err
		}
	}

	log.Printf("✅ Organization created: %s (ID: %d)", org.Name, org.ID)
	return org, nil
}

// GetByID gets an organization by ID
func (s *OrganizationService) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

// ListOrganizationsInput represents organization listing input
type ListOrganizationsInput struct {
	Search string
	Page   int
	Limit  int
}

// ListOrganizationsOutput represents organization listing output
type ListOrganizationsOutput struct {
	Organizations []*models.Organization `json:"organizations"`
	Total         int64                  `json:"total"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	TotalPages    int                    `json:"total_pages"`
}

// List lists organizations with pagination and optional name search
func (s *OrganizationService) List(ctx context.Context, input *ListOrganizationsInput) (*ListOrganizationsOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	orgs, total, err := s.orgRepo.List(ctx, input.Search, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListOrganizationsOutput{
		Organizations: orgs,
		Total:         total,
		Page:          input.Page,
		Limit:         input.Limit,
		TotalPages:    totalPages,
	}, nil
}

// UpdateOrganizationInput represents organization update input
type UpdateOrganizationInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Update updates an organization
func (s *OrganizationService) Update(ctx context.Context, id uint, input *UpdateOrganizationInput) (*models.Organization, error) {
	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != org.Name {
		_, err := s.orgRepo.GetByName(ctx, *input.Name)
		if err == nil {
			return nil, ErrOrganizationExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		org.Name = *input.Name
	}
	if input.Description != nil {
		org.Description = *input.Description
	}
	if input.LogoURL != nil {
		org.LogoURL = *input.LogoURL
	}
	if input.IsActive != nil {
		org.IsActive = *input.IsActive
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}

	log.Printf("✅ Organization updated: %s (ID: %d)", org.Name, org.ID)
	return org, nil
}

// ListRoles lists an organization's roles
func (s *OrganizationService) ListRoles(ctx context.Context, orgID uint) ([]*models.Role, error) {
	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.Roles().ListByOrganization(ctx, orgID)
}
