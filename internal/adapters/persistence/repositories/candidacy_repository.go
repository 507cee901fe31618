package repositories

import (
	"context"
	"time"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// candidacyRepository implements CandidacyRepository interface
type candidacyRepository struct {
	db *gorm.DB
}

// NewCandidacyRepository creates a new candidacy repository
func NewCandidacyRepository(db *gorm.DB) CandidacyRepository {
	return &candidacyRepository{db: db}
}

// Create creates a new candidacy
func (r *candidacyRepository) Create(ctx context.Context, candidacy *models.Candidacy) error {
	return r.db.WithContext(ctx).Create(candidacy).Error
}

// GetByID gets a candidacy with its attempt history, oldest first
func (r *candidacyRepository) GetByID(ctx context.Context, id uint) (*models.Candidacy, error) {
	var candidacy models.Candidacy
	err := r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Attempts.Phase").
		First(&candidacy, id).Error
	if err != nil {
		return nil, err
	}
	return &candidacy, nil
}

// GetByIDForUpdate locks the candidacy row until the surrounding
// transaction commits. Decisions on the same candidacy serialize here.
func (r *candidacyRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Candidacy, error) {
	var candidacy models.Candidacy
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&candidacy, id).Error
	if err != nil {
		return nil, err
	}
	return &candidacy, nil
}

// ListByOrganization lists candidacies with attempts for the pipeline view
func (r *candidacyRepository) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Candidacy, error) {
	var candidacies []*models.Candidacy
	err := r.db.WithContext(ctx).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Attempts.Phase").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&candidacies).Error
	return candidacies, err
}

// ListApprovedMissingMembership finds approved candidacies whose applicant
// holds no active membership in the organization (reconciliation input)
func (r *candidacyRepository) ListApprovedMissingMembership(ctx context.Context, orgID uint) ([]*models.Candidacy, error) {
	var candidacies []*models.Candidacy
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND overall_status = ?", orgID, models.CandidacyStatusApproved).
		Where(`NOT EXISTS (
			SELECT 1 FROM memberships
			WHERE memberships.user_id = candidacies.applicant_id
			  AND memberships.organization_id = candidacies.organization_id
			  AND memberships.is_active = ?)`, true).
		Find(&candidacies).Error
	return candidacies, err
}

// ExistsByApplicantAndOrg checks if a candidacy already exists for the pair
func (r *candidacyRepository) ExistsByApplicantAndOrg(ctx context.Context, applicantID, orgID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Candidacy{}).
		Where("applicant_id = ? AND organization_id = ?", applicantID, orgID).
		Count(&count).Error
	return count > 0, err
}

// FinalizeIfPending conditionally moves a candidacy to a terminal status.
// The WHERE on overall_status makes concurrent finalization observable:
// zero rows affected means someone else finalized first.
func (r *candidacyRepository) FinalizeIfPending(ctx context.Context, id uint, status string, deciderID uint) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Candidacy{}).
		Where("id = ? AND overall_status = ?", id, models.CandidacyStatusPending).
		Updates(map[string]interface{}{
			"overall_status": status,
			"decided_by":     deciderID,
			"decided_at":     &now,
		})
	return result.RowsAffected, result.Error
}

// attemptRepository implements AttemptRepository interface
type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository creates a new phase attempt repository
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

// Create creates a new phase attempt
func (r *attemptRepository) Create(ctx context.Context, attempt *models.PhaseAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// CountByCandidacy counts attempts for a candidacy
func (r *attemptRepository) CountByCandidacy(ctx context.Context, candidacyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PhaseAttempt{}).
		Where("candidacy_id = ?", candidacyID).
		Count(&count).Error
	return count, err
}

// CurrentByCandidacy gets the attempt with the highest seq
func (r *attemptRepository) CurrentByCandidacy(ctx context.Context, candidacyID uint) (*models.PhaseAttempt, error) {
	var attempt models.PhaseAttempt
	err := r.db.WithContext(ctx).
		Where("candidacy_id = ?", candidacyID).
		Order("seq DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListByCandidacy lists attempts oldest first
func (r *attemptRepository) ListByCandidacy(ctx context.Context, candidacyID uint) ([]*models.PhaseAttempt, error) {
	var attempts []*models.PhaseAttempt
	err := r.db.WithContext(ctx).
		Preload("Phase").
		Where("candidacy_id = ?", candidacyID).
		Order("seq ASC").
		Find(&attempts).Error
	return attempts, err
}

// FinalizeIfPending conditionally moves an attempt to a terminal status.
// Terminal attempts never match the WHERE, so they stay immutable.
func (r *attemptRepository) FinalizeIfPending(ctx context.Context, id uint, status string, feedback datatypes.JSON, deciderID uint) (int64, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"decided_by": deciderID,
		"decided_at": &now,
	}
	if feedback != nil {
		updates["feedback"] = feedback
	}
	result := r.db.WithContext(ctx).
		Model(&models.PhaseAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptStatusPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}
