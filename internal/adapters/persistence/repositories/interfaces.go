package repositories

import (
	"context"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/datatypes"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByStudentNo(ctx context.Context, studentNo string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByStudentNo(ctx context.Context, studentNo string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// StudentRepository defines student registry repository interface
// Read-only access to the campus_students table
type StudentRepository interface {
	GetByStudentNo(ctx context.Context, studentNo string) (*models.StudentRecord, error)
	Exists(ctx context.Context, studentNo string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]*models.StudentRecord, error)
}

// OrganizationRepository defines organization catalog access
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	GetByName(ctx context.Context, name string) (*models.Organization, error)
	List(ctx context.Context, search string, offset, limit int) ([]*models.Organization, int64, error)
	ListActive(ctx context.Context) ([]*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id uint) error
}

// PhaseRepository defines phase registry access
type PhaseRepository interface {
	Create(ctx context.Context, phase *models.Phase) error
	GetByID(ctx context.Context, id uint) (*models.Phase, error)
	Update(ctx context.Context, phase *models.Phase) error
	Delete(ctx context.Context, id uint) error
	ListActiveByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error)
	// NextPhase returns the active phase with the smallest order strictly
	// greater than afterOrder, or gorm.ErrRecordNotFound when none remain.
	NextPhase(ctx context.Context, orgID uint, afterOrder int) (*models.Phase, error)
	// FirstPhase returns the lowest-order active phase for an organization.
	FirstPhase(ctx context.Context, orgID uint) (*models.Phase, error)
}

// CandidacyRepository defines candidacy store access
type CandidacyRepository interface {
	Create(ctx context.Context, candidacy *models.Candidacy) error
	GetByID(ctx context.Context, id uint) (*models.Candidacy, error)
	// GetByIDForUpdate locks the candidacy row for the duration of the
	// surrounding transaction. Only meaningful inside SelectionStore.InTx.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Candidacy, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]*models.Candidacy, error)
	// ListApprovedMissingMembership returns approved candidacies whose
	// applicant has no active membership in the organization.
	ListApprovedMissingMembership(ctx context.Context, orgID uint) ([]*models.Candidacy, error)
	ExistsByApplicantAndOrg(ctx context.Context, applicantID, orgID uint) (bool, error)
	// FinalizeIfPending moves a still-pending candidacy to a terminal status
	// and reports how many rows matched. Zero rows means the candidacy was
	// finalized concurrently.
	FinalizeIfPending(ctx context.Context, id uint, status string, deciderID uint) (int64, error)
}

// AttemptRepository defines phase attempt store access
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.PhaseAttempt) error
	CountByCandidacy(ctx context.Context, candidacyID uint) (int64, error)
	// CurrentByCandidacy returns the attempt with the highest Seq.
	CurrentByCandidacy(ctx context.Context, candidacyID uint) (*models.PhaseAttempt, error)
	ListByCandidacy(ctx context.Context, candidacyID uint) ([]*models.PhaseAttempt, error)
	// FinalizeIfPending moves a still-pending attempt to a terminal status
	// and reports how many rows matched.
	FinalizeIfPending(ctx context.Context, id uint, status string, feedback datatypes.JSON, deciderID uint) (int64, error)
}

// MembershipRepository defines membership store access
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	GetByUserAndOrg(ctx context.Context, userID, orgID uint) (*models.Membership, error)
	Reactivate(ctx context.Context, id uint, roleID uint) error
	Deactivate(ctx context.Context, id uint) error
	ListByOrganization(ctx context.Context, orgID uint, offset, limit int) ([]*models.Membership, int64, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Membership, error)
}

// RoleRepository defines organization role access
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	// GetDefault returns the organization's well-known default member role,
	// or gorm.ErrRecordNotFound when the organization is misconfigured.
	GetDefault(ctx context.Context, orgID uint) (*models.Role, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]*models.Role, error)
}

// SelectionStore groups the selection-pipeline repositories behind a single
// transactional boundary. InTx runs fn against a store bound to one database
// transaction; returning an error rolls everything back.
type SelectionStore interface {
	Phases() PhaseRepository
	Candidacies() CandidacyRepository
	Attempts() AttemptRepository
	Memberships() MembershipRepository
	Roles() RoleRepository
	InTx(ctx context.Context, fn func(tx SelectionStore) error) error
}
