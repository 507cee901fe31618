package services

import (
	"context"
	"errors"
	"log"
	"time"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Membership service errors
var (
	ErrDefaultRoleMissing = errors.New("organization has no default member role")
	ErrMembershipNotFound = errors.New("membership not found")
)

// MembershipService converts approved applicants into members and keeps
// the membership directory consistent
type MembershipService struct {
	store         repositories.SelectionStore
	orgRepo       repositories.OrganizationRepository
	notifyService *NotificationService
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	store repositories.SelectionStore,
	orgRepo repositories.OrganizationRepository,
	notifyService *NotificationService,
) *MembershipService {
	return &MembershipService{
		store:         store,
		orgRepo:       orgRepo,
		notifyService: notifyService,
	}
}

// EnsureMembership makes sure an active membership exists for the pair,
// creating or reactivating as needed. Idempotent: calling it again is a
// no-op once an active membership exists.
func (s *MembershipService) EnsureMembership(ctx context.Context, userID, orgID uint) (*models.Membership, error) {
	err := s.store.InTx(ctx, func(tx repositories.SelectionStore) error {
		return ensureMembership(ctx, tx, userID, orgID)
	})
	if err != nil {
		return nil, err
	}

	return s.store.Memberships().GetByUserAndOrg(ctx, userID, orgID)
}

// ensureMembership is the conversion core, shared with the decision engine
// so a final approval and its membership land in one transaction.
//
// Exactly one row may exist per (user, organization); the unique index is
// the backstop when two writers race past the read below.
func ensureMembership(ctx context.Context, tx repositories.SelectionStore, userID, orgID uint) error {
	role, err := tx.Roles().GetDefault(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDefaultRoleMissing
		}
		return err
	}

	existing, err := tx.Memberships().GetByUserAndOrg(ctx, userID, orgID)
	if err == nil {
		if existing.IsActive {
			return nil
		}
		return tx.Memberships().Reactivate(ctx, existing.ID, role.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	membership := &models.Membership{
		UserID:         userID,
		OrganizationID: orgID,
		RoleID:         role.ID,
		IsActive:       true,
		JoinedAt:       time.Now(),
	}

	err = tx.Memberships().Create(ctx, membership)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	// Lost a race on the unique index: the row exists now, so treat the
	// retry as the reactivation branch.
	existing, err = tx.Memberships().GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return err
	}
	if existing.IsActive {
		return nil
	}
	return tx.Memberships().Reactivate(ctx, existing.ID, role.ID)
}

// ReconcileReport summarizes one reconciliation run
type ReconcileReport struct {
	OrganizationID uint `json:"organization_id"`
	Checked        int  `json:"checked"`
	Repaired       int  `json:"repaired"`
	Failed         int  `json:"failed"`
}

// ReconcileApproved repairs approved candidacies that lack an active
// membership. One failing candidacy never aborts the rest of the run.
func (s *MembershipService) ReconcileApproved(ctx context.Context, orgID uint) (*ReconcileReport, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	candidacies, err := s.store.Candidacies().ListApprovedMissingMembership(ctx, orgID)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{OrganizationID: orgID, Checked: len(candidacies)}
	for _, candidacy := range candidacies {
		err := s.store.InTx(ctx, func(tx repositories.SelectionStore) error {
			return ensureMembership(ctx, tx, candidacy.ApplicantID, candidacy.OrganizationID)
		})
		if err != nil {
			log.Printf("⚠️ Reconcile failed for candidacy %d (applicant %d, org %d): %v",
				candidacy.ID, candidacy.ApplicantID, orgID, err)
			report.Failed++
			continue
		}
		report.Repaired++
	}

	if report.Repaired > 0 {
		log.Printf("✅ Reconciled %d membership(s) for organization %d", report.Repaired, orgID)
		if s.notifyService != nil {
			s.notifyService.NotifyReconciled(orgID, report.Repaired)
		}
	}

	return report, nil
}

// ReconcileAll runs ReconcileApproved over every active organization
// (nightly job entry point)
func (s *MembershipService) ReconcileAll(ctx context.Context) error {
	orgs, err := s.orgRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, org := range orgs {
		if _, err := s.ReconcileApproved(ctx, org.ID); err != nil {
			log.Printf("⚠️ Reconcile sweep failed for organization %d: %v", org.ID, err)
		}
	}
	return nil
}

// ListMembersInput represents member directory input
type ListMembersInput struct {
	Page  int
	Limit int
}

// ListMembersOutput represents member directory output
type ListMembersOutput struct {
	Members    []*models.MembershipResponse `json:"members"`
	Total      int64                        `json:"total"`
	Page       int                          `json:"page"`
	Limit      int                          `json:"limit"`
	TotalPages int                          `json:"total_pages"`
}

// ListMembers lists an organization's active members
func (s *MembershipService) ListMembers(ctx context.Context, orgID uint, input *ListMembersInput) (*ListMembersOutput, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

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
	memberships, total, err := s.store.Memberships().ListByOrganization(ctx, orgID, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	members := make([]*models.MembershipResponse, len(memberships))
	for i, m := range memberships {
		members[i] = m.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListMembersOutput{
		Members:    members,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// Deactivate marks a membership inactive. The row survives so a later
// conversion reactivates it instead of inserting a duplicate.
func (s *MembershipService) Deactivate(ctx context.Context, userID, orgID uint) error {
	membership, err := s.store.Memberships().GetByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return err
	}
	if !membership.IsActive {
		return ErrMembershipNotFound
	}

	return s.store.Memberships().Deactivate(ctx, membership.ID)
}

// MyOrganizations lists a user's active memberships
func (s *MembershipService) MyOrganizations(ctx context.Context, userID uint) ([]*models.Membership, error) {
	return s.store.Memberships().ListByUser(ctx, userID)
}
