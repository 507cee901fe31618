package services

import (
	"context"
	"errors"
	"testing"

	"campus-orghub/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type membershipFixture struct {
	store   *fakeStore
	orgRepo *fakeOrgRepo
	service *MembershipService
	org     *models.Organization
	role    *models.Role
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()

	store := newFakeStore()
	orgRepo := newFakeOrgRepo()

	org := orgRepo.add("Debate Society")
	role := store.addRole(org.ID, models.DefaultRoleName, 1)

	return &membershipFixture{
		store:   store,
		orgRepo: orgRepo,
		service: NewMembershipService(store, orgRepo, nil),
		org:     org,
		role:    role,
	}
}

func TestEnsureMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active membership with the default role", func(t *testing.T) {
		f := newMembershipFixture(t)

		membership, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		assert.True(t, membership.IsActive)
		assert.Equal(t, f.role.ID, membership.RoleID)
		assert.False(t, membership.JoinedAt.IsZero())
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newMembershipFixture(t)

		first, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		second, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, f.store.memberships, 1)
	})

	t.Run("reactivates a deactivated membership", func(t *testing.T) {
		f := newMembershipFixture(t)

		membership, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		require.NoError(t, f.service.Deactivate(ctx, 10, f.org.ID))

		revived, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, membership.ID, revived.ID)
		assert.True(t, revived.IsActive)
		assert.Nil(t, revived.LeftAt)
		assert.Len(t, f.store.memberships, 1)
	})

	t.Run("missing default role", func(t *testing.T) {
		f := newMembershipFixture(t)
		f.store.roles = nil

		_, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		assert.ErrorIs(t, err, ErrDefaultRoleMissing)
	})

	t.Run("lost insert race falls back to the existing row", func(t *testing.T) {
		f := newMembershipFixture(t)

		// The first insert hits the unique index because another writer
		// created the row between our read and our write.
		raced := false
		f.store.membershipCreateErr = func(m *models.Membership) error {
			if raced {
				return nil
			}
			raced = true
			other := &models.Membership{
				UserID:         m.UserID,
				OrganizationID: m.OrganizationID,
				RoleID:         f.role.ID,
				IsActive:       true,
			}
			other.ID = 777
			f.store.memberships = append(f.store.memberships, other)
			return gorm.ErrDuplicatedKey
		}

		membership, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, uint(777), membership.ID)
		assert.True(t, membership.IsActive)
		assert.Len(t, f.store.memberships, 1)
	})
}

func TestReconcileApproved(t *testing.T) {
	ctx := context.Background()

	addApproved := func(f *membershipFixture, applicantID uint) *models.Candidacy {
		candidacy := &models.Candidacy{
			OrganizationID: f.org.ID,
			ApplicantID:    applicantID,
			OverallStatus:  models.CandidacyStatusApproved,
		}
		_ = f.store.Candidacies().Create(ctx, candidacy)
		return candidacy
	}

	t.Run("repairs approved candidacies without membership", func(t *testing.T) {
		f := newMembershipFixture(t)
		addApproved(f, 10)
		addApproved(f, 11)

		// 12 already converted; must not be touched.
		addApproved(f, 12)
		_, err := f.service.EnsureMembership(ctx, 12, f.org.ID)
		require.NoError(t, err)

		report, err := f.service.ReconcileApproved(ctx, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Checked)
		assert.Equal(t, 2, report.Repaired)
		assert.Equal(t, 0, report.Failed)

		for _, userID := range []uint{10, 11, 12} {
			membership, err := f.store.Memberships().GetByUserAndOrg(ctx, userID, f.org.ID)
			require.NoError(t, err)
			assert.True(t, membership.IsActive)
		}
	})

	t.Run("one failing candidacy does not abort the run", func(t *testing.T) {
		f := newMembershipFixture(t)
		addApproved(f, 10)
		addApproved(f, 11)
		addApproved(f, 12)

		f.store.membershipCreateErr = func(m *models.Membership) error {
			if m.UserID == 11 {
				return errors.New("insert failed")
			}
			return nil
		}

		report, err := f.service.ReconcileApproved(ctx, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, 3, report.Checked)
		assert.Equal(t, 2, report.Repaired)
		assert.Equal(t, 1, report.Failed)

		_, err = f.store.Memberships().GetByUserAndOrg(ctx, 11, f.org.ID)
		assert.Error(t, err)
	})

	t.Run("rerun is a no-op", func(t *testing.T) {
		f := newMembershipFixture(t)
		addApproved(f, 10)

		first, err := f.service.ReconcileApproved(ctx, f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Repaired)

		second, err := f.service.ReconcileApproved(ctx, f.org.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Checked)
		assert.Equal(t, 0, second.Repaired)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newMembershipFixture(t)

		_, err := f.service.ReconcileApproved(ctx, 999)
		assert.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}

func TestDeactivateMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates an active membership", func(t *testing.T) {
		f := newMembershipFixture(t)

		_, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)

		require.NoError(t, f.service.Deactivate(ctx, 10, f.org.ID))

		membership, err := f.store.Memberships().GetByUserAndOrg(ctx, 10, f.org.ID)
		require.NoError(t, err)
		assert.False(t, membership.IsActive)
		assert.NotNil(t, membership.LeftAt)
	})

	t.Run("missing membership", func(t *testing.T) {
		f := newMembershipFixture(t)

		err := f.service.Deactivate(ctx, 10, f.org.ID)
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("already deactivated", func(t *testing.T) {
		f := newMembershipFixture(t)

		_, err := f.service.EnsureMembership(ctx, 10, f.org.ID)
		require.NoError(t, err)
		require.NoError(t, f.service.Deactivate(ctx, 10, f.org.ID))

		err = f.service.Deactivate(ctx, 10, f.org.ID)
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	})
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()

	t.Run("lists active members with pagination", func(t *testing.T) {
		f := newMembershipFixture(t)

		for userID := uint(10); userID < 15; userID++ {
			_, err := f.service.EnsureMembership(ctx, userID, f.org.ID)
			require.NoError(t, err)
		}
		require.NoError(t, f.service.Deactivate(ctx, 14, f.org.ID))

		out, err := f.service.ListMembers(ctx, f.org.ID, &ListMembersInput{Page: 1, Limit: 3})
		require.NoError(t, err)

		assert.Equal(t, int64(4), out.Total)
		assert.Len(t, out.Members, 3)
		assert.Equal(t, 2, out.TotalPages)
	})

	t.Run("clamps page and limit", func(t *testing.T) {
		f := newMembershipFixture(t)

		out, err := f.service.ListMembers(ctx, f.org.ID, &ListMembersInput{Page: 0, Limit: 0})
		require.NoError(t, err)

		assert.Equal(t, 1, out.Page)
		assert.Equal(t, 20, out.Limit)
	})
}
