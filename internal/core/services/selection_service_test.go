package services

import (
	"context"
	"testing"
	"time"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectionFixture struct {
	store   *fakeStore
	orgRepo *fakeOrgRepo
	service *SelectionService
	org     *models.Organization
	phases  []*models.Phase
}

// newSelectionFixture seeds one organization with a three-phase pipeline
// and a Member role so final approvals can convert.
func newSelectionFixture(t *testing.T) *selectionFixture {
	t.Helper()

	store := newFakeStore()
	orgRepo := newFakeOrgRepo()
	studentRepo := newFakeStudentRepo()

	org := orgRepo.add("Robotics Club")
	store.addRole(org.ID, models.DefaultRoleName, 1)

	phases := []*models.Phase{
		store.addPhase(org.ID, "Screening", 1),
		store.addPhase(org.ID, "Interview", 2),
		store.addPhase(org.ID, "Trial Week", 3),
	}

	studentRepo.records["65010001"] = &models.StudentRecord{
		StudentNo: "65010001",
		FullName:  "Ada Lovelace",
		Email:     "ada@campus.edu",
		Course:    "Computer Engineering",
	}

	return &selectionFixture{
		store:   store,
		orgRepo: orgRepo,
		service: NewSelectionService(store, orgRepo, studentRepo, nil),
		org:     org,
		phases:  phases,
	}
}

func applicant(id uint, studentNo string) *models.User {
	return &models.User{
		ID:        id,
		StudentNo: studentNo,
		Username:  "user" + studentNo,
		Email:     studentNo + "@campus.edu",
		Role:      models.RoleStudent,
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("creates candidacy with first attempt", func(t *testing.T) {
		f := newSelectionFixture(t)

		candidacy, err := f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{
			Answers: map[string]interface{}{"motivation": "I build robots"},
		})
		require.NoError(t, err)

		assert.Equal(t, models.CandidacyStatusPending, candidacy.OverallStatus)
		assert.Equal(t, "Ada Lovelace", candidacy.ApplicantName)
		assert.Equal(t, "ada@campus.edu", candidacy.ApplicantEmail)
		assert.Equal(t, "Computer Engineering", candidacy.ApplicantCourse)

		require.Len(t, candidacy.Attempts, 1)
		attempt := candidacy.Attempts[0]
		assert.Equal(t, f.phases[0].ID, attempt.PhaseID)
		assert.Equal(t, 1, attempt.Seq)
		assert.Equal(t, models.AttemptStatusPending, attempt.Status)
		assert.NotEmpty(t, attempt.Answers)
	})

	t.Run("registry miss falls back to account data", func(t *testing.T) {
		f := newSelectionFixture(t)

		candidacy, err := f.service.Apply(ctx, f.org.ID, applicant(11, "65019999"), &ApplyInput{})
		require.NoError(t, err)

		assert.Equal(t, "user65019999", candidacy.ApplicantName)
		assert.Equal(t, "65019999@campus.edu", candidacy.ApplicantEmail)
		assert.Empty(t, candidacy.ApplicantCourse)
	})

	t.Run("duplicate application is rejected", func(t *testing.T) {
		f := newSelectionFixture(t)

		_, err := f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{})
		require.NoError(t, err)

		_, err = f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{})
		assert.ErrorIs(t, err, ErrCandidacyExists)
	})

	t.Run("organization without active phases", func(t *testing.T) {
		f := newSelectionFixture(t)
		for _, phase := range f.phases {
			phase.IsActive = false
		}

		_, err := f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{})
		assert.ErrorIs(t, err, ErrNoActivePhases)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newSelectionFixture(t)

		_, err := f.service.Apply(ctx, 999, applicant(10, "65010001"), &ApplyInput{})
		assert.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	const deciderID uint = 99

	apply := func(t *testing.T, f *selectionFixture, userID uint) *models.Candidacy {
		t.Helper()
		candidacy, err := f.service.Apply(ctx, f.org.ID, applicant(userID, "65010001"), &ApplyInput{})
		require.NoError(t, err)
		return candidacy
	}

	t.Run("reject finalizes the candidacy", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		result, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{
			Verdict:  VerdictReject,
			Feedback: map[string]interface{}{"reason": "incomplete application"},
		}, deciderID)
		require.NoError(t, err)

		assert.Equal(t, models.CandidacyStatusRejected, result.OverallStatus)
		require.NotNil(t, result.DecidedBy)
		assert.Equal(t, deciderID, *result.DecidedBy)

		require.Len(t, result.Attempts, 1)
		assert.Equal(t, models.AttemptStatusRejected, result.Attempts[0].Status)
		assert.NotEmpty(t, result.Attempts[0].Feedback)

		// No membership appears for a rejected applicant.
		_, err = f.store.Memberships().GetByUserAndOrg(ctx, 10, f.org.ID)
		assert.Error(t, err)
	})

	t.Run("approve advances to the next phase", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		result, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		require.NoError(t, err)

		assert.Equal(t, models.CandidacyStatusPending, result.OverallStatus)
		require.Len(t, result.Attempts, 2)

		assert.Equal(t, models.AttemptStatusApproved, result.Attempts[0].Status)

		next := result.Attempts[1]
		assert.Equal(t, f.phases[1].ID, next.PhaseID)
		assert.Equal(t, 2, next.Seq)
		assert.Equal(t, models.AttemptStatusPending, next.Status)
	})

	t.Run("approve on the last phase converts to membership", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		for i := 0; i < 3; i++ {
			result, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
			require.NoError(t, err)
			if i < 2 {
				assert.Equal(t, models.CandidacyStatusPending, result.OverallStatus)
			} else {
				assert.Equal(t, models.CandidacyStatusApproved, result.OverallStatus)
			}
		}

		membership, err := f.store.Memberships().GetByUserAndOrg(ctx, 10, f.org.ID)
		require.NoError(t, err)
		assert.True(t, membership.IsActive)
	})

	t.Run("phase order gaps are walked in order", func(t *testing.T) {
		f := newSelectionFixture(t)
		f.phases[1].PhaseOrder = 20
		f.phases[2].PhaseOrder = 300
		candidacy := apply(t, f, 10)

		result, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		require.NoError(t, err)

		require.Len(t, result.Attempts, 2)
		assert.Equal(t, f.phases[1].ID, result.Attempts[1].PhaseID)
	})

	t.Run("finalized candidacy cannot be decided again", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		_, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictReject}, deciderID)
		require.NoError(t, err)

		_, err = f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		assert.ErrorIs(t, err, ErrCandidacyFinalized)
	})

	t.Run("invalid verdict", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		_, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: "maybe"}, deciderID)
		assert.ErrorIs(t, err, ErrInvalidVerdict)
	})

	t.Run("unknown candidacy", func(t *testing.T) {
		f := newSelectionFixture(t)

		_, err := f.service.Decide(ctx, 999, &DecideInput{Verdict: VerdictApprove}, deciderID)
		assert.ErrorIs(t, err, ErrCandidacyNotFound)
	})

	t.Run("concurrent decision surfaces a conflict", func(t *testing.T) {
		f := newSelectionFixture(t)
		candidacy := apply(t, f, 10)

		// The other decider lands between the read and the conditional update.
		f.store.beforeAttemptFinalize = func() {
			hook := f.store.beforeAttemptFinalize
			f.store.beforeAttemptFinalize = nil
			defer func() { f.store.beforeAttemptFinalize = hook }()

			for _, a := range f.store.attempts {
				if a.CandidacyID == candidacy.ID {
					a.Status = models.AttemptStatusRejected
				}
			}
		}

		_, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		assert.ErrorIs(t, err, ErrDecisionConflict)
	})

	t.Run("legacy candidacy without attempts is decided directly", func(t *testing.T) {
		f := newSelectionFixture(t)

		legacy := &models.Candidacy{
			OrganizationID: f.org.ID,
			ApplicantID:    42,
			ApplicantName:  "Grace Hopper",
			OverallStatus:  models.CandidacyStatusPending,
		}
		require.NoError(t, f.store.Candidacies().Create(ctx, legacy))

		result, err := f.service.Decide(ctx, legacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		require.NoError(t, err)

		assert.Equal(t, models.CandidacyStatusApproved, result.OverallStatus)
		assert.Empty(t, result.Attempts)

		membership, err := f.store.Memberships().GetByUserAndOrg(ctx, 42, f.org.ID)
		require.NoError(t, err)
		assert.True(t, membership.IsActive)
	})

	t.Run("missing default role rolls the approval back", func(t *testing.T) {
		f := newSelectionFixture(t)
		f.store.roles = nil
		candidacy := apply(t, f, 10)

		require.NoError(t, advanceToLastPhase(ctx, t, f, candidacy.ID, deciderID))

		_, err := f.service.Decide(ctx, candidacy.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		assert.ErrorIs(t, err, ErrDefaultRoleMissing)
	})
}

// advanceToLastPhase approves through all but the final phase
func advanceToLastPhase(ctx context.Context, t *testing.T, f *selectionFixture, candidacyID uint, deciderID uint) error {
	t.Helper()
	for i := 0; i < len(f.phases)-1; i++ {
		if _, err := f.service.Decide(ctx, candidacyID, &DecideInput{Verdict: VerdictApprove}, deciderID); err != nil {
			return err
		}
	}
	return nil
}

func TestGroupByPhase(t *testing.T) {
	ctx := context.Background()
	const deciderID uint = 99

	t.Run("buckets candidates by current phase", func(t *testing.T) {
		f := newSelectionFixture(t)

		// One candidate per state: fresh, advanced, approved, rejected.
		fresh, err := f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{})
		require.NoError(t, err)

		advanced, err := f.service.Apply(ctx, f.org.ID, applicant(11, "65010002"), &ApplyInput{})
		require.NoError(t, err)
		_, err = f.service.Decide(ctx, advanced.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
		require.NoError(t, err)

		winner, err := f.service.Apply(ctx, f.org.ID, applicant(12, "65010003"), &ApplyInput{})
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = f.service.Decide(ctx, winner.ID, &DecideInput{Verdict: VerdictApprove}, deciderID)
			require.NoError(t, err)
		}

		loser, err := f.service.Apply(ctx, f.org.ID, applicant(13, "65010004"), &ApplyInput{})
		require.NoError(t, err)
		_, err = f.service.Decide(ctx, loser.ID, &DecideInput{Verdict: VerdictReject}, deciderID)
		require.NoError(t, err)

		view, err := f.service.GroupByPhase(ctx, f.org.ID)
		require.NoError(t, err)

		require.Len(t, view.Phases, 3)
		assert.Equal(t, "Screening", view.Phases[0].PhaseName)

		screening := view.Phases[0]
		interview := view.Phases[1]
		trial := view.Phases[2]

		// fresh and loser sit in screening (terminal candidates stay visible
		// in the phase their last attempt ran in).
		require.Len(t, screening.Candidates, 2)
		screeningIDs := []uint{screening.Candidates[0].CandidacyID, screening.Candidates[1].CandidacyID}
		assert.Contains(t, screeningIDs, fresh.ID)
		assert.Contains(t, screeningIDs, loser.ID)
		assert.Len(t, interview.Candidates, 1)
		assert.Equal(t, advanced.ID, interview.Candidates[0].CandidacyID)
		require.Len(t, trial.Candidates, 1)
		assert.Equal(t, winner.ID, trial.Candidates[0].CandidacyID)

		assert.Empty(t, view.Unphased)

		metrics := view.Metrics
		assert.Equal(t, 4, metrics.Total)
		assert.Equal(t, 2, metrics.InProgress)
		assert.Equal(t, 1, metrics.Approved)
		assert.Equal(t, 1, metrics.Rejected)
		assert.InDelta(t, 0.25, metrics.ApprovalRate, 1e-9)

		require.Len(t, metrics.PerPhase, 3)
		assert.Equal(t, 1, metrics.PerPhase[0].Pending)  // fresh
		assert.Equal(t, 2, metrics.PerPhase[0].Approved) // advanced, winner
		assert.Equal(t, 1, metrics.PerPhase[0].Rejected) // loser
	})

	t.Run("candidate in a deactivated phase lands in unphased", func(t *testing.T) {
		f := newSelectionFixture(t)

		candidacy, err := f.service.Apply(ctx, f.org.ID, applicant(10, "65010001"), &ApplyInput{})
		require.NoError(t, err)

		f.phases[0].IsActive = false

		view, err := f.service.GroupByPhase(ctx, f.org.ID)
		require.NoError(t, err)

		require.Len(t, view.Unphased, 1)
		assert.Equal(t, candidacy.ID, view.Unphased[0].CandidacyID)
	})

	t.Run("missing snapshot fields get placeholders", func(t *testing.T) {
		f := newSelectionFixture(t)

		bare := &models.Candidacy{
			OrganizationID: f.org.ID,
			ApplicantID:    42,
			OverallStatus:  models.CandidacyStatusPending,
		}
		require.NoError(t, f.store.Candidacies().Create(ctx, bare))

		view, err := f.service.GroupByPhase(ctx, f.org.ID)
		require.NoError(t, err)

		require.Len(t, view.Unphased, 1)
		card := view.Unphased[0]
		assert.Equal(t, "(unknown applicant)", card.ApplicantName)
		assert.Equal(t, "-", card.ApplicantEmail)
		assert.Equal(t, "-", card.ApplicantCourse)
	})

	t.Run("empty pipeline has zero approval rate", func(t *testing.T) {
		f := newSelectionFixture(t)

		metrics, err := f.service.Metrics(ctx, f.org.ID)
		require.NoError(t, err)

		assert.Equal(t, 0, metrics.Total)
		assert.Zero(t, metrics.ApprovalRate)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newSelectionFixture(t)

		_, err := f.service.GroupByPhase(ctx, 999)
		assert.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}

func TestCurrentAttempt(t *testing.T) {
	t.Run("highest seq wins", func(t *testing.T) {
		attempts := []models.PhaseAttempt{
			{ID: 1, Seq: 1, Status: models.AttemptStatusApproved},
			{ID: 2, Seq: 2, Status: models.AttemptStatusPending},
		}
		current := currentAttempt(attempts)
		require.NotNil(t, current)
		assert.Equal(t, uint(2), current.ID)
	})

	t.Run("zero seq rows fall back to creation time", func(t *testing.T) {
		earlier := timeMustParse(t, "2024-01-01T10:00:00Z")
		later := timeMustParse(t, "2024-01-02T10:00:00Z")
		attempts := []models.PhaseAttempt{
			{ID: 1, Seq: 0, CreatedAt: earlier},
			{ID: 2, Seq: 0, CreatedAt: later},
		}
		current := currentAttempt(attempts)
		require.NotNil(t, current)
		assert.Equal(t, uint(2), current.ID)
	})

	t.Run("equal timestamps break ties on phase order", func(t *testing.T) {
		ts := timeMustParse(t, "2024-01-01T10:00:00Z")
		attempts := []models.PhaseAttempt{
			{ID: 1, Seq: 0, CreatedAt: ts, Phase: &models.Phase{PhaseOrder: 1}},
			{ID: 2, Seq: 0, CreatedAt: ts, Phase: &models.Phase{PhaseOrder: 2}},
		}
		current := currentAttempt(attempts)
		require.NotNil(t, current)
		assert.Equal(t, uint(2), current.ID)
	})

	t.Run("no attempts", func(t *testing.T) {
		assert.Nil(t, currentAttempt(nil))
	})
}

func timeMustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

// compile-time interface checks for the fakes
var (
	_ repositories.SelectionStore         = (*fakeStore)(nil)
	_ repositories.OrganizationRepository = (*fakeOrgRepo)(nil)
	_ repositories.StudentRepository      = (*fakeStudentRepo)(nil)
)
