package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhaseFixture(t *testing.T) (*fakeStore, *fakeOrgRepo, *PhaseService, uint) {
	t.Helper()

	store := newFakeStore()
	orgRepo := newFakeOrgRepo()
	org := orgRepo.add("Chess Club")

	return store, orgRepo, NewPhaseService(store, orgRepo), org.ID
}

func TestPhaseCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active phase", func(t *testing.T) {
		_, _, service, orgID := newPhaseFixture(t)

		phase, err := service.Create(ctx, orgID, &CreatePhaseInput{
			Name:       "Screening",
			PhaseOrder: 10,
		})
		require.NoError(t, err)

		assert.True(t, phase.IsActive)
		assert.Equal(t, 10, phase.PhaseOrder)
	})

	t.Run("order gaps are allowed", func(t *testing.T) {
		_, _, service, orgID := newPhaseFixture(t)

		_, err := service.Create(ctx, orgID, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		require.NoError(t, err)
		_, err = service.Create(ctx, orgID, &CreatePhaseInput{Name: "Interview", PhaseOrder: 500})
		require.NoError(t, err)

		phases, err := service.ListByOrganization(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, phases, 2)
		assert.Equal(t, "Screening", phases[0].Name)
		assert.Equal(t, "Interview", phases[1].Name)
	})

	t.Run("duplicate order in the same organization", func(t *testing.T) {
		_, _, service, orgID := newPhaseFixture(t)

		_, err := service.Create(ctx, orgID, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		require.NoError(t, err)

		_, err = service.Create(ctx, orgID, &CreatePhaseInput{Name: "Interview", PhaseOrder: 10})
		assert.ErrorIs(t, err, ErrPhaseOrderTaken)
	})

	t.Run("same order across organizations is fine", func(t *testing.T) {
		_, orgRepo, service, orgID := newPhaseFixture(t)
		other := orgRepo.add("Film Society")

		_, err := service.Create(ctx, orgID, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		require.NoError(t, err)

		_, err = service.Create(ctx, other.ID, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		assert.NoError(t, err)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, _, service, _ := newPhaseFixture(t)

		_, err := service.Create(ctx, 999, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		assert.ErrorIs(t, err, ErrOrganizationNotFound)
	})
}

func TestPhaseUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("updates only provided fields", func(t *testing.T) {
		_, _, service, orgID := newPhaseFixture(t)

		phase, err := service.Create(ctx, orgID, &CreatePhaseInput{
			Name:        "Screening",
			Description: "CV review",
			PhaseOrder:  10,
		})
		require.NoError(t, err)

		name := "Initial Screening"
		active := false
		updated, err := service.Update(ctx, phase.ID, &UpdatePhaseInput{
			Name:     &name,
			IsActive: &active,
		})
		require.NoError(t, err)

		assert.Equal(t, "Initial Screening", updated.Name)
		assert.Equal(t, "CV review", updated.Description)
		assert.Equal(t, 10, updated.PhaseOrder)
		assert.False(t, updated.IsActive)
	})

	t.Run("unknown phase", func(t *testing.T) {
		_, _, service, _ := newPhaseFixture(t)

		name := "x"
		_, err := service.Update(ctx, 999, &UpdatePhaseInput{Name: &name})
		assert.ErrorIs(t, err, ErrPhaseNotFound)
	})
}

func TestPhaseDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted phase leaves the registry", func(t *testing.T) {
		_, _, service, orgID := newPhaseFixture(t)

		phase, err := service.Create(ctx, orgID, &CreatePhaseInput{Name: "Screening", PhaseOrder: 10})
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, phase.ID))

		_, err = service.GetByID(ctx, phase.ID)
		assert.ErrorIs(t, err, ErrPhaseNotFound)
	})

	t.Run("unknown phase", func(t *testing.T) {
		_, _, service, _ := newPhaseFixture(t)
		assert.ErrorIs(t, service.Delete(ctx, 999), ErrPhaseNotFound)
	})
}
