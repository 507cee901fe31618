package repositories

import (
	"context"
	"errors"
	"testing"

	"campus-orghub/internal/adapters/persistence/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens gorm over a sqlmock connection. Default transactions are
// skipped so single-statement expectations stay readable; InTx behavior is
// covered separately.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestCandidacyFinalizeIfPending(t *testing.T) {
	ctx := context.Background()

	t.Run("updates a pending candidacy", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCandidacyRepository(db)

		mock.ExpectExec("UPDATE `candidacies` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.FinalizeIfPending(ctx, 7, models.CandidacyStatusApproved, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports zero rows when already finalized", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCandidacyRepository(db)

		mock.ExpectExec("UPDATE `candidacies` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.FinalizeIfPending(ctx, 7, models.CandidacyStatusRejected, 99)
		require.NoError(t, err)
		assert.Zero(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttemptFinalizeIfPending(t *testing.T) {
	ctx := context.Background()

	t.Run("zero rows when the attempt left pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAttemptRepository(db)

		mock.ExpectExec("UPDATE `phase_attempts` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.FinalizeIfPending(ctx, 3, models.AttemptStatusApproved, nil, 99)
		require.NoError(t, err)
		assert.Zero(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPhaseNextPhase(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the next active phase by order", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPhaseRepository(db)

		mock.ExpectQuery("SELECT \\* FROM `selection_phases`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "name", "phase_order", "is_active"}).
				AddRow(5, 1, "Interview", 20, true))

		phase, err := repo.NextPhase(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, uint(5), phase.ID)
		assert.Equal(t, 20, phase.PhaseOrder)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found past the last phase", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPhaseRepository(db)

		mock.ExpectQuery("SELECT \\* FROM `selection_phases`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.NextPhase(ctx, 1, 30)
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListApprovedMissingMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("filters on the membership anti-join", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCandidacyRepository(db)

		mock.ExpectQuery("SELECT \\* FROM `candidacies`.*NOT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "applicant_id", "overall_status"}).
				AddRow(1, 1, 10, models.CandidacyStatusApproved).
				AddRow(2, 1, 11, models.CandidacyStatusApproved))

		candidacies, err := repo.ListApprovedMissingMembership(ctx, 1)
		require.NoError(t, err)
		require.Len(t, candidacies, 2)
		assert.Equal(t, uint(10), candidacies[0].ApplicantID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
