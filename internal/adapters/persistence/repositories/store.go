package repositories

import (
	"context"

	"gorm.io/gorm"
)

// store implements SelectionStore over a *gorm.DB. The same type serves
// both the root connection and transaction-bound copies handed to InTx
// callbacks.
type store struct {
	db          *gorm.DB
	phases      PhaseRepository
	candidacies CandidacyRepository
	attempts    AttemptRepository
	memberships MembershipRepository
	roles       RoleRepository
}

// NewSelectionStore creates a selection store over the given database handle
func NewSelectionStore(db *gorm.DB) SelectionStore {
	return &store{
		db:          db,
		phases:      NewPhaseRepository(db),
		candidacies: NewCandidacyRepository(db),
		attempts:    NewAttemptRepository(db),
		memberships: NewMembershipRepository(db),
		roles:       NewRoleRepository(db),
	}
}

func (s *store) Phases() PhaseRepository             { return s.phases }
func (s *store) Candidacies() CandidacyRepository    { return s.candidacies }
func (s *store) Attempts() AttemptRepository         { return s.attempts }
func (s *store) Memberships() MembershipRepository   { return s.memberships }
func (s *store) Roles() RoleRepository               { return s.roles }

// InTx runs fn inside a single database transaction. The callback receives
// a store bound to the transaction; any error rolls the whole unit back.
func (s *store) InTx(ctx context.Context, fn func(tx SelectionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSelectionStore(tx))
	})
}
