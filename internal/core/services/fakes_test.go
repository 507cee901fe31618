package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeStore is an in-memory SelectionStore used by service tests. It mimics
// the database constraints that matter to the services: the unique
// (applicant, organization) candidacy index, the unique (user, organization)
// membership index, and conditional finalize updates that report zero rows
// when the row already left the pending state.
type fakeStore struct {
	phases      []*models.Phase
	candidacies []*models.Candidacy
	attempts    []*models.PhaseAttempt
	memberships []*models.Membership
	roles       []*models.Role

	nextID uint

	// beforeAttemptFinalize runs inside FinalizeIfPending, before the status
	// check. Tests use it to simulate a concurrent decider.
	beforeAttemptFinalize func()

	// membershipCreateErr lets tests inject insert failures per membership.
	membershipCreateErr func(m *models.Membership) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) Phases() repositories.PhaseRepository           { return (*fakePhases)(s) }
func (s *fakeStore) Candidacies() repositories.CandidacyRepository  { return (*fakeCandidacies)(s) }
func (s *fakeStore) Attempts() repositories.AttemptRepository       { return (*fakeAttempts)(s) }
func (s *fakeStore) Memberships() repositories.MembershipRepository { return (*fakeMemberships)(s) }
func (s *fakeStore) Roles() repositories.RoleRepository             { return (*fakeRoles)(s) }

func (s *fakeStore) InTx(ctx context.Context, fn func(tx repositories.SelectionStore) error) error {
	return fn(s)
}

// addPhase seeds an active phase
func (s *fakeStore) addPhase(orgID uint, name string, order int) *models.Phase {
	phase := &models.Phase{
		ID:             s.id(),
		OrganizationID: orgID,
		Name:           name,
		PhaseOrder:     order,
		IsActive:       true,
	}
	s.phases = append(s.phases, phase)
	return phase
}

// addRole seeds an organization role
func (s *fakeStore) addRole(orgID uint, name string, hierarchy int) *models.Role {
	role := &models.Role{
		ID:             s.id(),
		OrganizationID: orgID,
		Name:           name,
		Hierarchy:      hierarchy,
	}
	s.roles = append(s.roles, role)
	return role
}

// findCandidacy returns the stored row, not a copy
func (s *fakeStore) findCandidacy(id uint) *models.Candidacy {
	for _, c := range s.candidacies {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *fakeStore) phaseByID(id uint) *models.Phase {
	for _, p := range s.phases {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// candidacyView clones a candidacy with its attempts attached, the way the
// real repository preloads them.
func (s *fakeStore) candidacyView(c *models.Candidacy) *models.Candidacy {
	clone := *c
	clone.Attempts = nil
	for _, a := range s.attempts {
		if a.CandidacyID != c.ID {
			continue
		}
		attempt := *a
		attempt.Phase = s.phaseByID(a.PhaseID)
		clone.Attempts = append(clone.Attempts, attempt)
	}
	sort.Slice(clone.Attempts, func(i, j int) bool {
		return clone.Attempts[i].Seq < clone.Attempts[j].Seq
	})
	return &clone
}

// ---- phases ----

type fakePhases fakeStore

func (f *fakePhases) Create(ctx context.Context, phase *models.Phase) error {
	s := (*fakeStore)(f)
	for _, p := range s.phases {
		if p.OrganizationID == phase.OrganizationID && p.PhaseOrder == phase.PhaseOrder {
			return gorm.ErrDuplicatedKey
		}
	}
	phase.ID = s.id()
	s.phases = append(s.phases, phase)
	return nil
}

func (f *fakePhases) GetByID(ctx context.Context, id uint) (*models.Phase, error) {
	if phase := (*fakeStore)(f).phaseByID(id); phase != nil {
		return phase, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePhases) Update(ctx context.Context, phase *models.Phase) error {
	s := (*fakeStore)(f)
	for i, p := range s.phases {
		if p.ID == phase.ID {
			s.phases[i] = phase
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePhases) Delete(ctx context.Context, id uint) error {
	s := (*fakeStore)(f)
	for i, p := range s.phases {
		if p.ID == id {
			s.phases = append(s.phases[:i], s.phases[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePhases) ListActiveByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error) {
	s := (*fakeStore)(f)
	var out []*models.Phase
	for _, p := range s.phases {
		if p.OrganizationID == orgID && p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseOrder < out[j].PhaseOrder })
	return out, nil
}

func (f *fakePhases) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Phase, error) {
	s := (*fakeStore)(f)
	var out []*models.Phase
	for _, p := range s.phases {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseOrder < out[j].PhaseOrder })
	return out, nil
}

func (f *fakePhases) NextPhase(ctx context.Context, orgID uint, afterOrder int) (*models.Phase, error) {
	s := (*fakeStore)(f)
	var next *models.Phase
	for _, p := range s.phases {
		if p.OrganizationID != orgID || !p.IsActive || p.PhaseOrder <= afterOrder {
			continue
		}
		if next == nil || p.PhaseOrder < next.PhaseOrder {
			next = p
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return next, nil
}

func (f *fakePhases) FirstPhase(ctx context.Context, orgID uint) (*models.Phase, error) {
	return f.NextPhase(ctx, orgID, -1<<31)
}

// ---- candidacies ----

type fakeCandidacies fakeStore

func (f *fakeCandidacies) Create(ctx context.Context, candidacy *models.Candidacy) error {
	s := (*fakeStore)(f)
	for _, c := range s.candidacies {
		if c.ApplicantID == candidacy.ApplicantID && c.OrganizationID == candidacy.OrganizationID {
			return gorm.ErrDuplicatedKey
		}
	}
	candidacy.ID = s.id()
	candidacy.CreatedAt = time.Now()
	s.candidacies = append(s.candidacies, candidacy)
	return nil
}

func (f *fakeCandidacies) GetByID(ctx context.Context, id uint) (*models.Candidacy, error) {
	s := (*fakeStore)(f)
	if c := s.findCandidacy(id); c != nil {
		return s.candidacyView(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCandidacies) GetByIDForUpdate(ctx context.Context, id uint) (*models.Candidacy, error) {
	s := (*fakeStore)(f)
	if c := s.findCandidacy(id); c != nil {
		clone := *c
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCandidacies) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Candidacy, error) {
	s := (*fakeStore)(f)
	var out []*models.Candidacy
	for _, c := range s.candidacies {
		if c.OrganizationID == orgID {
			out = append(out, s.candidacyView(c))
		}
	}
	return out, nil
}

func (f *fakeCandidacies) ListApprovedMissingMembership(ctx context.Context, orgID uint) ([]*models.Candidacy, error) {
	s := (*fakeStore)(f)
	var out []*models.Candidacy
	for _, c := range s.candidacies {
		if c.OrganizationID != orgID || c.OverallStatus != models.CandidacyStatusApproved {
			continue
		}
		covered := false
		for _, m := range s.memberships {
			if m.UserID == c.ApplicantID && m.OrganizationID == orgID && m.IsActive {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, s.candidacyView(c))
		}
	}
	return out, nil
}

func (f *fakeCandidacies) ExistsByApplicantAndOrg(ctx context.Context, applicantID, orgID uint) (bool, error) {
	s := (*fakeStore)(f)
	for _, c := range s.candidacies {
		if c.ApplicantID == applicantID && c.OrganizationID == orgID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCandidacies) FinalizeIfPending(ctx context.Context, id uint, status string, deciderID uint) (int64, error) {
	s := (*fakeStore)(f)
	c := s.findCandidacy(id)
	if c == nil || c.OverallStatus != models.CandidacyStatusPending {
		return 0, nil
	}
	now := time.Now()
	c.OverallStatus = status
	c.DecidedBy = &deciderID
	c.DecidedAt = &now
	return 1, nil
}

// ---- attempts ----

type fakeAttempts fakeStore

func (f *fakeAttempts) Create(ctx context.Context, attempt *models.PhaseAttempt) error {
	s := (*fakeStore)(f)
	attempt.ID = s.id()
	attempt.CreatedAt = time.Now()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (f *fakeAttempts) CountByCandidacy(ctx context.Context, candidacyID uint) (int64, error) {
	s := (*fakeStore)(f)
	var n int64
	for _, a := range s.attempts {
		if a.CandidacyID == candidacyID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttempts) CurrentByCandidacy(ctx context.Context, candidacyID uint) (*models.PhaseAttempt, error) {
	s := (*fakeStore)(f)
	var current *models.PhaseAttempt
	for _, a := range s.attempts {
		if a.CandidacyID != candidacyID {
			continue
		}
		if current == nil || a.Seq > current.Seq {
			current = a
		}
	}
	if current == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *current
	return &clone, nil
}

func (f *fakeAttempts) ListByCandidacy(ctx context.Context, candidacyID uint) ([]*models.PhaseAttempt, error) {
	s := (*fakeStore)(f)
	var out []*models.PhaseAttempt
	for _, a := range s.attempts {
		if a.CandidacyID == candidacyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeAttempts) FinalizeIfPending(ctx context.Context, id uint, status string, feedback datatypes.JSON, deciderID uint) (int64, error) {
	s := (*fakeStore)(f)
	if s.beforeAttemptFinalize != nil {
		s.beforeAttemptFinalize()
	}
	for _, a := range s.attempts {
		if a.ID != id {
			continue
		}
		if a.Status != models.AttemptStatusPending {
			return 0, nil
		}
		now := time.Now()
		a.Status = status
		a.Feedback = feedback
		a.DecidedBy = &deciderID
		a.DecidedAt = &now
		return 1, nil
	}
	return 0, nil
}

// ---- memberships ----

type fakeMemberships fakeStore

func (f *fakeMemberships) Create(ctx context.Context, membership *models.Membership) error {
	s := (*fakeStore)(f)
	if s.membershipCreateErr != nil {
		if err := s.membershipCreateErr(membership); err != nil {
			return err
		}
	}
	for _, m := range s.memberships {
		if m.UserID == membership.UserID && m.OrganizationID == membership.OrganizationID {
			return gorm.ErrDuplicatedKey
		}
	}
	membership.ID = s.id()
	s.memberships = append(s.memberships, membership)
	return nil
}

func (f *fakeMemberships) GetByUserAndOrg(ctx context.Context, userID, orgID uint) (*models.Membership, error) {
	s := (*fakeStore)(f)
	for _, m := range s.memberships {
		if m.UserID == userID && m.OrganizationID == orgID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMemberships) Reactivate(ctx context.Context, id uint, roleID uint) error {
	s := (*fakeStore)(f)
	for _, m := range s.memberships {
		if m.ID == id {
			m.IsActive = true
			m.RoleID = roleID
			m.LeftAt = nil
			m.JoinedAt = time.Now()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeMemberships) Deactivate(ctx context.Context, id uint) error {
	s := (*fakeStore)(f)
	for _, m := range s.memberships {
		if m.ID == id {
			now := time.Now()
			m.IsActive = false
			m.LeftAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeMemberships) ListByOrganization(ctx context.Context, orgID uint, offset, limit int) ([]*models.Membership, int64, error) {
	s := (*fakeStore)(f)
	var all []*models.Membership
	for _, m := range s.memberships {
		if m.OrganizationID == orgID && m.IsActive {
			all = append(all, m)
		}
	}
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeMemberships) ListByUser(ctx context.Context, userID uint) ([]*models.Membership, error) {
	s := (*fakeStore)(f)
	var out []*models.Membership
	for _, m := range s.memberships {
		if m.UserID == userID && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

// ---- roles ----

type fakeRoles fakeStore

func (f *fakeRoles) Create(ctx context.Context, role *models.Role) error {
	s := (*fakeStore)(f)
	role.ID = s.id()
	s.roles = append(s.roles, role)
	return nil
}

func (f *fakeRoles) GetDefault(ctx context.Context, orgID uint) (*models.Role, error) {
	s := (*fakeStore)(f)
	for _, r := range s.roles {
		if r.OrganizationID == orgID && r.Name == models.DefaultRoleName {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRoles) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Role, error) {
	s := (*fakeStore)(f)
	var out []*models.Role
	for _, r := range s.roles {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hierarchy < out[j].Hierarchy })
	return out, nil
}

// ---- organization repository ----

type fakeOrgRepo struct {
	orgs   map[uint]*models.Organization
	nextID uint
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[uint]*models.Organization{}}
}

func (f *fakeOrgRepo) add(name string) *models.Organization {
	f.nextID++
	org := &models.Organization{ID: f.nextID, Name: name, IsActive: true}
	f.orgs[org.ID] = org
	return org
}

func (f *fakeOrgRepo) Create(ctx context.Context, org *models.Organization) error {
	f.nextID++
	org.ID = f.nextID
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	if org, ok := f.orgs[id]; ok {
		return org, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	for _, org := range f.orgs {
		if org.Name == name {
			return org, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) List(ctx context.Context, search string, offset, limit int) ([]*models.Organization, int64, error) {
	var out []*models.Organization
	for _, org := range f.orgs {
		if search == "" || strings.Contains(org.Name, search) {
			out = append(out, org)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeOrgRepo) ListActive(ctx context.Context) ([]*models.Organization, error) {
	var out []*models.Organization
	for _, org := range f.orgs {
		if org.IsActive {
			out = append(out, org)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrgRepo) Update(ctx context.Context, org *models.Organization) error {
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgRepo) Delete(ctx context.Context, id uint) error {
	delete(f.orgs, id)
	return nil
}

// ---- student registry ----

type fakeStudentRepo struct {
	records map[string]*models.StudentRecord
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{records: map[string]*models.StudentRecord{}}
}

func (f *fakeStudentRepo) GetByStudentNo(ctx context.Context, studentNo string) (*models.StudentRecord, error) {
	if record, ok := f.records[studentNo]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) Exists(ctx context.Context, studentNo string) (bool, error) {
	_, ok := f.records[studentNo]
	return ok, nil
}

func (f *fakeStudentRepo) Search(ctx context.Context, query string, limit int) ([]*models.StudentRecord, error) {
	var out []*models.StudentRecord
	for _, record := range f.records {
		if strings.Contains(record.FullName, query) || strings.Contains(record.StudentNo, query) {
			out = append(out, record)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
