package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Selection service errors
var (
	ErrCandidacyNotFound  = errors.New("candidacy not found")
	ErrCandidacyExists    = errors.New("candidacy already exists for this applicant")
	ErrCandidacyFinalized = errors.New("candidacy already finalized")
	ErrNoCurrentAttempt   = errors.New("candidacy has no pending attempt")
	ErrDecisionConflict   = errors.New("candidacy was decided concurrently, retry")
	ErrInvalidVerdict     = errors.New("verdict must be approve or reject")
	ErrNoActivePhases     = errors.New("organization has no active selection phases")
)

// Decision verdicts
const (
	VerdictApprove = "approve"
	VerdictReject  = "reject"
)

// Placeholders substituted on the read path when an applicant snapshot
// is incomplete. The write path is never blocked by missing registry data.
const (
	placeholderName   = "(unknown applicant)"
	placeholderEmail  = "-"
	placeholderCourse = "-"
)

// SelectionService runs the candidate selection pipeline: applications,
// phase decisions and the pipeline view
type SelectionService struct {
	store         repositories.SelectionStore
	orgRepo       repositories.OrganizationRepository
	studentRepo   repositories.StudentRepository
	notifyService *NotificationService
}

// NewSelectionService creates a new selection service
func NewSelectionService(
	store repositories.SelectionStore,
	orgRepo repositories.OrganizationRepository,
	studentRepo repositories.StudentRepository,
	notifyService *NotificationService,
) *SelectionService {
	return &SelectionService{
		store:         store,
		orgRepo:       orgRepo,
		studentRepo:   studentRepo,
		notifyService: notifyService,
	}
}

// ApplyInput represents application input
type ApplyInput struct {
	Answers map[string]interface{} `json:"answers,omitempty"`
}

// Apply creates a candidacy plus its first pending attempt in one
// transaction. The applicant snapshot is taken from the campus registry;
// missing registry data falls back to account data, never blocks.
func (s *SelectionService) Apply(ctx context.Context, orgID uint, applicant *models.User, input *ApplyInput) (*models.Candidacy, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	name, email, course := s.snapshotApplicant(ctx, applicant)

	answers, err := marshalPayload(input.Answers)
	if err != nil {
		return nil, err
	}

	var candidacy *models.Candidacy
	err = s.store.InTx(ctx, func(tx repositories.SelectionStore) error {
		firstPhase, err := tx.Phases().FirstPhase(ctx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoActivePhases
			}
			return err
		}

		candidacy = &models.Candidacy{
			OrganizationID:  orgID,
			ApplicantID:     applicant.ID,
			ApplicantName:   name,
			ApplicantEmail:  email,
			ApplicantCourse: course,
			OverallStatus:   models.CandidacyStatusPending,
		}
		if err := tx.Candidacies().Create(ctx, candidacy); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCandidacyExists
			}
			return err
		}

		attempt := &models.PhaseAttempt{
			CandidacyID: candidacy.ID,
			PhaseID:     firstPhase.ID,
			Seq:         1,
			Status:      models.AttemptStatusPending,
			Answers:     answers,
		}
		return tx.Attempts().Create(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Candidacy %d created for applicant %d in organization %d", candidacy.ID, applicant.ID, orgID)

	if s.notifyService != nil {
		s.notifyService.NotifyNewCandidacy(candidacy, org.Name)
	}

	return s.GetByID(ctx, candidacy.ID)
}

// snapshotApplicant builds the denormalized applicant snapshot
func (s *SelectionService) snapshotApplicant(ctx context.Context, applicant *models.User) (name, email, course string) {
	email = applicant.Email
	name = applicant.Username

	record, err := s.studentRepo.GetByStudentNo(ctx, applicant.StudentNo)
	if err != nil {
		log.Printf("⚠️ Campus registry lookup failed for %s: %v", applicant.StudentNo, err)
		return name, email, ""
	}

	if record.FullName != "" {
		name = record.FullName
	}
	if record.Email != "" {
		email = record.Email
	}
	return name, email, record.Course
}

// GetByID gets a candidacy with its attempt history
func (s *SelectionService) GetByID(ctx context.Context, id uint) (*models.Candidacy, error) {
	candidacy, err := s.store.Candidacies().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidacyNotFound
		}
		return nil, err
	}
	return candidacy, nil
}

// DecideInput represents decision input
type DecideInput struct {
	Verdict  string                 `json:"verdict" validate:"required,oneof=approve reject"`
	Feedback map[string]interface{} `json:"feedback,omitempty"`
}

// decisionOutcome tells the post-commit notification hook what happened
type decisionOutcome struct {
	advancedTo *models.Phase
	approved   bool
	rejected   bool
}

// Decide applies a verdict to a candidacy's current attempt.
//
// The whole decision is one transaction: the candidacy row lock serializes
// concurrent deciders, and the conditional status updates turn any writer
// that still slips through into ErrDecisionConflict instead of a double
// transition. Reject finalizes; approve advances to the next phase or, on
// the last phase, finalizes and converts the applicant into a member.
func (s *SelectionService) Decide(ctx context.Context, candidacyID uint, input *DecideInput, deciderID uint) (*models.Candidacy, error) {
	if input.Verdict != VerdictApprove && input.Verdict != VerdictReject {
		return nil, ErrInvalidVerdict
	}

	feedback, err := marshalPayload(input.Feedback)
	if err != nil {
		return nil, err
	}

	var outcome decisionOutcome
	err = s.store.InTx(ctx, func(tx repositories.SelectionStore) error {
		candidacy, err := tx.Candidacies().GetByIDForUpdate(ctx, candidacyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidacyNotFound
			}
			return err
		}
		if candidacy.IsFinalized() {
			return ErrCandidacyFinalized
		}

		attemptCount, err := tx.Attempts().CountByCandidacy(ctx, candidacy.ID)
		if err != nil {
			return err
		}
		if attemptCount == 0 {
			return s.decideWithoutAttempts(ctx, tx, candidacy, input.Verdict, deciderID, &outcome)
		}

		attempt, err := tx.Attempts().CurrentByCandidacy(ctx, candidacy.ID)
		if err != nil {
			return err
		}
		if attempt.Status != models.AttemptStatusPending {
			return ErrNoCurrentAttempt
		}

		attemptStatus := models.AttemptStatusApproved
		if input.Verdict == VerdictReject {
			attemptStatus = models.AttemptStatusRejected
		}

		rows, err := tx.Attempts().FinalizeIfPending(ctx, attempt.ID, attemptStatus, feedback, deciderID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrDecisionConflict
		}

		if input.Verdict == VerdictReject {
			rows, err := tx.Candidacies().FinalizeIfPending(ctx, candidacy.ID, models.CandidacyStatusRejected, deciderID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrDecisionConflict
			}
			outcome.rejected = true
			return nil
		}

		// Approved: look up the phase just passed to find the next one.
		phase, err := tx.Phases().GetByID(ctx, attempt.PhaseID)
		if err != nil {
			return err
		}

		next, err := tx.Phases().NextPhase(ctx, candidacy.OrganizationID, phase.PhaseOrder)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			// Last phase passed: finalize and convert in the same transaction.
			rows, err := tx.Candidacies().FinalizeIfPending(ctx, candidacy.ID, models.CandidacyStatusApproved, deciderID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrDecisionConflict
			}
			if err := ensureMembership(ctx, tx, candidacy.ApplicantID, candidacy.OrganizationID); err != nil {
				return err
			}
			outcome.approved = true
			return nil
		}

		nextAttempt := &models.PhaseAttempt{
			CandidacyID: candidacy.ID,
			PhaseID:     next.ID,
			Seq:         attempt.Seq + 1,
			Status:      models.AttemptStatusPending,
		}
		if err := tx.Attempts().Create(ctx, nextAttempt); err != nil {
			return err
		}
		outcome.advancedTo = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.GetByID(ctx, candidacyID)
	if err != nil {
		return nil, err
	}

	s.notifyDecision(result, outcome)
	return result, nil
}

// decideWithoutAttempts handles candidacies that predate the phase system.
// The verdict lands directly on the candidacy. Kept separate so the normal
// engine never needs to reason about attempt-less candidacies; a candidacy
// that ever had an attempt cannot reach this path.
func (s *SelectionService) decideWithoutAttempts(ctx context.Context, tx repositories.SelectionStore, candidacy *models.Candidacy, verdict string, deciderID uint, outcome *decisionOutcome) error {
	log.Printf("⚠️ Deciding candidacy %d without phase attempts (legacy record)", candidacy.ID)

	status := models.CandidacyStatusApproved
	if verdict == VerdictReject {
		status = models.CandidacyStatusRejected
	}

	rows, err := tx.Candidacies().FinalizeIfPending(ctx, candidacy.ID, status, deciderID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDecisionConflict
	}

	if verdict == VerdictApprove {
		if err := ensureMembership(ctx, tx, candidacy.ApplicantID, candidacy.OrganizationID); err != nil {
			return err
		}
		outcome.approved = true
	} else {
		outcome.rejected = true
	}
	return nil
}

// notifyDecision sends best-effort notifications after commit
func (s *SelectionService) notifyDecision(candidacy *models.Candidacy, outcome decisionOutcome) {
	if s.notifyService == nil {
		return
	}
	switch {
	case outcome.approved:
		s.notifyService.NotifyApproved(candidacy)
	case outcome.rejected:
		s.notifyService.NotifyRejected(candidacy)
	case outcome.advancedTo != nil:
		s.notifyService.NotifyAdvanced(candidacy, outcome.advancedTo.Name)
	}
}

// marshalPayload converts a free-form map into an opaque JSON column value
func marshalPayload(payload map[string]interface{}) (datatypes.JSON, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ============================================================
// Pipeline view (aggregation)
// ============================================================

// CandidateCard is one candidate in the pipeline view
type CandidateCard struct {
	CandidacyID     uint            `json:"candidacy_id"`
	ApplicantID     uint            `json:"applicant_id"`
	ApplicantName   string          `json:"applicant_name"`
	ApplicantEmail  string          `json:"applicant_email"`
	ApplicantCourse string          `json:"applicant_course"`
	OverallStatus   string          `json:"overall_status"`
	CurrentPhaseID  *uint           `json:"current_phase_id,omitempty"`
	CurrentStatus   string          `json:"current_status"`
	AttemptCount    int             `json:"attempt_count"`
	Attempts        []AttemptDigest `json:"attempts,omitempty"`
	AppliedAt       time.Time       `json:"applied_at"`
}

// AttemptDigest is one history entry on a candidate card
type AttemptDigest struct {
	PhaseID   uint       `json:"phase_id"`
	PhaseName string     `json:"phase_name,omitempty"`
	Seq       int        `json:"seq"`
	Status    string     `json:"status"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// PhaseBucket groups candidates currently sitting in one phase
type PhaseBucket struct {
	PhaseID    uint             `json:"phase_id"`
	PhaseName  string           `json:"phase_name"`
	PhaseOrder int              `json:"phase_order"`
	Candidates []*CandidateCard `json:"candidates"`
}

// PhaseMetrics holds per-phase attempt counts
type PhaseMetrics struct {
	PhaseID   uint   `json:"phase_id"`
	PhaseName string `json:"phase_name"`
	Pending   int    `json:"pending"`
	Approved  int    `json:"approved"`
	Rejected  int    `json:"rejected"`
}

// PipelineMetrics holds overall pipeline numbers, recomputed on every read
type PipelineMetrics struct {
	Total        int             `json:"total"`
	InProgress   int             `json:"in_progress"`
	Approved     int             `json:"approved"`
	Rejected     int             `json:"rejected"`
	ApprovalRate float64         `json:"approval_rate"`
	PerPhase     []*PhaseMetrics `json:"per_phase"`
}

// PipelineView is the full selection pipeline for one organization
type PipelineView struct {
	OrganizationID uint             `json:"organization_id"`
	Phases         []*PhaseBucket   `json:"phases"`
	Unphased       []*CandidateCard `json:"unphased"`
	Metrics        *PipelineMetrics `json:"metrics"`
}

// GroupByPhase builds the pipeline view: a bucket per active phase plus a
// synthetic bucket for candidacies with no attempts. A corrupt candidacy is
// logged and skipped, never fails the whole view.
func (s *SelectionService) GroupByPhase(ctx context.Context, orgID uint) (*PipelineView, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	phases, err := s.store.Phases().ListActiveByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	candidacies, err := s.store.Candidacies().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	view := &PipelineView{
		OrganizationID: orgID,
		Phases:         make([]*PhaseBucket, len(phases)),
		Unphased:       []*CandidateCard{},
	}

	buckets := make(map[uint]*PhaseBucket, len(phases))
	phaseMetrics := make(map[uint]*PhaseMetrics, len(phases))
	metrics := &PipelineMetrics{PerPhase: make([]*PhaseMetrics, len(phases))}

	for i, phase := range phases {
		bucket := &PhaseBucket{
			PhaseID:    phase.ID,
			PhaseName:  phase.Name,
			PhaseOrder: phase.PhaseOrder,
			Candidates: []*CandidateCard{},
		}
		view.Phases[i] = bucket
		buckets[phase.ID] = bucket

		pm := &PhaseMetrics{PhaseID: phase.ID, PhaseName: phase.Name}
		metrics.PerPhase[i] = pm
		phaseMetrics[phase.ID] = pm
	}

	for _, candidacy := range candidacies {
		card := buildCandidateCard(candidacy)
		if card == nil {
			log.Printf("⚠️ Skipping unreadable candidacy %d in pipeline view", candidacy.ID)
			continue
		}

		metrics.Total++
		switch candidacy.OverallStatus {
		case models.CandidacyStatusApproved:
			metrics.Approved++
		case models.CandidacyStatusRejected:
			metrics.Rejected++
		default:
			metrics.InProgress++
		}

		for _, attempt := range candidacy.Attempts {
			pm, ok := phaseMetrics[attempt.PhaseID]
			if !ok {
				continue
			}
			switch attempt.Status {
			case models.AttemptStatusApproved:
				pm.Approved++
			case models.AttemptStatusRejected:
				pm.Rejected++
			default:
				pm.Pending++
			}
		}

		if card.CurrentPhaseID == nil {
			view.Unphased = append(view.Unphased, card)
			continue
		}
		bucket, ok := buckets[*card.CurrentPhaseID]
		if !ok {
			// Current phase deactivated or deleted after the attempt was
			// created; keep the candidate visible.
			view.Unphased = append(view.Unphased, card)
			continue
		}
		bucket.Candidates = append(bucket.Candidates, card)
	}

	if metrics.Total > 0 {
		metrics.ApprovalRate = float64(metrics.Approved) / float64(metrics.Total)
	}

	view.Metrics = metrics
	return view, nil
}

// Metrics returns the pipeline numbers alone
func (s *SelectionService) Metrics(ctx context.Context, orgID uint) (*PipelineMetrics, error) {
	view, err := s.GroupByPhase(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return view.Metrics, nil
}

// buildCandidateCard turns one candidacy into a pipeline card, substituting
// placeholders for missing snapshot fields. Returns nil when the row cannot
// be presented at all.
func buildCandidateCard(candidacy *models.Candidacy) *CandidateCard {
	if candidacy == nil || candidacy.ID == 0 {
		return nil
	}

	card := &CandidateCard{
		CandidacyID:     candidacy.ID,
		ApplicantID:     candidacy.ApplicantID,
		ApplicantName:   orPlaceholder(candidacy.ApplicantName, placeholderName),
		ApplicantEmail:  orPlaceholder(candidacy.ApplicantEmail, placeholderEmail),
		ApplicantCourse: orPlaceholder(candidacy.ApplicantCourse, placeholderCourse),
		OverallStatus:   candidacy.OverallStatus,
		AttemptCount:    len(candidacy.Attempts),
		AppliedAt:       candidacy.CreatedAt,
	}

	current := currentAttempt(candidacy.Attempts)
	if current == nil {
		card.CurrentStatus = candidacy.OverallStatus
		return card
	}

	phaseID := current.PhaseID
	card.CurrentPhaseID = &phaseID
	card.CurrentStatus = current.Status

	card.Attempts = make([]AttemptDigest, len(candidacy.Attempts))
	for i, attempt := range candidacy.Attempts {
		digest := AttemptDigest{
			PhaseID:   attempt.PhaseID,
			Seq:       attempt.Seq,
			Status:    attempt.Status,
			DecidedAt: attempt.DecidedAt,
		}
		if attempt.Phase != nil {
			digest.PhaseName = attempt.Phase.Name
		}
		card.Attempts[i] = digest
	}

	return card
}

// currentAttempt picks the attempt with the highest seq. Rows imported from
// before the seq column can tie at zero; those fall back to creation time,
// then phase order.
func currentAttempt(attempts []models.PhaseAttempt) *models.PhaseAttempt {
	if len(attempts) == 0 {
		return nil
	}

	current := &attempts[0]
	for i := 1; i < len(attempts); i++ {
		candidate := &attempts[i]
		switch {
		case candidate.Seq > current.Seq:
			current = candidate
		case candidate.Seq == current.Seq && candidate.CreatedAt.After(current.CreatedAt):
			current = candidate
		case candidate.Seq == current.Seq && candidate.CreatedAt.Equal(current.CreatedAt) &&
			phaseOrderOf(candidate) > phaseOrderOf(current):
			current = candidate
		}
	}
	return current
}

func phaseOrderOf(attempt *models.PhaseAttempt) int {
	if attempt.Phase == nil {
		return 0
	}
	return attempt.Phase.PhaseOrder
}

// orPlaceholder returns the fallback when the snapshot field is empty
func orPlaceholder(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
