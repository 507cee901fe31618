package handlers

import (
	"errors"

	"campus-orghub/internal/core/services"
	"campus-orghub/internal/pkg/response"
	"campus-orghub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// CandidacyHandler handles selection pipeline endpoints
type CandidacyHandler struct {
	selectionService  *services.SelectionService
	membershipService *services.MembershipService
	authService       *services.AuthService
}

// NewCandidacyHandler creates a new candidacy handler
func NewCandidacyHandler(
	selectionService *services.SelectionService,
	membershipService *services.MembershipService,
	authService *services.AuthService,
) *CandidacyHandler {
	return &CandidacyHandler{
		selectionService:  selectionService,
		membershipService: membershipService,
		authService:       authService,
	}
}

// Apply handles a student applying to an organization
// @Summary Apply to organization
// @Description Create a candidacy for the current user with its first phase attempt
// @Tags Selection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param body body services.ApplyInput true "Application answers"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /orgs/{id}/candidacies [post]
func (h *CandidacyHandler) Apply(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	var input services.ApplyInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	applicant, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	candidacy, err := h.selectionService.Apply(c.Context(), uint(orgID), applicant, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			return response.NotFound(c, "Organization not found")
		case errors.Is(err, services.ErrCandidacyExists):
			return response.Conflict(c, "You already applied to this organization")
		case errors.Is(err, services.ErrNoActivePhases):
			return response.UnprocessableEntity(c, "Organization has no active selection phases")
		default:
			return response.InternalServerError(c, "Failed to create application")
		}
	}

	return response.Created(c, "Application submitted successfully", candidacy)
}

// GetCandidacy returns one candidacy with its attempt history
// @Summary Get candidacy
// @Description Get a candidacy with its full phase attempt history
// @Tags Selection
// @Produce json
// @Security BearerAuth
// @Param id path int true "Candidacy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /candidacies/{id} [get]
func (h *CandidacyHandler) GetCandidacy(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid candidacy ID")
	}

	candidacy, err := h.selectionService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCandidacyNotFound) {
			return response.NotFound(c, "Candidacy not found")
		}
		return response.InternalServerError(c, "Failed to get candidacy")
	}

	return response.Success(c, "Candidacy retrieved successfully", candidacy)
}

// Decide applies a verdict to a candidacy's current attempt
// @Summary Decide on candidacy
// @Description Approve or reject the current phase attempt of a candidacy
// @Tags Selection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Candidacy ID"
// @Param body body services.DecideInput true "Verdict"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /candidacies/{id}/decide [put]
func (h *CandidacyHandler) Decide(c *fiber.Ctx) error {
	deciderID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid candidacy ID")
	}

	var input services.DecideInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	candidacy, err := h.selectionService.Decide(c.Context(), uint(id), &input, deciderID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCandidacyNotFound):
			return response.NotFound(c, "Candidacy not found")
		case errors.Is(err, services.ErrCandidacyFinalized):
			return response.BadRequest(c, "Candidacy is already finalized")
		case errors.Is(err, services.ErrNoCurrentAttempt):
			return response.BadRequest(c, "Candidacy has no pending attempt to decide")
		case errors.Is(err, services.ErrInvalidVerdict):
			return response.BadRequest(c, "Verdict must be approve or reject")
		case errors.Is(err, services.ErrDecisionConflict):
			return response.Conflict(c, "Candidacy was decided concurrently, please reload")
		case errors.Is(err, services.ErrDefaultRoleMissing):
			return response.UnprocessableEntity(c, "Organization has no default member role configured")
		default:
			return response.InternalServerError(c, "Failed to apply decision")
		}
	}

	return response.Success(c, "Decision applied successfully", candidacy)
}

// Pipeline returns the selection pipeline grouped by phase
// @Summary Get selection pipeline
// @Description Get all candidates of an organization grouped by their current phase
// @Tags Selection
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/pipeline [get]
func (h *CandidacyHandler) Pipeline(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	view, err := h.selectionService.GroupByPhase(c.Context(), uint(orgID))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to build pipeline view")
	}

	return response.Success(c, "Pipeline retrieved successfully", view)
}

// Metrics returns the pipeline numbers for an organization
// @Summary Get pipeline metrics
// @Description Get application counts and approval rate for an organization
// @Tags Selection
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/metrics [get]
func (h *CandidacyHandler) Metrics(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	metrics, err := h.selectionService.Metrics(c.Context(), uint(orgID))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to compute metrics")
	}

	return response.Success(c, "Metrics retrieved successfully", metrics)
}

// Reconcile repairs approved candidacies that lack a membership
// @Summary Reconcile memberships
// @Description Ensure every approved candidacy of an organization has an active membership
// @Tags Selection
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/reconcile [post]
func (h *CandidacyHandler) Reconcile(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	report, err := h.membershipService.ReconcileApproved(c.Context(), uint(orgID))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to reconcile memberships")
	}

	return response.Success(c, "Reconciliation completed", report)
}
