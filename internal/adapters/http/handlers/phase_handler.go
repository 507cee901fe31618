package handlers

import (
	"errors"

	"campus-orghub/internal/core/services"
	"campus-orghub/internal/pkg/response"
	"campus-orghub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// PhaseHandler handles selection phase registry endpoints
type PhaseHandler struct {
	phaseService *services.PhaseService
}

// NewPhaseHandler creates a new phase handler
func NewPhaseHandler(phaseService *services.PhaseService) *PhaseHandler {
	return &PhaseHandler{phaseService: phaseService}
}

// Create handles phase creation
// @Summary Create phase
// @Description Add a selection phase to an organization's pipeline
// @Tags Phases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param body body services.CreatePhaseInput true "Phase data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /orgs/{id}/phases [post]
func (h *PhaseHandler) Create(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	var input services.CreatePhaseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	phase, err := h.phaseService.Create(c.Context(), uint(orgID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			return response.NotFound(c, "Organization not found")
		case errors.Is(err, services.ErrPhaseOrderTaken):
			return response.Conflict(c, "Phase order already in use")
		default:
			return response.InternalServerError(c, "Failed to create phase")
		}
	}

	return response.Created(c, "Phase created successfully", phase)
}

// List handles listing an organization's phases
// @Summary List phases
// @Description List all selection phases of an organization in pipeline order
// @Tags Phases
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/phases [get]
func (h *PhaseHandler) List(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	phases, err := h.phaseService.ListByOrganization(c.Context(), uint(orgID))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to list phases")
	}

	return response.Success(c, "Phases retrieved successfully", phases)
}

// Update handles phase update
// @Summary Update phase
// @Description Update a selection phase's details or order
// @Tags Phases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Phase ID"
// @Param body body services.UpdatePhaseInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /phases/{id} [put]
func (h *PhaseHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid phase ID")
	}

	var input services.UpdatePhaseInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	phase, err := h.phaseService.Update(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPhaseNotFound):
			return response.NotFound(c, "Phase not found")
		case errors.Is(err, services.ErrPhaseOrderTaken):
			return response.Conflict(c, "Phase order already in use")
		default:
			return response.InternalServerError(c, "Failed to update phase")
		}
	}

	return response.Success(c, "Phase updated successfully", phase)
}

// Delete handles phase deletion
// @Summary Delete phase
// @Description Soft delete a selection phase
// @Tags Phases
// @Produce json
// @Security BearerAuth
// @Param id path int true "Phase ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /phases/{id} [delete]
func (h *PhaseHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid phase ID")
	}

	if err := h.phaseService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrPhaseNotFound) {
			return response.NotFound(c, "Phase not found")
		}
		return response.InternalServerError(c, "Failed to delete phase")
	}

	return response.Success(c, "Phase deleted successfully", nil)
}
