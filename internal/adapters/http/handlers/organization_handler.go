package handlers

import (
	"errors"

	"campus-orghub/internal/core/services"
	"campus-orghub/internal/pkg/response"
	"campus-orghub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	orgService        *services.OrganizationService
	membershipService *services.MembershipService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(
	orgService *services.OrganizationService,
	membershipService *services.MembershipService,
) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:        orgService,
		membershipService: membershipService,
	}
}

// Create handles organization creation
// @Summary Create organization
// @Description Create an organization with its standard role set
// @Tags Organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateOrganizationInput true "Organization data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /orgs [post]
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	var input services.CreateOrganizationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	org, err := h.orgService.Create(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationExists) {
			return response.Conflict(c, "Organization name already in use")
		}
		return response.InternalServerError(c, "Failed to create organization")
	}

	return response.Created(c, "Organization created successfully", org)
}

// List handles organization listing
// @Summary List organizations
// @Description List organizations with pagination and optional name search
// @Tags Organizations
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param search query string false "Name search"
// @Success 200 {object} response.Response
// @Router /orgs [get]
func (h *OrganizationHandler) List(c *fiber.Ctx) error {
	input := &services.ListOrganizationsInput{
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}

	result, err := h.orgService.List(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list organizations")
	}

	return response.Success(c, "Organizations retrieved successfully", result)
}

// Get handles getting one organization
// @Summary Get organization
// @Description Get an organization by ID
// @Tags Organizations
// @Produce json
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id} [get]
func (h *OrganizationHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	org, err := h.orgService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to get organization")
	}

	return response.Success(c, "Organization retrieved successfully", org)
}

// Update handles organization update
// @Summary Update organization
// @Description Update an organization's details
// @Tags Organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param body body services.UpdateOrganizationInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /orgs/{id} [put]
func (h *OrganizationHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	var input services.UpdateOrganizationInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	org, err := h.orgService.Update(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			return response.NotFound(c, "Organization not found")
		case errors.Is(err, services.ErrOrganizationExists):
			return response.Conflict(c, "Organization name already in use")
		default:
			return response.InternalServerError(c, "Failed to update organization")
		}
	}

	return response.Success(c, "Organization updated successfully", org)
}

// ListRoles handles listing an organization's roles
// @Summary List organization roles
// @Description List the role set of an organization
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/roles [get]
func (h *OrganizationHandler) ListRoles(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	roles, err := h.orgService.ListRoles(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to list roles")
	}

	return response.Success(c, "Roles retrieved successfully", roles)
}

// ListMembers handles the membership directory
// @Summary List organization members
// @Description List an organization's active members with pagination
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/members [get]
func (h *OrganizationHandler) ListMembers(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	input := &services.ListMembersInput{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}

	result, err := h.membershipService.ListMembers(c.Context(), uint(id), input)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", result)
}

// RemoveMember deactivates a membership
// @Summary Remove member
// @Description Deactivate a user's membership in an organization
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/members/{userId} [delete]
func (h *OrganizationHandler) RemoveMember(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.membershipService.Deactivate(c.Context(), uint(userID), uint(orgID)); err != nil {
		if errors.Is(err, services.ErrMembershipNotFound) {
			return response.NotFound(c, "Active membership not found")
		}
		return response.InternalServerError(c, "Failed to remove member")
	}

	return response.Success(c, "Member removed successfully", nil)
}

// MyOrganizations lists the current user's memberships
// @Summary My organizations
// @Description List the organizations the current user is an active member of
// @Tags Memberships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/organizations [get]
func (h *OrganizationHandler) MyOrganizations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	memberships, err := h.membershipService.MyOrganizations(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list memberships")
	}

	return response.Success(c, "Memberships retrieved successfully", memberships)
}
