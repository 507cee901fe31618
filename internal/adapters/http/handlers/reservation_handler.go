package handlers

import (
	"errors"

	"campus-orghub/internal/core/services"
	"campus-orghub/internal/pkg/response"
	"campus-orghub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// ReservationHandler handles room reservation endpoints
type ReservationHandler struct {
	reservationService *services.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// CreateRoom handles room creation
// @Summary Create room
// @Description Add a room to an organization
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Param body body services.CreateRoomInput true "Room data"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/rooms [post]
func (h *ReservationHandler) CreateRoom(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	var input services.CreateRoomInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	room, err := h.reservationService.CreateRoom(c.Context(), uint(orgID), &input)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to create room")
	}

	return response.Created(c, "Room created successfully", room)
}

// ListRooms handles room listing
// @Summary List rooms
// @Description List an organization's active rooms
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Organization ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orgs/{id}/rooms [get]
func (h *ReservationHandler) ListRooms(c *fiber.Ctx) error {
	orgID, err := c.ParamsInt("id")
	if err != nil || orgID <= 0 {
		return response.BadRequest(c, "Invalid organization ID")
	}

	rooms, err := h.reservationService.ListRooms(c.Context(), uint(orgID))
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to list rooms")
	}

	return response.Success(c, "Rooms retrieved successfully", rooms)
}

// Reserve handles room booking
// @Summary Reserve room
// @Description Book a room for a time window
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param body body services.ReserveInput true "Reservation data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /rooms/{id}/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	roomID, err := c.ParamsInt("id")
	if err != nil || roomID <= 0 {
		return response.BadRequest(c, "Invalid room ID")
	}

	var input services.ReserveInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	reservation, err := h.reservationService.Reserve(c.Context(), uint(roomID), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			return response.NotFound(c, "Room not found")
		case errors.Is(err, services.ErrInvalidTimeWindow):
			return response.BadRequest(c, "Reservation end must be after start")
		case errors.Is(err, services.ErrRoomUnavailable):
			return response.Conflict(c, "Room is already booked for that time")
		default:
			return response.InternalServerError(c, "Failed to create reservation")
		}
	}

	return response.Created(c, "Room reserved successfully", reservation)
}

// ListByRoom handles listing a room's reservations
// @Summary List room reservations
// @Description List upcoming reservations of a room
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /rooms/{id}/reservations [get]
func (h *ReservationHandler) ListByRoom(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("id")
	if err != nil || roomID <= 0 {
		return response.BadRequest(c, "Invalid room ID")
	}

	reservations, err := h.reservationService.ListByRoom(c.Context(), uint(roomID))
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			return response.NotFound(c, "Room not found")
		}
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", reservations)
}

// MyReservations handles listing the current user's reservations
// @Summary My reservations
// @Description List the current user's room reservations
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /me/reservations [get]
func (h *ReservationHandler) MyReservations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservations, err := h.reservationService.MyReservations(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reservations")
	}

	return response.Success(c, "Reservations retrieved successfully", reservations)
}

// Cancel handles reservation cancellation
// @Summary Cancel reservation
// @Description Cancel one of the current user's reservations
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid reservation ID")
	}

	err = h.reservationService.Cancel(c.Context(), uint(id), userID, role == "ADMIN")
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReservationNotFound):
			return response.NotFound(c, "Reservation not found")
		case errors.Is(err, services.ErrNotReservationOwner):
			return response.Forbidden(c, "Reservation belongs to another user")
		default:
			return response.InternalServerError(c, "Failed to cancel reservation")
		}
	}

	return response.Success(c, "Reservation cancelled successfully", nil)
}
