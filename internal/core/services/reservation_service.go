package services

import (
	"context"
	"errors"
	"log"
	"time"

	"campus-orghub/internal/adapters/persistence/models"
	"campus-orghub/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Reservation errors
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomUnavailable     = errors.New("room is already booked for that time")
	ErrInvalidTimeWindow   = errors.New("reservation end must be after start")
	ErrNotReservationOwner = errors.New("reservation belongs to another user")
)

// ReservationService handles room reservations for organizations
type ReservationService struct {
	roomRepo        *repositories.RoomRepository
	reservationRepo *repositories.ReservationRepository
	orgRepo         repositories.OrganizationRepository
}

// NewReservationService creates a new reservation service
func NewReservationService(
	roomRepo *repositories.RoomRepository,
	reservationRepo *repositories.ReservationRepository,
	orgRepo repositories.OrganizationRepository,
) *ReservationService {
	return &ReservationService{
		roomRepo:        roomRepo,
		reservationRepo: reservationRepo,
		orgRepo:         orgRepo,
	}
}

// CreateRoomInput represents room creation input
type CreateRoomInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Location string `json:"location" validate:"max=200"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// CreateRoom adds a room to an organization
func (s *ReservationService) CreateRoom(ctx context.Context, orgID uint, input *CreateRoomInput) (*models.Room, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	room := &models.Room{
		OrganizationID: orgID,
		Name:           input.Name,
		Location:       input.Location,
		Capacity:       input.Capacity,
		IsActive:       true,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	log.Printf("✅ Room created: %s for organization %d", room.Name, orgID)
	return room, nil
}

// ListRooms lists an organization's active rooms
func (s *ReservationService) ListRooms(ctx context.Context, orgID uint) ([]*models.Room, error) {
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return s.roomRepo.ListByOrganization(ctx, orgID)
}

// ReserveInput represents reservation input
type ReserveInput struct {
	Title    string    `json:"title" validate:"required,min=2,max=200"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

// Reserve books a room for a time window
func (s *ReservationService) Reserve(ctx context.Context, roomID, userID uint, input *ReserveInput) (*models.Reservation, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidTimeWindow
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomNotFound
	}

	overlapping, err := s.reservationRepo.CountOverlapping(ctx, roomID, input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrRoomUnavailable
	}

	reservation := &models.Reservation{
		RoomID:   roomID,
		UserID:   userID,
		Title:    input.Title,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
		Status:   models.ReservationStatusBooked,
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		return nil, err
	}

	log.Printf("✅ Room %s reserved by user %d (%s)", room.Name, userID, input.Title)
	return s.reservationRepo.GetByID(ctx, reservation.ID)
}

// ListByRoom lists upcoming reservations for a room
func (s *ReservationService) ListByRoom(ctx context.Context, roomID uint) ([]*models.Reservation, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return s.reservationRepo.ListByRoom(ctx, roomID)
}

// MyReservations lists a user's reservations
func (s *ReservationService) MyReservations(ctx context.Context, userID uint) ([]*models.Reservation, error) {
	return s.reservationRepo.ListByUser(ctx, userID)
}

// Cancel cancels a reservation. Only the owner (or an admin) may cancel.
func (s *ReservationService) Cancel(ctx context.Context, id, userID uint, isAdmin bool) error {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return err
	}
	if reservation.Status != models.ReservationStatusBooked {
		return ErrReservationNotFound
	}
	if reservation.UserID != userID && !isAdmin {
		return ErrNotReservationOwner
	}

	return s.reservationRepo.Cancel(ctx, id)
}
