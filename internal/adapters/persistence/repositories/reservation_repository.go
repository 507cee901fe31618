package repositories

import (
	"context"
	"time"

	"campus-orghub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// RoomRepository handles room data access
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create creates a new room
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID gets a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByOrganization lists active rooms for an organization
func (r *RoomRepository) ListByOrganization(ctx context.Context, orgID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order("name ASC").
		Find(&rooms).Error
	return rooms, err
}

// Update updates a room
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// Delete soft deletes a room
func (r *RoomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// ReservationRepository handles reservation data access
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create creates a new reservation
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID gets a reservation by ID
func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListByRoom lists reservations for a room, upcoming first
func (r *ReservationRepository) ListByRoom(ctx context.Context, roomID uint) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ? AND status = ?", roomID, models.ReservationStatusBooked).
		Order("starts_at ASC").
		Find(&reservations).Error
	return reservations, err
}

// ListByUser lists a user's reservations
func (r *ReservationRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ?", userID).
		Order("starts_at DESC").
		Find(&reservations).Error
	return reservations, err
}

// CountOverlapping counts booked reservations that overlap a time window
func (r *ReservationRepository) CountOverlapping(ctx context.Context, roomID uint, startsAt, endsAt time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("room_id = ? AND status = ? AND starts_at < ? AND ends_at > ?",
			roomID, models.ReservationStatusBooked, endsAt, startsAt).
		Count(&count).Error
	return count, err
}

// Cancel marks a reservation cancelled
func (r *ReservationRepository) Cancel(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", models.ReservationStatusCancelled).Error
}
