package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// BookingModel is the GORM model for the bookings table. The table doubles
// as the seat ledger: a partial unique index on (bus_id, seat_number) over
// active rows enforces one holder per seat at the database level.
type BookingModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber string     `gorm:"uniqueIndex;not null;size:20"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	BusID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	SeatNumber    int        `gorm:"not null"`
	Status        string     `gorm:"not null;size:30;index"`
	FareCents     int64      `gorm:"not null"`
	CanceledAt    *time.Time `gorm:""`
	CancelNote    string     `gorm:"size:500"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusConfirmed),
}

// GormBookingRepository is the GORM-based, read-only implementation of
// BookingRepository. Writes go through GormSeatLedger and GormSettlementStore.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindExpiredPending returns pending bookings created before the cutoff,
// oldest first.
func (r *GormBookingRepository) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(bookingDomain.StatusPending), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired pending bookings: %w", err)
	}
	return toDomainBookings(models)
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		BusID:         bk.BusID(),
		SeatNumber:    bk.SeatNumber(),
		Status:        string(bk.Status()),
		FareCents:     bk.FareCents(),
		CanceledAt:    bk.CanceledAt(),
		CancelNote:    bk.CancelNote(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.CustomerID,
		m.BusID,
		m.SeatNumber,
		status,
		m.FareCents,
		m.CanceledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
