package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// Postgres error codes surfaced by ledger transactions.
const (
	pgLockNotAvailable = "55P03"
	pgUniqueViolation  = "23505"
)

const ledgerLockTimeout = "3s"

// GormSeatLedger implements SeatLedger on Postgres. Every mutating operation
// takes the bus row FOR UPDATE first, so all seat changes for one bus are
// serialized while different buses proceed in parallel. A lock wait longer
// than ledgerLockTimeout aborts with a retryable busy error instead of
// queueing indefinitely.
type GormSeatLedger struct {
	db *gorm.DB
}

// NewGormSeatLedger creates a new GormSeatLedger.
func NewGormSeatLedger(db *gorm.DB) *GormSeatLedger {
	return &GormSeatLedger{db: db}
}

// Claim atomically persists all bookings in pending state, or none of them.
func (l *GormSeatLedger) Claim(ctx context.Context, busID uuid.UUID, bookings []*bookingDomain.Booking) error {
	if len(bookings) == 0 {
		return domain.NewValidationError("at least one booking is required")
	}

	seats := make([]int, len(bookings))
	for i, bk := range bookings {
		seats[i] = bk.SeatNumber()
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.lockBus(tx, busID); err != nil {
			return err
		}

		var taken []int
		if err := tx.Model(&BookingModel{}).
			Where("bus_id = ? AND seat_number IN ? AND status IN ?", busID, seats, activeStatuses).
			Pluck("seat_number", &taken).Error; err != nil {
			return fmt.Errorf("failed to check seat holds: %w", err)
		}
		if len(taken) > 0 {
			sort.Ints(taken)
			return bookingDomain.NewSeatTakenError(taken)
		}

		models := make([]*BookingModel, len(bookings))
		for i, bk := range bookings {
			models[i] = toBookingModel(bk)
		}
		if err := tx.Create(models).Error; err != nil {
			return fmt.Errorf("failed to persist seat claims: %w", err)
		}
		return nil
	})
	return translateLedgerError(err)
}

// Release cancels whichever active booking holds the seat. A free seat is
// a no-op.
func (l *GormSeatLedger) Release(ctx context.Context, busID uuid.UUID, seatNumber int) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.lockBus(tx, busID); err != nil {
			return err
		}

		var model BookingModel
		err := tx.Where("bus_id = ? AND seat_number = ? AND status IN ?", busID, seatNumber, activeStatuses).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find seat holder: %w", err)
		}

		bk, err := toDomainBooking(&model)
		if err != nil {
			return err
		}
		if err := bk.Cancel("seat released"); err != nil {
			return err
		}
		bk.IncrementVersion()
		return l.updateBookingRow(tx, bk)
	})
	return translateLedgerError(err)
}

// Swap moves a pending booking from oldSeat to newSeat atomically.
func (l *GormSeatLedger) Swap(ctx context.Context, bookingID, busID uuid.UUID, oldSeat, newSeat int) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.lockBus(tx, busID); err != nil {
			return err
		}

		var model BookingModel
		if err := tx.Where("id = ?", bookingID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Booking", bookingID.String())
			}
			return fmt.Errorf("failed to find booking: %w", err)
		}
		if model.Status != string(bookingDomain.StatusPending) || model.SeatNumber != oldSeat {
			return domain.NewInvalidStateError(model.Status, string(bookingDomain.StatusPending))
		}

		var holders int64
		if err := tx.Model(&BookingModel{}).
			Where("bus_id = ? AND seat_number = ? AND status IN ? AND id <> ?", busID, newSeat, activeStatuses, bookingID).
			Count(&holders).Error; err != nil {
			return fmt.Errorf("failed to check target seat: %w", err)
		}
		if holders > 0 {
			return bookingDomain.NewSeatTakenError([]int{newSeat})
		}

		bk, err := toDomainBooking(&model)
		if err != nil {
			return err
		}
		if err := bk.ChangeSeat(newSeat); err != nil {
			return err
		}
		bk.IncrementVersion()
		return l.updateBookingRow(tx, bk)
	})
	return translateLedgerError(err)
}

// CancelBooking cancels the booking by ID, freeing its seat. The status
// check and the write share one booking-row lock, so the cancel can never
// land on a different booking that took over the seat in the meantime.
func (l *GormSeatLedger) CancelBooking(ctx context.Context, bookingID uuid.UUID, note string) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setLockTimeout(tx); err != nil {
			return err
		}
		var model BookingModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookingID).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Booking", bookingID.String())
		}
		if err != nil {
			return fmt.Errorf("failed to find booking: %w", err)
		}

		bk, err := toDomainBooking(&model)
		if err != nil {
			return err
		}
		if err := bk.Cancel(note); err != nil {
			return err
		}
		bk.IncrementVersion()
		return l.updateBookingRow(tx, bk)
	})
	return translateLedgerError(err)
}

// ExpireHold cancels the booking only if it is still pending. The booking
// row lock serializes expiry against a concurrent settlement.
func (l *GormSeatLedger) ExpireHold(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var expired bool
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setLockTimeout(tx); err != nil {
			return err
		}
		var model BookingModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookingID).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find booking: %w", err)
		}
		if model.Status != string(bookingDomain.StatusPending) {
			return nil
		}

		bk, err := toDomainBooking(&model)
		if err != nil {
			return err
		}
		if err := bk.Cancel("hold expired"); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := l.updateBookingRow(tx, bk); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, translateLedgerError(err)
}

// TakenSeats returns the seat numbers currently held on the bus, ascending.
func (l *GormSeatLedger) TakenSeats(ctx context.Context, busID uuid.UUID) ([]int, error) {
	var seats []int
	if err := l.db.WithContext(ctx).Model(&BookingModel{}).
		Where("bus_id = ? AND status IN ?", busID, activeStatuses).
		Order("seat_number ASC").
		Pluck("seat_number", &seats).Error; err != nil {
		return nil, fmt.Errorf("failed to list taken seats: %w", err)
	}
	return seats, nil
}

// setLockTimeout bounds every row-lock wait in the enclosing transaction.
// Hitting the bound aborts with 55P03, which translateLedgerError turns
// into a retryable busy error.
func setLockTimeout(tx *gorm.DB) error {
	if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%s'", ledgerLockTimeout)).Error; err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return nil
}

// lockBus takes the per-bus serialization lock.
func (l *GormSeatLedger) lockBus(tx *gorm.DB, busID uuid.UUID) error {
	if err := setLockTimeout(tx); err != nil {
		return err
	}
	var busRow BusModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", busID).
		First(&busRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Bus", busID.String())
		}
		return fmt.Errorf("failed to lock bus: %w", err)
	}
	return nil
}

func (l *GormSeatLedger) updateBookingRow(tx *gorm.DB, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	result := tx.Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, bk.Version()-1).
		Updates(map[string]interface{}{
			"seat_number": model.SeatNumber,
			"status":      model.Status,
			"canceled_at": model.CanceledAt,
			"cancel_note": model.CancelNote,
			"version":     model.Version,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// translateLedgerError maps low-level Postgres failures onto domain errors:
// a lock timeout means the bus is contended and the caller may retry, and a
// unique violation on the active-seat index is a seat conflict that slipped
// past the pre-check.
func translateLedgerError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return domain.NewBusyError("seat ledger is busy, retry shortly")
		case pgUniqueViolation:
			return domain.NewConflictError("seat is already taken")
		}
	}
	return err
}
