package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a single seat reservation on a bus trip.
// It is created in pending when the Seat Ledger grants the seat, confirmed
// only by payment settlement, and canceled either explicitly or by hold expiry.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customerID    uuid.UUID
	busID         uuid.UUID
	seatNumber    int
	status        BookingStatus
	fareCents     int64

	canceledAt *time.Time
	cancelNote string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BR-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BR-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
// fareCents is the per-seat fare snapshot taken from the bus at reservation time.
func NewBooking(customerID, busID uuid.UUID, seatNumber int, fareCents int64) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if busID == uuid.Nil {
		return nil, domain.NewValidationError("bus ID is required")
	}
	if seatNumber < 1 {
		return nil, domain.NewValidationError("seat number must be at least 1")
	}
	if fareCents < 0 {
		return nil, domain.NewValidationError("fare cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		customerID:    customerID,
		busID:         busID,
		seatNumber:    seatNumber,
		status:        StatusPending,
		fareCents:     fareCents,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	customerID uuid.UUID,
	busID uuid.UUID,
	seatNumber int,
	status BookingStatus,
	fareCents int64,
	canceledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		customerID:    customerID,
		busID:         busID,
		seatNumber:    seatNumber,
		status:        status,
		fareCents:     fareCents,
		canceledAt:    canceledAt,
		cancelNote:    cancelNote,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CustomerID returns the reserving customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// BusID returns the bus this booking claims a seat on.
func (b *Booking) BusID() uuid.UUID { return b.busID }

// SeatNumber returns the claimed seat number.
func (b *Booking) SeatNumber() int { return b.seatNumber }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// FareCents returns the per-seat fare snapshot taken at reservation time.
func (b *Booking) FareCents() int64 { return b.fareCents }

// CanceledAt returns the time the booking was canceled, or nil.
func (b *Booking) CanceledAt() *time.Time { return b.canceledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
// Only the settlement recorder calls this, after recording the transaction.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to canceled, releasing its seat.
// Canceling an already-canceled booking is a caller error, not a no-op.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanTransitionTo(StatusCanceled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCanceled))
	}
	now := time.Now().UTC()
	b.status = StatusCanceled
	b.cancelNote = reason
	b.canceledAt = &now
	b.updatedAt = now
	return nil
}

// ChangeSeat moves a pending booking to a new seat. The ledger swap must
// still be performed atomically by the caller; this only mutates the aggregate.
func (b *Booking) ChangeSeat(newSeat int) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusPending))
	}
	if newSeat < 1 {
		return domain.NewValidationError("seat number must be at least 1")
	}
	b.seatNumber = newSeat
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
