package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

// SeatLedger is the authoritative mapping of (bus, seat) to its active
// booking. A seat is held while its booking is pending or confirmed; every
// mutation for a given bus is serialized against all others.
type SeatLedger interface {
	// Claim atomically claims the seats of all given bookings on one bus.
	// Either every booking is persisted in pending state or none are; a
	// conflict returns a SeatTaken error naming every already-held seat.
	Claim(ctx context.Context, busID uuid.UUID, bookings []*Booking) error

	// Release returns a seat to the free pool by canceling whichever active
	// booking holds it. Releasing a free seat is a no-op, not an error.
	Release(ctx context.Context, busID uuid.UUID, seatNumber int) error

	// Swap moves a pending booking to newSeat as one atomic step. If newSeat
	// is held the swap fails with SeatTaken and the booking keeps its seat.
	Swap(ctx context.Context, bookingID, busID uuid.UUID, oldSeat, newSeat int) error

	// CancelBooking cancels exactly the given booking, freeing its seat. The
	// active-status check happens inside the same transaction as the write,
	// so a cancel can never hit a booking that re-claimed the seat meanwhile.
	// A booking that is already canceled fails with InvalidState.
	CancelBooking(ctx context.Context, bookingID uuid.UUID, note string) error

	// ExpireHold cancels the booking only if it is still pending, returning
	// whether it did. Used by hold expiry so it can never undo a concurrent
	// settlement.
	ExpireHold(ctx context.Context, bookingID uuid.UUID) (bool, error)

	// TakenSeats returns the seat numbers currently held on the bus, ascending.
	TakenSeats(ctx context.Context, busID uuid.UUID) ([]int, error)
}

// NewSeatTakenError builds the conflict error reported when a claim loses,
// carrying the full set of contested seats.
func NewSeatTakenError(seats []int) *domain.Error {
	msg := fmt.Sprintf("seats already taken: %v", seats)
	if len(seats) == 1 {
		msg = fmt.Sprintf("seat %d is already taken", seats[0])
	}
	return domain.NewConflictError(msg).WithDetail("taken_seats", seats)
}
