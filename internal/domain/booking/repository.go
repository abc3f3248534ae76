package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the read-side persistence contract for bookings.
// All writes go through the SeatLedger or the SettlementStore so that every
// mutation shares the same serialization discipline.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomerID retrieves bookings belonging to a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FindExpiredPending returns pending bookings created before the cutoff,
	// oldest first, capped at limit. Used by the hold expiry sweeper.
	FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*Booking, error)
}

// SettlementStore atomically records a payment and confirms its booking.
type SettlementStore interface {
	// Settle re-checks that the booking is still pending inside the same
	// transactional unit that inserts the Transaction and flips the booking
	// to confirmed. A booking that was concurrently canceled or already
	// settled yields an invalid-state error and no transaction row.
	Settle(ctx context.Context, txn *Transaction) error
}

// TransactionRepository defines the read-side contract for settled payments.
type TransactionRepository interface {
	// FindByBookingID retrieves the transaction for a booking, if any.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Transaction, error)

	// ListAll retrieves all transactions with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Transaction, int64, error)
}
