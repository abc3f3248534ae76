package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

// Transaction records a settled payment against exactly one booking.
// It is created in the same atomic unit that confirms the booking and is
// immutable afterwards.
type Transaction struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	amountCents int64
	method      PaymentMethod
	paidAt      time.Time
}

// NewTransaction creates a Transaction for a booking settlement.
func NewTransaction(bookingID uuid.UUID, amountCents int64, method PaymentMethod) (*Transaction, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if amountCents < 0 {
		return nil, domain.NewValidationError("amount paid cannot be negative")
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError("invalid payment method: " + string(method))
	}
	return &Transaction{
		id:          uuid.New(),
		bookingID:   bookingID,
		amountCents: amountCents,
		method:      method,
		paidAt:      time.Now().UTC(),
	}, nil
}

// ReconstructTransaction rebuilds a Transaction from persistence data.
func ReconstructTransaction(id, bookingID uuid.UUID, amountCents int64, method PaymentMethod, paidAt time.Time) *Transaction {
	return &Transaction{
		id:          id,
		bookingID:   bookingID,
		amountCents: amountCents,
		method:      method,
		paidAt:      paidAt,
	}
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uuid.UUID { return t.id }

// BookingID returns the booking this transaction settled.
func (t *Transaction) BookingID() uuid.UUID { return t.bookingID }

// AmountCents returns the amount paid in cents.
func (t *Transaction) AmountCents() int64 { return t.amountCents }

// Method returns the payment method used.
func (t *Transaction) Method() PaymentMethod { return t.method }

// PaidAt returns the settlement timestamp.
func (t *Transaction) PaidAt() time.Time { return t.paidAt }
