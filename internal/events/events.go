package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics this service produces to and consumes from.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types published on the booking topic.
const (
	SeatReserved     = "booking.seat_reserved"
	SeatChanged      = "booking.seat_changed"
	BookingCanceled  = "booking.canceled"
	BookingConfirmed = "booking.confirmed"
	HoldExpired      = "booking.hold_expired"
)

// Event types consumed from the payment topic.
const (
	PaymentSucceeded = "payment.succeeded"
)

// SeatReservedEvent is published when a seat claim succeeds.
type SeatReservedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	BusID         uuid.UUID `json:"bus_id"`
	SeatNumber    int       `json:"seat_number"`
	FareCents     int64     `json:"fare_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// SeatChangedEvent is published when a pending booking moves to a new seat.
type SeatChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	BusID         uuid.UUID `json:"bus_id"`
	OldSeatNumber int       `json:"old_seat_number"`
	NewSeatNumber int       `json:"new_seat_number"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCanceledEvent is published when a booking is canceled and its seat
// returns to the free pool.
type BookingCanceledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	BusID         uuid.UUID `json:"bus_id"`
	SeatNumber    int       `json:"seat_number"`
	CanceledBy    uuid.UUID `json:"canceled_by"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when a payment settlement confirms a booking.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AmountCents   int64     `json:"amount_cents"`
	Method        string    `json:"method"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// HoldExpiredEvent is published when the expiry sweeper cancels a stale hold.
type HoldExpiredEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	BusID      uuid.UUID `json:"bus_id"`
	SeatNumber int       `json:"seat_number"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentSucceededEvent is consumed from the payment topic and drives
// settlement recording.
type PaymentSucceededEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	OccurredAt  time.Time `json:"occurred_at"`
}
