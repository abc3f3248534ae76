package bus

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

// Bus is the fleet directory entry for a scheduled trip: capacity and fare
// are the reference data the booking core reads; the rest is trip metadata.
type Bus struct {
	id          uuid.UUID
	driverID    *uuid.UUID
	capacity    int
	fareCents   int64
	route       string
	departureAt time.Time
	arrivalAt   time.Time
	available   bool
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewBus creates a new available Bus with validated fields.
func NewBus(capacity int, fareCents int64, route string, departureAt, arrivalAt time.Time) (*Bus, error) {
	if capacity < 1 {
		return nil, domain.NewValidationError("capacity must be at least 1")
	}
	if fareCents < 0 {
		return nil, domain.NewValidationError("fare cannot be negative")
	}
	if route == "" {
		return nil, domain.NewValidationError("route is required")
	}
	if !arrivalAt.After(departureAt) {
		return nil, domain.NewValidationError("arrival time must be after departure time")
	}

	now := time.Now().UTC()
	return &Bus{
		id:          uuid.New(),
		capacity:    capacity,
		fareCents:   fareCents,
		route:       route,
		departureAt: departureAt.UTC(),
		arrivalAt:   arrivalAt.UTC(),
		available:   true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Bus from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	driverID *uuid.UUID,
	capacity int,
	fareCents int64,
	route string,
	departureAt, arrivalAt time.Time,
	available bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Bus {
	return &Bus{
		id:          id,
		driverID:    driverID,
		capacity:    capacity,
		fareCents:   fareCents,
		route:       route,
		departureAt: departureAt,
		arrivalAt:   arrivalAt,
		available:   available,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (b *Bus) ID() uuid.UUID          { return b.id }
func (b *Bus) DriverID() *uuid.UUID   { return b.driverID }
func (b *Bus) Capacity() int          { return b.capacity }
func (b *Bus) FareCents() int64       { return b.fareCents }
func (b *Bus) Route() string          { return b.route }
func (b *Bus) DepartureAt() time.Time { return b.departureAt }
func (b *Bus) ArrivalAt() time.Time   { return b.arrivalAt }
func (b *Bus) Available() bool        { return b.available }
func (b *Bus) Version() int64         { return b.version }
func (b *Bus) CreatedAt() time.Time   { return b.createdAt }
func (b *Bus) UpdatedAt() time.Time   { return b.updatedAt }

// TravelTime returns the scheduled trip duration.
func (b *Bus) TravelTime() time.Duration {
	return b.arrivalAt.Sub(b.departureAt)
}

// HasSeat reports whether the seat number lies within this bus's capacity.
func (b *Bus) HasSeat(seatNumber int) bool {
	return seatNumber >= 1 && seatNumber <= b.capacity
}

// --- Behavior ---

// SetCapacity changes the seat count. Shrinking below already-claimed seats
// is the fleet operator's responsibility; the ledger keeps existing holds.
func (b *Bus) SetCapacity(capacity int) error {
	if capacity < 1 {
		return domain.NewValidationError("capacity must be at least 1")
	}
	b.capacity = capacity
	b.touch()
	return nil
}

// SetFare changes the per-seat fare for future reservations.
func (b *Bus) SetFare(fareCents int64) error {
	if fareCents < 0 {
		return domain.NewValidationError("fare cannot be negative")
	}
	b.fareCents = fareCents
	b.touch()
	return nil
}

// SetRoute changes the route description.
func (b *Bus) SetRoute(route string) error {
	if route == "" {
		return domain.NewValidationError("route is required")
	}
	b.route = route
	b.touch()
	return nil
}

// Reschedule sets new departure and arrival times.
func (b *Bus) Reschedule(departureAt, arrivalAt time.Time) error {
	if !arrivalAt.After(departureAt) {
		return domain.NewValidationError("arrival time must be after departure time")
	}
	b.departureAt = departureAt.UTC()
	b.arrivalAt = arrivalAt.UTC()
	b.touch()
	return nil
}

// SetAvailability toggles whether the bus accepts new reservations.
func (b *Bus) SetAvailability(available bool) {
	b.available = available
	b.touch()
}

// AssignDriver assigns the driver responsible for this bus.
func (b *Bus) AssignDriver(driverID uuid.UUID) error {
	if driverID == uuid.Nil {
		return domain.NewValidationError("driver ID is required")
	}
	b.driverID = &driverID
	b.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Bus) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Bus) touch() {
	b.updatedAt = time.Now().UTC()
}
