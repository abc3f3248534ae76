package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
	"github.com/swiftbus/service-reservation/internal/events"
	"github.com/swiftbus/service-reservation/pkg/domain"
	"github.com/swiftbus/service-reservation/pkg/kafka"
)

// ReserveSeatRequest holds the data needed to reserve a single seat.
type ReserveSeatRequest struct {
	BusID      uuid.UUID `json:"bus_id" binding:"required"`
	SeatNumber int       `json:"seat_number" binding:"required"`
}

// ReserveSeatsRequest holds the data needed to reserve several seats on one
// bus as a single all-or-nothing claim.
type ReserveSeatsRequest struct {
	BusID       uuid.UUID `json:"bus_id" binding:"required"`
	SeatNumbers []int     `json:"seat_numbers" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	BusID         uuid.UUID  `json:"bus_id"`
	SeatNumber    int        `json:"seat_number"`
	Status        string     `json:"status"`
	FareCents     int64      `json:"fare_cents"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
	CancelNote    string     `json:"cancel_note,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// GroupReservationDTO is the response for a multi-seat reservation.
type GroupReservationDTO struct {
	Bookings       []BookingDTO `json:"bookings"`
	TotalFareCents int64        `json:"total_fare_cents"`
}

// BookingService is the application service orchestrating the booking
// lifecycle: reserve, seat change, cancel. All seat mutations go through
// the seat ledger so concurrent requests are serialized per bus.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	buses    busDomain.BusRepository
	ledger   bookingDomain.SeatLedger
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	buses busDomain.BusRepository,
	ledger bookingDomain.SeatLedger,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		buses:    buses,
		ledger:   ledger,
		producer: producer,
		logger:   logger,
	}
}

// ReserveSeat reserves a single seat for the acting customer. The booking
// starts pending with the bus's current fare snapshotted onto it.
func (s *BookingService) ReserveSeat(ctx context.Context, actor Actor, req ReserveSeatRequest) (*BookingDTO, error) {
	group, err := s.ReserveSeats(ctx, actor, ReserveSeatsRequest{
		BusID:       req.BusID,
		SeatNumbers: []int{req.SeatNumber},
	})
	if err != nil {
		return nil, err
	}
	return &group.Bookings[0], nil
}

// ReserveSeats reserves every requested seat on the bus, or none of them.
// The total fare is the per-seat fare times the number of seats.
func (s *BookingService) ReserveSeats(ctx context.Context, actor Actor, req ReserveSeatsRequest) (*GroupReservationDTO, error) {
	if !actor.CanReserve() {
		return nil, domain.NewForbiddenError("role cannot reserve seats")
	}
	if len(req.SeatNumbers) == 0 {
		return nil, domain.NewValidationError("at least one seat number is required")
	}

	b, err := s.buses.FindByID(ctx, req.BusID)
	if err != nil {
		return nil, err
	}
	if !b.Available() {
		return nil, domain.NewValidationError("bus is not open for reservations")
	}

	seen := make(map[int]bool, len(req.SeatNumbers))
	var outOfRange []int
	for _, seat := range req.SeatNumbers {
		if !b.HasSeat(seat) {
			outOfRange = append(outOfRange, seat)
			continue
		}
		if seen[seat] {
			return nil, domain.NewValidationError(fmt.Sprintf("seat %d is requested more than once", seat))
		}
		seen[seat] = true
	}
	if len(outOfRange) > 0 {
		sort.Ints(outOfRange)
		msg := fmt.Sprintf("seats %v are out of range for this bus (capacity %d)", outOfRange, b.Capacity())
		if len(outOfRange) == 1 {
			msg = fmt.Sprintf("seat %d is out of range for this bus (capacity %d)", outOfRange[0], b.Capacity())
		}
		return nil, domain.NewValidationError(msg).WithDetail("invalid_seats", outOfRange)
	}

	claims := make([]*bookingDomain.Booking, len(req.SeatNumbers))
	for i, seat := range req.SeatNumbers {
		bk, err := bookingDomain.NewBooking(actor.UserID, req.BusID, seat, b.FareCents())
		if err != nil {
			return nil, err
		}
		claims[i] = bk
	}

	if err := s.ledger.Claim(ctx, req.BusID, claims); err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(claims))
	for i, bk := range claims {
		dtos[i] = toBookingDTO(bk)
		s.publishEvent(ctx, events.TopicBookingEvents, events.SeatReserved, bk.ID().String(), events.SeatReservedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			CustomerID:    bk.CustomerID(),
			BusID:         bk.BusID(),
			SeatNumber:    bk.SeatNumber(),
			FareCents:     bk.FareCents(),
			OccurredAt:    time.Now().UTC(),
		})
	}

	return &GroupReservationDTO{
		Bookings:       dtos,
		TotalFareCents: b.FareCents() * int64(len(claims)),
	}, nil
}

// UpdateSeat moves a pending booking to a new seat as one atomic swap.
// If the new seat is taken the booking keeps its current seat.
func (s *BookingService) UpdateSeat(ctx context.Context, actor Actor, bookingID uuid.UUID, newSeat int) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(bk.CustomerID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	b, err := s.buses.FindByID(ctx, bk.BusID())
	if err != nil {
		return nil, err
	}
	if !b.HasSeat(newSeat) {
		return nil, domain.NewValidationError(
			fmt.Sprintf("seat %d is out of range for this bus (capacity %d)", newSeat, b.Capacity()))
	}

	oldSeat := bk.SeatNumber()
	if err := s.ledger.Swap(ctx, bookingID, bk.BusID(), oldSeat, newSeat); err != nil {
		return nil, err
	}

	updated, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.SeatChanged, bookingID.String(), events.SeatChangedEvent{
		BookingID:     updated.ID(),
		BookingNumber: updated.BookingNumber(),
		BusID:         updated.BusID(),
		OldSeatNumber: oldSeat,
		NewSeatNumber: newSeat,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(updated)
	return &result, nil
}

// CancelBooking cancels a pending or confirmed booking and returns its seat
// to the free pool. Canceling an already-canceled booking is an error.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(bk.CustomerID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	// The ledger re-checks the status under the booking-row lock, so a hold
	// that expired and whose seat was re-claimed cannot be canceled by proxy.
	if err := s.ledger.CancelBooking(ctx, bookingID, reason); err != nil {
		return nil, err
	}

	updated, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCanceled, bookingID.String(), events.BookingCanceledEvent{
		BookingID:     updated.ID(),
		BookingNumber: updated.BookingNumber(),
		BusID:         updated.BusID(),
		SeatNumber:    updated.SeatNumber(),
		CanceledBy:    actor.UserID,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(updated)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(bk.CustomerID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetCustomerBookings retrieves the actor's own bookings, newest first.
func (s *BookingService) GetCustomerBookings(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByCustomerID(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, actor Actor, page, limit int) ([]BookingDTO, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, domain.NewForbiddenError("admin role required")
	}

	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context, actor Actor) (*BookingStatsDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admin role required")
	}

	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
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

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent("service-reservation", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEventWithKey(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
