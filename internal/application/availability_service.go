package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
)

// SeatAvailabilityDTO lists the free and held seats of one bus.
type SeatAvailabilityDTO struct {
	BusID          uuid.UUID `json:"bus_id"`
	Capacity       int       `json:"capacity"`
	AvailableSeats []int     `json:"available_seats"`
	TakenSeats     []int     `json:"taken_seats"`
}

// BusSearchResultDTO is one search hit with its current seat headroom.
type BusSearchResultDTO struct {
	Bus            BusDTO `json:"bus"`
	AvailableSeats int    `json:"available_seats"`
}

// AvailabilityService answers seat availability and trip search queries.
// Every answer is computed from current ledger state; nothing is cached,
// so a reservation committed a moment ago is already reflected.
type AvailabilityService struct {
	buses  busDomain.BusRepository
	ledger bookingDomain.SeatLedger
	logger *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(buses busDomain.BusRepository, ledger bookingDomain.SeatLedger, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		buses:  buses,
		ledger: ledger,
		logger: logger,
	}
}

// AvailableSeats returns the free seat numbers of the bus in ascending
// order. Seats held by pending or confirmed bookings are excluded.
func (s *AvailabilityService) AvailableSeats(ctx context.Context, busID uuid.UUID) (*SeatAvailabilityDTO, error) {
	b, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}

	taken, err := s.ledger.TakenSeats(ctx, busID)
	if err != nil {
		return nil, err
	}

	held := make(map[int]bool, len(taken))
	for _, seat := range taken {
		held[seat] = true
	}

	available := make([]int, 0, b.Capacity()-len(taken))
	for seat := 1; seat <= b.Capacity(); seat++ {
		if !held[seat] {
			available = append(available, seat)
		}
	}

	return &SeatAvailabilityDTO{
		BusID:          busID,
		Capacity:       b.Capacity(),
		AvailableSeats: available,
		TakenSeats:     taken,
	}, nil
}

// SearchBuses returns available buses departing on the given date whose
// route matches both endpoints, case-insensitively, soonest first.
func (s *AvailabilityService) SearchBuses(ctx context.Context, date time.Time, from, to string) ([]BusSearchResultDTO, error) {
	buses, err := s.buses.Search(ctx, date, from, to)
	if err != nil {
		return nil, err
	}

	results := make([]BusSearchResultDTO, len(buses))
	for i, b := range buses {
		taken, err := s.ledger.TakenSeats(ctx, b.ID())
		if err != nil {
			return nil, err
		}
		free := b.Capacity() - len(taken)
		if free < 0 {
			free = 0
		}
		results[i] = BusSearchResultDTO{
			Bus:            toBusDTO(b),
			AvailableSeats: free,
		}
	}
	return results, nil
}
