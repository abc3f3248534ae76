package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// CreateBusRequest holds the data needed to register a bus trip.
type CreateBusRequest struct {
	Capacity    int       `json:"capacity" binding:"required"`
	FareCents   int64     `json:"fare_cents"`
	Route       string    `json:"route" binding:"required"`
	DepartureAt time.Time `json:"departure_at" binding:"required"`
	ArrivalAt   time.Time `json:"arrival_at" binding:"required"`
}

// UpdateBusRequest holds optional updates to a bus trip. Nil fields are
// left unchanged.
type UpdateBusRequest struct {
	Capacity    *int       `json:"capacity"`
	FareCents   *int64     `json:"fare_cents"`
	Route       *string    `json:"route"`
	DepartureAt *time.Time `json:"departure_at"`
	ArrivalAt   *time.Time `json:"arrival_at"`
	Available   *bool      `json:"available"`
}

// BusDTO is the response representation of a bus trip.
type BusDTO struct {
	ID          uuid.UUID  `json:"id"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
	Capacity    int        `json:"capacity"`
	FareCents   int64      `json:"fare_cents"`
	Route       string     `json:"route"`
	DepartureAt time.Time  `json:"departure_at"`
	ArrivalAt   time.Time  `json:"arrival_at"`
	Available   bool       `json:"available"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FleetService manages the bus trip directory: registration, schedule
// changes, driver assignment and retirement. Admin only, except reads.
type FleetService struct {
	buses  busDomain.BusRepository
	logger *zap.Logger
}

// NewFleetService creates a new FleetService.
func NewFleetService(buses busDomain.BusRepository, logger *zap.Logger) *FleetService {
	return &FleetService{buses: buses, logger: logger}
}

// CreateBus registers a new bus trip (admin).
func (s *FleetService) CreateBus(ctx context.Context, actor Actor, req CreateBusRequest) (*BusDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admin role required")
	}

	b, err := busDomain.NewBus(req.Capacity, req.FareCents, req.Route, req.DepartureAt, req.ArrivalAt)
	if err != nil {
		return nil, err
	}

	if err := s.buses.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save bus: %w", err)
	}

	s.logger.Info("bus registered",
		zap.String("bus_id", b.ID().String()),
		zap.String("route", b.Route()),
	)

	result := toBusDTO(b)
	return &result, nil
}

// UpdateBus applies partial updates to a bus trip (admin).
func (s *FleetService) UpdateBus(ctx context.Context, actor Actor, busID uuid.UUID, req UpdateBusRequest) (*BusDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admin role required")
	}

	b, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}

	if req.Capacity != nil {
		if err := b.SetCapacity(*req.Capacity); err != nil {
			return nil, err
		}
	}
	if req.FareCents != nil {
		if err := b.SetFare(*req.FareCents); err != nil {
			return nil, err
		}
	}
	if req.Route != nil {
		if err := b.SetRoute(*req.Route); err != nil {
			return nil, err
		}
	}
	if req.DepartureAt != nil || req.ArrivalAt != nil {
		departure := b.DepartureAt()
		arrival := b.ArrivalAt()
		if req.DepartureAt != nil {
			departure = *req.DepartureAt
		}
		if req.ArrivalAt != nil {
			arrival = *req.ArrivalAt
		}
		if err := b.Reschedule(departure, arrival); err != nil {
			return nil, err
		}
	}
	if req.Available != nil {
		b.SetAvailability(*req.Available)
	}

	b.IncrementVersion()
	if err := s.buses.Update(ctx, b); err != nil {
		return nil, err
	}

	result := toBusDTO(b)
	return &result, nil
}

// AssignDriver assigns a driver to the bus (admin).
func (s *FleetService) AssignDriver(ctx context.Context, actor Actor, busID, driverID uuid.UUID) (*BusDTO, error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admin role required")
	}

	b, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	if err := b.AssignDriver(driverID); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.buses.Update(ctx, b); err != nil {
		return nil, err
	}

	result := toBusDTO(b)
	return &result, nil
}

// DeleteBus removes a bus trip from the directory (admin).
func (s *FleetService) DeleteBus(ctx context.Context, actor Actor, busID uuid.UUID) error {
	if !actor.IsAdmin() {
		return domain.NewForbiddenError("admin role required")
	}
	return s.buses.Delete(ctx, busID)
}

// GetBus retrieves a single bus trip by ID.
func (s *FleetService) GetBus(ctx context.Context, busID uuid.UUID) (*BusDTO, error) {
	b, err := s.buses.FindByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	result := toBusDTO(b)
	return &result, nil
}

// ListAvailableBuses returns available bus trips, soonest departure first.
func (s *FleetService) ListAvailableBuses(ctx context.Context, page, limit int) (*domain.PaginatedResult[BusDTO], error) {
	buses, total, err := s.buses.ListAvailable(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBusDTOs(buses), total, page, limit)
	return &result, nil
}

// ListAllBuses returns every bus trip, including retired ones (admin).
func (s *FleetService) ListAllBuses(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[BusDTO], error) {
	if !actor.IsAdmin() {
		return nil, domain.NewForbiddenError("admin role required")
	}

	buses, total, err := s.buses.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBusDTOs(buses), total, page, limit)
	return &result, nil
}

func toBusDTO(b *busDomain.Bus) BusDTO {
	return BusDTO{
		ID:          b.ID(),
		DriverID:    b.DriverID(),
		Capacity:    b.Capacity(),
		FareCents:   b.FareCents(),
		Route:       b.Route(),
		DepartureAt: b.DepartureAt(),
		ArrivalAt:   b.ArrivalAt(),
		Available:   b.Available(),
		Version:     b.Version(),
		CreatedAt:   b.CreatedAt(),
		UpdatedAt:   b.UpdatedAt(),
	}
}

func toBusDTOs(buses []*busDomain.Bus) []BusDTO {
	dtos := make([]BusDTO, len(buses))
	for i, b := range buses {
		dtos[i] = toBusDTO(b)
	}
	return dtos
}
