package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// BusModel is the GORM model for the buses table.
type BusModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DriverID    *uuid.UUID `gorm:"type:uuid;index"`
	Capacity    int        `gorm:"not null"`
	FareCents   int64      `gorm:"not null"`
	Route       string     `gorm:"not null;size:255;index"`
	DepartureAt time.Time  `gorm:"not null;index"`
	ArrivalAt   time.Time  `gorm:"not null"`
	Available   bool       `gorm:"not null;default:true"`
	Version     int64      `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BusModel) TableName() string {
	return "buses"
}

// GormBusRepository is the GORM-based implementation of BusRepository.
type GormBusRepository struct {
	db *gorm.DB
}

// NewGormBusRepository creates a new GormBusRepository.
func NewGormBusRepository(db *gorm.DB) *GormBusRepository {
	return &GormBusRepository{db: db}
}

// FindByID retrieves a bus by its unique identifier.
func (r *GormBusRepository) FindByID(ctx context.Context, id uuid.UUID) (*busDomain.Bus, error) {
	var model BusModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Bus", id.String())
		}
		return nil, fmt.Errorf("failed to find bus by ID: %w", err)
	}
	return toDomainBus(&model), nil
}

// ListAvailable retrieves available buses with pagination, soonest departure first.
func (r *GormBusRepository) ListAvailable(ctx context.Context, page, limit int) ([]*busDomain.Bus, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("available = ?", true), page, limit)
}

// ListAll retrieves all buses with pagination (admin).
func (r *GormBusRepository) ListAll(ctx context.Context, page, limit int) ([]*busDomain.Bus, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx), page, limit)
}

func (r *GormBusRepository) list(ctx context.Context, query *gorm.DB, page, limit int) ([]*busDomain.Bus, int64, error) {
	var total int64
	if err := query.Model(&BusModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count buses: %w", err)
	}

	var models []BusModel
	offset := (page - 1) * limit
	if err := query.
		Order("departure_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list buses: %w", err)
	}

	buses := make([]*busDomain.Bus, len(models))
	for i, m := range models {
		buses[i] = toDomainBus(&m)
	}
	return buses, total, nil
}

// Search returns available buses departing on the given calendar date whose
// route contains both substrings, case-insensitively. It reads current rows
// only; results are never served from a cache.
func (r *GormBusRepository) Search(ctx context.Context, date time.Time, from, to string) ([]*busDomain.Bus, error) {
	var models []BusModel
	if err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Where("DATE(departure_at) = ?", date.UTC().Format("2006-01-02")).
		Where("route ILIKE ?", "%"+from+"%").
		Where("route ILIKE ?", "%"+to+"%").
		Order("departure_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search buses: %w", err)
	}

	buses := make([]*busDomain.Bus, len(models))
	for i, m := range models {
		buses[i] = toDomainBus(&m)
	}
	return buses, nil
}

// Save persists a new bus.
func (r *GormBusRepository) Save(ctx context.Context, b *busDomain.Bus) error {
	if err := r.db.WithContext(ctx).Create(toBusModel(b)).Error; err != nil {
		return fmt.Errorf("failed to save bus: %w", err)
	}
	return nil
}

// Update persists changes to an existing bus with optimistic locking.
func (r *GormBusRepository) Update(ctx context.Context, b *busDomain.Bus) error {
	model := toBusModel(b)
	result := r.db.WithContext(ctx).
		Model(&BusModel{}).
		Where("id = ? AND version = ?", model.ID, b.Version()-1).
		Updates(map[string]interface{}{
			"driver_id":    model.DriverID,
			"capacity":     model.Capacity,
			"fare_cents":   model.FareCents,
			"route":        model.Route,
			"departure_at": model.DepartureAt,
			"arrival_at":   model.ArrivalAt,
			"available":    model.Available,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update bus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("bus was modified by another transaction")
	}
	return nil
}

// Delete removes a bus from the fleet directory.
func (r *GormBusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BusModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete bus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Bus", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBusModel(b *busDomain.Bus) *BusModel {
	return &BusModel{
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

func toDomainBus(m *BusModel) *busDomain.Bus {
	return busDomain.Reconstruct(
		m.ID,
		m.DriverID,
		m.Capacity,
		m.FareCents,
		m.Route,
		m.DepartureAt,
		m.ArrivalAt,
		m.Available,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
