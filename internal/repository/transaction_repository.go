package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

// TransactionModel is the GORM model for the transactions table. The unique
// index on booking_id enforces one settlement per booking.
type TransactionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	AmountCents int64     `gorm:"not null"`
	Method      string    `gorm:"not null;size:30"`
	PaidAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TransactionModel) TableName() string {
	return "transactions"
}

// GormSettlementStore implements SettlementStore on Postgres.
type GormSettlementStore struct {
	db *gorm.DB
}

// NewGormSettlementStore creates a new GormSettlementStore.
func NewGormSettlementStore(db *gorm.DB) *GormSettlementStore {
	return &GormSettlementStore{db: db}
}

// Settle records the payment and confirms the booking in one database
// transaction. The booking row lock re-checks pending status so a hold that
// expired or was canceled a moment earlier cannot be settled.
func (s *GormSettlementStore) Settle(ctx context.Context, txn *bookingDomain.Transaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setLockTimeout(tx); err != nil {
			return err
		}
		var model BookingModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", txn.BookingID()).
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Booking", txn.BookingID().String())
		}
		if err != nil {
			return fmt.Errorf("failed to find booking: %w", err)
		}

		bk, err := toDomainBooking(&model)
		if err != nil {
			return err
		}
		if err := bk.Confirm(); err != nil {
			return err
		}
		bk.IncrementVersion()

		if err := tx.Create(toTransactionModel(txn)).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		updated := toBookingModel(bk)
		result := tx.Model(&BookingModel{}).
			Where("id = ? AND version = ?", updated.ID, bk.Version()-1).
			Updates(map[string]interface{}{
				"status":     updated.Status,
				"version":    updated.Version,
				"updated_at": updated.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to confirm booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction")
		}
		return nil
	})
	return translateLedgerError(err)
}

// GormTransactionRepository is the GORM-based, read-only implementation of
// TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository.
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByBookingID retrieves the settlement for a booking, if any.
func (r *GormTransactionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Transaction", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return toDomainTransaction(&model)
}

// ListAll retrieves all transactions with pagination (admin).
func (r *GormTransactionRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TransactionModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var models []TransactionModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("paid_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	txns := make([]*bookingDomain.Transaction, len(models))
	for i, m := range models {
		txn, err := toDomainTransaction(&m)
		if err != nil {
			return nil, 0, err
		}
		txns[i] = txn
	}
	return txns, total, nil
}

// --- Conversion Helpers ---

func toTransactionModel(t *bookingDomain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:          t.ID(),
		BookingID:   t.BookingID(),
		AmountCents: t.AmountCents(),
		Method:      string(t.Method()),
		PaidAt:      t.PaidAt(),
	}
}

func toDomainTransaction(m *TransactionModel) (*bookingDomain.Transaction, error) {
	method, err := bookingDomain.ParsePaymentMethod(m.Method)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructTransaction(m.ID, m.BookingID, m.AmountCents, method, m.PaidAt), nil
}
