package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	"github.com/swiftbus/service-reservation/internal/events"
	"github.com/swiftbus/service-reservation/pkg/domain"
	"github.com/swiftbus/service-reservation/pkg/kafka"
)

// SettleRequest holds the payment details for settling a booking.
type SettleRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method" binding:"required"`
}

// TransactionDTO is the response representation of a settled payment.
type TransactionDTO struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	PaidAt      time.Time `json:"paid_at"`
}

// SettlementDTO is the response for a successful settlement: the recorded
// transaction and the now-confirmed booking.
type SettlementDTO struct {
	Transaction TransactionDTO `json:"transaction"`
	Booking     BookingDTO     `json:"booking"`
}

// SettlementService records payments against pending bookings. The
// transaction insert and the booking confirmation happen in one atomic
// unit inside the settlement store.
type SettlementService struct {
	bookings     bookingDomain.BookingRepository
	transactions bookingDomain.TransactionRepository
	store        bookingDomain.SettlementStore
	producer     *kafka.Producer
	logger       *zap.Logger
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	bookings bookingDomain.BookingRepository,
	transactions bookingDomain.TransactionRepository,
	store bookingDomain.SettlementStore,
	producer *kafka.Producer,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		bookings:     bookings,
		transactions: transactions,
		store:        store,
		producer:     producer,
		logger:       logger,
	}
}

// Settle validates and records a payment for the actor's booking.
func (s *SettlementService) Settle(ctx context.Context, actor Actor, bookingID uuid.UUID, req SettleRequest) (*SettlementDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(bk.CustomerID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return s.record(ctx, bk, req)
}

// RecordPayment settles a booking on behalf of the payment pipeline, with
// no actor check. Used by the payment event consumer.
func (s *SettlementService) RecordPayment(ctx context.Context, bookingID uuid.UUID, req SettleRequest) (*SettlementDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, bk, req)
}

// RecordFromPayment settles a booking from a payment pipeline event.
func (s *SettlementService) RecordFromPayment(ctx context.Context, evt events.PaymentSucceededEvent) error {
	_, err := s.RecordPayment(ctx, evt.BookingID, SettleRequest{
		AmountCents: evt.AmountCents,
		Method:      evt.Method,
	})
	return err
}

func (s *SettlementService) record(ctx context.Context, bk *bookingDomain.Booking, req SettleRequest) (*SettlementDTO, error) {
	method, err := bookingDomain.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if req.AmountCents < 0 {
		return nil, domain.NewValidationError("amount paid cannot be negative")
	}
	if req.AmountCents != bk.FareCents() {
		return nil, domain.NewValidationError(
			fmt.Sprintf("amount paid (%d) must equal the booking fare (%d)", req.AmountCents, bk.FareCents()))
	}

	txn, err := bookingDomain.NewTransaction(bk.ID(), req.AmountCents, method)
	if err != nil {
		return nil, err
	}

	if err := s.store.Settle(ctx, txn); err != nil {
		return nil, err
	}

	confirmed, err := s.bookings.FindByID(ctx, bk.ID())
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, bk.ID().String(), events.BookingConfirmedEvent{
		BookingID:     confirmed.ID(),
		BookingNumber: confirmed.BookingNumber(),
		CustomerID:    confirmed.CustomerID(),
		TransactionID: txn.ID(),
		AmountCents:   txn.AmountCents(),
		Method:        string(txn.Method()),
		OccurredAt:    time.Now().UTC(),
	})

	return &SettlementDTO{
		Transaction: toTransactionDTO(txn),
		Booking:     toBookingDTO(confirmed),
	}, nil
}

// GetTransaction retrieves the settlement for a booking.
func (s *SettlementService) GetTransaction(ctx context.Context, actor Actor, bookingID uuid.UUID) (*TransactionDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(bk.CustomerID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	txn, err := s.transactions.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	result := toTransactionDTO(txn)
	return &result, nil
}

// ListAllTransactions returns a paginated list of all settlements (admin).
func (s *SettlementService) ListAllTransactions(ctx context.Context, actor Actor, page, limit int) ([]TransactionDTO, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, domain.NewForbiddenError("admin role required")
	}

	txns, total, err := s.transactions.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	dtos := make([]TransactionDTO, len(txns))
	for i, txn := range txns {
		dtos[i] = toTransactionDTO(txn)
	}
	return dtos, total, nil
}

func toTransactionDTO(t *bookingDomain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID(),
		BookingID:   t.BookingID(),
		AmountCents: t.AmountCents(),
		Method:      string(t.Method()),
		PaidAt:      t.PaidAt(),
	}
}

func (s *SettlementService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
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
