package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
	"github.com/swiftbus/service-reservation/internal/events"
	"github.com/swiftbus/service-reservation/pkg/kafka"
)

const expiryBatchSize = 100

// HoldExpirySweeper cancels pending bookings that were never settled within
// the hold TTL. Expiry goes through the ledger's pending-only cancel, so a
// hold settled between the scan and the sweep is left untouched.
type HoldExpirySweeper struct {
	bookings bookingDomain.BookingRepository
	ledger   bookingDomain.SeatLedger
	producer *kafka.Producer
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewHoldExpirySweeper creates a sweeper. A TTL of zero disables it.
func NewHoldExpirySweeper(
	bookings bookingDomain.BookingRepository,
	ledger bookingDomain.SeatLedger,
	producer *kafka.Producer,
	ttl time.Duration,
	logger *zap.Logger,
) *HoldExpirySweeper {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &HoldExpirySweeper{
		bookings: bookings,
		ledger:   ledger,
		producer: producer,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps periodically until the context is canceled. It returns
// immediately when hold expiry is disabled.
func (s *HoldExpirySweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		s.logger.Info("hold expiry disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("hold expiry sweeper started",
		zap.Duration("ttl", s.ttl),
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("hold expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep expires one batch of stale holds and returns how many were canceled.
func (s *HoldExpirySweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.ttl)
	stale, err := s.bookings.FindExpiredPending(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, bk := range stale {
		ok, err := s.ledger.ExpireHold(ctx, bk.ID())
		if err != nil {
			s.logger.Error("failed to expire hold",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		expired++
		s.publishExpired(ctx, bk)
	}

	if expired > 0 {
		s.logger.Info("expired stale holds", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *HoldExpirySweeper) publishExpired(ctx context.Context, bk *bookingDomain.Booking) {
	if s.producer == nil {
		return
	}

	evt := events.HoldExpiredEvent{
		BookingID:  bk.ID(),
		BusID:      bk.BusID(),
		SeatNumber: bk.SeatNumber(),
		OccurredAt: time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", events.HoldExpired, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEventWithKey(ctx, events.TopicBookingEvents, bk.ID().String(), cloudEvent); err != nil {
		s.logger.Error("failed to publish hold expired event", zap.Error(err))
	}
}
