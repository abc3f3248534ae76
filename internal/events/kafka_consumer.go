package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/swiftbus/service-reservation/pkg/domain"
	"github.com/swiftbus/service-reservation/pkg/kafka"
)

// SettlementRecorder is the slice of the settlement service the consumer
// needs: record a payment against a booking.
type SettlementRecorder interface {
	RecordFromPayment(ctx context.Context, evt PaymentSucceededEvent) error
}

// PaymentEventConsumer listens to payment events and records settlements.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	recorder SettlementRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	recorder SettlementRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentSucceeded:
		return c.handlePaymentSucceeded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PaymentSucceededEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentSucceededEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment succeeded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.Int64("amount_cents", evt.AmountCents),
	)

	if err := c.recorder.RecordFromPayment(ctx, evt); err != nil {
		// A booking that no longer exists or already left pending cannot be
		// settled by a redelivery either; commit the offset and move on.
		if domain.IsNotFound(err) || domain.IsInvalidState(err) || domain.IsValidation(err) {
			c.logger.Warn("payment event not settleable",
				zap.String("booking_id", evt.BookingID.String()),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to record settlement from payment event",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("booking confirmed from payment event",
		zap.String("booking_id", evt.BookingID.String()),
	)
	return nil
}
