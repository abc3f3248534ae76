package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/service-reservation/internal/application"
	reservationEvents "github.com/swiftbus/service-reservation/internal/events"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

func reservePending(t *testing.T, env *testEnv, actor application.Actor, fareCents int64) *application.BookingDTO {
	t.Helper()
	bus := env.seedBus(t, 40, fareCents, "Nairobi - Kisumu")
	dto, err := env.bookings.ReserveSeat(context.Background(), actor, application.ReserveSeatRequest{
		BusID:      bus.ID(),
		SeatNumber: 3,
	})
	require.NoError(t, err)
	return dto
}

func TestSettle(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	result, err := env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 150000,
		Method:      "card",
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", result.Booking.Status)
	assert.Equal(t, dto.ID, result.Transaction.BookingID)
	assert.Equal(t, int64(150000), result.Transaction.AmountCents)
	assert.Equal(t, "card", result.Transaction.Method)

	txn, err := env.settlements.GetTransaction(context.Background(), actor, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Transaction.ID, txn.ID)
}

func TestSettle_WrongAmount(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	for _, amount := range []int64{149999, 150001, 0} {
		_, err := env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
			AmountCents: amount,
			Method:      "card",
		})
		require.Error(t, err, "amount %d", amount)
		assert.True(t, domain.IsValidation(err))
	}

	// The booking is untouched by rejected settlements.
	kept, err := env.bookings.GetBooking(context.Background(), actor, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", kept.Status)
}

func TestSettle_NegativeAmount(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	_, err := env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: -150000,
		Method:      "card",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestSettle_InvalidMethod(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	_, err := env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 150000,
		Method:      "cheque",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestSettle_BookingNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.settlements.Settle(context.Background(), customerActor(), uuid.New(), application.SettleRequest{
		AmountCents: 100,
		Method:      "card",
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestSettle_Twice(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	req := application.SettleRequest{AmountCents: 150000, Method: "mpesa"}
	_, err := env.settlements.Settle(context.Background(), actor, dto.ID, req)
	require.NoError(t, err)

	_, err = env.settlements.Settle(context.Background(), actor, dto.ID, req)
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err))
}

func TestSettle_CanceledBooking(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	_, err := env.bookings.CancelBooking(context.Background(), actor, dto.ID, "")
	require.NoError(t, err)

	_, err = env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 150000,
		Method:      "card",
	})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidState(err))
}

func TestSettle_Forbidden(t *testing.T) {
	env := newTestEnv(t)
	dto := reservePending(t, env, customerActor(), 150000)

	_, err := env.settlements.Settle(context.Background(), customerActor(), dto.ID, application.SettleRequest{
		AmountCents: 150000,
		Method:      "card",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestRecordFromPayment(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 90000)

	err := env.settlements.RecordFromPayment(context.Background(), reservationEvents.PaymentSucceededEvent{
		BookingID:   dto.ID,
		AmountCents: 90000,
		Method:      "mpesa",
		OccurredAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	confirmed, err := env.bookings.GetBooking(context.Background(), actor, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
}

func TestListAllTransactions_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	actor := customerActor()
	dto := reservePending(t, env, actor, 150000)

	_, err := env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 150000,
		Method:      "paypal",
	})
	require.NoError(t, err)

	_, _, err = env.settlements.ListAllTransactions(context.Background(), actor, 1, 20)
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	txns, total, err := env.settlements.ListAllTransactions(context.Background(), adminActor(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, "paypal", txns[0].Method)
}
