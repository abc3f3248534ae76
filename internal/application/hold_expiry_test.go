package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swiftbus/service-reservation/internal/application"
	bookingDomain "github.com/swiftbus/service-reservation/internal/domain/booking"
)

// seedAgedPending plants a pending booking whose creation time lies in the past.
func seedAgedPending(t *testing.T, env *testEnv, busID uuid.UUID, seat int, age time.Duration) *bookingDomain.Booking {
	t.Helper()
	created := time.Now().UTC().Add(-age)
	bk := bookingDomain.ReconstructBooking(
		uuid.New(), "BR-AGED01", uuid.New(), busID, seat,
		bookingDomain.StatusPending, 500, nil, "", 1, created, created,
	)
	require.NoError(t, env.store.Claim(context.Background(), busID, []*bookingDomain.Booking{bk}))
	return bk
}

func TestHoldExpirySweep(t *testing.T) {
	env := newTestEnv(t)
	bus := env.seedBus(t, 40, 500, "A - B")

	stale := seedAgedPending(t, env, bus.ID(), 5, time.Hour)
	fresh := seedAgedPending(t, env, bus.ID(), 6, time.Minute)

	sweeper := application.NewHoldExpirySweeper(env.store, env.store, nil, 30*time.Minute, zap.NewNop())
	expired, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, bookingDomain.StatusCanceled, stale.Status())
	assert.Equal(t, bookingDomain.StatusPending, fresh.Status())

	seats, err := env.availability.AvailableSeats(context.Background(), bus.ID())
	require.NoError(t, err)
	assert.Contains(t, seats.AvailableSeats, 5, "expired hold frees its seat")
	assert.NotContains(t, seats.AvailableSeats, 6)
}

func TestHoldExpirySweep_SkipsConfirmed(t *testing.T) {
	env := newTestEnv(t)
	bus := env.seedBus(t, 40, 500, "A - B")
	actor := customerActor()

	dto, err := env.bookings.ReserveSeat(context.Background(), actor, application.ReserveSeatRequest{
		BusID:      bus.ID(),
		SeatNumber: 7,
	})
	require.NoError(t, err)
	_, err = env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 500,
		Method:      "card",
	})
	require.NoError(t, err)

	// Even with an aggressive TTL, a settled booking is never expired.
	sweeper := application.NewHoldExpirySweeper(env.store, env.store, nil, time.Nanosecond, zap.NewNop())
	expired, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	kept, err := env.bookings.GetBooking(context.Background(), actor, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", kept.Status)
}

func TestHoldExpiryRun_DisabledWithZeroTTL(t *testing.T) {
	env := newTestEnv(t)

	sweeper := application.NewHoldExpirySweeper(env.store, env.store, nil, 0, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper should return immediately when disabled")
	}
}
