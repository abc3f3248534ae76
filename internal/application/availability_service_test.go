package application_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/service-reservation/internal/application"
	busDomain "github.com/swiftbus/service-reservation/internal/domain/bus"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

func TestAvailableSeats_Ascending(t *testing.T) {
	env := newTestEnv(t)
	bus := env.seedBus(t, 6, 500, "A - B")
	actor := customerActor()

	for _, seat := range []int{5, 2} {
		_, err := env.bookings.ReserveSeat(context.Background(), actor, application.ReserveSeatRequest{
			BusID:      bus.ID(),
			SeatNumber: seat,
		})
		require.NoError(t, err)
	}

	seats, err := env.availability.AvailableSeats(context.Background(), bus.ID())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 4, 6}, seats.AvailableSeats)
	assert.Equal(t, []int{2, 5}, seats.TakenSeats)
	assert.True(t, sort.IntsAreSorted(seats.AvailableSeats))
	assert.Equal(t, 6, seats.Capacity)
}

func TestAvailableSeats_ConfirmedStillHeld(t *testing.T) {
	env := newTestEnv(t)
	bus := env.seedBus(t, 4, 500, "A - B")
	actor := customerActor()

	dto, err := env.bookings.ReserveSeat(context.Background(), actor, application.ReserveSeatRequest{
		BusID:      bus.ID(),
		SeatNumber: 1,
	})
	require.NoError(t, err)

	_, err = env.settlements.Settle(context.Background(), actor, dto.ID, application.SettleRequest{
		AmountCents: 500,
		Method:      "card",
	})
	require.NoError(t, err)

	seats, err := env.availability.AvailableSeats(context.Background(), bus.ID())
	require.NoError(t, err)
	assert.NotContains(t, seats.AvailableSeats, 1, "a confirmed booking still holds its seat")
}

func TestAvailableSeats_AfterCancel(t *testing.T) {
	env := newTestEnv(t)
	bus := env.seedBus(t, 4, 500, "A - B")
	actor := customerActor()

	dto, err := env.bookings.ReserveSeat(context.Background(), actor, application.ReserveSeatRequest{
		BusID:      bus.ID(),
		SeatNumber: 3,
	})
	require.NoError(t, err)

	_, err = env.bookings.CancelBooking(context.Background(), actor, dto.ID, "")
	require.NoError(t, err)

	seats, err := env.availability.AvailableSeats(context.Background(), bus.ID())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seats.AvailableSeats)
	assert.Empty(t, seats.TakenSeats)
}

func TestAvailableSeats_BusNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.availability.AvailableSeats(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestSearchBuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	save := func(route string, departure time.Time, available bool) *busDomain.Bus {
		b, err := busDomain.NewBus(30, 120000, route, departure, departure.Add(7*time.Hour))
		require.NoError(t, err)
		if !available {
			b.SetAvailability(false)
		}
		require.NoError(t, env.buses.Save(ctx, b))
		return b
	}

	match := save("Nairobi - Mombasa", day.Add(9*time.Hour), true)
	save("Nairobi - Kisumu", day.Add(10*time.Hour), true)           // wrong destination
	save("Nairobi - Mombasa", day.Add(48*time.Hour), true)          // wrong date
	save("Nairobi - Mombasa", day.Add(14*time.Hour), false)         // not open for booking
	late := save("NAIROBI express - MOMBASA", day.Add(18*time.Hour), true)

	results, err := env.availability.SearchBuses(ctx, day, "nairobi", "mombasa")
	require.NoError(t, err)

	require.Len(t, results, 2, "route match is case-insensitive and date-bound")
	assert.Equal(t, match.ID(), results[0].Bus.ID, "soonest departure first")
	assert.Equal(t, late.ID(), results[1].Bus.ID)
	assert.Equal(t, 30, results[0].AvailableSeats)
}

func TestSearchBuses_ReflectsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	b, err := busDomain.NewBus(30, 120000, "Nakuru - Eldoret", day.Add(8*time.Hour), day.Add(12*time.Hour))
	require.NoError(t, err)
	require.NoError(t, env.buses.Save(ctx, b))

	_, err = env.bookings.ReserveSeats(ctx, customerActor(), application.ReserveSeatsRequest{
		BusID:       b.ID(),
		SeatNumbers: []int{1, 2, 3},
	})
	require.NoError(t, err)

	results, err := env.availability.SearchBuses(ctx, day, "nakuru", "eldoret")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 27, results[0].AvailableSeats, "headroom reflects the reservation just made")
}
