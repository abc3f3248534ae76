package bus

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/service-reservation/pkg/domain"
)

func validSchedule() (time.Time, time.Time) {
	departure := time.Now().UTC().Add(24 * time.Hour)
	return departure, departure.Add(8 * time.Hour)
}

func TestNewBus(t *testing.T) {
	departure, arrival := validSchedule()

	b, err := NewBus(40, 150000, "Nairobi - Mombasa", departure, arrival)
	require.NoError(t, err)

	assert.Equal(t, 40, b.Capacity())
	assert.Equal(t, int64(150000), b.FareCents())
	assert.True(t, b.Available())
	assert.Equal(t, int64(1), b.Version())
	assert.Equal(t, 8*time.Hour, b.TravelTime())
}

func TestNewBus_Validation(t *testing.T) {
	departure, arrival := validSchedule()

	tests := []struct {
		name      string
		capacity  int
		fare      int64
		route     string
		departure time.Time
		arrival   time.Time
	}{
		{"zero capacity", 0, 100, "A - B", departure, arrival},
		{"negative fare", 10, -1, "A - B", departure, arrival},
		{"empty route", 10, 100, "", departure, arrival},
		{"arrival before departure", 10, 100, "A - B", arrival, departure},
		{"arrival equals departure", 10, 100, "A - B", departure, departure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBus(tt.capacity, tt.fare, tt.route, tt.departure, tt.arrival)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestBus_HasSeat(t *testing.T) {
	departure, arrival := validSchedule()
	b, err := NewBus(10, 100, "A - B", departure, arrival)
	require.NoError(t, err)

	assert.True(t, b.HasSeat(1))
	assert.True(t, b.HasSeat(10))
	assert.False(t, b.HasSeat(0))
	assert.False(t, b.HasSeat(11))
}

func TestBus_Reschedule(t *testing.T) {
	departure, arrival := validSchedule()
	b, err := NewBus(10, 100, "A - B", departure, arrival)
	require.NoError(t, err)

	newDeparture := departure.Add(48 * time.Hour)
	require.NoError(t, b.Reschedule(newDeparture, newDeparture.Add(6*time.Hour)))
	assert.Equal(t, newDeparture, b.DepartureAt())

	err = b.Reschedule(newDeparture, newDeparture.Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestBus_AssignDriver(t *testing.T) {
	departure, arrival := validSchedule()
	b, err := NewBus(10, 100, "A - B", departure, arrival)
	require.NoError(t, err)
	require.Nil(t, b.DriverID())

	driverID := uuid.New()
	require.NoError(t, b.AssignDriver(driverID))
	require.NotNil(t, b.DriverID())
	assert.Equal(t, driverID, *b.DriverID())

	err = b.AssignDriver(uuid.Nil)
	assert.True(t, domain.IsValidation(err))
}

func TestBus_SettersValidate(t *testing.T) {
	departure, arrival := validSchedule()
	b, err := NewBus(10, 100, "A - B", departure, arrival)
	require.NoError(t, err)

	assert.True(t, domain.IsValidation(b.SetCapacity(0)))
	assert.True(t, domain.IsValidation(b.SetFare(-5)))
	assert.True(t, domain.IsValidation(b.SetRoute("")))

	require.NoError(t, b.SetCapacity(20))
	require.NoError(t, b.SetFare(200))
	require.NoError(t, b.SetRoute("A - C"))
	assert.Equal(t, 20, b.Capacity())
	assert.Equal(t, int64(200), b.FareCents())
	assert.Equal(t, "A - C", b.Route())
}
