package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/service-reservation/internal/application"
	"github.com/swiftbus/service-reservation/pkg/domain"
)

func busRequest() application.CreateBusRequest {
	departure := time.Now().UTC().Add(24 * time.Hour)
	return application.CreateBusRequest{
		Capacity:    40,
		FareCents:   150000,
		Route:       "Nairobi - Mombasa",
		DepartureAt: departure,
		ArrivalAt:   departure.Add(8 * time.Hour),
	}
}

func TestCreateBus(t *testing.T) {
	env := newTestEnv(t)

	dto, err := env.fleet.CreateBus(context.Background(), adminActor(), busRequest())
	require.NoError(t, err)
	assert.Equal(t, 40, dto.Capacity)
	assert.True(t, dto.Available)

	fetched, err := env.fleet.GetBus(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, fetched.ID)
}

func TestCreateBus_AdminOnly(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.fleet.CreateBus(context.Background(), customerActor(), busRequest())
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestCreateBus_Validation(t *testing.T) {
	env := newTestEnv(t)

	req := busRequest()
	req.ArrivalAt = req.DepartureAt.Add(-time.Hour)
	_, err := env.fleet.CreateBus(context.Background(), adminActor(), req)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBus_PartialFields(t *testing.T) {
	env := newTestEnv(t)
	admin := adminActor()

	dto, err := env.fleet.CreateBus(context.Background(), admin, busRequest())
	require.NoError(t, err)

	newFare := int64(175000)
	unavailable := false
	updated, err := env.fleet.UpdateBus(context.Background(), admin, dto.ID, application.UpdateBusRequest{
		FareCents: &newFare,
		Available: &unavailable,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(175000), updated.FareCents)
	assert.False(t, updated.Available)
	assert.Equal(t, dto.Route, updated.Route, "unset fields are untouched")
	assert.Equal(t, dto.Version+1, updated.Version)
}

func TestAssignDriver(t *testing.T) {
	env := newTestEnv(t)
	admin := adminActor()

	dto, err := env.fleet.CreateBus(context.Background(), admin, busRequest())
	require.NoError(t, err)

	driverID := uuid.New()
	updated, err := env.fleet.AssignDriver(context.Background(), admin, dto.ID, driverID)
	require.NoError(t, err)
	require.NotNil(t, updated.DriverID)
	assert.Equal(t, driverID, *updated.DriverID)
}

func TestDeleteBus(t *testing.T) {
	env := newTestEnv(t)
	admin := adminActor()

	dto, err := env.fleet.CreateBus(context.Background(), admin, busRequest())
	require.NoError(t, err)

	require.NoError(t, env.fleet.DeleteBus(context.Background(), admin, dto.ID))

	_, err = env.fleet.GetBus(context.Background(), dto.ID)
	assert.True(t, domain.IsNotFound(err))

	err = env.fleet.DeleteBus(context.Background(), admin, dto.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestListAvailableBuses_ExcludesRetired(t *testing.T) {
	env := newTestEnv(t)
	admin := adminActor()

	open, err := env.fleet.CreateBus(context.Background(), admin, busRequest())
	require.NoError(t, err)

	retired, err := env.fleet.CreateBus(context.Background(), admin, busRequest())
	require.NoError(t, err)
	unavailable := false
	_, err = env.fleet.UpdateBus(context.Background(), admin, retired.ID, application.UpdateBusRequest{
		Available: &unavailable,
	})
	require.NoError(t, err)

	visible, err := env.fleet.ListAvailableBuses(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, visible.Items, 1)
	assert.Equal(t, open.ID, visible.Items[0].ID)

	all, err := env.fleet.ListAllBuses(context.Background(), admin, 1, 20)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}
