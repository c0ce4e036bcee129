package hospital

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/internal/repository/memory"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

var admin = model.Principal{UserID: uuid.New(), Role: model.RoleHospitalAdmin}

func setup(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, time.Minute, logger.Nop()), store
}

func seedHospital(t *testing.T, store *repository.Store, beds map[model.BedStatus]int) *model.Hospital {
	t.Helper()
	ctx := context.Background()
	h := &model.Hospital{Name: "St. Mary"}
	require.NoError(t, store.Hospitals.Create(ctx, h))

	n := 0
	for status, count := range beds {
		for i := 0; i < count; i++ {
			n++
			require.NoError(t, store.Beds.Create(ctx, &model.Bed{
				BedNumber:  fmt.Sprintf("B-%d", n),
				BedType:    model.BedTypeGeneral,
				Status:     status,
				HospitalID: h.ID,
			}))
		}
	}
	return h
}

func TestStats(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	h := seedHospital(t, store, map[model.BedStatus]int{
		model.BedStatusAvailable:   4,
		model.BedStatusOccupied:    5,
		model.BedStatusMaintenance: 1,
	})

	users := []struct {
		email string
		role  model.Role
	}{
		{"d1@example.com", model.RoleDoctor},
		{"d2@example.com", model.RoleDoctor},
		{"n1@example.com", model.RoleNurse},
		{"r1@example.com", model.RoleAmbulanceDriver},
		{"a1@example.com", model.RoleHospitalAdmin},
	}
	for _, u := range users {
		require.NoError(t, store.Users.Create(ctx, &model.User{Name: u.email, Email: u.email, Role: u.role, HospitalID: &h.ID}))
	}

	require.NoError(t, store.Ambulances.Create(ctx, &model.Ambulance{VehicleNumber: "A-1", Status: model.AmbulanceStatusAvailable, HospitalID: &h.ID}))
	require.NoError(t, store.Ambulances.Create(ctx, &model.Ambulance{VehicleNumber: "A-2", Status: model.AmbulanceStatusDispatched, HospitalID: &h.ID}))
	require.NoError(t, store.Ambulances.Create(ctx, &model.Ambulance{VehicleNumber: "A-3", Status: model.AmbulanceStatusMaintenance, HospitalID: &h.ID}))

	stats, err := svc.Stats(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HospitalStats{
		TotalBeds:     10,
		AvailableBeds: 4,
		OccupiedBeds:  6,
		Doctors:       2,
		Nurses:        1,
		Drivers:       1,
		Ambulances:    2,
	}, *stats)

	_, err = svc.Stats(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateAndUpdate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	h, err := svc.Create(ctx, admin, model.CreateHospitalRequest{Name: " City General ", Address: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, "City General", h.Name)

	other, err := svc.Create(ctx, admin, model.CreateHospitalRequest{Name: "Riverside"})
	require.NoError(t, err)

	t.Run("duplicate name ignores case", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, model.CreateHospitalRequest{Name: "city general"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "hospital with this name already exists", apperrors.MessageOf(err))
	})

	t.Run("update refreshes cached lookup", func(t *testing.T) {
		_, err := svc.Get(ctx, h.ID)
		require.NoError(t, err)

		_, err = svc.Update(ctx, admin, h.ID, model.CreateHospitalRequest{Name: "City General", Phone: "555-0199"})
		require.NoError(t, err)

		got, err := svc.Get(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0199", got.Phone)
	})

	t.Run("update to taken name", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, other.ID, model.CreateHospitalRequest{Name: "City General"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("update unknown", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, uuid.New(), model.CreateHospitalRequest{Name: "Nowhere"})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSyncCounters(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	h := seedHospital(t, store, map[model.BedStatus]int{
		model.BedStatusAvailable: 3,
		model.BedStatusOccupied:  2,
	})

	synced, err := svc.SyncCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	got, err := svc.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalBeds)
	assert.Equal(t, 3, got.AvailableBeds)

	synced, err = svc.SyncCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, synced)
}
