package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

func seedHospital(t *testing.T, store *repository.Store) *model.Hospital {
	t.Helper()
	h := &model.Hospital{Name: "General " + uuid.NewString()[:8]}
	require.NoError(t, store.Hospitals.Create(context.Background(), h))
	return h
}

func TestHospitalUniqueName(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	h := seedHospital(t, store)
	assert.NotEqual(t, uuid.Nil, h.ID)

	err := store.Hospitals.Create(ctx, &model.Hospital{Name: h.Name})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := store.Hospitals.GetByName(ctx, h.Name)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)

	_, err = store.Hospitals.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	h := seedHospital(t, store)

	bed := &model.Bed{BedNumber: "B-1", BedType: model.BedTypeICU, Status: model.BedStatusAvailable, HospitalID: h.ID}
	require.NoError(t, store.Beds.Create(ctx, bed))

	bed.Status = model.BedStatusMaintenance
	got, err := store.Beds.Get(ctx, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedStatusAvailable, got.Status)

	got.BedNumber = "changed"
	again, err := store.Beds.Get(ctx, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, "B-1", again.BedNumber)
}

func TestBedConditionalWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	h := seedHospital(t, store)

	bed := &model.Bed{BedNumber: "B-1", BedType: model.BedTypeGeneral, Status: model.BedStatusAvailable, HospitalID: h.ID}
	require.NoError(t, store.Beds.Create(ctx, bed))
	assert.ErrorIs(t, store.Beds.Create(ctx, &model.Bed{BedNumber: "B-1", HospitalID: h.ID}), repository.ErrDuplicate)

	occupied := bed.Clone()
	occupied.Occupy(model.BedAssignment{PatientName: "Jane", PatientContact: "555"}, time.Now())
	require.NoError(t, store.Beds.Update(ctx, occupied, model.BedStatusAvailable))

	again := bed.Clone()
	again.Occupy(model.BedAssignment{PatientName: "John", PatientContact: "556"}, time.Now())
	assert.ErrorIs(t, store.Beds.Update(ctx, again, model.BedStatusAvailable), repository.ErrStateChanged)

	assert.ErrorIs(t, store.Beds.Delete(ctx, bed.ID, model.BedStatusAvailable), repository.ErrStateChanged)
	assert.ErrorIs(t, store.Beds.Delete(ctx, uuid.New(), model.BedStatusAvailable), repository.ErrNotFound)

	total, err := store.Beds.CountByHospital(ctx, h.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	avail, err := store.Beds.CountByHospital(ctx, h.ID, model.BedStatusAvailable)
	require.NoError(t, err)
	assert.EqualValues(t, 0, avail)
}

func TestAmbulanceUniqueDriver(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	h := seedHospital(t, store)
	driver := uuid.New()

	first := &model.Ambulance{VehicleNumber: "AMB-1", Status: model.AmbulanceStatusAvailable, DriverID: &driver, HospitalID: &h.ID}
	require.NoError(t, store.Ambulances.Create(ctx, first))

	second := &model.Ambulance{VehicleNumber: "AMB-2", Status: model.AmbulanceStatusAvailable, DriverID: &driver, HospitalID: &h.ID}
	assert.ErrorIs(t, store.Ambulances.Create(ctx, second), repository.ErrDuplicate)

	got, err := store.Ambulances.GetByDriver(ctx, driver)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	maint := &model.Ambulance{VehicleNumber: "AMB-3", Status: model.AmbulanceStatusMaintenance, HospitalID: &h.ID}
	require.NoError(t, store.Ambulances.Create(ctx, maint))
	n, err := store.Ambulances.CountInService(ctx, h.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserDeleteDetachesAndCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	h := seedHospital(t, store)

	driver := &model.User{Name: "Dee", Email: "dee@example.com", Role: model.RoleAmbulanceDriver, HospitalID: &h.ID}
	nurse := &model.User{Name: "Nia", Email: "nia@example.com", Role: model.RoleNurse, HospitalID: &h.ID}
	require.NoError(t, store.Users.Create(ctx, driver))
	require.NoError(t, store.Users.Create(ctx, nurse))
	assert.ErrorIs(t, store.Users.Create(ctx, &model.User{Email: "DEE@example.com"}), repository.ErrDuplicate)

	amb := &model.Ambulance{VehicleNumber: "AMB-1", DriverID: &driver.ID, HospitalID: &h.ID}
	require.NoError(t, store.Ambulances.Create(ctx, amb))
	bed := &model.Bed{BedNumber: "B-1", Status: model.BedStatusOccupied, NurseID: &nurse.ID, HospitalID: h.ID}
	require.NoError(t, store.Beds.Create(ctx, bed))
	require.NoError(t, store.WorkHours.Create(ctx, &model.WorkHour{UserID: nurse.ID, WorkDate: model.Today()}))

	require.NoError(t, store.Users.Delete(ctx, driver.ID))
	require.NoError(t, store.Users.Delete(ctx, nurse.ID))

	gotAmb, err := store.Ambulances.Get(ctx, amb.ID)
	require.NoError(t, err)
	assert.Nil(t, gotAmb.DriverID)

	gotBed, err := store.Beds.Get(ctx, bed.ID)
	require.NoError(t, err)
	assert.Nil(t, gotBed.NurseID)

	_, err = store.WorkHours.GetByUserAndDate(ctx, nurse.ID, model.Today())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Users.Delete(ctx, nurse.ID), repository.ErrNotFound)
}

func TestWorkHourRange(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := &model.User{Name: "Doc", Email: "doc@example.com", Role: model.RoleDoctor}
	require.NoError(t, store.Users.Create(ctx, user))

	day := model.NewDate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.WorkHours.Create(ctx, &model.WorkHour{UserID: user.ID, WorkDate: day.AddDays(i)}))
	}
	err := store.WorkHours.Create(ctx, &model.WorkHour{UserID: user.ID, WorkDate: day})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := store.WorkHours.ListByUserInRange(ctx, user.ID, day.AddDays(1), day.AddDays(3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-05-11", got[0].WorkDate.String())
	assert.Equal(t, "2024-05-13", got[2].WorkDate.String())

	reversed, err := store.WorkHours.ListByUserInRange(ctx, user.ID, day.AddDays(3), day.AddDays(1))
	require.NoError(t, err)
	assert.Empty(t, reversed)
}

func TestClearExpiredCodes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	u := &model.User{Name: "A", Email: "a@example.com", Role: model.RoleDoctor}
	u.SetVerificationCode("111111", time.Now().Add(-time.Hour))
	require.NoError(t, store.Users.Create(ctx, u))

	n, err := store.Users.ClearExpiredCodes(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = store.Users.GetByVerificationCode(ctx, "111111")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
