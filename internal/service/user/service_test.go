package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/internal/repository/memory"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/security"
)

var admin = model.Principal{UserID: uuid.New(), Role: model.RoleHospitalAdmin}

func setup(t *testing.T) (*Service, *repository.Store, *model.Hospital) {
	t.Helper()
	store := memory.NewStore()
	h := &model.Hospital{Name: "City General"}
	require.NoError(t, store.Hospitals.Create(context.Background(), h))
	return NewService(store, security.NewBcryptHasher(bcrypt.MinCost), logger.Nop()), store, h
}

func TestCreate(t *testing.T) {
	svc, _, h := setup(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, admin, model.CreateUserRequest{
		Name:       "Dr Who",
		Email:      "Doc@Example.com",
		Password:   "secret1",
		Role:       model.RoleDoctor,
		HospitalID: &h.ID,
	})
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, "doc@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, model.CreateUserRequest{Name: "Other", Email: "doc@example.com", Password: "secret1", Role: model.RoleNurse})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "email already exists", apperrors.MessageOf(err))
	})

	t.Run("unknown hospital", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Create(ctx, admin, model.CreateUserRequest{Name: "Other", Email: "x@example.com", Password: "secret1", Role: model.RoleNurse, HospitalID: &missing})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, model.CreateUserRequest{Name: "Other", Email: "y@example.com", Password: "123", Role: model.RoleNurse})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	svc, _, h := setup(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, admin, model.CreateUserRequest{Name: "Nurse Joy", Email: "joy@example.com", Password: "secret1", Role: model.RoleNurse})
	require.NoError(t, err)
	hash := u.PasswordHash

	updated, err := svc.Update(ctx, admin, u.ID, model.UpdateUserRequest{Name: "Joy", Role: model.RoleDoctor, HospitalID: &h.ID})
	require.NoError(t, err)
	assert.Equal(t, "Joy", updated.Name)
	assert.Equal(t, model.RoleDoctor, updated.Role)
	assert.Equal(t, hash, updated.PasswordHash)

	updated, err = svc.Update(ctx, admin, u.ID, model.UpdateUserRequest{Name: "Joy", Role: model.RoleDoctor, Password: "newsecret"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")))
	assert.Nil(t, updated.HospitalID)

	_, err = svc.Update(ctx, admin, uuid.New(), model.UpdateUserRequest{Name: "Ghost", Role: model.RoleNurse})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListStaffAndProfile(t *testing.T) {
	svc, _, h := setup(t)
	ctx := context.Background()

	for _, req := range []model.CreateUserRequest{
		{Name: "Admin", Email: "admin@example.com", Password: "secret1", Role: model.RoleHospitalAdmin, HospitalID: &h.ID},
		{Name: "Doctor", Email: "doctor@example.com", Password: "secret1", Role: model.RoleDoctor, HospitalID: &h.ID},
		{Name: "Driver", Email: "driver@example.com", Password: "secret1", Role: model.RoleAmbulanceDriver, HospitalID: &h.ID},
		{Name: "Elsewhere", Email: "else@example.com", Password: "secret1", Role: model.RoleNurse},
	} {
		_, err := svc.Create(ctx, admin, req)
		require.NoError(t, err)
	}

	staff, err := svc.ListStaff(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Doctor", staff[0].Name)
	assert.Equal(t, "Driver", staff[1].Name)

	profile, err := svc.Profile(ctx, model.Principal{UserID: staff[0].ID, Role: model.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, "City General", profile.HospitalName)
	assert.Equal(t, "doctor@example.com", profile.Email)
}

func TestDeleteDetachesUser(t *testing.T) {
	svc, store, h := setup(t)
	ctx := context.Background()

	doctor, err := svc.Create(ctx, admin, model.CreateUserRequest{Name: "Doctor", Email: "doctor@example.com", Password: "secret1", Role: model.RoleDoctor, HospitalID: &h.ID})
	require.NoError(t, err)

	bed := &model.Bed{BedNumber: "B-1", BedType: model.BedTypeGeneral, Status: model.BedStatusAvailable, HospitalID: h.ID}
	require.NoError(t, store.Beds.Create(ctx, bed))
	bed.Occupy(model.BedAssignment{PatientName: "Jane", PatientContact: "555", DoctorID: &doctor.ID}, bed.CreatedAt)
	require.NoError(t, store.Beds.Update(ctx, bed, model.BedStatusAvailable))

	require.NoError(t, svc.Delete(ctx, admin, doctor.ID))

	got, err := store.Beds.Get(ctx, bed.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DoctorID)
	assert.Equal(t, model.BedStatusOccupied, got.Status)

	err = svc.Delete(ctx, admin, doctor.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
