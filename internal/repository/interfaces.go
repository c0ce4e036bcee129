package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStateChanged is returned by conditional writes whose expected
	// status no longer matches the stored one.
	ErrStateChanged = errors.New("record state changed")
)

// All repository interfaces in one file
type (
	HospitalRepository interface {
		Create(ctx context.Context, hospital *model.Hospital) error
		Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
		GetByName(ctx context.Context, name string) (*model.Hospital, error)
		Update(ctx context.Context, hospital *model.Hospital) error
		List(ctx context.Context) ([]*model.Hospital, error)
		UpdateCounters(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error
	}

	// UserRepository deletes cascade to work hours and detach the user
	// from beds and ambulances.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByVerificationCode(ctx context.Context, code string) (*model.User, error)
		GetByResetCode(ctx context.Context, code string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByHospital(ctx context.Context, hospitalID uuid.UUID, roles ...model.Role) ([]*model.User, error)
		CountByHospitalAndRole(ctx context.Context, hospitalID uuid.UUID, role model.Role) (int64, error)
		ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	}

	// BedRepository writes are conditional on the status the caller read.
	BedRepository interface {
		Create(ctx context.Context, bed *model.Bed) error
		Get(ctx context.Context, id uuid.UUID) (*model.Bed, error)
		GetByNumber(ctx context.Context, bedNumber string) (*model.Bed, error)
		ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Bed, error)
		Update(ctx context.Context, bed *model.Bed, expected model.BedStatus) error
		Delete(ctx context.Context, id uuid.UUID, expected model.BedStatus) error
		CountByHospital(ctx context.Context, hospitalID uuid.UUID, statuses ...model.BedStatus) (int64, error)
	}

	AmbulanceRepository interface {
		Create(ctx context.Context, ambulance *model.Ambulance) error
		Get(ctx context.Context, id uuid.UUID) (*model.Ambulance, error)
		GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*model.Ambulance, error)
		GetByDriver(ctx context.Context, driverID uuid.UUID) (*model.Ambulance, error)
		ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Ambulance, error)
		Update(ctx context.Context, ambulance *model.Ambulance) error
		Delete(ctx context.Context, id uuid.UUID) error
		CountInService(ctx context.Context, hospitalID uuid.UUID) (int64, error)
	}

	WorkHourRepository interface {
		Create(ctx context.Context, workHour *model.WorkHour) error
		GetByUserAndDate(ctx context.Context, userID uuid.UUID, date model.Date) (*model.WorkHour, error)
		ListByUserInRange(ctx context.Context, userID uuid.UUID, start, end model.Date) ([]*model.WorkHour, error)
	}
)

// Store bundles the directory repositories of one backend.
type Store struct {
	Hospitals  HospitalRepository
	Users      UserRepository
	Beds       BedRepository
	Ambulances AmbulanceRepository
	WorkHours  WorkHourRepository

	// Ping reports backend health for readiness probes.
	Ping func(ctx context.Context) error
}
