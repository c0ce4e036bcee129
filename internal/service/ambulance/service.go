package ambulance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/lock"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/validator"
)

const (
	msgDuplicateVehicle = "ambulance with this vehicle number already exists"
	msgDriverTaken      = "driver is already assigned to another ambulance"
	msgNoDriverVehicle  = "ambulance not found for driver"
)

// errReassigned reports that the driver lost the ambulance between the
// lookup and the lock.
var errReassigned = errors.New("driver reassigned")

type AmbulanceServicer interface {
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Ambulance, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Ambulance, error)
	GetByDriver(ctx context.Context, driverID uuid.UUID) (*model.Ambulance, error)
	UpdateLocation(ctx context.Context, principal model.Principal, update model.LocationUpdate) (*model.Ambulance, error)
	Create(ctx context.Context, actor model.Principal, req model.CreateAmbulanceRequest) (*model.Ambulance, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.UpdateAmbulanceRequest) (*model.Ambulance, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

// Service tracks ambulance status and position. Status is a free-form
// label; every accepted driver update is fanned out to the hospital topic.
type Service struct {
	ambulances repository.AmbulanceRepository
	hospitals  repository.HospitalRepository
	users      repository.UserRepository
	locker     lock.Locker
	notifier   notification.Service
	validator  validator.Validator
	log        *logger.Logger
	metrics    *metrics.Metrics
}

func NewService(store *repository.Store, locker lock.Locker, notifier notification.Service, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		ambulances: store.Ambulances,
		hospitals:  store.Hospitals,
		users:      store.Users,
		locker:     locker,
		notifier:   notifier,
		validator:  validator.New(),
		log:        log.WithFields(map[string]interface{}{"component": "ambulance"}),
		metrics:    m,
	}
}

func (s *Service) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Ambulance, error) {
	ambulances, err := s.ambulances.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list ambulances: %w", err))
	}
	return ambulances, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Ambulance, error) {
	ambulance, err := s.ambulances.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("ambulance", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get ambulance: %w", err))
	}
	return ambulance, nil
}

func (s *Service) GetByDriver(ctx context.Context, driverID uuid.UUID) (*model.Ambulance, error) {
	ambulance, err := s.ambulances.GetByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundMessage(msgNoDriverVehicle, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get driver ambulance: %w", err))
	}
	return ambulance, nil
}

// UpdateLocation merges a driver report into the driver's ambulance and
// queues the merged record for the hospital topic while still holding the
// ambulance lock, so emissions follow commit order. A driver reassigned
// between lookup and lock is looked up once more.
func (s *Service) UpdateLocation(ctx context.Context, principal model.Principal, update model.LocationUpdate) (*model.Ambulance, error) {
	if err := s.validator.Validate(update); err != nil {
		return nil, err
	}

	updated, err := s.applyReport(ctx, principal, update)
	if errors.Is(err, errReassigned) {
		updated, err = s.applyReport(ctx, principal, update)
	}
	if errors.Is(err, errReassigned) {
		return nil, apperrors.NewNotFoundMessage(msgNoDriverVehicle, err)
	}
	if err != nil {
		return nil, err
	}

	s.log.Debug("Ambulance location updated",
		"ambulance_id", updated.ID.String(),
		"status", string(updated.Status),
		"actor", principal.Actor())
	return updated, nil
}

func (s *Service) applyReport(ctx context.Context, principal model.Principal, update model.LocationUpdate) (*model.Ambulance, error) {
	owned, err := s.GetByDriver(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	var updated *model.Ambulance
	err = s.locker.WithLock(ctx, lock.Key("ambulance", owned.ID), func(ctx context.Context) error {
		ambulance, err := s.Get(ctx, owned.ID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return errReassigned
			}
			return err
		}
		if ambulance.DriverID == nil || *ambulance.DriverID != principal.UserID {
			return errReassigned
		}

		ambulance.Apply(update)
		if err := s.ambulances.Update(ctx, ambulance); err != nil {
			return s.translateWrite(err)
		}

		s.metrics.AmbulanceUpdates.Inc()
		s.notifier.AmbulanceUpdated(ambulance)
		updated = ambulance
		return nil
	})
	if errors.Is(err, errReassigned) {
		return nil, err
	}
	if err != nil {
		return nil, lockError(err)
	}
	return updated, nil
}

func (s *Service) Create(ctx context.Context, actor model.Principal, req model.CreateAmbulanceRequest) (*model.Ambulance, error) {
	req.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkVehicleNumber(ctx, req.VehicleNumber, uuid.Nil); err != nil {
		return nil, err
	}

	if _, err := s.hospitals.Get(ctx, req.HospitalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
	}

	if req.DriverID != nil {
		if err := s.checkDriver(ctx, *req.DriverID, uuid.Nil); err != nil {
			return nil, err
		}
	}

	status := req.Status
	if status == "" {
		status = model.AmbulanceStatusAvailable
	}
	hospitalID := req.HospitalID
	ambulance := &model.Ambulance{
		VehicleNumber: req.VehicleNumber,
		Status:        status,
		DriverID:      req.DriverID,
		HospitalID:    &hospitalID,
	}

	if err := s.ambulances.Create(ctx, ambulance); err != nil {
		return nil, s.translateWrite(err)
	}

	s.log.Info("Ambulance created", "ambulance_id", ambulance.ID.String(), "vehicle_number", ambulance.VehicleNumber, "actor", actor.Actor())
	return ambulance, nil
}

func (s *Service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.UpdateAmbulanceRequest) (*model.Ambulance, error) {
	req.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *model.Ambulance
	err := s.locker.WithLock(ctx, lock.Key("ambulance", id), func(ctx context.Context) error {
		ambulance, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		if req.VehicleNumber != ambulance.VehicleNumber {
			if err := s.checkVehicleNumber(ctx, req.VehicleNumber, id); err != nil {
				return err
			}
		}
		if req.DriverID != nil {
			if err := s.checkDriver(ctx, *req.DriverID, id); err != nil {
				return err
			}
			ambulance.DriverID = req.DriverID
		}
		ambulance.VehicleNumber = req.VehicleNumber
		ambulance.Status = req.Status

		if err := s.ambulances.Update(ctx, ambulance); err != nil {
			return s.translateWrite(err)
		}
		updated = ambulance
		return nil
	})
	if err != nil {
		return nil, lockError(err)
	}

	s.log.Info("Ambulance updated", "ambulance_id", id.String(), "actor", actor.Actor())
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := s.ambulances.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("ambulance", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to delete ambulance: %w", err))
	}

	s.log.Info("Ambulance deleted", "ambulance_id", id.String(), "actor", actor.Actor())
	return nil
}

// checkVehicleNumber rejects a vehicle number owned by an ambulance other
// than self.
func (s *Service) checkVehicleNumber(ctx context.Context, vehicleNumber string, self uuid.UUID) error {
	existing, err := s.ambulances.GetByVehicleNumber(ctx, vehicleNumber)
	if err == nil {
		if existing.ID != self {
			return apperrors.Conflict(msgDuplicateVehicle)
		}
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return apperrors.Internal(fmt.Errorf("failed to check vehicle number: %w", err))
}

// checkDriver verifies driverID is an ambulance driver who does not already
// own an ambulance other than self.
func (s *Service) checkDriver(ctx context.Context, driverID, self uuid.UUID) error {
	driver, err := s.users.Get(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("driver", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to get driver: %w", err))
	}
	if driver.Role != model.RoleAmbulanceDriver {
		return apperrors.Validation("user is not an ambulance driver")
	}

	owned, err := s.ambulances.GetByDriver(ctx, driverID)
	if err == nil {
		if owned.ID != self {
			return apperrors.Conflict(msgDriverTaken)
		}
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return apperrors.Internal(fmt.Errorf("failed to check driver assignment: %w", err))
}

func (s *Service) translateWrite(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("ambulance vehicle number or driver already in use", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("ambulance", err)
	}
	return apperrors.Internal(fmt.Errorf("failed to save ambulance: %w", err))
}

func lockError(err error) error {
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return apperrors.NewConflict("ambulance is busy, try again", err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(err)
}
