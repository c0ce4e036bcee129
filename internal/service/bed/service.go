package bed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/lock"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/validator"
)

const (
	msgDuplicateNumber = "bed with this number already exists"
	msgNotAvailable    = "bed is not available"
	msgNotOccupied     = "bed is not occupied"
	msgDeleteOccupied  = "cannot delete occupied bed"
	msgOccupancyChange = "bed occupancy can only change through assign or release"
)

type BedServicer interface {
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Bed, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Bed, error)
	Create(ctx context.Context, actor model.Principal, req model.CreateBedRequest) (*model.Bed, error)
	UpdateAttributes(ctx context.Context, actor model.Principal, id uuid.UUID, attrs model.BedAttributes) (*model.Bed, error)
	Assign(ctx context.Context, actor model.Principal, id uuid.UUID, assignment model.BedAssignment) (*model.Bed, error)
	Release(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Bed, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

// Service is the bed occupancy state machine. Assign is the only way into
// OCCUPIED and Release the only way out.
type Service struct {
	beds      repository.BedRepository
	hospitals repository.HospitalRepository
	users     repository.UserRepository
	locker    lock.Locker
	validator validator.Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(store *repository.Store, locker lock.Locker, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		beds:      store.Beds,
		hospitals: store.Hospitals,
		users:     store.Users,
		locker:    locker,
		validator: validator.New(),
		log:       log.WithFields(map[string]interface{}{"component": "bed"}),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Bed, error) {
	beds, err := s.beds.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list beds: %w", err))
	}
	return beds, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	bed, err := s.beds.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("bed", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get bed: %w", err))
	}
	return bed, nil
}

func (s *Service) Create(ctx context.Context, actor model.Principal, req model.CreateBedRequest) (*model.Bed, error) {
	req.BedNumber = strings.TrimSpace(req.BedNumber)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.beds.GetByNumber(ctx, req.BedNumber); err == nil {
		return nil, apperrors.Conflict(msgDuplicateNumber)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("failed to check bed number: %w", err))
	}

	if _, err := s.hospitals.Get(ctx, req.HospitalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
	}

	status := req.Status
	if status == "" {
		status = model.BedStatusAvailable
	}
	bed := &model.Bed{
		BedNumber:  req.BedNumber,
		BedType:    req.BedType,
		Status:     status,
		HospitalID: req.HospitalID,
	}

	if err := s.beds.Create(ctx, bed); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgDuplicateNumber, err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create bed: %w", err))
	}

	s.log.Info("Bed created", "bed_id", bed.ID.String(), "bed_number", bed.BedNumber, "actor", actor.Actor())
	return bed, nil
}

// UpdateAttributes is the admin override of type and status. It may move a
// bed between AVAILABLE and MAINTENANCE but never into or out of OCCUPIED.
func (s *Service) UpdateAttributes(ctx context.Context, actor model.Principal, id uuid.UUID, attrs model.BedAttributes) (*model.Bed, error) {
	if err := s.validator.Validate(attrs); err != nil {
		return nil, err
	}

	var updated *model.Bed
	err := s.locker.WithLock(ctx, lock.Key("bed", id), func(ctx context.Context) error {
		bed, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		from := bed.Status
		if (from == model.BedStatusOccupied) != (attrs.Status == model.BedStatusOccupied) {
			return apperrors.Conflict(msgOccupancyChange)
		}

		bed.BedType = attrs.BedType
		bed.Status = attrs.Status
		if err := s.save(ctx, bed, from, msgOccupancyChange); err != nil {
			return err
		}
		updated = bed
		return nil
	})
	if err != nil {
		return nil, s.lockError(err)
	}

	s.log.Info("Bed updated", "bed_id", id.String(), "status", string(updated.Status), "actor", actor.Actor())
	return updated, nil
}

func (s *Service) Assign(ctx context.Context, actor model.Principal, id uuid.UUID, assignment model.BedAssignment) (*model.Bed, error) {
	assignment.PatientName = strings.TrimSpace(assignment.PatientName)
	assignment.PatientContact = strings.TrimSpace(assignment.PatientContact)
	if err := s.validator.Validate(assignment); err != nil {
		return nil, err
	}

	var updated *model.Bed
	err := s.locker.WithLock(ctx, lock.Key("bed", id), func(ctx context.Context) error {
		bed, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if bed.Status != model.BedStatusAvailable {
			return apperrors.Conflict(msgNotAvailable)
		}

		if assignment.DoctorID != nil {
			if err := s.checkStaff(ctx, *assignment.DoctorID, model.RoleDoctor, "doctor"); err != nil {
				return err
			}
		}
		if assignment.NurseID != nil {
			if err := s.checkStaff(ctx, *assignment.NurseID, model.RoleNurse, "nurse"); err != nil {
				return err
			}
		}

		bed.Occupy(assignment, s.now())
		if err := s.save(ctx, bed, model.BedStatusAvailable, msgNotAvailable); err != nil {
			return err
		}
		updated = bed
		return nil
	})
	if err != nil {
		return nil, s.lockError(err)
	}

	s.log.Info("Bed assigned", "bed_id", id.String(), "actor", actor.Actor())
	return updated, nil
}

func (s *Service) Release(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.Bed, error) {
	var updated *model.Bed
	err := s.locker.WithLock(ctx, lock.Key("bed", id), func(ctx context.Context) error {
		bed, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if bed.Status != model.BedStatusOccupied {
			return apperrors.Conflict(msgNotOccupied)
		}

		bed.Vacate()
		if err := s.save(ctx, bed, model.BedStatusOccupied, msgNotOccupied); err != nil {
			return err
		}
		updated = bed
		return nil
	})
	if err != nil {
		return nil, s.lockError(err)
	}

	s.log.Info("Bed released", "bed_id", id.String(), "actor", actor.Actor())
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	err := s.locker.WithLock(ctx, lock.Key("bed", id), func(ctx context.Context) error {
		bed, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if bed.Status == model.BedStatusOccupied {
			return apperrors.Conflict(msgDeleteOccupied)
		}

		if err := s.beds.Delete(ctx, id, bed.Status); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return apperrors.NotFound("bed", err)
			case errors.Is(err, repository.ErrStateChanged):
				return apperrors.NewConflict(msgDeleteOccupied, err)
			}
			return apperrors.Internal(fmt.Errorf("failed to delete bed: %w", err))
		}
		return nil
	})
	if err != nil {
		return s.lockError(err)
	}

	s.log.Info("Bed deleted", "bed_id", id.String(), "actor", actor.Actor())
	return nil
}

// save persists bed only if its stored status is still from.
func (s *Service) save(ctx context.Context, bed *model.Bed, from model.BedStatus, conflictMsg string) error {
	if err := s.beds.Update(ctx, bed, from); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound("bed", err)
		case errors.Is(err, repository.ErrStateChanged):
			return apperrors.NewConflict(conflictMsg, err)
		}
		return apperrors.Internal(fmt.Errorf("failed to update bed: %w", err))
	}
	if from != bed.Status {
		s.metrics.BedTransitions.WithLabelValues(string(from), string(bed.Status)).Inc()
	}
	return nil
}

func (s *Service) checkStaff(ctx context.Context, userID uuid.UUID, role model.Role, label string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(label, err)
		}
		return apperrors.Internal(fmt.Errorf("failed to get %s: %w", label, err))
	}
	if user.Role != role {
		return apperrors.Validation(fmt.Sprintf("user %s is not a %s", userID, strings.ToLower(string(role))))
	}
	return nil
}

func (s *Service) lockError(err error) error {
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return apperrors.NewConflict("bed is busy, try again", err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(err)
}
