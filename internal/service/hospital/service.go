package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

const msgDuplicateName = "hospital with this name already exists"

type HospitalServicer interface {
	List(ctx context.Context) ([]*model.Hospital, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error)
	Create(ctx context.Context, actor model.Principal, req model.CreateHospitalRequest) (*model.Hospital, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.CreateHospitalRequest) (*model.Hospital, error)
	Stats(ctx context.Context, id uuid.UUID) (*model.HospitalStats, error)
	SyncCounters(ctx context.Context) (int, error)
}

type Service struct {
	store *repository.Store
	cache *cache.Cache
	log   *logger.Logger
}

// NewService caches hospital lookups for ttl. A zero ttl disables caching.
func NewService(store *repository.Store, ttl time.Duration, log *logger.Logger) *Service {
	s := &Service{
		store: store,
		log:   log.WithFields(map[string]interface{}{"component": "hospital"}),
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*model.Hospital, error) {
	hospitals, err := s.store.Hospitals.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list hospitals: %w", err))
	}
	return hospitals, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(id.String()); ok {
			return cached.(*model.Hospital).Clone(), nil
		}
	}

	hospital, err := s.store.Hospitals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
	}

	if s.cache != nil {
		s.cache.SetDefault(id.String(), hospital.Clone())
	}
	return hospital, nil
}

func (s *Service) Create(ctx context.Context, actor model.Principal, req model.CreateHospitalRequest) (*model.Hospital, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if err := s.checkName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	hospital := &model.Hospital{
		Name:      name,
		Address:   req.Address,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := s.store.Hospitals.Create(ctx, hospital); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgDuplicateName, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create hospital: %w", err))
	}

	s.log.Info("Hospital created", "hospital_id", hospital.ID.String(), "name", hospital.Name, "actor", actor.Actor())
	return hospital, nil
}

func (s *Service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.CreateHospitalRequest) (*model.Hospital, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}

	hospital, err := s.store.Hospitals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
	}
	if !strings.EqualFold(name, hospital.Name) {
		if err := s.checkName(ctx, name, id); err != nil {
			return nil, err
		}
	}

	hospital.Name = name
	hospital.Address = req.Address
	hospital.Phone = req.Phone
	hospital.Latitude = req.Latitude
	hospital.Longitude = req.Longitude

	if err := s.store.Hospitals.Update(ctx, hospital); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict(msgDuplicateName, err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("hospital", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update hospital: %w", err))
	}
	s.invalidate(id)

	s.log.Info("Hospital updated", "hospital_id", id.String(), "actor", actor.Actor())
	return hospital, nil
}

// Stats is computed from live rows on every call.
func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*model.HospitalStats, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var (
		stats model.HospitalStats
		err   error
	)
	if stats.TotalBeds, err = s.store.Beds.CountByHospital(ctx, id); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to count beds: %w", err))
	}
	if stats.AvailableBeds, err = s.store.Beds.CountByHospital(ctx, id, model.BedStatusAvailable); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to count available beds: %w", err))
	}
	stats.OccupiedBeds = stats.TotalBeds - stats.AvailableBeds

	staff := []struct {
		role  model.Role
		count *int64
	}{
		{model.RoleDoctor, &stats.Doctors},
		{model.RoleNurse, &stats.Nurses},
		{model.RoleAmbulanceDriver, &stats.Drivers},
	}
	for _, st := range staff {
		if *st.count, err = s.store.Users.CountByHospitalAndRole(ctx, id, st.role); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to count %s staff: %w", st.role, err))
		}
	}

	if stats.Ambulances, err = s.store.Ambulances.CountInService(ctx, id); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to count ambulances: %w", err))
	}
	return &stats, nil
}

// SyncCounters refreshes the denormalized bed counters of every hospital
// and returns how many were written.
func (s *Service) SyncCounters(ctx context.Context) (int, error) {
	hospitals, err := s.store.Hospitals.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list hospitals: %w", err)
	}

	synced := 0
	for _, h := range hospitals {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		total, err := s.store.Beds.CountByHospital(ctx, h.ID)
		if err != nil {
			return synced, fmt.Errorf("failed to count beds for %s: %w", h.ID, err)
		}
		available, err := s.store.Beds.CountByHospital(ctx, h.ID, model.BedStatusAvailable)
		if err != nil {
			return synced, fmt.Errorf("failed to count available beds for %s: %w", h.ID, err)
		}
		if int(total) == h.TotalBeds && int(available) == h.AvailableBeds {
			continue
		}
		if err := s.store.Hospitals.UpdateCounters(ctx, h.ID, int(total), int(available)); err != nil {
			return synced, fmt.Errorf("failed to update counters for %s: %w", h.ID, err)
		}
		s.invalidate(h.ID)
		synced++
	}
	return synced, nil
}

func (s *Service) checkName(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.store.Hospitals.GetByName(ctx, name)
	if err == nil {
		if existing.ID != self {
			return apperrors.Conflict(msgDuplicateName)
		}
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return apperrors.Internal(fmt.Errorf("failed to check hospital name: %w", err))
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(id.String())
	}
}
