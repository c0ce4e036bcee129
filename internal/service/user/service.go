package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/security"
	"github.com/jwalitptl/hospital-ops/pkg/validator"
)

const msgDuplicateEmail = "email already exists"

type UserServicer interface {
	ListStaff(ctx context.Context, hospitalID uuid.UUID) ([]*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Profile(ctx context.Context, principal model.Principal) (*model.UserProfile, error)
	Create(ctx context.Context, actor model.Principal, req model.CreateUserRequest) (*model.User, error)
	Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error
}

type Service struct {
	users     repository.UserRepository
	hospitals repository.HospitalRepository
	hasher    security.PasswordHasher
	validator validator.Validator
	log       *logger.Logger
}

func NewService(store *repository.Store, hasher security.PasswordHasher, log *logger.Logger) *Service {
	return &Service{
		users:     store.Users,
		hospitals: store.Hospitals,
		hasher:    hasher,
		validator: validator.New(),
		log:       log.WithFields(map[string]interface{}{"component": "user"}),
	}
}

// ListStaff returns the doctors, nurses and drivers of a hospital.
func (s *Service) ListStaff(ctx context.Context, hospitalID uuid.UUID) ([]*model.User, error) {
	users, err := s.users.ListByHospital(ctx, hospitalID, model.StaffRoles...)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list staff: %w", err))
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, principal model.Principal) (*model.UserProfile, error) {
	user, err := s.Get(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	var hospital *model.Hospital
	if user.HospitalID != nil {
		hospital, err = s.hospitals.Get(ctx, *user.HospitalID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
		}
	}
	return model.NewUserProfile(user, hospital), nil
}

// Create registers a user on an admin's behalf. Such accounts skip email
// verification.
func (s *Service) Create(ctx context.Context, actor model.Principal, req model.CreateUserRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict(msgDuplicateEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("failed to check email: %w", err))
	}
	if err := s.checkHospital(ctx, req.HospitalID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          req.Role,
		EmailVerified: true,
		HospitalID:    req.HospitalID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgDuplicateEmail, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	s.log.Info("User created", "user_id", user.ID.String(), "role", string(user.Role), "actor", actor.Actor())
	return user, nil
}

func (s *Service) Update(ctx context.Context, actor model.Principal, id uuid.UUID, req model.UpdateUserRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkHospital(ctx, req.HospitalID); err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Role = req.Role
	user.HospitalID = req.HospitalID
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update user: %w", err))
	}

	s.log.Info("User updated", "user_id", id.String(), "actor", actor.Actor())
	return user, nil
}

// Delete removes the user, detaching them from beds and ambulances and
// dropping their work hours.
func (s *Service) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to delete user: %w", err))
	}

	s.log.Info("User deleted", "user_id", id.String(), "actor", actor.Actor())
	return nil
}

func (s *Service) checkHospital(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.hospitals.Get(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("hospital", err)
		}
		return apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
	}
	return nil
}
