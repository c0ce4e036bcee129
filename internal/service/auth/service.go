package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/hospital-ops/internal/email"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/security"
	"github.com/jwalitptl/hospital-ops/pkg/validator"
)

const (
	defaultCodeTTL = 15 * time.Minute

	msgInvalidCredentials = "invalid credentials"
	msgDuplicateEmail     = "email already exists"
	msgNotVerified        = "please verify your email first"
	msgBadVerifyCode      = "invalid or expired verification code"
	msgBadResetCode       = "invalid or expired reset code"
)

type AuthServicer interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error)
	VerifyEmail(ctx context.Context, code string) error
	ResendVerification(ctx context.Context, email string) (bool, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, password string) error
}

type Service struct {
	users     repository.UserRepository
	hospitals repository.HospitalRepository
	hasher    security.PasswordHasher
	tokens    auth.TokenManager
	mail      email.Service
	validator validator.Validator
	codeTTL   time.Duration
	log       *logger.Logger

	now      func() time.Time
	generate func() (string, error)
}

func NewService(store *repository.Store, hasher security.PasswordHasher, tokens auth.TokenManager,
	mail email.Service, codeTTL time.Duration, log *logger.Logger) *Service {
	if codeTTL <= 0 {
		codeTTL = defaultCodeTTL
	}
	return &Service{
		users:     store.Users,
		hospitals: store.Hospitals,
		hasher:    hasher,
		tokens:    tokens,
		mail:      mail,
		validator: validator.New(),
		codeTTL:   codeTTL,
		log:       log.WithFields(map[string]interface{}{"component": "auth"}),
		now:       func() time.Time { return time.Now().UTC() },
		generate:  security.GenerateOTP,
	}
}

// Register creates an unverified account and mails its verification code.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
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

	if req.HospitalID != nil {
		if _, err := s.hospitals.Get(ctx, *req.HospitalID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("hospital", err)
			}
			return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	code, err := s.generate()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		HospitalID:   req.HospitalID,
	}
	user.SetVerificationCode(code, s.now().Add(s.codeTTL))

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(msgDuplicateEmail, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	if err := s.mail.SendVerification(ctx, user.Email, user.Name, code); err != nil {
		s.log.Error(err, "Failed to queue verification email", "user_id", user.ID.String())
	}

	s.log.Info("User registered", "user_id", user.ID.String(), "role", string(user.Role))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgInvalidCredentials, nil)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials, nil)
	}
	if !user.EmailVerified {
		return nil, apperrors.Forbidden(msgNotVerified)
	}

	token, err := s.tokens.Generate(user.ID, user.Email, string(user.Role), user.HospitalID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	var hospital *model.Hospital
	if user.HospitalID != nil {
		hospital, err = s.hospitals.Get(ctx, *user.HospitalID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(fmt.Errorf("failed to get hospital: %w", err))
		}
	}

	s.log.Info("User logged in", "user_id", user.ID.String())
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        model.NewUserProfile(user, hospital),
	}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, code string) error {
	user, err := s.userByCode(ctx, s.users.GetByVerificationCode, code, msgBadVerifyCode)
	if err != nil {
		return err
	}
	if user.VerificationCodeExpiry == nil || user.VerificationCodeExpiry.Before(s.now()) {
		return apperrors.Validation(msgBadVerifyCode)
	}

	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiry = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to verify email: %w", err))
	}

	s.log.Info("Email verified", "user_id", user.ID.String())
	return nil
}

// ResendVerification issues a fresh code. It reports false without sending
// when the email is already verified.
func (s *Service) ResendVerification(ctx context.Context, address string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperrors.NotFound("user", err)
		}
		return false, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	if user.EmailVerified {
		return false, nil
	}

	code, err := s.generate()
	if err != nil {
		return false, apperrors.Internal(err)
	}
	user.SetVerificationCode(code, s.now().Add(s.codeTTL))
	if err := s.users.Update(ctx, user); err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to store verification code: %w", err))
	}

	if err := s.mail.SendVerification(ctx, user.Email, user.Name, code); err != nil {
		s.log.Error(err, "Failed to queue verification email", "user_id", user.ID.String())
	}
	return true, nil
}

// ForgotPassword mails a reset code. Unknown addresses succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, address string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug("Password reset requested for unknown email")
			return nil
		}
		return apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	code, err := s.generate()
	if err != nil {
		return apperrors.Internal(err)
	}
	user.SetResetCode(code, s.now().Add(s.codeTTL))
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to store reset code: %w", err))
	}

	if err := s.mail.SendPasswordReset(ctx, user.Email, user.Name, code); err != nil {
		s.log.Error(err, "Failed to queue password reset email", "user_id", user.ID.String())
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, code, password string) error {
	if len(password) < security.MinPasswordLen {
		return apperrors.Validation(fmt.Sprintf("password must be at least %d", security.MinPasswordLen))
	}

	user, err := s.userByCode(ctx, s.users.GetByResetCode, code, msgBadResetCode)
	if err != nil {
		return err
	}
	if user.ResetCodeExpiry == nil || user.ResetCodeExpiry.Before(s.now()) {
		return apperrors.Validation(msgBadResetCode)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	user.PasswordHash = hash
	user.ResetCode = nil
	user.ResetCodeExpiry = nil
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update password: %w", err))
	}

	s.log.Info("Password reset", "user_id", user.ID.String())
	return nil
}

func (s *Service) userByCode(ctx context.Context, lookup func(context.Context, string) (*model.User, error), code, msg string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation(msg)
	}
	user, err := lookup(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidation(msg, err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to look up code: %w", err))
	}
	return user, nil
}
