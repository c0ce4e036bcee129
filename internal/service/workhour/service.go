package workhour

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	apperrors "github.com/jwalitptl/hospital-ops/pkg/errors"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/validator"
)

const msgAlreadyLogged = "work hours already logged for this date"

type WorkHourServicer interface {
	Log(ctx context.Context, principal model.Principal, req model.LogWorkHourRequest) (*model.WorkHour, error)
	ListForUserInRange(ctx context.Context, userID uuid.UUID, start, end model.Date) ([]*model.WorkHour, error)
	Summary(ctx context.Context, userID uuid.UUID, start, end model.Date) (*model.WorkHourSummary, error)
}

type Service struct {
	workHours repository.WorkHourRepository
	users     repository.UserRepository
	validator validator.Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(store *repository.Store, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		workHours: store.WorkHours,
		users:     store.Users,
		validator: validator.New(),
		log:       log.WithFields(map[string]interface{}{"component": "workhour"}),
		metrics:   m,
	}
}

// Log records the principal's hours for one day. Entries are immutable once
// written.
func (s *Service) Log(ctx context.Context, principal model.Principal, req model.LogWorkHourRequest) (*model.WorkHour, error) {
	if req.WorkDate.IsZero() {
		return nil, apperrors.Validation("work_date is required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.users.Get(ctx, principal.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	if _, err := s.workHours.GetByUserAndDate(ctx, principal.UserID, req.WorkDate); err == nil {
		return nil, apperrors.Conflict(msgAlreadyLogged)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("failed to check work hours: %w", err))
	}

	entry := &model.WorkHour{
		UserID:         principal.UserID,
		WorkDate:       model.NewDate(req.WorkDate.Time),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ScheduledHours: req.ScheduledHours,
		ActualHours:    req.ActualHours,
		OvertimeHours:  model.ComputeOvertime(req.ScheduledHours, req.ActualHours),
		Department:     req.Department,
	}

	if err := s.workHours.Create(ctx, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict(msgAlreadyLogged, err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to log work hours: %w", err))
	}

	s.metrics.WorkHoursLogged.Inc()
	s.log.Info("Work hours logged",
		"user_id", entry.UserID.String(),
		"work_date", entry.WorkDate.String(),
		"overtime_hours", entry.OvertimeHours)
	return entry, nil
}

// ListForUserInRange returns entries with start <= work_date <= end. A
// reversed range is empty rather than an error.
func (s *Service) ListForUserInRange(ctx context.Context, userID uuid.UUID, start, end model.Date) ([]*model.WorkHour, error) {
	if start.After(end) {
		return []*model.WorkHour{}, nil
	}

	entries, err := s.workHours.ListByUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list work hours: %w", err))
	}
	return entries, nil
}

func (s *Service) Summary(ctx context.Context, userID uuid.UUID, start, end model.Date) (*model.WorkHourSummary, error) {
	entries, err := s.ListForUserInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return model.SummarizeWorkHours(userID, start, end, entries), nil
}
