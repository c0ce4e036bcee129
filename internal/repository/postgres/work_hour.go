package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

const workHourColumns = `id, user_id, work_date, start_time, end_time, scheduled_hours,
	actual_hours, overtime_hours, department, created_at`

type workHourRepository struct {
	BaseRepository
}

func NewWorkHourRepository(base BaseRepository) repository.WorkHourRepository {
	return &workHourRepository{base}
}

// Create relies on the (user_id, work_date) unique index as the backstop
// for concurrent duplicate logs.
func (r *workHourRepository) Create(ctx context.Context, workHour *model.WorkHour) (err error) {
	defer r.observe("work_hour_create")(&err)

	if workHour.ID == uuid.Nil {
		workHour.ID = uuid.New()
	}
	workHour.CreatedAt = now()

	query := `
		INSERT INTO work_hours (` + workHourColumns + `)
		VALUES (
			:id, :user_id, :work_date, :start_time, :end_time, :scheduled_hours,
			:actual_hours, :overtime_hours, :department, :created_at
		)
	`
	if _, err = r.db.NamedExecContext(ctx, query, workHour); err != nil {
		return translate(err)
	}
	return nil
}

func (r *workHourRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date model.Date) (*model.WorkHour, error) {
	var workHour model.WorkHour
	query := `SELECT ` + workHourColumns + ` FROM work_hours WHERE user_id = $1 AND work_date = $2`
	if err := r.db.GetContext(ctx, &workHour, query, userID, date); err != nil {
		return nil, translate(err)
	}
	return &workHour, nil
}

func (r *workHourRepository) ListByUserInRange(ctx context.Context, userID uuid.UUID, start, end model.Date) ([]*model.WorkHour, error) {
	workHours := []*model.WorkHour{}
	query := `
		SELECT ` + workHourColumns + ` FROM work_hours
		WHERE user_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date
	`
	if err := r.db.SelectContext(ctx, &workHours, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list work hours: %w", err)
	}
	return workHours, nil
}
