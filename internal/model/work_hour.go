package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkHour is an immutable daily time entry; one per user and date.
type WorkHour struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	WorkDate       Date      `json:"work_date" db:"work_date"`
	StartTime      *string   `json:"start_time,omitempty" db:"start_time"`
	EndTime        *string   `json:"end_time,omitempty" db:"end_time"`
	ScheduledHours *float64  `json:"scheduled_hours,omitempty" db:"scheduled_hours"`
	ActualHours    *float64  `json:"actual_hours,omitempty" db:"actual_hours"`
	OvertimeHours  float64   `json:"overtime_hours" db:"overtime_hours"`
	Department     *string   `json:"department,omitempty" db:"department"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

func (w *WorkHour) Clone() *WorkHour {
	c := *w
	c.StartTime = cloneString(w.StartTime)
	c.EndTime = cloneString(w.EndTime)
	c.ScheduledHours = cloneFloat(w.ScheduledHours)
	c.ActualHours = cloneFloat(w.ActualHours)
	c.Department = cloneString(w.Department)
	return &c
}

// ComputeOvertime returns actual minus scheduled, floored at zero. Missing
// values yield zero.
func ComputeOvertime(scheduled, actual *float64) float64 {
	if scheduled == nil || actual == nil {
		return 0
	}
	if diff := *actual - *scheduled; diff > 0 {
		return diff
	}
	return 0
}

type LogWorkHourRequest struct {
	WorkDate       Date     `json:"work_date"`
	StartTime      *string  `json:"start_time" binding:"omitempty,datetime=15:04" validate:"omitempty,datetime=15:04"`
	EndTime        *string  `json:"end_time" binding:"omitempty,datetime=15:04" validate:"omitempty,datetime=15:04"`
	ScheduledHours *float64 `json:"scheduled_hours" binding:"omitempty,gte=0" validate:"omitempty,gte=0"`
	ActualHours    *float64 `json:"actual_hours" binding:"omitempty,gte=0" validate:"omitempty,gte=0"`
	Department     *string  `json:"department"`
}

// WorkHourSummary totals a user's entries over an inclusive date range.
type WorkHourSummary struct {
	UserID         uuid.UUID `json:"user_id"`
	StartDate      Date      `json:"start_date"`
	EndDate        Date      `json:"end_date"`
	Entries        int       `json:"entries"`
	ScheduledHours float64   `json:"scheduled_hours"`
	ActualHours    float64   `json:"actual_hours"`
	OvertimeHours  float64   `json:"overtime_hours"`
}

func SummarizeWorkHours(userID uuid.UUID, start, end Date, entries []*WorkHour) *WorkHourSummary {
	s := &WorkHourSummary{UserID: userID, StartDate: start, EndDate: end, Entries: len(entries)}
	for _, w := range entries {
		if w.ScheduledHours != nil {
			s.ScheduledHours += *w.ScheduledHours
		}
		if w.ActualHours != nil {
			s.ActualHours += *w.ActualHours
		}
		s.OvertimeHours += w.OvertimeHours
	}
	return s
}
