package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

const bedColumns = `id, bed_number, bed_type, status, patient_name, patient_contact,
	admission_date, doctor_id, nurse_id, hospital_id, created_at, updated_at`

type bedRepository struct {
	BaseRepository
}

func NewBedRepository(base BaseRepository) repository.BedRepository {
	return &bedRepository{base}
}

func (r *bedRepository) Create(ctx context.Context, bed *model.Bed) (err error) {
	defer r.observe("bed_create")(&err)

	if bed.ID == uuid.Nil {
		bed.ID = uuid.New()
	}
	bed.CreatedAt = now()
	bed.UpdatedAt = bed.CreatedAt

	query := `
		INSERT INTO beds (` + bedColumns + `)
		VALUES (
			:id, :bed_number, :bed_type, :status, :patient_name, :patient_contact,
			:admission_date, :doctor_id, :nurse_id, :hospital_id, :created_at, :updated_at
		)
	`
	if _, err = r.db.NamedExecContext(ctx, query, bed); err != nil {
		return translate(err)
	}
	return nil
}

func (r *bedRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	var bed model.Bed
	if err := r.db.GetContext(ctx, &bed, `SELECT `+bedColumns+` FROM beds WHERE id = $1`, id); err != nil {
		return nil, translate(err)
	}
	return &bed, nil
}

func (r *bedRepository) GetByNumber(ctx context.Context, bedNumber string) (*model.Bed, error) {
	var bed model.Bed
	if err := r.db.GetContext(ctx, &bed, `SELECT `+bedColumns+` FROM beds WHERE bed_number = $1`, bedNumber); err != nil {
		return nil, translate(err)
	}
	return &bed, nil
}

func (r *bedRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Bed, error) {
	beds := []*model.Bed{}
	query := `SELECT ` + bedColumns + ` FROM beds WHERE hospital_id = $1 ORDER BY bed_number`
	if err := r.db.SelectContext(ctx, &beds, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	return beds, nil
}

// Update writes the whole row only while the stored status still equals
// expected, so two writers racing on the same bed cannot both win.
func (r *bedRepository) Update(ctx context.Context, bed *model.Bed, expected model.BedStatus) (err error) {
	defer r.observe("bed_update")(&err)

	bed.UpdatedAt = now()
	query := `
		UPDATE beds SET
			bed_type = $1,
			status = $2,
			patient_name = $3,
			patient_contact = $4,
			admission_date = $5,
			doctor_id = $6,
			nurse_id = $7,
			updated_at = $8
		WHERE id = $9 AND status = $10
	`
	result, err := r.db.ExecContext(ctx, query,
		bed.BedType,
		bed.Status,
		bed.PatientName,
		bed.PatientContact,
		bed.AdmissionDate,
		bed.DoctorID,
		bed.NurseID,
		bed.UpdatedAt,
		bed.ID,
		expected,
	)
	if err != nil {
		return translate(err)
	}
	return r.checkTransition(ctx, result, bed.ID)
}

func (r *bedRepository) Delete(ctx context.Context, id uuid.UUID, expected model.BedStatus) (err error) {
	defer r.observe("bed_delete")(&err)

	result, err := r.db.ExecContext(ctx, `DELETE FROM beds WHERE id = $1 AND status = $2`, id, expected)
	if err != nil {
		return fmt.Errorf("failed to delete bed: %w", err)
	}
	return r.checkTransition(ctx, result, id)
}

// checkTransition tells a missing bed apart from one whose status moved.
func (r *bedRepository) checkTransition(ctx context.Context, result sql.Result, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM beds WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check bed: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStateChanged
}

func (r *bedRepository) CountByHospital(ctx context.Context, hospitalID uuid.UUID, statuses ...model.BedStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM beds WHERE hospital_id = ?`
	args := []interface{}{hospitalID}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY(?)`
		args = append(args, pq.Array(names))
	}

	var n int64
	if err := r.db.GetContext(ctx, &n, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return 0, fmt.Errorf("failed to count beds: %w", err)
	}
	return n, nil
}
