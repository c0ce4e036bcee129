package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

const hospitalColumns = `id, name, address, phone, latitude, longitude, total_beds, available_beds, created_at, updated_at`

type hospitalRepository struct {
	BaseRepository
}

func NewHospitalRepository(base BaseRepository) repository.HospitalRepository {
	return &hospitalRepository{base}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) (err error) {
	defer r.observe("hospital_create")(&err)

	if hospital.ID == uuid.Nil {
		hospital.ID = uuid.New()
	}
	hospital.CreatedAt = now()
	hospital.UpdatedAt = hospital.CreatedAt

	query := `
		INSERT INTO hospitals (` + hospitalColumns + `)
		VALUES (:id, :name, :address, :phone, :latitude, :longitude, :total_beds, :available_beds, :created_at, :updated_at)
	`
	if _, err = r.db.NamedExecContext(ctx, query, hospital); err != nil {
		return translate(err)
	}
	return nil
}

func (r *hospitalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	var hospital model.Hospital
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE id = $1`
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		return nil, translate(err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) GetByName(ctx context.Context, name string) (*model.Hospital, error) {
	var hospital model.Hospital
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE LOWER(name) = LOWER($1)`
	if err := r.db.GetContext(ctx, &hospital, query, name); err != nil {
		return nil, translate(err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) Update(ctx context.Context, hospital *model.Hospital) (err error) {
	defer r.observe("hospital_update")(&err)

	hospital.UpdatedAt = now()
	query := `
		UPDATE hospitals SET
			name = :name,
			address = :address,
			phone = :phone,
			latitude = :latitude,
			longitude = :longitude,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, hospital)
	if err != nil {
		return translate(err)
	}
	return expectRow(result)
}

func (r *hospitalRepository) List(ctx context.Context) ([]*model.Hospital, error) {
	hospitals := []*model.Hospital{}
	query := `SELECT ` + hospitalColumns + ` FROM hospitals ORDER BY name`
	if err := r.db.SelectContext(ctx, &hospitals, query); err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	return hospitals, nil
}

func (r *hospitalRepository) UpdateCounters(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE hospitals SET total_beds = $1, available_beds = $2, updated_at = $3 WHERE id = $4`,
		totalBeds, availableBeds, now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update hospital counters: %w", err)
	}
	return expectRow(result)
}
