package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

const ambulanceColumns = `id, vehicle_number, status, current_latitude, current_longitude,
	pickup_address, patient_name, emergency_level, estimated_arrival, driver_id,
	hospital_id, created_at, updated_at`

type ambulanceRepository struct {
	BaseRepository
}

func NewAmbulanceRepository(base BaseRepository) repository.AmbulanceRepository {
	return &ambulanceRepository{base}
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *model.Ambulance) (err error) {
	defer r.observe("ambulance_create")(&err)

	if ambulance.ID == uuid.Nil {
		ambulance.ID = uuid.New()
	}
	ambulance.CreatedAt = now()
	ambulance.UpdatedAt = ambulance.CreatedAt

	query := `
		INSERT INTO ambulances (` + ambulanceColumns + `)
		VALUES (
			:id, :vehicle_number, :status, :current_latitude, :current_longitude,
			:pickup_address, :patient_name, :emergency_level, :estimated_arrival, :driver_id,
			:hospital_id, :created_at, :updated_at
		)
	`
	if _, err = r.db.NamedExecContext(ctx, query, ambulance); err != nil {
		return translate(err)
	}
	return nil
}

func (r *ambulanceRepository) getBy(ctx context.Context, where string, arg interface{}) (*model.Ambulance, error) {
	var ambulance model.Ambulance
	query := `SELECT ` + ambulanceColumns + ` FROM ambulances WHERE ` + where
	if err := r.db.GetContext(ctx, &ambulance, query, arg); err != nil {
		return nil, translate(err)
	}
	return &ambulance, nil
}

func (r *ambulanceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Ambulance, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *ambulanceRepository) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*model.Ambulance, error) {
	return r.getBy(ctx, "vehicle_number = $1", vehicleNumber)
}

func (r *ambulanceRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*model.Ambulance, error) {
	return r.getBy(ctx, "driver_id = $1", driverID)
}

func (r *ambulanceRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Ambulance, error) {
	ambulances := []*model.Ambulance{}
	query := `SELECT ` + ambulanceColumns + ` FROM ambulances WHERE hospital_id = $1 ORDER BY vehicle_number`
	if err := r.db.SelectContext(ctx, &ambulances, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list ambulances: %w", err)
	}
	return ambulances, nil
}

func (r *ambulanceRepository) Update(ctx context.Context, ambulance *model.Ambulance) (err error) {
	defer r.observe("ambulance_update")(&err)

	ambulance.UpdatedAt = now()
	query := `
		UPDATE ambulances SET
			vehicle_number = :vehicle_number,
			status = :status,
			current_latitude = :current_latitude,
			current_longitude = :current_longitude,
			pickup_address = :pickup_address,
			patient_name = :patient_name,
			emergency_level = :emergency_level,
			estimated_arrival = :estimated_arrival,
			driver_id = :driver_id,
			hospital_id = :hospital_id,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, ambulance)
	if err != nil {
		return translate(err)
	}
	return expectRow(result)
}

func (r *ambulanceRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer r.observe("ambulance_delete")(&err)

	result, err := r.db.ExecContext(ctx, `DELETE FROM ambulances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ambulance: %w", err)
	}
	return expectRow(result)
}

func (r *ambulanceRepository) CountInService(ctx context.Context, hospitalID uuid.UUID) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM ambulances WHERE hospital_id = $1 AND status <> $2`
	if err := r.db.GetContext(ctx, &n, query, hospitalID, model.AmbulanceStatusMaintenance); err != nil {
		return 0, fmt.Errorf("failed to count ambulances: %w", err)
	}
	return n, nil
}
