package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

const userColumns = `id, name, email, password_hash, role, email_verified,
	verification_code, verification_code_expiry, reset_code, reset_code_expiry,
	hospital_id, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer r.observe("user_create")(&err)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (
			:id, :name, :email, :password_hash, :role, :email_verified,
			:verification_code, :verification_code_expiry, :reset_code, :reset_code_expiry,
			:hospital_id, :created_at, :updated_at
		)
	`
	if _, err = r.db.NamedExecContext(ctx, query, user); err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepository) getBy(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	return r.getBy(ctx, "verification_code = $1", code)
}

func (r *userRepository) GetByResetCode(ctx context.Context, code string) (*model.User, error) {
	return r.getBy(ctx, "reset_code = $1", code)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) (err error) {
	defer r.observe("user_update")(&err)

	user.UpdatedAt = now()
	query := `
		UPDATE users SET
			name = :name,
			email = :email,
			password_hash = :password_hash,
			role = :role,
			email_verified = :email_verified,
			verification_code = :verification_code,
			verification_code_expiry = :verification_code_expiry,
			reset_code = :reset_code,
			reset_code_expiry = :reset_code_expiry,
			hospital_id = :hospital_id,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return translate(err)
	}
	return expectRow(result)
}

// Delete detaches the user from beds and ambulances and removes their work
// hours in one transaction. The foreign keys enforce the same on their own.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer r.observe("user_delete")(&err)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmts := []string{
			`UPDATE beds SET doctor_id = NULL WHERE doctor_id = $1`,
			`UPDATE beds SET nurse_id = NULL WHERE nurse_id = $1`,
			`UPDATE ambulances SET driver_id = NULL WHERE driver_id = $1`,
			`DELETE FROM work_hours WHERE user_id = $1`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to detach user: %w", err)
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectRow(result)
	})
}

func (r *userRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, roles ...model.Role) ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE hospital_id = $1`
	args := []interface{}{hospitalID}
	if len(roles) > 0 {
		names := make([]string, len(roles))
		for i, role := range roles {
			names[i] = string(role)
		}
		query += ` AND role = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY name`

	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) CountByHospitalAndRole(ctx context.Context, hospitalID uuid.UUID, role model.Role) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM users WHERE hospital_id = $1 AND role = $2`
	if err := r.db.GetContext(ctx, &n, query, hospitalID, role); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *userRepository) ClearExpiredCodes(ctx context.Context, at time.Time) (int64, error) {
	query := `
		UPDATE users SET
			verification_code = CASE WHEN verification_code_expiry < $1 THEN NULL ELSE verification_code END,
			verification_code_expiry = CASE WHEN verification_code_expiry < $1 THEN NULL ELSE verification_code_expiry END,
			reset_code = CASE WHEN reset_code_expiry < $1 THEN NULL ELSE reset_code END,
			reset_code_expiry = CASE WHEN reset_code_expiry < $1 THEN NULL ELSE reset_code_expiry END,
			updated_at = $1
		WHERE verification_code_expiry < $1 OR reset_code_expiry < $1
	`
	result, err := r.db.ExecContext(ctx, query, at)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired codes: %w", err)
	}
	return result.RowsAffected()
}
