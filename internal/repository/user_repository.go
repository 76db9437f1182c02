package repository

import (
	"context"
	"errors"

	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserRepository struct {
	DB *db.Postgres
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, employee_id, name, email, phone, role, password_hash, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (r UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, employee_id, name, email, phone, role, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		employeeID pgtype.Int8
		role       string
	)
	if err := row.Scan(&u.ID, &employeeID, &u.Name, &u.Email, &u.Phone, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if employeeID.Valid {
		u.EmployeeID = &employeeID.Int64
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
