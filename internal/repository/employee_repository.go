package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"

	"github.com/jackc/pgx/v5"
)

type EmployeeRepository struct {
	DB *db.Postgres
}

const employeeColumns = `id, name, position, level, base_salary, is_active, created_at, updated_at`

func (r EmployeeRepository) ListActive(ctx context.Context) ([]domain.Employee, error) {
	active := true
	return r.List(ctx, ports.EmployeeFilter{IsActive: &active})
}

func (r EmployeeRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE is_active`).Scan(&n)
	return n, err
}

func (r EmployeeRepository) List(ctx context.Context, filter ports.EmployeeFilter) ([]domain.Employee, error) {
	var (
		where []string
		args  []any
	)
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Position != "" {
		args = append(args, filter.Position)
		where = append(where, fmt.Sprintf("position = $%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		where = append(where, fmt.Sprintf("level = $%d", len(args)))
	}
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id ASC`

	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Position, &e.Level, &e.BaseSalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r EmployeeRepository) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	var e domain.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Level, &e.BaseSalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
