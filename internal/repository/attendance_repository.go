package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"

	"github.com/jackc/pgx/v5"
)

type AttendanceRepository struct {
	DB *db.Postgres
}

// attendanceSelect reads records with their employee and calendar day. The
// source relation is aliased "a" so it can be a table or a CTE.
const attendanceSelect = `
	SELECT a.id, a.employee_id, a.work_calendar_id, a.check_in, a.check_out, a.status, a.location, a.image, a.created_at, a.updated_at,
		e.id, e.name, e.position, e.level, e.base_salary, e.is_active, e.created_at, e.updated_at,
		c.id, c.date, c.day_name, c.is_work_day, c.remark, c.created_at, c.updated_at
`

const attendanceJoins = `
	JOIN employees e ON e.id = a.employee_id
	JOIN work_calendars c ON c.id = a.work_calendar_id
`

// CreateIfAbsent relies on attendances_employee_day_key, so concurrent
// generation runs cannot produce a second record for the same pair.
func (r AttendanceRepository) CreateIfAbsent(ctx context.Context, employeeID, calendarDayID int64, status domain.AttendanceStatus) (bool, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO attendances (employee_id, work_calendar_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (employee_id, work_calendar_id) DO NOTHING
	`, employeeID, calendarDayID, string(status))
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r AttendanceRepository) FindForDay(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error) {
	row := r.DB.Pool.QueryRow(ctx, attendanceSelect+`
		FROM attendances a`+attendanceJoins+`
		WHERE a.employee_id = $1 AND c.date = $2
	`, employeeID, date)
	return scanAttendance(row)
}

func (r AttendanceRepository) Get(ctx context.Context, id int64) (*domain.AttendanceRecord, error) {
	row := r.DB.Pool.QueryRow(ctx, attendanceSelect+`
		FROM attendances a`+attendanceJoins+`
		WHERE a.id = $1
	`, id)
	return scanAttendance(row)
}

func (r AttendanceRepository) CheckIn(ctx context.Context, id int64, at time.Time, location, image *string) (*domain.AttendanceRecord, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		WITH a AS (
			UPDATE attendances
			SET check_in = $2, status = $3, location = $4, image = $5, updated_at = now()
			WHERE id = $1 AND check_in IS NULL
			RETURNING *
		)`+attendanceSelect+`
		FROM a`+attendanceJoins,
		id, at, string(domain.AttendancePresent), location, image)
	return r.conditional(ctx, id, row)
}

func (r AttendanceRepository) CheckOut(ctx context.Context, id int64, at time.Time) (*domain.AttendanceRecord, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		WITH a AS (
			UPDATE attendances
			SET check_out = $2, updated_at = now()
			WHERE id = $1 AND check_in IS NOT NULL AND check_out IS NULL
			RETURNING *
		)`+attendanceSelect+`
		FROM a`+attendanceJoins,
		id, at)
	return r.conditional(ctx, id, row)
}

// conditional scans the result of a guarded update. No row means either the
// record is gone or its guard no longer holds.
func (r AttendanceRepository) conditional(ctx context.Context, id int64, row pgx.Row) (*domain.AttendanceRecord, error) {
	rec, err := scanAttendance(row)
	if !errors.Is(err, domain.ErrNotFound) {
		return rec, err
	}
	var exists bool
	if err := r.DB.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendances WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrConflict
	}
	return nil, domain.ErrNotFound
}

func (r AttendanceRepository) Update(ctx context.Context, id int64, f ports.AttendanceFields) (*domain.AttendanceRecord, error) {
	args := []any{id}
	set := []string{"updated_at = now()"}
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.CheckIn != nil {
		add("check_in", *f.CheckIn)
	}
	if f.CheckOut != nil {
		add("check_out", *f.CheckOut)
	}
	if f.Location != nil {
		add("location", *f.Location)
	}
	if f.Status != nil {
		add("status", string(*f.Status))
	}
	if f.Image != nil {
		add("image", *f.Image)
	}

	row := r.DB.Pool.QueryRow(ctx, `
		WITH a AS (
			UPDATE attendances
			SET `+strings.Join(set, ", ")+`
			WHERE id = $1
			RETURNING *
		)`+attendanceSelect+`
		FROM a`+attendanceJoins, args...)
	return scanAttendance(row)
}

func (r AttendanceRepository) List(ctx context.Context, filter ports.AttendanceFilter) ([]domain.AttendanceRecord, int, error) {
	var (
		where []string
		args  []any
	)
	cond := func(format string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(format, len(args)))
	}
	if filter.Date != nil {
		cond("c.date = $%d", *filter.Date)
	}
	if filter.EmployeeID != nil {
		cond("a.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.Status != nil {
		cond("a.status = $%d", string(*filter.Status))
	}
	if filter.StartDate != nil {
		cond("c.date >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		cond("c.date <= $%d", *filter.EndDate)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendances a`+attendanceJoins+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}

	query := attendanceSelect + ` FROM attendances a` + attendanceJoins + clause + ` ORDER BY a.created_at DESC, a.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *rec)
	}
	return items, total, rows.Err()
}

// CountDistinctByStatus counts employees, not records, per status.
func (r AttendanceRepository) CountDistinctByStatus(ctx context.Context, from, to time.Time) (ports.StatusCounts, error) {
	var s ports.StatusCounts
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT a.employee_id) FILTER (WHERE a.status = $3),
			COUNT(DISTINCT a.employee_id) FILTER (WHERE a.status = $4),
			COUNT(DISTINCT a.employee_id) FILTER (WHERE a.status = $5),
			COUNT(DISTINCT a.employee_id) FILTER (WHERE a.status = $6)
		FROM attendances a
		JOIN work_calendars c ON c.id = a.work_calendar_id
		WHERE c.date BETWEEN $1 AND $2
	`, from, to,
		string(domain.AttendancePresent), string(domain.AttendanceAbsent),
		string(domain.AttendancePending), string(domain.AttendanceOffDay),
	).Scan(&s.Present, &s.Absent, &s.Pending, &s.OffDay)
	return s, err
}

func scanAttendance(row pgx.Row) (*domain.AttendanceRecord, error) {
	var (
		a      domain.AttendanceRecord
		e      domain.Employee
		c      domain.CalendarDay
		status string
	)
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.WorkCalendarID, &a.CheckIn, &a.CheckOut, &status, &a.Location, &a.Image, &a.CreatedAt, &a.UpdatedAt,
		&e.ID, &e.Name, &e.Position, &e.Level, &e.BaseSalary, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		&c.ID, &c.Date, &c.DayName, &c.IsWorkDay, &c.Remark, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Status = domain.AttendanceStatus(status)
	a.Employee = &e
	a.CalendarDay = &c
	return &a, nil
}
