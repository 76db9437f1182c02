package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type CalendarRepository struct {
	DB *db.Postgres
}

const calendarColumns = `id, date, day_name, is_work_day, remark, created_at, updated_at`

func (r CalendarRepository) GetByDate(ctx context.Context, date time.Time) (*domain.CalendarDay, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+calendarColumns+`
		FROM work_calendars
		WHERE date = $1
	`, date)
	return scanCalendarDay(row)
}

func (r CalendarRepository) SetStatus(ctx context.Context, date time.Time, isWorkDay bool, remark string) (*domain.CalendarDay, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE work_calendars
		SET is_work_day = $2, remark = $3, updated_at = now()
		WHERE date = $1
		RETURNING `+calendarColumns, date, isWorkDay, remark)
	return scanCalendarDay(row)
}

func (r CalendarRepository) BulkSetStatus(ctx context.Context, dates []time.Time, isWorkDay bool, remark string) (int, []time.Time, error) {
	updated := 0
	var notFound []time.Time
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		for _, d := range dates {
			tag, err := tx.Exec(ctx, `
				UPDATE work_calendars
				SET is_work_day = $2, remark = $3, updated_at = now()
				WHERE date = $1
			`, d, isWorkDay, remark)
			if err != nil {
				return fmt.Errorf("update calendar day %s: %w", d.Format(domain.DateLayout), err)
			}
			if tag.RowsAffected() == 0 {
				notFound = append(notFound, d)
				continue
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return updated, notFound, nil
}

func (r CalendarRepository) ListRange(ctx context.Context, from, to time.Time) ([]domain.CalendarDay, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+calendarColumns+`
		FROM work_calendars
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CalendarDay
	for rows.Next() {
		var d domain.CalendarDay
		if err := rows.Scan(&d.ID, &d.Date, &d.DayName, &d.IsWorkDay, &d.Remark, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r CalendarRepository) Seed(ctx context.Context, days []domain.CalendarDay) (int, error) {
	inserted := 0
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		for _, d := range days {
			tag, err := tx.Exec(ctx, `
				INSERT INTO work_calendars (date, day_name, is_work_day, remark, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				ON CONFLICT (date) DO NOTHING
			`, d.Date, d.DayName, d.IsWorkDay, d.Remark)
			if err != nil {
				return fmt.Errorf("seed calendar day %s: %w", d.Date.Format(domain.DateLayout), err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func scanCalendarDay(row pgx.Row) (*domain.CalendarDay, error) {
	var d domain.CalendarDay
	if err := row.Scan(&d.ID, &d.Date, &d.DayName, &d.IsWorkDay, &d.Remark, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
