package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"
)

const (
	minCalendarYear = 2020
	maxCalendarYear = 2030
	maxTextLength   = 255

	remarkWorkDay    = "Normal workday"
	remarkNonWorkDay = "Non-working day"
	remarkWeekend    = "Weekend"
)

type CalendarService struct {
	Store  ports.CalendarStore
	Logger *slog.Logger
}

type BulkStatusResult struct {
	UpdatedCount  int
	NotFoundDates []time.Time
}

type MonthCalendar struct {
	Year        int
	Month       int
	MonthName   string
	TotalDays   int
	WorkDays    int
	NonWorkDays int
	Days        []domain.CalendarDay
}

type YearCalendar struct {
	Year             int
	TotalDays        int
	TotalWorkDays    int
	TotalNonWorkDays int
	Months           []MonthCalendar
}

// GetDay returns the calendar entry for date.
func (s CalendarService) GetDay(ctx context.Context, date time.Time) (*domain.CalendarDay, error) {
	day, err := s.Store.GetByDate(ctx, domain.DateOf(date))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Calendar entry not found for the specified date")
		}
		return nil, fmt.Errorf("get calendar day: %w", err)
	}
	return day, nil
}

func (s CalendarService) SetDayStatus(ctx context.Context, p domain.Principal, date time.Time, isWorkDay bool, remark *string) (*domain.CalendarDay, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	text, err := resolveRemark(isWorkDay, remark)
	if err != nil {
		return nil, err
	}
	day, err := s.Store.SetStatus(ctx, domain.DateOf(date), isWorkDay, text)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Calendar entry not found for the specified date")
		}
		return nil, fmt.Errorf("set calendar day status: %w", err)
	}
	s.log().Info("calendar day updated", "date", day.Date.Format(domain.DateLayout), "is_work_day", isWorkDay, "by", p.UserID)
	return day, nil
}

// BulkSetDayStatus updates every seeded date in dates. Dates without a
// calendar entry are reported, not treated as a failure.
func (s CalendarService) BulkSetDayStatus(ctx context.Context, p domain.Principal, dates []time.Time, isWorkDay bool, remark *string) (*BulkStatusResult, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, domain.Invalid("dates must contain at least one date")
	}
	text, err := resolveRemark(isWorkDay, remark)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]struct{}, len(dates))
	unique := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = domain.DateOf(d)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}

	updated, notFound, err := s.Store.BulkSetStatus(ctx, unique, isWorkDay, text)
	if err != nil {
		return nil, fmt.Errorf("bulk set calendar status: %w", err)
	}
	if notFound == nil {
		notFound = []time.Time{}
	}
	s.log().Info("calendar days bulk updated", "updated", updated, "not_found", len(notFound), "by", p.UserID)
	return &BulkStatusResult{UpdatedCount: updated, NotFoundDates: notFound}, nil
}

func (s CalendarService) Month(ctx context.Context, p domain.Principal, year, month int) (*MonthCalendar, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month must be between 1 and 12")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days, err := s.Store.ListRange(ctx, from, from.AddDate(0, 1, -1))
	if err != nil {
		return nil, fmt.Errorf("list calendar month: %w", err)
	}
	m := buildMonth(year, time.Month(month), days)
	return &m, nil
}

func (s CalendarService) Year(ctx context.Context, p domain.Principal, year int) (*YearCalendar, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validateYear(year); err != nil {
		return nil, err
	}
	days, err := s.Store.ListRange(ctx,
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("list calendar year: %w", err)
	}

	out := &YearCalendar{Year: year, Months: []MonthCalendar{}}
	// days are ordered by date, so each month is a contiguous run.
	for start := 0; start < len(days); {
		month := days[start].Date.Month()
		end := start
		for end < len(days) && days[end].Date.Month() == month {
			end++
		}
		m := buildMonth(year, month, days[start:end])
		out.Months = append(out.Months, m)
		out.TotalDays += m.TotalDays
		out.TotalWorkDays += m.WorkDays
		out.TotalNonWorkDays += m.NonWorkDays
		start = end
	}
	return out, nil
}

// SeedYear creates a calendar entry for every date of year that has none.
// Saturdays and Sundays are non-working days.
func (s CalendarService) SeedYear(ctx context.Context, year int) (int, error) {
	if err := validateYear(year); err != nil {
		return 0, err
	}
	var days []domain.CalendarDay
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		weekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		remark := remarkWorkDay
		if weekend {
			remark = remarkWeekend
		}
		days = append(days, domain.CalendarDay{
			Date:      d,
			DayName:   d.Weekday().String(),
			IsWorkDay: !weekend,
			Remark:    remark,
		})
	}
	inserted, err := s.Store.Seed(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("seed calendar: %w", err)
	}
	s.log().Info("calendar seeded", "year", year, "inserted", inserted, "existing", len(days)-inserted)
	return inserted, nil
}

func (s CalendarService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func buildMonth(year int, month time.Month, days []domain.CalendarDay) MonthCalendar {
	m := MonthCalendar{
		Year:      year,
		Month:     int(month),
		MonthName: month.String(),
		TotalDays: len(days),
		Days:      days,
	}
	if m.Days == nil {
		m.Days = []domain.CalendarDay{}
	}
	for _, d := range days {
		if d.IsWorkDay {
			m.WorkDays++
		} else {
			m.NonWorkDays++
		}
	}
	return m
}

func resolveRemark(isWorkDay bool, remark *string) (string, error) {
	if remark != nil && strings.TrimSpace(*remark) != "" {
		if len(*remark) > maxTextLength {
			return "", domain.Invalid("remark may not be greater than 255 characters")
		}
		return *remark, nil
	}
	if isWorkDay {
		return remarkWorkDay, nil
	}
	return remarkNonWorkDay, nil
}

func validateYear(year int) error {
	if year < minCalendarYear || year > maxCalendarYear {
		return domain.Invalid("year must be between 2020 and 2030")
	}
	return nil
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return domain.Forbidden("Insufficient permissions. Required role: admin")
	}
	return nil
}
