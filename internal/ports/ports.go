package ports

import (
	"context"
	"time"

	"hr-attendance-backend/internal/domain"
)

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CalendarStore owns the work calendar. Dates are civil dates at midnight UTC.
type CalendarStore interface {
	GetByDate(ctx context.Context, date time.Time) (*domain.CalendarDay, error)
	SetStatus(ctx context.Context, date time.Time, isWorkDay bool, remark string) (*domain.CalendarDay, error)
	// BulkSetStatus updates every existing date and returns the dates that
	// had no calendar row.
	BulkSetStatus(ctx context.Context, dates []time.Time, isWorkDay bool, remark string) (updated int, notFound []time.Time, err error)
	ListRange(ctx context.Context, from, to time.Time) ([]domain.CalendarDay, error)
	// Seed inserts days whose date does not exist yet and returns how many
	// rows were inserted.
	Seed(ctx context.Context, days []domain.CalendarDay) (int, error)
}

// EmployeeDirectory is the read side of the employee records.
type EmployeeDirectory interface {
	ListActive(ctx context.Context) ([]domain.Employee, error)
	CountActive(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
}

type EmployeeFilter struct {
	IsActive *bool
	Position string
	Level    string
}

type AttendanceFilter struct {
	Date       *time.Time
	EmployeeID *int64
	Status     *domain.AttendanceStatus
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type StatusCounts struct {
	Present int
	Absent  int
	Pending int
	OffDay  int
}

type AttendanceFields struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Location *string
	Status   *domain.AttendanceStatus
	Image    *string
}

// AttendanceStore owns attendance records. Implementations guarantee at most
// one record per (employee, calendar day) and apply transitions as atomic
// conditional writes.
type AttendanceStore interface {
	// CreateIfAbsent inserts a record unless one already exists for the pair.
	CreateIfAbsent(ctx context.Context, employeeID, calendarDayID int64, status domain.AttendanceStatus) (created bool, err error)
	FindForDay(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error)
	Get(ctx context.Context, id int64) (*domain.AttendanceRecord, error)
	// CheckIn sets the check-in only while it is unset. It returns
	// domain.ErrConflict when the condition no longer holds.
	CheckIn(ctx context.Context, id int64, at time.Time, location, image *string) (*domain.AttendanceRecord, error)
	// CheckOut sets the check-out only while check-in is set and check-out
	// is unset. It returns domain.ErrConflict when the condition no longer holds.
	CheckOut(ctx context.Context, id int64, at time.Time) (*domain.AttendanceRecord, error)
	Update(ctx context.Context, id int64, fields AttendanceFields) (*domain.AttendanceRecord, error)
	List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceRecord, int, error)
	CountDistinctByStatus(ctx context.Context, from, to time.Time) (StatusCounts, error)
}

// UserStore resolves login identities.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
}
