package domain

import "time"

// Enumerations
const (
	RoleAdmin    UserRole = "admin"
	RoleEmployee UserRole = "employee"

	AttendancePending AttendanceStatus = "Pending"
	AttendanceOffDay  AttendanceStatus = "Off Day"
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"

	CalendarWorkDay CalendarStatus = "Work Day"
	CalendarOffDay  CalendarStatus = "Off Day"
)

type UserRole string
type AttendanceStatus string
type CalendarStatus string

// Valid reports whether s is one of the known attendance statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePending, AttendanceOffDay, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}

type User struct {
	ID           int64
	EmployeeID   *int64
	Name         string
	Email        string
	Phone        string
	Role         UserRole
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Employee struct {
	ID         int64
	Name       string
	Position   string
	Level      string
	BaseSalary int64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CalendarDay is one seeded date of the work calendar. Date is the civil
// date at midnight UTC.
type CalendarDay struct {
	ID        int64
	Date      time.Time
	DayName   string
	IsWorkDay bool
	Remark    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is the classification used when generating attendance for the day.
func (d CalendarDay) Status() CalendarStatus {
	if d.IsWorkDay {
		return CalendarWorkDay
	}
	return CalendarOffDay
}

type AttendanceRecord struct {
	ID             int64
	EmployeeID     int64
	WorkCalendarID int64
	CheckIn        *time.Time
	CheckOut       *time.Time
	Status         AttendanceStatus
	Location       *string
	Image          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Employee    *Employee
	CalendarDay *CalendarDay
}

// Principal is the authenticated caller of a core operation.
type Principal struct {
	UserID     int64
	EmployeeID *int64
	Role       UserRole
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// DateOf truncates t to its civil date in t's own location and returns it
// as midnight UTC, the form calendar dates are stored and compared in.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
