package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hr-attendance-backend/internal/clock"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	msgNoRecordToday   = "No attendance record found for today"
	msgAlreadyIn       = "Already checked in today"
	msgMustCheckIn     = "Must check in first"
	msgAlreadyOut      = "Already checked out today"
	msgNoEmployee      = "Employee not found for current user"
	msgAttendanceGone  = "Attendance not found"
	actionCheckIn      = "check_in"
	actionCheckOut     = "check_out"
	outcomeOK          = "ok"
	outcomeConflict    = "conflict"
	outcomeNotFound    = "not_found"
	outcomeError       = "error"
	outcomeMisconfig   = "misconfigured"
)

type AttendanceService struct {
	Attendance ports.AttendanceStore
	Calendar   CalendarService
	Employees  ports.EmployeeDirectory
	Clock      clock.Clock
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
	PageSize   int
}

type GenerationResult struct {
	Date           time.Time
	Created        int
	Skipped        int
	CalendarStatus domain.CalendarStatus
}

type CheckInInput struct {
	Location *string
	Image    *string
}

// AttendanceUpdate holds the fields an administrator may overwrite. Nil
// fields are left unchanged.
type AttendanceUpdate struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Location *string
	Status   *domain.AttendanceStatus
	Image    *string
}

type ListInput struct {
	Date       *time.Time
	EmployeeID *int64
	Status     *domain.AttendanceStatus
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PerPage    int
}

type AttendancePage struct {
	Items    []domain.AttendanceRecord
	Total    int
	Page     int
	PerPage  int
	LastPage int
}

type Summary struct {
	StartDate      time.Time
	EndDate        time.Time
	TotalEmployees int
	Present        int
	Absent         int
	Pending        int
	OffDay         int
}

// GenerateDaily materializes today's attendance record for every active
// employee. Existing records are skipped, so the run can be repeated, and
// the store's unique key keeps concurrent runs from duplicating a record.
func (s AttendanceService) GenerateDaily(ctx context.Context) (*GenerationResult, error) {
	today := domain.DateOf(s.now())
	log := s.log().With("date", today.Format(domain.DateLayout))
	log.Info("starting daily attendance generation")

	day, err := s.Calendar.GetDay(ctx, today)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.Metrics.Generation(outcomeMisconfig, 0, 0)
			return nil, domain.Misconfigured("No work calendar entry found for %s", today.Format(domain.DateLayout))
		}
		s.Metrics.Generation(outcomeError, 0, 0)
		return nil, err
	}

	result := &GenerationResult{Date: day.Date, CalendarStatus: day.Status()}

	employees, err := s.Employees.ListActive(ctx)
	if err != nil {
		s.Metrics.Generation(outcomeError, 0, 0)
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	if len(employees) == 0 {
		log.Warn("no active employees found")
		s.Metrics.Generation(outcomeOK, 0, 0)
		return result, nil
	}

	status := domain.AttendancePending
	if !day.IsWorkDay {
		status = domain.AttendanceOffDay
	}
	for _, emp := range employees {
		created, err := s.Attendance.CreateIfAbsent(ctx, emp.ID, day.ID, status)
		if err != nil {
			s.Metrics.Generation(outcomeError, result.Created, result.Skipped)
			return nil, fmt.Errorf("create attendance for employee %d: %w", emp.ID, err)
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	s.Metrics.Generation(outcomeOK, result.Created, result.Skipped)
	log.Info("attendance generation completed", "created", result.Created, "skipped", result.Skipped, "calendar_status", string(result.CalendarStatus))
	return result, nil
}

// Today returns the caller's attendance record for the current date.
func (s AttendanceService) Today(ctx context.Context, p domain.Principal) (*domain.AttendanceRecord, error) {
	employeeID, err := employeeOf(p)
	if err != nil {
		return nil, err
	}
	return s.findToday(ctx, employeeID)
}

func (s AttendanceService) CheckIn(ctx context.Context, p domain.Principal, in CheckInInput) (*domain.AttendanceRecord, error) {
	rec, err := s.checkIn(ctx, p, in)
	s.Metrics.Transition(actionCheckIn, outcomeOf(err))
	return rec, err
}

func (s AttendanceService) checkIn(ctx context.Context, p domain.Principal, in CheckInInput) (*domain.AttendanceRecord, error) {
	employeeID, err := employeeOf(p)
	if err != nil {
		return nil, err
	}
	if err := validateText("location", in.Location); err != nil {
		return nil, err
	}
	if err := validateText("image", in.Image); err != nil {
		return nil, err
	}
	now := s.now()
	rec, err := s.findToday(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if rec.CheckIn != nil {
		return nil, domain.Conflict(msgAlreadyIn)
	}

	updated, err := s.Attendance.CheckIn(ctx, rec.ID, now, in.Location, in.Image)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			return nil, domain.Conflict(msgAlreadyIn)
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NotFound(msgNoRecordToday)
		}
		return nil, fmt.Errorf("check in: %w", err)
	}
	s.log().Info("employee checked in", "employee_id", employeeID, "attendance_id", updated.ID)
	return updated, nil
}

func (s AttendanceService) CheckOut(ctx context.Context, p domain.Principal) (*domain.AttendanceRecord, error) {
	rec, err := s.checkOut(ctx, p)
	s.Metrics.Transition(actionCheckOut, outcomeOf(err))
	return rec, err
}

func (s AttendanceService) checkOut(ctx context.Context, p domain.Principal) (*domain.AttendanceRecord, error) {
	employeeID, err := employeeOf(p)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec, err := s.findToday(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if rec.CheckIn == nil {
		return nil, domain.Conflict(msgMustCheckIn)
	}
	if rec.CheckOut != nil {
		return nil, domain.Conflict(msgAlreadyOut)
	}

	updated, err := s.Attendance.CheckOut(ctx, rec.ID, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			// check_in is never cleared by this path, so a lost race means
			// another check-out won.
			return nil, domain.Conflict(msgAlreadyOut)
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NotFound(msgNoRecordToday)
		}
		return nil, fmt.Errorf("check out: %w", err)
	}
	s.log().Info("employee checked out", "employee_id", employeeID, "attendance_id", updated.ID)
	return updated, nil
}

func (s AttendanceService) GetAttendance(ctx context.Context, p domain.Principal, id int64) (*domain.AttendanceRecord, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	rec, err := s.Attendance.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(msgAttendanceGone)
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return rec, nil
}

// UpdateAttendance lets an administrator correct a record by id. It is the
// only way a record reaches Absent.
func (s AttendanceService) UpdateAttendance(ctx context.Context, p domain.Principal, id int64, in AttendanceUpdate) (*domain.AttendanceRecord, error) {
	current, err := s.GetAttendance(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.Invalid("status must be one of Pending, Off Day, Present, Absent")
	}
	if err := validateText("location", in.Location); err != nil {
		return nil, err
	}
	if err := validateText("image", in.Image); err != nil {
		return nil, err
	}
	checkIn, checkOut := current.CheckIn, current.CheckOut
	if in.CheckIn != nil {
		checkIn = in.CheckIn
	}
	if in.CheckOut != nil {
		checkOut = in.CheckOut
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return nil, domain.Invalid("check_out must not be before check_in")
	}
	if in == (AttendanceUpdate{}) {
		return current, nil
	}

	updated, err := s.Attendance.Update(ctx, id, ports.AttendanceFields(in))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(msgAttendanceGone)
		}
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	s.log().Info("attendance updated", "attendance_id", id, "by", p.UserID)
	return updated, nil
}

func (s AttendanceService) ListAttendance(ctx context.Context, p domain.Principal, in ListInput) (*AttendancePage, error) {
	filter, err := s.filterFor(p, in)
	if err != nil {
		return nil, err
	}
	page, perPage := in.Page, in.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = s.PageSize
		if perPage < 1 {
			perPage = defaultPageSize
		}
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	items, total, err := s.Attendance.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if items == nil {
		items = []domain.AttendanceRecord{}
	}
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	return &AttendancePage{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

// ExportAttendance returns every record matching the filter, unpaginated.
func (s AttendanceService) ExportAttendance(ctx context.Context, p domain.Principal, in ListInput) ([]domain.AttendanceRecord, error) {
	filter, err := s.filterFor(p, in)
	if err != nil {
		return nil, err
	}
	items, _, err := s.Attendance.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	return items, nil
}

// Summary counts distinct employees per status over [start, end]. end
// defaults to start.
func (s AttendanceService) Summary(ctx context.Context, p domain.Principal, start time.Time, end *time.Time) (*Summary, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	from := domain.DateOf(start)
	to := from
	if end != nil {
		to = domain.DateOf(*end)
	}
	if to.Before(from) {
		return nil, domain.Invalid("end_date must be a date after or equal to start_date")
	}

	total, err := s.Employees.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active employees: %w", err)
	}
	counts, err := s.Attendance.CountDistinctByStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", err)
	}
	return &Summary{
		StartDate:      from,
		EndDate:        to,
		TotalEmployees: total,
		Present:        counts.Present,
		Absent:         counts.Absent,
		Pending:        counts.Pending,
		OffDay:         counts.OffDay,
	}, nil
}

func (s AttendanceService) filterFor(p domain.Principal, in ListInput) (ports.AttendanceFilter, error) {
	if err := requireAdmin(p); err != nil {
		return ports.AttendanceFilter{}, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return ports.AttendanceFilter{}, domain.Invalid("status must be one of Pending, Off Day, Present, Absent")
	}
	filter := ports.AttendanceFilter{
		Date:       datePtr(in.Date),
		EmployeeID: in.EmployeeID,
		Status:     in.Status,
	}
	// A range applies only when both ends are given.
	if in.StartDate != nil && in.EndDate != nil {
		from, to := domain.DateOf(*in.StartDate), domain.DateOf(*in.EndDate)
		if to.Before(from) {
			return ports.AttendanceFilter{}, domain.Invalid("end_date must be a date after or equal to start_date")
		}
		filter.StartDate, filter.EndDate = &from, &to
	}
	return filter, nil
}

func (s AttendanceService) findToday(ctx context.Context, employeeID int64) (*domain.AttendanceRecord, error) {
	rec, err := s.Attendance.FindForDay(ctx, employeeID, domain.DateOf(s.now()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(msgNoRecordToday)
		}
		return nil, fmt.Errorf("find today's attendance: %w", err)
	}
	return rec, nil
}

func (s AttendanceService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s AttendanceService) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func employeeOf(p domain.Principal) (int64, error) {
	if p.EmployeeID == nil {
		return 0, domain.NotFound(msgNoEmployee)
	}
	return *p.EmployeeID, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrConflict):
		return outcomeConflict
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	}
	return outcomeError
}

func validateText(field string, v *string) error {
	if v != nil && len(*v) > maxTextLength {
		return domain.Invalid("%s may not be greater than 255 characters", field)
	}
	return nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}
