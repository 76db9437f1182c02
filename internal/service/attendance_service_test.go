package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"hr-attendance-backend/internal/clock"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/memstore"
	"hr-attendance-backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	saturday = time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	monday   = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tuesday  = time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)

	admin = domain.Principal{UserID: 1, Role: domain.RoleAdmin}
)

func employeePrincipal(id int64) domain.Principal {
	return domain.Principal{UserID: 100 + id, EmployeeID: &id, Role: domain.RoleEmployee}
}

type ledger struct {
	calendar   *memstore.Calendar
	attendance *memstore.Attendance
	clock      *clock.Fixed
	svc        AttendanceService
}

// newLedger seeds Saturday 2025-01-04 (off), Monday 2025-01-06 and Tuesday
// 2025-01-07 (work) and the given employees.
func newLedger(t *testing.T, employees ...domain.Employee) *ledger {
	t.Helper()
	cal := memstore.NewCalendar(
		domain.CalendarDay{Date: saturday, DayName: "Saturday", IsWorkDay: false, Remark: "Weekend"},
		domain.CalendarDay{Date: monday, DayName: "Monday", IsWorkDay: true, Remark: "Normal workday"},
		domain.CalendarDay{Date: tuesday, DayName: "Tuesday", IsWorkDay: true, Remark: "Normal workday"},
	)
	att := memstore.NewAttendance(cal)
	clk := &clock.Fixed{At: monday.Add(8 * time.Hour)}
	return &ledger{
		calendar:   cal,
		attendance: att,
		clock:      clk,
		svc: AttendanceService{
			Attendance: att,
			Calendar:   CalendarService{Store: cal},
			Employees:  memstore.Employees{Items: employees},
			Clock:      clk,
		},
	}
}

func (l *ledger) at(t time.Time) { l.clock.At = t }

func activeEmployees(ids ...int64) []domain.Employee {
	out := make([]domain.Employee, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Employee{ID: id, IsActive: true})
	}
	return out
}

func TestGenerateDailyClassifiesDay(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		status   domain.AttendanceStatus
		calendar domain.CalendarStatus
	}{
		{name: "work day", now: monday.Add(6 * time.Hour), status: domain.AttendancePending, calendar: domain.CalendarWorkDay},
		{name: "off day", now: saturday.Add(6 * time.Hour), status: domain.AttendanceOffDay, calendar: domain.CalendarOffDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, activeEmployees(1, 2)...)
			l.at(tt.now)

			res, err := l.svc.GenerateDaily(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 2, res.Created)
			assert.Equal(t, 0, res.Skipped)
			assert.Equal(t, tt.calendar, res.CalendarStatus)
			assert.True(t, domain.DateOf(tt.now).Equal(res.Date))

			for _, id := range []int64{1, 2} {
				rec, err := l.attendance.FindForDay(context.Background(), id, domain.DateOf(tt.now))
				require.NoError(t, err)
				assert.Equal(t, tt.status, rec.Status)
				assert.Nil(t, rec.CheckIn)
			}
		})
	}
}

func TestGenerateDailyIsIdempotent(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2, 3)...)
	ctx := context.Background()

	first, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)

	second, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 3, l.attendance.Count())
}

func TestGenerateDailyConcurrentRuns(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2, 3, 4, 5)...)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.svc.GenerateDaily(ctx)
			assert.NoError(t, err)
			if res != nil {
				mu.Lock()
				created += res.Created
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, created)
	assert.Equal(t, 5, l.attendance.Count())
}

func TestGenerateDailySkipsInactiveEmployees(t *testing.T) {
	emps := append(activeEmployees(1), domain.Employee{ID: 2, IsActive: false})
	l := newLedger(t, emps...)

	res, err := l.svc.GenerateDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	_, err = l.attendance.FindForDay(context.Background(), 2, monday)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateDailyNoActiveEmployees(t *testing.T) {
	l := newLedger(t)

	res, err := l.svc.GenerateDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, domain.CalendarWorkDay, res.CalendarStatus)
}

func TestGenerateDailyMissingCalendarDay(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	l.at(time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC))

	res, err := l.svc.GenerateDaily(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.EqualError(t, err, "No work calendar entry found for 2025-01-05")
	assert.Equal(t, 0, l.attendance.Count())
}

func TestGenerateDailyUsesClockLocation(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	// Monday 01:00 in UTC+7 is still Sunday in UTC; the local date wins.
	l.at(time.Date(2025, 1, 6, 1, 0, 0, 0, time.FixedZone("WIB", 7*60*60)))

	res, err := l.svc.GenerateDaily(context.Background())
	require.NoError(t, err)
	assert.True(t, monday.Equal(res.Date))
}

func TestGenerateDailyMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := newLedger(t, activeEmployees(1, 2)...)
	l.svc.Metrics = metrics.New(reg)
	ctx := context.Background()

	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	_, err = l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	expected := `
# HELP attendance_generation_records_total Attendance records considered by the daily generation, by result.
# TYPE attendance_generation_records_total counter
attendance_generation_records_total{result="created"} 2
attendance_generation_records_total{result="skipped"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "attendance_generation_records_total"))
}

func TestCheckInOutLifecycle(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	ana := employeePrincipal(1)
	l.at(monday.Add(8*time.Hour + 3*time.Minute))
	office, selfie := "HQ", "uploads/ana.jpg"

	rec, err := l.svc.CheckIn(ctx, ana, CheckInInput{Location: &office, Image: &selfie})
	require.NoError(t, err)
	assert.Equal(t, domain.AttendancePresent, rec.Status)
	require.NotNil(t, rec.CheckIn)
	assert.Equal(t, monday.Add(8*time.Hour+3*time.Minute), *rec.CheckIn)
	assert.Equal(t, "HQ", *rec.Location)
	assert.Equal(t, "uploads/ana.jpg", *rec.Image)
	assert.Nil(t, rec.CheckOut)

	_, err = l.svc.CheckIn(ctx, ana, CheckInInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Already checked in today")

	l.at(monday.Add(17 * time.Hour))
	rec, err = l.svc.CheckOut(ctx, ana)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	assert.Equal(t, monday.Add(17*time.Hour), *rec.CheckOut)
	assert.Equal(t, domain.AttendancePresent, rec.Status)

	_, err = l.svc.CheckOut(ctx, ana)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Already checked out today")

	// The other employee is untouched.
	other, err := l.attendance.FindForDay(ctx, 2, monday)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendancePending, other.Status)
}

func TestCheckOutBeforeCheckIn(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	_, err = l.svc.CheckOut(ctx, employeePrincipal(1))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Must check in first")
}

func TestCheckInWithoutRecordForToday(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	// Tuesday has a calendar entry but generation has not run for it.
	l.at(tuesday.Add(8 * time.Hour))
	_, err = l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "No attendance record found for today")

	_, err = l.svc.CheckOut(ctx, employeePrincipal(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckInRequiresEmployeeLink(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	_, err := l.svc.CheckIn(context.Background(), admin, CheckInInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Employee not found for current user")
}

func TestCheckInRejectsLongLocation(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	long := string(make([]byte, 256))
	_, err := l.svc.CheckIn(context.Background(), employeePrincipal(1), CheckInInput{Location: &long})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckInIsScopedToToday(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	l.at(tuesday.Add(8 * time.Hour))
	_, err = l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	rec, err := l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
	require.NoError(t, err)
	assert.True(t, tuesday.Equal(rec.CalendarDay.Date))

	// A new day allows a new check-in; Monday's record stays pending.
	mon, err := l.attendance.FindForDay(ctx, 1, monday)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendancePending, mon.Status)
}

func TestConcurrentCheckIn(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.ErrorIs(t, err, domain.ErrConflict)
			conflicts++
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, conflicts)
}

func TestTransitionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := newLedger(t, activeEmployees(1)...)
	l.svc.Metrics = metrics.New(reg)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	_, _ = l.svc.CheckOut(ctx, employeePrincipal(1))
	_, _ = l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
	_, _ = l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})

	expected := `
# HELP attendance_transitions_total Check-in and check-out attempts, by action and outcome.
# TYPE attendance_transitions_total counter
attendance_transitions_total{action="check_in",outcome="conflict"} 1
attendance_transitions_total{action="check_in",outcome="ok"} 1
attendance_transitions_total{action="check_out",outcome="conflict"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "attendance_transitions_total"))
}

func TestToday(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.Today(ctx, employeePrincipal(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	rec, err := l.svc.Today(ctx, employeePrincipal(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.EmployeeID)
}

func TestUpdateAttendance(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	rec, err := l.attendance.FindForDay(ctx, 1, monday)
	require.NoError(t, err)

	absent := domain.AttendanceAbsent
	updated, err := l.svc.UpdateAttendance(ctx, admin, rec.ID, AttendanceUpdate{Status: &absent})
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceAbsent, updated.Status)

	in := monday.Add(9 * time.Hour)
	out := monday.Add(18 * time.Hour)
	present := domain.AttendancePresent
	updated, err = l.svc.UpdateAttendance(ctx, admin, rec.ID, AttendanceUpdate{CheckIn: &in, CheckOut: &out, Status: &present})
	require.NoError(t, err)
	assert.Equal(t, in, *updated.CheckIn)
	assert.Equal(t, out, *updated.CheckOut)
	assert.Equal(t, domain.AttendancePresent, updated.Status)

	unchanged, err := l.svc.UpdateAttendance(ctx, admin, rec.ID, AttendanceUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated.Status, unchanged.Status)
}

func TestUpdateAttendanceErrors(t *testing.T) {
	l := newLedger(t, activeEmployees(1)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	rec, err := l.attendance.FindForDay(ctx, 1, monday)
	require.NoError(t, err)

	bogus := domain.AttendanceStatus("Completed")
	early := monday.Add(7 * time.Hour)
	late := monday.Add(9 * time.Hour)

	tests := []struct {
		name string
		p    domain.Principal
		id   int64
		in   AttendanceUpdate
		kind error
	}{
		{name: "not admin", p: employeePrincipal(1), id: rec.ID, kind: domain.ErrForbidden},
		{name: "unknown id", p: admin, id: 999, kind: domain.ErrNotFound},
		{name: "unknown status", p: admin, id: rec.ID, in: AttendanceUpdate{Status: &bogus}, kind: domain.ErrValidation},
		{name: "check out before check in", p: admin, id: rec.ID, in: AttendanceUpdate{CheckIn: &late, CheckOut: &early}, kind: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.svc.UpdateAttendance(ctx, tt.p, tt.id, tt.in)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestListAttendance(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2, 3)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	l.at(tuesday.Add(8 * time.Hour))
	_, err = l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	_, err = l.svc.CheckIn(ctx, employeePrincipal(2), CheckInInput{})
	require.NoError(t, err)

	page, err := l.svc.ListAttendance(ctx, admin, ListInput{PerPage: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Len(t, page.Items, 4)
	// newest first
	assert.True(t, tuesday.Equal(page.Items[0].CalendarDay.Date))

	page, err = l.svc.ListAttendance(ctx, admin, ListInput{PerPage: 4, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	mon := monday
	page, err = l.svc.ListAttendance(ctx, admin, ListInput{Date: &mon})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 50, page.PerPage)

	present := domain.AttendancePresent
	page, err = l.svc.ListAttendance(ctx, admin, ListInput{Status: &present})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, int64(2), page.Items[0].EmployeeID)

	emp := int64(3)
	page, err = l.svc.ListAttendance(ctx, admin, ListInput{EmployeeID: &emp})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	// A range needs both ends; a lone start date is ignored.
	tue := tuesday
	page, err = l.svc.ListAttendance(ctx, admin, ListInput{StartDate: &tue})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	page, err = l.svc.ListAttendance(ctx, admin, ListInput{StartDate: &tue, EndDate: &tue})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	_, err = l.svc.ListAttendance(ctx, admin, ListInput{StartDate: &tue, EndDate: &mon})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = l.svc.ListAttendance(ctx, employeePrincipal(1), ListInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestExportAttendance(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2)...)
	ctx := context.Background()
	_, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)

	items, err := l.svc.ExportAttendance(ctx, admin, ListInput{Page: 5, PerPage: 1})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSummaryCountsDistinctEmployees(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2, 3)...)
	ctx := context.Background()
	ana := employeePrincipal(1)

	for _, day := range []time.Time{monday, tuesday} {
		l.at(day.Add(8 * time.Hour))
		_, err := l.svc.GenerateDaily(ctx)
		require.NoError(t, err)
		_, err = l.svc.CheckIn(ctx, ana, CheckInInput{})
		require.NoError(t, err)
	}
	rec, err := l.attendance.FindForDay(ctx, 3, tuesday)
	require.NoError(t, err)
	absent := domain.AttendanceAbsent
	_, err = l.svc.UpdateAttendance(ctx, admin, rec.ID, AttendanceUpdate{Status: &absent})
	require.NoError(t, err)

	end := tuesday
	sum, err := l.svc.Summary(ctx, admin, monday, &end)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalEmployees)
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.Absent)
	// employee 2 on both days, employee 3 on Monday
	assert.Equal(t, 2, sum.Pending)
	assert.Equal(t, 0, sum.OffDay)

	// end defaults to start
	sum, err = l.svc.Summary(ctx, admin, tuesday, nil)
	require.NoError(t, err)
	assert.True(t, tuesday.Equal(sum.EndDate))
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, 1, sum.Absent)

	before := monday
	_, err = l.svc.Summary(ctx, admin, tuesday, &before)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = l.svc.Summary(ctx, ana, monday, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScenarioWorkDayAndWeekend(t *testing.T) {
	l := newLedger(t, activeEmployees(1, 2)...)
	ctx := context.Background()

	l.at(saturday.Add(7 * time.Hour))
	res, err := l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	for _, id := range []int64{1, 2} {
		rec, err := l.attendance.FindForDay(ctx, id, saturday)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendanceOffDay, rec.Status)
	}

	l.at(monday.Add(7 * time.Hour))
	res, err = l.svc.GenerateDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	l.at(monday.Add(8 * time.Hour))
	rec, err := l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.AttendancePresent, rec.Status)
	assert.NotNil(t, rec.CheckIn)

	_, err = l.svc.CheckIn(ctx, employeePrincipal(1), CheckInInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Already checked in today")
	assert.Equal(t, 4, l.attendance.Count())
}
