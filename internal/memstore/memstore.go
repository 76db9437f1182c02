// Package memstore holds in-memory implementations of the storage ports.
// They keep the same uniqueness and guarded-update rules as the Postgres
// repositories and back the service and HTTP tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"
)

type Calendar struct {
	mu     sync.Mutex
	nextID int64
	days   map[time.Time]*domain.CalendarDay
}

func NewCalendar(days ...domain.CalendarDay) *Calendar {
	c := &Calendar{days: map[time.Time]*domain.CalendarDay{}}
	_, _ = c.Seed(context.Background(), days)
	return c
}

func (c *Calendar) GetByDate(_ context.Context, date time.Time) (*domain.CalendarDay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.days[date]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (c *Calendar) byID(id int64) *domain.CalendarDay {
	for _, d := range c.days {
		if d.ID == id {
			cp := *d
			return &cp
		}
	}
	return nil
}

func (c *Calendar) SetStatus(_ context.Context, date time.Time, isWorkDay bool, remark string) (*domain.CalendarDay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.days[date]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d.IsWorkDay, d.Remark = isWorkDay, remark
	cp := *d
	return &cp, nil
}

func (c *Calendar) BulkSetStatus(ctx context.Context, dates []time.Time, isWorkDay bool, remark string) (int, []time.Time, error) {
	updated := 0
	var notFound []time.Time
	for _, d := range dates {
		if _, err := c.SetStatus(ctx, d, isWorkDay, remark); err != nil {
			notFound = append(notFound, d)
			continue
		}
		updated++
	}
	return updated, notFound, nil
}

func (c *Calendar) ListRange(_ context.Context, from, to time.Time) ([]domain.CalendarDay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.CalendarDay
	for date, d := range c.days {
		if !date.Before(from) && !date.After(to) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (c *Calendar) Seed(_ context.Context, days []domain.CalendarDay) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range days {
		if _, ok := c.days[d.Date]; ok {
			continue
		}
		c.nextID++
		d.ID = c.nextID
		cp := d
		c.days[d.Date] = &cp
		n++
	}
	return n, nil
}

type Employees struct {
	Items []domain.Employee
}

func (e Employees) ListActive(_ context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, emp := range e.Items {
		if emp.IsActive {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (e Employees) CountActive(ctx context.Context) (int, error) {
	items, _ := e.ListActive(ctx)
	return len(items), nil
}

func (e Employees) Get(_ context.Context, id int64) (*domain.Employee, error) {
	for _, emp := range e.Items {
		if emp.ID == id {
			cp := emp
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (e Employees) List(_ context.Context, f ports.EmployeeFilter) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, emp := range e.Items {
		if f.IsActive != nil && emp.IsActive != *f.IsActive {
			continue
		}
		out = append(out, emp)
	}
	return out, nil
}

type pairKey struct {
	employeeID int64
	dayID      int64
}

// Attendance enforces a unique (employee, day) key and guarded
// check-in/check-out updates under one lock.
type Attendance struct {
	mu       sync.Mutex
	calendar *Calendar
	nextID   int64
	records  []*domain.AttendanceRecord
	pairs    map[pairKey]int64
}

func NewAttendance(cal *Calendar) *Attendance {
	return &Attendance{calendar: cal, pairs: map[pairKey]int64{}}
}

func (a *Attendance) CreateIfAbsent(_ context.Context, employeeID, dayID int64, status domain.AttendanceStatus) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := pairKey{employeeID, dayID}
	if _, ok := a.pairs[key]; ok {
		return false, nil
	}
	a.nextID++
	a.records = append(a.records, &domain.AttendanceRecord{
		ID:             a.nextID,
		EmployeeID:     employeeID,
		WorkCalendarID: dayID,
		Status:         status,
		CreatedAt:      time.Unix(a.nextID, 0),
	})
	a.pairs[key] = a.nextID
	return true, nil
}

func (a *Attendance) find(id int64) *domain.AttendanceRecord {
	for _, r := range a.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (a *Attendance) view(r *domain.AttendanceRecord) *domain.AttendanceRecord {
	cp := *r
	a.calendar.mu.Lock()
	cp.CalendarDay = a.calendar.byID(r.WorkCalendarID)
	a.calendar.mu.Unlock()
	return &cp
}

func (a *Attendance) FindForDay(ctx context.Context, employeeID int64, date time.Time) (*domain.AttendanceRecord, error) {
	day, err := a.calendar.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.pairs[pairKey{employeeID, day.ID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.view(a.find(id)), nil
}

func (a *Attendance) Get(_ context.Context, id int64) (*domain.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.find(id)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return a.view(r), nil
}

func (a *Attendance) CheckIn(_ context.Context, id int64, at time.Time, location, image *string) (*domain.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.find(id)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if r.CheckIn != nil {
		return nil, domain.ErrConflict
	}
	r.CheckIn, r.Status, r.Location, r.Image = &at, domain.AttendancePresent, location, image
	return a.view(r), nil
}

func (a *Attendance) CheckOut(_ context.Context, id int64, at time.Time) (*domain.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.find(id)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if r.CheckIn == nil || r.CheckOut != nil {
		return nil, domain.ErrConflict
	}
	r.CheckOut = &at
	return a.view(r), nil
}

func (a *Attendance) Update(_ context.Context, id int64, f ports.AttendanceFields) (*domain.AttendanceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.find(id)
	if r == nil {
		return nil, domain.ErrNotFound
	}
	if f.CheckIn != nil {
		r.CheckIn = f.CheckIn
	}
	if f.CheckOut != nil {
		r.CheckOut = f.CheckOut
	}
	if f.Location != nil {
		r.Location = f.Location
	}
	if f.Status != nil {
		r.Status = *f.Status
	}
	if f.Image != nil {
		r.Image = f.Image
	}
	return a.view(r), nil
}

func (a *Attendance) List(_ context.Context, f ports.AttendanceFilter) ([]domain.AttendanceRecord, int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var matched []domain.AttendanceRecord
	for i := len(a.records) - 1; i >= 0; i-- {
		r := a.view(a.records[i])
		date := r.CalendarDay.Date
		switch {
		case f.Date != nil && !date.Equal(*f.Date),
			f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID,
			f.Status != nil && r.Status != *f.Status,
			f.StartDate != nil && date.Before(*f.StartDate),
			f.EndDate != nil && date.After(*f.EndDate):
			continue
		}
		matched = append(matched, *r)
	}
	total := len(matched)
	if f.Limit > 0 {
		if f.Offset >= len(matched) {
			return nil, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[f.Offset:end]
	}
	return matched, total, nil
}

func (a *Attendance) CountDistinctByStatus(_ context.Context, from, to time.Time) (ports.StatusCounts, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seen := map[domain.AttendanceStatus]map[int64]struct{}{}
	for _, r := range a.records {
		date := a.view(r).CalendarDay.Date
		if date.Before(from) || date.After(to) {
			continue
		}
		if seen[r.Status] == nil {
			seen[r.Status] = map[int64]struct{}{}
		}
		seen[r.Status][r.EmployeeID] = struct{}{}
	}
	return ports.StatusCounts{
		Present: len(seen[domain.AttendancePresent]),
		Absent:  len(seen[domain.AttendanceAbsent]),
		Pending: len(seen[domain.AttendancePending]),
		OffDay:  len(seen[domain.AttendanceOffDay]),
	}, nil
}

// Count returns the number of stored records.
func (a *Attendance) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

type Users struct {
	Items []domain.User
}

func (u Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range u.Items {
		if user.Email == email {
			cp := user
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (u Users) Get(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range u.Items {
		if user.ID == id {
			cp := user
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

var (
	_ ports.CalendarStore     = (*Calendar)(nil)
	_ ports.EmployeeDirectory = Employees{}
	_ ports.AttendanceStore   = (*Attendance)(nil)
	_ ports.UserStore         = Users{}
)
