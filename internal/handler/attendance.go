package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"hr-attendance-backend/internal/clock"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

// AttendanceHandler serves the employee check-in flow and the admin ledger.
type AttendanceHandler struct {
	Service  *service.AttendanceService
	Location *time.Location
}

func (h AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/attendance/check-in", h.checkIn)
	r.Post("/attendance/check-out", h.checkOut)
	r.Get("/attendance/today", h.today)
}

func (h AttendanceHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/attendance", h.list)
	r.Get("/admin/attendance/summary", h.summary)
	r.Get("/admin/attendance/export", h.export)
	r.Post("/admin/attendance/generate", h.generate)
	r.Get("/admin/attendance/{id}", h.show)
	r.Put("/admin/attendance/{id}", h.update)
}

func (h AttendanceHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Location *string `json:"location"`
		Image    *string `json:"image"`
	}
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rec, err := h.Service.CheckIn(r.Context(), p, service.CheckInInput{Location: req.Location, Image: req.Image})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Checked in successfully", attendanceView(*rec))
}

func (h AttendanceHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.CheckOut(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Checked out successfully", attendanceView(*rec))
}

func (h AttendanceHandler) today(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Today(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceView(*rec))
}

func (h AttendanceHandler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	in, err := listInputFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.Service.ListAttendance(r.Context(), p, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]map[string]any, 0, len(page.Items))
	for _, rec := range page.Items {
		items = append(items, attendanceView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"total":     page.Total,
		"page":      page.Page,
		"per_page":  page.PerPage,
		"last_page": page.LastPage,
	})
}

func (h AttendanceHandler) summary(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	start, err := parseDateQuery(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start == nil {
		writeError(w, http.StatusBadRequest, "start_date is required")
		return
	}
	end, err := parseDateQuery(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum, err := h.Service.Summary(r.Context(), p, *start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start_date":      sum.StartDate.Format(domain.DateLayout),
		"end_date":        sum.EndDate.Format(domain.DateLayout),
		"total_employees": sum.TotalEmployees,
		"present":         sum.Present,
		"absent":          sum.Absent,
		"pending":         sum.Pending,
		"off_day":         sum.OffDay,
	})
}

func (h AttendanceHandler) generate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		writeError(w, http.StatusForbidden, "Insufficient permissions. Required role: admin")
		return
	}
	res, err := h.Service.GenerateDaily(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Daily attendance generated", map[string]any{
		"date":            res.Date.Format(domain.DateLayout),
		"created":         res.Created,
		"skipped":         res.Skipped,
		"calendar_status": string(res.CalendarStatus),
	})
}

func (h AttendanceHandler) show(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := h.Service.GetAttendance(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceView(*rec))
}

func (h AttendanceHandler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		CheckIn  *string `json:"check_in"`
		CheckOut *string `json:"check_out"`
		Location *string `json:"location"`
		Status   *string `json:"status"`
		Image    *string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in := service.AttendanceUpdate{Location: req.Location, Image: req.Image}
	if in.CheckIn, err = h.parseTime(req.CheckIn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_in")
		return
	}
	if in.CheckOut, err = h.parseTime(req.CheckOut); err != nil {
		writeError(w, http.StatusBadRequest, "invalid check_out")
		return
	}
	if req.Status != nil {
		status := domain.AttendanceStatus(*req.Status)
		in.Status = &status
	}
	rec, err := h.Service.UpdateAttendance(r.Context(), p, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Attendance updated successfully", attendanceView(*rec))
}

func (h AttendanceHandler) parseTime(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := clock.Parse(*v, h.Location)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func listInputFrom(r *http.Request) (service.ListInput, error) {
	var in service.ListInput
	var err error
	if in.Date, err = parseDateQuery(r, "date"); err != nil {
		return in, err
	}
	if in.StartDate, err = parseDateQuery(r, "start_date"); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDateQuery(r, "end_date"); err != nil {
		return in, err
	}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return in, errors.New("invalid employee_id")
		}
		in.EmployeeID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.AttendanceStatus(v)
		in.Status = &status
	}
	if in.Page, err = parseIntQuery(r, "page"); err != nil {
		return in, err
	}
	if in.PerPage, err = parseIntQuery(r, "per_page"); err != nil {
		return in, err
	}
	return in, nil
}

func attendanceView(a domain.AttendanceRecord) map[string]any {
	out := map[string]any{
		"id":               a.ID,
		"employee_id":      a.EmployeeID,
		"work_calendar_id": a.WorkCalendarID,
		"check_in":         timeOrNil(a.CheckIn),
		"check_out":        timeOrNil(a.CheckOut),
		"status":           string(a.Status),
		"location":         stringOrNil(a.Location),
		"image":            stringOrNil(a.Image),
		"created_at":       a.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.Employee != nil {
		out["employee"] = employeeView(*a.Employee)
	}
	if a.CalendarDay != nil {
		out["work_calendar"] = calendarDayView(*a.CalendarDay)
	}
	return out
}
