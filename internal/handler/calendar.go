package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"hr-attendance-backend/internal/clock"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type CalendarHandler struct {
	Service *service.CalendarService
	Clock   clock.Clock
}

func (h CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/calendar", h.view)
	r.Get("/admin/calendar/day", h.day)
	r.Put("/admin/calendar/day", h.setDay)
	r.Put("/admin/calendar/bulk", h.bulk)
}

func (h CalendarHandler) view(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	year, err := parseIntQuery(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if year == 0 {
		year = h.Clock.Now().Year()
	}
	month, err := parseIntQuery(r, "month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("month") != "" {
		m, err := h.Service.Month(r.Context(), p, year, month)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, monthView(*m))
		return
	}
	y, err := h.Service.Year(r.Context(), p, year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	months := make([]map[string]any, 0, len(y.Months))
	for _, m := range y.Months {
		months = append(months, monthView(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":                y.Year,
		"total_days":          y.TotalDays,
		"total_work_days":     y.TotalWorkDays,
		"total_non_work_days": y.TotalNonWorkDays,
		"months":              months,
	})
}

func (h CalendarHandler) day(w http.ResponseWriter, r *http.Request) {
	if _, ok := principalFrom(w, r); !ok {
		return
	}
	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if date == nil {
		d := domain.DateOf(h.Clock.Now())
		date = &d
	}
	day, err := h.Service.GetDay(r.Context(), *date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarDayView(*day))
}

func (h CalendarHandler) setDay(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Date      string  `json:"date"`
		IsWorkDay *bool   `json:"is_work_day"`
		Remark    *string `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be a valid date (YYYY-MM-DD)")
		return
	}
	if req.IsWorkDay == nil {
		writeError(w, http.StatusBadRequest, "is_work_day is required")
		return
	}
	day, err := h.Service.SetDayStatus(r.Context(), p, date, *req.IsWorkDay, req.Remark)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Calendar day updated successfully", calendarDayView(*day))
}

func (h CalendarHandler) bulk(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Dates     []string `json:"dates"`
		IsWorkDay *bool    `json:"is_work_day"`
		Remark    *string  `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.IsWorkDay == nil {
		writeError(w, http.StatusBadRequest, "is_work_day is required")
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, s := range req.Dates {
		d, err := domain.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+s)
			return
		}
		dates = append(dates, d)
	}
	res, err := h.Service.BulkSetDayStatus(r.Context(), p, dates, *req.IsWorkDay, req.Remark)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notFound := make([]string, 0, len(res.NotFoundDates))
	for _, d := range res.NotFoundDates {
		notFound = append(notFound, d.Format(domain.DateLayout))
	}
	writeMessage(w, http.StatusOK, "Calendar days updated successfully", map[string]any{
		"updated_count":   res.UpdatedCount,
		"not_found_dates": notFound,
	})
}

func monthView(m service.MonthCalendar) map[string]any {
	days := make([]map[string]any, 0, len(m.Days))
	for _, d := range m.Days {
		days = append(days, calendarDayView(d))
	}
	return map[string]any{
		"year":          m.Year,
		"month":         m.Month,
		"month_name":    m.MonthName,
		"total_days":    m.TotalDays,
		"work_days":     m.WorkDays,
		"non_work_days": m.NonWorkDays,
		"days":          days,
	}
}

func calendarDayView(d domain.CalendarDay) map[string]any {
	return map[string]any{
		"id":          d.ID,
		"date":        d.Date.Format(domain.DateLayout),
		"day_name":    d.DayName,
		"is_work_day": d.IsWorkDay,
		"status":      string(d.Status()),
		"remark":      d.Remark,
	}
}
