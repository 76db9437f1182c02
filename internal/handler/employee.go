package handler

import (
	"net/http"
	"strconv"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/ports"

	"github.com/go-chi/chi/v5"
)

type EmployeeHandler struct {
	Repo ports.EmployeeDirectory
}

func (h EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/employees", h.list)
}

func (h EmployeeHandler) list(w http.ResponseWriter, r *http.Request) {
	if _, ok := principalFrom(w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := ports.EmployeeFilter{
		Position: q.Get("position"),
		Level:    q.Get("level"),
	}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid is_active")
			return
		}
		filter.IsActive = &active
	}
	items, err := h.Repo.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, e := range items {
		resp = append(resp, employeeView(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func employeeView(e domain.Employee) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"name":        e.Name,
		"position":    e.Position,
		"level":       e.Level,
		"base_salary": e.BaseSalary,
		"is_active":   e.IsActive,
	}
}
