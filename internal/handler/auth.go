package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Service *service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.me)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	res, err := h.Service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     res.AccessToken,
		"expiresAt": res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":      userView(res.User),
	})
}

func (h AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	user, err := h.Service.Me(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userView(*user))
}

func userView(u domain.User) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"employee_id": u.EmployeeID,
		"name":        u.Name,
		"email":       u.Email,
		"phone":       u.Phone,
		"role":        string(u.Role),
	}
}
