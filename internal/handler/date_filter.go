package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/server/authctx"
)

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := domain.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &parsed, nil
}

func parseIntQuery(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// principalFrom returns the authenticated caller, writing a 401 when the
// request carries none.
func principalFrom(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p := authctx.FromContext(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Principal{}, false
	}
	return *p, true
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
