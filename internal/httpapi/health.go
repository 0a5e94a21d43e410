package httpapi

import (
	"net/http"
)

// HealthzHandler is the liveness probe: it never depends on downstream
// services, only on the process being able to answer at all.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler is the readiness probe: it aggregates every configured
// dependency check (Postgres, Redis, object store, and Tika when configured) and
// reports 503 if any fails, naming which one.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := map[string]string{}
		ok := true
		for name, check := range s.ReadinessChecks {
			if err := check(r.Context()); err != nil {
				results[name] = err.Error()
				ok = false
				continue
			}
			results[name] = "ok"
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"ready": ok, "checks": results})
	}
}
