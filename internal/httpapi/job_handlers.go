package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/service"
)

// JobGetHandler implements job.get.
func (s *Server) JobGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		j, err := s.Jobs.Get(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

// JobCancelHandler implements job.cancel.
func (s *Server) JobCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		if err := s.Jobs.Cancel(r.Context(), userID, chi.URLParam(r, "jobId")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// JobRetryHandler implements job.retry.
func (s *Server) JobRetryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		j, err := s.Jobs.Retry(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": j.ID})
	}
}

// JobListHandler implements job.list(userId, filters, pagination).
func (s *Server) JobListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		filters := service.JobFilters{
			Type:   domain.QueueName(q.Get("type")),
			Status: domain.JobStatus(q.Get("status")),
		}
		jobs, err := s.Jobs.List(r.Context(), userID, filters, limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}
