package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvenhancer/core/internal/service"
)

type startParsingRequest struct {
	CVID     string `json:"cvId"`
	Priority int    `json:"priority"`
}

// ParsingStartHandler implements parsing.start.
func (s *Server) ParsingStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req startParsingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		j, err := s.Parsing.Start(r.Context(), userID, req.CVID, service.ParsingOptions{Priority: req.Priority})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": j.ID})
	}
}

// ParsingStatusHandler implements parsing.status.
func (s *Server) ParsingStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		j, err := s.Parsing.Status(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      j.Status,
			"progress":    j.Progress,
			"currentStep": j.CurrentStep,
		})
	}
}

// ParsingResultHandler implements parsing.result.
func (s *Server) ParsingResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		res, err := s.Parsing.Result(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
