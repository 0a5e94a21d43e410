package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/service"
)

type startATSRequest struct {
	CVID      string               `json:"cvId"`
	Type      domain.ATSAnalysisType `json:"type"`
	TargetJob domain.TargetJob       `json:"targetJob"`
	Priority  int                    `json:"priority"`
}

// ATSStartHandler implements ats.start.
func (s *Server) ATSStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req startATSRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		j, err := s.ATS.Start(r.Context(), userID, req.CVID, req.Type, req.TargetJob, service.ATSOptions{Priority: req.Priority})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": j.ID})
	}
}

// ATSResultHandler implements ats.result.
func (s *Server) ATSResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		res, err := s.ATS.Result(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
