package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cvenhancer/core/internal/service"
)

type startOptimizeRequest struct {
	CVID           string   `json:"cvId"`
	TargetRole     string   `json:"targetRole"`
	JobDescription string   `json:"jobDescription"`
	Sections       []string `json:"sections"`
	Priority       int      `json:"priority"`
	Instructions   string   `json:"instructions"`
}

// OptimizeStartHandler implements optimize.start.
func (s *Server) OptimizeStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req startOptimizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		j, err := s.Optimize.Start(r.Context(), userID, req.CVID, req.TargetRole, req.JobDescription, req.Sections,
			service.OptimizeOptions{Priority: req.Priority, Instructions: req.Instructions})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": j.ID})
	}
}
