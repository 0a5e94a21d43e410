package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/service"
)

type startGenerationRequest struct {
	CVID          string               `json:"cvId,omitempty"`
	VersionID     string               `json:"versionId,omitempty"`
	InputData     *domain.Content      `json:"inputData,omitempty"`
	OutputFormat  domain.OutputFormat  `json:"outputFormat"`
	TemplateID    domain.TemplateID    `json:"templateId"`
	Customization domain.Customization `json:"customization,omitempty"`
	Priority      int                  `json:"priority"`
}

// GenerationStartHandler implements generation.start.
func (s *Server) GenerationStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req startGenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		in := service.GenerationInput{CVID: req.CVID, VersionID: req.VersionID, InputData: req.InputData}
		j, err := s.Generation.Start(r.Context(), userID, in, req.OutputFormat, req.TemplateID, req.Customization,
			service.GenerationOptions{Priority: req.Priority})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": j.ID})
	}
}

// GenerationDownloadHandler implements generation.download: streams the
// stored artifact with its original filename and content type.
func (s *Server) GenerationDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		res, err := s.Generation.Download(r.Context(), userID, chi.URLParam(r, "jobId"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Disposition", "attachment; filename=\""+res.FileName+"\"")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Stream)
	}
}
