package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cvenhancer/core/internal/domain"
)

// createCVRequest is the manual-create body; an uploaded CV instead goes
// through UploadFileHandler, which sets fileRef and leaves content empty
// until parsing.start/Result populates it.
type createCVRequest struct {
	Title   string         `json:"title" validate:"required"`
	Content domain.Content `json:"content"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedUploadMIME enforces the allowlist for C1's raw-file upload path by
// sniffing content rather than trusting the extension or the client-supplied
// Content-Type header.
func allowedUploadMIME(data []byte) bool {
	m := mimetype.Detect(data).String()
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	switch m {
	case "application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
		"application/rtf", "text/rtf":
		return true
	default:
		return false
	}
}

// CreateHandler implements CV creation (manual authoring path of §3's
// "created by upload ... or manual create").
func (s *Server) CreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req createCVRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if err := getValidator().Struct(req); err != nil {
			badRequest(w, "title is required")
			return
		}
		now := time.Now()
		cv := domain.CV{
			ID:            uuid.NewString(),
			UserID:        userID,
			Title:         req.Title,
			Status:        domain.CVDraft,
			ParsingStatus: domain.ParsingNone,
			Content:       req.Content,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		id, err := s.CVs.Create(r.Context(), cv)
		if err != nil {
			writeError(w, err)
			return
		}
		cv.ID = id
		writeJSON(w, http.StatusCreated, cv)
	}
}

// GetHandler implements cv.get: fetch-then-ownership-check, masking a
// cross-user probe as NOT_FOUND.
func (s *Server) GetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		cv, err := s.CVs.FindByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if cv.UserID != userID {
			writeError(w, domain.ErrForbidden("cv"))
			return
		}
		writeJSON(w, http.StatusOK, cv)
	}
}

// ListHandler implements cv.list(userId, pagination).
func (s *Server) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		cvs, err := s.CVs.FindByUser(r.Context(), userID, limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cvs)
	}
}

// maxUploadBytes returns Cfg.MaxUploadMB as a byte ceiling for the raw-file
// upload path, mirroring the teacher's multipart size cap.
func (s *Server) maxUploadBytes() int64 {
	return s.Cfg.MaxUploadMB * 1024 * 1024
}

// UploadFileHandler implements the C1 "created by upload" path: it stores
// the raw bytes in the object store and stamps fileRef/parsingStatus=pending
// on the CV, ready for parsing.start.
func (s *Server) UploadFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		id := chi.URLParam(r, "id")
		cv, err := s.CVs.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if cv.UserID != userID {
			writeError(w, domain.ErrForbidden("cv"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
		if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
			writeError(w, domain.NewError(domain.CodeFileInvalid, "payload too large or malformed", http.StatusRequestEntityTooLarge))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			badRequest(w, "file field is required")
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil || len(data) == 0 {
			writeError(w, domain.NewError(domain.CodeFileInvalid, "empty or unreadable upload", http.StatusBadRequest))
			return
		}
		if !allowedUploadMIME(data) {
			writeError(w, domain.NewError(domain.CodeFileInvalid, "unsupported media type for upload (content)", http.StatusUnsupportedMediaType))
			return
		}
		key := "raw/" + id + "/" + header.Filename
		contentType := header.Header.Get("Content-Type")
		if err := s.Objects.Put(r.Context(), key, data, contentType); err != nil {
			writeError(w, err)
			return
		}
		cv.FileRef = key
		cv.ParsingStatus = domain.ParsingPending
		cv.UpdatedAt = time.Now()
		if err := s.CVs.Update(r.Context(), cv); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cv)
	}
}
