package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/service"
)

type webhookRequest struct {
	URL               string                 `json:"url"`
	Events            []string               `json:"events"`
	Status            domain.WebhookStatus   `json:"status,omitempty"`
	MaxRetries        int                    `json:"maxRetries,omitempty"`
	RetryDelaySeconds int                    `json:"retryDelaySeconds,omitempty"`
	BackoffMultiplier float64                `json:"backoffMultiplier,omitempty"`
	TimeoutSeconds    int                    `json:"timeoutSeconds,omitempty"`
	Filters           domain.WebhookFilters  `json:"filters,omitempty"`
	Headers           map[string]string      `json:"headers,omitempty"`
}

func (req webhookRequest) toParams() service.CreateParams {
	p := service.CreateParams{
		URL:     req.URL,
		Events:  req.Events,
		Filters: req.Filters,
		Headers: req.Headers,
		RetryPolicy: domain.RetryPolicy{
			MaxRetries:        req.MaxRetries,
			BackoffMultiplier: req.BackoffMultiplier,
		},
	}
	if req.RetryDelaySeconds > 0 {
		p.RetryPolicy.RetryDelay = time.Duration(req.RetryDelaySeconds) * time.Second
	}
	if req.TimeoutSeconds > 0 {
		p.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	return p
}

// WebhookCreateHandler implements webhook.create.
func (s *Server) WebhookCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		wh, err := s.Webhooks.Create(r.Context(), userID, req.toParams())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wh)
	}
}

// WebhookUpdateHandler implements webhook.update.
func (s *Server) WebhookUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		wh, err := s.Webhooks.Update(r.Context(), userID, chi.URLParam(r, "id"), req.toParams(), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wh)
	}
}

// WebhookDeleteHandler implements webhook.delete.
func (s *Server) WebhookDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		if err := s.Webhooks.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// WebhookListHandler implements webhook.list.
func (s *Server) WebhookListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		whs, err := s.Webhooks.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, whs)
	}
}

// WebhookTestHandler implements webhook.test.
func (s *Server) WebhookTestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		if err := s.Webhooks.Test(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// WebhookStatsHandler implements webhook.stats.
func (s *Server) WebhookStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		stats, err := s.Webhooks.Stats(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// WebhookDeliveriesHandler implements webhook.deliveries.
func (s *Server) WebhookDeliveriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		deliveries, err := s.Webhooks.Deliveries(r.Context(), userID, chi.URLParam(r, "id"), limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deliveries)
	}
}

// WebhookRetryDeliveryHandler implements webhook.retryDelivery.
func (s *Server) WebhookRetryDeliveryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromRequest(r)
		if err := s.Webhooks.RetryDelivery(r.Context(), userID, chi.URLParam(r, "deliveryId")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
