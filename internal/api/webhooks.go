// ABOUTME: Admin CRUD for outbound webhook subscriptions.
// ABOUTME: Requires the admin role; secrets never appear in responses.

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/webhook"
)

// CreateWebhookRequest is the JSON request body for POST /api/webhooks.
type CreateWebhookRequest struct {
	Event      string  `json:"event"`
	URL        string  `json:"url"`
	Secret     string  `json:"secret,omitempty"`
	Topic      *string `json:"topic,omitempty"`
	MaxRetries int     `json:"max_retries,omitempty"`
	RetryDelay string  `json:"retry_delay,omitempty"`
}

// WebhookResponse is the JSON shape of one subscription. The secret is
// write-only; only its presence is reported.
type WebhookResponse struct {
	ID         string  `json:"id"`
	Event      string  `json:"event"`
	URL        string  `json:"url"`
	HasSecret  bool    `json:"has_secret"`
	Topic      *string `json:"topic"`
	MaxRetries int     `json:"max_retries"`
	RetryDelay string  `json:"retry_delay"`
	Active     bool    `json:"active"`
	CreatedAt  string  `json:"created_at"`
}

// ListWebhooksResponse is the JSON response for GET /api/webhooks.
type ListWebhooksResponse struct {
	Webhooks []WebhookResponse `json:"webhooks"`
}

// validEvents are the event types a subscription may filter on.
var validEvents = map[string]bool{
	webhook.EventApprovalRequired: true,
	webhook.EventArticlePublished: true,
	webhook.EventArticleRejected:  true,
}

// requireAdmin checks the caller holds the admin role somewhere. Webhook
// administration is not desk-scoped; subscriptions can span desks.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *auth.UserContext {
	user := auth.MustFromContext(r.Context())
	if !user.Scopes.Authorize(scope.RoleAdmin, "", true) {
		s.sendError(w, scope.Deny(scope.RoleAdmin, ""))
		return nil
	}
	return user
}

func toWebhookResponse(cfg *store.WebhookConfig) WebhookResponse {
	return WebhookResponse{
		ID:         cfg.ID,
		Event:      cfg.Event,
		URL:        cfg.URL,
		HasSecret:  cfg.Secret != "",
		Topic:      cfg.Topic,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay.String(),
		Active:     cfg.Active,
		CreatedAt:  cfg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	configs, err := s.store.ListWebhooks(r.Context())
	if err != nil {
		s.sendError(w, err)
		return
	}

	resp := ListWebhooksResponse{Webhooks: make([]WebhookResponse, 0, len(configs))}
	for _, cfg := range configs {
		resp.Webhooks = append(resp.Webhooks, toWebhookResponse(cfg))
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	user := s.requireAdmin(w, r)
	if user == nil {
		return
	}

	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "bad_request"})
		return
	}
	if !validEvents[req.Event] {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "unknown event type", Code: "bad_request"})
		return
	}
	if req.URL == "" {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "url is required", Code: "bad_request"})
		return
	}

	delay := 30 * time.Second
	if req.RetryDelay != "" {
		parsed, err := time.ParseDuration(req.RetryDelay)
		if err != nil {
			s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid retry_delay", Code: "bad_request"})
			return
		}
		delay = parsed
	}
	retries := req.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	cfg := &store.WebhookConfig{
		Event:      req.Event,
		URL:        req.URL,
		Secret:     req.Secret,
		Topic:      req.Topic,
		MaxRetries: retries,
		RetryDelay: delay,
		Active:     true,
	}
	if err := s.store.CreateWebhook(r.Context(), cfg); err != nil {
		s.sendError(w, err)
		return
	}

	s.logger.Info("webhook created", "webhook_id", cfg.ID, "event", cfg.Event, "admin_id", user.UserID)
	s.sendJSON(w, http.StatusCreated, toWebhookResponse(cfg))
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	user := s.requireAdmin(w, r)
	if user == nil {
		return
	}

	id := r.PathValue("id")
	if err := s.store.DeleteWebhook(r.Context(), id); err != nil {
		s.sendError(w, err)
		return
	}

	s.logger.Info("webhook deleted", "webhook_id", id, "admin_id", user.UserID)
	w.WriteHeader(http.StatusNoContent)
}
