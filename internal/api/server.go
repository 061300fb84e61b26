// ABOUTME: HTTP API server: route table, auth wiring, and error mapping.
// ABOUTME: Every capability route funnels through the tool registry choke point.

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ledekit/newsroom/internal/agents"
	"github.com/ledekit/newsroom/internal/approval"
	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/obs"
	"github.com/ledekit/newsroom/internal/router"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/tools"
	"github.com/ledekit/newsroom/internal/workflow"
)

// Server holds the API's dependencies and exposes the assembled handler.
type Server struct {
	logger   *slog.Logger
	store    store.Store
	registry *tools.Registry
	router   *router.Router
	runner   *agents.Runner
	coord    *approval.Coordinator
	verifier auth.TokenVerifier

	// limiter bounds the public approval callback, which is reachable
	// without a bearer token.
	limiter *rate.Limiter

	metricsEnabled bool
	metricsPath    string
}

// ServerConfig contains configuration options for the Server.
type ServerConfig struct {
	Logger   *slog.Logger
	Store    store.Store
	Registry *tools.Registry
	Router   *router.Router
	Runner   *agents.Runner
	Coord    *approval.Coordinator
	Verifier auth.TokenVerifier

	// CallbackRPS limits the public approval callback; zero means 5/s.
	CallbackRPS float64

	MetricsEnabled bool
	MetricsPath    string
}

// NewServer creates a Server.
func NewServer(cfg ServerConfig) *Server {
	rps := cfg.CallbackRPS
	if rps <= 0 {
		rps = 5
	}
	path := cfg.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		logger:         cfg.Logger.With("component", "api"),
		store:          cfg.Store,
		registry:       cfg.Registry,
		router:         cfg.Router,
		runner:         cfg.Runner,
		coord:          cfg.Coord,
		verifier:       cfg.Verifier,
		limiter:        rate.NewLimiter(rate.Limit(rps), int(rps)*2),
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    path,
	}
}

// Handler assembles the route table. Authenticated routes share the JWT
// middleware; the approval callback and health check stay public.
func (s *Server) Handler() http.Handler {
	authed := auth.HTTPAuthMiddleware(s.verifier)

	mux := http.NewServeMux()
	mux.Handle("POST /api/query", authed(http.HandlerFunc(s.handleQuery)))
	mux.Handle("GET /api/tools", authed(http.HandlerFunc(s.handleListTools)))
	mux.Handle("POST /api/tools/{name}", authed(http.HandlerFunc(s.handleInvokeTool)))
	mux.Handle("GET /api/articles/{id}", authed(http.HandlerFunc(s.handleGetArticle)))
	mux.Handle("GET /api/articles/{id}/preview", authed(http.HandlerFunc(s.handlePreviewArticle)))
	mux.Handle("GET /api/webhooks", authed(http.HandlerFunc(s.handleListWebhooks)))
	mux.Handle("POST /api/webhooks", authed(http.HandlerFunc(s.handleCreateWebhook)))
	mux.Handle("DELETE /api/webhooks/{id}", authed(http.HandlerFunc(s.handleDeleteWebhook)))

	mux.HandleFunc("POST /api/approvals/{article_id}", s.handleApprovalCallback)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsEnabled {
		mux.Handle("GET "+s.metricsPath, obs.Handler())
	}

	return obs.Instrument(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendJSON writes a JSON response with the given status code.
func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// sendError maps a domain error to its HTTP status and stable code. Denials
// are 403 rather than 404: the resource's existence is not the secret, the
// caller's lack of standing is the answer.
func (s *Server) sendError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	var perr *scope.PermissionError
	var refusal *router.Refusal
	switch {
	case errors.As(err, &perr):
		status, code = http.StatusForbidden, "permission_denied"
	case errors.As(err, &refusal):
		status, code = http.StatusForbidden, "refused"
	case errors.Is(err, tools.ErrConfirmationRequired):
		status, code = http.StatusBadRequest, "confirmation_required"
	case errors.Is(err, tools.ErrTopicRequired):
		status, code = http.StatusBadRequest, "desk_required"
	case errors.Is(err, tools.ErrToolNotFound):
		status, code = http.StatusNotFound, "tool_not_found"
	case errors.Is(err, workflow.ErrStateConflict):
		status, code = http.StatusConflict, "state_conflict"
	case errors.Is(err, workflow.ErrUnknownAction):
		status, code = http.StatusBadRequest, "unknown_action"
	case errors.Is(err, approval.ErrDuplicatePending):
		status, code = http.StatusConflict, "approval_pending"
	case errors.Is(err, approval.ErrNotPending):
		status, code = http.StatusConflict, "approval_not_pending"
	case errors.Is(err, store.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		s.sendJSON(w, status, errorBody{Error: "internal error", Code: code})
		return
	}
	s.sendJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// requestDesk resolves the desk a request targets: explicit query parameter
// first, then the caller's default desk.
func requestDesk(r *http.Request, user *auth.UserContext) string {
	if desk := r.URL.Query().Get("desk"); desk != "" {
		return desk
	}
	return user.DefaultDesk
}
