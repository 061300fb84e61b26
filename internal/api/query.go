// ABOUTME: Handlers for the conversational query route and the tool surface.
// ABOUTME: Both consume the same registry the agents see; no separate list exists.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/router"
)

// QueryRequest is the JSON request body for POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
	Desk  string `json:"desk,omitempty"`

	// Intent overrides keyword classification when the client already knows
	// what it is asking for.
	Intent string `json:"intent,omitempty"`
}

// QueryResponse is the JSON response for POST /api/query.
type QueryResponse struct {
	Agent  string `json:"agent"`
	Intent string `json:"intent"`
	Text   string `json:"text"`
}

// ToolInfo is one entry of GET /api/tools.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

// ListToolsResponse is the JSON response for GET /api/tools.
type ListToolsResponse struct {
	Desk  string     `json:"desk,omitempty"`
	Tools []ToolInfo `json:"tools"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "bad_request"})
		return
	}
	if req.Query == "" {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "query is required", Code: "bad_request"})
		return
	}

	desk := req.Desk
	if desk == "" {
		desk = user.DefaultDesk
	}

	intent := router.Intent(req.Intent)
	if intent == "" {
		intent = router.ClassifyIntent(req.Query)
	}

	agent, err := s.router.Route(intent, user.Scopes, desk)
	if err != nil {
		s.sendError(w, err)
		return
	}

	result, err := s.runner.Handle(r.Context(), user, agent, desk, req.Query)
	if err != nil {
		s.sendError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, QueryResponse{
		Agent:  result.Agent,
		Intent: string(intent),
		Text:   result.Text,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())
	desk := requestDesk(r, user)

	visible := s.registry.Visible(user.Scopes, desk)
	infos := make([]ToolInfo, 0, len(visible))
	for _, tool := range visible {
		infos = append(infos, ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: json.RawMessage(tool.InputSchema),
		})
	}
	s.sendJSON(w, http.StatusOK, ListToolsResponse{Desk: desk, Tools: infos})
}

func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())
	name := r.PathValue("name")
	desk := requestDesk(r, user)

	var input json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "bad_request"})
		return
	}

	result, err := s.registry.Execute(r.Context(), user, name, desk, input)
	if err != nil {
		s.sendError(w, fmt.Errorf("invoking %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}
