// ABOUTME: Handler for the public approval callback named in approval_required payloads.
// ABOUTME: Rate limited and idempotent; replayed decisions resolve to a conflict.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ledekit/newsroom/internal/webhook"
)

// ApprovalCallbackRequest is the JSON request body for POST /api/approvals/{article_id}.
// It matches the payload_approve/payload_reject shapes advertised in the
// approval_required webhook.
type ApprovalCallbackRequest struct {
	Approved      bool   `json:"approved"`
	Notes         string `json:"notes,omitempty"`
	ReviewerID    string `json:"reviewer_id,omitempty"`
	ReviewerEmail string `json:"reviewer_email,omitempty"`
}

// ApprovalCallbackResponse is the JSON response for the callback.
type ApprovalCallbackResponse struct {
	ApprovalID    string `json:"approval_id"`
	ArticleID     int64  `json:"article_id"`
	Status        string `json:"status"`
	ArticleStatus string `json:"article_status"`
}

func (s *Server) handleApprovalCallback(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.sendJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: "rate_limited"})
		return
	}

	articleID, err := strconv.ParseInt(r.PathValue("article_id"), 10, 64)
	if err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid article id", Code: "bad_request"})
		return
	}

	var req ApprovalCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "bad_request"})
		return
	}

	reviewer := webhook.UserRef{ID: req.ReviewerID, Email: req.ReviewerEmail}
	rec, err := s.coord.ResolveByArticle(r.Context(), articleID, req.Approved, reviewer, req.Notes)
	if err != nil {
		s.sendError(w, err)
		return
	}

	article, err := s.store.GetArticle(r.Context(), articleID)
	if err != nil {
		s.sendError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, ApprovalCallbackResponse{
		ApprovalID:    rec.ID,
		ArticleID:     rec.ArticleID,
		Status:        string(rec.Status),
		ArticleStatus: string(article.Status),
	})
}
