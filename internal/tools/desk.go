// ABOUTME: Desk tool pack: the article-pipeline tools every desk exposes.
// ABOUTME: Registers search, drafting, review, approval, and prompt tools.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ledekit/newsroom/internal/approval"
	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/workflow"
)

// DeskStore is the persistence the desk tools need.
type DeskStore interface {
	store.ArticleStore
	store.PromptStore
}

// deskHandlers holds the dependencies shared by the desk tool handlers.
type deskHandlers struct {
	store   DeskStore
	machine *workflow.Machine
	coord   *approval.Coordinator
}

// RegisterDeskTools registers the article-pipeline tools on the registry.
func RegisterDeskTools(r *Registry, s DeskStore, machine *workflow.Machine, coord *approval.Coordinator) error {
	h := &deskHandlers{store: s, machine: machine, coord: coord}

	deskTools := []*Tool{
		{
			Name:        "search_articles",
			Description: "Search the desk's articles by status",
			InputSchema: `{"type":"object","properties":{"status":{"type":"string","enum":["draft","editor","pending_approval","published"]},"limit":{"type":"integer"}}}`,
			Permission:  Permission{RequiredRole: scope.RoleReader, TopicScoped: true},
			Handler:     h.SearchArticles,
		},
		{
			Name:        "create_draft",
			Description: "Create a draft article on the desk",
			InputSchema: `{"type":"object","properties":{"headline":{"type":"string"},"body":{"type":"string"}},"required":["headline"]}`,
			Permission:  Permission{RequiredRole: scope.RoleAnalyst, TopicScoped: true},
			Handler:     h.CreateDraft,
		},
		{
			Name:        "submit_for_review",
			Description: "Send a draft to the desk editor",
			InputSchema: `{"type":"object","properties":{"article_id":{"type":"integer"}},"required":["article_id"]}`,
			Permission:  Permission{RequiredRole: scope.RoleAnalyst, TopicScoped: true},
			Handler:     h.SubmitForReview,
		},
		{
			Name:        "request_changes",
			Description: "Send an article in review back to its author",
			InputSchema: `{"type":"object","properties":{"article_id":{"type":"integer"}},"required":["article_id"]}`,
			Permission:  Permission{RequiredRole: scope.RoleEditor, TopicScoped: true},
			Handler:     h.RequestChanges,
		},
		{
			Name:        "submit_for_approval",
			Description: "Ask a human approver to sign off on publication",
			InputSchema: `{"type":"object","properties":{"article_id":{"type":"integer"},"notes":{"type":"string"}},"required":["article_id"]}`,
			Permission:  Permission{RequiredRole: scope.RoleEditor, TopicScoped: true, RequiresHITL: true},
			Handler:     h.SubmitForApproval,
		},
		{
			Name:        "delete_draft",
			Description: "Permanently delete a draft that never entered review",
			InputSchema: `{"type":"object","properties":{"article_id":{"type":"integer"},"confirm":{"type":"boolean"}},"required":["article_id","confirm"]}`,
			Permission:  Permission{RequiredRole: scope.RoleEditor, TopicScoped: true, Destructive: true},
			Handler:     h.DeleteDraft,
		},
		{
			Name:        "update_desk_prompt",
			Description: "Replace the desk's system prompt",
			InputSchema: `{"type":"object","properties":{"prompt":{"type":"string"}},"required":["prompt"]}`,
			// Prompt editing is the one action where global:admin is not
			// enough; it needs the desk's own admin grant.
			Permission: Permission{RequiredRole: scope.RoleAdmin, TopicScoped: true, NoGlobalOverride: true},
			Handler:    h.UpdateDeskPrompt,
		},
	}

	for _, tool := range deskTools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// articleResult is the common tool output for article mutations.
type articleResult struct {
	ID       int64  `json:"id"`
	Topic    string `json:"topic"`
	Headline string `json:"headline"`
	Status   string `json:"status"`
}

func toResult(a *store.Article) articleResult {
	return articleResult{ID: a.ID, Topic: a.Topic, Headline: a.Headline, Status: string(a.Status)}
}

// loadDeskArticle fetches an article and verifies it belongs to the desk the
// tool was invoked for. The registry already authorized the caller for that
// desk; an id from another desk must not ride on that authorization.
func (h *deskHandlers) loadDeskArticle(ctx context.Context, topic string, id int64) (*store.Article, error) {
	article, err := h.store.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", id, err)
	}
	if article.Topic != topic {
		return nil, scope.Deny(scope.RoleReader, article.Topic)
	}
	return article, nil
}

func (h *deskHandlers) SearchArticles(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Status string `json:"status"`
		Limit  int    `json:"limit"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return nil, fmt.Errorf("parsing input: %w", err)
		}
	}

	articles, err := h.store.ListArticles(ctx, topic, store.ArticleStatus(params.Status), params.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	results := make([]articleResult, 0, len(articles))
	for _, a := range articles {
		results = append(results, toResult(a))
	}
	return json.Marshal(map[string]any{"articles": results})
}

func (h *deskHandlers) CreateDraft(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Headline string `json:"headline"`
		Body     string `json:"body"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	if params.Headline == "" {
		return nil, fmt.Errorf("headline is required")
	}

	article := &store.Article{
		Topic:    topic,
		Headline: params.Headline,
		Body:     params.Body,
		AuthorID: user.UserID,
	}
	if err := h.store.CreateArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	return json.Marshal(toResult(article))
}

func (h *deskHandlers) SubmitForReview(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	return h.applyAction(ctx, user, topic, input, workflow.ActionSubmitForReview)
}

func (h *deskHandlers) RequestChanges(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	return h.applyAction(ctx, user, topic, input, workflow.ActionRequestChanges)
}

func (h *deskHandlers) applyAction(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage, action workflow.Action) (json.RawMessage, error) {
	var params struct {
		ArticleID int64 `json:"article_id"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}

	if _, err := h.loadDeskArticle(ctx, topic, params.ArticleID); err != nil {
		return nil, err
	}

	article, err := h.machine.Apply(ctx, user, params.ArticleID, action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(toResult(article))
}

func (h *deskHandlers) SubmitForApproval(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	var params struct {
		ArticleID int64  `json:"article_id"`
		Notes     string `json:"notes"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}

	if _, err := h.loadDeskArticle(ctx, topic, params.ArticleID); err != nil {
		return nil, err
	}

	rec, err := h.coord.RequestApproval(ctx, user, params.ArticleID, params.Notes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"approval_id": rec.ID,
		"article_id":  rec.ArticleID,
		"status":      string(rec.Status),
	})
}

func (h *deskHandlers) DeleteDraft(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	var params struct {
		ArticleID int64 `json:"article_id"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}

	if _, err := h.loadDeskArticle(ctx, topic, params.ArticleID); err != nil {
		return nil, err
	}

	if err := h.store.DeleteDraft(ctx, params.ArticleID); err != nil {
		return nil, fmt.Errorf("deleting draft %d: %w", params.ArticleID, err)
	}
	return json.Marshal(map[string]any{"deleted": params.ArticleID})
}

func (h *deskHandlers) UpdateDeskPrompt(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
	var params struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	if params.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	prompt := &store.DeskPrompt{Topic: topic, Prompt: params.Prompt, UpdatedBy: user.UserID}
	if err := h.store.SetDeskPrompt(ctx, prompt); err != nil {
		return nil, fmt.Errorf("updating desk prompt: %w", err)
	}
	return json.Marshal(map[string]any{"topic": topic, "updated": true})
}
