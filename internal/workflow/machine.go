// ABOUTME: Article lifecycle state machine: draft, editor, pending_approval, published.
// ABOUTME: Every transition is authorize-then-conditional-write against the store.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/obs"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
)

// ErrStateConflict is returned when a transition's expected "from" state no
// longer matches the persisted status. Callers should re-fetch and retry.
var ErrStateConflict = errors.New("article state conflict")

// ErrUnknownAction is returned for an action the state machine does not define.
var ErrUnknownAction = errors.New("unknown workflow action")

// Action is a caller-invocable lifecycle transition.
type Action string

const (
	ActionSubmitForReview   Action = "submit_for_review"
	ActionRequestChanges    Action = "request_changes"
	ActionSubmitForApproval Action = "submit_for_approval"
)

// transition describes one legal edge of the lifecycle graph.
type transition struct {
	from store.ArticleStatus
	to   store.ArticleStatus
	role scope.Role
}

// transitions is the complete table of caller-invocable transitions. The
// resolve edges out of pending_approval are deliberately absent: they are
// only reachable through Resolve, which the approval coordinator owns.
var transitions = map[Action]transition{
	ActionSubmitForReview:   {from: store.StatusDraft, to: store.StatusEditor, role: scope.RoleAnalyst},
	ActionRequestChanges:    {from: store.StatusEditor, to: store.StatusDraft, role: scope.RoleEditor},
	ActionSubmitForApproval: {from: store.StatusEditor, to: store.StatusPendingApproval, role: scope.RoleEditor},
}

// Machine drives article status transitions.
type Machine struct {
	articles store.ArticleStore
	audit    store.AuditStore
	logger   *slog.Logger
}

// NewMachine creates a Machine over the given stores.
func NewMachine(articles store.ArticleStore, audit store.AuditStore, logger *slog.Logger) *Machine {
	return &Machine{
		articles: articles,
		audit:    audit,
		logger:   logger.With("component", "workflow"),
	}
}

// Apply attempts a caller-invoked transition on an article.
//
// The order is fixed: re-read the article, verify the expected "from" state,
// verify the caller's authorization for the article's desk, then write the
// new status conditionally. A stale "from" at either check surfaces as
// ErrStateConflict rather than a silent no-op.
func (m *Machine) Apply(ctx context.Context, user *auth.UserContext, articleID int64, action Action) (*store.Article, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	article, err := m.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", articleID, err)
	}

	if article.Status != t.from {
		return nil, fmt.Errorf("%w: %s requires status %q, article %d is %q",
			ErrStateConflict, action, t.from, articleID, article.Status)
	}

	if !user.Scopes.Authorize(t.role, article.Topic, true) {
		obs.PermissionDenials.WithLabelValues("workflow").Inc()
		m.recordAudit(ctx, user.UserID, "permission_denied", article.Topic,
			fmt.Sprintf("action %s on article %d", action, articleID))
		return nil, scope.Deny(t.role, article.Topic)
	}

	if err := m.articles.TransitionArticle(ctx, articleID, t.from, t.to); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: article %d left %q during %s",
				ErrStateConflict, articleID, t.from, action)
		}
		return nil, fmt.Errorf("writing transition: %w", err)
	}

	obs.ArticleTransitions.WithLabelValues(string(action)).Inc()
	m.recordAudit(ctx, user.UserID, string(action), article.Topic,
		fmt.Sprintf("article %d: %s -> %s", articleID, t.from, t.to))
	m.logger.Info("transition applied",
		"article_id", articleID,
		"action", action,
		"from", t.from,
		"to", t.to,
		"user_id", user.UserID,
	)

	article.Status = t.to
	return article, nil
}

// Resolve completes the pending_approval state after a recorded approval
// decision: published when approved, back to editor otherwise.
//
// This is not reachable from any tool or route. Only the approval
// coordinator calls it, after the approval record's terminal status has
// committed, so a caller cannot forge a publish outcome.
func (m *Machine) Resolve(ctx context.Context, articleID int64, approved bool) (*store.Article, error) {
	to := store.StatusEditor
	action := "resolve_rejected"
	if approved {
		to = store.StatusPublished
		action = "resolve_approved"
	}

	if err := m.articles.TransitionArticle(ctx, articleID, store.StatusPendingApproval, to); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: article %d is not pending approval", ErrStateConflict, articleID)
		}
		return nil, fmt.Errorf("writing resolution: %w", err)
	}

	obs.ArticleTransitions.WithLabelValues(action).Inc()
	m.recordAudit(ctx, "system", action, "", fmt.Sprintf("article %d -> %s", articleID, to))
	m.logger.Info("approval resolution applied", "article_id", articleID, "to", to)

	article, err := m.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("reloading article %d: %w", articleID, err)
	}
	return article, nil
}

// recordAudit appends to the audit log; failures are logged, never raised.
func (m *Machine) recordAudit(ctx context.Context, actorID, action, topic, detail string) {
	if m.audit == nil {
		return
	}
	entry := &store.AuditEntry{ActorID: actorID, Action: action, Topic: topic, Detail: detail}
	if err := m.audit.SaveAuditEntry(ctx, entry); err != nil {
		m.logger.Warn("audit write failed", "action", action, "error", err)
	}
}
