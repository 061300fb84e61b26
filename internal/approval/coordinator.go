// ABOUTME: ApprovalCoordinator: creates, expires, and resolves human-review requests.
// ABOUTME: Owns the one-pending-per-article guard and drives workflow resolution.

package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/webhook"
	"github.com/ledekit/newsroom/internal/workflow"
)

// ErrDuplicatePending is returned when an approval is requested for an
// article that already has one pending. Re-submitting is a no-op error, not
// a second record.
var ErrDuplicatePending = errors.New("approval already pending for article")

// ErrNotPending is returned when resolving a request that is already
// resolved or expired. Replayed callbacks land here harmlessly.
var ErrNotPending = errors.New("approval is not pending")

// EventDispatcher is the outbound notification surface the coordinator hands
// events to. Satisfied by webhook.Dispatcher.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event, topic string, payload any)
}

// Store is the persistence the coordinator needs.
type Store interface {
	store.ArticleStore
	store.ApprovalStore
}

// Coordinator ties approval records 1:1 to in-flight pending_approval
// articles.
type Coordinator struct {
	store      Store
	machine    *workflow.Machine
	dispatcher EventDispatcher
	logger     *slog.Logger

	// baseURL is the external URL approvers reach the gateway at; used to
	// build the callback block in approval_required payloads.
	baseURL string

	// ttl bounds how long a request stays answerable. Zero means no expiry.
	ttl time.Duration
}

// CoordinatorConfig contains configuration options for the Coordinator.
type CoordinatorConfig struct {
	Store      Store
	Machine    *workflow.Machine
	Dispatcher EventDispatcher
	Logger     *slog.Logger
	BaseURL    string
	TTL        time.Duration
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		store:      cfg.Store,
		machine:    cfg.Machine,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger.With("component", "approval"),
		baseURL:    cfg.BaseURL,
		ttl:        cfg.TTL,
	}
}

// RequestApproval opens a human-review request for an article sitting in
// editor status. On success the article is in pending_approval, exactly one
// pending record exists for it, and an approval_required event is on its way
// to subscribers.
func (c *Coordinator) RequestApproval(ctx context.Context, user *auth.UserContext, articleID int64, notes string) (*store.ApprovalRecord, error) {
	article, err := c.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", articleID, err)
	}
	if article.Status != store.StatusEditor {
		return nil, fmt.Errorf("%w: article %d is %q, approval requires %q",
			workflow.ErrStateConflict, articleID, article.Status, store.StatusEditor)
	}
	if !user.Scopes.Authorize(scope.RoleEditor, article.Topic, true) {
		return nil, scope.Deny(scope.RoleEditor, article.Topic)
	}

	// A stale pending record past its expiry frees the slot on access.
	if pending, err := c.store.GetPendingApprovalByArticle(ctx, articleID); err == nil {
		if !c.expireIfDue(ctx, pending) {
			return nil, fmt.Errorf("%w: record %s", ErrDuplicatePending, pending.ID)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking pending approval: %w", err)
	}

	rec := &store.ApprovalRecord{
		ID:          ulid.Make().String(),
		ArticleID:   articleID,
		RequesterID: user.UserID,
		Status:      store.ApprovalPending,
		Notes:       notes,
	}
	if c.ttl > 0 {
		expiry := time.Now().Add(c.ttl).UTC()
		rec.ExpiresAt = &expiry
	}
	if err := c.store.CreateApproval(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicatePending) {
			return nil, ErrDuplicatePending
		}
		return nil, fmt.Errorf("creating approval: %w", err)
	}

	if _, err := c.machine.Apply(ctx, user, articleID, workflow.ActionSubmitForApproval); err != nil {
		// The record must not outlive a failed transition, or it would block
		// the next legitimate request.
		if expErr := c.store.ExpireApproval(ctx, rec.ID); expErr != nil {
			c.logger.Error("orphan approval cleanup failed", "approval_id", rec.ID, "error", expErr)
		}
		return nil, err
	}

	c.logger.Info("approval requested",
		"approval_id", rec.ID,
		"article_id", articleID,
		"requester_id", user.UserID,
	)

	notesPtr := &notes
	if notes == "" {
		notesPtr = nil
	}
	c.dispatcher.Dispatch(ctx, webhook.EventApprovalRequired, article.Topic, webhook.ApprovalRequiredPayload{
		Event:     webhook.EventApprovalRequired,
		Timestamp: time.Now().UTC(),
		Article: webhook.ArticleRef{
			ID:       article.ID,
			Topic:    article.Topic,
			Headline: article.Headline,
			Status:   string(store.StatusPendingApproval),
		},
		Submitter:   webhook.UserRef{ID: user.UserID, Email: user.Email},
		EditorNotes: notesPtr,
		Callback: webhook.Callback{
			ApproveURL:     fmt.Sprintf("%s/api/approvals/%d", c.baseURL, article.ID),
			Method:         "POST",
			PayloadApprove: webhook.CallbackBody{Approved: true, Notes: "optional"},
			PayloadReject:  webhook.CallbackBody{Approved: false, Notes: "reason"},
		},
	})

	return rec, nil
}

// Resolve records a human decision on a pending request, completes the
// workflow transition, and notifies subscribers. The terminal status write
// is conditional on the record still being pending, so a second resolution
// of the same id fails with ErrNotPending and changes nothing.
func (c *Coordinator) Resolve(ctx context.Context, approvalID string, approved bool, reviewer webhook.UserRef, notes string) (*store.ApprovalRecord, error) {
	rec, err := c.store.GetApproval(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("loading approval %s: %w", approvalID, err)
	}
	if rec.Status != store.ApprovalPending || c.expireIfDue(ctx, rec) {
		return nil, fmt.Errorf("%w: record %s is %q", ErrNotPending, rec.ID, rec.Status)
	}

	status := store.ApprovalRejected
	event := webhook.EventArticleRejected
	if approved {
		status = store.ApprovalApproved
		event = webhook.EventArticlePublished
	}

	if err := c.store.ResolveApproval(ctx, approvalID, status, reviewer.ID, notes); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("%w: record %s", ErrNotPending, approvalID)
		}
		return nil, fmt.Errorf("resolving approval: %w", err)
	}

	article, err := c.machine.Resolve(ctx, rec.ArticleID, approved)
	if err != nil {
		return nil, fmt.Errorf("completing workflow for article %d: %w", rec.ArticleID, err)
	}

	c.logger.Info("approval resolved",
		"approval_id", approvalID,
		"article_id", rec.ArticleID,
		"approved", approved,
		"reviewer_id", reviewer.ID,
	)

	c.dispatcher.Dispatch(ctx, event, article.Topic, webhook.ResolutionPayload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Article: webhook.ArticleRef{
			ID:       article.ID,
			Topic:    article.Topic,
			Headline: article.Headline,
			Status:   string(article.Status),
		},
		Reviewer:    reviewer,
		ReviewNotes: notes,
	})

	return c.store.GetApproval(ctx, approvalID)
}

// ResolveByArticle resolves the single pending request for an article. This
// backs the public approval callback, which is keyed by article id.
func (c *Coordinator) ResolveByArticle(ctx context.Context, articleID int64, approved bool, reviewer webhook.UserRef, notes string) (*store.ApprovalRecord, error) {
	rec, err := c.store.GetPendingApprovalByArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: no pending approval for article %d", ErrNotPending, articleID)
		}
		return nil, fmt.Errorf("finding pending approval: %w", err)
	}
	return c.Resolve(ctx, rec.ID, approved, reviewer, notes)
}

// expireIfDue flips a pending record past its expiry to expired. Returns
// true when the record is no longer pending afterward. Expiration is lazy:
// it happens on the next access, not on a timer.
func (c *Coordinator) expireIfDue(ctx context.Context, rec *store.ApprovalRecord) bool {
	if rec.Status != store.ApprovalPending {
		return true
	}
	if rec.ExpiresAt == nil || time.Now().Before(*rec.ExpiresAt) {
		return false
	}
	if err := c.store.ExpireApproval(ctx, rec.ID); err != nil && !errors.Is(err, store.ErrConflict) {
		c.logger.Error("expiring approval failed", "approval_id", rec.ID, "error", err)
		return false
	}
	rec.Status = store.ApprovalExpired

	// Free the article for a fresh request. A conflict just means the
	// article already moved on.
	err := c.store.TransitionArticle(ctx, rec.ArticleID, store.StatusPendingApproval, store.StatusEditor)
	if err != nil && !errors.Is(err, store.ErrConflict) {
		c.logger.Error("releasing expired article failed", "article_id", rec.ArticleID, "error", err)
	}

	c.logger.Info("approval expired on access", "approval_id", rec.ID, "article_id", rec.ArticleID)
	return true
}
