// ABOUTME: Store interface and data types for newsroom persistence.
// ABOUTME: Defines Article, ApprovalRecord, WebhookConfig and the Store interface.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write found the guard row in a
// different state than the caller expected. Callers should re-fetch and retry.
var ErrConflict = errors.New("state conflict")

// ErrDuplicatePending is returned when creating an approval for an article
// that already has one pending.
var ErrDuplicatePending = errors.New("pending approval already exists for article")

// ArticleStatus is the sole authority for what operations are legal on an
// article. No other field may imply a different effective state.
type ArticleStatus string

const (
	StatusDraft           ArticleStatus = "draft"
	StatusEditor          ArticleStatus = "editor"
	StatusPendingApproval ArticleStatus = "pending_approval"
	StatusPublished       ArticleStatus = "published"
)

// ValidArticleStatuses lists every status an article may hold.
var ValidArticleStatuses = []ArticleStatus{
	StatusDraft,
	StatusEditor,
	StatusPendingApproval,
	StatusPublished,
}

// Article is one piece in the publishing pipeline. Body is markdown.
type Article struct {
	ID        int64
	Topic     string
	Headline  string
	Body      string
	Status    ArticleStatus
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalStatus is the lifecycle state of one human-review decision.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalExpired  ApprovalStatus = "expired"
)

// ApprovalRecord tracks one pending human-review decision for one article.
type ApprovalRecord struct {
	ID          string
	ArticleID   int64
	RequesterID string
	Status      ApprovalStatus
	Notes       string
	ReviewerID  *string
	ReviewNotes string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

// WebhookConfig is one outbound notification subscription. A nil Topic
// matches every desk. Secret, when set, enables HMAC signing of the body.
type WebhookConfig struct {
	ID         string
	Event      string
	URL        string
	Secret     string
	Topic      *string
	MaxRetries int
	RetryDelay time.Duration
	Active     bool
	CreatedAt  time.Time
}

// DeskPrompt is the per-desk system prompt used by the authoring agents.
// It is only writable through the override-disabled prompt tool.
type DeskPrompt struct {
	Topic     string
	Prompt    string
	UpdatedBy string
	UpdatedAt time.Time
}

// AuditEntry records one authorization-relevant event: a transition, an
// approval decision, or a permission denial.
type AuditEntry struct {
	ID        string
	ActorID   string
	Action    string
	Topic     string
	Detail    string
	CreatedAt time.Time
}

// ArticleStore defines article persistence with check-then-write semantics.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *Article) error
	GetArticle(ctx context.Context, id int64) (*Article, error)
	ListArticles(ctx context.Context, topic string, status ArticleStatus, limit int) ([]*Article, error)
	UpdateArticleContent(ctx context.Context, id int64, headline, body string) error

	// TransitionArticle writes the new status only if the current status
	// still equals from. Returns ErrConflict otherwise.
	TransitionArticle(ctx context.Context, id int64, from, to ArticleStatus) error

	// DeleteDraft removes an article only while it is still a draft.
	// Returns ErrConflict once it has entered the pipeline.
	DeleteDraft(ctx context.Context, id int64) error
}

// ApprovalStore defines approval record persistence. At most one pending
// record may exist per article; CreateApproval enforces this.
type ApprovalStore interface {
	CreateApproval(ctx context.Context, rec *ApprovalRecord) error
	GetApproval(ctx context.Context, id string) (*ApprovalRecord, error)
	GetPendingApprovalByArticle(ctx context.Context, articleID int64) (*ApprovalRecord, error)

	// ResolveApproval sets a terminal status only if the record is still
	// pending. Returns ErrConflict otherwise.
	ResolveApproval(ctx context.Context, id string, status ApprovalStatus, reviewerID, notes string) error

	// ExpireApproval flips a pending record to expired. Returns ErrConflict
	// if the record is no longer pending.
	ExpireApproval(ctx context.Context, id string) error
}

// WebhookStore defines webhook subscription persistence.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, cfg *WebhookConfig) error
	GetWebhook(ctx context.Context, id string) (*WebhookConfig, error)
	ListWebhooks(ctx context.Context) ([]*WebhookConfig, error)
	ListWebhooksForEvent(ctx context.Context, event, topic string) ([]*WebhookConfig, error)
	DeleteWebhook(ctx context.Context, id string) error
}

// PromptStore defines desk prompt persistence.
type PromptStore interface {
	GetDeskPrompt(ctx context.Context, topic string) (*DeskPrompt, error)
	SetDeskPrompt(ctx context.Context, prompt *DeskPrompt) error
}

// AuditStore defines the append-only audit log.
type AuditStore interface {
	SaveAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]*AuditEntry, error)
}

// Store is the full persistence surface of the gateway.
type Store interface {
	ArticleStore
	ApprovalStore
	WebhookStore
	PromptStore
	AuditStore

	// Close releases any resources held by the store.
	Close() error
}
