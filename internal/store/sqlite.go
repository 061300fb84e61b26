// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite.
// ABOUTME: Provides article/approval/webhook persistence with automatic schema creation.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			headline TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			author_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_articles_topic_status
			ON articles(topic, status);

		CREATE TABLE IF NOT EXISTS approvals (
			id TEXT PRIMARY KEY,
			article_id INTEGER NOT NULL,
			requester_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			reviewer_id TEXT,
			review_notes TEXT NOT NULL DEFAULT '',
			expires_at DATETIME,
			created_at DATETIME NOT NULL,
			resolved_at DATETIME,
			FOREIGN KEY (article_id) REFERENCES articles(id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_approvals_one_pending
			ON approvals(article_id) WHERE status = 'pending';

		CREATE INDEX IF NOT EXISTS idx_approvals_article
			ON approvals(article_id);

		CREATE TABLE IF NOT EXISTS webhooks (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			topic TEXT,
			max_retries INTEGER NOT NULL DEFAULT 3,
			retry_delay_ms INTEGER NOT NULL DEFAULT 5000,
			active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_webhooks_event
			ON webhooks(event);

		CREATE TABLE IF NOT EXISTS desk_prompts (
			topic TEXT PRIMARY KEY,
			prompt TEXT NOT NULL,
			updated_by TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_created
			ON audit_log(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation checks whether an error is a SQLite constraint failure.
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint")
}

// CreateArticle inserts a new article, filling in ID and timestamps.
func (s *SQLiteStore) CreateArticle(ctx context.Context, article *Article) error {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	if article.Status == "" {
		article.Status = StatusDraft
	}

	query := `
		INSERT INTO articles (topic, headline, body, status, author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		article.Topic,
		article.Headline,
		article.Body,
		string(article.Status),
		article.AuthorID,
		article.CreatedAt.Format(time.RFC3339),
		article.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting article: %w", err)
	}

	article.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading article id: %w", err)
	}

	s.logger.Debug("created article", "id", article.ID, "topic", article.Topic)
	return nil
}

// GetArticle retrieves an article by ID. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetArticle(ctx context.Context, id int64) (*Article, error) {
	query := `
		SELECT id, topic, headline, body, status, author_id, created_at, updated_at
		FROM articles WHERE id = ?
	`

	var a Article
	var status, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Topic, &a.Headline, &a.Body, &status, &a.AuthorID, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying article: %w", err)
	}

	a.Status = ArticleStatus(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// ListArticles returns articles filtered by topic and/or status, newest first.
// Empty filter values match everything.
func (s *SQLiteStore) ListArticles(ctx context.Context, topic string, status ArticleStatus, limit int) ([]*Article, error) {
	query := `
		SELECT id, topic, headline, body, status, author_id, created_at, updated_at
		FROM articles
		WHERE (? = '' OR topic = ?) AND (? = '' OR status = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, query, topic, topic, string(status), string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		var a Article
		var st, createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Topic, &a.Headline, &a.Body, &st, &a.AuthorID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		a.Status = ArticleStatus(st)
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		articles = append(articles, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, nil
}

// UpdateArticleContent replaces the headline and body of an article.
func (s *SQLiteStore) UpdateArticleContent(ctx context.Context, id int64, headline, body string) error {
	query := `UPDATE articles SET headline = ?, body = ?, updated_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, headline, body, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating article content: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionArticle writes the new status only if the current status still
// equals from. The conditional UPDATE is the optimistic-concurrency guard:
// multiple gateway instances may race, and exactly one wins.
func (s *SQLiteStore) TransitionArticle(ctx context.Context, id int64, from, to ArticleStatus) error {
	query := `UPDATE articles SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	res, err := s.db.ExecContext(ctx, query,
		string(to),
		time.Now().UTC().Format(time.RFC3339),
		id,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("transitioning article: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transition result: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing article from a stale expectation.
		if _, err := s.GetArticle(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}

	s.logger.Info("article transitioned", "id", id, "from", from, "to", to)
	return nil
}

// DeleteDraft removes an article that is still a draft. Anything further
// along the pipeline conflicts instead of disappearing.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, id int64) error {
	query := `DELETE FROM articles WHERE id = ? AND status = ?`

	res, err := s.db.ExecContext(ctx, query, id, string(StatusDraft))
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetArticle(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}

	s.logger.Info("draft deleted", "id", id)
	return nil
}

// CreateApproval inserts a new approval record. The partial unique index on
// pending rows turns a duplicate into ErrDuplicatePending.
func (s *SQLiteStore) CreateApproval(ctx context.Context, rec *ApprovalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = ApprovalPending
	}

	query := `
		INSERT INTO approvals (id, article_id, requester_id, status, notes, reviewer_id, review_notes, expires_at, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ArticleID,
		rec.RequesterID,
		string(rec.Status),
		rec.Notes,
		nullString(ptrToString(rec.ReviewerID)),
		rec.ReviewNotes,
		nullTime(rec.ExpiresAt),
		rec.CreatedAt.Format(time.RFC3339),
		nullTime(rec.ResolvedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicatePending
		}
		return fmt.Errorf("inserting approval: %w", err)
	}

	s.logger.Debug("created approval", "id", rec.ID, "article_id", rec.ArticleID)
	return nil
}

// GetApproval retrieves an approval record by ID.
func (s *SQLiteStore) GetApproval(ctx context.Context, id string) (*ApprovalRecord, error) {
	query := `
		SELECT id, article_id, requester_id, status, notes, reviewer_id, review_notes, expires_at, created_at, resolved_at
		FROM approvals WHERE id = ?
	`
	return s.scanApproval(s.db.QueryRowContext(ctx, query, id))
}

// GetPendingApprovalByArticle returns the single pending record for an
// article, or ErrNotFound.
func (s *SQLiteStore) GetPendingApprovalByArticle(ctx context.Context, articleID int64) (*ApprovalRecord, error) {
	query := `
		SELECT id, article_id, requester_id, status, notes, reviewer_id, review_notes, expires_at, created_at, resolved_at
		FROM approvals WHERE article_id = ? AND status = 'pending'
	`
	return s.scanApproval(s.db.QueryRowContext(ctx, query, articleID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanApproval(row rowScanner) (*ApprovalRecord, error) {
	var rec ApprovalRecord
	var status, createdAt string
	var reviewerID, expiresAt, resolvedAt sql.NullString

	err := row.Scan(
		&rec.ID, &rec.ArticleID, &rec.RequesterID, &status, &rec.Notes,
		&reviewerID, &rec.ReviewNotes, &expiresAt, &createdAt, &resolvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning approval: %w", err)
	}

	rec.Status = ApprovalStatus(status)
	rec.CreatedAt = parseTime(createdAt)
	if reviewerID.Valid {
		rec.ReviewerID = &reviewerID.String
	}
	if expiresAt.Valid {
		t := parseTime(expiresAt.String)
		rec.ExpiresAt = &t
	}
	if resolvedAt.Valid {
		t := parseTime(resolvedAt.String)
		rec.ResolvedAt = &t
	}
	return &rec, nil
}

// ResolveApproval sets a terminal status on a still-pending record.
// Returns ErrConflict if the record was already resolved or expired, which
// is what makes double-resolution and replayed callbacks harmless.
func (s *SQLiteStore) ResolveApproval(ctx context.Context, id string, status ApprovalStatus, reviewerID, notes string) error {
	query := `
		UPDATE approvals
		SET status = ?, reviewer_id = ?, review_notes = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query,
		string(status),
		reviewerID,
		notes,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("resolving approval: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking resolve result: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetApproval(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}

	s.logger.Info("approval resolved", "id", id, "status", status, "reviewer_id", reviewerID)
	return nil
}

// ExpireApproval flips a pending record to expired.
func (s *SQLiteStore) ExpireApproval(ctx context.Context, id string) error {
	query := `
		UPDATE approvals SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query,
		string(ApprovalExpired),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("expiring approval: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking expire result: %w", err)
	}
	if rows == 0 {
		if _, err := s.GetApproval(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}

	s.logger.Info("approval expired", "id", id)
	return nil
}

// CreateWebhook inserts a webhook subscription, filling in ID and timestamp.
func (s *SQLiteStore) CreateWebhook(ctx context.Context, cfg *WebhookConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}

	query := `
		INSERT INTO webhooks (id, event, url, secret, topic, max_retries, retry_delay_ms, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.Event,
		cfg.URL,
		cfg.Secret,
		nullString(ptrToString(cfg.Topic)),
		cfg.MaxRetries,
		cfg.RetryDelay.Milliseconds(),
		boolToInt(cfg.Active),
		cfg.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting webhook: %w", err)
	}

	s.logger.Debug("created webhook", "id", cfg.ID, "event", cfg.Event, "url", cfg.URL)
	return nil
}

// GetWebhook retrieves a webhook subscription by ID.
func (s *SQLiteStore) GetWebhook(ctx context.Context, id string) (*WebhookConfig, error) {
	query := `
		SELECT id, event, url, secret, topic, max_retries, retry_delay_ms, active, created_at
		FROM webhooks WHERE id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying webhook: %w", err)
	}
	defer rows.Close()

	hooks, err := scanWebhooks(rows)
	if err != nil {
		return nil, err
	}
	if len(hooks) == 0 {
		return nil, ErrNotFound
	}
	return hooks[0], nil
}

// ListWebhooks returns all webhook subscriptions.
func (s *SQLiteStore) ListWebhooks(ctx context.Context) ([]*WebhookConfig, error) {
	query := `
		SELECT id, event, url, secret, topic, max_retries, retry_delay_ms, active, created_at
		FROM webhooks ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

// ListWebhooksForEvent returns active subscriptions matching the event whose
// topic filter is null or equals topic.
func (s *SQLiteStore) ListWebhooksForEvent(ctx context.Context, event, topic string) ([]*WebhookConfig, error) {
	query := `
		SELECT id, event, url, secret, topic, max_retries, retry_delay_ms, active, created_at
		FROM webhooks
		WHERE event = ? AND active = 1 AND (topic IS NULL OR topic = ?)
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, event, topic)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks for event: %w", err)
	}
	defer rows.Close()

	return scanWebhooks(rows)
}

// DeleteWebhook removes a webhook subscription.
func (s *SQLiteStore) DeleteWebhook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWebhooks(rows *sql.Rows) ([]*WebhookConfig, error) {
	var hooks []*WebhookConfig
	for rows.Next() {
		var cfg WebhookConfig
		var topic sql.NullString
		var retryDelayMS int64
		var active int
		var createdAt string
		if err := rows.Scan(&cfg.ID, &cfg.Event, &cfg.URL, &cfg.Secret, &topic,
			&cfg.MaxRetries, &retryDelayMS, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		if topic.Valid {
			cfg.Topic = &topic.String
		}
		cfg.RetryDelay = time.Duration(retryDelayMS) * time.Millisecond
		cfg.Active = active != 0
		cfg.CreatedAt = parseTime(createdAt)
		hooks = append(hooks, &cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhooks: %w", err)
	}
	return hooks, nil
}

// GetDeskPrompt retrieves the system prompt for a desk.
func (s *SQLiteStore) GetDeskPrompt(ctx context.Context, topic string) (*DeskPrompt, error) {
	query := `SELECT topic, prompt, updated_by, updated_at FROM desk_prompts WHERE topic = ?`

	var p DeskPrompt
	var updatedAt string
	err := s.db.QueryRowContext(ctx, query, topic).Scan(&p.Topic, &p.Prompt, &p.UpdatedBy, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying desk prompt: %w", err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// SetDeskPrompt creates or replaces the system prompt for a desk.
func (s *SQLiteStore) SetDeskPrompt(ctx context.Context, prompt *DeskPrompt) error {
	prompt.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO desk_prompts (topic, prompt, updated_by, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic) DO UPDATE SET prompt = excluded.prompt,
			updated_by = excluded.updated_by, updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		prompt.Topic,
		prompt.Prompt,
		prompt.UpdatedBy,
		prompt.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("setting desk prompt: %w", err)
	}

	s.logger.Info("desk prompt updated", "topic", prompt.Topic, "updated_by", prompt.UpdatedBy)
	return nil
}

// SaveAuditEntry appends an entry to the audit log.
func (s *SQLiteStore) SaveAuditEntry(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (id, actor_id, action, topic, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.Topic,
		entry.Detail,
		entry.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns the most recent audit entries, newest first.
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, actor_id, action, topic, detail, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Topic, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ptrToString converts a *string to its value, empty if nil.
func ptrToString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// nullString converts an empty string to a NULL database value.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime converts a nil or zero time pointer to a NULL database value.
func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
