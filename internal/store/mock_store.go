// ABOUTME: In-memory Store implementation for unit tests.
// ABOUTME: Mirrors the SQLite store's conditional-write semantics without a database.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store used by tests in other packages. It
// enforces the same guards as the SQLite store: conditional transitions and
// at most one pending approval per article.
type MockStore struct {
	mu sync.Mutex

	articles  map[int64]*Article
	nextID    int64
	approvals map[string]*ApprovalRecord
	webhooks  map[string]*WebhookConfig
	prompts   map[string]*DeskPrompt
	audit     []*AuditEntry

	// ForcedErr, when set, is returned by every method. Lets tests exercise
	// storage-failure paths.
	ForcedErr error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		articles:  make(map[int64]*Article),
		nextID:    1,
		approvals: make(map[string]*ApprovalRecord),
		webhooks:  make(map[string]*WebhookConfig),
		prompts:   make(map[string]*DeskPrompt),
	}
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) CreateArticle(ctx context.Context, article *Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	article.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Status == "" {
		article.Status = StatusDraft
	}
	copied := *article
	m.articles[article.ID] = &copied
	return nil
}

func (m *MockStore) GetArticle(ctx context.Context, id int64) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *MockStore) ListArticles(ctx context.Context, topic string, status ArticleStatus, limit int) ([]*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	var out []*Article
	for _, a := range m.articles {
		if topic != "" && a.Topic != topic {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockStore) UpdateArticleContent(ctx context.Context, id int64, headline, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	a, ok := m.articles[id]
	if !ok {
		return ErrNotFound
	}
	a.Headline = headline
	a.Body = body
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockStore) TransitionArticle(ctx context.Context, id int64, from, to ArticleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	a, ok := m.articles[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != from {
		return ErrConflict
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockStore) DeleteDraft(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	a, ok := m.articles[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusDraft {
		return ErrConflict
	}
	delete(m.articles, id)
	return nil
}

func (m *MockStore) CreateApproval(ctx context.Context, rec *ApprovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	if rec.Status == "" {
		rec.Status = ApprovalPending
	}
	if rec.Status == ApprovalPending {
		for _, existing := range m.approvals {
			if existing.ArticleID == rec.ArticleID && existing.Status == ApprovalPending {
				return ErrDuplicatePending
			}
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copied := *rec
	m.approvals[rec.ID] = &copied
	return nil
}

func (m *MockStore) GetApproval(ctx context.Context, id string) (*ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	rec, ok := m.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *MockStore) GetPendingApprovalByArticle(ctx context.Context, articleID int64) (*ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	for _, rec := range m.approvals {
		if rec.ArticleID == articleID && rec.Status == ApprovalPending {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockStore) ResolveApproval(ctx context.Context, id string, status ApprovalStatus, reviewerID, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	rec, ok := m.approvals[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != ApprovalPending {
		return ErrConflict
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.ReviewerID = &reviewerID
	rec.ReviewNotes = notes
	rec.ResolvedAt = &now
	return nil
}

func (m *MockStore) ExpireApproval(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	rec, ok := m.approvals[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != ApprovalPending {
		return ErrConflict
	}
	now := time.Now().UTC()
	rec.Status = ApprovalExpired
	rec.ResolvedAt = &now
	return nil
}

func (m *MockStore) CreateWebhook(ctx context.Context, cfg *WebhookConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	copied := *cfg
	m.webhooks[cfg.ID] = &copied
	return nil
}

func (m *MockStore) GetWebhook(ctx context.Context, id string) (*WebhookConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	cfg, ok := m.webhooks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cfg
	return &copied, nil
}

func (m *MockStore) ListWebhooks(ctx context.Context) ([]*WebhookConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	var out []*WebhookConfig
	for _, cfg := range m.webhooks {
		copied := *cfg
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockStore) ListWebhooksForEvent(ctx context.Context, event, topic string) ([]*WebhookConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	var out []*WebhookConfig
	for _, cfg := range m.webhooks {
		if !cfg.Active || cfg.Event != event {
			continue
		}
		if cfg.Topic != nil && *cfg.Topic != topic {
			continue
		}
		copied := *cfg
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockStore) DeleteWebhook(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	if _, ok := m.webhooks[id]; !ok {
		return ErrNotFound
	}
	delete(m.webhooks, id)
	return nil
}

func (m *MockStore) GetDeskPrompt(ctx context.Context, topic string) (*DeskPrompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	p, ok := m.prompts[topic]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockStore) SetDeskPrompt(ctx context.Context, prompt *DeskPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	prompt.UpdatedAt = time.Now().UTC()
	copied := *prompt
	m.prompts[prompt.Topic] = &copied
	return nil
}

func (m *MockStore) SaveAuditEntry(ctx context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return m.ForcedErr
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	copied := *entry
	m.audit = append(m.audit, &copied)
	return nil
}

func (m *MockStore) ListAuditEntries(ctx context.Context, limit int) ([]*AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}

	out := make([]*AuditEntry, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		copied := *m.audit[i]
		out = append(out, &copied)
	}
	return out, nil
}
