// ABOUTME: Tests for the article lifecycle state machine.
// ABOUTME: Covers the full legal-transition table, denials, and conflict detection.

package workflow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
)

func testUser(id string, scopes ...string) *auth.UserContext {
	return &auth.UserContext{
		UserID: id,
		Scopes: scope.NewSet(scopes),
	}
}

func newTestMachine(t *testing.T) (*Machine, *store.MockStore) {
	t.Helper()
	s := store.NewMockStore()
	return NewMachine(s, s, slog.Default()), s
}

func createArticle(t *testing.T, s *store.MockStore, status store.ArticleStatus) *store.Article {
	t.Helper()
	article := &store.Article{Topic: "macro", Headline: "Rates outlook", AuthorID: "user-1"}
	require.NoError(t, s.CreateArticle(context.Background(), article))
	if status != store.StatusDraft {
		require.NoError(t, s.TransitionArticle(context.Background(), article.ID, store.StatusDraft, status))
	}
	return article
}

func TestApplyLegalTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("analyst submits draft for review", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		got, err := m.Apply(ctx, testUser("user-1", "macro:analyst"), article.ID, ActionSubmitForReview)
		require.NoError(t, err)
		assert.Equal(t, store.StatusEditor, got.Status)
	})

	t.Run("editor requests changes", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusEditor)

		got, err := m.Apply(ctx, testUser("user-2", "macro:editor"), article.ID, ActionRequestChanges)
		require.NoError(t, err)
		assert.Equal(t, store.StatusDraft, got.Status)
	})

	t.Run("editor submits for approval", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusEditor)

		got, err := m.Apply(ctx, testUser("user-2", "macro:editor"), article.ID, ActionSubmitForApproval)
		require.NoError(t, err)
		assert.Equal(t, store.StatusPendingApproval, got.Status)
	})

	t.Run("global admin may drive any desk", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		_, err := m.Apply(ctx, testUser("admin", "global:admin"), article.ID, ActionSubmitForReview)
		require.NoError(t, err)
	})
}

func TestApplyIllegalPairs(t *testing.T) {
	// Every (state, action) pair outside the transition table must fail with
	// a state conflict, never silently no-op.
	ctx := context.Background()
	user := testUser("admin", "global:admin")

	legal := map[store.ArticleStatus][]Action{
		store.StatusDraft:  {ActionSubmitForReview},
		store.StatusEditor: {ActionRequestChanges, ActionSubmitForApproval},
	}

	for _, status := range store.ValidArticleStatuses {
		for _, action := range []Action{ActionSubmitForReview, ActionRequestChanges, ActionSubmitForApproval} {
			isLegal := false
			for _, a := range legal[status] {
				if a == action {
					isLegal = true
				}
			}
			if isLegal {
				continue
			}

			t.Run(string(status)+"/"+string(action), func(t *testing.T) {
				m, s := newTestMachine(t)
				article := createArticle(t, s, status)

				_, err := m.Apply(ctx, user, article.ID, action)
				assert.ErrorIs(t, err, ErrStateConflict)

				// Status must be untouched after the failed attempt.
				got, err := s.GetArticle(ctx, article.ID)
				require.NoError(t, err)
				assert.Equal(t, status, got.Status)
			})
		}
	}
}

func TestApplyPermissionChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("reader cannot submit for review", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		_, err := m.Apply(ctx, testUser("user-3", "macro:reader"), article.ID, ActionSubmitForReview)
		var perr *scope.PermissionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, scope.RoleAnalyst, perr.Role)
		assert.Equal(t, "macro", perr.Topic)
	})

	t.Run("analyst on another desk is denied", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		_, err := m.Apply(ctx, testUser("user-4", "equity:analyst"), article.ID, ActionSubmitForReview)
		var perr *scope.PermissionError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("denial is audited", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		_, err := m.Apply(ctx, testUser("user-3", "macro:reader"), article.ID, ActionSubmitForReview)
		require.Error(t, err)

		entries, err := s.ListAuditEntries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "permission_denied", entries[0].Action)
		assert.Equal(t, "user-3", entries[0].ActorID)
	})
}

func TestApplyUnknownAction(t *testing.T) {
	m, s := newTestMachine(t)
	article := createArticle(t, s, store.StatusDraft)

	_, err := m.Apply(context.Background(), testUser("u", "global:admin"), article.ID, Action("publish_now"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestApplyMissingArticle(t *testing.T) {
	m, _ := newTestMachine(t)

	_, err := m.Apply(context.Background(), testUser("u", "global:admin"), 42, ActionSubmitForReview)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("approved publishes", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusPendingApproval)

		got, err := m.Resolve(ctx, article.ID, true)
		require.NoError(t, err)
		assert.Equal(t, store.StatusPublished, got.Status)
	})

	t.Run("rejected returns to editor", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusPendingApproval)

		got, err := m.Resolve(ctx, article.ID, false)
		require.NoError(t, err)
		assert.Equal(t, store.StatusEditor, got.Status)
	})

	t.Run("conflict when not pending", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusDraft)

		_, err := m.Resolve(ctx, article.ID, true)
		assert.ErrorIs(t, err, ErrStateConflict)
	})

	t.Run("published is terminal", func(t *testing.T) {
		m, s := newTestMachine(t)
		article := createArticle(t, s, store.StatusPendingApproval)

		_, err := m.Resolve(ctx, article.ID, true)
		require.NoError(t, err)

		_, err = m.Resolve(ctx, article.ID, true)
		assert.ErrorIs(t, err, ErrStateConflict)
	})
}
