// ABOUTME: Tests for the agent runner's prompt assembly and tool surfacing.
// ABOUTME: Uses a canned Generator that records what it was asked.

package agents

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/tools"
)

type cannedGenerator struct {
	systemPrompt string
	query        string
	reply        string
}

func (g *cannedGenerator) Generate(ctx context.Context, systemPrompt, query string) (string, error) {
	g.systemPrompt = systemPrompt
	g.query = query
	return g.reply, nil
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(slog.Default())
	require.NoError(t, r.Register(&tools.Tool{
		Name:        "search_articles",
		Description: "Search the desk's articles",
		Permission:  tools.Permission{RequiredRole: scope.RoleReader, TopicScoped: true},
		Handler: func(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
			return nil, nil
		},
	}))
	require.NoError(t, r.Register(&tools.Tool{
		Name:        "create_draft",
		Description: "Create a draft article",
		Permission:  tools.Permission{RequiredRole: scope.RoleAnalyst, TopicScoped: true},
		Handler: func(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
			return nil, nil
		},
	}))
	return r
}

func TestRunnerHandle(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()
	require.NoError(t, s.SetDeskPrompt(ctx, &store.DeskPrompt{
		Topic:  "macro",
		Prompt: "You cover global macro for institutional readers.",
	}))

	t.Run("prompt includes desk prompt and visible tools", func(t *testing.T) {
		gen := &cannedGenerator{reply: "here is your answer"}
		runner := NewRunner(gen, testRegistry(t), s, slog.Default())
		user := &auth.UserContext{UserID: "u1", Scopes: scope.NewSet([]string{"macro:analyst"})}

		result, err := runner.Handle(ctx, user, Researcher, "macro", "draft a piece on rates")
		require.NoError(t, err)
		assert.Equal(t, "researcher", result.Agent)
		assert.Equal(t, "here is your answer", result.Text)

		assert.Contains(t, gen.systemPrompt, "desk researcher")
		assert.Contains(t, gen.systemPrompt, "institutional readers")
		assert.Contains(t, gen.systemPrompt, "search_articles")
		assert.Contains(t, gen.systemPrompt, "create_draft")
		assert.Equal(t, "draft a piece on rates", gen.query)
	})

	t.Run("reader does not see write tools", func(t *testing.T) {
		gen := &cannedGenerator{reply: "ok"}
		runner := NewRunner(gen, testRegistry(t), s, slog.Default())
		user := &auth.UserContext{UserID: "u2", Scopes: scope.NewSet([]string{"macro:reader"})}

		_, err := runner.Handle(ctx, user, Librarian, "macro", "show me the latest")
		require.NoError(t, err)
		assert.Contains(t, gen.systemPrompt, "search_articles")
		assert.NotContains(t, gen.systemPrompt, "create_draft")
	})

	t.Run("no desk means no desk prompt and no desk tools", func(t *testing.T) {
		gen := &cannedGenerator{reply: "ok"}
		runner := NewRunner(gen, testRegistry(t), s, slog.Default())
		user := &auth.UserContext{UserID: "u3", Scopes: scope.NewSet(nil)}

		_, err := runner.Handle(ctx, user, Concierge, "", "hello")
		require.NoError(t, err)
		assert.NotContains(t, gen.systemPrompt, "institutional readers")
		assert.NotContains(t, gen.systemPrompt, "Available tools")
	})

	t.Run("missing desk prompt is not an error", func(t *testing.T) {
		gen := &cannedGenerator{reply: "ok"}
		runner := NewRunner(gen, testRegistry(t), s, slog.Default())
		user := &auth.UserContext{UserID: "u4", Scopes: scope.NewSet([]string{"equity:reader"})}

		_, err := runner.Handle(ctx, user, Librarian, "equity", "list articles")
		require.NoError(t, err)
	})
}
