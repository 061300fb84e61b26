// ABOUTME: Tests for the tool registry: registration, visibility filtering, fail-closed execution.
// ABOUTME: Covers the confirmation flag and the disabled global override.

package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
)

func echoTool(name string, perm Permission) *Tool {
	return &Tool{
		Name:        name,
		Description: name + " test tool",
		InputSchema: `{"type":"object"}`,
		Permission:  perm,
		Handler: func(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error) {
			return json.RawMessage(`{"ok":true}`), nil
		},
	}
}

func user(scopes ...string) *auth.UserContext {
	return &auth.UserContext{UserID: "user-1", Scopes: scope.NewSet(scopes)}
}

func toolNames(tools []*Tool) []string {
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	return names
}

func TestRegister(t *testing.T) {
	r := NewRegistry(slog.Default())

	require.NoError(t, r.Register(echoTool("alpha", Permission{RequiredRole: scope.RoleReader})))
	assert.NotNil(t, r.Get("alpha"))
	assert.Nil(t, r.Get("beta"))

	err := r.Register(echoTool("alpha", Permission{RequiredRole: scope.RoleReader}))
	assert.ErrorIs(t, err, ErrToolCollision)
}

func TestVisible(t *testing.T) {
	r := NewRegistry(slog.Default())
	require.NoError(t, r.Register(echoTool("read", Permission{RequiredRole: scope.RoleReader, TopicScoped: true})))
	require.NoError(t, r.Register(echoTool("write", Permission{RequiredRole: scope.RoleAnalyst, TopicScoped: true})))
	require.NoError(t, r.Register(echoTool("admin_any", Permission{RequiredRole: scope.RoleAdmin})))
	require.NoError(t, r.Register(echoTool("edit_prompt", Permission{RequiredRole: scope.RoleAdmin, TopicScoped: true, NoGlobalOverride: true})))

	t.Run("reader sees only read tools", func(t *testing.T) {
		visible := r.Visible(scope.NewSet([]string{"macro:reader"}), "macro")
		assert.Equal(t, []string{"read"}, toolNames(visible))
	})

	t.Run("analyst adds write tools", func(t *testing.T) {
		visible := r.Visible(scope.NewSet([]string{"macro:analyst"}), "macro")
		assert.Equal(t, []string{"read", "write"}, toolNames(visible))
	})

	t.Run("wrong desk hides desk-scoped tools", func(t *testing.T) {
		visible := r.Visible(scope.NewSet([]string{"macro:analyst"}), "equity")
		assert.Empty(t, toolNames(visible))
	})

	t.Run("global admin sees everything except override-disabled", func(t *testing.T) {
		visible := r.Visible(scope.NewSet([]string{"global:admin"}), "macro")
		assert.Equal(t, []string{"admin_any", "read", "write"}, toolNames(visible))
	})

	t.Run("desk admin sees override-disabled tool", func(t *testing.T) {
		visible := r.Visible(scope.NewSet([]string{"macro:admin"}), "macro")
		assert.Equal(t, []string{"edit_prompt", "read", "write"}, toolNames(visible))
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	newRegistry := func(t *testing.T) *Registry {
		r := NewRegistry(slog.Default())
		require.NoError(t, r.Register(echoTool("read", Permission{RequiredRole: scope.RoleReader, TopicScoped: true})))
		require.NoError(t, r.Register(echoTool("wipe", Permission{RequiredRole: scope.RoleEditor, TopicScoped: true, Destructive: true})))
		return r
	}

	t.Run("authorized execution", func(t *testing.T) {
		r := newRegistry(t)
		out, err := r.Execute(ctx, user("macro:reader"), "read", "macro", json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(out))
	})

	t.Run("unknown tool fails closed", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("global:admin"), "missing", "macro", nil)
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("hidden tool fails closed on direct invocation", func(t *testing.T) {
		// Not being in Visible is not the enforcement; Execute re-checks.
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("macro:reader"), "wipe", "macro", json.RawMessage(`{"confirm":true}`))
		var perr *scope.PermissionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, scope.RoleEditor, perr.Role)
		assert.Equal(t, "macro", perr.Topic)
	})

	t.Run("wrong desk fails closed", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("macro:reader"), "read", "equity", json.RawMessage(`{}`))
		var perr *scope.PermissionError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("desk-scoped tool requires a desk", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("macro:reader"), "read", "", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrTopicRequired)
	})

	t.Run("destructive tool without confirm", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("macro:editor"), "wipe", "macro", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrConfirmationRequired)
	})

	t.Run("destructive tool with confirm", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Execute(ctx, user("macro:editor"), "wipe", "macro", json.RawMessage(`{"confirm":true}`))
		assert.NoError(t, err)
	})
}
