// ABOUTME: Tests for intent classification and agent routing.
// ABOUTME: Verifies refusals carry the missing role instead of downgrading.

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledekit/newsroom/internal/agents"
	"github.com/ledekit/newsroom/internal/scope"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"show me the latest macro articles", IntentRead},
		{"what happened with rates this week", IntentRead},
		{"research the impact of tariffs on inflation", IntentResearch},
		{"draft a piece on the jobs report", IntentResearch},
		{"review the draft on inflation", IntentEditorial},
		{"send back the tariffs piece", IntentEditorial},
		{"sign off on article 12", IntentEditorial},
		{"hello there", IntentGeneral},
		{"", IntentGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyIntent(tc.query))
		})
	}
}

func TestRoute(t *testing.T) {
	r := NewRouter()

	t.Run("reader routes to librarian", func(t *testing.T) {
		agent, err := r.Route(IntentRead, scope.NewSet([]string{"macro:reader"}), "macro")
		require.NoError(t, err)
		assert.Equal(t, agents.Librarian, agent)
	})

	t.Run("analyst routes to researcher", func(t *testing.T) {
		agent, err := r.Route(IntentResearch, scope.NewSet([]string{"macro:analyst"}), "macro")
		require.NoError(t, err)
		assert.Equal(t, agents.Researcher, agent)
	})

	t.Run("editor routes to desk editor", func(t *testing.T) {
		agent, err := r.Route(IntentEditorial, scope.NewSet([]string{"macro:editor"}), "macro")
		require.NoError(t, err)
		assert.Equal(t, agents.DeskEditor, agent)
	})

	t.Run("general always routes to concierge", func(t *testing.T) {
		agent, err := r.Route(IntentGeneral, scope.NewSet(nil), "macro")
		require.NoError(t, err)
		assert.Equal(t, agents.Concierge, agent)
	})

	t.Run("unknown intent falls back to concierge", func(t *testing.T) {
		agent, err := r.Route(Intent("gibberish"), scope.NewSet(nil), "")
		require.NoError(t, err)
		assert.Equal(t, agents.Concierge, agent)
	})

	t.Run("missing role refuses instead of downgrading", func(t *testing.T) {
		_, err := r.Route(IntentResearch, scope.NewSet([]string{"macro:reader"}), "macro")
		var refusal *Refusal
		require.ErrorAs(t, err, &refusal)
		assert.Equal(t, IntentResearch, refusal.Intent)
		assert.Equal(t, scope.RoleAnalyst, refusal.Role)
		assert.Equal(t, "macro", refusal.Topic)
		assert.Contains(t, refusal.Error(), "analyst")
	})

	t.Run("wrong desk refuses", func(t *testing.T) {
		_, err := r.Route(IntentRead, scope.NewSet([]string{"equity:admin"}), "macro")
		var refusal *Refusal
		assert.ErrorAs(t, err, &refusal)
	})

	t.Run("global admin passes any desk", func(t *testing.T) {
		agent, err := r.Route(IntentEditorial, scope.NewSet([]string{"global:admin"}), "macro")
		require.NoError(t, err)
		assert.Equal(t, agents.DeskEditor, agent)
	})
}
