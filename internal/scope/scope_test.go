// ABOUTME: Tests for scope parsing and the authorization check.
// ABOUTME: Covers role ordering, desk isolation, and the global admin override.

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid scope", func(t *testing.T) {
		s, err := Parse("macro:analyst")
		require.NoError(t, err)
		assert.Equal(t, "macro", s.Group)
		assert.Equal(t, RoleAnalyst, s.Role)
	})

	t.Run("global scope", func(t *testing.T) {
		s, err := Parse("global:admin")
		require.NoError(t, err)
		assert.Equal(t, GlobalGroup, s.Group)
		assert.Equal(t, RoleAdmin, s.Role)
	})

	t.Run("rejects missing colon", func(t *testing.T) {
		_, err := Parse("macroanalyst")
		assert.Error(t, err)
	})

	t.Run("rejects two colons", func(t *testing.T) {
		_, err := Parse("macro:analyst:extra")
		assert.Error(t, err)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := Parse("macro:superuser")
		assert.Error(t, err)
	})

	t.Run("rejects empty group", func(t *testing.T) {
		_, err := Parse(":admin")
		assert.Error(t, err)
	})
}

func TestNewSetSkipsMalformed(t *testing.T) {
	set := NewSet([]string{"macro:analyst", "garbage", "equity:reader", "a:b:c"})
	assert.ElementsMatch(t, []string{"macro:analyst", "equity:reader"}, set.Strings())
}

func TestAuthorize(t *testing.T) {
	t.Run("empty set never authorizes", func(t *testing.T) {
		set := NewSet(nil)
		assert.False(t, set.Authorize(RoleReader, "", true))
		assert.False(t, set.Authorize(RoleReader, "macro", true))
	})

	t.Run("role hierarchy is monotonic", func(t *testing.T) {
		roles := []Role{RoleReader, RoleEditor, RoleAnalyst, RoleAdmin}
		sets := []Set{
			NewSet([]string{"macro:reader"}),
			NewSet([]string{"macro:editor"}),
			NewSet([]string{"macro:analyst", "equity:reader"}),
			NewSet([]string{"macro:admin"}),
			NewSet([]string{"global:editor"}),
		}
		for _, set := range sets {
			for i, hi := range roles {
				if !set.Authorize(hi, "macro", false) {
					continue
				}
				// Anything below a satisfied role must also be satisfied.
				for _, lo := range roles[:i] {
					assert.True(t, set.Authorize(lo, "macro", false),
						"set %v satisfies %s but not %s", set.Strings(), hi, lo)
				}
			}
		}
	})

	t.Run("desk isolation", func(t *testing.T) {
		set := NewSet([]string{"macro:analyst"})
		assert.True(t, set.Authorize(RoleAnalyst, "macro", false))
		assert.False(t, set.Authorize(RoleAnalyst, "equity", false))
		assert.False(t, set.Authorize(RoleReader, "equity", false))
	})

	t.Run("global scope satisfies any desk", func(t *testing.T) {
		set := NewSet([]string{"global:editor"})
		assert.True(t, set.Authorize(RoleEditor, "macro", false))
		assert.True(t, set.Authorize(RoleEditor, "equity", false))
		assert.False(t, set.Authorize(RoleAnalyst, "macro", false))
	})

	t.Run("global admin override", func(t *testing.T) {
		set := NewSet([]string{"global:admin"})
		assert.True(t, set.Authorize(RoleAdmin, "macro", true))
		// Override disabled: even a global admin needs the desk's own grant.
		assert.False(t, set.Authorize(RoleAdmin, "macro", false))
		// Without a desk the admin grant still counts as the highest role.
		assert.True(t, set.Authorize(RoleAdmin, "", false))
	})

	t.Run("override disabled requires desk grant for desk-only checks", func(t *testing.T) {
		// A desk admin check with override disabled is only satisfied by the
		// desk's own grant when the caller holds nothing global.
		set := NewSet([]string{"equity:admin"})
		assert.False(t, set.Authorize(RoleAdmin, "macro", false))
		assert.False(t, set.Authorize(RoleAdmin, "macro", true))
	})

	t.Run("no topic compares against highest role anywhere", func(t *testing.T) {
		set := NewSet([]string{"macro:reader", "equity:analyst"})
		assert.True(t, set.Authorize(RoleAnalyst, "", false))
		assert.False(t, set.Authorize(RoleAdmin, "", false))
	})

	t.Run("highest matching role wins", func(t *testing.T) {
		set := NewSet([]string{"macro:reader", "global:analyst"})
		assert.True(t, set.Authorize(RoleAnalyst, "macro", false))
	})
}

func TestPermissionError(t *testing.T) {
	err := Deny(RoleEditor, "macro")
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, RoleEditor, perr.Role)
	assert.Equal(t, "macro", perr.Topic)
	assert.Contains(t, err.Error(), "editor")
	assert.Contains(t, err.Error(), "macro")
}
