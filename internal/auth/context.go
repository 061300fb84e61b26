// ABOUTME: Per-request user context carrying the verified scope set through handlers.
// ABOUTME: Provides WithUser/FromContext for propagating identity via context.

package auth

import (
	"context"

	"github.com/ledekit/newsroom/internal/scope"
)

// UserContext is the immutable per-request identity. It is built once from
// the verified token and never mutated afterward; the scope set it carries
// is the single authorization input for everything downstream.
type UserContext struct {
	UserID string
	Email  string
	Scopes scope.Set

	// DefaultDesk is the desk a bare query is attributed to when the request
	// names none. Presentation preference only; never consulted for checks.
	DefaultDesk string
}

// userContextKey is the key type for storing UserContext in context.Context.
type userContextKey struct{}

// WithUser returns a new context with the UserContext attached.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// FromContext retrieves the UserContext from the context, returning nil if
// not present.
func FromContext(ctx context.Context) *UserContext {
	val := ctx.Value(userContextKey{})
	if val == nil {
		return nil
	}
	user, ok := val.(*UserContext)
	if !ok {
		return nil
	}
	return user
}

// MustFromContext retrieves the UserContext, panicking if absent. Only for
// handlers that sit behind the auth middleware.
func MustFromContext(ctx context.Context) *UserContext {
	user := FromContext(ctx)
	if user == nil {
		panic("auth: UserContext not found in context")
	}
	return user
}
