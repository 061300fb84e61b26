// ABOUTME: Registry for invocable tools with role/desk permission metadata.
// ABOUTME: Single choke point for visibility filtering and fail-closed execution.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/obs"
	"github.com/ledekit/newsroom/internal/scope"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// ErrToolNotFound indicates the requested tool is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrConfirmationRequired indicates a destructive tool was invoked without
// the explicit confirm flag.
var ErrConfirmationRequired = errors.New("confirmation required")

// ErrTopicRequired indicates a desk-scoped tool was invoked without a desk.
var ErrTopicRequired = errors.New("tool requires a desk")

// Permission is the static authorization metadata attached to a tool.
type Permission struct {
	// RequiredRole is the minimum role level for the tool.
	RequiredRole scope.Role

	// TopicScoped requires the role within the request's desk rather than
	// anywhere.
	TopicScoped bool

	// NoGlobalOverride disables the global:admin bypass for this tool. The
	// zero value keeps the bypass, matching the default everywhere else.
	NoGlobalOverride bool

	// RequiresHITL marks a tool whose handler routes through the approval
	// coordinator instead of completing immediately.
	RequiresHITL bool

	// Destructive tools demand an explicit "confirm": true input field.
	Destructive bool
}

// Handler executes a tool on behalf of an authorized caller.
type Handler func(ctx context.Context, user *auth.UserContext, topic string, input json.RawMessage) (json.RawMessage, error)

// Tool is one registered capability.
type Tool struct {
	Name        string
	Description string
	InputSchema string
	Permission  Permission
	Handler     Handler
}

// Registry holds the registered tools. Registration happens once at process
// start; lookups afterward are pure reads over that static data.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates a new Registry instance.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger.With("component", "tools"),
	}
}

// Register stores a tool. Returns ErrToolCollision if the name is taken.
func (r *Registry) Register(tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %q", ErrToolCollision, tool.Name)
	}
	r.tools[tool.Name] = tool

	r.logger.Debug("tool registered",
		"name", tool.Name,
		"required_role", tool.Permission.RequiredRole,
		"topic_scoped", tool.Permission.TopicScoped,
	)
	return nil
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Visible returns the tools the scope set may invoke for the given desk,
// sorted by name. This is the only way a caller-facing capability list may
// be built; both the conversational path and the API routes consume it.
func (r *Registry) Visible(scopes scope.Set, topic string) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var visible []*Tool
	for _, tool := range r.tools {
		if r.allowed(tool, scopes, topic) {
			visible = append(visible, tool)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Name < visible[j].Name })
	return visible
}

// allowed evaluates a tool's permission against a scope set and desk.
func (r *Registry) allowed(tool *Tool, scopes scope.Set, topic string) bool {
	checkTopic := ""
	if tool.Permission.TopicScoped {
		checkTopic = topic
	}
	return scopes.Authorize(tool.Permission.RequiredRole, checkTopic, !tool.Permission.NoGlobalOverride)
}

// Execute runs a tool for a caller. The permission is re-checked here even
// when the caller picked the tool from a Visible listing: hiding a tool is
// not the enforcement, this is.
func (r *Registry) Execute(ctx context.Context, user *auth.UserContext, name, topic string, input json.RawMessage) (json.RawMessage, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	if tool.Permission.TopicScoped && topic == "" {
		return nil, fmt.Errorf("%w: %q", ErrTopicRequired, name)
	}

	if !r.allowed(tool, user.Scopes, topic) {
		obs.PermissionDenials.WithLabelValues("tools").Inc()
		r.logger.Warn("tool execution denied",
			"tool", name,
			"user_id", user.UserID,
			"topic", topic,
		)
		checkTopic := ""
		if tool.Permission.TopicScoped {
			checkTopic = topic
		}
		return nil, scope.Deny(tool.Permission.RequiredRole, checkTopic)
	}

	if tool.Permission.Destructive && !confirmed(input) {
		return nil, fmt.Errorf("%w: %q is destructive, pass \"confirm\": true", ErrConfirmationRequired, name)
	}

	result, err := tool.Handler(ctx, user, topic, input)
	if err != nil {
		obs.ToolExecutions.WithLabelValues(name, "error").Inc()
		return nil, err
	}

	obs.ToolExecutions.WithLabelValues(name, "success").Inc()
	r.logger.Info("tool executed", "tool", name, "user_id", user.UserID, "topic", topic)
	return result, nil
}

// confirmed reports whether the input carries an explicit confirm flag.
func confirmed(input json.RawMessage) bool {
	var probe struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.Unmarshal(input, &probe); err != nil {
		return false
	}
	return probe.Confirm
}
