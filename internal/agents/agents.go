// ABOUTME: Specialized agent definitions and the Generator-backed runner.
// ABOUTME: Each agent pairs a role floor with the tool surface it may use.

package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
	"github.com/ledekit/newsroom/internal/tools"
)

// Generator produces text from a prompt. Backed by whatever model runtime the
// deployment wires in; tests use a canned implementation.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, query string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, systemPrompt, query string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, query string) (string, error) {
	return f(ctx, systemPrompt, query)
}

// Agent is a named handler for one class of newsroom work. MinRole is the
// privilege floor the router checks before selecting it; the tool registry
// re-checks per tool regardless.
type Agent struct {
	Name        string
	Description string
	MinRole     scope.Role

	// basePrompt is the agent's own instruction block, prepended to the
	// desk's configured prompt.
	basePrompt string
}

// The standard agent set. Concierge carries no elevated tools and is the
// fallback for callers with no desk privileges.
var (
	Librarian = &Agent{
		Name:        "librarian",
		Description: "Answers read-only questions from the desk's published and in-flight articles",
		MinRole:     scope.RoleReader,
		basePrompt:  "You are the desk librarian. Answer from existing articles; never draft or modify anything.",
	}
	Researcher = &Agent{
		Name:        "researcher",
		Description: "Researches and drafts new articles for the desk",
		MinRole:     scope.RoleAnalyst,
		basePrompt:  "You are a desk researcher. Research the query and produce or update draft articles.",
	}
	DeskEditor = &Agent{
		Name:        "desk_editor",
		Description: "Reviews drafts, requests changes, and submits articles for approval",
		MinRole:     scope.RoleEditor,
		basePrompt:  "You are the desk editor. Review work in the editor queue and move it through the pipeline.",
	}
	Concierge = &Agent{
		Name:        "concierge",
		Description: "General assistant with no desk privileges",
		MinRole:     scope.RoleNone,
		basePrompt:  "You are a general assistant. You have no newsroom tools; answer from general knowledge.",
	}
)

// Result is what a handled query returns to the transport layer.
type Result struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

// Runner executes a query against a selected agent: it assembles the system
// prompt from the agent's instructions, the desk's configured prompt, and the
// caller's visible tools, then invokes the Generator.
type Runner struct {
	generator Generator
	registry  *tools.Registry
	prompts   store.PromptStore
	logger    *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(generator Generator, registry *tools.Registry, prompts store.PromptStore, logger *slog.Logger) *Runner {
	return &Runner{
		generator: generator,
		registry:  registry,
		prompts:   prompts,
		logger:    logger.With("component", "agents"),
	}
}

// Handle runs one query. The tool list in the prompt is computed from the
// caller's scopes, so the model is never shown a capability the registry
// would refuse to execute.
func (r *Runner) Handle(ctx context.Context, user *auth.UserContext, agent *Agent, topic, query string) (*Result, error) {
	var sb strings.Builder
	sb.WriteString(agent.basePrompt)

	if topic != "" {
		if prompt, err := r.prompts.GetDeskPrompt(ctx, topic); err == nil {
			sb.WriteString("\n\n")
			sb.WriteString(prompt.Prompt)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading desk prompt: %w", err)
		}
	}

	visible := r.registry.Visible(user.Scopes, topic)
	if len(visible) > 0 {
		sb.WriteString("\n\nAvailable tools:\n")
		for _, tool := range visible {
			fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
		}
	}

	text, err := r.generator.Generate(ctx, sb.String(), query)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	r.logger.Info("query handled",
		"agent", agent.Name,
		"topic", topic,
		"user_id", user.UserID,
		"tools_visible", len(visible),
	)
	return &Result{Agent: agent.Name, Text: text}, nil
}
