// ABOUTME: Router selects the agent for a query from its intent and the caller's scopes.
// ABOUTME: Refuses with the missing role rather than downgrading to a weaker agent.

package router

import (
	"fmt"
	"strings"

	"github.com/ledekit/newsroom/internal/agents"
	"github.com/ledekit/newsroom/internal/scope"
)

// Intent is a coarse classification of what a query asks for.
type Intent string

const (
	IntentRead      Intent = "read"
	IntentResearch  Intent = "research"
	IntentEditorial Intent = "editorial"
	IntentGeneral   Intent = "general"
)

// Refusal is returned when a query's intent requires a role the caller does
// not hold. It names the missing requirement so the caller sees a denial, not
// a degraded answer that looks like success.
type Refusal struct {
	Intent Intent
	Role   scope.Role
	Topic  string
}

func (r *Refusal) Error() string {
	if r.Topic == "" {
		return fmt.Sprintf("%s queries require the %s role", r.Intent, r.Role)
	}
	return fmt.Sprintf("%s queries on desk %q require the %s role", r.Intent, r.Topic, r.Role)
}

// intentAgents maps each intent to the agent that handles it. The agent's
// MinRole is the routing requirement; general intent has no requirement.
var intentAgents = map[Intent]*agents.Agent{
	IntentRead:      agents.Librarian,
	IntentResearch:  agents.Researcher,
	IntentEditorial: agents.DeskEditor,
	IntentGeneral:   agents.Concierge,
}

// Router decides which agent handles a query. It is stateless: routing only
// selects a destination and never performs the action itself.
type Router struct{}

// NewRouter creates a Router.
func NewRouter() *Router {
	return &Router{}
}

// Route resolves an intent to an agent, checking the caller's scopes against
// the agent's role floor for the topic. A caller lacking the required role
// gets a *Refusal, never a silent fallback to a lower-privilege agent.
func (r *Router) Route(intent Intent, scopes scope.Set, topic string) (*agents.Agent, error) {
	agent, ok := intentAgents[intent]
	if !ok {
		agent = agents.Concierge
	}

	if agent.MinRole == scope.RoleNone {
		return agent, nil
	}
	if !scopes.Authorize(agent.MinRole, topic, true) {
		return nil, &Refusal{Intent: intent, Role: agent.MinRole, Topic: topic}
	}
	return agent, nil
}

// intentKeywords drives ClassifyIntent. Editorial verbs are checked before
// research verbs so "review the draft" lands on the desk editor.
var intentKeywords = []struct {
	intent Intent
	words  []string
}{
	{IntentEditorial, []string{"review", "approve", "reject", "publish", "request changes", "send back", "sign off"}},
	{IntentResearch, []string{"research", "draft", "write", "investigate", "analyze", "compose", "prepare"}},
	{IntentRead, []string{"show", "list", "find", "search", "what", "when", "summarize", "read"}},
}

// ClassifyIntent maps free text to an Intent by keyword. Unmatched queries
// are general: the concierge needs no privileges, so misclassification in
// that direction can never widen access.
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, group := range intentKeywords {
		for _, word := range group.words {
			if strings.Contains(q, word) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}
