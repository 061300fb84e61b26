// ABOUTME: Scope parsing and the role-based authorization check used across the gateway.
// ABOUTME: A scope is "{desk}:{role}" or "global:{role}"; roles form a strict ladder.

package scope

import (
	"fmt"
	"strings"
)

// GlobalGroup is the scope group that applies to every desk.
const GlobalGroup = "global"

// Role is a privilege level. Higher values include all lower ones.
type Role int

const (
	RoleNone Role = iota
	RoleReader
	RoleEditor
	RoleAnalyst
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleReader:  "reader",
	RoleEditor:  "editor",
	RoleAnalyst: "analyst",
	RoleAdmin:   "admin",
}

var rolesByName = map[string]Role{
	"reader":  RoleReader,
	"editor":  RoleEditor,
	"analyst": RoleAnalyst,
	"admin":   RoleAdmin,
}

// String returns the wire name of the role, or "none" for the zero value.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "none"
}

// ParseRole maps a role name to its level. Unknown names return RoleNone and false.
func ParseRole(name string) (Role, bool) {
	r, ok := rolesByName[name]
	return r, ok
}

// Scope is one parsed "{group}:{role}" grant.
type Scope struct {
	Group string
	Role  Role
}

// Parse splits a scope string into its group and role.
// Strings without exactly one colon or with an unknown role are rejected.
func Parse(s string) (Scope, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" {
		return Scope{}, fmt.Errorf("malformed scope %q", s)
	}
	role, ok := ParseRole(parts[1])
	if !ok {
		return Scope{}, fmt.Errorf("unknown role in scope %q", s)
	}
	return Scope{Group: parts[0], Role: role}, nil
}

// Set is a caller's full set of grants. Malformed entries are dropped at
// construction so a single bad scope never poisons the whole set.
type Set struct {
	scopes []Scope
}

// NewSet parses the raw scope strings, skipping any that are malformed.
func NewSet(raw []string) Set {
	scopes := make([]Scope, 0, len(raw))
	for _, s := range raw {
		parsed, err := Parse(s)
		if err != nil {
			continue
		}
		scopes = append(scopes, parsed)
	}
	return Set{scopes: scopes}
}

// Strings returns the set in wire form, for logging and token claims.
func (s Set) Strings() []string {
	out := make([]string, len(s.scopes))
	for i, sc := range s.scopes {
		out[i] = sc.Group + ":" + sc.Role.String()
	}
	return out
}

// IsGlobalAdmin reports whether the set contains the global:admin grant.
func (s Set) IsGlobalAdmin() bool {
	for _, sc := range s.scopes {
		if sc.Group == GlobalGroup && sc.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// Authorize reports whether the set satisfies required for the given topic.
//
// When allowOverride is true, global:admin passes unconditionally; this is
// the only bypass in the system, and sensitive actions (desk prompt editing)
// disable it so even a global admin needs the desk-specific grant. With a
// topic, only grants for that desk or for "global" count, and the highest
// matching role must reach required. Without a topic, the highest role in
// the whole set is compared.
func (s Set) Authorize(required Role, topic string, allowOverride bool) bool {
	if allowOverride && s.IsGlobalAdmin() {
		return true
	}

	best := RoleNone
	for _, sc := range s.scopes {
		if topic != "" && sc.Group != topic && sc.Group != GlobalGroup {
			continue
		}
		// With the override disabled, global:admin only ever counts through
		// the bypass above. A desk-scoped check must be met by a grant on
		// the desk itself or a non-admin global grant.
		if topic != "" && !allowOverride && sc.Group == GlobalGroup && sc.Role == RoleAdmin && sc.Group != topic {
			continue
		}
		if sc.Role > best {
			best = sc.Role
		}
	}
	return best != RoleNone && best >= required
}

// PermissionError describes a failed authorization: the role the caller was
// missing and, when the check was desk-scoped, the desk it was missing it for.
type PermissionError struct {
	Role  Role
	Topic string
}

func (e *PermissionError) Error() string {
	if e.Topic != "" {
		return fmt.Sprintf("permission denied: requires %s on desk %q", e.Role, e.Topic)
	}
	return fmt.Sprintf("permission denied: requires %s", e.Role)
}

// Deny builds the PermissionError for a failed check against required/topic.
func Deny(required Role, topic string) error {
	return &PermissionError{Role: required, Topic: topic}
}
