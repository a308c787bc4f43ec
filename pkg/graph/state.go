package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Consistent is the bucket holding edges that apply regardless of state.
const Consistent = "consistent"

// StateRegistry maps a state group (a physical switching device) to its active state.
// Every node created with the same registry observes the same values.
// Safe for concurrent use.
type StateRegistry struct {
	mu     sync.RWMutex
	values map[string]string
	scoped bool
}

// RegistryOption configures a StateRegistry.
type RegistryOption func(*StateRegistry)

// WithScopedBuckets keys edge buckets by group and state instead of by state alone.
// Without it, groups sharing a state name also share the edges stored under that name.
func WithScopedBuckets() RegistryOption {
	return func(r *StateRegistry) {
		r.scoped = true
	}
}

// NewStateRegistry creates an empty registry. No group has a value until Set is called.
func NewStateRegistry(opts ...RegistryOption) *StateRegistry {
	r := &StateRegistry{
		values: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set overwrites the active state of a group.
func (r *StateRegistry) Set(group, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[group] = state
}

// Get returns the active state of a group and whether it was ever set.
func (r *StateRegistry) Get(group string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.values[group]
	return state, ok
}

// Groups returns the groups that currently hold a value, sorted.
func (r *StateRegistry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]string, 0, len(r.values))
	for g := range r.values {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Snapshot returns a copy of every group value.
func (r *StateRegistry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Reset clears every group value.
func (r *StateRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = make(map[string]string)
}

// Scoped reports whether buckets are keyed by group and state.
func (r *StateRegistry) Scoped() bool {
	return r.scoped
}

// BucketKey returns the edge bucket used for a state of a group.
func (r *StateRegistry) BucketKey(group, state string) string {
	if r.scoped {
		return group + ":" + state
	}
	return state
}

// Constraint restricts an edge to one state of one group.
// The zero value is unconditional.
type Constraint struct {
	Group string
	State string
}

// Always is the unconditional constraint.
var Always = Constraint{}

// When builds a constraint for the given group and state.
func When(group, state string) Constraint {
	return Constraint{Group: group, State: state}
}

// IsZero reports whether the constraint is unconditional.
func (c Constraint) IsZero() bool {
	return c.Group == "" && c.State == ""
}

func (c Constraint) String() string {
	if c.IsZero() {
		return Consistent
	}
	return c.Group + ":" + c.State
}

// ParseConstraint parses "group:state". Surrounding whitespace is ignored.
func ParseConstraint(s string) (Constraint, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Constraint{}, fmt.Errorf("invalid constraint %q: expected group:state", s)
	}
	group, state := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if group == "" || state == "" {
		return Constraint{}, fmt.Errorf("invalid constraint %q: group and state must not be empty", s)
	}
	return When(group, state), nil
}
