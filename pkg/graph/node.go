package graph

import (
	"fmt"
	"strings"
)

// Direction selects which relations a connection or a traversal follows.
type Direction int

const (
	// Down follows children.
	Down Direction = -1
	// Both follows children and parents.
	Both Direction = 0
	// Up follows parents.
	Up Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses "down", "up" or "both". An empty string means Down.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "down":
		return Down, nil
	case "up":
		return Up, nil
	case "both":
		return Both, nil
	}
	return Down, fmt.Errorf("unknown direction %q", s)
}

// Node is a graph vertex carrying a payload and state-dependent edges.
type Node[T any] struct {
	data     T
	registry *StateRegistry

	buckets map[string]*EdgeSet[T]
	order   []string // bucket keys in creation order, Consistent first

	groups   []string
	groupSet map[string]struct{}
}

// NewNode creates a node bound to a state registry. A nil registry gets a private one.
func NewNode[T any](registry *StateRegistry, data T) *Node[T] {
	if registry == nil {
		registry = NewStateRegistry()
	}
	return &Node[T]{
		data:     data,
		registry: registry,
		buckets:  map[string]*EdgeSet[T]{Consistent: {}},
		order:    []string{Consistent},
		groupSet: make(map[string]struct{}),
	}
}

// Data returns the payload.
func (n *Node[T]) Data() T {
	return n.data
}

// Registry returns the state registry the node resolves against.
func (n *Node[T]) Registry() *StateRegistry {
	return n.registry
}

// SetState sets a group value. The change is visible to every node sharing the registry.
func (n *Node[T]) SetState(group, state string) {
	n.registry.Set(group, state)
}

// StateGroups returns the groups this node was ever connected under, in order of first use.
func (n *Node[T]) StateGroups() []string {
	out := make([]string, len(n.groups))
	copy(out, n.groups)
	return out
}

// Buckets returns the keys of the node's edge buckets, Consistent first.
func (n *Node[T]) Buckets() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Bucket returns a copy of the edges stored under key.
func (n *Node[T]) Bucket(key string) (EdgeSet[T], bool) {
	b, ok := n.buckets[key]
	if !ok {
		return EdgeSet[T]{}, false
	}
	return b.Union(EdgeSet[T]{}), true
}

func (n *Node[T]) bucket(key string) *EdgeSet[T] {
	b, ok := n.buckets[key]
	if !ok {
		b = &EdgeSet[T]{}
		n.buckets[key] = b
		n.order = append(n.order, key)
	}
	return b
}

func (n *Node[T]) associate(when Constraint) {
	if when.IsZero() {
		return
	}
	if _, ok := n.groupSet[when.Group]; ok {
		return
	}
	n.groupSet[when.Group] = struct{}{}
	n.groups = append(n.groups, when.Group)
}

func (n *Node[T]) addChild(child *Node[T], when Constraint, key string) {
	n.associate(when)
	n.bucket(key).Children.add(child)
}

func (n *Node[T]) addParent(parent *Node[T], when Constraint, key string) {
	n.associate(when)
	n.bucket(key).Parents.add(parent)
}

// Connect links n to each target and returns n.
//
// With Down every target becomes a child of n, with Up a parent, with Both both.
// An unconditional constraint stores the edge in the Consistent bucket; otherwise
// the edge goes to the bucket of the constraint's state and the group is associated
// with both endpoints.
//
// Connect panics if a target resolves against a different registry.
func (n *Node[T]) Connect(dir Direction, when Constraint, targets ...*Node[T]) *Node[T] {
	key := Consistent
	if !when.IsZero() {
		key = n.registry.BucketKey(when.Group, when.State)
	}
	for _, target := range targets {
		if target.registry != n.registry {
			panic("graph: cannot connect nodes bound to different state registries")
		}
		if dir <= 0 {
			n.addChild(target, when, key)
			target.addParent(n, when, key)
		}
		if dir >= 0 {
			n.addParent(target, when, key)
			target.addChild(n, when, key)
		}
	}
	return n
}

// Connections returns the edges of the node.
//
// With ignoreState every bucket is merged. Otherwise the result is the Consistent
// bucket plus, for every group associated with the node, the bucket of the group's
// current state. Groups without a value contribute nothing.
func (n *Node[T]) Connections(ignoreState bool) EdgeSet[T] {
	out := n.buckets[Consistent].Union(EdgeSet[T]{})
	if ignoreState {
		for _, key := range n.order[1:] {
			out = out.Union(*n.buckets[key])
		}
		return out
	}
	for _, group := range n.groups {
		state, ok := n.registry.Get(group)
		if !ok {
			continue
		}
		if b, ok := n.buckets[n.registry.BucketKey(group, state)]; ok {
			out = out.Union(*b)
		}
	}
	return out
}

// HasChildren returns the number of resolved children.
func (n *Node[T]) HasChildren(ignoreState bool) int {
	return n.Connections(ignoreState).Children.Len()
}

// HasParents returns the number of resolved parents.
func (n *Node[T]) HasParents(ignoreState bool) int {
	return n.Connections(ignoreState).Parents.Len()
}

// Summary reports the payload, the resolved child and parent counts and the
// values of the node's state groups.
func (n *Node[T]) Summary(ignoreState bool) string {
	conns := n.Connections(ignoreState)
	states := make([]string, 0, len(n.groups))
	for _, group := range n.groups {
		if state, ok := n.registry.Get(group); ok {
			states = append(states, group+":"+state)
		}
	}
	return fmt.Sprintf("%v (%d children and %d parents; %s)",
		n.data, conns.Children.Len(), conns.Parents.Len(), strings.Join(states, ", "))
}
