package dsl

import (
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

// Scope selects which links of a chain a constraint applies to.
type Scope int

const (
	// ScopeLast constrains only the last link of a chain (" | ").
	ScopeLast Scope = iota
	// ScopeAll constrains every link of a chain (" || ").
	ScopeAll
)

// Builder manages the network construction.
type Builder struct {
	net      *flow.Network
	segments map[string]*SegmentBuilder
}

// New creates a builder for a fresh network.
func New(opts ...flow.NetworkOption) *Builder {
	return Into(flow.NewNetwork(opts...))
}

// Into creates a builder that adds to an existing network.
func Into(net *flow.Network) *Builder {
	return &Builder{
		net:      net,
		segments: make(map[string]*SegmentBuilder),
	}
}

// Add returns the builder of the named segment, creating the segment if needed.
func (b *Builder) Add(name string) *SegmentBuilder {
	if sb, ok := b.segments[name]; ok {
		return sb
	}
	sb := &SegmentBuilder{
		segment: b.net.Segment(name),
		builder: b,
	}
	b.segments[name] = sb
	return sb
}

// Chain connects the named segments in order. Without constraints every link is
// unconditional. With constraints, ScopeLast constrains the last link only and
// ScopeAll every link; each constraint adds its own edge.
func (b *Builder) Chain(names []string, scope Scope, when ...graph.Constraint) *Builder {
	return b.ChainDirected(graph.Down, names, scope, when...)
}

// ChainDirected is Chain with every link made in the given direction.
func (b *Builder) ChainDirected(dir graph.Direction, names []string, scope Scope, when ...graph.Constraint) *Builder {
	last := len(names) - 2
	for i := 0; i+1 < len(names); i++ {
		src := b.Add(names[i])
		if len(when) == 0 || (scope == ScopeLast && i != last) {
			src.link(dir, names[i+1], nil)
			continue
		}
		src.link(dir, names[i+1], when)
	}
	return b
}

// Network returns the network under construction.
func (b *Builder) Network() *flow.Network {
	return b.net
}

// Build assigns a volume of 0 to undeclared segments and returns the network
// together with the names of those segments.
func (b *Builder) Build() (*flow.Network, []string) {
	assumed := b.net.Finalize()
	return b.net, assumed
}
