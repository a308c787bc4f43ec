package dsl

import (
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

// SegmentBuilder provides a fluent API for configuring a segment.
type SegmentBuilder struct {
	segment *flow.Segment
	builder *Builder
}

// Volume sets the internal volume unless one was already declared.
func (s *SegmentBuilder) Volume(v float64) *SegmentBuilder {
	s.builder.net.Declare(s.segment.Name(), v)
	return s
}

// To makes target a child of the segment. Without constraints the edge is
// unconditional; otherwise one edge is added per constraint.
func (s *SegmentBuilder) To(target string, when ...graph.Constraint) *SegmentBuilder {
	return s.link(graph.Down, target, when)
}

// From makes source a parent of the segment.
func (s *SegmentBuilder) From(source string, when ...graph.Constraint) *SegmentBuilder {
	return s.link(graph.Up, source, when)
}

// Both connects the segment and other in both directions.
func (s *SegmentBuilder) Both(other string, when ...graph.Constraint) *SegmentBuilder {
	return s.link(graph.Both, other, when)
}

func (s *SegmentBuilder) link(dir graph.Direction, name string, when []graph.Constraint) *SegmentBuilder {
	target := s.builder.Add(name).segment
	if len(when) == 0 {
		s.segment.Connect(dir, graph.Always, target)
		return s
	}
	for _, c := range when {
		s.segment.Connect(dir, c, target)
	}
	return s
}

// Segment returns the underlying segment.
func (s *SegmentBuilder) Segment() *flow.Segment {
	return s.segment
}
