package dsl

import (
	"testing"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_FluentAPI(t *testing.T) {
	b := New()
	b.Add("Bottle_1").Volume(0).To("b1_to_sel")
	b.Add("b1_to_sel").Volume(150).To("sel_to_syr", graph.When("selector", "refill_1"))
	b.Add("sel_to_syr").Volume(125)
	b.Add("Syringe").Volume(50).From("sel_to_syr", graph.When("selector", "refill_1"))

	net, assumed := b.Build()
	require.Empty(t, assumed)

	net.SetState("selector", "refill_1")
	v, found, err := net.VolumeTo("Bottle_1", "Syringe", graph.Down)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 275.0, v)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New()
	first := b.Add("A").Volume(1)
	second := b.Add("A").Volume(2)

	assert.Same(t, first, second)
	assert.Equal(t, 1.0, second.Segment().Volume())
}

func TestBuilder_BothAndMultipleConstraints(t *testing.T) {
	b := New()
	b.Add("a").Both("b", graph.When("g", "x"), graph.When("g", "y"))
	net, assumed := b.Build()

	assert.ElementsMatch(t, []string{"a", "b"}, assumed)
	a := b.Add("a").Segment()
	assert.Zero(t, a.HasChildren(false))

	net.SetState("g", "y")
	assert.Equal(t, 1, a.HasChildren(false))
	assert.Equal(t, 1, a.HasParents(false))
}

func TestBuilder_Chain(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		when  []graph.Constraint
		// resolved children of "a" and "b" with the group unset
		unset []int
	}{
		{"unconstrained", ScopeLast, nil, []int{1, 1}},
		{"last link", ScopeLast, []graph.Constraint{graph.When("v", "on")}, []int{1, 0}},
		{"all links", ScopeAll, []graph.Constraint{graph.When("v", "on")}, []int{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Chain([]string{"a", "b", "c"}, tt.scope, tt.when...)
			net := b.Network()

			seg := func(n string) *flow.Segment { return b.Add(n).Segment() }
			assert.Equal(t, tt.unset[0], seg("a").HasChildren(false))
			assert.Equal(t, tt.unset[1], seg("b").HasChildren(false))

			net.SetState("v", "on")
			assert.Equal(t, 1, seg("a").HasChildren(false))
			assert.Equal(t, 1, seg("b").HasChildren(false))
		})
	}
}

func TestInto_ExtendsExistingNetwork(t *testing.T) {
	net := flow.NewNetwork()
	net.Declare("A", 4)

	Into(net).Add("A").To("B")

	a, ok := net.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, 4.0, a.Volume())
	assert.Equal(t, 1, a.HasChildren(false))
}
