package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*Node[string]) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Data())
	}
	return out
}

func TestConnect_DownMirrorsUp(t *testing.T) {
	reg := NewStateRegistry()
	a1, b1 := NewNode(reg, "a"), NewNode(reg, "b")
	a2, b2 := NewNode(reg, "a"), NewNode(reg, "b")

	a1.Connect(Down, Always, b1)
	b2.Connect(Up, Always, a2)

	for _, pair := range [][2]*Node[string]{{a1, b1}, {a2, b2}} {
		a, b := pair[0], pair[1]
		assert.Equal(t, []string{"b"}, names(a.Connections(false).Children.Items()))
		assert.Empty(t, a.Connections(false).Parents.Items())
		assert.Equal(t, []string{"a"}, names(b.Connections(false).Parents.Items()))
		assert.Empty(t, b.Connections(false).Children.Items())
	}
}

func TestConnect_BothIsMutual(t *testing.T) {
	reg := NewStateRegistry()
	a, b := NewNode(reg, "a"), NewNode(reg, "b")

	a.Connect(Both, When("valve", "open"), b)

	for _, n := range []*Node[string]{a, b} {
		bucket, ok := n.Bucket("open")
		require.True(t, ok)
		assert.Equal(t, 1, bucket.Children.Len())
		assert.Equal(t, 1, bucket.Parents.Len())
		assert.Equal(t, []string{"valve"}, n.StateGroups())
	}
	ab, _ := a.Bucket("open")
	assert.True(t, ab.Children.Has(b))
	assert.True(t, ab.Parents.Has(b))
}

func TestConnect_ReturnsSelfForChaining(t *testing.T) {
	reg := NewStateRegistry()
	a, b, c := NewNode(reg, "a"), NewNode(reg, "b"), NewNode(reg, "c")

	got := a.Connect(Down, Always, b).Connect(Down, Always, c)

	assert.Same(t, a, got)
	assert.Equal(t, []string{"b", "c"}, names(a.Connections(false).Children.Items()))
}

func TestConnect_UnconditionalDoesNotAssociateGroup(t *testing.T) {
	reg := NewStateRegistry()
	a, b := NewNode(reg, "a"), NewNode(reg, "b")

	a.Connect(Down, Always, b)

	assert.Empty(t, a.StateGroups())
	assert.Equal(t, []string{Consistent}, a.Buckets())
}

func TestConnect_DifferentRegistriesPanics(t *testing.T) {
	a := NewNode(NewStateRegistry(), "a")
	b := NewNode(NewStateRegistry(), "b")

	assert.Panics(t, func() { a.Connect(Down, Always, b) })
}

func TestConnections_ResolvesCurrentState(t *testing.T) {
	reg := NewStateRegistry()
	a, b, c := NewNode(reg, "a"), NewNode(reg, "b"), NewNode(reg, "c")
	a.Connect(Down, When("selector", "left"), b)
	a.Connect(Down, When("selector", "right"), c)

	t.Run("unset group contributes nothing", func(t *testing.T) {
		assert.Equal(t, 0, a.HasChildren(false))
		assert.Equal(t, 2, a.HasChildren(true))
	})

	t.Run("set group selects its bucket", func(t *testing.T) {
		reg.Set("selector", "left")
		assert.Equal(t, []string{"b"}, names(a.Connections(false).Children.Items()))
	})

	t.Run("changing the value is reflected immediately", func(t *testing.T) {
		b.SetState("selector", "right")
		assert.Equal(t, []string{"c"}, names(a.Connections(false).Children.Items()))
		assert.Equal(t, 0, b.HasParents(false))
		assert.Equal(t, 1, c.HasParents(false))
	})

	t.Run("unknown state has no bucket", func(t *testing.T) {
		reg.Set("selector", "closed")
		assert.Equal(t, 0, a.HasChildren(false))
	})
}

func TestConnections_ResolvedIsSubsetOfFull(t *testing.T) {
	reg := NewStateRegistry()
	nodes := map[string]*Node[string]{}
	for _, name := range []string{"a", "b", "c", "d"} {
		nodes[name] = NewNode(reg, name)
	}
	nodes["a"].Connect(Down, Always, nodes["b"])
	nodes["a"].Connect(Down, When("v", "x"), nodes["c"])
	nodes["c"].Connect(Both, When("w", "y"), nodes["d"])
	nodes["d"].Connect(Up, When("v", "z"), nodes["a"])

	states := []map[string]string{
		{},
		{"v": "x"},
		{"v": "z", "w": "y"},
		{"v": "x", "w": "none"},
	}
	for _, st := range states {
		reg.Reset()
		for g, s := range st {
			reg.Set(g, s)
		}
		for _, n := range nodes {
			full := n.Connections(true)
			for _, child := range n.Connections(false).Children.Items() {
				assert.True(t, full.Children.Has(child))
			}
			for _, parent := range n.Connections(false).Parents.Items() {
				assert.True(t, full.Parents.Has(parent))
			}
		}
	}
}

func TestConnections_SharedStateNameSharesBucket(t *testing.T) {
	reg := NewStateRegistry()
	a, b, c := NewNode(reg, "a"), NewNode(reg, "b"), NewNode(reg, "c")
	a.Connect(Down, When("valve_1", "open"), b)
	a.Connect(Down, When("valve_2", "open"), c)

	reg.Set("valve_1", "open")
	reg.Set("valve_2", "closed")

	// Both edges live in the "open" bucket, so valve_1 alone enables both.
	assert.Equal(t, 2, a.HasChildren(false))
	assert.Equal(t, []string{"consistent", "open"}, a.Buckets())
}

func TestConnections_ScopedBucketsIsolateGroups(t *testing.T) {
	reg := NewStateRegistry(WithScopedBuckets())
	a, b, c := NewNode(reg, "a"), NewNode(reg, "b"), NewNode(reg, "c")
	a.Connect(Down, When("valve_1", "open"), b)
	a.Connect(Down, When("valve_2", "open"), c)

	reg.Set("valve_1", "open")
	reg.Set("valve_2", "closed")

	assert.Equal(t, []string{"b"}, names(a.Connections(false).Children.Items()))
	assert.Equal(t, []string{"consistent", "valve_1:open", "valve_2:open"}, a.Buckets())
}

func TestSummary(t *testing.T) {
	reg := NewStateRegistry()
	a, b, c := NewNode(reg, "a"), NewNode(reg, "b"), NewNode(reg, "c")
	a.Connect(Down, Always, b)
	c.Connect(Down, When("sel", "on"), a)
	reg.Set("sel", "on")

	assert.Equal(t, "a (1 children and 1 parents; sel:on)", a.Summary(false))
	assert.Equal(t, "b (0 children and 1 parents; )", b.Summary(false))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "", want: Down},
		{in: "down", want: Down},
		{in: "UP", want: Up},
		{in: " both ", want: Both},
		{in: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Direction {
	t.Helper()
	d, err := ParseDirection(s)
	require.NoError(t, err)
	return d
}

func TestParseConstraint(t *testing.T) {
	c, err := ParseConstraint(" selector : refill_1 ")
	require.NoError(t, err)
	assert.Equal(t, When("selector", "refill_1"), c)
	assert.Equal(t, "selector:refill_1", c.String())

	for _, bad := range []string{"selector", "a:b:c", ":x", "x:"} {
		_, err := ParseConstraint(bad)
		assert.Error(t, err, bad)
	}
}
