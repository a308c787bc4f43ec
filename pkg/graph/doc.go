/*
Package graph implements a directed graph whose connectivity depends on the
discrete state of switching devices.

Every Node keeps its edges in buckets. The Consistent bucket holds edges that
always apply; every other bucket is keyed by a state name and only applies while
one of the node's state groups is set to that state in the shared StateRegistry.

	reg := graph.NewStateRegistry()
	a := graph.NewNode(reg, "a")
	b := graph.NewNode(reg, "b")
	c := graph.NewNode(reg, "c")

	a.Connect(graph.Down, graph.When("valve", "left"), b)
	a.Connect(graph.Down, graph.When("valve", "right"), c)

	reg.Set("valve", "left")
	a.HasChildren(false) // 1 (b)
	a.HasChildren(true)  // 2 (b and c)

# Bucket keys

By default a bucket is keyed by the bare state name, so two groups that use the
same state name share a bucket. NewStateRegistry(WithScopedBuckets()) keys
buckets by group and state instead.

# Thread Safety

StateRegistry is safe for concurrent use. Nodes are not: graph construction and
traversal are expected to run on a single goroutine.
*/
package graph
