package graph

// Condition decides whether a node visited during a traversal is a match.
type Condition[T any] func(*Node[T]) bool

// Match is a node satisfying a Condition and the path that led to it.
// Path starts at the traversal origin and ends at Node.
type Match[T any] struct {
	Node *Node[T]
	Path []*Node[T]
}

// Leaf matches nodes without resolved children (Down, Both) or parents (Up).
func Leaf[T any](dir Direction, ignoreState bool) Condition[T] {
	if dir == Up {
		return func(n *Node[T]) bool { return n.HasParents(ignoreState) == 0 }
	}
	return func(n *Node[T]) bool { return n.HasChildren(ignoreState) == 0 }
}

// Traverse searches depth first from n for nodes satisfying cond.
//
// A node never appears twice on the same path, so cycles terminate, but distinct
// branches may reach the same node. A match does not stop the search: the
// neighbors of a matching node are explored as well. A nil cond matches leaves.
// Matches are returned in discovery order.
func (n *Node[T]) Traverse(cond Condition[T], dir Direction, ignoreState bool) []Match[T] {
	if cond == nil {
		cond = Leaf[T](dir, ignoreState)
	}
	w := &walker[T]{
		cond:        cond,
		dir:         dir,
		ignoreState: ignoreState,
		visited:     make(map[*Node[T]]struct{}),
	}
	w.visit(n)
	return w.matches
}

type walker[T any] struct {
	cond        Condition[T]
	dir         Direction
	ignoreState bool

	visited map[*Node[T]]struct{}
	path    []*Node[T]
	matches []Match[T]
}

func (w *walker[T]) space(n *Node[T]) []*Node[T] {
	conns := n.Connections(w.ignoreState)
	var space NodeSet[T]
	if w.dir <= 0 {
		space = space.Union(conns.Children)
	}
	if w.dir >= 0 {
		space = space.Union(conns.Parents)
	}
	return space.items
}

func (w *walker[T]) visit(n *Node[T]) {
	neighbors := w.space(n)

	w.visited[n] = struct{}{}
	w.path = append(w.path, n)

	if w.cond(n) {
		path := make([]*Node[T], len(w.path))
		copy(path, w.path)
		w.matches = append(w.matches, Match[T]{Node: n, Path: path})
	}
	for _, next := range neighbors {
		if _, seen := w.visited[next]; !seen {
			w.visit(next)
		}
	}

	w.path = w.path[:len(w.path)-1]
	delete(w.visited, n)
}
