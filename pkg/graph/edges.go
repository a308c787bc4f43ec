package graph

// NodeSet is an insertion-ordered set of node references.
// The set does not own the nodes it references.
type NodeSet[T any] struct {
	items []*Node[T]
	index map[*Node[T]]struct{}
}

func (s *NodeSet[T]) add(n *Node[T]) {
	if s.index == nil {
		s.index = make(map[*Node[T]]struct{})
	}
	if _, ok := s.index[n]; ok {
		return
	}
	s.index[n] = struct{}{}
	s.items = append(s.items, n)
}

// Len returns the number of nodes in the set.
func (s NodeSet[T]) Len() int {
	return len(s.items)
}

// Has reports whether n is in the set.
func (s NodeSet[T]) Has(n *Node[T]) bool {
	_, ok := s.index[n]
	return ok
}

// Items returns the nodes in insertion order.
func (s NodeSet[T]) Items() []*Node[T] {
	out := make([]*Node[T], len(s.items))
	copy(out, s.items)
	return out
}

// Union returns a new set with the nodes of s followed by the nodes of other not already in s.
func (s NodeSet[T]) Union(other NodeSet[T]) NodeSet[T] {
	var out NodeSet[T]
	for _, n := range s.items {
		out.add(n)
	}
	for _, n := range other.items {
		out.add(n)
	}
	return out
}

// EdgeSet holds the outbound (Children) and inbound (Parents) references of one bucket.
type EdgeSet[T any] struct {
	Children NodeSet[T]
	Parents  NodeSet[T]
}

// Union combines two edge sets side by side.
func (e EdgeSet[T]) Union(other EdgeSet[T]) EdgeSet[T] {
	return EdgeSet[T]{
		Children: e.Children.Union(other.Children),
		Parents:  e.Parents.Union(other.Parents),
	}
}
