package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowpath/pkg/graph"
)

// negligibleRate is the flow rate below which a segment is treated as stagnant.
const negligibleRate = 1e-5

// Minutes is a duration expressed as volume over volumetric flow rate
// (for example uL / (uL/min)).
type Minutes float64

// Seconds converts the duration to seconds.
func (m Minutes) Seconds() float64 {
	return float64(m) * 60
}

// Duration converts the duration to a time.Duration.
func (m Minutes) Duration() time.Duration {
	return time.Duration(float64(m) * float64(time.Minute))
}

// Segment is a named flow-carrying element (tube, vessel, device) with an internal volume.
type Segment struct {
	node *graph.Node[*Segment]
	net  *Network

	name      string
	volume    float64
	volumeSet bool

	rate float64 // scratch, only meaningful during a propagation
}

// Name returns the unique name of the segment within its network.
func (s *Segment) Name() string {
	return s.name
}

// Volume returns the internal volume.
func (s *Segment) Volume() float64 {
	return s.volume
}

// HasVolume reports whether a volume was declared or assigned by Finalize.
func (s *Segment) HasVolume() bool {
	return s.volumeSet
}

// FlowRate returns the current scratch flow rate.
// Outside a propagation it is always 0.
func (s *Segment) FlowRate() float64 {
	return s.rate
}

// Duration is the residence time at the current flow rate, 0 when the rate is negligible.
func (s *Segment) Duration() Minutes {
	if s.rate < negligibleRate {
		return 0
	}
	return Minutes(s.volume / s.rate)
}

// Node exposes the underlying stateful node.
func (s *Segment) Node() *graph.Node[*Segment] {
	return s.node
}

// Network returns the network the segment belongs to.
func (s *Segment) Network() *Network {
	return s.net
}

// SetState sets a group value for the whole network.
func (s *Segment) SetState(group, state string) {
	s.net.SetState(group, state)
}

// Connect links s to each target (see graph.Node.Connect) and returns s.
func (s *Segment) Connect(dir graph.Direction, when graph.Constraint, targets ...*Segment) *Segment {
	nodes := make([]*graph.Node[*Segment], len(targets))
	for i, t := range targets {
		nodes[i] = t.node
	}
	s.node.Connect(dir, when, nodes...)
	return s
}

// Connections returns the resolved edges of the segment.
func (s *Segment) Connections(ignoreState bool) graph.EdgeSet[*Segment] {
	return s.node.Connections(ignoreState)
}

// Children returns the resolved children.
func (s *Segment) Children(ignoreState bool) []*Segment {
	return segments(s.node.Connections(ignoreState).Children.Items())
}

// Parents returns the resolved parents.
func (s *Segment) Parents(ignoreState bool) []*Segment {
	return segments(s.node.Connections(ignoreState).Parents.Items())
}

// HasChildren returns the number of resolved children.
func (s *Segment) HasChildren(ignoreState bool) int {
	return s.node.HasChildren(ignoreState)
}

// HasParents returns the number of resolved parents.
func (s *Segment) HasParents(ignoreState bool) int {
	return s.node.HasParents(ignoreState)
}

// Traverse searches from s for segments satisfying cond (see graph.Node.Traverse).
// A nil cond matches leaves.
func (s *Segment) Traverse(cond func(*Segment) bool, dir graph.Direction, ignoreState bool) []Route {
	var c graph.Condition[*Segment]
	if cond != nil {
		c = func(n *graph.Node[*Segment]) bool { return cond(n.Data()) }
	}
	matches := s.node.Traverse(c, dir, ignoreState)
	routes := make([]Route, len(matches))
	for i, m := range matches {
		routes[i] = Route{Match: m.Node.Data(), Path: segments(m.Path)}
	}
	return routes
}

// Summary reports the segment, its resolved child and parent counts and its state groups.
func (s *Segment) Summary(ignoreState bool) string {
	return s.node.Summary(ignoreState)
}

// String renders "name (volume uL)".
func (s *Segment) String() string {
	return fmt.Sprintf("%s (%s uL)", s.name, formatVolume(s.volume))
}

// Describe lists every bucket of the segment with its children and parents.
func (s *Segment) Describe() string {
	var sb strings.Builder
	sb.WriteString(s.String())
	sb.WriteString("\n")
	for _, key := range s.node.Buckets() {
		edges, _ := s.node.Bucket(key)
		if edges.Children.Len() == 0 && edges.Parents.Len() == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  State:%s\n", key)
		if edges.Children.Len() > 0 {
			sb.WriteString("    Children\n")
			for _, c := range edges.Children.Items() {
				fmt.Fprintf(&sb, "      %s\n", c.Data().name)
			}
		}
		if edges.Parents.Len() > 0 {
			sb.WriteString("    Parents\n")
			for _, p := range edges.Parents.Items() {
				fmt.Fprintf(&sb, "      %s\n", p.Data().name)
			}
		}
	}
	return sb.String()
}

func formatVolume(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func segments(nodes []*graph.Node[*Segment]) []*Segment {
	out := make([]*Segment, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data()
	}
	return out
}

// Route is a traversal match and the path leading to it.
type Route struct {
	Match *Segment
	Path  []*Segment
}

// Names returns the names along the path.
func (r Route) Names() []string {
	out := make([]string, len(r.Path))
	for i, s := range r.Path {
		out[i] = s.name
	}
	return out
}

// Volume sums the volumes along the path, excluding the matched segment.
func (r Route) Volume() float64 {
	var total float64
	for _, s := range r.Path {
		total += s.volume
	}
	return total - r.Match.volume
}

// String renders "[a]-->[b]-->[c]".
func (r Route) String() string {
	parts := make([]string, len(r.Path))
	for i, s := range r.Path {
		parts[i] = "[" + s.name + "]"
	}
	return strings.Join(parts, "-->")
}

// Reversed returns the route with its path reversed, which reads in flow order
// for routes found while traversing Up.
func (r Route) Reversed() Route {
	path := make([]*Segment, len(r.Path))
	for i, s := range r.Path {
		path[len(r.Path)-1-i] = s
	}
	return Route{Match: r.Match, Path: path}
}

// NameIs matches the segment with the given name.
func NameIs(name string) func(*Segment) bool {
	return func(s *Segment) bool { return s.name == name }
}

// NameContains matches segments whose name contains sub.
func NameContains(sub string) func(*Segment) bool {
	return func(s *Segment) bool { return strings.Contains(s.name, sub) }
}

// IsSource matches segments without resolved parents.
func IsSource(ignoreState bool) func(*Segment) bool {
	return func(s *Segment) bool { return s.HasParents(ignoreState) == 0 }
}

// IsSink matches segments without resolved children.
func IsSink(ignoreState bool) func(*Segment) bool {
	return func(s *Segment) bool { return s.HasChildren(ignoreState) == 0 }
}
