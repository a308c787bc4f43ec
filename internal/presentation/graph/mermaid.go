package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
	core "github.com/aretw0/flowpath/pkg/graph"
)

// GraphOverlay contains query results to highlight on the graph.
type GraphOverlay struct {
	Route    []string
	Unstable []string
}

// GenerateMermaid produces a Mermaid flowchart of the network.
// It applies semantic styling:
// - Source: ([Stadium])
// - Sink: [(Cylinder)]
// - Default: [Rectangle]
// Edges active under the current states are solid; the others are dotted and
// labelled with the state they need.
func GenerateMermaid(net *flow.Network, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, seg := range net.Segments() {
		safeID := sanitizeMermaidID(seg.Name())

		opener, closer := "[", "]"
		switch {
		case seg.HasParents(true) == 0:
			opener, closer = "([", "])"
		case seg.HasChildren(true) == 0:
			opener, closer = "[(", ")]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s uL\"%s\n", safeID, opener, escape(seg.Name()),
			strconv.FormatFloat(seg.Volume(), 'f', -1, 64), closer)
	}

	for _, seg := range net.Segments() {
		safeID := sanitizeMermaidID(seg.Name())
		node := seg.Node()
		active := activeBuckets(node)
		for _, key := range node.Buckets() {
			edges, _ := node.Bucket(key)
			for _, child := range edges.Children.Items() {
				safeTo := sanitizeMermaidID(child.Data().Name())
				var arrow string
				switch {
				case key == core.Consistent:
					arrow = "-->"
				case active[key]:
					arrow = fmt.Sprintf("-- \"%s\" -->", escape(key))
				default:
					arrow = fmt.Sprintf("-. \"%s\" .->", escape(key))
				}
				fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef route fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef unstable fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Route {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s route;\n", safeID)
			}
		}
		for _, name := range overlay.Unstable {
			fmt.Fprintf(&sb, "    class %s unstable;\n", sanitizeMermaidID(name))
		}
	}

	return sb.String()
}

// activeBuckets returns the bucket keys the node resolves under the current states.
func activeBuckets(node *core.Node[*flow.Segment]) map[string]bool {
	reg := node.Registry()
	active := make(map[string]bool)
	for _, group := range node.StateGroups() {
		if state, ok := reg.Get(group); ok {
			active[reg.BucketKey(group, state)] = true
		}
	}
	return active
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
