package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

// Severity of an Issue.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Issue is one problem found in a network.
type Issue struct {
	Severity Severity
	Segment  string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Segment, i.Message)
}

// ValidateNetwork checks the network under its current states.
//
// Errors: more than one path between a source and a sink, which makes volume
// and timing queries along that route ambiguous.
// Warnings: segments without any connection, state groups never set, and
// segments no source reaches.
func ValidateNetwork(net *flow.Network) []Issue {
	var issues []Issue
	reached := make(map[string]bool)

	for _, src := range net.Sources() {
		reached[src.Name()] = true
		if src.HasChildren(true) == 0 {
			issues = append(issues, Issue{Warning, src.Name(), "segment has no connections"})
			continue
		}

		bySink := make(map[string][]flow.Route)
		var sinks []string
		for _, route := range src.Traverse(nil, graph.Down, false) {
			name := route.Match.Name()
			if _, ok := bySink[name]; !ok {
				sinks = append(sinks, name)
			}
			bySink[name] = append(bySink[name], route)
			for _, seg := range route.Path {
				reached[seg.Name()] = true
			}
		}
		for _, sink := range sinks {
			routes := bySink[sink]
			if len(routes) < 2 {
				continue
			}
			rendered := make([]string, len(routes))
			for i, r := range routes {
				rendered[i] = r.String()
			}
			issues = append(issues, Issue{Error, src.Name(),
				fmt.Sprintf("%d paths reach %s: %s", len(routes), sink, strings.Join(rendered, ", "))})
		}
	}

	groups := make(map[string]bool)
	for _, seg := range net.Segments() {
		for _, g := range seg.Node().StateGroups() {
			groups[g] = true
		}
		if !reached[seg.Name()] && seg.HasParents(true) > 0 {
			issues = append(issues, Issue{Warning, seg.Name(), "no source reaches this segment under the current states"})
		}
	}

	var unset []string
	for g := range groups {
		if _, ok := net.States().Get(g); !ok {
			unset = append(unset, g)
		}
	}
	sort.Strings(unset)
	for _, g := range unset {
		issues = append(issues, Issue{Warning, g, "state group is never set; its constrained connections are inactive"})
	}
	return issues
}

// Err returns an error listing every error-level issue, or nil.
func Err(issues []Issue) error {
	var errs []string
	for _, i := range issues {
		if i.Severity == Error {
			errs = append(errs, i.Segment+": "+i.Message)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}
