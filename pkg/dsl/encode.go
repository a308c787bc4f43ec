package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
)

const (
	beginGenerated = "# <Auto-generated %s>"
	endGenerated   = "# </Auto-generated segment>"
)

// Port binds a source segment to a selector valve port.
type Port struct {
	Source string
	Port   int
}

// EncodeSelectorValve writes the description of sources feeding a syringe
// through a selector valve. Tubing segments are named after the lowercased
// elements they join. Each source reaches the syringe in its "refill_<port>"
// state and the syringe drives into outlet in the "drive" state:
//
//	Bottle_1 > bottle_1_sel > sel_syr | sel:refill_2
//	sel_syr > Syr | sel:refill_2
//	Syr > sel_syr > sel_system || sel:drive
//
// Every line is prefixed with prefix.
func EncodeSelectorValve(sources []Port, selector, syringe, outlet, prefix string) string {
	sel := strings.ToLower(selector)
	selToSyr := sel + "_" + strings.ToLower(syringe)

	lines := []string{"", fmt.Sprintf(beginGenerated, "segment for selector valve inputs")}
	var refills []string
	seen := make(map[string]bool)
	for _, src := range sources {
		tubing := strings.ToLower(src.Source) + "_" + sel
		refill := fmt.Sprintf("%s:refill_%d", sel, src.Port)
		lines = append(lines, fmt.Sprintf("%s%s%s%s%s%s%s", src.Source, tokenConnect, tubing, tokenConnect, selToSyr, tokenLast, refill))
		if !seen[refill] {
			seen[refill] = true
			refills = append(refills, refill)
		}
	}
	lines = append(lines,
		selToSyr+tokenConnect+syringe+tokenLast+strings.Join(refills, ", "),
		syringe+tokenConnect+selToSyr+tokenConnect+outlet+tokenAll+sel+":drive",
		endGenerated,
		"",
	)
	return joinPrefixed(lines, prefix)
}

// GenerateHeader writes a declaration block listing every segment of net with
// its volume: sources first, then inner segments, then sinks. Entries wrap
// before a line would exceed width characters. A segment without any
// connection is listed once, among the sources.
func GenerateHeader(net *flow.Network, width int, prefix string) string {
	segments := net.Segments()
	sort.SliceStable(segments, func(i, j int) bool {
		pi, pj := segments[i].HasParents(true), segments[j].HasParents(true)
		if pi != pj {
			return pi > pj
		}
		return segments[i].HasChildren(true) > segments[j].HasChildren(true)
	})

	var inputs, inner, outputs []string
	for _, s := range segments {
		entry := s.Name() + tokenDetail + strconv.FormatFloat(s.Volume(), 'f', -1, 64) + tokenSeparator + " "
		switch {
		case s.HasParents(true) == 0:
			inputs = append(inputs, entry)
		case s.HasChildren(true) == 0:
			outputs = append(outputs, entry)
		default:
			inner = append(inner, entry)
		}
	}

	var sb strings.Builder
	sb.WriteString("\n" + prefix + fmt.Sprintf(beginGenerated, "header segment") + "\n" + prefix)
	current := len(prefix)
	for _, entry := range append(append(inputs, inner...), outputs...) {
		if current+len(entry) > width {
			sb.WriteString("\n" + prefix)
			current = len(prefix)
		}
		sb.WriteString(entry)
		current += len(entry)
	}
	sb.WriteString("\n" + prefix + endGenerated + "\n")
	return sb.String()
}

func joinPrefixed(lines []string, prefix string) string {
	return strings.Join(lines, "\n"+prefix)
}
