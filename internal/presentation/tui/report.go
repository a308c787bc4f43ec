package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/scenario"
)

// ResultsMarkdown renders scenario results as a markdown table.
func ResultsMarkdown(results []scenario.Result) string {
	var sb strings.Builder
	sb.WriteString("## Results\n\n")
	sb.WriteString("| # | Query | Answer |\n|---|---|---|\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "| %d | %s | %s |\n", i+1, cell(describe(r.Query)), cell(r.Summary()))
	}
	for i, r := range results {
		if len(r.Routes) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n### Routes of query %d\n\n", i+1)
		for _, route := range r.Routes {
			fmt.Fprintf(&sb, "- `%s`\n", route)
		}
	}
	return sb.String()
}

// StabilityMarkdown renders a stability report.
func StabilityMarkdown(at string, critical float64, report flow.StabilityReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Flow stability at %s\n\n", at)
	fmt.Fprintf(&sb, "Worst inlet ratio: **%.2f:1** (critical %.2f:1)\n\n", report.WorstRatio, critical)
	if len(report.Junctions) == 0 {
		sb.WriteString("No junction receives more than one flow.\n")
		return sb.String()
	}
	names := make([]string, 0, len(report.Junctions))
	for name := range report.Junctions {
		names = append(names, name)
	}
	sort.Strings(names)
	sb.WriteString("| Junction | Ratio | Stable |\n|---|---|---|\n")
	for _, name := range names {
		ratio := report.Junctions[name]
		stable := "yes"
		if ratio > critical {
			stable = "**no**"
		}
		fmt.Fprintf(&sb, "| %s | %.2f:1 | %s |\n", cell(name), ratio, stable)
	}
	return sb.String()
}

// SegmentMarkdown renders one segment with its edges per state.
func SegmentMarkdown(seg *flow.Segment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", seg.Name())
	fmt.Fprintf(&sb, "- Volume: %g uL\n", seg.Volume())
	fmt.Fprintf(&sb, "- Resolved: %d children, %d parents\n", seg.HasChildren(false), seg.HasParents(false))
	if groups := seg.Node().StateGroups(); len(groups) > 0 {
		fmt.Fprintf(&sb, "- State groups: %s\n", strings.Join(groups, ", "))
	}
	sb.WriteString("\n```\n")
	sb.WriteString(seg.Describe())
	sb.WriteString("```\n")
	return sb.String()
}

func describe(q scenario.Query) string {
	switch q.Kind {
	case scenario.KindVolume, scenario.KindDuration:
		return fmt.Sprintf("%s %s → %s", q.Kind, q.From, q.To)
	case scenario.KindRoutes:
		target := q.To
		if target == "" {
			target = q.Match
		}
		return strings.TrimSpace(fmt.Sprintf("routes %s %s", q.From, target))
	}
	return fmt.Sprintf("%s at %s", q.Kind, q.At)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
