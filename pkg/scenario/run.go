package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

// Result is the answer to one query. Err is set when the query failed;
// other queries still run.
type Result struct {
	Query  Query
	Found  bool
	Value  float64
	Unit   string
	Routes []string
	Report *flow.StabilityReport
	Rates  map[string]float64
	Err    error
}

// Summary renders the result on one line.
func (r Result) Summary() string {
	switch {
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case !r.Found:
		return "not found"
	case r.Report != nil:
		if len(r.Report.Unstable) == 0 {
			return fmt.Sprintf("stable (worst ratio %.2f:1)", r.Report.WorstRatio)
		}
		return fmt.Sprintf("unstable at %s (worst ratio %.2f:1)", strings.Join(r.Report.Unstable, ", "), r.Report.WorstRatio)
	case r.Query.Kind == KindRoutes:
		return fmt.Sprintf("%d route(s)", len(r.Routes))
	case r.Rates != nil:
		names := make([]string, 0, len(r.Rates))
		for name := range r.Rates {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s=%g", name, r.Rates[name])
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%.4g %s", r.Value, r.Unit)
}

// Apply sets the scenario states on the network.
func (s *Scenario) Apply(net *flow.Network) {
	applyStates(net, s.States)
}

func applyStates(net *flow.Network, states map[string]string) {
	groups := make([]string, 0, len(states))
	for g := range states {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		net.SetState(g, states[g])
	}
}

// Run applies the scenario states and answers every query in order.
// Query-level states are applied before their query and persist afterwards.
func (s *Scenario) Run(net *flow.Network) []Result {
	s.Apply(net)
	critical := s.CriticalRatio
	if critical == 0 {
		critical = flow.DefaultCriticalRatio
	}

	results := make([]Result, 0, len(s.Queries))
	for _, q := range s.Queries {
		applyStates(net, q.States)
		results = append(results, s.run(net, q, critical))
	}
	return results
}

func (s *Scenario) run(net *flow.Network, q Query, critical float64) Result {
	res := Result{Query: q}
	dir, err := graph.ParseDirection(q.Direction)
	if err != nil {
		res.Err = err
		return res
	}

	switch q.Kind {
	case KindVolume:
		res.Unit = "uL"
		res.Value, res.Found, res.Err = net.VolumeTo(q.From, q.To, dir)
	case KindDuration:
		res.Unit = "min"
		seg, ok := net.Lookup(q.From)
		if !ok {
			return res
		}
		var d flow.Minutes
		d, res.Found, res.Err = seg.DurationTo(q.To, dir)
		res.Value = float64(d)
	case KindTime:
		res.Unit = "min"
		var d flow.Minutes
		d, res.Found, res.Err = net.TimeFrom(q.At, s.Rates)
		res.Value = float64(d)
	case KindStability:
		var report flow.StabilityReport
		report, res.Found, res.Err = net.CheckFlowStabilityFrom(q.At, critical, s.Rates)
		if res.Err == nil && res.Found {
			res.Report = &report
			res.Value = report.WorstRatio
		}
	case KindRates:
		res.Unit = "uL/min"
		res.Rates, res.Err = net.FlowRates(q.At, s.Rates)
		res.Found = res.Err == nil
		if errors.Is(res.Err, flow.ErrSegmentNotFound) {
			res.Err = nil
		}
	case KindRoutes:
		var cond func(*flow.Segment) bool
		if q.To != "" {
			cond = flow.NameIs(q.To)
		} else if q.Match != "" {
			cond = flow.NameContains(q.Match)
		}
		for _, r := range net.Routes(q.From, cond, dir, false) {
			if dir == graph.Up {
				r = r.Reversed()
			}
			res.Routes = append(res.Routes, r.String())
		}
		_, res.Found = net.Lookup(q.From)
	}
	return res
}
