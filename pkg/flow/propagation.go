package flow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/flowpath/pkg/graph"
)

// DefaultCriticalRatio is the inlet flow-rate ratio above which a junction is unstable.
const DefaultCriticalRatio = 10.0

// StabilityReport is the result of a flow stability check.
type StabilityReport struct {
	// Unstable lists, sorted, the segments whose inlet ratio exceeds the critical ratio.
	Unstable []string
	// WorstRatio is the largest inlet ratio seen, 0 when no segment has two positive inlets.
	WorstRatio float64
	// Junctions maps every segment with at least two positive inlets to its ratio.
	Junctions map[string]float64
}

// propagation holds the sources that reach the target and their paths.
type propagation struct {
	target     string
	sources    []*Segment
	routes     []Route
	iterations int
}

// propagate seeds the named sources with their rates and iterates the rates of
// every segment between them and target until they stop changing.
//
// Scratch rates stay in place for the caller to read; callers must hold n.mu and
// reset the rates when done.
func (n *Network) propagate(target string, rates map[string]float64) (p *propagation, err error) {
	p = &propagation{target: target}
	defer func() {
		n.emitPropagation(PropagationEvent{Target: target, Sources: len(p.sources), Iterations: p.iterations, Err: err})
	}()

	if _, ok := n.Lookup(target); !ok {
		return p, fmt.Errorf("%w: %q", ErrSegmentNotFound, target)
	}

	n.resetFlowRates()

	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if src, ok := n.Lookup(name); ok {
			src.rate = rates[name]
		} else {
			n.logger.Debug("unknown source ignored", "source", name)
		}
	}

	var intermediates []*Segment
	seen := make(map[*Segment]bool)
	for _, name := range names {
		src, ok := n.Lookup(name)
		if !ok {
			continue
		}
		route, found, err := src.uniqueRoute(target, graph.Down)
		if err != nil {
			return p, err
		}
		if !found {
			continue
		}
		p.sources = append(p.sources, src)
		p.routes = append(p.routes, route)
		for _, seg := range route.Path {
			if _, isSource := rates[seg.name]; isSource || seg.name == target || seen[seg] {
				continue
			}
			seen[seg] = true
			intermediates = append(intermediates, seg)
		}
	}

	for {
		changed := false
		for _, seg := range intermediates {
			var sum float64
			for _, parent := range seg.Parents(false) {
				sum += parent.rate
			}
			if sum != seg.rate {
				seg.rate = sum
				changed = true
			}
		}
		p.iterations++
		if !changed {
			return p, nil
		}
		if p.iterations >= n.iterationLimit {
			return p, &NonConvergenceError{Target: target, Iterations: p.iterations}
		}
	}
}

// TimeFrom returns how long after the named sources start flowing at the given
// rates the new condition reaches s: the slowest valid source decides.
// Sources that cannot reach s are ignored; with none the result is 0.
func (s *Segment) TimeFrom(rates map[string]float64) (Minutes, bool, error) {
	return s.net.TimeFrom(s.name, rates)
}

// TimeFrom is Segment.TimeFrom addressed by name. An unknown target is reported as not found.
func (n *Network) TimeFrom(at string, rates map[string]float64) (longest Minutes, found bool, err error) {
	start := time.Now()
	defer func() {
		n.emitQuery(QueryEvent{Kind: "time", To: at, Found: found, Err: err, Duration: time.Since(start)})
	}()

	n.mu.Lock()
	defer n.mu.Unlock()
	defer n.resetFlowRates()

	p, err := n.propagate(at, rates)
	if errors.Is(err, ErrSegmentNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	for _, src := range p.sources {
		d, ok, err := src.durationTo(at, graph.Down)
		if err != nil {
			return 0, false, err
		}
		if ok && d > longest {
			longest = d
		}
	}
	return longest, true, nil
}

// CheckFlowStabilityFrom propagates the named source rates to s and inspects
// every segment on the propagated paths: for segments fed by two or more parents
// with a positive rate, the ratio between the largest and smallest inlet rate is
// compared against critical.
func (s *Segment) CheckFlowStabilityFrom(critical float64, rates map[string]float64) (StabilityReport, bool, error) {
	return s.net.CheckFlowStabilityFrom(s.name, critical, rates)
}

// CheckFlowStabilityFrom is Segment.CheckFlowStabilityFrom addressed by name.
func (n *Network) CheckFlowStabilityFrom(at string, critical float64, rates map[string]float64) (report StabilityReport, found bool, err error) {
	start := time.Now()
	defer func() {
		n.emitQuery(QueryEvent{Kind: "stability", To: at, Found: found, Err: err, Duration: time.Since(start)})
	}()

	n.mu.Lock()
	defer n.mu.Unlock()
	defer n.resetFlowRates()

	p, err := n.propagate(at, rates)
	if errors.Is(err, ErrSegmentNotFound) {
		return StabilityReport{}, false, nil
	}
	if err != nil {
		return StabilityReport{}, false, err
	}

	report.Junctions = make(map[string]float64)
	unstable := make(map[string]bool)
	for _, route := range p.routes {
		for _, seg := range route.Path {
			var lo, hi float64
			inlets := 0
			for _, parent := range seg.Parents(false) {
				if parent.rate <= 0 {
					continue
				}
				if inlets == 0 || parent.rate < lo {
					lo = parent.rate
				}
				if inlets == 0 || parent.rate > hi {
					hi = parent.rate
				}
				inlets++
			}
			if inlets < 2 {
				continue
			}
			ratio := hi / lo
			report.Junctions[seg.name] = ratio
			if ratio > report.WorstRatio {
				report.WorstRatio = ratio
			}
			if ratio > critical {
				unstable[seg.name] = true
			}
		}
	}

	report.Unstable = make([]string, 0, len(unstable))
	for name := range unstable {
		report.Unstable = append(report.Unstable, name)
	}
	sort.Strings(report.Unstable)
	return report, true, nil
}

// FlowRates returns the converged rate of every segment reached by the propagation
// from the named sources to at, including the sources themselves.
func (n *Network) FlowRates(at string, rates map[string]float64) (snapshot map[string]float64, err error) {
	start := time.Now()
	defer func() {
		n.emitQuery(QueryEvent{Kind: "rates", To: at, Found: err == nil, Err: err, Duration: time.Since(start)})
	}()

	n.mu.Lock()
	defer n.mu.Unlock()
	defer n.resetFlowRates()

	p, err := n.propagate(at, rates)
	if err != nil {
		return nil, err
	}

	snapshot = make(map[string]float64)
	for _, route := range p.routes {
		for _, seg := range route.Path {
			snapshot[seg.name] = seg.rate
		}
	}
	// The target is not iterated; report what its parents deliver.
	if _, isSource := rates[at]; !isSource && len(p.routes) > 0 {
		target, _ := n.Lookup(at)
		var inflow float64
		for _, parent := range target.Parents(false) {
			inflow += parent.rate
		}
		snapshot[at] = inflow
	}
	return snapshot, nil
}
