package flow

import (
	"time"

	"github.com/aretw0/flowpath/pkg/graph"
)

// uniqueRoute finds the single path from s to target.
// found is false when no path exists; more than one path is an *AmbiguousPathError.
func (s *Segment) uniqueRoute(target string, dir graph.Direction) (route Route, found bool, err error) {
	routes := s.Traverse(NameIs(target), dir, false)
	switch len(routes) {
	case 0:
		return Route{}, false, nil
	case 1:
		return routes[0], true, nil
	}
	return Route{}, false, newAmbiguousPathError(s.name, target, routes)
}

// VolumeTo returns the volume between s and the named target: the volumes along
// the single path, including s and excluding the target.
// found is false when the target cannot be reached under the current states.
func (s *Segment) VolumeTo(target string, dir graph.Direction) (volume float64, found bool, err error) {
	start := time.Now()
	volume, found, err = s.volumeTo(target, dir)
	s.net.emitQuery(QueryEvent{Kind: "volume", From: s.name, To: target, Found: found, Err: err, Duration: time.Since(start)})
	return volume, found, err
}

func (s *Segment) volumeTo(target string, dir graph.Direction) (float64, bool, error) {
	route, found, err := s.uniqueRoute(target, dir)
	if err != nil || !found {
		return 0, false, err
	}
	return route.Volume(), true, nil
}

// DurationTo returns the time fluid needs to travel from s to the named target at
// the current flow rates. Rates are only non-zero during a propagation, so callers
// normally use TimeFrom instead.
func (s *Segment) DurationTo(target string, dir graph.Direction) (duration Minutes, found bool, err error) {
	start := time.Now()
	duration, found, err = s.durationTo(target, dir)
	s.net.emitQuery(QueryEvent{Kind: "duration", From: s.name, To: target, Found: found, Err: err, Duration: time.Since(start)})
	return duration, found, err
}

func (s *Segment) durationTo(target string, dir graph.Direction) (Minutes, bool, error) {
	route, found, err := s.uniqueRoute(target, dir)
	if err != nil || !found {
		return 0, false, err
	}
	var total Minutes
	for _, seg := range route.Path {
		total += seg.Duration()
	}
	return total - route.Match.Duration(), true, nil
}

// VolumeTo is Segment.VolumeTo addressed by name. An unknown origin is reported as not found.
func (n *Network) VolumeTo(from, to string, dir graph.Direction) (float64, bool, error) {
	s, ok := n.Lookup(from)
	if !ok {
		n.emitQuery(QueryEvent{Kind: "volume", From: from, To: to})
		return 0, false, nil
	}
	return s.VolumeTo(to, dir)
}

// Routes returns every path from the named segment matching cond.
// An unknown origin yields no routes.
func (n *Network) Routes(from string, cond func(*Segment) bool, dir graph.Direction, ignoreState bool) []Route {
	s, ok := n.Lookup(from)
	if !ok {
		return nil
	}
	return s.Traverse(cond, dir, ignoreState)
}
