package flow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSegmentNotFound is returned when a named segment is not part of the network.
	// Path and metric queries report it as an absent result instead.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrAmbiguousPath is returned when more than one path connects two segments
	// where a single path is required.
	ErrAmbiguousPath = errors.New("ambiguous path")

	// ErrNonConvergence is returned when flow-rate propagation does not reach a fixed point.
	ErrNonConvergence = errors.New("flow rates failed to converge")
)

// AmbiguousPathError lists every path found between two segments.
type AmbiguousPathError struct {
	From  string
	To    string
	Paths [][]string
}

func (e *AmbiguousPathError) Error() string {
	rendered := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		rendered[i] = "[" + strings.Join(p, " > ") + "]"
	}
	return fmt.Sprintf("%s: %d paths from %q to %q: %s",
		ErrAmbiguousPath, len(e.Paths), e.From, e.To, strings.Join(rendered, ", "))
}

func (e *AmbiguousPathError) Unwrap() error { return ErrAmbiguousPath }

// NonConvergenceError reports a propagation that exceeded its iteration limit.
// It usually means the active states close a loop along the propagated paths.
type NonConvergenceError struct {
	Target     string
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: target %q after %d iterations", ErrNonConvergence, e.Target, e.Iterations)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }

func newAmbiguousPathError(from, to string, routes []Route) *AmbiguousPathError {
	paths := make([][]string, len(routes))
	for i, r := range routes {
		paths[i] = r.Names()
	}
	return &AmbiguousPathError{From: from, To: to, Paths: paths}
}
