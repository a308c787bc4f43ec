package flow

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowpath/pkg/graph"
	"github.com/google/uuid"
)

// DefaultIterationLimit caps the fixed-point passes of a propagation.
const DefaultIterationLimit = 1000

// QueryEvent describes a finished path or flow query.
type QueryEvent struct {
	Network  string
	Kind     string // "volume", "duration", "time", "stability", "rates"
	From     string
	To       string
	Found    bool
	Err      error
	Duration time.Duration
}

// PropagationEvent describes a finished flow-rate propagation.
type PropagationEvent struct {
	Network    string
	Target     string
	Sources    int
	Iterations int
	Err        error
}

// Hooks receives observability callbacks. Nil fields are ignored.
type Hooks struct {
	OnQuery       func(QueryEvent)
	OnPropagation func(PropagationEvent)
}

// Network is the registry of named segments sharing one state registry.
type Network struct {
	id       string
	registry *graph.StateRegistry
	segments map[string]*Segment
	order    []*Segment

	logger         *slog.Logger
	hooks          Hooks
	iterationLimit int

	// mu serializes propagations, which write the segments' scratch flow rates.
	mu sync.Mutex
}

// NetworkOption configures a Network.
type NetworkOption func(*Network)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) NetworkOption {
	return func(n *Network) {
		n.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) NetworkOption {
	return func(n *Network) {
		n.hooks = hooks
	}
}

// WithStateRegistry makes the network resolve states against reg.
func WithStateRegistry(reg *graph.StateRegistry) NetworkOption {
	return func(n *Network) {
		n.registry = reg
	}
}

// WithIterationLimit overrides DefaultIterationLimit.
func WithIterationLimit(limit int) NetworkOption {
	return func(n *Network) {
		if limit > 0 {
			n.iterationLimit = limit
		}
	}
}

// NewNetwork creates an empty network with its own state registry.
func NewNetwork(opts ...NetworkOption) *Network {
	n := &Network{
		id:             uuid.NewString(),
		segments:       make(map[string]*Segment),
		iterationLimit: DefaultIterationLimit,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.registry == nil {
		n.registry = graph.NewStateRegistry()
	}
	if n.logger == nil {
		n.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	n.logger = n.logger.With("network", n.id)
	return n
}

// ID identifies the network in logs and metrics.
func (n *Network) ID() string {
	return n.id
}

// Logger returns the network logger.
func (n *Network) Logger() *slog.Logger {
	return n.logger
}

// States returns the state registry shared by every segment.
func (n *Network) States() *graph.StateRegistry {
	return n.registry
}

// SetState sets the active state of a group for the whole network.
func (n *Network) SetState(group, state string) {
	n.logger.Debug("state set", "group", group, "state", state)
	n.registry.Set(group, state)
}

// Segment returns the segment with the given name, creating it if needed.
// A new segment has no volume until Declare or Finalize assigns one.
func (n *Network) Segment(name string) *Segment {
	if s, ok := n.segments[name]; ok {
		return s
	}
	s := &Segment{name: name, net: n}
	s.node = graph.NewNode(n.registry, s)
	n.segments[name] = s
	n.order = append(n.order, s)
	return s
}

// Declare returns the named segment and assigns its volume unless one was already set.
func (n *Network) Declare(name string, volume float64) *Segment {
	s := n.Segment(name)
	if !s.volumeSet {
		s.volume = volume
		s.volumeSet = true
	}
	return s
}

// Lookup returns the named segment if it exists.
func (n *Network) Lookup(name string) (*Segment, bool) {
	s, ok := n.segments[name]
	return s, ok
}

// Segments returns every segment in creation order.
func (n *Network) Segments() []*Segment {
	out := make([]*Segment, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns the number of segments.
func (n *Network) Len() int {
	return len(n.order)
}

// Finalize assigns a volume of 0 to every segment that never received one
// and returns their names.
func (n *Network) Finalize() []string {
	var assumed []string
	for _, s := range n.order {
		if s.volumeSet {
			continue
		}
		n.logger.Warn("assuming a volume of 0", "segment", s.name)
		s.volume = 0
		s.volumeSet = true
		assumed = append(assumed, s.name)
	}
	return assumed
}

// Sources returns segments without parents in any state.
func (n *Network) Sources() []*Segment {
	var out []*Segment
	for _, s := range n.order {
		if s.node.HasParents(true) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Sinks returns segments without children in any state.
func (n *Network) Sinks() []*Segment {
	var out []*Segment
	for _, s := range n.order {
		if s.node.HasChildren(true) == 0 {
			out = append(out, s)
		}
	}
	return out
}

func (n *Network) resetFlowRates() {
	for _, s := range n.order {
		s.rate = 0
	}
}

func (n *Network) emitQuery(ev QueryEvent) {
	ev.Network = n.id
	if ev.Err != nil {
		n.logger.Warn("query failed", "kind", ev.Kind, "from", ev.From, "to", ev.To, "err", ev.Err)
	} else {
		n.logger.Debug("query", "kind", ev.Kind, "from", ev.From, "to", ev.To, "found", ev.Found)
	}
	if n.hooks.OnQuery != nil {
		n.hooks.OnQuery(ev)
	}
}

func (n *Network) emitPropagation(ev PropagationEvent) {
	ev.Network = n.id
	if n.hooks.OnPropagation != nil {
		n.hooks.OnPropagation(ev)
	}
}
