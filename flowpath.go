package flowpath

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowpath/pkg/adapters/hcl"
	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
	"github.com/aretw0/flowpath/pkg/observability"
)

// Graph is a loaded flow network together with what loading it reported.
type Graph struct {
	*flow.Network

	// Diagnostics holds the line-level findings of a text description.
	// HCL files report problems as errors instead.
	Diagnostics []dsl.Diagnostic
}

// Option configures Load and Parse.
type Option func(*config)

type config struct {
	logger *slog.Logger
	hooks  []flow.Hooks
	scoped bool
	vars   map[string]float64
	limit  int
}

// WithLogger sets the structured logger of the network.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks. It can be given more than once.
func WithHooks(hooks flow.Hooks) Option {
	return func(c *config) {
		c.hooks = append(c.hooks, hooks)
	}
}

// WithScopedBuckets keys edge buckets by "group:state" instead of the bare state.
func WithScopedBuckets() Option {
	return func(c *config) {
		c.scoped = true
	}
}

// WithVariables overrides HCL variable defaults.
func WithVariables(vars map[string]float64) Option {
	return func(c *config) {
		for k, v := range vars {
			c.vars[k] = v
		}
	}
}

// WithIterationLimit caps the fixed-point passes of flow propagation.
func WithIterationLimit(limit int) Option {
	return func(c *config) {
		c.limit = limit
	}
}

func newConfig(opts []Option) *config {
	c := &config{vars: make(map[string]float64)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) networkOptions() []flow.NetworkOption {
	var regOpts []graph.RegistryOption
	if c.scoped {
		regOpts = append(regOpts, graph.WithScopedBuckets())
	}
	opts := []flow.NetworkOption{flow.WithStateRegistry(graph.NewStateRegistry(regOpts...))}
	if c.logger != nil {
		opts = append(opts, flow.WithLogger(c.logger))
	}
	if len(c.hooks) > 0 {
		opts = append(opts, flow.WithHooks(observability.Aggregate(c.hooks...)))
	}
	if c.limit > 0 {
		opts = append(opts, flow.WithIterationLimit(c.limit))
	}
	return opts
}

// Load reads a network from path. Files ending in .hcl are read as HCL,
// anything else as a text description.
func Load(path string, opts ...Option) (*Graph, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		c := newConfig(opts)
		net, err := hcl.Load(path, hcl.WithVariables(c.vars), hcl.WithNetworkOptions(c.networkOptions()...))
		if err != nil {
			return nil, err
		}
		return &Graph{Network: net}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(f, opts...)
}

// Parse builds a network from a text description.
func Parse(text string, opts ...Option) (*Graph, error) {
	return ParseReader(strings.NewReader(text), opts...)
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader, opts ...Option) (*Graph, error) {
	c := newConfig(opts)
	net, diags, err := dsl.DecodeReader(r, c.networkOptions()...)
	if err != nil {
		return nil, err
	}
	return &Graph{Network: net, Diagnostics: diags}, nil
}

// ParseHCL builds a network from HCL source; filename is used in error messages.
func ParseHCL(src []byte, filename string, opts ...Option) (*Graph, error) {
	c := newConfig(opts)
	net, err := hcl.Parse(src, filename, hcl.WithVariables(c.vars), hcl.WithNetworkOptions(c.networkOptions()...))
	if err != nil {
		return nil, err
	}
	return &Graph{Network: net}, nil
}
