// Package hcl loads flow networks from HCL files.
//
// A file declares segments and chains of connections:
//
//	variable "loop" {
//	  default = 120
//	}
//
//	segment "line_a1" {
//	  volume = tube(var.loop, 0.8)
//	}
//
//	chain {
//	  path  = ["Syringe_1", "line_a1", "ftir"]
//	  when  = ["selector:infuse"]
//	  scope = "all"
//	}
//
// Volumes are expressions evaluated after every variable is known; values
// supplied through WithVariables override the declared defaults. The functions
// tube, min, max, abs, ceil and floor are available.
package hcl

import (
	"fmt"
	"math"

	hclv2 "github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

type hclFile struct {
	Variables []*hclVariable `hcl:"variable,block"`
	Segments  []*hclSegment  `hcl:"segment,block"`
	Chains    []*hclChain    `hcl:"chain,block"`
}

type hclVariable struct {
	Name    string          `hcl:"name,label"`
	Default hclv2.Expression `hcl:"default,optional"`
}

type hclSegment struct {
	Name   string          `hcl:"name,label"`
	Volume hclv2.Expression `hcl:"volume,optional"`
}

type hclChain struct {
	Path      []string `hcl:"path"`
	When      []string `hcl:"when,optional"`
	Scope     string   `hcl:"scope,optional"`
	Direction string   `hcl:"direction,optional"`
}

// Option configures a load.
type Option func(*loader)

// WithVariables supplies values for var.* references.
func WithVariables(vars map[string]float64) Option {
	return func(l *loader) {
		for k, v := range vars {
			l.vars[k] = v
		}
	}
}

// WithNetworkOptions configures the network being built.
func WithNetworkOptions(opts ...flow.NetworkOption) Option {
	return func(l *loader) {
		l.netOpts = append(l.netOpts, opts...)
	}
}

type loader struct {
	vars    map[string]float64
	netOpts []flow.NetworkOption
}

// Load parses the HCL file at path and builds a finalized network.
func Load(path string, opts ...Option) (*flow.Network, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return build(file.Body, path, opts)
}

// Parse is Load over in-memory source; filename is used in error messages.
func Parse(src []byte, filename string, opts ...Option) (*flow.Network, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return build(file.Body, filename, opts)
}

func build(body hclv2.Body, filename string, opts []Option) (*flow.Network, error) {
	l := &loader{vars: make(map[string]float64)}
	for _, opt := range opts {
		opt(l)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	evalCtx, err := l.evalContext(parsed.Variables)
	if err != nil {
		return nil, fmt.Errorf("error in variables of %s: %w", filename, err)
	}

	b := dsl.New(l.netOpts...)
	for _, seg := range parsed.Segments {
		sb := b.Add(seg.Name)
		v, ok, err := number(seg.Volume, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("error in volume of segment %q: %w", seg.Name, err)
		}
		if ok {
			sb.Volume(v)
		}
	}

	for i, ch := range parsed.Chains {
		if err := addChain(b, ch); err != nil {
			return nil, fmt.Errorf("error in chain #%d of %s: %w", i+1, filename, err)
		}
	}

	net, _ := b.Build()
	return net, nil
}

func addChain(b *dsl.Builder, ch *hclChain) error {
	if len(ch.Path) < 2 {
		return fmt.Errorf("path needs at least two segments, got %d", len(ch.Path))
	}
	var scope dsl.Scope
	switch ch.Scope {
	case "", "last":
		scope = dsl.ScopeLast
	case "all":
		scope = dsl.ScopeAll
	default:
		return fmt.Errorf("invalid scope %q: expected last or all", ch.Scope)
	}
	dir, err := graph.ParseDirection(ch.Direction)
	if err != nil {
		return err
	}
	when := make([]graph.Constraint, 0, len(ch.When))
	for _, w := range ch.When {
		c, err := graph.ParseConstraint(w)
		if err != nil {
			return err
		}
		when = append(when, c)
	}
	b.ChainDirected(dir, ch.Path, scope, when...)
	return nil
}

func (l *loader) evalContext(declared []*hclVariable) (*hclv2.EvalContext, error) {
	values := make(map[string]cty.Value)
	for _, v := range declared {
		f, ok, err := number(v.Default, nil)
		if err != nil {
			return nil, fmt.Errorf("default of %q: %w", v.Name, err)
		}
		if ok {
			values[v.Name] = cty.NumberFloatVal(f)
		}
	}
	for k, v := range l.vars {
		values[k] = cty.NumberFloatVal(v)
	}

	vars := cty.EmptyObjectVal
	if len(values) > 0 {
		vars = cty.ObjectVal(values)
	}
	return &hclv2.EvalContext{
		Variables: map[string]cty.Value{"var": vars},
		Functions: map[string]function.Function{
			"tube":  TubeFunc,
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
		},
	}, nil
}

// number evaluates expr to a float64. A missing or null expression yields false.
func number(expr hclv2.Expression, ctx *hclv2.EvalContext) (float64, bool, error) {
	if expr == nil {
		return 0, false, nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return 0, false, diags
	}
	if val.IsNull() {
		return 0, false, nil
	}
	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, false, fmt.Errorf("expected a number: %w", err)
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// TubeFunc computes the internal volume in uL of a tube from its length and
// inner diameter, both in mm.
var TubeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "length", Type: cty.Number},
		{Name: "inner_diameter", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		var length, diameter float64
		if err := gocty.FromCtyValue(args[0], &length); err != nil {
			return cty.NilVal, err
		}
		if err := gocty.FromCtyValue(args[1], &diameter); err != nil {
			return cty.NilVal, err
		}
		if length < 0 || diameter < 0 {
			return cty.NilVal, fmt.Errorf("tube dimensions must not be negative")
		}
		r := diameter / 2
		return cty.NumberFloatVal(math.Pi * r * r * length), nil
	},
})
