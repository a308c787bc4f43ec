// Package scenario describes a batch of queries against a flow network: the
// valve states to apply, the source flow rates and the questions to answer.
//
// Scenarios are YAML (default) or JSON documents:
//
//	graph: reactor.flow
//	states: {selector: infuse, valve_1: through}
//	rates: {Syringe_1: 55, Syringe_2: 90}
//	critical_ratio: 10
//	queries:
//	  - {kind: volume, from: Syringe_1, to: ftir}
//	  - {kind: time, at: ftir}
//	  - {kind: stability, at: ftir, states: {valve_1: bypass}}
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Query kinds.
const (
	KindVolume    = "volume"
	KindDuration  = "duration"
	KindTime      = "time"
	KindStability = "stability"
	KindRoutes    = "routes"
	KindRates     = "rates"
)

// Query is one question asked of the network.
type Query struct {
	Kind      string            `mapstructure:"kind" json:"kind"`
	From      string            `mapstructure:"from" json:"from,omitempty"`
	To        string            `mapstructure:"to" json:"to,omitempty"`
	At        string            `mapstructure:"at" json:"at,omitempty"`
	Direction string            `mapstructure:"direction" json:"direction,omitempty"`
	Match     string            `mapstructure:"match" json:"match,omitempty"`
	States    map[string]string `mapstructure:"states" json:"states,omitempty"`
}

// Scenario is a decoded scenario document.
type Scenario struct {
	Graph         string             `mapstructure:"graph" json:"graph,omitempty"`
	States        map[string]string  `mapstructure:"states" json:"states,omitempty"`
	Rates         map[string]float64 `mapstructure:"rates" json:"rates,omitempty"`
	CriticalRatio float64            `mapstructure:"critical_ratio" json:"critical_ratio,omitempty"`
	Variables     map[string]float64 `mapstructure:"variables" json:"variables,omitempty"`
	Queries       []Query            `mapstructure:"queries" json:"queries"`

	dir string
}

// Load reads a scenario file. Files ending in .json are JSON, anything else YAML.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes a scenario document in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Scenario, error) {
	var raw map[string]any
	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse scenario json: %w", err)
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse scenario yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}

	var s Scenario
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every query names what its kind needs.
func (s *Scenario) Validate() error {
	if s.CriticalRatio < 0 {
		return fmt.Errorf("critical_ratio must not be negative")
	}
	for i, q := range s.Queries {
		if err := q.validate(); err != nil {
			return fmt.Errorf("query #%d: %w", i+1, err)
		}
	}
	return nil
}

func (q Query) validate() error {
	switch q.Kind {
	case KindVolume, KindDuration:
		if q.From == "" || q.To == "" {
			return fmt.Errorf("%s query needs from and to", q.Kind)
		}
	case KindTime, KindStability, KindRates:
		if q.At == "" {
			return fmt.Errorf("%s query needs at", q.Kind)
		}
	case KindRoutes:
		if q.From == "" {
			return fmt.Errorf("routes query needs from")
		}
	default:
		return fmt.Errorf("unknown query kind %q", q.Kind)
	}
	return nil
}

// GraphPath returns the graph file, resolved against the scenario's directory.
func (s *Scenario) GraphPath() string {
	if s.Graph == "" || filepath.IsAbs(s.Graph) || s.dir == "" {
		return s.Graph
	}
	return filepath.Join(s.dir, s.Graph)
}
