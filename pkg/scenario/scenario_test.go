package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reactor = `
Syringe_1:0, Syringe_2:0, Syringe_3:0
line_a1:10, line_a2:20, line_a3:40
line_b1:100, line_c1:200, ftir:8
vent:5

Syringe_1 > line_a1 > line_b1 > line_c1 > ftir
Syringe_2 > line_a2 > line_b1
Syringe_3 > line_a3 > line_c1
line_c1 > vent | outlet:vent
`

const document = `
graph: reactor.flow
states:
  outlet: ftir
rates:
  Syringe_1: 55
  Syringe_2: 90
  Syringe_3: 55
critical_ratio: 10
queries:
  - kind: volume
    from: line_a1
    to: ftir
  - kind: time
    at: ftir
  - kind: stability
    at: ftir
  - kind: routes
    from: ftir
    direction: up
    match: Syringe
  - kind: volume
    from: line_a1
    to: vent
    states:
      outlet: vent
  - kind: duration
    from: nowhere
    to: ftir
  - kind: rates
    at: line_b1
`

func network(t *testing.T) *flow.Network {
	t.Helper()
	net, diags, err := dsl.Decode(reactor)
	require.NoError(t, err)
	require.Empty(t, diags)
	return net
}

func TestParse_YAML(t *testing.T) {
	s, err := Parse([]byte(document), "yaml")

	require.NoError(t, err)
	assert.Equal(t, "reactor.flow", s.Graph)
	assert.Equal(t, map[string]string{"outlet": "ftir"}, s.States)
	assert.Equal(t, 90.0, s.Rates["Syringe_2"])
	assert.Equal(t, 10.0, s.CriticalRatio)
	require.Len(t, s.Queries, 7)
	assert.Equal(t, Query{Kind: KindRoutes, From: "ftir", Direction: "up", Match: "Syringe"}, s.Queries[3])
	assert.Equal(t, map[string]string{"outlet": "vent"}, s.Queries[4].States)
}

func TestParse_JSON(t *testing.T) {
	s, err := Parse([]byte(`{"rates": {"A": "12.5"}, "queries": [{"kind": "time", "at": "B"}]}`), "json")

	require.NoError(t, err)
	assert.Equal(t, 12.5, s.Rates["A"], "weakly typed input converts strings")
	assert.Equal(t, KindTime, s.Queries[0].Kind)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format string
		want   string
	}{
		{"unknown key", "grpah: x.flow", "yaml", "failed to decode"},
		{"unknown kind", "queries: [{kind: pressure, at: A}]", "yaml", "unknown query kind"},
		{"volume without to", "queries: [{kind: volume, from: A}]", "yaml", "needs from and to"},
		{"time without at", "queries: [{kind: time}]", "yaml", "needs at"},
		{"routes without from", "queries: [{kind: routes}]", "yaml", "needs from"},
		{"negative ratio", "critical_ratio: -1", "yaml", "must not be negative"},
		{"bad yaml", "queries: [", "yaml", "failed to parse"},
		{"bad format", "{}", "toml", "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_ResolvesGraphPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

	s, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reactor.flow"), s.GraphPath())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario")
}

func TestRun(t *testing.T) {
	s, err := Parse([]byte(document), "yaml")
	require.NoError(t, err)
	net := network(t)

	results := s.Run(net)

	require.Len(t, results, 7)

	volume := results[0]
	require.NoError(t, volume.Err)
	assert.True(t, volume.Found)
	assert.Equal(t, 310.0, volume.Value)
	assert.Equal(t, "310 uL", volume.Summary())

	timeFrom := results[1]
	require.NoError(t, timeFrom.Err)
	assert.InDelta(t, 20.0/90+100.0/145+200.0/200, timeFrom.Value, 1e-9)

	stability := results[2]
	require.NotNil(t, stability.Report)
	assert.Empty(t, stability.Report.Unstable)
	assert.Contains(t, stability.Summary(), "stable")

	routes := results[3]
	assert.True(t, routes.Found)
	assert.Contains(t, routes.Routes, "[Syringe_3]-->[line_a3]-->[line_c1]-->[ftir]")
	assert.Len(t, routes.Routes, 3)

	vent := results[4]
	require.NoError(t, vent.Err)
	assert.Equal(t, 310.0, vent.Value)
	state, _ := net.States().Get("outlet")
	assert.Equal(t, "vent", state, "query states persist")

	missing := results[5]
	assert.NoError(t, missing.Err)
	assert.False(t, missing.Found)
	assert.Equal(t, "not found", missing.Summary())

	rates := results[6]
	require.NoError(t, rates.Err)
	assert.Equal(t, 145.0, rates.Rates["line_b1"])
	assert.Contains(t, rates.Summary(), "line_b1=145")
}

func TestRun_QueryErrorsDoNotAbortBatch(t *testing.T) {
	net, _, err := dsl.Decode("s:1 > a:2 > t\ns > b:3 > t")
	require.NoError(t, err)
	s := &Scenario{Queries: []Query{
		{Kind: KindVolume, From: "s", To: "t"},
		{Kind: KindVolume, From: "s", To: "a"},
		{Kind: KindVolume, From: "s", To: "t", Direction: "sideways"},
	}}

	results := s.Run(net)

	require.Len(t, results, 3)
	assert.ErrorIs(t, results[0].Err, flow.ErrAmbiguousPath)
	assert.Contains(t, results[0].Summary(), "error:")
	require.NoError(t, results[1].Err)
	assert.Equal(t, 1.0, results[1].Value)
	assert.ErrorContains(t, results[2].Err, "sideways")
}
