package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reactor = `
Syringe_1:0, Syringe_2:0, line_a1:10, line_a2:20, line_b1:100, ftir:8, vent:3
Syringe_1 > line_a1 > line_b1 > ftir
Syringe_2 > line_a2 > line_b1
line_a1 > vent | valve:vent
vent > line_b1 | valve:vent
`

func newHandler(t *testing.T, opts ...flow.NetworkOption) (http.Handler, *flow.Network) {
	t.Helper()
	net, diags, err := dsl.Decode(reactor, opts...)
	require.NoError(t, err)
	require.Empty(t, diags)
	return NewHandler(net, WithVersion("1.2.3")), net
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestGetHealthAndInfo(t *testing.T) {
	h, net := newHandler(t)

	rr := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])

	info := decode[map[string]string](t, do(t, h, "GET", "/info", ""))
	assert.Equal(t, "flowpath-http", info["app"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, net.ID(), info["network"])
}

func TestSegments(t *testing.T) {
	h, _ := newHandler(t)

	list := decode[[]SegmentView](t, do(t, h, "GET", "/segments", ""))
	require.Len(t, list, 7)
	assert.Equal(t, "Syringe_1", list[0].Name)

	rr := do(t, h, "GET", "/segments/line_a1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[SegmentDetail](t, rr)
	assert.Equal(t, 10.0, detail.Volume)
	assert.Equal(t, []string{"line_b1"}, detail.Children)
	assert.Equal(t, []string{"vent"}, detail.Buckets["vent"].Children)
	assert.Equal(t, []string{"valve"}, detail.StateGroups)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/segments/nope", "").Code)
}

func TestVolumeAndStates(t *testing.T) {
	h, _ := newHandler(t)

	rr := do(t, h, "GET", "/volume?from=line_a1&to=ftir", "")
	require.Equal(t, http.StatusOK, rr.Code)
	vol := decode[VolumeResponse](t, rr)
	assert.True(t, vol.Found)
	assert.Equal(t, 110.0, vol.Volume)

	rr = do(t, h, "PUT", "/states/valve", `{"state": "vent"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"valve": "vent"}, decode[map[string]string](t, rr))

	rr = do(t, h, "GET", "/volume?from=line_a1&to=ftir", "")
	require.Equal(t, http.StatusConflict, rr.Code)
	conflict := decode[ErrorResponse](t, rr)
	assert.Len(t, conflict.Paths, 2)

	assert.Equal(t, map[string]string{"valve": "vent"}, decode[map[string]string](t, do(t, h, "GET", "/states", "")))
}

func TestVolume_BadRequests(t *testing.T) {
	h, _ := newHandler(t)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/volume?from=line_a1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/volume?from=a&to=b&direction=sideways", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/volume?from=nope&to=ftir", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "PUT", "/states/valve", `{}`).Code)
}

func TestTimeAndStability(t *testing.T) {
	h, _ := newHandler(t)

	rr := do(t, h, "POST", "/time", `{"at": "ftir", "rates": {"Syringe_1": 10, "Syringe_2": 10}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	tr := decode[TimeResponse](t, rr)
	assert.InDelta(t, 20.0/10+100.0/20, tr.Minutes, 1e-9)
	assert.InDelta(t, tr.Minutes*60, tr.Seconds, 1e-9)

	rr = do(t, h, "POST", "/stability", `{"at": "ftir", "rates": {"Syringe_1": 1, "Syringe_2": 20}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[StabilityResponse](t, rr)
	assert.False(t, st.Stable)
	assert.Equal(t, []string{"line_b1"}, st.Unstable)
	assert.Equal(t, 20.0, st.WorstRatio)
	assert.Equal(t, flow.DefaultCriticalRatio, st.CriticalRatio)

	rr = do(t, h, "POST", "/stability", `{"at": "ftir", "critical_ratio": 25, "rates": {"Syringe_1": 1, "Syringe_2": 20}}`)
	assert.True(t, decode[StabilityResponse](t, rr).Stable)

	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/time", `{"at": "nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/time", `not json`).Code)
}

func TestTime_NonConvergence(t *testing.T) {
	net, _, err := dsl.Decode("A:1 > B:1 > C:1 > D:1\nC > B | valve:loop", flow.WithIterationLimit(10))
	require.NoError(t, err)
	net.SetState("valve", "loop")
	h := NewHandler(net)

	rr := do(t, h, "POST", "/time", `{"at": "D", "rates": {"A": 5}}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode[ErrorResponse](t, rr).Error, "converge")
}

func TestGraphAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	net, _, err := dsl.Decode(reactor, flow.WithHooks(metrics.Hooks()))
	require.NoError(t, err)
	h := NewHandler(net, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rr := do(t, h, "GET", "/graph.mmd", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph LR"))

	do(t, h, "GET", "/volume?from=line_a1&to=ftir", "")
	rr = do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `flowpath_queries_total{found="true",kind="volume"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newHandler(t)

	rr := do(t, h, "OPTIONS", "/volume", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
