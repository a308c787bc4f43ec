package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reactor = `
Syringe_1:0, Syringe_2:0, Syringe_3:0
line_a1:10, line_a2:20, line_a3:40
line_b1:100, line_c1:200
ftir:8

Syringe_1 > line_a1 > line_b1 > line_c1 > ftir
Syringe_2 > line_a2 > line_b1
Syringe_3 > line_a3 > line_c1
line_a1 > line_c1 | bypass:on
`

func writeReactor(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reactor.flow")
	require.NoError(t, os.WriteFile(path, []byte(reactor), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVolumeCommand(t *testing.T) {
	path := writeReactor(t)

	out, err := run(t, "volume", "-f", path, "Syringe_1", "ftir")
	require.NoError(t, err)
	assert.Equal(t, "310 uL\n", out)

	_, err = run(t, "volume", "-f", path, "-s", "bypass:on", "Syringe_1", "ftir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous path")
	assert.Contains(t, err.Error(), "--state")

	_, err = run(t, "volume", "-f", path, "ftir", "Syringe_1")
	assert.ErrorContains(t, err, "does not reach")
}

func TestRoutesCommand(t *testing.T) {
	path := writeReactor(t)

	out, err := run(t, "routes", "-f", path, "ftir", "--direction", "up", "--contains", "Syringe")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[Syringe_1]-->[line_a1]-->[line_b1]-->[line_c1]-->[ftir]  318 uL", lines[0])
	assert.Equal(t, "3 route(s)", lines[3])
}

func TestTimeAndRatesCommands(t *testing.T) {
	path := writeReactor(t)

	out, err := run(t, "time", "-f", path, "ftir", "-r", "Syringe_1=55", "-r", "Syringe_2=90", "-r", "Syringe_3=55")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1.9119 min"), out)

	out, err = run(t, "rates", "-f", path, "ftir", "-r", "Syringe_1=55", "-r", "Syringe_2=90", "-r", "Syringe_3=55")
	require.NoError(t, err)
	assert.Contains(t, out, "line_b1\t145\n")
	assert.Contains(t, out, "line_c1\t200\n")

	_, err = run(t, "time", "-f", path, "ftir", "-r", "Syringe_1")
	assert.ErrorContains(t, err, "invalid --rate")
}

func TestStabilityCommand(t *testing.T) {
	path := writeReactor(t)
	args := []string{"stability", "-f", path, "ftir", "-r", "Syringe_1=1", "-r", "Syringe_2=20", "-r", "Syringe_3=1"}

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "line_b1")

	_, err = run(t, append(args, "--fail-unstable")...)
	assert.ErrorContains(t, err, "unstable junction")

	_, err = run(t, append(args, "--fail-unstable", "--critical", "50")...)
	assert.NoError(t, err)
}

func TestGraphHeaderAndSelectorCommands(t *testing.T) {
	path := writeReactor(t)

	out, err := run(t, "graph", "-f", path, "--from", "Syringe_3", "--to", "ftir")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))

	out, err = run(t, "header", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# <Auto-generated header segment>")
	assert.Contains(t, out, "Syringe_1:0, ")

	out, err = run(t, "selector", "--selector", "Sel", "--syringe", "Syr", "--outlet", "system", "--port", "Bottle_1=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Bottle_1 > bottle_1_sel > sel_syr | sel:refill_2")

	_, err = run(t, "selector", "--selector", "Sel", "--syringe", "Syr", "--outlet", "system", "--port", "Bottle_1")
	assert.ErrorContains(t, err, "invalid --port")
}

func TestValidateCommand(t *testing.T) {
	path := writeReactor(t)

	out, err := run(t, "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bypass")

	_, err = run(t, "validate", "-f", path, "-s", "bypass:on")
	assert.ErrorContains(t, err, "found 1 errors")
}

func TestScenarioCommand(t *testing.T) {
	path := writeReactor(t)
	sc := filepath.Join(filepath.Dir(path), "check.yaml")
	require.NoError(t, os.WriteFile(sc, []byte(`
graph: reactor.flow
rates:
  Syringe_1: 55
  Syringe_2: 90
  Syringe_3: 55
queries:
  - kind: volume
    from: Syringe_1
    to: ftir
  - kind: time
    at: ftir
`), 0644))

	out, err := run(t, "scenario", sc)
	require.NoError(t, err)
	assert.Contains(t, out, "310 uL")
}

func TestVersionAndUnknownFile(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flowpath version "))

	_, err = run(t, "describe")
	assert.ErrorContains(t, err, "--file")
}
