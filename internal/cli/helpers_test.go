package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/flowpath/internal/logging"
	"github.com/aretw0/flowpath/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseStates(t *testing.T) {
	states, err := ParseStates([]string{"valve:vent", "selector_1:refill_2"})
	require.NoError(t, err)
	assert.Equal(t, []graph.Constraint{graph.When("valve", "vent"), graph.When("selector_1", "refill_2")}, states)

	_, err = ParseStates([]string{"valve"})
	assert.ErrorContains(t, err, "invalid --state")
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"Syringe_1=55", " loop = 2.5 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Syringe_1": 55, "loop": 2.5}, got)

	_, err = ParseAssignments([]string{"Syringe_1"})
	assert.ErrorContains(t, err, "expected name=value")
	_, err = ParseAssignments([]string{"Syringe_1=fast"})
	assert.ErrorContains(t, err, "is not a number")
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "reactor.flow", "A:1 > B:2 > C:4\nB > D:8 | valve:side\nE:x")

	t.Run("States are applied", func(t *testing.T) {
		g, _, err := Load(Options{File: path, States: []string{"valve:side"}})
		require.NoError(t, err)
		state, ok := g.States().Get("valve")
		assert.True(t, ok)
		assert.Equal(t, "side", state)
		assert.Len(t, g.Diagnostics, 1)
	})

	t.Run("Strict rejects diagnostics", func(t *testing.T) {
		_, _, err := Load(Options{File: path, Strict: true})
		assert.ErrorContains(t, err, "invalid volume for E")
	})

	t.Run("Bad flags", func(t *testing.T) {
		_, _, err := Load(Options{})
		assert.ErrorContains(t, err, "--file")
		_, _, err = Load(Options{File: path, LogLevel: "loud"})
		assert.Error(t, err)
		_, _, err = Load(Options{File: path, Vars: []string{"x"}})
		assert.ErrorContains(t, err, "invalid --var")
	})
}

func TestRenderMarkdown_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, RenderMarkdown(&buf, "# Title\n"))

	assert.Equal(t, "# Title\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestWatch_RerunsOnChange(t *testing.T) {
	path := writeFile(t, "reactor.flow", "A:1 > B:2")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, &bytes.Buffer{}, logging.NewNop(), []string{path}, func() error {
			runs.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("A:1 > B:3"), 0644))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
