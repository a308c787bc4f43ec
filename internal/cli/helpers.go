package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/flowpath"
	"github.com/aretw0/flowpath/internal/logging"
	"github.com/aretw0/flowpath/internal/presentation/tui"
	"github.com/aretw0/flowpath/pkg/dsl"
	"github.com/aretw0/flowpath/pkg/graph"
	"golang.org/x/term"
)

// Options holds the global flags shared by every command.
type Options struct {
	File          string
	States        []string
	Vars          []string
	LogLevel      string
	LogFormat     string
	ScopedBuckets bool
	Strict        bool
}

// Load reads the network named by opts.File and applies opts.States.
// Extra options are applied before the ones derived from opts.
// Description diagnostics are logged; with Strict, error diagnostics fail the load.
func Load(opts Options, extra ...flowpath.Option) (*flowpath.Graph, *slog.Logger, error) {
	if opts.File == "" {
		return nil, nil, fmt.Errorf("no network file given (use --file)")
	}
	logger, err := opts.Logger()
	if err != nil {
		return nil, nil, err
	}
	vars, err := ParseAssignments(opts.Vars)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --var: %w", err)
	}
	states, err := ParseStates(opts.States)
	if err != nil {
		return nil, nil, err
	}

	// --var overrides variables supplied by the caller.
	fpOpts := append(append([]flowpath.Option{}, extra...), flowpath.WithLogger(logger), flowpath.WithVariables(vars))
	if opts.ScopedBuckets {
		fpOpts = append(fpOpts, flowpath.WithScopedBuckets())
	}
	g, err := flowpath.Load(opts.File, fpOpts...)
	if err != nil {
		return nil, nil, err
	}
	if opts.Strict && dsl.HasErrors(g.Diagnostics) {
		return nil, nil, fmt.Errorf("%s has %d diagnostics, first: %s", opts.File, len(g.Diagnostics), g.Diagnostics[0])
	}
	for _, c := range states {
		g.SetState(c.Group, c.State)
	}
	return g, logger, nil
}

// Logger builds the logger selected by --log-level and --log-format.
func (o Options) Logger() (*slog.Logger, error) {
	return logging.New(logging.Config{Level: o.LogLevel, Format: logging.Format(o.LogFormat)})
}

// ParseStates parses "group:state" values.
func ParseStates(values []string) ([]graph.Constraint, error) {
	out := make([]graph.Constraint, 0, len(values))
	for _, v := range values {
		c, err := graph.ParseConstraint(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --state: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseAssignments parses "name=number" values, as used by --var and --rate.
func ParseAssignments(values []string) (map[string]float64, error) {
	out := make(map[string]float64, len(values))
	for _, v := range values {
		name, raw, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", v)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", name, raw)
		}
		out[name] = f
	}
	return out, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RenderMarkdown writes md to w, styled with glamour when w is a terminal
// and as plain markdown otherwise.
func RenderMarkdown(w io.Writer, md string) error {
	if !IsTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	width := 100
	if cols, _, err := term.GetSize(int(w.(*os.File).Fd())); err == nil && cols > 20 {
		width = cols - 4
	}
	out, err := tui.NewRenderer(width)(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// PrintDiagnostics lists description diagnostics on w.
func PrintDiagnostics(w io.Writer, diags []dsl.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

// printSystemMessage prints a standardized status line.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
