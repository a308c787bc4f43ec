package dsl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/flowpath/pkg/flow"
	"github.com/aretw0/flowpath/pkg/graph"
)

const (
	tokenConnect   = " > "
	tokenLast      = " | "
	tokenAll       = " || "
	tokenDetail    = ":"
	tokenComment   = "#"
	tokenSeparator = ","
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic reports a problem found on one line of a description.
type Diagnostic struct {
	Line     int // 1-based
	Text     string
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s (%q)", d.Line, d.Severity, d.Message, d.Text)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Decode builds a network from a text description and finalizes it.
// Line-level problems are returned as diagnostics; the error is reserved for
// failures reading the input.
func Decode(text string, opts ...flow.NetworkOption) (*flow.Network, []Diagnostic, error) {
	return DecodeReader(strings.NewReader(text), opts...)
}

// DecodeReader is Decode over an io.Reader.
func DecodeReader(r io.Reader, opts ...flow.NetworkOption) (*flow.Network, []Diagnostic, error) {
	b := New(opts...)
	diags, err := b.DecodeReader(r)
	if err != nil {
		return nil, diags, err
	}
	net, _ := b.Build()
	return net, diags, nil
}

// Decode adds the described segments and connections to the builder without
// finalizing it, so several descriptions can be layered.
func (b *Builder) Decode(text string) []Diagnostic {
	diags, _ := b.DecodeReader(strings.NewReader(text))
	return diags
}

// DecodeReader is Builder.Decode over an io.Reader.
func (b *Builder) DecodeReader(r io.Reader) ([]Diagnostic, error) {
	p := &parser{builder: b}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		p.parseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return p.diags, fmt.Errorf("failed to read description: %w", err)
	}
	return p.diags, nil
}

type parser struct {
	builder *Builder
	line    int
	text    string
	diags   []Diagnostic
}

func (p *parser) report(sev Severity, format string, args ...any) {
	d := Diagnostic{Line: p.line, Text: p.text, Severity: sev, Message: fmt.Sprintf(format, args...)}
	p.diags = append(p.diags, d)
	p.builder.net.Logger().Warn("description "+string(sev), "line", d.Line, "text", d.Text, "msg", d.Message)
}

func (p *parser) parseLine(raw string) {
	line, _, _ := strings.Cut(raw, tokenComment)
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	p.text = line
	p.checkTypos(line)

	if !strings.Contains(line, tokenConnect) {
		p.declare(line)
		return
	}

	if strings.Contains(line, tokenLast) && strings.Contains(line, tokenAll) {
		p.report(SeverityError, "a line cannot contain both %q and %q", strings.TrimSpace(tokenLast), strings.TrimSpace(tokenAll))
		return
	}

	scope := ScopeLast
	sep := tokenLast
	if strings.Contains(line, tokenAll) {
		scope = ScopeAll
		sep = tokenAll
	}
	connection, constraint, constrained := strings.Cut(line, sep)
	if constrained && strings.Contains(constraint, sep) {
		p.report(SeverityWarning, "ignoring everything after the second %q", strings.TrimSpace(sep))
		constraint, _, _ = strings.Cut(constraint, sep)
	}

	var when []graph.Constraint
	if constrained {
		for _, entry := range strings.Split(constraint, tokenSeparator) {
			c, err := graph.ParseConstraint(entry)
			if err != nil {
				p.report(SeverityError, "%v", err)
				return
			}
			when = append(when, c)
		}
	}

	var names []string
	for _, entry := range strings.Split(connection, tokenConnect) {
		name, ok := p.segment(entry)
		if !ok {
			return
		}
		names = append(names, name)
	}
	p.builder.Chain(names, scope, when...)
}

func (p *parser) declare(line string) {
	for _, entry := range strings.Split(line, tokenSeparator) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		p.segment(entry)
	}
}

// segment parses "name[:volume]", declares the segment and returns its name.
func (p *parser) segment(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	name, volume, detailed := strings.Cut(entry, tokenDetail)
	name = strings.TrimSpace(name)
	if name == "" {
		p.report(SeverityError, "missing segment name in %q", entry)
		return "", false
	}
	if !detailed {
		p.builder.Add(name)
		return name, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(volume), 64)
	if err != nil {
		p.report(SeverityError, "invalid volume for %s: %q", name, volume)
		return "", false
	}
	p.builder.Add(name).Volume(v)
	return name, true
}

func (p *parser) checkTypos(line string) {
	if !strings.Contains(line, tokenConnect) && (strings.Contains(line, " >") || strings.Contains(line, "> ")) {
		p.report(SeverityWarning, "possible connection typo")
	}
	if !strings.Contains(line, tokenAll) && !strings.Contains(line, tokenLast) &&
		(strings.Contains(line, " |") || strings.Contains(line, "| ")) {
		p.report(SeverityWarning, "possible constraint typo")
	}
	if strings.Contains(line, ": ") || strings.Contains(line, " :") {
		p.report(SeverityWarning, "possible detailing typo")
	}
}
