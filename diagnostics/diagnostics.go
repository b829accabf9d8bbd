// Package diagnostics collects the errors reported by each phase of
// the interpreter pipeline. A Collector is created per run and handed
// to the scanner, parser and resolver, and the caller inspects it
// between phases instead of consulting global state.
package diagnostics

import (
	"fmt"
	"io"

	"github.com/chidiwilliams/treelox/ast"
)

// Kind identifies the phase that reported a diagnostic.
type Kind uint8

const (
	KindScan Kind = iota
	KindParse
	KindResolve
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindParse:
		return "parse"
	case KindResolve:
		return "resolve"
	case KindRuntime:
		return "runtime"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Diagnostic is a single reported error.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Where   string
	Message string
}

// String formats the diagnostic the way it is shown to users:
// "[line 1] Error at 'x': message" for static errors and
// "message\n[line 1]" for runtime errors.
func (d Diagnostic) String() string {
	if d.Kind == KindRuntime {
		return fmt.Sprintf("%s\n[line %d]", d.Message, d.Line)
	}
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// Collector records diagnostics and, if it has a sink,
// writes each one to the sink as it is reported.
type Collector struct {
	sink            io.Writer
	diagnostics     []Diagnostic
	hadError        bool
	hadRuntimeError bool
}

// New returns a Collector writing to sink. A nil sink only records.
func New(sink io.Writer) *Collector {
	return &Collector{sink: sink}
}

// Error reports a static error at a line, with no token location.
func (c *Collector) Error(kind Kind, line int, message string) {
	c.add(Diagnostic{Kind: kind, Line: line, Message: message})
}

// TokenError reports a static error located at token.
func (c *Collector) TokenError(kind Kind, token ast.Token, message string) {
	where := " at '" + token.Lexeme + "'"
	if token.Type == ast.TokenEOF {
		where = " at end"
	}
	c.add(Diagnostic{Kind: kind, Line: token.Line, Where: where, Message: message})
}

// RuntimeError reports an error that aborted evaluation.
func (c *Collector) RuntimeError(line int, message string) {
	c.add(Diagnostic{Kind: KindRuntime, Line: line, Message: message})
}

func (c *Collector) add(d Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
	if d.Kind == KindRuntime {
		c.hadRuntimeError = true
	} else {
		c.hadError = true
	}
	if c.sink != nil {
		_, _ = fmt.Fprintln(c.sink, d.String())
	}
}

// HadError reports whether a scan, parse or resolve error was recorded.
func (c *Collector) HadError() bool {
	return c.hadError
}

// HadRuntimeError reports whether a runtime error was recorded.
func (c *Collector) HadRuntimeError() bool {
	return c.hadRuntimeError
}

// Diagnostics returns every diagnostic in the order it was reported.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// Count returns the number of diagnostics of the given kind.
func (c *Collector) Count(kind Kind) int {
	n := 0
	for _, d := range c.diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears the recorded diagnostics and both error flags.
func (c *Collector) Reset() {
	c.diagnostics = nil
	c.hadError = false
	c.hadRuntimeError = false
}
