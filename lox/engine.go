// Package lox runs source text through every phase of the interpreter:
// scanning, parsing, resolution and evaluation.
package lox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/diagnostics"
	"github.com/chidiwilliams/treelox/interpret"
	"github.com/chidiwilliams/treelox/parse"
	"github.com/chidiwilliams/treelox/resolve"
	"github.com/chidiwilliams/treelox/scan"
)

// Engine runs programs against a single set of globals, so a
// definition made by one Run is visible to the next.
type Engine struct {
	interpreter *interpret.Interpreter
	stdOut      io.Writer
	stdErr      io.Writer
	logger      *slog.Logger
	dumpTokens  bool
	dumpAST     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for phase progress. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTokenDump writes every scanned token to stdOut before parsing.
func WithTokenDump(enabled bool) Option {
	return func(e *Engine) {
		e.dumpTokens = enabled
	}
}

// WithASTDump writes every parsed statement to stdOut before resolution.
func WithASTDump(enabled bool) Option {
	return func(e *Engine) {
		e.dumpAST = enabled
	}
}

// New returns an engine that prints program output to stdOut and
// diagnostics to stdErr.
func New(stdOut, stdErr io.Writer, opts ...Option) *Engine {
	e := &Engine{
		interpreter: interpret.New(stdOut),
		stdOut:      stdOut,
		stdErr:      stdErr,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes a program. Scan and parse errors stop it before
// resolution, and resolve errors stop it before anything executes.
// The returned collector holds every diagnostic the run reported.
func (e *Engine) Run(source string) *diagnostics.Collector {
	report := diagnostics.New(e.stdErr)
	stmts, locals, ok := e.compile(source, report)
	if !ok {
		return report
	}

	start := time.Now()
	err := e.interpreter.Interpret(stmts, locals)
	e.reportRuntime(report, err)
	e.logger.Debug("interpreted", "statements", len(stmts), "elapsed", time.Since(start), "runtime_error", err != nil)
	return report
}

// RunLine executes one line typed at a prompt. A line holding a single
// expression with no trailing semicolon is evaluated and its value is
// printed; anything else runs as a program.
func (e *Engine) RunLine(line string) *diagnostics.Collector {
	probe := diagnostics.New(nil)
	tokens := scan.New(line, probe).ScanTokens()
	if probe.HadError() || len(tokens) < 2 {
		return e.Run(line)
	}
	expr, ok := parse.New(tokens, probe).ParseExpression()
	if !ok || probe.HadError() {
		return e.Run(line)
	}

	report := diagnostics.New(e.stdErr)
	locals := resolve.New(report).Resolve([]ast.Stmt{&ast.ExpressionStmt{Expr: expr}})
	if report.HadError() {
		return report
	}

	value, err := e.interpreter.Evaluate(expr, locals)
	if err != nil {
		e.reportRuntime(report, err)
		return report
	}
	_, _ = fmt.Fprintln(e.stdOut, interpret.Stringify(value))
	return report
}

// compile scans, parses and resolves source, reporting into report.
// ok is false if any phase reported an error.
func (e *Engine) compile(source string, report *diagnostics.Collector) (stmts []ast.Stmt, locals resolve.Locals, ok bool) {
	tokens := scan.New(source, report).ScanTokens()
	e.logger.Debug("scanned", "tokens", len(tokens), "errors", report.Count(diagnostics.KindScan))
	if e.dumpTokens {
		for _, token := range tokens {
			_, _ = fmt.Fprintln(e.stdOut, token)
		}
	}

	stmts = parse.New(tokens, report).Parse()
	e.logger.Debug("parsed", "statements", len(stmts), "errors", report.Count(diagnostics.KindParse))
	if report.HadError() {
		return nil, nil, false
	}
	if e.dumpAST {
		_, _ = fmt.Fprintln(e.stdOut, ast.PrintProgram(stmts))
	}

	locals = resolve.New(report).Resolve(stmts)
	e.logger.Debug("resolved", "locals", len(locals), "errors", report.Count(diagnostics.KindResolve))
	if report.HadError() {
		return nil, nil, false
	}
	return stmts, locals, true
}

func (e *Engine) reportRuntime(report *diagnostics.Collector, err error) {
	if err == nil {
		return
	}
	var runtimeErr *interpret.RuntimeError
	if errors.As(err, &runtimeErr) {
		report.RuntimeError(runtimeErr.Token.Line, runtimeErr.Message)
		return
	}
	report.RuntimeError(0, err.Error())
}

// Evaluate runs source on a fresh engine and returns what it printed,
// with trailing whitespace removed. Diagnostics are collected but not
// written anywhere.
func Evaluate(source string) (string, *diagnostics.Collector) {
	var out bytes.Buffer
	report := New(&out, nil).Run(source)
	return strings.TrimRight(out.String(), " \t\r\n"), report
}
