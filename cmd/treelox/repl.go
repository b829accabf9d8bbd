package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/config"
	"github.com/chidiwilliams/treelox/diagnostics"
	"github.com/chidiwilliams/treelox/lox"
	"github.com/chidiwilliams/treelox/scan"
)

const continuationPrompt = "... "

// runPrompt reads and runs one statement at a time against the same
// globals. Errors are reported and the prompt carries on.
func runPrompt(engine *lox.Engine, cfg config.Config, stdOut io.Writer, logger *slog.Logger) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	historyPath := cfg.HistoryPath()
	loadHistory(ln, historyPath, logger)
	defer saveHistory(ln, historyPath, cfg.HistoryLimit, logger)

	for {
		source, ok := readInput(ln, cfg.Prompt, continuationPrompt)
		if !ok {
			fmt.Fprintln(stdOut)
			return exitOK
		}
		if strings.TrimSpace(source) == "" {
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))
		report := engine.RunLine(source)
		logger.Debug("ran line", "diagnostics", len(report.Diagnostics()))
	}
}

// readInput reads lines until every brace opened in them is closed.
// ok is false once input is exhausted.
func readInput(ln *liner.State, prompt, cont string) (source string, ok bool) {
	var b strings.Builder
	for {
		current := prompt
		if b.Len() > 0 {
			current = cont
		}

		line, err := ln.Prompt(current)
		if errors.Is(err, liner.ErrPromptAborted) {
			// ctrl-c drops the pending input
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if openBraces(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// openBraces returns how many '{' in source are still unclosed.
func openBraces(source string) int {
	depth := 0
	for _, token := range scan.New(source, diagnostics.New(nil)).ScanTokens() {
		switch token.Type {
		case ast.TokenLeftBrace:
			depth++
		case ast.TokenRightBrace:
			depth--
		}
	}
	return depth
}

func loadHistory(ln *liner.State, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		logger.Warn("could not read history", "path", path, "err", err)
	}
}

// saveHistory keeps the last limit entries. A limit of 0 saves nothing.
func saveHistory(ln *liner.State, path string, limit int, logger *slog.Logger) {
	if path == "" || limit == 0 {
		return
	}

	var buf bytes.Buffer
	if _, err := ln.WriteHistory(&buf); err != nil {
		logger.Warn("could not collect history", "err", err)
		return
	}
	entries := trimHistory(buf.String(), limit)
	if len(entries) == 0 {
		return
	}
	if err := os.WriteFile(path, []byte(strings.Join(entries, "\n")+"\n"), 0o600); err != nil {
		logger.Warn("could not write history", "path", path, "err", err)
	}
}

func trimHistory(history string, limit int) []string {
	history = strings.TrimRight(history, "\n")
	if history == "" {
		return nil
	}
	entries := strings.Split(history, "\n")
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}
