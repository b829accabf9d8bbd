// Command treelox runs a script file, or starts an interactive prompt
// when no file is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chidiwilliams/treelox/config"
	"github.com/chidiwilliams/treelox/lox"
)

// Exit codes, following BSD sysexits.
const (
	exitOK      = 0
	exitUsage   = 64
	exitData    = 65
	exitRuntime = 70
	exitIO      = 74
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("treelox", flag.ContinueOnError)
	flags.SetOutput(stdErr)
	configPath := flags.String("config", config.DefaultPath(), "settings file")
	verbose := flags.Bool("v", false, "log each phase to stderr")
	dumpTokens := flags.Bool("tokens", false, "print the scanned tokens before running")
	dumpAST := flags.Bool("ast", false, "print the parsed statements before running")
	flags.Usage = func() {
		fmt.Fprintln(stdErr, "Usage: treelox [flags] [script]")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() > 1 {
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stdErr, err)
		return exitUsage
	}
	// flags given on the command line win over the file
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		case "tokens":
			cfg.DumpTokens = *dumpTokens
		case "ast":
			cfg.DumpAST = *dumpAST
		}
	})

	logger := newLogger(stdErr, cfg.LogLevel)
	engine := lox.New(stdOut, stdErr,
		lox.WithLogger(logger),
		lox.WithTokenDump(cfg.DumpTokens),
		lox.WithASTDump(cfg.DumpAST),
	)

	if flags.NArg() == 1 {
		return runFile(engine, flags.Arg(0), stdErr, logger)
	}
	return runPrompt(engine, cfg, stdOut, logger)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func runFile(engine *lox.Engine, path string, stdErr io.Writer, logger *slog.Logger) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdErr, fmt.Errorf("read script: %w", err))
		return exitIO
	}
	logger.Debug("running script", "path", path, "bytes", len(source))

	report := engine.Run(string(source))
	if report.HadError() {
		return exitData
	}
	if report.HadRuntimeError() {
		return exitRuntime
	}
	return exitOK
}
