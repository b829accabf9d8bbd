package lox

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/chidiwilliams/treelox/diagnostics"
)

type fixture struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Stdout       string   `yaml:"stdout"`
	Errors       []string `yaml:"errors"`
	RuntimeError string   `yaml:"runtime_error"`
}

func loadFixtures(t *testing.T) map[string][]fixture {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures in testdata")
	}

	fixtures := make(map[string][]fixture, len(paths))
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)

		var cases []fixture
		err = decoder.Decode(&cases)
		_ = file.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		fixtures[strings.TrimSuffix(filepath.Base(path), ".yaml")] = cases
	}
	return fixtures
}

func TestEngine_Fixtures(t *testing.T) {
	for file, cases := range loadFixtures(t) {
		for _, tc := range cases {
			t.Run(file+"/"+tc.Name, func(t *testing.T) {
				stdOut := &bytes.Buffer{}
				stdErr := &bytes.Buffer{}
				report := New(stdOut, stdErr).Run(tc.Source)

				if stdOut.String() != tc.Stdout {
					t.Errorf("stdOut: got %q, expected %q", stdOut, tc.Stdout)
				}

				var static []string
				var runtime string
				var written strings.Builder
				for _, d := range report.Diagnostics() {
					if d.Kind == diagnostics.KindRuntime {
						runtime = d.String()
					} else {
						static = append(static, d.String())
					}
					written.WriteString(d.String() + "\n")
				}
				if diff := cmp.Diff(tc.Errors, static); diff != "" {
					t.Errorf("static errors mismatch (-want +got):\n%s", diff)
				}
				if runtime != tc.RuntimeError {
					t.Errorf("runtime error: got %q, expected %q", runtime, tc.RuntimeError)
				}
				if stdErr.String() != written.String() {
					t.Errorf("stdErr: got %q, expected %q", stdErr, written.String())
				}

				if report.HadError() != (len(tc.Errors) > 0) {
					t.Errorf("HadError() = %v", report.HadError())
				}
				if report.HadRuntimeError() != (tc.RuntimeError != "") {
					t.Errorf("HadRuntimeError() = %v", report.HadRuntimeError())
				}
			})
		}
	}
}

func TestEngine_GlobalsPersistAcrossRuns(t *testing.T) {
	stdOut := &bytes.Buffer{}
	engine := New(stdOut, &bytes.Buffer{})

	engine.Run("var total = 1;")
	engine.Run("fun add(n) { total = total + n; }")
	engine.Run("add(41);")
	engine.Run("print total;")

	if got := stdOut.String(); got != "42\n" {
		t.Errorf("stdOut = %q, want %q", got, "42\n")
	}
}

func TestEngine_ErrorsDoNotCarryOver(t *testing.T) {
	stdOut := &bytes.Buffer{}
	engine := New(stdOut, &bytes.Buffer{})

	if report := engine.Run("print ;"); !report.HadError() {
		t.Fatal("expected a parse error")
	}
	if report := engine.Run("print -nil;"); !report.HadRuntimeError() || report.HadError() {
		t.Fatalf("second run: HadError=%v HadRuntimeError=%v", report.HadError(), report.HadRuntimeError())
	}

	report := engine.Run("var ok = \"yes\"; print ok;")
	if report.HadError() || report.HadRuntimeError() {
		t.Fatalf("clean run reported %v", report.Diagnostics())
	}
	if got := stdOut.String(); got != "yes\n" {
		t.Errorf("stdOut = %q, want %q", got, "yes\n")
	}
}

func TestEngine_RuntimeErrorKeepsEarlierDefinitions(t *testing.T) {
	stdOut := &bytes.Buffer{}
	engine := New(stdOut, &bytes.Buffer{})

	engine.Run("var a = 1; { var b = 2; print b + nil; }")
	engine.Run("print a;")

	if got := stdOut.String(); got != "1\n" {
		t.Errorf("stdOut = %q, want %q", got, "1\n")
	}
}

func TestEngine_RunLine(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		stdOut string
		stdErr string
	}{
		{"expression is echoed", []string{"1 + 2"}, "3\n", ""},
		{"string is echoed raw", []string{"\"a\" + \"b\""}, "ab\n", ""},
		{"statement is not echoed", []string{"1 + 2;"}, "", ""},
		{"print runs once", []string{"print 4;"}, "4\n", ""},
		{"assignment echoes its value", []string{"var a = 1;", "a = 5", "a"}, "5\n5\n", ""},
		{"function value", []string{"fun f() {}", "f"}, "<fn f>\n", ""},
		{"runtime error in expression", []string{"-\"x\""}, "", "Operand must be a number.\n[line 1]\n"},
		{"syntax error runs as a program", []string{"var"}, "", "[line 1] Error at end: Expect variable name.\n"},
		{"this at top level", []string{"this"}, "", "[line 1] Error at 'this': Can't use 'this' outside of a class.\n"},
		{"empty line", []string{""}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdOut := &bytes.Buffer{}
			stdErr := &bytes.Buffer{}
			engine := New(stdOut, stdErr)
			for _, line := range tt.lines {
				engine.RunLine(line)
			}

			if stdOut.String() != tt.stdOut {
				t.Errorf("stdOut: got %q, expected %q", stdOut, tt.stdOut)
			}
			if stdErr.String() != tt.stdErr {
				t.Errorf("stdErr: got %q, expected %q", stdErr, tt.stdErr)
			}
		})
	}
}

func TestEngine_Dumps(t *testing.T) {
	stdOut := &bytes.Buffer{}
	engine := New(stdOut, &bytes.Buffer{}, WithTokenDump(true), WithASTDump(true))
	engine.Run("print 1;")

	want := "PRINT print\nNUMBER 1 1\nSEMICOLON ;\nEOF \n(print 1)\n1\n"
	if diff := cmp.Diff(want, stdOut.String()); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_Logger(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := New(&bytes.Buffer{}, &bytes.Buffer{}, WithLogger(logger))
	engine.Run("var a = 1;")

	for _, msg := range []string{"msg=scanned", "msg=parsed", "msg=resolved", "msg=interpreted"} {
		if !strings.Contains(logs.String(), msg) {
			t.Errorf("log output is missing %q:\n%s", msg, logs)
		}
	}
}

func TestEvaluate(t *testing.T) {
	out, report := Evaluate("print \"first\";\nprint \"second\";\n")
	if report.HadError() || report.HadRuntimeError() {
		t.Fatalf("unexpected diagnostics: %v", report.Diagnostics())
	}
	if out != "first\nsecond" {
		t.Errorf("Evaluate() = %q, want %q", out, "first\nsecond")
	}

	out, report = Evaluate("print 1; print nil + 1;")
	if out != "1" {
		t.Errorf("Evaluate() = %q, want %q", out, "1")
	}
	if got := report.Count(diagnostics.KindRuntime); got != 1 {
		t.Errorf("runtime diagnostics = %d, want 1", got)
	}

	// each call starts from fresh globals
	if out, _ := Evaluate("var leaked = 1;"); out != "" {
		t.Errorf("Evaluate() = %q, want empty", out)
	}
	if _, report := Evaluate("print leaked;"); !report.HadRuntimeError() {
		t.Error("globals leaked between Evaluate calls")
	}
}
