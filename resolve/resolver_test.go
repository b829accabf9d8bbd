package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/diagnostics"
	"github.com/chidiwilliams/treelox/parse"
	"github.com/chidiwilliams/treelox/scan"
)

func resolveSource(t *testing.T, source string) ([]ast.Stmt, Locals, *diagnostics.Collector) {
	t.Helper()
	report := diagnostics.New(nil)
	tokens := scan.New(source, report).ScanTokens()
	stmts := parse.New(tokens, report).Parse()
	if report.HadError() {
		t.Fatalf("parse %q: %v", source, report.Diagnostics())
	}
	locals := New(report).Resolve(stmts)
	return stmts, locals, report
}

// access is a variable use found in a program, in source order.
type access struct {
	name string
	expr ast.Expr
}

func collectAccesses(stmts []ast.Stmt) []access {
	var found []access
	var walkExpr func(ast.Expr)
	var walkStmt func(ast.Stmt)

	walkExpr = func(expr ast.Expr) {
		switch e := expr.(type) {
		case *ast.AssignExpr:
			walkExpr(e.Value)
			found = append(found, access{"=" + e.Name.Lexeme, e})
		case *ast.BinaryExpr:
			walkExpr(e.Left)
			walkExpr(e.Right)
		case *ast.CallExpr:
			walkExpr(e.Callee)
			for _, arg := range e.Arguments {
				walkExpr(arg)
			}
		case *ast.GetExpr:
			walkExpr(e.Object)
		case *ast.GroupingExpr:
			walkExpr(e.Expression)
		case *ast.LogicalExpr:
			walkExpr(e.Left)
			walkExpr(e.Right)
		case *ast.SetExpr:
			walkExpr(e.Object)
			walkExpr(e.Value)
		case *ast.ThisExpr:
			found = append(found, access{"this", e})
		case *ast.UnaryExpr:
			walkExpr(e.Right)
		case *ast.VariableExpr:
			found = append(found, access{e.Name.Lexeme, e})
		}
	}
	walkStmt = func(stmt ast.Stmt) {
		switch s := stmt.(type) {
		case *ast.BlockStmt:
			for _, inner := range s.Statements {
				walkStmt(inner)
			}
		case *ast.ClassStmt:
			for _, method := range s.Methods {
				walkStmt(method)
			}
		case *ast.ExpressionStmt:
			walkExpr(s.Expr)
		case *ast.FunctionStmt:
			for _, inner := range s.Body {
				walkStmt(inner)
			}
		case *ast.IfStmt:
			walkExpr(s.Condition)
			walkStmt(s.ThenBranch)
			if s.ElseBranch != nil {
				walkStmt(s.ElseBranch)
			}
		case *ast.PrintStmt:
			walkExpr(s.Expr)
		case *ast.ReturnStmt:
			if s.Value != nil {
				walkExpr(s.Value)
			}
		case *ast.VarStmt:
			if s.Initializer != nil {
				walkExpr(s.Initializer)
			}
		case *ast.WhileStmt:
			walkExpr(s.Condition)
			walkStmt(s.Body)
		}
	}

	for _, stmt := range stmts {
		walkStmt(stmt)
	}
	return found
}

// global marks an access that must be absent from the table.
const global = -1

func TestResolver_Distances(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []int
	}{
		{
			"globals are not recorded",
			"var a = 1; print a; a = 2;",
			[]int{global, global},
		},
		{
			"nested blocks",
			`var g = 0;
{ var a = 1; { var b = 2; { print a; print b; print g; b = a; } } }`,
			[]int{2, 1, global, 2, 1},
		},
		{
			"shadowing resolves to the innermost declaration",
			"{ var a = 1; { var a = 2; print a; } print a; }",
			[]int{0, 0},
		},
		{
			"function parameters and closures",
			`fun outer(p) {
  var l = p;
  fun inner() { return l + p; }
  return inner;
}`,
			[]int{0, 1, 1, 0},
		},
		{
			"desugared for loop",
			"for (var i = 0; i < 3; i = i + 1) { print i; }",
			[]int{0, 2, 1, 1},
		},
		{
			"this inside a method",
			"class A { m() { return this; } n() { { return this; } } }",
			[]int{1, 2},
		},
		{
			"recursive local function",
			"{ fun f(n) { return f(n); } }",
			[]int{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, locals, report := resolveSource(t, tt.source)
			if report.HadError() {
				t.Fatalf("unexpected errors: %v", report.Diagnostics())
			}

			var got []int
			for _, a := range collectAccesses(stmts) {
				distance, ok := locals[a.expr]
				if !ok {
					distance = global
				}
				got = append(got, distance)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("distances mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errors []string
	}{
		{
			"self reference in initializer",
			"{ var a = a; }",
			[]string{"[line 1] Error at 'a': Can't read local variable in its own initializer."},
		},
		{
			"global self reference is allowed",
			"var a = a;",
			nil,
		},
		{
			"duplicate local",
			"{ var a = 1; var a = 2; }",
			[]string{"[line 1] Error at 'a': Already a variable with this name in this scope."},
		},
		{
			"duplicate parameter",
			"fun f(a, a) {}",
			[]string{"[line 1] Error at 'a': Already a variable with this name in this scope."},
		},
		{
			"global redeclaration is allowed",
			"var a = 1; var a = 2;",
			nil,
		},
		{
			"top-level return",
			"return 1;",
			[]string{"[line 1] Error at 'return': Can't return from top-level code."},
		},
		{
			"return value from initializer",
			"class A { init() { return 1; } }",
			[]string{"[line 1] Error at 'return': Can't return a value from an initializer."},
		},
		{
			"bare return from initializer is allowed",
			"class A { init() { return; } }",
			nil,
		},
		{
			"this outside a class",
			"print this;\nfun f() { return this; }",
			[]string{
				"[line 1] Error at 'this': Can't use 'this' outside of a class.",
				"[line 2] Error at 'this': Can't use 'this' outside of a class.",
			},
		},
		{
			"break outside a loop",
			"break;",
			[]string{"[line 1] Error at 'break': Can't use 'break' outside of a loop."},
		},
		{
			"break inside a function inside a loop",
			"while (true) { fun f() { break; } }",
			[]string{"[line 1] Error at 'break': Can't use 'break' outside of a loop."},
		},
		{
			"break inside nested loops",
			"while (true) { for (;;) { if (true) break; } break; }",
			nil,
		},
		{
			"resolution continues after an error",
			"{ var a = a; var b = 1; var b = 2; }",
			[]string{
				"[line 1] Error at 'a': Can't read local variable in its own initializer.",
				"[line 1] Error at 'b': Already a variable with this name in this scope.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, report := resolveSource(t, tt.source)

			var got []string
			for _, d := range report.Diagnostics() {
				got = append(got, d.String())
			}
			if diff := cmp.Diff(tt.errors, got); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
