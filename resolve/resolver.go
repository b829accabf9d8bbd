package resolve

import (
	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/diagnostics"
)

// Locals maps each resolved variable, assignment and "this"
// expression to the number of scopes between its use and its
// declaration. Expressions missing from the table are globals.
type Locals map[ast.Expr]int

type functionType int

const (
	functionTypeNone functionType = iota
	functionTypeFunction
	functionTypeMethod
	functionTypeInitializer
)

type classType int

const (
	classTypeNone classType = iota
	classTypeClass
)

// scope describes the local variables declared in one block. A name
// maps to false while its initializer is being resolved and to true
// once it is defined.
type scope map[string]bool

type scopes []scope

func (s *scopes) peek() scope {
	return (*s)[len(*s)-1]
}

func (s *scopes) push(scope scope) {
	*s = append(*s, scope)
}

func (s *scopes) pop() {
	*s = (*s)[:len(*s)-1]
}

// Resolver resolves local variables in a program. It records,
// for each local variable access, how many scopes separate the
// access from the variable's declaration.
type Resolver struct {
	// scopes is a stack of scope-s. The global
	// scope is not tracked.
	scopes scopes
	// currentFunction is the functionType of the
	// current enclosing function. The Resolver uses
	// the field to report an error when a return
	// statement appears outside a function
	currentFunction functionType
	// the classType of the current enclosing class, used
	// to report an error when "this" appears outside a class
	currentClass classType
	// loopDepth counts the loops enclosing the current
	// statement within the current function
	loopDepth int
	locals    Locals
	report    *diagnostics.Collector
}

// New returns a new Resolver that reports errors to report
func New(report *diagnostics.Collector) *Resolver {
	return &Resolver{report: report, locals: make(Locals)}
}

// Resolve resolves all the local variables in a list of statements
// and returns the resolution table. Resolution carries on past errors,
// so the table is complete even when report has errors.
func (r *Resolver) Resolve(statements []ast.Stmt) Locals {
	r.resolveStmts(statements)
	return r.locals
}

func (r *Resolver) resolveStmts(statements []ast.Stmt) {
	for _, statement := range statements {
		r.resolveStmt(statement)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()

	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.error(s.Keyword, "Can't use 'break' outside of a loop.")
		}

	case *ast.ClassStmt:
		r.resolveClass(s)

	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)

	case *ast.FunctionStmt:
		// define the name eagerly so the function can refer to itself
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, functionTypeFunction)

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.ThenBranch)
		if s.ElseBranch != nil {
			r.resolveStmt(s.ElseBranch)
		}

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.ReturnStmt:
		if r.currentFunction == functionTypeNone {
			r.error(s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == functionTypeInitializer {
				r.error(s.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpr(s.Value)
		}

	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name)

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.loopDepth++
		r.resolveStmt(s.Body)
		r.loopDepth--
	}
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, argument := range e.Arguments {
			r.resolveExpr(argument)
		}

	case *ast.GetExpr:
		// properties are looked up dynamically
		r.resolveExpr(e.Object)

	case *ast.GroupingExpr:
		r.resolveExpr(e.Expression)

	case *ast.LiteralExpr:

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.ThisExpr:
		if r.currentClass == classTypeNone {
			r.error(e.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, e.Keyword)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Right)

	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			// declared but not yet defined: we are inside its own initializer
			if defined, declared := r.scopes.peek()[e.Name.Lexeme]; declared && !defined {
				r.error(e.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name)
	}
}

func (r *Resolver) resolveClass(stmt *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classTypeClass
	defer func() { r.currentClass = enclosingClass }()

	r.declare(stmt.Name)
	r.define(stmt.Name)

	// methods are bound to an environment holding only "this"
	r.beginScope()
	r.scopes.peek()["this"] = true

	for _, method := range stmt.Methods {
		declaration := functionTypeMethod
		if method.Name.Lexeme == "init" {
			declaration = functionTypeInitializer
		}
		r.resolveFunction(method, declaration)
	}

	r.endScope()
}

// resolveFunction resolves a function declaration. It begins a new scope
// for the parameters and resolves the function body within that scope.
func (r *Resolver) resolveFunction(function *ast.FunctionStmt, fnType functionType) {
	// change the current function type and save it back
	enclosingFunction := r.currentFunction
	enclosingLoopDepth := r.loopDepth
	r.currentFunction = fnType
	r.loopDepth = 0
	defer func() {
		r.currentFunction = enclosingFunction
		r.loopDepth = enclosingLoopDepth
	}()

	r.beginScope()
	for _, param := range function.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(function.Body)
	r.endScope()
}

// beginScope pushes a new scope to the stack
func (r *Resolver) beginScope() {
	r.scopes.push(make(scope))
}

// endScope pops the current scope
func (r *Resolver) endScope() {
	r.scopes.pop()
}

// declare a variable name within the current scope.
// If a variable with the same name is already declared
// in the current scope, it reports an error.
func (r *Resolver) declare(name ast.Token) {
	// if at the global scope, return
	if len(r.scopes) == 0 {
		return
	}

	sc := r.scopes.peek()
	if _, declared := sc[name.Lexeme]; declared {
		r.error(name, "Already a variable with this name in this scope.")
	}

	sc[name.Lexeme] = false
}

// define a variable name within the current scope
func (r *Resolver) define(name ast.Token) {
	// at global scope, no need to do anything
	if len(r.scopes) == 0 {
		return
	}

	r.scopes.peek()[name.Lexeme] = true
}

// resolveLocal resolves a local variable or assignment expression. It
// looks through the scope stack and records the "depth" of the variable:
// the number of scopes between the scope where the variable is accessed
// and the scope where the variable was declared.
func (r *Resolver) resolveLocal(expr ast.Expr, name ast.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, declared := r.scopes[i][name.Lexeme]; declared {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) error(token ast.Token, message string) {
	r.report.TokenError(diagnostics.KindResolve, token, message)
}
