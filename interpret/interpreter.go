package interpret

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/env"
	"github.com/chidiwilliams/treelox/resolve"
)

type flowKind int

const (
	flowNormal flowKind = iota
	flowBreak
	flowReturn
)

// flow is how a statement finished. A break or return travels
// up the Go call stack as a value until the loop or function
// call that handles it.
type flow struct {
	kind  flowKind
	value interface{}
}

var normal = flow{}

// Interpreter holds the globals and current execution
// environment for a program to be executed
type Interpreter struct {
	// current execution environment
	environment *env.Environment
	// global variables, shared by every program run
	// on this interpreter
	globals *env.Environment
	// standard output
	stdOut io.Writer
	// distance from each local variable access to its declaration
	locals resolve.Locals
}

// New sets up a new interpreter whose globals hold the native functions
func New(stdOut io.Writer) *Interpreter {
	globals := env.New(nil)
	for _, native := range natives {
		globals.Define(native.name, native)
	}

	return &Interpreter{
		globals:     globals,
		environment: globals,
		stdOut:      stdOut,
		locals:      make(resolve.Locals),
	}
}

// Interpret executes a resolved program in the global environment. It
// stops at the first runtime error and returns it as a *RuntimeError.
func (in *Interpreter) Interpret(stmts []ast.Stmt, locals resolve.Locals) error {
	in.addLocals(locals)

	for _, statement := range stmts {
		result, err := in.execute(statement)
		if err != nil {
			return err
		}
		if result.kind != flowNormal {
			panic(fmt.Sprintf("interpret: unresolved %s at top level", result.kind))
		}
	}
	return nil
}

// Evaluate evaluates a single resolved expression in the global environment
func (in *Interpreter) Evaluate(expr ast.Expr, locals resolve.Locals) (interface{}, error) {
	in.addLocals(locals)
	return in.evaluate(expr)
}

func (in *Interpreter) addLocals(locals resolve.Locals) {
	for expr, distance := range locals {
		in.locals[expr] = distance
	}
}

func (in *Interpreter) execute(stmt ast.Stmt) (flow, error) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		return in.executeBlock(s.Statements, env.New(in.environment))

	case *ast.BreakStmt:
		return flow{kind: flowBreak}, nil

	case *ast.ClassStmt:
		methods := make(map[string]*Function, len(s.Methods))
		for _, method := range s.Methods {
			methods[method.Name.Lexeme] = &Function{
				declaration:   method,
				closure:       in.environment,
				isInitializer: method.Name.Lexeme == "init",
			}
		}
		in.environment.Define(s.Name.Lexeme, &Class{name: s.Name.Lexeme, methods: methods})
		return normal, nil

	case *ast.ExpressionStmt:
		_, err := in.evaluate(s.Expr)
		return normal, err

	case *ast.FunctionStmt:
		// the function closes over the environment it is declared in
		fn := &Function{declaration: s, closure: in.environment}
		in.environment.Define(s.Name.Lexeme, fn)
		return normal, nil

	case *ast.IfStmt:
		condition, err := in.evaluate(s.Condition)
		if err != nil {
			return normal, err
		}
		if isTruthy(condition) {
			return in.execute(s.ThenBranch)
		}
		if s.ElseBranch != nil {
			return in.execute(s.ElseBranch)
		}
		return normal, nil

	case *ast.PrintStmt:
		value, err := in.evaluate(s.Expr)
		if err != nil {
			return normal, err
		}
		_, _ = io.WriteString(in.stdOut, Stringify(value)+"\n")
		return normal, nil

	case *ast.ReturnStmt:
		var value interface{}
		if s.Value != nil {
			var err error
			if value, err = in.evaluate(s.Value); err != nil {
				return normal, err
			}
		}
		return flow{kind: flowReturn, value: value}, nil

	case *ast.VarStmt:
		var value interface{}
		if s.Initializer != nil {
			var err error
			if value, err = in.evaluate(s.Initializer); err != nil {
				return normal, err
			}
		}
		in.environment.Define(s.Name.Lexeme, value)
		return normal, nil

	case *ast.WhileStmt:
		return in.executeWhile(s)
	}

	panic(fmt.Sprintf("interpret: unknown statement %T", stmt))
}

func (in *Interpreter) executeWhile(stmt *ast.WhileStmt) (flow, error) {
	for {
		condition, err := in.evaluate(stmt.Condition)
		if err != nil {
			return normal, err
		}
		if !isTruthy(condition) {
			return normal, nil
		}

		result, err := in.execute(stmt.Body)
		if err != nil {
			return normal, err
		}
		switch result.kind {
		case flowBreak:
			return normal, nil
		case flowReturn:
			return result, nil
		}
	}
}

// executeBlock runs statements in the given environment and
// restores the current environment however the block exits.
func (in *Interpreter) executeBlock(statements []ast.Stmt, environment *env.Environment) (flow, error) {
	previous := in.environment
	defer func() {
		in.environment = previous
	}()

	in.environment = environment
	for _, statement := range statements {
		result, err := in.execute(statement)
		if err != nil || result.kind != flowNormal {
			return result, err
		}
	}
	return normal, nil
}

func (in *Interpreter) evaluate(expr ast.Expr) (interface{}, error) {
	switch e := expr.(type) {
	case *ast.AssignExpr:
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := in.locals[e]; ok {
			in.environment.AssignAt(distance, e.Name.Lexeme, value)
			return value, nil
		}
		if err := in.globals.Assign(e.Name.Lexeme, value); err != nil {
			return nil, in.undefined(e.Name, err)
		}
		return value, nil

	case *ast.BinaryExpr:
		return in.evaluateBinary(e)

	case *ast.CallExpr:
		return in.evaluateCall(e)

	case *ast.GetExpr:
		object, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		if instance, ok := object.(*Instance); ok {
			return instance.Get(e.Name)
		}
		return nil, runtimeError(e.Name, "Only instances have properties.")

	case *ast.GroupingExpr:
		return in.evaluate(e.Expression)

	case *ast.LiteralExpr:
		return e.Value, nil

	case *ast.LogicalExpr:
		left, err := in.evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == ast.TokenOr {
			if isTruthy(left) {
				return left, nil
			}
		} else if !isTruthy(left) { // and
			return left, nil
		}
		return in.evaluate(e.Right)

	case *ast.SetExpr:
		object, err := in.evaluate(e.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := object.(*Instance)
		if !ok {
			return nil, runtimeError(e.Name, "Only instances have fields.")
		}
		value, err := in.evaluate(e.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name, value)
		return value, nil

	case *ast.ThisExpr:
		return in.lookupVariable(e.Keyword, e)

	case *ast.UnaryExpr:
		right, err := in.evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Operator.Type {
		case ast.TokenBang:
			return !isTruthy(right), nil
		case ast.TokenMinus:
			n, ok := right.(float64)
			if !ok {
				return nil, runtimeError(e.Operator, "Operand must be a number.")
			}
			return -n, nil
		}
		return nil, nil

	case *ast.VariableExpr:
		return in.lookupVariable(e.Name, e)
	}

	panic(fmt.Sprintf("interpret: unknown expression %T", expr))
}

func (in *Interpreter) evaluateBinary(expr *ast.BinaryExpr) (interface{}, error) {
	left, err := in.evaluate(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evaluate(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator.Type {
	case ast.TokenEqualEqual:
		return isEqual(left, right), nil
	case ast.TokenBangEqual:
		return !isEqual(left, right), nil
	case ast.TokenPlus:
		if l, ok := left.(float64); ok {
			if r, ok := right.(float64); ok {
				return l + r, nil
			}
		}
		if l, ok := left.(string); ok {
			if r, ok := right.(string); ok {
				return l + r, nil
			}
		}
		return nil, runtimeError(expr.Operator, "Operands must be two numbers or two strings.")
	}

	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return nil, runtimeError(expr.Operator, "Operands must be numbers.")
	}

	switch expr.Operator.Type {
	case ast.TokenMinus:
		return l - r, nil
	case ast.TokenSlash:
		return l / r, nil
	case ast.TokenStar:
		return l * r, nil
	case ast.TokenGreater:
		return l > r, nil
	case ast.TokenGreaterEqual:
		return l >= r, nil
	case ast.TokenLess:
		return l < r, nil
	case ast.TokenLessEqual:
		return l <= r, nil
	}
	return nil, nil
}

func (in *Interpreter) evaluateCall(expr *ast.CallExpr) (interface{}, error) {
	callee, err := in.evaluate(expr.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, len(expr.Arguments))
	for i, arg := range expr.Arguments {
		if args[i], err = in.evaluate(arg); err != nil {
			return nil, err
		}
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeError(expr.Paren, "Can only call functions and classes.")
	}

	if len(args) != fn.Arity() {
		return nil, runtimeError(expr.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	return fn.Call(in, args)
}

// lookupVariable returns the value of a variable. A resolved local is
// read from the environment exactly distance hops up the chain;
// anything else is a global.
func (in *Interpreter) lookupVariable(name ast.Token, expr ast.Expr) (interface{}, error) {
	if distance, ok := in.locals[expr]; ok {
		scope := in.environment.Ancestor(distance)
		if !scope.Has(name.Lexeme) {
			return nil, runtimeError(name, "Undefined variable '%s'.", name.Lexeme)
		}
		return scope.GetAt(0, name.Lexeme), nil
	}

	val, err := in.globals.Get(name.Lexeme)
	if err != nil {
		return nil, in.undefined(name, err)
	}
	return val, nil
}

func (in *Interpreter) undefined(name ast.Token, err error) error {
	if errors.Is(err, env.ErrUndefined) {
		return runtimeError(name, "Undefined variable '%s'.", name.Lexeme)
	}
	return err
}

func (k flowKind) String() string {
	switch k {
	case flowBreak:
		return "break"
	case flowReturn:
		return "return"
	}
	return "normal"
}

// isTruthy reports whether a value counts as true:
// everything but nil and false does
func isTruthy(val interface{}) bool {
	if val == nil {
		return false
	}
	if v, ok := val.(bool); ok {
		return v
	}
	return true
}

// isEqual compares values of the same type; a NaN equals itself
func isEqual(a, b interface{}) bool {
	if x, ok := a.(float64); ok {
		if y, ok := b.(float64); ok {
			return x == y || (math.IsNaN(x) && math.IsNaN(y))
		}
		return false
	}
	return a == b
}

// Stringify formats a value the way print shows it
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
