package interpret

import (
	"time"

	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/env"
)

// Callable is a value that can be called: a function,
// a bound method, a class or a native function.
type Callable interface {
	Arity() int
	Call(in *Interpreter, args []interface{}) (interface{}, error)
}

var (
	_ Callable = (*Function)(nil)
	_ Callable = (*Class)(nil)
	_ Callable = (*Native)(nil)
)

// Function is a user-defined function or method together
// with the environment it was declared in.
type Function struct {
	declaration   *ast.FunctionStmt
	closure       *env.Environment
	isInitializer bool
}

func (f *Function) Arity() int {
	return len(f.declaration.Params)
}

// Call runs the function body in a new environment holding the
// arguments. An initializer always returns its instance.
func (f *Function) Call(interpreter *Interpreter, args []interface{}) (interface{}, error) {
	environment := env.New(f.closure)
	for i, param := range f.declaration.Params {
		environment.Define(param.Lexeme, args[i])
	}

	result, err := interpreter.executeBlock(f.declaration.Body, environment)
	if err != nil {
		return nil, err
	}

	if f.isInitializer {
		return f.closure.GetAt(0, "this"), nil
	}
	if result.kind == flowReturn {
		return result.value, nil
	}
	return nil, nil
}

// bind returns a copy of the method whose
// closure defines "this" as the instance
func (f *Function) bind(i *Instance) *Function {
	environment := env.New(f.closure)
	environment.Define("this", i)
	return &Function{
		declaration:   f.declaration,
		closure:       environment,
		isInitializer: f.isInitializer,
	}
}

func (f *Function) String() string {
	return "<fn " + f.declaration.Name.Lexeme + ">"
}

// Native is a function implemented in Go.
type Native struct {
	name  string
	arity int
	fn    func(args []interface{}) (interface{}, error)
}

func (n *Native) Arity() int {
	return n.arity
}

func (n *Native) Call(_ *Interpreter, args []interface{}) (interface{}, error) {
	return n.fn(args)
}

func (n *Native) String() string {
	return "<native fn>"
}

// clock returns the number of seconds since the Unix epoch
var clock = &Native{
	name:  "clock",
	arity: 0,
	fn: func(_ []interface{}) (interface{}, error) {
		return float64(time.Now().UnixNano()) / float64(time.Second), nil
	},
}

var natives = []*Native{clock}
