package interpret

import (
	"github.com/chidiwilliams/treelox/ast"
)

type Class struct {
	name    string
	methods map[string]*Function
}

// Arity returns the arity of the class's initializer, or 0 without one
func (c *Class) Arity() int {
	if initializer, ok := c.methods["init"]; ok {
		return initializer.Arity()
	}
	return 0
}

// Call creates a new instance and runs the initializer on it
func (c *Class) Call(interpreter *Interpreter, args []interface{}) (interface{}, error) {
	in := &Instance{class: c, fields: make(map[string]interface{})}

	if initializer, ok := c.methods["init"]; ok {
		if _, err := initializer.bind(in).Call(interpreter, args); err != nil {
			return nil, err
		}
	}

	return in, nil
}

func (c *Class) String() string {
	return c.name
}

// Instance is an instance of a class
type Instance struct {
	class  *Class
	fields map[string]interface{}
}

// Get returns the value of the field with the given name, or
// else the method with that name bound to this instance.
func (i *Instance) Get(name ast.Token) (interface{}, error) {
	if val, ok := i.fields[name.Lexeme]; ok {
		return val, nil
	}

	if method, ok := i.class.methods[name.Lexeme]; ok {
		return method.bind(i), nil
	}

	return nil, runtimeError(name, "Undefined property '%s'.", name.Lexeme)
}

// Set sets the value of a field, creating it if needed
func (i *Instance) Set(name ast.Token, value interface{}) {
	i.fields[name.Lexeme] = value
}

func (i *Instance) String() string {
	return i.class.name + " instance"
}
