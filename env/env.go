package env

import (
	"errors"
)

// ErrUndefined is returned when retrieving or assigning to an undefined variable
var ErrUndefined = errors.New("undefined variable")

// Environment holds a map of key-value pairs as
// well as a reference to an enclosing environment.
//
// Environments are always shared by pointer: a function value keeps
// the environment it was declared in alive after the block or call
// that created it has returned.
type Environment struct {
	Enclosing *Environment
	values    map[string]interface{}
}

// New returns a new environment enclosed by the given environment.
// The global environment has a nil enclosing environment.
func New(enclosing *Environment) *Environment {
	return &Environment{Enclosing: enclosing, values: make(map[string]interface{})}
}

// Define stores a new key-value pair. Redefining
// an existing name overwrites its value.
func (e *Environment) Define(name string, value interface{}) {
	e.values[name] = value
}

// Assign sets the value of an existing key. If the key doesn't exist in
// this environment, it checks the enclosing environment and tries to assign
// the value there. If there are no other enclosing environments to check
// and the key has not been found, it returns an ErrUndefined.
func (e *Environment) Assign(name string, value interface{}) error {
	if _, ok := e.values[name]; ok {
		e.values[name] = value
		return nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Assign(name, value)
	}
	return ErrUndefined
}

// AssignAt sets the value of the key-value pair at a given distance from this environment
func (e *Environment) AssignAt(distance int, name string, value interface{}) {
	e.Ancestor(distance).values[name] = value
}

// Has returns true if a key-value pair with the given name
// exists in this environment, ignoring enclosing environments
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Get returns the value of the pair with the given name
// in this environment or its enclosing environments. If
// there are no other enclosing environments and the value
// has not been found, it returns an ErrUndefined.
func (e *Environment) Get(name string) (interface{}, error) {
	if val, ok := e.values[name]; ok {
		return val, nil
	}
	if e.Enclosing != nil {
		return e.Enclosing.Get(name)
	}
	return nil, ErrUndefined
}

// GetAt returns the value of the key-value pair at a given distance from this environment
func (e *Environment) GetAt(distance int, name string) interface{} {
	return e.Ancestor(distance).values[name]
}

// Ancestor returns the environment at a given enclosing distance from this environment
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.Enclosing
	}
	return env
}
