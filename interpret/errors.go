package interpret

import (
	"fmt"

	"github.com/chidiwilliams/treelox/ast"
)

// RuntimeError is an error that aborts evaluation. Token
// locates the operator, name or call that failed.
type RuntimeError struct {
	Token   ast.Token
	Message string
}

func (r *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", r.Message, r.Token.Line)
}

func runtimeError(token ast.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: token, Message: fmt.Sprintf(format, args...)}
}
