package ast

// Expr is an expression node. The set of expression
// kinds is closed: only types in this package implement it.
type Expr interface {
	exprNode()
}

type AssignExpr struct {
	Name  Token
	Value Expr
}

type BinaryExpr struct {
	Left     Expr
	Operator Token
	Right    Expr
}

// CallExpr is a function or class call. Paren is the closing
// parenthesis, kept to report runtime errors at the call site.
type CallExpr struct {
	Callee    Expr
	Paren     Token
	Arguments []Expr
}

type GetExpr struct {
	Object Expr
	Name   Token
}

type GroupingExpr struct {
	Expression Expr
}

type LiteralExpr struct {
	Value interface{}
}

// LogicalExpr is a short-circuiting "and" or "or".
type LogicalExpr struct {
	Left     Expr
	Operator Token
	Right    Expr
}

type SetExpr struct {
	Object Expr
	Name   Token
	Value  Expr
}

type ThisExpr struct {
	Keyword Token
}

type UnaryExpr struct {
	Operator Token
	Right    Expr
}

type VariableExpr struct {
	Name Token
}

func (*AssignExpr) exprNode()   {}
func (*BinaryExpr) exprNode()   {}
func (*CallExpr) exprNode()     {}
func (*GetExpr) exprNode()      {}
func (*GroupingExpr) exprNode() {}
func (*LiteralExpr) exprNode()  {}
func (*LogicalExpr) exprNode()  {}
func (*SetExpr) exprNode()      {}
func (*ThisExpr) exprNode()     {}
func (*UnaryExpr) exprNode()    {}
func (*VariableExpr) exprNode() {}
