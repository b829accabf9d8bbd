package ast

// Stmt is a statement node. Like Expr, the set of
// statement kinds is closed to this package.
type Stmt interface {
	stmtNode()
}

type BlockStmt struct {
	Statements []Stmt
}

type BreakStmt struct {
	Keyword Token
}

// ClassStmt declares a class. Fields are not declared
// up front; instances gain them on assignment.
type ClassStmt struct {
	Name    Token
	Methods []*FunctionStmt
}

type ExpressionStmt struct {
	Expr Expr
}

type FunctionStmt struct {
	Name   Token
	Params []Token
	Body   []Stmt
}

// IfStmt has a nil ElseBranch when there is no else clause.
type IfStmt struct {
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt
}

type PrintStmt struct {
	Expr Expr
}

// ReturnStmt has a nil Value for a bare "return;".
type ReturnStmt struct {
	Keyword Token
	Value   Expr
}

type VarStmt struct {
	Name        Token
	Initializer Expr
}

type WhileStmt struct {
	Condition Expr
	Body      Stmt
}

func (*BlockStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()      {}
func (*ClassStmt) stmtNode()      {}
func (*ExpressionStmt) stmtNode() {}
func (*FunctionStmt) stmtNode()   {}
func (*IfStmt) stmtNode()         {}
func (*PrintStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()     {}
func (*VarStmt) stmtNode()        {}
func (*WhileStmt) stmtNode()      {}
