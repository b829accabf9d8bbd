package ast

import (
	"strconv"
	"strings"
)

// Print returns a parenthesized prefix representation of an expression,
// e.g. "(* (- 123) (group 45.67))" for "-123 * (45.67)".
func Print(expr Expr) string {
	var p printer
	p.expr(expr)
	return p.String()
}

// PrintStatement returns the parenthesized representation of a statement.
func PrintStatement(stmt Stmt) string {
	var p printer
	p.stmt(stmt)
	return p.String()
}

// PrintProgram renders each statement on its own line.
func PrintProgram(stmts []Stmt) string {
	lines := make([]string, len(stmts))
	for i, stmt := range stmts {
		lines[i] = PrintStatement(stmt)
	}
	return strings.Join(lines, "\n")
}

type printer struct {
	strings.Builder
}

func (p *printer) expr(expr Expr) {
	switch e := expr.(type) {
	case *AssignExpr:
		p.parenthesize("= "+e.Name.Lexeme, e.Value)
	case *BinaryExpr:
		p.parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *CallExpr:
		p.parenthesize("call", append([]Expr{e.Callee}, e.Arguments...)...)
	case *GetExpr:
		p.parenthesize(". "+e.Name.Lexeme, e.Object)
	case *GroupingExpr:
		p.parenthesize("group", e.Expression)
	case *LiteralExpr:
		p.WriteString(literalString(e.Value, false))
	case *LogicalExpr:
		p.parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *SetExpr:
		p.parenthesize("= . "+e.Name.Lexeme, e.Object, e.Value)
	case *ThisExpr:
		p.WriteString(e.Keyword.Lexeme)
	case *UnaryExpr:
		p.parenthesize(e.Operator.Lexeme, e.Right)
	case *VariableExpr:
		p.WriteString(e.Name.Lexeme)
	}
}

func (p *printer) stmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *BlockStmt:
		p.WriteString("(block")
		for _, inner := range s.Statements {
			p.WriteByte(' ')
			p.stmt(inner)
		}
		p.WriteByte(')')
	case *BreakStmt:
		p.WriteString("(break)")
	case *ClassStmt:
		p.WriteString("(class " + s.Name.Lexeme)
		for _, method := range s.Methods {
			p.WriteByte(' ')
			p.stmt(method)
		}
		p.WriteByte(')')
	case *ExpressionStmt:
		p.parenthesize(";", s.Expr)
	case *FunctionStmt:
		p.WriteString("(fun " + s.Name.Lexeme + "(")
		for i, param := range s.Params {
			if i > 0 {
				p.WriteByte(' ')
			}
			p.WriteString(param.Lexeme)
		}
		p.WriteByte(')')
		for _, inner := range s.Body {
			p.WriteByte(' ')
			p.stmt(inner)
		}
		p.WriteByte(')')
	case *IfStmt:
		p.WriteString("(if ")
		p.expr(s.Condition)
		p.WriteByte(' ')
		p.stmt(s.ThenBranch)
		if s.ElseBranch != nil {
			p.WriteByte(' ')
			p.stmt(s.ElseBranch)
		}
		p.WriteByte(')')
	case *PrintStmt:
		p.parenthesize("print", s.Expr)
	case *ReturnStmt:
		if s.Value == nil {
			p.WriteString("(return)")
		} else {
			p.parenthesize("return", s.Value)
		}
	case *VarStmt:
		if s.Initializer == nil {
			p.WriteString("(var " + s.Name.Lexeme + ")")
		} else {
			p.parenthesize("var "+s.Name.Lexeme, s.Initializer)
		}
	case *WhileStmt:
		p.WriteString("(while ")
		p.expr(s.Condition)
		p.WriteByte(' ')
		p.stmt(s.Body)
		p.WriteByte(')')
	}
}

func (p *printer) parenthesize(name string, exprs ...Expr) {
	p.WriteString("(" + name)
	for _, expr := range exprs {
		p.WriteByte(' ')
		p.expr(expr)
	}
	p.WriteByte(')')
}

// Source renders an expression back into source text. Parentheses
// appear only where the tree has a GroupingExpr, so parsing the
// result of Source yields a tree equal to the one it was given.
func Source(expr Expr) string {
	var b strings.Builder
	writeSource(&b, expr)
	return b.String()
}

func writeSource(b *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case *AssignExpr:
		b.WriteString(e.Name.Lexeme + " = ")
		writeSource(b, e.Value)
	case *BinaryExpr:
		writeSource(b, e.Left)
		b.WriteString(" " + e.Operator.Lexeme + " ")
		writeSource(b, e.Right)
	case *CallExpr:
		writeSource(b, e.Callee)
		b.WriteByte('(')
		for i, arg := range e.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			writeSource(b, arg)
		}
		b.WriteByte(')')
	case *GetExpr:
		writeSource(b, e.Object)
		b.WriteString("." + e.Name.Lexeme)
	case *GroupingExpr:
		b.WriteByte('(')
		writeSource(b, e.Expression)
		b.WriteByte(')')
	case *LiteralExpr:
		b.WriteString(literalString(e.Value, true))
	case *LogicalExpr:
		writeSource(b, e.Left)
		b.WriteString(" " + e.Operator.Lexeme + " ")
		writeSource(b, e.Right)
	case *SetExpr:
		writeSource(b, e.Object)
		b.WriteString("." + e.Name.Lexeme + " = ")
		writeSource(b, e.Value)
	case *ThisExpr:
		b.WriteString(e.Keyword.Lexeme)
	case *UnaryExpr:
		b.WriteString(e.Operator.Lexeme)
		writeSource(b, e.Right)
	case *VariableExpr:
		b.WriteString(e.Name.Lexeme)
	}
}

func literalString(value interface{}, quote bool) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if quote {
			return `"` + v + `"`
		}
		return v
	}
	return ""
}
