package parse

import (
	"github.com/chidiwilliams/treelox/ast"
	"github.com/chidiwilliams/treelox/diagnostics"
)

// maxArgs is the limit on parameters and arguments per call.
const maxArgs = 255

// parseError unwinds the parser to the enclosing declaration,
// where it is recovered and the parser synchronizes.
type parseError struct{}

// Parser parses a flat list of tokens into
// an AST representation of the source program
type Parser struct {
	tokens  []ast.Token
	current int
	report  *diagnostics.Collector
}

// New returns a new Parser that reads a list of tokens
// and reports syntax errors to report
func New(tokens []ast.Token, report *diagnostics.Collector) *Parser {
	return &Parser{tokens: tokens, report: report}
}

/**
Parser grammar:

	program      => declaration* EOF
	declaration  => classDecl | funDecl | varDecl | statement
	classDecl    => "class" IDENTIFIER "{" function* "}"
	funDecl      => "fun" function
	function     => IDENTIFIER "(" parameters? ")" block
	parameters   => IDENTIFIER ( "," IDENTIFIER )*
	varDecl      => "var" IDENTIFIER ( "=" expression )? ";"
	statement    => exprStmt | ifStmt | forStmt | printStmt | returnStmt | whileStmt
									| breakStmt | block
	exprStmt     => expression ";"
	ifStmt       => "if" "(" expression ")" statement ( "else" statement )?
	forStmt      => "for" "(" ( varDecl | exprStmt | ";" ) expression? ";" expression? ")" statement
	printStmt    => "print" expression ";"
	returnStmt   => "return" expression? ";"
	whileStmt    => "while" "(" expression ")" statement
	breakStmt    => "break" ";"
	block        => "{" declaration* "}" ;
	expression   => assignment
	assignment   => ( call "." )? IDENTIFIER "=" assignment | logic_or
	logic_or     => logic_and ( "or" logic_and )*
	logic_and    => equality ( "and" equality )*
	equality     => comparison ( ( "!=" | "==" ) comparison )*
	comparison   => term ( ( ">" | ">=" | "<" | "<=" ) term )*
	term         => factor ( ( "+" | "-" ) factor )*
	factor       => unary ( ( "/" | "*" ) unary )*
	unary        => ( "!" | "-" ) unary | call
	call         => primary ( "(" arguments? ")" | "." IDENTIFIER )*
	arguments    => expression ( "," expression )*
	primary      => NUMBER | STRING | "true" | "false" | "nil" | "this"
									| "(" expression ")" | IDENTIFIER

*/

// Parse reads the list of tokens and returns a list of statements
// representing the source program. Declarations with syntax errors
// are reported and left out of the result; callers must check the
// collector before running the program.
func (p *Parser) Parse() []ast.Stmt {
	var statements []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// ParseExpression parses the tokens as a single expression
// followed by EOF. It returns false if there was a syntax error.
func (p *Parser) ParseExpression() (expr ast.Expr, ok bool) {
	defer func() {
		if err := recover(); err != nil {
			if _, isParseErr := err.(parseError); !isParseErr {
				panic(err)
			}
			expr, ok = nil, false
		}
	}()

	expr = p.expression()
	if !p.isAtEnd() {
		panic(p.error(p.peek(), "Expect end of expression."))
	}
	return expr, !p.report.HadError()
}

// declaration parses declaration statements. A declaration statement is
// a class, function or variable declaration or a regular statement. If the
// statement contains a parse error, it skips to the start of the next
// statement and returns nil.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if err := recover(); err != nil {
			// If the error is a parseError, synchronize to
			// the next statement. If not, propagate the panic.
			if _, ok := err.(parseError); ok {
				p.synchronize()
				stmt = nil
			} else {
				panic(err)
			}
		}
	}()

	if p.match(ast.TokenClass) {
		return p.classDeclaration()
	}
	if p.match(ast.TokenFun) {
		return p.function("function")
	}
	if p.match(ast.TokenVar) {
		return p.varDeclaration()
	}
	return p.statement()
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consume(ast.TokenIdentifier, "Expect class name.")
	p.consume(ast.TokenLeftBrace, "Expect '{' before class body.")

	var methods []*ast.FunctionStmt
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(ast.TokenRightBrace, "Expect '}' after class body.")
	return &ast.ClassStmt{Name: name, Methods: methods}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.consume(ast.TokenIdentifier, "Expect variable name.")
	var initializer ast.Expr
	if p.match(ast.TokenEqual) {
		initializer = p.expression()
	}
	p.consume(ast.TokenSemicolon, "Expect ';' after variable declaration.")
	return &ast.VarStmt{Name: name, Initializer: initializer}
}

// statement parses statements. A statement can be a print, if, while,
// for, break, return, block or expression statement.
func (p *Parser) statement() ast.Stmt {
	if p.match(ast.TokenPrint) {
		return p.printStatement()
	}
	if p.match(ast.TokenLeftBrace) {
		return &ast.BlockStmt{Statements: p.block()}
	}
	if p.match(ast.TokenIf) {
		return p.ifStatement()
	}
	if p.match(ast.TokenWhile) {
		return p.whileStatement()
	}
	if p.match(ast.TokenFor) {
		return p.forStatement()
	}
	if p.match(ast.TokenBreak) {
		keyword := p.previous()
		p.consume(ast.TokenSemicolon, "Expect ';' after 'break'.")
		return &ast.BreakStmt{Keyword: keyword}
	}
	if p.match(ast.TokenReturn) {
		return p.returnStatement()
	}
	return p.expressionStatement()
}

// forStatement desugars a for loop into a while
// loop wrapped in a block with the initializer.
func (p *Parser) forStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	if p.match(ast.TokenSemicolon) {
		initializer = nil
	} else if p.match(ast.TokenVar) {
		initializer = p.varDeclaration()
	} else {
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(ast.TokenSemicolon) {
		condition = p.expression()
	}
	p.consume(ast.TokenSemicolon, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(ast.TokenRightParen) {
		increment = p.expression()
	}
	p.consume(ast.TokenRightParen, "Expect ')' after for clauses.")
	body := p.statement()

	if increment != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{body, &ast.ExpressionStmt{Expr: increment}}}
	}

	if condition == nil {
		condition = &ast.LiteralExpr{Value: true}
	}
	body = &ast.WhileStmt{Condition: condition, Body: body}

	if initializer != nil {
		body = &ast.BlockStmt{Statements: []ast.Stmt{initializer, body}}
	}

	return body
}

func (p *Parser) printStatement() ast.Stmt {
	expr := p.expression()
	p.consume(ast.TokenSemicolon, "Expect ';' after value.")
	return &ast.PrintStmt{Expr: expr}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(ast.TokenSemicolon) {
		value = p.expression()
	}
	p.consume(ast.TokenSemicolon, "Expect ';' after return value.")
	return &ast.ReturnStmt{Keyword: keyword, Value: value}
}

func (p *Parser) block() []ast.Stmt {
	var statements []ast.Stmt
	for !p.check(ast.TokenRightBrace) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.consume(ast.TokenRightBrace, "Expect '}' after block.")
	return statements
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(ast.TokenRightParen, "Expect ')' after if condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(ast.TokenElse) {
		elseBranch = p.statement()
	}

	return &ast.IfStmt{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.consume(ast.TokenLeftParen, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(ast.TokenRightParen, "Expect ')' after condition.")
	body := p.statement()
	return &ast.WhileStmt{Condition: condition, Body: body}
}

// expressionStatement parses expression statements
func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(ast.TokenSemicolon, "Expect ';' after expression.")
	return &ast.ExpressionStmt{Expr: expr}
}

func (p *Parser) function(kind string) *ast.FunctionStmt {
	name := p.consume(ast.TokenIdentifier, "Expect "+kind+" name.")
	p.consume(ast.TokenLeftParen, "Expect '(' after "+kind+" name.")

	var parameters []ast.Token
	if !p.check(ast.TokenRightParen) {
		for {
			if len(parameters) >= maxArgs {
				// reported, but parsing carries on
				p.error(p.peek(), "Can't have more than 255 parameters.")
			}
			parameters = append(parameters, p.consume(ast.TokenIdentifier, "Expect parameter name."))
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}
	p.consume(ast.TokenRightParen, "Expect ')' after parameters.")

	p.consume(ast.TokenLeftBrace, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: parameters, Body: body}
}

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(ast.TokenEqual) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{Object: target.Object, Name: target.Name, Value: value}
		}
		// reported without unwinding: the parser is not confused
		p.error(equals, "Invalid assignment target.")
	}

	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()

	for p.match(ast.TokenOr) {
		operator := p.previous()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()

	for p.match(ast.TokenAnd) {
		operator := p.previous()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Operator: operator, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	return p.binary(p.comparison, ast.TokenBangEqual, ast.TokenEqualEqual)
}

func (p *Parser) comparison() ast.Expr {
	return p.binary(p.term, ast.TokenGreater, ast.TokenGreaterEqual, ast.TokenLess, ast.TokenLessEqual)
}

func (p *Parser) term() ast.Expr {
	return p.binary(p.factor, ast.TokenMinus, ast.TokenPlus)
}

func (p *Parser) factor() ast.Expr {
	return p.binary(p.unary, ast.TokenSlash, ast.TokenStar)
}

// binary parses a left-associative chain of operands
// produced by next, joined by any of the given operators.
func (p *Parser) binary(next func() ast.Expr, operators ...ast.TokenType) ast.Expr {
	expr := next()

	for p.match(operators...) {
		operator := p.previous()
		right := next()
		expr = &ast.BinaryExpr{Left: expr, Operator: operator, Right: right}
	}

	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(ast.TokenBang, ast.TokenMinus) {
		operator := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Operator: operator, Right: right}
	}

	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		if p.match(ast.TokenLeftParen) {
			expr = p.finishCall(expr)
		} else if p.match(ast.TokenDot) {
			name := p.consume(ast.TokenIdentifier, "Expect property name after '.'.")
			expr = &ast.GetExpr{Object: expr, Name: name}
		} else {
			break
		}
	}

	return expr
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(ast.TokenRightParen) {
		for {
			if len(args) >= maxArgs {
				p.error(p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(ast.TokenComma) {
				break
			}
		}
	}
	paren := p.consume(ast.TokenRightParen, "Expect ')' after arguments.")
	return &ast.CallExpr{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(ast.TokenFalse):
		return &ast.LiteralExpr{Value: false}
	case p.match(ast.TokenTrue):
		return &ast.LiteralExpr{Value: true}
	case p.match(ast.TokenNil):
		return &ast.LiteralExpr{}
	case p.match(ast.TokenNumber, ast.TokenString):
		return &ast.LiteralExpr{Value: p.previous().Literal}
	case p.match(ast.TokenThis):
		return &ast.ThisExpr{Keyword: p.previous()}
	case p.match(ast.TokenIdentifier):
		return &ast.VariableExpr{Name: p.previous()}
	case p.match(ast.TokenLeftParen):
		expr := p.expression()
		p.consume(ast.TokenRightParen, "Expect ')' after expression.")
		return &ast.GroupingExpr{Expression: expr}
	}

	panic(p.error(p.peek(), "Expect expression."))
}

// consume checks that the next ast.Token is of the given ast.TokenType and then
// advances to the next token. If the check fails, it reports the error and
// unwinds to the enclosing declaration.
func (p *Parser) consume(tokenType ast.TokenType, message string) ast.Token {
	if p.check(tokenType) {
		return p.advance()
	}
	panic(p.error(p.peek(), message))
}

// error reports a syntax error at token. The returned
// value may be panicked to abandon the current declaration.
func (p *Parser) error(token ast.Token, message string) parseError {
	p.report.TokenError(diagnostics.KindParse, token, message)
	return parseError{}
}

// synchronize discards tokens until it reaches
// a likely boundary between two statements
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == ast.TokenSemicolon {
			return
		}

		switch p.peek().Type {
		case ast.TokenClass, ast.TokenFor, ast.TokenFun, ast.TokenIf,
			ast.TokenPrint, ast.TokenReturn, ast.TokenVar, ast.TokenWhile:
			return
		}

		p.advance()
	}
}

func (p *Parser) match(types ...ast.TokenType) bool {
	for _, tokenType := range types {
		if p.check(tokenType) {
			p.advance()
			return true
		}
	}

	return false
}

func (p *Parser) check(tokenType ast.TokenType) bool {
	if p.isAtEnd() {
		return false
	}

	return p.peek().Type == tokenType
}

func (p *Parser) advance() ast.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == ast.TokenEOF
}

func (p *Parser) peek() ast.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() ast.Token {
	return p.tokens[p.current-1]
}
