package main

import (
	"io"
	"log"
	"strings"
)

// Binary operators accepted at the Expr level.
var exprOperators = map[string]bool{
	"+": true, "-": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

// Binary operators accepted at the Term level.
var termOperators = map[string]bool{
	"*": true, "/": true,
}

// Words that start a statement with a dedicated form.
var statementKeywords = map[string]bool{
	"if": true, "else": true, "return": true, "pass": true,
}

// Words that start a variable declaration.
var typeKeywords = map[string]bool{
	"int": true, "auto": true,
}

type token struct {
	text string
	line int
}

// Parser is a predictive recursive-descent parser over a Lexer. It buffers
// up to three tokens of lookahead and never backtracks.
type Parser struct {
	lexer  *Lexer
	tokens []token
	trace  *log.Logger
}

// NewParser returns a parser reading from l. Applied grammar rules are
// logged to trace; nil discards them.
func NewParser(l *Lexer, trace io.Writer) *Parser {
	if trace == nil {
		trace = io.Discard
	}
	p := &Parser{
		lexer: l,
		trace: log.New(trace, "[TRACE] ", 0),
	}
	p.prefetch()
	return p
}

// Parse tokenizes and parses a whole program.
func Parse(src string, trace io.Writer) (*Node, error) {
	return NewParser(NewLexer(src), trace).ParseProgram()
}

// ParseExpression parses src as a single expression.
func ParseExpression(src string, trace io.Writer) (*Node, error) {
	p := NewParser(NewLexer(src), trace)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(0); tok != "" {
		return nil, p.errorf("expected end of input but got %q", tok)
	}
	return expr, nil
}

func (p *Parser) prefetch() {
	text := p.lexer.NextToken()
	p.tokens = append(p.tokens, token{text: text, line: p.lexer.Line()})
}

// peek returns the i-th pending token, fetching as needed.
func (p *Parser) peek(i int) string {
	for len(p.tokens) <= i {
		p.prefetch()
	}
	return p.tokens[i].text
}

func (p *Parser) consume() {
	if len(p.tokens) <= 1 {
		p.prefetch()
	}
	p.tokens = p.tokens[1:]
}

func (p *Parser) rule(format string, args ...any) {
	p.trace.Printf(format, args...)
}

func (p *Parser) errorf(format string, args ...any) *CompileError {
	return errorf(ErrSyntax, p.tokens[0].line, format, args...)
}

func describe(tok string) string {
	if tok == "" {
		return "end of input"
	}
	return "\"" + tok + "\""
}

// expect consumes tok or reports what was found instead.
func (p *Parser) expect(production, tok string) error {
	if got := p.peek(0); got != tok {
		return p.errorf("%s: expected %q but got %s", production, tok, describe(got))
	}
	p.consume()
	return nil
}

func isName(tok string) bool {
	if tok == "" {
		return false
	}
	for _, ch := range tok {
		if !isIdentChar(ch) {
			return false
		}
	}
	return !isDigit([]rune(tok)[0])
}

// ParseProgram parses Program := Function FunctionTail.
func (p *Parser) ParseProgram() (*Node, error) {
	p.rule("Program -> Function FunctionTail")
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	tail, err := p.parseFunctionTail()
	if err != nil {
		return nil, err
	}
	return newNode(NodeProgram, fn, tail), nil
}

func (p *Parser) parseFunctionTail() (*Node, error) {
	if p.peek(0) == "" {
		p.rule("FunctionTail -> ε")
		return newNode(NodeFunctionTail, epsilon()), nil
	}
	p.rule("FunctionTail -> Function FunctionTail")
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	tail, err := p.parseFunctionTail()
	if err != nil {
		return nil, err
	}
	return newNode(NodeFunctionTail, fn, tail), nil
}

func (p *Parser) parseFunction() (*Node, error) {
	p.rule("Function -> Type Identifier Params Body")
	line := p.tokens[0].line
	typ, err := p.parseName(NodeType, "type")
	if err != nil {
		return nil, err
	}
	id, err := p.parseName(NodeIdentifier, "identifier")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	fn := newNode(NodeFunction, typ, id, params, body)
	fn.Line = line
	return fn, nil
}

// parseName reads a Type or Identifier terminal.
func (p *Parser) parseName(kind NodeKind, what string) (*Node, error) {
	tok := p.peek(0)
	if !isName(tok) {
		return nil, p.errorf("expected %s but got %s", what, describe(tok))
	}
	p.rule("%s -> %s", kind, tok)
	p.consume()
	return newLeaf(kind, tok), nil
}

func (p *Parser) parseParams() (*Node, error) {
	p.rule("Params -> ( ParamList )")
	if err := p.expect("Params", "("); err != nil {
		return nil, err
	}
	list, err := p.parseParamList(NodeParamList)
	if err != nil {
		return nil, err
	}
	if err := p.expect("Params", ")"); err != nil {
		return nil, err
	}
	return newNode(NodeParams, list), nil
}

// parseParamList handles both ParamList and ParamTail; the tail form
// requires a leading comma.
func (p *Parser) parseParamList(kind NodeKind) (*Node, error) {
	if p.peek(0) == ")" {
		p.rule("%s -> ε", kind)
		return newNode(kind, epsilon()), nil
	}
	if kind == NodeParamTail {
		p.rule("ParamTail -> , Type Identifier ParamTail")
		if err := p.expect("ParamTail", ","); err != nil {
			return nil, err
		}
	} else {
		p.rule("ParamList -> Type Identifier ParamTail")
	}
	typ, err := p.parseName(NodeType, "parameter type")
	if err != nil {
		return nil, err
	}
	id, err := p.parseName(NodeIdentifier, "parameter name")
	if err != nil {
		return nil, err
	}
	tail, err := p.parseParamList(NodeParamTail)
	if err != nil {
		return nil, err
	}
	return newNode(kind, typ, id, tail), nil
}

func (p *Parser) parseBody() (*Node, error) {
	p.rule("Body -> { StmtList }")
	list, err := p.parseBlock("Body")
	if err != nil {
		return nil, err
	}
	return newNode(NodeBody, list), nil
}

// parseBlock parses '{' StmtList '}'.
func (p *Parser) parseBlock(production string) (*Node, error) {
	if err := p.expect(production, "{"); err != nil {
		return nil, err
	}
	list, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(production, "}"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseStmtList() (*Node, error) {
	if tok := p.peek(0); tok == "}" || tok == "" {
		p.rule("StmtList -> ε")
		return newNode(NodeStmtList, epsilon()), nil
	}
	p.rule("StmtList -> Stmt StmtList")
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	rest, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	return newNode(NodeStmtList, stmt, rest), nil
}

// parseStmt picks a statement form from at most three tokens of lookahead.
// Keyword-led forms are decided by the first token alone, so a "pass"
// followed by "x = 1" is not mistaken for a definition of type "pass".
func (p *Parser) parseStmt() (*Node, error) {
	var (
		stmt *Node
		err  error
	)
	first := p.peek(0)
	line := p.tokens[0].line
	switch {
	case first == "if":
		p.rule("Stmt -> IfStmt")
		stmt, err = p.parseIf()
	case first == "return":
		p.rule("Stmt -> ReturnStmt")
		stmt, err = p.parseReturn()
	case first == "pass":
		p.rule("Stmt -> pass")
		p.consume()
		stmt = newLeaf(NodePass, "pass")
	case statementKeywords[first]:
		return nil, p.errorf("unexpected %q at start of statement", first)
	case p.peek(2) == "=":
		p.rule("Stmt -> VarDef")
		stmt, err = p.parseVarDef()
	case p.peek(1) == "=":
		p.rule("Stmt -> Assign")
		stmt, err = p.parseAssign()
	case typeKeywords[first]:
		p.rule("Stmt -> VarDecl")
		stmt, err = p.parseVarDecl()
	default:
		p.rule("Stmt -> Expr")
		stmt, err = p.parseExpr()
	}
	if err != nil {
		return nil, err
	}
	node := newNode(NodeStmt, stmt)
	node.Line = line
	return node, nil
}

func (p *Parser) parseIf() (*Node, error) {
	p.rule("IfStmt -> if Expr { StmtList } else { StmtList }")
	p.consume() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock("IfStmt")
	if err != nil {
		return nil, err
	}
	if err := p.expect("IfStmt", "else"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseBlock("IfStmt")
	if err != nil {
		return nil, err
	}
	return newNode(NodeIf, cond, then, otherwise), nil
}

func (p *Parser) parseReturn() (*Node, error) {
	p.rule("ReturnStmt -> return Expr")
	p.consume() // return
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return newNode(NodeReturn, expr), nil
}

func (p *Parser) parseVarDecl() (*Node, error) {
	p.rule("VarDecl -> Type Identifier")
	typ, err := p.parseName(NodeType, "type")
	if err != nil {
		return nil, err
	}
	id, err := p.parseName(NodeIdentifier, "identifier")
	if err != nil {
		return nil, err
	}
	return newNode(NodeVarDecl, typ, id), nil
}

func (p *Parser) parseVarDef() (*Node, error) {
	p.rule("VarDef -> Type Identifier = Expr")
	typ, err := p.parseName(NodeType, "type")
	if err != nil {
		return nil, err
	}
	id, err := p.parseName(NodeIdentifier, "identifier")
	if err != nil {
		return nil, err
	}
	if err := p.expect("VarDef", "="); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return newNode(NodeVarDef, typ, id, expr), nil
}

func (p *Parser) parseAssign() (*Node, error) {
	p.rule("Assign -> Identifier = Expr")
	id, err := p.parseName(NodeIdentifier, "identifier")
	if err != nil {
		return nil, err
	}
	if err := p.expect("Assign", "="); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return newNode(NodeAssign, id, expr), nil
}

// parseExpr parses Expr := Term [op Expr]. Recursing on the right makes
// every operator right-associative: a - b - c is a - (b - c).
func (p *Parser) parseExpr() (*Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	op := p.peek(0)
	if !exprOperators[op] {
		p.rule("Expr -> Term")
		return newNode(NodeExpr, left), nil
	}
	p.rule("Expr -> Term %s Expr", op)
	p.consume()
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return newNode(NodeExpr, left, newLeaf(NodeOperator, op), right), nil
}

// parseTerm parses Term := Factor [op Term], right-associative like Expr.
func (p *Parser) parseTerm() (*Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	op := p.peek(0)
	if !termOperators[op] {
		p.rule("Term -> Factor")
		return newNode(NodeTerm, left), nil
	}
	p.rule("Term -> Factor %s Term", op)
	p.consume()
	right, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return newNode(NodeTerm, left, newLeaf(NodeOperator, op), right), nil
}

func (p *Parser) parseFactor() (*Node, error) {
	switch {
	case p.peek(0) == "(":
		p.rule("Factor -> ( Expr )")
		p.consume()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect("Factor", ")"); err != nil {
			return nil, err
		}
		return newNode(NodeFactor, newLeaf(NodeDelimiter, "("), expr, newLeaf(NodeDelimiter, ")")), nil
	case p.peek(1) == "(":
		p.rule("Factor -> Call")
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		return newNode(NodeFactor, call), nil
	default:
		p.rule("Factor -> Basic")
		basic, err := p.parseBasic()
		if err != nil {
			return nil, err
		}
		return newNode(NodeFactor, basic), nil
	}
}

func (p *Parser) parseCall() (*Node, error) {
	p.rule("Call -> Identifier ( ArgList )")
	id, err := p.parseName(NodeIdentifier, "function name")
	if err != nil {
		return nil, err
	}
	p.consume() // (
	children := []*Node{id}
	if p.peek(0) == ")" {
		p.consume()
		return newNode(NodeCall, children...), nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, arg)
		switch tok := p.peek(0); tok {
		case ",":
			p.consume()
		case ")":
			p.consume()
			return newNode(NodeCall, children...), nil
		default:
			return nil, p.errorf("Call: expected \",\" or \")\" but got %s", describe(tok))
		}
	}
}

// parseBasic reads a literal or a bare identifier.
func (p *Parser) parseBasic() (*Node, error) {
	tok := p.peek(0)
	if tok == "" || !(isName(tok) || isDigit([]rune(tok)[0])) {
		return nil, p.errorf("expected expression but got %s", describe(tok))
	}
	p.rule("Basic -> %s", tok)
	p.consume()
	return newLeaf(NodeBasic, tok), nil
}

// Trace returns the grammar rules applied while parsing src, one per line.
func Trace(src string) ([]string, error) {
	var buf strings.Builder
	_, err := Parse(src, &buf)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "[TRACE] ")
	}
	return lines, err
}
