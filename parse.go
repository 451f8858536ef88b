package calcgrade

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Expr = num | num suffix | name | Call | Array | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')'
// Call = name '(' [ Expr { ',' Expr } ] ')'
// Array = '[' Expr { ',' Expr } ']'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr | Expr Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Pow = Expr '^' Expr

// Expr is a parsed expression that can be evaluated with a context. An Expr is
// never modified after parsing, so it is safe to evaluate concurrently with
// distinct contexts.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the sorted list of variable names used in the expression.
	names []string
	// funcs is the sorted list of function names called in the expression.
	funcs []string
	// suffixed indicates whether any number literal has a suffix.
	suffixed bool
	// src is the parsed text.
	src string
}

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

// parsectx holds general data for parsing.
type parsectx struct {
	// names is the set of variable names that have been seen this parse.
	names map[string]bool
	// funcs is the set of function names that have been called this parse.
	funcs map[string]bool
	// suffixed is set when a number literal has a suffix.
	suffixed bool
	// depth is the current array literal nesting depth.
	depth int
	// maxdim is the maximum array literal nesting depth.
	maxdim int
}

// Option is both a ParseOption and a ContextOption.
type Option interface {
	ParseOption
	ContextOption
}

type maxdimopt int

// MaxArrayDim limits the nesting depth of array literals. 0 forbids arrays,
// 1 allows vectors, and 2 allows matrices. The default is 1. A context uses
// the limit when it parses expressions itself, as in EvalString.
func MaxArrayDim(n int) Option {
	if n < 0 {
		n = 0
	}
	return maxdimopt(n)
}

func (o maxdimopt) parseOption(p parsectx) parsectx {
	p.maxdim = int(o)
	return p
}

func (maxdimopt) ctxOption() {}

// Parse parses an expression so it can be evaluated with a context. The given
// options are applied in order. Syntax errors are returned as *ParseError
// wrapping an InputError; disallowed arrays are returned as *UnableToParse.
func Parse(src string, opts ...ParseOption) (*Expr, error) {
	scan := lex(src)
	p := parsectx{
		names:  make(map[string]bool),
		funcs:  make(map[string]bool),
		maxdim: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			p = opt.parseOption(p)
		}
	}
	n, err := parseterm(scan, &p, exprprec)
	if err == nil {
		switch tok := scan.must(); tok.kind {
		case tokenEOF:
		default:
			err = itShouldNotHaveEndedThisWay(tok, -1)
		}
	}
	if err != nil {
		if _, ok := err.(*UnableToParse); ok {
			return nil, err
		}
		return nil, &ParseError{Formula: src, Err: err}
	}
	ex := Expr{
		n:        n,
		names:    setlist(p.names),
		funcs:    setlist(p.funcs),
		suffixed: p.suffixed,
		src:      src,
	}
	return &ex, nil
}

func setlist(m map[string]bool) []string {
	r := make([]string, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an error
// in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, p *parsectx, until operator) (*node, error) {
	n, err := parselhs(scan, p, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent, tokenOpen:
			// (parsed) x -> (parsed) * (x)
			// (parsed) x^(expr) -> (parsed) * (x^(expr))
			// a^(parsed) x -> (a^(parsed)) * (x)
			// (parsed) (expr) -> (parsed) * (expr)
			scan.push(tok)
			if !termprec.moreBinding(until) {
				return n, nil
			}
			rhs, err := parseterm(scan, p, termprec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenOp:
			// Binary operator.
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, p, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				// Operator followed by a close bracket.
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			panic("calcgrade: unknown token: " + tok.String())
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer, p *parsectx, until operator) (*node, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	var n *node
	switch tok.kind {
	case tokenNum:
		n = &node{kind: nodeNum, name: tok.text, num: parsenum(tok.text), suffix: tok.suffix}
		if tok.suffix != "" {
			p.suffixed = true
		}
	case tokenIdent:
		next, err := scan.next()
		if err != nil {
			return nil, err
		}
		if next.kind != tokenOpen || next.text != "(" {
			scan.push(next)
			p.names[tok.text] = true
			return &node{kind: nodeName, name: tok.text}, nil
		}
		args, err := parsearglist(scan, p, next, true)
		if err != nil {
			return nil, err
		}
		p.funcs[tok.text] = true
		n = &node{kind: nodeCall, name: tok.text, right: args}
	case tokenOp:
		// unary operator
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, p, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = &node{kind: prec.op, left: rhs}
	case tokenOpen:
		if tok.text == "[" {
			return parsearray(scan, p, tok)
		}
		match := rightbracket(tok.text)
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = rhs
	case tokenClose:
		// This might be part of func(), so just let the caller decide what to
		// do.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("calcgrade: unknown token: " + tok.String())
	}
	return n, nil
}

// parsearray parses an array literal after its opening bracket.
func parsearray(scan *lexer, p *parsectx, open lexToken) (*node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxdim {
		return nil, arraysForbidden(p.maxdim)
	}
	entries, err := parsearglist(scan, p, open, false)
	if err != nil {
		return nil, err
	}
	return &node{kind: nodeArray, right: entries}, nil
}

func arraysForbidden(maxdim int) error {
	switch maxdim {
	case 0:
		return &UnableToParse{Msg: "Vector and matrix expressions have been forbidden in this entry."}
	case 1:
		return &UnableToParse{Msg: "Matrix expressions have been forbidden in this entry."}
	default:
		return &UnableToParse{Msg: "Tensor expressions have been forbidden in this entry."}
	}
}

// parsearglist parses a bracketed list of args, including the close bracket.
// If empty is false, the list must have at least one arg.
func parsearglist(scan *lexer, p *parsectx, open lexToken, empty bool) (*node, error) {
	match := rightbracket(open.text)
	var n node
	l := &n
	len := 0
	for {
		rhs, err := parseterm(scan, p, exprprec)
		if err != nil {
			// As a special case, reporting mismatched brackets is more helpful
			// than empty expression, if that's what we'd do here.
			if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open.text}
			}
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			if end.text != closebrackets[match] {
				return nil, &BracketError{Col: end.pos, Left: open.text, Right: end.text}
			}
			if rhs == nil {
				// No expression parsed. f() is allowed, but f(a,) and [] are
				// not.
				if len != 0 || !empty {
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, nil
			}
			l.right = &node{kind: nodeArg, left: rhs}
			return n.right, nil
		case tokenSep:
			len++
			l.right = &node{kind: nodeArg, left: rhs}
			l = l.right
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: open.text, Right: ""}
		default:
			panic("calcgrade: parseterm ended on non-end token " + end.String())
		}
	}
}

// parsenum converts a number literal to its value. Literals too large to
// represent are infinite.
func parsenum(s string) float64 {
	r, _, err := new(big.Float).SetPrec(64).Parse(s, 10)
	switch {
	case err == nil: // do nothing
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		return math.Inf(1)
	default:
		panic("calcgrade: invalid number: " + s + " (" + err.Error() + ")")
	}
	x, _ := r.Float64()
	return x
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("calcgrade: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket rune index that
// the expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a function call or array.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("calcgrade: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the variable names used when evaluating the expression, in
// sorted order.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// Funcs returns the names of functions called by the expression, in sorted
// order.
func (e *Expr) Funcs() []string {
	return append(([]string)(nil), e.funcs...)
}

// Suffixed reports whether any number literal in the expression has a
// suffix.
func (e *Expr) Suffixed() bool {
	return e.suffixed
}

// Source returns the text from which the expression was parsed.
func (e *Expr) Source() string {
	return e.src
}

// String creates a string representation of the parsed expression, with
// parentheses grouping each term.
func (e *Expr) String() string {
	return e.n.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×":
		return operator{5, false, nodeMul}
	case "/", "÷":
		return operator{5, false, nodeDiv}
	case "^":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

var (
	// termprec is the precedence of implicit multiplication. It matches
	// explicit multiplication, so 1/2x is (1/2)*x.
	termprec = operator{5, false, nodeMul}
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone}
)
