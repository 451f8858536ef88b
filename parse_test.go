package calcgrade

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"testing"
)

// diff finds the first in-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. If any node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind {
		return n, m
	}
	switch n.kind {
	case nodeNum:
		if n.name != m.name || n.suffix != m.suffix {
			return n, m
		}
	case nodeName:
		if n.name != m.name {
			return n, m
		}
	case nodeCall:
		if n.name != m.name {
			return n, m
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeArray:
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeArg, nodeNeg, nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeNop:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
	default:
		panic(fmt.Errorf("invalid node kind: n=%+v m=%+v", n, m))
	}
	return nil, nil
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	if n == nil {
		return false
	}
	if n.kind == k {
		return true
	}
	if n.left.haskind(k) {
		return true
	}
	return n.right.haskind(k)
}

// Tree constructors for expected parse results.

func num(s string) *node               { return &node{kind: nodeNum, name: s} }
func numsfx(s, sfx string) *node       { return &node{kind: nodeNum, name: s, suffix: sfx} }
func name(s string) *node              { return &node{kind: nodeName, name: s} }
func un(k nodeKind, x *node) *node     { return &node{kind: k, left: x} }
func bin(k nodeKind, l, r *node) *node { return &node{kind: k, left: l, right: r} }

func args(xs ...*node) *node {
	var r *node
	for i := len(xs) - 1; i >= 0; i-- {
		r = &node{kind: nodeArg, left: xs[i], right: r}
	}
	return r
}

func call(f string, xs ...*node) *node {
	return &node{kind: nodeCall, name: f, right: args(xs...)}
}

func array(xs ...*node) *node {
	return &node{kind: nodeArray, right: args(xs...)}
}

func TestOpPrecsExist(t *testing.T) {
	for _, r := range Operators {
		b := binop(string(r))
		u := unop(string(r))
		if b.op == nodeNone && u.op == nodeNone {
			t.Errorf("no operator for %c", r)
		}
	}
}

func TestTermPrecMatchesMultiplication(t *testing.T) {
	if p := binop("*").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but * has prec %d", termprec.prec, p)
	}
	if p := binop("×").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but × has prec %d", termprec.prec, p)
	}
	if p := binop("/").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but / has prec %d", termprec.prec, p)
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(x)", "x"},
		{"multi", "((((x))))", "x"},

		{"plus", "+x", "(+(x))"},
		{"neg", "-x", "(-(x))"},
		{"negnum", "-1", "(-(1))"},
		{"add", "x+y", "((x)+(y))"},
		{"sub", "x-y", "((x)-(y))"},
		{"mul", "x*y", "((x)*(y))"},
		{"div", "x/y", "((x)/(y))"},
		{"pow", "x^y", "((x)^(y))"},
		{"altmul", "x×y", "x*y"},
		{"altdiv", "x÷y", "x/y"},
		{"terms", "x y", "x*y"},
		{"parenterms", "(x)(y)", "x*y"},
		{"numterms", "2x", "2*x"},
		{"numparen", "2(x+1)", "2*(x+1)"},

		{"add4", "w+x+y+z", "((w+x)+y)+z"},
		{"sub4", "w-x-y-z", "((w-x)-y)-z"},
		{"mul4", "w*x*y*z", "((w*x)*y)*z"},
		{"div4", "w/x/y/z", "((w/x)/y)/z"},
		{"pow4", "w^x^y^z", "w^(x^(y^z))"},
		{"terms4", "w x y z", "((w*x)*y)*z"},

		{"negpow", "-1^n", "-(1^n)"},
		{"negsquare", "-2^2", "-(2^2)"},
		{"desc", "w^x*y+z", "((w^x)*y)+z"},
		{"asc", "w+x*y^z", "w+(x*(y^z))"},
		{"descasc", "w^x*y+z+a*b^c", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c", "w+((x*(y^(z^a)))*b)+c"},
		{"negneg", "--x", "-(-x)"},
		{"negsub", "-x-x", "(-x)-x"},
		{"negmul", "-x y", "(-x)*y"},
		{"mulneg", "x*-y", "x*(-y)"},
		{"powparen", "x^y(z)", "(x^y)*z"},
		{"powneg", "x^-1", "x^(-1)"},
		{"powterms", "x y^z", "x*(y^z)"},
		{"powthenterm", "x^2y", "(x^2)*y"},
		{"pownegpow", "x^-y^-z", "x^(-(y^(-z)))"},
		{"pownegneg", "x^--y", "x^(-(-y))"},
		{"negpowterm", "-x^y z", "(-(x^y))*z"},
		{"halfx", "1/2x", "(1/2)*x"},
		{"divterms", "1/2 x y", "((1/2)*x)*y"},

		{"callterms", "f(x)(y)", "f(x)*y"},
		{"callpow", "f(x)^2", "(f(x))^2"},
		{"callarg", "f(x y, -z)", "f((x*y), (-z))"},
		{"arrayterms", "[1, 2][3, 4]", "([1, 2])*([3, 4])"},
		{"arrayentries", "[x+1, 2y]", "[(x+1), (2*y)]"},
		{"suffix", "5%x", "(5%)*x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(c.a)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := Parse(c.b)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts []ParseOption
		n    *node
	}{
		{
			name: "negsquare",
			src:  "-2^2",
			n:    un(nodeNeg, bin(nodePow, num("2"), num("2"))),
		},
		{
			name: "powneg",
			src:  "2^-3",
			n:    bin(nodePow, num("2"), un(nodeNeg, num("3"))),
		},
		{
			name: "pownegpow",
			src:  "x^-y^-z",
			n:    bin(nodePow, name("x"), un(nodeNeg, bin(nodePow, name("y"), un(nodeNeg, name("z"))))),
		},
		{
			name: "halfx",
			src:  "1/2x",
			n:    bin(nodeMul, bin(nodeDiv, num("1"), num("2")), name("x")),
		},
		{
			name: "call0",
			src:  "f()",
			n:    &node{kind: nodeCall, name: "f"},
		},
		{
			name: "call1",
			src:  "f(x)",
			n:    call("f", name("x")),
		},
		{
			name: "call3",
			src:  "g(a, b, 3)",
			n:    call("g", name("a"), name("b"), num("3")),
		},
		{
			name: "nested",
			src:  "sin(cos(x))",
			n:    call("sin", call("cos", name("x"))),
		},
		{
			name: "vector",
			src:  "[1, 2, 3]",
			n:    array(num("1"), num("2"), num("3")),
		},
		{
			name: "matrix",
			src:  "[[1, 2], [3, 4]]",
			opts: []ParseOption{MaxArrayDim(2)},
			n:    array(array(num("1"), num("2")), array(num("3"), num("4"))),
		},
		{
			name: "suffix",
			src:  "5%",
			n:    numsfx("5", "%"),
		},
		{
			name: "metric",
			src:  "2.5k + 1",
			n:    bin(nodeAdd, numsfx("2.5", "k"), num("1")),
		},
		{
			name: "prime",
			src:  "f'(x) x'",
			n:    bin(nodeMul, call("f'", name("x")), name("x'")),
		},
		{
			name: "subscript",
			src:  "a_{1} + a_{-1}",
			n:    bin(nodeAdd, name("a_{1}"), name("a_{-1}")),
		},
		{
			name: "plus",
			src:  "+x",
			n:    un(nodeNop, name("x")),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(c.src, c.opts...)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			d, e := a.n.diff(c.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\twant %v which has %v\n\tgot  %v which has %v from %q", c.n, e, a.n, d, c.src)
			}
		})
	}
}

func TestParseNumbers(t *testing.T) {
	cases := []struct {
		src string
		num float64
	}{
		{"0", 0},
		{"1.5", 1.5},
		{".25", 0.25},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
	}
	for _, c := range cases {
		a, err := Parse(c.src)
		if err != nil {
			t.Errorf("%q failed to parse: %v", c.src, err)
			continue
		}
		if a.n.kind != nodeNum || a.n.num != c.num {
			t.Errorf("%q: want number %g, got %v with value %g", c.src, c.num, a.n, a.n.num)
		}
	}
	a, err := Parse("1e999999")
	if err != nil {
		t.Fatalf("huge literal failed to parse: %v", err)
	}
	if a.n.num <= 1e308 {
		t.Errorf("huge literal parsed to %g", a.n.num)
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"paren", "(x)"},
		{"plus", "+x"},
		{"neg", "-x"},
		{"negnum", "-1"},
		{"add", "x+y"},
		{"sub", "x-y"},
		{"mul", "x*y"},
		{"div", "x/y"},
		{"pow", "x^y"},
		{"altmul", "x×y"},
		{"altdiv", "x÷y"},
		{"terms", "x y"},

		{"call0", "f()"},
		{"call1", "f(x)"},
		{"call3", "f(a, b c, -d)"},
		{"callterms", "f(x) y"},
		{"vector", "[1, 2, x]"},
		{"matrix", "[[1, 2], [x, y^2]]"},
		{"arrayterms", "2[1, 2]"},
		{"suffix", "5% + 2m"},

		{"add4", "w+x+y+z"},
		{"sub4", "w-x-y-z"},
		{"mul4", "w*x*y*z"},
		{"div4", "w/x/y/z"},
		{"pow4", "w^x^y^z"},
		{"terms4", "w x y z"},

		{"negpow", "-1^n"},
		{"desc", "w^x*y+z"},
		{"asc", "w+x*y^z"},
		{"descasc", "w^x*y+z+a*b^c"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"negneg", "--x"},
		{"negsub", "-x-x"},
		{"powneg", "x^-1"},
		{"powterms", "x y^z"},
		{"pownegpow", "x^-y^-z"},
		{"pownegneg", "x^--y"},
		{"halfx", "1/2x"},

		// Cases isolated with fuzzing.
		{"parentermsplus", "x(y+z)"},
		{"mulparenterms", "x*y(z*w)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(c.src, MaxArrayDim(2))
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			s := a.String()
			b, err := Parse(s, MaxArrayDim(2))
			if err != nil {
				t.Fatalf("%q -> %q failed to parse: %v", c.src, s, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.src, a.n, d, s, b.n, e)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		res  []string
		excl []string
	}{
		{"empty", "", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, nil},
		{"emptyparen", "()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyterm", "(x)()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyoperand", "x*", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"emptyunary", "x*-", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"left", "(x", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"right", "x)", new(BracketError), []string{`(?i)\bbracket\b`, `\)`}, nil},
		{"mismatch", "(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-mul", "x*(y]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-call", "f(y]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-array", "[1, 2)", new(BracketError), []string{`(?i)\bbracket\b`, `\[`, `\)`}, nil},
		{"nonunary", "*x", new(OperatorError), []string{`(?i)\bunary\b`, `(?i)\bop`, `\*`}, nil},
		{"nonunary-div", "x/÷y", new(OperatorError), []string{`(?i)\bunary\b`, `÷`}, nil},
		{"sep", "x, y", new(SeparatorError), []string{`","`}, nil},
		{"sepbrackets", "(x, y)", new(SeparatorError), []string{`","`}, nil},
		{"call-eof", "f(", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"call-argeof", "f(x", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"call-empty", "f(, x)", new(SeparatorError), []string{`","`}, nil},
		{"call-empty2", "f(x,)", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"call-empty3", "f(a,,,,b)", new(SeparatorError), []string{`","`}, nil},
		{"array-empty", "[]", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `]`}, nil},
		{"array-eof", "[1, 2", new(BracketError), []string{`(?i)\bbracket\b`, `\[`}, nil},
		{"lexer", "2^exp(-$)", new(LexError), []string{`\$`}, nil},
		{"lexer-number", "1.2.3", new(LexError), []string{`1\.2\.`}, nil},

		// Cases identified with fuzzing.
		{"op-paren", "(b*)", new(EmptyExpressionError), []string{`\)`}, nil},
		{"haskell", "(+)", new(EmptyExpressionError), []string{`\)`}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(c.src)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a.n)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("%q gave %#v, not a *ParseError", c.src, err)
			}
			if perr.Formula != c.src {
				t.Errorf("%q: error has formula %q", c.src, perr.Formula)
			}
			if !errors.Is(err, ErrParse) || !errors.Is(err, ErrCalc) {
				t.Errorf("%q: %v is not classified as a parse error", c.src, err)
			}
			if reflect.TypeOf(perr.Err) != reflect.TypeOf(c.err) {
				t.Errorf("wrong error type from %q: want %T, got %T", c.src, c.err, perr.Err)
			}
			if ie, ok := perr.Err.(InputError); !ok || !errors.Is(ie, ErrParse) || ie.Pos() < 1 {
				t.Errorf("%q: inner error %v is not a positioned parse error", c.src, perr.Err)
			}
			msg := err.Error()
			if !regexp.MustCompile(`^Invalid Input: Could not parse '.*' as a formula`).MatchString(msg) {
				t.Errorf("error message %q has the wrong form", msg)
			}
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
			for _, re := range c.excl {
				if regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q matches %s", msg, re)
				}
			}
		})
	}
}

func TestParseArrayLimits(t *testing.T) {
	cases := []struct {
		name string
		src  string
		opts []ParseOption
		msg  string
	}{
		{"novectors", "[1, 2]", []ParseOption{MaxArrayDim(0)}, "Vector and matrix expressions have been forbidden in this entry."},
		{"nomatrices", "[[1, 2], [3, 4]]", nil, "Matrix expressions have been forbidden in this entry."},
		{"notensors", "[[[1]]]", []ParseOption{MaxArrayDim(2)}, "Tensor expressions have been forbidden in this entry."},
		{"innervector", "f([1])", []ParseOption{MaxArrayDim(0)}, "Vector and matrix expressions have been forbidden in this entry."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Parse(c.src, c.opts...)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a.n)
			}
			u, ok := err.(*UnableToParse)
			if !ok {
				t.Fatalf("%q gave %#v, not an *UnableToParse", c.src, err)
			}
			if u.Error() != c.msg {
				t.Errorf("%q: want %q, got %q", c.src, c.msg, u.Error())
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("%q: %v is not a parse error", c.src, err)
			}
		})
	}
}

func TestExprVocabulary(t *testing.T) {
	a, err := Parse("f(x) + g(y, x) + a_{1} sin(2%)")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if got, want := a.Vars(), []string{"a_{1}", "x", "y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("wrong vars: want %q, got %q", want, got)
	}
	if got, want := a.Funcs(), []string{"f", "g", "sin"}; !reflect.DeepEqual(got, want) {
		t.Errorf("wrong funcs: want %q, got %q", want, got)
	}
	if !a.Suffixed() {
		t.Errorf("%q has a suffix", a.Source())
	}
	b, err := Parse("x^2")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if b.Suffixed() {
		t.Errorf("%q has no suffix", b.Source())
	}
	if b.n.haskind(nodeCall) {
		t.Errorf("%q has a call: %v", b.Source(), b.n)
	}
	// Returned slices are copies.
	b.Vars()[0] = "y"
	if b.Vars()[0] != "x" {
		t.Errorf("modifying Vars modified the expression")
	}
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "w^x*y+z+a*b^c"},
		{"descasc-parens", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"ascdesc-parens", "w+((x*(y^(z^a)))*b)+c"},
		{"descasc-nums", "1^1.1*1.1e1+1.1e-1+.1*5%^2k"},
		{"call0", "f()"},
		{"call1-terms", "f(x) y"},
		{"call5", "f(a, b, c, d, e)"},
		{"vector", "[a, b, c]"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Parse(c.src)
			}
		})
	}
}
