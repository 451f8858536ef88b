package calcgrade

import (
	"errors"
	"math"
	"math/cmplx"
	"regexp"
	"testing"
)

func TestDefaultFuncs(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    float64
	}{
		{"sin", "sin(0)", 0},
		{"cos", "cos(0)", 1},
		{"tan", "tan(0)", 0},
		{"sec", "sec(0)", 1},
		{"csc", "csc(pi/2)", 1},
		{"cot", "cot(pi/4)", 1},
		{"sinh", "sinh(0)", 0},
		{"cosh", "cosh(0)", 1},
		{"tanh", "tanh(0)", 0},
		{"sech", "sech(0)", 1},
		{"csch", "csch(arccsch(3))", 3},
		{"coth", "coth(arccoth(2))", 2},
		{"arcsin", "arcsin(1)", math.Pi / 2},
		{"arccos", "arccos(1)", 0},
		{"arctan", "arctan(1)", math.Pi / 4},
		{"arcsec", "arcsec(1)", 0},
		{"arccsc", "arccsc(1)", math.Pi / 2},
		{"arccot", "arccot(1)", math.Pi / 4},
		{"arcsinh", "arcsinh(1)", math.Asinh(1)},
		{"arccosh", "arccosh(1)", 0},
		{"arctanh", "arctanh(0.5)", math.Atanh(0.5)},
		{"arcsech", "arcsech(1)", 0},
		{"arccsch", "arccsch(1)", math.Asinh(1)},
		{"arccoth", "arccoth(2)", math.Atanh(0.5)},
		{"sqrt", "sqrt(9)", 3},
		{"exp", "exp(0)", 1},
		{"ln", "ln(1)", 0},
		{"log10", "log10(100)", 2},
		{"log2", "log2(4)", 2},
		{"floor", "floor(2.5)", 2},
		{"ceil", "ceil(2.5)", 3},
		{"factorial", "factorial(3)", 6},
		{"fact", "fact(4)", 24},
		{"arctan2", "arctan2(1, 1)", math.Pi / 4},
		{"kronecker", "kronecker(1, 2)", 0},
		{"min", "min(1, 2)", 1},
		{"max", "max(1, 2)", 2},
		{"abs", "abs(-1)", 1},
		{"re", "re(2)", 2},
		{"im", "im(2)", 0},
		{"conj", "conj(2)", 2},
		{"trans", "trans(2)", 2},
		{"ctrans", "ctrans(2)", 2},
		{"adj", "adj(2)", 2},
		{"det", "det([[2, 0], [0, 3]])", 6},
		{"trace", "trace([[2, 0], [0, 3]])", 5},
		{"cross", "norm(cross([1, 0, 0], [0, 1, 0]))", 1},
		{"dot", "dot([1, 2], [3, 4])", 11},
		{"norm", "norm([3, 4])", 5},
	}
	// Check that we cover every function.
	check := func(n string) bool {
		for _, c := range cases {
			if c.name == n {
				return true
			}
		}
		return false
	}
	for k := range defaultFuncs {
		if !check(k) {
			t.Errorf("no test case for %q", k)
		}
	}

	ctx := NewContext(MaxArrayDim(2))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := ctx.EvalString(c.src)
			if err != nil {
				t.Fatalf("%q failed: %v", c.src, err)
			}
			if r.Kind() != KindReal {
				t.Errorf("%q gave %v result %v", c.src, r.Kind(), r)
			}
			if d := math.Abs(r.Float() - c.r); d > 1e-12*math.Max(1, math.Abs(c.r)) {
				t.Errorf("wrong result from %q: want %g, got %g", c.src, c.r, r.Float())
			}
		})
	}
}

func TestDisableDefaultFuncs(t *testing.T) {
	ctx := NewContext(DisableDefaultFuncs())
	for k := range defaultFuncs {
		_, err := ctx.EvalString(k + "(1)")
		var ne *NameError
		if !errors.As(err, &ne) || !ne.Func || ne.Name != k {
			t.Errorf("%s(1) without default funcs gave %#v", k, err)
		}
	}
	// Constants remain.
	if r, err := ctx.EvalString("pi"); err != nil || r.Float() != math.Pi {
		t.Errorf("pi without default funcs gave %v, %v", r, err)
	}
}

func TestMonadicBranches(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    complex128
	}{
		{"sqrt", "sqrt(-1)", 1i},
		{"arcsin", "arcsin(2)", cmplx.Asin(2)},
		{"arccos", "arccos(-2)", cmplx.Acos(-2)},
		{"arccosh", "arccosh(0.5)", cmplx.Acosh(0.5)},
		{"arctanh", "arctanh(2)", cmplx.Atanh(2)},
		{"ln", "ln(-e)", complex(1, math.Pi)},
		{"log10", "log10(-10)", complex(1, math.Pi/math.Ln10)},
		{"floor", "floor(1.5 + 2.5i)", 1 + 2i},
		{"sin", "sin(i)", cmplx.Sin(1i)},
		{"exp", "exp(i pi/2)", 1i},
		{"factreal", "fact(2+0*i)", 2},
		{"factsquare", "fact(i*i+3)", 2},
		{"sqrtsquare", "sqrt(i*i+5)", 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := EvalString(c.src)
			if err != nil {
				t.Fatalf("%q failed: %v", c.src, err)
			}
			if cmplx.Abs(r.Complex()-c.r) > 1e-12*math.Max(1, cmplx.Abs(c.r)) {
				t.Errorf("wrong result from %q: want %g, got %g", c.src, c.r, r.Complex())
			}
		})
	}
}

func TestFactorialNegativeIntegers(t *testing.T) {
	for _, src := range []string{"fact(-1)", "factorial(-2)", "fact(i*i)"} {
		r, err := EvalString(src)
		var ferr *FunctionEvalError
		if !errors.As(err, &ferr) {
			t.Errorf("%q gave %v, %v; want a *FunctionEvalError", src, r, err)
			continue
		}
		if !regexp.MustCompile(`^The fact(orial)?\(\.\.\.\) function is undefined at -[12]\.$`).MatchString(ferr.Msg) {
			t.Errorf("%q: wrong message %q", src, ferr.Msg)
		}
	}
	r, err := EvalString("fact(-0.5)")
	if err != nil || math.Abs(r.Float()-math.Sqrt(math.Pi)) > 1e-12 {
		t.Errorf("fact(-0.5) gave %v, %v", r, err)
	}
}

func TestFuncKinds(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind Kind
	}{
		{"conjreal", "conj(2)", KindReal},
		{"conjcomplex", "conj(2i)", KindComplex},
		{"recomplex", "re(1+i)", KindReal},
		{"imcomplex", "im(1+i)", KindReal},
		{"absvector", "abs([1, i])", KindReal},
		{"transvector", "trans([1, 2])", KindArray},
		{"crossvector", "cross([1, 2, 3], [4, 5, 6])", KindArray},
		{"dotvector", "dot([1, 2], [i, 1])", KindComplex},
		{"detcomplex", "det([[i, 0], [0, i]])", KindReal},
	}
	ctx := NewContext(MaxArrayDim(2))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := ctx.EvalString(c.src)
			if err != nil {
				t.Fatalf("%q failed: %v", c.src, err)
			}
			if r.Kind() != c.kind {
				t.Errorf("%q gave %v result %v, want %v", c.src, r.Kind(), r, c.kind)
			}
		})
	}
}

func TestCrossAnticommutes(t *testing.T) {
	a := NewRealVector([]float64{1, 2, 3})
	b := NewRealVector([]float64{4, 5, 6})
	ab := cross(a, b)
	ba := cross(b, a)
	if !ab.ApproxEqual(ba.scale(-1), 0, 0) {
		t.Errorf("a×b = %v but b×a = %v", ab, ba)
	}
	want := NewRealVector([]float64{-3, 6, -3})
	if !ab.ApproxEqual(want, 0, 0) {
		t.Errorf("wrong cross product: want %v, got %v", want, ab)
	}
}

func TestDefaultConsts(t *testing.T) {
	c := DefaultConsts()
	if c["pi"].Float() != math.Pi {
		t.Errorf("pi is %v", c["pi"])
	}
	if c["e"].Float() != math.E {
		t.Errorf("e is %v", c["e"])
	}
	if c["i"] != Complex(1i) || c["j"] != Complex(1i) {
		t.Errorf("i is %v and j is %v", c["i"], c["j"])
	}
	c["pi"] = Real(3)
	if defaultConsts["pi"].Float() != math.Pi {
		t.Errorf("modifying DefaultConsts modified defaults")
	}
}
