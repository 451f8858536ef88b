package calcgrade

import (
	"math"
	"math/big"
	"math/cmplx"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function callable from expressions. Arguments are fully
// evaluated before the call. Functions should not retain args.
type Func interface {
	Call(args []Value) (Value, error)
}

// FuncOf adapts an ordinary function to a Func.
type FuncOf func(args []Value) (Value, error)

func (f FuncOf) Call(args []Value) (Value, error) {
	return f(args)
}

type monadic struct {
	name string
	rf   func(float64) float64
	in   func(float64) bool
	cf   func(complex128) complex128
}

func (m *monadic) Call(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindReal || realish(x.z) {
		if r := real(x.z); m.rf != nil && (m.in == nil || m.in(r)) {
			return Real(m.rf(r)), nil
		}
	}
	if m.cf == nil {
		if x.kind == KindReal || realish(x.z) {
			return Value{}, &FunctionEvalError{Msg: "The " + m.name + "(...) function is undefined at " + Real(real(x.z)).String() + "."}
		}
		return Value{}, &FunctionEvalError{Msg: "The " + m.name + "(...) function does not accept complex numbers."}
	}
	return Complex(m.cf(x.z)), nil
}

// Monadic creates a Func of one scalar argument. Real arguments x for which
// in(x) is true, or all real arguments if in is nil, are passed to rf. Other
// arguments are passed to cf. If cf is nil, the function rejects them. If rf
// is nil, every argument uses cf. The result checks that it receives exactly
// one scalar argument.
func Monadic(name string, rf func(float64) float64, in func(float64) bool, cf func(complex128) complex128) Func {
	return specify(name, &monadic{name: name, rf: rf, in: in, cf: cf}, ExpectScalar())
}

func between(lo, hi float64) func(float64) bool {
	return func(x float64) bool { return lo <= x && x <= hi }
}

func outside(lo, hi float64) func(float64) bool {
	return func(x float64) bool { return x <= lo || hi <= x }
}

func nonneg(x float64) bool { return x >= 0 }

func notNegInt(x float64) bool { return x >= 0 || x != math.Trunc(x) }

func recip(f func(float64) float64) func(float64) float64 {
	return func(x float64) float64 { return 1 / f(x) }
}

func crecip(f func(complex128) complex128) func(complex128) complex128 {
	return func(z complex128) complex128 { return 1 / f(z) }
}

// ofrecip creates f(1/x).
func ofrecip(f func(float64) float64) func(float64) float64 {
	return func(x float64) float64 { return f(1 / x) }
}

func cofrecip(f func(complex128) complex128) func(complex128) complex128 {
	return func(z complex128) complex128 { return f(1 / z) }
}

func parts(f func(float64) float64) func(complex128) complex128 {
	return func(z complex128) complex128 { return complex(f(real(z)), f(imag(z))) }
}

func globalfuncs() map[string]Func {
	m := map[string]Func{
		"sin":  Monadic("sin", math.Sin, nil, cmplx.Sin),
		"cos":  Monadic("cos", math.Cos, nil, cmplx.Cos),
		"tan":  Monadic("tan", math.Tan, nil, cmplx.Tan),
		"sec":  Monadic("sec", recip(math.Cos), nil, crecip(cmplx.Cos)),
		"csc":  Monadic("csc", recip(math.Sin), nil, crecip(cmplx.Sin)),
		"cot":  Monadic("cot", recip(math.Tan), nil, cmplx.Cot),
		"sinh": Monadic("sinh", math.Sinh, nil, cmplx.Sinh),
		"cosh": Monadic("cosh", math.Cosh, nil, cmplx.Cosh),
		"tanh": Monadic("tanh", math.Tanh, nil, cmplx.Tanh),
		"sech": Monadic("sech", recip(math.Cosh), nil, crecip(cmplx.Cosh)),
		"csch": Monadic("csch", recip(math.Sinh), nil, crecip(cmplx.Sinh)),
		"coth": Monadic("coth", recip(math.Tanh), nil, crecip(cmplx.Tanh)),

		"arcsin":  Monadic("arcsin", math.Asin, between(-1, 1), cmplx.Asin),
		"arccos":  Monadic("arccos", math.Acos, between(-1, 1), cmplx.Acos),
		"arctan":  Monadic("arctan", math.Atan, nil, cmplx.Atan),
		"arcsec":  Monadic("arcsec", ofrecip(math.Acos), outside(-1, 1), cofrecip(cmplx.Acos)),
		"arccsc":  Monadic("arccsc", ofrecip(math.Asin), outside(-1, 1), cofrecip(cmplx.Asin)),
		"arccot":  Monadic("arccot", ofrecip(math.Atan), nil, cofrecip(cmplx.Atan)),
		"arcsinh": Monadic("arcsinh", math.Asinh, nil, cmplx.Asinh),
		"arccosh": Monadic("arccosh", math.Acosh, func(x float64) bool { return x >= 1 }, cmplx.Acosh),
		"arctanh": Monadic("arctanh", math.Atanh, between(-1, 1), cmplx.Atanh),
		"arcsech": Monadic("arcsech", ofrecip(math.Acosh), func(x float64) bool { return 0 < x && x <= 1 }, cofrecip(cmplx.Acosh)),
		"arccsch": Monadic("arccsch", ofrecip(math.Asinh), nil, cofrecip(cmplx.Asinh)),
		"arccoth": Monadic("arccoth", ofrecip(math.Atanh), outside(-1, 1), cofrecip(cmplx.Atanh)),

		"sqrt":  Monadic("sqrt", math.Sqrt, nonneg, cmplx.Sqrt),
		"exp":   Monadic("exp", math.Exp, nil, cmplx.Exp),
		"ln":    Monadic("ln", math.Log, nonneg, cmplx.Log),
		"log10": Monadic("log10", math.Log10, nonneg, cmplx.Log10),
		"log2":  Monadic("log2", math.Log2, nonneg, func(z complex128) complex128 { return cmplx.Log(z) / math.Ln2 }),
		"floor": Monadic("floor", math.Floor, nil, parts(math.Floor)),
		"ceil":  Monadic("ceil", math.Ceil, nil, parts(math.Ceil)),

		"factorial": Monadic("factorial", factorial, notNegInt, nil),
		"fact":      Monadic("fact", factorial, notNegInt, nil),

		"arctan2":   specify("arctan2", FuncOf(arctan2), ExpectScalar(), ExpectScalar()),
		"kronecker": specify("kronecker", FuncOf(kronecker), ExpectScalar(), ExpectScalar()),
		"min":       specifyVariadic("min", extremum("min", math.Min), 2, ExpectScalar()),
		"max":       specifyVariadic("max", extremum("max", math.Max), 2, ExpectScalar()),

		"abs":    specify("abs", FuncOf(arrayAbs), ExpectAny()),
		"re":     specify("re", FuncOf(re), ExpectAny()),
		"im":     specify("im", FuncOf(im), ExpectAny()),
		"conj":   specify("conj", FuncOf(conj), ExpectAny()),
		"trans":  specify("trans", FuncOf(trans), ExpectAny()),
		"ctrans": specify("ctrans", FuncOf(ctrans), ExpectAny()),
		"adj":    specify("adj", FuncOf(ctrans), ExpectAny()),
		"det":    specify("det", FuncOf(det), ExpectSquare()),
		"trace":  specify("trace", FuncOf(trace), ExpectSquare()),
		"cross":  specify("cross", FuncOf(crossfn), ExpectVector(3), ExpectVector(3)),
		"dot":    specify("dot", FuncOf(dot), ExpectAnyVector(), ExpectAnyVector()),
		"norm":   specify("norm", FuncOf(norm), ExpectAny()),
	}
	return m
}

// defaultFuncs is the default function table. It is never modified.
var defaultFuncs = globalfuncs()

// DefaultFuncs returns a copy of the default function table.
func DefaultFuncs() map[string]Func {
	m := make(map[string]Func, len(defaultFuncs))
	for k, v := range defaultFuncs {
		m[k] = v
	}
	return m
}

// factorial computes Γ(x+1).
func factorial(x float64) float64 {
	return math.Gamma(x + 1)
}

func realargs(name string, args []Value) error {
	for _, arg := range args {
		if arg.kind == KindComplex && !realish(arg.z) {
			return &FunctionEvalError{Msg: "The " + name + "(...) function does not accept complex numbers."}
		}
	}
	return nil
}

// arctan2 computes the angle of the point (x, y), in that order.
func arctan2(args []Value) (Value, error) {
	if err := realargs("arctan2", args); err != nil {
		return Value{}, err
	}
	x, y := real(args[0].z), real(args[1].z)
	if x == 0 && y == 0 {
		return Value{}, &FunctionEvalError{Msg: "arctan2(0, 0) is undefined"}
	}
	return Real(math.Atan2(y, x)), nil
}

func kronecker(args []Value) (Value, error) {
	if args[0].z == args[1].z {
		return Real(1), nil
	}
	return Real(0), nil
}

func extremum(name string, f func(x, y float64) float64) FuncOf {
	return func(args []Value) (Value, error) {
		if err := realargs(name, args); err != nil {
			return Value{}, err
		}
		r := real(args[0].z)
		for _, arg := range args[1:] {
			r = f(r, real(arg.z))
		}
		return Real(r), nil
	}
}

func arrayAbs(args []Value) (Value, error) {
	x := args[0]
	switch x.Shape().Rank() {
	case 0:
		return Real(cmplx.Abs(x.z)), nil
	case 1:
		return Real(x.a.Norm()), nil
	default:
		return Value{}, &FunctionEvalError{Msg: "The abs(...) function expects a scalar or vector. To take the norm of a matrix, try norm(...) instead."}
	}
}

func re(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindArray {
		return Array(x.a.Re()), nil
	}
	return Real(real(x.z)), nil
}

func im(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindArray {
		return Array(x.a.Im()), nil
	}
	return Real(imag(x.z)), nil
}

func conj(args []Value) (Value, error) {
	x := args[0]
	switch x.kind {
	case KindArray:
		return Array(x.a.Conj()), nil
	case KindComplex:
		return Complex(cmplx.Conj(x.z)), nil
	default:
		return x, nil
	}
}

func trans(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindArray {
		return Array(x.a.Transpose()), nil
	}
	return x, nil
}

func ctrans(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindArray {
		return Array(x.a.ConjTranspose()), nil
	}
	return conj(args)
}

func det(args []Value) (Value, error) {
	d, err := args[0].a.Det()
	if err != nil {
		return Value{}, err
	}
	return scalar(d), nil
}

func trace(args []Value) (Value, error) {
	t, err := args[0].a.Trace()
	if err != nil {
		return Value{}, err
	}
	return scalar(t), nil
}

func crossfn(args []Value) (Value, error) {
	return Array(cross(args[0].a, args[1].a)), nil
}

func dot(args []Value) (Value, error) {
	return matmul(args[0].a, args[1].a)
}

func norm(args []Value) (Value, error) {
	x := args[0]
	if x.kind == KindArray {
		return Real(x.a.Norm()), nil
	}
	return Real(cmplx.Abs(x.z)), nil
}

// bigconst evaluates a constant to 128 bits and rounds it to float64.
func bigconst(f func(z *big.Float) *big.Float) float64 {
	x, _ := f(new(big.Float).SetPrec(128)).Float64()
	return x
}

// defaultConsts is the default constant table. It is never modified.
var defaultConsts = map[string]Value{
	"pi": Real(bigconst(bigfloat.Pi)),
	"e": Real(bigconst(func(z *big.Float) *big.Float {
		var one big.Float
		one.SetFloat64(1)
		return bigfloat.Exp(z, &one)
	})),
	"i": Complex(1i),
	"j": Complex(1i),
}

// DefaultConsts returns a copy of the default constant table.
func DefaultConsts() map[string]Value {
	m := make(map[string]Value, len(defaultConsts))
	for k, v := range defaultConsts {
		m[k] = v
	}
	return m
}

// defaultSuffixes are the suffixes available without MetricSuffixes.
var defaultSuffixes = map[string]float64{
	"%": 0.01,
}

// metricSuffixes are the suffixes enabled by MetricSuffixes.
var metricSuffixes = map[string]float64{
	"%": 0.01,
	"k": 1e3,
	"M": 1e6,
	"G": 1e9,
	"T": 1e12,
	"c": 1e-2,
	"m": 1e-3,
	"u": 1e-6,
	"n": 1e-9,
	"p": 1e-12,
	"f": 1e-15,
}
