package calcgrade

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expect describes the shapes a function accepts for one argument.
type Expect struct {
	kind  expectKind
	shape Shape
}

type expectKind int8

const (
	expectShape expectKind = iota
	expectSquare
	expectAnyVector
	expectAny
)

// ExpectScalar accepts scalars.
func ExpectScalar() Expect {
	return Expect{kind: expectShape, shape: Scalar()}
}

// ExpectVector accepts vectors of length n.
func ExpectVector(n int) Expect {
	return Expect{kind: expectShape, shape: Vector(n)}
}

// ExpectMatrix accepts matrices with r rows and c columns.
func ExpectMatrix(r, c int) Expect {
	return Expect{kind: expectShape, shape: Matrix(r, c)}
}

// ExpectSquare accepts square matrices of any size.
func ExpectSquare() Expect {
	return Expect{kind: expectSquare}
}

// ExpectAnyVector accepts vectors of any length.
func ExpectAnyVector() Expect {
	return Expect{kind: expectAnyVector}
}

// ExpectAny accepts every value.
func ExpectAny() Expect {
	return Expect{kind: expectAny}
}

// Match reports whether the expectation accepts a value of shape s.
func (e Expect) Match(s Shape) bool {
	switch e.kind {
	case expectShape:
		return e.shape == s
	case expectSquare:
		return s.IsSquare()
	case expectAnyVector:
		return s.rank == 1
	case expectAny:
		return true
	default:
		panic("calcgrade: invalid expectation kind " + strconv.Itoa(int(e.kind)))
	}
}

func (e Expect) String() string {
	switch e.kind {
	case expectShape:
		return e.shape.String()
	case expectSquare:
		return "square matrix"
	case expectAnyVector:
		return "vector"
	case expectAny:
		return "value"
	default:
		panic("calcgrade: invalid expectation kind " + strconv.Itoa(int(e.kind)))
	}
}

// domainFunc is a Func which checks the shapes of its arguments before
// calling the wrapped function.
type domainFunc struct {
	name   string
	fn     Func
	shapes []Expect
	// min is the minimum number of arguments for variadic functions, in
	// which case shapes has exactly one element which applies to all
	// arguments. min is -1 for functions with fixed arity.
	min int
}

// specify wraps fn to require exactly one argument per shape.
func specify(name string, fn Func, shapes ...Expect) Func {
	return &domainFunc{name: name, fn: fn, shapes: shapes, min: -1}
}

// specifyVariadic wraps fn to require at least min arguments, all matching
// shape.
func specifyVariadic(name string, fn Func, min int, shape Expect) Func {
	return &domainFunc{name: name, fn: fn, shapes: []Expect{shape}, min: min}
}

func (f *domainFunc) Call(args []Value) (Value, error) {
	if err := f.check(args); err != nil {
		return Value{}, err
	}
	return f.fn.Call(args)
}

// expect returns the expectation for the ith argument.
func (f *domainFunc) expect(i int) Expect {
	if f.min >= 0 {
		return f.shapes[0]
	}
	return f.shapes[i]
}

func (f *domainFunc) check(args []Value) error {
	if f.min >= 0 {
		if len(args) < f.min {
			return &DomainError{Func: f.name, Want: f.min, Got: len(args), AtLeast: true}
		}
	} else if len(args) != len(f.shapes) {
		return &DomainError{Func: f.name, Want: len(f.shapes), Got: len(args)}
	}
	bad := false
	for i, arg := range args {
		if !f.expect(i).Match(arg.Shape()) {
			bad = true
			break
		}
	}
	if !bad {
		return nil
	}
	lines := make([]string, len(args))
	for i, arg := range args {
		e, s := f.expect(i), arg.Shape()
		if e.Match(s) {
			lines[i] = ordinal(i+1) + " input is ok: received a " + s.String() + " as expected"
		} else {
			lines[i] = ordinal(i+1) + " input has an error: received a " + s.String() + ", expected a " + e.String()
		}
	}
	return &DomainError{Func: f.name, Lines: lines}
}

// ordinal formats a positive integer as an English ordinal, e.g. 1st or 12th.
func ordinal(n int) string {
	s := strconv.Itoa(n)
	if k := n % 100; k >= 11 && k <= 13 {
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	default:
		return s + "th"
	}
}

// Domain declares the argument shapes of a function for SpecifyDomain.
type Domain struct {
	// InputShapes lists one shape per argument. A shape of []int{1} is a
	// scalar, []int{n} is a vector of length n, and []int{r, c} is a matrix
	// of r rows and c columns.
	InputShapes [][]int `yaml:"input_shapes"`
	// MinLength, if positive, makes the function variadic. InputShapes must
	// then hold a single shape which every argument must match.
	MinLength int `yaml:"min_length"`
	// DisplayName is the function name used in diagnostics. If empty, the
	// name passed to SpecifyDomain is used.
	DisplayName string `yaml:"display_name"`
}

// UnmarshalYAML decodes a domain. Each element of input_shapes may be a bare
// integer n, meaning [n], or a list of integers.
func (d *Domain) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		InputShapes []yaml.Node `yaml:"input_shapes"`
		MinLength   int         `yaml:"min_length"`
		DisplayName string      `yaml:"display_name"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	var shapes [][]int
	if raw.InputShapes != nil {
		shapes = make([][]int, len(raw.InputShapes))
	}
	for i := range raw.InputShapes {
		s := &raw.InputShapes[i]
		if s.Kind == yaml.ScalarNode {
			var x int
			if err := s.Decode(&x); err != nil {
				return err
			}
			shapes[i] = []int{x}
			continue
		}
		if err := s.Decode(&shapes[i]); err != nil {
			return err
		}
	}
	*d = Domain{InputShapes: shapes, MinLength: raw.MinLength, DisplayName: raw.DisplayName}
	return nil
}

// SpecifyDomain wraps fn so that calls with arguments of the wrong shapes or
// the wrong number of arguments fail with a *DomainError listing every
// argument. The result is a *ConfigError if d is malformed.
func SpecifyDomain(name string, fn Func, d Domain) (Func, error) {
	if len(d.InputShapes) == 0 {
		return nil, &ConfigError{Msg: "required key not provided: input_shapes"}
	}
	shapes := make([]Expect, len(d.InputShapes))
	for i, s := range d.InputShapes {
		e, ok := shapeSpec(s)
		if !ok {
			return nil, &ConfigError{Msg: "expected shape specification to be a positive integer, or a list of positive integers @ input_shapes[" + strconv.Itoa(i) + "]. Got " + fmtShapeSpec(s)}
		}
		shapes[i] = e
	}
	if d.DisplayName != "" {
		name = d.DisplayName
	}
	if d.MinLength > 0 {
		if len(shapes) != 1 {
			return nil, &ConfigError{Msg: "SpecifyDomain was called with a specified min_length, which requires input_shapes to specify only a single shape. However, " + strconv.Itoa(len(shapes)) + " shapes were provided."}
		}
		return specifyVariadic(name, fn, d.MinLength, shapes[0]), nil
	}
	return specify(name, fn, shapes...), nil
}

func shapeSpec(s []int) (Expect, bool) {
	for _, n := range s {
		if n <= 0 {
			return Expect{}, false
		}
	}
	switch len(s) {
	case 1:
		if s[0] == 1 {
			return ExpectScalar(), true
		}
		return ExpectVector(s[0]), true
	case 2:
		return ExpectMatrix(s[0], s[1]), true
	default:
		return Expect{}, false
	}
}

func fmtShapeSpec(s []int) string {
	if len(s) == 1 {
		return strconv.Itoa(s[0])
	}
	v := make([]string, len(s))
	for i, n := range s {
		v[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(v, ", ") + "]"
}
