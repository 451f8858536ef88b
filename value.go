package calcgrade

import (
	"math"
	"strconv"
)

// Kind is the kind of a Value.
type Kind int8

const (
	// KindReal is a real scalar.
	KindReal Kind = iota
	// KindComplex is a complex scalar.
	KindComplex
	// KindArray is a vector or matrix.
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindComplex:
		return "complex"
	case KindArray:
		return "array"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is the result of evaluating an expression or any subexpression. The
// zero Value is the real number 0.
type Value struct {
	kind Kind
	z    complex128
	a    *MathArray
}

// Real creates a real scalar value.
func Real(x float64) Value {
	return Value{kind: KindReal, z: complex(x, 0)}
}

// Complex creates a complex scalar value. The result is complex even if the
// imaginary part of z is zero.
func Complex(z complex128) Value {
	return Value{kind: KindComplex, z: z}
}

// Array creates an array value. Panics if a is nil.
func Array(a *MathArray) Value {
	if a == nil {
		panic("calcgrade: nil array")
	}
	return Value{kind: KindArray, a: a}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsScalar reports whether the value is a real or complex scalar.
func (v Value) IsScalar() bool {
	return v.kind != KindArray
}

// Float returns the real part of a scalar value. For arrays, the result is
// NaN.
func (v Value) Float() float64 {
	if v.kind == KindArray {
		return math.NaN()
	}
	return real(v.z)
}

// Complex returns a scalar value as a complex number. For arrays, the result
// is NaN.
func (v Value) Complex() complex128 {
	if v.kind == KindArray {
		return complex(math.NaN(), math.NaN())
	}
	return v.z
}

// Array returns the array held by the value, or nil if the value is a scalar.
func (v Value) Array() *MathArray {
	return v.a
}

// Shape returns the shape of the value.
func (v Value) Shape() Shape {
	if v.kind == KindArray {
		return v.a.Shape()
	}
	return Scalar()
}

// String formats the value. Scalars use the shortest representation which
// round trips; arrays use bracketed rows.
func (v Value) String() string {
	switch v.kind {
	case KindReal:
		return strconv.FormatFloat(real(v.z), 'g', -1, 64)
	case KindComplex:
		return strconv.FormatComplex(v.z, 'g', -1, 128)
	case KindArray:
		return v.a.String()
	default:
		panic("calcgrade: invalid value kind " + v.kind.String())
	}
}

// realish reports whether the imaginary part of z is negligible.
func realish(z complex128) bool {
	return math.Abs(imag(z)) <= 1e-12*math.Max(1, math.Abs(real(z)))
}

// scalar creates a real value if the imaginary part of z is exactly zero and
// a complex value otherwise.
func scalar(z complex128) Value {
	if imag(z) == 0 {
		return Real(real(z))
	}
	return Complex(z)
}

// demote converts complex scalars with negligible imaginary parts to reals.
func demote(v Value) Value {
	if v.kind == KindComplex && realish(v.z) {
		return Real(real(v.z))
	}
	return v
}

// isComplex reports whether the value has any non-negligible imaginary part.
func isComplex(v Value) bool {
	switch v.kind {
	case KindReal:
		return false
	case KindComplex:
		return !realish(v.z)
	case KindArray:
		for _, z := range v.a.data {
			if !realish(z) {
				return true
			}
		}
		return false
	default:
		panic("calcgrade: invalid value kind " + v.kind.String())
	}
}

// Shape is the mathematical shape of a value: a scalar, a vector of some
// length, or a matrix of some rows and columns. The zero Shape is Scalar().
type Shape struct {
	rank       int8
	rows, cols int
}

// Scalar returns the shape of scalars.
func Scalar() Shape {
	return Shape{}
}

// Vector returns the shape of vectors of length n.
func Vector(n int) Shape {
	return Shape{rank: 1, rows: n}
}

// Matrix returns the shape of matrices with r rows and c columns.
func Matrix(r, c int) Shape {
	return Shape{rank: 2, rows: r, cols: c}
}

// Rank returns 0 for scalars, 1 for vectors, and 2 for matrices.
func (s Shape) Rank() int {
	return int(s.rank)
}

// Len returns the length of a vector shape, or the number of rows of a matrix
// shape.
func (s Shape) Len() int {
	return s.rows
}

// Dims returns the number of rows and columns of a matrix shape. For a vector
// shape, cols is 0.
func (s Shape) Dims() (rows, cols int) {
	return s.rows, s.cols
}

// IsSquare reports whether the shape is a square matrix.
func (s Shape) IsSquare() bool {
	return s.rank == 2 && s.rows == s.cols
}

// Name describes the kind of the shape without dimensions.
func (s Shape) Name() string {
	switch s.rank {
	case 0:
		return "scalar"
	case 1:
		return "vector"
	default:
		return "matrix"
	}
}

// String describes the shape with its dimensions.
func (s Shape) String() string {
	switch s.rank {
	case 0:
		return "scalar"
	case 1:
		return "vector of length " + strconv.Itoa(s.rows)
	default:
		return "matrix of shape " + s.dims()
	}
}

// dims formats the dimensions of the shape as in error messages.
func (s Shape) dims() string {
	switch s.rank {
	case 0:
		return "scalar"
	case 1:
		return "(length: " + strconv.Itoa(s.rows) + ")"
	default:
		return "(rows: " + strconv.Itoa(s.rows) + ", cols: " + strconv.Itoa(s.cols) + ")"
	}
}

// size is the number of entries in an array of the shape.
func (s Shape) size() int {
	switch s.rank {
	case 0:
		return 1
	case 1:
		return s.rows
	default:
		return s.rows * s.cols
	}
}
