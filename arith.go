package calcgrade

import (
	"math"
	"math/cmplx"
	"strconv"
)

// combine creates the result of a scalar operation on a and b. The result is
// real if both operands are real.
func combine(a, b Value, z complex128) Value {
	if a.kind == KindReal && b.kind == KindReal {
		return Real(real(z))
	}
	return Complex(z)
}

// Add adds two values. Scalars add to scalars and arrays add to arrays of the
// same shape.
func Add(a, b Value) (Value, error) {
	return addsub(a, b, false)
}

// Sub subtracts b from a with the same shape rules as Add.
func Sub(a, b Value) (Value, error) {
	return addsub(a, b, true)
}

func addsub(a, b Value, sub bool) (Value, error) {
	f := func(x, y complex128) complex128 { return x + y }
	if sub {
		f = func(x, y complex128) complex128 { return x - y }
	}
	switch {
	case a.kind != KindArray && b.kind != KindArray:
		return combine(a, b, f(a.z, b.z)), nil
	case a.kind != KindArray:
		return Value{}, &MathArrayShapeError{Msg: "Cannot add/subtract scalars to a " + b.Shape().Name() + "."}
	case b.kind != KindArray:
		return Value{}, &MathArrayShapeError{Msg: "Cannot add/subtract scalars to a " + a.Shape().Name() + "."}
	}
	if a.a.shape != b.a.shape {
		return Value{}, &MathArrayShapeError{Msg: "Cannot add/subtract a " + a.a.shape.String() + " with a " + b.a.shape.String() + "."}
	}
	return Array(a.a.zip(b.a, f)), nil
}

// Neg negates a value.
func Neg(a Value) Value {
	switch a.kind {
	case KindArray:
		return Array(a.a.scale(-1))
	case KindReal:
		// Reals always have +0 imaginary part, which decides branch cuts.
		return Real(-real(a.z))
	default:
		return Complex(-a.z)
	}
}

// Mul multiplies two values. Scalars broadcast over arrays. Two arrays
// multiply by matrix product rules, where the product of two vectors is their
// dot product.
func Mul(a, b Value) (Value, error) {
	switch {
	case a.kind != KindArray && b.kind != KindArray:
		return combine(a, b, a.z*b.z), nil
	case a.kind != KindArray:
		return Array(b.a.scale(a.z)), nil
	case b.kind != KindArray:
		return Array(a.a.scale(b.z)), nil
	default:
		return matmul(a.a, b.a)
	}
}

// Div divides a by b. Division by a square matrix multiplies by its inverse.
func Div(a, b Value) (Value, error) {
	return div(a, b, true)
}

// div divides a by b. If negpow is false, division by a matrix is an error.
func div(a, b Value, negpow bool) (Value, error) {
	if b.kind != KindArray {
		if b.z == 0 {
			return Value{}, divzero()
		}
		if a.kind == KindArray {
			return Array(a.a.scale(1 / b.z)), nil
		}
		return combine(a, b, a.z/b.z), nil
	}
	s := b.a.shape
	switch {
	case s.rank == 1:
		return Value{}, &MathArrayShapeError{Msg: "Cannot divide by a vector."}
	case !s.IsSquare():
		return Value{}, &MathArrayShapeError{Msg: "Cannot divide by a non-square matrix."}
	case !negpow:
		return Value{}, errNegPow()
	}
	inv, err := b.a.Inverse()
	if err != nil {
		return Value{}, err
	}
	return Mul(a, Array(inv))
}

func errNegPow() error {
	return &MathArrayError{Msg: "Negative matrix powers have been disabled."}
}

// Pow raises a to the power b. Square matrices may be raised to integer
// powers, including negative powers.
func Pow(a, b Value) (Value, error) {
	return pow(a, b, true)
}

// pow raises a to the power b. If negpow is false, negative matrix powers are
// an error.
func pow(a, b Value, negpow bool) (Value, error) {
	if b.kind == KindArray {
		return Value{}, &MathArrayShapeError{Msg: "Cannot use a " + b.a.shape.Name() + " as an exponent."}
	}
	if a.kind != KindArray {
		return scalarpow(a, b)
	}
	s := a.a.shape
	switch {
	case s.rank == 1:
		return Value{}, &MathArrayShapeError{Msg: "Cannot raise a vector to powers."}
	case !s.IsSquare():
		return Value{}, &MathArrayShapeError{Msg: "Cannot raise a non-square matrix to powers."}
	}
	x := real(b.z)
	if imag(b.z) != 0 || x != math.Trunc(x) || math.IsInf(x, 0) {
		return Value{}, &MathArrayError{Msg: "Matrices can only be raised to integer powers."}
	}
	if math.Abs(x) > math.MaxInt32 {
		return Value{}, &MathArrayError{Msg: "Matrix power " + strconv.FormatFloat(x, 'g', -1, 64) + " is too large."}
	}
	n := int(x)
	if n < 0 && !negpow {
		return Value{}, errNegPow()
	}
	r, err := matpow(a.a, n)
	if err != nil {
		return Value{}, err
	}
	return Array(r), nil
}

func scalarpow(a, b Value) (Value, error) {
	if a.z == 0 && real(b.z) < 0 {
		return Value{}, divzero()
	}
	if a.kind == KindReal && b.kind == KindReal {
		x, y := real(a.z), real(b.z)
		if x >= 0 || y == math.Trunc(y) {
			return Real(math.Pow(x, y)), nil
		}
	}
	return Complex(cmplx.Pow(a.z, b.z)), nil
}
