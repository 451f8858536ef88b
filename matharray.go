package calcgrade

import (
	"math"
	"math/cmplx"
	"strings"
)

// MathArray is a vector or matrix of complex entries. A MathArray is never
// modified after it is created; every operation returns a new array.
//
// A matrix with one row is a different shape from a vector of the same
// length, and the two never compare equal.
type MathArray struct {
	shape Shape
	// data holds the entries in row-major order.
	data []complex128
}

// NewVector creates a vector from its entries. Panics if there are none.
func NewVector(entries []complex128) *MathArray {
	if len(entries) == 0 {
		panic("calcgrade: empty vector")
	}
	return &MathArray{shape: Vector(len(entries)), data: append([]complex128(nil), entries...)}
}

// NewRealVector creates a vector from real entries.
func NewRealVector(entries []float64) *MathArray {
	z := make([]complex128, len(entries))
	for i, x := range entries {
		z[i] = complex(x, 0)
	}
	return NewVector(z)
}

// NewMatrix creates a matrix from its rows. It is an error for the rows to
// have different lengths or for there to be no entries.
func NewMatrix(rows [][]complex128) (*MathArray, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &MathArrayShapeError{Msg: "Cannot create an empty matrix."}
	}
	c := len(rows[0])
	data := make([]complex128, 0, len(rows)*c)
	for _, row := range rows {
		if len(row) != c {
			return nil, &MathArrayShapeError{Msg: "Cannot create a matrix from rows of unequal lengths."}
		}
		data = append(data, row...)
	}
	return &MathArray{shape: Matrix(len(rows), c), data: data}, nil
}

// NewRealMatrix creates a matrix from rows of real entries.
func NewRealMatrix(rows [][]float64) (*MathArray, error) {
	z := make([][]complex128, len(rows))
	for i, row := range rows {
		z[i] = make([]complex128, len(row))
		for j, x := range row {
			z[i][j] = complex(x, 0)
		}
	}
	return NewMatrix(z)
}

// Identity creates the n by n identity matrix.
func Identity(n int) *MathArray {
	a := Zeros(Matrix(n, n))
	for i := 0; i < n; i++ {
		a.data[i*n+i] = 1
	}
	return a
}

// Zeros creates an array of zeros with the given vector or matrix shape.
// Panics if the shape is a scalar.
func Zeros(s Shape) *MathArray {
	if s.rank == 0 {
		panic("calcgrade: Zeros of scalar shape")
	}
	return &MathArray{shape: s, data: make([]complex128, s.size())}
}

// Shape returns the shape of the array.
func (a *MathArray) Shape() Shape {
	return a.shape
}

// Entries returns a copy of the entries of the array in row-major order.
func (a *MathArray) Entries() []complex128 {
	return append([]complex128(nil), a.data...)
}

// At returns the entry at row i and column j. For vectors, j must be 0.
func (a *MathArray) At(i, j int) complex128 {
	if a.shape.rank == 1 {
		if j != 0 {
			panic("calcgrade: column index on vector")
		}
		return a.data[i]
	}
	return a.data[i*a.shape.cols+j]
}

// String formats the array as nested bracketed lists.
func (a *MathArray) String() string {
	var b strings.Builder
	if a.shape.rank == 1 {
		fmtrow(&b, a.data)
		return b.String()
	}
	c := a.shape.cols
	b.WriteByte('[')
	for i := 0; i < a.shape.rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmtrow(&b, a.data[i*c:(i+1)*c])
	}
	b.WriteByte(']')
	return b.String()
}

func fmtrow(b *strings.Builder, row []complex128) {
	b.WriteByte('[')
	for i, z := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(scalar(z).String())
	}
	b.WriteByte(']')
}

// apply creates a new array of the same shape by applying f to each entry.
func (a *MathArray) apply(f func(complex128) complex128) *MathArray {
	r := &MathArray{shape: a.shape, data: make([]complex128, len(a.data))}
	for i, z := range a.data {
		r.data[i] = f(z)
	}
	return r
}

// zip creates a new array of the same shape by applying f to corresponding
// entries. a and b must have the same shape.
func (a *MathArray) zip(b *MathArray, f func(x, y complex128) complex128) *MathArray {
	r := &MathArray{shape: a.shape, data: make([]complex128, len(a.data))}
	for i, z := range a.data {
		r.data[i] = f(z, b.data[i])
	}
	return r
}

func (a *MathArray) scale(k complex128) *MathArray {
	return a.apply(func(z complex128) complex128 { return z * k })
}

// Conj returns the elementwise complex conjugate of the array.
func (a *MathArray) Conj() *MathArray {
	return a.apply(cmplx.Conj)
}

// Re returns the elementwise real part of the array.
func (a *MathArray) Re() *MathArray {
	return a.apply(func(z complex128) complex128 { return complex(real(z), 0) })
}

// Im returns the elementwise imaginary part of the array.
func (a *MathArray) Im() *MathArray {
	return a.apply(func(z complex128) complex128 { return complex(imag(z), 0) })
}

// Transpose returns the transpose of a matrix. The transpose of a vector is
// the same vector.
func (a *MathArray) Transpose() *MathArray {
	if a.shape.rank == 1 {
		return a
	}
	r, c := a.shape.rows, a.shape.cols
	t := Zeros(Matrix(c, r))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.data[j*r+i] = a.data[i*c+j]
		}
	}
	return t
}

// ConjTranspose returns the conjugate transpose of the array.
func (a *MathArray) ConjTranspose() *MathArray {
	return a.Transpose().Conj()
}

// notSquare creates the error for a function requiring a square matrix.
func notSquare(op string, s Shape) error {
	return &MathArrayShapeError{Msg: "Cannot compute the " + op + " of a " + s.String() + "; a square matrix is required."}
}

// Trace returns the sum of the diagonal of a square matrix.
func (a *MathArray) Trace() (complex128, error) {
	if !a.shape.IsSquare() {
		return 0, notSquare("trace", a.shape)
	}
	n := a.shape.rows
	var t complex128
	for i := 0; i < n; i++ {
		t += a.data[i*n+i]
	}
	return t, nil
}

// Det returns the determinant of a square matrix, computed by LU
// decomposition with partial pivoting.
func (a *MathArray) Det() (complex128, error) {
	if !a.shape.IsSquare() {
		return 0, notSquare("determinant", a.shape)
	}
	n := a.shape.rows
	m := append([]complex128(nil), a.data...)
	det := complex(1, 0)
	for k := 0; k < n; k++ {
		p := pivot(m, n, k)
		if m[p*n+k] == 0 {
			return 0, nil
		}
		if p != k {
			swaprows(m, n, p, k)
			det = -det
		}
		d := m[k*n+k]
		det *= d
		for i := k + 1; i < n; i++ {
			f := m[i*n+k] / d
			if f == 0 {
				continue
			}
			for j := k; j < n; j++ {
				m[i*n+j] -= f * m[k*n+j]
			}
		}
	}
	return det, nil
}

// Inverse returns the inverse of a square matrix, computed by Gauss-Jordan
// elimination with partial pivoting.
func (a *MathArray) Inverse() (*MathArray, error) {
	if !a.shape.IsSquare() {
		return nil, &MathArrayShapeError{Msg: "Cannot invert a " + a.shape.String() + "."}
	}
	n := a.shape.rows
	m := append([]complex128(nil), a.data...)
	inv := Identity(n)
	// Pivots below this fraction of the largest entry are treated as zero.
	tol := 1e-14 * maxabs(m)
	for k := 0; k < n; k++ {
		p := pivot(m, n, k)
		if cmplx.Abs(m[p*n+k]) <= tol {
			return nil, &MathArrayError{Msg: "Cannot invert a singular matrix."}
		}
		swaprows(m, n, p, k)
		swaprows(inv.data, n, p, k)
		d := m[k*n+k]
		for j := 0; j < n; j++ {
			m[k*n+j] /= d
			inv.data[k*n+j] /= d
		}
		for i := 0; i < n; i++ {
			if i == k {
				continue
			}
			f := m[i*n+k]
			if f == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				m[i*n+j] -= f * m[k*n+j]
				inv.data[i*n+j] -= f * inv.data[k*n+j]
			}
		}
	}
	return inv, nil
}

// pivot finds the row at or below k with the largest entry in column k.
func pivot(m []complex128, n, k int) int {
	p, best := k, cmplx.Abs(m[k*n+k])
	for i := k + 1; i < n; i++ {
		if v := cmplx.Abs(m[i*n+k]); v > best {
			p, best = i, v
		}
	}
	return p
}

func swaprows(m []complex128, n, i, j int) {
	if i == j {
		return
	}
	for c := 0; c < n; c++ {
		m[i*n+c], m[j*n+c] = m[j*n+c], m[i*n+c]
	}
}

func maxabs(m []complex128) float64 {
	var r float64
	for _, z := range m {
		r = math.Max(r, cmplx.Abs(z))
	}
	return r
}

// Norm returns the Euclidean norm of a vector or the Frobenius norm of a
// matrix.
func (a *MathArray) Norm() float64 {
	var s float64
	for _, z := range a.data {
		x := cmplx.Abs(z)
		s += x * x
	}
	return math.Sqrt(s)
}

// ApproxEqual reports whether a and b have the same shape and every pair of
// entries satisfies |x - y| <= atol + rtol*|y|.
func (a *MathArray) ApproxEqual(b *MathArray, rtol, atol float64) bool {
	if a.shape != b.shape {
		return false
	}
	for i, x := range a.data {
		y := b.data[i]
		if cmplx.Abs(x-y) > atol+rtol*cmplx.Abs(y) {
			return false
		}
	}
	return true
}

// EqualAsArrays reports whether two values are arrays of the same shape whose
// entries agree to within a small tolerance.
func EqualAsArrays(a, b Value) bool {
	if a.kind != KindArray || b.kind != KindArray {
		return false
	}
	return a.a.ApproxEqual(b.a, 1e-5, 1e-8)
}

// matmul multiplies arrays following matrix product shape rules. A vector on
// the left is a row and a vector on the right is a column; the product of two
// vectors is their dot product without conjugation.
func matmul(a, b *MathArray) (Value, error) {
	as, bs := a.shape, b.shape
	switch {
	case as.rank == 1 && bs.rank == 1:
		if as.rows != bs.rows {
			return Value{}, mulShapeError(as, bs)
		}
		var s complex128
		for i, x := range a.data {
			s += x * b.data[i]
		}
		return scalar(s), nil
	case as.rank == 2 && bs.rank == 1:
		r, k := as.rows, as.cols
		if k != bs.rows {
			return Value{}, mulShapeError(as, bs)
		}
		v := Zeros(Vector(r))
		for i := 0; i < r; i++ {
			var s complex128
			for j := 0; j < k; j++ {
				s += a.data[i*k+j] * b.data[j]
			}
			v.data[i] = s
		}
		return Array(v), nil
	case as.rank == 1 && bs.rank == 2:
		k, c := bs.rows, bs.cols
		if as.rows != k {
			return Value{}, mulShapeError(as, bs)
		}
		v := Zeros(Vector(c))
		for j := 0; j < c; j++ {
			var s complex128
			for i := 0; i < k; i++ {
				s += a.data[i] * b.data[i*c+j]
			}
			v.data[j] = s
		}
		return Array(v), nil
	default:
		if as.cols != bs.rows {
			return Value{}, mulShapeError(as, bs)
		}
		return Array(matmat(a, b)), nil
	}
}

// matmat multiplies two matrices with compatible inner dimensions.
func matmat(a, b *MathArray) *MathArray {
	r, k, c := a.shape.rows, a.shape.cols, b.shape.cols
	m := Zeros(Matrix(r, c))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			var s complex128
			for l := 0; l < k; l++ {
				s += a.data[i*k+l] * b.data[l*c+j]
			}
			m.data[i*c+j] = s
		}
	}
	return m
}

func mulShapeError(a, b Shape) error {
	return &MathArrayShapeError{Msg: "Cannot multiply a " + a.String() + " with a " + b.String() + "."}
}

// matpow raises a square matrix to an integer power by repeated squaring.
// Negative powers invert the matrix first.
func matpow(a *MathArray, n int) (*MathArray, error) {
	if n < 0 {
		inv, err := a.Inverse()
		if err != nil {
			return nil, err
		}
		a, n = inv, -n
	}
	r := Identity(a.shape.rows)
	for n > 0 {
		if n&1 != 0 {
			r = matmat(r, a)
		}
		n >>= 1
		if n > 0 {
			a = matmat(a, a)
		}
	}
	return r, nil
}

// cross computes the cross product of two length-3 vectors.
func cross(a, b *MathArray) *MathArray {
	x, y := a.data, b.data
	return NewVector([]complex128{
		x[1]*y[2] - x[2]*y[1],
		x[2]*y[0] - x[0]*y[2],
		x[0]*y[1] - x[1]*y[0],
	})
}
