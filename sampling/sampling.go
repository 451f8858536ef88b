// Package sampling draws random values for the variables of a formula.
package sampling

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/zephyrtronium/calcgrade"
)

// Sampler draws values for one variable.
type Sampler interface {
	Sample(r *rand.Rand) (calcgrade.Value, error)
}

// RealInterval samples real numbers uniformly from [Start, Stop]. The bounds
// may be given in either order.
type RealInterval struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
}

// DefaultRealInterval samples from [1, 5].
func DefaultRealInterval() RealInterval {
	return RealInterval{Start: 1, Stop: 5}
}

func (s RealInterval) Sample(r *rand.Rand) (calcgrade.Value, error) {
	return calcgrade.Real(uniform(r, s.Start, s.Stop)), nil
}

// uniform draws from the interval between a and b, in either order.
func uniform(r *rand.Rand, a, b float64) float64 {
	if a > b {
		a, b = b, a
	}
	return a + (b-a)*r.Float64()
}

// IntegerRange samples integers uniformly from Start through Stop, inclusive.
// The bounds may be given in either order.
type IntegerRange struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
}

// DefaultIntegerRange samples from 1 through 5.
func DefaultIntegerRange() IntegerRange {
	return IntegerRange{Start: 1, Stop: 5}
}

func (s IntegerRange) Sample(r *rand.Rand) (calcgrade.Value, error) {
	a, b := s.Start, s.Stop
	if a > b {
		a, b = b, a
	}
	return calcgrade.Real(float64(a + r.Intn(b-a+1))), nil
}

// DiscreteSet samples uniformly from a fixed list of values.
type DiscreteSet []calcgrade.Value

func (s DiscreteSet) Sample(r *rand.Rand) (calcgrade.Value, error) {
	if len(s) == 0 {
		return calcgrade.Value{}, &calcgrade.ConfigError{Msg: "DiscreteSet has no values to sample"}
	}
	return s[r.Intn(len(s))], nil
}

// ComplexRectangle samples complex numbers uniformly from a rectangle in the
// complex plane.
type ComplexRectangle struct {
	Re [2]float64 `yaml:"re"`
	Im [2]float64 `yaml:"im"`
}

// DefaultComplexRectangle samples real and imaginary parts from [1, 3].
func DefaultComplexRectangle() ComplexRectangle {
	return ComplexRectangle{Re: [2]float64{1, 3}, Im: [2]float64{1, 3}}
}

func (s ComplexRectangle) Sample(r *rand.Rand) (calcgrade.Value, error) {
	re := uniform(r, s.Re[0], s.Re[1])
	im := uniform(r, s.Im[0], s.Im[1])
	return calcgrade.Complex(complex(re, im)), nil
}

// ComplexSector samples complex numbers uniformly in modulus and argument.
type ComplexSector struct {
	Modulus  [2]float64 `yaml:"modulus"`
	Argument [2]float64 `yaml:"argument"`
}

// DefaultComplexSector samples moduli from [1, 3] and arguments from
// [0, π/2].
func DefaultComplexSector() ComplexSector {
	return ComplexSector{Modulus: [2]float64{1, 3}, Argument: [2]float64{0, math.Pi / 2}}
}

func (s ComplexSector) Sample(r *rand.Rand) (calcgrade.Value, error) {
	m := uniform(r, s.Modulus[0], s.Modulus[1])
	t := uniform(r, s.Argument[0], s.Argument[1])
	s1, c := math.Sincos(t)
	return calcgrade.Complex(complex(m*c, m*s1)), nil
}

// RealVectors samples real vectors or matrices pointing in a uniformly random
// direction, with Frobenius norm uniform in Norm.
type RealVectors struct {
	// Shape is [n] for vectors of length n or [rows, cols] for matrices.
	Shape []int      `yaml:"shape"`
	Norm  [2]float64 `yaml:"norm"`
}

// RealMatrices is RealVectors with a matrix default shape.
type RealMatrices = RealVectors

// DefaultRealVectors samples vectors of length 3 with norm in [1, 5].
func DefaultRealVectors() RealVectors {
	return RealVectors{Shape: []int{3}, Norm: [2]float64{1, 5}}
}

// DefaultRealMatrices samples 2 by 2 matrices with norm in [1, 5].
func DefaultRealMatrices() RealMatrices {
	return RealMatrices{Shape: []int{2, 2}, Norm: [2]float64{1, 5}}
}

func (s RealVectors) Sample(r *rand.Rand) (calcgrade.Value, error) {
	return sampleArray(r, s.Shape, s.Norm, false)
}

// ComplexMatrices samples complex vectors or matrices with Frobenius norm
// uniform in Norm.
type ComplexMatrices struct {
	Shape []int      `yaml:"shape"`
	Norm  [2]float64 `yaml:"norm"`
}

// DefaultComplexMatrices samples 2 by 2 complex matrices with norm in [1, 5].
func DefaultComplexMatrices() ComplexMatrices {
	return ComplexMatrices{Shape: []int{2, 2}, Norm: [2]float64{1, 5}}
}

func (s ComplexMatrices) Sample(r *rand.Rand) (calcgrade.Value, error) {
	return sampleArray(r, s.Shape, s.Norm, true)
}

func sampleArray(r *rand.Rand, shape []int, norm [2]float64, cplx bool) (calcgrade.Value, error) {
	rows, cols := 0, 0
	switch len(shape) {
	case 1:
		rows, cols = 1, shape[0]
	case 2:
		rows, cols = shape[0], shape[1]
	}
	if rows <= 0 || cols <= 0 {
		return calcgrade.Value{}, errors.Errorf("invalid sample shape %v", shape)
	}
	entries := make([]complex128, rows*cols)
	var sum float64
	for sum == 0 {
		sum = 0
		for i := range entries {
			z := complex(r.NormFloat64(), 0)
			if cplx {
				z += complex(0, r.NormFloat64())
			}
			entries[i] = z
			sum += real(z)*real(z) + imag(z)*imag(z)
		}
	}
	k := complex(uniform(r, norm[0], norm[1])/math.Sqrt(sum), 0)
	for i := range entries {
		entries[i] *= k
	}
	if len(shape) == 1 {
		return calcgrade.Array(calcgrade.NewVector(entries)), nil
	}
	m := make([][]complex128, rows)
	for i := range m {
		m[i] = entries[i*cols : (i+1)*cols]
	}
	a, err := calcgrade.NewMatrix(m)
	if err != nil {
		return calcgrade.Value{}, err
	}
	return calcgrade.Array(a), nil
}

// DependentSampler computes a variable from the sampled values of others.
// Its dependencies are the variables its formula uses.
type DependentSampler struct {
	formula *calcgrade.Expr
}

// NewDependentSampler parses a dependent sampling formula.
func NewDependentSampler(formula string) (*DependentSampler, error) {
	e, err := calcgrade.Parse(formula, calcgrade.MaxArrayDim(2))
	if err != nil {
		return nil, formulaError(formula, err)
	}
	return &DependentSampler{formula: e}, nil
}

func formulaError(formula string, err error) error {
	return &calcgrade.ConfigError{Msg: "Formula error in dependent sampling formula: " + formula, Err: err}
}

// Formula returns the formula text.
func (s *DependentSampler) Formula() string {
	return s.formula.Source()
}

// Depends returns the names the formula uses, in sorted order.
func (s *DependentSampler) Depends() []string {
	return s.formula.Vars()
}

// Sample always fails. Dependent values are computed by Generate.
func (s *DependentSampler) Sample(r *rand.Rand) (calcgrade.Value, error) {
	return calcgrade.Value{}, errors.New("DependentSampler must be resolved by Generate")
}

// compute evaluates the formula with the values sampled so far.
func (s *DependentSampler) compute(ctx *calcgrade.Context, sampled map[string]calcgrade.Value) (calcgrade.Value, error) {
	v, err := ctx.Clone(calcgrade.SetVars(sampled)).Eval(s.formula)
	if err != nil {
		return calcgrade.Value{}, formulaError(s.Formula(), err)
	}
	return v, nil
}
