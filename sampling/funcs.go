package sampling

import (
	"math"
	"math/cmplx"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/calcgrade"
)

// FuncSampler draws a function for each sample.
type FuncSampler interface {
	SampleFunc(r *rand.Rand) (calcgrade.Func, error)
}

// RandomFunction draws smooth functions of InputDim scalar arguments. Each is
// a weighted sum of NumTerms sinusoids with random frequencies and phases,
// scaled so that its values at real arguments lie within Amplitude of
// Center. Complex functions add an independent imaginary part of the same
// form.
type RandomFunction struct {
	// InputDim is the number of arguments. Default 1.
	InputDim int `yaml:"input_dim"`
	// NumTerms is the number of sinusoids. Default 3.
	NumTerms  int     `yaml:"num_terms"`
	Center    float64 `yaml:"center"`
	Amplitude float64 `yaml:"amplitude"`
	Complex   bool    `yaml:"complex"`
}

// DefaultRandomFunction draws functions of one argument with values in
// [-10, 10].
func DefaultRandomFunction() RandomFunction {
	return RandomFunction{InputDim: 1, NumTerms: 3, Amplitude: 10}
}

func (s RandomFunction) SampleFunc(r *rand.Rand) (calcgrade.Func, error) {
	if s.InputDim == 0 {
		s.InputDim = 1
	}
	if s.NumTerms == 0 {
		s.NumTerms = 3
	}
	if s.InputDim < 0 || s.NumTerms < 0 {
		return nil, &calcgrade.ConfigError{Msg: "RandomFunction needs a positive input_dim and num_terms, got " + strconv.Itoa(s.InputDim) + " and " + strconv.Itoa(s.NumTerms)}
	}
	f := randomFunc{
		dim:    s.InputDim,
		center: s.Center,
		amp:    s.Amplitude,
		re:     waves(r, s.NumTerms, s.InputDim),
	}
	if s.Complex {
		f.im = waves(r, s.NumTerms, s.InputDim)
	}
	return &f, nil
}

type wave struct {
	coef  float64
	phase float64
	freq  []float64
}

// waves draws n sinusoids of dim variables whose coefficients sum to 1.
func waves(r *rand.Rand, n, dim int) []wave {
	w := make([]wave, n)
	var total float64
	for i := range w {
		w[i].coef = uniform(r, 0.1, 1)
		w[i].phase = uniform(r, 0, 2*math.Pi)
		w[i].freq = make([]float64, dim)
		for k := range w[i].freq {
			w[i].freq[k] = uniform(r, 0.5, 2)
		}
		total += w[i].coef
	}
	for i := range w {
		w[i].coef /= total
	}
	return w
}

type randomFunc struct {
	dim    int
	center float64
	amp    float64
	re, im []wave
}

func (f *randomFunc) Call(args []calcgrade.Value) (calcgrade.Value, error) {
	if len(args) != f.dim {
		return calcgrade.Value{}, &calcgrade.FunctionEvalError{Msg: "Expected " + strconv.Itoa(f.dim) + " arguments, but received " + strconv.Itoa(len(args))}
	}
	for _, a := range args {
		if !a.IsScalar() {
			return calcgrade.Value{}, &calcgrade.FunctionEvalError{Msg: "Random functions only accept scalar arguments, but received a " + a.Shape().String()}
		}
	}
	z := complex(f.center, 0) + complex(f.amp, 0)*sum(f.re, args)
	if f.im != nil {
		z += complex(0, f.amp) * sum(f.im, args)
	}
	if imag(z) == 0 {
		return calcgrade.Real(real(z)), nil
	}
	return calcgrade.Complex(z), nil
}

func sum(w []wave, args []calcgrade.Value) complex128 {
	var s complex128
	for _, t := range w {
		x := complex(t.phase, 0)
		for k, a := range args {
			x += complex(t.freq[k], 0) * a.Complex()
		}
		s += complex(t.coef, 0) * cmplx.Sin(x)
	}
	return s
}

// SpecificFunctions draws uniformly from a list of functions.
type SpecificFunctions []calcgrade.Func

func (s SpecificFunctions) SampleFunc(r *rand.Rand) (calcgrade.Func, error) {
	if len(s) == 0 {
		return nil, &calcgrade.ConfigError{Msg: "SpecificFunctions has no functions to sample"}
	}
	return s[r.Intn(len(s))], nil
}

// GenerateFuncs draws n samples of functions for each name in from.
func GenerateFuncs(n int, from map[string]FuncSampler, r *rand.Rand) ([]map[string]calcgrade.Func, error) {
	names := make([]string, 0, len(from))
	for k := range from {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]map[string]calcgrade.Func, n)
	for j := range out {
		out[j] = make(map[string]calcgrade.Func, len(names))
		for _, k := range names {
			f, err := from[k].SampleFunc(r)
			if err != nil {
				return nil, &calcgrade.ConfigError{Err: errors.Wrapf(err, "sampling function %s", k)}
			}
			out[j][k] = f
		}
	}
	return out, nil
}

// FuncSpec is a function sampler decoded from YAML. A function name or a
// list of names draws from those default functions, and a mapping with type
// random_function draws a RandomFunction:
//
//	f: {type: random_function, input_dim: 2, amplitude: 3}
//	g: [sin, cos, tan]
//	h: exp
type FuncSpec struct {
	FuncSampler
}

func (s *FuncSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		var names []string
		if n.Kind == yaml.ScalarNode {
			names = []string{n.Value}
		} else if err := n.Decode(&names); err != nil {
			return err
		}
		fs, err := namedFuncs(names)
		if err != nil {
			return errors.Wrapf(err, "line %d: function sampler", n.Line)
		}
		s.FuncSampler = fs
		return nil
	case yaml.MappingNode:
		var t struct {
			Type string `yaml:"type"`
		}
		if err := n.Decode(&t); err != nil {
			return err
		}
		switch t.Type {
		case "random_function":
			f := DefaultRandomFunction()
			if err := n.Decode(&f); err != nil {
				return err
			}
			s.FuncSampler = f
			return nil
		case "specific_functions":
			var v struct {
				Functions []string `yaml:"functions"`
			}
			if err := n.Decode(&v); err != nil {
				return err
			}
			fs, err := namedFuncs(v.Functions)
			if err != nil {
				return errors.Wrapf(err, "line %d: specific_functions sampler", n.Line)
			}
			s.FuncSampler = fs
			return nil
		case "":
			return errors.Errorf("line %d: function sampler: missing type", n.Line)
		default:
			return errors.Errorf("line %d: %s function sampler: unknown type", n.Line, t.Type)
		}
	default:
		return errors.Errorf("line %d: cannot decode function sampler", n.Line)
	}
}

// namedFuncs looks up default functions by name.
func namedFuncs(names []string) (SpecificFunctions, error) {
	if len(names) == 0 {
		return nil, errors.New("no functions")
	}
	def := calcgrade.DefaultFuncs()
	fs := make(SpecificFunctions, len(names))
	var bad []string
	for i, k := range names {
		f, ok := def[k]
		if !ok {
			bad = append(bad, k)
			continue
		}
		fs[i] = f
	}
	if len(bad) != 0 {
		return nil, errors.Errorf("unknown functions %s", strings.Join(bad, ", "))
	}
	return fs, nil
}
