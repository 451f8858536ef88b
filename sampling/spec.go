package sampling

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/calcgrade"
)

// Spec is a sampler decoded from YAML. A two element sequence is a
// RealInterval, a single number always samples that number, and a mapping
// selects a sampler by its type key:
//
//	x: [1, 5]
//	n: {type: integer_range, start: 1, stop: 10}
//	z: {type: complex_sector, modulus: [0, 1]}
//	r: {type: dependent, formula: sqrt(x^2 + y^2)}
//
// Keys omitted from a mapping take the sampler's defaults.
type Spec struct {
	Sampler
}

func (s *Spec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var x float64
		if err := n.Decode(&x); err != nil {
			return err
		}
		s.Sampler = DiscreteSet{calcgrade.Real(x)}
		return nil
	case yaml.SequenceNode:
		var b []float64
		if err := n.Decode(&b); err != nil {
			return err
		}
		if len(b) != 2 {
			return errors.Errorf("line %d: sampling interval needs 2 bounds, got %d", n.Line, len(b))
		}
		s.Sampler = RealInterval{Start: b[0], Stop: b[1]}
		return nil
	case yaml.MappingNode:
		var t struct {
			Type string `yaml:"type"`
		}
		if err := n.Decode(&t); err != nil {
			return err
		}
		smp, err := decodeTyped(t.Type, n)
		if err != nil {
			return errors.Wrapf(err, "line %d: %s sampler", n.Line, t.Type)
		}
		s.Sampler = smp
		return nil
	default:
		return errors.Errorf("line %d: cannot decode sampler", n.Line)
	}
}

func decodeTyped(typ string, n *yaml.Node) (Sampler, error) {
	switch typ {
	case "real_interval":
		s := DefaultRealInterval()
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	case "integer_range":
		s := DefaultIntegerRange()
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	case "discrete_set":
		var v struct {
			Values []float64 `yaml:"values"`
		}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		if len(v.Values) == 0 {
			return nil, errors.New("no values")
		}
		s := make(DiscreteSet, len(v.Values))
		for i, x := range v.Values {
			s[i] = calcgrade.Real(x)
		}
		return s, nil
	case "complex_rectangle":
		s := DefaultComplexRectangle()
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	case "complex_sector":
		s := DefaultComplexSector()
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	case "real_vectors", "real_matrices", "complex_matrices":
		return decodeArray(typ, n)
	case "dependent":
		var v struct {
			Formula string `yaml:"formula"`
		}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		d, err := NewDependentSampler(v.Formula)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "":
		return nil, errors.New("missing type")
	default:
		return nil, errors.New("unknown type")
	}
}

// decodeArray decodes an array sampler whose shape is either a single length
// or a list of dimensions.
func decodeArray(typ string, n *yaml.Node) (Sampler, error) {
	var v struct {
		Shape yaml.Node  `yaml:"shape"`
		Norm  [2]float64 `yaml:"norm"`
	}
	v.Norm = [2]float64{1, 5}
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	var shape []int
	switch v.Shape.Kind {
	case 0:
		shape = DefaultRealMatrices().Shape
		if typ == "real_vectors" {
			shape = DefaultRealVectors().Shape
		}
	case yaml.ScalarNode:
		var k int
		if err := v.Shape.Decode(&k); err != nil {
			return nil, err
		}
		shape = []int{k}
	default:
		if err := v.Shape.Decode(&shape); err != nil {
			return nil, err
		}
	}
	if len(shape) < 1 || len(shape) > 2 || shape[0] <= 0 || shape[len(shape)-1] <= 0 {
		return nil, errors.Errorf("shape must be a positive length or a pair of positive dimensions, got %v", shape)
	}
	if typ == "complex_matrices" {
		return ComplexMatrices{Shape: shape, Norm: v.Norm}, nil
	}
	return RealVectors{Shape: shape, Norm: v.Norm}, nil
}
