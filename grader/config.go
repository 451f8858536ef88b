package grader

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/calcgrade"
	"github.com/zephyrtronium/calcgrade/sampling"
)

// Config configures a Grader. The zero value of each field is its default.
type Config struct {
	// Answers are the author's expressions. An input is correct if it
	// matches any of them.
	Answers Answers `yaml:"answers"`
	// Variables are the names sampled for each comparison.
	Variables []string `yaml:"variables"`
	// NumberedVars are bases of numbered variable families, e.g. a for
	// a_{1}, a_{-2}, and so on.
	NumberedVars []string `yaml:"numbered_vars"`
	// SampleFrom gives samplers for variables. Variables without one sample
	// from [1, 5]. A sampler named by the base of a numbered variable family
	// applies to every member of the family.
	SampleFrom map[string]sampling.Spec `yaml:"sample_from"`
	// Constants are additional named constants.
	Constants map[string]float64 `yaml:"user_constants"`
	// Functions are additional functions for answers and inputs, e.g.
	// author functions wrapped with calcgrade.SpecifyDomain.
	Functions map[string]calcgrade.Func `yaml:"-"`
	// UserFunctions are functions drawn anew for each sample.
	UserFunctions map[string]sampling.FuncSpec `yaml:"user_functions"`
	// Samples is the number of samples to compare. Default 5.
	Samples int `yaml:"samples"`
	// Tolerance is either an absolute tolerance like "1e-6" or a tolerance
	// relative to the author's answer like "0.01%". Default "0.01%".
	Tolerance string `yaml:"tolerance"`

	Whitelist         []string `yaml:"whitelist"`
	Blacklist         []string `yaml:"blacklist"`
	RequiredFunctions []string `yaml:"required_functions"`
	ForbiddenStrings  []string `yaml:"forbidden_strings"`
	ForbiddenMessage  string   `yaml:"forbidden_message"`
	// InstructorVars are names which the author's answers may use but inputs
	// may not.
	InstructorVars []string `yaml:"instructor_vars"`
	MetricSuffixes bool     `yaml:"metric_suffixes"`

	// Matrix enables vector input by default.
	Matrix bool `yaml:"matrix"`
	// MaxArrayDim limits array literals. Default 0, or 1 for matrix graders.
	MaxArrayDim           int  `yaml:"max_array_dim"`
	DisableNegativePowers bool `yaml:"disable_negative_powers"`
	// IdentityDim, if positive, provides the identity matrix I.
	IdentityDim int  `yaml:"identity_dim"`
	RealOnly    bool `yaml:"real_only"`
	// DisableShapeErrors grades inputs with array shape errors as incorrect
	// instead of returning the error.
	DisableShapeErrors bool          `yaml:"disable_shape_errors"`
	ShapeMismatch      ShapeMismatch `yaml:"answer_shape_mismatch"`

	// Debug appends a report of every sample to each result and logs it.
	Debug bool `yaml:"debug"`
	// Seed seeds sampling. If zero, samples differ between graders.
	Seed int64 `yaml:"seed"`
	// Logger receives debug records. Default slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// Answers is a list of answers. In YAML it may also be a single string.
type Answers []string

func (a *Answers) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*a = Answers{s}
		return nil
	}
	var l []string
	if err := n.Decode(&l); err != nil {
		return err
	}
	*a = l
	return nil
}

// ShapeMismatch configures how inputs with a different shape from the
// answer are reported.
type ShapeMismatch struct {
	// Grade marks such inputs incorrect instead of returning an
	// *InputTypeError.
	Grade bool `yaml:"grade"`
	// Detail is "type" to name the expected kind of value, "shape" to name
	// the exact expected shape, or "none" for no message. Default "type".
	Detail string `yaml:"msg_detail"`
}

// DecodeConfig decodes a YAML grader configuration. Unknown keys are errors.
func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding grader config")
	}
	return cfg, nil
}

// normalize returns the config with defaults filled in.
func (c *Config) normalize() Config {
	if c == nil {
		return Config{Samples: 5, Tolerance: "0.01%", ShapeMismatch: ShapeMismatch{Detail: "type"}, Logger: slog.Default()}
	}
	out := *c
	if out.Samples == 0 {
		out.Samples = 5
	}
	if out.Tolerance == "" {
		out.Tolerance = "0.01%"
	}
	if out.Matrix && out.MaxArrayDim == 0 {
		out.MaxArrayDim = 1
	}
	if out.ShapeMismatch.Detail == "" {
		out.ShapeMismatch.Detail = "type"
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

// validate checks the normalized config.
func (c *Config) validate() error {
	if len(c.Answers) == 0 {
		return &calcgrade.ConfigError{Msg: "At least one answer is required"}
	}
	if len(c.Whitelist) != 0 && len(c.Blacklist) != 0 {
		return &calcgrade.ConfigError{Msg: "Cannot whitelist and blacklist at the same time"}
	}
	if c.Samples < 0 {
		return &calcgrade.ConfigError{Msg: "samples must be positive, got " + strconv.Itoa(c.Samples)}
	}
	if c.MaxArrayDim < 0 || c.MaxArrayDim > 2 {
		return &calcgrade.ConfigError{Msg: "max_array_dim must be between 0 and 2, got " + strconv.Itoa(c.MaxArrayDim)}
	}
	if c.IdentityDim < 0 {
		return &calcgrade.ConfigError{Msg: "identity_dim must not be negative, got " + strconv.Itoa(c.IdentityDim)}
	}
	switch c.ShapeMismatch.Detail {
	case "type", "shape", "none":
	default:
		return &calcgrade.ConfigError{Msg: "answer_shape_mismatch msg_detail must be one of type, shape, none; got " + strconv.Quote(c.ShapeMismatch.Detail)}
	}
	var bad []string
	for _, names := range [][]string{c.Variables, c.NumberedVars} {
		for _, v := range names {
			if !calcgrade.ValidVariableName(v) {
				bad = append(bad, v)
			}
		}
	}
	if len(bad) != 0 {
		return &calcgrade.ConfigError{Msg: "Invalid variable names: " + strings.Join(bad, ", ")}
	}
	bad = bad[:0]
	for k, f := range c.Functions {
		if !calcgrade.ValidVariableName(k) || f == nil {
			bad = append(bad, k)
		}
	}
	for k, f := range c.UserFunctions {
		if !calcgrade.ValidVariableName(k) || f.FuncSampler == nil {
			bad = append(bad, k)
		}
	}
	if len(bad) != 0 {
		sort.Strings(bad)
		return &calcgrade.ConfigError{Msg: "Invalid user functions: " + strings.Join(bad, ", ")}
	}
	for k := range c.UserFunctions {
		if _, ok := c.Functions[k]; ok {
			bad = append(bad, k)
		}
	}
	if len(bad) != 0 {
		sort.Strings(bad)
		return &calcgrade.ConfigError{Msg: "Functions are both fixed and sampled: " + strings.Join(bad, ", ")}
	}
	for k := range c.SampleFrom {
		if !c.declared(k) {
			bad = append(bad, k)
		}
	}
	if len(bad) != 0 {
		sort.Strings(bad)
		return &calcgrade.ConfigError{Msg: "sample_from has samplers for undeclared variables: " + strings.Join(bad, ", ")}
	}
	if _, err := parseTolerance(c.Tolerance); err != nil {
		return err
	}
	return nil
}

// declared reports whether a name is a variable, a numbered variable family,
// or a member of one.
func (c *Config) declared(name string) bool {
	if contains(c.Variables, name) || contains(c.NumberedVars, name) {
		return true
	}
	base, _, ok := calcgrade.NumberedName(name)
	return ok && contains(c.NumberedVars, base)
}

func contains(l []string, s string) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}
	return false
}

// tolerance is an absolute or relative comparison tolerance.
type tolerance struct {
	x   float64
	rel bool
	src string
}

func parseTolerance(s string) (tolerance, error) {
	t := strings.TrimSpace(s)
	rel := strings.HasSuffix(t, "%")
	if rel {
		t = strings.TrimSpace(t[:len(t)-1])
	}
	x, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return tolerance{}, &calcgrade.ConfigError{Msg: "Invalid tolerance " + strconv.Quote(s), Err: errors.WithStack(err)}
	}
	if x < 0 || math.IsNaN(x) {
		return tolerance{}, &calcgrade.ConfigError{Msg: "Tolerance must not be negative, got " + strconv.Quote(s)}
	}
	if rel {
		x /= 100
	}
	return tolerance{x: x, rel: rel, src: s}, nil
}

func (t tolerance) String() string {
	return t.src
}

// within reports whether got is within tolerance of want. The values must
// have the same shape.
func (t tolerance) within(want, got calcgrade.Value) bool {
	d, err := calcgrade.Sub(want, got)
	if err != nil {
		return false
	}
	diff := magnitude(d)
	if math.IsNaN(diff) {
		return false
	}
	if math.IsInf(diff, 0) {
		return false
	}
	tol := t.x
	if t.rel {
		tol *= magnitude(want)
	}
	return diff <= tol
}

// magnitude is the absolute value of a scalar or the norm of an array.
func magnitude(v calcgrade.Value) float64 {
	if v.Kind() == calcgrade.KindArray {
		return v.Array().Norm()
	}
	z := v.Complex()
	return math.Hypot(real(z), imag(z))
}
