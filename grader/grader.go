// Package grader checks submitted formulas against an author's answers by
// comparing their values at random samples of their variables.
package grader

import (
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/zephyrtronium/calcgrade"
	"github.com/zephyrtronium/calcgrade/sampling"
)

// Grader grades submissions for one problem. It is not safe for concurrent
// use.
type Grader struct {
	cfg   Config
	tol   tolerance
	cache *calcgrade.Cache
	// base is the context for author answers. Contexts for inputs derive
	// from it.
	base *calcgrade.Context
	// vocab holds only the function restrictions on inputs.
	vocab *calcgrade.Context
	from  map[string]sampling.Sampler
	funcs map[string]sampling.FuncSampler
	rand  *rand.Rand
	log   *slog.Logger

	answers []*calcgrade.Expr
	// answerErr is the error from parsing the answers, if any.
	answerErr error
}

// Result is the outcome of grading one input.
type Result struct {
	OK bool
	// Grade is 1 for correct inputs and 0 otherwise.
	Grade float64
	Msg   string
}

func incorrect(msg string) Result {
	return Result{Msg: msg}
}

// New creates a grader. Invalid configurations give a *calcgrade.ConfigError.
func New(cfg Config) (*Grader, error) {
	c := cfg.normalize()
	if err := c.validate(); err != nil {
		return nil, pkgerrors.WithStack(err)
	}
	tol, _ := parseTolerance(c.Tolerance)
	opts := []calcgrade.ContextOption{
		calcgrade.MaxArrayDim(c.MaxArrayDim),
		calcgrade.NegativePowers(!c.DisableNegativePowers),
		calcgrade.IdentityDim(c.IdentityDim),
		calcgrade.RealOnly(c.RealOnly),
	}
	if c.MetricSuffixes {
		opts = append(opts, calcgrade.MetricSuffixes())
	}
	for k, v := range c.Constants {
		opts = append(opts, calcgrade.SetConst(k, calcgrade.Real(v)))
	}
	if len(c.Functions) != 0 {
		opts = append(opts, calcgrade.SetFuncs(c.Functions))
	}
	funcs := make(map[string]sampling.FuncSampler, len(c.UserFunctions))
	for k, v := range c.UserFunctions {
		funcs[k] = v.FuncSampler
	}
	var vopts []calcgrade.ContextOption
	if len(c.Whitelist) != 0 {
		// Author functions are always allowed.
		allow := append([]string(nil), c.Whitelist...)
		for k := range c.Functions {
			allow = append(allow, k)
		}
		for k := range funcs {
			allow = append(allow, k)
		}
		vopts = append(vopts, calcgrade.AllowFuncs(allow...))
	}
	if len(c.Blacklist) != 0 {
		vopts = append(vopts, calcgrade.DenyFuncs(c.Blacklist...))
	}
	from := make(map[string]sampling.Sampler, len(c.SampleFrom))
	for k, v := range c.SampleFrom {
		from[k] = v.Sampler
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := Grader{
		cfg:   c,
		tol:   tol,
		cache: calcgrade.NewCache(calcgrade.MaxArrayDim(c.MaxArrayDim)),
		base:  calcgrade.NewContext(opts...),
		vocab: calcgrade.NewContext(vopts...),
		from:  from,
		funcs: funcs,
		rand:  rand.New(rand.NewSource(seed)),
		log:   c.Logger,
	}
	return &g, nil
}

// parseAnswers parses the author's answers once. Failures are configuration
// errors.
func (g *Grader) parseAnswers() ([]*calcgrade.Expr, error) {
	if g.answers != nil || g.answerErr != nil {
		return g.answers, g.answerErr
	}
	answers := make([]*calcgrade.Expr, 0, len(g.cfg.Answers))
	for _, src := range g.cfg.Answers {
		e, err := g.cache.Parse(src)
		if err != nil {
			g.answerErr = &calcgrade.ConfigError{Err: err}
			return nil, g.answerErr
		}
		answers = append(answers, e)
	}
	g.answers = answers
	return answers, nil
}

// variables returns the names to sample: the configured variables and any
// members of numbered families which the expressions use.
func (g *Grader) variables(exprs ...*calcgrade.Expr) []string {
	vars := append([]string(nil), g.cfg.Variables...)
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		seen[v] = true
	}
	for _, e := range exprs {
		for _, v := range e.Vars() {
			if seen[v] {
				continue
			}
			base, _, ok := calcgrade.NumberedName(v)
			if !ok || !contains(g.cfg.NumberedVars, base) {
				continue
			}
			seen[v] = true
			vars = append(vars, v)
		}
	}
	sort.Strings(vars)
	return vars
}

// samplers returns the samplers for each variable, including members of
// numbered families.
func (g *Grader) samplers(vars []string) map[string]sampling.Sampler {
	from := make(map[string]sampling.Sampler, len(vars))
	for _, v := range vars {
		if s, ok := g.from[v]; ok {
			from[v] = s
			continue
		}
		if base, _, ok := calcgrade.NumberedName(v); ok {
			if s, ok := g.from[base]; ok {
				from[v] = s
			}
		}
	}
	return from
}

// Check grades an input. Inputs the grader cannot evaluate give an error
// describing the problem to the learner. Problems with the author's answers
// or sampling give a *calcgrade.ConfigError.
func (g *Grader) Check(input string) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, &calcgrade.MissingInputError{}
	}
	if err := calcgrade.CheckForbidden(input, g.cfg.ForbiddenStrings, g.cfg.ForbiddenMessage); err != nil {
		return Result{}, err
	}
	e, err := g.cache.Parse(input)
	if err != nil {
		return Result{}, err
	}
	answers, err := g.parseAnswers()
	if err != nil {
		return Result{}, err
	}

	vars := g.variables(append([]*calcgrade.Expr{e}, answers...)...)
	samples, err := sampling.Generate(vars, g.cfg.Samples, g.samplers(vars), g.base, g.rand)
	if err != nil {
		return Result{}, err
	}
	fsamples, err := sampling.GenerateFuncs(len(samples), g.funcs, g.rand)
	if err != nil {
		return Result{}, err
	}
	var rep *report
	if g.cfg.Debug {
		rep = newReport(input, g, len(samples))
	}

	// want[i][j] is the value of answer i at sample j.
	want := make([][]calcgrade.Value, len(answers))
	for i := range want {
		want[i] = make([]calcgrade.Value, len(samples))
	}
	got := make([]calcgrade.Value, len(samples))
	for j, s := range samples {
		author := g.base.Clone(calcgrade.SetVars(s), calcgrade.SetFuncs(fsamples[j]))
		for i, a := range answers {
			v, err := author.Eval(a)
			if err != nil {
				return Result{}, &calcgrade.ConfigError{Err: err}
			}
			want[i][j] = v
		}
		learner := author.Clone(calcgrade.Hide(g.cfg.InstructorVars...))
		v, err := learner.Eval(e)
		if err != nil {
			if g.cfg.DisableShapeErrors && errors.Is(err, calcgrade.ErrShape) {
				return g.finish(rep, incorrect(err.Error())), nil
			}
			return Result{}, err
		}
		got[j] = v
		rep.sample(j, author, want, v)
	}

	var r Result
	for i := range answers {
		ri, err := g.compare(want[i], got)
		if err != nil {
			return Result{}, err
		}
		if ri.OK || i == 0 {
			r = ri
		}
		if ri.OK {
			break
		}
	}
	rep.outcome(r)
	if r.OK {
		if err := g.vocab.CheckFuncs(e); err != nil {
			return Result{}, err
		}
		if err := calcgrade.CheckRequired(e, g.cfg.RequiredFunctions); err != nil {
			return Result{}, err
		}
	}
	return g.finish(rep, r), nil
}

// compare compares an answer's values to an input's values at each sample.
func (g *Grader) compare(want, got []calcgrade.Value) (Result, error) {
	for j := range want {
		if want[j].Shape() != got[j].Shape() {
			msg := g.mismatch(want[j].Shape(), got[j].Shape())
			if !g.cfg.ShapeMismatch.Grade {
				return Result{}, &InputTypeError{Msg: msg}
			}
			return incorrect(msg), nil
		}
		if !g.tol.within(want[j], got[j]) {
			return incorrect(""), nil
		}
	}
	return Result{OK: true, Grade: 1}, nil
}

// mismatch describes an input whose shape differs from the answer's.
func (g *Grader) mismatch(want, got calcgrade.Shape) string {
	switch g.cfg.ShapeMismatch.Detail {
	case "shape":
		return "Expected answer to be a " + want.String() + ", but input is a " + got.String()
	case "type":
		if want.Name() == got.Name() {
			return "Expected answer to be a " + want.Name() + ", but input is a " + got.Name() + " of incorrect shape"
		}
		return "Expected answer to be a " + want.Name() + ", but input is a " + got.Name()
	default:
		return ""
	}
}

// finish attaches the debug report to a result.
func (g *Grader) finish(rep *report, r Result) Result {
	if rep == nil {
		return r
	}
	s := rep.String()
	if r.Msg != "" {
		r.Msg += "\n"
	}
	r.Msg += s
	return r
}

// InputTypeError is an error for an input whose value has a different shape
// from the answer's.
type InputTypeError struct {
	Msg string
}

func (err *InputTypeError) Error() string {
	return err.Msg
}

func (err *InputTypeError) Is(target error) bool {
	return target == calcgrade.ErrInvalidInput
}
