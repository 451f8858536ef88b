package grader

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/zephyrtronium/calcgrade"
)

// report accumulates the debug information for one check. A nil report
// records nothing.
type report struct {
	b   strings.Builder
	p   *message.Printer
	log *slog.Logger
	n   int
}

const rule = "=============================================================="

func newReport(input string, g *Grader, n int) *report {
	r := report{p: message.NewPrinter(language.English), log: g.log, n: n}
	r.p.Fprintf(&r.b, "Learner response: %s\n", input)
	r.p.Fprintf(&r.b, "%s\nGrader debug info\n%s\n", rule, rule)
	r.p.Fprintf(&r.b, "Answers: %s\n", strings.Join(g.cfg.Answers, "; "))
	switch {
	case len(g.cfg.Whitelist) != 0:
		r.p.Fprintf(&r.b, "Functions allowed in answer: %s\n", strings.Join(g.cfg.Whitelist, ", "))
	case len(g.cfg.Blacklist) != 0:
		r.p.Fprintf(&r.b, "Functions disallowed in answer: %s\n", strings.Join(g.cfg.Blacklist, ", "))
	default:
		r.p.Fprintf(&r.b, "Functions allowed in answer: all\n")
	}
	if fns := g.userFuncs(); len(fns) != 0 {
		r.p.Fprintf(&r.b, "User functions: %s\n", strings.Join(fns, ", "))
	}
	if len(g.cfg.InstructorVars) != 0 {
		r.p.Fprintf(&r.b, "Instructor variables: %s\n", strings.Join(g.cfg.InstructorVars, ", "))
	}
	r.p.Fprintf(&r.b, "Tolerance: %s\n", g.tol)
	g.log.Debug("grading",
		slog.String("input", input),
		slog.Int("samples", n),
		slog.String("tolerance", g.tol.String()))
	return &r
}

// value formats a value, using locale formatting for real numbers.
func (r *report) value(v calcgrade.Value) string {
	if v.Kind() == calcgrade.KindReal {
		return r.p.Sprintf("%v", number.Decimal(v.Float(), number.MaxFractionDigits(6)))
	}
	return v.String()
}

// sample records the variables and values of sample j.
func (r *report) sample(j int, ctx *calcgrade.Context, want [][]calcgrade.Value, got calcgrade.Value) {
	if r == nil {
		return
	}
	r.p.Fprintf(&r.b, "\nSample %d of %d\n", j+1, r.n)
	for _, b := range ctx.Snapshot() {
		r.p.Fprintf(&r.b, "  %s = %s\n", b.Name, r.value(b.Value))
	}
	ans := make([]string, len(want))
	for i := range want {
		ans[i] = r.value(want[i][j])
		r.p.Fprintf(&r.b, "Author answer %d: %s\n", i+1, ans[i])
	}
	g := r.value(got)
	r.p.Fprintf(&r.b, "Learner answer: %s\n", g)
	r.log.Debug("sample",
		slog.Int("sample", j+1),
		slog.Any("author", ans),
		slog.String("learner", g))
}

// outcome records the comparison result.
func (r *report) outcome(res Result) {
	if r == nil {
		return
	}
	r.p.Fprintf(&r.b, "\n%s\nComparison result: ok=%t grade=%v\n", rule, res.OK, res.Grade)
	if res.Msg != "" {
		r.p.Fprintf(&r.b, "Message: %s\n", res.Msg)
	}
	r.log.Debug("result", slog.Bool("ok", res.OK), slog.String("msg", res.Msg))
}

func (r *report) String() string {
	return r.b.String()
}

// userFuncs lists the names of fixed and sampled author functions.
func (g *Grader) userFuncs() []string {
	var fns []string
	for k := range g.cfg.Functions {
		fns = append(fns, k)
	}
	for k := range g.funcs {
		fns = append(fns, k)
	}
	sort.Strings(fns)
	return fns
}
