package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	exprs "github.com/zephyrtronium/calcgrade"
	"github.com/zephyrtronium/calcgrade/grader"
)

func main() {
	log.SetFlags(0)
	var (
		inname, verb, grade string
		with                [][2]string
		nl, echo            bool
		cplx, metric, debug bool
		dim                 int
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string for numbers")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&cplx, "complex", true, "allow complex results")
	flag.IntVar(&dim, "dim", 2, "maximum array literal depth: 0 for none, 1 for vectors, 2 for matrices")
	flag.BoolVar(&metric, "metric", false, "allow metric suffixes like 1k and 5m")
	flag.StringVar(&grade, "grade", "", "grade each input against a YAML grader config")
	flag.BoolVar(&debug, "debug", false, "log debug information")
	flag.Parse()
	if dim < 0 || dim > 2 {
		log.Fatalf("array depth (%d) must be between 0 and 2", dim)
	}
	if debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var ins []string
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		srcs, err := readInputs(f, nl)
		if err != nil {
			log.Fatal(err)
		}
		ins = append(ins, srcs...)
	}
	ins = append(ins, flag.Args()...)

	if grade != "" {
		os.Exit(gradeAll(grade, ins, debug))
	}

	opts := []exprs.ContextOption{exprs.MaxArrayDim(dim), exprs.RealOnly(!cplx)}
	if metric {
		opts = append(opts, exprs.MetricSuffixes())
	}
	ctx := exprs.NewContext(opts...)
	for _, d := range with {
		nm := d[0]
		vl := d[1]
		r, err := ctx.EvalString(vl)
		if err != nil {
			log.Fatalf("setting %s: %v", nm, err)
		}
		ctx = ctx.Clone(exprs.SetVar(nm, r))
	}

	var p []*exprs.Expr
	for _, in := range ins {
		a, err := exprs.Parse(in, exprs.MaxArrayDim(dim))
		if err != nil {
			log.Fatal(err)
		}
		p = append(p, a)
	}

	for _, a := range p {
		if echo {
			fmt.Printf("%v : ", a)
		}
		r, err := ctx.Eval(a)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(format(verb, r))
	}
}

// format formats numbers with verb. Arrays always use their own format.
func format(verb string, v exprs.Value) string {
	switch v.Kind() {
	case exprs.KindReal:
		return fmt.Sprintf(verb, v.Float())
	case exprs.KindComplex:
		return fmt.Sprintf(verb, v.Complex())
	default:
		return v.String()
	}
}

// gradeAll grades each input and returns the exit status: 0 if every input
// is correct, 1 if any is incorrect or fails.
func gradeAll(cfgname string, ins []string, debug bool) int {
	f, err := os.Open(cfgname)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := grader.DecodeConfig(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}
	cfg.Debug = cfg.Debug || debug
	g, err := grader.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	status := 0
	for _, in := range ins {
		r, err := g.Check(in)
		switch {
		case err != nil:
			fmt.Printf("%s : error: %v\n", in, err)
			status = 1
		case r.OK:
			fmt.Printf("%s : correct\n", in)
		default:
			fmt.Printf("%s : incorrect\n", in)
			status = 1
		}
		if r.Msg != "" {
			fmt.Println(r.Msg)
		}
	}
	return status
}

// readInputs reads expressions from r, either the whole input as one
// expression or one per non-blank line.
func readInputs(r io.Reader, lines bool) ([]string, error) {
	if !lines {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(b)) == "" {
			return nil, nil
		}
		return []string{string(b)}, nil
	}
	var ins []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if s := sc.Text(); strings.TrimSpace(s) != "" {
			ins = append(ins, s)
		}
	}
	return ins, sc.Err()
}

func infile(inname string, std bool) (io.Reader, error) {
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		return f, nil
	case inname == "-", std:
		return os.Stdin, nil
	}
	return nil, nil
}
