package calcgrade

import (
	"strconv"
)

// Context is a context for evaluating expressions: variables, constants,
// functions, and suffixes, along with evaluation switches. It is not safe to
// use a Context concurrently. Use Clone to give each evaluation its own
// context.
type Context struct {
	stack    []Value
	vars     map[string]Value
	consts   map[string]Value
	funcs    map[string]Func
	suffixes map[string]float64
	// hidden is the set of names which fail lookup as reserved.
	hidden map[string]bool
	// allow, if not nil, is the set of function names expressions may call.
	allow map[string]bool
	// deny is the set of function names expressions may not call.
	deny   map[string]bool
	real   bool
	negpow bool
	maxdim int
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  Value
	}
	varsopt   map[string]Value
	constopt  varopt
	constsopt map[string]Value
	funcopt   struct {
		name string
		fn   Func
	}
	funcsopt    map[string]Func
	suffixesopt map[string]float64
	realopt     bool
	negpowopt   bool
	identityopt int
	hideopt     []string
	allowopt    []string
	denyopt     []string
	nodefsopt   struct{}
)

func (varopt) ctxOption()      {}
func (varsopt) ctxOption()     {}
func (constopt) ctxOption()    {}
func (constsopt) ctxOption()   {}
func (funcopt) ctxOption()     {}
func (funcsopt) ctxOption()    {}
func (suffixesopt) ctxOption() {}
func (realopt) ctxOption()     {}
func (negpowopt) ctxOption()   {}
func (identityopt) ctxOption() {}
func (hideopt) ctxOption()     {}
func (allowopt) ctxOption()    {}
func (denyopt) ctxOption()     {}
func (nodefsopt) ctxOption()   {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val Value) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]Value) ContextOption {
	return varsopt(vars)
}

// SetConst sets the value of a constant in the context. Variables shadow
// constants of the same name.
func SetConst(name string, val Value) ContextOption {
	return constopt{name, val}
}

// SetConsts sets the values of any number of constants in the context.
func SetConsts(consts map[string]Value) ContextOption {
	return constsopt(consts)
}

// SetFunc sets a function in the context. To remove a function, pass nil for
// fn.
func SetFunc(name string, fn Func) ContextOption {
	return funcopt{name, fn}
}

// SetFuncs sets any number of functions in the context. Nil functions are
// removed.
func SetFuncs(fns map[string]Func) ContextOption {
	return funcsopt(fns)
}

// SetSuffixes replaces the suffixes recognized on number literals. Number
// literals with suffixes that are not recognized are multiplied by the
// variable or constant of the same name. By default, only % is recognized.
func SetSuffixes(s map[string]float64) ContextOption {
	return suffixesopt(s)
}

// MetricSuffixes recognizes the metric prefixes k, M, G, T, c, m, u, n, p,
// and f as suffixes on number literals, along with %.
func MetricSuffixes() ContextOption {
	return suffixesopt(metricSuffixes)
}

// RealOnly sets whether complex numbers are rejected as function arguments,
// as array entries, and as the result of an evaluation. Other intermediate
// values may be complex, so (1+i)-i is real.
func RealOnly(only bool) ContextOption {
	return realopt(only)
}

// NegativePowers sets whether square matrices may be raised to negative
// powers or divide other values. The default is true.
func NegativePowers(allow bool) ContextOption {
	return negpowopt(allow)
}

// IdentityDim sets the constant I to the n by n identity matrix. If n is not
// positive, I is removed.
func IdentityDim(n int) ContextOption {
	return identityopt(n)
}

// Hide reserves names so that looking them up fails with a *NameError with
// Reserved set, even if they are defined. Hide adds to any names hidden
// previously.
func Hide(names ...string) ContextOption {
	return hideopt(names)
}

// AllowFuncs restricts the functions that expressions may call to names.
// Evaluating an expression calling any other function fails before
// evaluation begins.
func AllowFuncs(names ...string) ContextOption {
	return allowopt(names)
}

// DenyFuncs forbids expressions from calling the named functions.
// Evaluating an expression calling any of them fails before evaluation
// begins.
func DenyFuncs(names ...string) ContextOption {
	return denyopt(names)
}

// DisableDefaultFuncs removes all default functions from the context.
func DisableDefaultFuncs() ContextOption {
	return nodefsopt{}
}

// NewContext creates a new evaluation context with the default functions,
// constants, and suffixes.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{
		consts:   defaultConsts,
		funcs:    defaultFuncs,
		suffixes: defaultSuffixes,
		negpow:   true,
		maxdim:   1,
	}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it. Changes to the
// new context do not affect the original.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		vars:     make(map[string]Value, len(ctx.vars)),
		consts:   make(map[string]Value, len(ctx.consts)),
		funcs:    make(map[string]Func, len(ctx.funcs)),
		suffixes: ctx.suffixes,
		hidden:   make(map[string]bool, len(ctx.hidden)),
		deny:     make(map[string]bool, len(ctx.deny)),
		real:     ctx.real,
		negpow:   ctx.negpow,
		maxdim:   ctx.maxdim,
	}
	for k, v := range ctx.vars {
		n.vars[k] = v
	}
	for k, v := range ctx.consts {
		n.consts[k] = v
	}
	for k, v := range ctx.funcs {
		n.funcs[k] = v
	}
	for k := range ctx.hidden {
		n.hidden[k] = true
	}
	for k := range ctx.deny {
		n.deny[k] = true
	}
	if ctx.allow != nil {
		n.allow = make(map[string]bool, len(ctx.allow))
		for k := range ctx.allow {
			n.allow[k] = true
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.vars[opt.name] = opt.val
		case varsopt:
			for k, v := range opt {
				n.vars[k] = v
			}
		case constopt:
			n.consts[opt.name] = opt.val
		case constsopt:
			for k, v := range opt {
				n.consts[k] = v
			}
		case funcopt:
			n.setfunc(opt.name, opt.fn)
		case funcsopt:
			for k, v := range opt {
				n.setfunc(k, v)
			}
		case suffixesopt:
			// Never modified, so no copy.
			n.suffixes = opt
		case realopt:
			n.real = bool(opt)
		case negpowopt:
			n.negpow = bool(opt)
		case identityopt:
			if opt > 0 {
				n.consts["I"] = Array(Identity(int(opt)))
			} else {
				delete(n.consts, "I")
			}
		case hideopt:
			for _, k := range opt {
				n.hidden[k] = true
			}
		case allowopt:
			n.allow = make(map[string]bool, len(opt))
			for _, k := range opt {
				n.allow[k] = true
			}
		case denyopt:
			for _, k := range opt {
				n.deny[k] = true
			}
		case nodefsopt:
			for k := range defaultFuncs {
				delete(n.funcs, k)
			}
		case maxdimopt:
			n.maxdim = int(opt)
		default:
			panic("calcgrade: unknown option type")
		}
	}
	return &n
}

func (ctx *Context) setfunc(name string, fn Func) {
	if fn == nil {
		delete(ctx.funcs, name)
		return
	}
	ctx.funcs[name] = fn
}

// Eval evaluates an expression and returns the result. Expressions calling
// functions that the context forbids fail before evaluation with an
// *InvalidInputError naming every forbidden function.
func (ctx *Context) Eval(e *Expr) (Value, error) {
	if len(ctx.stack) != 0 {
		panic("calcgrade: Eval during Eval")
	}
	if err := ctx.CheckFuncs(e); err != nil {
		return Value{}, err
	}
	if err := e.n.eval(ctx); err != nil {
		ctx.stack = ctx.stack[:0]
		return Value{}, err
	}
	if len(ctx.stack) != 1 {
		panic("calcgrade: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
	r := demote(ctx.pop())
	if ctx.real && isComplex(r) {
		return Value{}, &ComplexError{}
	}
	return r, nil
}

// EvalString parses an expression with the context's array limit and
// evaluates it.
func (ctx *Context) EvalString(src string) (Value, error) {
	e, err := Parse(src, MaxArrayDim(ctx.maxdim))
	if err != nil {
		return Value{}, err
	}
	return ctx.Eval(e)
}

// CheckFuncs checks the functions an expression calls against the context's
// allowed and denied functions. The error is an *InvalidInputError naming
// each forbidden function.
func (ctx *Context) CheckFuncs(e *Expr) error {
	var bad []string
	for _, f := range e.funcs {
		if ctx.deny[f] || ctx.allow != nil && !ctx.allow[f] {
			bad = append(bad, f)
		}
	}
	if len(bad) != 0 {
		return forbiddenFuncs(bad)
	}
	return nil
}

// Lookup returns the value a name would have in an expression.
func (ctx *Context) Lookup(name string) (Value, error) {
	if ctx.hidden[name] {
		return Value{}, &NameError{Name: name, Reserved: true}
	}
	if v, ok := ctx.vars[name]; ok {
		return v, nil
	}
	if v, ok := ctx.consts[name]; ok {
		return v, nil
	}
	return Value{}, &NameError{Name: name}
}

// Binding is a name and its value.
type Binding struct {
	Name  string
	Value Value
}

func (b Binding) String() string {
	return b.Name + " = " + b.Value.String()
}

// Snapshot returns the variables and constants of the context, sorted by
// name. Variables shadow constants.
func (ctx *Context) Snapshot() []Binding {
	m := make(map[string]bool, len(ctx.vars)+len(ctx.consts))
	for k := range ctx.vars {
		m[k] = true
	}
	for k := range ctx.consts {
		m[k] = true
	}
	names := setlist(m)
	r := make([]Binding, len(names))
	for i, k := range names {
		v, ok := ctx.vars[k]
		if !ok {
			v = ctx.consts[k]
		}
		r[i] = Binding{Name: k, Value: v}
	}
	return r
}

// push pushes a value to the stack.
func (ctx *Context) push(v Value) {
	ctx.stack = append(ctx.stack, v)
}

// pop removes the top from the stack and returns it.
func (ctx *Context) pop() Value {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// binary evaluates both children of n and pops their values.
func (n *node) binary(ctx *Context) (l, r Value, err error) {
	if err := n.left.eval(ctx); err != nil {
		return l, r, err
	}
	if err := n.right.eval(ctx); err != nil {
		return l, r, err
	}
	r = ctx.pop()
	l = ctx.pop()
	return l, r, nil
}

// eval pushes the node's value to the context's stack.
func (n *node) eval(ctx *Context) error {
	switch n.kind {
	case nodeNum:
		v := Real(n.num)
		if n.suffix != "" {
			if k, ok := ctx.suffixes[n.suffix]; ok {
				v = Real(n.num * k)
			} else {
				// Not a suffix here, so 2m is 2*m.
				x, err := ctx.Lookup(n.suffix)
				if err != nil {
					return err
				}
				if v, err = Mul(v, x); err != nil {
					return err
				}
			}
		}
		ctx.push(v)
	case nodeName:
		v, err := ctx.Lookup(n.name)
		if err != nil {
			return err
		}
		ctx.push(v)
	case nodeCall:
		f := ctx.funcs[n.name]
		if f == nil {
			return &NameError{Name: n.name, Func: true}
		}
		k := len(ctx.stack)
		for l := n.right; l != nil; l = l.right {
			if err := l.left.eval(ctx); err != nil {
				return err
			}
		}
		args := ctx.stack[k:len(ctx.stack):len(ctx.stack)]
		if ctx.real {
			for _, arg := range args {
				if isComplex(arg) {
					return &ComplexError{Func: n.name}
				}
			}
		}
		r, err := f.Call(args)
		if err != nil {
			return err
		}
		ctx.stack = ctx.stack[:k]
		ctx.push(demote(r))
	case nodeArg:
		panic("calcgrade: eval on nodeArg")
	case nodeArray:
		k := len(ctx.stack)
		for l := n.right; l != nil; l = l.right {
			if err := l.left.eval(ctx); err != nil {
				return err
			}
		}
		if ctx.real {
			for _, v := range ctx.stack[k:] {
				if isComplex(v) {
					return &ComplexError{}
				}
			}
		}
		r, err := buildArray(ctx.stack[k:])
		if err != nil {
			return err
		}
		ctx.stack = ctx.stack[:k]
		ctx.push(r)
	case nodeNeg:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		ctx.push(Neg(ctx.pop()))
	case nodeNop:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow:
		l, r, err := n.binary(ctx)
		if err != nil {
			return err
		}
		var v Value
		switch n.kind {
		case nodeAdd:
			v, err = Add(l, r)
		case nodeSub:
			v, err = Sub(l, r)
		case nodeMul:
			v, err = Mul(l, r)
		case nodeDiv:
			v, err = div(l, r, ctx.negpow)
		case nodePow:
			v, err = pow(l, r, ctx.negpow)
		}
		if err != nil {
			return err
		}
		ctx.push(v)
	default:
		panic("calcgrade: invalid AST node " + n.kind.String())
	}
	return nil
}

// buildArray creates a vector from scalar entries or a matrix from vector
// entries of equal length.
func buildArray(entries []Value) (Value, error) {
	first := entries[0].Shape()
	for _, v := range entries {
		s := v.Shape()
		if s.rank == 2 {
			return Value{}, &MathArrayError{Msg: "Cannot create an array with matrix entries."}
		}
		if s != first {
			return Value{}, &UnableToParse{Msg: "Unable to parse vector/matrix. If you're trying to enter a matrix, this is most likely caused by an unequal number of elements in each row."}
		}
	}
	if first.rank == 0 {
		z := make([]complex128, len(entries))
		for i, v := range entries {
			z[i] = v.z
		}
		return Array(NewVector(z)), nil
	}
	rows := make([][]complex128, len(entries))
	for i, v := range entries {
		rows[i] = v.a.data
	}
	m, err := NewMatrix(rows)
	if err != nil {
		return Value{}, err
	}
	return Array(m), nil
}

// EvalString is a shortcut to parse and evaluate a string expression in a new
// context.
func EvalString(src string, opts ...ContextOption) (Value, error) {
	return NewContext(opts...).EvalString(src)
}
