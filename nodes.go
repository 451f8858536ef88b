package calcgrade

import (
	"strconv"
	"strings"
)

// node is a node in the abstract syntax tree of an expression. Trees are
// never modified after parsing, so one tree may be evaluated any number of
// times.
type node struct {
	kind nodeKind

	// name is the literal text for nodeNum, or the variable or function name
	// for nodeName and nodeCall.
	name string
	// num is the value of a nodeNum.
	num float64
	// suffix is the suffix of a nodeNum, if it had one.
	suffix string

	left  *node
	right *node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeNum  // push num, times suffix
	nodeName // push lookup(name)

	nodeCall  // name is Func to call, right is link to nodeArg unless niladic
	nodeArg   // eval left, right is link to next arg
	nodeArray // right is link to nodeArg for each entry

	nodeNeg // evaluate left, then negate
	nodeAdd // evaluate left, add right
	nodeSub // evaluate left, sub right
	nodeMul // evaluate left, mul right
	nodeDiv // evaluate left, div by right
	nodePow // evaluate left, exp by right
	nodeNop // evaluate left
)

func (k nodeKind) String() string {
	switch k {
	case nodeNone:
		return "None"
	case nodeNum:
		return "Num"
	case nodeName:
		return "Name"
	case nodeCall:
		return "Call"
	case nodeArg:
		return "Arg"
	case nodeArray:
		return "Array"
	case nodeNeg:
		return "Neg"
	case nodeAdd:
		return "Add"
	case nodeSub:
		return "Sub"
	case nodeMul:
		return "Mul"
	case nodeDiv:
		return "Div"
	case nodePow:
		return "Pow"
	case nodeNop:
		return "Nop"
	default:
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

// fmt writes the node with every subexpression in parentheses.
func (n *node) fmt(b *strings.Builder) {
	b.WriteByte('(')
	defer b.WriteByte(')')
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteByte('$')
		if n.left != nil {
			n.left.fmt(b)
		}
		b.WriteByte('#')
		if n.right != nil {
			n.right.fmt(b)
		}
		b.WriteByte('$')
	case nodeNum:
		b.WriteString(n.name)
		b.WriteString(n.suffix)
	case nodeName:
		b.WriteString(n.name)
	case nodeCall:
		b.WriteString(n.name)
		n.fmtargs(b, '(', ')')
	case nodeArray:
		n.fmtargs(b, '[', ']')
	case nodeArg:
		// Args usually only appear inside calls and arrays, which are handled
		// by fmtargs.
		b.WriteByte(':')
		n.left.fmt(b)
		if n.right != nil {
			n.right.fmt(b)
		}
	case nodeNeg:
		b.WriteByte('-')
		n.left.fmt(b)
	case nodeAdd:
		n.fmtbin(b, " + ")
	case nodeSub:
		n.fmtbin(b, " - ")
	case nodeMul:
		n.fmtbin(b, " * ")
	case nodeDiv:
		n.fmtbin(b, " / ")
	case nodePow:
		n.fmtbin(b, " ^ ")
	case nodeNop:
		b.WriteByte('+')
		n.left.fmt(b)
	default:
		panic("calcgrade: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

func (n *node) fmtbin(b *strings.Builder, op string) {
	n.left.fmt(b)
	b.WriteString(op)
	n.right.fmt(b)
}

func (n *node) fmtargs(b *strings.Builder, l, r byte) {
	b.WriteByte(l)
	defer b.WriteByte(r)
	for a := n.right; a != nil; a = a.right {
		if a.kind != nodeArg {
			b.WriteString("***")
			a.fmt(b)
			return
		}
		if a != n.right {
			b.WriteString(", ")
		}
		a.left.fmt(b)
	}
}

// walk calls f for n and each of its descendants in prefix order.
func (n *node) walk(f func(*node)) {
	if n == nil {
		return
	}
	f(n)
	n.left.walk(f)
	n.right.walk(f)
}
