package calcgrade

import "strconv"

// InputError is a syntax error with position information. Every error the
// lexer or parser produces for malformed input implements InputError, and
// each matches ErrParse.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

// OperatorError is an operator token in a position where it cannot apply,
// e.g. a binary-only operator where an operand is expected.
type OperatorError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the offending token.
	Operator string
	// Unary is whether the parser expected a unary operator at the time.
	Unary bool
}

func (err *OperatorError) Error() string {
	if err.Unary {
		return errpos(err.Col, "operator "+strconv.Quote(err.Operator)+" cannot be used as a unary operator")
	}
	return errpos(err.Col, "unknown binary operator "+strconv.Quote(err.Operator))
}

func (err *OperatorError) Pos() int        { return err.Col }
func (err *OperatorError) Is(t error) bool { return t == ErrParse }

// BracketError is an unbalanced or mismatched bracket. Left is empty for a
// close bracket without an opener; Right is empty for an opener that is
// never closed.
type BracketError struct {
	// Col is the position of the offending bracket or end of input.
	Col int
	// Left is the opening bracket.
	Left string
	// Right is the closing bracket.
	Right string
}

func (err *BracketError) Error() string {
	switch {
	case err.Left == "":
		return errpos(err.Col, "unmatched close bracket "+err.Right)
	case err.Right == "":
		return errpos(err.Col, "open bracket "+err.Left+" is never closed")
	default:
		return errpos(err.Col, "bracket "+err.Left+" closed by "+err.Right)
	}
}

func (err *BracketError) Pos() int        { return err.Col }
func (err *BracketError) Is(t error) bool { return t == ErrParse }

// SeparatorError is a comma outside function arguments and array literals,
// or one with nothing before it.
type SeparatorError struct {
	// Col is the position of the separator.
	Col int
	// Sep is the separator.
	Sep string
}

func (err *SeparatorError) Error() string {
	return errpos(err.Col, "unexpected separator "+strconv.Quote(err.Sep))
}

func (err *SeparatorError) Pos() int        { return err.Col }
func (err *SeparatorError) Is(t error) bool { return t == ErrParse }

// EmptyExpressionError is a missing operand or an empty pair of brackets.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is that token, or empty at end of input.
	End string
}

func (err *EmptyExpressionError) Error() string {
	switch {
	case err.End != "":
		return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
	case err.Col <= 1:
		return errpos(err.Col, "no expression")
	default:
		return errpos(err.Col, "no expression at end")
	}
}

func (err *EmptyExpressionError) Pos() int        { return err.Col }
func (err *EmptyExpressionError) Is(t error) bool { return t == ErrParse }

func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

var (
	_ InputError = (*OperatorError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*SeparatorError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*LexError)(nil)
)
