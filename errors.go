package calcgrade

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrParse indicates malformed input or input exceeding parse limits.
	ErrParse = errors.New("parse error")

	// ErrCalc indicates any failure while evaluating an expression. Every
	// evaluation error, including parse failures surfaced during evaluation,
	// matches ErrCalc.
	ErrCalc = errors.New("calculation error")

	// ErrDomain indicates a function received arguments of the wrong shape
	// or count.
	ErrDomain = errors.New("domain error")

	// ErrShape indicates an array operator applied to incompatible shapes.
	ErrShape = errors.New("shape error")

	// ErrArray indicates any array algebra failure, including disabled array
	// capabilities.
	ErrArray = errors.New("array error")

	// ErrInvalidInput indicates a policy violation in submitted input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingInput indicates empty submitted input.
	ErrMissingInput = errors.New("missing input")

	// ErrConfig indicates an author misconfiguration.
	ErrConfig = errors.New("configuration error")
)

// ParseError is an error parsing a formula. Err holds the positional detail.
type ParseError struct {
	// Formula is the text that failed to parse.
	Formula string
	// Err is the underlying positional error, an InputError.
	Err error
}

func (err *ParseError) Error() string {
	msg := "Invalid Input: Could not parse '" + err.Formula + "' as a formula"
	if err.Err != nil {
		msg += " (" + err.Err.Error() + ")"
	}
	return msg
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

func (err *ParseError) Is(target error) bool {
	return target == ErrParse || target == ErrCalc
}

// UnableToParse is an error for input which is syntactically valid but uses
// structure that is disabled, e.g. arrays nested deeper than allowed.
type UnableToParse struct {
	Msg string
}

func (err *UnableToParse) Error() string {
	return err.Msg
}

func (err *UnableToParse) Is(target error) bool {
	return target == ErrParse || target == ErrCalc
}

// CalcError is a general arithmetic fault during evaluation.
type CalcError struct {
	Msg string
}

func (err *CalcError) Error() string {
	return err.Msg
}

func (err *CalcError) Is(target error) bool {
	return target == ErrCalc
}

// errDivZero is the message for every division by zero.
const errDivZero = "Division by zero occurred. Check your input's denominators."

func divzero() error {
	return &CalcError{Msg: errDivZero}
}

// NameError is an error from looking up a variable or function that is not
// available in the evaluation context.
type NameError struct {
	// Name is the name that was looked up.
	Name string
	// Func indicates the name was used as a function.
	Func bool
	// Reserved indicates the name exists but is hidden from this evaluation.
	Reserved bool
}

func (err *NameError) Error() string {
	if err.Func {
		return "Invalid Input: '" + err.Name + "' not permitted in answer as a function (did you forget to use * for multiplication?)"
	}
	return "Invalid Input: '" + err.Name + "' not permitted in answer as a variable"
}

func (err *NameError) Is(target error) bool {
	return target == ErrCalc
}

// DomainError is an error from a function called with arguments of the wrong
// shapes or the wrong number of arguments.
type DomainError struct {
	// Func is the display name of the function.
	Func string
	// Lines holds one diagnostic line per argument, in argument order. It is
	// empty when the error is about the number of arguments.
	Lines []string
	// Want is the expected number of arguments, and Got is the received
	// number. Both are zero for shape errors.
	Want, Got int
	// AtLeast indicates Want is a minimum.
	AtLeast bool
}

func (err *DomainError) Error() string {
	if len(err.Lines) == 0 {
		var b strings.Builder
		b.WriteString("Wrong number of arguments passed to ")
		b.WriteString(err.Func)
		b.WriteString("(...): Expected ")
		if err.AtLeast {
			b.WriteString("at least ")
		}
		b.WriteString(strconv.Itoa(err.Want))
		b.WriteString(" inputs, but received ")
		b.WriteString(strconv.Itoa(err.Got))
		b.WriteByte('.')
		return b.String()
	}
	return "There was an error evaluating function " + err.Func + "(...)\n" + strings.Join(err.Lines, "\n")
}

func (err *DomainError) Is(target error) bool {
	return target == ErrDomain || target == ErrCalc
}

// FunctionEvalError is an error raised by a function itself for arguments of
// acceptable shape but unacceptable value.
type FunctionEvalError struct {
	Msg string
}

func (err *FunctionEvalError) Error() string {
	return err.Msg
}

func (err *FunctionEvalError) Is(target error) bool {
	return target == ErrCalc
}

// ComplexError is an error for complex values in an evaluation that permits
// only real numbers.
type ComplexError struct {
	// Func is the function that received a complex argument. If it is empty,
	// the error is about the final result of the expression.
	Func string
}

func (err *ComplexError) Error() string {
	if err.Func == "" {
		return "Expression evaluated to a complex number, but complex numbers are not permitted in this answer."
	}
	return "Function " + err.Func + "(...) received a complex number as input, but complex numbers are not permitted in this answer."
}

func (err *ComplexError) Is(target error) bool {
	return target == ErrCalc
}

// MathArrayShapeError is an error from an array operator applied to operands
// of incompatible shapes.
type MathArrayShapeError struct {
	Msg string
}

func (err *MathArrayShapeError) Error() string {
	return err.Msg
}

func (err *MathArrayShapeError) Is(target error) bool {
	return target == ErrShape || target == ErrArray || target == ErrCalc
}

// MathArrayError is an error from an array operation which is invalid for
// reasons other than shape, e.g. a disabled capability.
type MathArrayError struct {
	Msg string
}

func (err *MathArrayError) Error() string {
	return err.Msg
}

func (err *MathArrayError) Is(target error) bool {
	return target == ErrArray || target == ErrCalc
}

// InvalidInputError is a policy violation in submitted input, e.g. use of a
// forbidden function.
type InvalidInputError struct {
	Msg string
}

func (err *InvalidInputError) Error() string {
	return err.Msg
}

func (err *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// forbiddenFuncs creates an error naming each disallowed function once.
func forbiddenFuncs(names []string) error {
	names = append([]string(nil), names...)
	sortstrs(names)
	q := make([]string, 0, len(names))
	for i, n := range names {
		if i > 0 && names[i-1] == n {
			continue
		}
		q = append(q, "'"+n+"'")
	}
	return &InvalidInputError{Msg: "Invalid Input: function(s) " + strings.Join(q, ", ") + " not permitted in answer"}
}

// MissingInputError is an error for empty submitted input.
type MissingInputError struct {
	Msg string
}

func (err *MissingInputError) Error() string {
	if err.Msg == "" {
		return "Empty input"
	}
	return err.Msg
}

func (err *MissingInputError) Is(target error) bool {
	return target == ErrMissingInput
}

// ConfigError is an author misconfiguration, detected either when a function
// or grader is configured or when an author's own expression fails.
type ConfigError struct {
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (err *ConfigError) Error() string {
	if err.Err == nil {
		return err.Msg
	}
	if err.Msg == "" {
		return err.Err.Error()
	}
	return err.Msg + ": " + err.Err.Error()
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

func (err *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
