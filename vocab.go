package calcgrade

import (
	"strconv"
	"strings"
	"unicode"
)

// CheckForbidden checks submitted text for forbidden substrings. Whitespace
// is ignored in both the text and the forbidden strings, so "x + y" contains
// "x+". If msg is empty, the error message is a generic one.
func CheckForbidden(text string, forbidden []string, msg string) error {
	t := stripspace(text)
	for _, f := range forbidden {
		f = stripspace(f)
		if f == "" {
			continue
		}
		if strings.Contains(t, f) {
			if msg == "" {
				msg = "Invalid Input: This particular answer is forbidden"
			}
			return &InvalidInputError{Msg: msg}
		}
	}
	return nil
}

func stripspace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CheckRequired checks that an expression calls every required function. The
// error names the first missing function in the order given.
func CheckRequired(e *Expr, required []string) error {
	have := make(map[string]bool, len(e.funcs))
	for _, f := range e.funcs {
		have[f] = true
	}
	for _, f := range required {
		if !have[f] {
			return &InvalidInputError{Msg: "Invalid Input: Answer must contain the function " + f}
		}
	}
	return nil
}

// NumberedName splits a name like a_{2} or a_{-1} into its base and number.
// ok is false if the name has no numeric subscript.
func NumberedName(name string) (base string, n int, ok bool) {
	name = strings.TrimRight(name, "'")
	k := strings.LastIndex(name, "_{")
	if k <= 0 || !strings.HasSuffix(name, "}") {
		return "", 0, false
	}
	n, err := strconv.Atoi(name[k+2 : len(name)-1])
	if err != nil {
		return "", 0, false
	}
	return name[:k], n, true
}

// ValidVariableName reports whether name lexes as a single identifier.
func ValidVariableName(name string) bool {
	l := lex(name)
	tok, err := l.next()
	if err != nil || tok.kind != tokenIdent {
		return false
	}
	end, err := l.next()
	return err == nil && end.kind == tokenEOF
}
