package calcgrade

import (
	"errors"
	"io"
	"testing"
	"unicode/utf8"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []lexToken
		errs   int
	}{
		// spaces
		{"", nil, 0},
		{" \t \r\n ", nil, 0},
		// numbers
		{"0", []lexToken{{text: "0", kind: tokenNum, pos: 1}}, 0},
		{"9876543210", []lexToken{{text: "9876543210", kind: tokenNum, pos: 1}}, 0},
		{"1 0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "0", kind: tokenNum, pos: 3}}, 0},
		{"1.0", []lexToken{{text: "1.0", kind: tokenNum, pos: 1}}, 0},
		{"1.", []lexToken{{text: "1.", kind: tokenNum, pos: 1}}, 0},
		{"-1", []lexToken{{text: "-", kind: tokenOp, pos: 1}, {text: "1", kind: tokenNum, pos: 2}}, 0},
		{"1e1", []lexToken{{text: "1e1", kind: tokenNum, pos: 1}}, 0},
		{"1E1", []lexToken{{text: "1E1", kind: tokenNum, pos: 1}}, 0},
		{"1e", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "e", kind: tokenIdent, pos: 2}}, 0},
		{"1e+1", []lexToken{{text: "1e+1", kind: tokenNum, pos: 1}}, 0},
		{"1e-1", []lexToken{{text: "1e-1", kind: tokenNum, pos: 1}}, 0},
		{"1e+", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "e", kind: tokenIdent, pos: 2}, {text: "+", kind: tokenOp, pos: 3}}, 0},
		{"1.1.1", []lexToken{{pos: 1}, {text: "1", kind: tokenNum, pos: 5}}, 1},
		{"1.0e1", []lexToken{{text: "1.0e1", kind: tokenNum, pos: 1}}, 0},
		{".", []lexToken{{pos: 1}}, 1},
		{".1", []lexToken{{text: ".1", kind: tokenNum, pos: 1}}, 0},
		{".1e1", []lexToken{{text: ".1e1", kind: tokenNum, pos: 1}}, 0},
		{"1+0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "+", kind: tokenOp, pos: 2}, {text: "0", kind: tokenNum, pos: 3}}, 0},
		{"1*0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "*", kind: tokenOp, pos: 2}, {text: "0", kind: tokenNum, pos: 3}}, 0},
		{"(1)", []lexToken{{text: "(", kind: tokenOpen, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, {text: ")", kind: tokenClose, pos: 3}}, 0},
		{"1a", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "a", kind: tokenIdent, pos: 2}}, 0},
		// suffixes
		{"5%", []lexToken{{text: "5", suffix: "%", kind: tokenNum, pos: 1}}, 0},
		{"2m", []lexToken{{text: "2", suffix: "m", kind: tokenNum, pos: 1}}, 0},
		{"2.5k+1", []lexToken{{text: "2.5", suffix: "k", kind: tokenNum, pos: 1}, {text: "+", kind: tokenOp, pos: 5}, {text: "1", kind: tokenNum, pos: 6}}, 0},
		{"1e3M", []lexToken{{text: "1e3", suffix: "M", kind: tokenNum, pos: 1}}, 0},
		{"2mx", []lexToken{{text: "2", kind: tokenNum, pos: 1}, {text: "mx", kind: tokenIdent, pos: 2}}, 0},
		{"2pi", []lexToken{{text: "2", kind: tokenNum, pos: 1}, {text: "pi", kind: tokenIdent, pos: 2}}, 0},
		{"2%x", []lexToken{{text: "2", suffix: "%", kind: tokenNum, pos: 1}, {text: "x", kind: tokenIdent, pos: 3}}, 0},
		{"2m*x", []lexToken{{text: "2", suffix: "m", kind: tokenNum, pos: 1}, {text: "*", kind: tokenOp, pos: 3}, {text: "x", kind: tokenIdent, pos: 4}}, 0},
		{"%", []lexToken{{pos: 1}}, 1},
		// identifiers
		{"e", []lexToken{{text: "e", kind: tokenIdent, pos: 1}}, 0},
		{"e1", []lexToken{{text: "e1", kind: tokenIdent, pos: 1}}, 0},
		{"π", []lexToken{{text: "π", kind: tokenIdent, pos: 1}}, 0},
		{"eπ", []lexToken{{text: "eπ", kind: tokenIdent, pos: 1}}, 0},
		{"a_b", []lexToken{{text: "a_b", kind: tokenIdent, pos: 1}}, 0},
		{"x'", []lexToken{{text: "x'", kind: tokenIdent, pos: 1}}, 0},
		{"f''(x)", []lexToken{{text: "f''", kind: tokenIdent, pos: 1}, {text: "(", kind: tokenOpen, pos: 4}, {text: "x", kind: tokenIdent, pos: 5}, {text: ")", kind: tokenClose, pos: 6}}, 0},
		{"a_{2}", []lexToken{{text: "a_{2}", kind: tokenIdent, pos: 1}}, 0},
		{"a_{-1}'", []lexToken{{text: "a_{-1}'", kind: tokenIdent, pos: 1}}, 0},
		{"a_{+10}b", []lexToken{{text: "a_{+10}", kind: tokenIdent, pos: 1}, {text: "b", kind: tokenIdent, pos: 8}}, 0},
		{"a_{", []lexToken{{pos: 1}}, 1},
		{"a_{1", []lexToken{{pos: 1}}, 1},
		{"a_{x}", []lexToken{{pos: 1}, {pos: 5}}, 2},
		{"_1234_", []lexToken{{pos: 1}, {text: "1234", kind: tokenNum, pos: 2}, {pos: 6}}, 2},
		{"e(", []lexToken{{text: "e", kind: tokenIdent, pos: 1}, {text: "(", kind: tokenOpen, pos: 2}}, 0},
		// operators
		{"+", []lexToken{{text: "+", kind: tokenOp, pos: 1}}, 0},
		{"++", []lexToken{{text: "+", kind: tokenOp, pos: 1}, {text: "+", kind: tokenOp, pos: 2}}, 0},
		{"a--b", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {text: "-", kind: tokenOp, pos: 2}, {text: "-", kind: tokenOp, pos: 3}, {text: "b", kind: tokenIdent, pos: 4}}, 0},
		{"×÷^", []lexToken{{text: "×", kind: tokenOp, pos: 1}, {text: "÷", kind: tokenOp, pos: 2}, {text: "^", kind: tokenOp, pos: 3}}, 0},
		// brackets and separators
		{"()", []lexToken{{text: "(", kind: tokenOpen, pos: 1}, {text: ")", kind: tokenClose, pos: 2}}, 0},
		{"[]", []lexToken{{text: "[", kind: tokenOpen, pos: 1}, {text: "]", kind: tokenClose, pos: 2}}, 0},
		{"[1,2]", []lexToken{{text: "[", kind: tokenOpen, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, {text: ",", kind: tokenSep, pos: 3}, {text: "2", kind: tokenNum, pos: 4}, {text: "]", kind: tokenClose, pos: 5}}, 0},
		// erroneous symbols
		{"{}", []lexToken{{pos: 1}, {pos: 2}}, 2},
		{";", []lexToken{{pos: 1}}, 1},
		{"$", []lexToken{{pos: 1}}, 1},
		{"a$", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {pos: 2}}, 1},
		{"$a", []lexToken{{pos: 1}, {text: "a", kind: tokenIdent, pos: 2}}, 1},
		{"0$", []lexToken{{text: "0", kind: tokenNum, pos: 1}, {pos: 2}}, 1},
		{"$0", []lexToken{{pos: 1}, {text: "0", kind: tokenNum, pos: 2}}, 1},
		{"$$", []lexToken{{pos: 1}, {pos: 2}}, 2},
	}

	for _, c := range cases {
		scan := lex(c.src)
		for _, want := range c.tokens {
			got, err := scan.next()
			if err == io.EOF {
				t.Errorf("scanning %q: expected token %v but got EOF", c.src, want)
				continue
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
			if err != nil {
				var lerr *LexError
				if !errors.As(err, &lerr) {
					t.Errorf("scanning %q: error %v is not a *LexError", c.src, err)
				}
				if c.errs > 0 {
					c.errs--
					continue
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
			}
		}
		end, err := scan.next()
		if err != nil || end.kind != tokenEOF {
			t.Errorf("scanning %q: want EOF, got %v with error %v", c.src, end, err)
		} else if end.pos != utf8.RuneCountInString(c.src)+1 {
			t.Errorf("scanning %q: EOF at %d", c.src, end.pos)
		}
		for got, err := scan.next(); err != io.EOF; got, err = scan.next() {
			t.Errorf("scanning %q: extra token %v with error: %v", c.src, got, err)
		}
		if c.errs > 0 {
			t.Errorf("scanning %q: not enough errors", c.src)
		}
	}
}

func TestLexErrorPos(t *testing.T) {
	cases := []struct {
		src  string
		text string
		kind string
		col  int
	}{
		{"1.1.", "1.1.", "number", 1},
		{"x + $", "$", "", 5},
		{"ab_{z", "ab_{z", "identifier", 1},
		{"2 * _x", "_", "identifier", 5},
	}
	for _, c := range cases {
		scan := lex(c.src)
		var err error
		for err == nil {
			var tok lexToken
			tok, err = scan.next()
			if tok.kind == tokenEOF {
				break
			}
		}
		lerr, ok := err.(*LexError)
		if !ok {
			t.Errorf("scanning %q: want *LexError, got %#v", c.src, err)
			continue
		}
		if lerr.Text != c.text || lerr.Kind != c.kind || lerr.Pos() != c.col {
			t.Errorf("scanning %q: want %q/%q at %d, got %+v", c.src, c.text, c.kind, c.col, lerr)
		}
	}
}
