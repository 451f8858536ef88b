package calcgrade

import (
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexToken struct {
	text   string
	suffix string
	kind   tokenKind
	pos    int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + t.suffix + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a real number literal, possibly with a suffix.
	tokenNum
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is an operator.
	tokenOp
	// tokenOpen is an open bracket, ( or [.
	tokenOpen
	// tokenClose is a close bracket, ) or ].
	tokenClose
	// tokenSep is an argument or array entry separator.
	tokenSep
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenEOF:
		return "EOF"
	case tokenNum:
		return "Num"
	case tokenIdent:
		return "Ident"
	case tokenOp:
		return "Op"
	case tokenOpen:
		return "Open"
	case tokenClose:
		return "Close"
	case tokenSep:
		return "Sep"
	default:
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Operators contains the runes which are considered to be operators.
const Operators = "+-*/^×÷"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// Parentheses group terms and delimit function arguments; square brackets
// delimit array literals.
const (
	OpenBrackets  = "(["
	CloseBrackets = ")]"
)

// SuffixRunes contains the runes which may follow a number literal as a
// multiplier. Whether a suffix has a meaning is decided by the evaluation
// context.
const SuffixRunes = "%kMGTcmunpf"

func byteidcs(s string) []string {
	v := make([]string, 0, len(s))
	for _, r := range s {
		v = append(v, string(r))
	}
	return v
}

var (
	operstrs      = byteidcs(Operators)
	openbrackets  = byteidcs(OpenBrackets)
	closebrackets = byteidcs(CloseBrackets)
)

type lexer struct {
	src  string
	off  int
	rune int
	p    lexToken
	eof  bool
}

func lex(src string) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("calcgrade: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("calcgrade: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// at decodes the rune at byte offset off. The size is 0 at the end of input.
func (l *lexer) at(off int) (rune, int) {
	if off >= len(l.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[off:])
}

// advance moves past one rune of the given size.
func (l *lexer) advance(sz int) {
	l.off += sz
	l.rune++
}

// next scans the next token from the input. The first time the end of input
// is reached, the result is an EOF token with a nil error. Subsequent times,
// if the EOF token is not pushed, the result is an empty token with io.EOF.
func (l *lexer) next() (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		return tok, nil
	}
	if l.eof {
		return lexToken{}, io.EOF
	}
	for {
		tok := lexToken{pos: l.rune}
		r, sz := l.at(l.off)
		switch {
		case sz == 0:
			tok.kind = tokenEOF
			l.eof = true
			return tok, nil
		case unicode.IsSpace(r):
			l.advance(sz)
			continue
		case '0' <= r && r <= '9', r == '.':
			return l.scanNum()
		case unicode.IsLetter(r):
			return l.scanIdent()
		case r == ',':
			l.advance(sz)
			tok.text = ","
			tok.kind = tokenSep
			return tok, nil
		default:
			l.advance(sz)
			if k := strings.IndexRune(Operators, r); k >= 0 {
				tok.text = operstrs[k]
				tok.kind = tokenOp
				return tok, nil
			}
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				tok.text = openbrackets[k]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				tok.text = closebrackets[k]
				tok.kind = tokenClose
				return tok, nil
			}
			kind := ""
			if r == '_' {
				kind = "identifier"
			}
			return tok, &LexError{Text: string(r), Kind: kind, Col: tok.pos}
		}
	}
}

// digits scans a run of ASCII digits and returns how many there were.
func (l *lexer) digits() int {
	n := 0
	for {
		r, _ := l.at(l.off)
		if r < '0' || r > '9' {
			return n
		}
		l.advance(1)
		n++
	}
}

func (l *lexer) scanNum() (lexToken, error) {
	tok := lexToken{kind: tokenNum, pos: l.rune}
	start := l.off
	dig := l.digits()
	if r, _ := l.at(l.off); r == '.' {
		l.advance(1)
		dig += l.digits()
	}
	if dig == 0 {
		return lexToken{pos: tok.pos}, l.error(start, tok.pos, "number")
	}
	// An exponent marker only belongs to the number if digits follow it, so
	// that 2e is 2 times e.
	if r, _ := l.at(l.off); r == 'e' || r == 'E' {
		k := l.off + 1
		if s, _ := l.at(k); s == '+' || s == '-' {
			k++
		}
		if d, _ := l.at(k); '0' <= d && d <= '9' {
			for l.off < k {
				l.advance(1)
			}
			l.digits()
		}
	}
	if r, _ := l.at(l.off); r == '.' {
		l.advance(1)
		return lexToken{pos: tok.pos}, l.error(start, tok.pos, "number")
	}
	tok.text = l.src[start:l.off]
	r, sz := l.at(l.off)
	if sz == 0 || !strings.ContainsRune(SuffixRunes, r) {
		return tok, nil
	}
	if r != '%' {
		// A letter that continues into an identifier is not a suffix: 2mx is
		// 2 times mx.
		if s, _ := l.at(l.off + sz); identRune(s) {
			return tok, nil
		}
	}
	l.advance(sz)
	tok.suffix = string(r)
	return tok, nil
}

func (l *lexer) scanIdent() (lexToken, error) {
	tok := lexToken{kind: tokenIdent, pos: l.rune}
	start := l.off
	_, sz := l.at(l.off)
	l.advance(sz)
	for {
		r, sz := l.at(l.off)
		if r == '_' {
			if s, _ := l.at(l.off + 1); s == '{' {
				if err := l.scanSubscript(start, tok.pos); err != nil {
					return lexToken{pos: tok.pos}, err
				}
				break
			}
		}
		if !identRune(r) {
			break
		}
		l.advance(sz)
	}
	for {
		r, _ := l.at(l.off)
		if r != '\'' {
			break
		}
		l.advance(1)
	}
	tok.text = l.src[start:l.off]
	return tok, nil
}

// scanSubscript scans a numeric subscript like _{12} or _{-1}.
func (l *lexer) scanSubscript(start, pos int) error {
	l.advance(1)
	l.advance(1)
	if r, _ := l.at(l.off); r == '+' || r == '-' {
		l.advance(1)
	}
	if l.digits() == 0 {
		l.skip()
		return l.error(start, pos, "identifier")
	}
	if r, _ := l.at(l.off); r != '}' {
		l.skip()
		return l.error(start, pos, "identifier")
	}
	l.advance(1)
	return nil
}

// skip consumes one rune, if there is any.
func (l *lexer) skip() {
	if _, sz := l.at(l.off); sz > 0 {
		l.advance(sz)
	}
}

func identRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// error creates an error for an invalid token that began at byte offset start
// and rune column pos. Callers consume the offending rune first.
func (l *lexer) error(start, pos int, kind string) error {
	return &LexError{
		Text: l.src[start:l.off],
		Kind: kind,
		Col:  pos,
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number",
	// "identifier", or the empty string (if a token kind hadn't been
	// decided).
	Kind string
	// Col is the rune column at which the invalid token starts.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}

func (err *LexError) Is(t error) bool {
	return t == ErrParse
}
