/*
File    : go-ifj21/lexer/lexer.go
*/

// Package lexer performs lexical analysis of IFJ21 source code. It scans the
// input one byte at a time through a small DFA, identifying identifiers,
// keywords, numeric and string literals, operators and comments, and tracks
// line/column positions for error reporting.
//
// The lexer keeps a two-slot pushback buffer: the parser needs one token of
// lookback and the precedence sub-parser needs two.
package lexer

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/ifjlab/go-ifj21/errs"
)

// DFA states. The scanner returns to stateStart after every token.
type state int

const (
	stateStart state = iota
	stateKeywordIdentifier
	stateNumber        // integer digits
	stateDecimal       // digits after the decimal point
	stateExponent      // just read 'e' or 'E'
	stateExponentSign  // just read the exponent sign, a digit must follow
	stateExponentValue // exponent digits

	stateCommentDash1 // first '-' of a possible comment
	stateCommentDash2 // second '-'
	stateInlineComment
	stateBlockCommentBracket // first '[' after '--'
	stateBlockComment
	stateClosingBracket // first ']' inside a block comment

	stateString
	stateEscape     // just read '\' inside a string
	stateEscapeSeq1 // first decimal escape digit read
	stateEscapeSeq2 // second decimal escape digit read

	stateDot // first '.' of '..'
	stateLessThan
	stateGreaterThan
	stateEquals
	stateTilde
	stateSlash
)

// tokenBufLength is the pushback capacity.
const tokenBufLength = 2

// Lexer scans IFJ21 source from a reader.
type Lexer struct {
	r      *bufio.Reader
	row    int
	column int

	// one byte of pushback for the DFA
	pending    byte
	hasPending bool
	sawEOF     bool

	// token pushback buffer, most recent first
	last    [tokenBufLength]Token
	lastErr [tokenBufLength]error
	unread  int
}

// New creates a lexer reading from r.
func New(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r), row: 1, column: 0}
}

// NewString creates a lexer over an in-memory source, used by tests and the
// interactive loop.
func NewString(src string) *Lexer {
	return New(strings.NewReader(src))
}

// readByte consumes the next byte; ok is false at end of input.
func (l *Lexer) readByte() (byte, bool) {
	l.column++
	if l.hasPending {
		l.hasPending = false
		return l.pending, true
	}
	if l.sawEOF {
		return 0, false
	}
	b, err := l.r.ReadByte()
	if err != nil {
		l.sawEOF = true
		return 0, false
	}
	return b, true
}

// unreadByte pushes the last byte back.
func (l *Lexer) unreadByte(b byte, ok bool) {
	l.column--
	if !ok {
		return
	}
	l.pending = b
	l.hasPending = true
}

func (l *Lexer) newline() {
	l.row++
	l.column = 0
}

// Next returns the next token, serving the pushback buffer first.
func (l *Lexer) Next() (Token, error) {
	if l.unread > 0 {
		l.unread--
		return l.last[l.unread], l.lastErr[l.unread]
	}
	t, err := l.scan()
	for i := tokenBufLength - 1; i > 0; i-- {
		l.last[i], l.lastErr[i] = l.last[i-1], l.lastErr[i-1]
	}
	l.last[0], l.lastErr[0] = t, err
	return t, err
}

// Unget pushes the last token back. The buffer holds at most two unread
// tokens; overflowing it is a lexical error.
func (l *Lexer) Unget() error {
	if l.unread >= tokenBufLength {
		return errs.New(errs.KindLex, l.row, l.column, "token pushback overflow")
	}
	l.unread++
	return nil
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' }
func isSpace(b byte) bool  { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f' }

func (l *Lexer) lexError(format string, args ...any) error {
	return errs.New(errs.KindLex, l.row, l.column, format, args...)
}

// scan runs the DFA until a full token is recognized.
func (l *Lexer) scan() (Token, error) {
	var t Token
	var str strings.Builder
	var escape [3]byte
	st := stateStart

	for {
		c, ok := l.readByte()

		switch st {
		case stateStart:
			t.Row = l.row
			t.Column = l.column
			switch {
			case !ok:
				t.Kind = EOF
				return t, nil
			case isSpace(c):
				if c == '\n' {
					l.newline()
				}
			case isDigit(c):
				st = stateNumber
				str.WriteByte(c)
			case isLetter(c) || c == '_':
				st = stateKeywordIdentifier
				str.WriteByte(c)
			case c == '"':
				st = stateString
			case c == '<':
				st = stateLessThan
			case c == '>':
				st = stateGreaterThan
			case c == '=':
				st = stateEquals
			case c == '~':
				st = stateTilde
			case c == '/':
				st = stateSlash
			case c == '.':
				st = stateDot
			case c == '-':
				st = stateCommentDash1
			case c == '+':
				t.Kind = Plus
				return t, nil
			case c == '*':
				t.Kind = Asterisk
				return t, nil
			case c == '%':
				t.Kind = Percent
				return t, nil
			case c == '^':
				t.Kind = Caret
				return t, nil
			case c == '(':
				t.Kind = LParen
				return t, nil
			case c == ')':
				t.Kind = RParen
				return t, nil
			case c == ':':
				t.Kind = Colon
				return t, nil
			case c == ',':
				t.Kind = Comma
				return t, nil
			case c == '#':
				t.Kind = Hash
				return t, nil
			default:
				return t, l.lexError("unknown character %q", c)
			}

		case stateNumber:
			switch {
			case ok && isDigit(c):
				str.WriteByte(c)
			case ok && c == '.':
				st = stateDecimal
				str.WriteByte(c)
			case ok && (c == 'e' || c == 'E'):
				st = stateExponent
				str.WriteByte(c)
			default:
				l.unreadByte(c, ok)
				return l.finishInteger(&t, str.String())
			}

		case stateDecimal:
			switch {
			case ok && isDigit(c):
				str.WriteByte(c)
			case ok && (c == 'e' || c == 'E'):
				st = stateExponent
				str.WriteByte('e')
			default:
				l.unreadByte(c, ok)
				return l.finishNumber(&t, str.String())
			}

		case stateExponent:
			switch {
			case ok && (c == '+' || c == '-'):
				st = stateExponentSign
				str.WriteByte(c)
			case ok && isDigit(c):
				st = stateExponentValue
				str.WriteByte(c)
			default:
				return t, l.lexError("malformed number literal: exponent has no digits")
			}

		case stateExponentSign:
			if ok && isDigit(c) {
				st = stateExponentValue
				str.WriteByte(c)
			} else {
				return t, l.lexError("malformed number literal: exponent has no digits")
			}

		case stateExponentValue:
			if ok && isDigit(c) {
				str.WriteByte(c)
			} else {
				l.unreadByte(c, ok)
				return l.finishNumber(&t, str.String())
			}

		case stateDot:
			if ok && c == '.' {
				t.Kind = DoubleDot
				return t, nil
			}
			return t, l.lexError("expected \"..\"")

		case stateLessThan:
			if ok && c == '=' {
				t.Kind = Lte
				return t, nil
			}
			l.unreadByte(c, ok)
			t.Kind = Lt
			return t, nil

		case stateGreaterThan:
			if ok && c == '=' {
				t.Kind = Gte
				return t, nil
			}
			l.unreadByte(c, ok)
			t.Kind = Gt
			return t, nil

		case stateEquals:
			if ok && c == '=' {
				t.Kind = DoubleEq
				return t, nil
			}
			l.unreadByte(c, ok)
			t.Kind = Equals
			return t, nil

		case stateTilde:
			if ok && c == '=' {
				t.Kind = TildeEq
				return t, nil
			}
			l.unreadByte(c, ok)
			return t, l.lexError("expected \"~=\"")

		case stateSlash:
			if ok && c == '/' {
				t.Kind = DoubleSlash
				return t, nil
			}
			l.unreadByte(c, ok)
			t.Kind = Slash
			return t, nil

		case stateCommentDash1:
			if ok && c == '-' {
				st = stateCommentDash2
			} else {
				l.unreadByte(c, ok)
				t.Kind = Minus
				return t, nil
			}

		case stateCommentDash2:
			if !ok {
				t.Kind = EOF
				return t, nil
			}
			if c == '[' {
				st = stateBlockCommentBracket
			} else {
				if c == '\n' {
					l.newline()
					st = stateStart
				} else {
					st = stateInlineComment
				}
			}

		case stateInlineComment:
			// the end of input terminates a line comment like a newline does
			if !ok {
				t.Kind = EOF
				return t, nil
			}
			if c == '\n' {
				l.newline()
				st = stateStart
			}

		case stateBlockCommentBracket:
			if !ok {
				t.Kind = EOF
				return t, nil
			}
			if c == '[' {
				st = stateBlockComment
			} else {
				if c == '\n' {
					l.newline()
					st = stateStart
				} else {
					st = stateInlineComment
				}
			}

		case stateBlockComment:
			if !ok {
				return t, l.lexError("unterminated block comment")
			}
			if c == ']' {
				st = stateClosingBracket
			} else if c == '\n' {
				l.newline()
			}

		case stateClosingBracket:
			if !ok {
				return t, l.lexError("unterminated block comment")
			}
			if c == ']' {
				st = stateStart
			} else {
				if c == '\n' {
					l.newline()
				}
				st = stateBlockComment
			}

		case stateString:
			switch {
			case !ok:
				return t, l.lexError("unterminated string literal")
			case c == '\\':
				st = stateEscape
			case c == '"':
				t.Kind = String
				t.Str = str.String()
				return t, nil
			default:
				if c == '\n' {
					l.newline()
				}
				str.WriteByte(c)
			}

		case stateEscape:
			switch {
			case !ok:
				return t, l.lexError("unterminated string literal")
			case c == '\\':
				st = stateString
				str.WriteByte('\\')
			case c == 'n':
				st = stateString
				str.WriteByte('\n')
			case c == 't':
				st = stateString
				str.WriteByte('\t')
			case c == '"':
				st = stateString
				str.WriteByte('"')
			case isDigit(c):
				st = stateEscapeSeq1
				escape[0] = c
			default:
				return t, l.lexError("unknown escape sequence \"\\%c\"", c)
			}

		case stateEscapeSeq1:
			if ok && isDigit(c) {
				st = stateEscapeSeq2
				escape[1] = c
			} else {
				return t, l.lexError("malformed decimal escape sequence")
			}

		case stateEscapeSeq2:
			if ok && isDigit(c) {
				escape[2] = c
				val := int(escape[0]-'0')*100 + int(escape[1]-'0')*10 + int(escape[2]-'0')
				if val < 1 || val > 255 {
					return t, l.lexError("escape sequence \\%c%c%c out of range", escape[0], escape[1], escape[2])
				}
				str.WriteByte(byte(val))
				st = stateString
			} else {
				return t, l.lexError("malformed decimal escape sequence")
			}

		case stateKeywordIdentifier:
			if ok && (c == '_' || isDigit(c) || isLetter(c)) {
				str.WriteByte(c)
			} else {
				l.unreadByte(c, ok)
				identifyKeyword(str.String(), &t)
				return t, nil
			}
		}
	}
}

// identifyKeyword reclassifies an identifier that matches a reserved word.
func identifyKeyword(word string, t *Token) {
	if tag, isType := typeKeywords[word]; isType {
		t.Kind = TypeKw
		t.Type = tag
		return
	}
	switch word {
	case "true":
		t.Kind = Bool
		t.Bool = true
		return
	case "false":
		t.Kind = Bool
		t.Bool = false
		return
	}
	if kind, isKeyword := keywords[word]; isKeyword {
		t.Kind = kind
		return
	}
	t.Kind = Identifier
	t.Str = word
}

func (l *Lexer) finishInteger(t *Token, text string) (Token, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return *t, errs.Internal("cannot parse integer literal %q", text)
	}
	t.Kind = Integer
	t.Int = v
	return *t, nil
}

func (l *Lexer) finishNumber(t *Token, text string) (Token, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return *t, errs.Internal("cannot parse number literal %q", text)
	}
	t.Kind = Number
	t.Num = v
	return *t, nil
}
