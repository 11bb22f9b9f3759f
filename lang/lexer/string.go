package lexer

import (
	"strconv"
	"strings"

	"github.com/mna/fen/lang/token"
)

// stringLiteral scans a `"`-delimited string literal starting at the
// opening quote (l.cur == '"'). It may end the literal normally (returning a
// STRING token) or stop at a `%(` interpolation boundary (returning an
// INTERPOLATION token and switching the lexer into expression-scanning mode
// until the matching `)`; see resumeString).
func (l *Lexer) stringLiteral(line int) Token {
	l.advance() // consume opening quote
	return l.scanStringBody(line)
}

// resumeString is called right after the `)` that closes a `%(...)`
// interpolation expression; it continues scanning the same string literal
// from where it left off.
func (l *Lexer) resumeString(line int) Token {
	return l.scanStringBody(line)
}

func (l *Lexer) scanStringBody(line int) Token {
	var sb strings.Builder
	for {
		switch l.cur {
		case -1:
			l.error(line, "unterminated string literal")
			return Token{Kind: token.STRING, Line: line, Str: sb.String()}

		case '"':
			l.advance()
			return Token{Kind: token.STRING, Line: line, Str: sb.String()}

		case '\\':
			l.advance()
			if l.cur == 'u' {
				l.advance()
				r, ok := l.unicodeEscape(line)
				if ok {
					sb.WriteRune(r)
				}
				continue
			}
			b, ok := l.simpleEscape(line)
			if ok {
				sb.WriteByte(b)
			}

		case '%':
			if l.peekByte() == '(' {
				if l.interpActive {
					l.error(line, "nested string interpolation is not allowed")
				}
				l.advance() // consume '%'
				l.advance() // consume '('
				l.interpActive = true
				l.interpDepth = 1
				return Token{Kind: token.INTERPOLATION, Line: line, Str: sb.String()}
			}
			sb.WriteByte('%')
			l.advance()

		default:
			sb.WriteRune(l.cur)
			l.advance()
		}
	}
}

func (l *Lexer) simpleEscape(line int) (byte, bool) {
	cur := l.cur
	l.advance()
	switch cur {
	case '0':
		return 0, true
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	default:
		l.error(line, "invalid escape sequence '\\%c'", cur)
		return 0, false
	}
}

func (l *Lexer) unicodeEscape(line int) (rune, bool) {
	start := l.off
	n := 0
	for n < 4 && isHexDigit(l.cur) {
		l.advance()
		n++
	}
	if n != 4 {
		l.error(line, "invalid unicode escape, expected 4 hex digits")
		return 0, false
	}
	v, err := strconv.ParseUint(string(l.src[start:l.off]), 16, 32)
	if err != nil {
		l.error(line, "invalid unicode escape: %s", err)
		return 0, false
	}
	return rune(v), true
}

func isHexDigit(r rune) bool {
	return '0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}
