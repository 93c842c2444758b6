package query

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokString
	tokQuotedIdent
	tokSemicolon
	tokLParen
	tokDot
	tokOther
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer splits SQL into the coarse tokens the guard needs. Comments and
// whitespace are dropped; literals and quoted identifiers are kept whole
// so their contents are never mistaken for keywords.
type lexer struct {
	input   string
	pos     int
	readPos int
	ch      byte
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

// tokens lexes the whole input.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		if err := l.skipWhitespaceAndComments(); err != nil {
			return nil, err
		}
		if l.eof() {
			return out, nil
		}

		start := l.pos
		switch {
		case l.ch == '\'':
			s, err := l.readDelimited('\'', '\'')
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: s, pos: start})
		case l.ch == '"':
			s, err := l.readDelimited('"', '"')
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokQuotedIdent, text: s, pos: start})
		case l.ch == '`':
			s, err := l.readDelimited('`', '`')
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokQuotedIdent, text: s, pos: start})
		case l.ch == '[':
			s, err := l.readDelimited('[', ']')
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokQuotedIdent, text: s, pos: start})
		case isLetter(l.ch) || l.ch == '_':
			out = append(out, token{kind: tokWord, text: l.readWord(), pos: start})
		case isDigit(l.ch):
			out = append(out, token{kind: tokNumber, text: l.readWord(), pos: start})
		case l.ch == ';':
			out = append(out, token{kind: tokSemicolon, text: ";", pos: start})
			l.readChar()
		case l.ch == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: start})
			l.readChar()
		case l.ch == '.':
			out = append(out, token{kind: tokDot, text: ".", pos: start})
			l.readChar()
		default:
			out = append(out, token{kind: tokOther, text: string(l.ch), pos: start})
			l.readChar()
		}
	}
}

func (l *lexer) skipWhitespaceAndComments() error {
	for !l.eof() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for !l.eof() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			start := l.pos
			l.readChar()
			l.readChar()
			for {
				if l.eof() {
					return fmt.Errorf("unterminated comment starting at offset %d", start)
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
		default:
			return nil
		}
	}
	return nil
}

// readDelimited reads a literal between open and end. A doubled end
// character inside the literal is an escaped end character.
func (l *lexer) readDelimited(open, end byte) (string, error) {
	start := l.pos
	l.readChar()
	var sb strings.Builder
	for {
		if l.eof() {
			return "", fmt.Errorf("unterminated %c literal starting at offset %d", open, start)
		}
		if l.ch == end {
			if end != ']' && l.peekChar() == end {
				sb.WriteByte(end)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return sb.String(), nil
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
}

func (l *lexer) readWord() string {
	start := l.pos
	for !l.eof() && (isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$') {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
