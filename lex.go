package main

import (
	"strings"
	"unicode"
)

// Lexer turns W source text into a flat stream of token strings.
//
// Blocks are delimited by indentation. Every two leading spaces count as one
// level; opening a level yields a synthetic "{" and closing one yields a
// synthetic "}". A jump of several levels yields one brace per call. Tabs
// and other whitespace inside the indentation are skipped without counting.
//
// Literal braces delimit blocks too. While one is open, line breaks and
// indentation are ignored until the matching "}".
//
// Tokens carry no kind. The parser re-derives meaning from the spelling, so
// NextToken returns "" once the input is exhausted.
type Lexer struct {
	input []rune
	pos   int
	line  int

	indent     int // current indentation level
	indentLeft int // pending synthetic braces: >0 opens, <0 closes
	braces     int // literal "{" not yet closed

	tokenLine int // line on which the last returned token started
}

const operatorStart = "+-*/%=<>!&|^~"

// ASCII punctuation, the characters an operator run may continue with.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

const delimiters = "()[],:{}"

func NewLexer(src string) *Lexer {
	return &Lexer{input: []rune(src), line: 1}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
	}
	l.pos++
}

// Line reports the source line on which the most recent token started.
func (l *Lexer) Line() int {
	return l.tokenLine
}

func (l *Lexer) level() int {
	return l.indent
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() {
		ch := l.peek()
		if ch == '\n' || !unicode.IsSpace(ch) {
			return
		}
		l.advance()
	}
}

// computeIndent measures the indentation of the next non-blank line when the
// cursor sits on a newline. Mid-line the measured level equals the current
// one, so nothing changes. Blank lines collapse, and end of input counts as
// level zero so every open block gets closed. Inside literal braces it only
// skips whitespace.
func (l *Lexer) computeIndent() {
	if l.braces > 0 {
		for !l.eof() && unicode.IsSpace(l.peek()) {
			l.advance()
		}
		if !l.eof() {
			return
		}
	}

	spaces := 0
	if !l.eof() {
		spaces = l.indent * 2
	scan:
		for !l.eof() {
			switch l.peek() {
			case ' ':
				spaces++
				l.advance()
			case '\n':
				spaces = 0
				l.advance()
			default:
				if !unicode.IsSpace(l.peek()) {
					break scan
				}
				l.advance()
			}
		}
	}
	if l.eof() {
		spaces = 0
	}

	level := spaces / 2
	if level != l.indent {
		l.indentLeft = level - l.indent
		l.indent = level
	}
}

// NextToken returns the next token, or "" at end of input.
func (l *Lexer) NextToken() string {
	l.skipWhitespace()
	l.computeIndent()
	l.tokenLine = l.line

	if l.indentLeft > 0 {
		l.indentLeft--
		return "{"
	}
	if l.indentLeft < 0 {
		l.indentLeft++
		return "}"
	}

	if l.eof() {
		return ""
	}

	ch := l.peek()
	switch {
	case isDigit(ch):
		return l.readNumber()
	case ch == '"':
		return l.readString()
	case strings.ContainsRune(operatorStart, ch):
		return l.readOperator()
	case strings.ContainsRune(delimiters, ch):
		l.advance()
		switch {
		case ch == '{':
			l.braces++
		case ch == '}' && l.braces > 0:
			l.braces--
		}
		return string(ch)
	case isIdentChar(ch):
		return l.readIdentifier()
	default:
		// Stray character: hand it to the parser rather than ending the stream.
		l.advance()
		return string(ch)
	}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for !l.eof() && isIdentChar(l.peek()) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads digits with at most one embedded '.'. No sign, no exponent.
func (l *Lexer) readNumber() string {
	start := l.pos
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}
	return string(l.input[start:l.pos])
}

// readString consumes both quotes and returns the text between them. An
// unterminated literal stops silently at end of input.
func (l *Lexer) readString() string {
	l.advance() // opening quote
	start := l.pos
	for !l.eof() && l.peek() != '"' {
		l.advance()
	}
	text := string(l.input[start:l.pos])
	if !l.eof() {
		l.advance() // closing quote
	}
	return text
}

// readOperator greedily reads a run of ASCII punctuation, so "<=" is one
// token but so is "=(".
func (l *Lexer) readOperator() string {
	start := l.pos
	for !l.eof() && strings.ContainsRune(asciiPunct, l.peek()) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

// Tokenize drains a lexer over src and returns every token before the
// end-of-input sentinel.
func Tokenize(src string) []string {
	l := NewLexer(src)
	var tokens []string
	for {
		tok := l.NextToken()
		if tok == "" {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
