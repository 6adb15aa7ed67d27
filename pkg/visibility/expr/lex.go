package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type kind uint8

const (
	kEOF kind = iota
	kIdent
	kString
	kNumber
	kTrue
	kFalse
	kNull
	kIn
	kEq
	kNeq
	kAnd
	kOr
	kNot
	kLParen
	kRParen
	kLBrack
	kRBrack
	kComma
)

type lexeme struct {
	kind kind
	text string
	pos  int
}

var singles = map[byte]kind{
	'(': kLParen,
	')': kRParen,
	'[': kLBrack,
	']': kRBrack,
	',': kComma,
}

// doubled operators must be written twice: == && ||
var doubles = map[byte]kind{
	'=': kEq,
	'&': kAnd,
	'|': kOr,
}

var keywords = map[string]kind{
	"true":  kTrue,
	"false": kFalse,
	"null":  kNull,
	"nil":   kNull,
	"in":    kIn,
}

type scanner struct {
	src string
	off int
}

// lex splits src into lexemes. The result always ends with a kEOF lexeme.
func lex(src string) ([]lexeme, error) {
	s := &scanner{src: src}
	var out []lexeme
	for {
		lx, err := s.scan()
		if err != nil {
			return nil, err
		}
		out = append(out, lx)
		if lx.kind == kEOF {
			return out, nil
		}
	}
}

func (s *scanner) scan() (lexeme, error) {
	for s.off < len(s.src) && isSpace(s.src[s.off]) {
		s.off++
	}
	start := s.off
	if start >= len(s.src) {
		return lexeme{kind: kEOF, pos: start}, nil
	}

	c := s.src[start]
	if k, ok := singles[c]; ok {
		s.off++
		return lexeme{kind: k, text: string(c), pos: start}, nil
	}
	if k, ok := doubles[c]; ok {
		if s.at(start+1) != c {
			return lexeme{}, fmt.Errorf("visibility/expr: offset %d: unexpected %q, use %q", start, string(c), strings.Repeat(string(c), 2))
		}
		s.off += 2
		return lexeme{kind: k, text: s.src[start:s.off], pos: start}, nil
	}

	switch c {
	case '!':
		if s.at(start+1) == '=' {
			s.off += 2
			return lexeme{kind: kNeq, text: "!=", pos: start}, nil
		}
		s.off++
		return lexeme{kind: kNot, text: "!", pos: start}, nil
	case '"', '\'':
		return s.quoted(c)
	}

	for s.off < len(s.src) && !isDelim(s.src[s.off]) {
		s.off++
	}
	word := s.src[start:s.off]
	if k, ok := keywords[strings.ToLower(word)]; ok {
		return lexeme{kind: k, text: strings.ToLower(word), pos: start}, nil
	}
	if first := word[0]; first == '-' || first == '+' || (first >= '0' && first <= '9') {
		if _, err := strconv.ParseFloat(word, 64); err != nil {
			return lexeme{}, fmt.Errorf("visibility/expr: offset %d: invalid number %q", start, word)
		}
		return lexeme{kind: kNumber, text: word, pos: start}, nil
	}
	return lexeme{kind: kIdent, text: word, pos: start}, nil
}

// quoted reads a string literal delimited by quote. Backslash escapes the
// next character; \n and \t are translated.
func (s *scanner) quoted(quote byte) (lexeme, error) {
	start := s.off
	s.off++

	var b strings.Builder
	for s.off < len(s.src) {
		c := s.src[s.off]
		s.off++
		switch {
		case c == quote:
			return lexeme{kind: kString, text: b.String(), pos: start}, nil
		case c == '\\' && s.off < len(s.src):
			esc := s.src[s.off]
			s.off++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
	return lexeme{}, fmt.Errorf("visibility/expr: offset %d: unterminated string literal", start)
}

func (s *scanner) at(i int) byte {
	if i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelim(c byte) bool {
	if isSpace(c) || c == '!' || c == '"' || c == '\'' {
		return true
	}
	_, single := singles[c]
	_, double := doubles[c]
	return single || double
}
