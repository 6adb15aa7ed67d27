package expr

import (
	"fmt"
	"strconv"
)

// Grammar, lowest precedence first:
//
//	or      = and { "||" and }
//	and     = unary { "&&" unary }
//	unary   = "!" unary | primary
//	primary = "(" or ")" | ident [ ("==" | "!=") value | "in" list ]
type parser struct {
	toks []lexeme
	i    int
}

func parse(toks []lexeme) (node, error) {
	p := &parser{toks: toks}
	root, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != kEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return root, nil
}

func (p *parser) peek() lexeme { return p.toks[p.i] }

func (p *parser) take() lexeme {
	t := p.toks[p.i]
	if t.kind != kEOF {
		p.i++
	}
	return t
}

func (p *parser) accept(k kind) bool {
	if p.peek().kind != k || k == kEOF {
		return false
	}
	p.i++
	return true
}

func (p *parser) errorf(t lexeme, format string, args ...any) error {
	if t.kind == kEOF {
		return fmt.Errorf("visibility/expr: unexpected end of rule: "+format, args...)
	}
	return fmt.Errorf("visibility/expr: offset %d: "+format, append([]any{t.pos}, args...)...)
}

func (p *parser) or() (node, error) {
	var terms anyOf
	for {
		n, err := p.and()
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
		if !p.accept(kOr) {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *parser) and() (node, error) {
	var terms allOf
	for {
		n, err := p.unary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, n)
		if !p.accept(kAnd) {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return terms, nil
}

func (p *parser) unary() (node, error) {
	if p.accept(kNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return not{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.accept(kLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if t := p.peek(); !p.accept(kRParen) {
			return nil, p.errorf(t, "missing ')'")
		}
		return inner, nil
	}

	t := p.take()
	if t.kind != kIdent {
		return nil, p.errorf(t, "expected identifier, got %q", t.text)
	}

	switch p.peek().kind {
	case kEq, kNeq:
		op := p.take()
		want, err := p.value()
		if err != nil {
			return nil, err
		}
		return compare{path: t.text, want: want, negated: op.kind == kNeq}, nil
	case kIn:
		p.take()
		set, err := p.list()
		if err != nil {
			return nil, err
		}
		return member{path: t.text, set: set}, nil
	default:
		return truthy{path: t.text}, nil
	}
}

// value reads a literal. A bare identifier on the right-hand side is read
// as a string.
func (p *parser) value() (any, error) {
	t := p.take()
	switch t.kind {
	case kString, kIdent:
		return t.text, nil
	case kNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return f, nil
	case kTrue:
		return true, nil
	case kFalse:
		return false, nil
	case kNull:
		return nil, nil
	default:
		return nil, p.errorf(t, "expected a value, got %q", t.text)
	}
}

func (p *parser) list() ([]any, error) {
	if t := p.peek(); !p.accept(kLBrack) {
		return nil, p.errorf(t, "expected '[' after in")
	}
	var set []any
	if p.accept(kRBrack) {
		return set, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		set = append(set, v)
		if p.accept(kComma) {
			continue
		}
		if t := p.peek(); !p.accept(kRBrack) {
			return nil, p.errorf(t, "missing ']'")
		}
		return set, nil
	}
}
