package expr

import (
	"strings"

	"github.com/goliatone/go-dynform/pkg/visibility"
)

type node interface {
	eval(s scope) bool
	refs(visit func(path string))
}

type anyOf []node

func (n anyOf) eval(s scope) bool {
	for _, term := range n {
		if term.eval(s) {
			return true
		}
	}
	return false
}

func (n anyOf) refs(visit func(string)) {
	for _, term := range n {
		term.refs(visit)
	}
}

type allOf []node

func (n allOf) eval(s scope) bool {
	for _, term := range n {
		if !term.eval(s) {
			return false
		}
	}
	return true
}

func (n allOf) refs(visit func(string)) {
	for _, term := range n {
		term.refs(visit)
	}
}

type not struct{ inner node }

func (n not) eval(s scope) bool       { return !n.inner.eval(s) }
func (n not) refs(visit func(string)) { n.inner.refs(visit) }

type truthy struct{ path string }

func (n truthy) refs(visit func(string)) { visit(n.path) }

func (n truthy) eval(s scope) bool {
	v, ok := s.lookup(n.path)
	return ok && isTruthy(v)
}

// compare tests a value against a literal. want is nil, bool, float64 or
// string, and decides how the value is coerced.
type compare struct {
	path    string
	want    any
	negated bool
}

func (n compare) eval(s scope) bool {
	got, _ := s.lookup(n.path)
	return matches(got, n.want) != n.negated
}

func (n compare) refs(visit func(string)) { visit(n.path) }

// member holds when the value's canonical string equals one of the listed
// literals. Missing and null values never match.
type member struct {
	path string
	set  []any
}

func (n member) eval(s scope) bool {
	got, ok := s.lookup(n.path)
	if !ok || got == nil {
		return false
	}
	key := canonical(got)
	for _, want := range n.set {
		if want != nil && canonical(want) == key {
			return true
		}
	}
	return false
}

func (n member) refs(visit func(string)) { visit(n.path) }

type scope visibility.Context

func (s scope) lookup(path string) (any, bool) {
	src := s.Values
	if rest, isExtra := cutExtras(path); isExtra {
		src, path = s.Extras, rest
	}
	if path == "" || len(src) == 0 {
		return nil, false
	}
	if v, ok := src[path]; ok {
		return v, true
	}

	var cur any = src
	for _, seg := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}
