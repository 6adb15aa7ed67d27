// Package expr implements the built-in `visibleWhen` rule language.
//
// A rule is a boolean expression over form values:
//
//	enabled
//	!enabled
//	pipelineType == "inline"
//	retries != 3
//	pipelineType in ["published", "draft"]
//	(a || b) && extras.role == "admin"
//
// Identifiers resolve against visibility.Context.Values, either as a flat key
// ("cta.headline") or as a path through nested maps. The `extras.` prefix
// reads from visibility.Context.Extras instead.
package expr

import (
	"container/list"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-dynform/pkg/visibility"
)

const extrasPrefix = "extras."

// DefaultCacheSize is how many compiled rules an Evaluator keeps unless
// WithCacheSize says otherwise.
const DefaultCacheSize = 512

// Evaluator compiles rules on first use and keeps the most recently used
// ones, keyed by rule text. It is safe for concurrent use.
type Evaluator struct {
	mu      sync.Mutex
	limit   int
	order   *list.List // front is most recent; values are *cacheEntry
	entries map[string]*list.Element
}

type cacheEntry struct {
	rule    string
	program *Program
	err     error
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCacheSize caps the number of cached programs. Zero or less disables
// caching.
func WithCacheSize(n int) Option {
	return func(e *Evaluator) {
		e.limit = n
	}
}

// New returns an Evaluator with an empty cache.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		limit:   DefaultCacheSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Eval satisfies visibility.Evaluator. Blank rules are always true.
func (e *Evaluator) Eval(fieldID, rule string, ctx visibility.Context) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}

	entry := e.lookup(rule)
	if entry.err != nil {
		return false, fmt.Errorf("field %s: %w", fieldID, entry.err)
	}
	return entry.program.Eval(ctx)
}

func (e *Evaluator) lookup(rule string) *cacheEntry {
	e.mu.Lock()
	if el, ok := e.entries[rule]; ok {
		e.order.MoveToFront(el)
		e.mu.Unlock()
		return el.Value.(*cacheEntry)
	}
	e.mu.Unlock()

	program, err := Compile(rule)
	entry := &cacheEntry{rule: rule, program: program, err: err}
	if e.limit <= 0 {
		return entry
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if el, ok := e.entries[rule]; ok {
		e.order.MoveToFront(el)
		return el.Value.(*cacheEntry)
	}
	e.entries[rule] = e.order.PushFront(entry)
	for e.order.Len() > e.limit {
		oldest := e.order.Back()
		e.order.Remove(oldest)
		delete(e.entries, oldest.Value.(*cacheEntry).rule)
	}
	return entry
}

// cached reports how many programs are held.
func (e *Evaluator) cached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Len()
}

// Program is a compiled rule.
type Program struct {
	root node
}

// Compile parses rule into a Program.
func Compile(rule string) (*Program, error) {
	tokens, err := lex(strings.TrimSpace(rule))
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		// only EOF
		return &Program{}, nil
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Program{root: root}, nil
}

// Eval evaluates the program. A nil or empty program is true.
func (p *Program) Eval(ctx visibility.Context) (bool, error) {
	if p == nil || p.root == nil {
		return true, nil
	}
	return p.root.eval(scope(ctx)), nil
}

// Identifiers returns the distinct value paths the program reads, in the
// order they first appear. Paths under `extras.` are left out.
func (p *Program) Identifiers() []string {
	if p == nil || p.root == nil {
		return nil
	}
	var ids []string
	p.root.refs(func(path string) {
		if _, isExtra := cutExtras(path); isExtra {
			return
		}
		for _, seen := range ids {
			if seen == path {
				return
			}
		}
		ids = append(ids, path)
	})
	return ids
}

func cutExtras(path string) (string, bool) {
	if len(path) < len(extrasPrefix) || !strings.EqualFold(path[:len(extrasPrefix)], extrasPrefix) {
		return path, false
	}
	return path[len(extrasPrefix):], true
}
