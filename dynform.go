// Package dynform is the top-level entry point: load a schema from a file,
// fs.FS, URL or inline param, then evaluate it with an Engine or drive it
// interactively through a Session.
package dynform

import (
	"context"
	"fmt"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// Schema aliases schema.Schema so simple callers need a single import.
type Schema = schema.Schema

// Field aliases schema.Field.
type Field = schema.Field

// Values aliases schema.Values.
type Values = schema.Values

// EvaluationResult aliases engine.EvaluationResult.
type EvaluationResult = engine.EvaluationResult

// NewEngine exposes the engine constructor from the top-level module.
func NewEngine(options ...engine.Option) *engine.Engine {
	return engine.New(options...)
}

// NewSession starts a form session for s.
func NewSession(s Schema, options ...form.Option) *form.Session {
	return form.NewSession(s, options...)
}

// Evaluate runs one visibility and validation pass with the default engine.
func Evaluate(s Schema, values Values) EvaluationResult {
	return engine.Evaluate(s, values)
}

// LoadSchema fetches and decodes a schema in one step. The raw source string
// follows ParseSource rules: http(s) URLs or file paths.
func LoadSchema(ctx context.Context, source string, options ...schema.LoaderOption) (Schema, error) {
	src := schema.ParseSource(source)
	if src == nil {
		return Schema{}, fmt.Errorf("dynform: invalid source %q", source)
	}
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return Schema{}, err
	}
	return doc.Schema()
}
