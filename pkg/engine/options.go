package engine

import (
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// ResolveOptions computes a field's choices. Priority: embedder provider,
// dynamicOptions lookup keyed by the parent's value, static options. The
// result is never nil.
//
// When dynamicOptions is declared the static list is never used, even if the
// parent is empty or has no entry.
func (e *Engine) ResolveOptions(field schema.Field, values schema.Values) []schema.Option {
	if field.OptionsProvider != nil {
		options, err := guard(func() ([]schema.Option, error) {
			return field.OptionsProvider.Options(values.Clone())
		})
		if err != nil {
			e.fault(metrics.FaultOptions, field.ID, "options provider failed", err)
			return []schema.Option{}
		}
		return copyOptions(options)
	}

	if dyn := field.Dynamic; dyn != nil && dyn.DependsOn != "" {
		parent := values[dyn.DependsOn]
		if IsEmpty(parent) {
			return []schema.Option{}
		}
		return copyOptions(dyn.Options[Canonical(parent)])
	}

	return copyOptions(field.Options)
}

// OptionsFor resolves options for every visible select field.
func (e *Engine) OptionsFor(s schema.Schema, values schema.Values, visible Visible) map[string][]schema.Option {
	out := make(map[string][]schema.Option)
	for _, field := range s.Fields {
		if field.Type != schema.FieldTypeSelect || !visible.Has(field.ID) {
			continue
		}
		out[field.ID] = e.ResolveOptions(field, values)
	}
	return out
}

func copyOptions(options []schema.Option) []schema.Option {
	out := make([]schema.Option, len(options))
	copy(out, options)
	return out
}
