package engine

import (
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/visibility"
)

// Visible is the set of visible field ids, kept in schema order.
type Visible []string

// Has reports whether id is visible.
func (v Visible) Has(id string) bool {
	for _, candidate := range v {
		if candidate == id {
			return true
		}
	}
	return false
}

// ResolveVisible computes the visible field ids. Each field is decided from
// the raw values alone, so one pass is enough and evaluation order does not
// matter. Priority per field: embedder predicate, visibleWhen expression,
// dependsOn, otherwise visible. Fields with an unknown type are never
// visible.
func (e *Engine) ResolveVisible(s schema.Schema, values schema.Values) Visible {
	out := make(Visible, 0, len(s.Fields))
	for i := range s.Fields {
		field := &s.Fields[i]
		if !field.Type.Known() {
			e.metrics.Fault(metrics.FaultUnknownType)
			e.logger.Warn().Str("field", field.ID).Str("type", string(field.Type)).Msg("unknown field type")
			continue
		}
		if e.fieldVisible(field, values) {
			out = append(out, field.ID)
		}
	}
	return out
}

// FieldVisible decides visibility for a single field.
func (e *Engine) FieldVisible(field schema.Field, values schema.Values) bool {
	if !field.Type.Known() {
		return false
	}
	return e.fieldVisible(&field, values)
}

func (e *Engine) fieldVisible(field *schema.Field, values schema.Values) bool {
	if field.Visible != nil {
		ok, err := guard(func() (bool, error) {
			return field.Visible.Visible(values.Clone())
		})
		if err != nil {
			e.fault(metrics.FaultPredicate, field.ID, "visibility predicate failed", err)
			return false
		}
		return ok
	}

	if field.VisibleWhen != "" {
		ok, err := guard(func() (bool, error) {
			return e.evaluator.Eval(field.ID, field.VisibleWhen, visibility.Context{
				Values: values,
				Extras: e.extras,
			})
		})
		if err != nil {
			e.fault(metrics.FaultExpression, field.ID, "visibleWhen expression failed", err)
			return false
		}
		return ok
	}

	if dep := field.DependsOn; dep != nil {
		for _, cond := range dep.ParentConditions {
			if !conditionHolds(cond, values) {
				return false
			}
		}
		return conditionHolds(dep.Condition, values)
	}

	return true
}

// conditionHolds evaluates a single condition. Values takes precedence over
// NotEmpty; a condition with neither always holds.
func conditionHolds(cond schema.Condition, values schema.Values) bool {
	if cond.Values != nil {
		return member(values[cond.Field], cond.Values)
	}
	if cond.NotEmpty {
		return !IsEmpty(values[cond.Field])
	}
	return true
}
