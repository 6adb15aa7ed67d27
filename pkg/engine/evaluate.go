package engine

import (
	"time"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// EvaluationResult is derived state for one set of values. It is recomputed
// on every change and never persisted.
type EvaluationResult struct {
	VisibleFieldIDs Visible `json:"visibleFieldIds"`
	Errors          Errors  `json:"errors"`
	// IsValid is true when there are no errors and FormValid holds.
	IsValid bool `json:"isValid"`
	// FormValid is the submission readiness flag. It can be false while
	// Errors is empty.
	FormValid bool `json:"formValid"`
}

// Evaluate runs the visibility and validation pipeline once.
func (e *Engine) Evaluate(s schema.Schema, values schema.Values) EvaluationResult {
	start := time.Now()

	visible := e.ResolveVisible(s, values)
	errs := e.fieldErrors(s, values, visible)
	formValid := e.IsFormValid(s, values, visible)

	if e.metrics != nil {
		e.metrics.Evaluations.Inc()
		e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		e.metrics.ValidationErrors.Observe(float64(len(errs)))
	}

	return EvaluationResult{
		VisibleFieldIDs: visible,
		Errors:          errs,
		IsValid:         len(errs) == 0 && formValid,
		FormValid:       formValid,
	}
}

// Evaluate runs the pipeline with the default engine.
func Evaluate(s schema.Schema, values schema.Values) EvaluationResult {
	return defaultEngine.Evaluate(s, values)
}

// ResolveVisible resolves visibility with the default engine.
func ResolveVisible(s schema.Schema, values schema.Values) Visible {
	return defaultEngine.ResolveVisible(s, values)
}

// ResolveOptions resolves a field's options with the default engine.
func ResolveOptions(field schema.Field, values schema.Values) []schema.Option {
	return defaultEngine.ResolveOptions(field, values)
}

// Validate validates with the default engine.
func Validate(s schema.Schema, values schema.Values, visible Visible) (Errors, bool) {
	return defaultEngine.Validate(s, values, visible)
}

// IsFormValid computes readiness with the default engine.
func IsFormValid(s schema.Schema, values schema.Values, visible Visible) bool {
	return defaultEngine.IsFormValid(s, values, visible)
}
