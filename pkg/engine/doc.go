// Package engine evaluates a form schema against the current values.
//
// One pass runs in a fixed order: ResolveVisible computes the visible field
// ids, Validate computes inline errors, and IsFormValid computes the separate
// submission readiness flag. The two validity signals are kept apart on
// purpose; a schema with validation rules but no matching rule has no inline
// errors and is still not ready to submit.
//
// Embedder hooks (schema.VisibilityPredicate, schema.OptionsProvider) and
// visibleWhen expressions are invoked through a guard that turns errors and
// panics into logged faults with a safe default, so a broken hook never
// escapes the engine.
package engine
