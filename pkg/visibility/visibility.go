// Package visibility defines the rule-expression contract used by schema
// fields that declare a `visibleWhen` expression. The expr subpackage holds
// the built-in evaluator.
package visibility

// Evaluator determines whether a field should be visible based on a rule
// string and the current form values.
type Evaluator interface {
	Eval(fieldID, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current form
// values while Extras lets embedders expose additional facts such as user
// roles or feature flags under the `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, rule string, ctx Context) (bool, error) {
	return fn(fieldID, rule, ctx)
}
