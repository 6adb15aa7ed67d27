package schema

// VisibilityPredicate decides whether a field is shown for the given values.
// Errors and panics are caught by the evaluator and treated as "hidden".
type VisibilityPredicate interface {
	Visible(values Values) (bool, error)
}

// VisibilityFunc adapts a function into a VisibilityPredicate.
type VisibilityFunc func(values Values) (bool, error)

// Visible calls the underlying function.
func (fn VisibilityFunc) Visible(values Values) (bool, error) {
	return fn(values)
}

// OptionsProvider computes a select field's choices from the current values.
// Errors and panics are caught by the evaluator and treated as no options.
type OptionsProvider interface {
	Options(values Values) ([]Option, error)
}

// OptionsFunc adapts a function into an OptionsProvider.
type OptionsFunc func(values Values) ([]Option, error)

// Options calls the underlying function.
func (fn OptionsFunc) Options(values Values) ([]Option, error) {
	return fn(values)
}
