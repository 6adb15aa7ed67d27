// Package schema defines the declarative form description consumed by the
// evaluator: fields, their dependency conditions, dynamic option tables and
// form-level validation rules. Schemas are immutable once handed to a session.
// Custom Go hooks (VisibilityPredicate, OptionsProvider) can be attached per
// field by the embedder; they never travel over the wire. Decode accepts JSON
// or YAML documents and DecodeParam understands the base64 `fixed_variables`
// transport used by the browser demos.
package schema
