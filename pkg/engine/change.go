package engine

import "github.com/goliatone/go-dynform/pkg/schema"

// ApplyChange returns a new value map with fieldID set to value and every
// id in field.ResetFields set to the empty string. The input map is never
// modified, so callers observe the primary change and the resets together.
// field may be nil when the id is not part of the schema.
func ApplyChange(values schema.Values, fieldID string, value any, field *schema.Field) schema.Values {
	next := values.Clone()
	next[fieldID] = value
	if field != nil {
		for _, id := range field.ResetFields {
			next[id] = ""
		}
	}
	return next
}
