package schema

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitize returns a copy of the schema with markup stripped from every
// display string. Ids, option values and rule data are left untouched.
func Sanitize(s Schema) Schema {
	out := s
	out.Title = sanitizeText(s.Title)
	out.Description = sanitizeText(s.Description)
	out.ButtonText = sanitizeText(s.ButtonText)

	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, field := range s.Fields {
			field.Label = sanitizeText(field.Label)
			field.Placeholder = sanitizeText(field.Placeholder)
			field.HelpText = sanitizeText(field.HelpText)
			field.CheckboxLabel = sanitizeText(field.CheckboxLabel)
			field.Options = sanitizeOptions(field.Options)
			if field.Dynamic != nil {
				dyn := *field.Dynamic
				dyn.Options = make(map[string][]Option, len(field.Dynamic.Options))
				for key, options := range field.Dynamic.Options {
					dyn.Options[key] = sanitizeOptions(options)
				}
				field.Dynamic = &dyn
			}
			out.Fields[i] = field
		}
	}
	return out
}

func sanitizeOptions(options []Option) []Option {
	if options == nil {
		return nil
	}
	out := make([]Option, len(options))
	for i, option := range options {
		out[i] = Option{Value: option.Value, Label: sanitizeText(option.Label)}
	}
	return out
}

// sanitizeText strips tags, then undoes the entity escaping the policy
// applies, since display strings are consumed as plain text.
func sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}
