package engine

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// Error messages produced by Validate.
const (
	MsgInvalidEmail    = "Please enter a valid email address"
	MsgMissingFunction = "Code must include at least one function definition"
)

// codeToken marks a Python function definition.
const codeToken = "def "

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Errors maps field ids to a single message. A missing key means no error.
type Errors map[string]string

// RequiredMessage is the message used for empty required fields.
func RequiredMessage(field schema.Field) string {
	return field.DisplayLabel() + " is required"
}

// Validate computes inline errors for the visible fields and reports overall
// validity: no errors and IsFormValid. Checks run per field in order
// required, email, code, so a later check overwrites an earlier message on
// the same field; validation rules run last and overwrite again.
func (e *Engine) Validate(s schema.Schema, values schema.Values, visible Visible) (Errors, bool) {
	errs := e.fieldErrors(s, values, visible)
	return errs, len(errs) == 0 && e.IsFormValid(s, values, visible)
}

func (e *Engine) fieldErrors(s schema.Schema, values schema.Values, visible Visible) Errors {
	errs := make(Errors)

	for _, id := range visible {
		field, ok := s.Field(id)
		if !ok {
			continue
		}
		if field.Type == schema.FieldTypeCheckbox && !field.Required {
			continue
		}

		value := values[id]
		if field.Required && IsEmpty(value) {
			errs[id] = RequiredMessage(*field)
		}
		if IsEmpty(value) {
			continue
		}

		if field.Validation == schema.ValidationEmail && !emailPattern.MatchString(Canonical(value)) {
			errs[id] = MsgInvalidEmail
		}
		if field.ValidateCode && field.Type == schema.FieldTypeCodeEditor && !strings.Contains(Canonical(value), codeToken) {
			errs[id] = MsgMissingFunction
		}
	}

	for _, rule := range s.ValidationRules {
		if !ruleApplies(rule, values) {
			continue
		}
		for _, id := range rule.Require {
			field, ok := s.Field(id)
			if !ok || !visible.Has(id) {
				continue
			}
			if IsEmpty(values[id]) {
				errs[id] = RequiredMessage(*field)
			}
		}
	}

	return errs
}

// IsFormValid is the submission readiness check and is deliberately not
// derived from Validate.
//
// With validation rules declared, at least one rule must match the current
// values and every field required by any matching rule must be non-empty,
// visible or not. With no rules, every visible required non-checkbox field
// must be non-empty. A schema without a fields list is never valid.
func (e *Engine) IsFormValid(s schema.Schema, values schema.Values, visible Visible) bool {
	if s.Fields == nil {
		return false
	}

	if len(s.ValidationRules) > 0 {
		matched := 0
		for _, rule := range s.ValidationRules {
			if !ruleApplies(rule, values) {
				continue
			}
			matched++
			for _, id := range rule.Require {
				if IsEmpty(values[id]) {
					return false
				}
			}
		}
		return matched > 0
	}

	for _, id := range visible {
		field, ok := s.Field(id)
		if !ok || !field.Required || field.Type == schema.FieldTypeCheckbox {
			continue
		}
		if IsEmpty(values[id]) {
			return false
		}
	}
	return true
}

// ruleApplies reports whether a rule's when clause matches. A rule without a
// when clause (or with an empty when.field) always applies.
func ruleApplies(rule schema.ValidationRule, values schema.Values) bool {
	if rule.When == nil || rule.When.Field == "" {
		return true
	}
	return member(values[rule.When.Field], rule.When.Values)
}
