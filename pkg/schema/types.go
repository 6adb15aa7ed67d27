package schema

// FieldType enumerates the input kinds a form field can take.
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeEmail      FieldType = "email"
	FieldTypePassword   FieldType = "password"
	FieldTypeNumber     FieldType = "number"
	FieldTypeSelect     FieldType = "select"
	FieldTypeTextarea   FieldType = "textarea"
	FieldTypeCheckbox   FieldType = "checkbox"
	FieldTypeCodeEditor FieldType = "codeEditor"
)

// ValidationEmail is the only recognised Field.Validation tag.
const ValidationEmail = "email"

// Known reports whether the type is one the evaluator understands.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypePassword, FieldTypeNumber,
		FieldTypeSelect, FieldTypeTextarea, FieldTypeCheckbox, FieldTypeCodeEditor:
		return true
	default:
		return false
	}
}

// Values maps field ids to their current value (string, number or bool).
type Values map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Option is a single select choice.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Condition gates visibility on another field's value. Either Values or
// NotEmpty is expected; a condition with neither always holds.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
	NotEmpty bool     `json:"notEmpty,omitempty" yaml:"notEmpty,omitempty"`
}

// DependsOn is a field's visibility condition. ParentConditions must all hold
// before the direct condition is consulted.
type DependsOn struct {
	Condition        `yaml:",inline"`
	ParentConditions []Condition `json:"parentConditions,omitempty" yaml:"parentConditions,omitempty"`
}

// DynamicOptions derives a select's choices from a parent field's value.
type DynamicOptions struct {
	DependsOn string              `json:"dependsOn" yaml:"dependsOn"`
	Options   map[string][]Option `json:"options" yaml:"options"`
}

// Field models one form input.
type Field struct {
	ID            string          `json:"id" yaml:"id"`
	Type          FieldType       `json:"type" yaml:"type"`
	Label         string          `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder   string          `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText      string          `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	CheckboxLabel string          `json:"checkboxLabel,omitempty" yaml:"checkboxLabel,omitempty"`
	Required      bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Disabled      bool            `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Rows          int             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Min           *float64        `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64        `json:"max,omitempty" yaml:"max,omitempty"`
	Step          *float64        `json:"step,omitempty" yaml:"step,omitempty"`
	Options       []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	Dynamic       *DynamicOptions `json:"dynamicOptions,omitempty" yaml:"dynamicOptions,omitempty"`
	DependsOn     *DependsOn      `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	VisibleWhen   string          `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	ResetFields   []string        `json:"resetFields,omitempty" yaml:"resetFields,omitempty"`
	ValidateCode  bool            `json:"validateCode,omitempty" yaml:"validateCode,omitempty"`
	Validation    string          `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Visible and OptionsProvider are embedder-supplied hooks and take
	// precedence over the declarative rules above.
	Visible         VisibilityPredicate `json:"-" yaml:"-"`
	OptionsProvider OptionsProvider     `json:"-" yaml:"-"`
}

// DisplayLabel returns the label, falling back to the id.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// When restricts a ValidationRule to specific values of one field.
type When struct {
	Field  string   `json:"field" yaml:"field"`
	Values []string `json:"values" yaml:"values"`
}

// ValidationRule requires fields to be non-empty, optionally only when a
// controlling field holds one of the listed values.
type ValidationRule struct {
	When    *When    `json:"when,omitempty" yaml:"when,omitempty"`
	Require []string `json:"require" yaml:"require"`
}

// Schema is the full form description.
type Schema struct {
	Title           string           `json:"title,omitempty" yaml:"title,omitempty"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	ButtonText      string           `json:"buttonText,omitempty" yaml:"buttonText,omitempty"`
	Fields          []Field          `json:"fields" yaml:"fields"`
	ValidationRules []ValidationRule `json:"validationRules,omitempty" yaml:"validationRules,omitempty"`
}

// Field returns the definition with the given id.
func (s *Schema) Field(id string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// FieldIDs lists field ids in declaration order.
func (s *Schema) FieldIDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.ID)
	}
	return out
}
