package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-dynform/internal/openapi/parser"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// ExtensionKey is the vendor extension read from operations and properties.
const ExtensionKey = "x-dynform"

// textareaThreshold is the maxLength above which strings become textareas.
const textareaThreshold = 255

// ErrOperationNotFound is returned when the operation id is unknown.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Options tunes document parsing.
type Options struct {
	ResolveReferences     bool
	AllowPartialDocuments bool
}

// Option mutates Options.
type Option func(*Options)

// WithReferenceResolution allows external $refs and validates the document.
func WithReferenceResolution() Option {
	return func(o *Options) {
		o.ResolveReferences = true
	}
}

// OperationInfo summarises an operation for listings.
type OperationInfo struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	HasBody bool   `json:"hasBody"`
}

// Operations lists the document's operations sorted by id.
func Operations(ctx context.Context, data []byte, opts ...Option) ([]OperationInfo, error) {
	ops, err := parser.Parse(ctx, data, parserOptions(opts))
	if err != nil {
		return nil, err
	}
	out := make([]OperationInfo, 0, len(ops))
	for _, id := range parser.IDs(ops) {
		op := ops[id]
		out = append(out, OperationInfo{
			ID:      op.ID,
			Method:  op.Method,
			Path:    op.Path,
			Summary: op.Summary,
			HasBody: op.Body != nil,
		})
	}
	return out, nil
}

// BuildSchema maps the request body of operationID to a form schema.
func BuildSchema(ctx context.Context, data []byte, operationID string, opts ...Option) (schema.Schema, error) {
	ops, err := parser.Parse(ctx, data, parserOptions(opts))
	if err != nil {
		return schema.Schema{}, err
	}
	op, ok := ops[operationID]
	if !ok {
		return schema.Schema{}, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}
	if op.Body == nil || op.Body.Value == nil {
		return schema.Schema{}, fmt.Errorf("openapi: operation %s has no request body", operationID)
	}
	body := op.Body.Value
	if t := parser.FirstType(body.Type); t != "" && t != openapi3.TypeObject {
		return schema.Schema{}, fmt.Errorf("openapi: operation %s request body is %s, not object", operationID, t)
	}

	var opExt operationExtension
	if err := decodeExtension(op.Extensions, &opExt); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: operation %s: %w", operationID, err)
	}

	out := schema.Schema{
		Title:           firstNonEmpty(op.Summary, body.Title),
		Description:     firstNonEmpty(op.Description, body.Description),
		ButtonText:      opExt.ButtonText,
		Fields:          []schema.Field{},
		ValidationRules: opExt.ValidationRules,
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	type ordered struct {
		field schema.Field
		order int
	}
	var fields []ordered
	for name, ref := range body.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		field, order, err := buildField(name, ref.Value, required[name])
		if err != nil {
			return schema.Schema{}, fmt.Errorf("openapi: property %s: %w", name, err)
		}
		fields = append(fields, ordered{field: field, order: order})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].order != fields[j].order {
			return fields[i].order < fields[j].order
		}
		return fields[i].field.ID < fields[j].field.ID
	})
	for _, f := range fields {
		out.Fields = append(out.Fields, f.field)
	}
	return out, nil
}

type operationExtension struct {
	ButtonText      string                  `json:"buttonText"`
	ValidationRules []schema.ValidationRule `json:"validationRules"`
}

type fieldExtension struct {
	Type           schema.FieldType       `json:"type"`
	Label          string                 `json:"label"`
	Placeholder    string                 `json:"placeholder"`
	HelpText       string                 `json:"helpText"`
	CheckboxLabel  string                 `json:"checkboxLabel"`
	Order          *int                   `json:"order"`
	Rows           int                    `json:"rows"`
	DependsOn      *schema.DependsOn      `json:"dependsOn"`
	DynamicOptions *schema.DynamicOptions `json:"dynamicOptions"`
	VisibleWhen    string                 `json:"visibleWhen"`
	ResetFields    []string               `json:"resetFields"`
	ValidateCode   bool                   `json:"validateCode"`
}

// unordered sorts after every explicitly ordered field.
const unordered = int(^uint(0) >> 1)

func buildField(name string, prop *openapi3.Schema, required bool) (schema.Field, int, error) {
	var ext fieldExtension
	if err := decodeExtension(prop.Extensions, &ext); err != nil {
		return schema.Field{}, 0, err
	}

	field := schema.Field{
		ID:            name,
		Type:          fieldType(prop),
		Label:         firstNonEmpty(ext.Label, prop.Title, humanize(name)),
		Placeholder:   ext.Placeholder,
		HelpText:      firstNonEmpty(ext.HelpText, prop.Description),
		CheckboxLabel: ext.CheckboxLabel,
		Required:      required,
		Rows:          ext.Rows,
		DependsOn:     ext.DependsOn,
		Dynamic:       ext.DynamicOptions,
		VisibleWhen:   ext.VisibleWhen,
		ResetFields:   ext.ResetFields,
		ValidateCode:  ext.ValidateCode,
		Disabled:      prop.ReadOnly,
	}
	if ext.Type != "" {
		field.Type = ext.Type
	}
	if field.Type == schema.FieldTypeEmail {
		field.Validation = schema.ValidationEmail
	}
	if len(prop.Enum) > 0 {
		field.Type = schema.FieldTypeSelect
		field.Options = enumOptions(prop.Enum)
	}
	if field.Type == schema.FieldTypeSelect && field.Dynamic == nil && field.Options == nil {
		field.Options = []schema.Option{}
	}
	if field.Type == schema.FieldTypeNumber {
		field.Min = copyFloat(prop.Min)
		field.Max = copyFloat(prop.Max)
		if prop.MultipleOf != nil {
			field.Step = copyFloat(prop.MultipleOf)
		}
	}

	order := unordered
	if ext.Order != nil {
		order = *ext.Order
	}
	return field, order, nil
}

func fieldType(prop *openapi3.Schema) schema.FieldType {
	switch parser.FirstType(prop.Type) {
	case openapi3.TypeBoolean:
		return schema.FieldTypeCheckbox
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return schema.FieldTypeNumber
	}
	switch strings.ToLower(prop.Format) {
	case "email":
		return schema.FieldTypeEmail
	case "password":
		return schema.FieldTypePassword
	case "textarea":
		return schema.FieldTypeTextarea
	}
	if prop.MaxLength != nil && *prop.MaxLength > textareaThreshold {
		return schema.FieldTypeTextarea
	}
	return schema.FieldTypeText
}

func enumOptions(values []any) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		value := fmt.Sprint(v)
		if f, ok := v.(float64); ok {
			value = strconv.FormatFloat(f, 'f', -1, 64)
		}
		out = append(out, schema.Option{Value: value, Label: humanize(value)})
	}
	return out
}

func decodeExtension(extensions map[string]any, target any) error {
	raw, ok := extensions[ExtensionKey]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ExtensionKey, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode %s: %w", ExtensionKey, err)
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// humanize turns "pipelineType" or "pipeline_type" into "Pipeline type".
func humanize(name string) string {
	var b strings.Builder
	prevLower := false
	for i, r := range name {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parserOptions(opts []Option) parser.Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return parser.Options{
		ResolveReferences:     o.ResolveReferences,
		AllowPartialDocuments: o.AllowPartialDocuments,
	}
}
