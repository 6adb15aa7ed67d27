package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// Renderer drives a form.Session from the terminal. Fields are prompted in
// schema order while they are visible; visibility is re-resolved after every
// answer so revealed fields are asked and hidden ones skipped.
type Renderer struct {
	driver        PromptDriver
	out           io.Writer
	outputFormat  OutputFormat
	theme         Theme
	confirmSubmit bool
	logger        zerolog.Logger
}

// Result is what a completed fill produced.
type Result struct {
	Outcome engine.Outcome
	// Output is the submitted payload serialized in the configured format.
	Output []byte
}

// New constructs a TUI renderer with defaults (survey driver, JSON output,
// confirmation before submitting).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat:  OutputFormatJSON,
		confirmSubmit: true,
		logger:        zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used for Result.Output.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Fill prompts for every visible field, then confirms and submits.
func (r *Renderer) Fill(ctx context.Context, session *form.Session) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("tui: context is required")
	}
	if session == nil {
		return Result{}, errors.New("tui: session is required")
	}
	if r.driver == nil {
		return Result{}, errors.New("tui: prompt driver is nil")
	}

	s := session.Schema()
	if s.Title != "" {
		header := s.Title
		if s.Description != "" {
			header += "\n" + s.Description
		}
		if err := r.info(ctx, header); err != nil {
			return Result{}, err
		}
	}

	answered := make(map[string]bool, len(s.Fields))
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		state := session.State()
		field, ok := nextField(s, state.VisibleFieldIDs, answered)
		if !ok {
			break
		}
		if field.Disabled {
			answered[field.ID] = true
			continue
		}

		if field.Type == schema.FieldTypeSelect && len(state.Options[field.ID]) == 0 {
			if err := r.info(ctx, fmt.Sprintf("%s has no options available", field.DisplayLabel())); err != nil {
				return Result{}, err
			}
			state = session.Change(field.ID, "")
			if _, bad := state.Errors[field.ID]; bad {
				return Result{}, fmt.Errorf("tui: field %s: %w", field.ID, ErrNoOptions)
			}
			answered[field.ID] = true
			continue
		}

		value, err := r.promptField(ctx, *field, state)
		if err != nil {
			return Result{}, err
		}
		state = session.Change(field.ID, value)
		if msg, bad := state.Errors[field.ID]; bad {
			r.logger.Debug().Str("field", field.ID).Str("error", msg).Msg("answer rejected")
			if err := r.errorf(ctx, "%s", msg); err != nil {
				return Result{}, err
			}
			continue
		}
		answered[field.ID] = true
	}

	state := session.State()
	if !state.FormValid {
		return Result{}, ErrNotReady
	}

	if r.confirmSubmit {
		message := s.ButtonText
		if message == "" {
			message = "Submit"
		}
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message + "?", Default: true})
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrAborted
		}
	}

	outcome, err := session.Submit(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(outcome.Errors) > 0 {
		for _, id := range sortedKeys(outcome.Errors) {
			_ = r.errorf(ctx, "%s: %s", id, outcome.Errors[id])
		}
		return Result{Outcome: outcome}, fmt.Errorf("tui: submission blocked by %d error(s)", len(outcome.Errors))
	}

	output, err := r.serialize(outcome.Payload)
	if err != nil {
		return Result{Outcome: outcome}, err
	}
	result := Result{Outcome: outcome, Output: output}

	if outcome.Err != nil {
		_ = r.errorf(ctx, "Submission failed: %v", outcome.Err)
		return result, fmt.Errorf("tui: submit: %w", outcome.Err)
	}
	if err := r.info(ctx, "Form submitted successfully!"); err != nil {
		return result, err
	}
	return result, nil
}

// nextField returns the first visible field, in schema order, that has not
// been answered yet.
func nextField(s schema.Schema, visible engine.Visible, answered map[string]bool) (*schema.Field, bool) {
	for i := range s.Fields {
		field := &s.Fields[i]
		if answered[field.ID] || !visible.Has(field.ID) {
			continue
		}
		return field, true
	}
	return nil, false
}

func (r *Renderer) promptField(ctx context.Context, field schema.Field, state form.State) (any, error) {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}
	current := state.Values[field.ID]

	switch field.Type {
	case schema.FieldTypeSelect:
		return r.promptSelect(ctx, field, label, state.Options[field.ID], current)
	case schema.FieldTypeCheckbox:
		message := label
		if field.CheckboxLabel != "" {
			message = field.CheckboxLabel
		}
		def, _ := current.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.HelpText})
	case schema.FieldTypeNumber:
		return r.promptNumber(ctx, field, label, current)
	case schema.FieldTypePassword:
		return r.driver.Password(ctx, InputConfig{Message: label, Help: field.HelpText, Placeholder: field.Placeholder})
	case schema.FieldTypeTextarea, schema.FieldTypeCodeEditor:
		help := field.HelpText
		if help == "" {
			help = field.Placeholder
		}
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: engine.Canonical(current), Help: help})
	default:
		return r.driver.Input(ctx, InputConfig{
			Message:     label,
			Default:     engine.Canonical(current),
			Help:        field.HelpText,
			Placeholder: field.Placeholder,
		})
	}
}

// promptSelect expects a non-empty option list; Fill handles selects with
// nothing to choose from.
func (r *Renderer) promptSelect(ctx context.Context, field schema.Field, label string, options []schema.Option, current any) (any, error) {
	labels := make([]string, len(options))
	defaultIdx := -1
	for i, option := range options {
		labels[i] = option.Label
		if labels[i] == "" {
			labels[i] = option.Value
		}
		if !engine.IsEmpty(current) && option.Value == engine.Canonical(current) {
			defaultIdx = i
		}
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         field.HelpText,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			if err := r.errorf(ctx, "Invalid %s selection", field.ID); err != nil {
				return nil, err
			}
			continue
		}
		return options[idx].Value, nil
	}
}

func (r *Renderer) promptNumber(ctx context.Context, field schema.Field, label string, current any) (any, error) {
	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message:     label,
			Default:     engine.Canonical(current),
			Help:        field.HelpText,
			Placeholder: field.Placeholder,
		})
		if err != nil {
			return nil, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			return "", nil
		}

		value, err := strconv.ParseFloat(input, 64)
		if err != nil {
			if err := r.errorf(ctx, "%s must be a number", field.DisplayLabel()); err != nil {
				return nil, err
			}
			continue
		}
		if field.Min != nil && value < *field.Min {
			if err := r.errorf(ctx, "%s must be at least %s", field.DisplayLabel(), engine.Canonical(*field.Min)); err != nil {
				return nil, err
			}
			continue
		}
		if field.Max != nil && value > *field.Max {
			if err := r.errorf(ctx, "%s must be at most %s", field.DisplayLabel(), engine.Canonical(*field.Max)); err != nil {
				return nil, err
			}
			continue
		}
		return value, nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) errorf(ctx context.Context, format string, args ...any) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

func (r *Renderer) serialize(values schema.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		if values == nil {
			values = schema.Values{}
		}
		return json.Marshal(values)
	}
}

func flattenForm(values schema.Values) string {
	out := url.Values{}
	for key, value := range values {
		out.Set(key, engine.Canonical(value))
	}
	return out.Encode()
}

func prettyPrint(values schema.Values) string {
	var b strings.Builder
	for _, key := range sortedKeys(values) {
		fmt.Fprintf(&b, "%s=%s\n", key, engine.Canonical(values[key]))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
