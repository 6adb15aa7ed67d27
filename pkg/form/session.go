// Package form holds per-form session state: the current values, the derived
// evaluation, and the submitting flag.
package form

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/submit"
)

// ErrSubmissionInFlight is returned by Submit while another submission on the
// same session has not finished.
var ErrSubmissionInFlight = errors.New("form: submission already in flight")

// Session owns the value store for one form. All methods are safe for
// concurrent use.
type Session struct {
	schema    schema.Schema
	engine    *engine.Engine
	submitter submit.Submitter
	onChange  func(schema.Values)
	logger    zerolog.Logger
	initial   schema.Values

	mu         sync.Mutex
	values     schema.Values
	result     engine.EvaluationResult
	submitting bool
	submitted  schema.Values
	lastErr    error
}

// Option configures a Session.
type Option func(*Session)

// WithInitialValues seeds the value store. Reset returns to these values.
func WithInitialValues(values schema.Values) Option {
	return func(s *Session) {
		s.initial = values.Clone()
	}
}

// WithEngine replaces the default engine.
func WithEngine(e *engine.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithSubmitter sets where Submit sends the payload.
func WithSubmitter(submitter submit.Submitter) Option {
	return func(s *Session) {
		s.submitter = submitter
	}
}

// WithOnChange registers a hook called after every Change. It receives the
// previous values with the changed field set; the field's resetFields are
// not yet cleared in that map. State returned by Change does include the
// resets. The hook runs outside the session lock.
func WithOnChange(fn func(schema.Values)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession starts a session for s.
func NewSession(s schema.Schema, opts ...Option) *Session {
	session := &Session{
		schema: s,
		engine: engine.Default(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(session)
		}
	}
	session.values = session.initial.Clone()
	session.result = session.engine.Evaluate(session.schema, session.values)
	return session
}

// Schema returns the schema the session evaluates.
func (s *Session) Schema() schema.Schema {
	return s.schema
}

// State is a point-in-time snapshot of a session.
type State struct {
	Values          schema.Values              `json:"values"`
	VisibleFieldIDs engine.Visible             `json:"visibleFieldIds"`
	Options         map[string][]schema.Option `json:"options"`
	Errors          engine.Errors              `json:"errors"`
	IsValid         bool                       `json:"isValid"`
	FormValid       bool                       `json:"formValid"`
	Submitting      bool                       `json:"submitting"`
	CanSubmit       bool                       `json:"canSubmit"`
	Submitted       schema.Values              `json:"submitted,omitempty"`
	LastError       string                     `json:"lastError,omitempty"`
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	errs := make(engine.Errors, len(s.result.Errors))
	for id, msg := range s.result.Errors {
		errs[id] = msg
	}
	visible := append(engine.Visible(nil), s.result.VisibleFieldIDs...)

	state := State{
		Values:          s.values.Clone(),
		VisibleFieldIDs: visible,
		Options:         s.engine.OptionsFor(s.schema, s.values, visible),
		Errors:          errs,
		IsValid:         s.result.IsValid,
		FormValid:       s.result.FormValid,
		Submitting:      s.submitting,
		CanSubmit:       s.result.FormValid && !s.submitting,
	}
	if s.submitted != nil {
		state.Submitted = s.submitted.Clone()
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// Change sets fieldID to value, clears the field's resetFields in the same
// step, and re-evaluates. Errors are recomputed from scratch, never patched.
func (s *Session) Change(fieldID string, value any) State {
	s.mu.Lock()
	field, _ := s.schema.Field(fieldID)
	var changed schema.Values
	hook := s.onChange
	if hook != nil {
		changed = engine.ApplyChange(s.values, fieldID, value, nil)
	}
	s.values = engine.ApplyChange(s.values, fieldID, value, field)
	s.result = s.engine.Evaluate(s.schema, s.values)
	state := s.snapshot()
	s.mu.Unlock()

	if hook != nil {
		hook(changed)
	}
	return state
}

// Submit validates and, when there are no errors, hands the visible-only
// payload to the submitter. Submitter failures are logged and kept as the
// session's last error; they are reported in the outcome, not returned. The
// returned error is ErrSubmissionInFlight or nil.
func (s *Session) Submit(ctx context.Context) (engine.Outcome, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		s.engine.Metrics().Submission(metrics.OutcomeRejected)
		return engine.Outcome{}, ErrSubmissionInFlight
	}

	s.result = s.engine.Evaluate(s.schema, s.values)
	if len(s.result.Errors) > 0 {
		errs := s.snapshot().Errors
		s.mu.Unlock()
		s.engine.Metrics().Submission(metrics.OutcomeInvalid)
		s.logger.Debug().Int("errors", len(errs)).Msg("submission blocked by validation errors")
		return engine.Outcome{Errors: errs}, nil
	}

	values := s.values.Clone()
	visible := append(engine.Visible(nil), s.result.VisibleFieldIDs...)
	s.submitting = true
	s.mu.Unlock()

	outcome := s.engine.Submit(ctx, values, visible, s.submitter)

	s.mu.Lock()
	s.submitting = false
	if outcome.Err != nil {
		s.lastErr = outcome.Err
		s.logger.Warn().Err(outcome.Err).Msg("form submission failed")
	} else {
		s.lastErr = nil
		s.submitted = outcome.Payload.Clone()
	}
	s.mu.Unlock()

	return outcome, nil
}

// Reset restores the initial values and clears the submitted payload and
// last error.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = s.initial.Clone()
	s.submitted = nil
	s.lastErr = nil
	s.result = s.engine.Evaluate(s.schema, s.values)
	return s.snapshot()
}
