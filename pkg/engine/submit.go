package engine

import (
	"context"
	"time"

	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/submit"
)

// Outcome reports a submission attempt.
type Outcome struct {
	Submitted bool          `json:"submitted"`
	Payload   schema.Values `json:"payload,omitempty"`
	Errors    Errors        `json:"errors,omitempty"`
	Err       error         `json:"-"`
}

// Payload restricts values to visible field ids. Visible fields that were
// never set are left out.
func Payload(values schema.Values, visible Visible) schema.Values {
	out := make(schema.Values, len(visible))
	for _, id := range visible {
		if value, ok := values[id]; ok {
			out[id] = value
		}
	}
	return out
}

// Submit hands the visible-only payload to the submitter. Errors and panics
// from the submitter are logged and reported in the outcome, never
// propagated. There is no timeout beyond what ctx carries.
func (e *Engine) Submit(ctx context.Context, values schema.Values, visible Visible, submitter submit.Submitter) Outcome {
	payload := Payload(values, visible)
	if submitter == nil {
		e.metrics.Submission(metrics.OutcomeSucceeded)
		return Outcome{Submitted: true, Payload: payload}
	}

	if e.metrics != nil {
		e.metrics.SubmissionsInFlight.Inc()
		defer e.metrics.SubmissionsInFlight.Dec()
	}

	start := time.Now()
	_, err := guard(func() (struct{}, error) {
		return struct{}{}, submitter.Submit(ctx, payload.Clone())
	})
	if err != nil {
		e.metrics.Submission(metrics.OutcomeFailed)
		e.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("form submission failed")
		return Outcome{Payload: payload, Err: err}
	}

	e.metrics.Submission(metrics.OutcomeSucceeded)
	e.logger.Debug().Int("fields", len(payload)).Dur("elapsed", time.Since(start)).Msg("form submitted")
	return Outcome{Submitted: true, Payload: payload}
}
