// Package submit contains destinations for visible-only form payloads.
package submit

import (
	"context"
	"errors"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// Submitter receives a payload that contains visible field values only.
type Submitter interface {
	Submit(ctx context.Context, payload schema.Values) error
}

// Func adapts a function into a Submitter.
type Func func(ctx context.Context, payload schema.Values) error

// Submit implements Submitter.
func (fn Func) Submit(ctx context.Context, payload schema.Values) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, payload)
}

// Chain forwards the payload to each submitter in order and stops at the
// first error. Each submitter receives its own copy.
type Chain []Submitter

// Submit implements Submitter.
func (c Chain) Submit(ctx context.Context, payload schema.Values) error {
	for _, s := range c {
		if s == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Submit(ctx, payload.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Join builds a Chain, skipping nil entries. A single remaining submitter is
// returned unwrapped.
func Join(submitters ...Submitter) Submitter {
	var out Chain
	for _, s := range submitters {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

// ErrRejected wraps non-success responses from remote destinations.
var ErrRejected = errors.New("submit: destination rejected payload")
