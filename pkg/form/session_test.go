package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/submit"
	"github.com/goliatone/go-dynform/pkg/testsupport"
)

func TestSessionChangeResetsAndReevaluates(t *testing.T) {
	t.Parallel()

	var hooked []schema.Values
	session := NewSession(testsupport.PipelineRunner(t), WithOnChange(func(values schema.Values) {
		hooked = append(hooked, values)
	}))

	session.Change("pipelineType", "published")
	session.Change("pipeline", "pipe2")
	state := session.Change("version", "v2.0.1")

	if diff := cmp.Diff(engine.Visible{"pipelineType", "pipeline", "version"}, state.VisibleFieldIDs); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	if !state.FormValid || !state.CanSubmit {
		t.Fatalf("expected ready form, got %+v", state)
	}
	if got := len(state.Options["version"]); got != 3 {
		t.Fatalf("expected pipe2 versions, got %v", state.Options["version"])
	}

	state = session.Change("pipelineType", "inline")
	want := schema.Values{"pipelineType": "inline", "pipeline": "", "version": "", "inlineCode": ""}
	if diff := cmp.Diff(want, state.Values); diff != "" {
		t.Fatalf("values after reset mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(engine.Errors{"inlineCode": "Python Code is required"}, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if state.CanSubmit {
		t.Fatalf("expected submission disabled")
	}

	if len(hooked) != 4 {
		t.Fatalf("expected 4 hook calls, got %d", len(hooked))
	}
	wantHooked := schema.Values{"pipelineType": "inline", "pipeline": "pipe2", "version": "v2.0.1"}
	if diff := cmp.Diff(wantHooked, hooked[3]); diff != "" {
		t.Fatalf("hook must see the change before resets (-want +got):\n%s", diff)
	}
}

func TestSessionSubmitSendsVisiblePayload(t *testing.T) {
	t.Parallel()

	var received schema.Values
	session := NewSession(testsupport.PipelineRunner(t),
		WithInitialValues(schema.Values{"pipelineType": "inline", "inlineCode": "def run(): pass", "pipeline": "stale"}),
		WithSubmitter(submit.Func(func(_ context.Context, payload schema.Values) error {
			received = payload
			return nil
		})),
	)

	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := schema.Values{"pipelineType": "inline", "inlineCode": "def run(): pass"}
	if !outcome.Submitted {
		t.Fatalf("expected submitted outcome, got %+v", outcome)
	}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, session.State().Submitted); diff != "" {
		t.Fatalf("submitted snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionSubmitBlockedByErrors(t *testing.T) {
	t.Parallel()

	collector := metrics.New()
	called := false
	session := NewSession(testsupport.PipelineRunner(t),
		WithEngine(engine.New(engine.WithMetrics(collector))),
		WithInitialValues(schema.Values{"pipelineType": "inline", "inlineCode": "print(1)"}),
		WithSubmitter(submit.Func(func(context.Context, schema.Values) error {
			called = true
			return nil
		})),
	)

	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if called || outcome.Submitted {
		t.Fatalf("submitter must not run with errors")
	}
	if diff := cmp.Diff(engine.Errors{"inlineCode": engine.MsgMissingFunction}, outcome.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if n := testutil.ToFloat64(collector.Submissions.WithLabelValues(metrics.OutcomeInvalid)); n != 1 {
		t.Fatalf("expected invalid outcome recorded, got %v", n)
	}
}

func TestSessionSubmitFailureRetainsLastError(t *testing.T) {
	t.Parallel()

	fail := true
	session := NewSession(testsupport.PipelineRunner(t),
		WithInitialValues(schema.Values{"pipelineType": "draft", "pipeline": "pipe1", "version": "v1.0.0"}),
		WithSubmitter(submit.Func(func(context.Context, schema.Values) error {
			if fail {
				return errors.New("backend unavailable")
			}
			return nil
		})),
	)

	outcome, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if outcome.Submitted || outcome.Err == nil {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	state := session.State()
	if state.Submitting {
		t.Fatalf("submitting flag must be cleared after failure")
	}
	if state.LastError != "backend unavailable" {
		t.Fatalf("unexpected last error %q", state.LastError)
	}
	if !state.CanSubmit {
		t.Fatalf("user must be able to retry")
	}

	fail = false
	if outcome, _ := session.Submit(context.Background()); !outcome.Submitted {
		t.Fatalf("expected retry to succeed, got %+v", outcome)
	}
	if session.State().LastError != "" {
		t.Fatalf("successful retry must clear last error")
	}
}

func TestSessionRejectsConcurrentSubmit(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	session := NewSession(testsupport.PipelineRunner(t),
		WithInitialValues(schema.Values{"pipelineType": "inline", "inlineCode": "def f(): pass"}),
		WithSubmitter(submit.Func(func(ctx context.Context, _ schema.Values) error {
			close(entered)
			<-release
			return nil
		})),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := session.Submit(context.Background()); err != nil {
			t.Errorf("first submit: %v", err)
		}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("submitter never called")
	}

	state := session.State()
	if !state.Submitting || state.CanSubmit {
		t.Fatalf("expected submitting state, got %+v", state)
	}
	if _, err := session.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(release)
	wg.Wait()
	if session.State().Submitting {
		t.Fatalf("submitting flag must clear")
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	initial := schema.Values{"pipelineType": "inline"}
	session := NewSession(testsupport.PipelineRunner(t),
		WithInitialValues(initial),
		WithSubmitter(submit.Func(func(context.Context, schema.Values) error {
			return errors.New("nope")
		})),
	)
	session.Change("inlineCode", "def f(): pass")
	session.Submit(context.Background())

	state := session.Reset()
	if diff := cmp.Diff(initial, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if state.LastError != "" || state.Submitted != nil {
		t.Fatalf("reset must clear submission state, got %+v", state)
	}
	if diff := cmp.Diff(engine.Errors{"inlineCode": "Python Code is required"}, state.Errors); diff != "" {
		t.Fatalf("errors must be recomputed (-want +got):\n%s", diff)
	}

	initial["pipelineType"] = "mutated"
	if session.Reset().Values["pipelineType"] != "inline" {
		t.Fatalf("session must own a copy of initial values")
	}
}

func TestSessionStateIsSnapshot(t *testing.T) {
	t.Parallel()

	session := NewSession(testsupport.PipelineRunner(t))
	state := session.Change("pipelineType", "draft")
	state.Values["pipelineType"] = "inline"
	state.Errors["x"] = "y"

	again := session.State()
	if again.Values["pipelineType"] != "draft" {
		t.Fatalf("snapshot values leaked into session")
	}
	if _, ok := again.Errors["x"]; ok {
		t.Fatalf("snapshot errors leaked into session")
	}
}
