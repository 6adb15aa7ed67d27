package submit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/store"
)

func TestHTTPPostsJSON(t *testing.T) {
	t.Parallel()

	var (
		gotBody   map[string]any
		gotHeader string
		gotType   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotHeader = r.Header.Get("X-Token")
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sub := NewHTTP(srv.URL, WithHeader("X-Token", "abc"))
	if err := sub.Submit(context.Background(), schema.Values{"pipeline": "etl"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"pipeline": "etl"}, gotBody); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if gotHeader != "abc" {
		t.Fatalf("expected custom header, got %q", gotHeader)
	}
	if gotType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotType)
	}
}

func TestHTTPRejectsNonSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL).Submit(context.Background(), schema.Values{})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestChainStopsAtFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls []string
	chain := Chain{
		Func(func(context.Context, schema.Values) error {
			calls = append(calls, "first")
			return nil
		}),
		nil,
		Func(func(context.Context, schema.Values) error {
			calls = append(calls, "second")
			return boom
		}),
		Func(func(context.Context, schema.Values) error {
			calls = append(calls, "third")
			return nil
		}),
	}

	if err := chain.Submit(context.Background(), schema.Values{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestChainCopiesPayloadPerSubmitter(t *testing.T) {
	t.Parallel()

	var seen []any
	chain := Chain{
		Func(func(_ context.Context, p schema.Values) error {
			p["a"] = "mutated"
			return nil
		}),
		Func(func(_ context.Context, p schema.Values) error {
			seen = append(seen, p["a"])
			return nil
		}),
	}
	if err := chain.Submit(context.Background(), schema.Values{"a": "1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]any{"1"}, seen); diff != "" {
		t.Fatalf("payload leaked between submitters (-want +got):\n%s", diff)
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	if Join(nil, nil) != nil {
		t.Fatalf("expected nil for empty join")
	}
	single := NewLog(zerolog.Nop())
	if got := Join(nil, single); got != Submitter(single) {
		t.Fatalf("expected single submitter to be returned unwrapped")
	}
	if _, ok := Join(single, single).(Chain); !ok {
		t.Fatalf("expected chain for multiple submitters")
	}
}

func TestLogWritesPayload(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sub := NewLog(zerolog.New(&buf))
	if err := sub.Submit(context.Background(), schema.Values{"b": "2", "a": "1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"fields":["a","b"]`) {
		t.Fatalf("expected sorted field list, got %s", out)
	}
	if !strings.Contains(out, "form payload submitted") {
		t.Fatalf("expected message, got %s", out)
	}
}

func TestStoreSavesSubmission(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	sub := NewStore(mem, "Pipeline Runner")
	if err := sub.Submit(context.Background(), schema.Values{"pipeline": "etl"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	list, err := mem.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(list))
	}
	if list[0].SchemaTitle != "Pipeline Runner" {
		t.Fatalf("unexpected title %q", list[0].SchemaTitle)
	}
	if diff := cmp.Diff(schema.Values{"pipeline": "etl"}, list[0].Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}
