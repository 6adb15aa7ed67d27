package dynform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform"
	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/testsupport"
)

func TestLoadSchemaFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, testsupport.PipelineRunnerJSON(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := dynform.LoadSchema(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := testsupport.PipelineRunner(t)
	if diff := cmp.Diff(want.FieldIDs(), s.FieldIDs()); diff != "" {
		t.Fatalf("field ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchemaRejectsBadSources(t *testing.T) {
	t.Parallel()

	if _, err := dynform.LoadSchema(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty source")
	}
	if _, err := dynform.LoadSchema(context.Background(), "https://example.com/form.json"); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}
}

func TestLoaderReadsParamSource(t *testing.T) {
	t.Parallel()

	param, err := schema.EncodeParam(testsupport.PipelineRunner(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc, err := dynform.NewLoader().Load(context.Background(), schema.SourceFromParam(param))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Title != "Pipeline Runner" {
		t.Fatalf("unexpected title %q", s.Title)
	}
}

func TestFacadeSession(t *testing.T) {
	t.Parallel()

	s := testsupport.PipelineRunner(t)
	result := dynform.Evaluate(s, dynform.Values{"pipelineType": "inline"})
	if diff := cmp.Diff(engine.Visible{"pipelineType", "inlineCode"}, result.VisibleFieldIDs); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}

	session := dynform.NewSession(s, form.WithEngine(dynform.NewEngine()))
	state := session.Change("pipelineType", "draft")
	if diff := cmp.Diff(engine.Visible{"pipelineType", "pipeline"}, state.VisibleFieldIDs); diff != "" {
		t.Fatalf("session visible mismatch (-want +got):\n%s", diff)
	}
}
