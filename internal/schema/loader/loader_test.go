package loader

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/testsupport"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, testsupport.PipelineRunnerJSON(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if s.Title != "Pipeline Runner" {
		t.Fatalf("unexpected title %q", s.Title)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"forms/pipeline.json": {Data: testsupport.PipelineRunnerJSON()},
	}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("/forms/../forms/pipeline.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "/forms/../forms/pipeline.json" {
		t.Fatalf("location should be preserved, got %q", doc.Location())
	}

	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFS("forms/pipeline.json")); err == nil {
		t.Fatalf("expected error without file system")
	}
}

func TestLoadURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept"), "application/json") {
			t.Errorf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(testsupport.PipelineRunnerJSON())
	}))
	defer srv.Close()

	disabled := New(schema.NewLoaderOptions())
	if _, err := disabled.Load(context.Background(), schema.SourceFromURL(srv.URL+"/form")); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(srv.Client())))
	doc, err := l.Load(context.Background(), schema.SourceFromURL(srv.URL+"/form"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := doc.Schema(); err != nil {
		t.Fatalf("schema: %v", err)
	}

	if _, err := l.Load(context.Background(), schema.SourceFromURL(srv.URL+"/missing")); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestLoadParam(t *testing.T) {
	t.Parallel()

	encoded := base64.StdEncoding.EncodeToString(testsupport.PipelineRunnerJSON())
	doc, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromParam(encoded))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(s.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(s.Fields))
	}
}

func TestLoadNilSource(t *testing.T) {
	t.Parallel()

	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}
