package schemawatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
)

func writeSchema(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const (
	firstSchema  = `{"title":"First","fields":[{"id":"name","type":"text"}]}`
	secondSchema = `{"title":"Second","fields":[{"id":"name","type":"text"},{"id":"email","type":"email"}]}`
)

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "form.json")
	writeSchema(t, path, firstSchema)

	collector := metrics.New()
	w, err := New(path, WithMetrics(collector))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if w.Schema().Title != "First" {
		t.Fatalf("unexpected initial title %q", w.Schema().Title)
	}

	var seen []string
	w.OnChange(func(s schema.Schema) { seen = append(seen, s.Title) })

	writeSchema(t, path, secondSchema)
	if err := w.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(w.Schema().Fields); got != 2 {
		t.Fatalf("expected 2 fields after reload, got %d", got)
	}

	writeSchema(t, path, "{not json")
	if err := w.Reload(); err == nil {
		t.Fatalf("expected decode failure")
	}
	if w.Schema().Title != "Second" {
		t.Fatalf("failed reload replaced schema: %q", w.Schema().Title)
	}

	if len(seen) != 1 || seen[0] != "Second" {
		t.Fatalf("unexpected change notifications %v", seen)
	}
	if got := testutil.ToFloat64(collector.SchemaReloads.WithLabelValues(metrics.ReloadSucceeded)); got != 1 {
		t.Fatalf("expected 1 successful reload, got %v", got)
	}
	if got := testutil.ToFloat64(collector.SchemaReloads.WithLabelValues(metrics.ReloadFailed)); got != 1 {
		t.Fatalf("expected 1 failed reload, got %v", got)
	}
}

func TestNewFailsOnBadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := New(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected missing file error")
	}

	path := filepath.Join(dir, "bad.yaml")
	writeSchema(t, path, "fields: [")
	if _, err := New(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestStartFollowsFileChanges(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "form.json")
	writeSchema(t, path, firstSchema)

	w, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	changed := make(chan string, 8)
	w.OnChange(func(s schema.Schema) { changed <- s.Title })

	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err == nil {
		t.Fatalf("expected second start to fail")
	}

	writeSchema(t, path, secondSchema)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case title := <-changed:
			if title == "Second" {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reload, current %q", w.Schema().Title)
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "form.json")
	writeSchema(t, path, firstSchema)
	w, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	w.Stop()
}
