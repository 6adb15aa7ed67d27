package testsupport

import (
	"bytes"
	"embed"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/schema"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

// PipelineRunnerJSON returns the raw pipeline runner schema document.
func PipelineRunnerJSON() []byte {
	data, err := fixturesFS.ReadFile("fixtures/pipeline_runner.json")
	if err != nil {
		panic(fmt.Sprintf("testsupport: embedded fixture missing: %v", err))
	}
	return data
}

// PipelineRunner decodes the pipeline runner schema: a type selector, a
// pipeline picker shown for published/draft, a version select whose options
// follow the picked pipeline, and an inline code editor shown for inline.
func PipelineRunner(t *testing.T) schema.Schema {
	t.Helper()

	s, err := schema.Decode(PipelineRunnerJSON())
	if err != nil {
		t.Fatalf("decode pipeline runner: %v", err)
	}
	return s
}

// CompareJSON decodes both documents and returns a cmp diff, so key order
// and whitespace do not matter.
func CompareJSON(t *testing.T, want, got []byte) string {
	t.Helper()

	var w, g any
	if err := json.Unmarshal(bytes.TrimSpace(want), &w); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(got), &g); err != nil {
		t.Fatalf("decode got: %v", err)
	}
	return cmp.Diff(w, g)
}
