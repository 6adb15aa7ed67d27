package openapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/schema"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "pipelines.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestBuildSchemaMapsProperties(t *testing.T) {
	t.Parallel()

	s, err := BuildSchema(context.Background(), loadFixture(t), "createRun")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.Title != "Pipeline Runner" || s.ButtonText != "Run Pipeline" {
		t.Fatalf("unexpected header %q %q", s.Title, s.ButtonText)
	}

	var ids []string
	types := make(map[string]schema.FieldType)
	for _, f := range s.Fields {
		ids = append(ids, f.ID)
		types[f.ID] = f.Type
	}
	wantIDs := []string{"pipelineType", "inlineCode", "dryRun", "notes", "notify", "retries", "tag", "token"}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	wantTypes := map[string]schema.FieldType{
		"pipelineType": schema.FieldTypeSelect,
		"inlineCode":   schema.FieldTypeCodeEditor,
		"dryRun":       schema.FieldTypeCheckbox,
		"notes":        schema.FieldTypeTextarea,
		"notify":       schema.FieldTypeEmail,
		"retries":      schema.FieldTypeNumber,
		"tag":          schema.FieldTypeText,
		"token":        schema.FieldTypePassword,
	}
	if diff := cmp.Diff(wantTypes, types); diff != "" {
		t.Fatalf("field types mismatch (-want +got):\n%s", diff)
	}

	notify, _ := s.Field("notify")
	if !notify.Required || notify.Validation != schema.ValidationEmail || notify.Label != "Notify" {
		t.Fatalf("unexpected notify field %+v", notify)
	}

	pipelineType, _ := s.Field("pipelineType")
	wantOptions := []schema.Option{
		{Value: "published", Label: "Published"},
		{Value: "draft", Label: "Draft"},
		{Value: "inline", Label: "Inline"},
	}
	if diff := cmp.Diff(wantOptions, pipelineType.Options); diff != "" {
		t.Fatalf("enum options mismatch (-want +got):\n%s", diff)
	}
	if pipelineType.Label != "Select Pipeline Type" {
		t.Fatalf("extension label not applied: %q", pipelineType.Label)
	}

	inlineCode, _ := s.Field("inlineCode")
	wantDep := &schema.DependsOn{Condition: schema.Condition{Field: "pipelineType", Values: []string{"inline"}}}
	if diff := cmp.Diff(wantDep, inlineCode.DependsOn); diff != "" {
		t.Fatalf("dependsOn mismatch (-want +got):\n%s", diff)
	}
	if !inlineCode.ValidateCode || inlineCode.HelpText != "Python source" {
		t.Fatalf("unexpected inlineCode field %+v", inlineCode)
	}

	retries, _ := s.Field("retries")
	if retries.Min == nil || *retries.Min != 0 || retries.Max == nil || *retries.Max != 5 {
		t.Fatalf("expected numeric bounds, got %+v", retries)
	}

	wantRules := []schema.ValidationRule{
		{When: &schema.When{Field: "pipelineType", Values: []string{"inline"}}, Require: []string{"inlineCode"}},
	}
	if diff := cmp.Diff(wantRules, s.ValidationRules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}

	if issues := schema.Lint(s); len(issues) != 0 {
		t.Fatalf("built schema should lint clean, got %v", issues)
	}
}

func TestBuildSchemaErrors(t *testing.T) {
	t.Parallel()

	data := loadFixture(t)
	if _, err := BuildSchema(context.Background(), data, "missing"); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := BuildSchema(context.Background(), data, "getRun"); err == nil {
		t.Fatalf("expected error for operation without body")
	}
}

func TestOperationsListing(t *testing.T) {
	t.Parallel()

	ops, err := Operations(context.Background(), loadFixture(t))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	want := []OperationInfo{
		{ID: "createRun", Method: "POST", Path: "/runs", Summary: "Pipeline Runner", HasBody: true},
		{ID: "getRun", Method: "GET", Path: "/runs/{id}"},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"pipelineType": "Pipeline type",
		"dry_run":      "Dry run",
		"notify":       "Notify",
	}
	for in, want := range cases {
		if got := humanize(in); got != want {
			t.Fatalf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
