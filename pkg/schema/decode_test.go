package schema

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const contactJSON = `{
  "title": "Contact",
  "fields": [
    {"id": "kind", "type": "select", "options": [{"value": "a", "label": "A"}]},
    {"id": "email", "type": "email", "label": "Email", "required": true, "validation": "email",
     "dependsOn": {"field": "kind", "values": ["a"], "parentConditions": [{"field": "kind", "notEmpty": true}]}}
  ],
  "validationRules": [{"when": {"field": "kind", "values": ["a"]}, "require": ["email"]}]
}`

const contactYAML = `
title: Contact
fields:
  - id: kind
    type: select
    options:
      - value: a
        label: A
  - id: email
    type: email
    label: Email
    required: true
    validation: email
    dependsOn:
      field: kind
      values: [a]
      parentConditions:
        - field: kind
          notEmpty: true
validationRules:
  - when:
      field: kind
      values: [a]
    require: [email]
`

func TestDecodeJSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromJSON, err := Decode([]byte(contactJSON))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	fromYAML, err := Decode([]byte(contactYAML))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("json and yaml differ (-json +yaml):\n%s", diff)
	}

	email, ok := fromJSON.Field("email")
	if !ok {
		t.Fatalf("expected email field")
	}
	want := &DependsOn{
		Condition:        Condition{Field: "kind", Values: []string{"a"}},
		ParentConditions: []Condition{{Field: "kind", NotEmpty: true}},
	}
	if diff := cmp.Diff(want, email.DependsOn); diff != "" {
		t.Fatalf("dependsOn mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte("  ")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := Decode([]byte(`{"title": "no fields"}`)); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
	if _, err := Decode([]byte("fields: [unclosed")); err == nil {
		t.Fatalf("expected parse error")
	}

	s, err := Decode([]byte(`{"fields": []}`))
	if err != nil {
		t.Fatalf("empty fields list is a schema: %v", err)
	}
	if s.Fields == nil {
		t.Fatalf("expected non-nil empty fields")
	}
}

func TestDecodeParamEnvelopeAndBare(t *testing.T) {
	t.Parallel()

	want, err := Decode([]byte(contactJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	envelope := base64.StdEncoding.EncodeToString([]byte(`{"schema": ` + contactJSON + `, "other": 1}`))
	got, err := DecodeParam(envelope)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("envelope mismatch (-want +got):\n%s", diff)
	}

	bare := base64.RawURLEncoding.EncodeToString([]byte(contactJSON))
	got, err = DecodeParam(bare)
	if err != nil {
		t.Fatalf("decode bare: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("bare mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeParamFailures(t *testing.T) {
	t.Parallel()

	if _, err := DecodeParam(""); !errors.Is(err, ErrParamMissing) {
		t.Fatalf("expected ErrParamMissing, got %v", err)
	}
	if _, err := DecodeParam("%%%not-base64"); err == nil {
		t.Fatalf("expected base64 error")
	}
	noSchema := base64.StdEncoding.EncodeToString([]byte(`{"pipeline": "x"}`))
	if _, err := DecodeParam(noSchema); !errors.Is(err, ErrNoFields) {
		t.Fatalf("expected ErrNoFields, got %v", err)
	}
}

func TestDecodeQueryRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := Decode([]byte(contactJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded, err := EncodeParam(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeQuery(url.Values{ParamName: []string{encoded}})
	if err != nil {
		t.Fatalf("decode query: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := DecodeQuery(url.Values{}); !errors.Is(err, ErrParamMissing) {
		t.Fatalf("expected ErrParamMissing, got %v", err)
	}
}

func TestDecodeParamSanitizesDisplayStrings(t *testing.T) {
	t.Parallel()

	doc := `{"schema": {"title": "<script>alert(1)</script>Hi", "fields": [
	  {"id": "x", "type": "text", "label": "<b>Name</b>", "helpText": "<a href=\"javascript:x\">help</a>"}
	]}}`
	s, err := DecodeParam(base64.StdEncoding.EncodeToString([]byte(doc)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(s.Title, "<") || s.Title != "Hi" {
		t.Fatalf("title not sanitised: %q", s.Title)
	}
	if s.Fields[0].Label != "Name" || s.Fields[0].HelpText != "help" {
		t.Fatalf("field strings not sanitised: %+v", s.Fields[0])
	}
	if s.Fields[0].ID != "x" {
		t.Fatalf("ids must be untouched")
	}
}

func TestDecodeParamKeepsAmpersandsInText(t *testing.T) {
	t.Parallel()

	in := Schema{
		Title: "Budget & Plans",
		Fields: []Field{
			{ID: "dept", Type: FieldTypeSelect, Label: "R&D budget", Options: []Option{
				{Value: "tj", Label: "Tom & Jerry"},
				{Value: "q", Label: `<i>"Quotes" & 'apostrophes'</i>`},
			}},
		},
	}
	param, err := EncodeParam(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeParam(param)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := []string{out.Title, out.Fields[0].Label, out.Fields[0].Options[0].Label, out.Fields[0].Options[1].Label}
	want := []string{"Budget & Plans", "R&D budget", "Tom & Jerry", `"Quotes" & 'apostrophes'`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("display strings changed (-want +got):\n%s", diff)
	}
}
