package schema

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParamName is the query parameter carrying the base64 schema envelope.
const ParamName = "fixed_variables"

var (
	// ErrEmptyDocument is returned when there is nothing to decode.
	ErrEmptyDocument = errors.New("schema: document is empty")
	// ErrNoFields is returned when a document lacks a fields list.
	ErrNoFields = errors.New("schema: no form schema provided")
	// ErrParamMissing is returned when the fixed_variables parameter is absent.
	ErrParamMissing = errors.New("schema: fixed_variables parameter not found")
)

// Decode parses a JSON or YAML schema document.
func Decode(data []byte) (Schema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Schema{}, ErrEmptyDocument
	}

	var out Schema
	if err := json.Unmarshal(trimmed, &out); err != nil {
		out = Schema{}
		if yerr := yaml.Unmarshal(trimmed, &out); yerr != nil {
			return Schema{}, fmt.Errorf("schema: parse: invalid JSON or YAML: %w", yerr)
		}
	}
	if out.Fields == nil {
		return Schema{}, ErrNoFields
	}
	return out, nil
}

// DecodeParam decodes the base64 JSON transport. The payload is either an
// envelope object holding a "schema" key or a bare schema object. Display
// strings are sanitised because the parameter is untrusted input.
func DecodeParam(raw string) (Schema, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Schema{}, ErrParamMissing
	}

	data, err := decodeBase64(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: decode param: %w", err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Schema{}, fmt.Errorf("schema: decode param: %w", err)
	}
	if inner, ok := envelope["schema"]; ok {
		data = inner
	}

	out, err := Decode(data)
	if err != nil {
		return Schema{}, err
	}
	return Sanitize(out), nil
}

// DecodeQuery reads the fixed_variables parameter from query values.
func DecodeQuery(query url.Values) (Schema, error) {
	if !query.Has(ParamName) {
		return Schema{}, ErrParamMissing
	}
	return DecodeParam(query.Get(ParamName))
}

// EncodeParam is the inverse of DecodeParam, wrapping the schema in an
// envelope. Embedder hooks are not serialised.
func EncodeParam(s Schema) (string, error) {
	data, err := json.Marshal(map[string]any{"schema": s})
	if err != nil {
		return "", fmt.Errorf("schema: encode param: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeBase64(raw string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(raw)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
