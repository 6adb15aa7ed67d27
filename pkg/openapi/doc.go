// Package openapi builds form schemas from OpenAPI 3 operations. The request
// body's top-level properties become fields; an `x-dynform` extension on a
// property or operation adds what OpenAPI cannot express (visibility
// dependencies, resets, dynamic options). kin-openapi stays behind
// internal/openapi/parser.
package openapi
