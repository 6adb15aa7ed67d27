package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source names where a schema document comes from. Loaders switch on Kind
// and read Location.
type Source interface {
	Kind() SourceKind
	Location() string
}

type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
	// SourceKindParam carries a base64 fixed_variables payload inline; its
	// Location is the payload itself.
	SourceKindParam SourceKind = "param"
)

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }
func (s source) String() string   { return string(s.kind) + ":" + s.location }

// SourceFromFile returns a file Source with a cleaned path.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS names an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceFromURL panics on an empty or unparsable URL, so misconfiguration
// surfaces at startup.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("schema: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("schema: invalid URL %q: %v", raw, err))
	}
	return source{kind: SourceKindURL, location: raw}
}

func SourceFromParam(raw string) Source {
	return source{kind: SourceKindParam, location: raw}
}

// ParseSource maps a command-line location to a Source: http(s) URLs become
// URL sources and anything else is a file path. Blank input yields nil.
func ParseSource(raw string) Source {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return SourceFromURL(raw)
	default:
		return SourceFromFile(raw)
	}
}
