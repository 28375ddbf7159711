// Package codec converts a network map to and from interchange formats.
package codec

import (
	"fmt"
	"io"
	"strings"

	"netwatch/internal/domain"
)

// Importer interface for importing network maps from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.NetworkMap, error)
	Format() string
}

// Exporter interface for exporting network maps to various formats
type Exporter interface {
	Export(m *domain.NetworkMap, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "csv", "edgelist":
		return NewEdgeListCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected json, yaml or csv)", format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return nil, fmt.Errorf("cannot infer format of %s", path)
	}
	return ForFormat(path[i+1:])
}
