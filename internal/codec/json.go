package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"netwatch/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a network map from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.NetworkMap, error) {
	var m domain.NetworkMap
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if m.Edges == nil {
		m.Edges = make([]domain.Edge, 0)
	}

	return &m, nil
}

// Export exports a network map to JSON
func (c *JSONCodec) Export(m *domain.NetworkMap, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
