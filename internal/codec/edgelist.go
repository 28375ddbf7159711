package codec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"

	"netwatch/internal/domain"
	"netwatch/internal/store"
)

// EdgeListCodec reads and writes the connection log wire format, one
// "a,b" line per edge. Devices are not part of the format.
type EdgeListCodec struct{}

// NewEdgeListCodec creates a new edge list codec
func NewEdgeListCodec() *EdgeListCodec {
	return &EdgeListCodec{}
}

// Format returns the codec format identifier
func (c *EdgeListCodec) Format() string {
	return "csv"
}

// Parse reads edges, skipping malformed lines the way replay does
func (c *EdgeListCodec) Parse(r io.Reader) (*domain.NetworkMap, error) {
	m := domain.NewNetworkMap(0)

	_, err := store.ReadRecords(context.Background(), r, func(a, b string) {
		m.AddEdge(domain.NewEdge(a, b))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}

	return m, nil
}

// Export writes every edge in creation order. Edges whose addresses cannot
// be written as a log line are left out and logged.
func (c *EdgeListCodec) Export(m *domain.NetworkMap, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Edges {
		line, err := store.FormatRecord(e.A, e.B)
		if err != nil {
			log.Printf("codec: skipping edge %q: %v", e.String(), err)
			continue
		}
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("failed to write edge list: %w", err)
		}
	}
	return bw.Flush()
}
