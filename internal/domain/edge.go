package domain

import (
	"crypto/sha256"
	"fmt"
)

// Edge is an undirected connection between two distinct device addresses.
// A and B keep the orientation of the request that created the edge.
type Edge struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// NewEdge creates an edge between two addresses
func NewEdge(a, b string) Edge {
	return Edge{A: a, B: b}
}

// ID returns a deterministic identifier based on the endpoints.
// Both orientations of the same pair produce the same ID.
func (e Edge) ID() string {
	a, b := e.A, e.B
	if a > b {
		a, b = b, a
	}

	key := fmt.Sprintf("%s-%s", a, b)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// String renders the edge in the connection log wire format
func (e Edge) String() string {
	return e.A + "," + e.B
}
