// Package graph maintains the undirected connection relation over registered
// devices. Each device owns an ordered neighbor list plus a membership set;
// the list keeps discovery order for display, the set makes duplicate-edge
// detection O(1).
package graph

import (
	"iter"
	"slices"

	"netwatch/internal/domain"
	"netwatch/internal/registry"
)

// DegreeObserver is notified after an endpoint's degree changes.
// It returns true when the change newly flagged the device.
type DegreeObserver interface {
	OnDegreeChanged(id domain.DeviceID) bool
}

// Result describes the effect of a Connect call
type Result struct {
	Outcome      domain.Outcome
	From         domain.DeviceID
	To           domain.DeviceID
	NewlyFlagged []string
}

// Graph is the connection graph over a shared registry
type Graph struct {
	reg       *registry.Registry
	observer  DegreeObserver
	neighbors [][]domain.DeviceID
	members   []map[domain.DeviceID]struct{}
	edges     []domain.Edge
}

// New creates an empty graph. observer may be nil.
func New(reg *registry.Registry, observer DegreeObserver) *Graph {
	return &Graph{
		reg:      reg,
		observer: observer,
		edges:    make([]domain.Edge, 0),
	}
}

// Connect adds an undirected edge between two addresses.
//
// Identical addresses are rejected before any device is registered. Both
// endpoints are admitted to the registry or neither is. A second request for
// an existing pair, in either orientation, reports AlreadyExists and leaves
// the graph untouched.
func (g *Graph) Connect(a, b string) Result {
	if a == b {
		return Result{Outcome: domain.OutcomeSelfLoopRejected}
	}
	if !g.reg.CanAdmit(a, b) {
		return Result{Outcome: domain.OutcomeCapacityExceeded}
	}

	from, err := g.reg.Resolve(a)
	if err != nil {
		return Result{Outcome: domain.OutcomeCapacityExceeded}
	}
	to, err := g.reg.Resolve(b)
	if err != nil {
		return Result{Outcome: domain.OutcomeCapacityExceeded}
	}
	g.grow()

	res := Result{From: from, To: to}
	if g.HasEdge(from, to) {
		res.Outcome = domain.OutcomeAlreadyExists
		return res
	}

	g.link(from, to)
	g.link(to, from)
	g.edges = append(g.edges, domain.NewEdge(a, b))
	res.Outcome = domain.OutcomeCreated

	if g.observer != nil {
		for _, id := range []domain.DeviceID{from, to} {
			if g.observer.OnDegreeChanged(id) {
				res.NewlyFlagged = append(res.NewlyFlagged, g.reg.Record(id).Address)
			}
		}
	}

	return res
}

// Degree returns the number of distinct neighbors of id
func (g *Graph) Degree(id domain.DeviceID) (int, error) {
	d := g.reg.Record(id)
	if d == nil {
		return 0, domain.ErrUnknownDevice
	}
	return d.Degree, nil
}

// Neighbors yields the neighbors of id in insertion order.
// The sequence may be ranged over any number of times.
func (g *Graph) Neighbors(id domain.DeviceID) iter.Seq[domain.DeviceID] {
	return func(yield func(domain.DeviceID) bool) {
		if id < 0 || int(id) >= len(g.neighbors) {
			return
		}
		for _, n := range g.neighbors[id] {
			if !yield(n) {
				return
			}
		}
	}
}

// NeighborIDs returns a copy of the neighbors of id in insertion order
func (g *Graph) NeighborIDs(id domain.DeviceID) []domain.DeviceID {
	return slices.Collect(g.Neighbors(id))
}

// HasEdge reports whether two known devices are connected
func (g *Graph) HasEdge(a, b domain.DeviceID) bool {
	if a < 0 || int(a) >= len(g.members) {
		return false
	}
	_, ok := g.members[a][b]
	return ok
}

// EdgeCount returns the number of undirected edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns every edge once, in creation order
func (g *Graph) Edges() []domain.Edge {
	return slices.Clone(g.edges)
}

func (g *Graph) link(from, to domain.DeviceID) {
	g.neighbors[from] = append(g.neighbors[from], to)
	g.members[from][to] = struct{}{}
	g.reg.Record(from).Degree++
}

// grow extends adjacency storage to cover every registered device
func (g *Graph) grow() {
	for len(g.neighbors) < g.reg.Count() {
		g.neighbors = append(g.neighbors, nil)
		g.members = append(g.members, make(map[domain.DeviceID]struct{}))
	}
}
