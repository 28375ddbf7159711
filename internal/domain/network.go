package domain

// NetworkMap is the exported view of the whole graph
type NetworkMap struct {
	Threshold int          `json:"threshold" yaml:"threshold"`
	Devices   []DeviceView `json:"devices" yaml:"devices"`
	Edges     []Edge       `json:"edges" yaml:"edges"`
}

// NewNetworkMap creates an empty map for the given threshold
func NewNetworkMap(threshold int) *NetworkMap {
	return &NetworkMap{
		Threshold: threshold,
		Devices:   make([]DeviceView, 0),
		Edges:     make([]Edge, 0),
	}
}

// AddDevice appends a device view
func (m *NetworkMap) AddDevice(v DeviceView) {
	m.Devices = append(m.Devices, v)
}

// AddEdge appends an edge
func (m *NetworkMap) AddEdge(e Edge) {
	m.Edges = append(m.Edges, e)
}

// FlaggedCount returns the number of flagged devices in the map
func (m *NetworkMap) FlaggedCount() int {
	n := 0
	for _, d := range m.Devices {
		if d.Flagged {
			n++
		}
	}
	return n
}
