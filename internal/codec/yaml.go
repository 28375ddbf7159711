package codec

import (
	"fmt"
	"io"

	"netwatch/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlMap represents the YAML structure of a network map
type yamlMap struct {
	Threshold int          `yaml:"threshold"`
	Devices   []yamlDevice `yaml:"devices,omitempty"`
	Edges     []yamlEdge   `yaml:"edges"`
}

type yamlDevice struct {
	Address   string   `yaml:"address"`
	Degree    int      `yaml:"degree"`
	Status    string   `yaml:"status"`
	Neighbors []string `yaml:"neighbors,flow"`
}

type yamlEdge struct {
	ID string `yaml:"id,omitempty"`
	A  string `yaml:"a"`
	B  string `yaml:"b"`
}

// Parse imports a network map from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.NetworkMap, error) {
	var ym yamlMap
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&ym); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	m := domain.NewNetworkMap(ym.Threshold)

	// Convert devices
	for _, yd := range ym.Devices {
		status := domain.DeviceStatus(yd.Status)
		if status == "" {
			status = domain.DeviceStatusNormal
		}
		m.AddDevice(domain.DeviceView{
			Address:    yd.Address,
			Degree:     yd.Degree,
			Flagged:    status == domain.DeviceStatusFlagged,
			Suspicious: status == domain.DeviceStatusSuspicious,
			Status:     status,
			Neighbors:  yd.Neighbors,
		})
	}

	// Convert edges; ids are informational and recomputed on export
	for _, ye := range ym.Edges {
		m.AddEdge(domain.NewEdge(ye.A, ye.B))
	}

	return m, nil
}

// Export exports a network map to YAML
func (c *YAMLCodec) Export(m *domain.NetworkMap, w io.Writer) error {
	ym := yamlMap{
		Threshold: m.Threshold,
		Devices:   make([]yamlDevice, 0, len(m.Devices)),
		Edges:     make([]yamlEdge, 0, len(m.Edges)),
	}

	for _, d := range m.Devices {
		ym.Devices = append(ym.Devices, yamlDevice{
			Address:   d.Address,
			Degree:    d.Degree,
			Status:    string(d.Status),
			Neighbors: d.Neighbors,
		})
	}

	for _, e := range m.Edges {
		ym.Edges = append(ym.Edges, yamlEdge{ID: e.ID(), A: e.A, B: e.B})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ym); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
