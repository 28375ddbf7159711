package domain

// DeviceID is the stable identity assigned to a device at first registration.
// IDs are dense and start at zero in registration order.
type DeviceID int

// DeviceStatus classifies a device for display
type DeviceStatus string

const (
	DeviceStatusNormal     DeviceStatus = "normal"
	DeviceStatusSuspicious DeviceStatus = "suspicious" // Degree above threshold, not yet flagged
	DeviceStatusFlagged    DeviceStatus = "flagged"    // Sticky, never cleared
)

// Device is a node in the network graph
type Device struct {
	ID      DeviceID `json:"id" yaml:"id"`
	Address string   `json:"address" yaml:"address"`
	Degree  int      `json:"degree" yaml:"degree"`
	Flagged bool     `json:"flagged" yaml:"flagged"`
}

// NewDevice creates an unconnected, unflagged device
func NewDevice(id DeviceID, address string) *Device {
	return &Device{
		ID:      id,
		Address: address,
	}
}

// DeviceView is the read model of a device used for listing and export
type DeviceView struct {
	Address    string       `json:"address" yaml:"address"`
	Degree     int          `json:"degree" yaml:"degree"`
	Flagged    bool         `json:"flagged" yaml:"flagged"`
	Suspicious bool         `json:"suspicious" yaml:"suspicious"`
	Status     DeviceStatus `json:"status" yaml:"status"`
	Neighbors  []string     `json:"neighbors" yaml:"neighbors"`
}

// IsAnomalous reports whether the device belongs in an anomaly report
func (v DeviceView) IsAnomalous() bool {
	return v.Flagged || v.Suspicious
}
