// Package anomaly derives the flagged status of devices from their degree.
//
// A device moves from normal to flagged exactly once, the first time its
// degree strictly exceeds the threshold. There is no transition back.
package anomaly

import (
	"netwatch/internal/domain"
	"netwatch/internal/registry"
)

// DefaultThreshold is the degree above which a device is suspicious
const DefaultThreshold = 4

// Flagger tracks sticky flags over a registry's devices
type Flagger struct {
	reg       *registry.Registry
	threshold int
}

// New creates a flagger with a fixed threshold
func New(reg *registry.Registry, threshold int) *Flagger {
	return &Flagger{
		reg:       reg,
		threshold: threshold,
	}
}

// Threshold returns the configured threshold
func (f *Flagger) Threshold() int {
	return f.threshold
}

// OnDegreeChanged re-evaluates id after its degree changed.
// It returns true only on the call that flags the device.
func (f *Flagger) OnDegreeChanged(id domain.DeviceID) bool {
	d := f.reg.Record(id)
	if d == nil || d.Flagged {
		return false
	}
	if d.Degree > f.threshold {
		d.Flagged = true
		return true
	}
	return false
}

// IsFlagged reports the sticky flag of id
func (f *Flagger) IsFlagged(id domain.DeviceID) bool {
	d := f.reg.Record(id)
	return d != nil && d.Flagged
}

// IsSuspicious reports whether id currently exceeds the threshold,
// independent of the sticky flag
func (f *Flagger) IsSuspicious(id domain.DeviceID) bool {
	d := f.reg.Record(id)
	return d != nil && d.Degree > f.threshold
}

// Status classifies id for display. Flagged wins over suspicious.
func (f *Flagger) Status(id domain.DeviceID) domain.DeviceStatus {
	switch {
	case f.IsFlagged(id):
		return domain.DeviceStatusFlagged
	case f.IsSuspicious(id):
		return domain.DeviceStatusSuspicious
	default:
		return domain.DeviceStatusNormal
	}
}
