// Package registry owns the set of known devices and assigns each a stable
// identity. Addresses are deduplicated: the same address always resolves to
// the same DeviceID for the life of the registry.
package registry

import (
	"fmt"

	"netwatch/internal/domain"
)

// Unbounded disables the capacity check
const Unbounded = 0

// Registry maps addresses to device records
type Registry struct {
	maxDevices int
	byAddress  map[string]domain.DeviceID
	devices    []*domain.Device
}

// New creates a registry holding at most maxDevices devices.
// A maxDevices of Unbounded (or below) means no limit.
func New(maxDevices int) *Registry {
	if maxDevices < 0 {
		maxDevices = Unbounded
	}
	return &Registry{
		maxDevices: maxDevices,
		byAddress:  make(map[string]domain.DeviceID),
		devices:    make([]*domain.Device, 0),
	}
}

// Resolve returns the identity of address, registering it if needed
func (r *Registry) Resolve(address string) (domain.DeviceID, error) {
	if id, ok := r.byAddress[address]; ok {
		return id, nil
	}

	if r.full() {
		return 0, fmt.Errorf("register %s: %w", address, domain.ErrCapacityExceeded)
	}

	id := domain.DeviceID(len(r.devices))
	r.devices = append(r.devices, domain.NewDevice(id, address))
	r.byAddress[address] = id
	return id, nil
}

// Find returns the identity of a known address without registering it
func (r *Registry) Find(address string) (domain.DeviceID, bool) {
	id, ok := r.byAddress[address]
	return id, ok
}

// CanAdmit reports whether resolving every given address would stay within
// capacity. Known addresses and repeats are counted once.
func (r *Registry) CanAdmit(addresses ...string) bool {
	if r.maxDevices == Unbounded {
		return true
	}

	pending := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		if _, ok := r.byAddress[addr]; !ok {
			pending[addr] = struct{}{}
		}
	}
	return len(r.devices)+len(pending) <= r.maxDevices
}

// Lookup returns a copy of the device record for id
func (r *Registry) Lookup(id domain.DeviceID) (domain.Device, bool) {
	d := r.record(id)
	if d == nil {
		return domain.Device{}, false
	}
	return *d, true
}

// Record returns the mutable record for id, or nil.
// Only the graph and flagger that share this registry should mutate it.
func (r *Registry) Record(id domain.DeviceID) *domain.Device {
	return r.record(id)
}

// Count returns the number of registered devices
func (r *Registry) Count() int {
	return len(r.devices)
}

// Capacity returns the configured device limit, Unbounded for none
func (r *Registry) Capacity() int {
	return r.maxDevices
}

// Devices returns copies of all records in registration order
func (r *Registry) Devices() []domain.Device {
	out := make([]domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	return out
}

func (r *Registry) record(id domain.DeviceID) *domain.Device {
	if id < 0 || int(id) >= len(r.devices) {
		return nil
	}
	return r.devices[id]
}

func (r *Registry) full() bool {
	return r.maxDevices != Unbounded && len(r.devices) >= r.maxDevices
}
