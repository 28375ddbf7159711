package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/domain"
	"netwatch/internal/registry"
)

func newDevice(t *testing.T, reg *registry.Registry, address string, degree int) domain.DeviceID {
	t.Helper()
	id, err := reg.Resolve(address)
	require.NoError(t, err)
	reg.Record(id).Degree = degree
	return id
}

func TestOnDegreeChanged(t *testing.T) {
	tests := []struct {
		name   string
		degree int
		want   bool
	}{
		{"below threshold", 3, false},
		{"at threshold", DefaultThreshold, false},
		{"above threshold", DefaultThreshold + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New(registry.Unbounded)
			f := New(reg, DefaultThreshold)
			id := newDevice(t, reg, "10.0.0.1", tt.degree)

			assert.Equal(t, tt.want, f.OnDegreeChanged(id))
			assert.Equal(t, tt.want, f.IsFlagged(id))
		})
	}
}

func TestFlagIsReportedOnce(t *testing.T) {
	reg := registry.New(registry.Unbounded)
	f := New(reg, DefaultThreshold)
	id := newDevice(t, reg, "hub", 5)

	require.True(t, f.OnDegreeChanged(id))

	reg.Record(id).Degree = 6
	assert.False(t, f.OnDegreeChanged(id), "second crossing must not notify again")
	assert.True(t, f.IsFlagged(id))
}

func TestFlagIsSticky(t *testing.T) {
	reg := registry.New(registry.Unbounded)
	f := New(reg, DefaultThreshold)
	id := newDevice(t, reg, "hub", 5)
	require.True(t, f.OnDegreeChanged(id))

	// No decrement operation exists; force one to prove the flag does not
	// depend on the live degree.
	reg.Record(id).Degree = 1
	f.OnDegreeChanged(id)

	assert.True(t, f.IsFlagged(id))
	assert.False(t, f.IsSuspicious(id))
	assert.Equal(t, domain.DeviceStatusFlagged, f.Status(id))
}

func TestIsSuspiciousIsLive(t *testing.T) {
	reg := registry.New(registry.Unbounded)
	f := New(reg, DefaultThreshold)
	id := newDevice(t, reg, "hub", 5)

	// Suspicious without the flagger having been consulted
	assert.True(t, f.IsSuspicious(id))
	assert.False(t, f.IsFlagged(id))
	assert.Equal(t, domain.DeviceStatusSuspicious, f.Status(id))
}

func TestUnknownDevice(t *testing.T) {
	f := New(registry.New(registry.Unbounded), DefaultThreshold)
	id := domain.DeviceID(3)

	assert.False(t, f.OnDegreeChanged(id))
	assert.False(t, f.IsFlagged(id))
	assert.False(t, f.IsSuspicious(id))
	assert.Equal(t, domain.DeviceStatusNormal, f.Status(id))
}

func TestCustomThreshold(t *testing.T) {
	reg := registry.New(registry.Unbounded)
	f := New(reg, 1)
	id := newDevice(t, reg, "a", 2)

	assert.Equal(t, 1, f.Threshold())
	assert.True(t, f.OnDegreeChanged(id))
}
