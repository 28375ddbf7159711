package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netwatch/internal/domain"
)

func sampleMap() *domain.NetworkMap {
	m := domain.NewNetworkMap(4)
	m.AddDevice(domain.DeviceView{
		Address:   "10.0.0.1",
		Degree:    1,
		Status:    domain.DeviceStatusNormal,
		Neighbors: []string{"10.0.0.2"},
	})
	m.AddDevice(domain.DeviceView{
		Address:   "10.0.0.2",
		Degree:    1,
		Flagged:   true,
		Status:    domain.DeviceStatusFlagged,
		Neighbors: []string{"10.0.0.1"},
	})
	m.AddEdge(domain.NewEdge("10.0.0.1", "10.0.0.2"))
	return m
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "json"},
		{"JSON", "json"},
		{"yaml", "yaml"},
		{"yml", "yaml"},
		{"csv", "csv"},
		{"edgelist", "csv"},
	}
	for _, tt := range tests {
		c, err := ForFormat(tt.format)
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.want, c.Format())
	}

	_, err := ForFormat("xml")
	assert.Error(t, err)
}

func TestForPath(t *testing.T) {
	c, err := ForPath("/tmp/export.yaml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", c.Format())

	c, err = ForPath("connections.csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", c.Format())

	_, err = ForPath("noextension")
	assert.Error(t, err)
	_, err = ForPath("trailing.")
	assert.Error(t, err)
}

func TestJSONCodec(t *testing.T) {
	c := NewJSONCodec()
	var buf bytes.Buffer

	require.NoError(t, c.Export(sampleMap(), &buf))
	assert.Contains(t, buf.String(), `"threshold": 4`)
	assert.Contains(t, buf.String(), `"status": "flagged"`)

	got, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleMap(), got)

	_, err = c.Parse(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestYAMLCodec(t *testing.T) {
	c := NewYAMLCodec()
	var buf bytes.Buffer

	require.NoError(t, c.Export(sampleMap(), &buf))
	out := buf.String()
	assert.Contains(t, out, "threshold: 4")
	assert.Contains(t, out, "neighbors: [10.0.0.2]")
	assert.Contains(t, out, domain.NewEdge("10.0.0.1", "10.0.0.2").ID())

	got, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleMap(), got)
}

func TestYAMLCodecParseMinimal(t *testing.T) {
	input := `
edges:
  - a: router
    b: 10.0.0.5
  - {a: router, b: 10.0.0.6}
`
	got, err := NewYAMLCodec().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Zero(t, got.Threshold)
	assert.Empty(t, got.Devices)
	assert.Equal(t, []domain.Edge{{A: "router", B: "10.0.0.5"}, {A: "router", B: "10.0.0.6"}}, got.Edges)
}

func TestEdgeListCodec(t *testing.T) {
	c := NewEdgeListCodec()
	var buf bytes.Buffer

	require.NoError(t, c.Export(sampleMap(), &buf))
	assert.Equal(t, "10.0.0.1,10.0.0.2\n", buf.String())

	got, err := c.Parse(strings.NewReader("onlyonefield\na,b\nc, d\n"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{{A: "a", B: "b"}, {A: "c", B: "d"}}, got.Edges)

}

func TestEdgeListCodecReplayedEdges(t *testing.T) {
	c := NewEdgeListCodec()

	// Anything replay accepts must export, or be left out, without failing
	in := "a b,c\n" + strings.Repeat("x", 2*1024*1024) + "\nd\re,f\ng,h\n"
	m, err := c.Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{{A: "a b", B: "c"}, {A: "d\re", B: "f"}, {A: "g", B: "h"}}, m.Edges)

	var buf bytes.Buffer
	require.NoError(t, c.Export(m, &buf))
	assert.Equal(t, "a b,c\ng,h\n", buf.String())

	again, err := c.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []domain.Edge{{A: "a b", B: "c"}, {A: "g", B: "h"}}, again.Edges)
}
