package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
logsDir: /var/log/pipeliner
ports:
  low: 9500
  high: 9600
nodes:
  - name: producer
    egress:
      out: stdout
    command:
      argv: ["producer"]
  - name: consumer
    ingress:
      in: stdin
    command:
      argv: ["consumer"]
edges:
  - source: producer
    target: consumer
    type: text
`

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/pipeliner", m.LogsDir)
	assert.Equal(t, 9500, m.Ports.Low)
	require.Len(t, m.Nodes, 2)
	require.Len(t, m.Edges, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestManifest_Allocator(t *testing.T) {
	m := &Manifest{Ports: PortsSpec{Low: 9500, High: 9600}}
	a := m.Allocator()
	id, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 9500, id)
}

func TestManifest_Allocator_Default(t *testing.T) {
	m := &Manifest{}
	a := m.Allocator()
	id, err := a.Acquire()
	require.NoError(t, err)
	assert.Equal(t, endpoint.DefaultLow, id)
}

func TestManifest_Build(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	m, err := Load(path)
	require.NoError(t, err)

	g, err := m.Build()
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestManifest_Build_UnknownEdgeNode(t *testing.T) {
	m := &Manifest{
		Nodes: []NodeSpec{{Name: "a", Egress: map[string]any{"out": "stdout"}}},
		Edges: []EdgeSpec{{Source: "a", Target: "nope"}},
	}
	_, err := m.Build()
	assert.Error(t, err)
}

func TestManifest_Build_UnsupportedEdgeType(t *testing.T) {
	m := &Manifest{
		Nodes: []NodeSpec{
			{Name: "a", Egress: map[string]any{"out": "stdout"}},
			{Name: "b", Ingress: map[string]any{"in": "stdin"}},
		},
		Edges: []EdgeSpec{{Source: "a", Target: "b", Type: "xml"}},
	}
	_, err := m.Build()
	assert.Error(t, err)
}
