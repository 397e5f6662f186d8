package pipeline

import (
	"testing"

	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePipeline(t *testing.T) {
	p := New()
	a, err := p.AddLocalNode("a", nil, map[string]any{"out": "stdout"}, graph.Command{Argv: []string{"a"}})
	require.NoError(t, err)
	b, err := p.AddLocalNode("b", map[string]any{"in": "stdin"}, nil, graph.Command{Argv: []string{"b"}})
	require.NoError(t, err)

	_, err = p.AddSimpleEdge(a, b, graph.Text)
	require.NoError(t, err)

	plan, err := p.CreatePipeline(endpoint.New(9100, 9200))
	require.NoError(t, err)
	assert.Len(t, plan.Jobs, 3) // a's stdout capture, b's stdin bridge, the a->b edge
	assert.Same(t, plan, p.Plan)
}

func TestCreatePipeline_PropagatesPlannerError(t *testing.T) {
	p := New()
	a, err := p.AddLocalNode("a", nil, map[string]any{"out": "stdout"}, graph.Command{})
	require.NoError(t, err)
	b, err := p.AddLocalNode("b", map[string]any{"in": "stdin"}, nil, graph.Command{})
	require.NoError(t, err)
	c, err := p.AddLocalNode("c", map[string]any{"in": "stdin"}, map[string]any{"out": "stdout"}, graph.Command{})
	require.NoError(t, err)

	_, err = p.Graph.AddEdge(a, "out", b, "in", graph.Text)
	require.NoError(t, err)
	_, err = p.Graph.AddEdge(c, "out", b, "in", graph.Text)
	require.NoError(t, err)

	_, err = p.CreatePipeline(endpoint.New(9100, 9200))
	assert.Error(t, err)
}
