package planner

import (
	"testing"

	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobsOfKind(jobs []Job, kind JobKind) []Job {
	var out []Job
	for _, j := range jobs {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

func TestPlan_SimplePipelineAndEntrypoint(t *testing.T) {
	g := graph.New()
	d, err := g.AddLocalNode("d", map[string]any{"in": "stdin"}, map[string]any{"out": "stdout"}, graph.Command{Argv: []string{"d"}})
	require.NoError(t, err)
	e, err := g.AddLocalNode("e", map[string]any{"in": "stdin"}, nil, graph.Command{Argv: []string{"e"}})
	require.NoError(t, err)

	_, err = g.AddSimpleEdge(d, e, graph.Text)
	require.NoError(t, err)

	pool := endpoint.New(9100, 9200)
	plan, err := Plan(g, pool)
	require.NoError(t, err)

	require.Len(t, plan.Entrypoints, 1)
	assert.Equal(t, "d", plan.Entrypoints[0].NodeName)

	edgeJobs := jobsOfKind(plan.Jobs, JobEdge)
	require.Len(t, edgeJobs, 1)
	assert.Equal(t, "l_00-01-out2in.log", edgeJobs[0].LogPath)

	assert.Equal(t, "00", d.Label)
	assert.Equal(t, "01", e.Label)
}

func TestPlan_BinaryEdgeLogExtension(t *testing.T) {
	g := graph.New()
	a, err := g.AddLocalNode("a", nil, map[string]any{"out": "stdout"}, graph.Command{Argv: []string{"a"}})
	require.NoError(t, err)
	b, err := g.AddLocalNode("b", map[string]any{"in": "stdin"}, nil, graph.Command{Argv: []string{"b"}})
	require.NoError(t, err)

	_, err = g.AddSimpleEdge(a, b, graph.Binary)
	require.NoError(t, err)

	plan, err := Plan(g, endpoint.New(9100, 9200))
	require.NoError(t, err)

	edgeJobs := jobsOfKind(plan.Jobs, JobEdge)
	require.Len(t, edgeJobs, 1)
	assert.Equal(t, "l_00-01-out2in.data", edgeJobs[0].LogPath)

	// a produces on its own with no input, so it is not reported as an entrypoint.
	assert.Empty(t, plan.Entrypoints)
}

func TestPlan_Fanout(t *testing.T) {
	g := graph.New()
	p, err := g.AddLocalNode("p", nil, map[string]any{"out": 9150}, graph.Command{Argv: []string{"p"}})
	require.NoError(t, err)
	q, err := g.AddLocalNode("q", map[string]any{"in": 9151}, nil, graph.Command{Argv: []string{"q"}})
	require.NoError(t, err)
	r, err := g.AddLocalNode("r", map[string]any{"in": 9152}, nil, graph.Command{Argv: []string{"r"}})
	require.NoError(t, err)

	_, err = g.AddEdge(p, "out", q, "in", graph.Text)
	require.NoError(t, err)
	_, err = g.AddEdge(p, "out", r, "in", graph.Text)
	require.NoError(t, err)

	plan, err := Plan(g, endpoint.New(9200, 9300))
	require.NoError(t, err)

	fanoutJobs := jobsOfKind(plan.Jobs, JobFanout)
	require.Len(t, fanoutJobs, 1)
	assert.Equal(t, 9150, fanoutJobs[0].Listen)
	assert.Len(t, fanoutJobs[0].Connect, 2)

	edgeJobs := jobsOfKind(plan.Jobs, JobEdge)
	require.Len(t, edgeJobs, 2)
}

func TestPlan_AliasProxy(t *testing.T) {
	g := graph.New()
	w, err := g.AddLocalNode("w", nil, map[string]any{"out": 9250}, graph.Command{Argv: []string{"w"}})
	require.NoError(t, err)
	x, err := g.AddLocalNode("x", map[string]any{"in": 9250}, map[string]any{"out": 9250}, graph.Command{Argv: []string{"x"}})
	require.NoError(t, err)
	y, err := g.AddLocalNode("y", map[string]any{"in": 9251}, nil, graph.Command{Argv: []string{"y"}})
	require.NoError(t, err)

	_, err = g.AddEdge(w, "out", x, "in", graph.Text)
	require.NoError(t, err)
	_, err = g.AddEdge(x, "out", y, "in", graph.Text)
	require.NoError(t, err)

	plan, err := Plan(g, endpoint.New(9300, 9400))
	require.NoError(t, err)

	proxyJobs := jobsOfKind(plan.Jobs, JobProxy)
	require.Len(t, proxyJobs, 1)
	assert.Equal(t, 9250, proxyJobs[0].Bridge)
	assert.Len(t, proxyJobs[0].Connect, 1)
}

func TestPlan_MultipleProducersRejected(t *testing.T) {
	g := graph.New()
	a, err := g.AddLocalNode("a", nil, map[string]any{"out": "stdout"}, graph.Command{})
	require.NoError(t, err)
	b, err := g.AddLocalNode("b", nil, map[string]any{"out": "stdout"}, graph.Command{})
	require.NoError(t, err)
	c, err := g.AddLocalNode("c", map[string]any{"in": "stdin"}, nil, graph.Command{})
	require.NoError(t, err)

	_, err = g.AddEdge(a, "out", c, "in", graph.Text)
	require.NoError(t, err)
	_, err = g.AddEdge(b, "out", c, "in", graph.Text)
	require.NoError(t, err)

	_, err = Plan(g, endpoint.New(9100, 9200))
	require.Error(t, err)
	var mpe *MultipleProducersError
	assert.ErrorAs(t, err, &mpe)
}
