/*
Package pipeline is pipeliner's embeddable declaration API: the same
addLocalNode/addEdge/addSimpleEdge/createPipeline shape the original
pipeline builder exposed, as a thin Go wrapper gluing pkg/graph and
pkg/planner together for callers that want to build a graph in code instead
of from a pkg/config manifest.
*/
package pipeline

import (
	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/elitr/pipeliner/pkg/metrics"
	"github.com/elitr/pipeliner/pkg/planner"
)

// Pipeline is a graph under construction, plus the plan it compiles to once
// CreatePipeline is called.
type Pipeline struct {
	Graph *graph.Graph
	Plan  *planner.Plan
}

// New starts an empty pipeline declaration.
func New() *Pipeline {
	return &Pipeline{Graph: graph.New()}
}

// AddLocalNode declares a node. See graph.Graph.AddLocalNode.
func (p *Pipeline) AddLocalNode(name string, ingress, egress map[string]any, cmd graph.Command) (*graph.Node, error) {
	return p.Graph.AddLocalNode(name, ingress, egress, cmd)
}

// AddEdge declares an edge between named ports. See graph.Graph.AddEdge.
func (p *Pipeline) AddEdge(source *graph.Node, sourceEgress string, target *graph.Node, targetIngress string, edgeType graph.EdgeType) (*graph.Edge, error) {
	return p.Graph.AddEdge(source, sourceEgress, target, targetIngress, edgeType)
}

// AddSimpleEdge declares an edge between two single-port nodes. See
// graph.Graph.AddSimpleEdge.
func (p *Pipeline) AddSimpleEdge(source, target *graph.Node, edgeType graph.EdgeType) (*graph.Edge, error) {
	return p.Graph.AddSimpleEdge(source, target, edgeType)
}

// CreatePipeline plans the declared graph against pool, recording the
// resulting plan on the Pipeline and returning it.
func (p *Pipeline) CreatePipeline(pool *endpoint.Allocator) (*planner.Plan, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PlanDuration)

	plan, err := planner.Plan(p.Graph, pool)
	if err != nil {
		return nil, err
	}

	for _, job := range plan.Jobs {
		switch job.Kind {
		case planner.JobProxy:
			metrics.ProxiesInserted.Inc()
		case planner.JobFanout:
			metrics.FanoutsInserted.Inc()
		}
	}
	metrics.EndpointsAllocated.Set(float64(pool.Count()))

	p.Plan = plan
	return plan, nil
}
