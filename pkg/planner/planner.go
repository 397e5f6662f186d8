// Package planner turns a declared graph.Graph into a runtime Plan: it
// labels nodes in topological order, inserts proxies where a node's egress
// would otherwise alias one of its own ingresses, bridges stdin/stdout to
// addressable endpoints, and emits one wiring job per declared edge.
package planner

import (
	"fmt"

	"github.com/elitr/pipeliner/pkg/endpoint"
	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/elitr/pipeliner/pkg/metrics"
)

// Plan performs the full planning pipeline against g, allocating endpoints
// from pool, and returns the resulting runtime plan. g's nodes are mutated
// in place (bindings rewritten, labels assigned); it must not be replanned
// concurrently.
func Plan(g *graph.Graph, pool *endpoint.Allocator) (*Plan, error) {
	if err := sanityCheck(g); err != nil {
		metrics.RegisterComponent("planner", false, err.Error())
		return nil, err
	}

	order, err := labelNodes(g)
	if err != nil {
		metrics.RegisterComponent("planner", false, err.Error())
		return nil, err
	}

	var jobs []Job

	for _, n := range order {
		nodeJobs, err := insertProxies(g, n, pool)
		if err != nil {
			metrics.RegisterComponent("planner", false, err.Error())
			return nil, err
		}
		jobs = append(jobs, nodeJobs...)
	}

	for _, n := range order {
		nodeJobs, err := bridgeStdio(g, n, pool)
		if err != nil {
			metrics.RegisterComponent("planner", false, err.Error())
			return nil, err
		}
		jobs = append(jobs, nodeJobs...)
	}

	edgeJobs, err := wireEdges(g)
	if err != nil {
		metrics.RegisterComponent("planner", false, err.Error())
		return nil, err
	}
	jobs = append(jobs, edgeJobs...)

	metrics.RegisterComponent("planner", true, "plan computed")
	return &Plan{
		Jobs:        jobs,
		Entrypoints: reportEntrypoints(g),
	}, nil
}

// sanityCheck rejects a graph where two edges target the same (node, ingress).
func sanityCheck(g *graph.Graph) error {
	for _, n := range g.Nodes {
		in := g.InEdges(n)
		if len(in) < 2 {
			continue
		}
		seen := make(map[string]bool, len(in))
		var names []string
		for _, e := range in {
			if !seen[e.TargetIngress] {
				seen[e.TargetIngress] = true
				names = append(names, e.TargetIngress)
			}
		}
		if len(names) != len(in) {
			return &MultipleProducersError{Node: n.Name, Ingresses: names}
		}
	}
	return nil
}

// labelNodes assigns each node a two-digit zero-padded topological label.
func labelNodes(g *graph.Graph) ([]*graph.Node, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	for i, n := range order {
		n.Label = fmt.Sprintf("%02d", i)
	}
	return order, nil
}

// insertProxies inspects n's out-edges grouped by egress name and, for each
// group, applies the alias, fan-out, or no-op case from §4.2(c). Stdout
// fan-out is deferred to bridgeStdio.
func insertProxies(g *graph.Graph, n *graph.Node, pool *endpoint.Allocator) ([]Job, error) {
	var jobs []Job

	inKinds := make([]graph.EndpointKind, 0, len(n.Ingress))
	for _, name := range n.IngressOrder {
		e, err := n.Ingress[name].Single()
		if err != nil {
			continue // already rewritten by a prior group in this same node; not an ingress alias target anymore
		}
		inKinds = append(inKinds, e)
	}

	for _, oc := range g.OutEdgesByEgress(n) {
		binding := n.Egress[oc.EgressName]
		outKind, err := binding.Single()
		if err != nil {
			return nil, fmt.Errorf("node %s egress %s: %w", n.Name, oc.EgressName, err)
		}

		aliased := false
		for _, k := range inKinds {
			if k.Equal(outKind) {
				aliased = true
				break
			}
		}

		switch {
		case aliased:
			job, err := proxyJob(n, oc.EgressName, outKind, oc.Count, pool)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)

		case outKind.IsStdout():
			// handled in bridgeStdio

		case oc.Count > 1:
			job, err := fanoutJob(n, oc.EgressName, outKind, oc.Count, pool)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func proxyJob(n *graph.Node, egressName string, outKind graph.EndpointKind, count int, pool *endpoint.Allocator) (Job, error) {
	sharedPort, _ := outKind.IsPort()

	outPorts, err := pool.AcquireN(count)
	if err != nil {
		return Job{}, err
	}
	inPort, err := pool.Acquire()
	if err != nil {
		return Job{}, err
	}

	outEndpoints := make([]graph.EndpointKind, count)
	for i, p := range outPorts {
		outEndpoints[i] = graph.Port(p)
	}
	n.Egress[egressName].Set(outEndpoints)

	ingressName := ""
	for _, name := range n.IngressOrder {
		e, err := n.Ingress[name].Single()
		if err == nil && e.Equal(outKind) {
			ingressName = name
			break
		}
	}
	if ingressName == "" {
		return Job{}, fmt.Errorf("node %s: egress %s aliases an ingress that could not be located", n.Name, egressName)
	}
	n.Ingress[ingressName].Set([]graph.EndpointKind{graph.Port(inPort)})

	return Job{
		Kind:    JobProxy,
		Node:    n,
		Listen:  inPort,
		Bridge:  sharedPort,
		Connect: outPorts,
	}, nil
}

func fanoutJob(n *graph.Node, egressName string, outKind graph.EndpointKind, count int, pool *endpoint.Allocator) (Job, error) {
	port, _ := outKind.IsPort()

	newPorts, err := pool.AcquireN(count)
	if err != nil {
		return Job{}, err
	}

	endpoints := make([]graph.EndpointKind, count)
	for i, p := range newPorts {
		endpoints[i] = graph.Port(p)
	}
	n.Egress[egressName].Set(endpoints)

	return Job{
		Kind:    JobFanout,
		Node:    n,
		Listen:  port,
		Connect: newPorts,
	}, nil
}

// bridgeStdio allocates addressable endpoints for a node's bridged stdin
// and/or stdout per §4.2(d).
func bridgeStdio(g *graph.Graph, n *graph.Node, pool *endpoint.Allocator) ([]Job, error) {
	var jobs []Job

	if n.StdinName != "" {
		p, err := pool.Acquire()
		if err != nil {
			return nil, err
		}
		n.Ingress[n.StdinName].Set([]graph.EndpointKind{graph.Port(p)})
		jobs = append(jobs, Job{Kind: JobStdinBridge, Node: n, Listen: p})
	}

	if n.StdoutName != "" {
		k := 0
		for _, e := range g.OutEdges(n) {
			if e.SourceEgress == n.StdoutName {
				k++
			}
		}
		if k >= 1 {
			ports, err := pool.AcquireN(k)
			if err != nil {
				return nil, err
			}
			endpoints := make([]graph.EndpointKind, k)
			for i, p := range ports {
				endpoints[i] = graph.Port(p)
			}
			n.Egress[n.StdoutName].Set(endpoints)
			jobs = append(jobs, Job{Kind: JobStdoutCapture, Node: n, Connect: ports})
		}
	}

	return jobs, nil
}

// wireEdges emits the per-edge wiring job described in §4.2(e): drain one
// endpoint from the source egress binding and one from the target ingress
// binding, connect them, and tee to the edge's log.
func wireEdges(g *graph.Graph) ([]Job, error) {
	jobs := make([]Job, 0, len(g.Edges))

	for _, e := range g.Edges {
		srcEndpoint, err := e.Source.Egress[e.SourceEgress].Drain()
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: source egress %s: %w", e.Source.Name, e.Target.Name, e.SourceEgress, err)
		}
		tgtEndpoint, err := e.Target.Ingress[e.TargetIngress].Drain()
		if err != nil {
			return nil, fmt.Errorf("edge %s->%s: target ingress %s: %w", e.Source.Name, e.Target.Name, e.TargetIngress, err)
		}

		srcPort, ok := srcEndpoint.IsPort()
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: source endpoint %v is not a port after planning", e.Source.Name, e.Target.Name, srcEndpoint)
		}
		tgtPort, ok := tgtEndpoint.IsPort()
		if !ok {
			return nil, fmt.Errorf("edge %s->%s: target endpoint %v is not a port after planning", e.Source.Name, e.Target.Name, tgtEndpoint)
		}

		jobs = append(jobs, Job{
			Kind:    JobEdge,
			Listen:  srcPort,
			Connect: []int{tgtPort},
			Edge:    e,
			LogPath: logFileName(e),
		})
	}

	return jobs, nil
}

// logFileName derives an edge's log filename relative to the run's log
// directory, per §4.2(e)/§6.
func logFileName(e *graph.Edge) string {
	ext := ".log"
	if e.Type == graph.Binary {
		ext = ".data"
	}
	return fmt.Sprintf("l_%s-%s-%s%s", e.Source.Label, e.Target.Label, e.Name(), ext)
}

// reportEntrypoints surfaces every node with no incoming edges, at least one
// outgoing edge, and a bridged stdin: the synthetic input external producers
// should connect to.
func reportEntrypoints(g *graph.Graph) []Entrypoint {
	var out []Entrypoint
	for _, n := range g.Nodes {
		if g.InDegree(n) == 0 && g.OutDegree(n) > 0 && n.StdinName != "" {
			binding, ok := n.Ingress[n.StdinName]
			if !ok {
				continue
			}
			e, err := binding.Single()
			if err != nil {
				continue
			}
			port, ok := e.IsPort()
			if !ok {
				continue
			}
			out = append(out, Entrypoint{NodeName: n.Name, Endpoint: port})
		}
	}
	return out
}
