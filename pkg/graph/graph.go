package graph

import "fmt"

// Graph is a directed multigraph of Nodes connected by Edges. It is the
// declaration-time structure; the planner rewrites Node bindings in place
// but the graph itself is immutable after planning (§5).
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	byName map[string]*Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byName: make(map[string]*Node)}
}

// endpointFromSpec resolves a declared literal binding: "stdin", "stdout",
// or a numeric port id.
func endpointFromSpec(spec any) (EndpointKind, error) {
	switch v := spec.(type) {
	case string:
		switch v {
		case "stdin":
			return Stdin(), nil
		case "stdout":
			return Stdout(), nil
		default:
			return EndpointKind{}, fmt.Errorf("invalid port literal %q", v)
		}
	case int:
		return Port(v), nil
	default:
		return EndpointKind{}, fmt.Errorf("invalid port literal %v", spec)
	}
}

// AddLocalNode declares a node with the given ingress/egress port specs
// ("stdin", "stdout", or a numeric port) and launch command. It rejects a
// node with neither ingresses nor egresses, or more than one ingress/egress
// bound to stdin/stdout respectively.
func (g *Graph) AddLocalNode(name string, ingressSpec, egressSpec map[string]any, cmd Command) (*Node, error) {
	if len(ingressSpec) == 0 && len(egressSpec) == 0 {
		return nil, errEmptyNode(name)
	}

	n := &Node{
		Name:    name,
		Ingress: make(map[string]*PortBinding, len(ingressSpec)),
		Egress:  make(map[string]*PortBinding, len(egressSpec)),
		Command: cmd,
	}

	for port, spec := range ingressSpec {
		e, err := endpointFromSpec(spec)
		if err != nil {
			return nil, &DeclarationError{Node: name, Port: port, Msg: err.Error()}
		}
		if e.IsStdin() {
			if n.StdinName != "" {
				return nil, &DeclarationError{Node: name, Msg: "more than one ingress bound to stdin"}
			}
			n.StdinName = port
		}
		n.Ingress[port] = NewBinding(e)
		n.IngressOrder = append(n.IngressOrder, port)
	}

	for port, spec := range egressSpec {
		e, err := endpointFromSpec(spec)
		if err != nil {
			return nil, &DeclarationError{Node: name, Port: port, Msg: err.Error()}
		}
		if e.IsStdout() {
			if n.StdoutName != "" {
				return nil, &DeclarationError{Node: name, Msg: "more than one egress bound to stdout"}
			}
			n.StdoutName = port
		}
		n.Egress[port] = NewBinding(e)
		n.EgressOrder = append(n.EgressOrder, port)
	}

	g.Nodes = append(g.Nodes, n)
	g.byName[name] = n
	return n, nil
}

// AddEdge declares a `(source, sourceEgress) -> (target, targetIngress)` edge.
func (g *Graph) AddEdge(source *Node, sourceEgress string, target *Node, targetIngress string, edgeType EdgeType) (*Edge, error) {
	if _, ok := source.Egress[sourceEgress]; !ok {
		return nil, errUnknownEgress(source.Name, sourceEgress)
	}
	if _, ok := target.Ingress[targetIngress]; !ok {
		return nil, errUnknownIngress(target.Name, targetIngress)
	}
	switch edgeType {
	case Text, Binary, None:
	default:
		return nil, errUnsupportedEdgeType(edgeType)
	}

	e := &Edge{Source: source, SourceEgress: sourceEgress, Target: target, TargetIngress: targetIngress, Type: edgeType}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// AddSimpleEdge is shorthand for AddEdge when source has exactly one egress
// and target exactly one ingress.
func (g *Graph) AddSimpleEdge(source, target *Node, edgeType EdgeType) (*Edge, error) {
	if len(source.Egress) != 1 {
		return nil, &DeclarationError{Node: source.Name, Msg: "does not have exactly one output; use AddEdge and specify the output"}
	}
	if len(target.Ingress) != 1 {
		return nil, &DeclarationError{Node: target.Name, Msg: "does not have exactly one input; use AddEdge and specify the input"}
	}

	var sourceEgress, targetIngress string
	for name := range source.Egress {
		sourceEgress = name
	}
	for name := range target.Ingress {
		targetIngress = name
	}
	return g.AddEdge(source, sourceEgress, target, targetIngress, edgeType)
}

// InDegree returns the number of edges targeting node.
func (g *Graph) InDegree(node *Node) int {
	n := 0
	for _, e := range g.Edges {
		if e.Target == node {
			n++
		}
	}
	return n
}

// OutDegree returns the number of edges sourced from node.
func (g *Graph) OutDegree(node *Node) int {
	n := 0
	for _, e := range g.Edges {
		if e.Source == node {
			n++
		}
	}
	return n
}

// InEdges returns the edges targeting node, in declaration order.
func (g *Graph) InEdges(node *Node) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Target == node {
			out = append(out, e)
		}
	}
	return out
}

// OutEdges returns the edges sourced from node, in declaration order.
func (g *Graph) OutEdges(node *Node) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == node {
			out = append(out, e)
		}
	}
	return out
}

// OutEdgesByEgress groups node's out-edges by egress name, preserving the
// order in which each egress name was first seen.
func (g *Graph) OutEdgesByEgress(node *Node) []OutEdgeCount {
	var order []string
	counts := make(map[string]int)
	for _, e := range g.OutEdges(node) {
		if _, ok := counts[e.SourceEgress]; !ok {
			order = append(order, e.SourceEgress)
		}
		counts[e.SourceEgress]++
	}
	out := make([]OutEdgeCount, 0, len(order))
	for _, name := range order {
		out = append(out, OutEdgeCount{EgressName: name, Count: counts[name]})
	}
	return out
}

// TopologicalOrder enumerates the graph's nodes via Kahn's algorithm, ties
// broken by insertion order. The graph is expected to be acyclic through its
// edges; the only "cycle" this core supports is a single node's own egress
// and ingress sharing a port number, which the planner breaks with a proxy
// rather than relying on topological order.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	indegree := make(map[*Node]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n] = 0
	}
	for _, e := range g.Edges {
		indegree[e.Target]++
	}

	var ready []*Node
	for _, n := range g.Nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var order []*Node
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, e := range g.OutEdges(n) {
			indegree[e.Target]--
			if indegree[e.Target] == 0 {
				ready = append(ready, e.Target)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("graph has a cycle through its edges; pipeliner only supports the single-node port-alias cycle broken by proxying")
	}
	return order, nil
}
