package graph

import "fmt"

// DeclarationError is raised while a graph is being assembled: addLocalNode
// or addEdge rejected the call before any node or edge was recorded.
type DeclarationError struct {
	Node string
	Port string
	Msg  string
}

func (e *DeclarationError) Error() string {
	if e.Node == "" {
		return e.Msg
	}
	if e.Port == "" {
		return fmt.Sprintf("node %s: %s", e.Node, e.Msg)
	}
	return fmt.Sprintf("node %s, port %s: %s", e.Node, e.Port, e.Msg)
}

func errUnknownEgress(node, port string) error {
	return &DeclarationError{Node: node, Port: port, Msg: "no such egress"}
}

func errUnknownIngress(node, port string) error {
	return &DeclarationError{Node: node, Port: port, Msg: "no such ingress"}
}

func errEmptyNode(node string) error {
	return &DeclarationError{Node: node, Msg: "node declares neither ingress nor egress"}
}

func errUnsupportedEdgeType(t EdgeType) error {
	return &DeclarationError{Msg: fmt.Sprintf("unsupported edge type: %q", t)}
}
