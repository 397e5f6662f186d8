// Package graph is the pipeline's own minimal directed-multigraph type: just
// enough in-degree, out-degree, topological enumeration and grouped-out-edge
// bookkeeping for the planner. It is not a general-purpose graph library.
package graph

import "fmt"

// EndpointKind tags where a byte stream rendezvous happens: the node's own
// stdin/stdout, or a numbered TCP port.
type EndpointKind struct {
	kind endpointType
	port int
}

type endpointType int

const (
	stdinKind endpointType = iota
	stdoutKind
	portKind
)

// Stdin returns the endpoint kind for a node's standard input.
func Stdin() EndpointKind { return EndpointKind{kind: stdinKind} }

// Stdout returns the endpoint kind for a node's standard output.
func Stdout() EndpointKind { return EndpointKind{kind: stdoutKind} }

// Port returns the endpoint kind for a numbered TCP rendezvous.
func Port(n int) EndpointKind { return EndpointKind{kind: portKind, port: n} }

// IsStdin reports whether the endpoint is the distinguished stdin token.
func (e EndpointKind) IsStdin() bool { return e.kind == stdinKind }

// IsStdout reports whether the endpoint is the distinguished stdout token.
func (e EndpointKind) IsStdout() bool { return e.kind == stdoutKind }

// IsPort reports whether the endpoint is a numbered port, returning its number.
func (e EndpointKind) IsPort() (int, bool) {
	if e.kind == portKind {
		return e.port, true
	}
	return 0, false
}

// Equal reports whether two endpoint kinds denote the same rendezvous.
func (e EndpointKind) Equal(o EndpointKind) bool {
	return e.kind == o.kind && (e.kind != portKind || e.port == o.port)
}

func (e EndpointKind) String() string {
	switch e.kind {
	case stdinKind:
		return "stdin"
	case stdoutKind:
		return "stdout"
	default:
		return fmt.Sprintf("%d", e.port)
	}
}

// PortBinding is the list of endpoint kinds currently bound to an ingress or
// egress name. It holds exactly one element in the declared graph; the
// planner may rewrite it to several (fan-out) or to a single new entry
// (proxying), and drains it one element at a time while wiring edges.
type PortBinding struct {
	endpoints []EndpointKind
}

// NewBinding creates a singleton binding, the only shape a declared graph may hold.
func NewBinding(e EndpointKind) *PortBinding {
	return &PortBinding{endpoints: []EndpointKind{e}}
}

// Set replaces the binding's endpoint list wholesale; used by the planner to
// rewrite a binding into a proxy or fan-out target list.
func (b *PortBinding) Set(endpoints []EndpointKind) {
	b.endpoints = endpoints
}

// List returns the binding's current endpoints; callers must not mutate it.
func (b *PortBinding) List() []EndpointKind {
	return b.endpoints
}

// Single returns the binding's sole endpoint; callers use this when they know
// the planner has not (yet) rewritten it to a fan-out list.
func (b *PortBinding) Single() (EndpointKind, error) {
	if len(b.endpoints) != 1 {
		return EndpointKind{}, fmt.Errorf("binding has %d endpoints, want 1", len(b.endpoints))
	}
	return b.endpoints[0], nil
}

// Drain removes and returns the first endpoint in the binding, the operation
// per-edge wiring uses to destructively consume a fan-out list one edge at a time.
func (b *PortBinding) Drain() (EndpointKind, error) {
	if len(b.endpoints) == 0 {
		return EndpointKind{}, fmt.Errorf("binding is empty")
	}
	e := b.endpoints[0]
	b.endpoints = b.endpoints[1:]
	return e, nil
}

// EdgeType controls how an edge's teed log is written.
type EdgeType string

const (
	Text   EdgeType = "text"
	Binary EdgeType = "binary"
	None   EdgeType = "none"
)

// Command is the opaque launch descriptor for a node's child process.
type Command struct {
	// Argv is the argument vector; Argv[0] is the executable.
	Argv []string
	// Env holds "KEY=VALUE" entries appended to the process environment.
	Env []string
	// Image, if set, launches the node inside a containerd-managed
	// container running this image instead of a bare host process.
	Image string
}

// Node is an immutable-identity pipeline component with named ingresses and
// egresses, each bound to one or more endpoints.
type Node struct {
	Name string

	Ingress      map[string]*PortBinding
	IngressOrder []string
	Egress       map[string]*PortBinding
	EgressOrder  []string

	// StdinName is the ingress name initially bound to Stdin, or "" if none.
	StdinName string
	// StdoutName is the egress name initially bound to Stdout, or "" if none.
	StdoutName string

	Command Command

	// Label is the zero-padded topological index assigned by the planner,
	// used in log filenames so directory listings approximate dataflow order.
	Label string
}

// OutEdgeCount groups a node's out-edges by egress name.
type OutEdgeCount struct {
	EgressName string
	Count      int
}

// Edge is a directed producer/consumer relation between one egress and one ingress.
type Edge struct {
	Source        *Node
	SourceEgress  string
	Target        *Node
	TargetIngress string
	Type          EdgeType
}

// Name derives the edge's log id as "{sourceEgress}2{targetIngress}".
func (e *Edge) Name() string {
	return e.SourceEgress + "2" + e.TargetIngress
}
