package planner

import "github.com/elitr/pipeliner/pkg/graph"

// JobKind distinguishes the handful of wiring-job shapes the planner emits.
type JobKind int

const (
	// JobStdinBridge listens on Listen and feeds accepted bytes into Node's
	// child process standard input.
	JobStdinBridge JobKind = iota
	// JobStdoutCapture reads Node's captured child stdout and fans it out,
	// as a connector, to every port in Connect.
	JobStdoutCapture
	// JobProxy listens on Listen, writes what it reads to Bridge (assumed to
	// already have an external listener, per the alias-case open question),
	// and fans out whatever Bridge sends back to every port in Connect.
	JobProxy
	// JobFanout listens on Listen and fans out, as a connector, to every
	// port in Connect.
	JobFanout
	// JobEdge listens on Listen (the edge's source endpoint), connects to
	// Connect[0] (the edge's target endpoint), and tees the byte stream to
	// LogPath per Edge.Type.
	JobEdge
)

// Job is one wiring task in the runtime plan.
type Job struct {
	Kind JobKind

	// Node identifies the owning node for StdinBridge/StdoutCapture/Proxy/Fanout jobs.
	Node *graph.Node

	// Listen is the port this job listens on. Unused by JobStdoutCapture,
	// whose source is the child process's captured stdout instead.
	Listen int

	// Connect holds the ports this job connects out to, fanning out the
	// same byte stream to each.
	Connect []int

	// Bridge is, for JobProxy only, the externally-owned shared port both
	// written to and read back from.
	Bridge int

	// Edge identifies the declared edge a JobEdge wires.
	Edge *graph.Edge
	// LogPath is the on-disk tee destination for a JobEdge.
	LogPath string
}

// Entrypoint advertises a node whose stdin is not fed by any other node in
// the graph: the synthetic endpoint external producers should connect to.
type Entrypoint struct {
	NodeName string
	Endpoint int
}

// Plan is the ordered result of planning a Graph: every wiring job to launch
// plus the entrypoints to advertise.
type Plan struct {
	Jobs        []Job
	Entrypoints []Entrypoint
}
