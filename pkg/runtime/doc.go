/*
Package runtime executes a planner.Plan: it launches each node's process
(bare host process via ProcessLauncher, or containerd-managed container via
ContainerdLauncher when the node declares an Image), runs every wiring job
the planner emitted (wiring.go), captures and tees each node's stderr
(delegating the actual tee to pkg/logrouter), and tears the whole pipeline
down on context cancellation within a bounded grace period.

Supervisor is the package's entry point; callers construct one graph.Graph,
plan it with pkg/planner, and hand both to NewSupervisor.
*/
package runtime
