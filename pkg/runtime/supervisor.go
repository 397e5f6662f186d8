package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/elitr/pipeliner/pkg/log"
	"github.com/elitr/pipeliner/pkg/logrouter"
	"github.com/elitr/pipeliner/pkg/metrics"
	"github.com/elitr/pipeliner/pkg/planner"
	"github.com/rs/zerolog"
)

// Supervisor launches every node in a planned graph, wires the planner's
// jobs together, captures and tees stderr, and tears the whole process group
// down when its context is cancelled or when a node on a sole-producer path
// for an externally advertised entrypoint exits abnormally (§7). A failure
// in a node off that path is logged and counted but does not cancel the
// rest of the plan.
type Supervisor struct {
	graph   *graph.Graph
	plan    *planner.Plan
	logsDir string
	silent  bool

	containerd func() (*ContainerdLauncher, error)

	mu      sync.Mutex
	handles map[string]Handle
	running int32
}

// NewSupervisor creates a supervisor for plan over graph g, writing logs
// under logsDir. containerdDial is called each time a node that declares an
// Image is launched; pass nil to disable container-backed nodes entirely.
func NewSupervisor(g *graph.Graph, plan *planner.Plan, logsDir string, silent bool, containerdDial func() (*ContainerdLauncher, error)) *Supervisor {
	return &Supervisor{
		graph:      g,
		plan:       plan,
		logsDir:    logsDir,
		silent:     silent,
		containerd: containerdDial,
		handles:    make(map[string]Handle),
	}
}

// Run launches every node and wiring job, then blocks until ctx is
// cancelled or a critical failure cancels the derived runCtx internally,
// whichever comes first. On either it sends every running node SIGTERM,
// waits up to shutdownGrace, then SIGKILLs anything still alive.
func (s *Supervisor) Run(ctx context.Context) error {
	logger := log.WithComponent("supervisor")

	if err := os.MkdirAll(s.logsDir, 0755); err != nil {
		metrics.RegisterComponent("supervisor", false, err.Error())
		return fmt.Errorf("create logs dir: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	critical := s.criticalNodes()

	var tail io.Writer
	if !s.silent {
		tail = os.Stderr
	}

	var wg sync.WaitGroup
	errc := make(chan error, len(s.graph.Nodes)+len(s.plan.Jobs))

	for _, n := range s.graph.Nodes {
		h, err := s.launch(runCtx, n)
		if err != nil {
			metrics.RegisterComponent("supervisor", false, err.Error())
			cancel()
			return fmt.Errorf("launch node %s: %w", n.Name, err)
		}
		s.mu.Lock()
		s.handles[n.Name] = h
		s.mu.Unlock()
		metrics.NodesRunning.Inc()
		atomic.AddInt32(&s.running, 1)

		wg.Add(1)
		go func(n *graph.Node, h Handle) {
			defer wg.Done()
			go func() {
				if err := logrouter.CaptureStderr(h.Stderr(), n.Name, n.Label, s.logsDir, tail); err != nil && runCtx.Err() == nil {
					logger.Warn().Err(err).Str("node", n.Name).Msg("stderr capture ended")
				}
			}()
			err := h.Wait()
			metrics.NodesRunning.Dec()
			atomic.AddInt32(&s.running, -1)
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			metrics.NodeExitsTotal.WithLabelValues(n.Name, outcome).Inc()
			if err != nil {
				logger.Error().Err(err).Str("node", n.Name).Msg("node exited with error")
				errc <- fmt.Errorf("node %s: %w", n.Name, err)
				if critical[n] {
					cancel()
				}
			} else {
				logger.Info().Str("node", n.Name).Msg("node exited")
			}
		}(n, h)
	}

	for _, job := range s.plan.Jobs {
		wg.Add(1)
		go func(job planner.Job) {
			defer wg.Done()
			if err := s.runJob(runCtx, job); err != nil && runCtx.Err() == nil {
				logger.Error().Err(err).Msg("wiring job failed")
				errc <- err
				if jobIsCritical(critical, job) {
					cancel()
				}
			}
		}(job)
	}

	metrics.RegisterComponent("supervisor", true, "running")

	<-runCtx.Done()
	s.shutdown(logger)

	wg.Wait()
	close(errc)

	var firstErr error
	for err := range errc {
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		metrics.RegisterComponent("supervisor", false, firstErr.Error())
	} else {
		metrics.RegisterComponent("supervisor", true, "exited")
	}
	return firstErr
}

// criticalNodes returns the set of nodes reachable, forward along declared
// edges, from an externally advertised entrypoint, including the
// entrypoints themselves. The planner rejects more than one producer into
// any ingress, so every node downstream of an entrypoint is necessarily on
// that entrypoint's sole-producer path (§7): its failure cuts the
// entrypoint's only route through the pipeline and must tear the rest down.
// A node outside this set (e.g. a self-contained producer with no ingress
// at all) can fail without affecting any advertised entrypoint.
func (s *Supervisor) criticalNodes() map[*graph.Node]bool {
	critical := make(map[*graph.Node]bool)
	var queue []*graph.Node
	for _, ep := range s.plan.Entrypoints {
		for _, n := range s.graph.Nodes {
			if n.Name == ep.NodeName && !critical[n] {
				critical[n] = true
				queue = append(queue, n)
			}
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range s.graph.OutEdges(n) {
			if !critical[e.Target] {
				critical[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return critical
}

// jobIsCritical reports whether job's failure should cancel the rest of the
// plan: true if the node it is wiring (or, for a JobEdge, either endpoint of
// the edge it is wiring) is in critical.
func jobIsCritical(critical map[*graph.Node]bool, job planner.Job) bool {
	if job.Node != nil {
		return critical[job.Node]
	}
	if job.Edge != nil {
		return critical[job.Edge.Source] || critical[job.Edge.Target]
	}
	return true
}

func (s *Supervisor) launch(ctx context.Context, n *graph.Node) (Handle, error) {
	cmd := Command{
		Argv:         n.Command.Argv,
		Env:          n.Command.Env,
		Image:        n.Command.Image,
		BridgeStdin:  n.StdinName != "",
		BridgeStdout: n.StdoutName != "",
	}

	if cmd.Image != "" {
		if s.containerd == nil {
			return nil, fmt.Errorf("node %s declares image %s but container launching is disabled", n.Name, cmd.Image)
		}
		cd, err := s.containerd()
		if err != nil {
			return nil, err
		}
		return cd.Launch(ctx, n.Name, cmd)
	}

	return NewProcessLauncher().Launch(ctx, n.Name, cmd)
}

// ActiveNodes reports how many node processes are currently running. It
// backs metrics.EdgeSampler's periodic re-assertion of the NodesRunning
// gauge, independent of the Inc/Dec calls Run already makes around each
// node's lifetime.
func (s *Supervisor) ActiveNodes() int {
	return int(atomic.LoadInt32(&s.running))
}

func (s *Supervisor) runJob(ctx context.Context, job planner.Job) error {
	metrics.JobsStarted.WithLabelValues(jobKindName(job.Kind)).Inc()

	switch job.Kind {
	case planner.JobStdinBridge:
		h := s.handleFor(job.Node)
		return BridgeStdin(ctx, job.Listen, h.Stdin())
	case planner.JobStdoutCapture:
		h := s.handleFor(job.Node)
		return CaptureStdout(ctx, h.Stdout(), job.Connect)
	case planner.JobProxy:
		return RunProxy(ctx, job.Listen, job.Bridge, job.Connect)
	case planner.JobFanout:
		return RunFanout(ctx, job.Listen, job.Connect)
	case planner.JobEdge:
		return RunEdge(ctx, job.Listen, job.Connect[0], job.Edge, filepath.Join(s.logsDir, job.LogPath))
	default:
		return fmt.Errorf("unknown job kind %d", job.Kind)
	}
}

func (s *Supervisor) handleFor(n *graph.Node) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[n.Name]
}

// shutdown sends every live node SIGTERM, waits up to shutdownGrace for them
// to exit on their own, then SIGKILLs whatever remains.
func (s *Supervisor) shutdown(logger zerolog.Logger) {
	logger.Info().Msg("shutting down pipeline")
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ShutdownDuration)

	s.mu.Lock()
	handles := make([]Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		if t, ok := h.(interface{ Terminate() error }); ok {
			t.Terminate()
		}
	}

	deadline := time.Now().Add(shutdownGrace)
	for atomic.LoadInt32(&s.running) > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	for _, h := range handles {
		h.Kill()
	}
}

func jobKindName(k planner.JobKind) string {
	switch k {
	case planner.JobStdinBridge:
		return "stdin_bridge"
	case planner.JobStdoutCapture:
		return "stdout_capture"
	case planner.JobProxy:
		return "proxy"
	case planner.JobFanout:
		return "fanout"
	case planner.JobEdge:
		return "edge"
	default:
		return "unknown"
	}
}
