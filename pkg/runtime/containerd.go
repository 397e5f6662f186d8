package runtime

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
)

const (
	// DefaultNamespace is the containerd namespace pipeliner runs nodes under.
	DefaultNamespace = "pipeliner"

	// DefaultSocketPath is the default containerd socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"
)

// ContainerdLauncher launches nodes that declare a Command.Image as
// containerd-managed containers instead of bare host processes, trimmed
// from a cluster-wide container CRUD surface down to the single
// pull-create-start-stop lifecycle one pipeline node needs.
type ContainerdLauncher struct {
	client    *containerd.Client
	namespace string
}

// NewContainerdLauncher connects to the containerd socket at socketPath
// (DefaultSocketPath if empty).
func NewContainerdLauncher(socketPath string) (*ContainerdLauncher, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd: %w", err)
	}

	return &ContainerdLauncher{client: client, namespace: DefaultNamespace}, nil
}

// Close closes the containerd client connection.
func (l *ContainerdLauncher) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// Launch pulls cmd.Image if not already present, creates a container named
// after the node, and starts it with its stdio streamed through pipes the
// returned Handle exposes.
func (l *ContainerdLauncher) Launch(ctx context.Context, name string, cmd Command) (Handle, error) {
	ctx = namespaces.WithNamespace(ctx, l.namespace)

	image, err := l.client.GetImage(ctx, cmd.Image)
	if err != nil {
		image, err = l.client.Pull(ctx, cmd.Image, containerd.WithPullUnpack)
		if err != nil {
			return nil, fmt.Errorf("pull image %s: %w", cmd.Image, err)
		}
	}

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithEnv(cmd.Env),
	}
	if len(cmd.Argv) > 0 {
		opts = append(opts, oci.WithProcessArgs(cmd.Argv...))
	}

	container, err := l.client.NewContainer(
		ctx,
		name,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(name+"-snapshot", image),
		containerd.WithNewSpec(opts...),
	)
	if err != nil {
		return nil, fmt.Errorf("create container %s: %w", name, err)
	}

	// The handle's context is not cancelled with ctx, so Terminate, Kill and
	// Wait still reach containerd during shutdown.
	h := &containerHandle{ctx: context.WithoutCancel(ctx), container: container}

	var stdinR io.Reader
	if cmd.BridgeStdin {
		r, w := io.Pipe()
		stdinR = r
		h.stdin = w
	}

	var stdoutW io.Writer
	if cmd.BridgeStdout {
		r, w := io.Pipe()
		stdoutW = w
		h.stdout = r
	}

	stderrR, stderrW := io.Pipe()
	h.stderr = stderrR

	task, err := container.NewTask(ctx, cio.NewCreator(cio.WithStreams(stdinR, stdoutW, stderrW)))
	if err != nil {
		container.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("create task for %s: %w", name, err)
	}
	h.task = task

	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		container.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("start task for %s: %w", name, err)
	}

	return h, nil
}

type containerHandle struct {
	ctx       context.Context
	container containerd.Container
	task      containerd.Task

	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (h *containerHandle) Stdin() io.WriteCloser { return h.stdin }
func (h *containerHandle) Stdout() io.Reader     { return h.stdout }
func (h *containerHandle) Stderr() io.Reader     { return h.stderr }

func (h *containerHandle) Wait() error {
	statusC, err := h.task.Wait(h.ctx)
	if err != nil {
		return err
	}
	status := <-statusC
	h.task.Delete(h.ctx)
	h.container.Delete(h.ctx, containerd.WithSnapshotCleanup)
	if status.ExitCode() != 0 {
		return fmt.Errorf("container task exited with code %d", status.ExitCode())
	}
	return nil
}

// Kill force-stops the container's task. Shutdown first tries a graceful
// SIGTERM through Terminate and only calls Kill once the grace window in
// process.go's shutdownGrace has elapsed.
func (h *containerHandle) Kill() error {
	return h.task.Kill(h.ctx, syscall.SIGKILL)
}

// Terminate sends SIGTERM to the container's task, mirroring
// processHandle.Terminate for the graceful leg of shutdown.
func (h *containerHandle) Terminate() error {
	return h.task.Kill(h.ctx, syscall.SIGTERM)
}

// StopTimeout is a graceful-stop bound for container tasks. Supervisor does
// not consult it: it escalates to Kill after shutdownGrace.
const StopTimeout = 10 * time.Second
