package runtime

import (
	"context"
	"io"
)

// Handle is a running node process, however it was launched: a bare host
// process or a containerd-managed container. Stdin/Stdout are non-nil only
// when the owning node bridges that stream (§4.2(d)); callers must check
// before using them.
type Handle interface {
	// Stdin is the process's standard input, or nil if the node does not
	// bridge stdin.
	Stdin() io.WriteCloser
	// Stdout is the process's standard output, or nil if the node does not
	// bridge stdout.
	Stdout() io.Reader
	// Stderr is always captured, regardless of bridging.
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its error, if any.
	Wait() error
	// Kill sends the process (or container task) a termination signal.
	Kill() error
}

// Launcher starts a node's child process or container.
type Launcher interface {
	Launch(ctx context.Context, name string, cmd Command) (Handle, error)
}

// Command is the runtime's own view of a node's launch descriptor: argv,
// environment, whether to bridge stdin/stdout, and an optional container
// image. It mirrors graph.Command plus the two bridging flags the supervisor
// derives from the node's StdinName/StdoutName.
type Command struct {
	Argv []string
	Env  []string
	Image string

	BridgeStdin  bool
	BridgeStdout bool
}
