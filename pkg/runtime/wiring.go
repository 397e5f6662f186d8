package runtime

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/elitr/pipeliner/pkg/logrouter"
	"github.com/elitr/pipeliner/pkg/readiness"
)

// listen binds a TCP listener on 127.0.0.1:port and accepts exactly one
// connection — every pipeliner endpoint has exactly one listener, per the
// universal wiring convention the planner relies on.
func listen(ctx context.Context, port int) (net.Conn, error) {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on %d: %w", port, err)
	}
	defer l.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.conn, r.err
	}
}

// dial waits for port to accept connections and connects to it, the
// connector half of the universal wiring convention.
func dial(ctx context.Context, port int) (net.Conn, error) {
	return readiness.WaitAndDial(ctx, fmt.Sprintf("127.0.0.1:%d", port), readiness.DefaultBackoff)
}

// BridgeStdin listens on port and copies whatever the accepted connection
// sends into nodeStdin, satisfying a JobStdinBridge.
func BridgeStdin(ctx context.Context, port int, nodeStdin io.WriteCloser) error {
	conn, err := listen(ctx, port)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer nodeStdin.Close()

	_, err = io.Copy(nodeStdin, conn)
	return err
}

// CaptureStdout dials every port in connect (the JobStdoutCapture fan-out
// targets) and copies nodeStdout to all of them at once.
func CaptureStdout(ctx context.Context, nodeStdout io.Reader, connect []int) error {
	conns, err := dialAll(ctx, connect)
	if err != nil {
		return err
	}
	defer closeAll(conns)

	_, err = io.Copy(fanoutWriter(conns), nodeStdout)
	return err
}

// RunFanout listens on port and copies the accepted connection's bytes to
// every port in connect, satisfying a no-op-turned-JobFanout egress.
func RunFanout(ctx context.Context, port int, connect []int) error {
	in, err := listen(ctx, port)
	if err != nil {
		return err
	}
	defer in.Close()

	conns, err := dialAll(ctx, connect)
	if err != nil {
		return err
	}
	defer closeAll(conns)

	_, err = io.Copy(fanoutWriter(conns), in)
	return err
}

// RunProxy implements the alias case from §4.2(c): it listens on port
// (replacing the ingress this egress used to alias), forwards whatever it
// receives to bridge — the endpoint that the aliased external producer is
// assumed to already be listening on, per the planner's documented
// assumption — and fans bridge's responses back out to every port in
// connect, replacing the original egress's direct destinations.
func RunProxy(ctx context.Context, port, bridge int, connect []int) error {
	in, err := listen(ctx, port)
	if err != nil {
		return err
	}
	defer in.Close()

	bridgeConn, err := dial(ctx, bridge)
	if err != nil {
		return err
	}
	defer bridgeConn.Close()

	outConns, err := dialAll(ctx, connect)
	if err != nil {
		return err
	}
	defer closeAll(outConns)

	errc := make(chan error, 1)
	go func() {
		_, err := io.Copy(bridgeConn, in)
		errc <- err
	}()

	_, err = io.Copy(fanoutWriter(outConns), bridgeConn)
	if err != nil {
		return err
	}
	return <-errc
}

// RunEdge implements a JobEdge: it listens on port (the edge's source
// endpoint), dials connect (the edge's target endpoint), and tees the
// forwarded bytes to logPath per edge.Type, never blocking the consumer if
// the log sink stalls.
func RunEdge(ctx context.Context, port, connect int, edge *graph.Edge, logPath string) error {
	in, err := listen(ctx, port)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dial(ctx, connect)
	if err != nil {
		return err
	}
	defer out.Close()

	tee, err := logrouter.NewTee(out, edge.Name(), edge.Type, logPath)
	if err != nil {
		return err
	}
	defer tee.Close()

	_, err = io.Copy(tee, in)
	return err
}

func dialAll(ctx context.Context, ports []int) ([]net.Conn, error) {
	conns := make([]net.Conn, 0, len(ports))
	for _, p := range ports {
		c, err := dial(ctx, p)
		if err != nil {
			closeAll(conns)
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, nil
}

func closeAll(conns []net.Conn) {
	for _, c := range conns {
		c.Close()
	}
}

func fanoutWriter(conns []net.Conn) io.Writer {
	writers := make([]io.Writer, len(conns))
	for i, c := range conns {
		writers[i] = c
	}
	return io.MultiWriter(writers...)
}
