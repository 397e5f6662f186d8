package readiness

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker probes whether a TCP address is accepting connections.
type TCPChecker struct {
	Address string
	Timeout time.Duration
}

// NewTCPChecker creates a new TCP readiness checker.
func NewTCPChecker(address string) *TCPChecker {
	return &TCPChecker{
		Address: address,
		Timeout: 5 * time.Second,
	}
}

// Check performs the TCP probe.
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return Result{
			Ready:     false,
			Message:   fmt.Sprintf("connection failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Ready:     true,
		Message:   fmt.Sprintf("TCP connection to %s successful", t.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the checker's kind.
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}

// WithTimeout sets the per-probe dial timeout.
func (t *TCPChecker) WithTimeout(timeout time.Duration) *TCPChecker {
	t.Timeout = timeout
	return t
}

// WaitAndDial polls address until a TCP probe succeeds, then dials it for
// real and returns the connection. Retries use Backoff and never probe more
// often than once per Backoff.Initial, satisfying the runtime's requirement
// that producers wait for consumers with at least a 1s gap between probes.
func WaitAndDial(ctx context.Context, address string, backoff Backoff) (net.Conn, error) {
	checker := NewTCPChecker(address)
	wait := time.Duration(0)
	for {
		if res := checker.Check(ctx); res.Ready {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", address)
		}

		wait = backoff.next(wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
