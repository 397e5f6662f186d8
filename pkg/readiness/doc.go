/*
Package readiness waits for a TCP endpoint to start accepting connections.

Every connector in a wiring job dials an endpoint that some other task is
expected to listen on. Since listeners and connectors start as independent
goroutines with no ordering guarantee, a connector that dials immediately
races the listener's bind. WaitAndDial polls the address with a TCP check,
retrying on a bounded backoff, then dials for real once the probe succeeds.

	conn, err := readiness.WaitAndDial(ctx, "127.0.0.1:9101", readiness.DefaultBackoff)

The package also exposes the Checker interface used by the probe so the same
shape can back a future HTTP or exec based wait, though only the TCP checker
is wired in today.
*/
package readiness
