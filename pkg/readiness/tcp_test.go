package readiness

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPChecker_Ready(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	go func() {
		conn, _ := l.Accept()
		if conn != nil {
			conn.Close()
		}
	}()

	c := NewTCPChecker(l.Addr().String())
	res := c.Check(context.Background())
	assert.True(t, res.Ready)
	assert.Equal(t, CheckTypeTCP, c.Type())
}

func TestTCPChecker_Unreachable(t *testing.T) {
	c := NewTCPChecker("127.0.0.1:1")
	c.WithTimeout(200 * time.Millisecond)
	res := c.Check(context.Background())
	assert.False(t, res.Ready)
	assert.NotEmpty(t, res.Message)
}

func TestWaitAndDial_SucceedsOnceListening(t *testing.T) {
	addr := "127.0.0.1:19405"

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		time.Sleep(100 * time.Millisecond)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		defer l.Close()
		// Accept both the readiness probe and the real connection.
		for i := 0; i < 2; i++ {
			conn, _ := l.Accept()
			if conn != nil {
				conn.Close()
			}
		}
	}()

	conn, err := WaitAndDial(ctx, addr, Backoff{Initial: 20 * time.Millisecond, Max: 100 * time.Millisecond})
	require.NoError(t, err)
	conn.Close()
}

func TestWaitAndDial_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := WaitAndDial(ctx, "127.0.0.1:19406", DefaultBackoff)
	assert.Error(t, err)
}

func TestBackoff_Next(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: 4 * time.Second}
	assert.Equal(t, time.Second, b.next(0))
	assert.Equal(t, 2*time.Second, b.next(time.Second))
	assert.Equal(t, 4*time.Second, b.next(2*time.Second))
	assert.Equal(t, 4*time.Second, b.next(3*time.Second))
}
