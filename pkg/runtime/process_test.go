package runtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessLauncher_BridgedStdio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := NewProcessLauncher()
	h, err := l.Launch(ctx, "cat", Command{
		Argv:         []string{"cat"},
		BridgeStdin:  true,
		BridgeStdout: true,
	})
	require.NoError(t, err)
	require.NotNil(t, h.Stdin())
	require.NotNil(t, h.Stdout())
	require.NotNil(t, h.Stderr())

	_, err = h.Stdin().Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, h.Stdin().Close())

	out, err := io.ReadAll(h.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	assert.NoError(t, h.Wait())
}

func TestProcessLauncher_UnbridgedStdio(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := NewProcessLauncher()
	h, err := l.Launch(ctx, "true", Command{Argv: []string{"true"}})
	require.NoError(t, err)
	assert.Nil(t, h.Stdin())
	assert.Nil(t, h.Stdout())
	assert.NoError(t, h.Wait())
}

func TestProcessLauncher_EmptyArgv(t *testing.T) {
	l := NewProcessLauncher()
	_, err := l.Launch(context.Background(), "empty", Command{})
	assert.Error(t, err)
}

func TestProcessLauncher_KillTerminatesGroup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := NewProcessLauncher()
	h, err := l.Launch(ctx, "sleep", Command{Argv: []string{"sleep", "30"}})
	require.NoError(t, err)

	require.NoError(t, h.Kill())
	err = h.Wait()
	assert.Error(t, err)
}
