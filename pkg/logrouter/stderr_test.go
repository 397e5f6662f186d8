package logrouter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureStderr_WritesLogAndTail(t *testing.T) {
	dir := t.TempDir()
	r := strings.NewReader("first\nsecond\n")

	var tail bytes.Buffer
	err := CaptureStderr(r, "worker", "01", dir, &tail)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "01-worker.err"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")

	assert.Equal(t, "worker | first\nworker | second\n", tail.String())
}

func TestCaptureStderr_NilTail(t *testing.T) {
	dir := t.TempDir()
	r := strings.NewReader("quiet\n")

	err := CaptureStderr(r, "worker", "02", dir, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "02-worker.err"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "quiet")
}
