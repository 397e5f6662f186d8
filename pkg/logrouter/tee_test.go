package logrouter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTee_TextTimestampsCompleteLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.log")

	var dst bytes.Buffer
	tee, err := NewTee(&dst, "out2in", graph.Text, path)
	require.NoError(t, err)

	n, err := tee.Write([]byte("hello\nworld"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	require.NoError(t, tee.Close())

	assert.Equal(t, "hello\nworld", dst.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytesSplitLines(data)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "hello")
	assert.Contains(t, lines[1], "world")
}

func TestTee_BinaryIsRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.data")

	tee, err := NewTee(nil, "out2in", graph.Binary, path)
	require.NoError(t, err)

	payload := []byte{0x00, 0x01, 0xff}
	_, err = tee.Write(payload)
	require.NoError(t, err)
	require.NoError(t, tee.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestTee_NilDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge.log")

	tee, err := NewTee(nil, "e", graph.None, path)
	require.NoError(t, err)

	n, err := tee.Write([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, tee.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "raw", string(data))
}

func bytesSplitLines(data []byte) []string {
	var lines []string
	for _, chunk := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		lines = append(lines, string(chunk))
	}
	return lines
}
