package logrouter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CaptureStderr reads r line by line until EOF, timestamping each line and
// writing it to "{logDir}/{label}-{nodeName}.err" — the Go equivalent of the
// original pipeline's `2> >(ts '...' > logdir/label-name.err)` redirection.
// When tail is non-nil (the supervisor is not running --silent) each line is
// additionally written there, prefixed with the node name, so node stderr
// can be followed live the way `tail -F *.err` did.
func CaptureStderr(r io.Reader, nodeName, label, logDir string, tail io.Writer) error {
	path := filepath.Join(logDir, fmt.Sprintf("%s-%s.err", label, nodeName))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open stderr log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintf(f, "%s %s\n", nowTimestamp(), line)
		if tail != nil {
			fmt.Fprintf(tail, "%s | %s\n", nodeName, line)
		}
	}
	return scanner.Err()
}
