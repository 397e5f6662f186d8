package logrouter

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/elitr/pipeliner/pkg/graph"
	"github.com/elitr/pipeliner/pkg/metrics"
)

// timestampFormat matches the original pipeline's `ts` stamp format.
const timestampFormat = "[2006-01-02 15:04:05]"

// queueDepth bounds how many pending writes a Tee will hold before it starts
// dropping to the log rather than applying backpressure to the consumer.
const queueDepth = 256

// Tee wraps dst, a consumer-facing io.Writer, and additionally streams every
// write to an on-disk log file in the background. It never blocks on the log
// file: once its internal queue is full, further log writes are dropped
// (and counted) until the writer goroutine catches up.
type Tee struct {
	dst    writerCloser
	edge   string
	format graph.EdgeType

	file  *os.File
	queue chan []byte
	done  chan struct{}
}

type writerCloser interface {
	Write(p []byte) (int, error)
}

// NewTee opens path and returns a Tee that forwards writes to dst (which may
// be nil for a sink-only tee) while logging a copy of every write to path,
// formatted per edgeType.
func NewTee(dst writerCloser, edgeName string, edgeType graph.EdgeType, path string) (*Tee, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}

	t := &Tee{
		dst:    dst,
		edge:   edgeName,
		format: edgeType,
		file:   f,
		queue:  make(chan []byte, queueDepth),
		done:   make(chan struct{}),
	}
	go t.drain()
	return t, nil
}

// Write forwards p to the wrapped destination (if any), then best-effort
// queues a copy for the log tee. It always reports len(p) written once the
// destination write succeeds, regardless of whether the log copy was queued.
func (t *Tee) Write(p []byte) (int, error) {
	if t.dst != nil {
		if _, err := t.dst.Write(p); err != nil {
			return 0, err
		}
	}

	cp := make([]byte, len(p))
	copy(cp, p)

	select {
	case t.queue <- cp:
	default:
		metrics.LogTeeDroppedTotal.WithLabelValues(t.edge).Inc()
	}

	metrics.EdgeBytesTotal.WithLabelValues(t.edge).Add(float64(len(p)))
	return len(p), nil
}

// Close stops accepting new writes, flushes any buffered partial line, and
// closes the log file. It does not close the wrapped destination.
func (t *Tee) Close() error {
	close(t.queue)
	<-t.done
	return t.file.Close()
}

func (t *Tee) drain() {
	defer close(t.done)

	var partial []byte
	for chunk := range t.queue {
		switch t.format {
		case graph.Text:
			partial = t.writeText(partial, chunk)
		default:
			t.file.Write(chunk)
		}
	}
	if len(partial) > 0 {
		t.writeLine(partial)
	}
}

// writeText timestamps each complete line in chunk, carrying any trailing
// partial line forward in buf for the next call to complete.
func (t *Tee) writeText(buf, chunk []byte) []byte {
	buf = append(buf, chunk...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		t.writeLine(buf[:i])
		buf = buf[i+1:]
	}
	return buf
}

func (t *Tee) writeLine(line []byte) {
	fmt.Fprintf(t.file, "%s %s\n", time.Now().Format(timestampFormat), line)
}

// nowTimestamp formats the current time the same way Tee stamps text lines,
// shared with CaptureStderr's line-by-line stderr capture.
func nowTimestamp() string {
	return time.Now().Format(timestampFormat)
}
