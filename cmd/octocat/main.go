// Command octocat is a one-of-N input selector: it concatenates bytes from
// whichever of its declared inputs the SELECT file currently names, writing
// the selected stream to stdout and a shadow ".preview" copy of every input
// regardless of selection. Grounded on the original pipeline's octocat.py.
//
// Each "*.in" file in the working directory declares one input: its first
// line is either "stdin" or a TCP port number to listen on. The currently
// selected input's name (the "*.in" file's basename) is read from a file
// named SELECT, polled every --interval; if SELECT is missing or names an
// unknown input, octocat falls back to the alphabetically first input name.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// input is one declared "*.in" source: a background goroutine copies bytes
// from it into preview (always) and, while selected, into lines (a bounded
// channel the main select loop drains to stdout).
type input struct {
	name    string
	preview string
	port    int // 0 means stdin
	lines   chan []byte

	selected func() bool
}

func main() {
	interval := flag.Duration("interval", 500*time.Millisecond, "how often to re-read SELECT")
	flag.Parse()

	if err := run(*interval); err != nil {
		fmt.Fprintf(os.Stderr, "octocat: %v\n", err)
		os.Exit(1)
	}
}

func run(interval time.Duration) error {
	inputs, err := loadInputs()
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no *.in files found")
	}

	current := readSelect(inputs)
	setSelected(inputs, current)

	for _, in := range inputs {
		go in.serve()
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case data := <-inputs[current].lines:
			out.Write(data)
			out.Flush()
		case <-ticker.C:
			next := readSelect(inputs)
			if next != current {
				drain(inputs[current])
				setSelected(inputs, next)
				current = next
			}
		}
	}
}

// drain discards whatever is already queued for an input that just lost
// selection, so bytes buffered while it was still selected are never
// delivered after the switch — the deterministic discard-on-switch behavior
// the original pipeline exhibited by abandoning the old queue outright.
func drain(in *input) {
	for {
		select {
		case <-in.lines:
		default:
			return
		}
	}
}

func setSelected(inputs map[string]*input, name string) {
	for n, in := range inputs {
		selected := n == name
		in.selected = func() bool { return selected }
	}
}

func loadInputs() (map[string]*input, error) {
	matches, err := filepath.Glob("*.in")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	inputs := make(map[string]*input, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		spec := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])

		name := strings.TrimSuffix(filepath.Base(path), ".in")
		preview := strings.TrimSuffix(path, ".in") + ".preview"

		in := &input{name: name, preview: preview, lines: make(chan []byte, 64)}
		if spec == "stdin" {
			in.port = 0
		} else {
			port, err := strconv.Atoi(spec)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid input spec %q", path, spec)
			}
			in.port = port
		}
		inputs[name] = in
	}
	return inputs, nil
}

// readSelect reads the currently named input from SELECT, falling back to
// the first input (by name) when SELECT is missing or names an unknown input.
func readSelect(inputs map[string]*input) string {
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)

	data, err := os.ReadFile("SELECT")
	if err == nil {
		name := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
		if _, ok := inputs[name]; ok {
			return name
		}
	}
	return names[0]
}

func (in *input) serve() {
	preview, err := os.Create(in.preview)
	if err != nil {
		fmt.Fprintf(os.Stderr, "octocat: open preview %s: %v\n", in.preview, err)
		return
	}
	defer preview.Close()

	if in.port == 0 {
		in.copyFrom(os.Stdin, preview)
		return
	}

	l, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", in.port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "octocat: listen %d: %v\n", in.port, err)
		return
	}
	defer l.Close()

	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		in.copyFrom(conn, preview)
		conn.Close()
	}
}

func (in *input) copyFrom(r interface{ Read([]byte) (int, error) }, preview *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			preview.Write(chunk)

			if in.selected != nil && in.selected() {
				select {
				case in.lines <- chunk:
				default: // consumer is behind; drop rather than block the producer
				}
			}
		}
		if err != nil {
			return
		}
	}
}
