// Command rainbow-splitter demultiplexes tab-separated multi-language lines
// read from stdin onto one persistent TCP socket per language, grounded on
// the original pipeline's rainbow_splitter.py.
//
// Usage: rainbow-splitter LANG... -- PORT...
//
// Each input line is "<date> <time> <lang0>\t<sentence0>\t<lang1>\t<sentence1>\t...";
// the leading "<date> <time>" becomes the timestamp prefixed onto whichever
// sentences match a language this invocation was told to split out.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rainbow-splitter: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	langs, ports, err := parseArgs(args)
	if err != nil {
		return err
	}

	sockets := make(map[string]net.Conn, len(langs))
	for i, lang := range langs {
		conn, err := dialNoDelay(ports[i])
		if err != nil {
			return fmt.Errorf("connect language %s to port %d: %w", lang, ports[i], err)
		}
		defer conn.Close()
		sockets[lang] = conn
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		splitLine(scanner.Text(), sockets)
	}
	return scanner.Err()
}

// parseArgs splits "LANG... -- PORT..." (or the bare "LANG... PORT..." shape
// the Python original used, where the argument list is halved) into parallel
// language and port slices.
func parseArgs(args []string) ([]string, []int, error) {
	for i, a := range args {
		if a == "--" {
			langs, ports := args[:i], parsePorts(args[i+1:])
			if len(langs) != len(ports) {
				return nil, nil, fmt.Errorf("expected an equal number of languages and ports, got %d and %d", len(langs), len(ports))
			}
			return langs, ports, nil
		}
	}
	if len(args)%2 != 0 {
		return nil, nil, fmt.Errorf("expected an equal number of languages and ports, got %d args", len(args))
	}
	half := len(args) / 2
	return args[:half], parsePorts(args[half:]), nil
}

func parsePorts(s []string) []int {
	ports := make([]int, len(s))
	for i, p := range s {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ports[i] = n
	}
	return ports
}

func dialNoDelay(port int) (net.Conn, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return conn, nil
}

// splitLine strips the leading "<date> <time>" timestamp, then walks the
// tab-separated fields as alternating <lang>, <sentence> pairs, forwarding each recognized
// language's sentence, timestamp-prefixed, to its socket.
func splitLine(line string, sockets map[string]net.Conn) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 {
		return
	}
	timestamp := fields[0] + " " + fields[1]
	rest := fields[2]

	packets := strings.Split(rest, "\t")
	if len(packets) == 0 {
		return
	}

	for i := 0; i+1 < len(packets); i += 2 {
		lang := packets[i]
		sentence := packets[i+1]
		conn, ok := sockets[lang]
		if !ok {
			continue
		}
		fmt.Fprintf(conn, "%s %s\n", timestamp, sentence)
	}
}
