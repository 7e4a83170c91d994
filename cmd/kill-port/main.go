// Command kill-port frees a TCP port by killing whatever process listens on
// it. Development convenience for when a previous server run did not exit
// cleanly.
//
// Usage:
//
//	kill-port          # frees port 3000
//	kill-port 8080
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

const defaultPort = 3000

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	port := defaultPort
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 1 || p > 65535 {
			fmt.Fprintf(os.Stderr, "invalid port %q\n", args[0])
			return 1
		}
		port = p
	}

	// Best effort from here on: a port that cannot be inspected or a kill
	// that fails should not break the caller's dev loop.
	pids, err := listeningPIDs(port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to inspect port %d: %v\n", port, err)
		return 0
	}
	if len(pids) == 0 {
		fmt.Printf("port %d is already free\n", port)
		return 0
	}

	for _, pid := range pids {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			fmt.Fprintf(os.Stderr, "failed to kill pid %d: %v\n", pid, err)
			continue
		}
		fmt.Printf("killed pid %d on port %d\n", pid, port)
	}
	return 0
}

// listeningPIDs finds processes bound to the port via lsof. A port with no
// listener is not an error; lsof exits 1 with empty output for that case.
func listeningPIDs(port int) ([]int, error) {
	out, err := exec.Command("lsof", "-ti", fmt.Sprintf("tcp:%d", port)).Output()
	if err != nil {
		if len(out) == 0 {
			return nil, nil
		}
		return nil, err
	}

	var pids []int
	for _, line := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
