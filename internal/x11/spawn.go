package x11

import (
	"fmt"
	"os"
	"os/exec"
)

// Spawn starts a program expected to map a window on this backend's X
// server and returns its pid. The child is not waited on synchronously;
// clients are long-lived.
func (b *Backend) Spawn(command string, args ...string) (int, error) {
	cmd := exec.Command(command, args...)
	if b.display != "" {
		// Point the child at the same server this backend watches.
		cmd.Env = append(os.Environ(), "DISPLAY="+b.display)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %q: %w", command, err)
	}

	pid := cmd.Process.Pid
	// Reap the child whenever it exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
