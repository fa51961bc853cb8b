//go:build unix

package process

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// decodeWaitStatus extracts an exit code and raw wait status from a reaped
// child's ProcessState, grounded directly on vsrinivas-fuchsia's use of
// golang.org/x/sys/unix to interpret wait status bits rather than trusting
// os.ProcessState's own (lossy, platform-papered-over) ExitCode alone.
func decodeWaitStatus(state *os.ProcessState, waitErr error) (exitCode, waitStatus int) {
	if state == nil {
		return -1, -1
	}
	if ws, ok := state.Sys().(unix.WaitStatus); ok {
		waitStatus = int(ws)
		switch {
		case ws.Exited():
			exitCode = ws.ExitStatus()
		case ws.Signaled():
			exitCode = 128 + int(ws.Signal())
		default:
			exitCode = state.ExitCode()
		}
		return exitCode, waitStatus
	}
	exitCode = state.ExitCode()
	if exitCode < 0 {
		if _, ok := waitErr.(*exec.ExitError); !ok && waitErr != nil {
			exitCode = 255
		}
	}
	return exitCode, exitCode << 8
}
