//go:build !unix

package process

import (
	"os"
	"os/exec"
)

// decodeWaitStatus is the non-unix fallback: no unix.WaitStatus bit layout
// to decode, so we trust os.ProcessState's own portable ExitCode.
func decodeWaitStatus(state *os.ProcessState, waitErr error) (exitCode, waitStatus int) {
	if state == nil {
		return -1, -1
	}
	exitCode = state.ExitCode()
	if exitCode < 0 {
		if _, ok := waitErr.(*exec.ExitError); !ok && waitErr != nil {
			exitCode = 255
		}
	}
	return exitCode, exitCode << 8
}
