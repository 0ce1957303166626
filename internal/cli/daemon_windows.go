//go:build windows

package cli

import (
	"os/exec"
)

// detachProcess is a no-op on Windows, where Setsid does not exist
func detachProcess(cmd *exec.Cmd) {}
