//go:build !unix

package pdf

import "os/exec"

// configureProcessGroup keeps the default exec.CommandContext behavior (Process.Kill).
func configureProcessGroup(cmd *exec.Cmd) {}
