//go:build !windows

package supervisor

import "syscall"

// terminate asks the child's process group to exit with SIGTERM. The exit
// itself is observed asynchronously by the output reader; there is no
// SIGKILL escalation if the request is ignored.
func terminate(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}
