//go:build windows

package supervisor

import "syscall"

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const PROCESS_TERMINATE = 0x0001

// terminate ends a Windows child by PID. Windows has no SIGTERM; this is the
// closest "please exit" available, and a process that already vanished
// counts as success.
func terminate(pid int) error {
	if pid <= 0 {
		return nil
	}
	ret, _, err := procOpenProcess.Call(uintptr(PROCESS_TERMINATE), 0, uintptr(uint32(pid)))
	if ret == 0 {
		// Opening can fail because the process already exited; treat that as done.
		_ = err
		return nil
	}
	handle := syscall.Handle(ret)
	defer func() { _, _, _ = procCloseHandle.Call(uintptr(handle)) }()

	ok, _, err := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ok == 0 {
		return err
	}
	return nil
}
