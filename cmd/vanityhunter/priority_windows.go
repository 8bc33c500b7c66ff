//go:build windows

package main

import (
	"syscall"
	"unsafe"
)

const (
	highPriorityClass        = 0x00000080
	aboveNormalPriorityClass = 0x00008000

	processPowerThrottling               = 4
	processPowerThrottlingExecutionSpeed = 0x1
)

var (
	kernel32                  = syscall.NewLazyDLL("kernel32.dll")
	procGetCurrentProcess     = kernel32.NewProc("GetCurrentProcess")
	procSetPriorityClass      = kernel32.NewProc("SetPriorityClass")
	procSetProcessInformation = kernel32.NewProc("SetProcessInformation")
)

// raisePriority moves the process to HIGH_PRIORITY_CLASS, falling back to
// ABOVE_NORMAL, and opts it out of Efficiency Mode throttling.
func raisePriority() error {
	err := setPriorityClass(highPriorityClass)
	if err != nil {
		err = setPriorityClass(aboveNormalPriorityClass)
	}
	// Windows 10 1709+ only; older systems keep their throttling.
	_ = disablePowerThrottling()
	return err
}

func setPriorityClass(class uintptr) error {
	handle, _, _ := procGetCurrentProcess.Call()
	ret, _, err := procSetPriorityClass.Call(handle, class)
	if ret == 0 {
		return err
	}
	return nil
}

func disablePowerThrottling() error {
	type powerThrottlingState struct {
		Version     uint32
		ControlMask uint32
		StateMask   uint32
	}
	state := powerThrottlingState{
		Version:     1,
		ControlMask: processPowerThrottlingExecutionSpeed,
		StateMask:   0, // 0 = disable throttling
	}

	handle, _, _ := procGetCurrentProcess.Call()
	ret, _, err := procSetProcessInformation.Call(
		handle,
		processPowerThrottling,
		uintptr(unsafe.Pointer(&state)),
		unsafe.Sizeof(state),
	)
	if ret == 0 {
		return err
	}
	return nil
}
