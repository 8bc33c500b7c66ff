//go:build linux || darwin || freebsd

package main

import "syscall"

// niceness of a raised process; negative values need CAP_SYS_NICE or root.
const niceness = -10

func raisePriority() error {
	return syscall.Setpriority(syscall.PRIO_PROCESS, 0, niceness)
}
