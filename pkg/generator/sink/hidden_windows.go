//go:build windows

package sink

import "syscall"

// setHidden toggles the hidden attribute so in-progress files stay out of
// Explorer listings.
func setHidden(path string, hidden bool) error {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attr := uint32(syscall.FILE_ATTRIBUTE_NORMAL)
	if hidden {
		attr = syscall.FILE_ATTRIBUTE_HIDDEN
	}
	return syscall.SetFileAttributes(p, attr)
}
