//go:build !windows && !linux && !darwin && !freebsd

package main

import "errors"

func raisePriority() error {
	return errors.New("raising priority is not supported on this platform")
}
