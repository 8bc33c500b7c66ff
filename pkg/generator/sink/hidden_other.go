//go:build !windows

package sink

func setHidden(string, bool) error { return nil }
