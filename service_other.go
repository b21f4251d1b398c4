//go:build !windows

// Package main: FocusWatch runs as a plain foreground process on
// non-Windows platforms, so the service entry points are stubs.
package main

// RunAsService reports false so FocusWatch starts in foreground mode.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand reports false; install/uninstall and the other
// service commands are only recognized on Windows.
func HandleServiceCommand(args []string) bool {
	return false
}
