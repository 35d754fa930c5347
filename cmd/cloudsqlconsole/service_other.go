//go:build !windows

package main

// Service-manager integration only exists on Windows.

func maybeRunAsService() bool { return false }

func handleServiceCommand(string) bool { return false }
