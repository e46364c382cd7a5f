//go:build !unix

package solverclient

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; WaitDelay
// still bounds the wait on inherited pipes
func killProcessGroup(cmd *exec.Cmd) {}
