//go:build !windows
// +build !windows

package bundle

import "syscall"

// execFunc performs the process image replacement. On success it never
// returns: the shell inherits the PID, open descriptors, environment, and
// working directory. Tests swap this out to observe the call.
var execFunc = syscall.Exec
