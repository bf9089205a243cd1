package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/bundleworks/appshim/pkg/bundle"
)

func main() {
	// Set up panic recovery to return a specific exit code
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(bundle.ExitPanic)
		}
	}()

	// All arguments pass through untouched; the shim only interprets them
	// when APPSHIM_LAUNCHER_CLI=1
	// Note: LaunchWithLogLevel calls os.Exit directly on error
	bundle.LaunchWithLogLevel(os.Args[1:], "", "")
}
