// Package main provides the teamboard CLI: it serves the HTTP API and runs
// maintenance commands against the store.
package main

import (
	"errors"
	"os"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to the process exit status: problems with the
// input or the data are user errors, everything else is a system error.
func exitCode(err error) int {
	if errors.Is(err, errViolations) {
		return exitUserError
	}
	switch types.KindOf(err) {
	case types.KindNotFound, types.KindInvalidArgument, types.KindForbidden, types.KindConflict, types.KindUnauthorized:
		return exitUserError
	}
	return exitSysError
}
