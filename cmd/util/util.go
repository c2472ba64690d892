package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/mirrorsync/mirrorsync/pkg/errors"
)

// HandleFatalError prints the user-facing message for err and exits. Only
// the CLI layer should call this -- library code returns errors.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from a panic, prints the stack trace, and exits
// nonzero so that crashes are never silent.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "mirrorsync crashed: %v\n\n%s\n", r, debug.Stack())
		os.Exit(1)
	}
}
