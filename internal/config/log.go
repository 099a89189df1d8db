package config

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// NewLogger returns the diagnostic logger. Verbosity above zero enables
// the V-levelled request and session traces.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)

	opts := stdr.Options{}
	if verbosity > 1 {
		opts.LogCaller = stdr.All
	}
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags), opts).WithName("chesstempo")
}
