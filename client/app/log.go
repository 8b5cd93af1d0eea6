// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
	"miauswap.org/cdex/dex"
)

const (
	maxLogRolls = 16
	// logRollSize is the log file size in KiB that triggers a roll.
	logRollSize = 32 * 1024
)

// logWriter implements an io.Writer that outputs to a rotating log file and
// optionally stdout.
type logWriter struct {
	*rotator.Rotator
	stdout io.Writer
}

// Write writes the data in p to the log file.
func (w logWriter) Write(p []byte) (n int, err error) {
	if w.stdout != nil {
		w.stdout.Write(p)
	}
	return w.Rotator.Write(p)
}

// InitLogging creates a rotating log file at logFilename, with roll files in
// the same directory, and a LoggerMaker writing to it at the lvl
// specification. closeFn closes the rotator and should be called on
// application shutdown.
func InitLogging(logFilename, lvl string, stdout, utc bool) (lm *dex.LoggerMaker, closeFn func(), err error) {
	logDirectory := filepath.Dir(logFilename)
	if err = os.MkdirAll(logDirectory, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logRotator, err := rotator.New(logFilename, logRollSize, false, maxLogRolls)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file rotator: %w", err)
	}
	w := logWriter{Rotator: logRotator}
	if stdout {
		w.stdout = os.Stdout
	} else {
		fmt.Println("Logging to", logFilename)
	}
	lm, err = dex.NewLoggerMaker(w, lvl, utc)
	if err != nil {
		logRotator.Close()
		return nil, nil, fmt.Errorf("failed to create custom logger: %w", err)
	}
	return lm, func() {
		logRotator.Close()
	}, nil
}
