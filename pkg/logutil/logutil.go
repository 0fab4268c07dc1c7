// Package logutil provides logging utilities.
//
// Loggers are silent by default; the program entry point enables them by
// calling SetOutput or SetOutputFile when the user asks for a log file.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

var out io.Writer = io.Discard

var loggers []*log.Logger

// GetLogger gets a logger with the given prefix. The prefix identifies the
// component doing the logging, like "[eval] ".
func GetLogger(prefix string) *log.Logger {
	logger := log.New(out, prefix, log.LstdFlags)
	loggers = append(loggers, logger)
	return logger
}

// SetOutput redirects the output of all loggers, including those created
// by future GetLogger calls, to the given writer.
func SetOutput(newOut io.Writer) {
	out = newOut
	for _, logger := range loggers {
		logger.SetOutput(out)
	}
}

// SetOutputFile redirects the output of all loggers to the named file,
// creating it if needed. An empty path discards all output.
func SetOutputFile(path string) error {
	if path == "" {
		SetOutput(io.Discard)
		return nil
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	SetOutput(file)
	return nil
}
