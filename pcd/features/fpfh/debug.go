package fpfh

import (
	"io"
	"log"
	"os"
)

var (
	opsLogger  = newLogger("[fpfh] ", os.Stderr)
	diagLogger *log.Logger
)

// SetLogWriters configures the logging streams for the fpfh package.
// Pass nil for any writer to disable that stream.
func SetLogWriters(ops, diag io.Writer) {
	opsLogger = newLogger("[fpfh] ", ops)
	diagLogger = newLogger("[fpfh] ", diag)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (rejected input, internal errors).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs to the diag stream (sizes and chosen code paths).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}
