package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrorRecorder persists error messages, e.g. the store's error_log table.
type ErrorRecorder interface {
	AppendError(at time.Time, message string) error
}

// ErrorLogHook copies every error-level (and above) message into a recorder
// so the most recent failures survive a restart.
type ErrorLogHook struct {
	Recorder ErrorRecorder
}

// Run implements zerolog.Hook.
func (h ErrorLogHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.Recorder == nil || level < zerolog.ErrorLevel || level == zerolog.NoLevel {
		return
	}
	if err := h.Recorder.AppendError(time.Now(), msg); err != nil {
		// Logging from inside a hook would recurse
		fmt.Fprintf(os.Stderr, "xextract: failed to persist error log entry: %v\n", err)
	}
}
