package providers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/types"
)

// LogSender writes events to the log
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs progress at debug and session ends at info or error.
func (s *LogSender) Send(_ context.Context, ev types.Event) error {
	switch ev.Kind {
	case types.EventProgress:
		s.log.Debug().Int("current", ev.Current).Int("total", ev.Total).Msg("Extraction progress")
	case types.EventError:
		s.log.Error().Str("reason", ev.Message).Int("posts", len(ev.Posts)).Msg("Extraction failed")
	default:
		s.log.Info().Str("state", ev.State).Int("posts", len(ev.Posts)).Msg("Extraction complete")
	}
	return nil
}
