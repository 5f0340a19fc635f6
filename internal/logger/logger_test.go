package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/config"
)

type memRecorder struct {
	messages []string
	fail     bool
}

func (m *memRecorder) AppendError(_ time.Time, message string) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.messages = append(m.messages, message)
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "xextract.log")

	log, err := New(config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)
	log.Info().Str("component", "test").Msg("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello file"`)
	assert.Contains(t, string(data), `"app":"xextract"`)
}

func TestErrorLogHookRecordsOnlyErrors(t *testing.T) {
	rec := &memRecorder{}
	log := zerolog.New(&bytes.Buffer{}).Hook(ErrorLogHook{Recorder: rec})

	log.Info().Msg("fine")
	log.Warn().Msg("careful")
	log.Error().Msg("Too many consecutive errors")

	assert.Equal(t, []string{"Too many consecutive errors"}, rec.messages)
}

func TestErrorLogHookSurvivesRecorderFailure(t *testing.T) {
	rec := &memRecorder{fail: true}
	log := zerolog.New(&bytes.Buffer{}).Hook(ErrorLogHook{Recorder: rec})

	assert.NotPanics(t, func() { log.Error().Msg("boom") })
}

func TestComponentAddsField(t *testing.T) {
	var buf bytes.Buffer
	l := Component(zerolog.New(&buf), "scraper")
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"scraper"`)
}
