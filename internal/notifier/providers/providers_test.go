package providers

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/types"
)

func TestNATSSenderThrottlesProgress(t *testing.T) {
	s := NewNATSSender(nil, "xextract.events", 0.001)

	assert.True(t, s.admit(types.Event{Kind: types.EventProgress, Current: 1, Total: 10}))
	assert.False(t, s.admit(types.Event{Kind: types.EventProgress, Current: 2, Total: 10}))
	assert.True(t, s.admit(types.Event{Kind: types.EventProgress, Current: 10, Total: 10}), "final tick always goes out")
	assert.True(t, s.admit(types.Event{Kind: types.EventComplete}))
	assert.True(t, s.admit(types.Event{Kind: types.EventError}))
}

func TestNATSSenderUnthrottled(t *testing.T) {
	s := NewNATSSender(nil, "xextract.events", 0)
	for i := 1; i < 50; i++ {
		assert.True(t, s.admit(types.Event{Kind: types.EventProgress, Current: i, Total: 100}))
	}
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf).Level(zerolog.DebugLevel))

	require.NoError(t, s.Send(context.Background(), types.Event{Kind: types.EventProgress, Current: 1, Total: 2}))
	require.NoError(t, s.Send(context.Background(), types.Event{Kind: types.EventComplete, State: "completed"}))
	require.NoError(t, s.Send(context.Background(), types.Event{Kind: types.EventError, Message: "boom"}))

	out := buf.String()
	assert.Contains(t, out, `"message":"Extraction progress"`)
	assert.Contains(t, out, `"state":"completed"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestSenderFunc(t *testing.T) {
	var got types.Event
	f := SenderFunc(func(_ context.Context, ev types.Event) error {
		got = ev
		return nil
	})
	require.NoError(t, f.Send(context.Background(), types.Event{Kind: types.EventComplete}))
	assert.Equal(t, types.EventComplete, got.Kind)
}
