package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ibeckermayer/xextract/internal/types"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		ev   types.Event
		want string
	}{
		{"progress", types.Event{Kind: types.EventProgress, Current: 42, Total: 100}, "42/100"},
		{"complete", types.Event{Kind: types.EventComplete, State: "completed"}, ""},
		{"error", types.Event{Kind: types.EventError}, "!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.ev))
		})
	}
}

func TestStatusLabel(t *testing.T) {
	posts := make([]types.Post, 3)

	assert.Equal(t, "● Extracting 3 of 10", StatusLabel(types.Event{Kind: types.EventProgress, Current: 3, Total: 10}))
	assert.Equal(t, "○ stopped: 3 posts", StatusLabel(types.Event{Kind: types.EventComplete, State: "stopped", Posts: posts}))
	assert.Equal(t, "○ Failed after 3 posts", StatusLabel(types.Event{Kind: types.EventError, Posts: posts}))
}
