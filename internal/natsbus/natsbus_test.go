package natsbus

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMsg struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestTraceHeader(t *testing.T) {
	h := traceHeader(nats.Header{})

	h.Set("traceparent", "00-abc-def-01")
	h.Set("baggage", "k=v")
	assert.Equal(t, "00-abc-def-01", h.Get("traceparent"))
	assert.Equal(t, []string{"baggage", "traceparent"}, h.Keys())
}

func TestTraceHeaderNil(t *testing.T) {
	h := traceHeader(nil)

	assert.Equal(t, "", h.Get("missing"))
	assert.Empty(t, h.Keys())
	assert.NotNil(t, traceContext(&nats.Msg{}))
}

func TestNewMsgEncodesJSON(t *testing.T) {
	msg, err := newMsg(context.Background(), "xextract.test", testMsg{Name: "test", Value: 42})
	require.NoError(t, err)

	assert.Equal(t, "xextract.test", msg.Subject)
	assert.Nil(t, msg.Header, "no span in context")
	assert.JSONEq(t, `{"name":"test","value":42}`, string(msg.Data))
}

func TestNewMsgRejectsUnencodable(t *testing.T) {
	_, err := newMsg(context.Background(), "xextract.test", make(chan int))
	assert.Error(t, err)
}
