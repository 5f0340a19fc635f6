// Package natsbus provides typed NATS publish/subscribe/request helpers
// with OpenTelemetry trace propagation.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// traceHeader exposes message headers to the OTel propagator. Inject needs
// a non-nil header; Extract works on any message.
type traceHeader nats.Header

var _ propagation.TextMapCarrier = traceHeader(nil)

func (h traceHeader) Get(key string) string { return nats.Header(h).Get(key) }

func (h traceHeader) Set(key, val string) { nats.Header(h).Set(key, val) }

// Keys lists header names in sorted order.
func (h traceHeader) Keys() []string {
	return slices.Sorted(maps.Keys(h))
}

func traceContext(msg *nats.Msg) context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), traceHeader(msg.Header))
}

// Connect dials url with reconnects enabled and a client name.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

func newMsg[T any](ctx context.Context, subject string, v T) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", subject, err)
	}
	msg := &nats.Msg{
		Subject: subject,
		Header:  nats.Header{},
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, traceHeader(msg.Header))
	if len(msg.Header) == 0 {
		// Nothing to propagate; publish without a header block
		msg.Header = nil
	}
	return msg, nil
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	msg, err := newMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler that deserializes JSON messages of type T.
// Malformed messages are dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		ctx := traceContext(msg)
		handler(ctx, v)
	})
}

// Request sends a JSON-encoded request and decodes the response. The wait is
// bounded by ctx's deadline, or nats.DefaultTimeout without one.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	msg, err := newMsg(ctx, subject, req)
	if err != nil {
		return zero, err
	}

	timeout := nats.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	resp, err := nc.RequestMsg(msg, timeout)
	if err != nil {
		return zero, fmt.Errorf("request on %s failed: %w", subject, err)
	}

	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, fmt.Errorf("failed to decode %s reply: %w", subject, err)
	}
	return result, nil
}

// Serve answers requests on subject with handler's JSON-encoded reply.
// Requests that do not decode get onBadRequest's reply instead.
func Serve[Req, Resp any](nc *nats.Conn, subject string, handler func(context.Context, Req) Resp, onBadRequest func(error) Resp) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		ctx := traceContext(msg)

		var resp Resp
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			resp = onBadRequest(err)
		} else {
			resp = handler(ctx, req)
		}

		if msg.Reply == "" {
			return
		}
		reply, err := newMsg(ctx, msg.Reply, resp)
		if err != nil {
			return
		}
		_ = msg.RespondMsg(reply)
	})
}
