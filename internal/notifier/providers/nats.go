package providers

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/ibeckermayer/xextract/internal/natsbus"
	"github.com/ibeckermayer/xextract/internal/types"
)

// NATSSender publishes events on a subject. Progress ticks are thinned to
// perSecond; session ends and the final tick always go out.
type NATSSender struct {
	conn     *nats.Conn
	subject  string
	progress *rate.Limiter
}

// NewNATSSender creates a new NATS sender. perSecond <= 0 disables thinning.
func NewNATSSender(conn *nats.Conn, subject string, perSecond float64) *NATSSender {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &NATSSender{
		conn:     conn,
		subject:  subject,
		progress: rate.NewLimiter(limit, 1),
	}
}

// Send publishes ev unless it is a throttled progress tick.
func (s *NATSSender) Send(ctx context.Context, ev types.Event) error {
	if !s.admit(ev) {
		return nil
	}
	if err := natsbus.Publish(ctx, s.conn, s.subject, ev); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Kind, err)
	}
	return nil
}

func (s *NATSSender) admit(ev types.Event) bool {
	if ev.Final() {
		return true
	}
	return s.progress.Allow()
}
