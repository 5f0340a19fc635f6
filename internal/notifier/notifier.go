package notifier

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/notifier/providers"
	"github.com/ibeckermayer/xextract/internal/types"
)

// Notifier fans session events out to every sender. Delivery is best-effort:
// a failing or absent receiver never affects the extraction.
type Notifier struct {
	senders []Sender
	log     zerolog.Logger
	now     func() time.Time
}

// Sender delivers one event
type Sender interface {
	Send(ctx context.Context, ev types.Event) error
}

// New creates a new notifier with the given senders
func New(log zerolog.Logger, senders ...Sender) *Notifier {
	return &Notifier{senders: senders, log: log, now: time.Now}
}

// NewFromConfig always logs events and also publishes them when nc is set.
func NewFromConfig(cfg config.EventsConfig, nc *nats.Conn, log zerolog.Logger) *Notifier {
	n := New(log, providers.NewLogSender(log))
	if nc != nil {
		n.Add(providers.NewNATSSender(nc, cfg.EventSubject, cfg.ProgressPerSecond))
	}
	return n
}

// Add registers another sender
func (n *Notifier) Add(s Sender) {
	n.senders = append(n.senders, s)
}

// Progress reports the collection after an accepted post.
func (n *Notifier) Progress(current, total int, posts []types.Post) {
	n.dispatch(types.Event{Kind: types.EventProgress, Current: current, Total: total, Posts: posts})
}

// Complete reports a session that ended without a fatal error.
func (n *Notifier) Complete(state string, posts []types.Post) {
	n.dispatch(types.Event{Kind: types.EventComplete, State: state, Posts: posts})
}

// Error reports a fatal session error along with the partial collection.
func (n *Notifier) Error(message string, posts []types.Post) {
	n.dispatch(types.Event{Kind: types.EventError, State: "errored", Message: message, Posts: posts})
}

func (n *Notifier) dispatch(ev types.Event) {
	ev.At = n.now()
	ctx := context.Background()
	for _, s := range n.senders {
		if err := s.Send(ctx, ev); err != nil {
			n.log.Debug().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to deliver event")
		}
	}
}
