// Package app owns the single extraction session and answers start/stop
// commands from the tray, the CLI and the NATS command subject.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/scraper"
	"github.com/ibeckermayer/xextract/internal/store"
	"github.com/ibeckermayer/xextract/internal/types"
)

// Actions accepted by Handle
const (
	ActionActivate = "activate"
	ActionStart    = "start"
	ActionStop     = "stop"
	ActionStatus   = "status"
)

// Command is an inbound request
type Command struct {
	Action string `json:"action"`
	Limit  int    `json:"limit,omitempty"`
}

// Response answers one command synchronously
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Active  bool   `json:"active"`
	State   string `json:"state"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// PageFactory opens the page a session scrolls. The returned func releases it.
type PageFactory func(ctx context.Context) (scraper.Page, func(), error)

// Store is the persistence the app needs
type Store interface {
	Active() (bool, error)
	SetActive(active bool) error
	SaveSession(r store.SessionRecord) (int64, error)
	SavePosts(sessionID int64, posts []types.Post) error
}

// Events receives session lifecycle notifications
type Events interface {
	scraper.Reporter
	Complete(state string, posts []types.Post)
	Error(message string, posts []types.Post)
}

// App holds the application state.
type App struct {
	scraper     *scraper.Scraper
	store       Store
	events      Events
	newPage     PageFactory
	snapshotDir string
	log         zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	active   bool
	starting bool
	// stop requested while the page was still opening
	pendingStop bool
	session  *scraper.Session
	done     chan struct{}
	last     scraper.Outcome
}

// Option configures an App
type Option func(*App)

// WithSnapshotDir writes a JSON snapshot of every finished collection to dir.
func WithSnapshotDir(dir string) Option {
	return func(a *App) { a.snapshotDir = dir }
}

// New creates a new App instance. The persisted active flag is read once here.
func New(sc *scraper.Scraper, st Store, events Events, newPage PageFactory, log zerolog.Logger, opts ...Option) *App {
	a := &App{
		scraper: sc,
		store:   st,
		events:  events,
		newPage: newPage,
		log:     log.With().Str("component", "app").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	active, err := st.Active()
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to read active flag")
	}
	a.active = active
	return a
}

// Handle executes one command. It never blocks on a running session.
func (a *App) Handle(ctx context.Context, cmd Command) Response {
	switch cmd.Action {
	case ActionActivate:
		return a.activate()
	case ActionStart:
		return a.start(ctx, cmd.Limit)
	case ActionStop:
		return a.stop()
	case ActionStatus:
		return a.status()
	default:
		return a.fail("Unknown action")
	}
}

// Active reports the persisted active flag
func (a *App) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Extracting reports whether a session is starting or running
func (a *App) Extracting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.extracting()
}

func (a *App) extracting() bool {
	return a.starting || a.session != nil
}

// Wait blocks until the current session finishes and returns its outcome.
// Without a running session it returns the last outcome immediately.
func (a *App) Wait(ctx context.Context) (scraper.Outcome, error) {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return scraper.Outcome{}, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, nil
}

func (a *App) activate() Response {
	if err := a.store.SetActive(true); err != nil {
		a.log.Error().Err(err).Msg("Failed to persist active flag")
		return a.fail(fmt.Sprintf("failed to activate: %v", err))
	}

	a.mu.Lock()
	a.active = true
	a.mu.Unlock()

	a.log.Info().Msg("Activated")
	return a.status()
}

func (a *App) start(ctx context.Context, limit int) Response {
	a.mu.Lock()
	if a.extracting() {
		a.mu.Unlock()
		return a.fail("Already extracting")
	}
	a.starting = true
	a.pendingStop = false
	a.done = make(chan struct{})
	done := a.done
	a.mu.Unlock()

	page, release, err := a.newPage(ctx)
	if err != nil {
		a.mu.Lock()
		a.starting = false
		a.pendingStop = false
		a.done = nil
		a.mu.Unlock()
		close(done)

		a.log.Error().Err(err).Msg("Failed to open page")
		return a.fail(fmt.Sprintf("failed to open page: %v", err))
	}

	session := a.scraper.NewSession(page, limit, a.events)

	a.mu.Lock()
	a.starting = false
	a.session = session
	if a.pendingStop {
		a.pendingStop = false
		session.Stop()
	}
	a.mu.Unlock()

	go a.run(session, release, done)

	return a.status()
}

// run owns the session for its whole life. It uses a fresh context because
// the command that started it returns immediately.
func (a *App) run(session *scraper.Session, release func(), done chan struct{}) {
	startedAt := a.now()
	out := session.Run(context.Background())
	if release != nil {
		release()
	}

	a.finish(session, startedAt, out)

	a.mu.Lock()
	a.session = nil
	a.last = out
	a.mu.Unlock()
	close(done)
}

// finish persists the collection and announces the result.
func (a *App) finish(session *scraper.Session, startedAt time.Time, out scraper.Outcome) {
	record := store.SessionRecord{
		StartedAt: startedAt,
		EndedAt:   a.now(),
		Target:    session.Limit(),
		Collected: len(out.Posts),
		State:     out.State.String(),
	}
	if out.Err != nil {
		record.Error = out.Err.Error()
	}

	id, err := a.store.SaveSession(record)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to save session")
	} else if err := a.store.SavePosts(id, out.Posts); err != nil {
		a.log.Error().Err(err).Msg("Failed to save posts")
	}

	if a.snapshotDir != "" && len(out.Posts) > 0 {
		if path, err := store.SaveSnapshot(a.snapshotDir, record.EndedAt, out.Posts); err != nil {
			a.log.Warn().Err(err).Msg("Failed to write snapshot")
		} else {
			a.log.Info().Str("path", path).Msg("Cached posts")
		}
	}

	if out.State == scraper.Errored {
		msg := "extraction failed"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		a.events.Error(msg, out.Posts)
		return
	}
	a.events.Complete(out.State.String(), out.Posts)
}

func (a *App) stop() Response {
	a.mu.Lock()
	session := a.session
	if session == nil && a.starting {
		a.pendingStop = true
		a.log.Info().Msg("Stop requested while opening page")
	}
	a.mu.Unlock()

	if session != nil {
		a.log.Info().Int("collected", session.Count()).Msg("Stop requested")
		session.Stop()
	}
	return a.status()
}

func (a *App) status() Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp := Response{Success: true, Active: a.active, State: scraper.Idle.String()}
	switch {
	case a.session != nil:
		resp.State = a.session.State().String()
		if a.session.State() == scraper.Idle {
			resp.State = scraper.Running.String()
		}
		resp.Current = a.session.Count()
		resp.Total = a.session.Limit()
	case a.starting:
		resp.State = scraper.Running.String()
	case a.last.State.Terminal():
		resp.State = a.last.State.String()
		resp.Current = len(a.last.Posts)
	}
	return resp
}

func (a *App) fail(msg string) Response {
	resp := a.status()
	resp.Success = false
	resp.Error = msg
	return resp
}

// ErrNotSuccessful wraps a failed Response as an error for callers that
// prefer error returns.
var ErrNotSuccessful = errors.New("command failed")

// Err converts an unsuccessful response into an error.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotSuccessful, r.Error)
}
