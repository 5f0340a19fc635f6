package scraper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/types"
)

// Page is the live feed a session reads from and scrolls.
type Page interface {
	// VisiblePosts returns the rendered, non-hidden post nodes in DOM order.
	VisiblePosts(ctx context.Context) ([]*goquery.Selection, error)
	ScrollY(ctx context.Context) (float64, error)
	ViewportHeight(ctx context.Context) (float64, error)
	ScrollTo(ctx context.Context, y float64) error
}

// Reporter receives a progress event after every accepted post. The posts
// slice is a read-only view of the collection so far.
type Reporter interface {
	Progress(current, total int, posts []types.Post)
}

// State is the lifecycle state of a session
type State int32

const (
	Idle State = iota
	Running
	Completed
	Stopped
	Errored
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Errored:
		return "errored"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether the session has finished.
func (s State) Terminal() bool { return s >= Completed }

// Outcome is what a finished session hands back. Posts is always the full
// collection gathered, even when the session did not complete.
type Outcome struct {
	State State
	Posts []types.Post
	Err   error
}

// Session is one extraction run against a page. It is owned by the
// goroutine calling Run; other goroutines may only call Stop, State and
// Count.
type Session struct {
	page      Page
	reporter  Reporter
	pacer     *Pacer
	assembler *Assembler
	dedup     *DedupIndex
	log       zerolog.Logger
	metrics   *Metrics
	now       func() time.Time

	limit        int
	maxAttempts  int
	timeout      time.Duration
	stealth      bool
	errorCeiling int

	state atomic.Int32
	stop  atomic.Bool
	count atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc

	posts             []types.Post
	retries           map[string]int
	consecutiveErrors int
	sinceRead         int
	sinceBreak        int
}

// Limit is the normalized target count.
func (s *Session) Limit() int { return s.limit }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Count returns how many posts have been accepted so far.
func (s *Session) Count() int { return int(s.count.Load()) }

// Stop requests a cooperative stop. Pending waits are cut short and the
// loop exits at its next check.
func (s *Session) Stop() {
	s.stop.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) stopping(ctx context.Context) bool {
	return s.stop.Load() || ctx.Err() != nil
}

// Run drives the session until it reaches a terminal state.
func (s *Session) Run(parent context.Context) Outcome {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return Outcome{State: s.State(), Err: ErrSessionStarted}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	if s.stop.Load() {
		cancel()
	}

	s.log.Info().
		Int("target", s.limit).
		Bool("stealth", s.stealth).
		Int("read_every", s.pacer.ReadEvery()).
		Int("break_every", s.pacer.BreakEvery()).
		Msg("Starting extraction")

	out := s.loop(ctx)
	out.Posts = s.posts
	if out.Posts == nil {
		out.Posts = []types.Post{}
	}

	s.state.Store(int32(out.State))
	s.metrics.IncSession(out.State)

	if out.Err != nil {
		s.log.Error().Err(out.Err).Str("state", out.State.String()).Int("posts", len(out.Posts)).Msg("Extraction aborted")
	} else {
		s.log.Info().Str("state", out.State.String()).Int("posts", len(out.Posts)).Msg("Extraction finished")
	}
	return out
}

func (s *Session) loop(ctx context.Context) Outcome {
	deadline := s.now().Add(s.timeout)
	attempts := 0

	for len(s.posts) < s.limit && attempts < s.maxAttempts {
		if s.stopping(ctx) {
			s.log.Info().Msg("Extraction stopped by user")
			return Outcome{State: Stopped}
		}
		if s.now().After(deadline) {
			s.log.Warn().Dur("timeout", s.timeout).Msg("Extraction timeout reached")
			return Outcome{State: TimedOut}
		}

		attempts++
		err := s.pass(ctx)
		if err == nil {
			continue
		}
		if s.stopping(ctx) {
			continue
		}

		s.consecutiveErrors++
		s.log.Error().Err(err).Int("consecutive", s.consecutiveErrors).Msg("Extraction error")

		switch {
		case isRateLimit(err):
			s.metrics.IncError("rate_limit")
			wait := s.pacer.Backoff(s.consecutiveErrors)
			s.log.Warn().Dur("backoff", wait).Msg("Rate limit detected, backing off")
			_ = s.pacer.Pause(ctx, wait)
		case s.consecutiveErrors >= s.errorCeiling:
			s.metrics.IncError("fatal")
			return Outcome{State: Errored, Err: fmt.Errorf("%w: %w", ErrTooManyErrors, err)}
		default:
			s.metrics.IncError("transient")
			_ = s.pacer.ErrorPause(ctx)
		}
	}

	if s.stopping(ctx) && len(s.posts) < s.limit {
		return Outcome{State: Stopped}
	}
	return Outcome{State: Completed}
}

// pass performs one scan of the visible nodes followed by a scroll.
func (s *Session) pass(ctx context.Context) error {
	nodes, err := s.page.VisiblePosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to query posts: %w", err)
	}
	if len(nodes) == 0 {
		s.log.Warn().Msg("No posts found on page")
		return s.pacer.EmptyPageWait(ctx)
	}

	for _, node := range nodes {
		if len(s.posts) >= s.limit || s.stopping(ctx) {
			break
		}
		if s.stealth {
			if err := s.pacer.NodeDelay(ctx); err != nil {
				return err
			}
		}
		if err := s.consider(ctx, node); err != nil {
			return err
		}
	}

	if len(s.posts) >= s.limit || s.stopping(ctx) {
		return nil
	}
	return s.pacer.Scroll(ctx)
}

// consider assembles a node and, if it is new, accepts it.
func (s *Session) consider(ctx context.Context, node *goquery.Selection) error {
	key := nodeKey(node)
	retry := s.retries[key]
	if key != "" && retry > MaxAssembleRetries {
		s.metrics.IncSkipped("exhausted")
		return nil
	}

	post, ok := s.assembler.Assemble(node, retry)
	if !ok {
		if key != "" {
			s.retries[key] = retry + 1
		}
		s.metrics.IncSkipped("incomplete")
		return nil
	}
	if post.Text == "" {
		s.metrics.IncSkipped("empty")
		return nil
	}
	if !s.dedup.ShouldKeep(post) {
		s.metrics.IncSkipped("duplicate")
		return nil
	}

	s.accept(post)
	return s.afterAccept(ctx)
}

func (s *Session) accept(post types.Post) {
	s.posts = append(s.posts, post)
	s.count.Store(int64(len(s.posts)))
	s.consecutiveErrors = 0
	s.sinceRead++
	s.sinceBreak++
	s.metrics.IncAccepted()
	s.log.Debug().Int("current", len(s.posts)).Int("total", s.limit).Msg("Extracted post")

	if s.reporter != nil {
		n := len(s.posts)
		s.reporter.Progress(n, s.limit, s.posts[:n:n])
	}
}

// afterAccept applies the reading and break cadence.
func (s *Session) afterAccept(ctx context.Context) error {
	if s.sinceRead >= s.pacer.ReadEvery() {
		s.sinceRead = 0
		if err := s.pacer.ReadingPause(ctx); err != nil {
			return err
		}
	}
	if s.stealth && s.sinceBreak >= s.pacer.BreakEvery() {
		s.sinceBreak = 0
		if err := s.pacer.Break(ctx); err != nil {
			return err
		}
	}
	return nil
}
