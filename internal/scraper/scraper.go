package scraper

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/config"
	"github.com/ibeckermayer/xextract/internal/types"
)

// Scraper creates extraction sessions with shared limits, pacing and metrics
type Scraper struct {
	ext     config.ExtractionConfig
	pacing  config.PacingConfig
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time
	sleep   SleepFunc
	seed    uint64
	seeded  bool
	counter atomic.Uint64
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithClock replaces the wall clock used for deadlines and relative times.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithSleep replaces how pauses are waited out.
func WithSleep(sleep SleepFunc) Option {
	return func(s *Scraper) { s.sleep = sleep }
}

// WithSeed makes every session's jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Scraper) {
		s.seed = seed
		s.seeded = true
	}
}

// WithMetrics shares a metrics bundle, e.g. one exposed over HTTP.
func WithMetrics(m *Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// New creates a new scraper
func New(ext config.ExtractionConfig, pacing config.PacingConfig, log zerolog.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		ext:    ext,
		pacing: pacing,
		log:    log,
		now:    time.Now,
		sleep:  Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Metrics returns the collectors shared by all sessions.
func (s *Scraper) Metrics() *Metrics { return s.metrics }

// NormalizeLimit maps a requested count onto the supported range.
func (s *Scraper) NormalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.ext.DefaultLimit
	}
	if limit > s.ext.MaxLimit {
		limit = s.ext.MaxLimit
	}
	return limit
}

// Timeout returns the wall-clock budget for a session of the given size.
func (s *Scraper) Timeout(limit int) time.Duration {
	if limit > s.ext.LargeTargetThreshold {
		return time.Duration(s.ext.LongTimeoutMinutes) * time.Minute
	}
	return time.Duration(s.ext.ShortTimeoutMinutes) * time.Minute
}

// NewSession prepares an idle session. reporter may be nil.
func (s *Scraper) NewSession(page Page, limit int, reporter Reporter) *Session {
	limit = s.NormalizeLimit(limit)
	n := s.counter.Add(1)

	seed := s.seed
	if !s.seeded {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, n))

	log := s.log.With().Uint64("session", n).Logger()

	return &Session{
		page:         page,
		reporter:     reporter,
		pacer:        newPacer(s.pacing, page, rng, s.sleep, log, s.metrics),
		assembler:    NewAssembler(log, s.now),
		dedup:        NewDedupIndex(),
		log:          log,
		metrics:      s.metrics,
		now:          s.now,
		limit:        limit,
		maxAttempts:  limit * s.ext.AttemptMultiplier,
		timeout:      s.Timeout(limit),
		stealth:      limit > s.ext.StealthThreshold,
		errorCeiling: s.ext.ErrorCeiling,
		posts:        make([]types.Post, 0, limit),
		retries:      make(map[string]int),
	}
}
