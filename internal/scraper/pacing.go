package scraper

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/xextract/internal/config"
)

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer draws jittered delays and scroll distances and performs the
// resulting pauses and scroll animations on the page.
type Pacer struct {
	cfg     config.PacingConfig
	page    Page
	rng     *rand.Rand
	sleep   SleepFunc
	log     zerolog.Logger
	metrics *Metrics

	// Drawn once per session so pause cadence differs between runs
	readEvery  int
	breakEvery int
}

func newPacer(cfg config.PacingConfig, page Page, rng *rand.Rand, sleep SleepFunc, log zerolog.Logger, metrics *Metrics) *Pacer {
	p := &Pacer{
		cfg:     cfg,
		page:    page,
		rng:     rng,
		sleep:   sleep,
		log:     log,
		metrics: metrics,
	}
	p.readEvery = p.between(cfg.ReadEvery)
	p.breakEvery = p.between(cfg.BreakEvery)
	return p
}

// between returns a uniform integer in the inclusive range r.
func (p *Pacer) between(r config.Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + p.rng.IntN(r.Max-r.Min+1)
}

func (p *Pacer) millis(r config.Range) time.Duration {
	return time.Duration(p.between(r)) * time.Millisecond
}

// ReadEvery is the number of accepted posts between reading pauses.
func (p *Pacer) ReadEvery() int { return p.readEvery }

// BreakEvery is the number of accepted posts between long breaks.
func (p *Pacer) BreakEvery() int { return p.breakEvery }

// Pause suspends for d.
func (p *Pacer) Pause(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// NodeDelay is the short per-node delay used in stealth mode.
func (p *Pacer) NodeDelay(ctx context.Context) error {
	return p.sleep(ctx, p.millis(p.cfg.NodeDelayMS))
}

// ReadingPause imitates reading for a few seconds, sometimes followed by a
// small scroll back up as if re-reading.
func (p *Pacer) ReadingPause(ctx context.Context) error {
	d := p.millis(p.cfg.ReadPauseMS)
	p.log.Info().Dur("pause", d).Msg("Micro-pause: reading")
	p.metrics.IncPause("read")
	if err := p.sleep(ctx, d); err != nil {
		return err
	}

	if p.rng.Float64() >= p.cfg.RereadChance {
		return nil
	}

	p.metrics.IncPause("reread")
	y, err := p.page.ScrollY(ctx)
	if err != nil {
		return err
	}
	up := float64(p.between(p.cfg.RereadDistancePX))
	target := math.Max(0, y-up)
	if err := p.ScrollTo(ctx, target, time.Duration(p.cfg.RereadScrollMS)*time.Millisecond); err != nil {
		return err
	}
	return p.sleep(ctx, p.millis(p.cfg.RereadPauseMS))
}

// Break is the long "coffee break" pause.
func (p *Pacer) Break(ctx context.Context) error {
	d := p.millis(p.cfg.BreakPauseMS)
	p.log.Info().Dur("pause", d).Msg("Long pause: taking a break")
	p.metrics.IncPause("break")
	return p.sleep(ctx, d)
}

// Scroll moves down by a random share of the viewport with an eased
// animation, then pauses so new content can render.
func (p *Pacer) Scroll(ctx context.Context) error {
	vh, err := p.page.ViewportHeight(ctx)
	if err != nil {
		return err
	}
	y, err := p.page.ScrollY(ctx)
	if err != nil {
		return err
	}

	amount := p.between(config.Range{
		Min: int(math.Floor(vh * p.cfg.ScrollMinFraction)),
		Max: int(math.Floor(vh * p.cfg.ScrollMaxFraction)),
	})
	p.metrics.IncScroll()
	if err := p.ScrollTo(ctx, y+float64(amount), p.millis(p.cfg.ScrollDurationMS)); err != nil {
		return err
	}
	return p.sleep(ctx, p.millis(p.cfg.SettlePauseMS))
}

// ScrollTo animates the vertical offset from its current value to target
// over duration, one frame at a time.
func (p *Pacer) ScrollTo(ctx context.Context, target float64, duration time.Duration) error {
	start, err := p.page.ScrollY(ctx)
	if err != nil {
		return err
	}
	distance := target - start

	frame := time.Duration(p.cfg.FrameMS) * time.Millisecond
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	steps := int(duration / frame)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		progress := float64(i) / float64(steps)
		if err := p.page.ScrollTo(ctx, start+distance*easeInOutQuad(progress)); err != nil {
			return err
		}
		if i < steps {
			if err := p.sleep(ctx, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// EmptyPageWait is used when a scan finds no post nodes at all.
func (p *Pacer) EmptyPageWait(ctx context.Context) error {
	return p.sleep(ctx, time.Duration(p.cfg.EmptyPageWaitMS)*time.Millisecond)
}

// ErrorPause is the moderate delay after a transient failure.
func (p *Pacer) ErrorPause(ctx context.Context) error {
	return p.sleep(ctx, p.millis(p.cfg.ErrorPauseMS))
}

// Backoff returns the wait after the n-th consecutive error when the site
// is rate limiting: base * factor^n, capped at the configured maximum.
func (p *Pacer) Backoff(n int) time.Duration {
	base := float64(p.cfg.BackoffBaseMS) * math.Pow(p.cfg.BackoffFactor, float64(n))
	capped := math.Min(base, float64(p.cfg.BackoffMaxMS))
	return time.Duration(capped) * time.Millisecond
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}
