package timeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

const (
	RefreshInterval = time.Second
	// MaxSpan bounds how far back a timeline reaches, in buckets of one minute.
	MaxSpan = 24 * time.Hour
)

// Window picks the timeline's start. A zero Start slides with now.
type Window struct {
	Start time.Time
	Span  time.Duration
}

func (w Window) Validate(now time.Time) error {
	if w.Span <= 0 || w.Span > MaxSpan {
		return fmt.Errorf("timeline: span %s out of range (0, %s]", w.Span, MaxSpan)
	}
	if !w.Start.IsZero() && now.Sub(w.Start) > MaxSpan {
		return fmt.Errorf("timeline: start %s is more than %s ago", w.Start.Format(time.RFC3339), MaxSpan)
	}
	return nil
}

// StartAt never reaches back more than MaxSpan from now, so a fixed start
// slides once it gets that old.
func (w Window) StartAt(now time.Time) time.Time {
	start := now.Add(-w.Span)
	if !w.Start.IsZero() {
		start = w.Start
	}
	if oldest := now.Add(-MaxSpan); start.Before(oldest) {
		return oldest
	}
	return start
}

type Source interface {
	Records() []models.VoteRecord
	Changed() <-chan struct{}
}

// Refresher keeps the latest timeline, rebuilt on every ledger change and on
// every tick so the current minute stays live.
type Refresher struct {
	src      Source
	options  []int
	window   Window
	interval time.Duration
	now      func() time.Time
	current  atomic.Pointer[Timeline]
	l        *zap.Logger
}

func NewRefresher(src Source, options []int, window Window, l *zap.Logger) *Refresher {
	r := &Refresher{
		src:      src,
		options:  options,
		window:   window,
		interval: RefreshInterval,
		now:      time.Now,
		l:        l,
	}
	r.Refresh()
	return r
}

func (r *Refresher) Refresh() Timeline {
	now := r.now()
	t := Build(r.src.Records(), r.options, r.window.StartAt(now), now)
	r.current.Store(&t)
	return t
}

func (r *Refresher) Current() Timeline {
	if t := r.current.Load(); t != nil {
		return *t
	}
	return r.Refresh()
}

func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.l.Debug("timeline refresher started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Refresh()
		case <-r.src.Changed():
			t := r.Refresh()
			r.l.Debug("timeline rebuilt after ledger change",
				zap.Int("buckets", len(t.Buckets)),
				zap.Int("max_count", t.MaxCount))
		}
	}
}
