package ledger

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
	"github.com/jaam8/vote_tracker/internal/metrics"
	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

const sinkSize = 64

// Run subscribes to live votes, backfills once, then applies live events
// until ctx is done. A failed subscription marks the ledger stale, is
// re-established with backoff, and the gap is caught up from the last seen
// block.
func (l *Ledger) Run(ctx context.Context) error {
	sink := make(chan models.VoteEvent, sinkSize)
	sub, err := l.subscribe(ctx, sink)
	if err != nil {
		return err
	}
	defer func() {
		sub.Unsubscribe()
	}()

	if err := l.Backfill(ctx); err != nil {
		l.l.Warn("backfill failed, continuing with live votes only", zap.Error(err))
	}
	l.backfillOnce.Do(func() { close(l.backfilled) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-sink:
			l.Apply(metrics.SourceLive, ev)
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			l.m.SubscriptionError()
			l.l.Error("live vote feed failed", zap.Error(errors.Join(models.ErrSubscription, err)))
			l.setStale(true)
			sub.Unsubscribe()

			next, err := l.subscribe(ctx, sink)
			if err != nil {
				return err
			}
			sub = next
			l.setStale(false)
			l.catchUp(ctx)
		}
	}
}

func (l *Ledger) subscribe(ctx context.Context, sink chan<- models.VoteEvent) (Subscription, error) {
	for {
		sub, err := backoff.Retry(ctx, func() (Subscription, error) {
			sub, err := l.feed.SubscribeVotes(ctx, sink)
			if err != nil {
				l.l.Warn("failed to subscribe to vote events", zap.Error(err))
				return nil, err
			}
			return sub, nil
		}, backoff.WithBackOff(l.newBackOff()))
		if err == nil {
			l.l.Info("subscribed to vote events")
			return sub, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.l.Error("giving up on subscription attempt round, starting over", zap.Error(err))
	}
}

// catchUp re-reads logs missed while the feed was down.
func (l *Ledger) catchUp(ctx context.Context) {
	last := l.LastBlock()
	if last == 0 {
		_ = l.Backfill(ctx)
		return
	}
	head, err := l.feed.HeadBlock(ctx)
	if err != nil {
		l.l.Error("failed to get head block for catch-up", zap.Error(err))
		return
	}
	if head < last {
		return
	}
	_ = l.fetch(ctx, metrics.SourceBackfill, last, head)
}
