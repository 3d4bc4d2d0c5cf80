package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/metrics"
	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

// Subscription matches go-ethereum's event.Subscription.
type Subscription interface {
	Err() <-chan error
	Unsubscribe()
}

// Feed is the read side of the chain.
type Feed interface {
	HeadBlock(ctx context.Context) (uint64, error)
	// VoteEvents returns VoteCasted events in [from, to], in block order.
	VoteEvents(ctx context.Context, from, to uint64) ([]models.VoteEvent, error)
	SubscribeVotes(ctx context.Context, sink chan<- models.VoteEvent) (Subscription, error)
}

// Store persists observed logs so history outside the backfill window
// survives restarts.
type Store interface {
	SaveVote(pollIndex uint64, rec models.VoteRecord) error
	ListVotes(pollIndex uint64) ([]models.VoteRecord, error)
}

// Ledger holds the deduplicated vote records of one poll.
type Ledger struct {
	pollIndex      uint64
	backfillBlocks uint64
	feed           Feed
	store          Store
	m              *metrics.Metrics
	l              *zap.Logger
	newBackOff     func() backoff.BackOff

	mu        sync.RWMutex
	records   []models.VoteRecord
	index     map[models.VoteKey]int
	txs       map[common.Hash]struct{}
	synthetic map[common.Hash]int
	tally     models.Tally
	voted     map[common.Address]int
	lastBlock uint64
	stale     bool

	changed      chan struct{}
	backfilled   chan struct{}
	backfillOnce sync.Once
}

// New creates a ledger for pollIndex. store may be nil.
func New(pollIndex, backfillBlocks uint64, feed Feed, store Store, m *metrics.Metrics, l *zap.Logger) *Ledger {
	return &Ledger{
		pollIndex:      pollIndex,
		backfillBlocks: backfillBlocks,
		feed:           feed,
		store:          store,
		m:              m,
		l:              l.With(zap.Uint64("poll_index", pollIndex)),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		index:      make(map[models.VoteKey]int),
		txs:        make(map[common.Hash]struct{}),
		synthetic:  make(map[common.Hash]int),
		tally:      make(models.Tally),
		voted:      make(map[common.Address]int),
		changed:    make(chan struct{}, 1),
		backfilled: make(chan struct{}),
	}
}

// Restore loads previously persisted records. It is a no-op without a store.
func (l *Ledger) Restore() error {
	if l.store == nil {
		return nil
	}
	records, err := l.store.ListVotes(l.pollIndex)
	if err != nil {
		return fmt.Errorf("ledger: failed to restore votes: %w", err)
	}
	events := make([]models.VoteEvent, len(records))
	for i, rec := range records {
		events[i] = models.VoteEvent{
			PollIndex:   l.pollIndex,
			OptionIndex: rec.OptionIndex,
			Voter:       rec.Voter,
			BlockNumber: rec.BlockNumber,
			Timestamp:   rec.Timestamp,
			TxHash:      rec.TxHash,
			LogIndex:    rec.LogIndex,
		}
	}
	applied := l.apply(metrics.SourceStore, false, events)
	l.l.Info("restored votes from store", zap.Int("count", applied))
	return nil
}

// Backfill queries the last backfillBlocks blocks once. On failure the
// ledger keeps its previous state.
func (l *Ledger) Backfill(ctx context.Context) error {
	head, err := l.feed.HeadBlock(ctx)
	if err != nil {
		l.l.Error("failed to get head block", zap.Error(err))
		return fmt.Errorf("ledger: failed to get head block: %w", err)
	}
	var from uint64
	if head > l.backfillBlocks {
		from = head - l.backfillBlocks
	}
	return l.fetch(ctx, metrics.SourceBackfill, from, head)
}

func (l *Ledger) fetch(ctx context.Context, source string, from, to uint64) error {
	events, err := l.feed.VoteEvents(ctx, from, to)
	if err != nil {
		l.l.Error("failed to fetch vote events",
			zap.String("source", source),
			zap.Uint64("from", from),
			zap.Uint64("to", to),
			zap.Error(err))
		return fmt.Errorf("ledger: failed to fetch vote events: %w", err)
	}
	applied := l.Apply(source, events...)
	l.l.Info("fetched vote events",
		zap.String("source", source),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("received", len(events)),
		zap.Int("applied", applied))
	return nil
}

// Apply folds events into the ledger and returns how many were new.
// Events for other polls and logs already seen are ignored.
func (l *Ledger) Apply(source string, events ...models.VoteEvent) int {
	return l.apply(source, true, events)
}

func (l *Ledger) apply(source string, persist bool, events []models.VoteEvent) int {
	var saved []models.VoteRecord
	applied, upgraded := 0, 0

	l.mu.Lock()
	for _, ev := range events {
		if ev.PollIndex != l.pollIndex {
			l.m.VoteForeign()
			continue
		}
		rec := ev.Record()
		key := rec.Key()
		if _, ok := l.index[key]; ok {
			l.m.VoteDuplicate()
			l.l.Debug("duplicate vote event",
				zap.String("tx_hash", rec.TxHash.Hex()),
				zap.Uint("log_index", rec.LogIndex))
			continue
		}
		if ev.BlockNumber > l.lastBlock {
			l.lastBlock = ev.BlockNumber
		}
		l.txs[rec.TxHash] = struct{}{}
		if persist {
			saved = append(saved, rec)
		}

		if i, ok := l.synthetic[rec.TxHash]; ok && l.records[i].OptionIndex == rec.OptionIndex && l.records[i].Voter == rec.Voter {
			// the confirmed local vote's own log: already counted
			delete(l.synthetic, rec.TxHash)
			l.records[i] = rec
			l.index[key] = i
			upgraded++
			continue
		}

		l.index[key] = len(l.records)
		l.add(rec)
		l.m.VoteObserved(source)
		applied++
	}
	size := len(l.records)
	l.mu.Unlock()

	l.m.LedgerSize(size)
	if applied > 0 || upgraded > 0 {
		l.notify()
	}
	l.save(saved)
	return applied
}

// add must be called with mu held.
func (l *Ledger) add(rec models.VoteRecord) {
	l.records = append(l.records, rec)
	l.tally[rec.OptionIndex]++
	l.voted[rec.Voter] = rec.OptionIndex
}

func (l *Ledger) save(records []models.VoteRecord) {
	if l.store == nil {
		return
	}
	for _, rec := range records {
		if err := l.store.SaveVote(l.pollIndex, rec); err != nil {
			l.l.Error("failed to persist vote",
				zap.String("tx_hash", rec.TxHash.Hex()),
				zap.Error(err))
		}
	}
}

// AppendConfirmed records a locally confirmed vote before its log is
// delivered. When the log arrives it replaces this record without being
// counted again.
func (l *Ledger) AppendConfirmed(voter common.Address, optionIndex int, receipt models.Receipt) bool {
	l.mu.Lock()
	if _, ok := l.txs[receipt.TxHash]; ok {
		l.mu.Unlock()
		return false
	}
	if _, ok := l.synthetic[receipt.TxHash]; ok {
		l.mu.Unlock()
		return false
	}
	l.synthetic[receipt.TxHash] = len(l.records)
	l.add(models.VoteRecord{
		Voter:       voter,
		OptionIndex: optionIndex,
		Timestamp:   receipt.Timestamp,
		BlockNumber: receipt.BlockNumber,
		TxHash:      receipt.TxHash,
		Synthetic:   true,
	})
	size := len(l.records)
	l.mu.Unlock()

	l.m.VoteObserved(metrics.SourceSynthetic)
	l.m.LedgerSize(size)
	l.l.Debug("appended confirmed vote",
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.Int("option_index", optionIndex))
	l.notify()
	return true
}

func (l *Ledger) notify() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// Backfilled is closed once Run has made its initial backfill attempt,
// whether or not it succeeded.
func (l *Ledger) Backfilled() <-chan struct{} {
	return l.backfilled
}

// Changed signals after mutations. Signals coalesce; it has one reader.
func (l *Ledger) Changed() <-chan struct{} {
	return l.changed
}

// Records returns a copy in arrival order, which is not timestamp order.
func (l *Ledger) Records() []models.VoteRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.VoteRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Tally() models.Tally {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(models.Tally, len(l.tally))
	for opt, count := range l.tally {
		out[opt] = count
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// VoteOf reports the option voter chose, if any vote of theirs was observed.
func (l *Ledger) VoteOf(voter common.Address) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	opt, ok := l.voted[voter]
	return opt, ok
}

func (l *Ledger) LastBlock() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastBlock
}

// Stale is true while the live feed is down.
func (l *Ledger) Stale() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stale
}

func (l *Ledger) setStale(stale bool) {
	l.mu.Lock()
	l.stale = stale
	l.mu.Unlock()
	l.m.FeedStale(stale)
}
