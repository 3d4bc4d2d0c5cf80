package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/jaam8/vote_tracker/internal/metrics"
	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

const DefaultConfirmTimeout = 2 * time.Minute

// Writer is the write side of the chain.
type Writer interface {
	// Transactor returns the wallet session's signing options.
	Transactor() (*bind.TransactOpts, error)
	// SignVote builds the castVote transaction and signs it with opts.
	SignVote(ctx context.Context, opts *bind.TransactOpts, pollIndex, optionIndex uint64) (*types.Transaction, error)
	Broadcast(ctx context.Context, tx *types.Transaction) error
	AwaitConfirmation(ctx context.Context, txHash common.Hash) (models.Receipt, error)
}

type SuccessFunc func(status models.TxStatus, receipt models.Receipt)

// Tracker drives one vote submission at a time through
// WAITING_SIGNATURE -> PENDING -> CONFIRMING -> SUCCESS, or ERROR.
type Tracker struct {
	w              Writer
	confirmTimeout time.Duration
	m              *metrics.Metrics
	l              *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	status    models.TxStatus
	watchers  []func(models.TxStatus)
	onSuccess []SuccessFunc
}

func New(w Writer, confirmTimeout time.Duration, m *metrics.Metrics, l *zap.Logger) *Tracker {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		w:              w,
		confirmTimeout: confirmTimeout,
		m:              m,
		l:              l,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Watch registers fn to be called after every state change.
func (t *Tracker) Watch(fn func(models.TxStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchers = append(t.watchers, fn)
}

// OnSuccess registers fn to be called once an attempt is confirmed.
func (t *Tracker) OnSuccess(fn SuccessFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSuccess = append(t.onSuccess, fn)
}

func (t *Tracker) Status() models.TxStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// CastVote moves to WAITING_SIGNATURE before returning and continues in the
// background. A terminal previous attempt is discarded; an attempt still in
// flight makes it fail with ErrVoteInFlight. Session checks are the caller's.
// The signer is taken here, so a logout after CastVote does not stop the attempt.
func (t *Tracker) CastVote(pollIndex, optionIndex uint64) (models.TxStatus, error) {
	t.mu.Lock()
	if t.status.State != models.TxIdle && !t.status.State.Terminal() {
		t.mu.Unlock()
		return models.TxStatus{}, models.ErrVoteInFlight
	}
	if err := t.ctx.Err(); err != nil {
		t.mu.Unlock()
		return models.TxStatus{}, fmt.Errorf("tracker: closed: %w", err)
	}
	status := models.TxStatus{
		AttemptID:   uuid.NewString(),
		State:       models.TxWaitingSignature,
		PollIndex:   pollIndex,
		OptionIndex: optionIndex,
	}
	t.status = status
	watchers := t.watchers
	opts, optsErr := t.w.Transactor()
	t.wg.Add(1)
	t.mu.Unlock()

	t.m.TxTransition(status.State.String())
	t.l.Info("casting vote",
		zap.String("attempt_id", status.AttemptID),
		zap.Uint64("poll_index", pollIndex),
		zap.Uint64("option_index", optionIndex))
	for _, fn := range watchers {
		fn(status)
	}

	go t.run(status, opts, optsErr)
	return status, nil
}

func (t *Tracker) run(attempt models.TxStatus, opts *bind.TransactOpts, optsErr error) {
	defer t.wg.Done()
	id := attempt.AttemptID

	if optsErr != nil {
		t.fail(id, errors.Join(models.ErrSubmissionFailed, optsErr))
		return
	}
	tx, err := t.w.SignVote(t.ctx, opts, attempt.PollIndex, attempt.OptionIndex)
	if err != nil {
		t.fail(id, errors.Join(models.ErrSubmissionFailed, err))
		return
	}
	hash := tx.Hash()
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		t.fail(id, errors.Join(models.ErrSubmissionFailed, err))
		return
	}
	t.advance(id, models.TxPending, func(s *models.TxStatus) {
		s.TxHash = hash
		s.From = from
	})

	if err := t.w.Broadcast(t.ctx, tx); err != nil {
		t.fail(id, errors.Join(models.ErrSubmissionFailed, err))
		return
	}
	t.advance(id, models.TxConfirming, nil)

	ctx, cancel := context.WithTimeout(t.ctx, t.confirmTimeout)
	receipt, err := t.w.AwaitConfirmation(ctx, hash)
	cancel()
	if err != nil {
		t.fail(id, errors.Join(models.ErrConfirmationFailed, err))
		return
	}
	if !receipt.Success {
		t.fail(id, fmt.Errorf("%w: transaction %s reverted", models.ErrConfirmationFailed, hash.Hex()))
		return
	}

	status, ok := t.advance(id, models.TxSuccess, nil)
	if !ok {
		return
	}
	t.mu.Lock()
	hooks := t.onSuccess
	t.mu.Unlock()
	for _, fn := range hooks {
		fn(status, receipt)
	}
}

func (t *Tracker) fail(id string, err error) {
	msg := displayMessage(err)
	if msg == models.MsgUserRejected {
		t.l.Warn("vote rejected in wallet", zap.String("attempt_id", id), zap.Error(err))
	} else {
		t.l.Error("vote transaction failed", zap.String("attempt_id", id), zap.Error(err))
	}
	t.advance(id, models.TxError, func(s *models.TxStatus) {
		s.Error = msg
	})
}

// advance applies a forward transition to attempt id. Transitions for a
// discarded attempt, or that would move backwards, are dropped.
func (t *Tracker) advance(id string, next models.TxState, update func(*models.TxStatus)) (models.TxStatus, bool) {
	t.mu.Lock()
	if t.status.AttemptID != id {
		t.mu.Unlock()
		return models.TxStatus{}, false
	}
	if !t.status.State.CanAdvance(next) {
		prev := t.status.State
		t.mu.Unlock()
		t.l.Warn("dropping illegal transition",
			zap.String("attempt_id", id),
			zap.Stringer("from", prev),
			zap.Stringer("to", next))
		return models.TxStatus{}, false
	}
	t.status.State = next
	if update != nil {
		update(&t.status)
	}
	status := t.status
	watchers := t.watchers
	t.mu.Unlock()

	t.m.TxTransition(next.String())
	t.l.Info("vote transaction state changed",
		zap.String("attempt_id", id),
		zap.Stringer("state", next),
		zap.String("tx_hash", status.TxHash.Hex()))
	for _, fn := range watchers {
		fn(status)
	}
	return status, true
}

// Close cancels an attempt in flight and waits for it to finish.
func (t *Tracker) Close() {
	t.cancel()
	t.wg.Wait()
}
