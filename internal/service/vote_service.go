package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/wallet"
	"go.uber.org/zap"
)

type PollReader interface {
	ReadPoll(ctx context.Context, pollIndex uint64) (*models.Poll, error)
	VotesTotal(ctx context.Context, pollIndex uint64) (models.Tally, error)
}

type Ledger interface {
	Tally() models.Tally
	VoteOf(voter common.Address) (int, bool)
	Stale() bool
	AppendConfirmed(voter common.Address, optionIndex int, receipt models.Receipt) bool
}

type Tracker interface {
	CastVote(pollIndex, optionIndex uint64) (models.TxStatus, error)
	Status() models.TxStatus
}

type Results struct {
	Poll  *models.Poll `json:"poll"`
	Tally models.Tally `json:"tally"`
	Total int          `json:"total"`
	// Stale is set while the live vote feed is reconnecting.
	Stale bool `json:"stale"`
}

type Session struct {
	Connected   bool           `json:"connected"`
	Address     common.Address `json:"address"`
	Wallet      string         `json:"wallet"`
	HasVoted    bool           `json:"has_voted"`
	VotedOption *int           `json:"voted_option,omitempty"`
}

type VoteService struct {
	pollIndex uint64
	chain     PollReader
	ledger    Ledger
	tracker   Tracker
	wallet    wallet.Source
	l         *zap.Logger

	mu   sync.RWMutex
	poll *models.Poll
}

func New(pollIndex uint64, chain PollReader, ledger Ledger, tracker Tracker, w wallet.Source, l *zap.Logger) *VoteService {
	return &VoteService{
		pollIndex: pollIndex,
		chain:     chain,
		ledger:    ledger,
		tracker:   tracker,
		wallet:    w,
		l:         l,
	}
}

// LoadPoll reads the poll from the contract once and keeps it.
func (s *VoteService) LoadPoll(ctx context.Context) (*models.Poll, error) {
	poll, err := s.chain.ReadPoll(ctx, s.pollIndex)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPollNotFound):
			return nil, err
		case errors.Is(err, models.ErrUnsupportedOption):
			return nil, err
		default:
			s.l.Error("failed to load poll", zap.Uint64("poll_index", s.pollIndex), zap.Error(err))
			return nil, fmt.Errorf("service: failed to load poll: %w", err)
		}
	}
	s.mu.Lock()
	s.poll = poll
	s.mu.Unlock()
	s.l.Info("poll loaded",
		zap.Uint64("poll_index", poll.Index),
		zap.String("title", poll.Title),
		zap.Int("options", len(poll.Options)),
		zap.Bool("is_open", poll.IsOpen))
	return poll, nil
}

func (s *VoteService) Poll() (*models.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poll == nil {
		return nil, models.ErrPollNotLoaded
	}
	return s.poll, nil
}

// CastVote checks the session may vote for optionIndex and starts the
// transaction. Progress is reported through the tracker.
func (s *VoteService) CastVote(optionIndex int) (models.TxStatus, error) {
	poll, err := s.Poll()
	if err != nil {
		return models.TxStatus{}, err
	}
	address, ok := s.wallet.Address()
	if !ok {
		return models.TxStatus{}, models.ErrNoSession
	}
	if _, voted := s.ledger.VoteOf(address); voted {
		s.l.Debug("vote already exists", zap.String("voter", address.Hex()))
		return models.TxStatus{}, models.ErrVoteAlreadyExists
	}
	if !poll.IsOpen {
		return models.TxStatus{}, models.ErrPollIsEnd
	}
	if !poll.HasOption(optionIndex) {
		s.l.Debug("option not found", zap.Int("option_index", optionIndex))
		return models.TxStatus{}, models.ErrOptionIsNotFound
	}

	status, err := s.tracker.CastVote(s.pollIndex, uint64(optionIndex))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrVoteInFlight):
			return models.TxStatus{}, err
		default:
			s.l.Error("failed to cast vote", zap.Error(err))
			return models.TxStatus{}, fmt.Errorf("service: failed to cast vote: %w", err)
		}
	}
	return status, nil
}

// RecordConfirmed appends a confirmed vote of this session to the ledger
// until the chain delivers its log.
func (s *VoteService) RecordConfirmed(status models.TxStatus, receipt models.Receipt) {
	if status.PollIndex != s.pollIndex {
		return
	}
	if s.ledger.AppendConfirmed(status.From, int(status.OptionIndex), receipt) {
		s.l.Info("confirmed vote recorded",
			zap.String("tx_hash", receipt.TxHash.Hex()),
			zap.String("voter", status.From.Hex()),
			zap.Uint64("option_index", status.OptionIndex))
	}
}

func (s *VoteService) Results() (Results, error) {
	poll, err := s.Poll()
	if err != nil {
		return Results{}, err
	}
	tally := s.ledger.Tally()
	return Results{
		Poll:  poll,
		Tally: tally,
		Total: tally.Total(),
		Stale: s.ledger.Stale(),
	}, nil
}

func (s *VoteService) TxStatus() models.TxStatus {
	return s.tracker.Status()
}

func (s *VoteService) Session() Session {
	session := Session{Wallet: s.wallet.Kind()}
	address, ok := s.wallet.Address()
	if !ok {
		return session
	}
	session.Connected = true
	session.Address = address
	if option, voted := s.ledger.VoteOf(address); voted {
		session.HasVoted = true
		session.VotedOption = &option
	}
	return session
}

// Logout ends the wallet session. A transaction in flight keeps going.
func (s *VoteService) Logout() {
	s.wallet.Disconnect()
	s.l.Info("wallet disconnected")
}

// Reconcile compares the ledger tally with the contract's own counters and
// reports whether they agree. Disagreement means the backfill window did not
// reach back to the poll's first vote.
func (s *VoteService) Reconcile(ctx context.Context) (bool, error) {
	totals, err := s.chain.VotesTotal(ctx, s.pollIndex)
	if err != nil {
		s.l.Error("failed to read vote totals", zap.Error(err))
		return false, fmt.Errorf("service: failed to read vote totals: %w", err)
	}
	tally := s.ledger.Tally()
	for option := range mergeKeys(totals, tally) {
		if totals[option] != tally[option] {
			s.l.Warn("ledger disagrees with contract totals",
				zap.Int("option_index", option),
				zap.Int("ledger", tally[option]),
				zap.Int("contract", totals[option]))
			return false, nil
		}
	}
	s.l.Info("ledger matches contract totals", zap.Int("total", tally.Total()))
	return true, nil
}

func mergeKeys(a, b models.Tally) map[int]struct{} {
	keys := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}
