package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/jaam8/vote_tracker/internal/ledger"
	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

const liveLogBuffer = 64

type voteCasted struct {
	PollIndex   *big.Int
	Voter       common.Address
	OptionIndex *big.Int
}

func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	head, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: failed to get block number: %w", err)
	}
	return head, nil
}

// pollIndex is not an indexed topic, so logs of every poll match.
func (c *Client) voteQuery() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{c.abi.Events[eventVoteCasted].ID}},
	}
}

// VoteEvents returns VoteCasted events of every poll in [from, to], in
// block order. Ranges wider than the page size are fetched in pages.
func (c *Client) VoteEvents(ctx context.Context, from, to uint64) ([]models.VoteEvent, error) {
	var events []models.VoteEvent
	for start := from; start <= to; start += c.pageBlocks {
		end := start + c.pageBlocks - 1
		if end > to || end < start {
			end = to
		}
		q := c.voteQuery()
		q.FromBlock = new(big.Int).SetUint64(start)
		q.ToBlock = new(big.Int).SetUint64(end)

		logs, err := c.rpc.FilterLogs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("chain: failed to filter logs [%d, %d]: %w", start, end, err)
		}
		c.l.Debug("fetched vote logs",
			zap.Uint64("from", start),
			zap.Uint64("to", end),
			zap.Int("count", len(logs)))
		for _, lg := range logs {
			if lg.Removed {
				continue
			}
			ev, err := c.decodeVote(ctx, lg)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		if end == to {
			break
		}
	}
	return events, nil
}

// SubscribeVotes streams decoded VoteCasted events of every poll into sink.
// The returned subscription fails if the underlying log subscription fails
// or a log cannot be decoded.
func (c *Client) SubscribeVotes(ctx context.Context, sink chan<- models.VoteEvent) (ledger.Subscription, error) {
	logs := make(chan types.Log, liveLogBuffer)
	sub, err := c.ws.SubscribeFilterLogs(ctx, c.voteQuery(), logs)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to subscribe to logs: %w", err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case lg := <-logs:
				if lg.Removed {
					c.l.Warn("vote log removed by reorg",
						zap.String("tx_hash", lg.TxHash.Hex()),
						zap.Uint64("block", lg.BlockNumber))
					continue
				}
				ev, err := c.decodeVote(ctx, lg)
				if err != nil {
					return err
				}
				select {
				case sink <- ev:
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (c *Client) decodeVote(ctx context.Context, lg types.Log) (models.VoteEvent, error) {
	var raw voteCasted
	if err := c.abi.UnpackIntoInterface(&raw, eventVoteCasted, lg.Data); err != nil {
		return models.VoteEvent{}, fmt.Errorf("chain: failed to unpack %s log %s: %w", eventVoteCasted, lg.TxHash.Hex(), err)
	}
	if raw.PollIndex == nil || raw.OptionIndex == nil || !raw.PollIndex.IsUint64() || !raw.OptionIndex.IsInt64() {
		return models.VoteEvent{}, fmt.Errorf("chain: %s log %s out of range: %w", eventVoteCasted, lg.TxHash.Hex(), models.ErrFailedToProcessData)
	}
	ts, err := c.blockTime(ctx, lg.BlockNumber)
	if err != nil {
		return models.VoteEvent{}, err
	}
	return models.VoteEvent{
		PollIndex:   raw.PollIndex.Uint64(),
		OptionIndex: int(raw.OptionIndex.Int64()),
		Voter:       raw.Voter,
		BlockNumber: lg.BlockNumber,
		Timestamp:   ts,
		TxHash:      lg.TxHash,
		LogIndex:    lg.Index,
	}, nil
}

// blockTime returns a block's time in milliseconds.
func (c *Client) blockTime(ctx context.Context, number uint64) (int64, error) {
	if v, ok := c.blockTimes.Get(number); ok {
		return v.(int64), nil
	}
	header, err := c.rpc.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("chain: failed to get header %d: %w", number, err)
	}
	ts := int64(header.Time) * 1000
	c.blockTimes.Add(number, ts)
	return ts, nil
}
