package models

import "github.com/ethereum/go-ethereum/common"

// VoteEvent is a decoded VoteCasted log.
type VoteEvent struct {
	PollIndex   uint64
	OptionIndex int
	Voter       common.Address
	BlockNumber uint64
	// Timestamp is the block time in milliseconds since epoch.
	Timestamp int64
	TxHash    common.Hash
	LogIndex  uint
}

type VoteRecord struct {
	Voter       common.Address `json:"voter"`
	OptionIndex int            `json:"option_index"`
	Timestamp   int64          `json:"timestamp"`
	BlockNumber uint64         `json:"block_number"`
	TxHash      common.Hash    `json:"tx_hash"`
	LogIndex    uint           `json:"log_index"`
	// Synthetic records come from a confirmed local vote whose log has not been seen yet.
	Synthetic bool `json:"synthetic"`
}

// VoteKey identifies one log. Two deliveries of the same log share a key.
type VoteKey struct {
	TxHash   common.Hash
	LogIndex uint
}

func (e VoteEvent) Record() VoteRecord {
	return VoteRecord{
		Voter:       e.Voter,
		OptionIndex: e.OptionIndex,
		Timestamp:   e.Timestamp,
		BlockNumber: e.BlockNumber,
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
	}
}

func (r VoteRecord) Key() VoteKey {
	return VoteKey{TxHash: r.TxHash, LogIndex: r.LogIndex}
}

// Tally maps option index to vote count.
type Tally map[int]int

func (t Tally) Total() int {
	total := 0
	for _, count := range t {
		total += count
	}
	return total
}
