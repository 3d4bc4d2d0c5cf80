package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	MsgUserRejected = "Transaction rejected in wallet"
	MsgTxFailed     = "Transaction failed"
)

type TxState int

const (
	TxIdle TxState = iota
	TxWaitingSignature
	TxPending
	TxConfirming
	TxSuccess
	TxError
)

var txStateNames = map[TxState]string{
	TxIdle:             "IDLE",
	TxWaitingSignature: "WAITING_SIGNATURE",
	TxPending:          "PENDING",
	TxConfirming:       "CONFIRMING",
	TxSuccess:          "SUCCESS",
	TxError:            "ERROR",
}

func (s TxState) String() string {
	if name, ok := txStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s TxState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TxState) UnmarshalText(text []byte) error {
	for state, name := range txStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown transaction state %q", text)
}

func (s TxState) Terminal() bool {
	return s == TxSuccess || s == TxError
}

var txTransitions = map[TxState][]TxState{
	TxIdle:             {TxWaitingSignature},
	TxWaitingSignature: {TxPending, TxConfirming, TxError},
	TxPending:          {TxConfirming, TxError},
	TxConfirming:       {TxSuccess, TxError},
}

// CanAdvance reports whether next is a legal successor of s.
// Terminal states have no successors; a new attempt starts from scratch instead.
func (s TxState) CanAdvance(next TxState) bool {
	for _, allowed := range txTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TxStatus struct {
	AttemptID   string         `json:"attempt_id,omitempty"`
	State       TxState        `json:"state"`
	PollIndex   uint64         `json:"poll_index"`
	OptionIndex uint64         `json:"option_index"`
	TxHash      common.Hash    `json:"tx_hash"`
	From        common.Address `json:"from"`
	Error       string         `json:"error,omitempty"`
}

func (s TxStatus) HasHash() bool {
	return s.TxHash != (common.Hash{})
}

type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	// Timestamp is the block time in milliseconds since epoch.
	Timestamp int64
	Success   bool
}
