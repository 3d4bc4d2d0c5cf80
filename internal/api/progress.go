package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
)

var ProgressSteps = []string{"Sign Transaction", "Submit to Network", "Confirm"}

// Progress is what a user sees of a vote transaction.
type Progress struct {
	State       models.TxState `json:"state"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	// Step indexes ProgressSteps; len(ProgressSteps) once done, -1 on failure.
	Step        int    `json:"step"`
	TxHash      string `json:"tx_hash,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Closable    bool   `json:"closable"`
}

type TxURLFunc func(txHash common.Hash) string

func NewProgress(status models.TxStatus, txURL TxURLFunc) Progress {
	p := Progress{
		State:    status.State,
		Closable: status.State.Terminal(),
	}
	switch status.State {
	case models.TxIdle:
		p.Title, p.Description = "No Transaction", "Nothing has been submitted yet"
	case models.TxWaitingSignature:
		p.Title, p.Description = "Waiting for Signature", "Please confirm the transaction in your wallet"
	case models.TxPending:
		p.Title, p.Description, p.Step = "Submitting Transaction", "Your transaction is being submitted to the network", 1
	case models.TxConfirming:
		p.Title, p.Description, p.Step = "Confirming Transaction", "Waiting for blockchain confirmation...", 2
	case models.TxSuccess:
		p.Title, p.Description, p.Step = "Transaction Successful", "Your transaction has been confirmed", len(ProgressSteps)
	case models.TxError:
		p.Title, p.Description, p.Step = "Transaction Failed", status.Error, -1
		if p.Description == "" {
			p.Description = "Something went wrong"
		}
	}
	if status.HasHash() {
		p.TxHash = status.TxHash.Hex()
		if txURL != nil {
			p.ExplorerURL = txURL(status.TxHash)
		}
	}
	return p
}
