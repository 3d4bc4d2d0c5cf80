package api

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNewProgress(t *testing.T) {
	hash := common.HexToHash("0x01")
	tests := []struct {
		status   models.TxStatus
		title    string
		step     int
		closable bool
		link     bool
	}{
		{models.TxStatus{State: models.TxIdle}, "No Transaction", 0, false, false},
		{models.TxStatus{State: models.TxWaitingSignature}, "Waiting for Signature", 0, false, false},
		{models.TxStatus{State: models.TxPending, TxHash: hash}, "Submitting Transaction", 1, false, true},
		{models.TxStatus{State: models.TxConfirming, TxHash: hash}, "Confirming Transaction", 2, false, true},
		{models.TxStatus{State: models.TxSuccess, TxHash: hash}, "Transaction Successful", 3, true, true},
		{models.TxStatus{State: models.TxError, Error: models.MsgTxFailed, TxHash: hash}, "Transaction Failed", -1, true, true},
		{models.TxStatus{State: models.TxError, Error: models.MsgUserRejected}, "Transaction Failed", -1, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.status.State.String(), func(t *testing.T) {
			p := NewProgress(tt.status, explorer)
			require.Equal(t, tt.title, p.Title)
			require.Equal(t, tt.step, p.Step)
			require.Equal(t, tt.closable, p.Closable)
			if tt.link {
				require.Equal(t, explorer(hash), p.ExplorerURL)
			} else {
				require.Empty(t, p.ExplorerURL)
			}
		})
	}

	p := NewProgress(models.TxStatus{State: models.TxError}, nil)
	require.Equal(t, "Something went wrong", p.Description)
}
