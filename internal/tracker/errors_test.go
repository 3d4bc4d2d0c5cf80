package tracker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/stretchr/testify/require"
)

func TestIsUserRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: fmt.Errorf("wallet: %w", models.ErrUserRejected), want: true},
		{name: "locked keystore", err: keystore.ErrLocked, want: true},
		{name: "auth needed", err: accounts.NewAuthNeededError("password"), want: true},
		{name: "provider code", err: rpcError{code: codeUserRejected, msg: "rejected"}, want: true},
		{name: "other provider code", err: rpcError{code: -32000, msg: "header not found"}, want: false},
		{name: "phrase", err: errors.New("MetaMask: User denied transaction signature"), want: true},
		{name: "unrelated", err: errors.New("insufficient funds"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsUserRejected(tt.err))
		})
	}
}
