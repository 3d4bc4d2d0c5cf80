package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTxStateCanAdvance(t *testing.T) {
	all := []TxState{TxIdle, TxWaitingSignature, TxPending, TxConfirming, TxSuccess, TxError}
	allowed := map[[2]TxState]bool{
		{TxIdle, TxWaitingSignature}:       true,
		{TxWaitingSignature, TxPending}:    true,
		{TxWaitingSignature, TxConfirming}: true,
		{TxWaitingSignature, TxError}:      true,
		{TxPending, TxConfirming}:          true,
		{TxPending, TxError}:               true,
		{TxConfirming, TxSuccess}:          true,
		{TxConfirming, TxError}:            true,
	}
	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]TxState{from, to}], from.CanAdvance(to), "%s -> %s", from, to)
			if from.CanAdvance(to) {
				require.Greater(t, to, from)
			}
		}
	}
}

func TestTxStateText(t *testing.T) {
	b, err := TxWaitingSignature.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "WAITING_SIGNATURE", string(b))
	require.Equal(t, "UNKNOWN", TxState(42).String())
	require.True(t, TxError.Terminal())
	require.False(t, TxConfirming.Terminal())

	var s TxState
	require.NoError(t, s.UnmarshalText([]byte("CONFIRMING")))
	require.Equal(t, TxConfirming, s)
	require.Error(t, s.UnmarshalText([]byte("DONE")))
}

func TestResolveAsset(t *testing.T) {
	tests := []struct {
		title   string
		want    string
		wantErr bool
	}{
		{"Cool Llama", "llama.json", false},
		{"The INFLATABLE TUBE man", "inflatable-tube-man.json", false},
		{"Triangle Man", "triangle-man.json", false},
		{"Square Dude", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, err := ResolveAsset(tt.title)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedOption)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
