package wallet

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/stretchr/testify/require"
)

var chainID = big.NewInt(4202)

func unsignedTx() *types.Transaction {
	to := common.HexToAddress("0x1000000000000000000000000000000000000001")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"key", Config{Kind: KindKey, Key: "abc"}, false},
		{"key missing", Config{Kind: KindKey}, true},
		{"keystore", Config{Kind: KindKeystore, Dir: "/tmp", Account: "0x1000000000000000000000000000000000000001"}, false},
		{"keystore bad account", Config{Kind: KindKeystore, Dir: "/tmp", Account: "bob"}, true},
		{"keystore no dir", Config{Kind: KindKeystore, Account: "0x1000000000000000000000000000000000000001"}, true},
		{"unknown", Config{Kind: "walletconnect"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestKeySource(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	src, err := New(Config{Kind: KindKey, Key: "0x" + hex.EncodeToString(crypto.FromECDSA(key))})
	require.NoError(t, err)
	require.Equal(t, KindKey, src.Kind())

	addr, ok := src.Address()
	require.True(t, ok)
	require.Equal(t, want, addr)

	opts, err := src.Transactor(chainID)
	require.NoError(t, err)
	require.Equal(t, want, opts.From)
	signed, err := opts.Signer(opts.From, unsignedTx())
	require.NoError(t, err)
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	require.Equal(t, want, sender)

	src.Disconnect()
	_, ok = src.Address()
	require.False(t, ok)
	_, err = src.Transactor(chainID)
	require.ErrorIs(t, err, models.ErrUserRejected)
}

func TestKeySourceInvalidKey(t *testing.T) {
	_, err := NewKeySource("not-a-key")
	require.Error(t, err)
}

func TestKeystoreSource(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.NewAccount("secret")
	require.NoError(t, err)

	_, err = NewKeystoreSource(ks, account.Address, "wrong")
	require.Error(t, err)
	_, err = NewKeystoreSource(ks, common.HexToAddress("0x1000000000000000000000000000000000000001"), "secret")
	require.Error(t, err)

	src, err := NewKeystoreSource(ks, account.Address, "secret")
	require.NoError(t, err)
	addr, ok := src.Address()
	require.True(t, ok)
	require.Equal(t, account.Address, addr)

	opts, err := src.Transactor(chainID)
	require.NoError(t, err)
	_, err = opts.Signer(opts.From, unsignedTx())
	require.NoError(t, err)

	src.Disconnect()
	_, ok = src.Address()
	require.False(t, ok)
	_, err = src.Transactor(chainID)
	require.ErrorIs(t, err, models.ErrUserRejected)

	// options taken before the logout still sign
	_, err = opts.Signer(opts.From, unsignedTx())
	require.NoError(t, err)
}
