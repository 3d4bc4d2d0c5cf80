package wallet

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
)

// KeystoreSource signs with an encrypted keystore account, unlocked once at
// startup. Disconnect ends the session: later Transactor calls are refused,
// while options handed out before it keep signing.
type KeystoreSource struct {
	ks      *keystore.KeyStore
	account accounts.Account

	mu        sync.RWMutex
	connected bool
}

func NewKeystoreSource(ks *keystore.KeyStore, address common.Address, password string) (*KeystoreSource, error) {
	account, err := ks.Find(accounts.Account{Address: address})
	if err != nil {
		return nil, fmt.Errorf("wallet: account %s not in keystore: %w", address.Hex(), err)
	}
	if err := ks.Unlock(account, password); err != nil {
		return nil, fmt.Errorf("wallet: failed to unlock %s: %w", address.Hex(), err)
	}
	return &KeystoreSource{
		ks:        ks,
		account:   account,
		connected: true,
	}, nil
}

func (s *KeystoreSource) Kind() string {
	return KindKeystore
}

func (s *KeystoreSource) Address() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return common.Address{}, false
	}
	return s.account.Address, true
}

func (s *KeystoreSource) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	if _, ok := s.Address(); !ok {
		return nil, fmt.Errorf("wallet: disconnected: %w", models.ErrUserRejected)
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(s.ks, s.account, chainID)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to create transactor: %w", err)
	}
	return opts, nil
}

func (s *KeystoreSource) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}
