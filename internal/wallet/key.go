package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jaam8/vote_tracker/internal/models"
)

// KeySource signs with a raw private key held in memory.
type KeySource struct {
	key     *ecdsa.PrivateKey
	address common.Address

	mu        sync.RWMutex
	connected bool
}

func NewKeySource(hexKey string) (*KeySource, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}
	return &KeySource{
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		connected: true,
	}, nil
}

func (s *KeySource) Kind() string {
	return KindKey
}

func (s *KeySource) Address() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return common.Address{}, false
	}
	return s.address, true
}

func (s *KeySource) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	if _, ok := s.Address(); !ok {
		return nil, fmt.Errorf("wallet: disconnected: %w", models.ErrUserRejected)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("wallet: failed to create transactor: %w", err)
	}
	return opts, nil
}

func (s *KeySource) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}
