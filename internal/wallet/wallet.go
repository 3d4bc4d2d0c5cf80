package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

const (
	KindKey      = "key"
	KindKeystore = "keystore"
)

var ErrUnknownKind = errors.New("unknown wallet kind")

type Config struct {
	Kind     string `yaml:"WALLET_KIND"       env:"WALLET_KIND" env-default:"key"`
	Key      string `yaml:"WALLET_KEY"        env:"WALLET_KEY"`
	Dir      string `yaml:"KEYSTORE_DIR"      env:"KEYSTORE_DIR"`
	Account  string `yaml:"KEYSTORE_ACCOUNT"  env:"KEYSTORE_ACCOUNT"`
	Password string `yaml:"KEYSTORE_PASSWORD" env:"KEYSTORE_PASSWORD"`
}

func (c Config) Validate() error {
	switch c.Kind {
	case KindKey:
		if c.Key == "" {
			return errors.New("WALLET_KEY is required for key wallets")
		}
	case KindKeystore:
		if c.Dir == "" {
			return errors.New("KEYSTORE_DIR is required for keystore wallets")
		}
		if !common.IsHexAddress(c.Account) {
			return fmt.Errorf("KEYSTORE_ACCOUNT is not an address: %q", c.Account)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	return nil
}

// Source is the wallet session: an address while connected, and a signer.
type Source interface {
	Kind() string
	// Address returns false once the session is disconnected.
	Address() (common.Address, bool)
	// Transactor returns signing options, or ErrUserRejected once the
	// session is disconnected. Options already returned stay usable.
	Transactor(chainID *big.Int) (*bind.TransactOpts, error)
	Disconnect()
}

// New picks the wallet variant named by cfg.Kind.
func New(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindKeystore:
		ks := keystore.NewKeyStore(cfg.Dir, keystore.StandardScryptN, keystore.StandardScryptP)
		return NewKeystoreSource(ks, common.HexToAddress(cfg.Account), cfg.Password)
	default:
		return NewKeySource(cfg.Key)
	}
}
