package chain

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCURL              string        `yaml:"RPC_URL"               env:"RPC_URL"               env-default:"https://rpc.sepolia-api.lisk.com"`
	WSURL               string        `yaml:"WS_URL"                env:"WS_URL"                env-default:"wss://rpc.sepolia-ws.lisk.com"`
	ChainID             uint64        `yaml:"CHAIN_ID"              env:"CHAIN_ID"              env-default:"4202"`
	ContractAddress     string        `yaml:"CONTRACT_ADDRESS"      env:"CONTRACT_ADDRESS"      env-required:"true"`
	PollIndex           uint64        `yaml:"CONTRACT_POLL"         env:"CONTRACT_POLL"         env-required:"true"`
	BackfillBlocks      uint64        `yaml:"BACKFILL_BLOCKS"       env:"BACKFILL_BLOCKS"       env-default:"100000"`
	LogPageBlocks       uint64        `yaml:"LOG_PAGE_BLOCKS"       env:"LOG_PAGE_BLOCKS"       env-default:"10000"`
	ReceiptPollInterval time.Duration `yaml:"RECEIPT_POLL_INTERVAL" env:"RECEIPT_POLL_INTERVAL" env-default:"2s"`
	ExplorerURL         string        `yaml:"EXPLORER_URL"          env:"EXPLORER_URL"          env-default:"https://sepolia-blockscout.lisk.com"`
}

func (c Config) Validate() error {
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("CONTRACT_ADDRESS is not an address: %q", c.ContractAddress)
	}
	if err := validateURL("RPC_URL", c.RPCURL, "http", "https", "ws", "wss"); err != nil {
		return err
	}
	if c.WSURL != "" {
		if err := validateURL("WS_URL", c.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.BackfillBlocks == 0 {
		return errors.New("BACKFILL_BLOCKS must be positive")
	}
	if c.LogPageBlocks == 0 {
		return errors.New("LOG_PAGE_BLOCKS must be positive")
	}
	if c.ReceiptPollInterval <= 0 {
		return errors.New("RECEIPT_POLL_INTERVAL must be positive")
	}
	return nil
}

func (c Config) Contract() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// TxURL links a transaction in the block explorer.
func (c Config) TxURL(txHash common.Hash) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/tx/" + txHash.Hex()
}

func validateURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is malformed: %w", name, err)
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v URLs, got %q", name, schemes, raw)
}
