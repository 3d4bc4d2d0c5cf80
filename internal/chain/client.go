package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/wallet"
	"go.uber.org/zap"
)

const (
	eventVoteCasted = "VoteCasted"
	blockTimeCache  = 4096
)

// Backend is the subset of ethclient.Client the voting client uses.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client reads and writes the Voting contract.
type Client struct {
	rpc          Backend
	ws           Backend
	address      common.Address
	abi          abi.ABI
	contract     *bind.BoundContract
	wallet       wallet.Source
	chainID      *big.Int
	pageBlocks   uint64
	pollInterval time.Duration
	blockTimes   *lru.Cache
	l            *zap.Logger
}

type pollTuple struct {
	Creator common.Address
	Title   string
	Options []optionTuple
	IsOpen  bool
}

type optionTuple struct {
	Title       string
	Description string
}

// Dial connects the HTTP endpoint, and the websocket endpoint for live logs
// when one is configured, and checks the chain id.
func Dial(ctx context.Context, cfg Config, w wallet.Source, l *zap.Logger) (*Client, error) {
	rpcClient, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to dial %s: %w", cfg.RPCURL, err)
	}
	var ws Backend = rpcClient
	if cfg.WSURL != "" {
		wsClient, err := ethclient.DialContext(ctx, cfg.WSURL)
		if err != nil {
			rpcClient.Close()
			return nil, fmt.Errorf("chain: failed to dial %s: %w", cfg.WSURL, err)
		}
		ws = wsClient
	}

	chainID, err := rpcClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to get chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Uint64() != cfg.ChainID {
		return nil, fmt.Errorf("chain: connected to chain %s, expected %d", chainID, cfg.ChainID)
	}
	l.Info("connected to chain",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("ws_url", cfg.WSURL),
		zap.String("chain_id", chainID.String()))
	return NewClient(rpcClient, ws, chainID, cfg, w, l)
}

func NewClient(rpc, ws Backend, chainID *big.Int, cfg Config, w wallet.Source, l *zap.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(VotingABI))
	if err != nil {
		return nil, fmt.Errorf("chain: failed to parse abi: %w", err)
	}
	cache, err := lru.New(blockTimeCache)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to create block time cache: %w", err)
	}
	address := cfg.Contract()
	return &Client{
		rpc:          rpc,
		ws:           ws,
		address:      address,
		abi:          parsed,
		contract:     bind.NewBoundContract(address, parsed, rpc, rpc, ws),
		wallet:       w,
		chainID:      chainID,
		pageBlocks:   cfg.LogPageBlocks,
		pollInterval: cfg.ReceiptPollInterval,
		blockTimes:   cache,
		l:            l,
	}, nil
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// ReadPoll fetches a poll and resolves its option assets.
func (c *Client) ReadPoll(ctx context.Context, pollIndex uint64) (*models.Poll, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getPoll", new(big.Int).SetUint64(pollIndex))
	if err != nil {
		c.l.Debug("getPoll call failed", zap.Uint64("poll_index", pollIndex), zap.Error(err))
		if strings.Contains(err.Error(), "execution reverted") {
			return nil, fmt.Errorf("chain: %w: %v", models.ErrPollNotFound, err)
		}
		return nil, fmt.Errorf("chain: getPoll call error: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: getPoll returned %d values: %w", len(out), models.ErrFailedToProcessData)
	}
	raw := *abi.ConvertType(out[0], new(pollTuple)).(*pollTuple)

	poll := &models.Poll{
		Index:   pollIndex,
		Creator: raw.Creator,
		Title:   raw.Title,
		IsOpen:  raw.IsOpen,
		Options: make([]models.Option, len(raw.Options)),
	}
	for i, opt := range raw.Options {
		asset, err := models.ResolveAsset(opt.Title)
		if err != nil {
			return nil, fmt.Errorf("chain: poll %d option %d: %w", pollIndex, i, err)
		}
		poll.Options[i] = models.Option{
			Index:       i,
			Title:       opt.Title,
			Description: opt.Description,
			Asset:       asset,
		}
	}
	c.l.Debug("poll data from chain", zap.Any("poll", poll))
	return poll, nil
}

// VotesTotal reads the contract's own per-option counters.
func (c *Client) VotesTotal(ctx context.Context, pollIndex uint64) (models.Tally, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getVotesTotal", new(big.Int).SetUint64(pollIndex))
	if err != nil {
		return nil, fmt.Errorf("chain: getVotesTotal call error: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("chain: getVotesTotal returned %d values: %w", len(out), models.ErrFailedToProcessData)
	}
	totals := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	tally := make(models.Tally, len(totals))
	for i, total := range totals {
		if total.Sign() > 0 {
			tally[i] = int(total.Int64())
		}
	}
	return tally, nil
}
