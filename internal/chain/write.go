package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jaam8/vote_tracker/internal/models"
	"go.uber.org/zap"
)

// gasMarginPercent pads the estimate; the vote list grows between estimate and inclusion.
const gasMarginPercent = 20

// Transactor returns the session's signing options. Options taken before a
// logout keep signing, so an attempt already started is not cut short.
func (c *Client) Transactor() (*bind.TransactOpts, error) {
	if c.wallet == nil {
		return nil, fmt.Errorf("chain: no wallet: %w", models.ErrUserRejected)
	}
	return c.wallet.Transactor(c.chainID)
}

// SignVote builds a castVote transaction and signs it with opts.
func (c *Client) SignVote(ctx context.Context, opts *bind.TransactOpts, pollIndex, optionIndex uint64) (*types.Transaction, error) {
	data, err := c.abi.Pack("castVote", new(big.Int).SetUint64(pollIndex), new(big.Int).SetUint64(optionIndex))
	if err != nil {
		return nil, fmt.Errorf("chain: failed to pack castVote: %w", err)
	}

	nonce, err := c.rpc.PendingNonceAt(ctx, opts.From)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to get nonce: %w", err)
	}
	gas, err := c.rpc.EstimateGas(ctx, ethereum.CallMsg{From: opts.From, To: &c.address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("chain: failed to estimate gas: %w", err)
	}
	gas += gas * gasMarginPercent / 100

	head, err := c.rpc.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to get head header: %w", err)
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := c.rpc.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("chain: failed to suggest gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &c.address,
			Data:      data,
		})
	} else {
		price, err := c.rpc.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("chain: failed to suggest gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &c.address,
			Data:     data,
		})
	}

	signed, err := opts.Signer(opts.From, tx)
	if err != nil {
		return nil, fmt.Errorf("chain: signing failed: %w", err)
	}
	c.l.Debug("signed vote transaction",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.String("from", opts.From.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas))
	return signed, nil
}

func (c *Client) Broadcast(ctx context.Context, tx *types.Transaction) error {
	if err := c.rpc.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("chain: failed to send transaction %s: %w", tx.Hash().Hex(), err)
	}
	return nil
}

// AwaitConfirmation polls for the receipt until it exists or ctx is done.
// Lookup errors are retried on the next tick; only ctx ends the wait early.
func (c *Client) AwaitConfirmation(ctx context.Context, txHash common.Hash) (models.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			return c.toReceipt(ctx, txHash, receipt), nil
		case errors.Is(err, ethereum.NotFound):
			c.l.Debug("receipt not available yet", zap.String("tx_hash", txHash.Hex()))
		default:
			c.l.Warn("failed to get receipt, retrying",
				zap.String("tx_hash", txHash.Hex()),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			if err != nil && !errors.Is(err, ethereum.NotFound) {
				return models.Receipt{}, fmt.Errorf("chain: waiting for receipt %s: %w", txHash.Hex(), errors.Join(ctx.Err(), err))
			}
			return models.Receipt{}, fmt.Errorf("chain: waiting for receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// toReceipt stamps a mined receipt with its block time, or with the local
// clock when the header cannot be fetched.
func (c *Client) toReceipt(ctx context.Context, txHash common.Hash, receipt *types.Receipt) models.Receipt {
	block := receipt.BlockNumber.Uint64()
	ts, err := c.blockTime(ctx, block)
	if err != nil {
		ts = time.Now().UnixMilli()
		c.l.Warn("block time unavailable, using local time",
			zap.String("tx_hash", txHash.Hex()),
			zap.Uint64("block_number", block),
			zap.Error(err))
	}
	return models.Receipt{
		TxHash:      txHash,
		BlockNumber: block,
		Timestamp:   ts,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
	}
}
