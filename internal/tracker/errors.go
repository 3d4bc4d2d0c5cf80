package tracker

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/jaam8/vote_tracker/internal/models"
)

// codeUserRejected is the EIP-1193 provider error for a declined request.
const codeUserRejected = 4001

var rejectionPhrases = []string{
	"user rejected",
	"user denied",
	"request denied",
}

// IsUserRejected reports whether the wallet declined to sign.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrUserRejected) {
		return true
	}
	if errors.Is(err, keystore.ErrLocked) {
		return true
	}
	var authErr *accounts.AuthNeededError
	if errors.As(err, &authErr) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeUserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// displayMessage collapses a write-path failure into the text shown to users.
func displayMessage(err error) string {
	if IsUserRejected(err) {
		return models.MsgUserRejected
	}
	return models.MsgTxFailed
}
