package models

import "errors"

var (
	ErrPollIsEnd           = errors.New("poll is closed")
	ErrPollNotFound        = errors.New("poll is not found")
	ErrPollNotLoaded       = errors.New("poll is not loaded yet")
	ErrFailedToProcessData = errors.New("failed to process data")
	ErrOptionIsNotFound    = errors.New("option is not found")
	ErrUnsupportedOption   = errors.New("unsupported voting option")
	ErrVoteAlreadyExists   = errors.New("you have already voted")
	ErrNoSession           = errors.New("wallet is not connected")
	ErrVoteInFlight        = errors.New("a vote is already being submitted")

	// write path, collapsed into TxError for display
	ErrUserRejected       = errors.New("user rejected the request")
	ErrSubmissionFailed   = errors.New("submission failed")
	ErrConfirmationFailed = errors.New("confirmation failed")

	// live feed, logged only
	ErrSubscription = errors.New("subscription failed")
)
