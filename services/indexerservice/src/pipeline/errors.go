package pipeline

import "errors"

var (
	ErrMalformedLog     = errors.New("log payload does not match its type")
	ErrBlockOutOfOrder  = errors.New("block is not after the last processed block")
	ErrUncommittedBlock = errors.New("previous block was not committed")
	ErrMissingTimestamp = errors.New("block has no timestamp")
)
