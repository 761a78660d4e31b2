package indexerservice

import "errors"

var (
	ErrIncompleteBlock   = errors.New("block events ended without BlockOver")
	ErrMissingLog        = errors.New("log event has no log")
	ErrUnknownBlockEvent = errors.New("unknown block event type")
	ErrForeignChain      = errors.New("block event of another chain")
)
