package eventcollectorservice

import "errors"

var (
	ErrUnableToInitLogsClient = errors.New("unable to init logs client")
	ErrBlockNotFound          = errors.New("block not found")
	ErrTransactionNotInBlock  = errors.New("log transaction not found in its block")
	ErrBlockHashMismatch      = errors.New("log block hash differs from the fetched block")
)
