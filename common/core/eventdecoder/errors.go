package eventdecoder

import "errors"

var (
	ErrDecodeMismatch   = errors.New("log matches an event signature but cannot be decoded")
	ErrUnableToParseLog = errors.New("unable to parse log field")
	ErrNotEnoughTopics  = errors.New("not enough topics in log")
)
