package rpcclienterrors

import "errors"

var (
	ErrUnableToGetDecimals    = errors.New("unable to get token decimals")
	ErrUnableToGetOracleRound = errors.New("unable to get oracle round")
	ErrUnableToConvertResult  = errors.New("unable to convert rpc call result")
)
