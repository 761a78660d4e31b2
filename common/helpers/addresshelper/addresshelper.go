package addresshelper

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

// Normalize returns the lowercase 0x-prefixed form used in every store key.
func Normalize(address string) string {
	return strings.ToLower(common.HexToAddress(address).Hex())
}

func FromAddress(address common.Address) string {
	return strings.ToLower(address.Hex())
}

func IsZero(address string) bool {
	return Normalize(address) == ZERO_ADDRESS
}
