package ethsync

import (
	"fmt"
	"math/big"
)

var ErrTickerDurationTooShort = fmt.Errorf("ticker duration must be at least %v", MinTickerDuration)

// ErrChainIDUnmatched reports a node serving another chain than configured.
func ErrChainIDUnmatched(expected, actual *big.Int) error {
	return fmt.Errorf("chain ID mismatch: expected=%v, actual=%v", expected, actual)
}
