package state

import "math/big"

// MinDuePageSize is the smallest page read while looking for due payments.
const MinDuePageSize = 64

type StateConfig struct {
	ChannelSize int
	ChainID     *big.Int // chain the vault lives on, eg. 1337
}
