package ethsync

import (
	"math/big"
	"time"
)

const (
	MinTickerDuration = 100 * time.Millisecond
	DefaultBlockRange = uint64(1000)
)

type Config struct {
	FrequencyToCheckFinalizedBlock time.Duration
	ChainID                        *big.Int

	// StartBlock is the vault deployment block. Earlier blocks are never
	// scanned.
	StartBlock *big.Int

	// BlockRange caps the blocks covered by one log query and one batch.
	BlockRange uint64
}
