package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	DefaultChainID  = big.NewInt(1337)
	DefaultGasLimit = uint64(30_000_000)

	// 100 ether
	DefaultAccountBalance, _ = new(big.Int).SetString("100000000000000000000", 10)
)

const (
	txGas       = uint64(21_000)
	callGas     = uint64(150_000)
	deployGas   = uint64(1_500_000)
	gasPriceWei = int64(1_000_000_000)
)

// Config parameterizes a SimulatedChain.
type Config struct {
	ChainID *big.Int

	// GenesisTime is the timestamp of block 0. Zero means the current time.
	GenesisTime uint64

	// AutoCommit seals a block after every transaction.
	AutoCommit bool

	// Accounts is the number of funded development accounts to create.
	Accounts int

	// Alloc credits extra native balances at genesis.
	Alloc map[common.Address]*big.Int

	// Clock, when set, keeps block timestamps from falling behind it.
	Clock func() time.Time
}

func DefaultConfig() *Config {
	return &Config{
		ChainID:    new(big.Int).Set(DefaultChainID),
		AutoCommit: true,
		Accounts:   10,
	}
}
