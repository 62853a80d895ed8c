package vault

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NativeAsset designates the native currency in Bank calls.
var NativeAsset = common.Address{}

// Bank holds balances per asset and holder. Transfer must either move the
// whole amount or fail without effect.
type Bank interface {
	BalanceOf(asset, holder common.Address) *big.Int
	Transfer(asset, from, to common.Address, amount *big.Int) error
}

type balanceKey struct {
	asset  common.Address
	holder common.Address
}

// MemoryBank is an in-memory Bank.
type MemoryBank struct {
	mu       sync.RWMutex
	balances map[balanceKey]*big.Int
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[balanceKey]*big.Int)}
}

func (b *MemoryBank) BalanceOf(asset, holder common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if bal, ok := b.balances[balanceKey{asset, holder}]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (b *MemoryBank) Transfer(asset, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: transfer amount %v", ErrInvalidParameter, amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := balanceKey{asset, from}
	fromBal := b.get(fromKey)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %v of %s, needs %v",
			ErrInsufficientFunds, from.Hex(), fromBal, asset.Hex(), amount)
	}
	if from == to {
		return nil
	}
	b.balances[fromKey] = new(big.Int).Sub(fromBal, amount)
	toKey := balanceKey{asset, to}
	b.balances[toKey] = new(big.Int).Add(b.get(toKey), amount)
	return nil
}

// Mint creates amount out of thin air for holder.
func (b *MemoryBank) Mint(asset, holder common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := balanceKey{asset, holder}
	b.balances[key] = new(big.Int).Add(b.get(key), amount)
}

// Supply sums every balance of asset.
func (b *MemoryBank) Supply(asset common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := new(big.Int)
	for k, v := range b.balances {
		if k.asset == asset {
			total.Add(total, v)
		}
	}
	return total
}

func (b *MemoryBank) Clone() *MemoryBank {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cp := NewMemoryBank()
	for k, v := range b.balances {
		cp.balances[k] = new(big.Int).Set(v)
	}
	return cp
}

func (b *MemoryBank) get(key balanceKey) *big.Int {
	if bal, ok := b.balances[key]; ok {
		return bal
	}
	return new(big.Int)
}
