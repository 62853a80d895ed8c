package agreement

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Giveth/vaultcontract/vault"
)

// StateChannel is implemented by the core state. The synchronizer pushes
// batches into the returned channel, the state stores them.
type StateChannel interface {
	// If Sync finds new finalized blocks, fill in this channel
	GetNewSyncBatchChannel() chan<- *SyncBatch

	// This is NOT a channel, it reads the last synced block number from state.
	GetFinalizedBlockNumber() (*big.Int, error)
}

// PaymentSource lists the payments the payout keeper may collect. Payments
// for which skip reports true are passed over and more are read until limit
// is reached or none are left.
type PaymentSource interface {
	GetPaymentsDue(ctx context.Context, now uint64, limit int, skip func(*vault.Payment) (bool, error)) ([]*vault.Payment, error)
}

// Collector submits collect transactions and reads their outcome. The
// keeper wraps a vault manager and one funded account in it.
type Collector interface {
	Collect(ctx context.Context, id uint64) (common.Hash, error)
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	LatestBlock(ctx context.Context) (*types.Header, error)
}
