package ethsync

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Giveth/vaultcontract/vault"
	"github.com/Giveth/vaultcontract/vaultman"
)

// VaultReader is the part of vaultman.Vaultman the synchronizer reads.
type VaultReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GetLatestFinalizedBlockNumber(ctx context.Context) (*big.Int, error)
	GetEventLogs(ctx context.Context, from, to *big.Int) ([]*vaultman.Event, error)
	GetPayment(ctx context.Context, id uint64) (*vault.Payment, error)
	GetSpender(ctx context.Context, addr common.Address) (*vault.Spender, bool, error)
	GetSummary(ctx context.Context) (*vault.State, error)
}

var _ VaultReader = (*vaultman.Vaultman)(nil)
