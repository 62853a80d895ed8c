package ethtxmanager

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/vaultman"
)

// VaultCollector sends collect transactions from a single keeper account.
type VaultCollector struct {
	vm   *vaultman.Vaultman
	auth *bind.TransactOpts
}

var _ agreement.Collector = (*VaultCollector)(nil)

func NewVaultCollector(vm *vaultman.Vaultman, auth *bind.TransactOpts) *VaultCollector {
	return &VaultCollector{vm: vm, auth: auth}
}

func (c *VaultCollector) Collect(ctx context.Context, id uint64) (ethcommon.Hash, error) {
	tx, err := c.vm.CollectAuthorizedPayment(ctx, c.auth, id)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return tx.Hash(), nil
}

// Receipt returns nil without error while the tx is unknown or pending.
func (c *VaultCollector) Receipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error) {
	receipt, err := c.vm.Client().TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	return receipt, err
}

func (c *VaultCollector) LatestBlock(ctx context.Context) (*types.Header, error) {
	return c.vm.Client().HeaderByNumber(ctx, nil)
}
