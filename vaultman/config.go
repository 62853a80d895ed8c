package vaultman

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	// URL is the JSON-RPC endpoint of the ledger
	URL string

	// VaultAddress is the deployed vault contract address
	VaultAddress common.Address

	// MineTimeout bounds the wait for a transaction receipt. Zero means no
	// bound besides the caller's context.
	MineTimeout time.Duration
}

// DeployParams are the constructor arguments of a vault.
type DeployParams struct {
	BaseToken              common.Address
	EscapeHatchCaller      common.Address
	EscapeHatchDestination common.Address
	AbsoluteMinTimeLock    uint64
	TimeLock               uint64
	SecurityGuard          common.Address
	MaxSecurityGuardDelay  uint64
}
