// Global agreement on the types exchanged between the synchronizer, the
// state and the payout keeper.

package agreement

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Giveth/vaultcontract/vault"
)

// VaultEvent is a vault log flattened for storage. Args holds the event
// arguments by their ABI name, rendered as strings.
type VaultEvent struct {
	Name        string
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Args        map[string]string
}

func (ev *VaultEvent) String() string {
	return fmt.Sprintf("%s@%d/%d%v", ev.Name, ev.BlockNumber, ev.LogIndex, ev.Args)
}

// SyncBatch carries everything observed up to a finalized block. The state
// applies a batch atomically and then records BlockNumber as synced.
type SyncBatch struct {
	BlockNumber *big.Int
	Events      []*VaultEvent

	// Payments and Spenders are the records touched by Events, read after
	// BlockNumber was finalized.
	Payments []*vault.Payment
	Spenders []*vault.Spender

	// Vault is the contract summary, without payments and spenders. The
	// state keeps the stored summary when it is nil.
	Vault *vault.State
}

func (b *SyncBatch) String() string {
	return fmt.Sprintf("batch{block=%v events=%d payments=%d spenders=%d}",
		b.BlockNumber, len(b.Events), len(b.Payments), len(b.Spenders))
}
