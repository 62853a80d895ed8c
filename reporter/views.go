package reporter

import (
	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/vault"
)

// Amounts are rendered as decimal strings, addresses and hashes as 0x hex.

type PaymentView struct {
	ID                 uint64 `json:"id"`
	Description        string `json:"description"`
	Reference          string `json:"reference"`
	Spender            string `json:"spender"`
	Recipient          string `json:"recipient"`
	Amount             string `json:"amount"`
	EarliestPayTime    uint64 `json:"earliestPayTime"`
	SecurityGuardDelay uint64 `json:"securityGuardDelay"`
	Status             string `json:"status"`
}

func NewPaymentView(p *vault.Payment) *PaymentView {
	return &PaymentView{
		ID:                 p.ID,
		Description:        p.Description,
		Reference:          p.Reference.Hex(),
		Spender:            p.Spender.Hex(),
		Recipient:          p.Recipient.Hex(),
		Amount:             p.Amount.String(),
		EarliestPayTime:    p.EarliestPayTime,
		SecurityGuardDelay: p.SecurityGuardDelay,
		Status:             string(p.Status()),
	}
}

type SpenderView struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	NameHash   string `json:"nameHash"`
	Idx        uint64 `json:"idx"`
	Authorized bool   `json:"authorized"`
}

func NewSpenderView(s *vault.Spender) *SpenderView {
	return &SpenderView{
		Address:    s.Address.Hex(),
		Name:       s.Name,
		NameHash:   s.NameHash.Hex(),
		Idx:        s.Idx,
		Authorized: s.Authorized,
	}
}

type VaultView struct {
	Address                string `json:"address"`
	Owner                  string `json:"owner"`
	EscapeHatchCaller      string `json:"escapeHatchCaller"`
	EscapeHatchDestination string `json:"escapeHatchDestination"`
	SecurityGuard          string `json:"securityGuard"`
	BaseToken              string `json:"baseToken"`
	AbsoluteMinTimeLock    uint64 `json:"absoluteMinTimeLock"`
	TimeLock               uint64 `json:"timeLock"`
	MaxSecurityGuardDelay  uint64 `json:"maxSecurityGuardDelay"`
	Balance                string `json:"balance"`
	SyncedBlock            uint64 `json:"syncedBlock"`
}

func NewVaultView(v *vault.State) *VaultView {
	return &VaultView{
		Address:                v.Address.Hex(),
		Owner:                  v.Owner.Hex(),
		EscapeHatchCaller:      v.EscapeHatchCaller.Hex(),
		EscapeHatchDestination: v.EscapeHatchDestination.Hex(),
		SecurityGuard:          v.SecurityGuard.Hex(),
		BaseToken:              v.BaseToken.Hex(),
		AbsoluteMinTimeLock:    v.AbsoluteMinTimeLock,
		TimeLock:               v.TimeLock,
		MaxSecurityGuardDelay:  v.MaxSecurityGuardDelay,
		Balance:                v.Balance.String(),
	}
}

type EventView struct {
	Name        string            `json:"name"`
	BlockNumber uint64            `json:"blockNumber"`
	TxHash      string            `json:"txHash"`
	LogIndex    uint              `json:"logIndex"`
	Args        map[string]string `json:"args"`
}

func NewEventView(ev *agreement.VaultEvent) *EventView {
	return &EventView{
		Name:        ev.Name,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash.Hex(),
		LogIndex:    ev.LogIndex,
		Args:        ev.Args,
	}
}
