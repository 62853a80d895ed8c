package vault

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDelay bounds both the delay requested when authorizing a payment and a
// single guard delay.
const MaxDelay = uint64(1_000_000_000_000_000_000)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusCanceled PaymentStatus = "canceled"
)

// Config holds the construction parameters of a vault. Durations are seconds.
type Config struct {
	// BaseToken is the asset held by the vault. The zero address means the
	// native currency.
	BaseToken              common.Address
	EscapeHatchCaller      common.Address
	EscapeHatchDestination common.Address
	AbsoluteMinTimeLock    uint64
	TimeLock               uint64
	SecurityGuard          common.Address
	MaxSecurityGuardDelay  uint64
}

func (cfg *Config) Validate() error {
	if cfg.EscapeHatchDestination == (common.Address{}) {
		return fmt.Errorf("%w: escape hatch destination is the zero address", ErrInvalidParameter)
	}
	if cfg.TimeLock > MaxDelay || cfg.MaxSecurityGuardDelay > MaxDelay {
		return fmt.Errorf("%w: durations are capped at %d", ErrInvalidParameter, MaxDelay)
	}
	if cfg.TimeLock < cfg.AbsoluteMinTimeLock {
		return fmt.Errorf("%w: time lock %d below absolute minimum %d",
			ErrInvalidParameter, cfg.TimeLock, cfg.AbsoluteMinTimeLock)
	}
	return nil
}

// IsNative reports whether the vault holds the native currency.
func (cfg *Config) IsNative() bool {
	return cfg.BaseToken == (common.Address{})
}

type Payment struct {
	ID                 uint64
	Description        string
	Reference          common.Hash
	Spender            common.Address
	EarliestPayTime    uint64
	Canceled           bool
	Paid               bool
	Recipient          common.Address
	Amount             *big.Int
	SecurityGuardDelay uint64
}

func (p *Payment) Status() PaymentStatus {
	switch {
	case p.Paid:
		return PaymentStatusPaid
	case p.Canceled:
		return PaymentStatusCanceled
	default:
		return PaymentStatusPending
	}
}

func (p *Payment) IsTerminal() bool {
	return p.Paid || p.Canceled
}

func (p *Payment) Clone() *Payment {
	cp := *p
	if p.Amount != nil {
		cp.Amount = new(big.Int).Set(p.Amount)
	}
	return &cp
}

func (p *Payment) String() string {
	return fmt.Sprintf("payment{id=%d, spender=%s, recipient=%s, amount=%v, earliest=%d, status=%s}",
		p.ID, p.Spender.Hex(), p.Recipient.Hex(), p.Amount, p.EarliestPayTime, p.Status())
}

type Spender struct {
	Address    common.Address
	Name       string
	NameHash   common.Hash
	Idx        uint64
	Authorized bool
}

// State is a point-in-time copy of everything a vault stores.
type State struct {
	Address                common.Address
	Owner                  common.Address
	EscapeHatchCaller      common.Address
	EscapeHatchDestination common.Address
	SecurityGuard          common.Address
	BaseToken              common.Address
	AbsoluteMinTimeLock    uint64
	TimeLock               uint64
	MaxSecurityGuardDelay  uint64
	Balance                *big.Int
	Payments               []*Payment
	Spenders               []*Spender
}
