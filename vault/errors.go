package vault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized      = errors.New("vault: unauthorized")
	ErrInvalidState      = errors.New("vault: invalid state")
	ErrInvalidParameter  = errors.New("vault: invalid parameter")
	ErrLimitExceeded     = errors.New("vault: limit exceeded")
	ErrNotYetDue         = errors.New("vault: payment not yet due")
	ErrInsufficientFunds = errors.New("vault: insufficient funds")
	ErrWrongAssetType    = errors.New("vault: wrong asset type")

	// ordered from the most to the least specific message
	sentinels = []error{
		ErrUnauthorized,
		ErrInvalidState,
		ErrInvalidParameter,
		ErrLimitExceeded,
		ErrNotYetDue,
		ErrInsufficientFunds,
		ErrWrongAssetType,
	}
)

// MatchError recovers the sentinel from an error that crossed a transport
// boundary, where only the message survives. The returned error wraps the
// sentinel and keeps the original text. Errors that carry no vault sentinel
// are returned unchanged.
func MatchError(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}
	msg := err.Error()
	for _, s := range sentinels {
		if strings.Contains(msg, s.Error()) {
			return &remoteError{sentinel: s, msg: msg}
		}
	}
	return err
}

// IsVaultError reports whether err carries one of the vault sentinels.
func IsVaultError(err error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func errUnauthorized(role string, caller fmt.Stringer) error {
	return fmt.Errorf("%w: caller %s is not the %s", ErrUnauthorized, caller, role)
}

func errUnknownPayment(id uint64, n int) error {
	return fmt.Errorf("%w: payment %d does not exist (have %d)", ErrInvalidParameter, id, n)
}

func errTerminal(id uint64, p *Payment) error {
	return fmt.Errorf("%w: payment %d is already %s", ErrInvalidState, id, p.Status())
}
