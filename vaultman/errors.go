package vaultman

import "errors"

var (
	ErrTxReverted    = errors.New("transaction reverted")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrNoVaultAtAddr = errors.New("no vault deployed at address")
)
