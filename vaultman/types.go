package vaultman

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// Events
	PaymentAuthorizedSignatureHash            = crypto.Keccak256Hash([]byte("PaymentAuthorized(uint256,address,uint256)"))
	PaymentExecutedSignatureHash              = crypto.Keccak256Hash([]byte("PaymentExecuted(uint256,address,uint256)"))
	PaymentCanceledSignatureHash              = crypto.Keccak256Hash([]byte("PaymentCanceled(uint256)"))
	PaymentDelayedSignatureHash               = crypto.Keccak256Hash([]byte("PaymentDelayed(uint256,uint256,uint256)"))
	EtherReceivedSignatureHash                = crypto.Keccak256Hash([]byte("EtherReceived(address,uint256)"))
	SpenderAuthorizationSignatureHash         = crypto.Keccak256Hash([]byte("SpenderAuthorization(address,bool)"))
	EscapeHatchCalledSignatureHash            = crypto.Keccak256Hash([]byte("EscapeHatchCalled(uint256)"))
	EscapeHatchCallerChangedSignatureHash     = crypto.Keccak256Hash([]byte("EscapeHatchCallerChanged(address)"))
	OwnerChangedSignatureHash                 = crypto.Keccak256Hash([]byte("OwnerChanged(address,address)"))
	SecurityGuardChangedSignatureHash         = crypto.Keccak256Hash([]byte("SecurityGuardChanged(address)"))
	TimelockChangedSignatureHash              = crypto.Keccak256Hash([]byte("TimelockChanged(uint256)"))
	MaxSecurityGuardDelayChangedSignatureHash = crypto.Keccak256Hash([]byte("MaxSecurityGuardDelayChanged(uint256)"))
)

// Params to call authorizePayment()
type AuthorizePaymentParams struct {
	Description string
	Reference   common.Hash
	Recipient   common.Address
	Amount      *big.Int
	// Delay in seconds, raised to the vault time lock when shorter
	Delay uint64
}

// Event is a decoded vault log. Args maps every argument name to its ABI
// typed value. Payload holds one of the Vault.Vault* event structs, its Raw
// field carrying the log itself.
type Event struct {
	Name        string
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Args        map[string]interface{}
	Payload     interface{}
}
