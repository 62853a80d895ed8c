// Package Vault holds the Go binding of the Vault contract. The ledger in
// package chain hosts the contract natively and recognises VaultBin as its
// code; constructor arguments are ABI packed after it.
package Vault

import (
	_ "embed"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed Vault.abi
var vaultABI string

// VaultMetaData contains all meta data concerning the Vault contract.
var VaultMetaData = &bind.MetaData{
	ABI: vaultABI,
	// "GivethVault"
	Bin: "0x4769766574685661756c74",
}

// VaultABI is the input ABI used to generate the binding from.
var VaultABI = VaultMetaData.ABI

// VaultBin is the code marker used for deploying new vaults.
var VaultBin = VaultMetaData.Bin

// DeployVault deploys a new vault, binding an instance of Vault to it.
func DeployVault(
	auth *bind.TransactOpts,
	backend bind.ContractBackend,
	baseToken common.Address,
	escapeHatchCaller common.Address,
	escapeHatchDestination common.Address,
	absoluteMinTimeLock *big.Int,
	timeLock *big.Int,
	securityGuard common.Address,
	maxSecurityGuardDelay *big.Int,
) (common.Address, *types.Transaction, *Vault, error) {
	parsed, err := VaultMetaData.GetAbi()
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if parsed == nil {
		return common.Address{}, nil, nil, errors.New("GetABI returned nil")
	}

	address, tx, contract, err := bind.DeployContract(auth, *parsed, common.FromHex(VaultBin), backend,
		baseToken, escapeHatchCaller, escapeHatchDestination, absoluteMinTimeLock, timeLock, securityGuard, maxSecurityGuardDelay)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Vault{VaultCaller: VaultCaller{contract: contract}, VaultTransactor: VaultTransactor{contract: contract}, VaultFilterer: VaultFilterer{contract: contract}}, nil
}

// Vault is a Go binding around the Vault contract.
type Vault struct {
	VaultCaller     // Read-only binding to the contract
	VaultTransactor // Write-only binding to the contract
	VaultFilterer   // Log filterer for contract events
}

// VaultCaller is a read-only Go binding around the Vault contract.
type VaultCaller struct {
	contract *bind.BoundContract
}

// VaultTransactor is a write-only Go binding around the Vault contract.
type VaultTransactor struct {
	contract *bind.BoundContract
}

// VaultFilterer is a log filtering Go binding around the Vault contract events.
type VaultFilterer struct {
	contract *bind.BoundContract
}

// NewVault creates a new instance of Vault, bound to a specific deployed contract.
func NewVault(address common.Address, backend bind.ContractBackend) (*Vault, error) {
	contract, err := bindVault(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &Vault{VaultCaller: VaultCaller{contract: contract}, VaultTransactor: VaultTransactor{contract: contract}, VaultFilterer: VaultFilterer{contract: contract}}, nil
}

// NewVaultCaller creates a new read-only instance of Vault, bound to a specific deployed contract.
func NewVaultCaller(address common.Address, caller bind.ContractCaller) (*VaultCaller, error) {
	contract, err := bindVault(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &VaultCaller{contract: contract}, nil
}

// bindVault binds a generic wrapper to an already deployed contract.
func bindVault(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := VaultMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

func (_Vault *VaultCaller) callAddress(opts *bind.CallOpts, method string, params ...interface{}) (common.Address, error) {
	var out []interface{}
	err := _Vault.contract.Call(opts, &out, method, params...)
	if err != nil {
		return *new(common.Address), err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (_Vault *VaultCaller) callBigInt(opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	var out []interface{}
	err := _Vault.contract.Call(opts, &out, method, params...)
	if err != nil {
		return *new(*big.Int), err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Owner is a free data retrieval call binding the contract method owner.
//
// Solidity: function owner() view returns(address)
func (_Vault *VaultCaller) Owner(opts *bind.CallOpts) (common.Address, error) {
	return _Vault.callAddress(opts, "owner")
}

// EscapeHatchCaller is a free data retrieval call binding the contract method escapeHatchCaller.
//
// Solidity: function escapeHatchCaller() view returns(address)
func (_Vault *VaultCaller) EscapeHatchCaller(opts *bind.CallOpts) (common.Address, error) {
	return _Vault.callAddress(opts, "escapeHatchCaller")
}

// EscapeHatchDestination is a free data retrieval call binding the contract method escapeHatchDestination.
//
// Solidity: function escapeHatchDestination() view returns(address)
func (_Vault *VaultCaller) EscapeHatchDestination(opts *bind.CallOpts) (common.Address, error) {
	return _Vault.callAddress(opts, "escapeHatchDestination")
}

// SecurityGuard is a free data retrieval call binding the contract method securityGuard.
//
// Solidity: function securityGuard() view returns(address)
func (_Vault *VaultCaller) SecurityGuard(opts *bind.CallOpts) (common.Address, error) {
	return _Vault.callAddress(opts, "securityGuard")
}

// BaseToken is a free data retrieval call binding the contract method baseToken.
//
// Solidity: function baseToken() view returns(address)
func (_Vault *VaultCaller) BaseToken(opts *bind.CallOpts) (common.Address, error) {
	return _Vault.callAddress(opts, "baseToken")
}

// TimeLock is a free data retrieval call binding the contract method timeLock.
//
// Solidity: function timeLock() view returns(uint256)
func (_Vault *VaultCaller) TimeLock(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "timeLock")
}

// AbsoluteMinTimeLock is a free data retrieval call binding the contract method absoluteMinTimeLock.
//
// Solidity: function absoluteMinTimeLock() view returns(uint256)
func (_Vault *VaultCaller) AbsoluteMinTimeLock(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "absoluteMinTimeLock")
}

// MaxSecurityGuardDelay is a free data retrieval call binding the contract method maxSecurityGuardDelay.
//
// Solidity: function maxSecurityGuardDelay() view returns(uint256)
func (_Vault *VaultCaller) MaxSecurityGuardDelay(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "maxSecurityGuardDelay")
}

// GetBalance is a free data retrieval call binding the contract method getBalance.
//
// Solidity: function getBalance() view returns(uint256)
func (_Vault *VaultCaller) GetBalance(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "getBalance")
}

// NumberOfAuthorizedPayments is a free data retrieval call binding the contract method numberOfAuthorizedPayments.
//
// Solidity: function numberOfAuthorizedPayments() view returns(uint256)
func (_Vault *VaultCaller) NumberOfAuthorizedPayments(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "numberOfAuthorizedPayments")
}

// NumberOfSpenders is a free data retrieval call binding the contract method numberOfSpenders.
//
// Solidity: function numberOfSpenders() view returns(uint256)
func (_Vault *VaultCaller) NumberOfSpenders(opts *bind.CallOpts) (*big.Int, error) {
	return _Vault.callBigInt(opts, "numberOfSpenders")
}

// GetSpenderAddress is a free data retrieval call binding the contract method getSpenderAddress.
//
// Solidity: function getSpenderAddress(uint256 idx) view returns(address)
func (_Vault *VaultCaller) GetSpenderAddress(opts *bind.CallOpts, idx *big.Int) (common.Address, error) {
	return _Vault.callAddress(opts, "getSpenderAddress", idx)
}

// IsAuthorized is a free data retrieval call binding the contract method isAuthorized.
//
// Solidity: function isAuthorized(address spender) view returns(bool)
func (_Vault *VaultCaller) IsAuthorized(opts *bind.CallOpts, spender common.Address) (bool, error) {
	var out []interface{}
	err := _Vault.contract.Call(opts, &out, "isAuthorized", spender)
	if err != nil {
		return *new(bool), err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// AuthorizedPayment is the named output of authorizedPayments.
type AuthorizedPayment struct {
	Description        string
	Reference          [32]byte
	Spender            common.Address
	EarliestPayTime    *big.Int
	Canceled           bool
	Paid               bool
	Recipient          common.Address
	Amount             *big.Int
	SecurityGuardDelay *big.Int
}

// AuthorizedPayments is a free data retrieval call binding the contract method authorizedPayments.
//
// Solidity: function authorizedPayments(uint256 idPayment) view returns(string description, bytes32 reference, address spender, uint256 earliestPayTime, bool canceled, bool paid, address recipient, uint256 amount, uint256 securityGuardDelay)
func (_Vault *VaultCaller) AuthorizedPayments(opts *bind.CallOpts, idPayment *big.Int) (AuthorizedPayment, error) {
	var out []interface{}
	err := _Vault.contract.Call(opts, &out, "authorizedPayments", idPayment)

	outstruct := new(AuthorizedPayment)
	if err != nil {
		return *outstruct, err
	}

	outstruct.Description = *abi.ConvertType(out[0], new(string)).(*string)
	outstruct.Reference = *abi.ConvertType(out[1], new([32]byte)).(*[32]byte)
	outstruct.Spender = *abi.ConvertType(out[2], new(common.Address)).(*common.Address)
	outstruct.EarliestPayTime = *abi.ConvertType(out[3], new(*big.Int)).(**big.Int)
	outstruct.Canceled = *abi.ConvertType(out[4], new(bool)).(*bool)
	outstruct.Paid = *abi.ConvertType(out[5], new(bool)).(*bool)
	outstruct.Recipient = *abi.ConvertType(out[6], new(common.Address)).(*common.Address)
	outstruct.Amount = *abi.ConvertType(out[7], new(*big.Int)).(**big.Int)
	outstruct.SecurityGuardDelay = *abi.ConvertType(out[8], new(*big.Int)).(**big.Int)

	return *outstruct, err
}

// SpenderRecord is the named output of spenders.
type SpenderRecord struct {
	Name       string
	NameHash   [32]byte
	Idx        *big.Int
	Authorized bool
}

// Spenders is a free data retrieval call binding the contract method spenders.
//
// Solidity: function spenders(address spender) view returns(string name, bytes32 nameHash, uint256 idx, bool authorized)
func (_Vault *VaultCaller) Spenders(opts *bind.CallOpts, spender common.Address) (SpenderRecord, error) {
	var out []interface{}
	err := _Vault.contract.Call(opts, &out, "spenders", spender)

	outstruct := new(SpenderRecord)
	if err != nil {
		return *outstruct, err
	}

	outstruct.Name = *abi.ConvertType(out[0], new(string)).(*string)
	outstruct.NameHash = *abi.ConvertType(out[1], new([32]byte)).(*[32]byte)
	outstruct.Idx = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.Authorized = *abi.ConvertType(out[3], new(bool)).(*bool)

	return *outstruct, err
}

// AuthorizePaymentCall dry runs authorizePayment and returns the id the
// payment would get.
func (_Vault *VaultCaller) AuthorizePaymentCall(opts *bind.CallOpts, description string, reference [32]byte, recipient common.Address, amount *big.Int, paymentDelay *big.Int) (*big.Int, error) {
	return _Vault.callBigInt(opts, "authorizePayment", description, reference, recipient, amount, paymentDelay)
}

// ChangeOwner is a paid mutator transaction binding the contract method changeOwner.
//
// Solidity: function changeOwner(address newOwner) returns()
func (_Vault *VaultTransactor) ChangeOwner(opts *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "changeOwner", newOwner)
}

// SetSecurityGuard is a paid mutator transaction binding the contract method setSecurityGuard.
//
// Solidity: function setSecurityGuard(address newSecurityGuard) returns()
func (_Vault *VaultTransactor) SetSecurityGuard(opts *bind.TransactOpts, newSecurityGuard common.Address) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "setSecurityGuard", newSecurityGuard)
}

// SetTimelock is a paid mutator transaction binding the contract method setTimelock.
//
// Solidity: function setTimelock(uint256 newTimeLock) returns()
func (_Vault *VaultTransactor) SetTimelock(opts *bind.TransactOpts, newTimeLock *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "setTimelock", newTimeLock)
}

// SetMaxSecurityGuardDelay is a paid mutator transaction binding the contract method setMaxSecurityGuardDelay.
//
// Solidity: function setMaxSecurityGuardDelay(uint256 maxDelay) returns()
func (_Vault *VaultTransactor) SetMaxSecurityGuardDelay(opts *bind.TransactOpts, maxDelay *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "setMaxSecurityGuardDelay", maxDelay)
}

// ChangeEscapeHatchCaller is a paid mutator transaction binding the contract method changeEscapeHatchCaller.
//
// Solidity: function changeEscapeHatchCaller(address newEscapeHatchCaller) returns()
func (_Vault *VaultTransactor) ChangeEscapeHatchCaller(opts *bind.TransactOpts, newEscapeHatchCaller common.Address) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "changeEscapeHatchCaller", newEscapeHatchCaller)
}

// AuthorizeSpender is a paid mutator transaction binding the contract method authorizeSpender.
//
// Solidity: function authorizeSpender(address spender, string name, bytes32 nameHash) returns()
func (_Vault *VaultTransactor) AuthorizeSpender(opts *bind.TransactOpts, spender common.Address, name string, nameHash [32]byte) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "authorizeSpender", spender, name, nameHash)
}

// UnauthorizeSpender is a paid mutator transaction binding the contract method unauthorizeSpender.
//
// Solidity: function unauthorizeSpender(address spender) returns()
func (_Vault *VaultTransactor) UnauthorizeSpender(opts *bind.TransactOpts, spender common.Address) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "unauthorizeSpender", spender)
}

// AuthorizePayment is a paid mutator transaction binding the contract method authorizePayment.
//
// Solidity: function authorizePayment(string description, bytes32 reference, address recipient, uint256 amount, uint256 paymentDelay) returns(uint256 idPayment)
func (_Vault *VaultTransactor) AuthorizePayment(opts *bind.TransactOpts, description string, reference [32]byte, recipient common.Address, amount *big.Int, paymentDelay *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "authorizePayment", description, reference, recipient, amount, paymentDelay)
}

// DelayPayment is a paid mutator transaction binding the contract method delayPayment.
//
// Solidity: function delayPayment(uint256 idPayment, uint256 delay) returns()
func (_Vault *VaultTransactor) DelayPayment(opts *bind.TransactOpts, idPayment *big.Int, delay *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "delayPayment", idPayment, delay)
}

// CancelPayment is a paid mutator transaction binding the contract method cancelPayment.
//
// Solidity: function cancelPayment(uint256 idPayment) returns()
func (_Vault *VaultTransactor) CancelPayment(opts *bind.TransactOpts, idPayment *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "cancelPayment", idPayment)
}

// CollectAuthorizedPayment is a paid mutator transaction binding the contract method collectAuthorizedPayment.
//
// Solidity: function collectAuthorizedPayment(uint256 idPayment) returns()
func (_Vault *VaultTransactor) CollectAuthorizedPayment(opts *bind.TransactOpts, idPayment *big.Int) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "collectAuthorizedPayment", idPayment)
}

// EscapeHatch is a paid mutator transaction binding the contract method escapeHatch.
//
// Solidity: function escapeHatch() returns()
func (_Vault *VaultTransactor) EscapeHatch(opts *bind.TransactOpts) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "escapeHatch")
}

// ReceiveEther is a paid mutator transaction binding the contract method receiveEther.
//
// Solidity: function receiveEther() payable returns()
func (_Vault *VaultTransactor) ReceiveEther(opts *bind.TransactOpts) (*types.Transaction, error) {
	return _Vault.contract.Transact(opts, "receiveEther")
}

// Receive is a paid mutator transaction binding the contract receive function.
//
// Solidity: receive() payable returns()
func (_Vault *VaultTransactor) Receive(opts *bind.TransactOpts) (*types.Transaction, error) {
	return _Vault.contract.RawTransact(opts, nil)
}

// VaultPaymentAuthorized represents a PaymentAuthorized event raised by the Vault contract.
type VaultPaymentAuthorized struct {
	IdPayment *big.Int
	Recipient common.Address
	Amount    *big.Int
	Raw       types.Log // Blockchain specific contextual infos
}

// VaultPaymentExecuted represents a PaymentExecuted event raised by the Vault contract.
type VaultPaymentExecuted struct {
	IdPayment *big.Int
	Recipient common.Address
	Amount    *big.Int
	Raw       types.Log
}

// VaultPaymentCanceled represents a PaymentCanceled event raised by the Vault contract.
type VaultPaymentCanceled struct {
	IdPayment *big.Int
	Raw       types.Log
}

// VaultPaymentDelayed represents a PaymentDelayed event raised by the Vault contract.
type VaultPaymentDelayed struct {
	IdPayment       *big.Int
	Delay           *big.Int
	EarliestPayTime *big.Int
	Raw             types.Log
}

// VaultEtherReceived represents an EtherReceived event raised by the Vault contract.
type VaultEtherReceived struct {
	From   common.Address
	Amount *big.Int
	Raw    types.Log
}

// VaultSpenderAuthorization represents a SpenderAuthorization event raised by the Vault contract.
type VaultSpenderAuthorization struct {
	Spender    common.Address
	Authorized bool
	Raw        types.Log
}

// VaultEscapeHatchCalled represents an EscapeHatchCalled event raised by the Vault contract.
type VaultEscapeHatchCalled struct {
	Amount *big.Int
	Raw    types.Log
}

// VaultEscapeHatchCallerChanged represents an EscapeHatchCallerChanged event raised by the Vault contract.
type VaultEscapeHatchCallerChanged struct {
	NewEscapeHatchCaller common.Address
	Raw                  types.Log
}

// VaultOwnerChanged represents an OwnerChanged event raised by the Vault contract.
type VaultOwnerChanged struct {
	PreviousOwner common.Address
	NewOwner      common.Address
	Raw           types.Log
}

// VaultSecurityGuardChanged represents a SecurityGuardChanged event raised by the Vault contract.
type VaultSecurityGuardChanged struct {
	NewSecurityGuard common.Address
	Raw              types.Log
}

// VaultTimelockChanged represents a TimelockChanged event raised by the Vault contract.
type VaultTimelockChanged struct {
	NewTimeLock *big.Int
	Raw         types.Log
}

// VaultMaxSecurityGuardDelayChanged represents a MaxSecurityGuardDelayChanged event raised by the Vault contract.
type VaultMaxSecurityGuardDelayChanged struct {
	NewMaxSecurityGuardDelay *big.Int
	Raw                      types.Log
}

// ParseLog unpacks log into out, one of the Vault* event structs above.
func (_Vault *VaultFilterer) ParseLog(out interface{}, event string, log types.Log) error {
	return _Vault.contract.UnpackLog(out, event, log)
}

// ParsePaymentAuthorized is a log parse operation binding the contract event PaymentAuthorized.
func (_Vault *VaultFilterer) ParsePaymentAuthorized(log types.Log) (*VaultPaymentAuthorized, error) {
	event := new(VaultPaymentAuthorized)
	if err := _Vault.contract.UnpackLog(event, "PaymentAuthorized", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParsePaymentExecuted is a log parse operation binding the contract event PaymentExecuted.
func (_Vault *VaultFilterer) ParsePaymentExecuted(log types.Log) (*VaultPaymentExecuted, error) {
	event := new(VaultPaymentExecuted)
	if err := _Vault.contract.UnpackLog(event, "PaymentExecuted", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParsePaymentCanceled is a log parse operation binding the contract event PaymentCanceled.
func (_Vault *VaultFilterer) ParsePaymentCanceled(log types.Log) (*VaultPaymentCanceled, error) {
	event := new(VaultPaymentCanceled)
	if err := _Vault.contract.UnpackLog(event, "PaymentCanceled", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParsePaymentDelayed is a log parse operation binding the contract event PaymentDelayed.
func (_Vault *VaultFilterer) ParsePaymentDelayed(log types.Log) (*VaultPaymentDelayed, error) {
	event := new(VaultPaymentDelayed)
	if err := _Vault.contract.UnpackLog(event, "PaymentDelayed", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseEtherReceived is a log parse operation binding the contract event EtherReceived.
func (_Vault *VaultFilterer) ParseEtherReceived(log types.Log) (*VaultEtherReceived, error) {
	event := new(VaultEtherReceived)
	if err := _Vault.contract.UnpackLog(event, "EtherReceived", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseSpenderAuthorization is a log parse operation binding the contract event SpenderAuthorization.
func (_Vault *VaultFilterer) ParseSpenderAuthorization(log types.Log) (*VaultSpenderAuthorization, error) {
	event := new(VaultSpenderAuthorization)
	if err := _Vault.contract.UnpackLog(event, "SpenderAuthorization", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseEscapeHatchCalled is a log parse operation binding the contract event EscapeHatchCalled.
func (_Vault *VaultFilterer) ParseEscapeHatchCalled(log types.Log) (*VaultEscapeHatchCalled, error) {
	event := new(VaultEscapeHatchCalled)
	if err := _Vault.contract.UnpackLog(event, "EscapeHatchCalled", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseEscapeHatchCallerChanged is a log parse operation binding the contract event EscapeHatchCallerChanged.
func (_Vault *VaultFilterer) ParseEscapeHatchCallerChanged(log types.Log) (*VaultEscapeHatchCallerChanged, error) {
	event := new(VaultEscapeHatchCallerChanged)
	if err := _Vault.contract.UnpackLog(event, "EscapeHatchCallerChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseOwnerChanged is a log parse operation binding the contract event OwnerChanged.
func (_Vault *VaultFilterer) ParseOwnerChanged(log types.Log) (*VaultOwnerChanged, error) {
	event := new(VaultOwnerChanged)
	if err := _Vault.contract.UnpackLog(event, "OwnerChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseSecurityGuardChanged is a log parse operation binding the contract event SecurityGuardChanged.
func (_Vault *VaultFilterer) ParseSecurityGuardChanged(log types.Log) (*VaultSecurityGuardChanged, error) {
	event := new(VaultSecurityGuardChanged)
	if err := _Vault.contract.UnpackLog(event, "SecurityGuardChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseTimelockChanged is a log parse operation binding the contract event TimelockChanged.
func (_Vault *VaultFilterer) ParseTimelockChanged(log types.Log) (*VaultTimelockChanged, error) {
	event := new(VaultTimelockChanged)
	if err := _Vault.contract.UnpackLog(event, "TimelockChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// ParseMaxSecurityGuardDelayChanged is a log parse operation binding the contract event MaxSecurityGuardDelayChanged.
func (_Vault *VaultFilterer) ParseMaxSecurityGuardDelayChanged(log types.Log) (*VaultMaxSecurityGuardDelayChanged, error) {
	event := new(VaultMaxSecurityGuardDelayChanged)
	if err := _Vault.contract.UnpackLog(event, "MaxSecurityGuardDelayChanged", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
