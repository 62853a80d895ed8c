// Package Token holds the Go binding of the minimal fungible token used as a
// vault base asset.
package Token

import (
	_ "embed"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed Token.abi
var tokenABI string

// TokenMetaData contains all meta data concerning the Token contract.
var TokenMetaData = &bind.MetaData{
	ABI: tokenABI,
	// "GivethToken"
	Bin: "0x476976657468546f6b656e",
}

var TokenABI = TokenMetaData.ABI

var TokenBin = TokenMetaData.Bin

// DeployToken deploys a new token whose initial supply goes to the deployer.
func DeployToken(auth *bind.TransactOpts, backend bind.ContractBackend, name_ string, symbol_ string, decimals_ uint8, initialSupply *big.Int) (common.Address, *types.Transaction, *Token, error) {
	parsed, err := TokenMetaData.GetAbi()
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if parsed == nil {
		return common.Address{}, nil, nil, errors.New("GetABI returned nil")
	}

	address, tx, contract, err := bind.DeployContract(auth, *parsed, common.FromHex(TokenBin), backend, name_, symbol_, decimals_, initialSupply)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return address, tx, &Token{contract: contract}, nil
}

// Token is a Go binding around the Token contract.
type Token struct {
	contract *bind.BoundContract
}

// NewToken creates a new instance of Token, bound to a specific deployed contract.
func NewToken(address common.Address, backend bind.ContractBackend) (*Token, error) {
	parsed, err := TokenMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &Token{contract: bind.NewBoundContract(address, *parsed, backend, backend, backend)}, nil
}

// BalanceOf is a free data retrieval call binding the contract method balanceOf.
//
// Solidity: function balanceOf(address account) view returns(uint256)
func (_Token *Token) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := _Token.contract.Call(opts, &out, "balanceOf", account)
	if err != nil {
		return *new(*big.Int), err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// TotalSupply is a free data retrieval call binding the contract method totalSupply.
//
// Solidity: function totalSupply() view returns(uint256)
func (_Token *Token) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _Token.contract.Call(opts, &out, "totalSupply")
	if err != nil {
		return *new(*big.Int), err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Decimals is a free data retrieval call binding the contract method decimals.
//
// Solidity: function decimals() view returns(uint8)
func (_Token *Token) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	err := _Token.contract.Call(opts, &out, "decimals")
	if err != nil {
		return *new(uint8), err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// Symbol is a free data retrieval call binding the contract method symbol.
//
// Solidity: function symbol() view returns(string)
func (_Token *Token) Symbol(opts *bind.CallOpts) (string, error) {
	var out []interface{}
	err := _Token.contract.Call(opts, &out, "symbol")
	if err != nil {
		return *new(string), err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Transfer is a paid mutator transaction binding the contract method transfer.
//
// Solidity: function transfer(address to, uint256 value) returns(bool)
func (_Token *Token) Transfer(opts *bind.TransactOpts, to common.Address, value *big.Int) (*types.Transaction, error) {
	return _Token.contract.Transact(opts, "transfer", to, value)
}

// Mint is a paid mutator transaction binding the contract method mint.
//
// Solidity: function mint(address to, uint256 value) returns()
func (_Token *Token) Mint(opts *bind.TransactOpts, to common.Address, value *big.Int) (*types.Transaction, error) {
	return _Token.contract.Transact(opts, "mint", to, value)
}

// TokenTransfer represents a Transfer event raised by the Token contract.
type TokenTransfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Raw   types.Log // Blockchain specific contextual infos
}

// ParseTransfer is a log parse operation binding the contract event Transfer.
func (_Token *Token) ParseTransfer(log types.Log) (*TokenTransfer, error) {
	event := new(TokenTransfer)
	if err := _Token.contract.UnpackLog(event, "Transfer", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
