package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/contracts/Token"
	"github.com/Giveth/vaultcontract/vault"
	"github.com/Giveth/vaultcontract/vaultman"
)

var ErrNoVaultAddress = errors.New("no vault address configured")

// VaultUser's configuration
type VaultUserConfig struct {
	RpcUrl       string // json rpc url
	AccountPriv  string // private key of the user controlled account
	VaultAddress string // address of the vault contract, may be empty before deploy
}

// VaultUser is one account acting on a vault: owner, spender, guard, escape
// hatch caller or anyone collecting a payment.
type VaultUser struct {
	MyRpcClient *rpc.Client
	Client      *ethclient.Client
	ChainId     *big.Int
	Account     *bind.TransactOpts

	// nil until a vault address is known
	MyVaultman *vaultman.Vaultman
}

// Create a new VaultUser object.
func NewVaultUser(ctx context.Context, vuc *VaultUserConfig) (*VaultUser, error) {
	rpcClient, err := rpc.DialContext(ctx, vuc.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", vuc.RpcUrl, err)
	}
	client := ethclient.NewClient(rpcClient)

	chainId, err := client.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to get chain id via rpc: %w", err)
	}

	account, err := NewTransactor(vuc.AccountPriv, chainId)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}

	vu := &VaultUser{
		MyRpcClient: rpcClient,
		Client:      client,
		ChainId:     chainId,
		Account:     account,
	}
	if vuc.VaultAddress != "" {
		if !common.IsHexAddress(vuc.VaultAddress) {
			rpcClient.Close()
			return nil, fmt.Errorf("invalid vault address %q", vuc.VaultAddress)
		}
		vu.MyVaultman, err = vaultman.New(client, common.HexToAddress(vuc.VaultAddress))
		if err != nil {
			rpcClient.Close()
			return nil, err
		}
	}
	return vu, nil
}

// Close and release resources.
func (vu *VaultUser) Close() {
	vu.MyRpcClient.Close()
}

// Fetch the user's address.
func (vu *VaultUser) GetAddress() common.Address {
	return vu.Account.From
}

// Fetch the native balance of the user's account.
func (vu *VaultUser) GetBalance(ctx context.Context) (*big.Int, error) {
	return vu.Client.BalanceAt(ctx, vu.Account.From, nil)
}

func (vu *VaultUser) vault() (*vaultman.Vaultman, error) {
	if vu.MyVaultman == nil {
		return nil, ErrNoVaultAddress
	}
	return vu.MyVaultman, nil
}

// Deploy creates a vault owned by the user and binds to it.
func (vu *VaultUser) Deploy(ctx context.Context, params *vaultman.DeployParams) (common.Address, error) {
	vm, err := vaultman.Deploy(ctx, vu.Client, vu.Account, params)
	if err != nil {
		return common.Address{}, err
	}
	vu.MyVaultman = vm
	return vm.Address(), nil
}

// DeployToken creates a token whose whole supply goes to the user.
func (vu *VaultUser) DeployToken(ctx context.Context, name, symbol string, decimals uint8, supply *big.Int) (common.Address, error) {
	opts := *vu.Account
	opts.Context = ctx
	_, tx, _, err := Token.DeployToken(&opts, vu.Client, name, symbol, decimals, supply)
	if err != nil {
		return common.Address{}, vault.MatchError(err)
	}
	return bind.WaitDeployed(ctx, vu.Client, tx)
}

// State reads the full vault snapshot from the ledger.
func (vu *VaultUser) State(ctx context.Context) (*vault.State, error) {
	vm, err := vu.vault()
	if err != nil {
		return nil, err
	}
	return vm.GetState(ctx)
}

// Send runs one vault operation as the user and waits for its receipt.
func (vu *VaultUser) Send(ctx context.Context,
	op func(vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	vm, err := vu.vault()
	if err != nil {
		return nil, err
	}
	tx, err := op(vm, vu.Account)
	if err != nil {
		return nil, err
	}
	logger.WithField("tx", tx.Hash().Hex()).Debug("waiting for receipt")
	return vm.WaitMined(ctx, tx)
}

// AuthorizePayment queues a payment and returns its id.
func (vu *VaultUser) AuthorizePayment(ctx context.Context, params *vaultman.AuthorizePaymentParams) (uint64, *types.Receipt, error) {
	receipt, err := vu.Send(ctx, func(vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
		return vm.AuthorizePayment(ctx, auth, params)
	})
	if err != nil {
		return 0, receipt, err
	}
	id, err := vu.MyVaultman.PaymentIDFromReceipt(receipt)
	return id, receipt, err
}

// Deposit funds the vault in its base asset: native currency through
// receiveEther, tokens through a plain token transfer.
func (vu *VaultUser) Deposit(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	vm, err := vu.vault()
	if err != nil {
		return nil, err
	}
	st, err := vm.GetSummary(ctx)
	if err != nil {
		return nil, err
	}

	if st.BaseToken == (common.Address{}) {
		return vu.Send(ctx, func(vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
			return vm.Deposit(ctx, auth, amount)
		})
	}

	token, err := Token.NewToken(st.BaseToken, vu.Client)
	if err != nil {
		return nil, err
	}
	opts := *vu.Account
	opts.Context = ctx
	tx, err := token.Transfer(&opts, vm.Address(), amount)
	if err != nil {
		return nil, vault.MatchError(err)
	}
	return vm.WaitMined(ctx, tx)
}

// TokenBalance returns holder's balance of the vault base token, or its
// native balance for an ether vault.
func (vu *VaultUser) TokenBalance(ctx context.Context, holder common.Address) (*big.Int, error) {
	vm, err := vu.vault()
	if err != nil {
		return nil, err
	}
	st, err := vm.GetSummary(ctx)
	if err != nil {
		return nil, err
	}
	if st.BaseToken == (common.Address{}) {
		return vu.Client.BalanceAt(ctx, holder, nil)
	}
	token, err := Token.NewToken(st.BaseToken, vu.Client)
	if err != nil {
		return nil, err
	}
	return token.BalanceOf(&bind.CallOpts{Context: ctx}, holder)
}

// AdvanceTime moves the clock of a development ledger forward and seals a
// block. Only nodes serving the evm namespace support it.
func (vu *VaultUser) AdvanceTime(ctx context.Context, seconds uint64) (uint64, error) {
	var now hexutil.Uint64
	if err := vu.MyRpcClient.CallContext(ctx, &now, "evm_increaseTime", seconds); err != nil {
		return 0, err
	}
	var hash common.Hash
	if err := vu.MyRpcClient.CallContext(ctx, &hash, "evm_mine"); err != nil {
		return 0, err
	}
	return uint64(now), nil
}
