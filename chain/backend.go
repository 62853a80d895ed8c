package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/Giveth/vaultcontract/vault"
)

var (
	_ bind.ContractBackend = (*SimulatedChain)(nil)
	_ bind.DeployBackend   = (*SimulatedChain)(nil)
)

func (c *SimulatedChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.cfg.ChainID), nil
}

func (c *SimulatedChain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head().header.Number.Uint64(), nil
}

// HeaderByNumber accepts the rpc block tags as negative numbers. Latest,
// safe and finalized all designate the head: sealed blocks never reorg.
func (c *SimulatedChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.blockByNumber(number)
	if err != nil {
		return nil, err
	}
	return types.CopyHeader(b.header), nil
}

func (c *SimulatedChain) blockByNumber(number *big.Int) (*block, error) {
	if number == nil {
		return c.head(), nil
	}
	if number.Sign() < 0 {
		switch rpc.BlockNumber(number.Int64()) {
		case rpc.PendingBlockNumber:
			return c.pending, nil
		case rpc.LatestBlockNumber, rpc.SafeBlockNumber, rpc.FinalizedBlockNumber:
			return c.head(), nil
		}
		return nil, ethereum.NotFound
	}
	if !number.IsUint64() || number.Uint64() >= uint64(len(c.blocks)) {
		return nil, ethereum.NotFound
	}
	return c.blocks[number.Uint64()], nil
}

func (c *SimulatedChain) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.blocks {
		if b.header.Hash() == hash {
			return types.CopyHeader(b.header), nil
		}
	}
	return nil, ethereum.NotFound
}

func (c *SimulatedChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return c.PendingCodeAt(ctx, contract)
}

func (c *SimulatedChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ct, ok := c.contracts[account]; ok {
		return common.CopyBytes(ct.code()), nil
	}
	return nil, nil
}

func (c *SimulatedChain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return c.bank.BalanceOf(vault.NativeAsset, account), nil
}

func (c *SimulatedChain) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return c.PendingNonceAt(ctx, account)
}

func (c *SimulatedChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *SimulatedChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(gasPriceWei), nil
}

func (c *SimulatedChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return new(big.Int), nil
}

// CallContract executes msg on a copy of the state at the pending block time.
func (c *SimulatedChain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, ErrNoRecipient
	}
	return c.dryRun(msg)
}

// EstimateGas dry runs msg and reports a flat cost per kind of message.
func (c *SimulatedChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if _, err := c.dryRun(msg); err != nil {
		return 0, err
	}
	return gasFor(msg.To, msg.Data), nil
}

func (c *SimulatedChain) dryRun(msg ethereum.CallMsg) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	ec := &execContext{
		caller: msg.From,
		value:  value,
		time:   c.pending.header.Time,
	}
	bank := c.bank.Clone()

	if msg.To == nil {
		addr := crypto.CreateAddress(msg.From, c.nonces[msg.From])
		if _, err := deploy(ec, bank, addr, msg.Data); err != nil {
			return nil, newRevertError(err)
		}
		return nil, nil
	}

	ct, ok := c.contracts[*msg.To]
	if !ok {
		if err := bank.Transfer(vault.NativeAsset, msg.From, *msg.To, value); err != nil {
			return nil, newRevertError(err)
		}
		return nil, nil
	}
	out, err := invoke(ec, ct.clone(bank), msg.Data)
	if err != nil {
		return nil, newRevertError(err)
	}
	return out, nil
}

// TransactionReceipt returns the receipt of a sealed transaction.
func (c *SimulatedChain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lookup, ok := c.txs[txHash]
	if !ok || lookup.receipt.BlockNumber == nil {
		return nil, ethereum.NotFound
	}
	return lookup.receipt, nil
}

func (c *SimulatedChain) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lookup, ok := c.txs[txHash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return lookup.tx, lookup.receipt.BlockNumber == nil, nil
}

// Vault returns the engine of the vault deployed at addr.
func (c *SimulatedChain) Vault(addr common.Address) (*vault.Engine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vc, ok := c.contracts[addr].(*vaultContract)
	if !ok {
		return nil, false
	}
	return vc.engine, true
}

// TokenBalance returns the balance of holder in the token at token.
func (c *SimulatedChain) TokenBalance(token, holder common.Address) *big.Int {
	return c.bank.BalanceOf(token, holder)
}
