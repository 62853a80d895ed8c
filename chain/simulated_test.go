package chain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/contracts/Token"
	"github.com/Giveth/vaultcontract/contracts/Vault"
	"github.com/Giveth/vaultcontract/vault"
)

const (
	genesisTime = uint64(1_700_000_000)
	timeLock    = int64(3600)
)

type testEnv struct {
	chain *SimulatedChain

	owner        *bind.TransactOpts
	spender      *bind.TransactOpts
	guard        *bind.TransactOpts
	escapeCaller *bind.TransactOpts
	escapeDest   *bind.TransactOpts
	recipient    *bind.TransactOpts

	vaultAddr common.Address
	vault     *Vault.Vault
}

func newTestEnv(t *testing.T, baseToken common.Address) *testEnv {
	c, err := NewSimulatedChain(&Config{
		ChainID:     big.NewInt(1337),
		GenesisTime: genesisTime,
		AutoCommit:  true,
		Accounts:    6,
	})
	require.NoError(t, err)

	env := &testEnv{
		chain:        c,
		owner:        c.Accounts[0],
		spender:      c.Accounts[1],
		guard:        c.Accounts[2],
		escapeCaller: c.Accounts[3],
		escapeDest:   c.Accounts[4],
		recipient:    c.Accounts[5],
	}

	addr, tx, v, err := Vault.DeployVault(env.owner, c, baseToken,
		env.escapeCaller.From, env.escapeDest.From,
		big.NewInt(60), big.NewInt(timeLock), env.guard.From, big.NewInt(86400))
	require.NoError(t, err)
	env.succeeded(t, tx, nil)
	env.vaultAddr = addr
	env.vault = v

	return env
}

func (env *testEnv) receipt(t *testing.T, tx *types.Transaction) *types.Receipt {
	r, err := env.chain.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	return r
}

func (env *testEnv) succeeded(t *testing.T, tx *types.Transaction, err error) *types.Receipt {
	require.NoError(t, err)
	r := env.receipt(t, tx)
	require.Equal(t, types.ReceiptStatusSuccessful, r.Status)
	return r
}

func (env *testEnv) deposit(t *testing.T, from *bind.TransactOpts, amount int64) {
	opts := *from
	opts.Value = big.NewInt(amount)
	tx, err := env.vault.Receive(&opts)
	env.succeeded(t, tx, err)
}

func (env *testEnv) authorizePayment(t *testing.T, amount int64, delay int64) uint64 {
	id, err := env.vault.NumberOfAuthorizedPayments(nil)
	require.NoError(t, err)
	tx, err := env.vault.AuthorizePayment(env.spender, "grant", [32]byte{1}, env.recipient.From, big.NewInt(amount), big.NewInt(delay))
	env.succeeded(t, tx, err)
	return id.Uint64()
}

func (env *testEnv) authorizeSpender(t *testing.T) {
	tx, err := env.vault.AuthorizeSpender(env.owner, env.spender.From, "dev", [32]byte{2})
	env.succeeded(t, tx, err)
}

func TestNewSimulatedChain(t *testing.T) {
	c, err := NewSimulatedChain(nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Len(t, c.Accounts, 10)
	for _, acc := range c.Accounts {
		bal, err := c.BalanceAt(ctx, acc.From, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultAccountBalance, bal)
	}

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChainID, id)

	n, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestBlocksAndTime(t *testing.T) {
	c, err := NewSimulatedChain(&Config{GenesisTime: genesisTime, Accounts: 1})
	require.NoError(t, err)
	ctx := context.Background()

	pending, err := c.HeaderByNumber(ctx, big.NewInt(-1))
	require.NoError(t, err)
	assert.Equal(t, genesisTime+1, pending.Time)

	require.NoError(t, c.AdjustTime(time.Hour))
	require.Error(t, c.AdjustTime(-time.Second))
	hash := c.Commit()

	head, err := c.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head.Number.Uint64())
	assert.Equal(t, genesisTime+1+3600, head.Time)
	assert.Equal(t, hash, head.Hash())

	byHash, err := c.HeaderByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, head.Number, byHash.Number)

	for _, tag := range []int64{-2, -3, -4} {
		h, err := c.HeaderByNumber(ctx, big.NewInt(tag))
		require.NoError(t, err)
		assert.Equal(t, hash, h.Hash())
	}

	_, err = c.HeaderByNumber(ctx, big.NewInt(5))
	assert.Equal(t, ethereum.NotFound, err)
}

func TestNativeTransfer(t *testing.T) {
	c, err := NewSimulatedChain(&Config{Accounts: 2, AutoCommit: true})
	require.NoError(t, err)
	ctx := context.Background()
	from, to := c.Accounts[0], c.Accounts[1]

	send := func(nonce uint64, value *big.Int) (*types.Transaction, error) {
		tx := types.NewTx(&types.LegacyTx{Nonce: nonce, To: &to.From, Value: value, Gas: 21000, GasPrice: big.NewInt(1)})
		signed, err := from.Signer(from.From, tx)
		require.NoError(t, err)
		return signed, c.SendTransaction(ctx, signed)
	}

	tx, err := send(0, big.NewInt(1000))
	require.NoError(t, err)
	r, err := c.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, r.Status)

	bal, _ := c.BalanceAt(ctx, to.From, nil)
	assert.Equal(t, new(big.Int).Add(DefaultAccountBalance, big.NewInt(1000)), bal)

	assert.ErrorIs(t, c.SendTransaction(ctx, tx), ErrAlreadyKnown)
	_, err = send(0, big.NewInt(1))
	assert.ErrorIs(t, err, ErrNonceTooLow)
	_, err = send(5, big.NewInt(1))
	assert.ErrorIs(t, err, ErrNonceTooHigh)

	// more than the balance: mined but reverted
	tx, err = send(1, new(big.Int).Mul(DefaultAccountBalance, big.NewInt(2)))
	require.NoError(t, err)
	r, err = c.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, r.Status)
	nonce, _ := c.PendingNonceAt(ctx, from.From)
	assert.Equal(t, uint64(2), nonce)
}

func TestPendingReceiptWithoutAutoCommit(t *testing.T) {
	c, err := NewSimulatedChain(&Config{Accounts: 2})
	require.NoError(t, err)
	ctx := context.Background()

	tx := types.NewTx(&types.LegacyTx{To: &c.Accounts[1].From, Value: big.NewInt(1), Gas: 21000, GasPrice: big.NewInt(1)})
	signed, err := c.Accounts[0].Signer(c.Accounts[0].From, tx)
	require.NoError(t, err)
	require.NoError(t, c.SendTransaction(ctx, signed))

	_, err = c.TransactionReceipt(ctx, signed.Hash())
	assert.Equal(t, ethereum.NotFound, err)
	_, isPending, err := c.TransactionByHash(ctx, signed.Hash())
	require.NoError(t, err)
	assert.True(t, isPending)

	c.Commit()
	r, err := c.TransactionReceipt(ctx, signed.Hash())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.BlockNumber.Uint64())
}

func TestDeployVault(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	ctx := context.Background()

	code, err := env.chain.CodeAt(ctx, env.vaultAddr, nil)
	require.NoError(t, err)
	assert.Equal(t, vaultCode, code)

	owner, err := env.vault.Owner(nil)
	require.NoError(t, err)
	assert.Equal(t, env.owner.From, owner)

	tl, err := env.vault.TimeLock(nil)
	require.NoError(t, err)
	assert.Equal(t, timeLock, tl.Int64())

	dest, err := env.vault.EscapeHatchDestination(nil)
	require.NoError(t, err)
	assert.Equal(t, env.escapeDest.From, dest)

	engine, ok := env.chain.Vault(env.vaultAddr)
	require.True(t, ok)
	assert.Equal(t, env.vaultAddr, engine.Address())

	// time lock below the floor
	_, _, _, err = Vault.DeployVault(env.owner, env.chain, common.Address{},
		env.escapeCaller.From, env.escapeDest.From, big.NewInt(60), big.NewInt(59), env.guard.From, big.NewInt(0))
	require.Error(t, err)
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrInvalidParameter)
}

func TestVaultPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	ctx := context.Background()

	env.deposit(t, env.owner, 1000)
	env.authorizeSpender(t)
	id := env.authorizePayment(t, 400, 0)
	assert.Equal(t, uint64(0), id)

	p, err := env.vault.AuthorizedPayments(nil, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, env.spender.From, p.Spender)
	assert.Equal(t, int64(400), p.Amount.Int64())
	head, _ := env.chain.HeaderByNumber(ctx, nil)
	assert.Equal(t, head.Time+uint64(timeLock), p.EarliestPayTime.Uint64())

	_, err = env.vault.CollectAuthorizedPayment(env.recipient, big.NewInt(0))
	require.Error(t, err)
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrNotYetDue)

	require.NoError(t, env.chain.AdjustTime(time.Duration(timeLock)*time.Second))
	before, _ := env.chain.BalanceAt(ctx, env.recipient.From, nil)
	tx, err := env.vault.CollectAuthorizedPayment(env.owner, big.NewInt(0))
	r := env.succeeded(t, tx, err)

	after, _ := env.chain.BalanceAt(ctx, env.recipient.From, nil)
	assert.Equal(t, int64(400), new(big.Int).Sub(after, before).Int64())
	bal, _ := env.vault.GetBalance(nil)
	assert.Equal(t, int64(600), bal.Int64())

	require.Len(t, r.Logs, 1)
	executed, err := env.vault.ParsePaymentExecuted(*r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(0), executed.IdPayment.Uint64())
	assert.Equal(t, env.recipient.From, executed.Recipient)
	assert.Equal(t, int64(400), executed.Amount.Int64())

	_, err = env.vault.CollectAuthorizedPayment(env.owner, big.NewInt(0))
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrInvalidState)
}

func TestRevertedTransactionLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	env.deposit(t, env.owner, 1000)
	env.authorizeSpender(t)
	env.authorizePayment(t, 400, 0)

	// skip estimation so the failing call gets mined
	opts := *env.recipient
	opts.GasLimit = 200_000
	tx, err := env.vault.CollectAuthorizedPayment(&opts, big.NewInt(0))
	require.NoError(t, err)
	r := env.receipt(t, tx)
	assert.Equal(t, types.ReceiptStatusFailed, r.Status)
	assert.Empty(t, r.Logs)

	p, err := env.vault.AuthorizedPayments(nil, big.NewInt(0))
	require.NoError(t, err)
	assert.False(t, p.Paid)
	bal, _ := env.vault.GetBalance(nil)
	assert.Equal(t, int64(1000), bal.Int64())

	// value sent to a non-payable method
	opts = *env.owner
	opts.Value = big.NewInt(1)
	opts.GasLimit = 200_000
	tx, err = env.vault.EscapeHatch(&opts)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, env.receipt(t, tx).Status)
}

func TestVaultSpendersAndAdmin(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	env.authorizeSpender(t)

	n, err := env.vault.NumberOfSpenders(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Int64())

	addr, err := env.vault.GetSpenderAddress(nil, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, env.spender.From, addr)

	rec, err := env.vault.Spenders(nil, env.spender.From)
	require.NoError(t, err)
	assert.Equal(t, "dev", rec.Name)
	assert.Equal(t, int64(1), rec.Idx.Int64())
	assert.True(t, rec.Authorized)

	unknown, err := env.vault.Spenders(nil, env.recipient.From)
	require.NoError(t, err)
	assert.False(t, unknown.Authorized)
	assert.Equal(t, int64(0), unknown.Idx.Int64())

	_, err = env.vault.SetTimelock(env.spender, big.NewInt(7200))
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrUnauthorized)

	tx, err := env.vault.SetTimelock(env.owner, big.NewInt(7200))
	r := env.succeeded(t, tx, err)
	changed, err := env.vault.ParseTimelockChanged(*r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(7200), changed.NewTimeLock.Int64())

	tx, err = env.vault.UnauthorizeSpender(env.owner, env.spender.From)
	r = env.succeeded(t, tx, err)
	auth, err := env.vault.ParseSpenderAuthorization(*r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, env.spender.From, auth.Spender)
	assert.False(t, auth.Authorized)

	_, err = env.vault.AuthorizePayment(env.spender, "x", [32]byte{}, env.recipient.From, big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrUnauthorized)
}

func TestEscapeHatch(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	ctx := context.Background()
	env.deposit(t, env.owner, 5000)

	_, err := env.vault.EscapeHatch(env.owner)
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrUnauthorized)

	before, _ := env.chain.BalanceAt(ctx, env.escapeDest.From, nil)
	tx, err := env.vault.EscapeHatch(env.escapeCaller)
	r := env.succeeded(t, tx, err)
	after, _ := env.chain.BalanceAt(ctx, env.escapeDest.From, nil)
	assert.Equal(t, int64(5000), new(big.Int).Sub(after, before).Int64())

	called, err := env.vault.ParseEscapeHatchCalled(*r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(5000), called.Amount.Int64())
}

func TestTokenVault(t *testing.T) {
	c, err := NewSimulatedChain(&Config{GenesisTime: genesisTime, AutoCommit: true, Accounts: 6})
	require.NoError(t, err)
	owner := c.Accounts[0]

	tokenAddr, tx, token, err := Token.DeployToken(owner, c, "Giveth", "GIV", 18, big.NewInt(1_000_000))
	require.NoError(t, err)
	r, err := c.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	minted, err := token.ParseTransfer(*r.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, owner.From, minted.To)

	supply, err := token.TotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), supply.Int64())
	symbol, err := token.Symbol(nil)
	require.NoError(t, err)
	assert.Equal(t, "GIV", symbol)

	addr, tx, v, err := Vault.DeployVault(owner, c, tokenAddr,
		c.Accounts[3].From, c.Accounts[4].From, big.NewInt(0), big.NewInt(0), c.Accounts[2].From, big.NewInt(0))
	require.NoError(t, err)

	tx, err = token.Transfer(owner, addr, big.NewInt(5000))
	require.NoError(t, err)

	bal, err := v.GetBalance(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), bal.Int64())

	// native deposits are refused by token vaults
	opts := *owner
	opts.Value = big.NewInt(1)
	_, err = v.Receive(&opts)
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrWrongAssetType)

	_, err = v.AuthorizeSpender(owner, c.Accounts[1].From, "dev", [32]byte{})
	require.NoError(t, err)
	_, err = v.AuthorizePayment(c.Accounts[1], "grant", [32]byte{}, c.Accounts[5].From, big.NewInt(1200), big.NewInt(0))
	require.NoError(t, err)
	tx, err = v.CollectAuthorizedPayment(c.Accounts[5], big.NewInt(0))
	require.NoError(t, err)

	got, err := token.BalanceOf(nil, c.Accounts[5].From)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.Int64())
	assert.Equal(t, int64(1200), c.TokenBalance(tokenAddr, c.Accounts[5].From).Int64())

	_, err = token.Mint(c.Accounts[1], c.Accounts[1].From, big.NewInt(1))
	assert.ErrorContains(t, err, ErrTokenOwner.Error())
}

func TestFilterAndSubscribeLogs(t *testing.T) {
	env := newTestEnv(t, common.Address{})
	ctx := context.Background()

	ch := make(chan types.Log, 8)
	sub, err := env.chain.SubscribeFilterLogs(ctx, ethereum.FilterQuery{Addresses: []common.Address{env.vaultAddr}}, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	env.deposit(t, env.owner, 100)
	env.authorizeSpender(t)

	select {
	case l := <-ch:
		received, err := env.vault.ParseEtherReceived(l)
		require.NoError(t, err)
		assert.Equal(t, env.owner.From, received.From)
	case <-time.After(5 * time.Second):
		t.Fatal("no log received")
	}

	logs, err := env.chain.FilterLogs(ctx, ethereum.FilterQuery{Addresses: []common.Address{env.vaultAddr}})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, vaultABI.Events[vault.EventEtherReceived].ID, logs[0].Topics[0])
	assert.Equal(t, vaultABI.Events[vault.EventSpenderAuthorization].ID, logs[1].Topics[0])

	logs, err = env.chain.FilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{env.vaultAddr},
		Topics:    [][]common.Hash{{vaultABI.Events[vault.EventSpenderAuthorization].ID}, {common.BytesToHash(env.spender.From.Bytes())}},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	head := logs[0].BlockNumber
	logs, err = env.chain.FilterLogs(ctx, ethereum.FilterQuery{FromBlock: new(big.Int).SetUint64(head + 1)})
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = env.chain.FilterLogs(ctx, ethereum.FilterQuery{FromBlock: big.NewInt(2), ToBlock: big.NewInt(1)})
	assert.Error(t, err)
}

func TestMakeLog(t *testing.T) {
	addr := common.HexToAddress("0x01")
	l, err := makeLog(addr, vaultABI, vault.EventPaymentDelayed, []interface{}{big.NewInt(3), big.NewInt(10), big.NewInt(99)})
	require.NoError(t, err)
	assert.Len(t, l.Topics, 2)
	assert.Equal(t, common.BigToHash(big.NewInt(3)), l.Topics[1])
	assert.Len(t, l.Data, 64)

	_, err = makeLog(addr, vaultABI, "Unknown", nil)
	assert.Error(t, err)
	_, err = makeLog(addr, vaultABI, vault.EventPaymentDelayed, []interface{}{big.NewInt(3)})
	assert.Error(t, err)
}
