package chain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/contracts/Vault"
	"github.com/Giveth/vaultcontract/vault"
)

func newRPCEnv(t *testing.T) (*SimulatedChain, *rpc.Client, *ethclient.Client) {
	c, err := NewSimulatedChain(&Config{GenesisTime: genesisTime, AutoCommit: true, Accounts: 4})
	require.NoError(t, err)

	server, err := NewRPCServer(c)
	require.NoError(t, err)
	t.Cleanup(server.Stop)

	rpcClient := rpc.DialInProc(server)
	t.Cleanup(rpcClient.Close)

	return c, rpcClient, ethclient.NewClient(rpcClient)
}

func TestRPCBasics(t *testing.T) {
	c, rpcClient, client := newRPCEnv(t)
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultChainID, id)

	var version string
	require.NoError(t, rpcClient.CallContext(ctx, &version, "net_version"))
	assert.Equal(t, "1337", version)

	bal, err := client.BalanceAt(ctx, c.Accounts[0].From, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAccountBalance, bal)

	head, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, genesisTime, head.Time)
	assert.Nil(t, head.BaseFee)

	_, err = client.HeaderByNumber(ctx, big.NewInt(10))
	assert.Equal(t, ethereum.NotFound, err)

	_, err = client.TransactionReceipt(ctx, common.Hash{1})
	assert.Equal(t, ethereum.NotFound, err)
}

func TestRPCVaultRoundTrip(t *testing.T) {
	c, rpcClient, client := newRPCEnv(t)
	ctx := context.Background()
	owner, spender, guard, dest := c.Accounts[0], c.Accounts[1], c.Accounts[2], c.Accounts[3]

	_, tx, v, err := Vault.DeployVault(owner, client, common.Address{},
		owner.From, dest.From, big.NewInt(60), big.NewInt(timeLock), guard.From, big.NewInt(3600))
	require.NoError(t, err)
	addr, err := bind.WaitDeployed(ctx, client, tx)
	require.NoError(t, err)

	logs := make(chan types.Log, 8)
	sub, err := client.SubscribeFilterLogs(ctx, ethereum.FilterQuery{Addresses: []common.Address{addr}}, logs)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	opts := *owner
	opts.Value = big.NewInt(1000)
	tx, err = v.ReceiveEther(&opts)
	require.NoError(t, err)
	r, err := bind.WaitMined(ctx, client, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, r.Status)

	select {
	case l := <-logs:
		received, err := v.ParseEtherReceived(l)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), received.Amount.Int64())
	case <-time.After(5 * time.Second):
		t.Fatal("no log received over the subscription")
	}

	_, err = v.AuthorizeSpender(owner, spender.From, "dev", [32]byte{})
	require.NoError(t, err)
	_, err = v.AuthorizePayment(spender, "grant", [32]byte{9}, dest.From, big.NewInt(250), big.NewInt(0))
	require.NoError(t, err)

	_, err = v.CollectAuthorizedPayment(owner, big.NewInt(0))
	require.Error(t, err)
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrNotYetDue)

	var pendingTime hexutil.Uint64
	require.NoError(t, rpcClient.CallContext(ctx, &pendingTime, "evm_increaseTime", uint64(timeLock)))
	var hash common.Hash
	require.NoError(t, rpcClient.CallContext(ctx, &hash, "evm_mine"))
	head, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, hash, head.Hash())
	assert.Equal(t, uint64(pendingTime), head.Time)

	tx, err = v.CollectAuthorizedPayment(owner, big.NewInt(0))
	require.NoError(t, err)
	r, err = bind.WaitMined(ctx, client, tx)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, r.Status)

	p, err := v.AuthorizedPayments(nil, big.NewInt(0))
	require.NoError(t, err)
	assert.True(t, p.Paid)

	all, err := client.FilterLogs(ctx, ethereum.FilterQuery{Addresses: []common.Address{addr}})
	require.NoError(t, err)
	require.Len(t, all, 4)
	executed, err := v.ParsePaymentExecuted(all[3])
	require.NoError(t, err)
	assert.Equal(t, dest.From, executed.Recipient)

	_, err = v.GetSpenderAddress(nil, big.NewInt(5))
	assert.ErrorIs(t, vault.MatchError(err), vault.ErrInvalidParameter)
}

func TestRPCIncreaseTimeLarge(t *testing.T) {
	_, rpcClient, client := newRPCEnv(t)
	ctx := context.Background()

	var before hexutil.Uint64
	require.NoError(t, rpcClient.CallContext(ctx, &before, "evm_increaseTime", uint64(0)))

	// past what a time.Duration holds
	const far = uint64(18_446_744_074)

	var pendingTime hexutil.Uint64
	require.NoError(t, rpcClient.CallContext(ctx, &pendingTime, "evm_increaseTime", far))
	assert.Equal(t, uint64(before)+far, uint64(pendingTime))

	var hash common.Hash
	require.NoError(t, rpcClient.CallContext(ctx, &hash, "evm_mine"))
	head, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(before)+far, head.Time)

	// rejected without moving the clock
	err = rpcClient.CallContext(ctx, &pendingTime, "evm_increaseTime", uint64(MaxBlockTime))
	assert.ErrorContains(t, err, ErrTimeOverflow.Error())

	require.NoError(t, rpcClient.CallContext(ctx, &pendingTime, "evm_increaseTime", uint64(0)))
	assert.Equal(t, head.Time+1, uint64(pendingTime))
}
