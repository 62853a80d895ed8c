package ethsync

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/vault"
	"github.com/Giveth/vaultcontract/vaultman"
)

func newTestEnv(t *testing.T) *vaultman.TestEnv {
	env, err := vaultman.NewTestEnv(nil)
	require.NoError(t, err)
	return env
}

func testConfig() *Config {
	return &Config{
		FrequencyToCheckFinalizedBlock: 100 * time.Millisecond,
		ChainID:                        big.NewInt(1337),
	}
}

func allEvents(batches []*agreement.SyncBatch) []*agreement.VaultEvent {
	var events []*agreement.VaultEvent
	for _, b := range batches {
		events = append(events, b.Events...)
	}
	return events
}

func TestNew(t *testing.T) {
	env := newTestEnv(t)
	st := NewMockState(big.NewInt(0))

	cfg := testConfig()
	cfg.ChainID = big.NewInt(1)
	_, err := New(env.Vaultman, st, cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.FrequencyToCheckFinalizedBlock = time.Millisecond
	_, err = New(env.Vaultman, st, cfg)
	assert.Equal(t, ErrTickerDurationTooShort, err)

	cfg = testConfig()
	cfg.StartBlock = big.NewInt(10)
	s, err := New(env.Vaultman, st, cfg)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), s.lastFinalized)
	assert.Equal(t, DefaultBlockRange, s.cfg.BlockRange)

	// a stored block past the start block wins
	s, err = New(env.Vaultman, NewMockState(big.NewInt(20)), cfg)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), s.lastFinalized)
}

func TestSync(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := NewMockState(big.NewInt(0))
	s, err := New(env.Vaultman, st, testConfig())
	require.NoError(t, err)

	go st.Start(ctx)
	done := make(chan error, 1)
	go func() {
		done <- s.Sync(ctx)
	}()

	require.NoError(t, env.Deposit(ctx, big.NewInt(1000)))
	require.NoError(t, env.AuthorizeSpender(ctx))
	id, err := env.AuthorizePayment(ctx, big.NewInt(10), 0)
	require.NoError(t, err)

	head, err := env.Sim.BlockNumber(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		n, _ := st.GetFinalizedBlockNumber()
		return n.Uint64() == head
	}, 3*time.Second, 50*time.Millisecond)

	batches := st.Batches()
	events := allEvents(batches)
	require.Len(t, events, 3)
	assert.Equal(t, vault.EventEtherReceived, events[0].Name)
	assert.Equal(t, env.Owner.From.Hex(), events[0].Args["from"])
	assert.Equal(t, "1000", events[0].Args["amount"])
	assert.Equal(t, vault.EventSpenderAuthorization, events[1].Name)
	assert.Equal(t, "true", events[1].Args["authorized"])
	assert.Equal(t, vault.EventPaymentAuthorized, events[2].Name)
	assert.Equal(t, "0", events[2].Args["idPayment"])
	assert.Equal(t, env.Recipient.From.Hex(), events[2].Args["recipient"])

	last := batches[len(batches)-1]
	require.Len(t, last.Payments, 1)
	assert.Equal(t, id, last.Payments[0].ID)
	assert.Equal(t, vault.PaymentStatusPending, last.Payments[0].Status())
	require.NotNil(t, last.Vault)
	assert.Equal(t, int64(1000), last.Vault.Balance.Int64())
	assert.Empty(t, last.Vault.Payments)

	var spenders []*vault.Spender
	for _, b := range batches {
		spenders = append(spenders, b.Spenders...)
	}
	require.Len(t, spenders, 1)
	assert.Equal(t, env.Spender.From, spenders[0].Address)
	assert.True(t, spenders[0].Authorized)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSyncOnceBlockRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Deposit(ctx, big.NewInt(500)))
	require.NoError(t, env.AuthorizeSpender(ctx))
	id, err := env.AuthorizePayment(ctx, big.NewInt(10), 0)
	require.NoError(t, err)
	require.NoError(t, env.AdvanceTime(2*time.Hour))

	tx, err := env.Vaultman.CollectAuthorizedPayment(ctx, env.Keeper, id)
	require.NoError(t, err)
	_, err = env.Vaultman.WaitMined(ctx, tx)
	require.NoError(t, err)

	head, err := env.Sim.BlockNumber(ctx)
	require.NoError(t, err)

	st := NewMockState(big.NewInt(0))
	cfg := testConfig()
	cfg.BlockRange = 2
	s, err := New(env.Vaultman, st, cfg)
	require.NoError(t, err)

	require.NoError(t, s.SyncOnce(ctx))
	st.Drain()

	batches := st.Batches()
	assert.Len(t, batches, int((head+1)/2))
	for i, b := range batches {
		want := uint64(2*i + 2)
		if want > head {
			want = head
		}
		assert.Equal(t, want, b.BlockNumber.Uint64())
	}

	events := allEvents(batches)
	require.Len(t, events, 4)
	assert.Equal(t, vault.EventPaymentExecuted, events[3].Name)

	last := batches[len(batches)-1]
	require.Len(t, last.Payments, 1)
	assert.Equal(t, vault.PaymentStatusPaid, last.Payments[0].Status())
	assert.Equal(t, int64(490), last.Vault.Balance.Int64())

	// nothing new to sync
	require.NoError(t, s.SyncOnce(ctx))
	st.Drain()
	assert.Len(t, st.Batches(), len(batches))
}

func TestFormatArgs(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	got := formatArgs(map[string]interface{}{
		"n":    big.NewInt(42),
		"addr": addr,
		"ok":   false,
		"ref":  [32]byte{1},
	})
	assert.Equal(t, map[string]string{
		"n":    "42",
		"addr": addr.Hex(),
		"ok":   "false",
		"ref":  common.Hash{1}.Hex(),
	}, got)
}
