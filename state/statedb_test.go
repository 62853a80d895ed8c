package state

import (
	"context"
	"math"
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/vault"
)

func newTestStateDB(t *testing.T) *StateDB {
	sqlDB := getMemoryDB()
	db, err := NewStateDB(sqlDB)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		sqlDB.Close()
	})
	return db
}

func TestKV(t *testing.T) {
	db := newTestStateDB(t)

	key := ethcommon.Hash{}
	key.SetBytes([]byte("key"))

	_, ok, err := db.GetKeyedValue(key)
	assert.NoError(t, err)
	assert.False(t, ok)

	val := ethcommon.Hash{}
	val.SetBytes([]byte("value1"))
	assert.NoError(t, db.SetKeyedValue(key, val))

	v, ok, err := db.GetKeyedValue(key)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("value1"), ethcommon.TrimLeftZeroes(v[:]))

	val.SetBytes([]byte("value2"))
	assert.NoError(t, db.SetKeyedValue(key, val))
	v, _, err = db.GetKeyedValue(key)
	assert.NoError(t, err)
	assert.Equal(t, []byte("value2"), ethcommon.TrimLeftZeroes(v[:]))
}

func TestApplyBatch(t *testing.T) {
	db := newTestStateDB(t)
	ctx := context.Background()

	p0 := RandPayment(0, vault.PaymentStatusPending, 100)
	p1 := RandPayment(1, vault.PaymentStatusPending, 50)
	spender := &vault.Spender{
		Address:    p0.Spender,
		Name:       "alice",
		NameHash:   common.RandBytes32(),
		Idx:        1,
		Authorized: true,
	}
	summary := &vault.State{
		Address:                common.RandEthAddress(),
		Owner:                  common.RandEthAddress(),
		EscapeHatchCaller:      common.RandEthAddress(),
		EscapeHatchDestination: common.RandEthAddress(),
		SecurityGuard:          common.RandEthAddress(),
		AbsoluteMinTimeLock:    60,
		TimeLock:               3600,
		MaxSecurityGuardDelay:  86400,
		Balance:                big.NewInt(1000),
	}
	events := []*agreement.VaultEvent{
		{
			Name:        "PaymentAuthorized",
			BlockNumber: 3,
			TxHash:      common.RandBytes32(),
			LogIndex:    0,
			Args:        map[string]string{"idPayment": "0", "amount": "100"},
		},
		{
			Name:        "PaymentAuthorized",
			BlockNumber: 4,
			TxHash:      common.RandBytes32(),
			LogIndex:    0,
			Args:        map[string]string{"idPayment": "1", "amount": "100"},
		},
	}

	err := db.ApplyBatch(ctx, &agreement.SyncBatch{
		BlockNumber: big.NewInt(5),
		Events:      events,
		Payments:    []*vault.Payment{p0, p1},
		Spenders:    []*vault.Spender{spender},
		Vault:       summary,
	})
	require.NoError(t, err)

	v, ok, err := db.GetKeyedValue(KeyFinalizedBlock)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, big.NewInt(5), v.Big())

	got, ok, err := db.GetPayment(0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, p0, got)

	_, ok, err = db.GetPayment(7)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = db.GetPayment(math.MaxUint64)
	require.NoError(t, err)
	assert.False(t, ok)

	spenders, err := db.GetSpenders()
	require.NoError(t, err)
	assert.Equal(t, []*vault.Spender{spender}, spenders)

	gotVault, ok, err := db.GetVault()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, summary, gotVault)

	gotEvents, err := db.GetEvents(0, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, events, gotEvents)

	gotEvents, err = db.GetEvents(4, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, events[1:], gotEvents)

	// replaying the same events is a no-op, the payment moves to paid
	paid := p0.Clone()
	paid.Paid = true
	err = db.ApplyBatch(ctx, &agreement.SyncBatch{
		BlockNumber: big.NewInt(6),
		Events:      events,
		Payments:    []*vault.Payment{paid},
	})
	require.NoError(t, err)

	gotEvents, err = db.GetEvents(0, 10, 10)
	require.NoError(t, err)
	assert.Len(t, gotEvents, 2)

	got, _, err = db.GetPayment(0)
	require.NoError(t, err)
	assert.Equal(t, vault.PaymentStatusPaid, got.Status())

	// the summary is untouched by a batch without one
	gotVault, _, err = db.GetVault()
	require.NoError(t, err)
	assert.Equal(t, summary, gotVault)
}

func TestGetPayments(t *testing.T) {
	db := newTestStateDB(t)
	ctx := context.Background()

	payments := []*vault.Payment{
		RandPayment(0, vault.PaymentStatusPending, 300),
		RandPayment(1, vault.PaymentStatusPaid, 100),
		RandPayment(2, vault.PaymentStatusCanceled, 100),
		RandPayment(3, vault.PaymentStatusPending, 200),
		RandPayment(4, vault.PaymentStatusPending, 100),
	}
	require.NoError(t, db.ApplyBatch(ctx, &agreement.SyncBatch{
		BlockNumber: big.NewInt(1),
		Payments:    payments,
	}))

	all, err := db.GetPayments("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, payments, all)

	page, err := db.GetPayments("", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, payments[2:4], page)

	pending, err := db.GetPayments(vault.PaymentStatusPending, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []*vault.Payment{payments[0], payments[3], payments[4]}, pending)

	n, err := db.CountPayments(vault.PaymentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = db.CountPayments("")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	due, err := db.GetPaymentsDue(ctx, 200, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []*vault.Payment{payments[4], payments[3]}, due)

	due, err = db.GetPaymentsDue(ctx, 1000, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []*vault.Payment{payments[4]}, due)

	due, err = db.GetPaymentsDue(ctx, 1000, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []*vault.Payment{payments[3], payments[0]}, due)

	due, err = db.GetPaymentsDue(ctx, 99, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestApplyBatchRollback(t *testing.T) {
	db := newTestStateDB(t)

	bad := RandPayment(0, vault.PaymentStatusPending, 1)
	bad.Spender = ethcommon.Address{}

	err := db.ApplyBatch(context.Background(), &agreement.SyncBatch{
		BlockNumber: big.NewInt(1),
		Events: []*agreement.VaultEvent{
			{Name: "PaymentAuthorized", BlockNumber: 1, Args: map[string]string{}},
		},
		Payments: []*vault.Payment{bad},
	})
	assert.Error(t, err)

	events, err := db.GetEvents(0, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, ok, err := db.GetKeyedValue(KeyFinalizedBlock)
	require.NoError(t, err)
	assert.False(t, ok)
}
