package ethtxmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/database"
)

func newTestDB(t *testing.T) *EthTxManagerDB {
	sqldb, err := database.Open(database.InMemory)
	require.NoError(t, err)

	mgrdb, err := NewEthTxManagerDB(sqldb)
	require.NoError(t, err)

	t.Cleanup(func() {
		mgrdb.Close()
		sqldb.Close()
	})
	return mgrdb
}

func randMonitoredTx(id, sentAfter uint64) *MonitoredTx {
	return &MonitoredTx{
		TxHash:    common.RandBytes32(),
		PaymentID: id,
		SentAfter: sentAfter,
		Status:    Pending,
	}
}

func TestMonitoredTxOps(t *testing.T) {
	db := newTestDB(t)

	mt1 := randMonitoredTx(1, 10)
	mt2 := randMonitoredTx(1, 12)
	mt3 := randMonitoredTx(2, 11)
	for _, mt := range []*MonitoredTx{mt1, mt2, mt3} {
		require.NoError(t, db.InsertPendingMonitoredTx(mt))
	}
	// duplicates are ignored
	require.NoError(t, db.InsertPendingMonitoredTx(mt1))

	bad := randMonitoredTx(3, 1)
	bad.Status = Success
	assert.Equal(t, ErrInvalidStatus, db.InsertPendingMonitoredTx(bad))

	pending, err := db.GetMonitoredTxsByStatus(Pending)
	require.NoError(t, err)
	assert.Equal(t, []*MonitoredTx{mt1, mt3, mt2}, pending)

	byID, err := db.GetMonitoredTxsByPaymentID(1)
	require.NoError(t, err)
	assert.Equal(t, []*MonitoredTx{mt1, mt2}, byID)

	require.NoError(t, db.UpdateMonitoredTxStatus(mt1.TxHash, Timeout))
	assert.Equal(t, ErrInvalidStatus, db.UpdateMonitoredTxStatus(mt1.TxHash, Pending))

	byID, err = db.GetMonitoredTxsByPaymentID(1)
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, Timeout, byID[0].Status)
	assert.False(t, byID[0].Settled())
	assert.True(t, byID[1].Settled())

	// only the timed out attempt goes
	require.NoError(t, db.RemoveFailedMonitoredTxs(1))
	byID, err = db.GetMonitoredTxsByPaymentID(1)
	require.NoError(t, err)
	assert.Equal(t, []*MonitoredTx{mt2}, byID)

	require.NoError(t, db.RemoveFailedMonitoredTxs(2))
	pending, err = db.GetMonitoredTxsByStatus(Pending)
	require.NoError(t, err)
	assert.Equal(t, []*MonitoredTx{mt3, mt2}, pending)

	none, err := db.GetMonitoredTxsByPaymentID(42)
	require.NoError(t, err)
	assert.Empty(t, none)
}
