package ethtxmanager

import (
	"context"
	"database/sql"
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/database"
)

var ErrInvalidStatus = errors.New("invalid status")

type EthTxManagerDB struct {
	stmtCache *database.StmtCache
}

func NewEthTxManagerDB(db *sql.DB) (*EthTxManagerDB, error) {
	if err := database.Migrate(context.Background(), db, monitoredTxTable, monitoredTxPaymentIndex); err != nil {
		return nil, err
	}

	return &EthTxManagerDB{
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (db *EthTxManagerDB) Close() {
	db.stmtCache.Clear()
}

func (db *EthTxManagerDB) InsertPendingMonitoredTx(mt *MonitoredTx) error {
	if mt.Status != Pending {
		return ErrInvalidStatus
	}

	query := `INSERT OR IGNORE INTO monitoredTx (txHash, paymentId, sentAfter, status) VALUES (?, ?, ?, ?)`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	sqlMt := &sqlMonitoredTx{}
	sqlMt.encode(mt)

	_, err = stmt.Exec(sqlMt.TxHash, sqlMt.PaymentID, sqlMt.SentAfter, sqlMt.Status)
	return err
}

func (db *EthTxManagerDB) UpdateMonitoredTxStatus(txHash ethcommon.Hash, status MonitoredTxStatus) error {
	switch status {
	case Success, Reverted, Timeout:
	default:
		return ErrInvalidStatus
	}

	query := `UPDATE monitoredTx SET status = ? WHERE txHash = ?`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(string(status), common.ByteSliceToPureHexStr(txHash[:]))
	return err
}

// RemoveFailedMonitoredTxs drops the reverted and timed out attempts to
// collect a payment. Pending and successful txs are kept.
func (db *EthTxManagerDB) RemoveFailedMonitoredTxs(paymentID uint64) error {
	query := `DELETE FROM monitoredTx WHERE paymentId = ? AND status IN ('reverted', 'timeout')`
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(int64(paymentID))
	return err
}

func (db *EthTxManagerDB) GetMonitoredTxsByStatus(status MonitoredTxStatus) ([]*MonitoredTx, error) {
	query := `SELECT txHash, paymentId, sentAfter, status FROM monitoredTx WHERE status = ? ORDER BY sentAfter`
	return db.query(query, string(status))
}

func (db *EthTxManagerDB) GetMonitoredTxsByPaymentID(id uint64) ([]*MonitoredTx, error) {
	query := `SELECT txHash, paymentId, sentAfter, status FROM monitoredTx WHERE paymentId = ? ORDER BY sentAfter`
	return db.query(query, int64(id))
}

func (db *EthTxManagerDB) query(query string, args ...interface{}) ([]*MonitoredTx, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mts := []*MonitoredTx{}
	for rows.Next() {
		var sqlMt sqlMonitoredTx
		if err := rows.Scan(
			&sqlMt.TxHash,
			&sqlMt.PaymentID,
			&sqlMt.SentAfter,
			&sqlMt.Status,
		); err != nil {
			return nil, err
		}
		mts = append(mts, sqlMt.decode())
	}

	return mts, rows.Err()
}
