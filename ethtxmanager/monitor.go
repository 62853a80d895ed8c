package ethtxmanager

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/metrics"
)

var (
	ErrDBOpUpdateMonitoredTx  = errors.New("failed to update monitored tx status")
	ErrDBOpRemoveMonitoredTxs = errors.New("failed to remove failed monitored txs")
	ErrCollectorReceipt       = errors.New("failed to get transaction receipt")
)

// MonitorOnce checks every pending collect tx.
func (txmgr *EthTxManager) MonitorOnce(ctx context.Context) error {
	mtxs, err := txmgr.mgrdb.GetMonitoredTxsByStatus(Pending)
	if err != nil {
		logger.Errorf("failed to get monitored tx by status: err=%v", err)
		return ErrDBOpGetMonitoredTxs
	}
	metrics.KeeperMonitored.Set(float64(len(mtxs)))

	if len(mtxs) == 0 {
		return nil
	}

	latest, err := txmgr.collector.LatestBlock(ctx)
	if err != nil {
		logger.Errorf("failed to get latest block: err=%v", err)
		return ErrCollectorLatestBlock
	}

	for _, mtx := range mtxs {
		if err := txmgr.monitor(ctx, mtx, latest); err != nil {
			return err
		}
	}
	return nil
}

// monitor follows the tx until it is mined or times out
// 1. If mined, record success or reverted. A success also prunes the
// failed attempts of the same payment
// 2. If not mined for more than the timeout in blocks, record timeout so
// that the payment can be collected again
func (txmgr *EthTxManager) monitor(ctx context.Context, mtx *MonitoredTx, latest *types.Header) error {
	newLogger := logger.WithFields(logger.Fields{
		"tx":      common.Shorten(mtx.TxHash.Hex(), 8),
		"payment": mtx.PaymentID,
	})

	setStatus := func(status MonitoredTxStatus) error {
		if err := txmgr.mgrdb.UpdateMonitoredTxStatus(mtx.TxHash, status); err != nil {
			newLogger.Errorf("failed to update monitored tx: err=%v", err)
			return ErrDBOpUpdateMonitoredTx
		}
		metrics.KeeperTxs.WithLabelValues(string(status)).Inc()
		newLogger.WithField("status", status).Debug("monitored tx settled")
		return nil
	}

	receipt, err := txmgr.collector.Receipt(ctx, mtx.TxHash)
	if err != nil {
		newLogger.Errorf("failed to get transaction receipt: err=%v", err)
		return ErrCollectorReceipt
	}

	if receipt != nil && receipt.BlockNumber != nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			if err := setStatus(Success); err != nil {
				return err
			}
			// earlier failed attempts are no longer needed once paid
			if err := txmgr.mgrdb.RemoveFailedMonitoredTxs(mtx.PaymentID); err != nil {
				newLogger.Errorf("failed to remove failed monitored txs: err=%v", err)
				return ErrDBOpRemoveMonitoredTxs
			}
			return nil
		}
		newLogger.Warn("collect tx reverted")
		return setStatus(Reverted)
	}

	number := latest.Number.Uint64()
	if number > mtx.SentAfter && number-mtx.SentAfter > txmgr.cfg.TimeoutOnMonitoringPendingTxs {
		newLogger.Warnf("tx has not been mined for %d blocks", txmgr.cfg.TimeoutOnMonitoringPendingTxs)
		return setStatus(Timeout)
	}

	return nil
}
