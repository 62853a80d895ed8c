package ethtxmanager

import (
	"context"
	"errors"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/metrics"
	"github.com/Giveth/vaultcontract/vault"
)

var (
	ErrDBOpGetMonitoredTxs       = errors.New("failed to get monitored txs")
	ErrDBOpGetMonitoredTxsByID   = errors.New("failed to get monitored txs by payment id")
	ErrDBOpInsertMonitoredTx     = errors.New("failed to insert monitored tx")
	ErrStateGetPaymentsDue       = errors.New("failed to get payments due")
	ErrCollectorLatestBlock      = errors.New("failed to get latest block")
	ErrCollectorCollect          = errors.New("failed to send collect tx")
	ErrTickerDurationNotPositive = errors.New("ticker durations must be positive")
)

// EthTxManager is the payout keeper. It collects every payment whose
// earliest pay time has passed on chain and follows the sent transactions
// until they are mined or time out.
type EthTxManager struct {
	cfg       *Config
	collector agreement.Collector
	source    agreement.PaymentSource
	mgrdb     *EthTxManagerDB

	collectLock sync.Map
}

func New(
	cfg *Config,
	collector agreement.Collector,
	source agreement.PaymentSource,
	mgrdb *EthTxManagerDB,
) (*EthTxManager, error) {
	if cfg.FrequencyToCollect <= 0 || cfg.FrequencyToMonitorPendingTxs <= 0 {
		return nil, ErrTickerDurationNotPositive
	}
	if cfg.MaxCollectsPerRound <= 0 {
		cfg.MaxCollectsPerRound = DefaultConfig().MaxCollectsPerRound
	}

	return &EthTxManager{
		cfg:       cfg,
		collector: collector,
		source:    source,
		mgrdb:     mgrdb,
	}, nil
}

func (txmgr *EthTxManager) Start(ctx context.Context) error {
	logger.Info("starting payout keeper")
	defer logger.Info("stopping payout keeper")

	tickerToCollect := time.NewTicker(txmgr.cfg.FrequencyToCollect)
	defer tickerToCollect.Stop()

	tickerToMonitor := time.NewTicker(txmgr.cfg.FrequencyToMonitorPendingTxs)
	defer tickerToMonitor.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickerToMonitor.C:
			if err := txmgr.MonitorOnce(ctx); err != nil {
				return err
			}
		case <-tickerToCollect.C:
			if err := txmgr.CollectOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// CollectOnce sends a collect tx for each due payment that has no pending
// or successful tx yet.
func (txmgr *EthTxManager) CollectOnce(ctx context.Context) error {
	latest, err := txmgr.collector.LatestBlock(ctx)
	if err != nil {
		logger.Errorf("failed to get latest block: err=%v", err)
		return ErrCollectorLatestBlock
	}

	toCollect, err := txmgr.source.GetPaymentsDue(ctx, latest.Time, txmgr.cfg.MaxCollectsPerRound, txmgr.inFlight)
	if err != nil {
		if errors.Is(err, ErrDBOpGetMonitoredTxsByID) {
			return err
		}
		logger.Errorf("failed to get payments due: err=%v", err)
		return ErrStateGetPaymentsDue
	}

	// collect txs share one account, so they go out in order
	for _, p := range toCollect {
		if _, loaded := txmgr.collectLock.LoadOrStore(p.ID, true); loaded {
			continue
		}
		err := txmgr.collect(ctx, p, latest.Number.Uint64())
		txmgr.collectLock.Delete(p.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

// inFlight reports whether p already has a pending or successful collect tx.
func (txmgr *EthTxManager) inFlight(p *vault.Payment) (bool, error) {
	mts, err := txmgr.mgrdb.GetMonitoredTxsByPaymentID(p.ID)
	if err != nil {
		logger.Errorf("failed to get monitored txs by payment id: err=%v", err)
		return false, ErrDBOpGetMonitoredTxsByID
	}
	for _, mt := range mts {
		if mt.Settled() {
			return true, nil
		}
	}
	return false, nil
}

func (txmgr *EthTxManager) collect(ctx context.Context, p *vault.Payment, sentAfter uint64) error {
	newLogger := logger.WithFields(logger.Fields{
		"payment":   p.ID,
		"recipient": common.Shorten(p.Recipient.Hex(), 6),
		"amount":    p.Amount,
	})

	txHash, err := txmgr.collector.Collect(ctx, p.ID)
	if err != nil {
		// rejected by the vault: the indexed copy is behind the chain or the
		// payment cannot be paid right now
		if vault.IsVaultError(err) {
			newLogger.Warnf("collect rejected: err=%v", err)
			metrics.KeeperTxs.WithLabelValues("rejected").Inc()
			return nil
		}
		newLogger.Errorf("failed to send collect tx: err=%v", err)
		metrics.KeeperTxs.WithLabelValues("failed").Inc()
		return ErrCollectorCollect
	}
	metrics.KeeperTxs.WithLabelValues("sent").Inc()

	mt := &MonitoredTx{
		TxHash:    txHash,
		PaymentID: p.ID,
		SentAfter: sentAfter,
		Status:    Pending,
	}
	if err := txmgr.mgrdb.InsertPendingMonitoredTx(mt); err != nil {
		newLogger.Errorf("failed to insert pending monitored tx: err=%v", err)
		return ErrDBOpInsertMonitoredTx
	}
	newLogger.WithField("tx", txHash.Hex()).Info("collect tx sent")

	return nil
}
