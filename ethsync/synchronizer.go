package ethsync

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/metrics"
	"github.com/Giveth/vaultcontract/vaultman"
)

// Synchronizer follows the finalized head of the chain and forwards every
// vault event, with the records it touched, to the state as SyncBatches.
type Synchronizer struct {
	cfg           *Config
	vm            VaultReader
	st            agreement.StateChannel
	lastFinalized *big.Int
}

func New(
	vm VaultReader,
	st agreement.StateChannel,
	cfg *Config,
) (*Synchronizer, error) {
	if cfg.FrequencyToCheckFinalizedBlock < MinTickerDuration {
		return nil, ErrTickerDurationTooShort
	}

	chainID, err := vm.ChainID(context.Background())
	if err != nil {
		logger.Error("failed to get chain ID")
		return nil, err
	}

	if cfg.ChainID != nil && chainID.Cmp(cfg.ChainID) != 0 {
		return nil, ErrChainIDUnmatched(cfg.ChainID, chainID)
	}

	stored, err := st.GetFinalizedBlockNumber()
	if err != nil {
		logger.Error("failed to get finalized block number from database when initializing synchronizer")
		return nil, err
	}

	lastFinalized := new(big.Int).Set(stored)
	if cfg.StartBlock != nil && cfg.StartBlock.Sign() > 0 {
		beforeStart := new(big.Int).Sub(cfg.StartBlock, big.NewInt(1))
		if lastFinalized.Cmp(beforeStart) < 0 {
			lastFinalized = beforeStart
		}
	}

	if cfg.BlockRange == 0 {
		cfg.BlockRange = DefaultBlockRange
	}

	return &Synchronizer{
		cfg:           cfg,
		vm:            vm,
		st:            st,
		lastFinalized: lastFinalized,
	}, nil
}

func (s *Synchronizer) Sync(ctx context.Context) error {
	logger.Debug("starting vault synchronization")
	defer func() {
		logger.Debug("stopping vault synchronization")
	}()

	ticker := time.NewTicker(s.cfg.FrequencyToCheckFinalizedBlock)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// SyncOnce processes every block between the last synced one and the
// current finalized head.
func (s *Synchronizer) SyncOnce(ctx context.Context) error {
	newFinalized, err := s.vm.GetLatestFinalizedBlockNumber(ctx)
	if err != nil {
		return err
	}

	if newFinalized.Cmp(s.lastFinalized) != 1 {
		return nil
	}

	step := new(big.Int).SetUint64(s.cfg.BlockRange - 1)
	from := new(big.Int).Add(s.lastFinalized, big.NewInt(1))
	for from.Cmp(newFinalized) != 1 {
		to := new(big.Int).Add(from, step)
		if to.Cmp(newFinalized) == 1 {
			to.Set(newFinalized)
		}

		batch, err := s.buildBatch(ctx, from, to)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.st.GetNewSyncBatchChannel() <- batch:
		}

		s.lastFinalized = new(big.Int).Set(to)
		metrics.SyncedBlock.Set(float64(to.Uint64()))
		from = new(big.Int).Add(to, big.NewInt(1))
	}

	return nil
}

func (s *Synchronizer) buildBatch(ctx context.Context, from, to *big.Int) (*agreement.SyncBatch, error) {
	events, err := s.vm.GetEventLogs(ctx, from, to)
	if err != nil {
		return nil, err
	}

	batch := &agreement.SyncBatch{
		BlockNumber: new(big.Int).Set(to),
		Events:      make([]*agreement.VaultEvent, 0, len(events)),
	}

	var (
		paymentIDs []uint64
		spenders   []common.Address
		seenIDs    = map[uint64]bool{}
		seenAddrs  = map[common.Address]bool{}
	)
	for _, ev := range events {
		logger.WithFields(logger.Fields{
			"event": ev.Name,
			"block": ev.BlockNumber,
			"tx":    ev.TxHash.Hex(),
		}).Debug("vault event")

		batch.Events = append(batch.Events, &agreement.VaultEvent{
			Name:        ev.Name,
			BlockNumber: ev.BlockNumber,
			TxHash:      ev.TxHash,
			LogIndex:    ev.LogIndex,
			Args:        formatArgs(ev.Args),
		})
		metrics.SyncedEvents.WithLabelValues(ev.Name).Inc()

		if id, ok := paymentID(ev); ok && !seenIDs[id] {
			seenIDs[id] = true
			paymentIDs = append(paymentIDs, id)
		}
		if addr, ok := ev.Args["spender"].(common.Address); ok && !seenAddrs[addr] {
			seenAddrs[addr] = true
			spenders = append(spenders, addr)
		}
	}

	for _, id := range paymentIDs {
		p, err := s.vm.GetPayment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read payment %d: %w", id, err)
		}
		batch.Payments = append(batch.Payments, p)
	}

	for _, addr := range spenders {
		sp, ok, err := s.vm.GetSpender(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to read spender %s: %w", addr.Hex(), err)
		}
		if ok {
			batch.Spenders = append(batch.Spenders, sp)
		}
	}

	if batch.Vault, err = s.vm.GetSummary(ctx); err != nil {
		return nil, err
	}

	return batch, nil
}

func paymentID(ev *vaultman.Event) (uint64, bool) {
	id, ok := ev.Args["idPayment"].(*big.Int)
	if !ok || !id.IsUint64() {
		return 0, false
	}
	return id.Uint64(), true
}

// formatArgs renders ABI values for storage: numbers in decimal, addresses
// and hashes in hex.
func formatArgs(args map[string]interface{}) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch x := v.(type) {
		case *big.Int:
			out[k] = x.String()
		case common.Address:
			out[k] = x.Hex()
		case [32]byte:
			out[k] = common.Hash(x).Hex()
		case common.Hash:
			out[k] = x.Hex()
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}
