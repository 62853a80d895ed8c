package state

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/agreement"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/vault"
)

var (
	KeyFinalizedBlock = crypto.Keccak256Hash([]byte("KeyFinalizedBlock"))
	KeyChainID        = crypto.Keccak256Hash([]byte("KeyChainID"))

	ErrGetFinalizedBlockNumber           = errors.New("failed to get finalized block number from statedb")
	ErrStoredFinalizedBlockNumberInvalid = errors.New("stored finalized block number is invalid")
	ErrChainIDUnmatchedStored            = errors.New("chain id unmatched with the stored")
	ErrApplySyncBatch                    = errors.New("failed to apply sync batch")
)

// State owns the indexed copy of the vault. Batches arrive from the
// synchronizer and are applied in block order.
type State struct {
	statedb *StateDB
	cfg     *StateConfig

	newSyncBatchCh chan *agreement.SyncBatch

	cache struct {
		lastFinalized atomic.Value // []byte
		chainID       atomic.Value // []byte
	}
}

var _ agreement.StateChannel = (*State)(nil)
var _ agreement.PaymentSource = (*State)(nil)

func New(statedb *StateDB, cfg *StateConfig) (*State, error) {
	st := &State{
		cfg:            cfg,
		statedb:        statedb,
		newSyncBatchCh: make(chan *agreement.SyncBatch, cfg.ChannelSize),
	}

	if err := st.initChainID(); err != nil {
		return nil, err
	}

	if err := st.initFinalizedBlock(); err != nil {
		return nil, err
	}

	return st, nil
}

func (st *State) Start(ctx context.Context) error {
	logger.Info("starting vault state")
	defer logger.Info("stopping vault state")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-st.newSyncBatchCh:
			lastFinalized, err := st.GetFinalizedBlockNumber()
			if err != nil {
				logger.Errorf("failed to get last finalized block number: err=%v", err)
				return ErrGetFinalizedBlockNumber
			}

			// a batch at or below the stored block has already been applied
			if batch.BlockNumber.Cmp(lastFinalized) <= 0 {
				logger.WithField("batch", batch).Debug("skip stale sync batch")
				continue
			}

			if err := st.statedb.ApplyBatch(ctx, batch); err != nil {
				logger.Errorf("failed to apply sync batch: batch=%v, err=%v", batch, err)
				return ErrApplySyncBatch
			}
			st.cache.lastFinalized.Store(batch.BlockNumber.Bytes())

			if len(batch.Events) > 0 {
				logger.WithFields(logger.Fields{
					"block":  batch.BlockNumber,
					"events": len(batch.Events),
				}).Info("vault state updated")
			}
		}
	}
}

func (st *State) GetFinalizedBlockNumber() (*big.Int, error) {
	if v := st.cache.lastFinalized.Load(); v != nil {
		return new(big.Int).SetBytes(v.([]byte)), nil
	}

	b, ok, err := st.statedb.GetKeyedValue(KeyFinalizedBlock)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	st.cache.lastFinalized.Store(b.Big().Bytes())

	return b.Big(), nil
}

func (st *State) GetNewSyncBatchChannel() chan<- *agreement.SyncBatch {
	return st.newSyncBatchCh
}

// GetPaymentsDue returns up to limit due payments the vault would accept
// now, oldest first. Payments of revoked spenders never show up, and each
// payment must fit in what is left of the stored balance. A payment for
// which skip reports true is left out but still draws on the balance, as
// its collect tx may already be on the way. A nil skip keeps everything.
// Without a stored vault row the balance is not checked.
func (st *State) GetPaymentsDue(
	ctx context.Context,
	now uint64,
	limit int,
	skip func(*vault.Payment) (bool, error),
) ([]*vault.Payment, error) {
	if limit <= 0 {
		return []*vault.Payment{}, nil
	}

	v, ok, err := st.statedb.GetVault()
	if err != nil {
		return nil, err
	}
	var budget *big.Int
	if ok {
		budget = new(big.Int).Set(v.Balance)
	}

	pageSize := limit
	if pageSize < MinDuePageSize {
		pageSize = MinDuePageSize
	}

	collectable := make([]*vault.Payment, 0, limit)
	for offset := 0; ; offset += pageSize {
		page, err := st.statedb.GetPaymentsDue(ctx, now, offset, pageSize)
		if err != nil {
			return nil, err
		}

		for _, p := range page {
			if budget != nil {
				if p.Amount.Cmp(budget) > 0 {
					continue
				}
				budget.Sub(budget, p.Amount)
			}
			if skip != nil {
				skipped, err := skip(p)
				if err != nil {
					return nil, err
				}
				if skipped {
					continue
				}
			}

			collectable = append(collectable, p)
			if len(collectable) == limit {
				return collectable, nil
			}
		}

		if len(page) < pageSize {
			return collectable, nil
		}
	}
}

func (st *State) StateDB() *StateDB {
	return st.statedb
}

func (st *State) initChainID() error {
	if st.cfg.ChainID == nil {
		return nil
	}

	stored, ok, err := st.statedb.GetKeyedValue(KeyChainID)
	if err != nil {
		return err
	}

	if !ok {
		if err := st.statedb.SetKeyedValue(KeyChainID, common.BigInt2Bytes32(st.cfg.ChainID)); err != nil {
			return err
		}
	} else if stored.Big().Cmp(st.cfg.ChainID) != 0 {
		logger.Errorf("chain id unmatched: stored=%v, cfg=%v", stored.Big(), st.cfg.ChainID)
		return ErrChainIDUnmatchedStored
	}

	st.cache.chainID.Store(st.cfg.ChainID.Bytes())
	return nil
}

func (st *State) initFinalizedBlock() error {
	stored, ok, err := st.statedb.GetKeyedValue(KeyFinalizedBlock)
	if err != nil {
		return err
	}

	if !ok {
		st.cache.lastFinalized.Store(big.NewInt(0).Bytes())
		return nil
	}

	// block numbers never use the top byte
	if stored[0] != 0 {
		return ErrStoredFinalizedBlockNumberInvalid
	}

	st.cache.lastFinalized.Store(stored.Big().Bytes())
	return nil
}
