package ethsync

import (
	"context"
	"math/big"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/agreement"
)

const MaxBatchNum = 64

// MockState records every batch it receives.
type MockState struct {
	mu      sync.Mutex
	batchCh chan *agreement.SyncBatch

	lastFinalized *big.Int
	batches       []*agreement.SyncBatch
}

var _ agreement.StateChannel = (*MockState)(nil)

func NewMockState(lastFinalized *big.Int) *MockState {
	return &MockState{
		batchCh:       make(chan *agreement.SyncBatch, MaxBatchNum),
		lastFinalized: new(big.Int).Set(lastFinalized),
		batches:       make([]*agreement.SyncBatch, 0, MaxBatchNum),
	}
}

func (m *MockState) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-m.batchCh:
			m.apply(batch)
		}
	}
}

// Drain applies the batches already queued without blocking.
func (m *MockState) Drain() {
	for {
		select {
		case batch := <-m.batchCh:
			m.apply(batch)
		default:
			return
		}
	}
}

func (m *MockState) apply(batch *agreement.SyncBatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.WithField("batch", batch).Debug("mock state received batch")
	m.batches = append(m.batches, batch)
	m.lastFinalized = new(big.Int).Set(batch.BlockNumber)
}

func (m *MockState) GetNewSyncBatchChannel() chan<- *agreement.SyncBatch {
	return m.batchCh
}

func (m *MockState) GetFinalizedBlockNumber() (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.lastFinalized), nil
}

func (m *MockState) Batches() []*agreement.SyncBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*agreement.SyncBatch(nil), m.batches...)
}
