package chain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

var errInvalidBlockRange = errors.New("invalid block range params")

// FilterLogs returns the sealed logs matching q. A nil FromBlock means the
// genesis block and a nil ToBlock the head.
func (c *SimulatedChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var blocks []*block
	if q.BlockHash != nil {
		for _, b := range c.blocks {
			if b.header.Hash() == *q.BlockHash {
				blocks = append(blocks, b)
				break
			}
		}
		if blocks == nil {
			return nil, ethereum.NotFound
		}
	} else {
		from, to := uint64(0), c.head().header.Number.Uint64()
		if q.FromBlock != nil {
			b, err := c.blockByNumber(q.FromBlock)
			if err != nil {
				return []types.Log{}, nil
			}
			from = b.header.Number.Uint64()
		}
		if q.ToBlock != nil {
			b, err := c.blockByNumber(q.ToBlock)
			if err == nil {
				to = b.header.Number.Uint64()
			} else if q.ToBlock.Sign() > 0 {
				to = c.head().header.Number.Uint64()
			}
		}
		if from > to {
			return nil, errInvalidBlockRange
		}
		if to >= uint64(len(c.blocks)) {
			to = uint64(len(c.blocks)) - 1
		}
		blocks = c.blocks[from : to+1]
	}

	out := []types.Log{}
	for _, b := range blocks {
		for _, r := range b.receipts {
			for _, l := range r.Logs {
				if matchLog(l, q.Addresses, q.Topics) {
					out = append(out, *l)
				}
			}
		}
	}
	return out, nil
}

// SubscribeFilterLogs streams logs matching q as blocks are sealed. The block
// range of q is ignored.
func (c *SimulatedChain) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	sink := make(chan []*types.Log, 16)
	sub := c.logsFeed.Subscribe(sink)

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case logs := <-sink:
				for _, l := range logs {
					if !matchLog(l, q.Addresses, q.Topics) {
						continue
					}
					select {
					case ch <- *l:
					case <-quit:
						return nil
					}
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// subscribeLogs hands out raw sealed logs to the RPC layer.
func (c *SimulatedChain) subscribeLogs(sink chan<- []*types.Log) event.Subscription {
	return c.logsFeed.Subscribe(sink)
}

func matchLog(l *types.Log, addresses []common.Address, topics [][]common.Hash) bool {
	if len(addresses) > 0 {
		found := false
		for _, a := range addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(topics) > len(l.Topics) {
		return false
	}
	for i, alternatives := range topics {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, t := range alternatives {
			if t == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
