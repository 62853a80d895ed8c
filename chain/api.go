package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// NewRPCServer exposes c through the eth, net, web3 and evm namespaces.
func NewRPCServer(c *SimulatedChain) (*rpc.Server, error) {
	server := rpc.NewServer()
	apis := map[string]interface{}{
		"eth":  &EthAPI{chain: c},
		"net":  &NetAPI{chain: c},
		"web3": &Web3API{},
		"evm":  &EvmAPI{chain: c},
	}
	for namespace, api := range apis {
		if err := server.RegisterName(namespace, api); err != nil {
			server.Stop()
			return nil, err
		}
	}
	return server, nil
}

// CallArgs are the arguments of eth_call and eth_estimateGas.
type CallArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Data     *hexutil.Bytes  `json:"data"`
	Input    *hexutil.Bytes  `json:"input"`
}

func (args *CallArgs) toMessage() ethereum.CallMsg {
	msg := ethereum.CallMsg{From: args.From, To: args.To}
	if args.Value != nil {
		msg.Value = args.Value.ToInt()
	}
	if args.Input != nil {
		msg.Data = *args.Input
	} else if args.Data != nil {
		msg.Data = *args.Data
	}
	return msg
}

// FilterCriteria are the arguments of eth_getLogs and the logs subscription.
type FilterCriteria struct {
	BlockHash *common.Hash     `json:"blockHash"`
	FromBlock *rpc.BlockNumber `json:"fromBlock"`
	ToBlock   *rpc.BlockNumber `json:"toBlock"`
	Addresses []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
}

func (crit *FilterCriteria) toQuery() ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		BlockHash: crit.BlockHash,
		Addresses: crit.Addresses,
		Topics:    crit.Topics,
	}
	if crit.FromBlock != nil {
		q.FromBlock = big.NewInt(crit.FromBlock.Int64())
	}
	if crit.ToBlock != nil {
		q.ToBlock = big.NewInt(crit.ToBlock.Int64())
	}
	return q
}

func blockArg(nrOrHash *rpc.BlockNumberOrHash) *big.Int {
	if nrOrHash == nil {
		return nil
	}
	if n, ok := nrOrHash.Number(); ok {
		return big.NewInt(n.Int64())
	}
	return nil
}

// EthAPI serves the subset of the eth namespace used by contract bindings.
type EthAPI struct {
	chain *SimulatedChain
}

func (api *EthAPI) ChainId(ctx context.Context) (*hexutil.Big, error) {
	id, err := api.chain.ChainID(ctx)
	return (*hexutil.Big)(id), err
}

func (api *EthAPI) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	n, err := api.chain.BlockNumber(ctx)
	return hexutil.Uint64(n), err
}

// GetBlockByNumber returns the block header only. A missing block is null.
func (api *EthAPI) GetBlockByNumber(ctx context.Context, number rpc.BlockNumber, fullTx bool) (*types.Header, error) {
	h, err := api.chain.HeaderByNumber(ctx, big.NewInt(number.Int64()))
	if err == ethereum.NotFound {
		return nil, nil
	}
	return h, err
}

func (api *EthAPI) GetBlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (*types.Header, error) {
	h, err := api.chain.HeaderByHash(ctx, hash)
	if err == ethereum.NotFound {
		return nil, nil
	}
	return h, err
}

func (api *EthAPI) GetCode(ctx context.Context, address common.Address, blockNrOrHash rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	code, err := api.chain.CodeAt(ctx, address, blockArg(&blockNrOrHash))
	return code, err
}

func (api *EthAPI) GetBalance(ctx context.Context, address common.Address, blockNrOrHash rpc.BlockNumberOrHash) (*hexutil.Big, error) {
	b, err := api.chain.BalanceAt(ctx, address, blockArg(&blockNrOrHash))
	return (*hexutil.Big)(b), err
}

func (api *EthAPI) GetTransactionCount(ctx context.Context, address common.Address, blockNrOrHash rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	n, err := api.chain.NonceAt(ctx, address, blockArg(&blockNrOrHash))
	return hexutil.Uint64(n), err
}

func (api *EthAPI) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	p, err := api.chain.SuggestGasPrice(ctx)
	return (*hexutil.Big)(p), err
}

func (api *EthAPI) MaxPriorityFeePerGas(ctx context.Context) (*hexutil.Big, error) {
	p, err := api.chain.SuggestGasTipCap(ctx)
	return (*hexutil.Big)(p), err
}

func (api *EthAPI) Call(ctx context.Context, args CallArgs, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	out, err := api.chain.CallContract(ctx, args.toMessage(), blockArg(blockNrOrHash))
	return out, err
}

func (api *EthAPI) EstimateGas(ctx context.Context, args CallArgs, blockNrOrHash *rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	gas, err := api.chain.EstimateGas(ctx, args.toMessage())
	return hexutil.Uint64(gas), err
}

func (api *EthAPI) SendRawTransaction(ctx context.Context, input hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(input); err != nil {
		return common.Hash{}, err
	}
	if err := api.chain.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

// GetTransactionReceipt returns null until the transaction is sealed.
func (api *EthAPI) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, err := api.chain.TransactionReceipt(ctx, hash)
	if err == ethereum.NotFound {
		return nil, nil
	}
	return r, err
}

func (api *EthAPI) GetLogs(ctx context.Context, crit FilterCriteria) ([]types.Log, error) {
	return api.chain.FilterLogs(ctx, crit.toQuery())
}

// Logs streams sealed logs matching crit.
func (api *EthAPI) Logs(ctx context.Context, crit FilterCriteria) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}

	rpcSub := notifier.CreateSubscription()
	sink := make(chan []*types.Log, 16)
	sub := api.chain.subscribeLogs(sink)

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case logs := <-sink:
				for _, l := range logs {
					if matchLog(l, crit.Addresses, crit.Topics) {
						_ = notifier.Notify(rpcSub.ID, l)
					}
				}
			case <-rpcSub.Err():
				return
			case <-sub.Err():
				return
			}
		}
	}()

	return rpcSub, nil
}

type NetAPI struct {
	chain *SimulatedChain
}

func (api *NetAPI) Version() string {
	return api.chain.cfg.ChainID.String()
}

type Web3API struct{}

func (api *Web3API) ClientVersion() string {
	return "giveth-vault-ledger"
}

// EvmAPI carries the development controls found on local test nodes.
type EvmAPI struct {
	chain *SimulatedChain
}

// IncreaseTime moves the pending block clock forward and returns the
// pending block timestamp.
func (api *EvmAPI) IncreaseTime(ctx context.Context, seconds uint64) (hexutil.Uint64, error) {
	if err := api.chain.AdjustTimeSeconds(seconds); err != nil {
		return 0, err
	}
	h, err := api.chain.HeaderByNumber(ctx, big.NewInt(int64(rpc.PendingBlockNumber)))
	if err != nil {
		return 0, err
	}
	return hexutil.Uint64(h.Time), nil
}

// Mine seals the pending block.
func (api *EvmAPI) Mine() common.Hash {
	return api.chain.Commit()
}
