// Package chain is an in-process ledger that hosts vault and token contracts
// natively and serves them through the go-ethereum client interfaces and a
// JSON-RPC endpoint.
package chain

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/trie"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/metrics"
	"github.com/Giveth/vaultcontract/vault"
)

// MaxBlockTime leaves room for the longest payment delays on top of a block
// timestamp while pay times still fit a signed 64-bit column.
const MaxBlockTime = math.MaxInt64 - 2*vault.MaxDelay

type txLookup struct {
	tx      *types.Transaction
	receipt *types.Receipt
}

type block struct {
	header   *types.Header
	txs      []*types.Transaction
	receipts []*types.Receipt
}

// SimulatedChain seals blocks on demand (or after each transaction with
// AutoCommit). State queries always read the latest state.
type SimulatedChain struct {
	mu sync.Mutex

	cfg    Config
	signer types.Signer

	bank      *vault.MemoryBank
	contracts map[common.Address]contract
	nonces    map[common.Address]uint64

	blocks  []*block
	pending *block
	// offset accumulated by AdjustTime, applied on top of Clock
	offset uint64

	txs map[common.Hash]*txLookup

	logsFeed event.Feed

	// Accounts are funded development accounts.
	Accounts []*bind.TransactOpts
}

func NewSimulatedChain(cfg *Config) (*SimulatedChain, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &SimulatedChain{
		cfg:       *cfg,
		bank:      vault.NewMemoryBank(),
		contracts: make(map[common.Address]contract),
		nonces:    make(map[common.Address]uint64),
		txs:       make(map[common.Hash]*txLookup),
	}
	if c.cfg.ChainID == nil {
		c.cfg.ChainID = new(big.Int).Set(DefaultChainID)
	}
	c.signer = types.LatestSignerForChainID(c.cfg.ChainID)

	for i := 0; i < cfg.Accounts; i++ {
		auth, err := newAuth(c.cfg.ChainID)
		if err != nil {
			return nil, err
		}
		c.Accounts = append(c.Accounts, auth)
		c.bank.Mint(vault.NativeAsset, auth.From, DefaultAccountBalance)
	}
	for addr, balance := range cfg.Alloc {
		c.bank.Mint(vault.NativeAsset, addr, balance)
	}

	genesisTime := cfg.GenesisTime
	if genesisTime == 0 {
		genesisTime = c.now()
	}
	genesis := &types.Header{
		ParentHash:  common.Hash{},
		UncleHash:   types.EmptyUncleHash,
		Root:        types.EmptyRootHash,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Number:      new(big.Int),
		Difficulty:  new(big.Int),
		GasLimit:    DefaultGasLimit,
		Time:        genesisTime,
		Extra:       []byte("giveth-vault"),
	}
	c.blocks = []*block{{header: genesis}}
	c.openPending()

	return c, nil
}

func newAuth(chainID *big.Int) (*bind.TransactOpts, error) {
	sk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(sk, chainID)
}

func (c *SimulatedChain) now() uint64 {
	if c.cfg.Clock == nil {
		return uint64(time.Now().Unix())
	}
	return uint64(c.cfg.Clock().Unix())
}

func (c *SimulatedChain) head() *block {
	return c.blocks[len(c.blocks)-1]
}

// openPending starts the next block. Its timestamp is fixed here so every
// transaction of the block executes at the time the block is sealed with.
func (c *SimulatedChain) openPending() {
	parent := c.head().header
	t := parent.Time + 1
	if c.cfg.Clock != nil {
		if now := c.now() + c.offset; now > t {
			t = now
		}
	}
	c.pending = &block{
		header: &types.Header{
			ParentHash: parent.Hash(),
			UncleHash:  types.EmptyUncleHash,
			Root:       types.EmptyRootHash,
			Number:     new(big.Int).Add(parent.Number, common.Big1),
			Difficulty: new(big.Int),
			GasLimit:   DefaultGasLimit,
			Time:       t,
			Extra:      []byte("giveth-vault"),
		},
	}
}

// Fund mints native currency to addr.
func (c *SimulatedChain) Fund(addr common.Address, amount *big.Int) {
	c.bank.Mint(vault.NativeAsset, addr, amount)
}

func (c *SimulatedChain) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.AutoCommit
}

func (c *SimulatedChain) SetAutoCommit(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.AutoCommit = on
}

// AdjustTime moves the clock of the pending block forward.
func (c *SimulatedChain) AdjustTime(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cannot move time backwards by %s", d)
	}
	return c.AdjustTimeSeconds(uint64(d / time.Second))
}

// AdjustTimeSeconds moves the pending block clock forward by secs.
func (c *SimulatedChain) AdjustTimeSeconds(secs uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t := c.pending.header.Time; t > MaxBlockTime || secs > MaxBlockTime-t {
		return fmt.Errorf("%w: %d + %d seconds passes %d", ErrTimeOverflow, t, secs, MaxBlockTime)
	}
	c.pending.header.Time += secs
	c.offset += secs
	return nil
}

// Commit seals the pending block and returns its hash.
func (c *SimulatedChain) Commit() common.Hash {
	c.mu.Lock()
	hash, logs := c.commit()
	c.mu.Unlock()

	c.publish(logs)
	return hash
}

func (c *SimulatedChain) commit() (common.Hash, []*types.Log) {
	b := c.pending
	h := b.header

	var cumulative uint64
	var logs []*types.Log
	for _, r := range b.receipts {
		cumulative += r.GasUsed
		logs = append(logs, r.Logs...)
	}
	h.GasUsed = cumulative
	h.Bloom = types.CreateBloom(b.receipts)
	h.TxHash = types.DeriveSha(types.Transactions(b.txs), trie.NewStackTrie(nil))
	h.ReceiptHash = types.DeriveSha(types.Receipts(b.receipts), trie.NewStackTrie(nil))

	hash := h.Hash()
	var logIndex uint
	for i, r := range b.receipts {
		r.BlockHash = hash
		r.BlockNumber = new(big.Int).Set(h.Number)
		r.TransactionIndex = uint(i)
		for _, l := range r.Logs {
			l.BlockNumber = h.Number.Uint64()
			l.BlockHash = hash
			l.TxHash = r.TxHash
			l.TxIndex = uint(i)
			l.Index = logIndex
			logIndex++
		}
	}

	c.blocks = append(c.blocks, b)
	c.openPending()
	metrics.ChainHeight.Set(float64(h.Number.Uint64()))

	logger.WithFields(logger.Fields{
		"number": h.Number,
		"time":   h.Time,
		"txs":    len(b.txs),
	}).Debug("sealed block")
	return hash, logs
}

// publish must be called without the lock held: the feed blocks until every
// subscriber has taken the logs.
func (c *SimulatedChain) publish(logs []*types.Log) {
	if len(logs) > 0 {
		c.logsFeed.Send(logs)
	}
}

// Run seals a block every period until ctx is done.
func (c *SimulatedChain) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Commit()
		}
	}
}

// SendTransaction executes tx against the pending block.
func (c *SimulatedChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mu.Lock()

	from, err := types.Sender(c.signer, tx)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}
	if _, ok := c.txs[tx.Hash()]; ok {
		c.mu.Unlock()
		return ErrAlreadyKnown
	}
	switch nonce := c.nonces[from]; {
	case tx.Nonce() < nonce:
		c.mu.Unlock()
		return fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooLow, from.Hex(), tx.Nonce(), nonce)
	case tx.Nonce() > nonce:
		c.mu.Unlock()
		return fmt.Errorf("%w: address %s, tx: %d state: %d", ErrNonceTooHigh, from.Hex(), tx.Nonce(), nonce)
	}
	c.nonces[from]++

	receipt := c.execute(from, tx)
	c.pending.txs = append(c.pending.txs, tx)
	c.pending.receipts = append(c.pending.receipts, receipt)
	c.txs[tx.Hash()] = &txLookup{tx: tx, receipt: receipt}

	var logs []*types.Log
	if c.cfg.AutoCommit {
		_, logs = c.commit()
	}
	c.mu.Unlock()

	c.publish(logs)
	return nil
}

// execute applies tx. A failed execution yields a receipt with status 0 and
// leaves balances and contracts untouched.
func (c *SimulatedChain) execute(from common.Address, tx *types.Transaction) *types.Receipt {
	ec := &execContext{
		caller: from,
		value:  tx.Value(),
		time:   c.pending.header.Time,
	}
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		TxHash:            tx.Hash(),
		EffectiveGasPrice: big.NewInt(gasPriceWei),
		Logs:              []*types.Log{},
	}

	method, err := c.apply(ec, tx, receipt)
	status := "success"
	if err != nil {
		status = "reverted"
		receipt.Status = types.ReceiptStatusFailed
		receipt.ContractAddress = common.Address{}
		logger.WithFields(logger.Fields{
			"tx":     tx.Hash().Hex(),
			"from":   from.Hex(),
			"method": method,
		}).Debugf("transaction reverted: %v", err)
	} else {
		receipt.Logs = ec.logs
		if receipt.Logs == nil {
			receipt.Logs = []*types.Log{}
		}
	}
	receipt.GasUsed = gasFor(tx.To(), tx.Data())
	var cumulative uint64
	for _, r := range c.pending.receipts {
		cumulative += r.GasUsed
	}
	receipt.CumulativeGasUsed = cumulative + receipt.GasUsed
	receipt.Bloom = types.CreateBloom(types.Receipts{receipt})
	for _, l := range receipt.Logs {
		l.TxHash = receipt.TxHash
	}

	metrics.ChainTransactions.WithLabelValues(method, status).Inc()
	return receipt
}

func (c *SimulatedChain) apply(ec *execContext, tx *types.Transaction, receipt *types.Receipt) (string, error) {
	if tx.To() == nil {
		addr := crypto.CreateAddress(ec.caller, tx.Nonce())
		receipt.ContractAddress = addr
		ct, err := deploy(ec, c.bank, addr, tx.Data())
		if err != nil {
			return "deploy", err
		}
		c.contracts[addr] = ct
		return "deploy", nil
	}

	to := *tx.To()
	ct, ok := c.contracts[to]
	if !ok {
		return "transfer", c.bank.Transfer(vault.NativeAsset, ec.caller, to, ec.value)
	}
	_, err := invoke(ec, ct, tx.Data())
	return methodName(ct, tx.Data()), err
}

func methodName(ct contract, data []byte) string {
	if len(data) == 0 {
		return "receive"
	}
	if len(data) >= 4 {
		if m, err := ct.abi().MethodById(data[:4]); err == nil {
			return m.Name
		}
	}
	return "unknown"
}

func gasFor(to *common.Address, data []byte) uint64 {
	switch {
	case to == nil:
		return deployGas
	case len(data) == 0:
		return txGas
	}
	return callGas
}
