// Node = simulated vault ledger served over JSON-RPC (http + websocket).

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Giveth/vaultcontract/chain"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/metrics"
)

const (
	defaultNodeAccounts = 10
	rpcPath             = "/"
	wsPath              = "/ws"
)

type NodeConfig struct {
	ChainID int64

	// Prefunded private keys (hex). When empty, Accounts fresh keys are
	// generated and printed at startup.
	PrivateKeys []string
	Accounts    int

	// Balance credited to every prefunded account, see common.ParseAmount.
	// Empty means chain.DefaultAccountBalance.
	AccountBalance string

	// Zero seals a block after every transaction.
	BlockPeriod time.Duration

	ListenAddr  string // eg. 127.0.0.1:8545
	MetricsAddr string // optional prometheus endpoint, eg. 127.0.0.1:9090
}

type Node struct {
	cfg       *NodeConfig
	Chain     *chain.SimulatedChain
	rpcServer *rpc.Server
}

func NewNode(cfg *NodeConfig) (*Node, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.New("listen address is empty")
	}
	if cfg.BlockPeriod < 0 {
		return nil, fmt.Errorf("block period must not be negative, got %v", cfg.BlockPeriod)
	}

	chainID := new(big.Int).Set(chain.DefaultChainID)
	if cfg.ChainID > 0 {
		chainID = big.NewInt(cfg.ChainID)
	}

	balance := new(big.Int).Set(chain.DefaultAccountBalance)
	if cfg.AccountBalance != "" {
		b, err := common.ParseAmount(cfg.AccountBalance)
		if err != nil {
			return nil, err
		}
		balance = b
	}

	keys := cfg.PrivateKeys
	if len(keys) == 0 {
		n := cfg.Accounts
		if n <= 0 {
			n = defaultNodeAccounts
		}
		for i := 0; i < n; i++ {
			sk, err := crypto.GenerateKey()
			if err != nil {
				return nil, err
			}
			keys = append(keys, common.ByteSliceToPureHexStr(crypto.FromECDSA(sk)))
		}
	}

	chainCfg := &chain.Config{
		ChainID:    chainID,
		AutoCommit: cfg.BlockPeriod == 0,
		Alloc:      make(map[ethcommon.Address]*big.Int, len(keys)),
		Clock:      time.Now,
	}
	for i, priv := range keys {
		sk, err := StringToPrivateKey(priv)
		if err != nil {
			return nil, fmt.Errorf("private key #%d: %w", i, err)
		}
		addr := crypto.PubkeyToAddress(sk.PublicKey)
		chainCfg.Alloc[addr] = new(big.Int).Set(balance)

		entry := logger.WithField("address", addr.Hex())
		if len(cfg.PrivateKeys) == 0 {
			entry = entry.WithField("key", common.Prepend0xPrefix(priv))
		}
		entry.Infof("account #%d", i)
	}

	sim, err := chain.NewSimulatedChain(chainCfg)
	if err != nil {
		return nil, err
	}
	server, err := chain.NewRPCServer(sim)
	if err != nil {
		return nil, err
	}

	return &Node{cfg: cfg, Chain: sim, rpcServer: server}, nil
}

// Handler serves JSON-RPC over http on / and over websocket on /ws.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(wsPath, n.rpcServer.WebsocketHandler([]string{"*"}))
	mux.Handle(rpcPath, n.rpcServer)
	return mux
}

// Run serves the ledger until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if n.cfg.BlockPeriod > 0 {
		g.Go(func() error {
			n.Chain.Run(ctx, n.cfg.BlockPeriod)
			return nil
		})
	}
	if n.cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.NewPullService(n.cfg.MetricsAddr).Run(ctx)
		})
	}

	server := &http.Server{
		Handler:           n.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.WithFields(logger.Fields{
			"rpc": "http://" + ln.Addr().String(),
			"ws":  "ws://" + ln.Addr().String() + wsPath,
		}).Info("ledger listening")
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		n.rpcServer.Stop()
		return err
	})

	return g.Wait()
}

// StartNodeAndWait runs a node until Ctrl-C.
func StartNodeAndWait(cfg *NodeConfig) error {
	node, err := NewNode(cfg)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	return node.Run(ctx)
}
