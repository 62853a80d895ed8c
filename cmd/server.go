// Server = vault indexer (state + synchronizer) + payout keeper + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Giveth/vaultcontract/database"
	"github.com/Giveth/vaultcontract/ethsync"
	"github.com/Giveth/vaultcontract/ethtxmanager"
	"github.com/Giveth/vaultcontract/reporter"
	"github.com/Giveth/vaultcontract/state"
	"github.com/Giveth/vaultcontract/vaultman"
)

// Default params for server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	// synchronizer config
	frequencyToCheckFinalizedBlock = 5 * time.Second

	// keeper config
	frequencyToCollect            = 5 * time.Second
	frequencyToMonitorPendingTxs  = 2 * time.Second
	timeoutOnMonitoringPendingTxs = 20 // blocks

	// state config
	stateChannelSize = 1

	mineTimeout = 2 * time.Minute
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type VaultServerConfig struct {
	RpcUrl       string // json rpc url
	VaultAddress string // deployed vault contract address
	StartBlock   int64  // vault deployment block, 0 to honor the value in statedb

	// Private key of the keeper account sending collect txs. Empty disables
	// the keeper.
	KeeperPriv string

	DbFilePath string // db file path, ":memory:" for a throwaway db

	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080

	// Optional, zero means the defaults above
	FrequencyToCheckFinalizedBlock time.Duration
	FrequencyToCollect             time.Duration

	LogPreset string // see logconfig.ConfigLogger
}

// VaultServer holds the objects that make up the vault server.
type VaultServer struct {
	ChainID *big.Int

	SqlDB      *sql.DB
	MyVaultman *vaultman.Vaultman
	MyStateDb  *state.StateDB
	MyState    *state.State
	MyEthSync  *ethsync.Synchronizer
	MyMgrDb    *ethtxmanager.EthTxManagerDB
	MyKeeper   *ethtxmanager.EthTxManager // nil when no keeper key is configured
	MyReporter *reporter.HttpReporter
}

func (vsc *VaultServerConfig) Validate() error {
	if vsc.RpcUrl == "" {
		return errors.New("rpc url is empty")
	}
	if !common.IsHexAddress(vsc.VaultAddress) {
		return fmt.Errorf("invalid vault address %q", vsc.VaultAddress)
	}
	if vsc.DbFilePath == "" {
		return errors.New("db file path is empty")
	}
	if vsc.StartBlock < 0 {
		return fmt.Errorf("start block must not be negative, got %d", vsc.StartBlock)
	}
	return nil
}

// NewVaultServer connects to the ledger and builds every component. Nothing
// runs until Run is called.
func NewVaultServer(ctx context.Context, vsc *VaultServerConfig) (*VaultServer, error) {
	if err := vsc.Validate(); err != nil {
		return nil, err
	}

	vm, err := vaultman.NewVaultman(&vaultman.Config{
		URL:          vsc.RpcUrl,
		VaultAddress: common.HexToAddress(vsc.VaultAddress),
		MineTimeout:  mineTimeout,
	})
	if err != nil {
		logger.Errorf("failed to connect to %s: %v", vsc.RpcUrl, err)
		return nil, err
	}
	return newVaultServer(ctx, vsc, vm)
}

func newVaultServer(ctx context.Context, vsc *VaultServerConfig, vm *vaultman.Vaultman) (*VaultServer, error) {
	chainID, err := vm.ChainID(ctx)
	if err != nil {
		logger.Errorf("failed to get chain id: %v", err)
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"chainID": chainID,
		"vault":   vm.Address().Hex(),
	}).Info("connected to ledger")

	// Create sql db, and related state_db, state.
	sqldb, err := database.Open(vsc.DbFilePath)
	if err != nil {
		logger.Errorf("failed to open db file: %v", err)
		return nil, err
	}

	myStateDb, err := state.NewStateDB(sqldb)
	if err != nil {
		logger.Errorf("failed to create state db: %v", err)
		return nil, err
	}

	myState, err := state.New(myStateDb, &state.StateConfig{ChannelSize: stateChannelSize, ChainID: chainID})
	if err != nil {
		logger.Errorf("failed to create state: %v", err)
		return nil, err
	}

	syncCfg := &ethsync.Config{
		FrequencyToCheckFinalizedBlock: orDefault(vsc.FrequencyToCheckFinalizedBlock, frequencyToCheckFinalizedBlock),
		ChainID:                        chainID,
	}
	if vsc.StartBlock > 0 {
		syncCfg.StartBlock = big.NewInt(vsc.StartBlock)
	}
	myEthSync, err := ethsync.New(vm, myState, syncCfg)
	if err != nil {
		logger.Errorf("failed to create synchronizer: %v", err)
		return nil, err
	}

	myMgrDb, err := ethtxmanager.NewEthTxManagerDB(sqldb)
	if err != nil {
		logger.Errorf("failed to create keeper db: %v", err)
		return nil, err
	}

	var myKeeper *ethtxmanager.EthTxManager
	if vsc.KeeperPriv != "" {
		auth, err := NewTransactor(vsc.KeeperPriv, chainID)
		if err != nil {
			logger.Errorf("failed to load keeper account: %v", err)
			return nil, err
		}
		logger.WithField("keeper", auth.From.Hex()).Info("payout keeper enabled")

		myKeeper, err = newKeeper(vsc, vm, auth, myState, myMgrDb)
		if err != nil {
			logger.Errorf("failed to create keeper: %v", err)
			return nil, err
		}
	} else {
		logger.Warn("no keeper key configured, due payments are not collected")
	}

	myReporter := reporter.NewHttpReporter(vsc.HttpIp, vsc.HttpPort, myStateDb)

	return &VaultServer{
		ChainID:    chainID,
		SqlDB:      sqldb,
		MyVaultman: vm,
		MyStateDb:  myStateDb,
		MyState:    myState,
		MyEthSync:  myEthSync,
		MyMgrDb:    myMgrDb,
		MyKeeper:   myKeeper,
		MyReporter: myReporter,
	}, nil
}

func newKeeper(
	vsc *VaultServerConfig,
	vm *vaultman.Vaultman,
	auth *bind.TransactOpts,
	st *state.State,
	mgrdb *ethtxmanager.EthTxManagerDB,
) (*ethtxmanager.EthTxManager, error) {
	cfg := ethtxmanager.DefaultConfig()
	cfg.FrequencyToCollect = orDefault(vsc.FrequencyToCollect, frequencyToCollect)
	cfg.FrequencyToMonitorPendingTxs = frequencyToMonitorPendingTxs
	cfg.TimeoutOnMonitoringPendingTxs = timeoutOnMonitoringPendingTxs

	return ethtxmanager.New(cfg, ethtxmanager.NewVaultCollector(vm, auth), st, mgrdb)
}

// Run starts every component and blocks until ctx is done or one of them
// fails, in which case the others are stopped too.
func (vs *VaultServer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(vs.MyState.Start(ctx))
	})
	g.Go(func() error {
		return ignoreCanceled(vs.MyEthSync.Sync(ctx))
	})
	if vs.MyKeeper != nil {
		g.Go(func() error {
			return ignoreCanceled(vs.MyKeeper.Start(ctx))
		})
	}
	g.Go(func() error {
		return vs.MyReporter.Run(ctx)
	})

	err := g.Wait()
	if cerr := vs.SqlDB.Close(); cerr != nil {
		logger.Errorf("failed to close db: %v", cerr)
	}
	return err
}

// Create, then start the vault server and wait.
// Press Ctrl-C to kill the server.
func StartVaultServerAndWait(vsc *VaultServerConfig) error {
	ctx, stop := signalContext()
	defer stop()

	vs, err := NewVaultServer(ctx, vsc)
	if err != nil {
		return fmt.Errorf("failed to create vault server: %w", err)
	}
	return vs.Run(ctx)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
