package vaultman

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Giveth/vaultcontract/chain"
)

// TestEnv is a vault deployed on a fresh simulated chain with one funded
// account per role.
type TestEnv struct {
	Sim      *chain.SimulatedChain
	Vaultman *Vaultman

	Owner                  *bind.TransactOpts
	Spender                *bind.TransactOpts
	SecurityGuard          *bind.TransactOpts
	EscapeHatchCaller      *bind.TransactOpts
	EscapeHatchDestination *bind.TransactOpts
	Recipient              *bind.TransactOpts
	// Keeper is a spare account, not bound to any vault role
	Keeper *bind.TransactOpts
}

type TestEnvConfig struct {
	AbsoluteMinTimeLock   uint64
	TimeLock              uint64
	MaxSecurityGuardDelay uint64
	AutoCommit            bool
}

func DefaultTestEnvConfig() *TestEnvConfig {
	return &TestEnvConfig{
		AbsoluteMinTimeLock:   60,
		TimeLock:              3600,
		MaxSecurityGuardDelay: 86400,
		AutoCommit:            true,
	}
}

func NewTestEnv(cfg *TestEnvConfig) (*TestEnv, error) {
	if cfg == nil {
		cfg = DefaultTestEnvConfig()
	}

	sim, err := chain.NewSimulatedChain(&chain.Config{
		ChainID:    new(big.Int).Set(chain.DefaultChainID),
		AutoCommit: true,
		Accounts:   7,
	})
	if err != nil {
		return nil, err
	}

	env := &TestEnv{
		Sim:                    sim,
		Owner:                  sim.Accounts[0],
		Spender:                sim.Accounts[1],
		SecurityGuard:          sim.Accounts[2],
		EscapeHatchCaller:      sim.Accounts[3],
		EscapeHatchDestination: sim.Accounts[4],
		Recipient:              sim.Accounts[5],
		Keeper:                 sim.Accounts[6],
	}

	env.Vaultman, err = Deploy(context.Background(), sim, env.Owner, &DeployParams{
		EscapeHatchCaller:      env.EscapeHatchCaller.From,
		EscapeHatchDestination: env.EscapeHatchDestination.From,
		AbsoluteMinTimeLock:    cfg.AbsoluteMinTimeLock,
		TimeLock:               cfg.TimeLock,
		SecurityGuard:          env.SecurityGuard.From,
		MaxSecurityGuardDelay:  cfg.MaxSecurityGuardDelay,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.AutoCommit {
		sim.SetAutoCommit(false)
	}

	return env, nil
}

// AuthorizeSpender authorizes the Spender account and waits for it.
func (env *TestEnv) AuthorizeSpender(ctx context.Context) error {
	tx, err := env.Vaultman.AuthorizeSpender(ctx, env.Owner, env.Spender.From, "spender", crypto.Keccak256Hash([]byte("spender")))
	if err != nil {
		return err
	}
	_, err = env.wait(ctx, tx)
	return err
}

func (env *TestEnv) Deposit(ctx context.Context, amount *big.Int) error {
	tx, err := env.Vaultman.Deposit(ctx, env.Owner, amount)
	if err != nil {
		return err
	}
	_, err = env.wait(ctx, tx)
	return err
}

// AuthorizePayment queues a payment from Spender to Recipient and returns
// its id.
func (env *TestEnv) AuthorizePayment(ctx context.Context, amount *big.Int, delay uint64) (uint64, error) {
	tx, err := env.Vaultman.AuthorizePayment(ctx, env.Spender, &AuthorizePaymentParams{
		Description: "payment",
		Reference:   common.BytesToHash(amount.Bytes()),
		Recipient:   env.Recipient.From,
		Amount:      amount,
		Delay:       delay,
	})
	if err != nil {
		return 0, err
	}
	receipt, err := env.wait(ctx, tx)
	if err != nil {
		return 0, err
	}
	return env.Vaultman.PaymentIDFromReceipt(receipt)
}

// AdvanceTime moves the chain clock forward and seals a block.
func (env *TestEnv) AdvanceTime(d time.Duration) error {
	if err := env.Sim.AdjustTime(d); err != nil {
		return err
	}
	env.Sim.Commit()
	return nil
}

func (env *TestEnv) wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if !env.Sim.AutoCommit() {
		env.Sim.Commit()
	}
	return env.Vaultman.WaitMined(ctx, tx)
}
