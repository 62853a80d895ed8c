package main

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"net"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Giveth/vaultcontract/cmd"
	"github.com/Giveth/vaultcontract/common"
	"github.com/Giveth/vaultcontract/reporter"
	"github.com/Giveth/vaultcontract/vaultman"
)

// txOp is one vault transaction built from the command line.
type txOp func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error)

// txCommand wraps a vault transaction: parse args, send as the configured
// account, wait and print the receipt.
func txCommand(use, short string, nargs int, build func(args []string) (txOp, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(c *cobra.Command, args []string) error {
			op, err := build(args)
			if err != nil {
				return err
			}
			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				receipt, err := vu.Send(ctx, func(vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return op(ctx, vm, auth)
				})
				if err != nil {
					return err
				}
				printReceipt(receipt)
				return nil
			})
		},
	}
}

func printReceipt(r *types.Receipt) {
	fmt.Printf("tx %s mined in block %d\n", r.TxHash.Hex(), r.BlockNumber.Uint64())
}

func addressArg(s string) (ethcommon.Address, error) {
	return common.ParseAddress(s)
}

func idArg(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid payment id %q", s)
	}
	return id, nil
}

func registerCommands(root *cobra.Command) {
	root.AddCommand(
		deployCmd(),
		deployTokenCmd(),
		stateCmd(),
		statusCmd(),
		balanceCmd(),
		authorizeSpenderCmd(),
		authorizePaymentCmd(),
		advanceTimeCmd(),
		depositCmd(),
	)

	root.AddCommand(
		txCommand("unauthorize-spender <address>", "Revoke a spender", 1,
			func(args []string) (txOp, error) {
				spender, err := addressArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.UnauthorizeSpender(ctx, auth, spender)
				}, nil
			}),
		txCommand("delay-payment <id> <delay>", "Push a pending payment back (security guard)", 2,
			func(args []string) (txOp, error) {
				id, err := idArg(args[0])
				if err != nil {
					return nil, err
				}
				delay, err := common.ParseSeconds(args[1])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.DelayPayment(ctx, auth, id, delay)
				}, nil
			}),
		txCommand("cancel-payment <id>", "Cancel a pending payment (owner)", 1,
			func(args []string) (txOp, error) {
				id, err := idArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.CancelPayment(ctx, auth, id)
				}, nil
			}),
		txCommand("collect <id>", "Pay out a due payment to its recipient", 1,
			func(args []string) (txOp, error) {
				id, err := idArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.CollectAuthorizedPayment(ctx, auth, id)
				}, nil
			}),
		txCommand("escape-hatch", "Move the whole balance to the escape hatch destination", 0,
			func(args []string) (txOp, error) {
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.EscapeHatch(ctx, auth)
				}, nil
			}),
		txCommand("change-escape-hatch-caller <address>", "Hand the escape hatch to another address", 1,
			func(args []string) (txOp, error) {
				caller, err := addressArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.ChangeEscapeHatchCaller(ctx, auth, caller)
				}, nil
			}),
		txCommand("set-timelock <seconds>", "Set the minimum delay of new payments (owner)", 1,
			func(args []string) (txOp, error) {
				timeLock, err := common.ParseSeconds(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.SetTimelock(ctx, auth, timeLock)
				}, nil
			}),
		txCommand("set-security-guard <address>", "Replace the security guard (owner)", 1,
			func(args []string) (txOp, error) {
				guard, err := addressArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.SetSecurityGuard(ctx, auth, guard)
				}, nil
			}),
		txCommand("set-max-guard-delay <seconds>", "Cap the total delay the guard may add (owner)", 1,
			func(args []string) (txOp, error) {
				maxDelay, err := common.ParseSeconds(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.SetMaxSecurityGuardDelay(ctx, auth, maxDelay)
				}, nil
			}),
		txCommand("change-owner <address>", "Transfer ownership (owner)", 1,
			func(args []string) (txOp, error) {
				owner, err := addressArg(args[0])
				if err != nil {
					return nil, err
				}
				return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
					return vm.ChangeOwner(ctx, auth, owner)
				}, nil
			}),
	)
}

func authorizeSpenderCmd() *cobra.Command {
	c := txCommand("authorize-spender <address>", "Allow an address to queue payments (owner)", 1,
		func(args []string) (txOp, error) {
			spender, err := addressArg(args[0])
			if err != nil {
				return nil, err
			}
			return func(ctx context.Context, vm *vaultman.Vaultman, auth *bind.TransactOpts) (*types.Transaction, error) {
				return vm.AuthorizeSpender(ctx, auth, spender, spenderName, crypto.Keccak256Hash([]byte(spenderName)))
			}, nil
		})
	c.Flags().StringVar(&spenderName, "name", "", "spender name, hashed into its name hash")
	return c
}

var spenderName string

func deployCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a vault owned by the acting account",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			f := c.Flags()
			params := &vaultman.DeployParams{}

			var err error
			addrs := []struct {
				flag string
				dst  *ethcommon.Address
			}{
				{"base-token", &params.BaseToken},
				{"escape-hatch-caller", &params.EscapeHatchCaller},
				{"escape-hatch-destination", &params.EscapeHatchDestination},
				{"security-guard", &params.SecurityGuard},
			}
			for _, a := range addrs {
				v, _ := f.GetString(a.flag)
				if v == "" {
					continue
				}
				if *a.dst, err = common.ParseAddress(v); err != nil {
					return fmt.Errorf("--%s: %w", a.flag, err)
				}
			}

			secs := []struct {
				flag string
				dst  *uint64
			}{
				{"absolute-min-timelock", &params.AbsoluteMinTimeLock},
				{"timelock", &params.TimeLock},
				{"max-guard-delay", &params.MaxSecurityGuardDelay},
			}
			for _, s := range secs {
				v, _ := f.GetString(s.flag)
				if *s.dst, err = common.ParseSeconds(v); err != nil {
					return fmt.Errorf("--%s: %w", s.flag, err)
				}
			}

			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				addr, err := vu.Deploy(ctx, params)
				if err != nil {
					return err
				}
				fmt.Printf("vault deployed at %s\n", addr.Hex())
				return nil
			})
		},
	}

	f := c.Flags()
	f.String("base-token", "", "token held by the vault, empty for native currency")
	f.String("escape-hatch-caller", "", "address allowed to drain the vault")
	f.String("escape-hatch-destination", "", "address receiving the drained balance")
	f.String("security-guard", "", "address allowed to delay payments")
	f.String("absolute-min-timelock", "1d", "lower bound of the time lock")
	f.String("timelock", "2d", "minimum delay of new payments")
	f.String("max-guard-delay", "5d", "upper bound of the delay the guard may add to a payment")
	_ = c.MarkFlagRequired("escape-hatch-caller")
	_ = c.MarkFlagRequired("escape-hatch-destination")
	return c
}

func deployTokenCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "deploy-token",
		Short: "Deploy a token to use as a vault base asset",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			f := c.Flags()
			name, _ := f.GetString("name")
			symbol, _ := f.GetString("symbol")
			decimals, _ := f.GetUint8("decimals")
			supplyStr, _ := f.GetString("supply")
			supply, err := common.ParseAmount(supplyStr)
			if err != nil {
				return err
			}

			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				addr, err := vu.DeployToken(ctx, name, symbol, decimals, supply)
				if err != nil {
					return err
				}
				fmt.Printf("token deployed at %s\n", addr.Hex())
				return nil
			})
		},
	}
	f := c.Flags()
	f.String("name", "Giveth Token", "token name")
	f.String("symbol", "GVT", "token symbol")
	f.Uint8("decimals", 18, "token decimals")
	f.String("supply", "1000000ether", "initial supply credited to the deployer")
	return c
}

func authorizePaymentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "authorize-payment <recipient> <amount>",
		Short: "Queue a payment (authorized spender)",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			recipient, err := addressArg(args[0])
			if err != nil {
				return err
			}
			amount, err := common.ParseAmount(args[1])
			if err != nil {
				return err
			}
			f := c.Flags()
			desc, _ := f.GetString("description")
			ref, _ := f.GetString("reference")
			delayStr, _ := f.GetString("delay")
			delay, err := common.ParseSeconds(delayStr)
			if err != nil {
				return err
			}

			params := &vaultman.AuthorizePaymentParams{
				Description: desc,
				Reference:   crypto.Keccak256Hash([]byte(ref)),
				Recipient:   recipient,
				Amount:      amount,
				Delay:       delay,
			}
			if b, err := hexutil.Decode(common.Prepend0xPrefix(ref)); err == nil && len(b) == ethcommon.HashLength {
				params.Reference = ethcommon.BytesToHash(b)
			}

			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				id, receipt, err := vu.AuthorizePayment(ctx, params)
				if err != nil {
					return err
				}
				printReceipt(receipt)
				fmt.Printf("payment id %d\n", id)
				return nil
			})
		},
	}
	f := c.Flags()
	f.String("description", "", "free text stored with the payment")
	f.String("reference", "", "32 byte hex reference, any other text is hashed")
	f.String("delay", "0", "requested delay, raised to the vault time lock")
	return c
}

func depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Fund the vault in its base asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			amount, err := common.ParseAmount(args[0])
			if err != nil {
				return err
			}
			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				receipt, err := vu.Deposit(ctx, amount)
				if err != nil {
					return err
				}
				printReceipt(receipt)
				return nil
			})
		},
	}
}

// ledgerState is the vault snapshot printed by the state command.
type ledgerState struct {
	Vault    *reporter.VaultView     `json:"vault"`
	Payments []*reporter.PaymentView `json:"payments"`
	Spenders []*reporter.SpenderView `json:"spenders"`
}

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the vault configuration, payments and spenders read from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				st, err := vu.State(ctx)
				if err != nil {
					return err
				}
				out := &ledgerState{
					Vault:    reporter.NewVaultView(st),
					Payments: make([]*reporter.PaymentView, 0, len(st.Payments)),
					Spenders: make([]*reporter.SpenderView, 0, len(st.Spenders)),
				}
				for _, p := range st.Payments {
					out.Payments = append(out.Payments, reporter.NewPaymentView(p))
				}
				for _, s := range st.Spenders {
					out.Spenders = append(out.Spenders, reporter.NewSpenderView(s))
				}
				return printJSON(out)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Print the vault as indexed by the vault server",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			host, port, err := net.SplitHostPort(viper.GetString(CfgReporter))
			if err != nil {
				return err
			}
			status, _ := c.Flags().GetString("status")

			hr := reporter.NewHttpReader(host, port)
			v, err := hr.GetVault()
			if err != nil {
				return err
			}
			payments, err := hr.GetPayments(status, 0, reporter.MaxPageLimit)
			if err != nil {
				return err
			}
			spenders, err := hr.GetSpenders()
			if err != nil {
				return err
			}
			return printJSON(&ledgerState{Vault: v, Payments: payments, Spenders: spenders})
		},
	}
	c.Flags().String("status", "", "only list payments in this status: pending, paid or canceled")
	return c
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Print an account balance in the vault base asset, the acting account by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				holder := vu.GetAddress()
				if len(args) == 1 {
					var err error
					if holder, err = addressArg(args[0]); err != nil {
						return err
					}
				}
				var (
					balance *big.Int
					err     error
				)
				if vu.MyVaultman != nil {
					balance, err = vu.TokenBalance(ctx, holder)
				} else {
					balance, err = vu.Client.BalanceAt(ctx, holder, nil)
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n", holder.Hex(), balance.String())
				return nil
			})
		},
	}
}

func advanceTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance-time <duration>",
		Short: "Move the clock of a development ledger forward and mine a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			secs, err := common.ParseSeconds(args[0])
			if err != nil {
				return err
			}
			if secs > math.MaxInt64/uint64(time.Second) {
				return fmt.Errorf("duration %q too large", args[0])
			}
			return withUser(func(ctx context.Context, vu *cmd.VaultUser) error {
				now, err := vu.AdvanceTime(ctx, secs)
				if err != nil {
					return err
				}
				fmt.Printf("ledger time is now %s\n", time.Unix(int64(now), 0).UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
}
