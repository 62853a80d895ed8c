package vaultman

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	logger "github.com/sirupsen/logrus"

	"github.com/Giveth/vaultcontract/contracts/Vault"
	"github.com/Giveth/vaultcontract/vault"
)

type ethereumClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)

	bind.ContractBackend
	bind.DeployBackend
}

// Vaultman talks to one vault contract: typed reads, transactions with
// errors mapped back onto the vault sentinels, and event decoding.
type Vaultman struct {
	client      ethereumClient
	address     common.Address
	contract    *Vault.Vault
	abi         *abi.ABI
	mineTimeout time.Duration
}

func NewVaultman(cfg *Config) (*Vaultman, error) {
	client, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	vm, err := New(client, cfg.VaultAddress)
	if err != nil {
		return nil, err
	}
	vm.mineTimeout = cfg.MineTimeout
	return vm, nil
}

func New(client ethereumClient, address common.Address) (*Vaultman, error) {
	contract, err := Vault.NewVault(address, client)
	if err != nil {
		return nil, err
	}
	parsed, err := Vault.VaultMetaData.GetAbi()
	if err != nil {
		return nil, err
	}

	return &Vaultman{
		client:   client,
		address:  address,
		contract: contract,
		abi:      parsed,
	}, nil
}

// Deploy creates a vault owned by auth and waits for it to be mined.
func Deploy(ctx context.Context, client ethereumClient, auth *bind.TransactOpts, params *DeployParams) (*Vaultman, error) {
	_, tx, _, err := Vault.DeployVault(
		withContext(ctx, auth),
		client,
		params.BaseToken,
		params.EscapeHatchCaller,
		params.EscapeHatchDestination,
		new(big.Int).SetUint64(params.AbsoluteMinTimeLock),
		new(big.Int).SetUint64(params.TimeLock),
		params.SecurityGuard,
		new(big.Int).SetUint64(params.MaxSecurityGuardDelay),
	)
	if err != nil {
		return nil, vault.MatchError(err)
	}

	addr, err := bind.WaitDeployed(ctx, client, tx)
	if err != nil {
		return nil, err
	}
	logger.WithField("address", addr.Hex()).Info("vault deployed")

	return New(client, addr)
}

func (vm *Vaultman) Address() common.Address { return vm.address }

func (vm *Vaultman) Client() ethereumClient { return vm.client }

// RPCClient returns the underlying rpc client when connected through a URL.
func (vm *Vaultman) RPCClient() (*rpc.Client, bool) {
	c, ok := vm.client.(*ethclient.Client)
	if !ok {
		return nil, false
	}
	return c.Client(), true
}

func (vm *Vaultman) ChainID(ctx context.Context) (*big.Int, error) {
	return vm.client.ChainID(ctx)
}

// GetLatestFinalizedBlockNumber falls back to the latest block on nodes
// without the finalized tag.
func (vm *Vaultman) GetLatestFinalizedBlockNumber(ctx context.Context) (*big.Int, error) {
	h, err := vm.client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err == nil {
		return h.Number, nil
	}
	logger.Debugf("finalized block unavailable, using latest: %v", err)

	h, err = vm.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	return h.Number, nil
}

// Reads

func (vm *Vaultman) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func (vm *Vaultman) Balance(ctx context.Context) (*big.Int, error) {
	b, err := vm.contract.GetBalance(vm.callOpts(ctx))
	return b, vault.MatchError(err)
}

func (vm *Vaultman) NumberOfAuthorizedPayments(ctx context.Context) (uint64, error) {
	n, err := vm.contract.NumberOfAuthorizedPayments(vm.callOpts(ctx))
	if err != nil {
		return 0, vault.MatchError(err)
	}
	return n.Uint64(), nil
}

func (vm *Vaultman) NumberOfSpenders(ctx context.Context) (uint64, error) {
	n, err := vm.contract.NumberOfSpenders(vm.callOpts(ctx))
	if err != nil {
		return 0, vault.MatchError(err)
	}
	return n.Uint64(), nil
}

func (vm *Vaultman) IsAuthorized(ctx context.Context, spender common.Address) (bool, error) {
	ok, err := vm.contract.IsAuthorized(vm.callOpts(ctx), spender)
	return ok, vault.MatchError(err)
}

func (vm *Vaultman) GetPayment(ctx context.Context, id uint64) (*vault.Payment, error) {
	p, err := vm.contract.AuthorizedPayments(vm.callOpts(ctx), new(big.Int).SetUint64(id))
	if err != nil {
		return nil, vault.MatchError(err)
	}

	return &vault.Payment{
		ID:                 id,
		Description:        p.Description,
		Reference:          common.Hash(p.Reference),
		Spender:            p.Spender,
		EarliestPayTime:    p.EarliestPayTime.Uint64(),
		Canceled:           p.Canceled,
		Paid:               p.Paid,
		Recipient:          p.Recipient,
		Amount:             p.Amount,
		SecurityGuardDelay: p.SecurityGuardDelay.Uint64(),
	}, nil
}

// GetSpender reports false for an address that was never authorized.
func (vm *Vaultman) GetSpender(ctx context.Context, addr common.Address) (*vault.Spender, bool, error) {
	s, err := vm.contract.Spenders(vm.callOpts(ctx), addr)
	if err != nil {
		return nil, false, vault.MatchError(err)
	}
	if s.Idx.Sign() == 0 {
		return nil, false, nil
	}

	return &vault.Spender{
		Address:    addr,
		Name:       s.Name,
		NameHash:   common.Hash(s.NameHash),
		Idx:        s.Idx.Uint64(),
		Authorized: s.Authorized,
	}, true, nil
}

// GetSummary reads the vault settings and balance, leaving Payments and
// Spenders empty.
func (vm *Vaultman) GetSummary(ctx context.Context) (*vault.State, error) {
	head, err := vm.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	return vm.getSummary(&bind.CallOpts{Context: ctx, BlockNumber: head.Number})
}

func (vm *Vaultman) getSummary(opts *bind.CallOpts) (*vault.State, error) {
	var err error
	c := vm.contract

	st := &vault.State{Address: vm.address}
	if st.Owner, err = c.Owner(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	if st.EscapeHatchCaller, err = c.EscapeHatchCaller(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	if st.EscapeHatchDestination, err = c.EscapeHatchDestination(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	if st.SecurityGuard, err = c.SecurityGuard(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	if st.BaseToken, err = c.BaseToken(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	if st.Balance, err = c.GetBalance(opts); err != nil {
		return nil, vault.MatchError(err)
	}
	for _, f := range []struct {
		get func(*bind.CallOpts) (*big.Int, error)
		dst *uint64
	}{
		{c.AbsoluteMinTimeLock, &st.AbsoluteMinTimeLock},
		{c.TimeLock, &st.TimeLock},
		{c.MaxSecurityGuardDelay, &st.MaxSecurityGuardDelay},
	} {
		v, err := f.get(opts)
		if err != nil {
			return nil, vault.MatchError(err)
		}
		*f.dst = v.Uint64()
	}
	return st, nil
}

// GetState reads the whole vault. Every call runs against the same block.
func (vm *Vaultman) GetState(ctx context.Context) (*vault.State, error) {
	head, err := vm.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	opts := &bind.CallOpts{Context: ctx, BlockNumber: head.Number}
	c := vm.contract

	st, err := vm.getSummary(opts)
	if err != nil {
		return nil, err
	}

	n, err := c.NumberOfAuthorizedPayments(opts)
	if err != nil {
		return nil, vault.MatchError(err)
	}
	st.Payments = make([]*vault.Payment, 0, n.Uint64())
	for id := uint64(0); id < n.Uint64(); id++ {
		p, err := vm.GetPayment(ctx, id)
		if err != nil {
			return nil, err
		}
		st.Payments = append(st.Payments, p)
	}

	m, err := c.NumberOfSpenders(opts)
	if err != nil {
		return nil, vault.MatchError(err)
	}
	st.Spenders = make([]*vault.Spender, 0, m.Uint64())
	for idx := uint64(1); idx <= m.Uint64(); idx++ {
		addr, err := c.GetSpenderAddress(opts, new(big.Int).SetUint64(idx))
		if err != nil {
			return nil, vault.MatchError(err)
		}
		s, ok, err := vm.GetSpender(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("spender %d at %s has no record", idx, addr.Hex())
		}
		st.Spenders = append(st.Spenders, s)
	}

	return st, nil
}

// Transactions

func withContext(ctx context.Context, auth *bind.TransactOpts) *bind.TransactOpts {
	opts := *auth
	opts.Context = ctx
	return &opts
}

func (vm *Vaultman) transact(ctx context.Context, auth *bind.TransactOpts, method string,
	send func(opts *bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	tx, err := send(withContext(ctx, auth))
	if err != nil {
		return nil, vault.MatchError(err)
	}
	logger.WithFields(logger.Fields{
		"method": method,
		"from":   auth.From.Hex(),
		"tx":     tx.Hash().Hex(),
	}).Debug("vault transaction sent")
	return tx, nil
}

func (vm *Vaultman) AuthorizeSpender(ctx context.Context, auth *bind.TransactOpts, spender common.Address, name string, nameHash common.Hash) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "authorizeSpender", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.AuthorizeSpender(opts, spender, name, nameHash)
	})
}

func (vm *Vaultman) UnauthorizeSpender(ctx context.Context, auth *bind.TransactOpts, spender common.Address) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "unauthorizeSpender", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.UnauthorizeSpender(opts, spender)
	})
}

func (vm *Vaultman) AuthorizePayment(ctx context.Context, auth *bind.TransactOpts, params *AuthorizePaymentParams) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "authorizePayment", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.AuthorizePayment(opts, params.Description, params.Reference, params.Recipient,
			params.Amount, new(big.Int).SetUint64(params.Delay))
	})
}

func (vm *Vaultman) DelayPayment(ctx context.Context, auth *bind.TransactOpts, id, delay uint64) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "delayPayment", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.DelayPayment(opts, new(big.Int).SetUint64(id), new(big.Int).SetUint64(delay))
	})
}

func (vm *Vaultman) CancelPayment(ctx context.Context, auth *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "cancelPayment", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.CancelPayment(opts, new(big.Int).SetUint64(id))
	})
}

func (vm *Vaultman) CollectAuthorizedPayment(ctx context.Context, auth *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "collectAuthorizedPayment", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.CollectAuthorizedPayment(opts, new(big.Int).SetUint64(id))
	})
}

func (vm *Vaultman) EscapeHatch(ctx context.Context, auth *bind.TransactOpts) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "escapeHatch", vm.contract.EscapeHatch)
}

func (vm *Vaultman) ChangeEscapeHatchCaller(ctx context.Context, auth *bind.TransactOpts, newCaller common.Address) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "changeEscapeHatchCaller", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.ChangeEscapeHatchCaller(opts, newCaller)
	})
}

func (vm *Vaultman) SetTimelock(ctx context.Context, auth *bind.TransactOpts, timeLock uint64) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "setTimelock", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.SetTimelock(opts, new(big.Int).SetUint64(timeLock))
	})
}

func (vm *Vaultman) SetSecurityGuard(ctx context.Context, auth *bind.TransactOpts, guard common.Address) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "setSecurityGuard", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.SetSecurityGuard(opts, guard)
	})
}

func (vm *Vaultman) SetMaxSecurityGuardDelay(ctx context.Context, auth *bind.TransactOpts, maxDelay uint64) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "setMaxSecurityGuardDelay", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.SetMaxSecurityGuardDelay(opts, new(big.Int).SetUint64(maxDelay))
	})
}

func (vm *Vaultman) ChangeOwner(ctx context.Context, auth *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "changeOwner", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return vm.contract.ChangeOwner(opts, newOwner)
	})
}

// Deposit sends amount of native currency into the vault.
func (vm *Vaultman) Deposit(ctx context.Context, auth *bind.TransactOpts, amount *big.Int) (*types.Transaction, error) {
	return vm.transact(ctx, auth, "receiveEther", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		opts.Value = amount
		return vm.contract.ReceiveEther(opts)
	})
}

// WaitMined blocks until tx is mined and fails with ErrTxReverted when its
// status is not successful.
func (vm *Vaultman) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if vm.mineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, vm.mineTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, vm.client, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

// PaymentIDFromReceipt extracts the id assigned by authorizePayment.
func (vm *Vaultman) PaymentIDFromReceipt(receipt *types.Receipt) (uint64, error) {
	for _, l := range receipt.Logs {
		if l.Address != vm.address || len(l.Topics) == 0 || l.Topics[0] != PaymentAuthorizedSignatureHash {
			continue
		}
		ev, err := vm.contract.ParsePaymentAuthorized(*l)
		if err != nil {
			return 0, err
		}
		return ev.IdPayment.Uint64(), nil
	}
	return 0, fmt.Errorf("no PaymentAuthorized event in receipt %s", receipt.TxHash.Hex())
}

// Events

// GetEventLogs returns the decoded vault events in [from, to], in log order.
func (vm *Vaultman) GetEventLogs(ctx context.Context, from, to *big.Int) ([]*Event, error) {
	logs, err := vm.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{vm.address},
	})
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0, len(logs))
	for _, vlog := range logs {
		ev, err := vm.DecodeLog(vlog)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (vm *Vaultman) DecodeLog(vlog types.Log) (*Event, error) {
	if len(vlog.Topics) == 0 {
		return nil, fmt.Errorf("%w: anonymous log in tx %s", ErrUnknownEvent, vlog.TxHash.Hex())
	}

	c := vm.contract
	var (
		name    string
		payload interface{}
		err     error
	)
	switch vlog.Topics[0] {
	case PaymentAuthorizedSignatureHash:
		name = vault.EventPaymentAuthorized
		payload, err = c.ParsePaymentAuthorized(vlog)
	case PaymentExecutedSignatureHash:
		name = vault.EventPaymentExecuted
		payload, err = c.ParsePaymentExecuted(vlog)
	case PaymentCanceledSignatureHash:
		name = vault.EventPaymentCanceled
		payload, err = c.ParsePaymentCanceled(vlog)
	case PaymentDelayedSignatureHash:
		name = vault.EventPaymentDelayed
		payload, err = c.ParsePaymentDelayed(vlog)
	case EtherReceivedSignatureHash:
		name = vault.EventEtherReceived
		payload, err = c.ParseEtherReceived(vlog)
	case SpenderAuthorizationSignatureHash:
		name = vault.EventSpenderAuthorization
		payload, err = c.ParseSpenderAuthorization(vlog)
	case EscapeHatchCalledSignatureHash:
		name = vault.EventEscapeHatchCalled
		payload, err = c.ParseEscapeHatchCalled(vlog)
	case EscapeHatchCallerChangedSignatureHash:
		name = vault.EventEscapeHatchCallerChanged
		payload, err = c.ParseEscapeHatchCallerChanged(vlog)
	case OwnerChangedSignatureHash:
		name = vault.EventOwnerChanged
		payload, err = c.ParseOwnerChanged(vlog)
	case SecurityGuardChangedSignatureHash:
		name = vault.EventSecurityGuardChanged
		payload, err = c.ParseSecurityGuardChanged(vlog)
	case TimelockChangedSignatureHash:
		name = vault.EventTimelockChanged
		payload, err = c.ParseTimelockChanged(vlog)
	case MaxSecurityGuardDelayChangedSignatureHash:
		name = vault.EventMaxSecurityGuardDelayChanged
		payload, err = c.ParseMaxSecurityGuardDelayChanged(vlog)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, vlog.Topics[0].Hex())
	}
	if err != nil {
		return nil, err
	}
	args, err := vm.unpackArgs(name, vlog)
	if err != nil {
		return nil, err
	}

	return &Event{
		Name:        name,
		BlockNumber: vlog.BlockNumber,
		TxHash:      vlog.TxHash,
		LogIndex:    vlog.Index,
		Args:        args,
		Payload:     payload,
	}, nil
}

// unpackArgs collects both the indexed and the data arguments by name.
func (vm *Vaultman) unpackArgs(name string, vlog types.Log) (map[string]interface{}, error) {
	ev := vm.abi.Events[name]
	args := make(map[string]interface{}, len(ev.Inputs))
	if err := vm.abi.UnpackIntoMap(args, name, vlog.Data); err != nil {
		return nil, err
	}

	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, vlog.Topics[1:]); err != nil {
		return nil, err
	}
	return args, nil
}
