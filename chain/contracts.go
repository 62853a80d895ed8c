package chain

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Giveth/vaultcontract/contracts/Token"
	"github.com/Giveth/vaultcontract/contracts/Vault"
	"github.com/Giveth/vaultcontract/vault"
)

var (
	vaultABI = mustABI(Vault.VaultMetaData)
	tokenABI = mustABI(Token.TokenMetaData)

	vaultCode = common.FromHex(Vault.VaultBin)
	tokenCode = common.FromHex(Token.TokenBin)
)

func mustABI(md interface{ GetAbi() (*abi.ABI, error) }) *abi.ABI {
	parsed, err := md.GetAbi()
	if err != nil {
		panic(err)
	}
	return parsed
}

// execContext carries one message through a native contract.
type execContext struct {
	caller common.Address
	value  *big.Int
	time   uint64
	logs   []*types.Log
}

func (ec *execContext) emit(addr common.Address, parsed *abi.ABI, name string, args []interface{}) error {
	l, err := makeLog(addr, parsed, name, args)
	if err != nil {
		return err
	}
	ec.logs = append(ec.logs, l)
	return nil
}

// contract is a Go-native contract hosted by the ledger.
type contract interface {
	abi() *abi.ABI
	code() []byte
	call(ec *execContext, method *abi.Method, args []interface{}) ([]interface{}, error)
	receive(ec *execContext) error
	clone(bank *vault.MemoryBank) contract
}

// invoke dispatches calldata to c and returns the ABI encoded result.
func invoke(ec *execContext, c contract, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, c.receive(ec)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: short calldata %x", ErrUnknownMethod, data)
	}

	method, err := c.abi().MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMethod, data[:4])
	}
	if !method.IsPayable() && ec.value != nil && ec.value.Sign() > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPayable, method.Name)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Name, err)
	}
	out, err := c.call(ec, method, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

// deploy instantiates the contract whose marker code prefixes data. The rest
// of data holds the ABI encoded constructor arguments.
func deploy(ec *execContext, bank *vault.MemoryBank, addr common.Address, data []byte) (contract, error) {
	if ec.value != nil && ec.value.Sign() > 0 {
		return nil, fmt.Errorf("%w: constructor", ErrNonPayable)
	}

	switch {
	case bytes.HasPrefix(data, vaultCode):
		args, err := vaultABI.Constructor.Inputs.Unpack(data[len(vaultCode):])
		if err != nil {
			return nil, fmt.Errorf("failed to unpack vault constructor: %w", err)
		}
		cfg := vault.Config{
			BaseToken:              args[0].(common.Address),
			EscapeHatchCaller:      args[1].(common.Address),
			EscapeHatchDestination: args[2].(common.Address),
			SecurityGuard:          args[5].(common.Address),
		}
		if cfg.AbsoluteMinTimeLock, err = toUint64(args[3]); err != nil {
			return nil, err
		}
		if cfg.TimeLock, err = toUint64(args[4]); err != nil {
			return nil, err
		}
		if cfg.MaxSecurityGuardDelay, err = toUint64(args[6]); err != nil {
			return nil, err
		}
		engine, err := vault.New(addr, ec.caller, cfg, bank)
		if err != nil {
			return nil, err
		}
		return &vaultContract{engine: engine}, nil

	case bytes.HasPrefix(data, tokenCode):
		args, err := tokenABI.Constructor.Inputs.Unpack(data[len(tokenCode):])
		if err != nil {
			return nil, fmt.Errorf("failed to unpack token constructor: %w", err)
		}
		tc := &tokenContract{
			address:  addr,
			name:     args[0].(string),
			symbol:   args[1].(string),
			decimals: args[2].(uint8),
			owner:    ec.caller,
			bank:     bank,
		}
		if supply := args[3].(*big.Int); supply.Sign() > 0 {
			bank.Mint(addr, ec.caller, supply)
			if err := ec.emit(addr, tokenABI, "Transfer", []interface{}{common.Address{}, ec.caller, supply}); err != nil {
				return nil, err
			}
		}
		return tc, nil
	}

	return nil, ErrUnsupportedCode
}

// vaultContract exposes a vault engine through the Vault ABI.
type vaultContract struct {
	engine *vault.Engine
}

func (vc *vaultContract) abi() *abi.ABI { return vaultABI }
func (vc *vaultContract) code() []byte  { return vaultCode }

func (vc *vaultContract) clone(bank *vault.MemoryBank) contract {
	return &vaultContract{engine: vc.engine.Clone(bank)}
}

func (vc *vaultContract) receive(ec *execContext) error {
	return vc.run(ec, func(e *vault.Engine) error {
		return e.ReceiveEther(ec.caller, ec.value)
	})
}

// run executes fn with the block time and turns engine events into logs.
func (vc *vaultContract) run(ec *execContext, fn func(e *vault.Engine) error) error {
	recorder := &vault.EventRecorder{}
	vc.engine.SetNowFunc(func() uint64 { return ec.time })
	vc.engine.SetEmitter(recorder)
	defer vc.engine.SetEmitter(nil)

	if err := fn(vc.engine); err != nil {
		return err
	}
	for _, ev := range recorder.Events {
		if err := ec.emit(vc.engine.Address(), vaultABI, ev.EventName(), ev.Args()); err != nil {
			return err
		}
	}
	return nil
}

func (vc *vaultContract) call(ec *execContext, method *abi.Method, args []interface{}) ([]interface{}, error) {
	e := vc.engine
	caller := ec.caller

	switch method.Name {
	case "owner":
		return []interface{}{e.Owner()}, nil
	case "escapeHatchCaller":
		return []interface{}{e.EscapeHatchCaller()}, nil
	case "escapeHatchDestination":
		return []interface{}{e.EscapeHatchDestination()}, nil
	case "securityGuard":
		return []interface{}{e.SecurityGuard()}, nil
	case "baseToken":
		return []interface{}{e.BaseToken()}, nil
	case "timeLock":
		return []interface{}{u256(e.TimeLock())}, nil
	case "absoluteMinTimeLock":
		return []interface{}{u256(e.AbsoluteMinTimeLock())}, nil
	case "maxSecurityGuardDelay":
		return []interface{}{u256(e.MaxSecurityGuardDelay())}, nil
	case "getBalance":
		return []interface{}{e.Balance()}, nil
	case "numberOfAuthorizedPayments":
		return []interface{}{u256(e.NumberOfAuthorizedPayments())}, nil
	case "numberOfSpenders":
		return []interface{}{u256(e.NumberOfSpenders())}, nil
	case "isAuthorized":
		return []interface{}{e.IsAuthorized(args[0].(common.Address))}, nil

	case "getSpenderAddress":
		s, err := e.SpenderAt(clampUint64(args[0]))
		if err != nil {
			return nil, err
		}
		return []interface{}{s.Address}, nil

	case "spenders":
		s, ok := e.Spender(args[0].(common.Address))
		if !ok {
			return []interface{}{"", [32]byte{}, new(big.Int), false}, nil
		}
		return []interface{}{s.Name, [32]byte(s.NameHash), u256(s.Idx), s.Authorized}, nil

	case "authorizedPayments":
		p, err := e.Payment(clampUint64(args[0]))
		if err != nil {
			return nil, err
		}
		return []interface{}{
			p.Description,
			[32]byte(p.Reference),
			p.Spender,
			u256(p.EarliestPayTime),
			p.Canceled,
			p.Paid,
			p.Recipient,
			p.Amount,
			u256(p.SecurityGuardDelay),
		}, nil

	case "authorizePayment":
		var id uint64
		err := vc.run(ec, func(e *vault.Engine) (err error) {
			id, err = e.AuthorizePayment(
				caller,
				args[0].(string),
				common.Hash(args[1].([32]byte)),
				args[2].(common.Address),
				args[3].(*big.Int),
				clampUint64(args[4]),
			)
			return err
		})
		if err != nil {
			return nil, err
		}
		return []interface{}{u256(id)}, nil

	case "collectAuthorizedPayment":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.CollectAuthorizedPayment(caller, clampUint64(args[0]))
		})
	case "delayPayment":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.DelayPayment(caller, clampUint64(args[0]), clampUint64(args[1]))
		})
	case "cancelPayment":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.CancelPayment(caller, clampUint64(args[0]))
		})
	case "authorizeSpender":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.AuthorizeSpender(caller, args[0].(common.Address), args[1].(string), common.Hash(args[2].([32]byte)))
		})
	case "unauthorizeSpender":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.UnauthorizeSpender(caller, args[0].(common.Address))
		})
	case "changeOwner":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.ChangeOwner(caller, args[0].(common.Address))
		})
	case "setSecurityGuard":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.SetSecurityGuard(caller, args[0].(common.Address))
		})
	case "setTimelock":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.SetTimelock(caller, clampUint64(args[0]))
		})
	case "setMaxSecurityGuardDelay":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.SetMaxSecurityGuardDelay(caller, clampUint64(args[0]))
		})
	case "changeEscapeHatchCaller":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.ChangeEscapeHatchCaller(caller, args[0].(common.Address))
		})
	case "escapeHatch":
		return nil, vc.run(ec, func(e *vault.Engine) error {
			return e.EscapeHatch(caller)
		})
	case "receiveEther":
		return nil, vc.receive(ec)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
}

// tokenContract is a minimal fungible token whose balances live in the
// ledger bank under the token address.
type tokenContract struct {
	address  common.Address
	name     string
	symbol   string
	decimals uint8
	owner    common.Address
	bank     *vault.MemoryBank
}

func (tc *tokenContract) abi() *abi.ABI { return tokenABI }
func (tc *tokenContract) code() []byte  { return tokenCode }

func (tc *tokenContract) clone(bank *vault.MemoryBank) contract {
	cp := *tc
	cp.bank = bank
	return &cp
}

func (tc *tokenContract) receive(*execContext) error {
	return fmt.Errorf("%w: token does not accept native currency", ErrNonPayable)
}

func (tc *tokenContract) call(ec *execContext, method *abi.Method, args []interface{}) ([]interface{}, error) {
	switch method.Name {
	case "name":
		return []interface{}{tc.name}, nil
	case "symbol":
		return []interface{}{tc.symbol}, nil
	case "decimals":
		return []interface{}{tc.decimals}, nil
	case "owner":
		return []interface{}{tc.owner}, nil
	case "totalSupply":
		return []interface{}{tc.bank.Supply(tc.address)}, nil
	case "balanceOf":
		return []interface{}{tc.bank.BalanceOf(tc.address, args[0].(common.Address))}, nil

	case "transfer":
		to, value := args[0].(common.Address), args[1].(*big.Int)
		if err := tc.bank.Transfer(tc.address, ec.caller, to, value); err != nil {
			return nil, err
		}
		if err := ec.emit(tc.address, tokenABI, "Transfer", []interface{}{ec.caller, to, value}); err != nil {
			return nil, err
		}
		return []interface{}{true}, nil

	case "mint":
		if ec.caller != tc.owner {
			return nil, ErrTokenOwner
		}
		to, value := args[0].(common.Address), args[1].(*big.Int)
		tc.bank.Mint(tc.address, to, value)
		return nil, ec.emit(tc.address, tokenABI, "Transfer", []interface{}{common.Address{}, to, value})
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method.Name)
}

// makeLog encodes an event the way the EVM does: the event id and indexed
// arguments become topics, the rest is packed into data.
func makeLog(addr common.Address, parsed *abi.ABI, name string, args []interface{}) (*types.Log, error) {
	ev, ok := parsed.Events[name]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", name)
	}
	if len(args) != len(ev.Inputs) {
		return nil, fmt.Errorf("event %s: got %d arguments, want %d", name, len(args), len(ev.Inputs))
	}

	topics := []common.Hash{ev.ID}
	var data []interface{}
	for i, in := range ev.Inputs {
		if !in.Indexed {
			data = append(data, args[i])
			continue
		}
		topic, err := topicOf(args[i])
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", name, err)
		}
		topics = append(topics, topic)
	}

	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", name, err)
	}
	return &types.Log{Address: addr, Topics: topics, Data: packed}, nil
}

func topicOf(v interface{}) (common.Hash, error) {
	switch t := v.(type) {
	case common.Address:
		return common.BytesToHash(t.Bytes()), nil
	case *big.Int:
		return common.BigToHash(t), nil
	case common.Hash:
		return t, nil
	case [32]byte:
		return common.Hash(t), nil
	case bool:
		if t {
			return common.BigToHash(big.NewInt(1)), nil
		}
		return common.Hash{}, nil
	}
	return common.Hash{}, fmt.Errorf("unsupported indexed type %T", v)
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// clampUint64 saturates a uint256 argument. Values above 2^64-1 are out of
// range for every vault parameter and get rejected by the engine.
func clampUint64(v interface{}) uint64 {
	b := v.(*big.Int)
	if !b.IsUint64() {
		return math.MaxUint64
	}
	return b.Uint64()
}

func toUint64(v interface{}) (uint64, error) {
	b := v.(*big.Int)
	if !b.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", vault.ErrInvalidParameter, b)
	}
	return b.Uint64(), nil
}
