package vault

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Engine is the state machine of one vault. Every exported method is atomic:
// all checks run before any effect, and the asset transfer runs before the
// bookkeeping so a failed transfer leaves the engine untouched.
type Engine struct {
	mu sync.Mutex

	address common.Address
	cfg     Config

	owner                 common.Address
	escapeHatchCaller     common.Address
	securityGuard         common.Address
	timeLock              uint64
	maxSecurityGuardDelay uint64

	payments     []*Payment
	spenders     map[common.Address]*Spender
	spenderAddrs []common.Address

	bank    Bank
	emitter Emitter
	nowFn   func() uint64
}

// New creates the vault living at address. Funds are read from and moved
// through bank under the vault address.
func New(address, owner common.Address, cfg Config, bank Bank) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bank == nil {
		return nil, fmt.Errorf("%w: nil bank", ErrInvalidParameter)
	}

	return &Engine{
		address:               address,
		cfg:                   cfg,
		owner:                 owner,
		escapeHatchCaller:     cfg.EscapeHatchCaller,
		securityGuard:         cfg.SecurityGuard,
		timeLock:              cfg.TimeLock,
		maxSecurityGuardDelay: cfg.MaxSecurityGuardDelay,
		spenders:              make(map[common.Address]*Spender),
		bank:                  bank,
		emitter:               noopEmitter{},
		nowFn:                 func() uint64 { return uint64(time.Now().Unix()) },
	}, nil
}

func (e *Engine) SetEmitter(em Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if em == nil {
		em = noopEmitter{}
	}
	e.emitter = em
}

func (e *Engine) SetNowFunc(fn func() uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		e.nowFn = fn
	}
}

// Clone deep copies the engine onto another bank. The copy emits nothing
// until SetEmitter is called.
func (e *Engine) Clone(bank Bank) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := &Engine{
		address:               e.address,
		cfg:                   e.cfg,
		owner:                 e.owner,
		escapeHatchCaller:     e.escapeHatchCaller,
		securityGuard:         e.securityGuard,
		timeLock:              e.timeLock,
		maxSecurityGuardDelay: e.maxSecurityGuardDelay,
		payments:              make([]*Payment, len(e.payments)),
		spenders:              make(map[common.Address]*Spender, len(e.spenders)),
		spenderAddrs:          append([]common.Address(nil), e.spenderAddrs...),
		bank:                  bank,
		emitter:               noopEmitter{},
		nowFn:                 e.nowFn,
	}
	for i, p := range e.payments {
		cp.payments[i] = p.Clone()
	}
	for addr, s := range e.spenders {
		sp := *s
		cp.spenders[addr] = &sp
	}
	return cp
}

// Administrative operations

func (e *Engine) ChangeOwner(caller, newOwner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: new owner is the zero address", ErrInvalidParameter)
	}

	prev := e.owner
	e.owner = newOwner
	e.emitter.Emit(OwnerChanged{PreviousOwner: prev, NewOwner: newOwner})
	return nil
}

func (e *Engine) SetSecurityGuard(caller, guard common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}

	e.securityGuard = guard
	e.emitter.Emit(SecurityGuardChanged{NewSecurityGuard: guard})
	return nil
}

func (e *Engine) SetTimelock(caller common.Address, newTimeLock uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	if newTimeLock < e.cfg.AbsoluteMinTimeLock {
		return fmt.Errorf("%w: time lock %d below absolute minimum %d",
			ErrInvalidParameter, newTimeLock, e.cfg.AbsoluteMinTimeLock)
	}
	if newTimeLock > MaxDelay {
		return fmt.Errorf("%w: time lock %d exceeds %d", ErrInvalidParameter, newTimeLock, MaxDelay)
	}

	e.timeLock = newTimeLock
	e.emitter.Emit(TimelockChanged{NewTimeLock: newTimeLock})
	return nil
}

func (e *Engine) SetMaxSecurityGuardDelay(caller common.Address, maxDelay uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	if maxDelay > MaxDelay {
		return fmt.Errorf("%w: max guard delay %d exceeds %d", ErrInvalidParameter, maxDelay, MaxDelay)
	}

	e.maxSecurityGuardDelay = maxDelay
	e.emitter.Emit(MaxSecurityGuardDelayChanged{NewMaxSecurityGuardDelay: maxDelay})
	return nil
}

// ChangeEscapeHatchCaller rotates the escape hatch role. Only the current
// holder may hand it over.
func (e *Engine) ChangeEscapeHatchCaller(caller, newCaller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.escapeHatchCaller {
		return errUnauthorized("escape hatch caller", caller)
	}

	e.escapeHatchCaller = newCaller
	e.emitter.Emit(EscapeHatchCallerChanged{NewEscapeHatchCaller: newCaller})
	return nil
}

// Spender registry

// AuthorizeSpender enables spender and refreshes its name. The index is
// handed out on first authorization and never changes afterwards.
func (e *Engine) AuthorizeSpender(caller, spender common.Address, name string, nameHash common.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	if spender == (common.Address{}) {
		return fmt.Errorf("%w: spender is the zero address", ErrInvalidParameter)
	}

	s, ok := e.spenders[spender]
	if !ok {
		e.spenderAddrs = append(e.spenderAddrs, spender)
		s = &Spender{Address: spender, Idx: uint64(len(e.spenderAddrs))}
		e.spenders[spender] = s
	}
	s.Name = name
	s.NameHash = nameHash
	s.Authorized = true

	e.emitter.Emit(SpenderAuthorization{Spender: spender, Authorized: true})
	return nil
}

func (e *Engine) UnauthorizeSpender(caller, spender common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	s, ok := e.spenders[spender]
	if !ok {
		return fmt.Errorf("%w: unknown spender %s", ErrInvalidParameter, spender.Hex())
	}

	s.Authorized = false
	e.emitter.Emit(SpenderAuthorization{Spender: spender, Authorized: false})
	return nil
}

func (e *Engine) IsAuthorized(addr common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isAuthorized(addr)
}

func (e *Engine) isAuthorized(addr common.Address) bool {
	s, ok := e.spenders[addr]
	return ok && s.Authorized
}

// Payments

// AuthorizePayment queues a payment and returns its id. The payment becomes
// collectable after max(delay, timeLock) seconds.
func (e *Engine) AuthorizePayment(
	caller common.Address,
	description string,
	reference common.Hash,
	recipient common.Address,
	amount *big.Int,
	delay uint64,
) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isAuthorized(caller) {
		return 0, errUnauthorized("authorized spender", caller)
	}
	if delay > MaxDelay {
		return 0, fmt.Errorf("%w: delay %d exceeds %d", ErrInvalidParameter, delay, MaxDelay)
	}
	if amount == nil || amount.Sign() < 0 {
		return 0, fmt.Errorf("%w: amount %v", ErrInvalidParameter, amount)
	}

	if delay < e.timeLock {
		delay = e.timeLock
	}

	id := uint64(len(e.payments))
	e.payments = append(e.payments, &Payment{
		ID:              id,
		Description:     description,
		Reference:       reference,
		Spender:         caller,
		EarliestPayTime: e.nowFn() + delay,
		Recipient:       recipient,
		Amount:          new(big.Int).Set(amount),
	})

	e.emitter.Emit(PaymentAuthorized{IdPayment: id, Recipient: recipient, Amount: amount})
	return id, nil
}

// DelayPayment pushes the pay time of a pending payment. The guard may add at
// most maxSecurityGuardDelay per payment over its lifetime.
func (e *Engine) DelayPayment(caller common.Address, id uint64, delay uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.securityGuard {
		return errUnauthorized("security guard", caller)
	}
	p, err := e.pendingPayment(id)
	if err != nil {
		return err
	}
	if delay > MaxDelay {
		return fmt.Errorf("%w: delay %d exceeds %d", ErrInvalidParameter, delay, MaxDelay)
	}
	if p.SecurityGuardDelay+delay > e.maxSecurityGuardDelay {
		return fmt.Errorf("%w: payment %d would be delayed %d+%d, max %d",
			ErrLimitExceeded, id, p.SecurityGuardDelay, delay, e.maxSecurityGuardDelay)
	}

	p.SecurityGuardDelay += delay
	p.EarliestPayTime += delay
	e.emitter.Emit(PaymentDelayed{IdPayment: id, Delay: delay, EarliestPayTime: p.EarliestPayTime})
	return nil
}

func (e *Engine) CancelPayment(caller common.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return errUnauthorized("owner", caller)
	}
	p, err := e.pendingPayment(id)
	if err != nil {
		return err
	}

	p.Canceled = true
	e.emitter.Emit(PaymentCanceled{IdPayment: id})
	return nil
}

// CollectAuthorizedPayment pays a due payment to its recipient. Anyone may
// trigger it; the payment record alone decides where the funds go.
func (e *Engine) CollectAuthorizedPayment(caller common.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.pendingPayment(id)
	if err != nil {
		return err
	}
	if !e.isAuthorized(p.Spender) {
		return fmt.Errorf("%w: spender %s of payment %d is no longer authorized",
			ErrUnauthorized, p.Spender.Hex(), id)
	}
	if now := e.nowFn(); now < p.EarliestPayTime {
		return fmt.Errorf("%w: payment %d due at %d, now %d", ErrNotYetDue, id, p.EarliestPayTime, now)
	}
	if bal := e.balance(); bal.Cmp(p.Amount) < 0 {
		return fmt.Errorf("%w: payment %d needs %v, vault holds %v", ErrInsufficientFunds, id, p.Amount, bal)
	}

	if err := e.bank.Transfer(e.cfg.BaseToken, e.address, p.Recipient, p.Amount); err != nil {
		return err
	}

	p.Paid = true
	e.emitter.Emit(PaymentExecuted{IdPayment: id, Recipient: p.Recipient, Amount: p.Amount})
	return nil
}

func (e *Engine) pendingPayment(id uint64) (*Payment, error) {
	if id >= uint64(len(e.payments)) {
		return nil, errUnknownPayment(id, len(e.payments))
	}
	p := e.payments[id]
	if p.IsTerminal() {
		return nil, errTerminal(id, p)
	}
	return p, nil
}

// Escape hatch and deposits

// EscapeHatch sends the whole balance to the escape hatch destination. An
// empty vault is not an error.
func (e *Engine) EscapeHatch(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.escapeHatchCaller {
		return errUnauthorized("escape hatch caller", caller)
	}

	amount := e.balance()
	if amount.Sign() > 0 {
		if err := e.bank.Transfer(e.cfg.BaseToken, e.address, e.cfg.EscapeHatchDestination, amount); err != nil {
			return err
		}
	}

	e.emitter.Emit(EscapeHatchCalled{Amount: amount})
	return nil
}

// ReceiveEther moves amount of native currency from sender into the vault.
func (e *Engine) ReceiveEther(from common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.IsNative() {
		return fmt.Errorf("%w: vault holds token %s, not native currency", ErrWrongAssetType, e.cfg.BaseToken.Hex())
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit amount %v", ErrInvalidParameter, amount)
	}

	if err := e.bank.Transfer(NativeAsset, from, e.address, amount); err != nil {
		return err
	}

	e.emitter.Emit(EtherReceived{From: from, Amount: amount})
	return nil
}

// Read-only queries

func (e *Engine) Address() common.Address { return e.address }

func (e *Engine) Owner() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

func (e *Engine) EscapeHatchCaller() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.escapeHatchCaller
}

func (e *Engine) EscapeHatchDestination() common.Address { return e.cfg.EscapeHatchDestination }

func (e *Engine) BaseToken() common.Address { return e.cfg.BaseToken }

func (e *Engine) AbsoluteMinTimeLock() uint64 { return e.cfg.AbsoluteMinTimeLock }

func (e *Engine) SecurityGuard() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.securityGuard
}

func (e *Engine) TimeLock() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeLock
}

func (e *Engine) MaxSecurityGuardDelay() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxSecurityGuardDelay
}

func (e *Engine) Balance() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance()
}

func (e *Engine) balance() *big.Int {
	return e.bank.BalanceOf(e.cfg.BaseToken, e.address)
}

func (e *Engine) NumberOfAuthorizedPayments() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.payments))
}

// Payment returns a copy of payment id.
func (e *Engine) Payment(id uint64) (*Payment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id >= uint64(len(e.payments)) {
		return nil, errUnknownPayment(id, len(e.payments))
	}
	return e.payments[id].Clone(), nil
}

// Payments returns copies of up to limit payments starting at offset. A zero
// limit means no limit.
func (e *Engine) Payments(offset, limit uint64) []*Payment {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := uint64(len(e.payments))
	if offset >= n {
		return []*Payment{}
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	out := make([]*Payment, 0, end-offset)
	for _, p := range e.payments[offset:end] {
		out = append(out, p.Clone())
	}
	return out
}

func (e *Engine) NumberOfSpenders() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint64(len(e.spenderAddrs))
}

func (e *Engine) Spender(addr common.Address) (*Spender, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.spenders[addr]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// SpenderAt returns the spender with index idx, counting from 1.
func (e *Engine) SpenderAt(idx uint64) (*Spender, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx == 0 || idx > uint64(len(e.spenderAddrs)) {
		return nil, fmt.Errorf("%w: spender index %d out of range [1, %d]", ErrInvalidParameter, idx, len(e.spenderAddrs))
	}
	cp := *e.spenders[e.spenderAddrs[idx-1]]
	return &cp, nil
}

func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := &State{
		Address:                e.address,
		Owner:                  e.owner,
		EscapeHatchCaller:      e.escapeHatchCaller,
		EscapeHatchDestination: e.cfg.EscapeHatchDestination,
		SecurityGuard:          e.securityGuard,
		BaseToken:              e.cfg.BaseToken,
		AbsoluteMinTimeLock:    e.cfg.AbsoluteMinTimeLock,
		TimeLock:               e.timeLock,
		MaxSecurityGuardDelay:  e.maxSecurityGuardDelay,
		Balance:                e.balance(),
		Payments:               make([]*Payment, 0, len(e.payments)),
		Spenders:               make([]*Spender, 0, len(e.spenderAddrs)),
	}
	for _, p := range e.payments {
		st.Payments = append(st.Payments, p.Clone())
	}
	for _, addr := range e.spenderAddrs {
		cp := *e.spenders[addr]
		st.Spenders = append(st.Spenders, &cp)
	}
	return st
}
