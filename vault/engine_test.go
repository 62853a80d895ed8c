package vault

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	day         = uint64(86400)
	genesisTime = uint64(1_700_000_000)
)

var (
	vaultAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	escCaller   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	escDest     = common.HexToAddress("0x0000000000000000000000000000000000000003")
	guard       = common.HexToAddress("0x0000000000000000000000000000000000000004")
	spender     = common.HexToAddress("0x0000000000000000000000000000000000000005")
	recipient   = common.HexToAddress("0x0000000000000000000000000000000000000006")
	stranger    = common.HexToAddress("0x0000000000000000000000000000000000000007")
	depositor   = common.HexToAddress("0x0000000000000000000000000000000000000008")
	spenderHash = crypto.Keccak256Hash([]byte("dani"))
)

type testEnv struct {
	engine *Engine
	bank   *MemoryBank
	events *EventRecorder
	now    uint64
}

func defaultConfig() Config {
	return Config{
		EscapeHatchCaller:      escCaller,
		EscapeHatchDestination: escDest,
		AbsoluteMinTimeLock:    day / 2,
		TimeLock:               day / 2,
		SecurityGuard:          guard,
		MaxSecurityGuardDelay:  3 * day,
	}
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	env := &testEnv{
		bank:   NewMemoryBank(),
		events: &EventRecorder{},
		now:    genesisTime,
	}
	engine, err := New(vaultAddr, owner, cfg, env.bank)
	require.NoError(t, err)
	engine.SetEmitter(env.events)
	engine.SetNowFunc(func() uint64 { return env.now })
	env.engine = engine
	return env
}

func (env *testEnv) fund(t *testing.T, amount int64) {
	env.bank.Mint(NativeAsset, depositor, big.NewInt(amount))
	require.NoError(t, env.engine.ReceiveEther(depositor, big.NewInt(amount)))
}

func (env *testEnv) authorizeSpender(t *testing.T) {
	require.NoError(t, env.engine.AuthorizeSpender(owner, spender, "dani", spenderHash))
}

func (env *testEnv) lastEvent() Event {
	return env.events.Events[len(env.events.Events)-1]
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.TimeLock = cfg.AbsoluteMinTimeLock - 1
	_, err := New(vaultAddr, owner, cfg, NewMemoryBank())
	assert.ErrorIs(t, err, ErrInvalidParameter)

	cfg = defaultConfig()
	cfg.EscapeHatchDestination = common.Address{}
	_, err = New(vaultAddr, owner, cfg, NewMemoryBank())
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(vaultAddr, owner, defaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAdminOperationsOwnerOnly(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine

	assert.ErrorIs(t, e.ChangeOwner(stranger, stranger), ErrUnauthorized)
	assert.ErrorIs(t, e.SetSecurityGuard(stranger, stranger), ErrUnauthorized)
	assert.ErrorIs(t, e.SetTimelock(stranger, day), ErrUnauthorized)
	assert.ErrorIs(t, e.SetMaxSecurityGuardDelay(stranger, day), ErrUnauthorized)
	assert.ErrorIs(t, e.AuthorizeSpender(stranger, spender, "dani", spenderHash), ErrUnauthorized)
	assert.Empty(t, env.events.Events)

	require.NoError(t, e.SetSecurityGuard(owner, stranger))
	assert.Equal(t, stranger, e.SecurityGuard())
	assert.Equal(t, SecurityGuardChanged{NewSecurityGuard: stranger}, env.lastEvent())

	require.NoError(t, e.SetMaxSecurityGuardDelay(owner, 7*day))
	assert.Equal(t, 7*day, e.MaxSecurityGuardDelay())

	assert.ErrorIs(t, e.ChangeOwner(owner, common.Address{}), ErrInvalidParameter)
	require.NoError(t, e.ChangeOwner(owner, stranger))
	assert.Equal(t, stranger, e.Owner())
	assert.Equal(t, OwnerChanged{PreviousOwner: owner, NewOwner: stranger}, env.lastEvent())

	// the previous owner lost every administrative right
	assert.ErrorIs(t, e.SetTimelock(owner, day), ErrUnauthorized)
	require.NoError(t, e.SetTimelock(stranger, day))
}

func TestSetTimelock(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	floor := e.AbsoluteMinTimeLock()

	for _, tl := range []uint64{0, 1, floor - 1} {
		err := e.SetTimelock(owner, tl)
		assert.ErrorIs(t, err, ErrInvalidParameter, "timelock %d", tl)
		assert.Equal(t, defaultConfig().TimeLock, e.TimeLock())
	}

	for _, tl := range []uint64{floor, floor + 1, 10 * day} {
		require.NoError(t, e.SetTimelock(owner, tl))
		assert.Equal(t, tl, e.TimeLock())
		assert.Equal(t, TimelockChanged{NewTimeLock: tl}, env.lastEvent())
	}
}

func TestChangeEscapeHatchCaller(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine

	assert.ErrorIs(t, e.ChangeEscapeHatchCaller(owner, stranger), ErrUnauthorized)
	require.NoError(t, e.ChangeEscapeHatchCaller(escCaller, stranger))
	assert.Equal(t, stranger, e.EscapeHatchCaller())
	assert.Equal(t, EscapeHatchCallerChanged{NewEscapeHatchCaller: stranger}, env.lastEvent())

	assert.ErrorIs(t, e.ChangeEscapeHatchCaller(escCaller, escCaller), ErrUnauthorized)
}

func TestSpenderRegistry(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine

	assert.Equal(t, uint64(0), e.NumberOfSpenders())
	assert.False(t, e.IsAuthorized(spender))

	env.authorizeSpender(t)
	assert.True(t, e.IsAuthorized(spender))
	assert.Equal(t, uint64(1), e.NumberOfSpenders())
	assert.Equal(t, SpenderAuthorization{Spender: spender, Authorized: true}, env.lastEvent())

	s, ok := e.Spender(spender)
	require.True(t, ok)
	assert.Equal(t, &Spender{Address: spender, Name: "dani", NameHash: spenderHash, Idx: 1, Authorized: true}, s)

	other := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	require.NoError(t, e.AuthorizeSpender(owner, other, "jordi", crypto.Keccak256Hash([]byte("jordi"))))
	assert.Equal(t, uint64(2), e.NumberOfSpenders())

	require.NoError(t, e.UnauthorizeSpender(owner, spender))
	assert.False(t, e.IsAuthorized(spender))
	assert.Equal(t, SpenderAuthorization{Spender: spender, Authorized: false}, env.lastEvent())

	// re-authorization keeps the index and refreshes the name
	newHash := crypto.Keccak256Hash([]byte("daniel"))
	require.NoError(t, e.AuthorizeSpender(owner, spender, "daniel", newHash))
	s, err := e.SpenderAt(1)
	require.NoError(t, err)
	assert.Equal(t, spender, s.Address)
	assert.Equal(t, "daniel", s.Name)
	assert.Equal(t, newHash, s.NameHash)
	assert.True(t, s.Authorized)
	assert.Equal(t, uint64(2), e.NumberOfSpenders())

	_, err = e.SpenderAt(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.SpenderAt(3)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	assert.ErrorIs(t, e.UnauthorizeSpender(owner, stranger), ErrInvalidParameter)
	assert.ErrorIs(t, e.UnauthorizeSpender(stranger, spender), ErrUnauthorized)
	assert.ErrorIs(t, e.AuthorizeSpender(owner, common.Address{}, "zero", common.Hash{}), ErrInvalidParameter)
}

func TestAuthorizePayment(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	ref := crypto.Keccak256Hash([]byte("invoice-1"))

	_, err := e.AuthorizePayment(spender, "pay1", ref, recipient, big.NewInt(10), day)
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.authorizeSpender(t)
	id, err := e.AuthorizePayment(spender, "pay1", ref, recipient, big.NewInt(10), day)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, uint64(1), e.NumberOfAuthorizedPayments())
	assert.Equal(t, PaymentAuthorized{IdPayment: 0, Recipient: recipient, Amount: big.NewInt(10)}, env.lastEvent())

	p, err := e.Payment(id)
	require.NoError(t, err)
	assert.Equal(t, &Payment{
		ID:              0,
		Description:     "pay1",
		Reference:       ref,
		Spender:         spender,
		EarliestPayTime: genesisTime + day,
		Recipient:       recipient,
		Amount:          big.NewInt(10),
	}, p)
	assert.Equal(t, PaymentStatusPending, p.Status())

	// no funds are needed to authorize
	assert.Equal(t, int64(0), e.Balance().Int64())

	id, err = e.AuthorizePayment(spender, "pay2", ref, recipient, big.NewInt(1_000_000), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	// the time lock is the minimum delay
	p, err = e.Payment(id)
	require.NoError(t, err)
	assert.Equal(t, genesisTime+e.TimeLock(), p.EarliestPayTime)

	_, err = e.AuthorizePayment(spender, "huge", ref, recipient, big.NewInt(1), MaxDelay+1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.AuthorizePayment(spender, "neg", ref, recipient, big.NewInt(-1), day)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.AuthorizePayment(spender, "nil", ref, recipient, nil, day)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, uint64(2), e.NumberOfAuthorizedPayments())

	_, err = e.Payment(2)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTimelockClampsShortDelays(t *testing.T) {
	cfg := defaultConfig()
	cfg.TimeLock = 2 * day
	env := newTestEnv(t, cfg)
	env.authorizeSpender(t)

	id, err := env.engine.AuthorizePayment(spender, "short", common.Hash{}, recipient, big.NewInt(1), day)
	require.NoError(t, err)
	p, err := env.engine.Payment(id)
	require.NoError(t, err)
	assert.Equal(t, genesisTime+2*day, p.EarliestPayTime)
}

func TestUnauthorizedSpenderCannotAuthorize(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.authorizeSpender(t)
	require.NoError(t, env.engine.UnauthorizeSpender(owner, spender))

	_, err := env.engine.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), day)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, uint64(0), env.engine.NumberOfAuthorizedPayments())
}

func TestCollectAuthorizedPayment(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.authorizeSpender(t)
	env.fund(t, 100)
	assert.Equal(t, EtherReceived{From: depositor, Amount: big.NewInt(100)}, env.lastEvent())

	id, err := e.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)

	err = e.CollectAuthorizedPayment(stranger, id)
	assert.ErrorIs(t, err, ErrNotYetDue)

	env.now = genesisTime + day - 1
	assert.ErrorIs(t, e.CollectAuthorizedPayment(stranger, id), ErrNotYetDue)

	env.now = genesisTime + day
	require.NoError(t, e.CollectAuthorizedPayment(stranger, id))
	assert.Equal(t, int64(90), e.Balance().Int64())
	assert.Equal(t, int64(10), env.bank.BalanceOf(NativeAsset, recipient).Int64())
	assert.Equal(t, PaymentExecuted{IdPayment: id, Recipient: recipient, Amount: big.NewInt(10)}, env.lastEvent())

	p, err := e.Payment(id)
	require.NoError(t, err)
	assert.True(t, p.Paid)
	assert.False(t, p.Canceled)

	// at most one payout
	assert.ErrorIs(t, e.CollectAuthorizedPayment(stranger, id), ErrInvalidState)
	assert.Equal(t, int64(90), e.Balance().Int64())

	assert.ErrorIs(t, e.CollectAuthorizedPayment(stranger, 42), ErrInvalidParameter)
}

func TestCollectChecks(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.authorizeSpender(t)
	env.fund(t, 5)

	id, err := e.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)
	env.now += day

	assert.ErrorIs(t, e.CollectAuthorizedPayment(recipient, id), ErrInsufficientFunds)
	p, _ := e.Payment(id)
	assert.False(t, p.Paid)
	assert.Equal(t, int64(5), e.Balance().Int64())

	env.fund(t, 5)
	require.NoError(t, e.UnauthorizeSpender(owner, spender))
	assert.ErrorIs(t, e.CollectAuthorizedPayment(recipient, id), ErrUnauthorized)

	require.NoError(t, e.AuthorizeSpender(owner, spender, "dani", spenderHash))
	require.NoError(t, e.CollectAuthorizedPayment(recipient, id))
	assert.Equal(t, int64(0), e.Balance().Int64())
}

func TestCancelPayment(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.authorizeSpender(t)
	env.fund(t, 100)

	id, err := e.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)

	assert.ErrorIs(t, e.CancelPayment(spender, id), ErrUnauthorized)
	assert.ErrorIs(t, e.CancelPayment(owner, 7), ErrInvalidParameter)

	require.NoError(t, e.CancelPayment(owner, id))
	assert.Equal(t, PaymentCanceled{IdPayment: id}, env.lastEvent())

	assert.ErrorIs(t, e.CancelPayment(owner, id), ErrInvalidState)

	env.now += 10 * day
	assert.ErrorIs(t, e.CollectAuthorizedPayment(recipient, id), ErrInvalidState)
	assert.Equal(t, int64(100), e.Balance().Int64())
}

func TestDelayPayment(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.authorizeSpender(t)

	id, err := e.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)

	assert.ErrorIs(t, e.DelayPayment(owner, id, day), ErrUnauthorized)
	assert.ErrorIs(t, e.DelayPayment(guard, 9, day), ErrInvalidParameter)
	assert.ErrorIs(t, e.DelayPayment(guard, id, MaxDelay+1), ErrInvalidParameter)

	before, _ := e.Payment(id)
	require.NoError(t, e.DelayPayment(guard, id, 2*day))
	after, _ := e.Payment(id)
	assert.Equal(t, before.EarliestPayTime+2*day, after.EarliestPayTime)
	assert.Equal(t, 2*day, after.SecurityGuardDelay)
	assert.Equal(t, PaymentDelayed{IdPayment: id, Delay: 2 * day, EarliestPayTime: after.EarliestPayTime}, env.lastEvent())

	// cumulative guard delay is capped
	err = e.DelayPayment(guard, id, 2*day)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	unchanged, _ := e.Payment(id)
	assert.Equal(t, after, unchanged)

	require.NoError(t, e.DelayPayment(guard, id, day))
	p, _ := e.Payment(id)
	assert.Equal(t, 3*day, p.SecurityGuardDelay)
	assert.ErrorIs(t, e.DelayPayment(guard, id, 1), ErrLimitExceeded)

	// a zero delay is allowed and changes nothing
	require.NoError(t, e.DelayPayment(guard, id, 0))
	p2, _ := e.Payment(id)
	assert.Equal(t, p.EarliestPayTime, p2.EarliestPayTime)
}

func TestTerminalPaymentsAreImmutable(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.authorizeSpender(t)
	env.fund(t, 100)

	paid, err := e.AuthorizePayment(spender, "paid", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)
	canceled, err := e.AuthorizePayment(spender, "canceled", common.Hash{}, recipient, big.NewInt(10), day)
	require.NoError(t, err)

	env.now += day
	require.NoError(t, e.CollectAuthorizedPayment(stranger, paid))
	require.NoError(t, e.CancelPayment(owner, canceled))

	for _, id := range []uint64{paid, canceled} {
		before, _ := e.Payment(id)
		assert.ErrorIs(t, e.DelayPayment(guard, id, 1), ErrInvalidState)
		assert.ErrorIs(t, e.CancelPayment(owner, id), ErrInvalidState)
		assert.ErrorIs(t, e.CollectAuthorizedPayment(stranger, id), ErrInvalidState)
		after, _ := e.Payment(id)
		assert.Equal(t, before, after)
		assert.NotEqual(t, before.Paid, before.Canceled)
	}
}

func TestEscapeHatch(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine
	env.fund(t, 100)

	for _, caller := range []common.Address{owner, stranger, guard, escDest} {
		assert.ErrorIs(t, e.EscapeHatch(caller), ErrUnauthorized)
		assert.Equal(t, int64(100), e.Balance().Int64())
	}

	require.NoError(t, e.EscapeHatch(escCaller))
	assert.Equal(t, int64(0), e.Balance().Int64())
	assert.Equal(t, int64(100), env.bank.BalanceOf(NativeAsset, escDest).Int64())
	assert.Equal(t, EscapeHatchCalled{Amount: big.NewInt(100)}, env.lastEvent())

	// empty vault is a no-op success
	require.NoError(t, e.EscapeHatch(escCaller))
	assert.Equal(t, EscapeHatchCalled{Amount: big.NewInt(0)}, env.lastEvent())
	assert.Equal(t, int64(100), env.bank.BalanceOf(NativeAsset, escDest).Int64())
}

func TestReceiveEther(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	e := env.engine

	assert.ErrorIs(t, e.ReceiveEther(depositor, big.NewInt(0)), ErrInvalidParameter)
	assert.ErrorIs(t, e.ReceiveEther(depositor, big.NewInt(1)), ErrInsufficientFunds)

	env.fund(t, 3)
	env.fund(t, 4)
	assert.Equal(t, int64(7), e.Balance().Int64())
	assert.Equal(t, int64(0), env.bank.BalanceOf(NativeAsset, depositor).Int64())
}

func TestTokenVault(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	cfg := defaultConfig()
	cfg.BaseToken = token
	env := newTestEnv(t, cfg)
	e := env.engine

	env.bank.Mint(NativeAsset, depositor, big.NewInt(10))
	assert.ErrorIs(t, e.ReceiveEther(depositor, big.NewInt(10)), ErrWrongAssetType)

	env.bank.Mint(token, vaultAddr, big.NewInt(50))
	assert.Equal(t, int64(50), e.Balance().Int64())

	env.authorizeSpender(t)
	id, err := e.AuthorizePayment(spender, "tokens", common.Hash{}, recipient, big.NewInt(20), day)
	require.NoError(t, err)
	env.now += day
	require.NoError(t, e.CollectAuthorizedPayment(recipient, id))

	assert.Equal(t, int64(30), e.Balance().Int64())
	assert.Equal(t, int64(20), env.bank.BalanceOf(token, recipient).Int64())
	assert.Equal(t, int64(0), env.bank.BalanceOf(NativeAsset, recipient).Int64())

	require.NoError(t, e.EscapeHatch(escCaller))
	assert.Equal(t, int64(30), env.bank.BalanceOf(token, escDest).Int64())
}

func TestCloneIsIndependent(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.authorizeSpender(t)
	env.fund(t, 100)
	id, err := env.engine.AuthorizePayment(spender, "pay1", common.Hash{}, recipient, big.NewInt(10), 0)
	require.NoError(t, err)

	bank := env.bank.Clone()
	cp := env.engine.Clone(bank)
	env.now += day
	require.NoError(t, cp.CollectAuthorizedPayment(stranger, id))
	require.NoError(t, cp.UnauthorizeSpender(owner, spender))

	p, _ := env.engine.Payment(id)
	assert.False(t, p.Paid)
	assert.True(t, env.engine.IsAuthorized(spender))
	assert.Equal(t, int64(100), env.engine.Balance().Int64())
	assert.Equal(t, int64(90), cp.Balance().Int64())
}

func TestPaymentsPaging(t *testing.T) {
	env := newTestEnv(t, defaultConfig())
	env.authorizeSpender(t)
	for i := 0; i < 5; i++ {
		_, err := env.engine.AuthorizePayment(spender, "p", common.Hash{}, recipient, big.NewInt(int64(i)), day)
		require.NoError(t, err)
	}

	all := env.engine.Payments(0, 0)
	assert.Len(t, all, 5)

	page := env.engine.Payments(1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(1), page[0].ID)
	assert.Equal(t, uint64(2), page[1].ID)

	assert.Len(t, env.engine.Payments(4, 10), 1)
	assert.Empty(t, env.engine.Payments(5, 1))

	st := env.engine.Snapshot()
	assert.Equal(t, owner, st.Owner)
	assert.Equal(t, escDest, st.EscapeHatchDestination)
	assert.Len(t, st.Payments, 5)
	require.Len(t, st.Spenders, 1)
	assert.Equal(t, spender, st.Spenders[0].Address)
}
