package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventPaymentAuthorized            = "PaymentAuthorized"
	EventPaymentExecuted              = "PaymentExecuted"
	EventPaymentCanceled              = "PaymentCanceled"
	EventPaymentDelayed               = "PaymentDelayed"
	EventEtherReceived                = "EtherReceived"
	EventSpenderAuthorization         = "SpenderAuthorization"
	EventEscapeHatchCalled            = "EscapeHatchCalled"
	EventEscapeHatchCallerChanged     = "EscapeHatchCallerChanged"
	EventOwnerChanged                 = "OwnerChanged"
	EventSecurityGuardChanged         = "SecurityGuardChanged"
	EventTimelockChanged              = "TimelockChanged"
	EventMaxSecurityGuardDelayChanged = "MaxSecurityGuardDelayChanged"
)

// Event is emitted by the engine after a successful operation. Args returns
// the event arguments in declaration order, ABI typed.
type Event interface {
	EventName() string
	Args() []interface{}
}

// Emitter receives engine events.
type Emitter interface {
	Emit(Event)
}

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

// EventRecorder is an Emitter that keeps every event in order.
type EventRecorder struct {
	Events []Event
}

func (r *EventRecorder) Emit(ev Event) {
	r.Events = append(r.Events, ev)
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

type PaymentAuthorized struct {
	IdPayment uint64
	Recipient common.Address
	Amount    *big.Int
}

func (PaymentAuthorized) EventName() string { return EventPaymentAuthorized }
func (e PaymentAuthorized) Args() []interface{} {
	return []interface{}{u256(e.IdPayment), e.Recipient, new(big.Int).Set(e.Amount)}
}

type PaymentExecuted struct {
	IdPayment uint64
	Recipient common.Address
	Amount    *big.Int
}

func (PaymentExecuted) EventName() string { return EventPaymentExecuted }
func (e PaymentExecuted) Args() []interface{} {
	return []interface{}{u256(e.IdPayment), e.Recipient, new(big.Int).Set(e.Amount)}
}

type PaymentCanceled struct {
	IdPayment uint64
}

func (PaymentCanceled) EventName() string { return EventPaymentCanceled }
func (e PaymentCanceled) Args() []interface{} {
	return []interface{}{u256(e.IdPayment)}
}

type PaymentDelayed struct {
	IdPayment       uint64
	Delay           uint64
	EarliestPayTime uint64
}

func (PaymentDelayed) EventName() string { return EventPaymentDelayed }
func (e PaymentDelayed) Args() []interface{} {
	return []interface{}{u256(e.IdPayment), u256(e.Delay), u256(e.EarliestPayTime)}
}

type EtherReceived struct {
	From   common.Address
	Amount *big.Int
}

func (EtherReceived) EventName() string { return EventEtherReceived }
func (e EtherReceived) Args() []interface{} {
	return []interface{}{e.From, new(big.Int).Set(e.Amount)}
}

type SpenderAuthorization struct {
	Spender    common.Address
	Authorized bool
}

func (SpenderAuthorization) EventName() string { return EventSpenderAuthorization }
func (e SpenderAuthorization) Args() []interface{} {
	return []interface{}{e.Spender, e.Authorized}
}

type EscapeHatchCalled struct {
	Amount *big.Int
}

func (EscapeHatchCalled) EventName() string { return EventEscapeHatchCalled }
func (e EscapeHatchCalled) Args() []interface{} {
	return []interface{}{new(big.Int).Set(e.Amount)}
}

type EscapeHatchCallerChanged struct {
	NewEscapeHatchCaller common.Address
}

func (EscapeHatchCallerChanged) EventName() string { return EventEscapeHatchCallerChanged }
func (e EscapeHatchCallerChanged) Args() []interface{} {
	return []interface{}{e.NewEscapeHatchCaller}
}

type OwnerChanged struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnerChanged) EventName() string { return EventOwnerChanged }
func (e OwnerChanged) Args() []interface{} {
	return []interface{}{e.PreviousOwner, e.NewOwner}
}

type SecurityGuardChanged struct {
	NewSecurityGuard common.Address
}

func (SecurityGuardChanged) EventName() string { return EventSecurityGuardChanged }
func (e SecurityGuardChanged) Args() []interface{} {
	return []interface{}{e.NewSecurityGuard}
}

type TimelockChanged struct {
	NewTimeLock uint64
}

func (TimelockChanged) EventName() string { return EventTimelockChanged }
func (e TimelockChanged) Args() []interface{} {
	return []interface{}{u256(e.NewTimeLock)}
}

type MaxSecurityGuardDelayChanged struct {
	NewMaxSecurityGuardDelay uint64
}

func (MaxSecurityGuardDelayChanged) EventName() string { return EventMaxSecurityGuardDelayChanged }
func (e MaxSecurityGuardDelayChanged) Args() []interface{} {
	return []interface{}{u256(e.NewMaxSecurityGuardDelay)}
}
