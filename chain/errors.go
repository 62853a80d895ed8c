package chain

import "errors"

var (
	ErrNonceTooLow     = errors.New("nonce too low")
	ErrNonceTooHigh    = errors.New("nonce too high")
	ErrAlreadyKnown    = errors.New("already known")
	ErrInvalidSender   = errors.New("invalid sender")
	ErrUnknownMethod   = errors.New("unknown method selector")
	ErrNonPayable      = errors.New("method is not payable")
	ErrUnsupportedCode = errors.New("unsupported contract code")
	ErrTimeOverflow    = errors.New("block time overflow")
	ErrNoRecipient     = errors.New("call without recipient")
	ErrTokenOwner      = errors.New("token: caller is not the owner")
)

// revertError reports a failed contract execution the way an EVM node does,
// as JSON-RPC error code 3 with an "execution reverted" message.
type revertError struct {
	err error
}

func newRevertError(err error) *revertError {
	return &revertError{err: err}
}

func (e *revertError) Error() string {
	return "execution reverted: " + e.err.Error()
}

func (e *revertError) Unwrap() error { return e.err }

func (e *revertError) ErrorCode() int { return 3 }

func (e *revertError) ErrorData() interface{} { return e.err.Error() }
