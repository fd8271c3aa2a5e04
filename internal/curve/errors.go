// =============================
// File: internal/curve/errors.go
// =============================
package curve

import (
	"errors"
	"fmt"
)

// Error is a coded bonding-curve failure. Codes follow the Anchor
// custom-error numbering so they can be reported to on-chain callers verbatim.
type Error struct {
	Code uint32
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

const customErrorOffset = 6000

var (
	// ErrInvalidFee is returned when the fee percentage is outside [0, 100].
	ErrInvalidFee = &Error{Code: customErrorOffset + 0, Name: "InvalidFee", Msg: "fee must be between 0 and 100"}

	// ErrInvalidAmount is returned for a zero trade or seed amount.
	ErrInvalidAmount = &Error{Code: customErrorOffset + 1, Name: "InvalidAmount", Msg: "amount must be greater than zero"}

	// ErrOverflowOrUnderflow is returned when a checked arithmetic step would wrap.
	ErrOverflowOrUnderflow = &Error{Code: customErrorOffset + 2, Name: "OverflowOrUnderflowOccurred", Msg: "overflow or underflow occurred"}

	// ErrNotEnoughTokenInVault is returned when a buy would pay out more tokens than reserved.
	ErrNotEnoughTokenInVault = &Error{Code: customErrorOffset + 3, Name: "NotEnoughTokenInVault", Msg: "not enough token in vault"}

	// ErrNotEnoughSolInVault is returned when a sell would pay out more SOL than reserved.
	ErrNotEnoughSolInVault = &Error{Code: customErrorOffset + 4, Name: "NotEnoughSolInVault", Msg: "not enough sol in vault"}

	// ErrTokenAmountToSellTooBig is returned when the sell amount exceeds the token reserve.
	ErrTokenAmountToSellTooBig = &Error{Code: customErrorOffset + 5, Name: "TokenAmountToSellTooBig", Msg: "token amount to sell is too big"}
)

var allErrors = []*Error{
	ErrInvalidFee,
	ErrInvalidAmount,
	ErrOverflowOrUnderflow,
	ErrNotEnoughTokenInVault,
	ErrNotEnoughSolInVault,
	ErrTokenAmountToSellTooBig,
}

// ErrorByCode returns the curve error registered under code.
func ErrorByCode(code uint32) (*Error, bool) {
	for _, e := range allErrors {
		if e.Code == code {
			return e, true
		}
	}
	return nil, false
}

// CodeOf extracts the custom error code from err, if err wraps a curve error.
func CodeOf(err error) (uint32, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}
