package lending

import "errors"

// Error is a user-facing rejection of a command. It never aborts the process
// and carries a stable code for logs and metrics.
type Error struct {
	code string
	msg  string
}

func newError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string { return "lending: " + e.msg }

// Code returns the stable machine-readable code of the rejection.
func (e *Error) Code() string { return e.code }

// Sentinel rejections. Wrapped errors keep these reachable via errors.Is.
var (
	ErrSlotOccupied            = newError("SLOT_OCCUPIED", "slot already has an active order")
	ErrInvalidClassificationID = newError("INVALID_CLASSIFICATION_ID", "invalid classification id")
	ErrInvalidCustomerKind     = newError("INVALID_CUSTOMER_KIND", "invalid customer kind")
	ErrInvalidAmount           = newError("INVALID_AMOUNT", "invalid amount")
	ErrInvalidStateTransition  = newError("INVALID_STATE_TRANSITION", "operation not allowed in current state")
	ErrUnknownSlot             = newError("UNKNOWN_SLOT", "slot has no active order")
	ErrUnknownClassification   = newError("UNKNOWN_CLASSIFICATION", "classification has no ledger")
)

// ErrorCode extracts the rejection code from err, or "" when err is not a lending rejection.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}
