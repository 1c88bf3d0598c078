package billing

import (
	"errors"
	"fmt"
)

const (
	MsgSellerRequired  = "seller required"
	MsgCartEmpty       = "cart empty"
	MsgPaymentMismatch = "payment mismatch"
)

// ValidationError is a failed precondition. Nothing was written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// CommitError is a failed write during the commit sequence. In overwrite mode
// earlier writes are not undone; BillID and IntentID point at what was left behind.
type CommitError struct {
	Stage    string
	BillID   *uint
	IntentID string
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("error saving bill: %v", e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func IsCommit(err error) bool {
	var c *CommitError
	return errors.As(err, &c)
}
