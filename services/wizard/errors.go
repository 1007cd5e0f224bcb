package wizard

import "fmt"

// ValidationError blocks a single step transition until the visitor corrects
// the offending field. It never aborts the flow.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// EntitlementReason classifies why a redemption code was rejected.
type EntitlementReason string

const (
	ReasonInvalid  EntitlementReason = "invalid"
	ReasonExpired  EntitlementReason = "expired"
	ReasonConsumed EntitlementReason = "consumed"
)

// EntitlementError is a non-blocking rejection of a redemption code.
// No session state changes when it is returned.
type EntitlementError struct {
	Reason  EntitlementReason
	Message string
}

func (e *EntitlementError) Error() string {
	return fmt.Sprintf("entitlement %s: %s", e.Reason, e.Message)
}

func NewEntitlementError(reason EntitlementReason, msg string) error {
	return &EntitlementError{Reason: reason, Message: msg}
}

// SubmissionError is a blocking, retryable failure of the terminal
// booking/voucher creation call. Session state is preserved for retry.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func NewSubmissionError(op string, err error) error {
	return &SubmissionError{Op: op, Err: err}
}

// StateError reports an operation attempted from the wrong step or on a
// finished session.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func NewStateError(msg string) error {
	return &StateError{Message: msg}
}
