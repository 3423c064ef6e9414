package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownPayee - no payout email address is resolvable for the payee
	ErrUnknownPayee = errors.New("unknown payee email address")
	// ErrPolicyDenied - payouts to group owned subjects are disabled by policy
	ErrPolicyDenied = errors.New("group payouts are disabled")
	// ErrSessionGone - no scene or controlling session could be found for the principal
	ErrSessionGone = errors.New("unable to find scene or session")
	// ErrMalformedNotification - the notification payload was missing an expected field
	ErrMalformedNotification = errors.New("malformed gateway notification")
	// ErrVerificationFailed - the notification failed gateway re-validation or a consistency check
	ErrVerificationFailed = errors.New("notification verification failed")
	// ErrUnknownTransaction - the notification references no pending transaction
	ErrUnknownTransaction = errors.New("notification references no pending transaction")
	// ErrDeliveryFailed - the settlement side effect could not complete
	ErrDeliveryFailed = errors.New("settlement delivery failed")
	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")
	// ErrInternalServerError internal server error
	ErrInternalServerError = errors.New("server encountered an internal error and was unable to complete the request")
)

// ErrorBundle creates a new response error
type ErrorBundle struct {
	cause   error
	message string
	data    interface{}
}

// New creates a new response error
func New(cause error, message string, data interface{}) error {
	return &ErrorBundle{
		cause,
		message,
		data,
	}
}

// Data from error origin
func (e ErrorBundle) Data() interface{} {
	return e.data
}

// Cause returns the associated cause
func (e ErrorBundle) Cause() error {
	return e.cause
}

// Unwrap returns the associated cause
func (e ErrorBundle) Unwrap() error {
	return e.cause
}

// Error turns into an error
func (e ErrorBundle) Error() string {
	return e.message
}

// DataToString returns string representation of data
func (e ErrorBundle) DataToString() string {
	if e.data == nil {
		return "no error bundle data"
	}
	b, err := json.Marshal(e.data)
	if err != nil {
		return fmt.Sprintf("error retrieving error bundle data %s", err.Error())
	}
	return string(b)
}

// Wrap wraps an error
func Wrap(cause error, message string) error {
	return &ErrorBundle{
		cause:   cause,
		message: message,
		data:    nil,
	}
}
