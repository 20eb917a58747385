package app

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes every failure that crosses the controller boundary.
// No raw collaborator error reaches the presentation layer uncategorized.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation"
	KindRegistryLookupTimeout ErrorKind = "registry_lookup_timeout"
	KindTransactionRejected   ErrorKind = "transaction_rejected"
	KindPaymentNotApplied     ErrorKind = "payment_not_applied"
	KindOperationInProgress   ErrorKind = "operation_in_progress"
	KindIdentityChanged       ErrorKind = "identity_changed"
	KindNetwork               ErrorKind = "network"
)

type WorkflowError struct {
	Kind ErrorKind
	Err  error
}

func (e *WorkflowError) Error() string {
	return e.Err.Error()
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func Fail(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &WorkflowError{Kind: kind, Err: err}
}

func Failf(kind ErrorKind, format string, args ...any) error {
	return &WorkflowError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify returns the kind of err, defaulting to KindNetwork for anything
// the collaborators produced that was not categorized on the way up.
func Classify(err error) ErrorKind {
	var classified *WorkflowError
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindNetwork
}

var (
	ErrWalletLocked       = Failf(KindValidation, "wallet is locked or not configured")
	ErrOperationInFlight  = Failf(KindOperationInProgress, "operation already in progress")
	ErrIdentityChanged    = Failf(KindIdentityChanged, "wallet account changed during operation")
	ErrNotApproved        = Failf(KindValidation, "viewer has no approved lease for this property")
	ErrPropertyNotListed  = Failf(KindValidation, "property has no lease contract")
	ErrTenantNotApplied   = Failf(KindValidation, "tenant has not applied for this property")
	ErrTenantStillLeasing = Failf(KindValidation, "terms are locked while a tenant is approved")
)
