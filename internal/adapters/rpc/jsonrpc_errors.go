package rpc

import (
	"homeseeker/go-backend/internal/app"
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

// Workflow error kinds map to stable codes so clients can branch on them
// without parsing messages.
var rpcKindCodes = map[app.ErrorKind]int{
	app.KindValidation:            -32001,
	app.KindOperationInProgress:   -32002,
	app.KindIdentityChanged:       -32003,
	app.KindTransactionRejected:   -32004,
	app.KindPaymentNotApplied:     -32005,
	app.KindRegistryLookupTimeout: -32006,
	app.KindNetwork:               -32007,
}

func rpcWorkflowError(err error) *rpcError {
	code, ok := rpcKindCodes[app.Classify(err)]
	if !ok {
		code = -32007
	}
	return &rpcError{Code: code, Message: err.Error()}
}
