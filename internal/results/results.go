// Package results carries the success/failure envelope returned by
// application service operations. A failure payload is a business-level
// outcome (still publishable as an event); the error is an infrastructure
// fault.
package results

// OperationResult is the standard return envelope for service operations.
type OperationResult struct {
	Success any
	Failure any
	Error   error
}

// OK wraps a success payload.
func OK(payload any) OperationResult {
	return OperationResult{Success: payload}
}

// Fail wraps a business failure payload.
func Fail(payload any) OperationResult {
	return OperationResult{Failure: payload}
}
