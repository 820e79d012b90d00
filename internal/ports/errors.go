package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors;
// callers match with errors.Is and never inspect raw store error text.
var (
	// ErrValidation marks bad caller input: non-positive price or quantity,
	// empty symbol, zero pip price, unknown trade side.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a referenced id that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict marks a lost concurrent-modification race on a position,
	// surfaced to callers only after aggregation retries are exhausted.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrPersistence marks an unavailable store or an I/O failure.
	ErrPersistence = errors.New("persistence failure")

	// ErrArithmetic marks an arithmetic invariant violation mid-calculation
	// (zero pip price reaching pip math). Unreachable if validation holds.
	ErrArithmetic = errors.New("arithmetic invariant violated")

	// ErrAggregationFailed marks a trade that was durably recorded but whose
	// position aggregation did not complete. The trade stays discoverable as
	// unaggregated and can be replayed.
	ErrAggregationFailed = errors.New("trade recorded but aggregation failed")
)
