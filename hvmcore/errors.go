package hvmcore

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every structural or semantic rule
	// violation. Callers must fix the block and resubmit; retrying the same
	// block cannot succeed.
	ErrValidation = errors.New("validation error")

	// ErrNotEnoughTimeBetweenBlocks throttles block production on a single
	// account chain. Callers should wait and retry.
	ErrNotEnoughTimeBetweenBlocks = errors.New("not enough time between blocks")

	// ErrQueueBlockSealed means the chain's queue block has already been
	// signed and can no longer accept transactions.
	ErrQueueBlockSealed = errors.New("queue block is sealed")

	// ErrNoSigningKey means a signing operation was attempted on a
	// read-only chain.
	ErrNoSigningKey = errors.New("chain has no signing key")
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
