package database

import (
	"errors"
	"fmt"
)

// ErrTxNotFound is returned when a transaction hash is not present in the
// specified block. It is distinct from a range error: the block exists but
// holds no matching transaction.
var ErrTxNotFound = errors.New("transaction not found in block")

// OutOfRangeError is returned when a 1-based block number or transaction
// index falls outside the valid bounds. The bounds are carried so the caller
// can report the valid range.
type OutOfRangeError struct {
	What  string
	Value uint64
	Min   uint64
	Max   uint64
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d,%d]", e.What, e.Value, e.Min, e.Max)
}

// IsOutOfRange reports whether the error is a range error.
func IsOutOfRange(err error) bool {
	var orErr *OutOfRangeError
	return errors.As(err, &orErr)
}
