package analytics

import (
	"errors"
	"fmt"
)

// ErrAccountNotFound is returned when the data source yields no rows.
var ErrAccountNotFound = errors.New("account not found")

// DataError reports an upstream value that could not be parsed. It aborts
// normalization of the whole account.
type DataError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// IsDataError reports whether err wraps a *DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}
