package importer

import (
	"errors"
)

var (
	ErrInvalidHeader   = errors.New("could not read CSV header")
	ErrInvalidEncoding = errors.New("upload is not valid UTF-8")
)

// RowError is a failure confined to one data row. It never aborts an import.
type RowError struct {
	Reason string
}

func (e RowError) Error() string {
	return e.Reason
}
