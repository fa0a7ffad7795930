package common

import "fmt"

// StoreErrType enumerates the failure conditions reported by an epoch store.
type StoreErrType uint32

const (
	// KeyNotFound is returned when a row, or a whole table, does not exist.
	// Callers loading persisted lists treat it as an empty result.
	KeyNotFound StoreErrType = iota
	// Closed is returned when the store has already been closed.
	Closed
	// Encoding is returned when a row cannot be encoded or decoded.
	Encoding
)

// StoreErr is the error type of the store package. It records the table the
// error relates to, its type, and the offending key.
type StoreErr struct {
	table   string
	errType StoreErrType
	key     string
}

// NewStoreErr creates a StoreErr.
func NewStoreErr(table string, errType StoreErrType, key string) StoreErr {
	return StoreErr{
		table:   table,
		errType: errType,
		key:     key,
	}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case KeyNotFound:
		m = "Not Found"
	case Closed:
		m = "Closed"
	case Encoding:
		m = "Encoding"
	}

	return fmt.Sprintf("%s, %s, %s", e.table, e.key, m)
}

// IsStore checks that an error is of type StoreErr and that its code matches
// the provided StoreErr code.
func IsStore(err error, t StoreErrType) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == t
}
