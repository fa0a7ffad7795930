// Package store implements the epoch store: tables of JSON rows keyed by id,
// partitioned by epoch so that rows of a past epoch never leak into the
// current one.
package store

// Store opens tables.
type Store interface {
	// Table returns the table called name for the given epoch. Tables are
	// created implicitly on first Put.
	Table(name string, epoch int) Table
	// Close releases the resources held by the store.
	Close() error
}

// Table is a set of rows keyed by id.
type Table interface {
	// Get decodes the row with the given id into v. It returns a
	// common.StoreErr with type KeyNotFound if there is no such row.
	Get(id string, v interface{}) error
	// All returns the encoded rows of the table in id order. It returns a
	// common.StoreErr with type KeyNotFound if the table is empty.
	All() ([][]byte, error)
	// Put encodes v and writes it under id, replacing any previous row.
	Put(id string, v interface{}) error
}
