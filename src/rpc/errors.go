package rpc

import (
	"errors"
	"fmt"
)

// Node-reported error codes synthesized by the client.
const (
	// CodeNullResult is used when the node answers with a null result, which
	// is how it reports unknown hashes and missing records.
	CodeNullResult = -1
	// CodeNotFound is used by the indexer client for HTTP 404 responses.
	CodeNotFound = 404
)

// TransportError reports that the node could not be reached, or that its
// answer could not be understood. It always affects connectivity.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NodeError is a logical failure reported by a reachable node.
type NodeError struct {
	Method  string
	Code    int
	Message string
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNodeError reports whether err is, or wraps, a NodeError.
func IsNodeError(err error) bool {
	var ne *NodeError
	return errors.As(err, &ne)
}

// IsNotFound reports whether err is a NodeError for a missing record.
func IsNotFound(err error) bool {
	var ne *NodeError
	if !errors.As(err, &ne) {
		return false
	}
	return ne.Code == CodeNullResult || ne.Code == CodeNotFound
}
