package common

import "fmt"

// EncodeToString returns the lowercase hex representation of data with the 0x
// prefix expected by the node.
func EncodeToString(data []byte) string {
	return fmt.Sprintf("0x%x", data)
}
