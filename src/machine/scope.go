package machine

import "strings"

// Scopes returns the scopes that are active in the state with the given
// dotted path, from the outermost to the state itself. For example, the
// scopes of "connected.synced.ready" are "connected", "connected.synced" and
// "connected.synced.ready".
func Scopes(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	res := make([]string, len(parts))
	for i := range parts {
		res[i] = strings.Join(parts[:i+1], ".")
	}
	return res
}
