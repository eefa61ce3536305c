// Package credstore provides the durable key/value storage that holds the
// session token and the cached user profile.
//
// Stores never return errors to callers. A backend that cannot be read or
// written logs the failure and behaves as if the key were absent (reads) or
// the call were a no-op (writes).
package credstore

// Keys used by the session layer.
const (
	KeyToken   = "auth_token"
	KeyProfile = "user"
)

// Store is a synchronous key to string store.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool)

	// Set stores value under key, replacing any previous value.
	Set(key, value string)

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(key string)
}
