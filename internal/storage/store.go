package storage

// Store is the persistent key-value contract used for session state.
// Values are JSON-serializable; every Set is a full replacement of the
// value under its key. There are no transactional guarantees across
// keys: a crash between two related writes can leave the stored state
// inconsistent, and callers are expected to tolerate that.
type Store interface {
	// Get reads the value stored under key into dest. It returns false
	// when the key is absent, in which case dest is left untouched.
	Get(key string, dest interface{}) (bool, error)

	// Set serializes value and overwrites whatever is stored under key.
	Set(key string, value interface{}) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases any resources held by the store.
	Close() error
}
