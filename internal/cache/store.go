package cache

// Store is the injectable cache backend. Keys are 32-hex-char digests from
// Key; blobs are opaque to the store. There is no eviction, no TTL and no
// delete: entries live until removed externally.
type Store interface {
	// Get returns the blob for key. The boolean reports whether the entry
	// exists; a missing entry is not an error.
	Get(key string) ([]byte, bool, error)
	// Put stores blob under key, replacing any existing entry.
	Put(key string, blob []byte) error
}
