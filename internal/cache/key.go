package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// KV is one named argument contributing to a cache key.
type KV struct {
	Name  string
	Value string
}

// Key derives the cache key for one memoized call. The digest covers the
// method identifier, each positional argument in order, and each named
// argument as name=value with names sorted ascending, so two calls differing
// only in named-argument insertion order share a key and two operations
// sharing argument values do not. Fields are NUL-separated to keep adjacent
// values from concatenating into the same input. MD5 is a fingerprint here,
// not a security boundary.
func Key(method string, positional []string, named []KV) string {
	sorted := make([]KV, len(named))
	copy(sorted, named)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(0)
	for _, p := range positional {
		b.WriteString(p)
		b.WriteByte(0)
	}
	for _, kv := range sorted {
		b.WriteString(kv.Name)
		b.WriteByte('=')
		b.WriteString(kv.Value)
		b.WriteByte(0)
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
