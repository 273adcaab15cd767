package cachestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Key computes the deterministic cache key for a (source, params) pair.
// Parameters are canonicalized by sorting keys, so two maps with the same
// content always hash the same regardless of insertion order. The digest
// is SHA-256, hex encoded, and doubles as the cache file name.
func Key(source string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(source)
	sb.WriteByte(':')
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		// json.Marshal of a string cannot fail; it also escapes any
		// delimiter characters so distinct params never collide.
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(params[k])
		sb.Write(kb)
		sb.WriteByte(':')
		sb.Write(vb)
	}
	sb.WriteByte('}')

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
