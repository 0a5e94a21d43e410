// Package version implements the C7 versioning service: canonical content
// hashing and the newVersion/activate transactional operations.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/cvenhancer/core/internal/domain"
)

// Hash computes a canonical content hash: Content is marshaled with map keys
// sorted (encoding/json already sorts map keys) and slice-valued fields left
// in author order, since reordering experience/education entries is itself
// a meaningful edit, not semantic noise.
func Hash(c domain.Content) string {
	canon := canonicalize(c)
	raw, _ := json.Marshal(canon)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// canonicalize rebuilds c as a map so json.Marshal's key-sorted map
// encoding gives a stable byte representation independent of struct field
// declaration order.
func canonicalize(c domain.Content) map[string]any {
	raw, _ := json.Marshal(c)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return sortedCopy(m).(map[string]any)
}

func sortedCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortedCopy(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortedCopy(e)
		}
		return out
	default:
		return v
	}
}

// ContentHashOrNil returns Hash(c) unless c is structurally empty, per
// §4.C7's rule that semantically-empty content never gets a dedup hash.
func ContentHashOrNil(c domain.Content) *string {
	if c.IsStructurallyEmpty() {
		return nil
	}
	h := Hash(c)
	return &h
}
