// internal/pkg/idempotency/hash.go
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// HashBody hashes a JSON request body over a canonical key-sorted
// serialization, so logically identical bodies with different key order
// produce the same hash. Bodies that are not valid JSON hash over the raw
// bytes instead.
func HashBody(body []byte) string {
	var decoded interface{}
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		if canonical, err := json.Marshal(canonicalize(decoded)); err == nil {
			body = canonical
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// canonicalize rewrites maps into a form encoding/json serializes with
// deterministically ordered keys.
func canonicalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(orderedMap, 0, len(keys))
		for _, k := range keys {
			out = append(out, orderedEntry{Key: k, Value: canonicalize(val[k])})
		}
		return out
	case []interface{}:
		for i := range val {
			val[i] = canonicalize(val[i])
		}
		return val
	default:
		return v
	}
}

type orderedEntry struct {
	Key   string
	Value interface{}
}

// orderedMap marshals as a JSON object preserving entry order.
type orderedMap []orderedEntry

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, entry := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	return append(buf, '}'), nil
}
