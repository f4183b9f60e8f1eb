package op

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint computes a CacheEntry key: a hash of the Op short name
// and its cache-affecting inputs. encoding/json sorts map keys when
// marshaling map[string]any, so this is stable across calls with the
// same logical input set regardless of Go map iteration order.
func Fingerprint(opName string, inputs map[string]any) (string, error) {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("op: fingerprint inputs for %s: %w", opName, err)
	}
	h := sha256.New()
	h.Write([]byte(opName))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// cacheAffectingInputs restricts the fingerprint input to the ToolCall
// input schema's declared keys when the Op declares one, never ambient
// Context state, otherwise every kwarg passed to this call.
func cacheAffectingInputs(o Op, kwargs map[string]any) map[string]any {
	tc := o.Config().ToolCall
	if tc == nil {
		return kwargs
	}
	out := make(map[string]any, len(tc.InputSchema))
	for name := range tc.InputSchema {
		if v, ok := kwargs[name]; ok {
			out[name] = v
		}
	}
	return out
}
