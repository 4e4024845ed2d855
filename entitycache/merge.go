package entitycache

import "encoding/json"

// Merge returns item with the JSON fields named in updates replaced. Field
// names follow the wire format (json tags), matching the partial payload sent
// to the backend, so the local rewrite and the server apply the same patch.
// The merge is shallow: a nested object in updates replaces the whole field.
// If item cannot round-trip through JSON, it is returned unchanged.
func Merge[T any](item T, updates map[string]any) T {
	if len(updates) == 0 {
		return item
	}

	base, err := json.Marshal(item)
	if err != nil {
		return item
	}

	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return item
	}
	for k, v := range updates {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return item
	}

	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return item
	}
	return out
}
