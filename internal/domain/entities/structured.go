package entities

// CloneStructured deep-copies JSON-shaped data (maps, slices and scalars).
func CloneStructured(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneObject(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneStructured(item)
		}
		return out
	default:
		return val
	}
}

// CloneObject deep-copies a JSON object. A nil map stays nil.
func CloneObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = CloneStructured(item)
	}
	return out
}
