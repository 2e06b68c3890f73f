// Package strings provides string slice utilities shared across services.
package strings

// Dedupe removes duplicates and empty strings from a slice. The first
// occurrence wins and insertion order is preserved, so callers control
// ordering by controlling the input sequence.
//
// Example:
//
//	Dedupe([]string{"foo", "bar", "foo", ""})
//	// Returns: []string{"foo", "bar"}
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
