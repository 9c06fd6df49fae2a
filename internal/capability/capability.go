// Package capability selects implementations from a registered list by a
// capability predicate.
package capability

// First returns the first item accepted by pred, in registration order.
func First[T any](items []T, pred func(T) bool) (T, bool) {
	for _, item := range items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Single returns the only item accepted by pred. The count of matching items
// is always returned so callers can report zero or ambiguous matches.
func Single[T any](items []T, pred func(T) bool) (T, int) {
	var found T
	matches := 0
	for _, item := range items {
		if pred(item) {
			if matches == 0 {
				found = item
			}
			matches++
		}
	}
	if matches != 1 {
		var zero T
		return zero, matches
	}
	return found, 1
}
