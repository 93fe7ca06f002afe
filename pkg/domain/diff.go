package domain

import "sort"

// ValuesDiff represents the changes between two value maps, as reported
// when a snapshot is restored or a project imported.
type ValuesDiff struct {
	// Changed contains only added or modified keys with their new value.
	Changed map[string]Value `json:"changed,omitempty"`

	// Removed lists keys present in the old map but absent from the new one.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between oldValues and newValues.
// A nil oldValues yields a diff carrying every entry of newValues.
// It returns nil when nothing changed.
func Diff(oldValues, newValues Values) *ValuesDiff {
	diff := &ValuesDiff{Changed: make(map[string]Value)}

	for k, newVal := range newValues {
		oldVal, exists := oldValues[k]
		if !exists || !oldVal.Equal(newVal) {
			diff.Changed[k] = newVal.Clone()
		}
	}

	for k := range oldValues {
		if _, exists := newValues[k]; !exists {
			diff.Removed = append(diff.Removed, k)
		}
	}
	sort.Strings(diff.Removed)

	if diff.IsEmpty() {
		return nil
	}
	if len(diff.Changed) == 0 {
		diff.Changed = nil
	}
	return diff
}

// Keys returns the changed keys in sorted order.
func (d *ValuesDiff) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Changed))
	for k := range d.Changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ValuesDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0)
}
