package fileset

import (
	"bytes"
	"sort"
)

// Summary is the partition of two FileSets' paths by comparison outcome.
// All four lists are sorted lexicographically for deterministic display.
type Summary struct {
	Added     []string `json:"added"`     // present only in after
	Removed   []string `json:"removed"`   // present only in before
	Changed   []string `json:"changed"`   // present in both, content differs
	Unchanged []string `json:"unchanged"` // present in both, content equal
}

// HasChanges reports whether any path was added, removed, or changed.
func (s Summary) HasChanges() bool {
	return len(s.Added) > 0 || len(s.Removed) > 0 || len(s.Changed) > 0
}

// Diff computes the added/removed/changed/unchanged partition between two
// FileSets by byte equality. Pure function: every path in either set lands
// in exactly one of the four result lists.
func Diff(before, after FileSet) Summary {
	s := Summary{
		Added:     []string{},
		Removed:   []string{},
		Changed:   []string{},
		Unchanged: []string{},
	}

	for p := range after {
		if _, ok := before[p]; !ok {
			s.Added = append(s.Added, p)
		}
	}
	for p, beforeData := range before {
		afterData, ok := after[p]
		if !ok {
			s.Removed = append(s.Removed, p)
			continue
		}
		if bytes.Equal(beforeData, afterData) {
			s.Unchanged = append(s.Unchanged, p)
		} else {
			s.Changed = append(s.Changed, p)
		}
	}

	sort.Strings(s.Added)
	sort.Strings(s.Removed)
	sort.Strings(s.Changed)
	sort.Strings(s.Unchanged)
	return s
}
