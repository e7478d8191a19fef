package decision

import (
	"bytes"
	"sort"
	"strings"
	"time"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListFilter is the declarative listing query. Every set field narrows the
// result; unset fields impose nothing.
type ListFilter struct {
	Search        string
	UserID        string
	IsSuperseded  *bool
	CreatedAfter  *time.Time // inclusive
	CreatedBefore *time.Time // exclusive
	Limit         int
	Offset        int
}

// Normalize applies defaults and clamps. It never fails.
func (f ListFilter) Normalize() ListFilter {
	out := f
	out.Search = strings.TrimSpace(f.Search)
	out.UserID = strings.TrimSpace(f.UserID)
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	if f.CreatedAfter != nil {
		t := f.CreatedAfter.UTC()
		out.CreatedAfter = &t
	}
	if f.CreatedBefore != nil {
		t := f.CreatedBefore.UTC()
		out.CreatedBefore = &t
	}
	return out
}

// Matches reports whether d satisfies every predicate of f. Limit and Offset
// are ignored.
func (f ListFilter) Matches(d *Decision) bool {
	if d == nil {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(strings.TrimSpace(f.Search))
		inText := strings.Contains(strings.ToLower(d.DecisionText), term)
		inRationale := d.Rationale != nil && strings.Contains(strings.ToLower(*d.Rationale), term)
		if !inText && !inRationale {
			return false
		}
	}
	if f.UserID != "" && d.UserID != strings.TrimSpace(f.UserID) {
		return false
	}
	if f.IsSuperseded != nil && d.IsSuperseded != *f.IsSuperseded {
		return false
	}
	if f.CreatedAfter != nil && d.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !d.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// SortNewestFirst orders by created_at descending, ties broken by id
// descending. It is the ordering Apply uses.
func SortNewestFirst(ds []Decision) {
	sort.SliceStable(ds, func(i, j int) bool {
		if !ds[i].CreatedAt.Equal(ds[j].CreatedAt) {
			return ds[i].CreatedAt.After(ds[j].CreatedAt)
		}
		return bytes.Compare(ds[i].ID[:], ds[j].ID[:]) > 0
	})
}

// Apply evaluates the filter over an in-memory set and returns the requested
// page plus the total match count. It is the reference evaluator that store
// implementations of List are checked against.
func (f ListFilter) Apply(all []Decision) ([]Decision, int64) {
	n := f.Normalize()
	matched := make([]Decision, 0, len(all))
	for i := range all {
		if n.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	SortNewestFirst(matched)
	total := int64(len(matched))
	if n.Offset >= len(matched) {
		return []Decision{}, total
	}
	end := n.Offset + n.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[n.Offset:end], total
}
