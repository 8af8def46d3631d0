package calendar

import (
	"sort"

	"github.com/golang-sql/civil"
)

// DateSet is a set of civil dates. The zero value is not usable; use
// NewDateSet. Sets handed out by RuleSet and Cache must be treated as
// read-only.
type DateSet map[civil.Date]struct{}

// NewDateSet creates a set holding dates
func NewDateSet(dates ...civil.Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// Add inserts d
func (s DateSet) Add(d civil.Date) {
	s[d] = struct{}{}
}

// Contains reports whether d is in the set
func (s DateSet) Contains(d civil.Date) bool {
	_, ok := s[d]
	return ok
}

// Len returns the number of dates
func (s DateSet) Len() int {
	return len(s)
}

// Union returns a new set with the members of s and all others
func (s DateSet) Union(others ...DateSet) DateSet {
	size := len(s)
	for _, o := range others {
		size += len(o)
	}
	out := make(DateSet, size)
	for d := range s {
		out[d] = struct{}{}
	}
	for _, o := range others {
		for d := range o {
			out[d] = struct{}{}
		}
	}
	return out
}

// Between returns a new set restricted to [start, end]
func (s DateSet) Between(start, end civil.Date) DateSet {
	out := make(DateSet)
	for d := range s {
		if !d.Before(start) && !d.After(end) {
			out[d] = struct{}{}
		}
	}
	return out
}

// Sorted returns the dates in ascending order
func (s DateSet) Sorted() []civil.Date {
	dates := make([]civil.Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Clone returns an independent copy
func (s DateSet) Clone() DateSet {
	return s.Union()
}
