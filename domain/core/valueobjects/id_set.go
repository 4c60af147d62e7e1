package valueobjects

import "strings"

// IDSet is an insertion-ordered, duplicate-free set of item IDs.
// The zero value is an empty set ready to use.
type IDSet struct {
	order []ItemID
	index map[ItemID]struct{}
}

// NewIDSet builds a set from ids, dropping empty values and duplicates
func NewIDSet(ids ...ItemID) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// NewIDSetFromStrings builds a set from raw store values
func NewIDSetFromStrings(raw []string) IDSet {
	var s IDSet
	for _, v := range raw {
		s.Add(ItemID(strings.TrimSpace(v)))
	}
	return s
}

// Uniq normalizes raw slot values: trims, drops empties, removes duplicates
// and keeps first-seen order.
func Uniq(raw []string) []string {
	return NewIDSetFromStrings(raw).Strings()
}

// OrEmpty resolves an optional slot read to its default
func OrEmpty(values []string, found bool) []string {
	if !found || values == nil {
		return []string{}
	}
	return values
}

// Add inserts id and reports whether the set changed
func (s *IDSet) Add(id ItemID) bool {
	if id.IsZero() || s.Contains(id) {
		return false
	}
	if s.index == nil {
		s.index = make(map[ItemID]struct{})
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Remove deletes id and reports whether the set changed
func (s *IDSet) Remove(id ItemID) bool {
	if !s.Contains(id) {
		return false
	}
	delete(s.index, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership
func (s IDSet) Contains(id ItemID) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids
func (s IDSet) Len() int {
	return len(s.order)
}

// IsEmpty reports whether the set has no ids
func (s IDSet) IsEmpty() bool {
	return len(s.order) == 0
}

// Slice returns a copy of the ids in insertion order
func (s IDSet) Slice() []ItemID {
	out := make([]ItemID, len(s.order))
	copy(out, s.order)
	return out
}

// Strings returns the ids as plain strings, in insertion order
func (s IDSet) Strings() []string {
	out := make([]string, len(s.order))
	for i, id := range s.order {
		out[i] = id.String()
	}
	return out
}

// Clone returns an independent copy
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.order...)
}

// Union returns s ∪ other; ids of s come first
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for _, id := range other.order {
		out.Add(id)
	}
	return out
}

// Difference returns s \ other
func (s IDSet) Difference(other IDSet) IDSet {
	var out IDSet
	for _, id := range s.order {
		if !other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Intersect returns s ∩ other in the order of s
func (s IDSet) Intersect(other IDSet) IDSet {
	var out IDSet
	for _, id := range s.order {
		if other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Equal compares membership, ignoring order
func (s IDSet) Equal(other IDSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, id := range s.order {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
