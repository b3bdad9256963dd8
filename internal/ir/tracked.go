package ir

// TrackedSet is the fixed, caller-ordered set of histogram names of interest.
// The zero value tracks nothing.
type TrackedSet struct {
	names []string
	index map[string]int
}

// NewTrackedSet builds a set from names in caller order. Duplicate names keep
// their first position.
func NewTrackedSet(names ...string) TrackedSet {
	s := TrackedSet{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, dup := s.index[n]; dup {
			continue
		}
		s.index[n] = len(s.names)
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports whether name is tracked.
func (s TrackedSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Index returns the caller-order position of name, or -1.
func (s TrackedSet) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Names returns the tracked names in caller order.
func (s TrackedSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of tracked names.
func (s TrackedSet) Len() int {
	return len(s.names)
}
