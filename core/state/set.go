package state

// StringSet is an insertion-ordered set of strings.
type StringSet struct {
	items []string
	index map[string]struct{}
}

// NewStringSet builds a set from items, dropping duplicates.
func NewStringSet(items ...string) *StringSet {
	s := &StringSet{index: make(map[string]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item and reports whether it was new.
func (s *StringSet) Add(item string) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Remove deletes item and reports whether it was present.
func (s *StringSet) Remove(item string) bool {
	if _, ok := s.index[item]; !ok {
		return false
	}
	delete(s.index, item)
	for i, existing := range s.items {
		if existing == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *StringSet) Contains(item string) bool {
	_, ok := s.index[item]
	return ok
}

func (s *StringSet) Len() int { return len(s.items) }

// Values returns a copy of the members in insertion order.
func (s *StringSet) Values() []string {
	return append([]string{}, s.items...)
}
