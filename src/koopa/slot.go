package koopa

import "strconv"

// SlotAllocator hands out monotonically increasing IR temporary names
// ("%N") for one function. Reset at the start of each function.
type SlotAllocator struct {
	n int
}

// Next returns the next "%N" name and advances the counter.
func (s *SlotAllocator) Next() string {
	name := "%" + strconv.Itoa(s.n)
	s.n++
	return name
}

// Reset zeroes the counter for a new function.
func (s *SlotAllocator) Reset() {
	s.n = 0
}

// LabelGen is a per-Ctx monotonic counter providing unique integer
// suffixes for control-flow labels, composed with a prefix (then_, else_,
// end_, while_entry_, ..., shortcut_entry_, ...).
type LabelGen struct {
	n int
}

// Label returns prefix + the next unique integer id, e.g. "then_3".
func (l *LabelGen) Label(prefix string) string {
	id := l.n
	l.n++
	return prefix + strconv.Itoa(id)
}
