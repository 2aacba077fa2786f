package jsfunc

import (
	"fmt"
)

// valueStack is the evaluation stack shared by all native activations of a
// VM. Indices are relative to the bottom of the current frame; negative
// indices count from the top (-1 is the topmost value).
//
// Every slot holds one reference to its value: pushing increments the
// refcount and popping decrements it.
type valueStack struct {
	heap   *Heap
	slots  []JSValue
	bottom int
}

func (s *valueStack) GetTop() int {
	return len(s.slots) - s.bottom
}

func (s *valueStack) index(idx int) int {
	top := s.GetTop()
	if idx < 0 {
		idx += top
	}
	if idx < 0 || idx >= top {
		panic(fmt.Sprintf("bug: invalid stack index %d (top %d)", idx, top))
	}
	return s.bottom + idx
}

func (s *valueStack) assertTop(n int) {
	if top := s.GetTop(); top != n {
		panic(fmt.Sprintf("bug: stack top is %d, expected %d", top, n))
	}
}

// Get returns a borrowed value; it is only valid while the slot is live.
func (s *valueStack) Get(idx int) JSValue {
	return s.slots[s.index(idx)]
}

// view returns n borrowed values starting at idx.
func (s *valueStack) view(idx, n int) []JSValue {
	if n == 0 {
		return nil
	}
	start := s.index(idx)
	s.index(idx + n - 1)
	return s.slots[start : start+n]
}

func (s *valueStack) Push(v JSValue) {
	if v == nil {
		panic("bug: pushing nil value")
	}
	s.heap.incref(v)
	s.slots = append(s.slots, v)
}

// pushOwned pushes a value whose reference the caller already holds,
// transferring it to the stack.
func (s *valueStack) pushOwned(v JSValue) {
	if v == nil {
		panic("bug: pushing nil value")
	}
	s.slots = append(s.slots, v)
}

func (s *valueStack) PushUndefined() { s.Push(JSUndefined{}) }

func (s *valueStack) PushString(str string) { s.Push(JSString(str)) }

func (s *valueStack) Pop() {
	s.PopN(1)
}

func (s *valueStack) PopN(n int) {
	if n < 0 || n > s.GetTop() {
		panic(fmt.Sprintf("bug: cannot pop %d values (top %d)", n, s.GetTop()))
	}
	for ; n > 0; n-- {
		last := len(s.slots) - 1
		v := s.slots[last]
		s.slots[last] = nil
		s.slots = s.slots[:last]
		s.heap.decref(v)
	}
}

// Steal removes the top value without releasing it; the caller becomes the
// owner of that reference.
func (s *valueStack) Steal() JSValue {
	last := s.index(-1)
	v := s.slots[last]
	s.slots[last] = nil
	s.slots = s.slots[:last]
	return v
}

func (s *valueStack) Dup(idx int) {
	s.Push(s.Get(idx))
}

// Insert moves the top value to idx, shifting the values above idx up.
func (s *valueStack) Insert(idx int) {
	pos := s.index(idx)
	last := s.index(-1)
	v := s.slots[last]
	copy(s.slots[pos+1:last+1], s.slots[pos:last])
	s.slots[pos] = v
}

func (s *valueStack) Remove(idx int) {
	pos := s.index(idx)
	v := s.slots[pos]
	copy(s.slots[pos:], s.slots[pos+1:])
	last := len(s.slots) - 1
	s.slots[last] = nil
	s.slots = s.slots[:last]
	s.heap.decref(v)
}

// Replace pops the top value into idx, releasing the value previously there.
func (s *valueStack) Replace(idx int) {
	pos := s.index(idx)
	v := s.Steal()
	old := s.slots[pos]
	s.slots[pos] = v
	s.heap.decref(old)
}

// set overwrites idx with v, taking a reference to v first.
func (s *valueStack) set(idx int, v JSValue) {
	pos := s.index(idx)
	s.heap.incref(v)
	old := s.slots[pos]
	s.slots[pos] = v
	s.heap.decref(old)
}

// SetTop truncates the frame to n values, or pads it with undefined.
func (s *valueStack) SetTop(n int) {
	top := s.GetTop()
	if n < 0 {
		panic(fmt.Sprintf("bug: invalid stack top %d", n))
	}
	if n < top {
		s.PopN(top - n)
		return
	}
	for ; top < n; top++ {
		s.PushUndefined()
	}
}
