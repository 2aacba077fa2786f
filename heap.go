package jsfunc

import (
	"errors"
)

var errAllocFailed = errors.New("alloc failed")

// Heap owns the reference-count bookkeeping of one VM. Memory itself is left
// to the Go runtime; a refcount reaching zero finalizes the object, which
// releases every reference the object holds.
type Heap struct {
	log *logger

	// budget for value slots owned by objects (bound argument arrays);
	// zero means unlimited
	slotLimit int
	slots     int

	allocated int
	finalized int
}

func newHeap(lg *logger, slotLimit int) *Heap {
	return &Heap{log: lg, slotLimit: slotLimit}
}

type HeapStats struct {
	Allocated int
	Finalized int
	Live      int
	Slots     int
}

func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Allocated: h.allocated,
		Finalized: h.finalized,
		Live:      h.allocated - h.finalized,
		Slots:     h.slots,
	}
}

// newObject allocates an object with a zero refcount. The caller must store
// it somewhere (usually the value stack) for it to be owned.
func (h *Heap) newObject(proto *JSObject, class ObjClass) *JSObject {
	obj := &JSObject{
		descriptors: make(map[Name]*Descriptor),
		class:       class,
		heap:        h,
	}
	h.allocated++
	h.setPrototype(obj, proto)
	return obj
}

func (h *Heap) setPrototype(obj *JSObject, proto *JSObject) {
	if proto != nil {
		h.incref(proto)
	}
	old := obj.Prototype
	obj.Prototype = proto
	if old != nil {
		h.decref(old)
	}
}

func (h *Heap) incref(v JSValue) {
	obj, isObj := v.(*JSObject)
	if !isObj || obj == nil {
		// scalars and light functions are copied by value
		return
	}
	if obj.finalized {
		panic("bug: incref on finalized object")
	}
	obj.refcount++
}

func (h *Heap) decref(v JSValue) {
	obj, isObj := v.(*JSObject)
	if !isObj || obj == nil {
		return
	}
	if obj.refcount <= 0 {
		panic("bug: decref on object with no references")
	}
	obj.refcount--
	if obj.refcount == 0 {
		h.finalize(obj)
	}
}

func (h *Heap) finalize(obj *JSObject) {
	obj.finalized = true
	h.finalized++
	h.log.debugf("finalize %s", obj.class)

	descriptors := obj.descriptors
	obj.descriptors = map[Name]*Descriptor{}
	for _, d := range descriptors {
		h.releaseDescriptor(d)
	}

	switch part := obj.funcPart.(type) {
	case nil:
	case *compiledPart:
		h.decref(part.lexEnv)
		h.decref(part.varEnv)
		part.lexEnv, part.varEnv = nil, nil
	case *nativePart:
	case *boundPart:
		target, this, args := part.target, part.this, part.args
		part.target, part.this, part.args = JSUndefined{}, JSUndefined{}, nil
		h.decref(target)
		h.decref(this)
		h.releaseValues(args)
	default:
		panic("bug: unexpected funcPart")
	}

	if obj.arrayPart != nil {
		elems := obj.arrayPart
		obj.arrayPart = nil
		for _, v := range elems {
			h.decref(v)
		}
	}

	if env := obj.envPart; env != nil {
		obj.envPart = nil
		if env.target != nil {
			h.decref(env.target)
		}
		if env.outer != nil {
			h.decref(env.outer)
		}
	}

	if proto := obj.Prototype; proto != nil {
		obj.Prototype = nil
		h.decref(proto)
	}
}

func (h *Heap) releaseDescriptor(d *Descriptor) {
	h.decref(d.value)
	h.decref(d.get)
	h.decref(d.set)
}

// allocValues reserves an owned slot array of n values. It fails as a whole
// when the slot budget would be exceeded.
func (h *Heap) allocValues(n int) ([]JSValue, error) {
	if n < 0 {
		panic("bug: negative allocation")
	}
	if h.slotLimit > 0 && h.slots+n > h.slotLimit {
		return nil, errAllocFailed
	}
	h.slots += n
	return make([]JSValue, n), nil
}

// releaseValues drops the references held by an array obtained from
// allocValues and returns its slots to the budget.
func (h *Heap) releaseValues(values []JSValue) {
	h.slots -= len(values)
	for _, v := range values {
		h.decref(v)
	}
}

// copyValuesIncref copies src into dst, taking a reference for every copy.
func (h *Heap) copyValuesIncref(dst, src []JSValue) {
	if len(dst) < len(src) {
		panic("bug: copyValuesIncref destination too small")
	}
	for i, v := range src {
		h.incref(v)
		dst[i] = v
	}
}
