package jsfunc

import (
	"testing"
)

func TestHeapFinalizeReleasesReferences(t *testing.T) {
	h := newHeap(nil, 0)
	proto := h.newObject(nil, ClassObject)
	h.incref(proto)
	value := h.newObject(nil, ClassObject)
	h.incref(value)

	obj := h.newObject(proto, ClassObject)
	obj.defineOwnProperty(NameStr("v"), dataDescriptor(value, PropFlagsWEC))
	h.incref(obj)
	if proto.RefCount() != 2 || value.RefCount() != 2 {
		t.Fatalf("object must hold its prototype and property values")
	}

	h.decref(obj)
	if !obj.finalized {
		t.Fatalf("last decref must finalize")
	}
	if proto.RefCount() != 1 || value.RefCount() != 1 {
		t.Errorf("finalizer must release: proto=%d value=%d", proto.RefCount(), value.RefCount())
	}

	stats := h.Stats()
	if stats.Allocated != 3 || stats.Finalized != 1 || stats.Live != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestHeapDefineReplacesValue(t *testing.T) {
	h := newHeap(nil, 0)
	obj := h.newObject(nil, ClassObject)
	h.incref(obj)
	first := h.newObject(nil, ClassObject)
	second := h.newObject(nil, ClassObject)

	obj.defineOwnProperty(NameStr("p"), dataDescriptor(first, PropFlagsWEC))
	obj.defineOwnProperty(NameStr("p"), dataDescriptor(second, PropFlagsWEC))
	if !first.finalized {
		t.Errorf("replaced value must be released")
	}
	if second.RefCount() != 1 {
		t.Errorf("new value must be held once, refcount %d", second.RefCount())
	}

	// redefining with the same value must not drop it to zero in between
	obj.defineOwnProperty(NameStr("p"), dataDescriptor(second, PropFlagsC))
	if second.finalized || second.RefCount() != 1 {
		t.Errorf("redefinition with the same value broke the refcount: %d", second.RefCount())
	}

	if !obj.DeleteProperty(NameStr("p")) {
		t.Errorf("configurable property must be deletable")
	}
	if !second.finalized {
		t.Errorf("deleting the property must release its value")
	}
}

func TestHeapDecrefUnownedPanics(t *testing.T) {
	h := newHeap(nil, 0)
	obj := h.newObject(nil, ClassObject)
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	h.decref(obj)
}

func TestHeapScalarsAreNotCounted(t *testing.T) {
	h := newHeap(nil, 0)
	lf, err := NewLightFunc("f", 0, 0, 0, func(*VM, CallFlags) (int, error) { return 0, nil })
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []JSValue{JSUndefined{}, JSNumber(1), JSString("s"), NewSymbol("s"), lf} {
		h.incref(v)
		h.decref(v)
		h.decref(v)
	}
}

func TestHeapSlotBudget(t *testing.T) {
	h := newHeap(nil, 4)

	first, err := h.allocValues(3)
	if err != nil {
		t.Fatalf("allocValues: %v", err)
	}
	if _, err := h.allocValues(2); err != errAllocFailed {
		t.Fatalf("expected alloc failure, got %v", err)
	}
	if h.Stats().Slots != 3 {
		t.Errorf("a failed allocation must not reserve slots")
	}

	for i := range first {
		first[i] = JSUndefined{}
	}
	h.releaseValues(first)
	if _, err := h.allocValues(4); err != nil {
		t.Errorf("released slots must be reusable: %v", err)
	}
}
