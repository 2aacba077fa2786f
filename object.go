package jsfunc

import (
	"fmt"
)

type ObjClass uint8

const (
	ClassObject ObjClass = iota
	ClassArray
	ClassError
	ClassFunction
	ClassEnvironment
)

func (c ObjClass) String() string {
	switch c {
	case ClassObject:
		return "Object"
	case ClassArray:
		return "Array"
	case ClassError:
		return "Error"
	case ClassFunction:
		return "Function"
	case ClassEnvironment:
		return "Environment"
	default:
		return fmt.Sprintf("ObjClass(%d)", uint8(c))
	}
}

type objFlags uint8

const (
	flagStrict objFlags = 1 << iota
	flagConstructable
)

func (f objFlags) has(flag objFlags) bool { return f&flag != 0 }

type JSObject struct {
	Prototype   *JSObject
	descriptors map[Name]*Descriptor
	class       ObjClass
	flags       objFlags

	// at most one of these is set, depending on class
	arrayPart []JSValue
	funcPart  funcPart
	envPart   *envPart

	heap      *Heap
	refcount  int32
	finalized bool
}

// funcPart is the callable variant of a function object. The set of
// implementations is closed: compiledPart, nativePart and boundPart.
type funcPart interface {
	isFuncPart()
}

type compiledPart struct {
	template *FunctionTemplate
	lexEnv   *JSObject
	varEnv   *JSObject
}

// NargsVarargs marks a native function that takes any number of arguments.
const NargsVarargs = -1

type nativePart struct {
	entry *NativeEntry
	nargs int
}

// boundPart owns its target, this binding and every element of args.
// The target is never itself a bound function.
type boundPart struct {
	target JSValue
	this   JSValue
	args   []JSValue
}

func (*compiledPart) isFuncPart() {}
func (*nativePart) isFuncPart() {}
func (*boundPart) isFuncPart() {}

type envPart struct {
	// object environments resolve through target, declarative ones through vars
	target *JSObject
	outer  *JSObject
}

type NativeCallback func(vm *VM, flags CallFlags) (nret int, err error)

type NativeEntry struct {
	Name     string
	Callback NativeCallback
}

type CallFlags struct {
	isNew bool
}

func (f CallFlags) IsConstruct() bool { return f.isNew }

type PropFlags uint8

const (
	PropWritable PropFlags = 1 << iota
	PropEnumerable
	PropConfigurable

	PropFlagsNone PropFlags = 0
	PropFlagsC              = PropConfigurable
	PropFlagsW              = PropWritable
	PropFlagsWC             = PropWritable | PropConfigurable
	PropFlagsWEC            = PropWritable | PropEnumerable | PropConfigurable
)

type Descriptor struct {
	get, set     JSValue
	value        JSValue
	configurable bool
	enumerable   bool
	writable     bool
}

func dataDescriptor(value JSValue, flags PropFlags) Descriptor {
	return Descriptor{
		value:        value,
		writable:     flags&PropWritable != 0,
		enumerable:   flags&PropEnumerable != 0,
		configurable: flags&PropConfigurable != 0,
	}
}

func accessorDescriptor(get, set JSValue, flags PropFlags) Descriptor {
	return Descriptor{
		get:          get,
		set:          set,
		enumerable:   flags&PropEnumerable != 0,
		configurable: flags&PropConfigurable != 0,
	}
}

func (d *Descriptor) IsAccessor() bool { return d.get != nil || d.set != nil }

func (d *Descriptor) Value() JSValue { return d.value }
func (d *Descriptor) Getter() JSValue { return d.get }
func (d *Descriptor) Setter() JSValue { return d.set }
func (d *Descriptor) Writable() bool { return d.writable }
func (d *Descriptor) Enumerable() bool { return d.enumerable }
func (d *Descriptor) Configurable() bool { return d.configurable }

func (v *JSObject) Category() JSVCategory {
	if v.funcPart == nil {
		return VObject
	} else {
		return VFunction
	}
}

func (jso *JSObject) Class() ObjClass { return jso.class }

func (jso *JSObject) RefCount() int { return int(jso.refcount) }

func (jso *JSObject) IsStrict() bool { return jso.flags.has(flagStrict) }

func (jso *JSObject) IsConstructable() bool { return jso.flags.has(flagConstructable) }

func (jso *JSObject) IsBound() bool {
	_, ok := jso.funcPart.(*boundPart)
	return ok
}

func (jso *JSObject) getOwnPropertyDescriptor(name Name) (*Descriptor, bool) {
	d, ok := jso.descriptors[name]
	return d, ok
}

// GetOwnPropertyDescriptor returns a copy of the own property's descriptor.
func (jso *JSObject) GetOwnPropertyDescriptor(name Name) (Descriptor, bool) {
	d, ok := jso.descriptors[name]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

func (jso *JSObject) HasOwnProperty(name Name) bool {
	_, isThere := jso.descriptors[name]
	return isThere
}

// lookupDescriptor walks the prototype chain starting at jso.
func (jso *JSObject) lookupDescriptor(name Name) (*Descriptor, *JSObject) {
	for object := jso; object != nil; object = object.Prototype {
		if descriptor, isThere := object.getOwnPropertyDescriptor(name); isThere {
			return descriptor, object
		}
	}
	return nil, nil
}

// defineOwnProperty installs descriptor as an own property, taking a new
// reference to every value it holds before releasing the ones it replaces.
func (jso *JSObject) defineOwnProperty(name Name, descriptor Descriptor) {
	h := jso.heap
	h.incref(descriptor.value)
	h.incref(descriptor.get)
	h.incref(descriptor.set)

	old, wasThere := jso.descriptors[name]
	dp := new(Descriptor)
	*dp = descriptor
	jso.descriptors[name] = dp

	if wasThere {
		h.releaseDescriptor(old)
	}
}

func (jso *JSObject) DeleteProperty(name Name) bool {
	old, wasThere := jso.descriptors[name]
	if !wasThere {
		return true
	}
	if !old.configurable {
		return false
	}
	delete(jso.descriptors, name)
	jso.heap.releaseDescriptor(old)
	return true
}

// OwnKeys lists own property names in no particular order.
func (jso *JSObject) OwnKeys() []Name {
	keys := make([]Name, 0, len(jso.descriptors))
	for name := range jso.descriptors {
		keys = append(keys, name)
	}
	return keys
}

func (jso *JSObject) Len() int { return len(jso.arrayPart) }

func (jso *JSObject) GetIndex(ndx int) JSValue {
	if ndx < 0 || ndx >= len(jso.arrayPart) {
		return JSUndefined{}
	}
	return jso.arrayPart[ndx]
}

// Template returns the compiled template behind a compiled function, or nil.
func (jso *JSObject) Template() *FunctionTemplate {
	if cp, ok := jso.funcPart.(*compiledPart); ok {
		return cp.template
	}
	return nil
}

// BoundTarget returns the target, this binding and bound arguments of a bound
// function. The returned values are borrowed from the object.
func (jso *JSObject) BoundTarget() (target, this JSValue, args []JSValue, ok bool) {
	bp, isBound := jso.funcPart.(*boundPart)
	if !isBound {
		return nil, nil, nil, false
	}
	return bp.target, bp.this, bp.args, true
}

// NativeNargs returns the declared argument count of a native function.
func (jso *JSObject) NativeNargs() (int, bool) {
	np, ok := jso.funcPart.(*nativePart)
	if !ok {
		return 0, false
	}
	return np.nargs, true
}
