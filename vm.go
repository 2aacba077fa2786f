package jsfunc

import (
	"fmt"

	"github.com/google/uuid"
)

type VM struct {
	id    string
	cfg   Config
	log   *logger
	heap  *Heap
	stack valueStack

	frames []activation

	compiler Compiler
	executor Executor

	globalObject *JSObject
	globalEnv    *JSObject

	protoObject         *JSObject
	protoFunction       *JSObject
	protoNativeFunction *JSObject
	protoArray          *JSObject
	errorProtos         map[string]*JSObject

	functionConstructor *JSObject
	thrower             *JSObject

	// entries recognized by the dispatcher; their bodies only run when
	// something bypasses dispatch
	entryCall             *NativeEntry
	entryApply            *NativeEntry
	entryReflectApply     *NativeEntry
	entryReflectConstruct *NativeEntry
}

// activation is one native call in progress.
type activation struct {
	entry  *NativeEntry
	callee JSValue
	this   JSValue
	flags  CallFlags
	bottom int
}

const (
	maxCallDepth     = 1000
	maxArrayLikeArgs = 1 << 20
)

func NewVM(cfg Config) (*VM, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	vm := &VM{
		id:       uuid.NewString(),
		cfg:      cfg,
		compiler: cfg.Compiler,
		executor: cfg.Executor,
	}
	vm.log = newLogger(vm.id, cfg.LogOutput, cfg.Debug)
	vm.heap = newHeap(vm.log, cfg.HeapLimit)
	vm.stack.heap = vm.heap

	vm.initBuiltins()
	vm.log.debugf("vm ready: maxBoundArgs=%d heapLimit=%d", cfg.MaxBoundArgs, cfg.HeapLimit)
	return vm, nil
}

func (vm *VM) ID() string { return vm.id }

func (vm *VM) Heap() *Heap { return vm.heap }

func (vm *VM) Config() Config { return vm.cfg }

func (vm *VM) GlobalObject() *JSObject { return vm.globalObject }

func (vm *VM) FunctionPrototype() *JSObject { return vm.protoFunction }

func (vm *VM) FunctionConstructor() *JSObject { return vm.functionConstructor }

// Thrower is the shared [[ThrowTypeError]] function.
func (vm *VM) Thrower() *JSObject { return vm.thrower }

// StackDepth is the number of values on the evaluation stack across all frames.
func (vm *VM) StackDepth() int { return len(vm.stack.slots) }

// Release drops a reference obtained from Call, Construct, GetProperty or
// any other API returning an owned value.
func (vm *VM) Release(v JSValue) {
	vm.heap.decref(v)
}

// Retain takes an additional reference to v.
func (vm *VM) Retain(v JSValue) {
	vm.heap.incref(v)
}

// This is the receiver of the innermost native call.
func (vm *VM) This() JSValue {
	if len(vm.frames) == 0 {
		return JSUndefined{}
	}
	return vm.frames[len(vm.frames)-1].this
}

func (vm *VM) pushThis() {
	vm.stack.Push(vm.This())
}

// GetProperty reads name from target, walking the prototype chain and
// running getters with target as receiver. The result is owned.
func (vm *VM) GetProperty(target JSValue, name Name) (JSValue, error) {
	var obj *JSObject
	switch t := target.(type) {
	case *JSObject:
		obj = t
	case JSLightFunc:
		// light functions have virtual length and name, everything else
		// comes from Function.prototype
		switch name {
		case nameLength:
			return JSNumber(t.Length()), nil
		case nameName:
			return JSString(t.Name()), nil
		}
		obj = vm.protoFunction
	case JSUndefined, JSNull:
		msg := fmt.Sprintf("cannot read property '%s' of %s", name, describe(target))
		return nil, vm.ThrowError("TypeError", msg)
	default:
		obj = vm.protoObject
	}

	descriptor, _ := obj.lookupDescriptor(name)
	if descriptor == nil {
		return JSUndefined{}, nil
	}
	if descriptor.IsAccessor() {
		if descriptor.get == nil {
			return JSUndefined{}, nil
		}
		return vm.Call(descriptor.get, target)
	}
	vm.heap.incref(descriptor.value)
	return descriptor.value, nil
}

// PutProperty assigns name on target with strict mode semantics: failed
// assignments throw a TypeError.
func (vm *VM) PutProperty(target JSValue, name Name, value JSValue) error {
	obj, isObj := target.(*JSObject)
	if !isObj {
		msg := fmt.Sprintf("cannot assign property '%s' of %s", name, describe(target))
		return vm.ThrowError("TypeError", msg)
	}

	descriptor, owner := obj.lookupDescriptor(name)
	switch {
	case descriptor == nil:
		obj.defineOwnProperty(name, dataDescriptor(value, PropFlagsWEC))
		return nil

	case descriptor.IsAccessor():
		if descriptor.set == nil {
			return vm.ThrowError("TypeError", fmt.Sprintf("property '%s' has no setter", name))
		}
		ret, err := vm.Call(descriptor.set, target, value)
		if err != nil {
			return err
		}
		vm.Release(ret)
		return nil

	case !descriptor.writable:
		return vm.ThrowError("TypeError", fmt.Sprintf("property '%s' is not writable", name))

	case owner == obj:
		vm.heap.incref(value)
		old := descriptor.value
		descriptor.value = value
		vm.heap.decref(old)
		return nil

	default:
		obj.defineOwnProperty(name, dataDescriptor(value, PropFlagsWEC))
		return nil
	}
}

// DefineProperty installs an own data property on obj.
func (vm *VM) DefineProperty(obj *JSObject, name Name, value JSValue, flags PropFlags) {
	obj.defineOwnProperty(name, dataDescriptor(value, flags))
}

// DefineAccessor installs an own accessor property on obj.
func (vm *VM) DefineAccessor(obj *JSObject, name Name, get, set JSValue, flags PropFlags) {
	obj.defineOwnProperty(name, accessorDescriptor(get, set, flags))
}

// getPropAt pushes the value of property name of the value at idx.
func (vm *VM) getPropAt(idx int, name Name) error {
	v, err := vm.GetProperty(vm.stack.Get(idx), name)
	if err != nil {
		return err
	}
	vm.stack.pushOwned(v)
	return nil
}

// defPropTop pops the top value into an own property of the object at idx
// (idx is resolved before the pop).
func (vm *VM) defPropTop(idx int, name Name, flags PropFlags) {
	obj, isObj := vm.stack.Get(idx).(*JSObject)
	if !isObj {
		panic("bug: defPropTop target is not an object")
	}
	obj.defineOwnProperty(name, dataDescriptor(vm.stack.Get(-1), flags))
	vm.stack.Pop()
}

// defThrowerAt installs the shared thrower as getter and setter of name.
func (vm *VM) defThrowerAt(idx int, name Name) {
	obj, isObj := vm.stack.Get(idx).(*JSObject)
	if !isObj {
		panic("bug: defThrowerAt target is not an object")
	}
	obj.defineOwnProperty(name, accessorDescriptor(vm.thrower, vm.thrower, PropFlagsNone))
}

// toStringAt coerces the value at idx to a string in place.
func (vm *VM) toStringAt(idx int) (string, error) {
	s, err := vm.ToString(vm.stack.Get(idx))
	if err != nil {
		return "", err
	}
	vm.stack.set(idx, JSString(s))
	return s, nil
}

func (vm *VM) requireString(idx int) (string, error) {
	s, isStr := vm.stack.Get(idx).(JSString)
	if !isStr {
		return "", vm.ThrowError("TypeError", "string required")
	}
	return string(s), nil
}

func (vm *VM) requireCallable(idx int) error {
	if !isCallable(vm.stack.Get(idx)) {
		return vm.ThrowError("TypeError", "not callable")
	}
	return nil
}

// concat replaces the top n values with their string concatenation.
func (vm *VM) concat(n int) error {
	if n > vm.stack.GetTop() {
		panic("bug: concat count exceeds frame")
	}
	var sb []byte
	for i := n; i > 0; i-- {
		s, err := vm.toStringAt(-i)
		if err != nil {
			return err
		}
		sb = append(sb, s...)
	}
	vm.stack.PopN(n)
	vm.stack.PushString(string(sb))
	return nil
}

// join replaces [sep v1 ... vn] at the top with v1..vn joined by sep.
func (vm *VM) join(n int) error {
	if n+1 > vm.stack.GetTop() {
		panic("bug: join count exceeds frame")
	}
	sep, err := vm.toStringAt(-(n + 1))
	if err != nil {
		return err
	}
	var sb []byte
	for i := n; i > 0; i-- {
		s, err := vm.toStringAt(-i)
		if err != nil {
			return err
		}
		if i != n {
			sb = append(sb, sep...)
		}
		sb = append(sb, s...)
	}
	vm.stack.PopN(n + 1)
	vm.stack.PushString(string(sb))
	return nil
}

// allocValues is the checked allocation used for owned value arrays.
func (vm *VM) allocValues(n int) ([]JSValue, error) {
	values, err := vm.heap.allocValues(n)
	if err != nil {
		return nil, vm.ThrowError("Error", err.Error())
	}
	return values, nil
}
