package jsfunc

import (
	"fmt"
	"strconv"
)

// Executor runs the body of a compiled function. The returned value is
// owned by the caller. Bodies are outside the scope of this package; an
// embedder supplies the executor through Config.
type Executor interface {
	Execute(vm *VM, fn *JSObject, this JSValue, args []JSValue) (JSValue, error)
}

type ExecutorFunc func(vm *VM, fn *JSObject, this JSValue, args []JSValue) (JSValue, error)

func (f ExecutorFunc) Execute(vm *VM, fn *JSObject, this JSValue, args []JSValue) (JSValue, error) {
	return f(vm, fn, this, args)
}

// Call invokes fn with the given receiver and arguments. The arguments are
// borrowed; the result is owned by the caller.
func (vm *VM) Call(fn JSValue, this JSValue, args ...JSValue) (JSValue, error) {
	return vm.dispatch(fn, this, args, CallFlags{})
}

// Construct invokes fn as a constructor.
func (vm *VM) Construct(fn JSValue, args ...JSValue) (JSValue, error) {
	return vm.dispatch(fn, JSUndefined{}, args, CallFlags{isNew: true})
}

// dispatch resolves bound functions and the call/apply entry points before
// running the final callee. Bound layers substitute their this binding (for
// plain calls) and prepend their arguments.
func (vm *VM) dispatch(fn JSValue, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	if len(vm.frames) >= maxCallDepth {
		return nil, vm.ThrowError("RangeError", "callstack limit")
	}

	// argument lists read from array-likes, released once the call returns
	var held [][]JSValue
	defer func() {
		for _, values := range held {
			vm.heap.releaseValues(values)
		}
	}()

	for {
		switch callee := fn.(type) {
		case JSLightFunc:
			return vm.callNative(callee.entry, callee, this, args, flags)

		case *JSObject:
			switch part := callee.funcPart.(type) {
			case *boundPart:
				if !flags.isNew {
					this = part.this
				}
				if len(part.args) > 0 {
					merged := make([]JSValue, 0, len(part.args)+len(args))
					merged = append(merged, part.args...)
					args = append(merged, args...)
				}
				fn = part.target
				continue

			case *nativePart:
				if flags.isNew && !callee.flags.has(flagConstructable) {
					return nil, vm.ThrowError("TypeError", "not constructable")
				}

				var (
					simulated bool
					err       error
				)
				fn, this, args, flags, simulated, err = vm.simulateCallEntry(part.entry, this, args, flags, &held)
				if err != nil {
					return nil, err
				}
				if simulated {
					continue
				}
				return vm.callNative(part.entry, callee, this, args, flags)

			case *compiledPart:
				return vm.callCompiled(callee, part, this, args, flags)

			case nil:
				return nil, vm.ThrowError("TypeError", fmt.Sprintf("%s is not a function", describe(fn)))

			default:
				panic("bug: unexpected funcPart")
			}

		default:
			return nil, vm.ThrowError("TypeError", fmt.Sprintf("%s is not a function", describe(fn)))
		}
	}
}

// simulateCallEntry rewrites a call that targets Function.prototype.call,
// Function.prototype.apply, Reflect.apply or Reflect.construct into the call
// it stands for. For any other entry it reports simulated == false.
func (vm *VM) simulateCallEntry(entry *NativeEntry, this JSValue, args []JSValue, flags CallFlags, held *[][]JSValue) (
	fn JSValue, newThis JSValue, newArgs []JSValue, newFlags CallFlags, simulated bool, err error,
) {
	arg := func(i int) JSValue {
		if i < len(args) {
			return args[i]
		}
		return JSUndefined{}
	}

	switch entry {
	case vm.entryCall:
		fn = this
		newThis = arg(0)
		if len(args) > 0 {
			newArgs = args[1:]
		}
		return fn, newThis, newArgs, flags, true, nil

	case vm.entryApply:
		fn = this
		newThis = arg(0)
		switch list := arg(1).(type) {
		case JSUndefined, JSNull:
		default:
			newArgs, err = vm.listFromArrayLike(list, held)
		}
		return fn, newThis, newArgs, flags, true, err

	case vm.entryReflectApply:
		fn = arg(0)
		if !isCallable(fn) {
			err = vm.ThrowError("TypeError", "Reflect.apply target is not callable")
			return
		}
		newThis = arg(1)
		newArgs, err = vm.listFromArrayLike(arg(2), held)
		return fn, newThis, newArgs, flags, true, err

	case vm.entryReflectConstruct:
		fn = arg(0)
		if obj, isObj := fn.(*JSObject); isObj && !obj.flags.has(flagConstructable) || !isCallable(fn) {
			err = vm.ThrowError("TypeError", "Reflect.construct target is not a constructor")
			return
		}
		newArgs, err = vm.listFromArrayLike(arg(1), held)
		return fn, JSUndefined{}, newArgs, CallFlags{isNew: true}, true, err

	default:
		return nil, this, args, flags, false, nil
	}
}

// listFromArrayLike returns the elements of an array-like object as an
// argument list. Array elements are borrowed. For any other object `length`
// is read without coercion and the indexed properties are read through
// getters into an owned array appended to held.
func (vm *VM) listFromArrayLike(v JSValue, held *[][]JSValue) ([]JSValue, error) {
	obj, isObj := v.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "argument list must be an object")
	}
	if obj.class == ClassArray {
		return obj.arrayPart, nil
	}

	lenVal, err := vm.GetProperty(obj, nameLength)
	if err != nil {
		return nil, err
	}
	n := intNoCoerce(lenVal)
	vm.Release(lenVal)
	if n <= 0 {
		return nil, nil
	}
	if n > maxArrayLikeArgs {
		return nil, vm.ThrowError("RangeError", "invalid count")
	}

	values, err := vm.allocValues(int(n))
	if err != nil {
		return nil, err
	}
	*held = append(*held, values)
	for i := range values {
		if values[i], err = vm.GetProperty(obj, NameStr(strconv.Itoa(i))); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// callNative runs entry in a fresh stack frame holding args. On error the
// frame is unwound, releasing everything the native pushed.
func (vm *VM) callNative(entry *NativeEntry, callee JSValue, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	st := &vm.stack
	vm.heap.incref(callee)
	vm.heap.incref(this)
	vm.frames = append(vm.frames, activation{
		entry:  entry,
		callee: callee,
		this:   this,
		flags:  flags,
		bottom: st.bottom,
	})
	st.bottom = len(st.slots)
	for _, a := range args {
		st.Push(a)
	}

	nret, err := entry.Callback(vm, flags)

	var ret JSValue = JSUndefined{}
	if err == nil && nret > 0 {
		if st.GetTop() < 1 {
			panic(fmt.Sprintf("bug: native %s returned a value from an empty frame", entry.Name))
		}
		ret = st.Steal()
	}
	if err != nil {
		vm.log.debugf("unwinding %s: %d values", entry.Name, st.GetTop())
	}
	st.SetTop(0)

	fr := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	st.bottom = fr.bottom
	vm.heap.decref(fr.this)
	vm.heap.decref(fr.callee)

	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (vm *VM) callCompiled(fn *JSObject, part *compiledPart, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	if vm.executor == nil {
		return nil, ErrNoExecutor
	}

	if !flags.isNew {
		if !fn.flags.has(flagStrict) {
			// sloppy functions see the global object instead of a missing receiver
			switch this.(type) {
			case JSUndefined, JSNull:
				this = vm.globalObject
			}
		}
		return vm.executor.Execute(vm, fn, this, args)
	}

	if !fn.flags.has(flagConstructable) {
		return nil, vm.ThrowError("TypeError", "not constructable")
	}

	protoVal, err := vm.GetProperty(fn, namePrototype)
	if err != nil {
		return nil, err
	}
	proto, isObj := protoVal.(*JSObject)
	if !isObj {
		proto = vm.protoObject
	}
	receiver := vm.heap.newObject(proto, ClassObject)
	vm.heap.incref(receiver)
	vm.Release(protoVal)

	ret, err := vm.executor.Execute(vm, fn, receiver, args)
	if err != nil {
		vm.Release(receiver)
		return nil, err
	}
	if _, retIsObj := ret.(*JSObject); retIsObj {
		vm.Release(receiver)
		return ret, nil
	}
	vm.Release(ret)
	return receiver, nil
}
