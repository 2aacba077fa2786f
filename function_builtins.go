package jsfunc

import (
	"fmt"
	"math"
)

// functionConstructor implements `Function(p1, ..., pn, body)`. Called as a
// function and as a constructor it behaves the same.
func functionConstructor(vm *VM, flags CallFlags) (int, error) {
	st := &vm.stack

	nargs := st.GetTop()
	for i := 0; i < nargs; i++ {
		if _, err := vm.toStringAt(i); err != nil {
			return 0, err
		}
	}

	switch nargs {
	case 0:
		st.PushString("")
		st.PushString("")
	case 1:
		st.PushString("")
	default:
		// [arg1 ... argN-1 body] -> [body "," arg1 ... argN-1] -> [body formals]
		st.Insert(0)
		st.PushString(",")
		st.Insert(1)
		if err := vm.join(nargs - 1); err != nil {
			return 0, err
		}
	}

	// [body formals]
	st.assertTop(2)

	st.PushString("function(")
	st.Dup(1)
	st.PushString("){")
	st.Dup(0)
	st.PushString("}")
	if err := vm.concat(5); err != nil {
		return 0, err
	}

	// [body formals source]
	st.assertTop(3)

	src, err := vm.requireString(-1)
	if err != nil {
		return 0, err
	}

	// strictness of the caller is never inherited
	tmpl, err := vm.compiler.Compile(src, "<function>", CompileFuncExpr)
	if err != nil {
		return 0, vm.compileError(err)
	}
	vm.log.debugf("Function(): compiled %q", src)

	vm.pushClosure(tmpl, vm.globalEnv, vm.globalEnv)

	st.PushString("anonymous")
	vm.defPropTop(-2, nameName, PropFlagsC)
	return 1, nil
}

// compileError converts a compiler failure into a thrown SyntaxError.
// Anything that is not a *SyntaxError is passed through unchanged.
func (vm *VM) compileError(err error) error {
	if serr, ok := err.(*SyntaxError); ok {
		return vm.ThrowError("SyntaxError", serr.Msg)
	}
	return err
}

// functionPrototypeToString renders a function as text that is guaranteed
// not to parse back into a function.
func functionPrototypeToString(vm *VM, flags CallFlags) (int, error) {
	st := &vm.stack
	vm.pushThis()

	switch this := st.Get(-1).(type) {
	case *JSObject:
		var kind string
		switch this.funcPart.(type) {
		case *compiledPart:
			kind = "ecmascript code"
		case *nativePart:
			kind = "native code"
		case *boundPart:
			kind = "bound code"
		default:
			return 0, vm.ThrowError("TypeError", "Function.prototype.toString requires a function")
		}

		if err := vm.getPropAt(-1, nameName); err != nil {
			return 0, err
		}
		name := ""
		if _, isUndef := st.Get(-1).(JSUndefined); !isUndef {
			s, err := vm.toStringAt(-1)
			if err != nil {
				return 0, err
			}
			name = s
		}
		st.PushString(fmt.Sprintf("function %s() { [%s] }", name, kind))

	case JSLightFunc:
		st.PushString(lightFuncToString(this))

	default:
		return 0, vm.ThrowError("TypeError", "Function.prototype.toString requires a function")
	}
	return 1, nil
}

// functionPrototypeBind creates a bound function. A bound target is
// flattened: the new function points at the innermost target and carries
// the merged argument list.
func functionPrototypeBind(vm *VM, flags CallFlags) (int, error) {
	st := &vm.stack
	maxArgs := vm.cfg.MaxBoundArgs

	// bound arguments, not counting thisArg
	nargs := st.GetTop() - 1
	if nargs < 0 {
		nargs++
		st.PushUndefined()
	}
	if nargs > maxArgs {
		return 0, vm.ThrowError("RangeError", "invalid count")
	}

	vm.pushThis()
	if err := vm.requireCallable(-1); err != nil {
		return 0, err
	}

	// [thisArg arg1 ... argN func]
	st.assertTop(nargs + 2)

	bound := vm.heap.newObject(nil, ClassFunction)
	part := &boundPart{
		this:   st.Get(0),
		target: st.Get(-1),
	}
	// an empty part until the argument array is attached
	bound.funcPart = &boundPart{target: JSUndefined{}, this: JSUndefined{}}
	st.Push(bound)

	// [thisArg arg1 ... argN func bound]
	var prevArgs []JSValue
	switch target := part.target.(type) {
	case *JSObject:
		vm.heap.setPrototype(bound, target.Prototype)
		if target.flags.has(flagStrict) {
			bound.flags |= flagStrict
		}
		if target.flags.has(flagConstructable) {
			bound.flags |= flagConstructable
		}
		if inner, isBound := target.funcPart.(*boundPart); isBound {
			if obj, isObj := inner.target.(*JSObject); isObj && obj.IsBound() {
				panic("bug: bound function target is itself bound")
			}
			part.target = inner.target
			part.this = inner.this
			prevArgs = inner.args
		}

	case JSLightFunc:
		// light functions are always strict
		bound.flags |= flagStrict | flagConstructable
		vm.heap.setPrototype(bound, vm.protoFunction)

	default:
		panic("bug: callable receiver is neither an object nor a light function")
	}

	boundNargs := len(prevArgs) + nargs
	if boundNargs > maxArgs {
		return 0, vm.ThrowError("RangeError", "invalid count")
	}
	args, err := vm.allocValues(boundNargs)
	if err != nil {
		return 0, err
	}
	vm.heap.copyValuesIncref(args, prevArgs)
	vm.heap.copyValuesIncref(args[len(prevArgs):], st.view(1, nargs))

	vm.heap.incref(part.target)
	vm.heap.incref(part.this)
	part.args = args
	bound.funcPart = part

	// length is read from the receiver without coercion
	if err := vm.getPropAt(-2, nameLength); err != nil {
		return 0, err
	}
	boundLen := intNoCoerce(st.Get(-1))
	st.Pop()
	if boundLen < int64(nargs) {
		boundLen = 0
	} else {
		boundLen -= int64(nargs)
	}
	if boundLen > math.MaxUint32 {
		boundLen = math.MaxUint32
	}
	st.Push(JSNumber(boundLen))
	vm.defPropTop(-2, nameLength, PropFlagsC)

	// caller and arguments share the same thrower
	vm.defThrowerAt(-1, nameCaller)
	vm.defThrowerAt(-1, nameArguments)

	st.PushString("bound ")
	if err := vm.getPropAt(-3, nameName); err != nil {
		return 0, err
	}
	if _, isStr := st.Get(-1).(JSString); !isStr {
		st.Pop()
		st.PushString("")
	}
	if err := vm.concat(2); err != nil {
		return 0, err
	}
	vm.defPropTop(-2, nameName, PropFlagsC)

	if vm.cfg.FuncFileNameProperty {
		if err := vm.getPropAt(-2, nameFileName); err != nil {
			return 0, err
		}
		vm.defPropTop(-2, nameFileName, PropFlagsC)
	}

	vm.log.debugf("bind: %d bound args (%d inherited), length %d", boundNargs, len(prevArgs), boundLen)
	return 1, nil
}

// nativeFunctionLength is the `length` getter shared by native functions.
func nativeFunctionLength(vm *VM, flags CallFlags) (int, error) {
	switch this := vm.This().(type) {
	case *JSObject:
		part, isNative := this.funcPart.(*nativePart)
		if !isNative {
			break
		}
		n := part.nargs
		if n == NargsVarargs {
			n = 0
		}
		vm.stack.Push(JSNumber(n))
		return 1, nil

	case JSLightFunc:
		vm.stack.Push(JSNumber(this.Length()))
		return 1, nil
	}
	return 0, vm.ThrowError("TypeError", "invalid args")
}

// nativeFunctionName is the `name` getter shared by native functions. Native
// functions do not record their name, so it reads as the empty string.
func nativeFunctionName(vm *VM, flags CallFlags) (int, error) {
	switch this := vm.This().(type) {
	case *JSObject:
		if _, isNative := this.funcPart.(*nativePart); !isNative {
			break
		}
		vm.stack.PushString("")
		return 1, nil

	case JSLightFunc:
		vm.stack.PushString(this.Name())
		return 1, nil
	}
	return 0, vm.ThrowError("TypeError", "invalid args")
}

// callSentinel is the body of call, apply, Reflect.apply and
// Reflect.construct. The dispatcher simulates those functions, so this only
// runs when an entry is invoked without going through it.
func callSentinel(vm *VM, flags CallFlags) (int, error) {
	return 0, vm.ThrowError("TypeError", "call handled by the dispatcher was entered directly")
}

func typeErrorThrower(vm *VM, flags CallFlags) (int, error) {
	return 0, vm.ThrowError("TypeError", "'caller' and 'arguments' are restricted on this function")
}

func objectPrototypeToString(vm *VM, flags CallFlags) (int, error) {
	var tag string
	switch this := vm.This().(type) {
	case JSUndefined:
		tag = "Undefined"
	case JSNull:
		tag = "Null"
	case JSLightFunc:
		tag = "Function"
	case *JSObject:
		tag = this.class.String()
	case JSString:
		tag = "String"
	case JSNumber:
		tag = "Number"
	case JSBoolean:
		tag = "Boolean"
	case JSSymbol:
		tag = "Symbol"
	default:
		tag = "Object"
	}
	vm.stack.PushString("[object " + tag + "]")
	return 1, nil
}
