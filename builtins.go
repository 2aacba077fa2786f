package jsfunc

// initBuiltins creates the objects every VM starts with. The VM keeps one
// reference to each root so that none of them is ever finalized.
func (vm *VM) initBuiltins() {
	h := vm.heap
	pin := func(obj *JSObject) *JSObject {
		h.incref(obj)
		return obj
	}

	vm.protoObject = pin(h.newObject(nil, ClassObject))

	// Function.prototype is itself callable and returns undefined
	vm.protoFunction = pin(vm.newNativeObject(vm.protoObject, &NativeEntry{
		Name:     "Function.prototype",
		Callback: func(*VM, CallFlags) (int, error) { return 0, nil },
	}, 0))
	vm.DefineProperty(vm.protoFunction, nameLength, JSNumber(0), PropFlagsC)
	vm.DefineProperty(vm.protoFunction, nameName, JSString(""), PropFlagsC)

	// %NativeFunctionPrototype% carries the length/name accessors shared by
	// every native function
	vm.protoNativeFunction = pin(h.newObject(vm.protoFunction, ClassObject))
	lengthGetter := vm.NewNativeFunction("length", 0, nativeFunctionLength)
	nameGetter := vm.NewNativeFunction("name", 0, nativeFunctionName)
	vm.DefineAccessor(vm.protoNativeFunction, nameLength, lengthGetter, nil, PropFlagsC)
	vm.DefineAccessor(vm.protoNativeFunction, nameName, nameGetter, nil, PropFlagsC)

	vm.thrower = pin(vm.newNativeObject(vm.protoFunction, &NativeEntry{
		Name:     "ThrowTypeError",
		Callback: typeErrorThrower,
	}, 0))
	vm.thrower.flags |= flagStrict

	vm.protoArray = pin(h.newObject(vm.protoObject, ClassArray))
	vm.protoArray.arrayPart = []JSValue{}

	vm.errorProtos = make(map[string]*JSObject)
	errorProto := pin(h.newObject(vm.protoObject, ClassError))
	vm.DefineProperty(errorProto, NameStr("name"), JSString("Error"), PropFlagsWC)
	vm.DefineProperty(errorProto, nameMessage, JSString(""), PropFlagsWC)
	vm.errorProtos["Error"] = errorProto
	for _, className := range []string{"TypeError", "RangeError", "SyntaxError", "ReferenceError"} {
		proto := pin(h.newObject(errorProto, ClassError))
		vm.DefineProperty(proto, NameStr("name"), JSString(className), PropFlagsWC)
		vm.errorProtos[className] = proto
	}

	vm.globalObject = pin(h.newObject(vm.protoObject, ClassObject))
	vm.globalEnv = pin(vm.newEnvironment(vm.globalObject, nil))

	// Function constructor
	vm.functionConstructor = pin(vm.NewNativeFunction("Function", NargsVarargs, functionConstructor))
	vm.functionConstructor.flags |= flagConstructable
	vm.DefineProperty(vm.functionConstructor, namePrototype, vm.protoFunction, PropFlagsNone)
	vm.DefineProperty(vm.protoFunction, nameConstructor, vm.functionConstructor, PropFlagsWC)
	vm.DefineProperty(vm.globalObject, NameStr("Function"), vm.functionConstructor, PropFlagsWC)

	vm.entryCall = &NativeEntry{Name: "call", Callback: callSentinel}
	vm.entryApply = &NativeEntry{Name: "apply", Callback: callSentinel}
	vm.entryReflectApply = &NativeEntry{Name: "Reflect.apply", Callback: callSentinel}
	vm.entryReflectConstruct = &NativeEntry{Name: "Reflect.construct", Callback: callSentinel}

	fp := vm.protoFunction
	vm.DefineProperty(fp, NameStr("toString"), vm.NewNativeFunction("toString", 0, functionPrototypeToString), PropFlagsWC)
	vm.DefineProperty(fp, NameStr("bind"), vm.NewNativeFunction("bind", 1, functionPrototypeBind), PropFlagsWC)
	vm.DefineProperty(fp, NameStr("call"), vm.newNativeObject(vm.protoNativeFunction, vm.entryCall, 1), PropFlagsWC)
	vm.DefineProperty(fp, NameStr("apply"), vm.newNativeObject(vm.protoNativeFunction, vm.entryApply, 2), PropFlagsWC)

	reflect := h.newObject(vm.protoObject, ClassObject)
	vm.DefineProperty(reflect, NameStr("apply"), vm.newNativeObject(vm.protoNativeFunction, vm.entryReflectApply, 3), PropFlagsWC)
	vm.DefineProperty(reflect, NameStr("construct"), vm.newNativeObject(vm.protoNativeFunction, vm.entryReflectConstruct, 2), PropFlagsWC)
	vm.DefineProperty(vm.globalObject, NameStr("Reflect"), reflect, PropFlagsWC)

	vm.DefineProperty(vm.protoObject, NameStr("toString"), vm.NewNativeFunction("toString", 0, objectPrototypeToString), PropFlagsWC)
}

// newNativeObject allocates a native function object; it starts unowned.
func (vm *VM) newNativeObject(proto *JSObject, entry *NativeEntry, nargs int) *JSObject {
	fn := vm.heap.newObject(proto, ClassFunction)
	fn.funcPart = &nativePart{entry: entry, nargs: nargs}
	fn.flags |= flagStrict
	return fn
}

// NewNativeFunction wraps cb as a native function object. nargs is the
// declared argument count or NargsVarargs. The returned object is unowned
// until it is stored or retained.
func (vm *VM) NewNativeFunction(name string, nargs int, cb NativeCallback) *JSObject {
	return vm.newNativeObject(vm.protoNativeFunction, &NativeEntry{Name: name, Callback: cb}, nargs)
}

// NewJSArray creates an array holding a reference to each element. The
// array itself starts unowned.
func (vm *VM) NewJSArray(elems ...JSValue) *JSObject {
	arr := vm.heap.newObject(vm.protoArray, ClassArray)
	arr.arrayPart = make([]JSValue, len(elems))
	vm.heap.copyValuesIncref(arr.arrayPart, elems)
	return arr
}

// NewObject creates an ordinary object inheriting from Object.prototype.
func (vm *VM) NewObject() *JSObject {
	return vm.heap.newObject(vm.protoObject, ClassObject)
}

func (vm *VM) newEnvironment(target *JSObject, outer *JSObject) *JSObject {
	env := vm.heap.newObject(nil, ClassEnvironment)
	env.envPart = &envPart{target: target, outer: outer}
	if target != nil {
		vm.heap.incref(target)
	}
	if outer != nil {
		vm.heap.incref(outer)
	}
	return env
}

// pushClosure instantiates tmpl over the given environments and pushes the
// resulting function.
func (vm *VM) pushClosure(tmpl *FunctionTemplate, varEnv, lexEnv *JSObject) *JSObject {
	fn := vm.heap.newObject(vm.protoFunction, ClassFunction)
	fn.flags |= flagConstructable
	if tmpl.Strict {
		fn.flags |= flagStrict
	}
	vm.heap.incref(lexEnv)
	vm.heap.incref(varEnv)
	fn.funcPart = &compiledPart{
		template: tmpl,
		lexEnv:   lexEnv,
		varEnv:   varEnv,
	}
	vm.stack.Push(fn)

	vm.DefineProperty(fn, nameLength, JSNumber(len(tmpl.Params)), PropFlagsC)
	vm.DefineProperty(fn, nameName, JSString(tmpl.Name), PropFlagsC)
	if vm.cfg.FuncFileNameProperty {
		vm.DefineProperty(fn, nameFileName, JSString(tmpl.Filename), PropFlagsC)
	}

	// fn and proto reference each other, so the pair stays live until the
	// link is cut, e.g. by deleting proto.constructor.
	proto := vm.heap.newObject(vm.protoObject, ClassObject)
	vm.DefineProperty(proto, nameConstructor, fn, PropFlagsWC)
	vm.DefineProperty(fn, namePrototype, proto, PropFlagsW)
	return fn
}
