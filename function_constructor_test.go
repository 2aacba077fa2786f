package jsfunc

import (
	"strings"
	"testing"
)

func TestFunctionConstructorSource(t *testing.T) {
	tests := []struct {
		name   string
		args   []JSValue
		source string
		params []string
		length float64
	}{
		{"no args", nil, "function(){}", nil, 0},
		{"body only", []JSValue{JSString("return 1")}, "function(){return 1}", nil, 0},
		{"one param", []JSValue{JSString("a"), JSString("return a")}, "function(a){return a}", []string{"a"}, 1},
		{"two params", []JSValue{JSString("a"), JSString("b"), JSString("return a+b")}, "function(a,b){return a+b}", []string{"a", "b"}, 2},
		{"params in one string", []JSValue{JSString("a, b"), JSString("c"), JSString("")}, "function(a, b,c){}", []string{"a", "b", "c"}, 3},
		{"coerced", []JSValue{JSNumber(1.5), JSBoolean(true), JSNull{}}, "function(1.5,true){null}", nil, -1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.length < 0 {
				// the coerced text does not compile; record what reaches the compiler
				var compiled []string
				recording := compilerFunc(func(src, filename string, mode CompileMode) (*FunctionTemplate, error) {
					compiled = append(compiled, src)
					return OttoCompiler{}.Compile(src, filename, mode)
				})
				vm := newTestVM(t, Config{Compiler: recording})
				_, err := vm.Call(vm.FunctionConstructor(), JSUndefined{}, test.args...)
				pexc := expectThrow(t, err, "SyntaxError")
				vm.Release(pexc.Value())
				if len(compiled) != 1 || compiled[0] != test.source {
					t.Errorf("source: expected %q, got %q", test.source, compiled)
				}
				expectStackEmpty(t, vm)
				return
			}

			vm := newTestVM(t, Config{})

			fn := newFunction(t, vm, test.args...)
			defer vm.Release(fn)

			tmpl := fn.Template()
			if tmpl == nil {
				t.Fatalf("expected a compiled function")
			}
			if tmpl.Source != test.source {
				t.Errorf("source: expected %q, got %q", test.source, tmpl.Source)
			}
			if strings.Join(tmpl.Params, ",") != strings.Join(test.params, ",") {
				t.Errorf("params: expected %v, got %v", test.params, tmpl.Params)
			}
			expectNumber(t, getProp(t, vm, fn, "length"), test.length)
			expectStackEmpty(t, vm)
		})
	}
}

func TestFunctionConstructorNameIsAnonymous(t *testing.T) {
	vm := newTestVM(t, Config{})
	fn := newFunction(t, vm, JSString("a"), JSString("return a"))
	defer vm.Release(fn)

	expectString(t, getProp(t, vm, fn, "name"), "anonymous")

	desc, ok := fn.GetOwnPropertyDescriptor(nameName)
	if !ok {
		t.Fatalf("name is not an own property")
	}
	if desc.Writable() || desc.Enumerable() || !desc.Configurable() {
		t.Errorf("name must be configurable only")
	}
}

func TestFunctionConstructorClosure(t *testing.T) {
	vm := newTestVM(t, Config{})
	fn := newFunction(t, vm, JSString("return 1"))
	defer vm.Release(fn)

	part, isCompiled := fn.funcPart.(*compiledPart)
	if !isCompiled {
		t.Fatalf("expected a compiled function")
	}
	if part.lexEnv != vm.globalEnv || part.varEnv != vm.globalEnv {
		t.Errorf("function must close over the global environment")
	}
	if !fn.IsConstructable() {
		t.Errorf("function must be constructable")
	}
	if fn.Prototype != vm.FunctionPrototype() {
		t.Errorf("prototype must be Function.prototype")
	}

	proto, isObj := getProp(t, vm, fn, "prototype").(*JSObject)
	if !isObj {
		t.Fatalf("missing prototype object")
	}
	defer vm.Release(proto)
	ctor := getProp(t, vm, proto, "constructor")
	defer vm.Release(ctor)
	if ctor != JSValue(fn) {
		t.Errorf("prototype.constructor must point back to the function")
	}
}

func TestFunctionConstructorStrictness(t *testing.T) {
	vm := newTestVM(t, Config{})

	sloppy := newFunction(t, vm, JSString("return 1"))
	defer vm.Release(sloppy)
	if sloppy.IsStrict() {
		t.Errorf("function without directive must not be strict")
	}

	strict := newFunction(t, vm, JSString("a"), JSString(`"use strict"; return a`))
	defer vm.Release(strict)
	if !strict.IsStrict() {
		t.Errorf("function with directive must be strict")
	}
}

func TestFunctionConstructorConstructCall(t *testing.T) {
	vm := newTestVM(t, Config{})
	ret, err := vm.Construct(vm.FunctionConstructor(), JSString("x"), JSString("return x"))
	if err != nil {
		t.Fatalf("new Function: %v", err)
	}
	defer vm.Release(ret)
	fn := ret.(*JSObject)
	expectString(t, getProp(t, vm, fn, "name"), "anonymous")
	if fn.Template().Source != "function(x){return x}" {
		t.Errorf("unexpected source %q", fn.Template().Source)
	}
}

func TestFunctionConstructorSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		args []JSValue
	}{
		{"unbalanced body", []JSValue{JSString("a"), JSString("}")}},
		{"early close", []JSValue{JSString("){}, function(")}},
		{"body escapes", []JSValue{JSString("}); (function(){")}},
		{"bad param", []JSValue{JSString("a b"), JSString("")}},
		{"strict with", []JSValue{JSString(`"use strict"; with (a) {}`)}},
		{"strict duplicate params", []JSValue{JSString("a"), JSString("a"), JSString(`"use strict"`)}},
		{"strict eval param", []JSValue{JSString("eval"), JSString(`"use strict"`)}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vm := newTestVM(t, Config{})
			_, err := vm.Call(vm.FunctionConstructor(), JSUndefined{}, test.args...)
			pexc := expectThrow(t, err, "SyntaxError")
			vm.Release(pexc.Value())
			expectStackEmpty(t, vm)
		})
	}
}

func TestFunctionConstructorSymbolArgument(t *testing.T) {
	vm := newTestVM(t, Config{})
	_, err := vm.Call(vm.FunctionConstructor(), JSUndefined{}, JSString("a"), NewSymbol("body"))
	expectThrow(t, err, "TypeError")
	expectStackEmpty(t, vm)
}

func TestFunctionConstructorCoercesObjects(t *testing.T) {
	vm := newTestVM(t, Config{})

	body := vm.NewObject()
	vm.Retain(body)
	defer vm.Release(body)
	vm.DefineProperty(body, nameToString, vm.NewNativeFunction("toString", 0, func(vm *VM, flags CallFlags) (int, error) {
		vm.stack.PushString("return 42")
		return 1, nil
	}), PropFlagsWC)

	fn := newFunction(t, vm, body)
	defer vm.Release(fn)
	if fn.Template().Source != "function(){return 42}" {
		t.Errorf("unexpected source %q", fn.Template().Source)
	}
}

func TestFunctionConstructorCompilerFailure(t *testing.T) {
	failing := compilerFunc(func(src, filename string, mode CompileMode) (*FunctionTemplate, error) {
		return nil, &SyntaxError{Msg: "nope"}
	})
	vm := newTestVM(t, Config{Compiler: failing})

	_, err := vm.Call(vm.FunctionConstructor(), JSUndefined{}, JSString("return 1"))
	pexc := expectThrow(t, err, "SyntaxError")
	if pexc.Message() != "nope" {
		t.Errorf("compiler message must propagate unchanged, got %q", pexc.Message())
	}
	expectStackEmpty(t, vm)
}

func TestFunctionFileName(t *testing.T) {
	vm := newTestVM(t, Config{FuncFileNameProperty: true})
	fn := newFunction(t, vm, JSString("return 1"))
	defer vm.Release(fn)
	expectString(t, getProp(t, vm, fn, "fileName"), "<function>")

	plain := newTestVM(t, Config{})
	fn2 := newFunction(t, plain, JSString("return 1"))
	defer plain.Release(fn2)
	if fn2.HasOwnProperty(nameFileName) {
		t.Errorf("fileName must be absent unless enabled")
	}
}

type compilerFunc func(src, filename string, mode CompileMode) (*FunctionTemplate, error)

func (f compilerFunc) Compile(src, filename string, mode CompileMode) (*FunctionTemplate, error) {
	return f(src, filename, mode)
}

func TestFunctionPrototypeCycle(t *testing.T) {
	vm := newTestVM(t, Config{})
	before := vm.Heap().Stats().Live

	kept := newFunction(t, vm, JSString(""))
	vm.Release(kept)
	if got := vm.Heap().Stats().Live - before; got != 2 {
		t.Errorf("function and prototype must keep each other alive, %d live", got)
	}

	before = vm.Heap().Stats().Live
	fn := newFunction(t, vm, JSString(""))
	proto := getProp(t, vm, fn, "prototype")
	if !proto.(*JSObject).DeleteProperty(nameConstructor) {
		t.Fatalf("constructor must be configurable")
	}
	vm.Release(proto)
	vm.Release(fn)
	if after := vm.Heap().Stats().Live; after != before {
		t.Errorf("cutting the cycle must free the pair: %d live before, %d after", before, after)
	}
}
