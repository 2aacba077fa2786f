package jsfunc

import (
	"errors"
	"io"
	"testing"
)

func newTestVM(t *testing.T, cfg Config) *VM {
	t.Helper()
	if cfg.LogOutput == nil {
		cfg.LogOutput = io.Discard
	}
	vm, err := NewVM(cfg)
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	return vm
}

// expectThrow checks that err is a thrown error object of the given kind.
func expectThrow(t *testing.T, err error, kind string) ProgramException {
	t.Helper()
	var pexc ProgramException
	if !errors.As(err, &pexc) {
		t.Fatalf("expected %s to be thrown, got %v", kind, err)
	}
	if pexc.Name() != kind {
		t.Fatalf("expected %s, got %s: %s", kind, pexc.Name(), pexc.Message())
	}
	return pexc
}

// retainedNative creates a native function the test owns a reference to.
func retainedNative(t *testing.T, vm *VM, name string, nargs int, cb NativeCallback) *JSObject {
	t.Helper()
	fn := vm.NewNativeFunction(name, nargs, cb)
	vm.Retain(fn)
	return fn
}

// newFunction calls the Function constructor and expects a function back.
func newFunction(t *testing.T, vm *VM, args ...JSValue) *JSObject {
	t.Helper()
	ret, err := vm.Call(vm.FunctionConstructor(), JSUndefined{}, args...)
	if err != nil {
		t.Fatalf("Function(%v): %v", args, err)
	}
	fn, isObj := ret.(*JSObject)
	if !isObj {
		t.Fatalf("Function() returned %s", describe(ret))
	}
	return fn
}

func callMethod(vm *VM, this JSValue, method string, args ...JSValue) (JSValue, error) {
	fn, err := vm.GetProperty(this, NameStr(method))
	if err != nil {
		return nil, err
	}
	defer vm.Release(fn)
	return vm.Call(fn, this, args...)
}

func bindFunction(t *testing.T, vm *VM, target JSValue, args ...JSValue) *JSObject {
	t.Helper()
	ret, err := callMethod(vm, target, "bind", args...)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	bound, isObj := ret.(*JSObject)
	if !isObj || !bound.IsBound() {
		t.Fatalf("bind returned %s", describe(ret))
	}
	return bound
}

func getProp(t *testing.T, vm *VM, target JSValue, name string) JSValue {
	t.Helper()
	v, err := vm.GetProperty(target, NameStr(name))
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v
}

func expectString(t *testing.T, v JSValue, expected string) {
	t.Helper()
	s, isStr := v.(JSString)
	if !isStr {
		t.Fatalf("expected string %q, got %s", expected, describe(v))
	}
	if string(s) != expected {
		t.Fatalf("expected %q, got %q", expected, string(s))
	}
}

func expectNumber(t *testing.T, v JSValue, expected float64) {
	t.Helper()
	n, isNum := v.(JSNumber)
	if !isNum {
		t.Fatalf("expected number %v, got %s", expected, describe(v))
	}
	if float64(n) != expected {
		t.Fatalf("expected %v, got %v", expected, float64(n))
	}
}

func expectStackEmpty(t *testing.T, vm *VM) {
	t.Helper()
	if depth := vm.StackDepth(); depth != 0 {
		t.Fatalf("stack not empty: %d values left", depth)
	}
	if len(vm.frames) != 0 {
		t.Fatalf("call frames left: %d", len(vm.frames))
	}
}

// recordingExecutor stands in for the body of compiled functions.
type recordingExecutor struct {
	calls []recordedCall
	ret   JSValue
}

type recordedCall struct {
	fn   *JSObject
	this JSValue
	args []JSValue
}

func (r *recordingExecutor) Execute(vm *VM, fn *JSObject, this JSValue, args []JSValue) (JSValue, error) {
	r.calls = append(r.calls, recordedCall{
		fn:   fn,
		this: this,
		args: append([]JSValue(nil), args...),
	})
	if r.ret == nil {
		return JSUndefined{}, nil
	}
	vm.Retain(r.ret)
	return r.ret, nil
}
