package jsfunc

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoExecutor = errors.New("no executor configured for compiled functions")

// ProgramException is a thrown ECMAScript value travelling as a Go error.
// The exception owns one reference to the thrown value; whoever consumes the
// error drops it with (*VM).ReleaseError, or Release(Value()), after the
// last use of Name, Message or Error.
type ProgramException struct {
	exceptionValue JSValue
	context        ProgramContext
}

// Value is the thrown value, borrowed from the exception.
func (pexc ProgramException) Value() JSValue { return pexc.exceptionValue }

// Name is the `name` of the thrown error object ("TypeError", ...), or the
// empty string when a non-error value was thrown.
func (pexc ProgramException) Name() string {
	return pexc.dataString(NameStr("name"))
}

func (pexc ProgramException) Message() string {
	if excStr, isStr := pexc.exceptionValue.(JSString); isStr {
		return string(excStr)
	}
	return pexc.dataString(nameMessage)
}

// dataString reads a string data property along the prototype chain without
// running getters, so that formatting an error can never throw.
func (pexc ProgramException) dataString(name Name) string {
	excObj, isObj := pexc.exceptionValue.(*JSObject)
	if !isObj {
		return ""
	}
	d, _ := excObj.lookupDescriptor(name)
	if d == nil || d.IsAccessor() {
		return ""
	}
	if s, isStr := d.value.(JSString); isStr {
		return string(s)
	}
	return ""
}

func (pexc ProgramException) Error() string {
	msg := pexc.Message()
	if name := pexc.Name(); name != "" {
		msg = name + ": " + msg
	}

	lines := make([]string, 1+len(pexc.context.stack))
	lines[0] = fmt.Sprintf("JS exception: %s", msg)
	for i, item := range pexc.context.stack {
		lines[1+i] = fmt.Sprintf(" JS @ %s", item)
	}
	return strings.Join(lines, "\n")
}

// ProgramContext is a snapshot of the native call chain at throw time,
// innermost first.
type ProgramContext struct {
	stack []string
}

func (vm *VM) snapshotContext() ProgramContext {
	ctx := ProgramContext{stack: make([]string, 0, len(vm.frames))}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		ctx.stack = append(ctx.stack, vm.frames[i].entry.Name)
	}
	return ctx
}

// ThrowError builds an error object of the given class and wraps it for
// propagation. Unknown class names produce a plain Error.
func (vm *VM) ThrowError(className string, message string) error {
	proto, known := vm.errorProtos[className]
	if !known {
		proto = vm.errorProtos["Error"]
	}
	exc := vm.heap.newObject(proto, ClassError)
	exc.defineOwnProperty(nameMessage, dataDescriptor(JSString(message), PropFlagsWC))
	// the Go error value holds the only reference to the thrown object
	vm.heap.incref(exc)

	vm.log.debugf("throw %s: %s", className, message)
	return ProgramException{
		exceptionValue: exc,
		context:        vm.snapshotContext(),
	}
}

// Throw wraps an arbitrary value as a thrown exception.
func (vm *VM) Throw(excValue JSValue) error {
	vm.heap.incref(excValue)
	return ProgramException{
		exceptionValue: excValue,
		context:        vm.snapshotContext(),
	}
}

// ReleaseError drops the reference held by a ProgramException anywhere in
// err's chain. Other errors are ignored.
func (vm *VM) ReleaseError(err error) {
	var pexc ProgramException
	if errors.As(err, &pexc) {
		vm.heap.decref(pexc.exceptionValue)
	}
}

// IsErrorKind reports whether err is a thrown error object named kind.
func IsErrorKind(err error, kind string) bool {
	var pexc ProgramException
	if !errors.As(err, &pexc) {
		return false
	}
	return pexc.Name() == kind
}

// SyntaxError is produced by a Compiler when source text does not parse.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}
