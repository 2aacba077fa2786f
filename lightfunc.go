package jsfunc

import (
	"fmt"
)

// LightFuncFlags packs a light function's magic (high 8 bits), length
// (bits 4-7) and nargs (bits 0-3, 0xf meaning varargs).
type LightFuncFlags uint16

const (
	lfuncNargsVarargs = 0x0f
	lfuncNargsMax     = 0x0e
	lfuncLengthMax    = 0x0f
)

func makeLightFuncFlags(magic int8, length int, nargs int) LightFuncFlags {
	var n int
	if nargs == NargsVarargs {
		n = lfuncNargsVarargs
	} else {
		n = nargs & 0x0f
	}
	return LightFuncFlags(uint16(uint8(magic))<<8 | uint16(length&0x0f)<<4 | uint16(n))
}

func (f LightFuncFlags) Nargs() int {
	n := int(f & 0x0f)
	if n == lfuncNargsVarargs {
		return NargsVarargs
	}
	return n
}

func (f LightFuncFlags) Length() int { return int(f>>4) & 0x0f }

func (f LightFuncFlags) Magic() int8 { return int8(uint8(f >> 8)) }

// JSLightFunc is a callable packed directly into a value: no heap object,
// no own properties, never refcounted.
type JSLightFunc struct {
	entry *NativeEntry
	flags LightFuncFlags
}

func (v JSLightFunc) Category() JSVCategory { return VLightFunc }

func (v JSLightFunc) Flags() LightFuncFlags { return v.flags }

func (v JSLightFunc) Length() int { return v.flags.Length() }

func (v JSLightFunc) Name() string {
	entryName := ""
	if v.entry != nil {
		entryName = v.entry.Name
	}
	return fmt.Sprintf("light_%s_%04x", entryName, uint16(v.flags))
}

func lightFuncToString(lf JSLightFunc) string {
	return fmt.Sprintf("function %s() { [lightfunc code] }", lf.Name())
}

// NewLightFunc packs a native entry into a light function value. nargs is
// 0..14 or NargsVarargs; length is 0..15.
func NewLightFunc(name string, nargs int, length int, magic int8, cb NativeCallback) (JSLightFunc, error) {
	if cb == nil {
		return JSLightFunc{}, fmt.Errorf("light function %q: nil callback", name)
	}
	if nargs != NargsVarargs && (nargs < 0 || nargs > lfuncNargsMax) {
		return JSLightFunc{}, fmt.Errorf("light function %q: nargs %d out of range", name, nargs)
	}
	if length < 0 || length > lfuncLengthMax {
		return JSLightFunc{}, fmt.Errorf("light function %q: length %d out of range", name, length)
	}
	return JSLightFunc{
		entry: &NativeEntry{Name: name, Callback: cb},
		flags: makeLightFuncFlags(magic, length, nargs),
	}, nil
}
