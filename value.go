package jsfunc

import (
	"fmt"
)

type JSValue interface {
	Category() JSVCategory
}

type JSVCategory uint8

const (
	VUndefined JSVCategory = iota
	VNull
	VNumber
	VBoolean
	VString
	VSymbol
	VObject
	VFunction
	VLightFunc
)

func (c JSVCategory) String() string {
	switch c {
	case VUndefined:
		return "undefined"
	case VNull:
		return "null"
	case VNumber:
		return "number"
	case VBoolean:
		return "boolean"
	case VString:
		return "string"
	case VSymbol:
		return "symbol"
	case VObject:
		return "object"
	case VFunction, VLightFunc:
		return "function"
	default:
		return fmt.Sprintf("JSVCategory(%d)", uint8(c))
	}
}

type JSUndefined struct{}

func (v JSUndefined) Category() JSVCategory { return VUndefined }

type JSNull struct{}

func (v JSNull) Category() JSVCategory { return VNull }

type JSNumber float64

func (v JSNumber) Category() JSVCategory { return VNumber }

type JSBoolean bool

func (v JSBoolean) Category() JSVCategory { return VBoolean }

type JSString string

func (v JSString) Category() JSVCategory { return VString }

// JSSymbol compares by identity: two symbols with the same description are
// still distinct values.
type JSSymbol struct {
	*symbolData
}

type symbolData struct {
	description string
}

func NewSymbol(description string) JSSymbol {
	return JSSymbol{&symbolData{description: description}}
}

func (v JSSymbol) Category() JSVCategory { return VSymbol }

func (v JSSymbol) Description() string {
	if v.symbolData == nil {
		return ""
	}
	return v.description
}

// Name is a property key: either a plain string or a symbol.
type Name struct {
	string
	symbol *symbolData
}

func (n Name) String() string {
	if n.symbol != nil {
		return fmt.Sprintf("@@%s", n.symbol.description)
	}
	return n.string
}

func (n Name) IsSymbol() bool { return n.symbol != nil }

func NameStr(s string) Name {
	return Name{string: s}
}

func NameSym(sym JSSymbol) Name {
	return Name{string: sym.Description(), symbol: sym.symbolData}
}

var (
	nameLength      = NameStr("length")
	nameName        = NameStr("name")
	namePrototype   = NameStr("prototype")
	nameConstructor = NameStr("constructor")
	nameCaller      = NameStr("caller")
	nameArguments   = NameStr("arguments")
	nameFileName    = NameStr("fileName")
	nameMessage     = NameStr("message")
	nameToString    = NameStr("toString")
	nameValueOf     = NameStr("valueOf")
)

// isCallable reports whether v can be the target of a call.
func isCallable(v JSValue) bool {
	switch v := v.(type) {
	case JSLightFunc:
		return true
	case *JSObject:
		return v.funcPart != nil
	default:
		return false
	}
}

func describe(v JSValue) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case JSUndefined:
		return "undefined"
	case JSNull:
		return "null"
	case JSBoolean:
		if v {
			return "true"
		}
		return "false"
	case JSNumber:
		return numberToString(float64(v))
	case JSString:
		return fmt.Sprintf("%q", string(v))
	case JSSymbol:
		return fmt.Sprintf("Symbol(%s)", v.Description())
	case JSLightFunc:
		return fmt.Sprintf("<lightfunc %s>", v.Name())
	case *JSObject:
		return fmt.Sprintf("<%s refs=%d>", v.class, v.refcount)
	default:
		return fmt.Sprintf("%#v", v)
	}
}
