package jsfunc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type PrimCoerceOrder uint8

const (
	PrimCoerceValueOfFirst PrimCoerceOrder = iota
	PrimCoerceToStringFirst
)

// ToPrimitive converts objects and light functions by calling their
// toString/valueOf methods; other values are returned unchanged.
func (vm *VM) ToPrimitive(value JSValue, order PrimCoerceOrder) (JSValue, error) {
	switch value.(type) {
	case *JSObject, JSLightFunc:
	default:
		return value, nil
	}

	var callOrder []Name
	switch order {
	case PrimCoerceValueOfFirst:
		callOrder = []Name{nameValueOf, nameToString}
	case PrimCoerceToStringFirst:
		callOrder = []Name{nameToString, nameValueOf}
	default:
		return nil, fmt.Errorf("invalid order (only allowed are PrimCoerceToStringFirst, PrimCoerceValueOfFirst)")
	}

	for _, methodName := range callOrder {
		method, err := vm.GetProperty(value, methodName)
		if err != nil {
			return nil, err
		}
		if !isCallable(method) {
			vm.Release(method)
			continue
		}

		ret, err := vm.Call(method, value)
		vm.Release(method)
		if err != nil {
			return nil, err
		}
		switch ret.(type) {
		case *JSObject, JSLightFunc:
			vm.Release(ret)
			continue
		default:
			return ret, nil
		}
	}
	return nil, vm.ThrowError("TypeError", "value can't be converted to a primitive")
}

// ToString implements the ECMAScript ToString conversion. Symbols are
// rejected with a TypeError.
func (vm *VM) ToString(val JSValue) (string, error) {
	switch val := val.(type) {
	case JSString:
		return string(val), nil
	case JSSymbol:
		return "", vm.ThrowError("TypeError", "cannot convert a Symbol value to a string")
	case JSUndefined:
		return "undefined", nil
	case JSNull:
		return "null", nil
	case JSBoolean:
		if val {
			return "true", nil
		} else {
			return "false", nil
		}
	case JSNumber:
		return numberToString(float64(val)), nil
	case *JSObject, JSLightFunc:
		prim, err := vm.ToPrimitive(val, PrimCoerceToStringFirst)
		if err != nil {
			return "", err
		}
		return vm.ToString(prim)
	default:
		panic(fmt.Sprintf("bug: invalid type for ToString operand: %T", val))
	}
}

func ToBoolean(value JSValue) bool {
	switch v := value.(type) {
	case JSBoolean:
		return bool(v)
	case JSNull, JSUndefined:
		return false
	case JSNumber:
		return v != 0.0 && !math.IsNaN(float64(v))
	case JSString:
		return v != ""
	case *JSObject, JSSymbol, JSLightFunc:
		return true
	default:
		panic(fmt.Sprintf("ToBoolean: invalid value type: %#v", value))
	}
}

func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, +1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// covers -0 as well
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// exponent form: 1e+21, 1.5e-7
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + string(sign) + digits
}

// StrictEqual implements the === comparison.
func StrictEqual(left, right JSValue) bool {
	switch leftV := left.(type) {
	case JSBoolean:
		rightV, isSame := right.(JSBoolean)
		return isSame && leftV == rightV
	case JSNumber:
		rightV, isSame := right.(JSNumber)
		return isSame && leftV == rightV
	case JSString:
		rightV, isSame := right.(JSString)
		return isSame && leftV == rightV
	case JSSymbol:
		rightV, isSame := right.(JSSymbol)
		return isSame && leftV.symbolData == rightV.symbolData
	case *JSObject:
		rightV, isSame := right.(*JSObject)
		return isSame && leftV == rightV
	case JSLightFunc:
		rightV, isSame := right.(JSLightFunc)
		return isSame && leftV == rightV
	case JSNull:
		_, isSame := right.(JSNull)
		return isSame
	case JSUndefined:
		_, isSame := right.(JSUndefined)
		return isSame
	default:
		panic(fmt.Sprintf("unexpected value for strict equal comparison: %#v", left))
	}
}

// intNoCoerce reads a number as an integer without any type coercion:
// non-numbers and NaN read as 0, out-of-range values saturate.
func intNoCoerce(v JSValue) int64 {
	num, isNum := v.(JSNumber)
	if !isNum {
		return 0
	}
	f := float64(num)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
