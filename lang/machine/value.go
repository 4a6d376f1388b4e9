package machine

import (
	"strconv"
)

// Truthy implements Lox's truthiness rule: nil and false are falsey,
// every other value (including 0 and "") is truthy.
func Truthy(v Value) bool {
	if v.IsNil() {
		return false
	}
	if v.IsBool() {
		return v.AsBool()
	}
	return true
}

// ValuesEqual compares numbers by IEEE-754 ==, nil against nil, booleans
// by value, and objects by reference identity. Interned strings compare
// equal iff they are the same object, which the interning path in
// string.go guarantees, so reference identity is still the correct check
// for them.
func ValuesEqual(a, b Value) bool {
	switch {
	case a.IsNumber() && b.IsNumber():
		return a.AsNumber() == b.AsNumber()
	case a.IsBool() && b.IsBool():
		return a.AsBool() == b.AsBool()
	case a.IsNil() && b.IsNil():
		return true
	case a.IsObj() && b.IsObj():
		return a.AsObj() == b.AsObj()
	default:
		return false
	}
}

// PrintString renders v the way the PRINT opcode writes it to stdout and
// the disassembler shows constants.
func PrintString(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObj():
		return v.AsObj().String()
	default:
		return "<invalid value>"
	}
}

// formatNumber matches C's printf("%g", n) default of 6 significant
// digits, not Go's shortest round-trip default: strconv.FormatFloat's
// 'g' verb already strips trailing zeros at a fixed precision the same
// way %g does.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', 6, 64)
}

// AsString type-asserts v as an interned string object. The caller must
// have already checked IsString(v).
func AsString(v Value) *StringObj { return v.AsObj().(*StringObj) }

// IsString reports whether v holds a string object.
func IsString(v Value) bool { return v.IsObj() && Kind(v.AsObj()) == ObjString }
