package machine

// StringObj is an immutable byte sequence with a cached FNV-1a hash,
// interned in a per-VM set so that equal-content strings always share
// one object.
type StringObj struct {
	Header
	Chars string
	Hash  uint32
}

func (s *StringObj) String() string { return s.Chars }

// hashString computes the FNV-1a hash the intern table probes by.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// InternString returns the canonical StringObj for the given content,
// allocating and interning a new one on first use. Every literal or
// concatenation-produced string in the system goes through this path, so
// reference-identity comparison is sufficient for string equality.
//
// The newly allocated object is pushed onto the VM stack before it is
// inserted into the intern table, so that a GC triggered by the table's
// own growth cannot reclaim it first.
func (vm *VM) InternString(chars string) *StringObj {
	h := hashString(chars)
	if existing := vm.strings.FindString(chars, h); existing != nil {
		return existing
	}

	s := &StringObj{Header: Header{Kind: ObjString}, Chars: chars, Hash: h}
	vm.push(ObjValue(s))
	vm.registerObject(s)
	vm.strings.Set(s, NilValue)
	vm.pop()
	return s
}
