package machine

// ObjKind identifies the concrete type of a heap-allocated object.
type ObjKind uint8

const (
	ObjBoundMethod ObjKind = iota
	ObjClass
	ObjClosure
	ObjFunctionKind
	ObjInstance
	ObjNative
	ObjString
	ObjUpvalue
)

var objKindNames = [...]string{
	ObjBoundMethod:  "bound method",
	ObjClass:        "class",
	ObjClosure:      "closure",
	ObjFunctionKind: "function",
	ObjInstance:     "instance",
	ObjNative:       "native",
	ObjString:       "string",
	ObjUpvalue:      "upvalue",
}

func (k ObjKind) String() string { return objKindNames[k] }

// Header is embedded as the first field of every heap object. It carries
// the object-kind tag, the GC mark bit, and the intrusive "next" pointer
// that threads every live object into the allocator's global list. Some
// bytecode VMs pack these three fields into a single machine word; this
// one keeps them as separate fields instead, which costs a little memory
// per object in exchange for simpler, unsafe-pointer-free code.
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Obj
}

func (h *Header) header() *Header { return h }

// Obj is implemented by every heap-allocated object kind. Value holds an
// Obj rather than a concrete type so the VM, GC and hash table can treat
// all heap kinds uniformly.
type Obj interface {
	header() *Header
	// String returns the value's printed representation.
	String() string
}

// Kind reports the ObjKind of any Obj.
func Kind(o Obj) ObjKind { return o.header().Kind }
