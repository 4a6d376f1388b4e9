package machine

// This file centralizes the constructors for every heap object kind:
// build the value, hand it to registerObject to link it into the GC's
// object list and account its size, then return it. Callers that need
// the freshly allocated object to
// survive an allocation that happens before it is otherwise reachable
// (e.g. a Table growing) must root it first — see string.go's
// InternString for the canonical example.

// NewFunction allocates an empty Function. The compiler fills in Arity,
// Name and Chunk as it compiles the function body.
func (vm *VM) NewFunction() *Function {
	fn := &Function{Header: Header{Kind: ObjFunctionKind}}
	vm.registerObject(fn)
	return fn
}

// NewNative wraps a Go function as a callable Lox native function.
func (vm *VM) NewNative(name string, fn NativeFn) *Native {
	n := &Native{Header: Header{Kind: ObjNative}, Name: name, Fn: fn}
	vm.registerObject(n)
	return n
}

// NewClosure allocates a Closure over fn with an upvalue slice sized to
// fn's declared upvalue count.
func (vm *VM) NewClosure(fn *Function) *Closure {
	c := &Closure{
		Header:   Header{Kind: ObjClosure},
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
	vm.registerObject(c)
	return c
}

// NewClass allocates a class value with an empty method table.
func (vm *VM) NewClass(name *StringObj) *Class {
	c := &Class{Header: Header{Kind: ObjClass}, Name: name}
	vm.registerObject(c)
	return c
}

// NewInstance allocates an instance of class with an empty field table.
func (vm *VM) NewInstance(class *Class) *Instance {
	inst := &Instance{Header: Header{Kind: ObjInstance}, Class: class}
	vm.registerObject(inst)
	return inst
}

// NewBoundMethod allocates a bound-method value pairing receiver with
// method, produced by GET_PROPERTY when a property name resolves to a
// method rather than a field.
func (vm *VM) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	bm := &BoundMethod{Header: Header{Kind: ObjBoundMethod}, Receiver: receiver, Method: method}
	vm.registerObject(bm)
	return bm
}

// newUpvalue allocates a fresh open upvalue aliasing the given stack slot.
func (vm *VM) newUpvalue(slot int) *Upvalue {
	uv := &Upvalue{Header: Header{Kind: ObjUpvalue}, slot: slot, isOpen: true}
	vm.registerObject(uv)
	return uv
}
