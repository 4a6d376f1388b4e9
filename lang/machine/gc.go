package machine

import "unsafe"

// gcHeapGrowFactor sets the next collection threshold to twice the bytes
// live after the current one.
const gcHeapGrowFactor = 2

// StressGC, when true, forces a collection on every allocation that grows
// memory. Intended for tests that want to flush out GC-safety bugs
// (use-before-root, missing mark) deterministically.
type gcState struct {
	objects        Obj
	bytesAllocated uintptr
	nextGC         uintptr
	grayStack      []Obj
	StressGC       bool
	compilerRoots  []*Function
}

func newGCState() gcState {
	return gcState{nextGC: 1 << 20}
}

// registerObject links a freshly allocated object into the GC's
// intrusive object list and accounts for its size, collecting first if
// the new total crosses the threshold. Callers that need the object to
// survive a collection triggered by further allocation (e.g. string
// interning, table growth) must root it — by pushing it on the VM stack
// or otherwise — before making any further allocating call.
func (vm *VM) registerObject(o Obj) {
	vm.bytesAllocated += objSize(o)
	if vm.bytesAllocated > vm.nextGC || vm.StressGC {
		vm.collectGarbage()
	}

	hdr := o.header()
	hdr.Next = vm.objects
	vm.objects = o
}

func objSize(o Obj) uintptr {
	switch v := o.(type) {
	case *StringObj:
		return unsafe.Sizeof(*v) + uintptr(len(v.Chars))
	case *Function:
		return unsafe.Sizeof(*v)
	case *Closure:
		return unsafe.Sizeof(*v) + uintptr(len(v.Upvalues))*unsafe.Sizeof((*Upvalue)(nil))
	case *Upvalue:
		return unsafe.Sizeof(*v)
	case *Native:
		return unsafe.Sizeof(*v)
	case *Class:
		return unsafe.Sizeof(*v)
	case *Instance:
		return unsafe.Sizeof(*v)
	case *BoundMethod:
		return unsafe.Sizeof(*v)
	default:
		return 0
	}
}

// collectGarbage runs one full tracing mark-and-sweep cycle: mark roots,
// trace references, prune the intern table, sweep.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.removeUnmarkedKeys()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * gcHeapGrowFactor
}

// markRoots marks every Value reachable without tracing through the
// heap: the operand stack, active call frames' closures, open upvalues,
// the globals table, the interned "init" string, and the function chain
// of any compiler currently building bytecode.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].Closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.next {
		vm.markObject(uv)
	}
	vm.markTable(&vm.globals)
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}
	for _, fn := range vm.compilerRoots {
		vm.markObject(fn)
	}
}

func (vm *VM) markValue(v Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

func (vm *VM) markObject(o Obj) {
	if o == nil {
		return
	}
	hdr := o.header()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markTable(t *Table) {
	for _, e := range t.entries {
		if e.Key != nil {
			vm.markObject(e.Key)
		}
		vm.markValue(e.Value)
	}
}

// traceReferences drains the gray worklist, marking each gray object's
// children according to its kind.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o Obj) {
	switch v := o.(type) {
	case *StringObj:
		// no references
	case *Native:
		// no references
	case *Upvalue:
		if !v.isOpen {
			vm.markValue(v.closed)
		}
	case *Function:
		// v.Name is nil for the implicit top-level script function; a nil
		// *StringObj boxed in the Obj interface is not == nil, so it must be
		// guarded here rather than relying on markObject's nil check.
		if v.Name != nil {
			vm.markObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			vm.markValue(c)
		}
	case *Closure:
		vm.markObject(v.Function)
		for _, uv := range v.Upvalues {
			// OP_CLOSURE pushes the closure before filling in its upvalue
			// slots one at a time, so a GC triggered mid-fill can observe a
			// still-nil *Upvalue entry here; a nil pointer boxed in the Obj
			// interface is not == nil, so it must be checked before calling
			// markObject.
			if uv != nil {
				vm.markObject(uv)
			}
		}
	case *Class:
		vm.markObject(v.Name)
		vm.markTable(&v.Methods)
	case *Instance:
		vm.markObject(v.Class)
		vm.markTable(&v.Fields)
	case *BoundMethod:
		vm.markValue(v.Receiver)
		vm.markObject(v.Method)
	}
}

// sweep walks the intrusive object list, freeing every object whose mark
// bit is clear and clearing the mark bit of every surviving object.
func (vm *VM) sweep() {
	var prev Obj
	cur := vm.objects
	for cur != nil {
		hdr := cur.header()
		if hdr.Marked {
			hdr.Marked = false
			prev = cur
			cur = hdr.Next
			continue
		}

		unreached := cur
		cur = hdr.Next
		if prev != nil {
			prev.header().Next = cur
		} else {
			vm.objects = cur
		}
		vm.bytesAllocated -= objSize(unreached)
	}
}
