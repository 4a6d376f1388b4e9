package machine

import (
	"io"
	"os"
)

// FramesMax is the maximum call depth; exceeding it is a stack overflow
// runtime error.
const FramesMax = 64

// StackMax is the fixed value-stack capacity, sized to accommodate
// FramesMax frames each with up to 256 locals.
const StackMax = FramesMax * 256

// VM is a single Lox execution context: a value stack, a call-frame
// stack, the globals and string-intern tables, the open-upvalue chain,
// and the GC's bookkeeping. A VM is not goroutine-safe and carries no
// explicit teardown; discarding the value and letting Go's own GC
// reclaim it is sufficient.
type VM struct {
	gcState

	stack      [StackMax]Value
	stackTop   int
	frames     [FramesMax]CallFrame
	frameCount int

	globals      Table
	strings      Table
	openUpvalues *Upvalue
	initString   *StringObj

	// Stdout receives PRINT opcode output. Stderr is not written by the VM
	// itself (runtime errors are returned from Run). Both are left
	// available for callers (the REPL, the file runner) to redirect; both
	// default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New constructs a ready-to-run VM: the "init" method name is interned
// up front since every class instantiation consults it, and the clock()
// native is registered.
func New() *VM {
	vm := &VM{
		gcState: newGCState(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
	vm.resetStack()
	vm.initString = vm.InternString("init")
	vm.defineNative("clock", nativeClock)
	return vm
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// defineNative installs fn as a global callable under name. The new
// Native is pushed/popped around the globals.Set to protect it from a
// collection the table's own growth might trigger (same pattern as
// InternString).
func (vm *VM) defineNative(name string, fn NativeFn) {
	nameObj := vm.InternString(name)
	vm.push(ObjValue(nameObj))
	native := vm.NewNative(name, fn)
	vm.push(ObjValue(native))
	vm.globals.Set(nameObj, vm.peek(0))
	vm.pop()
	vm.pop()
}

// PushCompilerRoot and PopCompilerRoot let the compiler root the
// in-progress Function it is emitting bytecode into. A function under
// construction is reachable from no Value yet (it isn't wrapped in a
// Closure, let alone pushed on the stack), so without this a collection
// triggered mid-compile by, say, interning a string constant would
// reclaim it.
func (vm *VM) PushCompilerRoot(fn *Function) {
	vm.compilerRoots = append(vm.compilerRoots, fn)
}

func (vm *VM) PopCompilerRoot() {
	vm.compilerRoots = vm.compilerRoots[:len(vm.compilerRoots)-1]
}

// Run wraps fn in a Closure, pushes the initial call frame, and executes
// until the top-level function returns or a runtime error occurs. There
// is no compile-and-run entry point here: callers compile through the
// compiler package, which imports machine for its allocator, so the
// reverse dependency would be a cycle.
func (vm *VM) Run(fn *Function) error {
	vm.push(ObjValue(fn))
	closure := vm.NewClosure(fn)
	vm.pop()
	vm.push(ObjValue(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.Closure.Function.Chunk.Code[frame.IP]
		frame.IP++
		return b
	}
	readShort := func() int {
		lo := readByte()
		hi := readByte()
		return int(lo) | int(hi)<<8
	}
	readConstant := func() Value {
		return frame.Closure.Function.Chunk.Constants[readByte()]
	}
	readConstantLong := func() Value {
		lo := int(readByte())
		mid := int(readByte())
		hi := int(readByte())
		return frame.Closure.Function.Chunk.Constants[lo|mid<<8|hi<<16]
	}
	readString := func() *StringObj { return AsString(readConstant()) }

	for {
		op := Opcode(readByte())
		switch op {
		case OpConstant:
			vm.push(readConstant())

		case OpConstantLong:
			vm.push(readConstantLong())

		case OpNil:
			vm.push(NilValue)

		case OpTrue:
			vm.push(BoolValue(true))

		case OpFalse:
			vm.push(BoolValue(false))

		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := int(readByte())
			vm.push(vm.stack[frame.Base+slot])

		case OpSetLocal:
			slot := int(readByte())
			vm.stack[frame.Base+slot] = vm.peek(0)

		case OpGetGlobal:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)

		case OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			idx := int(readByte())
			vm.push(frame.Closure.Upvalues[idx].get(vm))

		case OpSetUpvalue:
			idx := int(readByte())
			frame.Closure.Upvalues[idx].set(vm, vm.peek(0))

		case OpGetProperty:
			if !vm.peek(0).IsObj() || Kind(vm.peek(0).AsObj()) != ObjInstance {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsObj().(*Instance)
			name := readString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}

		case OpSetProperty:
			if !vm.peek(1).IsObj() || Kind(vm.peek(1).AsObj()) != ObjInstance {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsObj().(*Instance)
			instance.Fields.Set(readString(), vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case OpGetSuper:
			name := readString()
			superclass := vm.pop().AsObj().(*Class)
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolValue(ValuesEqual(a, b)))

		case OpGreater:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}

		case OpLess:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}

		case OpAdd:
			b := vm.peek(0)
			a := vm.peek(1)
			switch {
			case a.IsNumber() && b.IsNumber():
				vm.pop()
				vm.pop()
				vm.push(NumberValue(a.AsNumber() + b.AsNumber()))
			case IsString(a) && IsString(b):
				vm.pop()
				vm.pop()
				vm.push(ObjValue(vm.InternString(AsString(a).Chars + AsString(b).Chars)))
			default:
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case OpSubtract, OpMultiply, OpDivide:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}

		case OpNot:
			vm.push(BoolValue(!Truthy(vm.pop())))

		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))

		case OpPrint:
			io.WriteString(vm.Stdout, PrintString(vm.pop())+"\n")

		case OpJump:
			offset := readShort()
			frame.IP += offset

		case OpJumpIfFalse:
			offset := readShort()
			if !Truthy(vm.peek(0)) {
				frame.IP += offset
			}

		case OpLoop:
			offset := readShort()
			frame.IP -= offset

		case OpCall:
			argCount := int(readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpInvoke:
			name := readString()
			argCount := int(readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsObj().(*Class)
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := readConstant().AsObj().(*Function)
			closure := vm.NewClosure(fn)
			vm.push(ObjValue(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Base + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.Base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.Base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			vm.push(ObjValue(vm.NewClass(readString())))

		case OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsObj() || Kind(superVal.AsObj()) != ObjClass {
				return vm.runtimeError("Superclass must be a class.")
			}
			superclass := superVal.AsObj().(*Class)
			subclass := vm.peek(0).AsObj().(*Class)
			subclass.Methods.AddAll(&superclass.Methods)
			vm.pop()

		case OpMethod:
			vm.defineMethod(readString())

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) binaryNumberOp(op Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	switch op {
	case OpGreater:
		vm.push(BoolValue(a > b))
	case OpLess:
		vm.push(BoolValue(a < b))
	case OpSubtract:
		vm.push(NumberValue(a - b))
	case OpMultiply:
		vm.push(NumberValue(a * b))
	case OpDivide:
		vm.push(NumberValue(a / b))
	}
	return nil
}

func (vm *VM) defineMethod(name *StringObj) {
	method := vm.peek(0)
	class := vm.peek(1).AsObj().(*Class)
	class.Methods.Set(name, method)
	vm.pop()
}

// callValue dispatches a CALL opcode's callee to the right call
// convention for its kind: a closure pushes a new frame, a native calls
// straight through, a class instantiates (and calls its initializer if
// it has one), and a bound method rebinds its receiver before calling
// through as a closure.
func (vm *VM) callValue(callee Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch Kind(callee.AsObj()) {
	case ObjClosure:
		return vm.call(callee.AsObj().(*Closure), argCount)
	case ObjNative:
		native := callee.AsObj().(*Native)
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, err := native.Fn(vm, args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil
	case ObjClass:
		class := callee.AsObj().(*Class)
		instance := vm.NewInstance(class)
		vm.stack[vm.stackTop-argCount-1] = ObjValue(instance)
		if initializer, ok := class.Methods.Get(vm.initString); ok {
			return vm.call(initializer.AsObj().(*Closure), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case ObjBoundMethod:
		bound := callee.AsObj().(*BoundMethod)
		vm.stack[vm.stackTop-argCount-1] = bound.Receiver
		return vm.call(bound.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) call(closure *Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	frame.Closure = closure
	frame.IP = 0
	frame.Base = vm.stackTop - argCount - 1
	vm.frameCount++
	return nil
}

// bindMethod looks up name on class, pops the receiver instance
// currently on top of the stack, and pushes a BoundMethod pairing them.
// Used directly by GET_PROPERTY and GET_SUPER.
func (vm *VM) bindMethod(class *Class, name *StringObj) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.NewBoundMethod(vm.peek(0), method.AsObj().(*Closure))
	vm.pop()
	vm.push(ObjValue(bound))
	return nil
}

// invoke implements the fused INVOKE opcode: a field takes priority over
// a method of the same name (and is a runtime error if not callable),
// matching the
// non-fused GET_PROPERTY-then-CALL sequence it replaces as an
// optimization.
func (vm *VM) invoke(name *StringObj, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObj() || Kind(receiver.AsObj()) != ObjInstance {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsObj().(*Instance)
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *Class, name *StringObj, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsObj().(*Closure), argCount)
}

// captureUpvalue returns the open upvalue for the given absolute stack
// slot, reusing an existing one if the chain already has it. The chain
// is kept sorted by descending slot so closeUpvalues can stop at the
// first upvalue below its threshold.
func (vm *VM) captureUpvalue(slot int) *Upvalue {
	var prev *Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.slot > slot {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.slot == slot {
		return cur
	}

	created := vm.newUpvalue(slot)
	created.next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues closes every open upvalue aliasing a slot at or above
// lastSlot, copying each slot's current value into the upvalue before
// the stack frame that owns it is popped or shrunk.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= lastSlot {
		uv := vm.openUpvalues
		uv.close(vm)
		vm.openUpvalues = uv.next
	}
}
