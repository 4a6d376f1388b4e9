package machine

// Function is the compiled body of a Lox function: its arity, the number
// of upvalues a closure over it captures, its owned Chunk, and an
// optional name (nil for the implicit top-level script function).
type Function struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *StringObj
}

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// Upvalue is either "open" (aliasing a live VM stack slot) or "closed"
// (owning a copy of the value that slot held when the frame returned).
// Open upvalues are linked through next in descending-slot order so that
// capture and the close-upvalues-above-a-point sweep are both O(k) in the
// number of upvalues touched.
type Upvalue struct {
	Header
	slot   int
	closed Value
	isOpen bool
	next   *Upvalue
}

func (u *Upvalue) String() string { return "upvalue" }

func (u *Upvalue) get(vm *VM) Value {
	if u.isOpen {
		return vm.stack[u.slot]
	}
	return u.closed
}

func (u *Upvalue) set(vm *VM, v Value) {
	if u.isOpen {
		vm.stack[u.slot] = v
		return
	}
	u.closed = v
}

func (u *Upvalue) close(vm *VM) {
	u.closed = vm.stack[u.slot]
	u.isOpen = false
}

// Closure pairs a Function with the upvalue references it captured from
// enclosing functions. Its Upvalues slice is sized to
// Function.UpvalueCount.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) String() string { return c.Function.String() }

// NativeFn is a builtin function implemented in Go rather than compiled
// Lox bytecode.
type NativeFn func(vm *VM, args []Value) (Value, error)

// Native wraps a Go function so it can be called like any other Lox
// callable.
type Native struct {
	Header
	Name string
	Fn   NativeFn
}

func (n *Native) String() string { return "<native fn>" }
