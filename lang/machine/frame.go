package machine

// CallFrame is a single activation record: the closure being executed,
// an instruction pointer into that closure's function's chunk, and the
// base index into the VM value stack identifying this frame's local
// variable window.
type CallFrame struct {
	Closure *Closure
	IP      int
	Base    int
}
