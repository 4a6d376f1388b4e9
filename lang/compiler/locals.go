package compiler

import (
	"github.com/loxlang/loxvm/lang/machine"
	"golang.org/x/exp/slices"
)

// maxLocals and maxUpvalues both follow from GET_LOCAL/GET_UPVALUE's
// one-byte operand.
const maxLocals = 256
const maxUpvalues = 256

// maxCallArgs follows from CALL's one-byte argument-count operand.
const maxCallArgs = 255

// functionKind distinguishes the four contexts a funcCompiler can compile
// a body for, each with different slot-0 and return conventions.
type functionKind int

const (
	funcScript functionKind = iota
	funcFunction
	funcMethod
	funcInitializer
)

type local struct {
	name       string
	depth      int // -1 while the declaring initializer is still being compiled
	isCaptured bool
}

type upvalueDesc struct {
	index   int
	isLocal bool
}

// funcCompiler tracks the local-variable and upvalue bookkeeping for one
// function body being compiled, linked to its lexically enclosing
// function compiler so upvalue resolution can walk outward. It owns the
// machine.Function being built and is rooted against
// the garbage collector for its entire lifetime via the VM's compiler
// root stack, since the function isn't reachable from any Value until
// OP_CLOSURE wraps it.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *machine.Function
	kind      functionKind

	locals     []local
	upvalues   []upvalueDesc
	scopeDepth int
}

func newFuncCompiler(vm *machine.VM, enclosing *funcCompiler, kind functionKind, name string) *funcCompiler {
	fc := &funcCompiler{
		enclosing: enclosing,
		function:  vm.NewFunction(),
		kind:      kind,
	}
	if name != "" {
		fc.function.Name = vm.InternString(name)
	}
	vm.PushCompilerRoot(fc.function)

	// Slot 0 is reserved for the receiver in methods/initializers and for
	// the function's own closure value otherwise (unnamed, so user code
	// can never refer to it directly).
	slotName := ""
	if kind == funcMethod || kind == funcInitializer {
		slotName = "this"
	}
	fc.locals = append(fc.locals, local{name: slotName, depth: 0})
	return fc
}

func (p *parser) beginScope() {
	p.fc.scopeDepth++
}

func (p *parser) endScope() {
	p.fc.scopeDepth--
	locals := p.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.fc.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitByte(byte(machine.OpCloseUpvalue))
		} else {
			p.emitByte(byte(machine.OpPop))
		}
		locals = locals[:len(locals)-1]
	}
	p.fc.locals = locals
}

// declareVariable registers name as a new local in the current scope,
// reporting an error if it collides with another local already declared
// in that same scope. Re-declaring a name in the same block is an error,
// but shadowing an outer scope is fine.
// At global scope it does nothing, since globals are resolved by name at
// runtime rather than by slot.
func (p *parser) declareVariable(name string) {
	if p.fc.scopeDepth == 0 {
		return
	}
	for i := len(p.fc.locals) - 1; i >= 0; i-- {
		l := &p.fc.locals[i]
		if l.depth != -1 && l.depth < p.fc.scopeDepth {
			break
		}
		if l.name == name {
			p.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name string) {
	if len(p.fc.locals) == maxLocals {
		p.errorAtPrevious("Too many local variables in function.")
		return
	}
	p.fc.locals = append(p.fc.locals, local{name: name, depth: -1})
}

// markInitialized marks the most recently declared local as usable,
// called once its initializer expression has been fully compiled. Until
// then the local's depth stays -1, so `var a = a;` at local scope makes
// resolveLocal report "Can't read local variable in its own initializer."
func (p *parser) markInitialized() {
	if p.fc.scopeDepth == 0 {
		return
	}
	p.fc.locals[len(p.fc.locals)-1].depth = p.fc.scopeDepth
}

// resolveLocal returns the slot index of name in fc's own locals, or -1
// if it isn't a local of this function.
func resolveLocal(p *parser, fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				p.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name to an upvalue index in fc, recursing
// outward through enclosing function compilers and adding an upvalue
// descriptor at every level the variable passes through.
// It returns -1 if name isn't found in any enclosing function, meaning
// the caller should treat it as global.
func resolveUpvalue(p *parser, fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(p, fc.enclosing, name); slot != -1 {
		fc.enclosing.locals[slot].isCaptured = true
		return addUpvalue(p, fc, slot, true)
	}
	if idx := resolveUpvalue(p, fc.enclosing, name); idx != -1 {
		return addUpvalue(p, fc, idx, false)
	}
	return -1
}

func addUpvalue(p *parser, fc *funcCompiler, index int, isLocal bool) int {
	if i := slices.IndexFunc(fc.upvalues, func(uv upvalueDesc) bool {
		return uv.index == index && uv.isLocal == isLocal
	}); i != -1 {
		return i
	}
	if len(fc.upvalues) == maxUpvalues {
		p.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	fc.function.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}

// classCompiler tracks whether the class body currently being compiled
// has a superclass, which determines whether `super` may be used and
// whether a synthetic local slot is threading the superclass value
// through the method bodies.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}
