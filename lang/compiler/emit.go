package compiler

import "github.com/loxlang/loxvm/lang/machine"

func (p *parser) currentChunk() *machine.Chunk {
	return &p.fc.function.Chunk
}

func (p *parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *parser) emitConstant(v machine.Value) {
	p.currentChunk().WriteConstant(v, p.previous.Line)
}

// emitJump emits a two-byte-operand jump instruction with a placeholder
// offset and returns the offset of its first operand byte, to be patched
// once the jump target is known.
func (p *parser) emitJump(instruction byte) int {
	p.emitByte(instruction)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

// patchJump backfills the jump instruction at offset with the distance
// from just after its operand to the current end of the chunk, encoded
// little-endian like the rest of the multi-byte operands.
func (p *parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		p.errorAtPrevious("Too much code to jump over.")
		return
	}
	p.currentChunk().Code[offset] = byte(jump & 0xff)
	p.currentChunk().Code[offset+1] = byte((jump >> 8) & 0xff)
}

// emitLoop emits OP_LOOP with the backward offset to loopStart.
func (p *parser) emitLoop(loopStart int) {
	p.emitByte(byte(machine.OpLoop))
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.errorAtPrevious("Loop body too large.")
	}
	p.emitByte(byte(offset & 0xff))
	p.emitByte(byte((offset >> 8) & 0xff))
}

// emitReturn emits the implicit return every function falls into: `this`
// for an initializer falling off the end (so `var x = SomeClass();`
// always yields the new instance), nil otherwise.
func (p *parser) emitReturn() {
	if p.fc.kind == funcInitializer {
		p.emitBytes(byte(machine.OpGetLocal), 0)
	} else {
		p.emitByte(byte(machine.OpNil))
	}
	p.emitByte(byte(machine.OpReturn))
}

// identifierConstant interns name and adds it to the current function's
// constant pool, returning its index for use as a GET_GLOBAL/SET_GLOBAL/
// GET_PROPERTY/etc. operand.
func (p *parser) identifierConstant(name string) int {
	return p.currentChunk().AddConstant(machine.ObjValue(p.vm.InternString(name)))
}

func (p *parser) emitNamedConstant(op byte, name string) {
	idx := p.identifierConstant(name)
	if idx < 256 {
		p.emitBytes(op, byte(idx))
		return
	}
	p.errorAtPrevious("Too many constants in one chunk.")
}
