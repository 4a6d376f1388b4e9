package machine

import "fmt"

// Disassemble returns a full textual listing of the chunk, one line per
// instruction, headed by name. This backs the disasm CLI subcommand and
// the chunk tests' round-trip checks.
func (c *Chunk) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		var line string
		line, offset = c.DisassembleInstruction(offset)
		out += line
	}
	return out
}

// DisassembleInstruction renders the single instruction at offset and
// returns it along with the offset of the next instruction.
func (c *Chunk) DisassembleInstruction(offset int) (string, int) {
	line := fmt.Sprintf("%04d ", offset)
	if offset > 0 && c.LineAt(offset) == c.LineAt(offset-1) {
		line += "   | "
	} else {
		line += fmt.Sprintf("%4d ", c.LineAt(offset))
	}

	op := Opcode(c.Code[offset])
	switch op {
	case OpConstant:
		return c.constantInstr(op, offset, line, 1)
	case OpConstantLong:
		return c.constantLongInstr(op, offset, line)
	case OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpGetProperty, OpSetProperty,
		OpGetSuper, OpClass, OpMethod:
		return c.constantInstr(op, offset, line, 1)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return c.byteInstr(op, offset, line)
	case OpInvoke, OpSuperInvoke:
		return c.invokeInstr(op, offset, line)
	case OpJump, OpJumpIfFalse:
		return c.jumpInstr(op, offset, line, 1)
	case OpLoop:
		return c.jumpInstr(op, offset, line, -1)
	case OpClosure:
		return c.closureInstr(offset, line)
	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpGreater, OpLess, OpAdd,
		OpSubtract, OpMultiply, OpDivide, OpNot, OpNegate, OpPrint,
		OpCloseUpvalue, OpReturn, OpInherit:
		return line + op.String() + "\n", offset + 1
	default:
		return line + fmt.Sprintf("Unknown opcode %d\n", op), offset + 1
	}
}

func (c *Chunk) constantInstr(op Opcode, offset int, line string, operandBytes int) (string, int) {
	idx := c.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d '%s'\n", line, op.String(), idx, PrintString(c.Constants[idx])), offset + 1 + operandBytes
}

func (c *Chunk) constantLongInstr(op Opcode, offset int, line string) (string, int) {
	idx := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])<<16
	return fmt.Sprintf("%s%-16s %4d '%s'\n", line, op.String(), idx, PrintString(c.Constants[idx])), offset + 4
}

func (c *Chunk) byteInstr(op Opcode, offset int, line string) (string, int) {
	slot := c.Code[offset+1]
	return fmt.Sprintf("%s%-16s %4d\n", line, op.String(), slot), offset + 2
}

func (c *Chunk) invokeInstr(op Opcode, offset int, line string) (string, int) {
	idx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	return fmt.Sprintf("%s%-16s (%d args) %4d '%s'\n", line, op.String(), argCount, idx, PrintString(c.Constants[idx])), offset + 3
}

func (c *Chunk) jumpInstr(op Opcode, offset int, line string, sign int) (string, int) {
	jump := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%s%-16s %4d -> %d\n", line, op.String(), offset, target), offset + 3
}

func (c *Chunk) closureInstr(offset int, line string) (string, int) {
	offset++
	constIdx := c.Code[offset]
	offset++
	fn := c.Constants[constIdx].AsObj().(*Function)
	out := fmt.Sprintf("%s%-16s %4d '%s'\n", line, OpClosure.String(), constIdx, fn.String())
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Code[offset]
		offset++
		index := c.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		out += fmt.Sprintf("%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return out, offset
}
