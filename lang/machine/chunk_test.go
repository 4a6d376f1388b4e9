package machine_test

import (
	"strings"
	"testing"

	"github.com/loxlang/loxvm/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWriteConstantShortForm(t *testing.T) {
	var c machine.Chunk
	c.WriteConstant(machine.NumberValue(1.5), 3)

	require.Len(t, c.Code, 2)
	assert.Equal(t, byte(machine.OpConstant), c.Code[0])
	assert.Equal(t, byte(0), c.Code[1])
	assert.Equal(t, 3, c.LineAt(0))
	assert.Equal(t, 3, c.LineAt(1))
}

func TestChunkWriteConstantLongForm(t *testing.T) {
	var c machine.Chunk
	for i := 0; i < 300; i++ {
		c.AddConstant(machine.NumberValue(float64(i)))
	}
	c.WriteConstant(machine.NumberValue(12345), 1)

	// the 301st constant (index 300) requires the 3-byte long form
	offset := len(c.Code) - 4
	assert.Equal(t, byte(machine.OpConstantLong), c.Code[offset])
	idx := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])<<16
	assert.Equal(t, 300, idx)
	assert.Equal(t, 12345.0, c.Constants[idx].AsNumber())
}

func TestChunkLineRunLengthEncoding(t *testing.T) {
	var c machine.Chunk
	c.Write(0x01, 1)
	c.Write(0x02, 1)
	c.Write(0x03, 2)
	c.Write(0x04, 2)
	c.Write(0x05, 2)

	assert.Equal(t, 1, c.LineAt(0))
	assert.Equal(t, 1, c.LineAt(1))
	assert.Equal(t, 2, c.LineAt(2))
	assert.Equal(t, 2, c.LineAt(3))
	assert.Equal(t, 2, c.LineAt(4))
	assert.Equal(t, -1, c.LineAt(5))
}

func TestChunkDisassemble(t *testing.T) {
	var c machine.Chunk
	c.WriteConstant(machine.NumberValue(1), 1)
	c.Write(byte(machine.OpReturn), 1)

	out := c.Disassemble("test")
	assert.True(t, strings.Contains(out, "== test =="))
	assert.True(t, strings.Contains(out, "OP_CONSTANT"))
	assert.True(t, strings.Contains(out, "OP_RETURN"))
}

// TestDisassembleRoundTrip assembles a chunk covering the no-operand,
// one-byte constant, one-byte slot, forward-jump and loop operand shapes
// and walks it back instruction by instruction, checking that the listing
// reproduces the instruction stream in order and that decoded boundaries
// line up with what was written.
func TestDisassembleRoundTrip(t *testing.T) {
	vm := machine.New()
	var c machine.Chunk

	c.WriteConstant(machine.NumberValue(1.5), 1) // OP_CONSTANT 0
	c.Write(byte(machine.OpTrue), 1)
	c.Write(byte(machine.OpGetLocal), 2)
	c.Write(1, 2)
	nameIdx := c.AddConstant(machine.ObjValue(vm.InternString("g")))
	c.Write(byte(machine.OpGetGlobal), 2)
	c.Write(byte(nameIdx), 2)
	c.Write(byte(machine.OpJumpIfFalse), 3)
	c.Write(4, 3) // low byte
	c.Write(0, 3) // high byte
	c.Write(byte(machine.OpAdd), 3)
	c.Write(byte(machine.OpLoop), 4)
	c.Write(9, 4)
	c.Write(0, 4)
	c.Write(byte(machine.OpReturn), 4)

	wantOps := []machine.Opcode{
		machine.OpConstant, machine.OpTrue, machine.OpGetLocal,
		machine.OpGetGlobal, machine.OpJumpIfFalse, machine.OpAdd,
		machine.OpLoop, machine.OpReturn,
	}

	var gotOps []machine.Opcode
	for offset := 0; offset < len(c.Code); {
		line, next := c.DisassembleInstruction(offset)
		op := machine.Opcode(c.Code[offset])
		assert.True(t, strings.Contains(line, op.String()), "listing for offset %d", offset)
		gotOps = append(gotOps, op)
		require.Greater(t, next, offset)
		offset = next
	}
	assert.Equal(t, wantOps, gotOps)
	require.Len(t, c.Constants, 2)
	assert.Equal(t, 1.5, c.Constants[0].AsNumber())
}
