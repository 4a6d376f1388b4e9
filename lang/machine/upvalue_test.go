package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureUpvalueKeepsListSortedDescending(t *testing.T) {
	vm := New()
	vm.push(NumberValue(10))
	vm.push(NumberValue(20))
	vm.push(NumberValue(30))

	// capture out of order; the open list must end up sorted by
	// descending slot regardless
	u0 := vm.captureUpvalue(0)
	u2 := vm.captureUpvalue(2)
	u1 := vm.captureUpvalue(1)

	var slots []int
	for uv := vm.openUpvalues; uv != nil; uv = uv.next {
		slots = append(slots, uv.slot)
	}
	assert.Equal(t, []int{2, 1, 0}, slots)

	assert.Equal(t, 10.0, u0.get(vm).AsNumber())
	assert.Equal(t, 20.0, u1.get(vm).AsNumber())
	assert.Equal(t, 30.0, u2.get(vm).AsNumber())
}

func TestCaptureUpvalueDeduplicatesPerSlot(t *testing.T) {
	vm := New()
	vm.push(NumberValue(1))

	first := vm.captureUpvalue(0)
	second := vm.captureUpvalue(0)
	assert.Same(t, first, second, "two captures of the same slot must share one upvalue")
}

func TestCloseUpvaluesCopiesValueAndUnlinks(t *testing.T) {
	vm := New()
	vm.push(NumberValue(1))
	vm.push(NumberValue(2))
	vm.push(NumberValue(3))

	low := vm.captureUpvalue(0)
	mid := vm.captureUpvalue(1)
	high := vm.captureUpvalue(2)

	vm.closeUpvalues(1)

	// slots 1 and 2 are closed and unlinked, slot 0 stays open
	require.Same(t, low, vm.openUpvalues)
	assert.Nil(t, vm.openUpvalues.next)
	assert.True(t, low.isOpen)

	assert.False(t, mid.isOpen)
	assert.False(t, high.isOpen)
	assert.Equal(t, 2.0, mid.get(vm).AsNumber())
	assert.Equal(t, 3.0, high.get(vm).AsNumber())

	// a closed upvalue no longer aliases the stack
	vm.stack[1] = NumberValue(99)
	vm.stack[2] = NumberValue(99)
	assert.Equal(t, 2.0, mid.get(vm).AsNumber())
	assert.Equal(t, 3.0, high.get(vm).AsNumber())

	// writes go to the closed copy, not the abandoned slot
	mid.set(vm, NumberValue(5))
	assert.Equal(t, 5.0, mid.get(vm).AsNumber())
	assert.Equal(t, 99.0, vm.stack[1].AsNumber())
}
