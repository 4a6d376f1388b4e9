package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCSweepsUnreachableStrings(t *testing.T) {
	vm := New()

	reachable := vm.InternString("kept")
	vm.push(ObjValue(reachable))

	// InternString roots its own temporary push/pop internally (see
	// string.go's InternString), so by the time it returns here the
	// externally visible stack still holds only reachable; unreachable is
	// already unrooted without any further pop.
	unreachable := vm.InternString("discarded")

	before := vm.bytesAllocated
	vm.collectGarbage()
	after := vm.bytesAllocated

	assert.Less(t, after, before, "sweep should have reclaimed the unreachable string")
	assert.True(t, reachable.Header.Marked == false, "sweep clears the mark bit of survivors")

	// the reachable string is still rooted on the stack, unaffected
	require.Equal(t, 1, vm.stackTop)
	assert.Same(t, reachable, vm.stack[0].AsObj())

	_ = unreachable
}

func TestGCInternTableWeakReferenceIsPruned(t *testing.T) {
	vm := New()
	first := vm.InternString("ephemeral")
	vm.collectGarbage()

	// collectGarbage's removeUnmarkedKeys pass must have dropped the
	// now-unreachable intern table entry, so re-interning produces a
	// freshly allocated string rather than reusing a dangling one.
	again := vm.InternString("ephemeral")
	require.NotNil(t, again)
	assert.NotSame(t, first, again)
}

func TestGCMarksClosureUpvalues(t *testing.T) {
	vm := New()

	fn := vm.NewFunction()
	fn.UpvalueCount = 1
	closure := vm.NewClosure(fn)
	uv := vm.newUpvalue(0)
	uv.close(vm) // give it a closed value so blacken must trace into it
	uv.closed = ObjValue(vm.InternString("captured"))
	closure.Upvalues[0] = uv

	vm.push(ObjValue(closure))
	vm.collectGarbage()

	require.False(t, uv.Header.Marked)
	assert.Equal(t, "captured", uv.closed.AsObj().(*StringObj).Chars)
	// the closed value was marked, so the intern-table prune kept it
	assert.Same(t, uv.closed.AsObj(), vm.strings.FindString("captured", hashString("captured")))
}
