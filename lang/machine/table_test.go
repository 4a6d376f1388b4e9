package machine_test

import (
	"strconv"
	"testing"

	"github.com/loxlang/loxvm/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	vm := machine.New()
	var tbl machine.Table

	key := vm.InternString("answer")
	ok := tbl.Set(key, machine.NumberValue(42))
	assert.True(t, ok, "Set should report the key as newly inserted")

	v, found := tbl.Get(key)
	require.True(t, found)
	assert.Equal(t, 42.0, v.AsNumber())

	assert.True(t, tbl.Delete(key))
	_, found = tbl.Get(key)
	assert.False(t, found)

	// deleting again finds nothing, the tombstone is already in place
	assert.False(t, tbl.Delete(key))
}

func TestTableSetExistingKeyReportsNotNew(t *testing.T) {
	vm := machine.New()
	var tbl machine.Table

	key := vm.InternString("x")
	assert.True(t, tbl.Set(key, machine.NumberValue(1)))
	assert.False(t, tbl.Set(key, machine.NumberValue(2)))

	v, _ := tbl.Get(key)
	assert.Equal(t, 2.0, v.AsNumber())
}

func TestTableGrowsAndRetainsEntries(t *testing.T) {
	vm := machine.New()
	var tbl machine.Table

	const n = 200
	keys := make([]*machine.StringObj, n)
	for i := 0; i < n; i++ {
		keys[i] = vm.InternString("k" + strconv.Itoa(i))
		tbl.Set(keys[i], machine.NumberValue(float64(i)))
	}

	assert.Equal(t, n, tbl.Count())
	for i, k := range keys {
		v, found := tbl.Get(k)
		require.True(t, found)
		assert.Equal(t, float64(i), v.AsNumber())
	}
}

func TestTableAddAll(t *testing.T) {
	vm := machine.New()
	var src, dst machine.Table

	a := vm.InternString("a")
	b := vm.InternString("b")
	src.Set(a, machine.NumberValue(1))
	src.Set(b, machine.NumberValue(2))

	dst.Set(a, machine.NumberValue(99)) // pre-existing, AddAll overwrites it

	dst.AddAll(&src)

	va, _ := dst.Get(a)
	vb, _ := dst.Get(b)
	assert.Equal(t, 1.0, va.AsNumber())
	assert.Equal(t, 2.0, vb.AsNumber())
}

func TestFindStringInterning(t *testing.T) {
	vm := machine.New()
	a := vm.InternString("shared")
	b := vm.InternString("shared")
	assert.Same(t, a, b, "equal-content strings must be interned to the same object")

	c := vm.InternString("different")
	assert.NotSame(t, a, c)
}
