package compiler_test

import (
	"bytes"
	"testing"

	"github.com/loxlang/loxvm/lang/compiler"
	"github.com/loxlang/loxvm/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run compiles and executes src against a fresh VM, returning everything
// written to stdout and either a compiler.Errors or a machine runtime
// error, whichever stage failed (nil if neither did).
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	vm := machine.New()
	var out bytes.Buffer
	vm.Stdout = &out

	fn, errs := compiler.Compile(vm, src)
	if errs != nil {
		return out.String(), errs
	}
	err := vm.Run(fn)
	return out.String(), err
}

func TestEndToEndPrograms(t *testing.T) {
	cases := []struct {
		desc string
		src  string
		want string
	}{
		{
			"arithmetic precedence",
			`print 1 + 2 * 3 - (4 / 2);`,
			"5\n",
		},
		{
			"string concatenation",
			`print "foo" + "bar";`,
			"foobar\n",
		},
		{
			"block scoping and shadowing",
			`
			var a = "outer";
			{
				var a = "inner";
				print a;
			}
			print a;
			`,
			"inner\nouter\n",
		},
		{
			"if/else",
			`
			if (1 < 2) print "yes"; else print "no";
			if (2 < 1) print "yes"; else print "no";
			`,
			"yes\nno\n",
		},
		{
			"while loop",
			`
			var i = 0;
			while (i < 3) {
				print i;
				i = i + 1;
			}
			`,
			"0\n1\n2\n",
		},
		{
			"for loop",
			`
			for (var i = 0; i < 3; i = i + 1) print i;
			`,
			"0\n1\n2\n",
		},
		{
			"and/or short circuit to operand value",
			`
			print nil or "fallback";
			print "first" and "second";
			`,
			"fallback\nsecond\n",
		},
		{
			"recursive function",
			`
			fun fib(n) {
				if (n < 2) return n;
				return fib(n - 1) + fib(n - 2);
			}
			print fib(8);
			`,
			"21\n",
		},
		{
			"closures capture by reference",
			`
			fun makeCounter() {
				var count = 0;
				fun increment() {
					count = count + 1;
					return count;
				}
				return increment;
			}
			var counter = makeCounter();
			print counter();
			print counter();
			print counter();
			`,
			"1\n2\n3\n",
		},
		{
			"classes, fields and methods",
			`
			class Greeter {
				init(name) {
					this.name = name;
				}
				greet() {
					return "Hello, " + this.name;
				}
			}
			var g = Greeter("world");
			print g.greet();
			`,
			"Hello, world\n",
		},
		{
			"single inheritance and super",
			`
			class Animal {
				speak() {
					return "...";
				}
			}
			class Dog < Animal {
				speak() {
					return super.speak() + " Woof";
				}
			}
			print Dog().speak();
			`,
			"... Woof\n",
		},
		{
			"field shadows method of the same name",
			`
			class Box {
				init(v) { this.v = v; }
				get() { return "method"; }
			}
			var b = Box(10);
			print b.get();
			b.get = "field";
			print b.get;
			`,
			"method\nfield\n",
		},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out, err := run(t, c.src)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestParseErrorsAreCollectedNotFatal(t *testing.T) {
	src := `
	print 1 +;
	print "unterminated;
	var = 5;
	`
	_, err := run(t, src)
	require.Error(t, err)
	errs, ok := err.(compiler.Errors)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errs), 2, "panic-mode recovery should surface more than one error in a single pass")
}

func TestRuntimeErrorUndefinedGlobal(t *testing.T) {
	_, err := run(t, `print missing;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'missing'.")
	assert.Contains(t, err.Error(), "[line 1] in script")
}

func TestRuntimeErrorOperandType(t *testing.T) {
	_, err := run(t, `print 1 + true;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operands must be two numbers or two strings.")
}

func TestRuntimeErrorStackOverflowOnUnboundedRecursion(t *testing.T) {
	_, err := run(t, `
	fun recurse() { return recurse(); }
	recurse();
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow.")
}

func TestRuntimeErrorBacktraceOrdersNewestFrameFirst(t *testing.T) {
	_, err := run(t, `
	fun inner() { return 1 + true; }
	fun outer() { return inner(); }
	outer();
	`)
	require.Error(t, err)
	msg := err.Error()
	innerIdx := indexOf(msg, "in inner()")
	outerIdx := indexOf(msg, "in outer()")
	scriptIdx := indexOf(msg, "in script")
	require.True(t, innerIdx >= 0 && outerIdx >= 0 && scriptIdx >= 0)
	assert.True(t, innerIdx < outerIdx && outerIdx < scriptIdx, "backtrace must list newest frame first")
}

func TestCantReturnFromTopLevel(t *testing.T) {
	_, err := run(t, `return 1;`)
	require.Error(t, err)
	errs, ok := err.(compiler.Errors)
	require.True(t, ok)
	assert.Contains(t, errs.Error(), "Can't return from top-level code.")
}

func TestThisOutsideClassIsCompileError(t *testing.T) {
	_, err := run(t, `print this;`)
	require.Error(t, err)
	errs, ok := err.(compiler.Errors)
	require.True(t, ok)
	assert.Contains(t, errs.Error(), "Can't use 'this' outside of a class.")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
