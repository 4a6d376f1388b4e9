package machine

import "time"

// processStart anchors nativeClock's wall-clock measurement. The native
// clock() function traditionally reports CPU time via the C standard
// library; Go has no portable equivalent, so clock() here reports
// wall-clock seconds since the VM was loaded instead.
var processStart = time.Now()

func nativeClock(vm *VM, args []Value) (Value, error) {
	return NumberValue(time.Since(processStart).Seconds()), nil
}
