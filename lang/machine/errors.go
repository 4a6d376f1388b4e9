package machine

import (
	"fmt"
	"strings"
)

// RuntimeError is returned by VM.Run when execution fails after
// compilation succeeded: arity mismatches, type errors on operators,
// undefined variables, stack overflow. Its Error() rendering is the
// message followed by a per-frame backtrace, newest frame first.
type RuntimeError struct {
	Message string
	Frames  []string
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, f := range e.Frames {
		sb.WriteByte('\n')
		sb.WriteString(f)
	}
	return sb.String()
}

// runtimeError builds a RuntimeError carrying the current call stack's
// backtrace, newest frame to oldest, and resets the VM's value stack:
// the language has no try/catch surface, so no error is ever caught and
// resumed.
func (vm *VM) runtimeError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	frames := make([]string, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.Closure.Function
		line := fn.Chunk.LineAt(frame.IP - 1)
		if fn.Name == nil {
			frames = append(frames, fmt.Sprintf("[line %d] in script", line))
		} else {
			frames = append(frames, fmt.Sprintf("[line %d] in %s()", line, fn.Name.Chars))
		}
	}

	vm.resetStack()
	return &RuntimeError{Message: msg, Frames: frames}
}
