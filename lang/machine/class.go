package machine

// Class is a Lox class value: a name and a method table mapping method
// name to Closure. Single inheritance is implemented by copying the
// superclass's method table into the subclass's at OP_INHERIT time, not
// by a runtime parent pointer.
type Class struct {
	Header
	Name    *StringObj
	Methods Table
}

func (c *Class) String() string { return c.Name.Chars }

// Instance is a Lox object: a class reference and its own field table.
// Field lookups never consult the class; only method lookups do. Fields
// shadow methods of the same name.
type Instance struct {
	Header
	Class  *Class
	Fields Table
}

func (i *Instance) String() string { return i.Class.Name.Chars + " instance" }

// BoundMethod pairs a receiver with the method Closure looked up on its
// class, produced by GET_PROPERTY when the property names a method rather
// than a field.
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
