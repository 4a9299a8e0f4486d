package types

import "strconv"

// ClassObject is a class or module used as a value, e.g. the receiver of
// `Foo.new` or the operand of `include`. IDs are assigned by the registry
// that owns the class definition; the builtin classes have fixed IDs.
type ClassObject struct {
	ID     int
	Name   string
	Module bool
}

func (c ClassObject) Key() string    { return "C" + strconv.Itoa(c.ID) }
func (c ClassObject) String() string { return c.Name + ".class" }

func (c ClassObject) Kind() string {
	if c.Module {
		return "module"
	}
	return "class"
}

type Instance struct {
	Class ClassObject
}

func (t Instance) Key() string    { return "I" + strconv.Itoa(t.Class.ID) }
func (t Instance) String() string { return t.Class.Name }

func InstanceOf(c ClassObject) Type { return Instance{Class: c} }
