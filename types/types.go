// package types provides the abstract values the analyzer computes over:
// classes and their instances, literals, unions, containers and closures,
// along with join, consistency checking and globalization.
//
// Every Type is an immutable value whose identity is its Key. Two types
// are the same type exactly when their keys are equal, so types can be
// compared, deduplicated and used as map keys through Key alone.
package types

import "strings"

type Type interface {
	Key() string
	String() string
}

// MaxUnionSize bounds the number of members a union may hold before it is
// widened to Any.
const MaxUnionSize = 32

// MaxDepth bounds the nesting of container types during globalization.
const MaxDepth = 5

type anyType struct{}

func (anyType) Key() string    { return "any" }
func (anyType) String() string { return "untyped" }

type botType struct{}

func (botType) Key() string    { return "bot" }
func (botType) String() string { return "bot" }

var (
	Any Type = anyType{}
	Bot Type = botType{}
)

func IsAny(t Type) bool {
	_, ok := t.(anyType)
	return ok
}

func IsBot(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(botType)
	return ok
}

func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Each calls fn on every member of t: once for a plain type, once per
// member for a union and never for Bot.
func Each(t Type, fn func(Type)) {
	switch t := t.(type) {
	case nil, botType:
	case Union:
		for _, m := range t.members {
			fn(m)
		}
	default:
		fn(t)
	}
}

func Members(t Type) []Type {
	var ms []Type
	Each(t, func(m Type) { ms = append(ms, m) })
	return ms
}

// BaseOf maps literal and container refinements to the instance type they
// refine, which is what method lookup dispatches on.
func BaseOf(t Type) Type {
	switch t := t.(type) {
	case Literal:
		return t.Base
	case LocalArray:
		return t.Base
	case LocalHash:
		return t.Base
	case Array:
		return t.Base
	case Hash:
		return t.Base
	case Proc:
		return ProcType
	}
	return t
}

// ClassOf reports the class whose instance methods answer calls on t.
// Class objects report ok=false: their methods live in singleton tables.
func ClassOf(t Type) (ClassObject, bool) {
	switch b := BaseOf(t).(type) {
	case Instance:
		return b.Class, true
	}
	return ClassObject{}, false
}

type Truth int

const (
	MaybeTruthy Truth = iota
	AlwaysTruthy
	AlwaysFalsy
)

// Truthiness classifies t as a branch condition.
func Truthiness(t Type) Truth {
	falsy, truthy := 0, 0
	unknown := false
	Each(t, func(m Type) {
		switch m := m.(type) {
		case anyType:
			unknown = true
		case Literal:
			if m.Kind == FalseLit {
				falsy++
			} else {
				truthy++
			}
		case Instance:
			switch m.Class.ID {
			case NilClass.ID, FalseClass.ID:
				falsy++
			default:
				truthy++
			}
		default:
			truthy++
		}
	})
	switch {
	case unknown, falsy > 0 && truthy > 0:
		return MaybeTruthy
	case falsy > 0:
		return AlwaysFalsy
	case truthy > 0:
		return AlwaysTruthy
	}
	return MaybeTruthy
}

func joinStrings(ts []Type, sep string) string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = t.String()
	}
	return strings.Join(strs, sep)
}
