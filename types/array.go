package types

import (
	"strconv"
	"strings"
)

// AllocSite names the place a container was materialized. Nested
// containers extend their parent's site with the element position.
type AllocSite string

func (s AllocSite) Add(i int) AllocSite {
	return s + AllocSite("/"+strconv.Itoa(i))
}

// Elements describes the contents of a container.
type Elements interface {
	Key() string
	String() string
	Join(Elements) Elements
	Map(func(Type) Type) Elements
}

// ArrayElems is either a tuple, with one type per position and a bottom
// Rest, or a sequence, whose positions all share the squashed Rest type.
type ArrayElems struct {
	Lead []Type
	Rest Type
}

func TupleElems(ts ...Type) ArrayElems { return ArrayElems{Lead: ts, Rest: Bot} }
func SeqElems(t Type) ArrayElems       { return ArrayElems{Rest: t} }

func (e ArrayElems) rest() Type {
	if e.Rest == nil {
		return Bot
	}
	return e.Rest
}

func (e ArrayElems) IsTuple() bool { return IsBot(e.Rest) }

func (e ArrayElems) Key() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, t := range e.Lead {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(t.Key())
	}
	sb.WriteString(";*")
	sb.WriteString(e.rest().Key())
	sb.WriteString("]")
	return sb.String()
}

func (e ArrayElems) String() string {
	if e.IsTuple() {
		return "[" + joinStrings(e.Lead, ", ") + "]"
	}
	return "Array[" + e.Squash().String() + "]"
}

func (e ArrayElems) Squash() Type {
	squashed := e.rest()
	for _, t := range e.Lead {
		squashed = Join(squashed, t)
	}
	return squashed
}

// At returns the type of the element at idx. Reading past the end of a
// tuple yields NilClass.
func (e ArrayElems) At(idx int) Type {
	if idx < 0 && e.IsTuple() {
		idx += len(e.Lead)
	}
	if idx >= 0 && idx < len(e.Lead) {
		return e.Lead[idx]
	}
	if e.IsTuple() {
		return NilType
	}
	return e.Squash()
}

// Update replaces the element at idx. A write past the end of a tuple
// turns it into a sequence.
func (e ArrayElems) Update(idx int, t Type) ArrayElems {
	if idx < 0 && e.IsTuple() {
		idx += len(e.Lead)
	}
	if idx >= 0 && idx < len(e.Lead) {
		lead := make([]Type, len(e.Lead))
		copy(lead, e.Lead)
		lead[idx] = t
		return ArrayElems{Lead: lead, Rest: e.rest()}
	}
	return SeqElems(Join(e.Squash(), t))
}

// UpdateAny models a write at an unknown index.
func (e ArrayElems) UpdateAny(t Type) ArrayElems {
	return SeqElems(Join(e.Squash(), t))
}

func (e ArrayElems) Append(t Type) ArrayElems {
	if e.IsTuple() {
		lead := make([]Type, len(e.Lead), len(e.Lead)+1)
		copy(lead, e.Lead)
		return TupleElems(append(lead, t)...)
	}
	return ArrayElems{Lead: e.Lead, Rest: Join(e.Rest, t)}
}

func (e ArrayElems) Concat(o ArrayElems) ArrayElems {
	if e.IsTuple() && o.IsTuple() {
		lead := make([]Type, 0, len(e.Lead)+len(o.Lead))
		lead = append(lead, e.Lead...)
		return TupleElems(append(lead, o.Lead...)...)
	}
	return SeqElems(Join(e.Squash(), o.Squash()))
}

// Pop removes the last element, returning its type and the remainder.
func (e ArrayElems) Pop() (Type, ArrayElems) {
	if !e.IsTuple() {
		return Join(e.Squash(), NilType), e
	}
	if len(e.Lead) == 0 {
		return NilType, e
	}
	n := len(e.Lead) - 1
	return e.Lead[n], TupleElems(e.Lead[:n:n]...)
}

// TakeFirst splits off n leading element types, padding a short tuple
// with NilClass.
func (e ArrayElems) TakeFirst(n int) ([]Type, ArrayElems) {
	first := make([]Type, n)
	for i := range first {
		first[i] = e.At(i)
		if !e.IsTuple() && i >= len(e.Lead) {
			first[i] = Join(e.Rest, NilType)
		}
	}
	if e.IsTuple() {
		if n >= len(e.Lead) {
			return first, TupleElems()
		}
		return first, TupleElems(e.Lead[n:]...)
	}
	return first, SeqElems(e.Squash())
}

func (e ArrayElems) Join(other Elements) Elements {
	o, ok := other.(ArrayElems)
	if !ok {
		return SeqElems(Any)
	}
	return e.joinArray(o)
}

func (e ArrayElems) joinArray(o ArrayElems) ArrayElems {
	if e.IsTuple() && o.IsTuple() && len(e.Lead) == len(o.Lead) {
		lead := make([]Type, len(e.Lead))
		for i := range lead {
			lead[i] = Join(e.Lead[i], o.Lead[i])
		}
		return TupleElems(lead...)
	}
	return SeqElems(Join(e.Squash(), o.Squash()))
}

func (e ArrayElems) Map(fn func(Type) Type) Elements {
	return e.mapArray(fn)
}

func (e ArrayElems) mapArray(fn func(Type) Type) ArrayElems {
	lead := make([]Type, len(e.Lead))
	for i, t := range e.Lead {
		lead[i] = fn(t)
	}
	rest := e.rest()
	if !IsBot(rest) {
		rest = fn(rest)
	}
	return ArrayElems{Lead: lead, Rest: rest}
}

// Array is a container type whose elements are fully globalized; it is
// what signatures and variable tables store.
type Array struct {
	Elems ArrayElems
	Base  Type
	key   string
}

func NewArray(elems ArrayElems, base Type) Array {
	if base == nil {
		base = ArrayType
	}
	a := Array{Elems: elems, Base: base}
	a.key = a.computeKey()
	return a
}

func (t Array) computeKey() string { return "A<" + t.Base.Key() + ">" + t.Elems.Key() }

func (t Array) Key() string {
	if t.key == "" {
		return t.computeKey()
	}
	return t.key
}

func (t Array) String() string { return t.Elems.String() }

func (t Array) merge(o Array) Array {
	return NewArray(t.Elems.joinArray(o.Elems), t.Base)
}

// LocalArray is an array whose elements live in an environment's
// container table under Site. It only exists inside an Env.
type LocalArray struct {
	Site AllocSite
	Base Type
}

func (t LocalArray) Key() string    { return "LA(" + string(t.Site) + ")" }
func (t LocalArray) String() string { return "Array@" + string(t.Site) }
