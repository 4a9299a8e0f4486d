package types

import (
	"sort"
	"strings"
)

// HashElems maps key types to value types. Keys are kept sorted by Key so
// that equal tables have equal keys.
type HashElems struct {
	keys []Type
	vals []Type
}

func HashElemsOf(pairs ...Type) HashElems {
	var e HashElems
	for i := 0; i+1 < len(pairs); i += 2 {
		e = e.Update(pairs[i], pairs[i+1])
	}
	return e
}

func (e HashElems) Len() int { return len(e.keys) }

func (e HashElems) Each(fn func(k, v Type)) {
	for i, k := range e.keys {
		fn(k, e.vals[i])
	}
}

func (e HashElems) find(k Type) (int, bool) {
	key := k.Key()
	i := sort.Search(len(e.keys), func(i int) bool { return e.keys[i].Key() >= key })
	return i, i < len(e.keys) && e.keys[i].Key() == key
}

// Lookup returns the value type stored under k. Without an exact entry it
// joins every value whose key could match, falling back to NilClass.
func (e HashElems) Lookup(k Type) Type {
	if i, ok := e.find(k); ok {
		return e.vals[i]
	}
	found := Bot
	for i, key := range e.keys {
		if IsAny(k) || IsAny(key) || Equal(BaseOf(key), BaseOf(k)) {
			found = Join(found, e.vals[i])
		}
	}
	if IsBot(found) {
		return NilType
	}
	return found
}

func (e HashElems) Update(k, v Type) HashElems {
	i, ok := e.find(k)
	keys := make([]Type, len(e.keys), len(e.keys)+1)
	vals := make([]Type, len(e.vals), len(e.vals)+1)
	copy(keys, e.keys)
	copy(vals, e.vals)
	if ok {
		vals[i] = v
		return HashElems{keys: keys, vals: vals}
	}
	keys = append(keys, nil)
	vals = append(vals, nil)
	copy(keys[i+1:], keys[i:])
	copy(vals[i+1:], vals[i:])
	keys[i], vals[i] = k, v
	return HashElems{keys: keys, vals: vals}
}

// Squash returns the join of all keys and the join of all values.
func (e HashElems) Squash() (Type, Type) {
	k, v := Bot, Bot
	for i := range e.keys {
		k = Join(k, e.keys[i])
		v = Join(v, e.vals[i])
	}
	return k, v
}

func (e HashElems) Key() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range e.keys {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(k.Key())
		sb.WriteString("=>")
		sb.WriteString(e.vals[i].Key())
	}
	sb.WriteString("}")
	return sb.String()
}

func (e HashElems) String() string {
	if len(e.keys) == 0 {
		return "{}"
	}
	pairs := make([]string, len(e.keys))
	for i, k := range e.keys {
		pairs[i] = k.String() + " => " + e.vals[i].String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func (e HashElems) Join(other Elements) Elements {
	o, ok := other.(HashElems)
	if !ok {
		return HashElemsOf(Any, Any)
	}
	return e.joinHash(o)
}

func (e HashElems) joinHash(o HashElems) HashElems {
	joined := e
	o.Each(func(k, v Type) {
		if i, ok := joined.find(k); ok {
			v = Join(joined.vals[i], v)
		}
		joined = joined.Update(k, v)
	})
	return joined
}

func (e HashElems) Map(fn func(Type) Type) Elements {
	var mapped HashElems
	e.Each(func(k, v Type) {
		k, v = fn(k), fn(v)
		if i, ok := mapped.find(k); ok {
			v = Join(mapped.vals[i], v)
		}
		mapped = mapped.Update(k, v)
	})
	return mapped
}

type Hash struct {
	Elems HashElems
	Base  Type
	key   string
}

func NewHash(elems HashElems, base Type) Hash {
	if base == nil {
		base = HashType
	}
	h := Hash{Elems: elems, Base: base}
	h.key = h.computeKey()
	return h
}

func (t Hash) computeKey() string { return "H<" + t.Base.Key() + ">" + t.Elems.Key() }

func (t Hash) Key() string {
	if t.key == "" {
		return t.computeKey()
	}
	return t.key
}

func (t Hash) String() string { return t.Elems.String() }

func (t Hash) merge(o Hash) Hash {
	return NewHash(t.Elems.joinHash(o.Elems), t.Base)
}

type LocalHash struct {
	Site AllocSite
	Base Type
}

func (t LocalHash) Key() string    { return "LH(" + string(t.Site) + ")" }
func (t LocalHash) String() string { return "Hash@" + string(t.Site) }
