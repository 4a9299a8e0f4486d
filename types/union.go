package types

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Union is a set of two or more non-union member types, kept sorted by key.
// Arrays and hashes sharing a base class occupy a single slot whose
// elements are the join of all of them, and a literal is never kept next
// to the instance type it refines.
type Union struct {
	members []Type
	key     string
}

func (u Union) Key() string     { return u.key }
func (u Union) Members() []Type { return u.members }

func (u Union) String() string {
	var hasTrue, hasFalse bool
	for _, m := range u.members {
		if inst, ok := m.(Instance); ok {
			hasTrue = hasTrue || inst.Class.ID == TrueClass.ID
			hasFalse = hasFalse || inst.Class.ID == FalseClass.ID
		}
	}
	collapse := hasTrue && hasFalse
	seen := map[string]bool{}
	var names []string
	if collapse {
		names = append(names, "bool")
	}
	for _, m := range u.members {
		if inst, ok := m.(Instance); ok && collapse && (inst.Class.ID == TrueClass.ID || inst.Class.ID == FalseClass.ID) {
			continue
		}
		s := m.String()
		if !seen[s] {
			seen[s] = true
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return strings.Join(names, " | ")
}

// Join is the least upper bound of a and b.
func Join(a, b Type) Type {
	if joined, ok := joinTrivial(a, b); ok {
		return joined
	}
	var ub unionBuilder
	ub.add(a)
	ub.add(b)
	return ub.build()
}

func joinTrivial(a, b Type) (Type, bool) {
	switch {
	case IsBot(a):
		if b == nil {
			return Bot, true
		}
		return b, true
	case IsBot(b):
		return a, true
	case IsAny(a) || IsAny(b):
		return Any, true
	case a.Key() == b.Key():
		return a, true
	}
	return nil, false
}

// Lattice memoizes joins for the duration of one analysis. Keys only
// identify a type within the analysis that built it, so a Lattice must
// never be shared between analyses.
type Lattice struct {
	cache *lru.Cache
}

func NewLattice() *Lattice {
	cache, err := lru.New(8192)
	if err != nil {
		panic(err)
	}
	return &Lattice{cache: cache}
}

// Join is Join, remembering the result for the pair of keys.
func (l *Lattice) Join(a, b Type) Type {
	if joined, ok := joinTrivial(a, b); ok {
		return joined
	}
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	cacheKey := ka + "\x00" + kb
	if cached, ok := l.cache.Get(cacheKey); ok {
		return cached.(Type)
	}
	joined := Join(a, b)
	l.cache.Add(cacheKey, joined)
	return joined
}

func (l *Lattice) Len() int { return l.cache.Len() }

func JoinAll(ts ...Type) Type {
	joined := Bot
	for _, t := range ts {
		joined = Join(joined, t)
	}
	return joined
}

type unionBuilder struct {
	members map[string]Type
	sawAny  bool
}

func (ub *unionBuilder) add(t Type) {
	Each(t, ub.addMember)
}

func (ub *unionBuilder) addMember(t Type) {
	if ub.members == nil {
		ub.members = map[string]Type{}
	}
	switch t := t.(type) {
	case anyType:
		ub.sawAny = true
		return
	case Literal:
		if _, ok := ub.members[t.Base.Key()]; ok {
			return
		}
	case Instance:
		for k, m := range ub.members {
			if lit, ok := m.(Literal); ok && lit.Base.Key() == t.Key() {
				delete(ub.members, k)
			}
		}
	case Array:
		slot := "A" + t.Base.Key()
		if prev, ok := ub.members[slot]; ok {
			t = t.merge(prev.(Array))
		}
		ub.members[slot] = t
		return
	case Hash:
		slot := "H" + t.Base.Key()
		if prev, ok := ub.members[slot]; ok {
			t = t.merge(prev.(Hash))
		}
		ub.members[slot] = t
		return
	}
	ub.members[t.Key()] = t
}

func (ub *unionBuilder) build() Type {
	if ub.sawAny || len(ub.members) > MaxUnionSize {
		return Any
	}
	members := make([]Type, 0, len(ub.members))
	for _, m := range ub.members {
		members = append(members, m)
	}
	switch len(members) {
	case 0:
		return Bot
	case 1:
		return members[0]
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Key() < members[j].Key() })
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key()
	}
	return Union{members: members, key: "U(" + strings.Join(keys, "|") + ")"}
}
