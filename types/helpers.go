package types

// ContainerStore resolves allocation sites to the elements an environment
// currently records for them.
type ContainerStore interface {
	Container(AllocSite) (Elements, bool)
}

// Globalize turns a type that may refer to environment-local containers
// into one that stands on its own: local arrays and hashes are replaced by
// their contents, literals other than symbols are widened to their base
// type, and cycles or overly deep nesting collapse to Any.
func Globalize(t Type, store ContainerStore) Type {
	return globalize(t, store, map[AllocSite]bool{}, 0)
}

func globalize(t Type, store ContainerStore, visited map[AllocSite]bool, depth int) Type {
	switch t := t.(type) {
	case Union:
		joined := Bot
		for _, m := range t.members {
			joined = Join(joined, globalize(m, store, visited, depth))
		}
		return joined
	case Literal:
		if t.Kind == SymbolLit {
			return t
		}
		return t.Base
	case LocalArray:
		elems, ok := lookup(t.Site, store)
		if !ok {
			return NewArray(SeqElems(Any), t.Base)
		}
		if visited[t.Site] || depth >= MaxDepth {
			return Any
		}
		visited[t.Site] = true
		defer delete(visited, t.Site)
		ae, ok := elems.(ArrayElems)
		if !ok {
			return NewArray(SeqElems(Any), t.Base)
		}
		return NewArray(ae.mapArray(func(e Type) Type { return globalize(e, store, visited, depth+1) }), t.Base)
	case LocalHash:
		elems, ok := lookup(t.Site, store)
		if !ok {
			return NewHash(HashElemsOf(Any, Any), t.Base)
		}
		if visited[t.Site] || depth >= MaxDepth {
			return Any
		}
		visited[t.Site] = true
		defer delete(visited, t.Site)
		he, ok := elems.(HashElems)
		if !ok {
			return NewHash(HashElemsOf(Any, Any), t.Base)
		}
		return NewHash(he.Map(func(e Type) Type { return globalize(e, store, visited, depth+1) }).(HashElems), t.Base)
	case Array:
		if depth >= MaxDepth {
			return Any
		}
		return NewArray(t.Elems.mapArray(func(e Type) Type { return globalize(e, store, visited, depth+1) }), t.Base)
	case Hash:
		if depth >= MaxDepth {
			return Any
		}
		return NewHash(t.Elems.Map(func(e Type) Type { return globalize(e, store, visited, depth+1) }).(HashElems), t.Base)
	}
	return t
}

func lookup(site AllocSite, store ContainerStore) (Elements, bool) {
	if store == nil {
		return nil, false
	}
	return store.Container(site)
}

// Subclass reports whether sub is sup or inherits from it.
type Subclass func(sub, sup ClassObject) bool

// Consistent reports whether an actual type may be passed where the formal
// type is expected.
func Consistent(actual, formal Type, isSubclass Subclass) bool {
	if IsAny(actual) || IsAny(formal) {
		return true
	}
	if IsBot(actual) {
		return true
	}
	if u, ok := actual.(Union); ok {
		for _, m := range u.members {
			if !Consistent(m, formal, isSubclass) {
				return false
			}
		}
		return true
	}
	if u, ok := formal.(Union); ok {
		for _, m := range u.members {
			if Consistent(actual, m, isSubclass) {
				return true
			}
		}
		return false
	}
	if Equal(actual, formal) {
		return true
	}
	switch a := actual.(type) {
	case ClassObject:
		switch f := formal.(type) {
		case ClassObject:
			return isSubclass(a, f)
		case Instance:
			if a.Module {
				return isSubclass(ModuleClass, f.Class)
			}
			return isSubclass(ClassClass, f.Class)
		}
		return false
	case Literal, LocalArray, LocalHash, Array, Hash, Proc:
		if _, ok := formal.(Literal); ok {
			return false
		}
		return Consistent(BaseOf(actual), BaseOf(formal), isSubclass)
	case Instance:
		if f, ok := BaseOf(formal).(Instance); ok {
			return isSubclass(a.Class, f.Class)
		}
	}
	return false
}
