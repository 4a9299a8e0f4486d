package analyzer

import (
	"sort"

	"github.com/redneckbeard/rbprof/types"
)

// ClassDef is the registry's record of a class or module.
type ClassDef struct {
	Class      types.ClassObject
	Superclass int
	Builtin    bool
	// Includes and Extends hold module IDs in the order they were mixed in.
	Includes []int
	Extends  []int
	// libIncludes and libExtends count the leading mixins made by the core
	// library rather than by the program.
	libIncludes int
	libExtends  int

	consts     map[string]types.Type
	constOrder []string
	methods    methodTable
	smethods   methodTable
}

func (d *ClassDef) table(singleton bool) *methodTable {
	if singleton {
		return &d.smethods
	}
	return &d.methods
}

type methodTable struct {
	names []string
	sets  map[string][]*MethodDef
}

func (t *methodTable) add(mid string, m *MethodDef) {
	if t.sets == nil {
		t.sets = map[string][]*MethodDef{}
	}
	defs, ok := t.sets[mid]
	if !ok {
		t.names = append(t.names, mid)
	}
	for _, d := range defs {
		if d.key == m.key {
			return
		}
	}
	t.sets[mid] = append(defs, m)
}

func (t *methodTable) replace(mid string, defs []*MethodDef) {
	if t.sets == nil {
		t.sets = map[string][]*MethodDef{}
	}
	if _, ok := t.sets[mid]; !ok {
		t.names = append(t.names, mid)
	}
	t.sets[mid] = defs
}

func (t *methodTable) get(mid string) []*MethodDef {
	return t.sets[mid]
}

// Registry owns every class and module known to an analysis, along with
// their constants and method tables.
type Registry struct {
	defs []*ClassDef
}

func NewRegistry() *Registry {
	r := &Registry{}
	for _, b := range types.BuiltinClasses {
		if b.Class.ID != len(r.defs) {
			invariant("builtin class %s registered out of order", b.Class.Name)
		}
		r.defs = append(r.defs, &ClassDef{Class: b.Class, Superclass: b.Superclass, Builtin: true})
		if b.Class.ID != types.ObjectClass.ID {
			r.SetConstant(types.ObjectClass, b.Class.Name, b.Class)
		}
	}
	r.Include(types.ObjectClass, types.KernelModule)
	return r
}

// sealLibrary marks every mixin made so far as part of the core library.
func (r *Registry) sealLibrary() {
	for _, d := range r.defs {
		d.libIncludes, d.libExtends = len(d.Includes), len(d.Extends)
	}
}

// ProgramIncludes returns the modules the program itself included into d.
func (d *ClassDef) ProgramIncludes() []int { return d.Includes[d.libIncludes:] }

func (d *ClassDef) ProgramExtends() []int { return d.Extends[d.libExtends:] }

func (r *Registry) Def(c types.ClassObject) *ClassDef {
	if c.ID < 0 || c.ID >= len(r.defs) {
		invariant("unknown class %s (id %d)", c.Name, c.ID)
	}
	return r.defs[c.ID]
}

// Classes returns every definition in creation order.
func (r *Registry) Classes() []*ClassDef {
	return r.defs
}

// NewClass creates a class or module. The name is qualified by the
// enclosing class unless that is Object.
func (r *Registry) NewClass(name string, superclass int, module bool, outer types.ClassObject) types.ClassObject {
	if outer.ID != types.ObjectClass.ID && outer.Name != "" {
		name = outer.Name + "::" + name
	}
	c := types.ClassObject{ID: len(r.defs), Name: name, Module: module}
	if module {
		superclass = -1
	}
	r.defs = append(r.defs, &ClassDef{Class: c, Superclass: superclass})
	return c
}

func (r *Registry) Superclass(c types.ClassObject) (types.ClassObject, bool) {
	super := r.Def(c).Superclass
	if super < 0 {
		return types.ClassObject{}, false
	}
	return r.defs[super].Class, true
}

func (r *Registry) Include(klass, mod types.ClassObject) {
	d := r.Def(klass)
	for _, id := range d.Includes {
		if id == mod.ID {
			return
		}
	}
	d.Includes = append(d.Includes, mod.ID)
}

func (r *Registry) Extend(klass, mod types.ClassObject) {
	d := r.Def(klass)
	for _, id := range d.Extends {
		if id == mod.ID {
			return
		}
	}
	d.Extends = append(d.Extends, mod.ID)
}

// Ancestors lists the classes and modules searched for an instance method
// of c, nearest first: each class is followed by its included modules,
// most recently included first, then its superclass.
func (r *Registry) Ancestors(c types.ClassObject) []types.ClassObject {
	var out []types.ClassObject
	seen := map[int]bool{}
	for id := c.ID; id >= 0; id = r.defs[id].Superclass {
		r.appendWithModules(id, seen, &out)
	}
	return out
}

func (r *Registry) appendWithModules(id int, seen map[int]bool, out *[]types.ClassObject) {
	if seen[id] {
		return
	}
	seen[id] = true
	d := r.defs[id]
	*out = append(*out, d.Class)
	for i := len(d.Includes) - 1; i >= 0; i-- {
		r.appendWithModules(d.Includes[i], seen, out)
	}
}

func (r *Registry) IsSubclass(sub, sup types.ClassObject) bool {
	for _, a := range r.Ancestors(sub) {
		if a.ID == sup.ID {
			return true
		}
	}
	return false
}

func (r *Registry) AddMethod(klass types.ClassObject, singleton bool, mid string, m *MethodDef) {
	r.Def(klass).table(singleton).add(mid, m)
}

// Alias binds newName to the definitions currently found under oldName.
func (r *Registry) Alias(klass types.ClassObject, singleton bool, newName, oldName string) bool {
	var recv types.Type = types.InstanceOf(klass)
	if singleton {
		recv = klass
	}
	defs := r.ResolveMethod(recv, oldName)
	if len(defs) == 0 {
		return false
	}
	r.Def(klass).table(singleton).replace(newName, defs)
	return true
}

// ResolveMethod finds the definitions answering mid on recv. A class object
// receiver searches singleton methods, falling back to the instance methods
// of Class or Module. Nothing resolves on Any.
func (r *Registry) ResolveMethod(recv types.Type, mid string) []*MethodDef {
	switch t := types.BaseOf(recv).(type) {
	case types.ClassObject:
		if defs := r.resolveSingleton(t, mid); len(defs) > 0 {
			return defs
		}
		meta := types.ClassClass
		if t.Module {
			meta = types.ModuleClass
		}
		return r.resolveInstance(meta, mid, 0)
	case types.Instance:
		return r.resolveInstance(t.Class, mid, 0)
	}
	return nil
}

func (r *Registry) resolveInstance(c types.ClassObject, mid string, skip int) []*MethodDef {
	ancestors := r.Ancestors(c)
	for _, a := range ancestors[skip:] {
		if defs := r.defs[a.ID].methods.get(mid); len(defs) > 0 {
			return defs
		}
	}
	return nil
}

func (r *Registry) resolveSingleton(c types.ClassObject, mid string) []*MethodDef {
	for id := c.ID; id >= 0; id = r.defs[id].Superclass {
		d := r.defs[id]
		if defs := d.smethods.get(mid); len(defs) > 0 {
			return defs
		}
		for i := len(d.Extends) - 1; i >= 0; i-- {
			if defs := r.resolveInstance(r.defs[d.Extends[i]].Class, mid, 0); len(defs) > 0 {
				return defs
			}
		}
	}
	return nil
}

// ResolveSuper finds the definitions a super call from a method defined in
// owner reaches. For instance methods the search continues past owner in
// the receiver's ancestry, so modules mixed into the receiver's class are
// visited in order.
func (r *Registry) ResolveSuper(recv types.Type, owner types.ClassObject, singleton bool, mid string) []*MethodDef {
	if singleton {
		super, ok := r.Superclass(owner)
		if !ok {
			return nil
		}
		return r.resolveSingleton(super, mid)
	}
	if c, ok := types.ClassOf(recv); ok {
		for i, a := range r.Ancestors(c) {
			if a.ID == owner.ID {
				return r.resolveInstance(c, mid, i+1)
			}
		}
	}
	return r.resolveInstance(owner, mid, 1)
}

func (r *Registry) Constant(klass types.ClassObject, name string) (types.Type, bool) {
	t, ok := r.Def(klass).consts[name]
	return t, ok
}

// SetConstant binds name in klass, reporting whether it was already bound.
func (r *Registry) SetConstant(klass types.ClassObject, name string, t types.Type) bool {
	d := r.Def(klass)
	if d.consts == nil {
		d.consts = map[string]types.Type{}
	}
	_, existed := d.consts[name]
	if !existed {
		d.constOrder = append(d.constOrder, name)
	}
	d.consts[name] = t
	return existed
}

// SearchConstant resolves name lexically through cref, then through the
// ancestry of the innermost class, and finally in Object.
func (r *Registry) SearchConstant(cref *CRef, name string) (types.Type, bool) {
	for c := cref; c != nil; c = c.Outer {
		if klass, ok := c.Class(); ok {
			if t, ok := r.Constant(klass, name); ok {
				return t, true
			}
		}
	}
	if cref != nil {
		if klass, ok := cref.Class(); ok {
			for _, a := range r.Ancestors(klass) {
				if t, ok := r.Constant(a, name); ok {
					return t, true
				}
			}
		}
	}
	if t, ok := r.Constant(types.ObjectClass, name); ok {
		return t, true
	}
	return types.Any, false
}

// Lookup finds a class by its qualified name.
func (r *Registry) Lookup(name string) (types.ClassObject, bool) {
	for _, d := range r.defs {
		if d.Class.Name == name {
			return d.Class, true
		}
	}
	return types.ClassObject{}, false
}

// MethodNames lists the names defined directly on klass in definition order.
func (d *ClassDef) MethodNames(singleton bool) []string {
	return d.table(singleton).names
}

func (d *ClassDef) Methods(singleton bool, mid string) []*MethodDef {
	return d.table(singleton).get(mid)
}

// Constants lists the constant names bound in the class, sorted.
func (d *ClassDef) Constants() []string {
	names := append([]string(nil), d.constOrder...)
	sort.Strings(names)
	return names
}
