package analyzer

import "github.com/redneckbeard/rbprof/types"

// builtins populate a fresh registry with the core library. Each builtin
// file appends its definitions from init.
var builtins []func(r *Registry)

func (s *Scratch) registerBuiltins() {
	for _, def := range builtins {
		def(s.Registry)
	}
	s.Registry.sealLibrary()
}

// DefineBuiltinClass registers a library class or module under a top-level
// constant. Modules ignore superclass.
func (r *Registry) DefineBuiltinClass(name string, superclass types.ClassObject, module bool) types.ClassObject {
	c := r.NewClass(name, superclass.ID, module, types.ObjectClass)
	r.Def(c).Builtin = true
	r.SetConstant(types.ObjectClass, name, c)
	return c
}

func (r *Registry) AddTypedMethod(klass types.ClassObject, mid string, sigs ...Signature) {
	r.AddMethod(klass, false, mid, newTypedMethod(sigs...))
}

func (r *Registry) AddSingletonTypedMethod(klass types.ClassObject, mid string, sigs ...Signature) {
	r.AddMethod(klass, true, mid, newTypedMethod(sigs...))
}

func (r *Registry) AddNativeMethod(klass types.ClassObject, mid string, fn NativeFunc) {
	r.AddMethod(klass, false, mid, newNativeMethod(fn))
}

func (r *Registry) AddSingletonNativeMethod(klass types.ClassObject, mid string, fn NativeFunc) {
	r.AddMethod(klass, true, mid, newNativeMethod(fn))
}

func sig(ret types.Type, args ...types.Type) Signature {
	return Signature{Args: args, Ret: ret}
}

func sigRest(ret, rest types.Type, args ...types.Type) Signature {
	return Signature{Args: args, Rest: rest, Ret: ret}
}

func sigBlock(ret types.Type, blk BlockSignature, args ...types.Type) Signature {
	return Signature{Args: args, Block: &blk, Ret: ret}
}

// arg returns the i'th positional actual, or nil when there are fewer.
func (c *Call) arg(i int) types.Type {
	if i < len(c.Args.Lead) {
		return c.Args.Lead[i]
	}
	return nil
}

func (c *Call) store(s *Scratch) types.ContainerStore {
	return s.store(c.EP, c.Env)
}

func (c *Call) global(s *Scratch, t types.Type) types.Type {
	return types.Globalize(t, c.store(s))
}

func (c *Call) ret(t types.Type) {
	c.Ctn(t, c.EP, c.Env)
}

// arrayElems reads the contents of a local array receiver.
func (c *Call) arrayElems(s *Scratch) (types.LocalArray, types.ArrayElems, bool) {
	ary, ok := c.Recv.(types.LocalArray)
	if !ok {
		return ary, types.ArrayElems{}, false
	}
	elems, ok := c.store(s).Container(ary.Site)
	if !ok {
		return ary, types.ArrayElems{}, false
	}
	ae, ok := elems.(types.ArrayElems)
	return ary, ae, ok
}

func (c *Call) hashElems(s *Scratch) (types.LocalHash, types.HashElems, bool) {
	h, ok := c.Recv.(types.LocalHash)
	if !ok {
		return h, types.HashElems{}, false
	}
	elems, ok := c.store(s).Container(h.Site)
	if !ok {
		return h, types.HashElems{}, false
	}
	he, ok := elems.(types.HashElems)
	return h, he, ok
}
