package analyzer

import "github.com/redneckbeard/rbprof/types"

func init() {
	builtins = append(builtins, func(r *Registry) {
		r.AddSingletonNativeMethod(types.HashClass, "new", hashNew)
		r.AddNativeMethod(types.HashClass, "[]", hashIndex)
		r.AddNativeMethod(types.HashClass, "fetch", hashIndex)
		r.AddNativeMethod(types.HashClass, "dig", hashIndex)
		r.AddNativeMethod(types.HashClass, "[]=", hashAssign)
		r.AddNativeMethod(types.HashClass, "store", hashAssign)
		r.AddNativeMethod(types.HashClass, "each", hashEach)
		r.AddNativeMethod(types.HashClass, "each_pair", hashEach)
		r.AddNativeMethod(types.HashClass, "keys", hashKeys)
		r.AddNativeMethod(types.HashClass, "values", hashValues)
		r.AddNativeMethod(types.HashClass, "to_a", hashToA)
		r.AddNativeMethod(types.HashClass, "to_h", objectSelf)
		r.AddTypedMethod(types.HashClass, "size", sig(types.IntType))
		r.AddTypedMethod(types.HashClass, "length", sig(types.IntType))
		r.AddTypedMethod(types.HashClass, "empty?", sig(types.BoolType))
		for _, mid := range []string{"key?", "has_key?", "include?", "member?", "value?"} {
			r.AddTypedMethod(types.HashClass, mid, sig(types.BoolType, types.Any))
		}

		r.AddSingletonNativeMethod(types.ArrayClass, "new", arrayNew)
	})
}

func hashNew(s *Scratch, c *Call) {
	c.ret(types.NewHash(types.HashElems{}, nil))
}

func arrayNew(s *Scratch, c *Call) {
	switch len(c.Args.Lead) {
	case 0:
		c.ret(types.NewArray(types.TupleElems(), nil))
	case 1:
		c.ret(types.NewArray(types.SeqElems(types.NilType), nil))
	default:
		c.ret(types.NewArray(types.SeqElems(c.global(s, c.arg(1))), nil))
	}
}

func hashIndex(s *Scratch, c *Call) {
	_, elems, ok := c.hashElems(s)
	if !ok || len(c.Args.Lead) == 0 {
		c.ret(types.Any)
		return
	}
	c.ret(elems.Lookup(c.global(s, c.arg(0))))
}

func hashAssign(s *Scratch, c *Call) {
	h, _, ok := c.hashElems(s)
	if !ok || len(c.Args.Lead) != 2 {
		c.ret(types.Any)
		return
	}
	k, v := c.global(s, c.arg(0)), c.arg(1)
	env := s.updateContainer(c.EP, c.Env, h.Site, func(e types.Elements) types.Elements {
		return e.(types.HashElems).Update(k, v)
	})
	c.Ctn(v, c.EP, env)
}

// hashEach yields each entry as a [key, value] pair, which a block taking
// two parameters splats.
func hashEach(s *Scratch, c *Call) {
	_, elems, ok := c.hashElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	k, v := elems.Squash()
	pair := types.NewArray(types.TupleElems(k, c.global(s, v)), nil)
	eachElem(s, c, []types.Type{pair}, func(types.Type) types.Type { return c.Recv })
}

func hashKeys(s *Scratch, c *Call) {
	_, elems, ok := c.hashElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	k, _ := elems.Squash()
	c.ret(types.NewArray(types.SeqElems(k), nil))
}

func hashValues(s *Scratch, c *Call) {
	_, elems, ok := c.hashElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	_, v := elems.Squash()
	c.ret(types.NewArray(types.SeqElems(c.global(s, v)), nil))
}

func hashToA(s *Scratch, c *Call) {
	_, elems, ok := c.hashElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	k, v := elems.Squash()
	pair := types.NewArray(types.TupleElems(k, c.global(s, v)), nil)
	c.ret(types.NewArray(types.SeqElems(pair), nil))
}
