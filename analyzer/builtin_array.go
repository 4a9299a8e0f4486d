package analyzer

import "github.com/redneckbeard/rbprof/types"

func init() {
	builtins = append(builtins, func(r *Registry) {
		r.AddNativeMethod(types.ArrayClass, "[]", arrayIndex)
		r.AddNativeMethod(types.ArrayClass, "first", arrayFirst)
		r.AddNativeMethod(types.ArrayClass, "last", arrayLast)
		r.AddNativeMethod(types.ArrayClass, "[]=", arrayAssign)
		r.AddNativeMethod(types.ArrayClass, "<<", arrayAppend)
		r.AddNativeMethod(types.ArrayClass, "push", arrayAppend)
		r.AddNativeMethod(types.ArrayClass, "pop", arrayPop)
		r.AddNativeMethod(types.ArrayClass, "+", arrayConcat)
		r.AddNativeMethod(types.ArrayClass, "each", arrayEach)
		r.AddNativeMethod(types.ArrayClass, "each_with_index", arrayEachWithIndex)
		r.AddNativeMethod(types.ArrayClass, "map", arrayMap)
		r.AddNativeMethod(types.ArrayClass, "collect", arrayMap)
		r.AddNativeMethod(types.ArrayClass, "select", arrayFilter)
		r.AddNativeMethod(types.ArrayClass, "reject", arrayFilter)
		r.AddNativeMethod(types.ArrayClass, "to_a", objectSelf)
		r.AddTypedMethod(types.ArrayClass, "size", sig(types.IntType))
		r.AddTypedMethod(types.ArrayClass, "length", sig(types.IntType))
		r.AddTypedMethod(types.ArrayClass, "empty?", sig(types.BoolType))
		r.AddTypedMethod(types.ArrayClass, "include?", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ArrayClass, "join", sig(types.StringType), sig(types.StringType, types.StringType))
	})
}

func arrayIndex(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	switch len(c.Args.Lead) {
	case 1:
		idx := c.arg(0)
		if lit, ok := idx.(types.Literal); ok {
			if n, ok := lit.Int(); ok {
				c.ret(elems.At(n))
				return
			}
		}
		if types.Equal(types.BaseOf(idx), types.RangeType) {
			c.ret(types.Join(types.NewArray(types.SeqElems(c.global(s, elems.Squash())), nil), types.NilType))
			return
		}
		c.ret(types.Join(elems.Squash(), types.NilType))
	case 2:
		c.ret(types.Join(types.NewArray(types.SeqElems(c.global(s, elems.Squash())), nil), types.NilType))
	default:
		s.errorf(c.EP, "wrong number of arguments (given %d, expected 1..2)", len(c.Args.Lead))
		c.ret(types.Any)
	}
}

func arrayFirst(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	c.ret(elems.At(0))
}

func arrayLast(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	if elems.IsTuple() {
		c.ret(elems.At(-1))
		return
	}
	c.ret(types.Join(elems.Squash(), types.NilType))
}

func arrayAssign(s *Scratch, c *Call) {
	ary, _, ok := c.arrayElems(s)
	if !ok || len(c.Args.Lead) != 2 {
		c.ret(types.Any)
		return
	}
	idx, val := c.arg(0), c.arg(1)
	update := func(e types.Elements) types.Elements {
		ae := e.(types.ArrayElems)
		if lit, ok := idx.(types.Literal); ok {
			if n, ok := lit.Int(); ok {
				return ae.Update(n, val)
			}
		}
		return ae.UpdateAny(val)
	}
	env := s.updateContainer(c.EP, c.Env, ary.Site, update)
	c.Ctn(val, c.EP, env)
}

func arrayAppend(s *Scratch, c *Call) {
	ary, _, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	env := c.Env
	for _, v := range c.Args.Lead {
		v := v
		env = s.updateContainer(c.EP, env, ary.Site, func(e types.Elements) types.Elements {
			return e.(types.ArrayElems).Append(v)
		})
	}
	c.Ctn(ary, c.EP, env)
}

func arrayPop(s *Scratch, c *Call) {
	ary, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	popped, _ := elems.Pop()
	env := s.updateContainer(c.EP, c.Env, ary.Site, func(e types.Elements) types.Elements {
		_, rest := e.(types.ArrayElems).Pop()
		return rest
	})
	c.Ctn(popped, c.EP, env)
}

func arrayConcat(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok || len(c.Args.Lead) != 1 {
		c.ret(types.Any)
		return
	}
	other := arrayElemsOf(c.arg(0), c.store(s))
	lhs := c.global(s, c.Recv).(types.Array).Elems
	if !elems.IsTuple() || !other.IsTuple() {
		c.ret(types.NewArray(types.SeqElems(types.Join(lhs.Squash(), other.Squash())), nil))
		return
	}
	c.ret(types.NewArray(lhs.Concat(other), nil))
}

// eachElem invokes the block once with the squashed element type and
// continues with ret.
func eachElem(s *Scratch, c *Call, args []types.Type, ret func(blkRet types.Type) types.Type) {
	if !isProc(c.Args.Blk) {
		c.ret(types.Any)
		return
	}
	s.invokeBlock(c.Args.Blk, &ActualArguments{Lead: args, Blk: types.NilType}, c.EP, c.Env, false, func(blkRet types.Type, ep ExecutionPoint, env *Env) {
		c.Ctn(ret(blkRet), ep, env)
	})
}

func arrayEach(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	eachElem(s, c, []types.Type{elems.Squash()}, func(types.Type) types.Type { return c.Recv })
}

func arrayEachWithIndex(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	eachElem(s, c, []types.Type{elems.Squash(), types.IntType}, func(types.Type) types.Type { return c.Recv })
}

func arrayMap(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	eachElem(s, c, []types.Type{elems.Squash()}, func(blkRet types.Type) types.Type {
		return types.NewArray(types.SeqElems(blkRet), nil)
	})
}

func arrayFilter(s *Scratch, c *Call) {
	_, elems, ok := c.arrayElems(s)
	if !ok {
		c.ret(types.Any)
		return
	}
	squashed := c.global(s, elems.Squash())
	eachElem(s, c, []types.Type{elems.Squash()}, func(types.Type) types.Type {
		return types.NewArray(types.SeqElems(squashed), nil)
	})
}
