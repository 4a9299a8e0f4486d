package analyzer

import "github.com/redneckbeard/rbprof/types"

func init() {
	builtins = append(builtins, func(r *Registry) {
		for _, mid := range []string{"call", "[]", "yield", "==="} {
			r.AddNativeMethod(types.ProcClass, mid, procCall)
		}
		r.AddNativeMethod(types.ProcClass, "to_proc", objectSelf)
		r.AddTypedMethod(types.ProcClass, "arity", sig(types.IntType))
		r.AddTypedMethod(types.ProcClass, "lambda?", sig(types.BoolType))

		r.AddNativeMethod(types.RangeClass, "each", rangeEach)
		r.AddNativeMethod(types.RangeClass, "map", rangeMap)
		r.AddNativeMethod(types.RangeClass, "collect", rangeMap)
		r.AddTypedMethod(types.RangeClass, "to_a", sig(types.NewArray(types.SeqElems(types.IntType), nil)))
		r.AddTypedMethod(types.RangeClass, "first", sig(types.IntType), sig(types.NewArray(types.SeqElems(types.IntType), nil), types.IntType))
		r.AddTypedMethod(types.RangeClass, "last", sig(types.IntType), sig(types.NewArray(types.SeqElems(types.IntType), nil), types.IntType))
		r.AddTypedMethod(types.RangeClass, "begin", sig(types.IntType))
		r.AddTypedMethod(types.RangeClass, "end", sig(types.IntType))
		r.AddTypedMethod(types.RangeClass, "size", sig(types.IntType))
		r.AddTypedMethod(types.RangeClass, "include?", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.RangeClass, "step",
			sigBlock(types.RangeType, BlockSignature{Args: []types.Type{types.IntType}, Ret: types.Any}, types.IntType))
	})
}

// procCall runs the receiver's closure with the call's own arguments.
func procCall(s *Scratch, c *Call) {
	args := &ActualArguments{Lead: c.Args.Lead, Rest: c.Args.Rest, Blk: c.Args.Blk}
	s.invokeBlock(c.Recv, args, c.EP, c.Env, false, c.Ctn)
}

func rangeEach(s *Scratch, c *Call) {
	eachElem(s, c, []types.Type{types.IntType}, func(types.Type) types.Type { return c.Recv })
}

func rangeMap(s *Scratch, c *Call) {
	eachElem(s, c, []types.Type{types.IntType}, func(blkRet types.Type) types.Type {
		return types.NewArray(types.SeqElems(blkRet), nil)
	})
}
