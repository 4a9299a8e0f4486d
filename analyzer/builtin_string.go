package analyzer

import "github.com/redneckbeard/rbprof/types"

func init() {
	builtins = append(builtins, func(r *Registry) {
		str := types.StringType
		strs := types.NewArray(types.SeqElems(str), nil)

		r.AddTypedMethod(types.StringClass, "+", sig(str, str))
		r.AddTypedMethod(types.StringClass, "*", sig(str, types.IntType))
		r.AddTypedMethod(types.StringClass, "%", sig(str, types.Any))
		r.AddTypedMethod(types.StringClass, "<<", sig(str, types.Any))
		r.AddTypedMethod(types.StringClass, "=~", sig(types.Join(types.IntType, types.NilType), types.Any))
		r.AddTypedMethod(types.StringClass, "<=>", sig(types.IntType, str))
		for _, op := range []string{"<", "<=", ">", ">="} {
			r.AddTypedMethod(types.StringClass, op, sig(types.BoolType, str))
		}
		for _, mid := range []string{"to_s", "upcase", "downcase", "capitalize", "strip", "chomp", "reverse", "succ", "inspect", "dup"} {
			r.AddTypedMethod(types.StringClass, mid, sig(str))
		}
		for _, mid := range []string{"length", "size", "to_i", "ord", "hash"} {
			r.AddTypedMethod(types.StringClass, mid, sig(types.IntType))
		}
		r.AddTypedMethod(types.StringClass, "to_f", sig(types.FloatType))
		r.AddTypedMethod(types.StringClass, "empty?", sig(types.BoolType))
		r.AddTypedMethod(types.StringClass, "include?", sig(types.BoolType, str))
		r.AddTypedMethod(types.StringClass, "start_with?", sigRest(types.BoolType, str))
		r.AddTypedMethod(types.StringClass, "end_with?", sigRest(types.BoolType, str))
		r.AddTypedMethod(types.StringClass, "[]",
			sig(types.Join(str, types.NilType), types.IntType),
			sig(types.Join(str, types.NilType), types.IntType, types.IntType),
			sig(types.Join(str, types.NilType), types.RangeType))
		r.AddTypedMethod(types.StringClass, "split", sig(strs), sig(strs, types.Any))
		r.AddTypedMethod(types.StringClass, "chars", sig(strs))
		r.AddTypedMethod(types.StringClass, "lines", sig(strs))
		r.AddTypedMethod(types.StringClass, "gsub", sig(str, types.Any, str))
		r.AddTypedMethod(types.StringClass, "sub", sig(str, types.Any, str))
		r.AddTypedMethod(types.StringClass, "each_char",
			sigBlock(str, BlockSignature{Args: []types.Type{str}, Ret: types.Any}))
		r.AddNativeMethod(types.StringClass, "to_sym", stringToSym)
		r.AddNativeMethod(types.StringClass, "intern", stringToSym)

		r.AddTypedMethod(types.SymbolClass, "to_s", sig(str))
		r.AddTypedMethod(types.SymbolClass, "length", sig(types.IntType))
		r.AddTypedMethod(types.SymbolClass, "size", sig(types.IntType))
		r.AddNativeMethod(types.SymbolClass, "to_sym", objectSelf)

		r.AddTypedMethod(types.RegexpClass, "match", sig(types.Join(types.InstanceOf(types.MatchDataClass), types.NilType), str))
		r.AddTypedMethod(types.RegexpClass, "=~", sig(types.Join(types.IntType, types.NilType), str))
		r.AddTypedMethod(types.MatchDataClass, "[]", sig(types.Join(str, types.NilType), types.Any))
		r.AddTypedMethod(types.MatchDataClass, "captures", sig(types.NewArray(types.SeqElems(types.Join(str, types.NilType)), nil)))
	})
}

// stringToSym keeps the value of a string literal in the symbol it
// produces.
func stringToSym(s *Scratch, c *Call) {
	if str, ok := types.StringValue(c.Recv); ok {
		c.ret(types.SymbolLiteral(str))
		return
	}
	c.ret(types.SymbolType)
}
