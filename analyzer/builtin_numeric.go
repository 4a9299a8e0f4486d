package analyzer

import "github.com/redneckbeard/rbprof/types"

func init() {
	builtins = append(builtins, func(r *Registry) {
		num := types.Join(types.IntType, types.FloatType)

		for _, op := range []string{"+", "-", "*", "/", "%", "**"} {
			r.AddTypedMethod(types.IntegerClass, op,
				sig(types.IntType, types.IntType),
				sig(types.FloatType, types.FloatType))
			r.AddTypedMethod(types.FloatClass, op, sig(types.FloatType, num))
		}
		for _, op := range []string{"&", "|", "^", "<<", ">>"} {
			r.AddTypedMethod(types.IntegerClass, op, sig(types.IntType, types.IntType))
		}
		for _, op := range []string{"<", "<=", ">", ">="} {
			r.AddTypedMethod(types.NumericClass, op, sig(types.BoolType, num))
		}
		r.AddTypedMethod(types.NumericClass, "<=>", sig(types.IntType, num))
		r.AddTypedMethod(types.NumericClass, "zero?", sig(types.BoolType))
		r.AddTypedMethod(types.NumericClass, "positive?", sig(types.BoolType))
		r.AddTypedMethod(types.NumericClass, "negative?", sig(types.BoolType))
		r.AddTypedMethod(types.NumericClass, "to_i", sig(types.IntType))
		r.AddTypedMethod(types.NumericClass, "to_f", sig(types.FloatType))

		r.AddTypedMethod(types.IntegerClass, "-@", sig(types.IntType))
		r.AddTypedMethod(types.IntegerClass, "to_s", sig(types.StringType), sig(types.StringType, types.IntType))
		r.AddTypedMethod(types.IntegerClass, "succ", sig(types.IntType))
		r.AddTypedMethod(types.IntegerClass, "pred", sig(types.IntType))
		r.AddTypedMethod(types.IntegerClass, "abs", sig(types.IntType))
		r.AddTypedMethod(types.IntegerClass, "even?", sig(types.BoolType))
		r.AddTypedMethod(types.IntegerClass, "odd?", sig(types.BoolType))
		r.AddTypedMethod(types.IntegerClass, "chr", sig(types.StringType))
		r.AddTypedMethod(types.IntegerClass, "times",
			sigBlock(types.IntType, BlockSignature{Args: []types.Type{types.IntType}, Ret: types.Any}))
		r.AddTypedMethod(types.IntegerClass, "upto",
			sigBlock(types.IntType, BlockSignature{Args: []types.Type{types.IntType}, Ret: types.Any}, types.IntType))
		r.AddTypedMethod(types.IntegerClass, "downto",
			sigBlock(types.IntType, BlockSignature{Args: []types.Type{types.IntType}, Ret: types.Any}, types.IntType))

		r.AddTypedMethod(types.FloatClass, "-@", sig(types.FloatType))
		r.AddTypedMethod(types.FloatClass, "to_s", sig(types.StringType))
		r.AddTypedMethod(types.FloatClass, "abs", sig(types.FloatType))
		r.AddTypedMethod(types.FloatClass, "round", sig(types.IntType), sig(types.FloatType, types.IntType))
		r.AddTypedMethod(types.FloatClass, "floor", sig(types.IntType))
		r.AddTypedMethod(types.FloatClass, "ceil", sig(types.IntType))
		r.AddTypedMethod(types.FloatClass, "nan?", sig(types.BoolType))
	})
}
