package analyzer

import (
	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"go.uber.org/zap"
)

// step interprets the instruction at ep under the environment recorded for
// it, merging the resulting environments into its successors.
func (s *Scratch) step(ep ExecutionPoint) {
	env, ok := s.ep2env[ep]
	if !ok {
		invariant("stepping %s with no environment", ep)
	}
	body := ep.Ctx.Body
	if ep.PC < 0 || ep.PC >= len(body.Insns) {
		invariant("%s: pc %d falls outside %s", ep.Location(), ep.PC, body)
	}
	insn := body.Insns[ep.PC]
	if s.cfg.Trace {
		s.log.Debug("step", zap.String("at", ep.Location()), zap.Stringer("insn", insn), zap.Stringer("env", env))
	}

	switch insn.Op {
	case ir.Nop:
		s.mergeEnv(ep.Next(), env)
	case ir.PutNil:
		s.mergeEnv(ep.Next(), env.Push(types.NilType))
	case ir.PutObject, ir.DupArray, ir.DupHash:
		env, t := s.localizeAt(ep, env, literalType(insn.Lit), ep.site())
		s.mergeEnv(ep.Next(), env.Push(t))
	case ir.PutString:
		s.mergeEnv(ep.Next(), env.Push(types.StringLiteral(insn.Lit.Str)))
	case ir.PutSelf:
		s.mergeEnv(ep.Next(), env.Push(env.Recv))
	case ir.PutSpecialObject:
		if insn.N == ir.VMCoreObject {
			s.mergeEnv(ep.Next(), env.Push(types.VMCoreType))
		} else {
			s.mergeEnv(ep.Next(), env.Push(ep.Ctx.CRef.Klass))
		}
	case ir.NewArray:
		env, elems := env.Pop(insn.N)
		site := ep.site()
		env = s.deploy(ep, env, site, types.TupleElems(elems...))
		s.mergeEnv(ep.Next(), env.Push(types.LocalArray{Site: site, Base: types.ArrayType}))
	case ir.NewHash:
		env, pairs := env.Pop(insn.N)
		site := ep.site() + "#h"
		env = s.deploy(ep, env, site, types.HashElemsOf(pairs...))
		s.mergeEnv(ep.Next(), env.Push(types.LocalHash{Site: site, Base: types.HashType}))
	case ir.NewRange:
		env, _ := env.Pop(2)
		s.mergeEnv(ep.Next(), env.Push(types.RangeType))
	case ir.ConcatStrings:
		env, _ := env.Pop(insn.N)
		s.mergeEnv(ep.Next(), env.Push(types.StringType))
	case ir.ToString:
		env, _ := env.Pop(1)
		s.mergeEnv(ep.Next(), env.Push(types.StringType))
	case ir.ToRegexp:
		env, _ := env.Pop(insn.N)
		s.mergeEnv(ep.Next(), env.Push(types.RegexpType))
	case ir.Intern:
		env, vals := env.Pop(1)
		var sym types.Type = types.SymbolType
		if str, ok := types.StringValue(vals[0]); ok {
			sym = types.SymbolLiteral(str)
		}
		s.mergeEnv(ep.Next(), env.Push(sym))

	case ir.DefineMethod:
		if klass, ok := ep.Ctx.CRef.Class(); ok {
			s.Registry.AddMethod(klass, ep.Ctx.Singleton, insn.ID, newISeqMethod(insn.Body, ep.Ctx.CRef, ep.Ctx.Singleton))
		}
		s.mergeEnv(ep.Next(), env)
	case ir.DefineSMethod:
		env, vals := env.Pop(1)
		types.Each(vals[0], func(recv types.Type) {
			if klass, ok := recv.(types.ClassObject); ok {
				s.Registry.AddMethod(klass, true, insn.ID, newISeqMethod(insn.Body, s.cref(ep.Ctx.CRef, klass), true))
			}
		})
		s.mergeEnv(ep.Next(), env)
	case ir.DefineClass:
		s.defineClass(ep, env, insn)

	case ir.Send:
		env, recv, args := s.popCallArgs(ep, env, insn.Call, insn.Body, true)
		s.dispatch(ep, env, recv, insn.Call.MID, args)
	case ir.InvokeSuper:
		env, _, args := s.popCallArgs(ep, env, insn.Call, insn.Body, true)
		s.invokeSuper(ep, env, args)
	case ir.InvokeBlock:
		env, _, args := s.popCallArgs(ep, env, insn.Call, nil, false)
		s.invokeBlock(env.Blk, args, ep, env, true, s.resume)

	case ir.Leave:
		if len(env.Stack) != 1 {
			invariant("%s: leaving with %d values on the stack", ep.Location(), len(env.Stack))
		}
		env, vals := env.Pop(1)
		s.addReturnType(ep.Ctx, types.Globalize(vals[0], s.store(ep, env)))
	case ir.Throw:
		env, vals := env.Pop(1)
		ret := types.Globalize(vals[0], s.store(ep, env))
		switch insn.N & 0xff {
		case ir.ThrowReturn:
			s.addReturnType(s.root(ep).Ctx, ret)
		case ir.ThrowBreak:
			if ep.Outer == 0 {
				invariant("%s: break outside of a block", ep.Location())
			}
			outer := s.outer(ep)
			s.resume(ret, outer, s.returnEnvs[outer])
		default:
			invariant("%s: unsupported throw state %d", ep.Location(), insn.N)
		}

	case ir.BranchIf, ir.BranchUnless, ir.BranchNil:
		env, vals := env.Pop(1)
		jump, fall := branchSuccessors(insn.Op, vals[0])
		if jump {
			s.mergeEnv(ep.Jump(insn.Target), env)
		}
		if fall {
			s.mergeEnv(ep.Next(), env)
		}
	case ir.Jump:
		s.mergeEnv(ep.Jump(insn.Target), env)

	case ir.GetLocal:
		if insn.Level == 0 {
			s.mergeEnv(ep.Next(), env.Push(env.Local(insn.N)))
			break
		}
		outer := s.outerAt(ep, insn.Level)
		s.mergeEnv(ep.Next(), env.Push(s.returnEnvs[outer].Local(insn.N)))
	case ir.SetLocal:
		env, vals := env.Pop(1)
		if insn.Level == 0 {
			s.mergeEnv(ep.Next(), env.SetLocal(insn.N, vals[0]))
			break
		}
		outer := s.outerAt(ep, insn.Level)
		renv := s.returnEnvs[outer]
		s.returnEnvs[outer] = renv.SetLocal(insn.N, types.Join(renv.Local(insn.N), vals[0]))
		s.mergeEnv(ep.Next(), env)

	case ir.GetInstanceVariable:
		store := s.store(ep, env)
		types.Each(env.Recv, func(recv types.Type) {
			s.ivars.AddRead(types.Globalize(recv, store), insn.ID, ep, s.readVar(env, true))
		})
	case ir.SetInstanceVariable:
		env, vals := env.Pop(1)
		store := s.store(ep, env)
		t := types.Globalize(vals[0], store)
		types.Each(env.Recv, func(recv types.Type) {
			s.ivars.AddWrite(types.Globalize(recv, store), insn.ID, t)
		})
		s.mergeEnv(ep.Next(), env)
	case ir.GetClassVariable:
		s.cvars.AddRead(ep.Ctx.CRef.Klass, insn.ID, ep, s.readVar(env, false))
	case ir.SetClassVariable:
		env, vals := env.Pop(1)
		s.cvars.AddWrite(ep.Ctx.CRef.Klass, insn.ID, types.Globalize(vals[0], s.store(ep, env)))
		s.mergeEnv(ep.Next(), env)
	case ir.GetGlobal:
		s.gvars.AddRead(nil, insn.ID, ep, func(t types.Type, ep ExecutionPoint) {
			if types.IsBot(t) {
				t = types.NilType
			}
			s.resume(t, ep, env)
		})
	case ir.SetGlobal:
		env, vals := env.Pop(1)
		s.gvars.AddWrite(nil, insn.ID, types.Globalize(vals[0], s.store(ep, env)))
		s.mergeEnv(ep.Next(), env)
	case ir.GetConstant:
		env, vals := env.Pop(1)
		var t types.Type = types.Any
		switch cbase := vals[0].(type) {
		case types.ClassObject:
			if c, ok := s.Registry.Constant(cbase, insn.ID); ok {
				t = c
			}
		default:
			if types.Equal(cbase, types.NilType) {
				t, _ = s.Registry.SearchConstant(ep.Ctx.CRef, insn.ID)
			}
		}
		s.resume(t, ep, env)
	case ir.SetConstant:
		env, vals := env.Pop(2)
		t := types.Globalize(vals[0], s.store(ep, env))
		if cbase, ok := vals[1].(types.ClassObject); ok {
			if s.Registry.SetConstant(cbase, insn.ID, t) {
				s.warnf(ep, "already initialized constant %s::%s", cbase.Name, insn.ID)
			}
		}
		s.mergeEnv(ep.Next(), env)

	case ir.Dup:
		s.mergeEnv(ep.Next(), env.Push(env.Top(0)))
	case ir.DupN:
		vals := make([]types.Type, insn.N)
		for i := range vals {
			vals[i] = env.Top(insn.N - 1 - i)
		}
		s.mergeEnv(ep.Next(), env.Push(vals...))
	case ir.Pop:
		env, _ := env.Pop(1)
		s.mergeEnv(ep.Next(), env)
	case ir.Swap:
		env, vals := env.Pop(2)
		s.mergeEnv(ep.Next(), env.Push(vals[1], vals[0]))
	case ir.TopN:
		s.mergeEnv(ep.Next(), env.Push(env.Top(insn.N)))
	case ir.SetN:
		s.mergeEnv(ep.Next(), env.SetTop(insn.N, env.Top(0)))
	case ir.AdjustStack:
		env, _ := env.Pop(insn.N)
		s.mergeEnv(ep.Next(), env)

	case ir.SplatArray:
		env, vals := env.Pop(1)
		var ary types.Type
		switch v := vals[0].(type) {
		case types.LocalArray:
			ary = v
		default:
			site := ep.site()
			var elems types.ArrayElems
			switch {
			case types.IsAny(v):
				elems = types.SeqElems(types.Any)
			case types.Equal(v, types.NilType):
				elems = types.TupleElems()
			default:
				elems = types.TupleElems(v)
			}
			env = s.deploy(ep, env, site, elems)
			ary = types.LocalArray{Site: site, Base: types.ArrayType}
		}
		s.mergeEnv(ep.Next(), env.Push(ary))
	case ir.ExpandArray:
		s.expandArray(ep, env, insn)
	case ir.ConcatArray:
		env, vals := env.Pop(2)
		store := s.store(ep, env)
		elems := arrayElemsOf(vals[0], store).Concat(arrayElemsOf(vals[1], store))
		site := ep.site()
		env = s.deploy(ep, env, site, elems)
		s.mergeEnv(ep.Next(), env.Push(types.LocalArray{Site: site, Base: types.ArrayType}))

	case ir.CheckType:
		env, _ := env.Pop(1)
		s.mergeEnv(ep.Next(), env.Push(types.BoolType))
	case ir.CheckKeyword:
		s.mergeEnv(ep.Next(), env.Push(types.BoolType))
	case ir.Defined:
		env, _ := env.Pop(1)
		s.mergeEnv(ep.Next(), env.Push(types.Join(types.StringType, types.NilType)))

	default:
		invariant("%s: unknown instruction %s", ep.Location(), insn.Op)
	}
}

func branchSuccessors(op ir.Opcode, cond types.Type) (jump, fall bool) {
	if op == ir.BranchNil {
		nils, others := 0, 0
		types.Each(cond, func(m types.Type) {
			if types.Equal(m, types.NilType) {
				nils++
			} else if types.IsAny(m) {
				nils++
				others++
			} else {
				others++
			}
		})
		return nils > 0, others > 0
	}
	truth := types.Truthiness(cond)
	truthy := truth != types.AlwaysFalsy
	falsy := truth != types.AlwaysTruthy
	if op == ir.BranchIf {
		return truthy, falsy
	}
	return falsy, truthy
}

// resume is the continuation of an ordinary call: it pushes the returned
// type and carries on after the call.
func (s *Scratch) resume(ret types.Type, ep ExecutionPoint, env *Env) {
	if types.IsBot(ret) {
		return
	}
	env, t := s.localizeAt(ep, env, ret, ep.site())
	s.mergeEnv(ep.Next(), env.Push(t))
}

// readVar builds the continuation of a variable read. Reads of instance
// variables that hold containers remember where the container came from,
// so that updates to it are written back.
func (s *Scratch) readVar(env *Env, ivar bool) func(types.Type, ExecutionPoint) {
	return func(t types.Type, ep ExecutionPoint) {
		if types.IsBot(t) {
			return
		}
		nenv, local := s.localizeAt(ep, env, t, ep.site())
		if ivar {
			name := ep.Insn().ID
			types.Each(local, func(m types.Type) {
				switch m := m.(type) {
				case types.LocalArray:
					s.siteVars[m.Site] = name
				case types.LocalHash:
					s.siteVars[m.Site] = name
				}
			})
		}
		s.mergeEnv(ep.Next(), nenv.Push(local))
	}
}

func arrayElemsOf(t types.Type, store types.ContainerStore) types.ArrayElems {
	switch g := types.Globalize(t, store).(type) {
	case types.Array:
		return g.Elems
	default:
		if types.IsAny(g) {
			return types.SeqElems(types.Any)
		}
		return types.TupleElems(g)
	}
}

func (s *Scratch) expandArray(ep ExecutionPoint, env *Env, insn ir.Insn) {
	env, vals := env.Pop(1)
	var elems types.ArrayElems
	switch v := vals[0].(type) {
	case types.LocalArray:
		if e, ok := s.store(ep, env).Container(v.Site); ok {
			if ae, ok := e.(types.ArrayElems); ok {
				elems = ae
				break
			}
		}
		elems = types.SeqElems(types.Any)
	default:
		if types.IsAny(v) {
			elems = types.SeqElems(types.Any)
		} else {
			elems = types.TupleElems(v)
		}
	}
	first, rest := elems.TakeFirst(insn.N)
	if insn.Flags&1 != 0 {
		site := ep.site()
		env = s.deploy(ep, env, site, rest)
		env = env.Push(types.LocalArray{Site: site, Base: types.ArrayType})
	}
	for i := len(first) - 1; i >= 0; i-- {
		t := first[i]
		if types.IsBot(t) {
			t = types.NilType
		}
		env = env.Push(t)
	}
	s.mergeEnv(ep.Next(), env)
}

// popCallArgs takes a call's operands off the stack: the block argument,
// the positional and keyword arguments, then the receiver.
func (s *Scratch) popCallArgs(ep ExecutionPoint, env *Env, ci *ir.CallInfo, blkBody *ir.Body, hasRecv bool) (*Env, types.Type, *ActualArguments) {
	var blk types.Type = types.NilType
	if ci.Has(ir.ArgsBlockArg) {
		var v []types.Type
		env, v = env.Pop(1)
		blk = v[0]
	}
	env, vals := env.Pop(ci.Argc)
	var recv types.Type
	if hasRecv {
		var r []types.Type
		env, r = env.Pop(1)
		recv = r[0]
	}
	if blkBody != nil {
		blk = types.Proc{Block: ISeqBlock{Body: blkBody, Outer: s.points.intern(ep)}}
		s.mergeReturnEnv(ep, env)
	}
	args := &ActualArguments{Blk: blk}
	store := s.store(ep, env)
	if n := len(ci.KwArg); n > 0 && n <= len(vals) {
		args.Kw = &KeywordArgs{Names: ci.KwArg, Types: vals[len(vals)-n:]}
		vals = vals[:len(vals)-n]
	}
	if ci.Has(ir.KwSplat) && len(vals) > 0 {
		args.Kw = keywordsFromHash(vals[len(vals)-1], store)
		vals = vals[:len(vals)-1]
	}
	if ci.Has(ir.ArgsSplat) && len(vals) > 0 {
		splat := vals[len(vals)-1]
		vals = vals[:len(vals)-1]
		elems := arrayElemsOf(splat, store)
		vals = append(append([]types.Type(nil), vals...), elems.Lead...)
		if !elems.IsTuple() {
			args.Rest = elems.Rest
		}
	}
	args.Lead = vals
	return env, recv, args
}

func keywordsFromHash(t types.Type, store types.ContainerStore) *KeywordArgs {
	kw := &KeywordArgs{}
	h, ok := types.Globalize(t, store).(types.Hash)
	if !ok {
		kw.Wildcard = types.Any
		return kw
	}
	h.Elems.Each(func(k, v types.Type) {
		if name, ok := types.SymbolName(k); ok {
			kw.Names = append(kw.Names, name)
			kw.Types = append(kw.Types, v)
			return
		}
		kw.Wildcard = types.Join(kw.Wildcard, v)
	})
	return kw
}

// dispatch sends mid to every member of recv. Unresolvable calls are
// reported, except on Any, and continue with Any.
func (s *Scratch) dispatch(ep ExecutionPoint, env *Env, recv types.Type, mid string, args *ActualArguments) {
	store := s.store(ep, env)
	types.Each(recv, func(r types.Type) {
		defs := s.Registry.ResolveMethod(r, mid)
		if len(defs) == 0 {
			if !types.IsAny(r) {
				s.errorf(ep, "undefined method: %s#%s", s.receiverName(r, store), mid)
			}
			s.resume(types.Any, ep, env)
			return
		}
		for _, m := range defs {
			s.send(m, &Call{Recv: r, MID: mid, Args: args, EP: ep, Env: env, Ctn: s.resume})
		}
	})
}

func (s *Scratch) invokeSuper(ep ExecutionPoint, env *Env, args *ActualArguments) {
	mctx := s.root(ep).Ctx
	owner, ok := mctx.CRef.Class()
	if !ok || mctx.MID == "" {
		s.resume(types.Any, ep, env)
		return
	}
	store := s.store(ep, env)
	types.Each(env.Recv, func(r types.Type) {
		defs := s.Registry.ResolveSuper(types.Globalize(r, store), owner, mctx.Singleton, mctx.MID)
		if len(defs) == 0 {
			s.errorf(ep, "no superclass method: %s#%s", s.receiverName(r, store), mctx.MID)
			s.resume(types.Any, ep, env)
			return
		}
		for _, m := range defs {
			s.send(m, &Call{Recv: r, MID: mctx.MID, Args: args, EP: ep, Env: env, Ctn: s.resume})
		}
	})
}

func (s *Scratch) defineClass(ep ExecutionPoint, env *Env, insn ir.Insn) {
	env, vals := env.Pop(2)
	cbaseType, superType := vals[0], vals[1]
	cbase, ok := cbaseType.(types.ClassObject)
	if !ok {
		if cbase, ok = ep.Ctx.CRef.Class(); !ok {
			cbase = types.ObjectClass
		}
	}

	var klass types.ClassObject
	switch insn.Flags {
	case ir.SingletonDefinition:
		k, ok := cbaseType.(types.ClassObject)
		if !ok {
			s.warnf(ep, "singleton class of a non-class object is not supported")
			s.resume(types.Any, ep, env)
			return
		}
		klass = k
	case ir.ModuleDefinition:
		existing, found := s.Registry.Constant(cbase, insn.ID)
		switch c, isClass := existing.(types.ClassObject); {
		case found && isClass && c.Module:
			klass = c
		case found:
			s.errorf(ep, "%s is not a module", insn.ID)
			klass = s.Registry.NewClass(insn.ID+"(dummy)", -1, true, cbase)
		default:
			klass = s.Registry.NewClass(insn.ID, -1, true, cbase)
			s.Registry.SetConstant(cbase, insn.ID, klass)
		}
	default:
		existing, found := s.Registry.Constant(cbase, insn.ID)
		switch c, isClass := existing.(types.ClassObject); {
		case found && isClass && !c.Module:
			klass = c
		case found:
			s.errorf(ep, "the class %q is %s", insn.ID, existing)
			klass = s.Registry.NewClass(insn.ID+"(dummy)", s.superclass(ep, superType).ID, false, cbase)
		default:
			klass = s.Registry.NewClass(insn.ID, s.superclass(ep, superType).ID, false, cbase)
			s.Registry.SetConstant(cbase, insn.ID, klass)
		}
	}

	ctx := Context{Body: insn.Body, CRef: s.cref(ep.Ctx.CRef, klass), Singleton: insn.Flags == ir.SingletonDefinition}
	body := ExecutionPoint{Ctx: ctx}
	s.mergeEnv(body, NewEnv(klass, types.NilType, nilLocals(len(insn.Body.Locals))))
	s.addCallsite(ctx, nil, ep, env, s.resume)
}

func (s *Scratch) superclass(ep ExecutionPoint, t types.Type) types.ClassObject {
	switch t := t.(type) {
	case types.ClassObject:
		if !t.Module {
			return t
		}
		s.warnf(ep, "superclass is a module; Object is used instead")
	case types.Instance:
		if t.Class.ID == types.NilClass.ID {
			return types.ObjectClass
		}
		s.warnf(ep, "superclass is an instance; Object is used instead")
	case types.Union:
		s.warnf(ep, "superclass is ambiguous (%s); Object is used instead", t)
	default:
		if types.IsAny(t) {
			s.warnf(ep, "superclass is any; Object is used instead")
		} else {
			s.warnf(ep, "superclass is not a class; Object is used instead")
		}
	}
	return types.ObjectClass
}
