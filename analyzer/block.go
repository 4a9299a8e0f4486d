package analyzer

import (
	"fmt"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
)

// ISeqBlock is a closure literal: its body together with the point that
// created it, whose environment it reads and writes outer locals through.
type ISeqBlock struct {
	Body  *ir.Body
	Outer PointID
}

func (b ISeqBlock) Key() string    { return fmt.Sprintf("B%d@%d", b.Body.ID, b.Outer) }
func (b ISeqBlock) String() string { return b.Body.String() }

// invokeBlock calls every closure in blk with args. yield is set when the
// call comes from a yield in the caller's own body, which is what method
// signatures report as their block type.
func (s *Scratch) invokeBlock(blk types.Type, args *ActualArguments, ep ExecutionPoint, env *Env, yield bool, ctn Continuation) {
	procs, nils, unknown := 0, 0, false
	types.Each(blk, func(m types.Type) {
		switch m := m.(type) {
		case types.Proc:
			procs++
			if b, ok := m.Block.(ISeqBlock); ok {
				s.invokeISeqBlock(b, args, ep, env, yield, ctn)
			} else {
				unknown = true
			}
		case types.Instance:
			if m.Class.ID == types.NilClass.ID {
				nils++
				return
			}
			unknown = true
		default:
			unknown = true
		}
	})
	if unknown {
		ctn(types.Any, ep, env)
		return
	}
	if procs == 0 && nils > 0 {
		s.errorf(ep, "no block given")
		ctn(types.Any, ep, env)
	}
}

func (s *Scratch) invokeISeqBlock(blk ISeqBlock, args *ActualArguments, ep ExecutionPoint, env *Env, yield bool, ctn Continuation) {
	s.enterBlock(blk, nil, "", args, ep, env, yield, ctn)
}

// enterBlock starts blk's body for a call from ep. A nil recv keeps the
// receiver of the scope the closure was created in; mid names the method
// when the closure was turned into one.
func (s *Scratch) enterBlock(blk ISeqBlock, recv types.Type, mid string, args *ActualArguments, ep ExecutionPoint, env *Env, yield bool, ctn Continuation) Context {
	outer := s.points.get(blk.Outer)
	outerEnv, ok := s.returnEnvs[outer]
	if !ok {
		invariant("%s: closure invoked before its creation point was recorded", ep.Location())
	}
	args = args.globalize(s.store(ep, env))
	b := BindBlockArguments(blk.Body.Params, args)

	ctx := Context{Body: blk.Body, CRef: outer.Ctx.CRef, MID: mid}
	bep := ExecutionPoint{Ctx: ctx, Outer: blk.Outer}
	if recv == nil {
		recv = outerEnv.Recv
	}
	benv := NewEnv(recv, outerEnv.Blk, nilLocals(len(blk.Body.Locals)))
	site := bep.site() + "$"
	for i, t := range b.Slots {
		var local types.Type
		benv, local = s.localizeAt(bep, benv, t, site.Add(i))
		benv = benv.SetLocal(i, local)
	}
	for _, pc := range b.StartPCs {
		s.mergeEnv(bep.Jump(pc), benv)
	}
	if yield {
		s.addYield(ep.Ctx, ctx)
	}
	s.addCallsite(ctx, b.Formals, ep, env, ctn)
	return ctx
}
