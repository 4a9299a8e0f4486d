package analyzer

import "github.com/redneckbeard/rbprof/types"

// Continuation resumes a caller once a callee's return type is known. ep
// and env are the caller's point and the environment recorded for it.
type Continuation func(ret types.Type, ep ExecutionPoint, env *Env)

type callsites struct {
	order []ExecutionPoint
	ctns  map[ExecutionPoint]Continuation
}

type contextSet struct {
	order []Context
	seen  map[Context]bool
}

func (cs *contextSet) add(ctx Context) {
	if cs.seen == nil {
		cs.seen = map[Context]bool{}
	}
	if !cs.seen[ctx] {
		cs.seen[ctx] = true
		cs.order = append(cs.order, ctx)
	}
}

// addCallsite registers callerEP as a caller of ctx. If ctx has already
// returned, ctn runs right away with the return type seen so far.
func (s *Scratch) addCallsite(ctx Context, fargs *FormalArguments, callerEP ExecutionPoint, callerEnv *Env, ctn Continuation) {
	cs, ok := s.callsites[ctx]
	if !ok {
		cs = &callsites{ctns: map[ExecutionPoint]Continuation{}}
		s.callsites[ctx] = cs
	}
	if _, ok := cs.ctns[callerEP]; !ok {
		cs.order = append(cs.order, callerEP)
	}
	cs.ctns[callerEP] = ctn
	s.mergeReturnEnv(callerEP, callerEnv)
	if fargs != nil {
		s.sigFargs[ctx] = s.sigFargs[ctx].Merge(fargs)
	}
	if ret, ok := s.sigRet[ctx]; ok && !types.IsBot(ret) {
		ctn(ret, callerEP, s.returnEnvs[callerEP])
	}
}

// addReturnType widens ctx's return type and replays every registered
// continuation, in registration order.
func (s *Scratch) addReturnType(ctx Context, ret types.Type) {
	joined := s.lattice.Join(s.sigRet[ctx], ret)
	s.sigRet[ctx] = joined
	cs, ok := s.callsites[ctx]
	if !ok {
		return
	}
	for _, ep := range cs.order {
		cs.ctns[ep](joined, ep, s.returnEnvs[ep])
	}
}

func (s *Scratch) mergeReturnEnv(ep ExecutionPoint, env *Env) {
	if prev, ok := s.returnEnvs[ep]; ok {
		env = prev.mergeWith(s.lattice.Join, env)
	}
	s.returnEnvs[ep] = env
}

func (s *Scratch) addYield(caller Context, blkCtx Context) {
	set, ok := s.yields[caller]
	if !ok {
		set = &contextSet{}
		s.yields[caller] = set
	}
	set.add(blkCtx)
}

func (s *Scratch) recordMethodContext(m *MethodDef, ctx Context) {
	set, ok := s.methodContexts[m]
	if !ok {
		set = &contextSet{}
		s.methodContexts[m] = set
	}
	set.add(ctx)
}
