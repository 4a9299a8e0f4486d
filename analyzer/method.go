package analyzer

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
)

type MethodKind int

const (
	ISeqMethod MethodKind = iota
	TypedMethod
	NativeMethod
	BlockMethod
)

// MethodDef is one definition bound to a method name. ISeq definitions
// run a body; typed definitions are checked against fixed signatures;
// native definitions compute their result in Go. Block definitions come
// from define_method and run a closure with the caller as receiver.
type MethodDef struct {
	Kind MethodKind

	Body      *ir.Body
	Block     ISeqBlock
	CRef      *CRef
	Singleton bool
	// Attr is "reader" or "writer" for accessor methods synthesized by
	// attr_reader and friends.
	Attr string

	Sigs []Signature

	Native NativeFunc

	key string
}

// Signature is one overload of a typed method.
type Signature struct {
	Args  []types.Type
	Opt   []types.Type
	Rest  types.Type
	Block *BlockSignature
	Ret   types.Type
}

type BlockSignature struct {
	Args []types.Type
	Ret  types.Type
}

// Call bundles what a native method sees of a call site. Ctn must be
// invoked for every return type the call can produce; a native that never
// invokes it models a call that does not return.
type Call struct {
	Recv types.Type
	MID  string
	Args *ActualArguments
	EP   ExecutionPoint
	Env  *Env
	Ctn  Continuation
}

type NativeFunc func(s *Scratch, c *Call)

var defSerial int64

func nextDefKey(prefix string) string {
	return prefix + strconv.FormatInt(atomic.AddInt64(&defSerial, 1), 10)
}

func newISeqMethod(body *ir.Body, cref *CRef, singleton bool) *MethodDef {
	return &MethodDef{
		Kind:      ISeqMethod,
		Body:      body,
		CRef:      cref,
		Singleton: singleton,
		key:       fmt.Sprintf("iseq:%d:%s:%t", body.ID, cref, singleton),
	}
}

func newTypedMethod(sigs ...Signature) *MethodDef {
	return &MethodDef{Kind: TypedMethod, Sigs: sigs, key: nextDefKey("typed:")}
}

func newNativeMethod(fn NativeFunc) *MethodDef {
	return &MethodDef{Kind: NativeMethod, Native: fn, key: nextDefKey("native:")}
}

func newBlockMethod(blk ISeqBlock) *MethodDef {
	return &MethodDef{Kind: BlockMethod, Body: blk.Body, Block: blk, key: "block:" + blk.Key()}
}

func (m *MethodDef) String() string {
	switch m.Kind {
	case ISeqMethod, BlockMethod:
		return m.Body.String()
	case TypedMethod:
		return fmt.Sprintf("<typed:%d sigs>", len(m.Sigs))
	}
	return "<native>"
}

func (sig Signature) formalAt(i int) (types.Type, bool) {
	if i < len(sig.Args) {
		return sig.Args[i], true
	}
	if i -= len(sig.Args); i < len(sig.Opt) {
		return sig.Opt[i], true
	}
	if sig.Rest != nil {
		return sig.Rest, true
	}
	return nil, false
}

func (sig Signature) accepts(a *ActualArguments, isSubclass types.Subclass) bool {
	if len(a.Lead) < len(sig.Args) && a.Rest == nil {
		return false
	}
	for i, t := range a.Lead {
		formal, ok := sig.formalAt(i)
		if !ok || !types.Consistent(t, formal, isSubclass) {
			return false
		}
	}
	if a.Rest != nil {
		for i := len(a.Lead); ; i++ {
			formal, ok := sig.formalAt(i)
			if !ok {
				break
			}
			if !types.Consistent(a.Rest, formal, isSubclass) {
				return false
			}
			if i >= len(sig.Args)+len(sig.Opt) {
				break
			}
		}
	}
	return true
}

func (s *Scratch) send(m *MethodDef, c *Call) {
	switch m.Kind {
	case ISeqMethod:
		s.sendISeq(m, c)
	case TypedMethod:
		s.sendTyped(m, c)
	case NativeMethod:
		m.Native(s, c)
	case BlockMethod:
		recv := types.Globalize(c.Recv, s.store(c.EP, c.Env))
		ctx := s.enterBlock(m.Block, recv, c.MID, c.Args, c.EP, c.Env, false, c.Ctn)
		s.recordMethodContext(m, ctx)
	}
}

func (s *Scratch) sendISeq(m *MethodDef, c *Call) {
	store := s.store(c.EP, c.Env)
	recv := types.Globalize(c.Recv, store)
	args := c.Args.globalize(store)
	b, err := BindMethodArguments(m.Body.Params, args)
	if err != nil {
		s.errorf(c.EP, "%s", err)
		c.Ctn(types.Any, c.EP, c.Env)
		return
	}
	ctx := Context{Body: m.Body, CRef: m.CRef, Singleton: m.Singleton, MID: c.MID}
	s.startContext(ctx, recv, b, c)
	s.recordMethodContext(m, ctx)
}

// startContext enters a method body with bound arguments, registering c as
// a caller of the resulting context.
func (s *Scratch) startContext(ctx Context, recv types.Type, b *Binding, c *Call) {
	ep := ExecutionPoint{Ctx: ctx}
	env := NewEnv(recv, c.Args.Blk, nilLocals(len(ctx.Body.Locals)))
	site := ep.site() + "$"
	for i, t := range b.Slots {
		var local types.Type
		env, local = localize(t, env, site.Add(i))
		env = env.SetLocal(i, local)
	}
	for _, pc := range b.StartPCs {
		s.mergeEnv(ep.Jump(pc), env)
	}
	s.addCallsite(ctx, b.Formals, c.EP, c.Env, c.Ctn)
}

func (s *Scratch) sendTyped(m *MethodDef, c *Call) {
	store := s.store(c.EP, c.Env)
	args := c.Args.globalize(store)
	matched := false
	for _, sig := range m.Sigs {
		if !sig.accepts(args, s.Registry.IsSubclass) {
			continue
		}
		matched = true
		ret := sig.Ret
		if sig.Block != nil && isProc(args.Blk) {
			blkArgs := &ActualArguments{Lead: sig.Block.Args, Blk: types.NilType}
			s.invokeBlock(args.Blk, blkArgs, c.EP, c.Env, false, func(_ types.Type, ep ExecutionPoint, env *Env) {
				c.Ctn(ret, ep, env)
			})
			continue
		}
		c.Ctn(ret, c.EP, c.Env)
	}
	if !matched {
		s.errorf(c.EP, "failed to resolve overload: %s#%s", s.receiverName(c.Recv, store), c.MID)
		c.Ctn(types.Any, c.EP, c.Env)
	}
}

func isProc(t types.Type) bool {
	found := false
	types.Each(t, func(m types.Type) {
		if _, ok := m.(types.Proc); ok {
			found = true
		}
	})
	return found
}

func (s *Scratch) receiverName(recv types.Type, store types.ContainerStore) string {
	return types.BaseOf(types.Globalize(recv, store)).String()
}
