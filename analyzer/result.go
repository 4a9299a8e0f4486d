package analyzer

import (
	"time"

	"github.com/redneckbeard/rbprof/types"
)

// Result is the outcome of an analysis, ready for rendering.
type Result struct {
	Classes     []ClassSummary
	Globals     []VarSummary
	Diagnostics []Diagnostic
	Stats       Stats
}

type ClassSummary struct {
	Name       string
	Module     bool
	Superclass string
	Builtin    bool
	Includes   []string
	Extends    []string
	IVars      []VarSummary
	CVars      []VarSummary
	Methods    []MethodSummary
}

type VarSummary struct {
	Name      string
	Singleton bool
	Type      types.Type
}

// MethodSummary collects one signature per context the method was
// analyzed in, deduplicated.
type MethodSummary struct {
	Name       string
	Singleton  bool
	Attr       string
	Signatures []SignatureSummary
}

type SignatureSummary struct {
	Args  *FormalArguments
	Block *BlockSummary
	Ret   types.Type
}

type BlockSummary struct {
	Args *FormalArguments
	Ret  types.Type
}

type Stats struct {
	Iterations int
	Points     int
	Contexts   int
	Duration   time.Duration
	Aborted    bool
}

func (s *Scratch) result(elapsed time.Duration) *Result {
	r := &Result{
		Diagnostics: append([]Diagnostic(nil), s.diagnostics...),
		Stats: Stats{
			Iterations: s.iterations,
			Points:     len(s.ep2env),
			Contexts:   len(s.sigRet),
			Duration:   elapsed,
			Aborted:    s.aborted,
		},
	}
	for _, g := range s.gvars.Entries() {
		r.Globals = append(r.Globals, VarSummary{Name: g.Name, Type: g.Type})
	}

	ivars := map[int][]VarSummary{}
	for _, e := range s.ivars.Entries() {
		switch recv := e.Recv.(type) {
		case types.Instance:
			ivars[recv.Class.ID] = append(ivars[recv.Class.ID], VarSummary{Name: e.Name, Type: e.Type})
		case types.ClassObject:
			ivars[recv.ID] = append(ivars[recv.ID], VarSummary{Name: e.Name, Singleton: true, Type: e.Type})
		}
	}
	cvars := map[int][]VarSummary{}
	for _, e := range s.cvars.Entries() {
		if klass, ok := e.Recv.(types.ClassObject); ok {
			cvars[klass.ID] = append(cvars[klass.ID], VarSummary{Name: e.Name, Type: e.Type})
		}
	}

	for _, d := range s.Registry.Classes() {
		cs := ClassSummary{
			Name:    d.Class.Name,
			Module:  d.Class.Module,
			Builtin: d.Builtin,
			IVars:   ivars[d.Class.ID],
			CVars:   cvars[d.Class.ID],
		}
		if super, ok := s.Registry.Superclass(d.Class); ok && super.ID != types.ObjectClass.ID {
			cs.Superclass = super.Name
		}
		for _, id := range d.ProgramIncludes() {
			cs.Includes = append(cs.Includes, s.Registry.defs[id].Class.Name)
		}
		for _, id := range d.ProgramExtends() {
			cs.Extends = append(cs.Extends, s.Registry.defs[id].Class.Name)
		}
		for _, singleton := range []bool{false, true} {
			for _, mid := range d.MethodNames(singleton) {
				if ms, ok := s.methodSummary(d.Methods(singleton, mid), mid, singleton); ok {
					cs.Methods = append(cs.Methods, ms)
				}
			}
		}
		if cs.Builtin && len(cs.Methods) == 0 && len(cs.IVars) == 0 && len(cs.CVars) == 0 {
			continue
		}
		r.Classes = append(r.Classes, cs)
	}
	return r
}

func (s *Scratch) methodSummary(defs []*MethodDef, mid string, singleton bool) (MethodSummary, bool) {
	ms := MethodSummary{Name: mid, Singleton: singleton}
	seen := map[string]bool{}
	for _, m := range defs {
		if m.Kind != ISeqMethod && m.Kind != BlockMethod {
			continue
		}
		if m.Attr != "" {
			ms.Attr = m.Attr
		}
		set, ok := s.methodContexts[m]
		if !ok {
			continue
		}
		for _, ctx := range set.order {
			if ctx.MID != mid {
				continue
			}
			sig := s.signature(ctx)
			key := sig.key()
			if seen[key] {
				continue
			}
			seen[key] = true
			ms.Signatures = append(ms.Signatures, sig)
		}
	}
	return ms, len(ms.Signatures) > 0
}

func (s *Scratch) signature(ctx Context) SignatureSummary {
	sig := SignatureSummary{Args: s.sigFargs[ctx], Ret: s.sigRet[ctx]}
	if sig.Args == nil {
		sig.Args = &FormalArguments{}
	}
	if sig.Ret == nil {
		sig.Ret = types.Bot
	}
	if set, ok := s.yields[ctx]; ok {
		blk := &BlockSummary{Ret: types.Bot}
		for _, bctx := range set.order {
			blk.Args = blk.Args.Merge(s.sigFargs[bctx])
			blk.Ret = types.Join(blk.Ret, s.sigRet[bctx])
		}
		if blk.Args == nil {
			blk.Args = &FormalArguments{}
		}
		sig.Block = blk
	}
	return sig
}

func (sig SignatureSummary) key() string {
	k := formalsKey(sig.Args) + "->" + sig.Ret.Key()
	if sig.Block != nil {
		k += "{" + formalsKey(sig.Block.Args) + "->" + sig.Block.Ret.Key() + "}"
	}
	return k
}

func formalsKey(f *FormalArguments) string {
	k := ""
	add := func(prefix string, t types.Type) {
		if t == nil {
			t = types.Bot
		}
		k += prefix + t.Key() + ","
	}
	for _, t := range f.Lead {
		add("", t)
	}
	for _, t := range f.Opt {
		add("?", t)
	}
	if f.Rest != nil {
		add("*", f.Rest)
	}
	for _, t := range f.Post {
		add("", t)
	}
	for _, kw := range f.Kw {
		add(kw.Name+":", kw.Type)
	}
	if f.KwRest != nil {
		add("**", f.KwRest)
	}
	return k
}
