package analyzer

import (
	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
)

// localize turns global container types into local ones backed by env's
// container table, allocating them at site.
func localize(t types.Type, env *Env, site types.AllocSite) (*Env, types.Type) {
	switch t := t.(type) {
	case types.Union:
		joined := types.Bot
		for _, m := range t.Members() {
			var local types.Type
			env, local = localize(m, env, site)
			joined = types.Join(joined, local)
		}
		return env, joined
	case types.Array:
		lead := make([]types.Type, len(t.Elems.Lead))
		for i, e := range t.Elems.Lead {
			env, lead[i] = localize(e, env, site.Add(i))
		}
		rest := t.Elems.Rest
		if !types.IsBot(rest) {
			env, rest = localize(rest, env, site.Add(len(lead)))
		}
		env = env.Deploy(site, types.ArrayElems{Lead: lead, Rest: rest})
		return env, types.LocalArray{Site: site, Base: t.Base}
	case types.Hash:
		hsite := site + "#h"
		i := 0
		var pairs []types.Type
		t.Elems.Each(func(k, v types.Type) {
			var local types.Type
			env, local = localize(v, env, hsite.Add(i))
			pairs = append(pairs, k, local)
			i++
		})
		env = env.Deploy(hsite, types.HashElemsOf(pairs...))
		return env, types.LocalHash{Site: hsite, Base: t.Base}
	}
	return env, t
}

// store is the container table that local types at ep refer to. Closures
// share the table of the method they were created in.
func (s *Scratch) store(ep ExecutionPoint, env *Env) types.ContainerStore {
	if ep.Outer == 0 {
		return env
	}
	if renv, ok := s.returnEnvs[s.root(ep)]; ok {
		return renv
	}
	return env
}

// localizeAt localizes t for use at ep. Inside a closure the containers
// are deployed into the enclosing method's environment.
func (s *Scratch) localizeAt(ep ExecutionPoint, env *Env, t types.Type, site types.AllocSite) (*Env, types.Type) {
	if ep.Outer == 0 {
		return localize(t, env, site)
	}
	root := s.root(ep)
	renv, ok := s.returnEnvs[root]
	if !ok {
		invariant("%s: closure has no enclosing environment", ep.Location())
	}
	renv, local := localize(t, renv, site)
	s.returnEnvs[root] = renv
	return env, local
}

func (s *Scratch) deploy(ep ExecutionPoint, env *Env, site types.AllocSite, elems types.Elements) *Env {
	if ep.Outer == 0 {
		return env.Deploy(site, elems)
	}
	root := s.root(ep)
	renv, ok := s.returnEnvs[root]
	if !ok {
		invariant("%s: closure has no enclosing environment", ep.Location())
	}
	s.returnEnvs[root] = renv.Deploy(site, elems)
	return env
}

// updateContainer rewrites the contents of the container at site. When the
// container was read out of an instance variable, the instance variable is
// widened with the new contents too.
func (s *Scratch) updateContainer(ep ExecutionPoint, env *Env, site types.AllocSite, fn func(types.Elements) types.Elements) *Env {
	store := s.store(ep, env)
	elems, ok := store.Container(site)
	if !ok {
		return env
	}
	env = s.deploy(ep, env, site, fn(elems))
	if name, ok := s.siteVars[site]; ok {
		store = s.store(ep, env)
		var local types.Type = types.LocalArray{Site: site, Base: types.ArrayType}
		if _, isHash := elems.(types.HashElems); isHash {
			local = types.LocalHash{Site: site, Base: types.HashType}
		}
		updated := types.Globalize(local, store)
		types.Each(env.Recv, func(r types.Type) {
			s.ivars.AddWrite(types.Globalize(r, store), name, updated)
		})
	}
	return env
}

func literalType(lit *ir.Literal) types.Type {
	switch lit.Kind {
	case ir.NilLit:
		return types.NilType
	case ir.TrueLit:
		return types.BoolLiteral(true)
	case ir.FalseLit:
		return types.BoolLiteral(false)
	case ir.IntLit:
		return types.IntLiteral(lit.Int)
	case ir.FloatLit:
		return types.FloatLiteral(lit.Float)
	case ir.StringLit:
		return types.StringLiteral(lit.Str)
	case ir.SymbolLit:
		return types.SymbolLiteral(lit.Str)
	case ir.RegexpLit:
		return types.RegexpType
	case ir.RangeLit:
		return types.RangeType
	case ir.ArrayLit:
		elems := make([]types.Type, len(lit.Elems))
		for i, e := range lit.Elems {
			elems[i] = literalType(e)
		}
		return types.NewArray(types.TupleElems(elems...), nil)
	case ir.HashLit:
		pairs := make([]types.Type, len(lit.Elems))
		for i, e := range lit.Elems {
			pairs[i] = literalType(e)
		}
		return types.NewHash(types.HashElemsOf(pairs...), nil)
	}
	return types.Any
}
