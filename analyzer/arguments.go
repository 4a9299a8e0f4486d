package analyzer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
)

// ActualArguments are the values a call site passes. Rest is the element
// type of a splatted array and is nil when there is no splat.
type ActualArguments struct {
	Lead []types.Type
	Rest types.Type
	Kw   *KeywordArgs
	Blk  types.Type
}

// KeywordArgs are keyword actuals. Wildcard is the value type of entries
// whose key is not a known symbol, as produced by a double splat.
type KeywordArgs struct {
	Names    []string
	Types    []types.Type
	Wildcard types.Type
}

func (k *KeywordArgs) lookup(name string) (types.Type, bool) {
	for i, n := range k.Names {
		if n == name {
			return k.Types[i], true
		}
	}
	return nil, false
}

func (k *KeywordArgs) hash() types.Type {
	var pairs []types.Type
	for i, n := range k.Names {
		pairs = append(pairs, types.SymbolLiteral(n), k.Types[i])
	}
	if k.Wildcard != nil {
		pairs = append(pairs, types.SymbolType, k.Wildcard)
	}
	return types.NewHash(types.HashElemsOf(pairs...), nil)
}

func (a *ActualArguments) globalize(store types.ContainerStore) *ActualArguments {
	g := &ActualArguments{Blk: a.Blk}
	if g.Blk == nil {
		g.Blk = types.NilType
	}
	g.Lead = make([]types.Type, len(a.Lead))
	for i, t := range a.Lead {
		g.Lead[i] = types.Globalize(t, store)
	}
	if a.Rest != nil {
		g.Rest = types.Globalize(a.Rest, store)
	}
	if a.Kw != nil {
		kw := &KeywordArgs{Names: a.Kw.Names, Types: make([]types.Type, len(a.Kw.Types))}
		for i, t := range a.Kw.Types {
			kw.Types[i] = types.Globalize(t, store)
		}
		if a.Kw.Wildcard != nil {
			kw.Wildcard = types.Globalize(a.Kw.Wildcard, store)
		}
		g.Kw = kw
	}
	return g
}

// FormalArguments summarize what a context's parameters received. Slots
// for optional parameters that were never supplied hold Bot, as does an
// empty rest parameter. Rest and KwRest are nil when the parameter does not
// exist.
type FormalArguments struct {
	Lead   []types.Type
	Opt    []types.Type
	Rest   types.Type
	Post   []types.Type
	Kw     []KeywordFormal
	KwRest types.Type
	Blk    types.Type
}

type KeywordFormal struct {
	Name     string
	Required bool
	Type     types.Type
}

// Merge joins two summaries of the same parameter list. A nil receiver
// merges to a copy of o.
func (f *FormalArguments) Merge(o *FormalArguments) *FormalArguments {
	if f == nil {
		return o
	}
	if o == nil {
		return f
	}
	m := &FormalArguments{
		Lead: joinPadded(f.Lead, o.Lead),
		Opt:  joinPadded(f.Opt, o.Opt),
		Post: joinPadded(f.Post, o.Post),
		Blk:  types.Join(f.Blk, o.Blk),
	}
	if f.Rest != nil || o.Rest != nil {
		m.Rest = types.Join(f.Rest, o.Rest)
	}
	if f.KwRest != nil || o.KwRest != nil {
		m.KwRest = types.Join(f.KwRest, o.KwRest)
	}
	m.Kw = append(m.Kw, f.Kw...)
	for _, k := range o.Kw {
		merged := false
		for i := range m.Kw {
			if m.Kw[i].Name == k.Name {
				m.Kw[i].Type = types.Join(m.Kw[i].Type, k.Type)
				merged = true
			}
		}
		if !merged {
			m.Kw = append(m.Kw, k)
		}
	}
	return m
}

func joinPadded(a, b []types.Type) []types.Type {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return nil
	}
	out := make([]types.Type, n)
	for i := range out {
		var x, y types.Type
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = types.Join(x, y)
		if out[i] == nil {
			out[i] = types.Bot
		}
	}
	return out
}

// Binding is the result of matching actuals against a parameter shape:
// the values of the parameter slots, the entry points to start the body
// at, and the summary to record for the context.
type Binding struct {
	Slots    []types.Type
	StartPCs []int
	Formals  *FormalArguments
}

func (b *Binding) merge(o *Binding) *Binding {
	if b == nil {
		return o
	}
	m := &Binding{Slots: make([]types.Type, len(b.Slots)), Formals: b.Formals.Merge(o.Formals)}
	for i := range b.Slots {
		m.Slots[i] = types.Join(b.Slots[i], o.Slots[i])
	}
	pcs := map[int]bool{}
	for _, pc := range append(append([]int(nil), b.StartPCs...), o.StartPCs...) {
		if !pcs[pc] {
			pcs[pc] = true
			m.StartPCs = append(m.StartPCs, pc)
		}
	}
	sort.Ints(m.StartPCs)
	return m
}

// BindMethodArguments matches globalized actuals against a method's
// parameters. A splatted actual of unknown length is tried at every length
// the parameters could absorb and the admissible bindings are joined; the
// call only fails when no length fits.
func BindMethodArguments(p ir.ParamShape, a *ActualArguments) (*Binding, error) {
	if a.Kw != nil && !p.HasKeywords() {
		lead := append(append([]types.Type(nil), a.Lead...), a.Kw.hash())
		a = &ActualArguments{Lead: lead, Rest: a.Rest, Blk: a.Blk}
	}
	if a.Rest == nil {
		return bindPositional(p, a, false)
	}
	lower := p.MinArity() - len(a.Lead)
	if lower < 0 {
		lower = 0
	}
	upper := p.Lead + p.OptCount() + p.Post - len(a.Lead)
	if p.Rest {
		upper++
	}
	if upper < lower {
		upper = lower
	}
	var merged *Binding
	var lastErr error
	for n := lower; n <= upper; n++ {
		lead := make([]types.Type, 0, len(a.Lead)+n)
		lead = append(lead, a.Lead...)
		for i := 0; i < n; i++ {
			lead = append(lead, a.Rest)
		}
		b, err := bindPositional(p, &ActualArguments{Lead: lead, Kw: a.Kw, Blk: a.Blk}, false)
		if err != nil {
			lastErr = err
			continue
		}
		merged = merged.merge(b)
	}
	if merged == nil {
		return nil, lastErr
	}
	return merged, nil
}

// BindBlockArguments matches actuals against a closure's parameters. Closure
// binding never fails: missing arguments are nil and extra ones are
// dropped. A single array argument is spread over the parameters unless the
// closure takes exactly one unadorned parameter.
func BindBlockArguments(p ir.ParamShape, a *ActualArguments) *Binding {
	a = autoSplat(p, a)
	lead := append([]types.Type(nil), a.Lead...)
	pad := types.Type(types.NilType)
	if a.Rest != nil {
		pad = types.Join(a.Rest, types.NilType)
	}
	for len(lead) < p.MinArity() {
		lead = append(lead, pad)
	}
	if max := p.MaxArity(); max >= 0 && len(lead) > max {
		lead = lead[:max]
	}
	b, _ := bindPositional(p, &ActualArguments{Lead: lead, Kw: a.Kw, Blk: a.Blk}, true)
	if a.Rest != nil && p.Rest {
		i := p.RestIndex()
		b.Slots[i] = types.Join(b.Slots[i], a.Rest)
		b.Formals.Rest = types.Join(b.Formals.Rest, a.Rest)
	}
	return b
}

func autoSplat(p ir.ParamShape, a *ActualArguments) *ActualArguments {
	if p.Ambiguous || len(a.Lead) != 1 || a.Rest != nil || a.Kw != nil {
		return a
	}
	ary, ok := a.Lead[0].(types.Array)
	if !ok {
		return a
	}
	if ary.Elems.IsTuple() {
		return &ActualArguments{Lead: ary.Elems.Lead, Blk: a.Blk}
	}
	return &ActualArguments{Lead: ary.Elems.Lead, Rest: ary.Elems.Rest, Blk: a.Blk}
}

func bindPositional(p ir.ParamShape, a *ActualArguments, lenient bool) (*Binding, error) {
	n := len(a.Lead)
	min, max := p.MinArity(), p.MaxArity()
	if n < min || (max >= 0 && n > max) {
		return nil, argumentErrorf("wrong number of arguments (given %d, expected %s)", n, arityString(min, max))
	}
	b := &Binding{Slots: make([]types.Type, p.Size()), Formals: &FormalArguments{}}
	for i := 0; i < p.Lead; i++ {
		b.Slots[i] = a.Lead[i]
		b.Formals.Lead = append(b.Formals.Lead, a.Lead[i])
	}

	optCount := n - p.Lead - p.Post
	if optCount > p.OptCount() {
		optCount = p.OptCount()
	}
	if optCount < 0 {
		optCount = 0
	}
	for i := 0; i < p.OptCount(); i++ {
		slot := p.OptIndex() + i
		if i < optCount {
			b.Slots[slot] = a.Lead[p.Lead+i]
			b.Formals.Opt = append(b.Formals.Opt, a.Lead[p.Lead+i])
		} else {
			b.Slots[slot] = types.NilType
			b.Formals.Opt = append(b.Formals.Opt, types.Bot)
		}
	}

	postStart := p.Lead + optCount
	if p.Rest {
		postStart = n - p.Post
		rest := types.JoinAll(a.Lead[p.Lead+optCount : postStart]...)
		if types.IsBot(rest) {
			b.Slots[p.RestIndex()] = types.NilType
		} else {
			b.Slots[p.RestIndex()] = rest
		}
		b.Formals.Rest = rest
	}
	for i := 0; i < p.Post; i++ {
		b.Slots[p.PostIndex()+i] = a.Lead[postStart+i]
		b.Formals.Post = append(b.Formals.Post, a.Lead[postStart+i])
	}

	if err := bindKeywords(p, a.Kw, b, lenient); err != nil {
		return nil, err
	}

	blk := a.Blk
	if blk == nil {
		blk = types.NilType
	}
	if p.Block {
		b.Slots[p.BlockIndex()] = blk
	}
	b.Formals.Blk = blk

	if len(p.Opt) > 0 {
		b.StartPCs = append(b.StartPCs, p.Opt[:optCount+1]...)
	} else {
		b.StartPCs = []int{0}
	}
	return b, nil
}

func bindKeywords(p ir.ParamShape, kw *KeywordArgs, b *Binding, lenient bool) error {
	used := map[string]bool{}
	var missing []string
	for i, k := range p.Keywords {
		t, ok := types.Type(nil), false
		if kw != nil {
			if t, ok = kw.lookup(k.Name); ok {
				used[k.Name] = true
			} else if kw.Wildcard != nil {
				t, ok = kw.Wildcard, true
			}
		}
		if !ok {
			switch {
			case k.Required && !lenient:
				missing = append(missing, k.Name)
				continue
			case k.Default != nil:
				t = types.Globalize(literalType(k.Default), nil)
			default:
				t = types.NilType
			}
		}
		b.Slots[p.KeywordIndex()+i] = t
		b.Formals.Kw = append(b.Formals.Kw, KeywordFormal{Name: k.Name, Required: k.Required, Type: t})
	}
	if len(missing) > 0 {
		return argumentErrorf("missing keyword: %s", strings.Join(missing, ", "))
	}

	var leftover []string
	var pairs []types.Type
	if kw != nil {
		for i, name := range kw.Names {
			if !used[name] {
				leftover = append(leftover, name)
				pairs = append(pairs, types.SymbolLiteral(name), kw.Types[i])
			}
		}
		if kw.Wildcard != nil {
			pairs = append(pairs, types.SymbolType, kw.Wildcard)
		}
	}
	if p.KwRest {
		rest := types.NewHash(types.HashElemsOf(pairs...), nil)
		b.Slots[p.KwRestIndex()] = rest
		b.Formals.KwRest = rest
	} else if len(leftover) > 0 && !lenient {
		return argumentErrorf("unknown keyword: %s", strings.Join(leftover, ", "))
	}
	return nil
}

func arityString(min, max int) string {
	switch {
	case max < 0:
		return strconv.Itoa(min) + "+"
	case min == max:
		return strconv.Itoa(min)
	}
	return strconv.Itoa(min) + ".." + strconv.Itoa(max)
}
