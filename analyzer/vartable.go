package analyzer

import "github.com/redneckbeard/rbprof/types"

// VarTable records the types written to a family of non-local variables
// (instance, class or global) and the points waiting to read them.
type VarTable struct {
	order   []varKey
	entries map[varKey]*varEntry
	lattice *types.Lattice
}

type varKey struct {
	recv string
	name string
}

type varEntry struct {
	recv    types.Type
	name    string
	written types.Type
	readers []ExecutionPoint
	ctns    map[ExecutionPoint]func(types.Type, ExecutionPoint)
}

// VarEntry is a variable that has been written at least once.
type VarEntry struct {
	Recv types.Type
	Name string
	Type types.Type
}

func NewVarTable(lattice *types.Lattice) *VarTable {
	return &VarTable{entries: map[varKey]*varEntry{}, lattice: lattice}
}

func (t *VarTable) entry(recv types.Type, name string) *varEntry {
	k := varKey{name: name}
	if recv != nil {
		k.recv = recv.Key()
	}
	e, ok := t.entries[k]
	if !ok {
		e = &varEntry{recv: recv, name: name, written: types.Bot, ctns: map[ExecutionPoint]func(types.Type, ExecutionPoint){}}
		t.entries[k] = e
		t.order = append(t.order, k)
	}
	return e
}

// AddRead registers ep as a reader of recv's variable and immediately hands
// ctn whatever has been written so far, which may be Bot. ctn is invoked
// again each time a write widens the variable's type.
func (t *VarTable) AddRead(recv types.Type, name string, ep ExecutionPoint, ctn func(types.Type, ExecutionPoint)) {
	e := t.entry(recv, name)
	if _, ok := e.ctns[ep]; !ok {
		e.readers = append(e.readers, ep)
	}
	e.ctns[ep] = ctn
	ctn(e.written, ep)
}

func (t *VarTable) AddWrite(recv types.Type, name string, ty types.Type) {
	e := t.entry(recv, name)
	joined := t.lattice.Join(e.written, ty)
	if types.Equal(joined, e.written) {
		return
	}
	e.written = joined
	for _, ep := range e.readers {
		e.ctns[ep](joined, ep)
	}
}

func (t *VarTable) Get(recv types.Type, name string) types.Type {
	k := varKey{name: name}
	if recv != nil {
		k.recv = recv.Key()
	}
	if e, ok := t.entries[k]; ok {
		return e.written
	}
	return types.Bot
}

// Entries lists the written variables in the order they were first seen.
func (t *VarTable) Entries() []VarEntry {
	var out []VarEntry
	for _, k := range t.order {
		e := t.entries[k]
		if types.IsBot(e.written) {
			continue
		}
		out = append(out, VarEntry{Recv: e.recv, Name: e.name, Type: e.written})
	}
	return out
}
