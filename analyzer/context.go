package analyzer

import (
	"fmt"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
)

// CRef is the lexical class nesting a body was defined in. CRefs are
// interned by the Scratch, so pointer equality is structural equality.
type CRef struct {
	Outer *CRef
	Klass types.Type
	key   string
}

func (c *CRef) Class() (types.ClassObject, bool) {
	if c == nil {
		return types.ClassObject{}, false
	}
	klass, ok := c.Klass.(types.ClassObject)
	return klass, ok
}

func (c *CRef) String() string {
	if c == nil {
		return "<bottom>"
	}
	return c.key
}

func (s *Scratch) cref(outer *CRef, klass types.Type) *CRef {
	key := klass.Key()
	if outer != nil {
		key = outer.key + "/" + key
	}
	if c, ok := s.crefs[key]; ok {
		return c
	}
	c := &CRef{Outer: outer, Klass: klass, key: key}
	s.crefs[key] = c
	return c
}

// Context identifies one summarized unit of analysis: a body run under a
// particular lexical class, as a singleton or instance method, for a
// particular method name.
type Context struct {
	Body      *ir.Body
	CRef      *CRef
	Singleton bool
	MID       string
}

func (c Context) String() string {
	if c.Body == nil {
		return "<prologue>"
	}
	return fmt.Sprintf("%s(%s#%s)", c.Body, c.CRef, c.MID)
}

// PointID is a handle into the Scratch's table of interned execution
// points. The zero value refers to no point.
type PointID int

type ExecutionPoint struct {
	Ctx   Context
	PC    int
	Outer PointID
}

func (ep ExecutionPoint) Next() ExecutionPoint {
	ep.PC++
	return ep
}

func (ep ExecutionPoint) Jump(pc int) ExecutionPoint {
	ep.PC = pc
	return ep
}

func (ep ExecutionPoint) Insn() ir.Insn {
	return ep.Ctx.Body.Insns[ep.PC]
}

func (ep ExecutionPoint) Location() string {
	if ep.Ctx.Body == nil {
		return "<builtin>"
	}
	return ep.Ctx.Body.Location(ep.PC)
}

func (ep ExecutionPoint) String() string {
	return fmt.Sprintf("%s@%d^%d", ep.Ctx, ep.PC, ep.Outer)
}

// site is the allocation site of containers materialized at ep.
func (ep ExecutionPoint) site() types.AllocSite {
	id := 0
	if ep.Ctx.Body != nil {
		id = ep.Ctx.Body.ID
	}
	return types.AllocSite(fmt.Sprintf("%d:%d:%d", id, ep.PC, ep.Outer))
}

type pointTable struct {
	points []ExecutionPoint
	ids    map[ExecutionPoint]PointID
}

func (t *pointTable) intern(ep ExecutionPoint) PointID {
	if id, ok := t.ids[ep]; ok {
		return id
	}
	t.points = append(t.points, ep)
	id := PointID(len(t.points))
	t.ids[ep] = id
	return id
}

func (t *pointTable) get(id PointID) ExecutionPoint {
	if id <= 0 || int(id) > len(t.points) {
		invariant("no execution point with handle %d", id)
	}
	return t.points[id-1]
}

func (s *Scratch) outer(ep ExecutionPoint) ExecutionPoint {
	return s.points.get(ep.Outer)
}

// root follows the outer chain of a block's execution point back to the
// point in the enclosing method where the outermost block was created.
func (s *Scratch) root(ep ExecutionPoint) ExecutionPoint {
	for ep.Outer != 0 {
		ep = s.outer(ep)
	}
	return ep
}

// outerAt walks level steps out of ep's block nesting.
func (s *Scratch) outerAt(ep ExecutionPoint, level int) ExecutionPoint {
	for i := 0; i < level; i++ {
		if ep.Outer == 0 {
			invariant("%s: local variable level %d exceeds block nesting", ep.Location(), level)
		}
		ep = s.outer(ep)
	}
	return ep
}
