package analyzer

import (
	"sort"
	"strings"

	spooky "github.com/dgryski/go-spooky"
	"github.com/redneckbeard/rbprof/types"
)

// Env is the abstract machine state at one execution point. Envs are
// persistent: every update returns a new Env and leaves the receiver
// untouched, so they can be shared freely between points.
type Env struct {
	Recv   types.Type
	Blk    types.Type
	Locals []types.Type
	Stack  []types.Type

	containers map[types.AllocSite]types.Elements

	canon       string
	fingerprint uint64
}

func NewEnv(recv, blk types.Type, locals []types.Type) *Env {
	return &Env{Recv: recv, Blk: blk, Locals: locals}
}

// nilLocals is a local table of n slots all holding NilClass.
func nilLocals(n int) []types.Type {
	locals := make([]types.Type, n)
	for i := range locals {
		locals[i] = types.NilType
	}
	return locals
}

func (e *Env) clone() *Env {
	return &Env{
		Recv:       e.Recv,
		Blk:        e.Blk,
		Locals:     e.Locals,
		Stack:      e.Stack,
		containers: e.containers,
	}
}

func (e *Env) Container(site types.AllocSite) (types.Elements, bool) {
	elems, ok := e.containers[site]
	return elems, ok
}

// Push places ts on the operand stack. Only environment-local types may
// live on the stack: pushing Bot or a global container is a bug.
func (e *Env) Push(ts ...types.Type) *Env {
	for _, t := range ts {
		switch t.(type) {
		case types.Array, types.Hash:
			invariant("pushing global container %s", t)
		}
		if types.IsBot(t) {
			invariant("pushing bot")
		}
	}
	ne := e.clone()
	stack := make([]types.Type, len(e.Stack), len(e.Stack)+len(ts))
	copy(stack, e.Stack)
	ne.Stack = append(stack, ts...)
	return ne
}

// Pop removes the top n values, returning them bottom first.
func (e *Env) Pop(n int) (*Env, []types.Type) {
	if n > len(e.Stack) {
		invariant("popping %d values from a stack of %d", n, len(e.Stack))
	}
	split := len(e.Stack) - n
	ne := e.clone()
	ne.Stack = e.Stack[:split:split]
	popped := make([]types.Type, n)
	copy(popped, e.Stack[split:])
	return ne, popped
}

// Top returns the value n slots below the top of the stack.
func (e *Env) Top(n int) types.Type {
	if n >= len(e.Stack) {
		invariant("reading slot %d of a stack of %d", n, len(e.Stack))
	}
	return e.Stack[len(e.Stack)-1-n]
}

func (e *Env) SetTop(n int, t types.Type) *Env {
	if n >= len(e.Stack) {
		invariant("writing slot %d of a stack of %d", n, len(e.Stack))
	}
	ne := e.clone()
	ne.Stack = make([]types.Type, len(e.Stack))
	copy(ne.Stack, e.Stack)
	ne.Stack[len(e.Stack)-1-n] = t
	return ne
}

func (e *Env) Local(i int) types.Type {
	if i < 0 || i >= len(e.Locals) {
		invariant("local %d out of range (%d locals)", i, len(e.Locals))
	}
	return e.Locals[i]
}

func (e *Env) SetLocal(i int, t types.Type) *Env {
	if i < 0 || i >= len(e.Locals) {
		invariant("local %d out of range (%d locals)", i, len(e.Locals))
	}
	ne := e.clone()
	ne.Locals = make([]types.Type, len(e.Locals))
	copy(ne.Locals, e.Locals)
	ne.Locals[i] = t
	return ne
}

// Deploy records elems as the contents of the container at site,
// replacing whatever was there.
func (e *Env) Deploy(site types.AllocSite, elems types.Elements) *Env {
	ne := e.clone()
	ne.containers = make(map[types.AllocSite]types.Elements, len(e.containers)+1)
	for k, v := range e.containers {
		ne.containers[k] = v
	}
	ne.containers[site] = elems
	return ne
}

// Merge joins two environments pointwise. Both must come from the same
// execution point and so have the same shape.
func (e *Env) Merge(o *Env) *Env {
	return e.mergeWith(types.Join, o)
}

func (e *Env) mergeWith(join func(a, b types.Type) types.Type, o *Env) *Env {
	if len(e.Locals) != len(o.Locals) || len(e.Stack) != len(o.Stack) {
		invariant("merging environments of different shapes: %d/%d locals, %d/%d stack",
			len(e.Locals), len(o.Locals), len(e.Stack), len(o.Stack))
	}
	ne := &Env{
		Recv:   join(e.Recv, o.Recv),
		Blk:    join(e.Blk, o.Blk),
		Locals: joinSlices(join, e.Locals, o.Locals),
		Stack:  joinSlices(join, e.Stack, o.Stack),
	}
	if len(e.containers) > 0 || len(o.containers) > 0 {
		ne.containers = make(map[types.AllocSite]types.Elements, len(e.containers))
		for site, elems := range e.containers {
			ne.containers[site] = elems
		}
		for site, elems := range o.containers {
			if prev, ok := ne.containers[site]; ok {
				elems = prev.Join(elems)
			}
			ne.containers[site] = elems
		}
	}
	return ne
}

func joinSlices(join func(a, b types.Type) types.Type, a, b []types.Type) []types.Type {
	joined := make([]types.Type, len(a))
	for i := range a {
		joined[i] = join(a[i], b[i])
	}
	return joined
}

func (e *Env) Equal(o *Env) bool {
	if e == o {
		return true
	}
	if e.Fingerprint() != o.Fingerprint() {
		return false
	}
	return e.canonical() == o.canonical()
}

// Fingerprint is a hash of the environment's contents, used to detect
// whether a merge changed anything.
func (e *Env) Fingerprint() uint64 {
	if e.canon == "" {
		e.canon = e.computeCanonical()
		e.fingerprint = spooky.Hash64([]byte(e.canon))
	}
	return e.fingerprint
}

func (e *Env) canonical() string {
	e.Fingerprint()
	return e.canon
}

func (e *Env) computeCanonical() string {
	var sb strings.Builder
	key := func(t types.Type) {
		if t == nil {
			sb.WriteString("-")
		} else {
			sb.WriteString(t.Key())
		}
		sb.WriteByte(' ')
	}
	key(e.Recv)
	key(e.Blk)
	sb.WriteString("|L ")
	for _, t := range e.Locals {
		key(t)
	}
	sb.WriteString("|S ")
	for _, t := range e.Stack {
		key(t)
	}
	sb.WriteString("|C ")
	for _, site := range e.sites() {
		sb.WriteString(string(site))
		sb.WriteByte('=')
		sb.WriteString(e.containers[site].Key())
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (e *Env) sites() []types.AllocSite {
	sites := make([]types.AllocSite, 0, len(e.containers))
	for site := range e.containers {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
	return sites
}

func (e *Env) String() string {
	var sb strings.Builder
	sb.WriteString("recv:")
	sb.WriteString(typeString(e.Recv))
	sb.WriteString(" blk:")
	sb.WriteString(typeString(e.Blk))
	sb.WriteString(" locals:[")
	for i, t := range e.Locals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(typeString(t))
	}
	sb.WriteString("] stack:[")
	for i, t := range e.Stack {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(typeString(t))
	}
	sb.WriteString("]")
	for _, site := range e.sites() {
		sb.WriteString(" ")
		sb.WriteString(string(site))
		sb.WriteString("=")
		sb.WriteString(e.containers[site].String())
	}
	return sb.String()
}

func typeString(t types.Type) string {
	if t == nil {
		return "bot"
	}
	return t.String()
}
