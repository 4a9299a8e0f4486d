package ir

import (
	"github.com/pkg/errors"
)

// Builder assembles a Body instruction by instruction. Branch targets and
// optional-parameter entry points are given as label names and resolved
// when the body is built.
type Builder struct {
	body      *Body
	line      int
	labels    map[string]int
	fixups    []fixup
	optLabels []string
	err       error
}

type fixup struct {
	pc    int
	label string
}

func NewBuilder(kind BodyKind, name, path string) *Builder {
	return &Builder{
		body:   &Body{Name: name, Path: path, Kind: kind},
		labels: map[string]int{},
	}
}

func (b *Builder) Locals(names ...string) *Builder {
	b.body.Locals = append(b.body.Locals, names...)
	return b
}

// Params sets the parameter shape. When optLabels are given they replace
// p.Opt once the labels are resolved.
func (b *Builder) Params(p ParamShape, optLabels ...string) *Builder {
	b.body.Params = p
	b.optLabels = optLabels
	return b
}

func (b *Builder) Line(n int) *Builder {
	b.line = n
	return b
}

func (b *Builder) Label(name string) *Builder {
	if _, ok := b.labels[name]; ok && b.err == nil {
		b.err = errors.Errorf("%s: duplicate label %q", b.body.Name, name)
	}
	b.labels[name] = len(b.body.Insns)
	return b
}

func (b *Builder) Emit(insn Insn) *Builder {
	if insn.Line == 0 {
		insn.Line = b.line
	}
	b.body.Insns = append(b.body.Insns, insn)
	return b
}

func (b *Builder) jump(op Opcode, label string) *Builder {
	return b.emitJump(Insn{Op: op}, label)
}

func (b *Builder) emitJump(insn Insn, label string) *Builder {
	b.fixups = append(b.fixups, fixup{pc: len(b.body.Insns), label: label})
	return b.Emit(insn)
}

func (b *Builder) Build() (*Body, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			return nil, errors.Errorf("%s: undefined label %q", b.body.Name, f.label)
		}
		b.body.Insns[f.pc].Target = target
	}
	if len(b.optLabels) > 0 {
		b.body.Params.Opt = make([]int, len(b.optLabels))
		for i, label := range b.optLabels {
			target, ok := b.labels[label]
			if !ok {
				return nil, errors.Errorf("%s: undefined label %q", b.body.Name, label)
			}
			b.body.Params.Opt[i] = target
		}
	}
	if len(b.body.Locals) < b.body.Params.Size() {
		return nil, errors.Errorf("%s: %d locals cannot hold %d parameters", b.body.Name, len(b.body.Locals), b.body.Params.Size())
	}
	inheritPath(b.body)
	b.body.ID = nextBodyID()
	return b.body, nil
}

func inheritPath(body *Body) {
	for _, insn := range body.Insns {
		if insn.Body != nil && insn.Body.Path == "" {
			insn.Body.Path = body.Path
			inheritPath(insn.Body)
		}
	}
}

func (b *Builder) MustBuild() *Body {
	body, err := b.Build()
	if err != nil {
		panic(err)
	}
	return body
}

func (b *Builder) Nop() *Builder                      { return b.Emit(Insn{Op: Nop}) }
func (b *Builder) PutNil() *Builder                   { return b.Emit(Insn{Op: PutNil}) }
func (b *Builder) PutObject(l *Literal) *Builder      { return b.Emit(Insn{Op: PutObject, Lit: l}) }
func (b *Builder) PutString(s string) *Builder        { return b.Emit(Insn{Op: PutString, Lit: Str(s)}) }
func (b *Builder) PutSelf() *Builder                  { return b.Emit(Insn{Op: PutSelf}) }
func (b *Builder) PutSpecialObject(n int) *Builder    { return b.Emit(Insn{Op: PutSpecialObject, N: n}) }
func (b *Builder) DupArray(l *Literal) *Builder       { return b.Emit(Insn{Op: DupArray, Lit: l}) }
func (b *Builder) DupHash(l *Literal) *Builder        { return b.Emit(Insn{Op: DupHash, Lit: l}) }
func (b *Builder) NewArray(n int) *Builder            { return b.Emit(Insn{Op: NewArray, N: n}) }
func (b *Builder) NewHash(n int) *Builder             { return b.Emit(Insn{Op: NewHash, N: n}) }
func (b *Builder) NewRange(flags int) *Builder        { return b.Emit(Insn{Op: NewRange, Flags: flags}) }
func (b *Builder) ConcatStrings(n int) *Builder       { return b.Emit(Insn{Op: ConcatStrings, N: n}) }
func (b *Builder) ToString() *Builder                 { return b.Emit(Insn{Op: ToString}) }
func (b *Builder) Intern() *Builder                   { return b.Emit(Insn{Op: Intern}) }
func (b *Builder) Leave() *Builder                    { return b.Emit(Insn{Op: Leave}) }
func (b *Builder) Throw(state int) *Builder           { return b.Emit(Insn{Op: Throw, N: state}) }
func (b *Builder) Dup() *Builder                      { return b.Emit(Insn{Op: Dup}) }
func (b *Builder) DupN(n int) *Builder                { return b.Emit(Insn{Op: DupN, N: n}) }
func (b *Builder) Pop() *Builder                      { return b.Emit(Insn{Op: Pop}) }
func (b *Builder) Swap() *Builder                     { return b.Emit(Insn{Op: Swap}) }
func (b *Builder) TopN(n int) *Builder                { return b.Emit(Insn{Op: TopN, N: n}) }
func (b *Builder) SetN(n int) *Builder                { return b.Emit(Insn{Op: SetN, N: n}) }
func (b *Builder) AdjustStack(n int) *Builder         { return b.Emit(Insn{Op: AdjustStack, N: n}) }
func (b *Builder) SplatArray() *Builder               { return b.Emit(Insn{Op: SplatArray}) }
func (b *Builder) ConcatArray() *Builder              { return b.Emit(Insn{Op: ConcatArray}) }
func (b *Builder) BranchIf(label string) *Builder     { return b.jump(BranchIf, label) }
func (b *Builder) BranchUnless(label string) *Builder { return b.jump(BranchUnless, label) }
func (b *Builder) BranchNil(label string) *Builder    { return b.jump(BranchNil, label) }
func (b *Builder) Jump(label string) *Builder         { return b.jump(Jump, label) }

func (b *Builder) ExpandArray(n, flags int) *Builder {
	return b.Emit(Insn{Op: ExpandArray, N: n, Flags: flags})
}

func (b *Builder) GetLocal(idx, level int) *Builder {
	return b.Emit(Insn{Op: GetLocal, N: idx, Level: level})
}

func (b *Builder) SetLocal(idx, level int) *Builder {
	return b.Emit(Insn{Op: SetLocal, N: idx, Level: level})
}

func (b *Builder) GetIVar(name string) *Builder {
	return b.Emit(Insn{Op: GetInstanceVariable, ID: name})
}

func (b *Builder) SetIVar(name string) *Builder {
	return b.Emit(Insn{Op: SetInstanceVariable, ID: name})
}

func (b *Builder) GetCVar(name string) *Builder {
	return b.Emit(Insn{Op: GetClassVariable, ID: name})
}

func (b *Builder) SetCVar(name string) *Builder {
	return b.Emit(Insn{Op: SetClassVariable, ID: name})
}

func (b *Builder) GetGlobal(name string) *Builder {
	return b.Emit(Insn{Op: GetGlobal, ID: name})
}

func (b *Builder) SetGlobal(name string) *Builder {
	return b.Emit(Insn{Op: SetGlobal, ID: name})
}

func (b *Builder) GetConstant(name string) *Builder {
	return b.Emit(Insn{Op: GetConstant, ID: name})
}

func (b *Builder) SetConstant(name string) *Builder {
	return b.Emit(Insn{Op: SetConstant, ID: name})
}

func (b *Builder) DefineMethod(name string, body *Body) *Builder {
	return b.Emit(Insn{Op: DefineMethod, ID: name, Body: body})
}

func (b *Builder) DefineSMethod(name string, body *Body) *Builder {
	return b.Emit(Insn{Op: DefineSMethod, ID: name, Body: body})
}

func (b *Builder) DefineClass(name string, body *Body, flags int) *Builder {
	return b.Emit(Insn{Op: DefineClass, ID: name, Body: body, Flags: flags})
}

// Send emits a call of mid with argc positional arguments. blk may be nil.
func (b *Builder) Send(mid string, argc int, flags CallFlag, blk *Body) *Builder {
	return b.Emit(Insn{Op: Send, Call: &CallInfo{MID: mid, Argc: argc, Flags: flags}, Body: blk})
}

// SendKw emits a call whose last len(kw) arguments are keyword values.
func (b *Builder) SendKw(mid string, argc int, flags CallFlag, kw []string, blk *Body) *Builder {
	return b.Emit(Insn{Op: Send, Call: &CallInfo{MID: mid, Argc: argc, Flags: flags, KwArg: kw}, Body: blk})
}

func (b *Builder) InvokeBlock(argc int, flags CallFlag) *Builder {
	return b.Emit(Insn{Op: InvokeBlock, Call: &CallInfo{Argc: argc, Flags: flags}})
}

func (b *Builder) InvokeSuper(argc int, flags CallFlag, blk *Body) *Builder {
	return b.Emit(Insn{Op: InvokeSuper, Call: &CallInfo{Argc: argc, Flags: flags}, Body: blk})
}

func (b *Builder) CheckType(code int) *Builder   { return b.Emit(Insn{Op: CheckType, N: code}) }
func (b *Builder) CheckKeyword(idx int) *Builder { return b.Emit(Insn{Op: CheckKeyword, N: idx}) }
