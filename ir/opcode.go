package ir

import "fmt"

type Opcode int

const (
	Nop Opcode = iota
	PutNil
	PutObject
	PutString
	PutSelf
	PutSpecialObject
	DupArray
	DupHash
	NewArray
	NewHash
	NewRange
	ConcatStrings
	ToString
	ToRegexp
	Intern
	DefineMethod
	DefineSMethod
	DefineClass
	Send
	InvokeBlock
	InvokeSuper
	Leave
	Throw
	BranchIf
	BranchUnless
	BranchNil
	Jump
	GetLocal
	SetLocal
	GetInstanceVariable
	SetInstanceVariable
	GetClassVariable
	SetClassVariable
	GetGlobal
	SetGlobal
	GetConstant
	SetConstant
	Dup
	DupN
	Pop
	Swap
	TopN
	SetN
	AdjustStack
	SplatArray
	ExpandArray
	ConcatArray
	CheckType
	CheckKeyword
	Defined
)

type operand int

const (
	intOperand operand = iota
	levelOperand
	idOperand
	literalOperand
	stringOperand
	bodyOperand
	optionalBodyOperand
	callOperand
	labelOperand
	flagOperand
)

// opcodeTable gives each opcode its mnemonic and the operands it carries,
// in the order they appear in the textual form. Operands land in Insn
// fields by kind: ints in N, levels in Level, flags in Flags, ids in ID,
// literals and strings in Lit, bodies in Body, call info in Call and
// labels in Target.
var opcodeTable = []struct {
	name     string
	operands []operand
}{
	Nop:                 {"nop", nil},
	PutNil:              {"putnil", nil},
	PutObject:           {"putobject", []operand{literalOperand}},
	PutString:           {"putstring", []operand{stringOperand}},
	PutSelf:             {"putself", nil},
	PutSpecialObject:    {"putspecialobject", []operand{intOperand}},
	DupArray:            {"duparray", []operand{literalOperand}},
	DupHash:             {"duphash", []operand{literalOperand}},
	NewArray:            {"newarray", []operand{intOperand}},
	NewHash:             {"newhash", []operand{intOperand}},
	NewRange:            {"newrange", []operand{flagOperand}},
	ConcatStrings:       {"concatstrings", []operand{intOperand}},
	ToString:            {"tostring", nil},
	ToRegexp:            {"toregexp", []operand{intOperand}},
	Intern:              {"intern", nil},
	DefineMethod:        {"definemethod", []operand{idOperand, bodyOperand}},
	DefineSMethod:       {"definesmethod", []operand{idOperand, bodyOperand}},
	DefineClass:         {"defineclass", []operand{idOperand, bodyOperand, flagOperand}},
	Send:                {"send", []operand{callOperand, optionalBodyOperand}},
	InvokeBlock:         {"invokeblock", []operand{callOperand}},
	InvokeSuper:         {"invokesuper", []operand{callOperand, optionalBodyOperand}},
	Leave:               {"leave", nil},
	Throw:               {"throw", []operand{intOperand}},
	BranchIf:            {"branchif", []operand{labelOperand}},
	BranchUnless:        {"branchunless", []operand{labelOperand}},
	BranchNil:           {"branchnil", []operand{labelOperand}},
	Jump:                {"jump", []operand{labelOperand}},
	GetLocal:            {"getlocal", []operand{intOperand, levelOperand}},
	SetLocal:            {"setlocal", []operand{intOperand, levelOperand}},
	GetInstanceVariable: {"getinstancevariable", []operand{idOperand}},
	SetInstanceVariable: {"setinstancevariable", []operand{idOperand}},
	GetClassVariable:    {"getclassvariable", []operand{idOperand}},
	SetClassVariable:    {"setclassvariable", []operand{idOperand}},
	GetGlobal:           {"getglobal", []operand{idOperand}},
	SetGlobal:           {"setglobal", []operand{idOperand}},
	GetConstant:         {"getconstant", []operand{idOperand}},
	SetConstant:         {"setconstant", []operand{idOperand}},
	Dup:                 {"dup", nil},
	DupN:                {"dupn", []operand{intOperand}},
	Pop:                 {"pop", nil},
	Swap:                {"swap", nil},
	TopN:                {"topn", []operand{intOperand}},
	SetN:                {"setn", []operand{intOperand}},
	AdjustStack:         {"adjuststack", []operand{intOperand}},
	SplatArray:          {"splatarray", nil},
	ExpandArray:         {"expandarray", []operand{intOperand, flagOperand}},
	ConcatArray:         {"concatarray", nil},
	CheckType:           {"checktype", []operand{intOperand}},
	CheckKeyword:        {"checkkeyword", []operand{intOperand}},
	Defined:             {"defined", []operand{intOperand}},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		m[info.name] = Opcode(op)
	}
	return m
}()

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeTable) {
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
	return opcodeTable[op].name
}

func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// Special objects pushed by putspecialobject.
const (
	VMCoreObject = 1
	CBaseObject  = 2
	ConstBase    = 3
)

// defineclass flavors.
const (
	ClassDefinition     = 0
	SingletonDefinition = 1
	ModuleDefinition    = 2
)

// throw states.
const (
	ThrowReturn = 1
	ThrowBreak  = 2
)

type CallFlag int

const (
	ArgsSplat CallFlag = 1 << iota
	ArgsBlockArg
	FCall
	VCall
	KwSplat
)

var callFlagNames = []struct {
	name string
	flag CallFlag
}{
	{"splat", ArgsSplat},
	{"blockarg", ArgsBlockArg},
	{"fcall", FCall},
	{"vcall", VCall},
	{"kwsplat", KwSplat},
}

func parseCallFlag(name string) (CallFlag, bool) {
	for _, f := range callFlagNames {
		if f.name == name {
			return f.flag, true
		}
	}
	return 0, false
}

// CallInfo describes a call site. Argc counts every value the call pops
// for its arguments, keyword values and splatted hashes included, but not
// the receiver or a block argument.
type CallInfo struct {
	MID   string
	Argc  int
	Flags CallFlag
	KwArg []string
}

func (c *CallInfo) Has(f CallFlag) bool { return c.Flags&f != 0 }

func (c *CallInfo) String() string {
	s := fmt.Sprintf("<callinfo mid:%s argc:%d", c.MID, c.Argc)
	for _, f := range callFlagNames {
		if c.Has(f.flag) {
			s += " " + f.name
		}
	}
	if len(c.KwArg) > 0 {
		s += fmt.Sprintf(" kw:%v", c.KwArg)
	}
	return s + ">"
}
