// package ir defines the instruction sequences the analyzer interprets:
// bodies of top-level code, class bodies, methods and blocks, each a flat
// list of stack-machine instructions whose branch targets have already
// been resolved to indices.
package ir

import (
	"fmt"
	"strings"
	"sync/atomic"
)

type BodyKind int

const (
	TopBody BodyKind = iota
	ClassBody
	MethodBody
	BlockBody
)

var bodyKindNames = []string{"top", "class", "method", "block"}

func (k BodyKind) String() string { return bodyKindNames[k] }

func parseBodyKind(s string) (BodyKind, bool) {
	for i, name := range bodyKindNames {
		if name == s {
			return BodyKind(i), true
		}
	}
	return 0, false
}

type Insn struct {
	Op     Opcode
	Line   int
	N      int
	Level  int
	Flags  int
	ID     string
	Lit    *Literal
	Body   *Body
	Call   *CallInfo
	Target int
}

func (insn Insn) String() string {
	var operands []string
	for _, kind := range opcodeTable[insn.Op].operands {
		switch kind {
		case intOperand:
			operands = append(operands, fmt.Sprint(insn.N))
		case levelOperand:
			operands = append(operands, fmt.Sprint(insn.Level))
		case flagOperand:
			operands = append(operands, fmt.Sprint(insn.Flags))
		case idOperand:
			operands = append(operands, ":"+insn.ID)
		case literalOperand, stringOperand:
			operands = append(operands, insn.Lit.String())
		case bodyOperand, optionalBodyOperand:
			if insn.Body != nil {
				operands = append(operands, fmt.Sprintf("<%s:%s>", insn.Body.Kind, insn.Body.Name))
			} else {
				operands = append(operands, "nil")
			}
		case callOperand:
			operands = append(operands, insn.Call.String())
		case labelOperand:
			operands = append(operands, fmt.Sprintf("%04d", insn.Target))
		}
	}
	if len(operands) == 0 {
		return insn.Op.String()
	}
	return insn.Op.String() + " " + strings.Join(operands, ", ")
}

// Keyword is a keyword parameter. Default is set when the default value
// is a literal the caller side can supply directly.
type Keyword struct {
	Name     string
	Required bool
	Default  *Literal
}

// ParamShape describes a body's formal parameters. Opt holds the entry
// point for each number of supplied optional arguments, so it has one
// more element than there are optional parameters (or none at all).
// Parameters occupy the leading local slots in the order lead, optional,
// rest, post, keywords, keyword rest, block.
type ParamShape struct {
	Lead      int
	Opt       []int
	Rest      bool
	Post      int
	Keywords  []Keyword
	KwRest    bool
	Block     bool
	Ambiguous bool
}

func (p ParamShape) OptCount() int {
	if len(p.Opt) == 0 {
		return 0
	}
	return len(p.Opt) - 1
}

func (p ParamShape) OptIndex() int { return p.Lead }

func (p ParamShape) RestIndex() int {
	if !p.Rest {
		return -1
	}
	return p.Lead + p.OptCount()
}

func (p ParamShape) PostIndex() int {
	i := p.Lead + p.OptCount()
	if p.Rest {
		i++
	}
	return i
}

func (p ParamShape) KeywordIndex() int { return p.PostIndex() + p.Post }

func (p ParamShape) KwRestIndex() int {
	if !p.KwRest {
		return -1
	}
	return p.KeywordIndex() + len(p.Keywords)
}

func (p ParamShape) BlockIndex() int {
	if !p.Block {
		return -1
	}
	i := p.KeywordIndex() + len(p.Keywords)
	if p.KwRest {
		i++
	}
	return i
}

// Size is the number of local slots the parameters occupy.
func (p ParamShape) Size() int {
	n := p.KeywordIndex() + len(p.Keywords)
	if p.KwRest {
		n++
	}
	if p.Block {
		n++
	}
	return n
}

// MinArity and MaxArity bound the positional argument count; MaxArity is
// -1 when a rest parameter is present.
func (p ParamShape) MinArity() int { return p.Lead + p.Post }

func (p ParamShape) MaxArity() int {
	if p.Rest {
		return -1
	}
	return p.Lead + p.OptCount() + p.Post
}

func (p ParamShape) HasKeywords() bool { return len(p.Keywords) > 0 || p.KwRest }

type Body struct {
	ID     int
	Name   string
	Path   string
	Kind   BodyKind
	Locals []string
	Params ParamShape
	Insns  []Insn
}

var lastBodyID int64

func nextBodyID() int {
	return int(atomic.AddInt64(&lastBodyID, 1))
}

// Location renders the source position of the instruction at pc.
func (b *Body) Location(pc int) string {
	line := 0
	if pc >= 0 && pc < len(b.Insns) {
		line = b.Insns[pc].Line
	}
	return fmt.Sprintf("%s:%d", b.Path, line)
}

func (b *Body) String() string {
	return fmt.Sprintf("<%s:%s@%s>", b.Kind, b.Name, b.Path)
}

// Disasm renders b and every body nested in it.
func (b *Body) Disasm() string {
	var sb strings.Builder
	b.disasm(&sb)
	return sb.String()
}

func (b *Body) disasm(sb *strings.Builder) {
	fmt.Fprintf(sb, "== disasm: %s (locals: %s)\n", b, strings.Join(b.Locals, ", "))
	var nested []*Body
	line := -1
	for pc, insn := range b.Insns {
		fmt.Fprintf(sb, "%04d %-40s", pc, insn)
		if insn.Line != line {
			fmt.Fprintf(sb, " (%d)", insn.Line)
			line = insn.Line
		}
		sb.WriteString("\n")
		if insn.Body != nil {
			nested = append(nested, insn.Body)
		}
	}
	for _, n := range nested {
		sb.WriteString("\n")
		n.disasm(sb)
	}
}
