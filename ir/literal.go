package ir

import (
	"strconv"
	"strings"
)

type LitKind int

const (
	NilLit LitKind = iota
	TrueLit
	FalseLit
	IntLit
	FloatLit
	StringLit
	SymbolLit
	ArrayLit
	HashLit
	RangeLit
	RegexpLit
)

// Literal is a constant operand. Arrays hold their elements in Elems,
// hashes hold alternating keys and values, and ranges hold their two ends.
type Literal struct {
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Elems []*Literal
}

func Nil() *Literal                    { return &Literal{Kind: NilLit} }
func Int(n int64) *Literal             { return &Literal{Kind: IntLit, Int: n} }
func Float(f float64) *Literal         { return &Literal{Kind: FloatLit, Float: f} }
func Str(s string) *Literal            { return &Literal{Kind: StringLit, Str: s} }
func Sym(s string) *Literal            { return &Literal{Kind: SymbolLit, Str: s} }
func Regexp(s string) *Literal         { return &Literal{Kind: RegexpLit, Str: s} }
func Array(elems ...*Literal) *Literal { return &Literal{Kind: ArrayLit, Elems: elems} }
func Hash(pairs ...*Literal) *Literal  { return &Literal{Kind: HashLit, Elems: pairs} }

func Bool(b bool) *Literal {
	if b {
		return &Literal{Kind: TrueLit}
	}
	return &Literal{Kind: FalseLit}
}

func Range(from, to *Literal) *Literal {
	return &Literal{Kind: RangeLit, Elems: []*Literal{from, to}}
}

func (l *Literal) String() string {
	switch l.Kind {
	case NilLit:
		return "nil"
	case TrueLit:
		return "true"
	case FalseLit:
		return "false"
	case IntLit:
		return strconv.FormatInt(l.Int, 10)
	case FloatLit:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case StringLit:
		return strconv.Quote(l.Str)
	case SymbolLit:
		return ":" + l.Str
	case RegexpLit:
		return "/" + l.Str + "/"
	case RangeLit:
		return l.Elems[0].String() + ".." + l.Elems[1].String()
	case ArrayLit:
		strs := make([]string, len(l.Elems))
		for i, e := range l.Elems {
			strs[i] = e.String()
		}
		return "[" + strings.Join(strs, ", ") + "]"
	case HashLit:
		var pairs []string
		for i := 0; i+1 < len(l.Elems); i += 2 {
			pairs = append(pairs, l.Elems[i].String()+" => "+l.Elems[i+1].String())
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	}
	return "?"
}
