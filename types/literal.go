package types

import (
	"strconv"
)

type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	SymbolLit
	TrueLit
	FalseLit
)

// Literal refines Base with the concrete value it was constructed from.
// Literals are local to an execution point: globalization strips all of
// them except symbols, which survive into signatures.
type Literal struct {
	Kind LitKind
	Raw  string
	Base Type
}

func (t Literal) Key() string {
	return "L" + strconv.Itoa(int(t.Kind)) + ":" + t.Raw
}

func (t Literal) String() string {
	switch t.Kind {
	case SymbolLit:
		return ":" + t.Raw
	case StringLit:
		return strconv.Quote(t.Raw)
	}
	return t.Raw
}

func (t Literal) Int() (int, bool) {
	if t.Kind != IntLit {
		return 0, false
	}
	n, err := strconv.Atoi(t.Raw)
	return n, err == nil
}

func (t Literal) Symbol() (string, bool) {
	if t.Kind != SymbolLit {
		return "", false
	}
	return t.Raw, true
}

func IntLiteral(n int64) Literal {
	return Literal{Kind: IntLit, Raw: strconv.FormatInt(n, 10), Base: IntType}
}

func FloatLiteral(f float64) Literal {
	return Literal{Kind: FloatLit, Raw: strconv.FormatFloat(f, 'g', -1, 64), Base: FloatType}
}

func StringLiteral(s string) Literal {
	return Literal{Kind: StringLit, Raw: s, Base: StringType}
}

func SymbolLiteral(s string) Literal {
	return Literal{Kind: SymbolLit, Raw: s, Base: SymbolType}
}

func BoolLiteral(b bool) Literal {
	if b {
		return Literal{Kind: TrueLit, Raw: "true", Base: TrueType}
	}
	return Literal{Kind: FalseLit, Raw: "false", Base: FalseType}
}

// SymbolName extracts the name from a symbol literal.
func SymbolName(t Type) (string, bool) {
	if lit, ok := t.(Literal); ok {
		return lit.Symbol()
	}
	return "", false
}

// StringValue extracts the value of a string literal.
func StringValue(t Type) (string, bool) {
	if lit, ok := t.(Literal); ok && lit.Kind == StringLit {
		return lit.Raw, true
	}
	return "", false
}
