package types

import (
	"fmt"
	"testing"
)

var samples = []Type{
	Bot,
	Any,
	NilType,
	IntType,
	StringType,
	IntLiteral(1),
	IntLiteral(2),
	SymbolLiteral("a"),
	BoolType,
	ObjectClass,
	NewArray(TupleElems(IntType, StringType), nil),
	NewArray(TupleElems(NilType, StringType), nil),
	NewArray(TupleElems(IntType), nil),
	NewArray(SeqElems(SymbolType), nil),
	NewHash(HashElemsOf(SymbolLiteral("k"), IntType), nil),
	NewHash(HashElemsOf(SymbolLiteral("k"), StringType), nil),
	LocalArray{Site: "x"},
}

func TestJoinAlgebra(t *testing.T) {
	for _, a := range samples {
		if j := Join(a, a); !Equal(j, a) {
			t.Errorf("Join(%s, %s) = %s, expected idempotence", a, a, j)
		}
		if j := Join(a, Bot); !Equal(j, a) {
			t.Errorf("Join(%s, bot) = %s", a, j)
		}
		if j := Join(a, Any); !IsAny(j) {
			t.Errorf("Join(%s, any) = %s", a, j)
		}
		for _, b := range samples {
			if ab, ba := Join(a, b), Join(b, a); !Equal(ab, ba) {
				t.Errorf("Join not commutative for %s and %s: %s vs %s", a, b, ab, ba)
			}
			for _, c := range samples {
				left := Join(Join(a, b), c)
				right := Join(a, Join(b, c))
				if !Equal(left, right) {
					t.Errorf("Join not associative for %s, %s, %s: %s vs %s", a, b, c, left, right)
				}
			}
		}
	}
}

func TestJoinNormalization(t *testing.T) {
	tests := []struct {
		a, b     Type
		expected string
	}{
		{IntType, StringType, "Integer | String"},
		{IntLiteral(1), IntType, "Integer"},
		{IntLiteral(1), IntLiteral(2), "1 | 2"},
		{TrueType, FalseType, "bool"},
		{BoolType, NilType, "NilClass | bool"},
		{SymbolLiteral("a"), SymbolLiteral("b"), ":a | :b"},
		{SymbolLiteral("a"), SymbolType, "Symbol"},
		{NewArray(TupleElems(IntType, StringType), nil), NewArray(TupleElems(NilType, StringType), nil), "[Integer | NilClass, String]"},
		{NewArray(TupleElems(IntType), nil), NewArray(TupleElems(IntType, StringType), nil), "Array[Integer | String]"},
		{NewArray(TupleElems(IntType), nil), NilType, "NilClass | [Integer]"},
		{NewHash(HashElemsOf(SymbolLiteral("k"), IntType), nil), NewHash(HashElemsOf(SymbolLiteral("k"), StringType), nil), "{:k => Integer | String}"},
	}

	for _, tt := range tests {
		if joined := Join(tt.a, tt.b); joined.String() != tt.expected {
			t.Errorf("Join(%s, %s): expected %q, got %q", tt.a, tt.b, tt.expected, joined.String())
		}
	}
}

func TestSingleMemberUnionIsNotAUnion(t *testing.T) {
	joined := Join(IntLiteral(1), IntType)
	if _, ok := joined.(Union); ok {
		t.Fatalf("expected a plain instance type, got union %s", joined)
	}
}

func TestWideUnionsWidenToAny(t *testing.T) {
	joined := Bot
	for i := 0; i <= MaxUnionSize; i++ {
		joined = Join(joined, InstanceOf(ClassObject{ID: 100 + i, Name: fmt.Sprintf("C%d", i)}))
	}
	if !IsAny(joined) {
		t.Fatalf("expected union of %d classes to widen to any, got %s", MaxUnionSize+1, joined)
	}
}

func TestLatticesDoNotShareJoins(t *testing.T) {
	foo := InstanceOf(ClassObject{ID: 100, Name: "Foo"})
	bar := InstanceOf(ClassObject{ID: 100, Name: "Bar"})

	first := NewLattice()
	if got := first.Join(foo, NilType).String(); got != "Foo | NilClass" {
		t.Fatalf("expected Foo | NilClass, got %s", got)
	}
	if got := first.Join(NilType, foo).String(); got != "Foo | NilClass" {
		t.Fatalf("expected Foo | NilClass, got %s", got)
	}
	if first.Len() != 1 {
		t.Errorf("expected one cached join, got %d", first.Len())
	}
	if got := NewLattice().Join(bar, NilType).String(); got != "Bar | NilClass" {
		t.Errorf("expected Bar | NilClass, got %s", got)
	}
}
