package types

// Builtin classes are created by every registry in exactly this order, so
// their IDs are stable across analyses and can be referenced statically.
var (
	ObjectClass    = ClassObject{ID: 0, Name: "Object"}
	ModuleClass    = ClassObject{ID: 1, Name: "Module"}
	ClassClass     = ClassObject{ID: 2, Name: "Class"}
	KernelModule   = ClassObject{ID: 3, Name: "Kernel", Module: true}
	NilClass       = ClassObject{ID: 4, Name: "NilClass"}
	TrueClass      = ClassObject{ID: 5, Name: "TrueClass"}
	FalseClass     = ClassObject{ID: 6, Name: "FalseClass"}
	NumericClass   = ClassObject{ID: 7, Name: "Numeric"}
	IntegerClass   = ClassObject{ID: 8, Name: "Integer"}
	FloatClass     = ClassObject{ID: 9, Name: "Float"}
	StringClass    = ClassObject{ID: 10, Name: "String"}
	SymbolClass    = ClassObject{ID: 11, Name: "Symbol"}
	ArrayClass     = ClassObject{ID: 12, Name: "Array"}
	HashClass      = ClassObject{ID: 13, Name: "Hash"}
	RangeClass     = ClassObject{ID: 14, Name: "Range"}
	RegexpClass    = ClassObject{ID: 15, Name: "Regexp"}
	MatchDataClass = ClassObject{ID: 16, Name: "MatchData"}
	ProcClass      = ClassObject{ID: 17, Name: "Proc"}
	VMCoreClass    = ClassObject{ID: 18, Name: "VMCore"}
)

// BuiltinClasses lists the predefined classes in ID order alongside the ID
// of their superclass (-1 for none).
var BuiltinClasses = []struct {
	Class      ClassObject
	Superclass int
}{
	{ObjectClass, -1},
	{ModuleClass, ObjectClass.ID},
	{ClassClass, ModuleClass.ID},
	{KernelModule, -1},
	{NilClass, ObjectClass.ID},
	{TrueClass, ObjectClass.ID},
	{FalseClass, ObjectClass.ID},
	{NumericClass, ObjectClass.ID},
	{IntegerClass, NumericClass.ID},
	{FloatClass, NumericClass.ID},
	{StringClass, ObjectClass.ID},
	{SymbolClass, ObjectClass.ID},
	{ArrayClass, ObjectClass.ID},
	{HashClass, ObjectClass.ID},
	{RangeClass, ObjectClass.ID},
	{RegexpClass, ObjectClass.ID},
	{MatchDataClass, ObjectClass.ID},
	{ProcClass, ObjectClass.ID},
	{VMCoreClass, ObjectClass.ID},
}

var (
	ObjectType   = InstanceOf(ObjectClass)
	NilType      = InstanceOf(NilClass)
	TrueType     = InstanceOf(TrueClass)
	FalseType    = InstanceOf(FalseClass)
	IntType      = InstanceOf(IntegerClass)
	FloatType    = InstanceOf(FloatClass)
	StringType   = InstanceOf(StringClass)
	SymbolType   = InstanceOf(SymbolClass)
	ArrayType    = InstanceOf(ArrayClass)
	HashType     = InstanceOf(HashClass)
	RangeType    = InstanceOf(RangeClass)
	RegexpType   = InstanceOf(RegexpClass)
	ProcType     = InstanceOf(ProcClass)
	VMCoreType   = InstanceOf(VMCoreClass)
	BoolType     = Join(TrueType, FalseType)
	OptionalBool = Join(BoolType, NilType)
)
