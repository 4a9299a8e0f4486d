package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg Config, main *ir.Body) *Result {
	t.Helper()
	res, err := New(cfg).Analyze(context.Background(), main)
	require.NoError(t, err)
	return res
}

func findClass(t *testing.T, res *Result, name string) ClassSummary {
	t.Helper()
	for _, c := range res.Classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no class %s in result", name)
	return ClassSummary{}
}

func findMethod(t *testing.T, c ClassSummary, name string) MethodSummary {
	t.Helper()
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no method %s#%s in result", c.Name, name)
	return MethodSummary{}
}

func messages(res *Result, sev Severity) []string {
	var out []string
	for _, d := range res.Diagnostics {
		if d.Severity == sev {
			out = append(out, d.Message)
		}
	}
	return out
}

func assertType(t *testing.T, expected, actual types.Type) {
	t.Helper()
	assert.True(t, types.Equal(expected, actual), "expected %s, got %s", typeString(expected), typeString(actual))
}

func top(name string) *ir.Builder {
	return ir.NewBuilder(ir.TopBody, "<main>", name+".rb")
}

func method(name string) *ir.Builder {
	return ir.NewBuilder(ir.MethodBody, name, "")
}

func block() *ir.Builder {
	return ir.NewBuilder(ir.BlockBody, "block", "")
}

// defineClass emits `class name < super; body; end` at the top level,
// leaving the class body's value on the stack. An empty super means none.
func defineClass(b *ir.Builder, name, super string, body *ir.Body, flags int) *ir.Builder {
	b.PutSpecialObject(ir.ConstBase)
	if super == "" {
		b.PutNil()
	} else {
		b.PutNil().GetConstant(super)
	}
	return b.DefineClass(name, body, flags)
}

func emptyClassBody(name string) *ir.Body {
	return ir.NewBuilder(ir.ClassBody, name, "").PutNil().Leave().MustBuild()
}

func TestFib(t *testing.T) {
	fib := method("fib").
		Locals("x").
		Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		PutObject(ir.Int(1)).
		Send("<=", 1, 0, nil).
		BranchUnless("else").
		GetLocal(0, 0).
		Leave().
		Label("else").
		PutSelf().
		GetLocal(0, 0).
		PutObject(ir.Int(1)).
		Send("-", 1, 0, nil).
		Send("fib", 1, ir.FCall, nil).
		PutSelf().
		GetLocal(0, 0).
		PutObject(ir.Int(2)).
		Send("-", 1, 0, nil).
		Send("fib", 1, ir.FCall, nil).
		Send("+", 1, 0, nil).
		Leave().
		MustBuild()
	main := top("fib").
		DefineMethod("fib", fib).
		PutSelf().
		PutObject(ir.Int(40000)).
		Send("fib", 1, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	m := findMethod(t, findClass(t, res, "Object"), "fib")
	require.Len(t, m.Signatures, 1)
	sig := m.Signatures[0]
	require.Len(t, sig.Args.Lead, 1)
	assertType(t, types.IntType, sig.Args.Lead[0])
	assertType(t, types.IntType, sig.Ret)
	assert.False(t, res.Stats.Aborted)
	assert.NotZero(t, res.Stats.Iterations)
}

func TestOptionalParameter(t *testing.T) {
	foo := method("foo").
		Locals("a", "b").
		Params(ir.ParamShape{Lead: 1}, "opt0", "opt1").
		Label("opt0").
		PutString("x").
		SetLocal(1, 0).
		Label("opt1").
		GetLocal(1, 0).
		Leave().
		MustBuild()
	main := top("optional").
		DefineMethod("foo", foo).
		PutSelf().
		PutObject(ir.Int(1)).
		Send("foo", 1, ir.FCall, nil).
		Pop().
		PutSelf().
		PutObject(ir.Int(1)).
		PutObject(ir.Float(1.5)).
		Send("foo", 2, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	m := findMethod(t, findClass(t, res, "Object"), "foo")
	require.Len(t, m.Signatures, 1)
	sig := m.Signatures[0]
	require.Len(t, sig.Args.Opt, 1)
	assertType(t, types.FloatType, sig.Args.Opt[0])
	assertType(t, types.Join(types.StringType, types.FloatType), sig.Ret)
}

func TestInstanceVariableContainerWriteBack(t *testing.T) {
	initialize := method("initialize").
		PutObject(ir.Int(1)).
		NewArray(1).
		Dup().
		SetIVar("@a").
		Leave().
		MustBuild()
	add := method("add").
		GetIVar("@a").
		PutString("s").
		Send("<<", 1, 0, nil).
		Leave().
		MustBuild()
	body := ir.NewBuilder(ir.ClassBody, "Foo", "").
		DefineMethod("initialize", initialize).
		DefineMethod("add", add).
		PutNil().
		Leave().
		MustBuild()
	main := defineClass(top("array"), "Foo", "", body, ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("Foo").
		Send("new", 0, 0, nil).
		Send("add", 0, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, messages(res, SeverityError))
	foo := findClass(t, res, "Foo")
	require.Len(t, foo.IVars, 1)
	assert.Equal(t, "@a", foo.IVars[0].Name)
	assert.Equal(t, "Array[Integer | String]", foo.IVars[0].Type.String())
}

func TestSuper(t *testing.T) {
	fooA := method("foo").Locals("x").Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		Leave().
		MustBuild()
	fooB := method("foo").Locals("x").Params(ir.ParamShape{Lead: 1}).
		PutSelf().
		GetLocal(0, 0).
		InvokeSuper(1, 0, nil).
		Leave().
		MustBuild()
	bodyA := ir.NewBuilder(ir.ClassBody, "A", "").DefineMethod("foo", fooA).PutNil().Leave().MustBuild()
	bodyB := ir.NewBuilder(ir.ClassBody, "B", "").DefineMethod("foo", fooB).PutNil().Leave().MustBuild()

	b := defineClass(top("super"), "A", "", bodyA, ir.ClassDefinition).Pop()
	main := defineClass(b, "B", "A", bodyB, ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("B").
		Send("new", 0, 0, nil).
		PutObject(ir.Int(1)).
		Send("foo", 1, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	for _, name := range []string{"A", "B"} {
		m := findMethod(t, findClass(t, res, name), "foo")
		require.Len(t, m.Signatures, 1, name)
		assertType(t, types.IntType, m.Signatures[0].Args.Lead[0])
		assertType(t, types.IntType, m.Signatures[0].Ret)
	}
	assert.Equal(t, "A", findClass(t, res, "B").Superclass)
}

func TestSuperclassIsModule(t *testing.T) {
	b := defineClass(top("superclass"), "M", "", emptyClassBody("M"), ir.ModuleDefinition).Pop()
	main := defineClass(b, "C", "M", emptyClassBody("C"), ir.ClassDefinition).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"superclass is a module; Object is used instead"}, messages(res, SeverityWarning))
	assert.Empty(t, messages(res, SeverityError))
}

func TestConstants(t *testing.T) {
	main := top("constant").
		PutObject(ir.Int(1)).
		PutSpecialObject(ir.ConstBase).
		SetConstant("BAR").
		PutObject(ir.Int(2)).
		PutSpecialObject(ir.ConstBase).
		SetConstant("BAR").
		PutString("str").
		PutSpecialObject(ir.ConstBase).
		SetConstant("C")
	main = defineClass(main, "C", "", emptyClassBody("C"), ir.ClassDefinition)

	res := run(t, Config{}, main.Leave().MustBuild())
	assert.Equal(t, []string{"already initialized constant Object::BAR"}, messages(res, SeverityWarning))
	assert.Equal(t, []string{`the class "C" is String`}, messages(res, SeverityError))
}

func TestBlockWritesOuterLocal(t *testing.T) {
	blk := block().
		PutObject(ir.Int(1)).
		Dup().
		SetLocal(0, 1).
		Leave().
		MustBuild()
	main := top("block").
		Locals("x").
		PutNil().
		SetLocal(0, 0).
		PutObject(ir.Int(1)).
		Send("times", 0, 0, blk).
		Pop().
		PutSelf().
		GetLocal(0, 0).
		Send("p", 1, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"Integer | NilClass"}, messages(res, SeverityReveal))
	assert.Empty(t, messages(res, SeverityError))
}

func TestYieldSignature(t *testing.T) {
	each := method("each_twice").
		PutObject(ir.Int(1)).
		InvokeBlock(1, 0).
		Leave().
		MustBuild()
	blk := block().
		Locals("i").
		Params(ir.ParamShape{Lead: 1, Ambiguous: true}).
		GetLocal(0, 0).
		Send("to_s", 0, 0, nil).
		Leave().
		MustBuild()
	main := top("yield").
		DefineMethod("each_twice", each).
		PutSelf().
		Send("each_twice", 0, ir.FCall, blk).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	m := findMethod(t, findClass(t, res, "Object"), "each_twice")
	require.Len(t, m.Signatures, 1)
	sig := m.Signatures[0]
	require.NotNil(t, sig.Block)
	require.Len(t, sig.Block.Args.Lead, 1)
	assertType(t, types.IntType, sig.Block.Args.Lead[0])
	assertType(t, types.StringType, sig.Block.Ret)
	assertType(t, types.StringType, sig.Ret)
}

func TestMissingBlock(t *testing.T) {
	each := method("each_once").
		PutNil().
		InvokeBlock(1, 0).
		Leave().
		MustBuild()
	main := top("noblock").
		DefineMethod("each_once", each).
		PutSelf().
		Send("each_once", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"no block given"}, messages(res, SeverityError))
}

func TestAttrAccessor(t *testing.T) {
	body := ir.NewBuilder(ir.ClassBody, "Foo", "").
		PutSelf().
		PutObject(ir.Sym("name")).
		Send("attr_accessor", 1, ir.FCall, nil).
		Leave().
		MustBuild()
	main := defineClass(top("attr").Locals("f"), "Foo", "", body, ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("Foo").
		Send("new", 0, 0, nil).
		SetLocal(0, 0).
		GetLocal(0, 0).
		PutString("x").
		Send("name=", 1, 0, nil).
		Pop().
		GetLocal(0, 0).
		Send("name", 0, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	foo := findClass(t, res, "Foo")
	require.Len(t, foo.IVars, 1)
	assert.Equal(t, "@name", foo.IVars[0].Name)
	assertType(t, types.StringType, foo.IVars[0].Type)

	reader := findMethod(t, foo, "name")
	assert.Equal(t, "reader", reader.Attr)
	assertType(t, types.StringType, reader.Signatures[0].Ret)
	assert.Equal(t, "writer", findMethod(t, foo, "name=").Attr)
}

func TestBreak(t *testing.T) {
	blk := block().
		PutString("s").
		Throw(ir.ThrowBreak).
		MustBuild()
	main := top("break").
		Locals("r").
		PutObject(ir.Int(1)).
		Send("times", 0, 0, blk).
		SetLocal(0, 0).
		PutSelf().
		GetLocal(0, 0).
		Send("p", 1, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"String"}, messages(res, SeverityReveal))
}

func TestReturnFromBlock(t *testing.T) {
	blk := block().
		PutString("s").
		Throw(ir.ThrowReturn).
		MustBuild()
	foo := method("foo").
		PutObject(ir.Int(1)).
		Send("times", 0, 0, blk).
		Pop().
		PutObject(ir.Int(3)).
		Leave().
		MustBuild()
	main := top("return").
		DefineMethod("foo", foo).
		PutSelf().
		Send("foo", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	m := findMethod(t, findClass(t, res, "Object"), "foo")
	assertType(t, types.StringType, m.Signatures[0].Ret)
}

func TestKeywordArguments(t *testing.T) {
	kw := method("kw").
		Locals("a", "b").
		Params(ir.ParamShape{Keywords: []ir.Keyword{{Name: "a", Required: true}, {Name: "b", Default: ir.Int(1)}}}).
		GetLocal(0, 0).
		Leave().
		MustBuild()
	main := top("keywords").
		DefineMethod("kw", kw).
		PutSelf().
		PutString("x").
		SendKw("kw", 1, ir.FCall, []string{"a"}, nil).
		Pop().
		PutSelf().
		Send("kw", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"missing keyword: a"}, messages(res, SeverityError))
	m := findMethod(t, findClass(t, res, "Object"), "kw")
	require.Len(t, m.Signatures, 1)
	sig := m.Signatures[0]
	require.Len(t, sig.Args.Kw, 2)
	assert.Equal(t, "a", sig.Args.Kw[0].Name)
	assert.True(t, sig.Args.Kw[0].Required)
	assertType(t, types.StringType, sig.Args.Kw[0].Type)
	assertType(t, types.IntType, sig.Args.Kw[1].Type)
	assertType(t, types.StringType, sig.Ret)
}

func TestCallErrors(t *testing.T) {
	foo := method("foo").Locals("x").Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		Leave().
		MustBuild()
	main := top("errors").
		DefineMethod("foo", foo).
		PutObject(ir.Int(1)).
		Send("frobnicate", 0, 0, nil).
		Pop().
		PutSelf().
		Send("foo", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{
		"undefined method: Integer#frobnicate",
		"wrong number of arguments (given 0, expected 1)",
	}, messages(res, SeverityError))
}

func TestIterationLimit(t *testing.T) {
	main := top("limit").
		PutNil().
		Pop().
		PutNil().
		Leave().
		MustBuild()

	res := run(t, Config{MaxIterations: 1}, main)
	assert.True(t, res.Stats.Aborted)
	assert.Equal(t, 1, res.Stats.Iterations)
}

func TestInvariantViolation(t *testing.T) {
	main := top("broken").
		PutNil().
		PutNil().
		Leave().
		MustBuild()

	_, err := New(Config{}).Analyze(context.Background(), main)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzing broken.rb")
	assert.Contains(t, err.Error(), "internal invariant violated")
}

const libSource = `
path: /src/lib.rb
insns:
  - - definemethod
    - helper
    - name: helper
      insns:
        - [putobject, 1]
        - [leave]
  - [putnil]
  - [leave]
`

func TestRequireRelative(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/lib.yaml", []byte(libSource), 0644))

	main := ir.NewBuilder(ir.TopBody, "<main>", "/src/main.rb").
		PutSelf().
		PutString("lib").
		Send("require_relative", 1, ir.FCall, nil).
		Pop().
		PutSelf().
		PutString("missing").
		Send("require_relative", 1, ir.FCall, nil).
		Pop().
		PutSelf().
		Send("helper", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{Fs: fs}, main)
	assert.Equal(t, []string{"cannot load such file -- missing"}, messages(res, SeverityError))
	m := findMethod(t, findClass(t, res, "Object"), "helper")
	assertType(t, types.IntType, m.Signatures[0].Ret)
}

func TestOptionalRestPost(t *testing.T) {
	m := method("m").
		Locals("a", "b", "c", "r", "d").
		Params(ir.ParamShape{Lead: 1, Rest: true, Post: 1}, "o0", "o1", "o2").
		Label("o0").
		PutString("s").
		SetLocal(1, 0).
		Label("o1").
		PutString("s").
		SetLocal(2, 0).
		Label("o2").
		GetLocal(0, 0).
		GetLocal(1, 0).
		GetLocal(2, 0).
		GetLocal(3, 0).
		GetLocal(4, 0).
		NewArray(5).
		Leave().
		MustBuild()
	b := top("rest").DefineMethod("m", m)
	for n := 2; n <= 5; n++ {
		b.PutSelf()
		for i := 0; i < n; i++ {
			b.PutObject(ir.Int(int64(i)))
		}
		b.Send("m", n, ir.FCall, nil)
		if n < 5 {
			b.Pop()
		}
	}

	res := run(t, Config{}, b.Leave().MustBuild())
	assert.Empty(t, res.Diagnostics)
	sigs := findMethod(t, findClass(t, res, "Object"), "m").Signatures
	require.Len(t, sigs, 1)
	assert.Equal(t, "[Integer, Integer | String, Integer | String, Integer | NilClass, Integer]", sigs[0].Ret.String())
}

func TestDefineMethod(t *testing.T) {
	blk := block().
		Locals("x").
		Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		PutObject(ir.Int(2)).
		Send("*", 1, 0, nil).
		Leave().
		MustBuild()
	body := ir.NewBuilder(ir.ClassBody, "Foo", "").
		PutSelf().
		PutObject(ir.Sym("double")).
		Send("define_method", 1, ir.FCall, blk).
		Leave().
		MustBuild()
	main := defineClass(top("define_method"), "Foo", "", body, ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("Foo").
		Send("new", 0, 0, nil).
		PutObject(ir.Int(3)).
		Send("double", 1, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	m := findMethod(t, findClass(t, res, "Foo"), "double")
	require.Len(t, m.Signatures, 1)
	assertType(t, types.IntType, m.Signatures[0].Args.Lead[0])
	assertType(t, types.IntType, m.Signatures[0].Ret)
}

func TestAmbiguousSuperclass(t *testing.T) {
	b := defineClass(top("ambiguous"), "A", "", emptyClassBody("A"), ir.ClassDefinition).Pop()
	b = defineClass(b, "B", "", emptyClassBody("B"), ir.ClassDefinition).Pop().
		PutObject(ir.Int(1)).
		PutObject(ir.Int(2)).
		Send("<", 1, 0, nil).
		BranchUnless("b").
		PutNil().
		GetConstant("A").
		Jump("set").
		Label("b").
		PutNil().
		GetConstant("B").
		Label("set").
		PutSpecialObject(ir.ConstBase).
		SetConstant("C")
	main := defineClass(b, "D", "C", emptyClassBody("D"), ir.ClassDefinition).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Equal(t, []string{"superclass is ambiguous (A.class | B.class); Object is used instead"}, messages(res, SeverityWarning))
	assert.Empty(t, messages(res, SeverityError))
	assert.Empty(t, findClass(t, res, "D").Superclass)
}

func TestInstanceVariableTupleIndex(t *testing.T) {
	initialize := method("initialize").
		PutObject(ir.Int(1)).
		PutString("s").
		PutObject(ir.Float(1.5)).
		NewArray(3).
		SetIVar("@a").
		PutNil().
		Leave().
		MustBuild()
	set := method("set").
		GetIVar("@a").
		PutObject(ir.Int(1)).
		PutNil().
		Send("[]=", 2, 0, nil).
		Leave().
		MustBuild()
	get := method("get").
		GetIVar("@a").
		PutObject(ir.Int(1)).
		Send("[]", 1, 0, nil).
		Leave().
		MustBuild()
	body := ir.NewBuilder(ir.ClassBody, "Foo", "").
		DefineMethod("initialize", initialize).
		DefineMethod("set", set).
		DefineMethod("get", get).
		PutNil().
		Leave().
		MustBuild()
	main := defineClass(top("tuple").Locals("f"), "Foo", "", body, ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("Foo").
		Send("new", 0, 0, nil).
		SetLocal(0, 0).
		GetLocal(0, 0).
		Send("set", 0, 0, nil).
		Pop().
		GetLocal(0, 0).
		Send("get", 0, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	foo := findClass(t, res, "Foo")
	require.Len(t, foo.IVars, 1)
	assert.Equal(t, "[Integer, NilClass | String, Float]", foo.IVars[0].Type.String())
	assert.Equal(t, "NilClass | String", findMethod(t, foo, "get").Signatures[0].Ret.String())
}

func TestMixinSuperChain(t *testing.T) {
	passThrough := func() *ir.Body {
		return method("foo").Locals("x").Params(ir.ParamShape{Lead: 1}).
			PutSelf().
			GetLocal(0, 0).
			InvokeSuper(1, 0, nil).
			Leave().
			MustBuild()
	}
	fooA := method("foo").Locals("x").Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		Leave().
		MustBuild()
	classBody := func(name string, mixins ...string) *ir.Body {
		b := ir.NewBuilder(ir.ClassBody, name, "")
		for _, m := range mixins {
			b.PutSelf().PutNil().GetConstant(m).Send("include", 1, ir.FCall, nil).Pop()
		}
		fn := passThrough()
		if name == "A" {
			fn = fooA
		}
		return b.DefineMethod("foo", fn).PutNil().Leave().MustBuild()
	}

	b := defineClass(top("mixins"), "M1", "", classBody("M1"), ir.ModuleDefinition).Pop()
	b = defineClass(b, "M2", "", classBody("M2"), ir.ModuleDefinition).Pop()
	b = defineClass(b, "A", "", classBody("A"), ir.ClassDefinition).Pop()
	main := defineClass(b, "B", "A", classBody("B", "M1", "M2"), ir.ClassDefinition).
		Pop().
		PutNil().
		GetConstant("B").
		Send("new", 0, 0, nil).
		PutObject(ir.Sym("a")).
		Send("foo", 1, 0, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, []string{"M1", "M2"}, findClass(t, res, "B").Includes)
	for _, name := range []string{"B", "M2", "M1", "A"} {
		m := findMethod(t, findClass(t, res, name), "foo")
		require.Len(t, m.Signatures, 1, name)
		assert.Equal(t, ":a", m.Signatures[0].Args.Lead[0].String(), name)
		assert.Equal(t, ":a", m.Signatures[0].Ret.String(), name)
	}
}

func TestIndependentAnalyses(t *testing.T) {
	for _, name := range []string{"Foo", "Bar"} {
		b := defineClass(top("global"), name, "", emptyClassBody(name), ir.ClassDefinition).Pop()
		main := b.PutNil().
			GetConstant(name).
			Send("new", 0, 0, nil).
			SetGlobal("$g").
			PutNil().
			SetGlobal("$g").
			PutNil().
			Leave().
			MustBuild()

		res := run(t, Config{}, main)
		require.Len(t, res.Globals, 1)
		assert.Equal(t, name+" | NilClass", res.Globals[0].Type.String())
	}
}

func TestLibraryMixinsNotReported(t *testing.T) {
	greet := method("greet").PutString("hi").Leave().MustBuild()
	main := top("greet").
		DefineMethod("greet", greet).
		PutSelf().
		Send("greet", 0, ir.FCall, nil).
		Leave().
		MustBuild()

	res := run(t, Config{}, main)
	object := findClass(t, res, "Object")
	assert.Empty(t, object.Includes)
	assert.Empty(t, object.Extends)
	findMethod(t, object, "greet")
}

// widening builds a program that records id's signature and then loops
// forever, widening its local from Integer to Integer | String.
func widening() *ir.Body {
	id := method("id").Locals("x").Params(ir.ParamShape{Lead: 1}).
		GetLocal(0, 0).
		Leave().
		MustBuild()
	return top("widen").
		Locals("x").
		DefineMethod("id", id).
		PutSelf().
		PutObject(ir.Int(1)).
		Send("id", 1, ir.FCall, nil).
		SetLocal(0, 0).
		Label("loop").
		PutString("s").
		SetLocal(0, 0).
		GetLocal(0, 0).
		BranchIf("loop").
		GetLocal(0, 0).
		Leave().
		MustBuild()
}

func assertIDSignature(t *testing.T, res *Result) {
	t.Helper()
	m := findMethod(t, findClass(t, res, "Object"), "id")
	require.Len(t, m.Signatures, 1)
	assertType(t, types.IntType, m.Signatures[0].Args.Lead[0])
	assertType(t, types.IntType, m.Signatures[0].Ret)
}

func TestEnvironmentsOnlyGrow(t *testing.T) {
	s := New(Config{})
	var widened int
	s.onWiden = func(ep ExecutionPoint, prev, next *Env) {
		widened++
		assert.True(t, prev.Merge(next).Equal(next), "environment at %v shrank", ep)
	}
	res, err := s.Analyze(context.Background(), widening())
	require.NoError(t, err)
	assert.NotZero(t, widened)
	assert.False(t, res.Stats.Aborted)
	assertIDSignature(t, res)
}

func TestCancelledAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(Config{})
	s.onWiden = func(ExecutionPoint, *Env, *Env) { cancel() }
	res, err := s.Analyze(ctx, widening())
	require.NoError(t, err)
	assert.True(t, res.Stats.Aborted)
	assertIDSignature(t, res)
}

func TestTimeLimit(t *testing.T) {
	s := New(Config{MaxDuration: 50 * time.Millisecond})
	s.onWiden = func(ExecutionPoint, *Env, *Env) { time.Sleep(100 * time.Millisecond) }
	res, err := s.Analyze(context.Background(), widening())
	require.NoError(t, err)
	assert.True(t, res.Stats.Aborted)
	assertIDSignature(t, res)
}
