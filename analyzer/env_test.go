package analyzer

import (
	"testing"

	"github.com/redneckbeard/rbprof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvStack(t *testing.T) {
	env := NewEnv(types.ObjectType, types.NilType, nilLocals(1))
	env = env.Push(types.IntType, types.StringType, types.SymbolType)

	assert.True(t, types.Equal(types.SymbolType, env.Top(0)))
	assert.True(t, types.Equal(types.IntType, env.Top(2)))

	popped, vals := env.Pop(2)
	require.Len(t, vals, 2)
	assert.True(t, types.Equal(types.StringType, vals[0]), "values should come back bottom first")
	assert.True(t, types.Equal(types.SymbolType, vals[1]))
	assert.Len(t, popped.Stack, 1)
	assert.Len(t, env.Stack, 3, "popping must not disturb the original")

	// Pushing onto a popped env must not clobber the original's slots.
	popped.Push(types.FloatType)
	assert.True(t, types.Equal(types.StringType, env.Top(1)))
}

func TestEnvRejectsGlobalContainers(t *testing.T) {
	env := NewEnv(types.ObjectType, types.NilType, nil)
	assert.Panics(t, func() { env.Push(types.NewArray(types.TupleElems(types.IntType), nil)) })
	assert.Panics(t, func() { env.Push(types.NewHash(types.HashElems{}, nil)) })
	assert.Panics(t, func() { env.Push(types.Bot) })
	assert.Panics(t, func() { env.Pop(1) })
	assert.Panics(t, func() { env.Local(3) })
}

func TestEnvMerge(t *testing.T) {
	a := NewEnv(types.ObjectType, types.NilType, nilLocals(2)).SetLocal(0, types.IntType)
	b := NewEnv(types.ObjectType, types.NilType, nilLocals(2)).SetLocal(0, types.StringType)

	merged := a.Merge(b)
	assert.True(t, types.Equal(types.Join(types.IntType, types.StringType), merged.Local(0)))
	assert.True(t, types.Equal(types.NilType, merged.Local(1)))
	assert.False(t, merged.Equal(a))
	assert.True(t, merged.Merge(a).Equal(merged), "merging again should change nothing")

	assert.Panics(t, func() { a.Merge(NewEnv(types.ObjectType, types.NilType, nilLocals(3))) })
	assert.Panics(t, func() { a.Merge(a.Push(types.IntType)) })
}

func TestEnvMergeContainers(t *testing.T) {
	site := types.AllocSite("1:0:0")
	a := NewEnv(types.ObjectType, types.NilType, nil).Deploy(site, types.TupleElems(types.IntType))
	b := NewEnv(types.ObjectType, types.NilType, nil).Deploy(site, types.TupleElems(types.StringType))

	elems, ok := a.Merge(b).Container(site)
	require.True(t, ok)
	got := types.Globalize(types.LocalArray{Site: site, Base: types.ArrayType}, a.Merge(b))
	assert.Equal(t, "[Integer | String]", got.String(), "elements %s", elems)
}

func TestEnvEqualIgnoresIdentity(t *testing.T) {
	a := NewEnv(types.ObjectType, types.NilType, nilLocals(1)).Push(types.IntType)
	b := NewEnv(types.ObjectType, types.NilType, nilLocals(1)).Push(types.IntType)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.False(t, a.Equal(b.SetLocal(0, types.IntType)))
}
