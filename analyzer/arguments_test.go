package analyzer

import (
	"fmt"
	"testing"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindMethodArguments(t *testing.T) {
	tests := []struct {
		name     string
		shape    ir.ParamShape
		args     *ActualArguments
		slots    []types.Type
		startPCs []int
		err      string
	}{
		{
			name:     "lead",
			shape:    ir.ParamShape{Lead: 2},
			args:     &ActualArguments{Lead: []types.Type{types.IntType, types.StringType}},
			slots:    []types.Type{types.IntType, types.StringType},
			startPCs: []int{0},
		},
		{
			name:  "too few",
			shape: ir.ParamShape{Lead: 1},
			args:  &ActualArguments{},
			err:   "wrong number of arguments (given 0, expected 1)",
		},
		{
			name:  "too many with optional",
			shape: ir.ParamShape{Lead: 1, Opt: []int{2, 5}},
			args:  &ActualArguments{Lead: []types.Type{types.IntType, types.IntType, types.IntType}},
			err:   "wrong number of arguments (given 3, expected 1..2)",
		},
		{
			name:  "too few with rest",
			shape: ir.ParamShape{Lead: 2, Rest: true},
			args:  &ActualArguments{Lead: []types.Type{types.IntType}},
			err:   "wrong number of arguments (given 1, expected 2+)",
		},
		{
			name:     "optional omitted",
			shape:    ir.ParamShape{Lead: 1, Opt: []int{2, 5}},
			args:     &ActualArguments{Lead: []types.Type{types.IntType}},
			slots:    []types.Type{types.IntType, types.NilType},
			startPCs: []int{2},
		},
		{
			name:     "optional supplied",
			shape:    ir.ParamShape{Lead: 1, Opt: []int{2, 5}},
			args:     &ActualArguments{Lead: []types.Type{types.IntType, types.StringType}},
			slots:    []types.Type{types.IntType, types.StringType},
			startPCs: []int{2, 5},
		},
		{
			name:     "empty rest",
			shape:    ir.ParamShape{Lead: 1, Rest: true},
			args:     &ActualArguments{Lead: []types.Type{types.IntType}},
			slots:    []types.Type{types.IntType, types.NilType},
			startPCs: []int{0},
		},
		{
			name:     "rest and post",
			shape:    ir.ParamShape{Lead: 1, Rest: true, Post: 1},
			args:     &ActualArguments{Lead: []types.Type{types.IntType, types.StringType, types.SymbolType, types.FloatType}},
			slots:    []types.Type{types.IntType, types.Join(types.StringType, types.SymbolType), types.FloatType},
			startPCs: []int{0},
		},
		{
			name:     "splat fills lead",
			shape:    ir.ParamShape{Lead: 2},
			args:     &ActualArguments{Lead: []types.Type{types.IntType}, Rest: types.StringType},
			slots:    []types.Type{types.IntType, types.StringType},
			startPCs: []int{0},
		},
		{
			name:  "splat cannot fit",
			shape: ir.ParamShape{Lead: 1},
			args:  &ActualArguments{Lead: []types.Type{types.IntType, types.IntType}, Rest: types.StringType},
			err:   "wrong number of arguments (given 2, expected 1)",
		},
		{
			name:     "keywords become a positional hash",
			shape:    ir.ParamShape{Lead: 1},
			args:     &ActualArguments{Kw: &KeywordArgs{Names: []string{"a"}, Types: []types.Type{types.IntType}}},
			slots:    []types.Type{types.NewHash(types.HashElemsOf(types.SymbolLiteral("a"), types.IntType), nil)},
			startPCs: []int{0},
		},
		{
			name:  "missing keyword",
			shape: ir.ParamShape{Keywords: []ir.Keyword{{Name: "a", Required: true}, {Name: "b", Required: true}}},
			args:  &ActualArguments{Kw: &KeywordArgs{Names: []string{"b"}, Types: []types.Type{types.IntType}}},
			err:   "missing keyword: a",
		},
		{
			name:  "unknown keyword",
			shape: ir.ParamShape{Keywords: []ir.Keyword{{Name: "a"}}},
			args:  &ActualArguments{Kw: &KeywordArgs{Names: []string{"a", "c"}, Types: []types.Type{types.IntType, types.IntType}}},
			err:   "unknown keyword: c",
		},
		{
			name:     "keyword rest",
			shape:    ir.ParamShape{Keywords: []ir.Keyword{{Name: "a"}}, KwRest: true},
			args:     &ActualArguments{Kw: &KeywordArgs{Names: []string{"a", "c"}, Types: []types.Type{types.IntType, types.StringType}}},
			slots:    []types.Type{types.IntType, types.NewHash(types.HashElemsOf(types.SymbolLiteral("c"), types.StringType), nil)},
			startPCs: []int{0},
		},
		{
			name:     "block parameter",
			shape:    ir.ParamShape{Block: true},
			args:     &ActualArguments{},
			slots:    []types.Type{types.NilType},
			startPCs: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BindMethodArguments(tt.shape, tt.args)
			if tt.err != "" {
				require.Error(t, err)
				assert.Equal(t, tt.err, err.Error())
				return
			}
			require.NoError(t, err)
			require.Len(t, b.Slots, len(tt.slots))
			for i := range tt.slots {
				assert.True(t, types.Equal(tt.slots[i], b.Slots[i]), "slot %d: expected %s, got %s", i, tt.slots[i], b.Slots[i])
			}
			assert.Equal(t, tt.startPCs, b.StartPCs)
		})
	}
}

func TestBindMethodArgumentsFormals(t *testing.T) {
	shape := ir.ParamShape{Lead: 1, Opt: []int{2, 5}, Rest: true}
	b, err := BindMethodArguments(shape, &ActualArguments{Lead: []types.Type{types.IntType}})
	require.NoError(t, err)

	assert.Len(t, b.Formals.Opt, 1)
	assert.True(t, types.IsBot(b.Formals.Opt[0]), "unsupplied optional should be bot, got %s", b.Formals.Opt[0])
	assert.True(t, types.IsBot(b.Formals.Rest), "empty rest should be bot, got %s", b.Formals.Rest)
	assert.True(t, types.Equal(types.NilType, b.Formals.Blk))
}

func TestKeywordDefault(t *testing.T) {
	shape := ir.ParamShape{Keywords: []ir.Keyword{{Name: "n", Default: ir.Int(1)}}}
	b, err := BindMethodArguments(shape, &ActualArguments{})
	require.NoError(t, err)
	assert.True(t, types.Equal(types.IntType, types.BaseOf(b.Slots[0])), "got %s", b.Slots[0])
}

func TestBindBlockArguments(t *testing.T) {
	pair := types.NewArray(types.TupleElems(types.IntType, types.StringType), nil)
	tests := []struct {
		name  string
		shape ir.ParamShape
		args  *ActualArguments
		slots []types.Type
	}{
		{
			name:  "missing arguments are nil",
			shape: ir.ParamShape{Lead: 2},
			args:  &ActualArguments{Lead: []types.Type{types.IntType}},
			slots: []types.Type{types.IntType, types.NilType},
		},
		{
			name:  "extra arguments are dropped",
			shape: ir.ParamShape{Lead: 1},
			args:  &ActualArguments{Lead: []types.Type{types.IntType, types.StringType}},
			slots: []types.Type{types.IntType},
		},
		{
			name:  "array is spread",
			shape: ir.ParamShape{Lead: 2},
			args:  &ActualArguments{Lead: []types.Type{pair}},
			slots: []types.Type{types.IntType, types.StringType},
		},
		{
			name:  "single unadorned parameter keeps the array",
			shape: ir.ParamShape{Lead: 1, Ambiguous: true},
			args:  &ActualArguments{Lead: []types.Type{pair}},
			slots: []types.Type{pair},
		},
		{
			name:  "splat joins into rest",
			shape: ir.ParamShape{Rest: true},
			args:  &ActualArguments{Lead: []types.Type{types.IntType}, Rest: types.StringType},
			slots: []types.Type{types.Join(types.IntType, types.StringType)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BindBlockArguments(tt.shape, tt.args)
			require.Len(t, b.Slots, len(tt.slots))
			for i := range tt.slots {
				assert.True(t, types.Equal(tt.slots[i], b.Slots[i]), "slot %d: expected %s, got %s", i, tt.slots[i], b.Slots[i])
			}
		})
	}
}

// Every shape accepts exactly the argument counts between its arities,
// and a successful binding fills every slot.
func TestBindArityProperty(t *testing.T) {
	var shapes []ir.ParamShape
	for lead := 0; lead <= 2; lead++ {
		for opt := 0; opt <= 2; opt++ {
			for _, rest := range []bool{false, true} {
				for post := 0; post <= 1; post++ {
					p := ir.ParamShape{Lead: lead, Rest: rest, Post: post}
					if opt > 0 {
						for i := 0; i <= opt; i++ {
							p.Opt = append(p.Opt, i*3)
						}
					}
					shapes = append(shapes, p)
				}
			}
		}
	}

	for _, p := range shapes {
		for n := 0; n <= 7; n++ {
			args := &ActualArguments{}
			for i := 0; i < n; i++ {
				args.Lead = append(args.Lead, types.IntType)
			}
			b, err := BindMethodArguments(p, args)
			fits := n >= p.MinArity() && (p.MaxArity() < 0 || n <= p.MaxArity())
			desc := fmt.Sprintf("%+v with %d arguments", p, n)
			if !fits {
				assert.Error(t, err, desc)
				continue
			}
			if !assert.NoError(t, err, desc) {
				continue
			}
			assert.Len(t, b.Slots, p.Size(), desc)
			for i, slot := range b.Slots {
				assert.False(t, types.IsBot(slot), "%s: slot %d unset", desc, i)
			}
			assert.NotEmpty(t, b.StartPCs, desc)
		}
	}
}
