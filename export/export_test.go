package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func TestGolden(t *testing.T) {
	archives, err := filepath.Glob("testdata/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, archives)
	for _, path := range archives {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			require.NoError(t, err)

			fs := afero.NewMemMapFs()
			var expected string
			for _, f := range ar.Files {
				if f.Name == "expected" {
					expected = string(f.Data)
					continue
				}
				require.NoError(t, afero.WriteFile(fs, "/"+f.Name, f.Data, 0644))
			}

			main, err := ir.Load(fs, "/program.yaml")
			require.NoError(t, err)
			res, err := analyzer.New(analyzer.Config{Fs: fs}).Analyze(context.Background(), main)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, res, Options{ShowErrors: true}))
			if diff := cmp.Diff(expected, buf.String()); diff != "" {
				t.Errorf("report mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	intOrStr := types.Join(types.IntType, types.StringType)
	tests := []struct {
		name string
		sig  analyzer.SignatureSummary
		want string
	}{
		{
			"no arguments",
			analyzer.SignatureSummary{Args: &analyzer.FormalArguments{}, Ret: types.NilType},
			"() -> NilClass",
		},
		{
			"unknown arguments",
			analyzer.SignatureSummary{Ret: types.StringType},
			"() -> String",
		},
		{
			"never returns",
			analyzer.SignatureSummary{Args: &analyzer.FormalArguments{Lead: []types.Type{types.Bot}}, Ret: types.Bot},
			"(untyped) -> bot",
		},
		{
			"every parameter kind",
			analyzer.SignatureSummary{
				Args: &analyzer.FormalArguments{
					Lead: []types.Type{types.IntType},
					Opt:  []types.Type{intOrStr},
					Rest: types.FloatType,
					Post: []types.Type{types.StringType},
					Kw: []analyzer.KeywordFormal{
						{Name: "a", Required: true, Type: types.IntType},
						{Name: "b", Type: types.SymbolType},
					},
					KwRest: types.Any,
				},
				Ret: intOrStr,
			},
			"(Integer, ?(Integer | String), *Float, String, a: Integer, ?b: Symbol, **untyped) -> (Integer | String)",
		},
		{
			"block without arguments",
			analyzer.SignatureSummary{
				Args:  &analyzer.FormalArguments{},
				Block: &analyzer.BlockSummary{Args: &analyzer.FormalArguments{}, Ret: types.Any},
				Ret:   types.BoolType,
			},
			"() { () -> untyped } -> bool",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(tt.sig))
		})
	}
}

func TestOverloadAlignment(t *testing.T) {
	sig := func(arg types.Type) analyzer.SignatureSummary {
		return analyzer.SignatureSummary{
			Args: &analyzer.FormalArguments{Lead: []types.Type{arg}},
			Ret:  arg,
		}
	}
	res := &analyzer.Result{
		Classes: []analyzer.ClassSummary{{
			Name: "Foo",
			Methods: []analyzer.MethodSummary{{
				Name:       "id",
				Signatures: []analyzer.SignatureSummary{sig(types.StringType), sig(types.IntType), sig(types.StringType)},
			}, {
				Name:       "make",
				Singleton:  true,
				Signatures: []analyzer.SignatureSummary{sig(types.IntType)},
			}},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, Options{}))
	assert.Equal(t, `# Classes
class Foo
  def id : (Integer) -> Integer
         | (String) -> String
  def self.make : (Integer) -> Integer
end
`, buf.String())
}

func TestBuiltinsHidden(t *testing.T) {
	res := &analyzer.Result{
		Classes: []analyzer.ClassSummary{{
			Name:    "String",
			Builtin: true,
			Methods: []analyzer.MethodSummary{{
				Name:       "shout",
				Signatures: []analyzer.SignatureSummary{{Args: &analyzer.FormalArguments{}, Ret: types.StringType}},
			}},
		}},
		Diagnostics: []analyzer.Diagnostic{{Severity: analyzer.SeverityWarning, Message: "hidden"}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, Options{}))
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, res, Options{Builtins: true}))
	assert.Equal(t, "# Classes\nclass String\n  def shout : () -> String\nend\n", buf.String())
}

func TestWriteBuiltins(t *testing.T) {
	reg := analyzer.New(analyzer.Config{}).Registry

	var buf bytes.Buffer
	require.NoError(t, WriteBuiltins(&buf, reg, "Comparable"))
	assert.Equal(t, `module Comparable
  def < : (untyped) -> bool
  def <= : (untyped) -> bool
  def > : (untyped) -> bool
  def >= : (untyped) -> bool
  def == : (untyped) -> bool
  def between? : (untyped, untyped) -> bool
end
`, buf.String())

	assert.Error(t, WriteBuiltins(&buf, reg, "Nope"))
}
