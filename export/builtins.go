package export

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/types"
)

// WriteBuiltins lists the library classes known to reg with the methods
// each defines directly. A non-empty only restricts the listing to that
// class.
func WriteBuiltins(w io.Writer, reg *analyzer.Registry, only string) error {
	p := &printer{w: bufio.NewWriter(w)}
	found := false
	for _, d := range reg.Classes() {
		if !d.Builtin || (only != "" && d.Class.Name != only) {
			continue
		}
		if found {
			p.linef("")
		}
		found = true
		header := "class " + d.Class.Name
		if d.Class.Module {
			header = "module " + d.Class.Name
		} else if super, ok := reg.Superclass(d.Class); ok {
			header += " < " + super.Name
		}
		p.linef("%s", header)
		for _, id := range d.Includes {
			p.linef("  include %s", reg.Classes()[id].Class.Name)
		}
		for _, singleton := range []bool{false, true} {
			for _, mid := range d.MethodNames(singleton) {
				p.method(builtinSummary(mid, singleton, d.Methods(singleton, mid)))
			}
		}
		p.linef("end")
	}
	if only != "" && !found {
		return errors.Errorf("no builtin class named %s", only)
	}
	return errors.Wrap(p.w.Flush(), "writing builtins")
}

// builtinSummary presents the signatures of typed definitions. Native
// definitions compute their type per call and show as untyped.
func builtinSummary(mid string, singleton bool, defs []*analyzer.MethodDef) analyzer.MethodSummary {
	m := analyzer.MethodSummary{Name: mid, Singleton: singleton}
	for _, d := range defs {
		if d.Kind != analyzer.TypedMethod {
			m.Signatures = append(m.Signatures, analyzer.SignatureSummary{
				Args: &analyzer.FormalArguments{Rest: types.Any},
				Ret:  types.Any,
			})
			continue
		}
		for _, s := range d.Sigs {
			sum := analyzer.SignatureSummary{
				Args: &analyzer.FormalArguments{Lead: s.Args, Opt: s.Opt, Rest: s.Rest},
				Ret:  s.Ret,
			}
			if s.Block != nil {
				sum.Block = &analyzer.BlockSummary{
					Args: &analyzer.FormalArguments{Lead: s.Block.Args},
					Ret:  s.Block.Ret,
				}
			}
			m.Signatures = append(m.Signatures, sum)
		}
	}
	return m
}
