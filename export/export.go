// Package export renders an analysis result as a signature report.
package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/redneckbeard/rbprof/analyzer"
	"github.com/redneckbeard/rbprof/types"
)

type Options struct {
	// ShowErrors includes errors and warnings in the report.
	ShowErrors bool
	// Builtins includes builtin classes that gained user methods or
	// variables. Object is always included.
	Builtins bool
}

// Write renders res to w. Sections without entries are left out.
func Write(w io.Writer, res *analyzer.Result, opts Options) error {
	p := &printer{w: bufio.NewWriter(w)}

	var errs, reveals []analyzer.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Severity == analyzer.SeverityReveal {
			reveals = append(reveals, d)
		} else if opts.ShowErrors {
			errs = append(errs, d)
		}
	}
	if len(errs) > 0 {
		p.section("Errors")
		for _, d := range errs {
			p.linef("#  %s #=> [%s] %s", d.Location(), d.Severity, d.Message)
		}
	}
	if len(reveals) > 0 {
		p.section("Revealed types")
		for _, d := range reveals {
			p.linef("#  %s #=> %s", d.Location(), d.Message)
		}
	}
	if len(res.Globals) > 0 {
		p.section("Global variables")
		for _, g := range res.Globals {
			p.linef("%s : %s", g.Name, retString(g.Type))
		}
	}

	var classes []analyzer.ClassSummary
	for _, c := range res.Classes {
		if c.Builtin && !opts.Builtins && c.Name != "Object" {
			continue
		}
		classes = append(classes, c)
	}
	if len(classes) > 0 {
		p.section("Classes")
		for i, c := range classes {
			if i > 0 {
				p.linef("")
			}
			p.class(c)
		}
	}
	return errors.Wrap(p.w.Flush(), "writing report")
}

type printer struct {
	w       *bufio.Writer
	started bool
}

func (p *printer) section(title string) {
	if p.started {
		p.linef("")
	}
	p.started = true
	p.linef("# %s", title)
}

func (p *printer) linef(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
	p.w.WriteByte('\n')
}

func (p *printer) class(c analyzer.ClassSummary) {
	header := "class " + c.Name
	if c.Module {
		header = "module " + c.Name
	} else if c.Superclass != "" {
		header += " < " + c.Superclass
	}
	p.linef("%s", header)
	for _, m := range c.Includes {
		p.linef("  include %s", m)
	}
	for _, m := range c.Extends {
		p.linef("  extend %s", m)
	}

	attrs, methods := splitAttrs(c.Methods)
	for _, v := range c.IVars {
		if v.Singleton {
			p.linef("  self.%s : %s", v.Name, retString(v.Type))
		} else if _, ok := attrs[strings.TrimPrefix(v.Name, "@")]; !ok {
			p.linef("  %s : %s", v.Name, retString(v.Type))
		}
	}
	for _, v := range c.CVars {
		p.linef("  %s : %s", v.Name, retString(v.Type))
	}
	for _, name := range sortedKeys(attrs) {
		a := attrs[name]
		p.linef("  attr_%s %s : %s", a.kind(), name, retString(a.typ))
	}
	for _, m := range methods {
		p.method(m)
	}
	p.linef("end")
}

func (p *printer) method(m analyzer.MethodSummary) {
	prefix := "  def "
	if m.Singleton {
		prefix += "self."
	}
	prefix += m.Name + " : "
	sigs := Signatures(m)
	indent := strings.Repeat(" ", runewidth.StringWidth(prefix)-2)
	for i, sig := range sigs {
		if i == 0 {
			p.linef("%s%s", prefix, sig)
		} else {
			p.linef("%s| %s", indent, sig)
		}
	}
}

// Signatures renders the overloads of m, sorted and without duplicates.
func Signatures(m analyzer.MethodSummary) []string {
	seen := map[string]bool{}
	var out []string
	for _, sig := range m.Signatures {
		s := Signature(sig)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Signature renders one overload as `(args) { (blkargs) -> blkret } -> ret`.
func Signature(sig analyzer.SignatureSummary) string {
	parts := []string{formals(sig.Args)}
	if sig.Block != nil {
		parts = append(parts, "{ "+formals(sig.Block.Args)+" -> "+retString(sig.Block.Ret)+" }")
	}
	parts = append(parts, "-> "+retString(sig.Ret))
	return strings.Join(parts, " ")
}

func formals(f *analyzer.FormalArguments) string {
	if f == nil {
		return "()"
	}
	var args []string
	for _, t := range f.Lead {
		args = append(args, argString(t))
	}
	for _, t := range f.Opt {
		args = append(args, "?"+paren(argString(t), t))
	}
	if f.Rest != nil {
		args = append(args, "*"+paren(argString(f.Rest), f.Rest))
	}
	for _, t := range f.Post {
		args = append(args, argString(t))
	}
	for _, kw := range f.Kw {
		name := kw.Name
		if !kw.Required {
			name = "?" + name
		}
		args = append(args, name+": "+argString(kw.Type))
	}
	if f.KwRest != nil {
		args = append(args, "**"+paren(argString(f.KwRest), f.KwRest))
	}
	return "(" + strings.Join(args, ", ") + ")"
}

// argString renders a parameter type. Parameters nothing flowed into are
// untyped.
func argString(t types.Type) string {
	if t == nil || types.IsBot(t) {
		return "untyped"
	}
	return t.String()
}

// retString renders a result type, parenthesizing unions. A method that
// never returns has bot.
func retString(t types.Type) string {
	if t == nil {
		return "bot"
	}
	return paren(t.String(), t)
}

func paren(s string, t types.Type) string {
	if _, ok := t.(types.Union); ok && strings.Contains(s, " | ") {
		return "(" + s + ")"
	}
	return s
}

type attr struct {
	reader, writer bool
	typ            types.Type
}

func (a attr) kind() string {
	switch {
	case a.reader && a.writer:
		return "accessor"
	case a.writer:
		return "writer"
	}
	return "reader"
}

// splitAttrs folds synthesized accessors into attr entries keyed by
// attribute name and returns the remaining methods.
func splitAttrs(ms []analyzer.MethodSummary) (map[string]attr, []analyzer.MethodSummary) {
	attrs := map[string]attr{}
	var rest []analyzer.MethodSummary
	for _, m := range ms {
		if m.Attr == "" || m.Singleton {
			rest = append(rest, m)
			continue
		}
		name := strings.TrimSuffix(m.Name, "=")
		a := attrs[name]
		if a.typ == nil {
			a.typ = types.Bot
		}
		for _, sig := range m.Signatures {
			if m.Attr == "writer" {
				a.writer = true
				if len(sig.Args.Lead) > 0 && sig.Args.Lead[0] != nil {
					a.typ = types.Join(a.typ, sig.Args.Lead[0])
				}
			} else {
				a.reader = true
				a.typ = types.Join(a.typ, sig.Ret)
			}
		}
		attrs[name] = a
	}
	return attrs, rest
}

func sortedKeys(m map[string]attr) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
