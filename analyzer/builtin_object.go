package analyzer

import (
	"path/filepath"

	"github.com/redneckbeard/rbprof/ir"
	"github.com/redneckbeard/rbprof/types"
	"github.com/spf13/afero"
)

func init() {
	builtins = append(builtins, func(r *Registry) {
		r.AddTypedMethod(types.ObjectClass, "initialize", sig(types.NilType))
		r.AddTypedMethod(types.ObjectClass, "==", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ObjectClass, "!=", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ObjectClass, "!", sig(types.BoolType))
		r.AddTypedMethod(types.ObjectClass, "nil?", sig(types.BoolType))
		r.AddTypedMethod(types.ObjectClass, "is_a?", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ObjectClass, "kind_of?", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ObjectClass, "respond_to?", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.ObjectClass, "to_s", sig(types.StringType))
		r.AddTypedMethod(types.ObjectClass, "inspect", sig(types.StringType))
		r.AddTypedMethod(types.ObjectClass, "hash", sig(types.IntType))
		r.AddTypedMethod(types.ObjectClass, "object_id", sig(types.IntType))
		r.AddNativeMethod(types.ObjectClass, "class", objectClass)
		r.AddNativeMethod(types.ObjectClass, "freeze", objectSelf)
		r.AddNativeMethod(types.ObjectClass, "dup", objectSelf)
		r.AddNativeMethod(types.ObjectClass, "itself", objectSelf)

		r.AddNativeMethod(types.KernelModule, "p", kernelP)
		r.AddTypedMethod(types.KernelModule, "puts", sigRest(types.NilType, types.Any))
		r.AddTypedMethod(types.KernelModule, "print", sigRest(types.NilType, types.Any))
		r.AddTypedMethod(types.KernelModule, "format", sigRest(types.StringType, types.Any, types.StringType))
		r.AddTypedMethod(types.KernelModule, "sprintf", sigRest(types.StringType, types.Any, types.StringType))
		r.AddTypedMethod(types.KernelModule, "rand",
			sig(types.FloatType),
			sig(types.IntType, types.IntType),
			sig(types.FloatType, types.FloatType))
		r.AddTypedMethod(types.KernelModule, "Integer",
			sig(types.IntType, types.Join(types.IntType, types.FloatType)),
			sig(types.IntType, types.StringType))
		r.AddTypedMethod(types.KernelModule, "Float", sig(types.FloatType, types.Any))
		r.AddTypedMethod(types.KernelModule, "String", sig(types.StringType, types.Any))
		r.AddTypedMethod(types.KernelModule, "block_given?", sig(types.BoolType))
		r.AddTypedMethod(types.KernelModule, "require", sig(types.BoolType, types.StringType))
		r.AddNativeMethod(types.KernelModule, "require_relative", kernelRequireRelative)
		r.AddNativeMethod(types.KernelModule, "lambda", kernelLambda)
		r.AddNativeMethod(types.KernelModule, "proc", kernelLambda)
		r.AddNativeMethod(types.KernelModule, "loop", kernelLoop)
		r.AddNativeMethod(types.KernelModule, "raise", func(*Scratch, *Call) {})

		r.AddTypedMethod(types.NilClass, "to_s", sig(types.StringType))
		r.AddTypedMethod(types.NilClass, "to_a", sig(types.NewArray(types.TupleElems(), nil)))
		r.AddTypedMethod(types.NilClass, "nil?", sig(types.BoolLiteral(true)))
		r.AddTypedMethod(types.TrueClass, "&", sig(types.BoolType, types.Any))
		r.AddTypedMethod(types.TrueClass, "|", sig(types.BoolLiteral(true), types.Any))
		r.AddTypedMethod(types.FalseClass, "&", sig(types.BoolLiteral(false), types.Any))
		r.AddTypedMethod(types.FalseClass, "|", sig(types.BoolType, types.Any))

		r.AddNativeMethod(types.ClassClass, "new", classNew)
		r.AddNativeMethod(types.ClassClass, "superclass", classSuperclass)
		r.AddTypedMethod(types.ModuleClass, "name", sig(types.Join(types.StringType, types.NilType)))
		r.AddNativeMethod(types.ModuleClass, "attr_reader", moduleAttr(true, false))
		r.AddNativeMethod(types.ModuleClass, "attr_writer", moduleAttr(false, true))
		r.AddNativeMethod(types.ModuleClass, "attr_accessor", moduleAttr(true, true))
		r.AddNativeMethod(types.ModuleClass, "include", moduleMixin(false))
		r.AddNativeMethod(types.ModuleClass, "extend", moduleMixin(true))
		r.AddNativeMethod(types.ModuleClass, "alias_method", moduleAliasMethod)
		r.AddNativeMethod(types.ModuleClass, "define_method", moduleDefineMethod)
		for _, mid := range []string{"private", "public", "protected", "module_function"} {
			r.AddTypedMethod(types.ModuleClass, mid, sigRest(types.NilType, types.Any))
		}

		r.AddNativeMethod(types.VMCoreClass, "core#set_method_alias", vmcoreSetMethodAlias)
		r.AddNativeMethod(types.VMCoreClass, "lambda", kernelLambda)

		exc := r.DefineBuiltinClass("Exception", types.ObjectClass, false)
		r.AddTypedMethod(exc, "initialize", sig(types.NilType), sig(types.NilType, types.Any))
		r.AddTypedMethod(exc, "message", sig(types.StringType))
		r.AddTypedMethod(exc, "backtrace", sig(types.Join(types.NewArray(types.SeqElems(types.StringType), nil), types.NilType)))
		std := r.DefineBuiltinClass("StandardError", exc, false)
		for _, name := range []string{"RuntimeError", "ArgumentError", "TypeError", "NameError", "KeyError", "IndexError"} {
			r.DefineBuiltinClass(name, std, false)
		}

		cmp := r.DefineBuiltinClass("Comparable", types.ObjectClass, true)
		for _, op := range []string{"<", "<=", ">", ">=", "=="} {
			r.AddTypedMethod(cmp, op, sig(types.BoolType, types.Any))
		}
		r.AddTypedMethod(cmp, "between?", sig(types.BoolType, types.Any, types.Any))
		r.Include(types.StringClass, cmp)
	})
}

func objectSelf(s *Scratch, c *Call) {
	c.ret(c.Recv)
}

func objectClass(s *Scratch, c *Call) {
	switch t := types.BaseOf(c.Recv).(type) {
	case types.Instance:
		c.ret(t.Class)
	case types.ClassObject:
		if t.Module {
			c.ret(types.ModuleClass)
		} else {
			c.ret(types.ClassClass)
		}
	default:
		c.ret(types.Any)
	}
}

// kernelP reveals the globalized type of its argument.
func kernelP(s *Scratch, c *Call) {
	switch len(c.Args.Lead) {
	case 0:
		c.ret(types.NilType)
	case 1:
		s.reveal(c.EP, c.global(s, c.arg(0)).String())
		c.ret(c.arg(0))
	default:
		elems := make([]types.Type, len(c.Args.Lead))
		for i, t := range c.Args.Lead {
			elems[i] = c.global(s, t)
		}
		ary := types.NewArray(types.TupleElems(elems...), nil)
		s.reveal(c.EP, ary.String())
		c.ret(ary)
	}
}

func kernelLambda(s *Scratch, c *Call) {
	if isProc(c.Args.Blk) {
		c.ret(c.Args.Blk)
		return
	}
	s.errorf(c.EP, "tried to create Proc object without a block")
	c.ret(types.Any)
}

// kernelLoop runs its block and never returns normally: control only
// leaves through break.
func kernelLoop(s *Scratch, c *Call) {
	s.invokeBlock(c.Args.Blk, &ActualArguments{Blk: types.NilType}, c.EP, c.Env, false, func(types.Type, ExecutionPoint, *Env) {})
}

func kernelRequireRelative(s *Scratch, c *Call) {
	name, ok := types.StringValue(c.arg(0))
	if !ok || c.EP.Ctx.Body == nil {
		s.warnf(c.EP, "require_relative of a non-literal path is ignored")
		c.ret(types.BoolType)
		return
	}
	base := filepath.Join(filepath.Dir(c.EP.Ctx.Body.Path), name)
	var path string
	for _, candidate := range []string{base + ".yaml", base + ".yml", base} {
		if exists, _ := afero.Exists(s.cfg.Fs, candidate); exists {
			path = candidate
			break
		}
	}
	if path == "" {
		s.errorf(c.EP, "cannot load such file -- %s", name)
		c.ret(types.Any)
		return
	}
	if s.required[path] {
		c.ret(types.BoolLiteral(false))
		return
	}
	s.required[path] = true
	body, err := ir.Load(s.cfg.Fs, path)
	if err != nil {
		s.errorf(c.EP, "%s", err)
		c.ret(types.Any)
		return
	}
	s.startMain(body, c.EP, c.Env, func(_ types.Type, ep ExecutionPoint, env *Env) {
		s.resume(types.BoolLiteral(true), ep, env)
	})
}

// classNew allocates an instance and runs initialize on it. The call
// returns the instance once initialize returns.
func classNew(s *Scratch, c *Call) {
	klass, ok := c.Recv.(types.ClassObject)
	if !ok || klass.Module {
		c.ret(types.Any)
		return
	}
	inst := types.InstanceOf(klass)
	defs := s.Registry.ResolveMethod(inst, "initialize")
	ctn := func(_ types.Type, ep ExecutionPoint, env *Env) {
		c.Ctn(inst, ep, env)
	}
	for _, m := range defs {
		s.send(m, &Call{Recv: inst, MID: "initialize", Args: c.Args, EP: c.EP, Env: c.Env, Ctn: ctn})
	}
}

func classSuperclass(s *Scratch, c *Call) {
	klass, ok := c.Recv.(types.ClassObject)
	if !ok {
		c.ret(types.Any)
		return
	}
	if super, ok := s.Registry.Superclass(klass); ok {
		c.ret(super)
		return
	}
	c.ret(types.NilType)
}

func moduleAttr(reader, writer bool) NativeFunc {
	return func(s *Scratch, c *Call) {
		klass, ok := c.Recv.(types.ClassObject)
		if !ok {
			c.ret(types.Any)
			return
		}
		cref := c.EP.Ctx.CRef
		if k, ok := cref.Class(); !ok || k.ID != klass.ID {
			cref = s.cref(cref, klass)
		}
		for _, a := range c.Args.Lead {
			name, ok := types.SymbolName(a)
			if !ok {
				if name, ok = types.StringValue(a); !ok {
					s.warnf(c.EP, "attribute name is not a literal")
					continue
				}
			}
			if reader {
				m := newISeqMethod(s.accessorBody(c.EP, klass, name, false), cref, false)
				m.Attr = "reader"
				s.Registry.AddMethod(klass, false, name, m)
			}
			if writer {
				m := newISeqMethod(s.accessorBody(c.EP, klass, name, true), cref, false)
				m.Attr = "writer"
				s.Registry.AddMethod(klass, false, name+"=", m)
			}
		}
		c.ret(types.NilType)
	}
}

// accessorBody synthesizes the body of an attribute reader or writer,
// once per class and attribute.
func (s *Scratch) accessorBody(ep ExecutionPoint, klass types.ClassObject, name string, writer bool) *ir.Body {
	key := klass.Key() + "#" + name
	if writer {
		key += "="
	}
	if body, ok := s.accessors[key]; ok {
		return body
	}
	line := ep.Insn().Line
	var body *ir.Body
	if writer {
		body = ir.NewBuilder(ir.MethodBody, name+"=", ep.Ctx.Body.Path).
			Locals(name).
			Params(ir.ParamShape{Lead: 1}).
			Line(line).
			GetLocal(0, 0).
			Dup().
			SetIVar("@" + name).
			Leave().
			MustBuild()
	} else {
		body = ir.NewBuilder(ir.MethodBody, name, ep.Ctx.Body.Path).
			Line(line).
			GetIVar("@" + name).
			Leave().
			MustBuild()
	}
	s.accessors[key] = body
	return body
}

func moduleMixin(extend bool) NativeFunc {
	return func(s *Scratch, c *Call) {
		klass, ok := c.Recv.(types.ClassObject)
		if !ok {
			c.ret(types.Any)
			return
		}
		verb := "include"
		if extend {
			verb = "extend"
		}
		for _, a := range c.Args.Lead {
			types.Each(a, func(m types.Type) {
				mod, ok := m.(types.ClassObject)
				if !ok || !mod.Module {
					s.warnf(c.EP, "attempted to %s %s, which is not a module", verb, c.global(s, m))
					return
				}
				if extend {
					s.Registry.Extend(klass, mod)
				} else {
					s.Registry.Include(klass, mod)
				}
			})
		}
		c.ret(klass)
	}
}

// moduleDefineMethod turns the closure passed as a block, or as the second
// argument, into a method of the receiver.
func moduleDefineMethod(s *Scratch, c *Call) {
	klass, ok := c.Recv.(types.ClassObject)
	name, named := types.SymbolName(c.arg(0))
	if !ok || !named {
		c.ret(types.Any)
		return
	}
	blk := c.Args.Blk
	if p := c.arg(1); p != nil {
		blk = p
	}
	defined := false
	types.Each(blk, func(m types.Type) {
		if p, ok := m.(types.Proc); ok {
			if b, ok := p.Block.(ISeqBlock); ok {
				s.Registry.AddMethod(klass, false, name, newBlockMethod(b))
				defined = true
			}
		}
	})
	if !defined {
		s.errorf(c.EP, "tried to create Proc object without a block")
	}
	c.ret(types.SymbolLiteral(name))
}

func moduleAliasMethod(s *Scratch, c *Call) {
	klass, ok := c.Recv.(types.ClassObject)
	if !ok {
		c.ret(types.Any)
		return
	}
	s.alias(c, klass, false, c.arg(0), c.arg(1))
	c.ret(types.SymbolType)
}

func vmcoreSetMethodAlias(s *Scratch, c *Call) {
	klass, ok := c.arg(0).(types.ClassObject)
	if !ok {
		c.ret(types.NilType)
		return
	}
	s.alias(c, klass, c.EP.Ctx.Singleton, c.arg(1), c.arg(2))
	c.ret(types.NilType)
}

func (s *Scratch) alias(c *Call, klass types.ClassObject, singleton bool, newName, oldName types.Type) {
	to, ok1 := types.SymbolName(newName)
	from, ok2 := types.SymbolName(oldName)
	if !ok1 || !ok2 {
		s.warnf(c.EP, "method alias with a non-literal name is ignored")
		return
	}
	if !s.Registry.Alias(klass, singleton, to, from) {
		s.errorf(c.EP, "undefined method for alias: %s#%s", klass.Name, from)
	}
}
