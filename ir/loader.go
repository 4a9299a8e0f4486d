package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// The textual form of a body is a YAML mapping:
//
//	name: fib
//	kind: method
//	locals: [x]
//	params: {lead: 1}
//	insns:
//	  - 2                          # source line of what follows
//	  - [getlocal, 0, 0]
//	  - [branchunless, else]
//	  - else                       # label
//
// Nested bodies appear inline as mappings in operand position. Scalar
// literals follow YAML typing, with strings starting with ":" read as
// symbols; the !str, !sym, !regexp and !range tags force a kind.
type yamlBody struct {
	Name   string      `yaml:"name"`
	Path   string      `yaml:"path"`
	Kind   string      `yaml:"kind"`
	Locals []string    `yaml:"locals"`
	Params yamlParams  `yaml:"params"`
	Insns  []yaml.Node `yaml:"insns"`
}

type yamlParams struct {
	Lead      int           `yaml:"lead"`
	Opt       []string      `yaml:"opt"`
	Rest      bool          `yaml:"rest"`
	Post      int           `yaml:"post"`
	Keywords  []yamlKeyword `yaml:"keywords"`
	KwRest    bool          `yaml:"kwrest"`
	Block     bool          `yaml:"block"`
	Ambiguous bool          `yaml:"ambiguous"`
}

type yamlKeyword struct {
	Name     string     `yaml:"name"`
	Required bool       `yaml:"required"`
	Default  *yaml.Node `yaml:"default"`
}

type yamlCall struct {
	MID   string   `yaml:"mid"`
	Argc  int      `yaml:"argc"`
	Flags []string `yaml:"flags"`
	Kw    []string `yaml:"kw"`
}

// Load reads and decodes the body stored at path on fs.
func Load(fs afero.Fs, path string) (*Body, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data, path)
}

// Parse decodes a top-level body. path names the source for diagnostics
// unless the document sets its own.
func Parse(data []byte, path string) (*Body, error) {
	var doc yamlBody
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if doc.Name == "" {
		doc.Name = "<main>"
	}
	if doc.Kind == "" {
		doc.Kind = TopBody.String()
	}
	return (&decoder{file: path}).body(&doc, path)
}

type decoder struct {
	file string
}

func (d *decoder) errorf(node *yaml.Node, format string, args ...interface{}) error {
	return errors.Errorf("%s:%d: %s", d.file, node.Line, fmt.Sprintf(format, args...))
}

func (d *decoder) body(yb *yamlBody, path string) (*Body, error) {
	if yb.Path != "" {
		path = yb.Path
	}
	kind, ok := parseBodyKind(yb.Kind)
	if !ok {
		return nil, errors.Errorf("%s: body %q has unknown kind %q", d.file, yb.Name, yb.Kind)
	}
	params, err := d.params(yb.Params)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(kind, yb.Name, path).Locals(yb.Locals...).Params(params, yb.Params.Opt...)
	for i := range yb.Insns {
		node := &yb.Insns[i]
		switch node.Kind {
		case yaml.ScalarNode:
			if node.ShortTag() == "!!int" {
				line, err := strconv.Atoi(node.Value)
				if err != nil {
					return nil, d.errorf(node, "bad line number %q", node.Value)
				}
				b.Line(line)
			} else {
				b.Label(node.Value)
			}
		case yaml.SequenceNode:
			if err := d.insn(b, node, path); err != nil {
				return nil, err
			}
		default:
			return nil, d.errorf(node, "expected an instruction, a line number or a label")
		}
	}
	body, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, d.file)
	}
	return body, nil
}

func (d *decoder) params(yp yamlParams) (ParamShape, error) {
	p := ParamShape{
		Lead:      yp.Lead,
		Rest:      yp.Rest,
		Post:      yp.Post,
		KwRest:    yp.KwRest,
		Block:     yp.Block,
		Ambiguous: yp.Ambiguous,
	}
	for _, kw := range yp.Keywords {
		k := Keyword{Name: kw.Name, Required: kw.Required}
		if kw.Default != nil {
			lit, err := d.literal(kw.Default)
			if err != nil {
				return p, err
			}
			k.Default = lit
		}
		p.Keywords = append(p.Keywords, k)
	}
	return p, nil
}

var nestedKinds = map[Opcode]BodyKind{
	DefineMethod:  MethodBody,
	DefineSMethod: MethodBody,
	DefineClass:   ClassBody,
	Send:          BlockBody,
	InvokeSuper:   BlockBody,
}

func (d *decoder) insn(b *Builder, node *yaml.Node, path string) error {
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.ScalarNode {
		return d.errorf(node, "instruction must start with an opcode")
	}
	name := node.Content[0].Value
	op, ok := ParseOpcode(name)
	if !ok {
		return d.errorf(node, "unknown opcode %q", name)
	}
	schema := opcodeTable[op].operands
	args := node.Content[1:]
	required := len(schema)
	if required > 0 && schema[required-1] == optionalBodyOperand {
		required--
	}
	if len(args) < required || len(args) > len(schema) {
		return d.errorf(node, "%s takes %d operands, got %d", name, len(schema), len(args))
	}

	insn := Insn{Op: op}
	var label string
	for i, arg := range args {
		switch schema[i] {
		case intOperand, levelOperand, flagOperand:
			n, err := strconv.Atoi(arg.Value)
			if err != nil {
				return d.errorf(arg, "%s: expected an integer operand, got %q", name, arg.Value)
			}
			switch schema[i] {
			case intOperand:
				insn.N = n
			case levelOperand:
				insn.Level = n
			default:
				insn.Flags = n
			}
		case idOperand:
			insn.ID = strings.TrimPrefix(arg.Value, ":")
		case literalOperand:
			lit, err := d.literal(arg)
			if err != nil {
				return err
			}
			insn.Lit = lit
		case stringOperand:
			insn.Lit = Str(arg.Value)
		case bodyOperand, optionalBodyOperand:
			if arg.ShortTag() == "!!null" {
				if schema[i] == bodyOperand {
					return d.errorf(arg, "%s requires a body", name)
				}
				continue
			}
			var nested yamlBody
			if err := arg.Decode(&nested); err != nil {
				return errors.Wrapf(err, "%s:%d", d.file, arg.Line)
			}
			if nested.Kind == "" {
				nested.Kind = nestedKinds[op].String()
			}
			body, err := d.body(&nested, path)
			if err != nil {
				return err
			}
			insn.Body = body
		case callOperand:
			var yc yamlCall
			if err := arg.Decode(&yc); err != nil {
				return errors.Wrapf(err, "%s:%d", d.file, arg.Line)
			}
			call := &CallInfo{MID: yc.MID, Argc: yc.Argc, KwArg: yc.Kw}
			for _, f := range yc.Flags {
				flag, ok := parseCallFlag(f)
				if !ok {
					return d.errorf(arg, "unknown call flag %q", f)
				}
				call.Flags |= flag
			}
			insn.Call = call
		case labelOperand:
			label = arg.Value
		}
	}
	if label != "" {
		b.emitJump(insn, label)
	} else {
		b.Emit(insn)
	}
	return nil
}

func (d *decoder) literal(node *yaml.Node) (*Literal, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		elems := make([]*Literal, len(node.Content))
		for i, n := range node.Content {
			lit, err := d.literal(n)
			if err != nil {
				return nil, err
			}
			elems[i] = lit
		}
		if node.Tag == "!range" {
			if len(elems) != 2 {
				return nil, d.errorf(node, "range needs exactly two ends")
			}
			return Range(elems[0], elems[1]), nil
		}
		return Array(elems...), nil
	case yaml.MappingNode:
		pairs := make([]*Literal, len(node.Content))
		for i, n := range node.Content {
			lit, err := d.literal(n)
			if err != nil {
				return nil, err
			}
			pairs[i] = lit
		}
		return Hash(pairs...), nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Nil(), nil
		case "!!bool":
			return Bool(strings.EqualFold(node.Value, "true")), nil
		case "!!int":
			n, err := strconv.ParseInt(node.Value, 0, 64)
			if err != nil {
				return nil, d.errorf(node, "bad integer %q", node.Value)
			}
			return Int(n), nil
		case "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return nil, d.errorf(node, "bad float %q", node.Value)
			}
			return Float(f), nil
		case "!sym":
			return Sym(node.Value), nil
		case "!str":
			return Str(node.Value), nil
		case "!regexp":
			return Regexp(node.Value), nil
		case "!!str":
			if len(node.Value) > 1 && strings.HasPrefix(node.Value, ":") {
				return Sym(node.Value[1:]), nil
			}
			return Str(node.Value), nil
		}
	}
	return nil, d.errorf(node, "unsupported literal %q", node.Value)
}
