// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package disassembler renders a byte code image as assembly source that the
// assembler accepts again.
package disassembler

import (
	"fmt"
	"math"
	"strings"

	"github.com/lassandro/golms/pkg/assembler"
	"github.com/lassandro/golms/pkg/bytecode"
	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/image"
)

type Config struct {
	// Descriptor table; the embedded one when nil
	Table *bytecode.Table

	// Printed in the leading comment when set
	Name string
}

func DefaultConfig() *Config {
	return &Config{}
}

// DisassembleLMSImage disassembles b with the default configuration.
func DisassembleLMSImage(b []byte, symtable *assembler.SymTable) (string, error) {
	return DefaultConfig().Disassemble(b, symtable)
}

type argument struct {
	Kind    bytecode.ParamKind
	Operand encoding.Operand
	Subcode *bytecode.Subcode

	// Absolute jump target of a PAROFFSET
	Target int64

	// Not printed, the CALL count follows from the callee
	Hidden bool

	// A CALL argument bound to a float parameter of the callee
	Float bool
}

type instruction struct {
	Offset int64
	Op     *bytecode.Op
	Args   []argument
}

type param struct {
	Name   string
	Offset int64
	Size   int64
}

type object struct {
	Index  int
	Header image.ObjectHeader
	Params []param

	// Local bytes covered by Params, padding included
	ParamBytes int64

	// Offset of the first instruction
	Body int64

	Code []instruction

	// Offset of the OBJECT_END sentinel
	End int64
}

// Disassemble validates the image header and decodes every object. Errors
// carry the absolute offset of the offending byte.
func (cfg *Config) Disassemble(b []byte, symtable *assembler.SymTable) (string, error) {
	table := cfg.Table

	if table == nil {
		var err error

		if table, err = bytecode.Default(); err != nil {
			return "", err
		}
	}

	h, headers, err := image.Read(b)

	if err != nil {
		return "", err
	}

	d := &decoder{table: table, b: b}
	d.objects = make([]*object, len(headers))

	// Prologues first, a CALL may name a later subcall
	for i, header := range headers {
		if d.objects[i], err = d.prologue(i, header); err != nil {
			return "", err
		}
	}

	for _, obj := range d.objects {
		if err = d.code(obj); err != nil {
			return "", err
		}
	}

	p := &printer{
		symtable: symtable,
		objects:  d.objects,
	}

	return p.program(cfg.Name, h), nil
}

type decoder struct {
	table   *bytecode.Table
	b       []byte
	pos     int64
	objects []*object
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= int64(len(d.b)) {
		return 0, &encoding.FormatError{Offset: len(d.b), Reason: "truncated object"}
	}

	c := d.b[d.pos]
	d.pos++

	return c, nil
}

// prologue reads the parameter list of a subcall.
func (d *decoder) prologue(i int, header image.ObjectHeader) (*object, error) {
	obj := &object{Index: i + 1, Header: header}
	d.pos = int64(header.Offset)

	if !header.IsThread() && !header.IsSubcall() && !header.IsBlock() {
		return nil, &encoding.FormatError{
			Offset: int(image.CodeStart(i)) + 6,
			Reason: fmt.Sprintf("object %d has %d triggers", obj.Index, header.Triggers),
		}
	}

	if header.IsSubcall() {
		count, err := d.byte()

		if err != nil {
			return nil, err
		}

		for ; count > 0; count-- {
			start := d.pos
			callParam, err := d.byte()

			if err != nil {
				return nil, err
			}

			name, ok := bytecode.CallParamName(callParam)

			if !ok {
				return nil, &encoding.FormatError{
					Offset: int(start),
					Reason: fmt.Sprintf("unknown call parameter type %#02x", callParam),
				}
			}

			format := bytecode.DataFormat(callParam & bytecode.CALLPARAM_FORMAT)
			size, align := format.Size(), format.Size()

			if format == bytecode.DATAS {
				length, err := d.byte()

				if err != nil {
					return nil, err
				}

				size, align = int64(length), 1
			}

			if align > 1 && obj.ParamBytes%align != 0 {
				obj.ParamBytes += align - obj.ParamBytes%align
			}

			obj.Params = append(obj.Params, param{name, obj.ParamBytes, size})
			obj.ParamBytes += size
		}
	}

	obj.Body = d.pos

	return obj, nil
}

func (d *decoder) code(obj *object) error {
	d.pos = obj.Body

	for {
		offset := d.pos
		code, err := d.byte()

		if err != nil {
			return &encoding.FormatError{
				Offset: len(d.b),
				Reason: fmt.Sprintf("object %d has no %s", obj.Index, bytecode.OP_OBJECT_END),
			}
		}

		op, exists := d.table.OpByCode(code)

		if !exists {
			return &encoding.FormatError{
				Offset: int(offset),
				Reason: fmt.Sprintf("unknown operation %#02x", code),
			}
		}

		if op.Name == bytecode.OP_OBJECT_END {
			obj.End = offset
			return nil
		}

		instr := instruction{Offset: offset, Op: op}

		if instr.Args, err = d.params(op, op.Params, nil); err != nil {
			return err
		}

		obj.Code = append(obj.Code, instr)
	}
}

func (d *decoder) operand(kind bytecode.ParamKind) (encoding.Operand, error) {
	operand, n, err := encoding.Decode(d.b[d.pos:], kind == bytecode.PARF)

	if err != nil {
		return operand, encoding.Rebase(err, int(d.pos))
	}

	d.pos += int64(n)

	return operand, nil
}

// constant decodes an operand that must be an integer constant.
func (d *decoder) constant(kind bytecode.ParamKind, what string) (encoding.Operand, error) {
	start := d.pos
	operand, err := d.operand(kind)

	if err != nil {
		return operand, err
	}

	if operand.Type != encoding.OPERAND_CONST {
		return operand, &encoding.FormatError{
			Offset: int(start),
			Reason: what + " is not a constant",
		}
	}

	return operand, nil
}

func (d *decoder) params(op *bytecode.Op, params []bytecode.Param, args []argument) ([]argument, error) {
	for i := 0; i < len(params); i++ {
		kind := params[i].Kind

		switch kind {
		case bytecode.SUBP:
			start := d.pos
			operand, err := d.constant(kind, "sub-operation")

			if err != nil {
				return nil, err
			}

			family := params[i].Family
			sub, exists := family.ByValue[byte(operand.Value)]

			if !exists || operand.Value < 0 || operand.Value > math.MaxUint8 {
				return nil, &encoding.FormatError{
					Offset: int(start),
					Reason: fmt.Sprintf("unknown %s sub-operation %d", family.Name, operand.Value),
				}
			}

			args = append(args, argument{Kind: kind, Operand: operand, Subcode: sub})

			return d.params(op, sub.Params, args)

		case bytecode.PARNO:
			operand, err := d.constant(kind, "argument count")

			if err != nil {
				return nil, err
			}

			var callee *object

			if op.Name == bytecode.OP_CALL {
				callee = d.callee(args)
			}

			args = append(args, argument{
				Kind:    kind,
				Operand: operand,
				Hidden:  op.Name == bytecode.OP_CALL,
			})

			for n := int64(0); n < operand.Value; n++ {
				value, err := d.operand(bytecode.PARV)

				if err != nil {
					return nil, err
				}

				arg := argument{Kind: bytecode.PARV, Operand: value}

				if callee != nil && n < int64(len(callee.Params)) {
					arg.Float = strings.HasSuffix(callee.Params[n].Name, "_F")
				}

				args = append(args, arg)
			}

		case bytecode.PARVALUES:
			prev := args[len(args)-1].Operand

			if prev.Type != encoding.OPERAND_CONST {
				return nil, &encoding.FormatError{
					Offset: int(d.pos),
					Reason: "value list length is not a constant",
				}
			}

			i++
			elem := params[i].Kind

			for count := prev.Value; count > 0; count-- {
				value, err := d.operand(elem)

				if err != nil {
					return nil, err
				}

				args = append(args, argument{Kind: elem, Operand: value})
			}

		case bytecode.PAROFFSET:
			operand, err := d.constant(kind, "jump offset")

			if err != nil {
				return nil, err
			}

			args = append(args, argument{
				Kind:    kind,
				Operand: operand,
				Target:  d.pos + operand.Value,
			})

		default:
			operand, err := d.operand(kind)

			if err != nil {
				return nil, err
			}

			args = append(args, argument{Kind: kind, Operand: operand})
		}
	}

	return args, nil
}

// callee returns the subcall named by the object argument of a CALL.
func (d *decoder) callee(args []argument) *object {
	for _, arg := range args {
		if arg.Kind != bytecode.PAROBJ || arg.Operand.Type != encoding.OPERAND_CONST {
			continue
		}

		if id := arg.Operand.Value; id >= 1 && id <= int64(len(d.objects)) {
			return d.objects[id-1]
		}
	}

	return nil
}
