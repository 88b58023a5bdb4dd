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

package disassembler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lassandro/golms/pkg/assembler"
	"github.com/lassandro/golms/pkg/bytecode"
	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/image"
)

type printer struct {
	builder  strings.Builder
	symtable *assembler.SymTable
	objects  []*object
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(&p.builder, format, args...)
}

func (p *printer) program(name string, h image.Header) string {
	if name != "" {
		p.printf("// Disassembly of %s\n//\n", name)
	}

	p.printf("// Byte code version: %s\n\n", image.VersionString(h.Version))

	if h.GlobalBytes > 0 {
		for i := int32(0); i < h.GlobalBytes; i++ {
			p.printf("DATA8 GLOBAL%d\n", i)
		}

		p.printf("\n")
	}

	for i, obj := range p.objects {
		if i > 0 {
			p.printf("\n")
		}

		p.object(obj)
	}

	return p.builder.String()
}

// objectName is the symbol table name of object id, or OBJECTn.
func (p *printer) objectName(id int64) string {
	if p.symtable != nil && id >= 1 && id <= int64(len(p.symtable.Objects)) {
		if name := p.symtable.Objects[id-1]; name != "" {
			return name
		}
	}

	return fmt.Sprintf("OBJECT%d", id)
}

func (p *printer) object(obj *object) {
	header := &obj.Header
	name := p.objectName(int64(obj.Index))

	switch {
	case header.IsThread():
		p.printf("%s %s\n", assembler.KEYWORD_VMTHREAD, name)
	case header.IsSubcall():
		p.printf("%s %s\n", assembler.KEYWORD_SUBCALL, name)
	default:
		p.printf("// Owned by %s, %d triggers\n", p.objectName(int64(header.Owner)), header.Triggers)
		p.printf("block %s\n", name)
	}

	p.printf("{\n")

	for _, param := range obj.Params {
		if strings.HasSuffix(param.Name, "S") {
			p.printf("\t%s LOCAL%d %d\n", param.Name, param.Offset, param.Size)
		} else {
			p.printf("\t%s LOCAL%d\n", param.Name, param.Offset)
		}
	}

	if len(obj.Params) > 0 {
		p.printf("\n")
	}

	if locals := int64(header.LocalBytes); locals > obj.ParamBytes {
		for i := obj.ParamBytes; i < locals; i++ {
			p.printf("\tDATA8 LOCAL%d\n", i)
		}

		p.printf("\n")
	}

	targets := p.targets(obj)
	code := obj.Code

	// A subcall gets its closing RETURN back when reassembled
	elide := header.IsSubcall() && len(code) > 0 &&
		code[len(code)-1].Op.Name == bytecode.OP_RETURN

	if _, exists := targets[obj.End]; exists {
		elide = false
	}

	for i, instr := range code {
		if label, exists := targets[instr.Offset]; exists {
			p.printf("%s:\n", label)
		}

		if elide && i == len(code)-1 {
			break
		}

		p.printf("\t%s\n", p.instruction(&instr, targets))
	}

	if label, exists := targets[obj.End]; exists {
		p.printf("%s:\n", label)
	}

	p.printf("}\n")
}

// targets names every jump destination of obj that a label can mark.
func (p *printer) targets(obj *object) map[int64]string {
	boundaries := map[int64]bool{obj.End: true}

	for _, instr := range obj.Code {
		boundaries[instr.Offset] = true
	}

	targets := make(map[int64]string)

	for _, instr := range obj.Code {
		for _, arg := range instr.Args {
			if arg.Kind != bytecode.PAROFFSET || !boundaries[arg.Target] {
				continue
			}

			if _, exists := targets[arg.Target]; exists {
				continue
			}

			label := fmt.Sprintf("OFFSET%d", arg.Target-int64(obj.Header.Offset))

			if p.symtable != nil {
				if name, exists := p.symtable.Labels[uint32(arg.Target)]; exists {
					label = name
				}
			}

			targets[arg.Target] = label
		}
	}

	return targets
}

func (p *printer) instruction(instr *instruction, targets map[int64]string) string {
	args := make([]string, 0, len(instr.Args))

	for _, arg := range instr.Args {
		if arg.Hidden {
			continue
		}

		args = append(args, p.argument(&arg, targets))
	}

	return instr.Op.Name + "(" + strings.Join(args, ",") + ")"
}

func (p *printer) argument(arg *argument, targets map[int64]string) string {
	operand := &arg.Operand

	switch operand.Type {
	case encoding.OPERAND_FLOAT:
		return encoding.FormatFloat(operand.Bits)

	case encoding.OPERAND_STRING:
		return encoding.Quote(operand.Str)

	case encoding.OPERAND_LABEL:
		return strconv.FormatInt(operand.Value, 10)

	case encoding.OPERAND_VARIABLE:
		var prefix string

		if operand.Handle {
			prefix = string(assembler.PREFIX_HANDLE)
		} else if operand.Address {
			prefix = string(assembler.PREFIX_ADDRESS)
		}

		if operand.Global {
			return fmt.Sprintf("%sGLOBAL%d", prefix, operand.Value)
		}

		return fmt.Sprintf("%sLOCAL%d", prefix, operand.Value)
	}

	switch arg.Kind {
	case bytecode.SUBP:
		return arg.Subcode.Name

	case bytecode.PAROFFSET:
		if label, exists := targets[arg.Target]; exists {
			return label
		}

	case bytecode.PAROBJ:
		if operand.Value >= 1 && operand.Value <= int64(len(p.objects)) {
			return p.objectName(operand.Value)
		}

	case bytecode.PARV:
		if operand.Width != 4 {
			break
		}

		if arg.Float {
			return encoding.FormatFloat(uint32(operand.Value))
		}

		// Only a float literal makes the assembler pick a wide form for a
		// value this small, or store one no constant can reach
		if operand.Value >= bytecode.DATA16_MIN && operand.Value <= bytecode.DATA16_MAX ||
			operand.Value == math.MinInt32 {
			return encoding.FormatFloat(uint32(operand.Value))
		}
	}

	return strconv.FormatInt(operand.Value, 10)
}
