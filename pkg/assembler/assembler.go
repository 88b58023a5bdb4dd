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

// Package assembler turns lms2012 assembly source into a byte code image.
//
// Assembly runs in three passes over the lexed statements. Pass 0 finds the
// objects and the top level defines, so that any object may be named before
// its declaration. Pass 1 allocates variables and encodes every instruction
// into chunks, leaving placeholders for jump offsets and object ids. Pass 2
// lays the objects out, patches the placeholders and writes the image. A pass
// reports every error it finds, but no later pass runs after one did.
package assembler

import (
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/lassandro/golms/pkg/bytecode"
	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/image"
	"github.com/lassandro/golms/pkg/symbols"
)

type Config struct {
	// Descriptor table; the embedded one when nil
	Table *bytecode.Table

	// Byte code version written to the header, times 100
	Version uint16
}

func DefaultConfig() *Config {
	return &Config{Version: image.DEFAULT_VERSION}
}

type assembly struct {
	table      *bytecode.Table
	env        *symbols.Env
	statements []Statement
	objects    []*object
	state      State
	errs       []error

	// Filled in by Pass 2
	symtable *SymTable
}

func (a *assembly) fail(err error) {
	a.errs = append(a.errs, err)
}

// AssembleLMSSource assembles input with the default configuration.
func AssembleLMSSource(input io.Reader, symtable *SymTable) ([]byte, []error) {
	return DefaultConfig().Assemble(input, symtable)
}

// Assemble returns the image for input, or every error of the first pass that
// failed. When symtable is non-nil it receives the debug symbols of a
// successful run.
func (cfg *Config) Assemble(input io.Reader, symtable *SymTable) (result []byte, errs []error) {
	table := cfg.Table

	if table == nil {
		var err error

		if table, err = bytecode.Default(); err != nil {
			return nil, []error{err}
		}
	}

	source, err := io.ReadAll(input)

	if err != nil {
		return nil, []error{errors.Wrap(err, "reading source")}
	}

	statements, err := lex(string(source))

	if err != nil {
		return nil, []error{err}
	}

	a := &assembly{
		table:      table,
		env:        symbols.New(),
		statements: statements,
		state:      STATE_DECLARE,
		symtable:   NewSymTable(),
	}

	for name, value := range table.Enums {
		a.env.DeclareGlobal(&symbols.Symbol{
			Name:  name,
			Kind:  symbols.KIND_ENUM,
			Value: value,
		})
	}

	var code []byte

	for a.state != STATE_DONE {
		switch a.state {
		case STATE_DECLARE:
			a.declareObjects()
		case STATE_ALLOCATE_AND_EMIT:
			a.emitObjects()
		case STATE_RESOLVE:
			code = a.resolve()
		}

		if len(a.errs) > 0 {
			return nil, a.errs
		}

		a.state++
	}

	headers := make([]image.ObjectHeader, len(a.objects))

	for i, obj := range a.objects {
		headers[i] = image.ObjectHeader{
			Offset:     int32(obj.Offset),
			Triggers:   obj.Triggers(),
			LocalBytes: int32(obj.LocalBytes),
		}
	}

	version := cfg.Version

	if version == 0 {
		version = image.DEFAULT_VERSION
	}

	result, err = image.Write(
		image.Header{Version: version, GlobalBytes: int32(a.env.GlobalBytes())},
		headers,
		code,
	)

	if err != nil {
		return nil, []error{err}
	}

	if symtable != nil {
		if symtable.Symbols == nil {
			symtable.Symbols = make(map[uint32]int64)
		}

		if symtable.Labels == nil {
			symtable.Labels = make(map[uint32]string)
		}

		for addr, line := range a.symtable.Symbols {
			symtable.Symbols[addr] = line
		}

		for addr, label := range a.symtable.Labels {
			symtable.Labels[addr] = label
		}

		symtable.Objects = a.symtable.Objects
	}

	return result, nil
}

func isObjectKeyword(tok *Token) bool {
	return tok.Type == TOKEN_IDENT &&
		(tok.Value == KEYWORD_VMTHREAD || tok.Value == KEYWORD_SUBCALL)
}

// Pass 0
// - Declare every object with its 1-based id
// - Count subcall parameters
// - Check brace structure
// - Declare top level defines
func (a *assembly) declareObjects() {
	var current *object
	var open bool

	for i := range a.statements {
		stmt := &a.statements[i]
		first := &stmt.Tokens[0]

		switch {
		case first.Type == TOKEN_BLOCK_START:
			if current == nil || open {
				a.fail(&UnexpectedTokenError{first.Position, first.Value})
				continue
			}

			open = true

		case first.Type == TOKEN_BLOCK_END:
			if !open {
				a.fail(&UnexpectedTokenError{first.Position, first.Value})
				continue
			}

			open = false
			current = nil

		case current != nil && !open:
			a.fail(&UnexpectedTokenError{first.Position, first.Value})

		case isObjectKeyword(first):
			if open {
				a.fail(&UnexpectedTokenError{first.Position, first.Value})
				continue
			}

			current = a.declareObject(stmt)

		case open:
			if _, ok := bytecode.ParseCallParam(first.Value); ok &&
				current.Kind == symbols.KIND_SUBCALL {
				current.Params++
			}

		case first.Type == TOKEN_IDENT && first.Value == KEYWORD_DEFINE:
			a.define(stmt.Tokens, true)
		}
	}

	if current != nil {
		a.fail(&UnterminatedObjectError{current.Position, current.Name})
	}

	if len(a.objects) == 0 && len(a.errs) == 0 {
		a.fail(&NoObjectsError{})
	}

	for _, obj := range a.objects {
		if sym, exists := a.env.LookupGlobal(obj.Name); exists && sym.Kind == obj.Kind {
			sym.Params = obj.Params
		}

		if obj.Params > math.MaxUint8 {
			a.fail(&OversizedLiteralError{obj.Position, 0, math.MaxUint8, int64(obj.Params)})
		}
	}
}

func (a *assembly) declareObject(stmt *Statement) *object {
	keyword := &stmt.Tokens[0]

	obj := &object{
		Kind:     symbols.KIND_THREAD,
		Index:    int64(len(a.objects) + 1),
		Position: keyword.Position,
	}

	if keyword.Value == KEYWORD_SUBCALL {
		obj.Kind = symbols.KIND_SUBCALL
	}

	if len(stmt.Tokens) != 2 {
		a.fail(&InvalidNumArgumentsError{keyword.Position, 1, len(stmt.Tokens) - 1})
		return obj
	}

	name := &stmt.Tokens[1]
	obj.Name = name.Value

	if name.Type != TOKEN_IDENT {
		a.fail(&InvalidOperandError{name.Position, []TokenType{TOKEN_IDENT}, name.Type})
		return obj
	}

	sym := &symbols.Symbol{Name: name.Value, Kind: obj.Kind, Value: obj.Index}

	if err := a.env.DeclareGlobal(sym); err != nil {
		a.fail(&RedeclaredSymbolError{name.Position, name.Value})
		return obj
	}

	a.objects = append(a.objects, obj)

	return obj
}

// Pass 1
// - Allocate globals, parameters and locals
// - Declare labels and local defines
// - Encode instructions into chunks
func (a *assembly) emitObjects() {
	var current *object
	var next int

	for i := range a.statements {
		stmt := &a.statements[i]
		first := &stmt.Tokens[0]

		switch {
		case isObjectKeyword(first):
			current = a.objects[next]
			next++

		case first.Type == TOKEN_BLOCK_START:
			a.env.EnterLocal()

			if current.Kind == symbols.KIND_SUBCALL {
				current.emit(Bytes{byte(current.Params)})
			}

		case first.Type == TOKEN_BLOCK_END:
			a.finishObject(current, first)
			a.env.ExitLocal()
			current = nil

		case !a.env.InLocal():
			a.topLevel(stmt)

		default:
			a.statement(current, stmt)
		}
	}
}

func (a *assembly) topLevel(stmt *Statement) {
	tokens := stmt.Tokens
	first := &tokens[0]

	if first.Type == TOKEN_IDENT {
		switch first.Value {
		case KEYWORD_DEFINE:
			return
		case KEYWORD_GLOBAL:
			tokens = tokens[1:]
		}
	}

	if len(tokens) == 0 {
		a.fail(&UnexpectedTokenError{first.Position, first.Value})
		return
	}

	if _, exists := declarations[tokens[0].Value]; !exists || tokens[0].Type != TOKEN_IDENT {
		a.fail(&UnexpectedTokenError{tokens[0].Position, tokens[0].Value})
		return
	}

	a.declare(symbols.KIND_GLOBAL, tokens)
}

func (a *assembly) statement(obj *object, stmt *Statement) {
	tokens := stmt.Tokens

	if tokens[0].Type == TOKEN_LABEL {
		obj.body = true
		a.label(obj, &tokens[0])

		if tokens = tokens[1:]; len(tokens) == 0 {
			return
		}
	}

	first := &tokens[0]

	if first.Type != TOKEN_IDENT {
		a.fail(&UnexpectedTokenError{first.Position, first.Value})
		return
	}

	if callParam, ok := bytecode.ParseCallParam(first.Value); ok {
		a.parameter(obj, callParam, tokens)
		return
	}

	obj.body = true

	kind := symbols.KIND_LOCAL
	prefixed := true

	switch first.Value {
	case KEYWORD_DEFINE:
		a.define(tokens, false)
		return
	case KEYWORD_GLOBAL:
		kind = symbols.KIND_GLOBAL
		tokens = tokens[1:]
	case KEYWORD_LOCAL:
		tokens = tokens[1:]
	default:
		prefixed = false
	}

	if len(tokens) == 0 {
		a.fail(&UnexpectedTokenError{first.Position, first.Value})
		return
	}

	if _, exists := declarations[tokens[0].Value]; exists {
		a.declare(kind, tokens)
		return
	}

	if prefixed {
		a.fail(&UnexpectedTokenError{tokens[0].Position, tokens[0].Value})
		return
	}

	a.instruction(obj, first, tokens[1:])
}

// finishObject closes the object body and checks its jump targets, which
// must be labels of the same object.
func (a *assembly) finishObject(obj *object, brace *Token) {
	if obj.Kind == symbols.KIND_SUBCALL {
		if op, exists := a.table.Op(bytecode.OP_RETURN); exists {
			obj.emit(Bytes{op.Code})
		} else {
			a.fail(&UnknownOperationError{brace.Position, bytecode.OP_RETURN})
		}
	}

	if op, exists := a.table.Op(bytecode.OP_OBJECT_END); exists {
		obj.emit(Bytes{op.Code})
	} else {
		a.fail(&UnknownOperationError{brace.Position, bytecode.OP_OBJECT_END})
	}

	for _, ref := range obj.refs {
		if sym, exists := a.env.Lookup(ref.Name); !exists || sym.Kind != symbols.KIND_LABEL {
			a.fail(&UnknownLabelError{ref.Position, ref.Name})
		}
	}

	obj.LocalBytes = a.env.LocalBytes()
}

// Pass 2
// - Lay out objects from the end of the header table
// - Patch jump offsets and object ids
// - Flatten the chunks
func (a *assembly) resolve() []byte {
	pc := image.CodeStart(len(a.objects))
	start := pc

	for _, obj := range a.objects {
		obj.Offset = pc
		obj.labels = make(map[string]int64)

		a.symtable.Objects = append(a.symtable.Objects, obj.Name)

		for _, chunk := range obj.chunks {
			switch c := chunk.(type) {
			case LabelDef:
				obj.labels[c.Name] = pc
				a.symtable.Labels[uint32(pc)] = c.Name
			case SourceMark:
				a.symtable.Symbols[uint32(pc)] = c.LineByte
			}

			pc += chunk.Len()
		}
	}

	for _, obj := range a.objects {
		pos := obj.Offset

		for i, chunk := range obj.chunks {
			size := chunk.Len()

			switch c := chunk.(type) {
			case *LabelRef:
				target, exists := obj.labels[c.Name]

				if !exists {
					a.fail(&UnresolvedReferenceError{c.Position, c.Name})
					break
				}

				delta := target - (pos + LABEL_REF_SIZE)
				b, err := encoding.EncodeConstWidth(delta, 2)

				if err != nil {
					a.fail(&OversizedLabelError{c.Position, bytecode.DATA16_MAX, delta})
					break
				}

				obj.chunks[i] = Bytes(b)

			case *ObjectRef:
				b, err := encoding.EncodeConst(c.Index)

				if err != nil {
					a.fail(&UnresolvedReferenceError{c.Position, c.Name})
					break
				}

				obj.chunks[i] = Bytes(b)
			}

			pos += size
		}
	}

	code := make([]byte, 0, pc-start)

	for _, obj := range a.objects {
		for _, chunk := range obj.chunks {
			switch c := chunk.(type) {
			case Bytes:
				code = append(code, c...)
			case LabelDef, SourceMark:
			case *LabelRef, *ObjectRef:
				// Already reported above
			default:
				a.fail(&UnresolvedReferenceError{obj.Position, obj.Name})
			}
		}
	}

	return code
}
