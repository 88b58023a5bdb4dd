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

package assembler

import (
	"errors"
	"math"
	"strings"

	"github.com/lassandro/golms/pkg/bytecode"
	"github.com/lassandro/golms/pkg/encoding"
	"github.com/lassandro/golms/pkg/symbols"
)

type object struct {
	Name     string
	Kind     symbols.Kind
	Index    int64
	Params   int
	Position Cursor

	Offset     int64
	LocalBytes int64

	chunks []Chunk
	refs   []*LabelRef
	labels map[string]int64

	// Set once anything but a parameter declaration was seen
	body bool
}

func (obj *object) emit(chunks ...Chunk) {
	obj.chunks = append(obj.chunks, chunks...)
}

func (obj *object) Triggers() int16 {
	if obj.Kind == symbols.KIND_SUBCALL {
		return 1
	}

	return 0
}

// operands walks the operand tokens of one instruction.
type operands struct {
	tokens []Token
	next   int

	// Value of the operand just encoded, when it was a constant
	last *int64

	// Subcall named by a PAROBJ operand
	callee *symbols.Symbol
}

func (args *operands) take() (*Token, bool) {
	if args.next >= len(args.tokens) {
		return nil, false
	}

	tok := &args.tokens[args.next]
	args.next++

	return tok, true
}

func (args *operands) remaining() int {
	return len(args.tokens) - args.next
}

// required counts the operand tokens params still needs at minimum.
func required(params []bytecode.Param) int {
	count := 0

	for _, param := range params {
		switch param.Kind {
		case bytecode.PARNO, bytecode.PARVALUES:
			return count
		}

		count++
	}

	return count
}

// parameter handles an IN_*, OUT_* or IO_* line. Parameters are locals that
// the caller fills, so they are allocated like any other local; their type
// bytes extend the prologue emitted at the opening brace.
func (a *assembly) parameter(obj *object, callParam byte, tokens []Token) {
	keyword := &tokens[0]

	if obj.Kind != symbols.KIND_SUBCALL || obj.body {
		a.fail(&MisplacedParameterError{keyword.Position, keyword.Value})
		return
	}

	format := bytecode.DataFormat(callParam & bytecode.CALLPARAM_FORMAT)
	size, align := format.Size(), format.Size()
	prologue := Bytes{callParam}

	want := 2

	if format == bytecode.DATAS {
		want = 3
	}

	if len(tokens) != want {
		a.fail(&InvalidNumArgumentsError{keyword.Position, want - 1, len(tokens) - 1})
		return
	}

	if format == bytecode.DATAS {
		value, ok := a.constValue(&tokens[2])

		if !ok {
			a.fail(&InvalidOperandError{
				tokens[2].Position, []TokenType{TOKEN_LITERAL}, tokens[2].Type,
			})

			return
		}

		if value < 1 || value > math.MaxUint8 {
			a.fail(&OversizedLiteralError{tokens[2].Position, 1, math.MaxUint8, value})
			return
		}

		size, align = value, 1
		prologue = append(prologue, byte(value))
	}

	if a.variable(&tokens[1], symbols.KIND_LOCAL, format, size, align) {
		obj.emit(prologue)
	}
}

// declare handles DATA*, HANDLE, DATAS and ARRAY* lines.
func (a *assembly) declare(kind symbols.Kind, tokens []Token) {
	keyword := &tokens[0]
	decl := declarations[keyword.Value]

	want := 2

	if decl.Counted {
		want = 3
	}

	if len(tokens) != want {
		a.fail(&InvalidNumArgumentsError{keyword.Position, want - 1, len(tokens) - 1})
		return
	}

	size := decl.Width

	if decl.Counted {
		count, ok := a.constValue(&tokens[2])

		if !ok {
			a.fail(&InvalidOperandError{
				tokens[2].Position, []TokenType{TOKEN_LITERAL}, tokens[2].Type,
			})

			return
		}

		if count < 1 || count > bytecode.DATA32_MAX/decl.Width {
			a.fail(&OversizedLiteralError{
				tokens[2].Position, 1, bytecode.DATA32_MAX / decl.Width, count,
			})

			return
		}

		size *= count
	}

	a.variable(&tokens[1], kind, decl.Format, size, decl.Width)
}

// variable declares name and reserves its storage in the scope kind selects.
func (a *assembly) variable(
	name *Token,
	kind symbols.Kind,
	format bytecode.DataFormat,
	size int64,
	align int64,
) bool {
	if name.Type != TOKEN_IDENT || strings.ContainsAny(name.Value, "@&") {
		a.fail(&InvalidOperandError{name.Position, []TokenType{TOKEN_IDENT}, name.Type})
		return false
	}

	sym := &symbols.Symbol{Name: name.Value, Kind: kind, Size: size, Format: format}

	var err error

	if kind == symbols.KIND_GLOBAL {
		err = a.env.DeclareGlobal(sym)
	} else {
		err = a.env.Declare(sym)
	}

	if err != nil {
		a.fail(&RedeclaredSymbolError{name.Position, name.Value})
		return false
	}

	if kind == symbols.KIND_GLOBAL {
		sym.Offset = a.env.AllocateGlobal(size, align)
	} else {
		sym.Offset = a.env.Allocate(size, align)
	}

	return true
}

// define handles `define NAME literal`. The literal is kept as text and
// parsed again in the slot it is used in.
func (a *assembly) define(tokens []Token, global bool) {
	keyword := &tokens[0]

	if len(tokens) != 3 {
		a.fail(&InvalidNumArgumentsError{keyword.Position, 2, len(tokens) - 1})
		return
	}

	name, value := &tokens[1], &tokens[2]

	if name.Type != TOKEN_IDENT || strings.ContainsAny(name.Value, "@&") {
		a.fail(&InvalidOperandError{name.Position, []TokenType{TOKEN_IDENT}, name.Type})
		return
	}

	if value.Type != TOKEN_LITERAL && value.Type != TOKEN_STRING {
		a.fail(&InvalidOperandError{
			value.Position, []TokenType{TOKEN_LITERAL, TOKEN_STRING}, value.Type,
		})

		return
	}

	sym := &symbols.Symbol{Name: name.Value, Kind: symbols.KIND_DEFINE, Text: value.Value}

	var err error

	if global {
		err = a.env.DeclareGlobal(sym)
	} else {
		err = a.env.Declare(sym)
	}

	if err != nil {
		a.fail(&RedeclaredSymbolError{name.Position, name.Value})
	}
}

func (a *assembly) label(obj *object, tok *Token) {
	if err := a.env.Declare(&symbols.Symbol{Name: tok.Value, Kind: symbols.KIND_LABEL}); err != nil {
		a.fail(&RedeclaredSymbolError{tok.Position, tok.Value})
		return
	}

	obj.emit(LabelDef{tok.Value})
}

// instruction encodes one operation. Nothing is emitted for a line with an
// error so the object's layout never holds half an instruction.
func (a *assembly) instruction(obj *object, keyword *Token, tokens []Token) {
	op, exists := a.table.Op(keyword.Value)

	if !exists {
		a.fail(&UnknownOperationError{keyword.Position, keyword.Value})
		return
	}

	args := &operands{tokens: tokens}
	chunks := []Chunk{SourceMark{keyword.Position.LineByte}, Bytes{op.Code}}

	chunks, err := a.params(obj, chunks, keyword, op.Params, args)

	if err != nil {
		a.fail(err)
		return
	}

	if args.remaining() > 0 {
		a.fail(&InvalidNumArgumentsError{keyword.Position, args.next, len(tokens)})
		return
	}

	obj.emit(chunks...)
}

func (a *assembly) params(
	obj *object,
	chunks []Chunk,
	keyword *Token,
	params []bytecode.Param,
	args *operands,
) ([]Chunk, error) {
	for i := 0; i < len(params); i++ {
		param := params[i]

		switch param.Kind {
		case bytecode.SUBP:
			tok, ok := args.take()

			if !ok {
				return nil, &InvalidNumArgumentsError{
					keyword.Position, args.next + required(params[i:]), len(args.tokens),
				}
			}

			sub, err := a.subcode(param.Family, tok)

			if err != nil {
				return nil, err
			}

			b, _ := encoding.EncodeConst(int64(sub.Value))
			chunks = append(chunks, Bytes(b))

			return a.params(obj, chunks, keyword, sub.Params, args)

		case bytecode.PARNO:
			count, err := a.count(keyword, args)

			if err != nil {
				return nil, err
			}

			b, err := encoding.EncodeConst(count)

			if err != nil {
				return nil, a.rangeError(keyword, err)
			}

			chunks = append(chunks, Bytes(b))

			for ; count > 0; count-- {
				tok, _ := args.take()
				chunk, err := a.operand(obj, bytecode.PARV, tok, args)

				if err != nil {
					return nil, err
				}

				chunks = append(chunks, chunk)
			}

		case bytecode.PARVALUES:
			if args.last == nil {
				prev := &args.tokens[args.next-1]

				return nil, &InvalidOperandError{
					prev.Position, []TokenType{TOKEN_LITERAL}, prev.Type,
				}
			}

			count := *args.last

			// The element kind follows PARVALUES
			i++
			elem := params[i].Kind

			if count < 0 || int64(args.remaining()) < count {
				return nil, &InvalidNumArgumentsError{
					keyword.Position, args.next + int(count), len(args.tokens),
				}
			}

			for ; count > 0; count-- {
				tok, _ := args.take()
				chunk, err := a.operand(obj, elem, tok, args)

				if err != nil {
					return nil, err
				}

				chunks = append(chunks, chunk)
			}

		default:
			tok, ok := args.take()

			if !ok {
				return nil, &InvalidNumArgumentsError{
					keyword.Position, args.next + required(params[i:]), len(args.tokens),
				}
			}

			chunk, err := a.operand(obj, param.Kind, tok, args)

			if err != nil {
				return nil, err
			}

			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// count returns the length of a PARNO list. CALL takes it from the callee's
// declaration; every other operation spells it out.
func (a *assembly) count(keyword *Token, args *operands) (int64, error) {
	if keyword.Value == bytecode.OP_CALL {
		if args.callee == nil {
			return int64(args.remaining()), nil
		}

		if args.callee.Params != args.remaining() {
			return 0, &CallArityError{
				keyword.Position,
				args.callee.Name,
				args.callee.Params,
				args.remaining(),
			}
		}

		return int64(args.callee.Params), nil
	}

	tok, ok := args.take()

	if !ok {
		return 0, &InvalidNumArgumentsError{keyword.Position, args.next + 1, len(args.tokens)}
	}

	count, ok := a.constValue(tok)

	if !ok {
		return 0, &InvalidOperandError{tok.Position, []TokenType{TOKEN_LITERAL}, tok.Type}
	}

	if count < 0 {
		return 0, &OversizedLiteralError{tok.Position, 0, bytecode.DATA8_MAX, count}
	}

	if int64(args.remaining()) != count {
		return 0, &InvalidNumArgumentsError{
			keyword.Position, args.next + int(count), len(args.tokens),
		}
	}

	return count, nil
}

func (a *assembly) subcode(family *bytecode.Family, tok *Token) (*bytecode.Subcode, error) {
	if tok.Type == TOKEN_IDENT {
		if sub, exists := family.Subcodes[tok.Value]; exists {
			return sub, nil
		}
	}

	if value, ok := a.constValue(tok); ok && value >= 0 && value <= math.MaxUint8 {
		if sub, exists := family.ByValue[byte(value)]; exists {
			return sub, nil
		}
	}

	return nil, &UnknownSubcodeError{tok.Position, family.Name, tok.Value}
}

// constValue resolves an integer literal, a numeric define or an enum.
func (a *assembly) constValue(tok *Token) (int64, bool) {
	text := tok.Value

	if tok.Type == TOKEN_IDENT {
		sym, exists := a.env.Lookup(text)

		if !exists {
			return 0, false
		}

		switch sym.Kind {
		case symbols.KIND_ENUM:
			return sym.Value, true
		case symbols.KIND_DEFINE:
			text = sym.Text
		default:
			return 0, false
		}
	} else if tok.Type != TOKEN_LITERAL {
		return 0, false
	}

	if encoding.IsFloat(text) {
		return 0, false
	}

	value, err := encoding.ParseInt(text)

	return value, err == nil
}

func (a *assembly) operand(
	obj *object,
	kind bytecode.ParamKind,
	tok *Token,
	args *operands,
) (Chunk, error) {
	args.last = nil

	switch tok.Type {
	case TOKEN_STRING:
		return a.str(kind, tok)
	case TOKEN_LITERAL:
		return a.literal(kind, tok, args)
	case TOKEN_IDENT:
		return a.identifier(obj, kind, tok, args)
	}

	return nil, &InvalidOperandError{
		tok.Position,
		[]TokenType{TOKEN_LITERAL, TOKEN_STRING, TOKEN_IDENT},
		tok.Type,
	}
}

func (a *assembly) str(kind bytecode.ParamKind, tok *Token) (Chunk, error) {
	switch kind {
	case bytecode.PAR8, bytecode.PARS, bytecode.PARV:
	default:
		return nil, &InvalidOperandError{
			tok.Position, []TokenType{TOKEN_LITERAL, TOKEN_IDENT}, tok.Type,
		}
	}

	s, err := encoding.Unquote(tok.Value)

	if err != nil {
		return nil, &InvalidStringError{tok.Position}
	}

	b, err := encoding.EncodeString(s)

	if err != nil {
		return nil, &InvalidStringError{tok.Position}
	}

	return Bytes(b), nil
}

func (a *assembly) literal(kind bytecode.ParamKind, tok *Token, args *operands) (Chunk, error) {
	float := encoding.IsFloat(tok.Value)

	if kind == bytecode.PARF || (kind == bytecode.PARV && float) {
		bits, err := encoding.ParseFloat(tok.Value)

		if err != nil {
			return nil, &InvalidLiteralError{tok.Position}
		}

		return Bytes(encoding.EncodeFloat(bits)), nil
	}

	if float {
		return nil, &InvalidLiteralError{tok.Position}
	}

	value, err := encoding.ParseInt(tok.Value)

	if err != nil {
		return nil, &InvalidLiteralError{tok.Position}
	}

	return a.constant(kind, value, tok, args)
}

// constant encodes an integer in the form its slot demands.
func (a *assembly) constant(
	kind bytecode.ParamKind,
	value int64,
	tok *Token,
	args *operands,
) (Chunk, error) {
	var b []byte
	var err error

	switch kind {
	case bytecode.PAROFFSET:
		b, err = encoding.EncodeConstWidth(value, 2)
	case bytecode.PARLAB:
		b, err = encoding.EncodeLabel(value)
	case bytecode.PARF:
		b = encoding.EncodeFloat(math.Float32bits(float32(value)))
	default:
		b, err = encoding.EncodeConst(value)
		args.last = &value
	}

	if err != nil {
		return nil, a.rangeError(tok, err)
	}

	return Bytes(b), nil
}

func (a *assembly) identifier(
	obj *object,
	kind bytecode.ParamKind,
	tok *Token,
	args *operands,
) (Chunk, error) {
	name := tok.Value
	handle := name[0] == PREFIX_HANDLE
	address := name[0] == PREFIX_ADDRESS

	if handle || address {
		name = name[1:]
	} else {
		switch kind {
		case bytecode.PAROFFSET:
			ref := &LabelRef{name, tok.Position}
			obj.refs = append(obj.refs, ref)

			return ref, nil

		case bytecode.PARF:
			switch name {
			case "DATAF_MAX", "DATAF_MIN", "DATAF_NAN":
				bits, _ := encoding.ParseFloat(name)
				return Bytes(encoding.EncodeFloat(bits)), nil
			}
		}
	}

	sym, exists := a.env.Lookup(name)

	if !exists {
		if kind == bytecode.PAROBJ {
			return nil, &UnknownObjectError{tok.Position, name}
		}

		return nil, &UnknownIdentifierError{tok.Position, name}
	}

	if (handle || address) && !sym.Kind.Variable() {
		return nil, &InvalidOperandError{tok.Position, []TokenType{TOKEN_IDENT}, tok.Type}
	}

	if sym.Kind.Object() {
		if kind == bytecode.PAROBJ && sym.Kind == symbols.KIND_SUBCALL {
			args.callee = sym
		}

		return &ObjectRef{sym.Name, sym.Value, tok.Position}, nil
	}

	switch sym.Kind {
	case symbols.KIND_DEFINE:
		text := Token{Type: TOKEN_LITERAL, Position: tok.Position, Value: sym.Text}

		if strings.HasPrefix(sym.Text, "'") {
			text.Type = TOKEN_STRING
		}

		return a.operand(obj, kind, &text, args)

	case symbols.KIND_ENUM:
		return a.constant(kind, sym.Value, tok, args)

	case symbols.KIND_GLOBAL, symbols.KIND_LOCAL:
		b, err := encoding.EncodeVariable(
			sym.Offset, sym.Kind == symbols.KIND_GLOBAL, handle, address,
		)

		if err != nil {
			return nil, a.rangeError(tok, err)
		}

		return Bytes(b), nil
	}

	return nil, &InvalidOperandError{
		tok.Position, []TokenType{TOKEN_LITERAL, TOKEN_STRING, TOKEN_IDENT}, TOKEN_LABEL,
	}
}

func (a *assembly) rangeError(tok *Token, err error) error {
	var rangeErr *encoding.RangeError

	if errors.As(err, &rangeErr) {
		return &OversizedLiteralError{tok.Position, rangeErr.Min, rangeErr.Max, rangeErr.Received}
	}

	return err
}
