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
	"fmt"
	"strings"

	"github.com/lassandro/golms/pkg/encoding"
)

type TokenType uint
type State uint

type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
}

type Token struct {
	Type     TokenType
	Position Cursor
	Value    string
}

// Statement is the tokens of one source line, split again at braces.
type Statement struct {
	Tokens []Token
}

// SymTable records where the assembled image came from. Symbols maps the
// address of every instruction to the byte offset of its source line, Labels
// maps addresses to label names and Objects holds object names by id - 1.
type SymTable struct {
	Source  string
	Symbols map[uint32]int64
	Labels  map[uint32]string
	Objects []string
}

func NewSymTable() *SymTable {
	return &SymTable{
		Symbols: make(map[uint32]int64),
		Labels:  make(map[uint32]string),
	}
}

var (
	ErrSyntax     = errors.New("syntax error")
	ErrSymbol     = errors.New("symbol error")
	ErrArity      = errors.New("arity error")
	ErrRange      = encoding.ErrRange
	ErrFormat     = encoding.ErrFormat
	ErrResolution = errors.New("unresolved reference")
)

type TokenError interface {
	GetPosition() Cursor
}

func tokenTypeString(tokenType TokenType) string {
	switch tokenType {
	case TOKEN_IDENT:
		return "Identifier"
	case TOKEN_LITERAL:
		return "Literal"
	case TOKEN_STRING:
		return "String"
	case TOKEN_LABEL:
		return "Label"
	case TOKEN_BLOCK_START, TOKEN_BLOCK_END:
		return "Brace"
	}

	return "<invalid>"
}

type InvalidOperandError struct {
	Position Cursor
	Required []TokenType
	Received TokenType
}

func (err *InvalidOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidOperandError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *InvalidOperandError) Error() string {
	var requiredString string

	requiredStrings := make([]string, 0, len(err.Required))

	for _, tokenType := range err.Required {
		requiredStrings = append(requiredStrings, tokenTypeString(tokenType))
	}

	if count := len(requiredStrings); count == 1 {
		requiredString = requiredStrings[0]
	} else if count == 2 {
		requiredString = requiredStrings[0] + " or " + requiredStrings[1]
	} else if count > 2 {
		requiredString = strings.Join(
			requiredStrings[:len(requiredStrings)-1], ", ",
		) + ", or " + requiredStrings[len(requiredStrings)-1]
	}

	return fmt.Sprintf(
		"%02d:%02d: Invalid operands\n\twant:%s\n\thave:%s",
		err.Position.Line,
		err.Position.Column,
		requiredString,
		tokenTypeString(err.Received),
	)
}

type InvalidNumArgumentsError struct {
	Position Cursor
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidNumArgumentsError) Is(target error) bool {
	return target == ErrArity
}

func (err *InvalidNumArgumentsError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid number of arguments\n\twant:%d\n\thave:%v",
		err.Position.Line,
		err.Position.Column,
		err.Required,
		err.Received,
	)
}

// CallArityError is a CALL whose argument count differs from the parameter
// count of the subcall it names.
type CallArityError struct {
	Position Cursor
	Callee   string
	Required int
	Received int
}

func (err *CallArityError) GetPosition() Cursor {
	return err.Position
}

func (err *CallArityError) Is(target error) bool {
	return target == ErrArity
}

func (err *CallArityError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Wrong number of arguments for '%s'\n\twant:%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Callee,
		err.Required,
		err.Received,
	)
}

type OversizedLabelError struct {
	Position Cursor
	Required int64
	Received int64
}

func (err *OversizedLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLabelError) Is(target error) bool {
	return target == ErrRange
}

func (err *OversizedLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Label exceeds allowed distance\n\twant:%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Required,
		err.Received,
	)
}

type InvalidLiteralError struct {
	Position Cursor
}

func (err *InvalidLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidLiteralError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *InvalidLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid numeric literal",
		err.Position.Line,
		err.Position.Column,
	)
}

type InvalidStringError struct {
	Position Cursor
}

func (err *InvalidStringError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidStringError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *InvalidStringError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Invalid string literal",
		err.Position.Line,
		err.Position.Column,
	)
}

type OversizedLiteralError struct {
	Position Cursor
	Min      int64
	Max      int64
	Received int64
}

func (err *OversizedLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLiteralError) Is(target error) bool {
	return target == ErrRange
}

func (err *OversizedLiteralError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Literal exceeds allowed size\n\twant:%d..%d\n\thave:%d",
		err.Position.Line,
		err.Position.Column,
		err.Min,
		err.Max,
		err.Received,
	)
}

type UnexpectedCharacterError struct {
	Position Cursor
	Received rune
}

func (err *UnexpectedCharacterError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedCharacterError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected character %c",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnexpectedTokenError struct {
	Position Cursor
	Received string
}

func (err *UnexpectedTokenError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedTokenError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *UnexpectedTokenError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unexpected '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type MisplacedParameterError struct {
	Position Cursor
	Received string
}

func (err *MisplacedParameterError) GetPosition() Cursor {
	return err.Position
}

func (err *MisplacedParameterError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *MisplacedParameterError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Parameter '%s' must lead a subcall body",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnterminatedObjectError struct {
	Position Cursor
	Received string
}

func (err *UnterminatedObjectError) GetPosition() Cursor {
	return err.Position
}

func (err *UnterminatedObjectError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *UnterminatedObjectError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Object '%s' has no closing brace",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type NoObjectsError struct{}

func (err *NoObjectsError) Is(target error) bool {
	return target == ErrSyntax
}

func (err *NoObjectsError) Error() string {
	return "Program declares no vmthread or subcall"
}

type RedeclaredSymbolError struct {
	Position Cursor
	Received string
}

func (err *RedeclaredSymbolError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredSymbolError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *RedeclaredSymbolError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Redeclaration of '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownLabelError struct {
	Position Cursor
	Received string
}

func (err *UnknownLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownLabelError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *UnknownLabelError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown label '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownIdentifierError struct {
	Position Cursor
	Received string
}

func (err *UnknownIdentifierError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownIdentifierError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *UnknownIdentifierError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown identifier '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownObjectError struct {
	Position Cursor
	Received string
}

func (err *UnknownObjectError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownObjectError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *UnknownObjectError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown object '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownOperationError struct {
	Position Cursor
	Received string
}

func (err *UnknownOperationError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownOperationError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *UnknownOperationError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown operation '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}

type UnknownSubcodeError struct {
	Position Cursor
	Family   string
	Received string
}

func (err *UnknownSubcodeError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownSubcodeError) Is(target error) bool {
	return target == ErrSymbol
}

func (err *UnknownSubcodeError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Unknown %s sub-operation '%s'",
		err.Position.Line,
		err.Position.Column,
		err.Family,
		err.Received,
	)
}

type UnresolvedReferenceError struct {
	Position Cursor
	Received string
}

func (err *UnresolvedReferenceError) GetPosition() Cursor {
	return err.Position
}

func (err *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrResolution
}

func (err *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf(
		"%02d:%02d: Reference to '%s' was never resolved",
		err.Position.Line,
		err.Position.Column,
		err.Received,
	)
}
