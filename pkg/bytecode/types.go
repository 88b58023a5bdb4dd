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

package bytecode

import (
	"fmt"
	"strings"
)

type ParamKind uint8

func (kind ParamKind) String() string {
	for name, k := range paramNames {
		if k == kind {
			return name
		}
	}

	if kind == SUBP {
		return "SUBP"
	}

	return "<invalid>"
}

// Integer reports whether the slot takes a plain integer operand.
func (kind ParamKind) Integer() bool {
	return kind == PAR8 || kind == PAR16 || kind == PAR32
}

// A Param is one slot of an operation signature. Selector slots carry the
// family whose sub-operation the next operand names.
type Param struct {
	Kind   ParamKind
	Family *Family
}

func (p Param) String() string {
	if p.Kind == SUBP && p.Family != nil {
		return p.Family.Name
	}

	return p.Kind.String()
}

type Op struct {
	Name   string
	Code   byte
	Params []Param
}

// Signature renders the parameter list the way it is written in the table.
func (op *Op) Signature() string {
	return signature(op.Params)
}

type Subcode struct {
	Name   string
	Value  byte
	Params []Param
}

func (sub *Subcode) Signature() string {
	return signature(sub.Params)
}

type Family struct {
	Name     string
	Subcodes map[string]*Subcode
	ByValue  map[byte]*Subcode
}

type Table struct {
	Ops      map[string]*Op
	ByCode   map[byte]*Op
	Families map[string]*Family
	Enums    map[string]int64
}

func signature(params []Param) string {
	names := make([]string, 0, len(params))

	for _, p := range params {
		names = append(names, p.String())
	}

	return "(" + strings.Join(names, ", ") + ")"
}

type UnknownParamError struct {
	Owner    string
	Received string
}

func (err *UnknownParamError) Error() string {
	return fmt.Sprintf("%s: Unknown parameter kind '%s'", err.Owner, err.Received)
}

type InvalidSignatureError struct {
	Owner  string
	Reason string
}

func (err *InvalidSignatureError) Error() string {
	return fmt.Sprintf("%s: Invalid signature, %s", err.Owner, err.Reason)
}

type DuplicateValueError struct {
	Owner    string
	Received int
	Existing string
}

func (err *DuplicateValueError) Error() string {
	return fmt.Sprintf(
		"%s: Value %#02x already used by %s",
		err.Owner,
		err.Received,
		err.Existing,
	)
}

type OversizedValueError struct {
	Owner    string
	Received int
}

func (err *OversizedValueError) Error() string {
	return fmt.Sprintf(
		"%s: Value exceeds one byte\n\twant:0-255\n\thave:%d",
		err.Owner,
		err.Received,
	)
}
