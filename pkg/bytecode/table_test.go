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

package bytecode_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/lassandro/golms/pkg/bytecode"
)

func TestDefault(t *testing.T) {
	table, err := bytecode.Default()

	if err != nil {
		t.Fatal(err)
	}

	again, _ := bytecode.Default()

	if again != table {
		t.Fatal("Default table was parsed twice")
	}

	tests := []struct {
		Name   string
		Code   byte
		Params []bytecode.ParamKind
	}{
		{"OUTPUT_STOP", 0xA3, []bytecode.ParamKind{
			bytecode.PAR8, bytecode.PAR8, bytecode.PAR8,
		}},
		{"OBJECT_END", 0x0A, []bytecode.ParamKind{}},
		{"CALL", 0x09, []bytecode.ParamKind{bytecode.PAROBJ, bytecode.PARNO}},
		{"JR", 0x40, []bytecode.ParamKind{bytecode.PAROFFSET}},
		{"JR_LT8", 0x64, []bytecode.ParamKind{
			bytecode.PAR8, bytecode.PAR8, bytecode.PAROFFSET,
		}},
		{"INIT_BYTES", 0x2F, []bytecode.ParamKind{
			bytecode.PAR8, bytecode.PAR32, bytecode.PARVALUES, bytecode.PAR8,
		}},
		{"UI_DRAW", 0x84, []bytecode.ParamKind{bytecode.SUBP}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			op, exists := table.Op(test.Name)

			if !exists {
				t.Fatalf("Missing operation %s", test.Name)
			}

			if op.Code != test.Code {
				t.Fatalf(
					"Opcode mismatch\nwant:%#02x\nhave:%#02x", test.Code, op.Code,
				)
			}

			kinds := make([]bytecode.ParamKind, 0, len(op.Params))
			for _, p := range op.Params {
				kinds = append(kinds, p.Kind)
			}

			if !reflect.DeepEqual(kinds, test.Params) {
				t.Fatalf(
					"Signature mismatch\nwant:%v\nhave:%v", test.Params, kinds,
				)
			}

			if byCode, _ := table.OpByCode(test.Code); byCode != op {
				t.Fatalf("OpByCode(%#02x) returned %v", test.Code, byCode)
			}
		})
	}
}

func TestFamilies(t *testing.T) {
	table, err := bytecode.Default()

	if err != nil {
		t.Fatal(err)
	}

	op, _ := table.Op("UI_DRAW")
	family := op.Params[0].Family

	if family == nil || family.Name != "UI_DRAW" {
		t.Fatalf("UI_DRAW selector is not bound to its family: %v", family)
	}

	fill, exists := family.Subcodes["FILLWINDOW"]

	if !exists {
		t.Fatal("Missing UI_DRAW FILLWINDOW")
	}

	if byValue := family.ByValue[fill.Value]; byValue != fill {
		t.Fatalf("ByValue[%d] mismatch\nwant:%v\nhave:%v", fill.Value, fill, byValue)
	}

	for _, sub := range family.Sorted() {
		for _, p := range sub.Params {
			if p.Kind == bytecode.SUBP {
				t.Fatalf("%s selects a nested family", sub.Name)
			}
		}
	}

	if value, exists := table.Enum("DATA8_NAN"); !exists || value != -128 {
		t.Fatalf("Enum DATA8_NAN\nwant:-128\nhave:%d", value)
	}
}

func TestSorted(t *testing.T) {
	table, err := bytecode.Default()

	if err != nil {
		t.Fatal(err)
	}

	ops := table.Sorted()

	if len(ops) != len(table.Ops) {
		t.Fatalf("Sorted length\nwant:%d\nhave:%d", len(table.Ops), len(ops))
	}

	for i := 1; i < len(ops); i++ {
		if ops[i-1].Code >= ops[i].Code {
			t.Fatalf("%s sorted after %s", ops[i].Name, ops[i-1].Name)
		}
	}
}

func TestParse(t *testing.T) {
	table, err := bytecode.Parse([]byte(`
families:
  TINY:
    ONE: {value: 1, params: [PAR8]}
ops:
  NOP: {value: 0x01, params: []}
  TINY: {value: 0x02, params: [TINY]}
enums:
  ANSWER: 42
`))

	if err != nil {
		t.Fatal(err)
	}

	op, _ := table.Op("TINY")

	if have := op.Signature(); have != "(TINY)" {
		t.Fatalf("Signature\nwant:(TINY)\nhave:%s", have)
	}

	if have := op.Params[0].Family.Subcodes["ONE"].Signature(); have != "(PAR8)" {
		t.Fatalf("Signature\nwant:(PAR8)\nhave:%s", have)
	}

	if _, err := bytecode.Load(strings.NewReader("ops: [")); err == nil {
		t.Fatal("Malformed YAML was accepted")
	}
}

func TestParseFail(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Error error
	}{
		{
			Name:  "Unknown Kind",
			Input: "ops:\n  FOO: {value: 1, params: [PAR64]}",
			Error: &bytecode.UnknownParamError{},
		},
		{
			Name:  "PARNO Not Last",
			Input: "ops:\n  FOO: {value: 1, params: [PARNO, PAR8]}",
			Error: &bytecode.InvalidSignatureError{},
		},
		{
			Name:  "PARVALUES Without Count",
			Input: "ops:\n  FOO: {value: 1, params: [PARF, PARVALUES, PAR8]}",
			Error: &bytecode.InvalidSignatureError{},
		},
		{
			Name:  "PARVALUES Without Element",
			Input: "ops:\n  FOO: {value: 1, params: [PAR8, PARVALUES]}",
			Error: &bytecode.InvalidSignatureError{},
		},
		{
			Name: "Nested Selector",
			Input: "families:\n" +
				"  A:\n    X: {value: 0, params: [B]}\n" +
				"  B:\n    Y: {value: 0, params: []}\n",
			Error: &bytecode.InvalidSignatureError{},
		},
		{
			Name:  "Duplicate Opcode",
			Input: "ops:\n  FOO: {value: 1, params: []}\n  BAR: {value: 1, params: []}",
			Error: &bytecode.DuplicateValueError{},
		},
		{
			Name:  "Oversized Opcode",
			Input: "ops:\n  FOO: {value: 0x100, params: []}",
			Error: &bytecode.OversizedValueError{},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := bytecode.Parse([]byte(test.Input))

			if reflect.TypeOf(err) != reflect.TypeOf(test.Error) {
				t.Fatalf(
					"%s produced error of incorrect type"+
						"\nwant:%T (test.Error)\nhave:%T (%v)",
					t.Name(),
					test.Error,
					err,
					err,
				)
			}
		})
	}
}
