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

package inspector_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/lassandro/golms/pkg/assembler"
	"github.com/lassandro/golms/pkg/inspector"
)

const source = "vmthread MAIN\n" +
	"{\n" +
	"DATA8 i\n" +
	"loop:\n" +
	"ADD8 i 1 i\n" +
	"JR_LT8 i 10 loop\n" +
	"JR done\n" +
	"done:\n" +
	"}"

func setup(t *testing.T, withSymbols bool) (*inspector.Inspector, *bytes.Buffer) {
	symtable := assembler.NewSymTable()
	result, errs := assembler.AssembleLMSSource(strings.NewReader(source), symtable)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	var out bytes.Buffer
	in := inspector.New(result, &out)

	if withSymbols {
		in.SymTable = symtable
		in.Source = strings.NewReader(source)
	}

	return in, &out
}

func TestPrint(t *testing.T) {
	tests := []struct {
		Name   string
		Print  func(in *inspector.Inspector) error
		Output string
	}{
		{
			Name:  "Source",
			Print: func(in *inspector.Inspector) error { return in.PrintSource(28, 4) },
			Output: "[0x001c] ADD8 i 1 i\n" +
				"[0x0020] JR_LT8 i 10 loop\n" +
				"[0x0026] JR done\n" +
				"~~~~~~~~ done:\n",
		},
		{
			Name:  "Source Past End",
			Print: func(in *inspector.Inspector) error { return in.PrintSource(38, 5) },
			Output: "[0x0026] JR done\n" +
				"~~~~~~~~ done:\n" +
				"~~~~~~~~ }\n",
		},
		{
			Name:  "Listing",
			Print: func(in *inspector.Inspector) error { return in.PrintListing() },
			Output: "~~~~~~~~ vmthread MAIN\n" +
				"~~~~~~~~ {\n" +
				"~~~~~~~~ DATA8 i\n" +
				"~~~~~~~~ loop:\n" +
				"[0x001c] ADD8 i 1 i\n" +
				"[0x0020] JR_LT8 i 10 loop\n" +
				"[0x0026] JR done\n" +
				"~~~~~~~~ done:\n" +
				"~~~~~~~~ }\n",
		},
		{
			Name:  "Memory",
			Print: func(in *inspector.Inspector) error { return in.PrintMem(28, 10) },
			Output: "[0x001c] 10 40 01 40 64 40 0a 82 \n" +
				"[0x0024] f6 ff \n",
		},
		{
			Name:   "Memory Past End",
			Print:  func(in *inspector.Inspector) error { return in.PrintMem(40, 100) },
			Output: "[0x0028] 00 00 0a \n",
		},
		{
			Name:   "Labels",
			Print:  func(in *inspector.Inspector) error { return in.PrintLabels() },
			Output: "[0x001c] loop\n[0x002a] done\n",
		},
		{
			Name:  "Objects",
			Print: func(in *inspector.Inspector) error { return in.PrintObjects() },
			Output: "Version 1.09, 43 bytes, 0 global bytes\n" +
				"[0x001c] #1 vmthread MAIN, 1 local bytes\n",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			in, out := setup(t, true)

			if err := test.Print(in); err != nil {
				t.Fatal(err)
			}

			if out.String() != test.Output {
				t.Fatalf("Output mismatch\nwant:\n%q\nhave:\n%q", test.Output, out.String())
			}
		})
	}
}

func TestColor(t *testing.T) {
	in, out := setup(t, true)
	in.Color = true

	if err := in.PrintMem(40, 1); err != nil {
		t.Fatal(err)
	}

	want := "\033[1m[0x0028]\033[0m \033[1;30m00\033[0m \n"

	if out.String() != want {
		t.Fatalf("Output mismatch\nwant:%q\nhave:%q", want, out.String())
	}
}

func TestResolve(t *testing.T) {
	in, _ := setup(t, true)

	tests := []struct {
		Name string
		Addr uint32
	}{
		{"loop", 28},
		{"done", 42},
		{"MAIN", 28},
		{"0x2a", 42},
	}

	for _, test := range tests {
		addr, err := in.Resolve(test.Name)

		if err != nil {
			t.Fatalf("%s: %v", test.Name, err)
		}

		if addr != test.Addr {
			t.Fatalf("%s: address mismatch\nwant:%#x\nhave:%#x", test.Name, test.Addr, addr)
		}
	}

	var nameErr *inspector.UnknownNameError

	if _, err := in.Resolve("nowhere"); !errors.As(err, &nameErr) {
		t.Fatalf("Expected UnknownNameError, got %v", err)
	}
}

func TestErrors(t *testing.T) {
	bare, _ := setup(t, false)

	if err := bare.PrintSource(28, 1); !errors.Is(err, inspector.ErrNoSymTable) {
		t.Fatalf("Expected ErrNoSymTable, got %v", err)
	}

	if err := bare.PrintLabels(); !errors.Is(err, inspector.ErrNoSymTable) {
		t.Fatalf("Expected ErrNoSymTable, got %v", err)
	}

	if _, err := bare.Resolve("loop"); !errors.Is(err, inspector.ErrNoSymTable) {
		t.Fatalf("Expected ErrNoSymTable, got %v", err)
	}

	in, _ := setup(t, true)
	in.Source = nil

	if err := in.PrintSource(28, 1); !errors.Is(err, inspector.ErrNoSource) {
		t.Fatalf("Expected ErrNoSource, got %v", err)
	}

	in, _ = setup(t, true)

	var noInstr *inspector.NoInstructionError

	if err := in.PrintSource(29, 1); !errors.As(err, &noInstr) {
		t.Fatalf("Expected NoInstructionError, got %v", err)
	}

	var outOfImage *inspector.OutOfImageError

	if err := in.PrintMem(43, 1); !errors.As(err, &outOfImage) {
		t.Fatalf("Expected OutOfImageError, got %v", err)
	}
}
